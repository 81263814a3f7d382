// Package capture is the audio-thread entry point: it opens a real
// microphone input device and feeds fixed-size frames to a Producer.
//
// Grounded on the teacher's internal/ui/ui.go SDL audio device setup
// (sdl.OpenAudioDevice, sdl.AudioSpec) and its use of SDL's queued audio
// API for output (sdl.QueueAudio); here the device is opened in capture
// mode (iscapture=true) and polled with SDL's symmetric sdl.DequeueAudio,
// mono float32 at the configured sample rate instead of stereo 735-
// sample playback frames.
package capture

import (
	"fmt"
	"math"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/intonetrainer/core/internal/producer"
	"github.com/intonetrainer/core/internal/telemetry"
)

// Device owns an SDL capture device and pushes its dequeued samples
// into a Producer, re-chunked to the producer's fixed frame size.
type Device struct {
	devID sdl.AudioDeviceID
	prod  *producer.Producer
	log   *telemetry.Logger

	frameSize int
	pending   []float32
}

// Open initializes SDL audio and opens the default capture device at
// sampleRateHz, mono, float32. Call Poll periodically (once per audio
// callback period, e.g. from a dedicated goroutine) to drain captured
// samples into the producer.
func Open(prod *producer.Producer, log *telemetry.Logger, sampleRateHz, frameSize int) (*Device, error) {
	if err := sdl.Init(sdl.INIT_AUDIO); err != nil {
		return nil, fmt.Errorf("capture: sdl init: %w", err)
	}

	desired := sdl.AudioSpec{
		Freq:     int32(sampleRateHz),
		Format:   sdl.AUDIO_F32,
		Channels: 1,
		Samples:  uint16(frameSize),
	}

	devID, err := sdl.OpenAudioDevice("", true, &desired, nil, 0)
	if err != nil {
		sdl.Quit()
		return nil, fmt.Errorf("capture: open audio device: %w", err)
	}

	return &Device{devID: devID, prod: prod, log: log, frameSize: frameSize}, nil
}

// Start begins delivering frames (unpauses the device).
func (d *Device) Start() {
	sdl.PauseAudioDevice(d.devID, false)
}

// Stop stops delivering frames without closing the device.
func (d *Device) Stop() {
	sdl.PauseAudioDevice(d.devID, true)
}

// Close stops and releases the capture device.
func (d *Device) Close() {
	sdl.CloseAudioDevice(d.devID)
}

// Poll dequeues whatever samples SDL has buffered since the last call,
// re-chunks them to the producer's fixed frame size, and pushes each
// complete frame. SDL's queue size per call is a request, not a
// guarantee, so partial frames are carried over in d.pending.
func (d *Device) Poll() error {
	queued := sdl.GetQueuedAudioSize(d.devID)
	if queued == 0 {
		return nil
	}

	raw := make([]byte, queued)
	n := sdl.DequeueAudio(d.devID, raw)
	if n <= 0 {
		return nil
	}

	samples := bytesToFloat32(raw[:n])
	d.pending = append(d.pending, samples...)

	for len(d.pending) >= d.frameSize {
		d.prod.PushFrame(d.pending[:d.frameSize])
		d.pending = d.pending[d.frameSize:]
	}
	return nil
}

func bytesToFloat32(raw []byte) []float32 {
	out := make([]float32, len(raw)/4)
	for i := range out {
		bits := uint32(raw[i*4]) | uint32(raw[i*4+1])<<8 | uint32(raw[i*4+2])<<16 | uint32(raw[i*4+3])<<24
		out[i] = math.Float32frombits(bits)
	}
	return out
}
