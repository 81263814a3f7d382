// Package driver implements the Frame Assembler & Analysis Driver
// (§4.7): the analysis-thread loop that receives batches from the
// transport, immediately recycles their buffers, and composes volume,
// pitch, smoothing, and music-theory into a Frame Result.
//
// Grounded on the teacher's internal/emulator.Emulator lifecycle
// (Running/Paused state, Start/Stop, per-tick orchestration of
// sub-components), retargeted from CPU/PPU/APU stepping to
// batch-driven analysis stepping.
package driver

import (
	"github.com/intonetrainer/core/internal/pitch"
	"github.com/intonetrainer/core/internal/smoothing"
	"github.com/intonetrainer/core/internal/telemetry"
	"github.com/intonetrainer/core/internal/theory"
	"github.com/intonetrainer/core/internal/transport"
	"github.com/intonetrainer/core/internal/volume"
)

// state is the driver's Idle/Running state machine (§4.7).
type state int

const (
	stateIdle state = iota
	stateRunning
)

// TuningState is the user-settable mapper configuration (§6.3),
// mutated by the presentation layer between frames.
type TuningState struct {
	TuningSystem   theory.TuningSystem
	Scale          theory.Scale
	TuningForkNote uint8
}

// FrameResult is the per-window output emitted to the presentation
// layer (§3).
type FrameResult struct {
	Volume            volume.Level
	IsPeaking         bool
	PitchDetected     bool
	FrequencyHz       float64
	Clarity           float64
	ClosestMidiNote   uint8
	HasClosestNote    bool
	CentsOffset       float64
	IntervalSemitones int
	TuningForkNote    uint8
}

// Params bundles the driver's fixed configuration, read once at init.
type Params struct {
	SampleRateHz                     float64
	PowerThreshold                   float64
	ClarityThreshold                 float64
	VolumePeakThreshold              float64
	IntonationAccuracyThresholdCents float64
	Smoothing                        smoothing.Params
}

// Driver is the analysis-thread orchestrator.
type Driver struct {
	link   *transport.Link
	log    *telemetry.Logger
	params Params
	tuning TuningState

	state state

	freqSmoother    *smoothing.Smoother
	claritySmoother *smoothing.Smoother

	lastDetectedFrequency float64
	haveLastFrequency     bool
}

// New creates a Driver bound to link, starting Idle.
func New(link *transport.Link, log *telemetry.Logger, params Params, tuning TuningState) *Driver {
	return &Driver{
		link:            link,
		log:             log,
		params:          params,
		tuning:          tuning,
		freqSmoother:    smoothing.New(params.Smoothing),
		claritySmoother: smoothing.New(params.Smoothing),
	}
}

// Start transitions the driver to Running and notifies the producer.
// Idempotent (invariant 9, §8).
func (d *Driver) Start() {
	if d.state == stateRunning {
		return
	}
	d.state = stateRunning
	d.link.SendStart()
}

// Stop transitions the driver to Idle and notifies the producer.
// Idempotent.
func (d *Driver) Stop() {
	if d.state == stateIdle {
		return
	}
	d.state = stateIdle
	d.link.SendStop()
}

// SetTuning updates the mapper's user-settable state (§6.3) for
// subsequent frames.
func (d *Driver) SetTuning(tuning TuningState) {
	d.tuning = tuning
}

// ProcessNext drains and processes one message from the transport, if
// any is available, returning the resulting FrameResult. ok is false if
// no message was pending, or if the driver is Idle (in which case a
// pending batch's buffer is still recycled, per §4.7).
func (d *Driver) ProcessNext() (FrameResult, bool) {
	select {
	case msg := <-d.link.Data():
		return d.handle(msg)
	default:
		return FrameResult{}, false
	}
}

func (d *Driver) handle(msg transport.DataMessage) (FrameResult, bool) {
	if msg.Err != nil {
		if d.log != nil {
			d.log.Log(telemetry.ComponentDriver, telemetry.LevelWarning,
				"ProcessingError from producer", map[string]interface{}{"error": msg.Err.Error})
		}
		return FrameResult{}, false
	}

	batch := msg.Batch
	payload := batch.Payload

	// Copy out, then immediately return the buffer — pool occupancy
	// must be bounded by transport depth, not analysis latency (§4.7).
	window := make([]float32, len(payload))
	copy(window, payload)
	d.link.SendReturnBuffer(batch.BufferID, payload[:0])

	if d.state == stateIdle {
		return FrameResult{}, false
	}

	return d.analyze(window), true
}

func (d *Driver) analyze(window []float32) FrameResult {
	level := volume.Analyze(window)
	isPeaking := level.IsPeaking(d.params.VolumePeakThreshold)

	raw := pitch.Detect(window, d.params.SampleRateHz, d.params.PowerThreshold, d.params.ClarityThreshold)

	result := FrameResult{
		Volume:         level,
		IsPeaking:      isPeaking,
		TuningForkNote: d.tuning.TuningForkNote,
	}

	var clarityInput float64
	var frequencyInput float64
	haveFrequencyInput := false

	if raw.Detected {
		clarityInput = raw.Clarity
		frequencyInput = raw.FrequencyHz
		haveFrequencyInput = true
		d.lastDetectedFrequency = raw.FrequencyHz
		d.haveLastFrequency = true
	} else {
		clarityInput = 0
		if d.haveLastFrequency {
			frequencyInput = d.lastDetectedFrequency
			haveFrequencyInput = true
		}
	}

	smoothedClarity := d.claritySmoother.Apply(clarityInput)

	var smoothedFrequency float64
	if haveFrequencyInput {
		smoothedFrequency = d.freqSmoother.Apply(frequencyInput)
	}

	if smoothedClarity < d.params.ClarityThreshold*0.5 {
		d.freqSmoother.Reset()
		d.claritySmoother.Reset()
		d.haveLastFrequency = false
		return result
	}

	if !haveFrequencyInput {
		return result
	}

	result.PitchDetected = true
	result.FrequencyHz = smoothedFrequency
	result.Clarity = smoothedClarity

	note, cents, interval, ok := theory.MapFrequency(smoothedFrequency, d.tuning.TuningForkNote, d.tuning.TuningSystem, d.tuning.Scale)
	if ok {
		result.HasClosestNote = true
		result.ClosestMidiNote = note
		result.CentsOffset = cents
		result.IntervalSemitones = interval
	}

	return result
}

// InTune reports whether result represents an accurate, non-peaking
// frame per §7's in-tune display rule.
func (r FrameResult) InTune(thresholdCents float64) bool {
	if !r.HasClosestNote || r.IsPeaking {
		return false
	}
	if r.CentsOffset < 0 {
		return -r.CentsOffset < thresholdCents
	}
	return r.CentsOffset < thresholdCents
}
