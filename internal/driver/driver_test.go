package driver

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/intonetrainer/core/internal/smoothing"
	"github.com/intonetrainer/core/internal/testsignal"
	"github.com/intonetrainer/core/internal/theory"
	"github.com/intonetrainer/core/internal/transport"
)

func referenceParams() Params {
	return Params{
		SampleRateHz:                      44100,
		PowerThreshold:                    0.3,
		ClarityThreshold:                  0.2,
		VolumePeakThreshold:               0.9886,
		IntonationAccuracyThresholdCents:  15,
		Smoothing: smoothing.Params{
			AlphaMin: 0.2, AlphaMax: 0.2,
			D: 5, S: 10,
			DeadbandHz: 0, HystDown: 1, HystUp: 3,
			HampelWindow: 7, HampelNSigma: 3,
			UseAdaptiveEMA: false, UseMedian3: true, UseHampel: false,
			FixedAlpha: 0.2,
		},
	}
}

func sendBatch(link *transport.Link, samples []float32) {
	link.TrySendBatch(transport.AudioDataBatch{BufferID: 1, SampleCount: len(samples), Payload: samples})
}

// S1 — silence.
func TestDriverSilence(t *testing.T) {
	link := transport.NewLink(4)
	d := New(link, nil, referenceParams(), TuningState{TuningSystem: theory.EqualTemperament, Scale: theory.Chromatic, TuningForkNote: 69})
	d.Start()

	sendBatch(link, testsignal.Silence(2048))
	result, ok := d.ProcessNext()
	require.True(t, ok)
	require.False(t, result.IsPeaking)
	require.False(t, result.HasClosestNote)
	require.Equal(t, 0.0, result.CentsOffset)
	require.Equal(t, 0, result.IntervalSemitones)
}

// S2 — pure A4.
func TestDriverPureA4(t *testing.T) {
	link := transport.NewLink(4)
	d := New(link, nil, referenceParams(), TuningState{TuningSystem: theory.EqualTemperament, Scale: theory.Chromatic, TuningForkNote: 69})
	d.Start()

	samples := testsignal.Sine(440, 0.5, 44100, 2048)
	sendBatch(link, samples)
	result, ok := d.ProcessNext()
	require.True(t, ok)
	require.True(t, result.HasClosestNote)
	require.Equal(t, uint8(69), result.ClosestMidiNote)
	require.Equal(t, 0, result.IntervalSemitones)
	require.InDelta(t, 0, result.CentsOffset, 10)
	require.False(t, result.IsPeaking)
}

// S3 — Just Intonation perfect fifth.
func TestDriverJustIntonationFifth(t *testing.T) {
	link := transport.NewLink(4)
	d := New(link, nil, referenceParams(), TuningState{TuningSystem: theory.JustIntonation, Scale: theory.Chromatic, TuningForkNote: 69})
	d.Start()

	samples := testsignal.Sine(660, 0.5, 44100, 2048)
	sendBatch(link, samples)
	result, ok := d.ProcessNext()
	require.True(t, ok)
	require.True(t, result.HasClosestNote)
	require.Equal(t, uint8(76), result.ClosestMidiNote)
	require.Equal(t, 7, result.IntervalSemitones)
	require.InDelta(t, 0, result.CentsOffset, 2)
}

func TestDriverRecyclesBufferRegardlessOfState(t *testing.T) {
	link := transport.NewLink(4)
	d := New(link, nil, referenceParams(), TuningState{TuningSystem: theory.EqualTemperament, Scale: theory.Chromatic, TuningForkNote: 69})
	// not started: still Idle

	sendBatch(link, testsignal.Sine(440, 0.5, 44100, 2048))
	_, ok := d.ProcessNext()
	require.False(t, ok, "Idle driver drops the frame but must still recycle")

	recycle := <-link.Control()
	require.NotNil(t, recycle.Recycle)
	require.Equal(t, 1, recycle.Recycle.BufferID)
}

func TestStartStopIdempotent(t *testing.T) {
	link := transport.NewLink(4)
	d := New(link, nil, referenceParams(), TuningState{})
	d.Start()
	d.Start()
	<-link.Control() // first Start
	select {
	case <-link.Control():
		t.Fatal("second Start must be a no-op")
	default:
	}
}

// S6 — loss-of-signal decay: detected A4 then silence, clarity decays
// and eventually the frame result reverts to NotDetected with state
// reset.
func TestDriverLossOfSignalDecay(t *testing.T) {
	link := transport.NewLink(8)
	params := referenceParams()
	d := New(link, nil, params, TuningState{TuningSystem: theory.EqualTemperament, Scale: theory.Chromatic, TuningForkNote: 69})
	d.Start()

	sendBatch(link, testsignal.Sine(440, 0.5, 44100, 2048))
	first, ok := d.ProcessNext()
	require.True(t, ok)
	require.True(t, first.PitchDetected)

	sawReset := false
	for i := 0; i < 50; i++ {
		sendBatch(link, testsignal.Silence(2048))
		result, ok := d.ProcessNext()
		require.True(t, ok)
		if !result.PitchDetected {
			sawReset = true
			break
		}
		// While decaying, frequency keeps being reported near 440 Hz.
		require.InDelta(t, 440, result.FrequencyHz, 5)
	}
	require.True(t, sawReset, "clarity must eventually decay below threshold and reset")
}
