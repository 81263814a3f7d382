// Package testsignal generates deterministic tones for tests and for
// the no-hardware capture fallback. It is the test-signal/tuning-fork
// oscillator the specification places out of scope as a production
// audio-graph node (§1) — it is wired only here, never into the
// production driver path.
//
// The phase-accumulator core is grounded on the teacher's
// internal/apu/fixed_point.go (32-bit phase accumulator, frequency ->
// phase-increment conversion), simplified from the teacher's 4-channel
// mixed waveform generator down to a single sine oscillator, since a
// test tone needs only one voice.
package testsignal

import "math"

// PhaseMax mirrors the teacher's fixed-point phase wraparound constant:
// a uint32 phase accumulator represents one full 0-2π cycle.
const PhaseMax = uint32(0xFFFFFFFF)

// Oscillator is a single-voice sine generator driven by a 32-bit phase
// accumulator, matching the teacher's per-channel phase stepping.
type Oscillator struct {
	sampleRateHz     float64
	phase            uint32
	phaseIncrement   uint32
	frequencyHz      float64
	amplitude        float64
}

// NewOscillator creates an oscillator at frequencyHz / amplitude,
// sampled at sampleRateHz.
func NewOscillator(sampleRateHz, frequencyHz, amplitude float64) *Oscillator {
	o := &Oscillator{sampleRateHz: sampleRateHz, amplitude: amplitude}
	o.SetFrequency(frequencyHz)
	return o
}

// SetFrequency recomputes the phase increment for a new frequency,
// mirroring updatePhaseIncrementFixed's (freq * 2^32) / sampleRate.
func (o *Oscillator) SetFrequency(frequencyHz float64) {
	o.frequencyHz = frequencyHz
	if o.sampleRateHz == 0 {
		o.phaseIncrement = 0
		return
	}
	o.phaseIncrement = uint32((frequencyHz * 4294967296.0) / o.sampleRateHz)
}

// Next advances the phase accumulator and returns one float32 sample in
// [-amplitude, amplitude].
func (o *Oscillator) Next() float32 {
	sample := o.amplitude * math.Sin(2*math.Pi*float64(o.phase)/4294967296.0)
	o.phase += o.phaseIncrement
	return float32(sample)
}

// Fill writes len(buf) samples into buf, reusing the accumulator's running
// phase across calls so consecutive Fill calls produce a continuous
// waveform.
func (o *Oscillator) Fill(buf []float32) {
	for i := range buf {
		buf[i] = o.Next()
	}
}

// Sine renders n samples of a pure sine tone in one call, without
// retaining any oscillator state — a convenience for table-driven tests
// that don't need streaming continuity.
func Sine(frequencyHz, amplitude, sampleRateHz float64, n int) []float32 {
	osc := NewOscillator(sampleRateHz, frequencyHz, amplitude)
	buf := make([]float32, n)
	osc.Fill(buf)
	return buf
}

// Silence renders n zero samples.
func Silence(n int) []float32 {
	return make([]float32, n)
}
