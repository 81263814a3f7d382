package pitch

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func sineWave(freq, amplitude float64, sampleRate float64, n int) []float32 {
	samples := make([]float32, n)
	for i := range samples {
		samples[i] = float32(amplitude * math.Sin(2*math.Pi*freq*float64(i)/sampleRate))
	}
	return samples
}

func TestDetectSilenceIsNotDetected(t *testing.T) {
	result := Detect(make([]float32, 2048), 44100, 0.3, 0.2)
	require.False(t, result.Detected)
}

// S2 — pure A4.
func TestDetectPureA4(t *testing.T) {
	samples := sineWave(440, 0.5, 44100, 2048)
	result := Detect(samples, 44100, 0.3, 0.2)
	require.True(t, result.Detected)
	require.InDelta(t, 440, result.FrequencyHz, 1.0)
	require.GreaterOrEqual(t, result.Clarity, 0.9)
}

func TestDetectRejectsBelowPowerThreshold(t *testing.T) {
	samples := sineWave(440, 0.05, 44100, 2048)
	result := Detect(samples, 44100, 0.3, 0.2)
	require.False(t, result.Detected)
}

func TestDetectRejectsBelowFrequencyFloor(t *testing.T) {
	samples := sineWave(20, 0.5, 44100, 2048)
	result := Detect(samples, 44100, 0.01, 0.01)
	require.False(t, result.Detected)
}

func TestDetectIsStateless(t *testing.T) {
	samples := sineWave(523.25, 0.6, 44100, 2048)
	r1 := Detect(samples, 44100, 0.3, 0.2)
	r2 := Detect(samples, 44100, 0.3, 0.2)
	require.Equal(t, r1, r2)
}
