// Package smoothing implements the four-stage adaptive smoothing chain
// (§4.5): a median-of-3 prefilter, Hampel outlier suppression, an
// adaptive sigmoid-gated EMA, and deadband/hysteresis gating, with a
// loss-of-signal decay and reset policy.
//
// Stage 3's EMA core is grounded on
// original_source/intonation-toy/common/smoothing.rs's EmaSmoother
// (first-sample initialization, previous-value blend); stages 1, 2, and
// 4 are not present in that source and are designed fresh to match its
// struct-holds-state shape (§9 design note).
package smoothing

import (
	"math"
	"sort"
)

// Params bundles the smoothing chain's configuration (§3 Configuration).
type Params struct {
	AlphaMin, AlphaMax float64
	D, S               float64
	DeadbandHz         float64
	HystDown, HystUp   float64
	HampelWindow       int
	HampelNSigma       float64
	UseAdaptiveEMA     bool
	UseMedian3         bool
	UseHampel          bool
	FixedAlpha         float64
}

// AlphaFromPeriod converts an EMA sample period to the equivalent alpha,
// via the standard 2/(period+1) formula (smoothing.rs from_period).
func AlphaFromPeriod(period float64) float64 {
	return 2.0 / (period + 1.0)
}

// PeriodFromAlpha is the inverse of AlphaFromPeriod.
func PeriodFromAlpha(alpha float64) float64 {
	return 2.0/alpha - 1.0
}

// median3Window is the fixed-size sliding window for the median-of-3
// prefilter (stage 1).
type median3Window struct {
	values [3]float64
	count  int
}

func (w *median3Window) push(v float64) float64 {
	if w.count < 3 {
		w.values[w.count] = v
		w.count++
		if w.count < 3 {
			return v
		}
		return medianOf3(w.values)
	}
	w.values[0], w.values[1], w.values[2] = w.values[1], w.values[2], v
	return medianOf3(w.values)
}

func (w *median3Window) reset() {
	w.count = 0
}

func medianOf3(v [3]float64) float64 {
	a, b, c := v[0], v[1], v[2]
	if a > b {
		a, b = b, a
	}
	if b > c {
		b, c = c, b
	}
	if a > b {
		a, b = b, a
	}
	return b
}

// hampelWindow is the sliding window for Hampel outlier suppression
// (stage 2): centred on the middle element once full.
type hampelWindow struct {
	buf  []float64
	size int
}

func newHampelWindow(size int) *hampelWindow {
	if size < 3 {
		size = 3
	}
	if size%2 == 0 {
		size++
	}
	return &hampelWindow{size: size}
}

// push appends v and, once the window is full, returns the
// Hampel-filtered value for the window's centre element.
func (w *hampelWindow) push(v float64, nsigma float64) (filtered float64, ready bool) {
	w.buf = append(w.buf, v)
	if len(w.buf) < w.size {
		return v, false
	}
	if len(w.buf) > w.size {
		w.buf = w.buf[len(w.buf)-w.size:]
	}

	sorted := append([]float64(nil), w.buf...)
	sort.Float64s(sorted)
	m := median(sorted)

	deviations := make([]float64, len(w.buf))
	for i, x := range w.buf {
		deviations[i] = math.Abs(x - m)
	}
	sort.Float64s(deviations)
	mad := median(deviations)

	centre := w.buf[w.size/2]
	if mad == 0 {
		if centre != m {
			return m, true
		}
		return centre, true
	}

	threshold := nsigma * 1.4826 * mad
	if math.Abs(centre-m) > threshold {
		return m, true
	}
	return centre, true
}

func (w *hampelWindow) reset() {
	w.buf = w.buf[:0]
}

func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// Smoother is one instance of the full chain, applied to a single
// scalar signal (the chain keeps one instance for frequency and one for
// clarity, per §3 Smoother State).
type Smoother struct {
	params Params

	median3 median3Window
	hampel  *hampelWindow

	initialized bool
	previous    float64
	tracking    bool // hysteresis regime: true while actively tracking motion
}

// New creates a Smoother with the given chain parameters.
func New(params Params) *Smoother {
	return &Smoother{
		params: params,
		hampel: newHampelWindow(params.HampelWindow),
	}
}

// Apply runs value through the enabled stages and returns the smoothed
// output. The first accepted value after Reset (or after construction)
// initializes the chain directly, bypassing smoothing (§3 invariant).
func (s *Smoother) Apply(value float64) float64 {
	x := value

	if s.params.UseMedian3 {
		x = s.median3.push(x)
	}

	if s.params.UseHampel {
		if filtered, ready := s.hampel.push(x, s.params.HampelNSigma); ready {
			x = filtered
		}
	}

	if !s.initialized {
		s.initialized = true
		s.previous = x
		return x
	}

	delta := math.Abs(x - s.previous)

	alpha := s.params.FixedAlpha
	if s.params.UseAdaptiveEMA {
		alpha = s.adaptiveAlpha(delta)
	}

	s.updateHysteresis(delta)
	if !s.tracking {
		alpha = s.params.AlphaMin
	}

	y := alpha*x + (1-alpha)*s.previous
	s.previous = y
	return y
}

func (s *Smoother) adaptiveAlpha(delta float64) float64 {
	z := (delta - s.params.D) / s.params.S
	sigmoid := 1.0 / (1.0 + math.Exp(-z))
	return s.params.AlphaMin + (s.params.AlphaMax-s.params.AlphaMin)*sigmoid
}

// updateHysteresis advances the tracking/holding regime (§4.5 stage 4):
// once holding, delta must exceed HystUp to resume tracking; once
// tracking, delta must fall below HystDown to resume holding. Apply
// clamps alpha to AlphaMin while holding, so a signal oscillating
// around the deadband boundary doesn't flicker between clamped and
// unclamped alpha every frame.
func (s *Smoother) updateHysteresis(delta float64) {
	if s.tracking {
		if delta < s.params.HystDown {
			s.tracking = false
		}
	} else {
		if delta > s.params.HystUp {
			s.tracking = true
		}
	}
}

// Initialized reports whether the smoother has accepted a first sample
// since construction or the last Reset.
func (s *Smoother) Initialized() bool {
	return s.initialized
}

// Previous returns the last emitted smoothed value; meaningless while
// Initialized() is false.
func (s *Smoother) Previous() float64 {
	return s.previous
}

// Reset discards all chain state (prefilter windows, EMA history,
// hysteresis regime), matching the loss-of-signal policy of §4.5: once
// smoothed clarity falls below CLARITY_THRESHOLD*0.5, the driver calls
// Reset on both the frequency and clarity smoothers.
func (s *Smoother) Reset() {
	s.median3.reset()
	s.hampel.reset()
	s.initialized = false
	s.previous = 0
	s.tracking = false
}
