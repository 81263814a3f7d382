// Package theory implements the Music-Theory Mapper: interval frequency
// computation under Equal Temperament and Just Intonation, cents
// distance, and scale-aware nearest-note selection by frequency
// distance rather than semitone count.
package theory

import (
	"fmt"
	"math"
)

// TuningSystem selects how interval_semitones maps to frequency ratio.
type TuningSystem string

const (
	EqualTemperament TuningSystem = "equal_temperament"
	JustIntonation   TuningSystem = "just_intonation"
)

func (t TuningSystem) String() string { return string(t) }

func (t *TuningSystem) Set(s string) error {
	switch TuningSystem(s) {
	case EqualTemperament, JustIntonation:
		*t = TuningSystem(s)
		return nil
	default:
		return fmt.Errorf("theory: unknown tuning system %q", s)
	}
}

func (t TuningSystem) Type() string { return "tuningSystem" }

// Scale selects which semitone offsets relative to the root are
// considered "in scale" for scale-aware mapping.
type Scale string

const (
	Chromatic Scale = "chromatic"
	Major     Scale = "major"
	Minor     Scale = "minor"
)

func (s Scale) String() string { return string(s) }

func (s *Scale) Set(v string) error {
	switch Scale(v) {
	case Chromatic, Major, Minor:
		*s = Scale(v)
		return nil
	default:
		return fmt.Errorf("theory: unknown scale %q", v)
	}
}

func (s Scale) Type() string { return "scale" }

// scaleDegrees maps each scale to the set of semitone-in-octave offsets
// (0-11) that belong to it, relative to the root.
var scaleDegrees = map[Scale]map[int]bool{
	Major: {0: true, 2: true, 4: true, 5: true, 7: true, 9: true, 11: true},
	Minor: {0: true, 2: true, 3: true, 5: true, 7: true, 8: true, 10: true},
}

// SemitoneInScale reports whether semitone (relative to the root, any
// octave) belongs to scale. Chromatic always reports true.
func SemitoneInScale(scale Scale, semitone int) bool {
	if scale == Chromatic {
		return true
	}
	degrees, ok := scaleDegrees[scale]
	if !ok {
		return true
	}
	inOctave := euclidMod(semitone, 12)
	return degrees[inOctave]
}

func euclidMod(a, n int) int {
	m := a % n
	if m < 0 {
		m += n
	}
	return m
}

// justIntonationRatios is the 12-tone Just Intonation ratio table,
// indexed by semitone offset from the root within one octave.
var justIntonationRatios = [12]float64{
	1.0,        // unison
	16.0 / 15,  // minor second
	9.0 / 8,    // major second
	6.0 / 5,    // minor third
	5.0 / 4,    // major third
	4.0 / 3,    // perfect fourth
	45.0 / 32,  // tritone
	3.0 / 2,    // perfect fifth
	8.0 / 5,    // minor sixth
	5.0 / 3,    // major sixth
	9.0 / 5,    // minor seventh
	15.0 / 8,   // major seventh
}

func justIntonationRatio(semitone int) float64 {
	return justIntonationRatios[euclidMod(semitone, 12)]
}

// IntervalFrequency returns the frequency of interval semitones above
// (or below, if negative) rootFrequencyHz under tuningSystem.
func IntervalFrequency(tuningSystem TuningSystem, rootFrequencyHz float64, interval int) float64 {
	switch tuningSystem {
	case JustIntonation:
		octaves := floorDiv(interval, 12)
		ratio := justIntonationRatio(interval)
		return rootFrequencyHz * ratio * math.Pow(2, float64(octaves))
	default:
		return rootFrequencyHz * math.Pow(2, float64(interval)/12)
	}
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// MidiNoteToStandardFrequency returns the 12-TET, A4=440 frequency of
// midiNote. This is always used for the tuning-fork root, regardless of
// the active tuning system (§4.6 of the specification).
func MidiNoteToStandardFrequency(midiNote uint8) float64 {
	return 440.0 * math.Pow(2, (float64(midiNote)-69.0)/12)
}

// CentsDelta returns the signed distance in cents from f1 to f2. An
// octave is always exactly 1200 cents, independent of tuning system.
func CentsDelta(f1, f2 float64) float64 {
	return 1200.0 * math.Log2(f2/f1)
}

// IntervalSemitones is a base semitone offset with a signed cents
// deviation from the exact frequency of that offset.
type IntervalSemitones struct {
	Semitones int
	Cents     float64
}

// FrequencyToIntervalSemitones is the unfiltered ("chromatic") mapping
// from a target frequency to the nearest interval under tuningSystem.
func FrequencyToIntervalSemitones(tuningSystem TuningSystem, rootFrequencyHz, targetFrequencyHz float64) IntervalSemitones {
	switch tuningSystem {
	case JustIntonation:
		ratio := targetFrequencyHz / rootFrequencyHz
		octaves := int(math.Floor(math.Log2(ratio)))
		ratioInOctave := ratio / math.Pow(2, float64(octaves))

		bestSemitone := 0
		bestDiff := math.Inf(1)
		for semitone, r := range justIntonationRatios {
			targetRatioFreq := rootFrequencyHz * ratioInOctave
			justFreq := rootFrequencyHz * r
			diff := math.Abs(CentsDelta(justFreq, targetRatioFreq))
			if diff < bestDiff {
				bestDiff = diff
				bestSemitone = semitone
			}
		}

		baseSemitones := octaves*12 + bestSemitone
		justFreq := rootFrequencyHz * justIntonationRatios[bestSemitone] * math.Pow(2, float64(octaves))
		return IntervalSemitones{
			Semitones: baseSemitones,
			Cents:     CentsDelta(justFreq, targetFrequencyHz),
		}
	default:
		totalCents := CentsDelta(rootFrequencyHz, targetFrequencyHz)
		baseSemitones := int(math.Round(totalCents / 100))
		baseFreq := rootFrequencyHz * math.Pow(2, float64(baseSemitones)/12)
		return IntervalSemitones{
			Semitones: baseSemitones,
			Cents:     CentsDelta(baseFreq, targetFrequencyHz),
		}
	}
}

// FindClosestScaleNote is the semitone-count nearest-scale-member
// search: if candidate is already in scale it is returned unchanged,
// otherwise the search walks outward by semitone distance, preferring
// upward on ties. This is the superseded sibling of the frequency-
// distance algorithm below (see DESIGN.md "Open Question
// resolutions") and is kept only to back IntervalFrequencyScaleAware;
// it is not on the live detection path.
func FindClosestScaleNote(candidate int, scale Scale) int {
	if SemitoneInScale(scale, candidate) {
		return candidate
	}
	for distance := 1; distance <= 12; distance++ {
		if up := candidate + distance; SemitoneInScale(scale, up) {
			return up
		}
		if down := candidate - distance; SemitoneInScale(scale, down) {
			return down
		}
	}
	return candidate
}

// IntervalFrequencyScaleAware returns the frequency of the scale member
// nearest to interval by semitone count. Supplemental inverse of
// FrequencyToIntervalSemitonesScaleAware (SPEC_FULL.md item 3). No
// in-scope caller consumes it and no test calls it directly; its
// semitone search, FindClosestScaleNote, is covered by this package's
// tests.
func IntervalFrequencyScaleAware(tuningSystem TuningSystem, rootFrequencyHz float64, interval int, scale Scale) float64 {
	scaleSemitone := FindClosestScaleNote(interval, scale)
	return IntervalFrequency(tuningSystem, rootFrequencyHz, scaleSemitone)
}

// FrequencyToIntervalSemitonesScaleAware is the canonical live-path
// mapper (§4.6): for Chromatic it defers to the unfiltered algorithm;
// otherwise it selects the in-scale semitone offset whose frequency is
// nearest to targetFrequencyHz by cents distance, searching ±48
// semitones (±4 octaves) from the root. Deliberately does NOT compose
// chromatic-round-then-snap-to-scale, which is wrong for Just
// Intonation and wide-interval scales (spec.md §9).
func FrequencyToIntervalSemitonesScaleAware(tuningSystem TuningSystem, rootFrequencyHz, targetFrequencyHz float64, scale Scale) IntervalSemitones {
	if scale == Chromatic {
		return FrequencyToIntervalSemitones(tuningSystem, rootFrequencyHz, targetFrequencyHz)
	}

	closestSemitone := 0
	smallestCentsDistance := math.Inf(1)

	for semitone := -48; semitone <= 48; semitone++ {
		if !SemitoneInScale(scale, semitone) {
			continue
		}
		scaleNoteFreq := IntervalFrequency(tuningSystem, rootFrequencyHz, semitone)
		centsDistance := math.Abs(CentsDelta(scaleNoteFreq, targetFrequencyHz))
		if centsDistance < smallestCentsDistance {
			smallestCentsDistance = centsDistance
			closestSemitone = semitone
		}
	}

	scaleNoteFreq := IntervalFrequency(tuningSystem, rootFrequencyHz, closestSemitone)
	return IntervalSemitones{
		Semitones: closestSemitone,
		Cents:     CentsDelta(scaleNoteFreq, targetFrequencyHz),
	}
}

// IsValidMidiNote reports whether note is in the representable MIDI
// range [0, 127].
func IsValidMidiNote(note int) bool {
	return note >= 0 && note <= 127
}

// MapFrequency is the top-level entry point used by the analysis
// driver: given a smoothed frequency and the current tuning state,
// return the closest MIDI note and signed cents offset, or ok=false if
// the frequency is invalid or the resulting note falls outside MIDI
// range (§4.6 validity rules).
func MapFrequency(frequencyHz float64, tuningForkNote uint8, tuningSystem TuningSystem, scale Scale) (note uint8, centsOffset float64, intervalSemitones int, ok bool) {
	if frequencyHz <= 0 {
		return 0, 0, 0, false
	}

	rootFreq := MidiNoteToStandardFrequency(tuningForkNote)
	result := FrequencyToIntervalSemitonesScaleAware(tuningSystem, rootFreq, frequencyHz, scale)

	midiNote := int(tuningForkNote) + result.Semitones
	if !IsValidMidiNote(midiNote) {
		return 0, 0, 0, false
	}

	return uint8(midiNote), result.Cents, result.Semitones, true
}

// SemitoneToIntervalName renders a semitone offset as a scale-degree
// label, e.g. 7 -> "5" (perfect fifth), 3 -> "b3" (minor third).
func SemitoneToIntervalName(semitone int) string {
	names := [12]string{"1", "b2", "2", "b3", "3", "4", "#4", "5", "b6", "6", "b7", "7"}
	return names[euclidMod(semitone, 12)]
}
