// Package config defines the process-wide configuration for the
// analysis pipeline: the fixed DSP constants of the reference
// configuration plus the user-settable tuning state, loaded from YAML
// with CLI overrides.
package config

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/intonetrainer/core/internal/theory"
)

// Config is the read-only (after driver init) configuration surface.
type Config struct {
	SampleRateHz int `yaml:"sample_rate_hz"`
	FrameSize    int `yaml:"frame_size"`
	BatchFactor  int `yaml:"batch_factor"`

	PoolSize          int `yaml:"pool_size"`
	PoolMemoryBudget int `yaml:"pool_memory_budget_bytes"`

	PowerThreshold   float64 `yaml:"power_threshold"`
	ClarityThreshold float64 `yaml:"clarity_threshold"`

	AlphaMin   float64 `yaml:"alpha_min"`
	AlphaMax   float64 `yaml:"alpha_max"`
	D          float64 `yaml:"d"`
	S          float64 `yaml:"s"`
	DeadbandHz float64 `yaml:"deadband_hz"`
	HystDown   float64 `yaml:"hyst_down"`
	HystUp     float64 `yaml:"hyst_up"`

	HampelWindow int     `yaml:"hampel_window"`
	HampelNSigma float64 `yaml:"hampel_nsigma"`

	UseAdaptiveEMA bool    `yaml:"use_adaptive_ema"`
	UseMedian3     bool    `yaml:"use_median3"`
	UseHampel      bool    `yaml:"use_hampel"`
	FixedAlpha     float64 `yaml:"fixed_alpha"`

	VolumePeakThreshold             float64 `yaml:"volume_peak_threshold"`
	IntonationAccuracyThresholdCents float64 `yaml:"intonation_accuracy_threshold_cents"`

	TuningSystem   theory.TuningSystem `yaml:"tuning_system"`
	Scale          theory.Scale        `yaml:"scale"`
	TuningForkNote uint8               `yaml:"tuning_fork_note"`
}

// Default returns this module's default configuration. Sample rate,
// frame size, batch factor, detector thresholds and tuning-fork note
// match the reference configuration of spec.md §8's concrete scenarios;
// unlike those scenarios, the adaptive EMA and Hampel stages are enabled.
// For the options the spec leaves open (§9 Open Questions) the default
// scale is Chromatic.
func Default() Config {
	return Config{
		SampleRateHz: 44100,
		FrameSize:    128,
		BatchFactor:  16,

		PoolSize:         8,
		PoolMemoryBudget: 64 * 1024 * 1024,

		PowerThreshold:   0.3,
		ClarityThreshold: 0.2,

		AlphaMin:   0.1,
		AlphaMax:   0.8,
		D:          5,
		S:          10,
		DeadbandHz: 1.0,
		HystDown:   1.0,
		HystUp:     3.0,

		HampelWindow: 7,
		HampelNSigma: 3.0,

		UseAdaptiveEMA: true,
		UseMedian3:     true,
		UseHampel:      true,
		FixedAlpha:     0.2,

		VolumePeakThreshold:              0.9886,
		IntonationAccuracyThresholdCents: 15,

		TuningSystem:   theory.EqualTemperament,
		Scale:          theory.Chromatic,
		TuningForkNote: 69,
	}
}

// WindowSize is the analysis window in samples: FrameSize × BatchFactor.
func (c Config) WindowSize() int {
	return c.FrameSize * c.BatchFactor
}

// LoadFile merges YAML overrides from path onto the reference defaults.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// BindFlags registers pflag overrides for the most commonly tuned
// options onto fs, mutating cfg when fs.Parse is called.
func BindFlags(cfg *Config, fs *pflag.FlagSet) {
	fs.IntVar(&cfg.SampleRateHz, "sample-rate", cfg.SampleRateHz, "nominal audio context sample rate in Hz")
	fs.IntVar(&cfg.BatchFactor, "batch-factor", cfg.BatchFactor, "analysis window = frame-size * batch-factor")
	fs.Float64Var(&cfg.PowerThreshold, "power-threshold", cfg.PowerThreshold, "minimum window power for pitch detection")
	fs.Float64Var(&cfg.ClarityThreshold, "clarity-threshold", cfg.ClarityThreshold, "minimum estimator clarity for pitch detection")
	fs.BoolVar(&cfg.UseAdaptiveEMA, "adaptive-ema", cfg.UseAdaptiveEMA, "use the sigmoid-adaptive EMA stage instead of a fixed alpha")
	fs.BoolVar(&cfg.UseMedian3, "median3", cfg.UseMedian3, "enable the median-of-3 prefilter stage")
	fs.BoolVar(&cfg.UseHampel, "hampel", cfg.UseHampel, "enable the Hampel outlier-suppression stage")
	fs.Uint8Var(&cfg.TuningForkNote, "tuning-fork-note", cfg.TuningForkNote, "MIDI note used as the interval root")
	fs.Var(&cfg.TuningSystem, "tuning-system", "equal_temperament or just_intonation")
	fs.Var(&cfg.Scale, "scale", "chromatic, major, minor, ...")
}
