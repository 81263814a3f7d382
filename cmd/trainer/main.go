// Command trainer wires the analysis pipeline together: configuration,
// telemetry, a capture device (or the no-hardware test-tone fallback),
// the Worklet Producer, the ring transport, and the Analysis Driver.
//
// Grounded on the teacher's cmd/emulator/main.go flag-parsing and
// component-wiring shape.
package main

import (
	"fmt"
	"os"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"github.com/intonetrainer/core/internal/buffer"
	"github.com/intonetrainer/core/internal/capture"
	"github.com/intonetrainer/core/internal/config"
	"github.com/intonetrainer/core/internal/driver"
	"github.com/intonetrainer/core/internal/producer"
	"github.com/intonetrainer/core/internal/smoothing"
	"github.com/intonetrainer/core/internal/telemetry"
	"github.com/intonetrainer/core/internal/testsignal"
	"github.com/intonetrainer/core/internal/transport"
)

func main() {
	configPath := pflag.String("config", "", "path to a YAML configuration file (optional)")
	noHardware := pflag.Bool("no-hardware", false, "use a synthetic test tone instead of a real microphone")
	testToneHz := pflag.Float64("test-tone-hz", 440, "frequency of the synthetic test tone when --no-hardware is set")
	logLevel := pflag.String("log-level", "info", "debug, info, warning, or error")

	cfg := config.Default()
	config.BindFlags(&cfg, pflag.CommandLine)
	pflag.Parse()

	if *configPath != "" {
		loaded, err := config.LoadFile(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "trainer: %v\n", err)
			os.Exit(1)
		}
		overrides := map[string]string{}
		pflag.CommandLine.Visit(func(f *pflag.Flag) { overrides[f.Name] = f.Value.String() })
		cfg = loaded
		for name, value := range overrides {
			pflag.CommandLine.Set(name, value)
		}
	}

	out := charmlog.NewWithOptions(os.Stderr, charmlog.Options{
		ReportTimestamp: true,
		Level:           parseLevel(*logLevel),
	})
	log := telemetry.NewLogger(10000, out)
	defer log.Shutdown()
	if *logLevel == "debug" {
		log.SetMinLevel(telemetry.LevelDebug)
	}

	pool, err := buffer.NewPool(cfg.PoolSize, cfg.WindowSize(), cfg.PoolMemoryBudget)
	if err != nil {
		fmt.Fprintf(os.Stderr, "trainer: %v\n", err)
		os.Exit(1)
	}

	link := transport.NewLink(8)
	prod := producer.New(pool, link, log, cfg.FrameSize, cfg.WindowSize())

	d := driver.New(link, log, driver.Params{
		SampleRateHz:                     float64(cfg.SampleRateHz),
		PowerThreshold:                   cfg.PowerThreshold,
		ClarityThreshold:                 cfg.ClarityThreshold,
		VolumePeakThreshold:              cfg.VolumePeakThreshold,
		IntonationAccuracyThresholdCents: cfg.IntonationAccuracyThresholdCents,
		Smoothing:                        smoothingParams(cfg),
	}, driver.TuningState{
		TuningSystem:   cfg.TuningSystem,
		Scale:          cfg.Scale,
		TuningForkNote: cfg.TuningForkNote,
	})

	log.Log(telemetry.ComponentSystem, telemetry.LevelInfo, "intonation trainer starting", map[string]interface{}{
		"sample_rate_hz": cfg.SampleRateHz,
		"window_size":    cfg.WindowSize(),
		"no_hardware":    *noHardware,
	})

	d.Start()

	if *noHardware {
		runWithTestTone(prod, d, log, cfg, *testToneHz)
		return
	}

	dev, err := capture.Open(prod, log, cfg.SampleRateHz, cfg.FrameSize)
	if err != nil {
		log.Log(telemetry.ComponentCapture, telemetry.LevelError, "failed to open capture device, falling back to test tone",
			map[string]interface{}{"error": err.Error()})
		runWithTestTone(prod, d, log, cfg, *testToneHz)
		return
	}
	defer dev.Close()
	dev.Start()

	frameInterval := time.Duration(float64(cfg.FrameSize) / float64(cfg.SampleRateHz) * float64(time.Second))
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	for range ticker.C {
		prod.DrainControl()
		if err := dev.Poll(); err != nil {
			log.Log(telemetry.ComponentCapture, telemetry.LevelWarning, "capture poll failed",
				map[string]interface{}{"error": err.Error()})
		}
		drainResults(d, log)
	}
}

func runWithTestTone(prod *producer.Producer, d *driver.Driver, log *telemetry.Logger, cfg config.Config, toneHz float64) {
	osc := testsignal.NewOscillator(float64(cfg.SampleRateHz), toneHz, 0.5)
	frame := make([]float32, cfg.FrameSize)

	frameInterval := time.Duration(float64(cfg.FrameSize) / float64(cfg.SampleRateHz) * float64(time.Second))
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	for range ticker.C {
		prod.DrainControl()
		osc.Fill(frame)
		prod.PushFrame(frame)
		drainResults(d, log)
	}
}

func drainResults(d *driver.Driver, log *telemetry.Logger) {
	for {
		result, ok := d.ProcessNext()
		if !ok {
			return
		}
		if result.PitchDetected {
			log.Log(telemetry.ComponentDriver, telemetry.LevelDebug, "frame result", map[string]interface{}{
				"frequency_hz": result.FrequencyHz,
				"clarity":      result.Clarity,
				"note":         result.ClosestMidiNote,
				"cents_offset": result.CentsOffset,
			})
		}
	}
}

func smoothingParams(cfg config.Config) smoothing.Params {
	return smoothing.Params{
		AlphaMin:       cfg.AlphaMin,
		AlphaMax:       cfg.AlphaMax,
		D:              cfg.D,
		S:              cfg.S,
		DeadbandHz:     cfg.DeadbandHz,
		HystDown:       cfg.HystDown,
		HystUp:         cfg.HystUp,
		HampelWindow:   cfg.HampelWindow,
		HampelNSigma:   cfg.HampelNSigma,
		UseAdaptiveEMA: cfg.UseAdaptiveEMA,
		UseMedian3:     cfg.UseMedian3,
		UseHampel:      cfg.UseHampel,
		FixedAlpha:     cfg.FixedAlpha,
	}
}

func parseLevel(level string) charmlog.Level {
	switch level {
	case "debug":
		return charmlog.DebugLevel
	case "warning":
		return charmlog.WarnLevel
	case "error":
		return charmlog.ErrorLevel
	default:
		return charmlog.InfoLevel
	}
}
