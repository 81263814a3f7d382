package telemetry

import (
	"fmt"
	"time"
)

// Level is the severity of a log entry, ordered least to most verbose.
type Level int

const (
	LevelNone Level = iota
	LevelError
	LevelWarning
	LevelInfo
	LevelDebug
	LevelTrace
)

func (l Level) String() string {
	switch l {
	case LevelNone:
		return "NONE"
	case LevelError:
		return "ERROR"
	case LevelWarning:
		return "WARNING"
	case LevelInfo:
		return "INFO"
	case LevelDebug:
		return "DEBUG"
	case LevelTrace:
		return "TRACE"
	default:
		return "UNKNOWN"
	}
}

// Component identifies the subsystem that produced a log entry.
type Component string

const (
	ComponentProducer  Component = "Producer"
	ComponentTransport Component = "Transport"
	ComponentBuffer    Component = "Buffer"
	ComponentVolume    Component = "Volume"
	ComponentPitch     Component = "Pitch"
	ComponentSmoother  Component = "Smoother"
	ComponentTheory    Component = "Theory"
	ComponentDriver    Component = "Driver"
	ComponentCapture   Component = "Capture"
	ComponentSystem    Component = "System"
)

// Entry is a single log record kept in the circular buffer.
type Entry struct {
	Timestamp time.Time
	Component Component
	Level     Level
	Message   string
	Data      map[string]interface{}
}

func (e *Entry) Format() string {
	timestamp := e.Timestamp.Format("15:04:05.000")
	return fmt.Sprintf("[%s] [%s] %s: %s", timestamp, e.Component, e.Level, e.Message)
}
