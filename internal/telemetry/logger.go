// Package telemetry is the logging backbone shared by every analysis
// component: a circular-buffer history for diagnostics plus a channel-fed
// drain that forwards accepted entries to charmbracelet/log.
package telemetry

import (
	"fmt"
	"sync"
	"time"

	charmlog "github.com/charmbracelet/log"
)

// Logger is the centralized logging system for the analysis pipeline.
type Logger struct {
	entries    []Entry
	entriesMu  sync.RWMutex
	maxEntries int
	writeIndex int
	entryCount int

	componentEnabled map[Component]bool
	componentMu      sync.RWMutex

	minLevel Level
	levelMu  sync.RWMutex

	logChan  chan Entry
	shutdown chan struct{}
	wg       sync.WaitGroup

	out *charmlog.Logger
}

// NewLogger creates a logger with a circular history of maxEntries and
// starts its background drain goroutine. Output is written through
// charmbracelet/log; pass nil for out to use charmlog's default logger.
func NewLogger(maxEntries int, out *charmlog.Logger) *Logger {
	if maxEntries < 100 {
		maxEntries = 100
	}
	if out == nil {
		out = charmlog.Default()
	}

	l := &Logger{
		entries:          make([]Entry, maxEntries),
		maxEntries:       maxEntries,
		componentEnabled: make(map[Component]bool),
		minLevel:         LevelInfo,
		logChan:          make(chan Entry, 1000),
		shutdown:         make(chan struct{}),
		out:              out,
	}

	for _, c := range []Component{
		ComponentProducer, ComponentTransport, ComponentBuffer, ComponentVolume,
		ComponentPitch, ComponentSmoother, ComponentTheory, ComponentDriver,
		ComponentCapture, ComponentSystem,
	} {
		l.componentEnabled[c] = true
	}

	l.wg.Add(1)
	go l.processLogs()

	return l
}

func (l *Logger) processLogs() {
	defer l.wg.Done()
	for {
		select {
		case entry := <-l.logChan:
			l.addEntry(entry)
			l.emit(entry)
		case <-l.shutdown:
			for {
				select {
				case entry := <-l.logChan:
					l.addEntry(entry)
					l.emit(entry)
				default:
					return
				}
			}
		}
	}
}

func (l *Logger) emit(entry Entry) {
	fields := make([]interface{}, 0, len(entry.Data)*2+2)
	fields = append(fields, "component", entry.Component)
	for k, v := range entry.Data {
		fields = append(fields, k, v)
	}
	switch entry.Level {
	case LevelError:
		l.out.Error(entry.Message, fields...)
	case LevelWarning:
		l.out.Warn(entry.Message, fields...)
	case LevelDebug:
		l.out.Debug(entry.Message, fields...)
	case LevelTrace:
		l.out.Debug(entry.Message, fields...)
	default:
		l.out.Info(entry.Message, fields...)
	}
}

func (l *Logger) addEntry(entry Entry) {
	l.entriesMu.Lock()
	defer l.entriesMu.Unlock()

	l.entries[l.writeIndex] = entry
	l.writeIndex = (l.writeIndex + 1) % l.maxEntries
	if l.entryCount < l.maxEntries {
		l.entryCount++
	}
}

// Log records a message for component at level, subject to the
// component-enabled and minimum-level filters.
func (l *Logger) Log(component Component, level Level, message string, data map[string]interface{}) {
	l.componentMu.RLock()
	enabled := l.componentEnabled[component]
	l.componentMu.RUnlock()
	if !enabled {
		return
	}

	l.levelMu.RLock()
	minLevel := l.minLevel
	l.levelMu.RUnlock()
	if level > minLevel {
		return
	}

	entry := Entry{
		Timestamp: time.Now(),
		Component: component,
		Level:     level,
		Message:   message,
		Data:      data,
	}

	select {
	case l.logChan <- entry:
	default:
		// channel full: drop rather than block the caller
	}
}

func (l *Logger) Logf(component Component, level Level, format string, args ...interface{}) {
	l.Log(component, level, fmt.Sprintf(format, args...), nil)
}

// GetEntries returns a copy of the history, oldest first.
func (l *Logger) GetEntries() []Entry {
	l.entriesMu.RLock()
	defer l.entriesMu.RUnlock()

	if l.entryCount == 0 {
		return []Entry{}
	}

	entries := make([]Entry, l.entryCount)
	if l.entryCount < l.maxEntries {
		copy(entries, l.entries[:l.entryCount])
	} else {
		for i := 0; i < l.entryCount; i++ {
			idx := (l.writeIndex + i) % l.maxEntries
			entries[i] = l.entries[idx]
		}
	}
	return entries
}

func (l *Logger) GetRecentEntries(count int) []Entry {
	all := l.GetEntries()
	if count >= len(all) {
		return all
	}
	return all[len(all)-count:]
}

func (l *Logger) Clear() {
	l.entriesMu.Lock()
	defer l.entriesMu.Unlock()
	l.entryCount = 0
	l.writeIndex = 0
}

func (l *Logger) SetComponentEnabled(component Component, enabled bool) {
	l.componentMu.Lock()
	defer l.componentMu.Unlock()
	l.componentEnabled[component] = enabled
}

func (l *Logger) IsComponentEnabled(component Component) bool {
	l.componentMu.RLock()
	defer l.componentMu.RUnlock()
	return l.componentEnabled[component]
}

func (l *Logger) SetMinLevel(level Level) {
	l.levelMu.Lock()
	defer l.levelMu.Unlock()
	l.minLevel = level
}

func (l *Logger) GetMinLevel() Level {
	l.levelMu.RLock()
	defer l.levelMu.RUnlock()
	return l.minLevel
}

// Shutdown stops the drain goroutine after flushing pending entries.
func (l *Logger) Shutdown() {
	close(l.shutdown)
	l.wg.Wait()
}
