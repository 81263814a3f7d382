package telemetry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoggerRecordsEnabledComponent(t *testing.T) {
	l := NewLogger(100, nil)
	defer l.Shutdown()

	l.Log(ComponentPitch, LevelInfo, "detected", map[string]interface{}{"hz": 440.0})
	require.Eventually(t, func() bool {
		return len(l.GetEntries()) == 1
	}, time.Second, time.Millisecond)

	entries := l.GetEntries()
	require.Equal(t, ComponentPitch, entries[0].Component)
	require.Equal(t, "detected", entries[0].Message)
}

func TestLoggerSuppressesDisabledComponent(t *testing.T) {
	l := NewLogger(100, nil)
	defer l.Shutdown()

	l.SetComponentEnabled(ComponentPitch, false)
	l.Log(ComponentPitch, LevelInfo, "should not appear", nil)
	time.Sleep(20 * time.Millisecond)
	require.Empty(t, l.GetEntries())
}

func TestLoggerMinLevelFilter(t *testing.T) {
	l := NewLogger(100, nil)
	defer l.Shutdown()

	l.SetMinLevel(LevelWarning)
	l.Log(ComponentSystem, LevelDebug, "too verbose", nil)
	l.Log(ComponentSystem, LevelError, "surfaces", nil)

	require.Eventually(t, func() bool {
		return len(l.GetEntries()) == 1
	}, time.Second, time.Millisecond)
	require.Equal(t, "surfaces", l.GetEntries()[0].Message)
}

func TestLoggerCircularBufferWraps(t *testing.T) {
	l := NewLogger(100, nil)
	defer l.Shutdown()

	for i := 0; i < 150; i++ {
		l.Log(ComponentSystem, LevelInfo, "entry", nil)
	}

	require.Eventually(t, func() bool {
		return len(l.GetEntries()) == 100
	}, time.Second, time.Millisecond)
}
