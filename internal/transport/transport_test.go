package transport

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTrySendBatchDeliversInOrder(t *testing.T) {
	l := NewLink(4)
	require.True(t, l.TrySendBatch(AudioDataBatch{BufferID: 1, SampleCount: 128}))
	require.True(t, l.TrySendBatch(AudioDataBatch{BufferID: 2, SampleCount: 128}))

	first := <-l.Data()
	second := <-l.Data()
	require.Equal(t, 1, first.Batch.BufferID)
	require.Equal(t, 2, second.Batch.BufferID)
	require.Less(t, first.Batch.MessageID, second.Batch.MessageID)
}

func TestTrySendBatchFailsWhenFull(t *testing.T) {
	l := NewLink(1)
	require.True(t, l.TrySendBatch(AudioDataBatch{BufferID: 1}))
	require.False(t, l.TrySendBatch(AudioDataBatch{BufferID: 2}))
}

func TestControlMessagesRoundTrip(t *testing.T) {
	l := NewLink(4)
	l.SendStart()
	l.SendReturnBuffer(3, []float32{1, 2, 3})
	l.SendStop()

	start := <-l.Control()
	require.NotNil(t, start.Start)

	recycle := <-l.Control()
	require.NotNil(t, recycle.Recycle)
	require.Equal(t, 3, recycle.Recycle.BufferID)

	stop := <-l.Control()
	require.NotNil(t, stop.Stop)
}
