// Package transport implements the ring writer / buffer recycler: the
// single-producer/single-consumer message channels connecting the audio
// thread's Worklet Producer to the analysis thread's driver, carrying
// ownership-transferred payloads with no shared mutable memory (§4.2,
// §5 of the specification).
package transport

import "sync/atomic"

// AudioDataBatch is a producer -> driver message: one analysis window's
// worth of samples, plus pool diagnostics.
type AudioDataBatch struct {
	MessageID      uint32
	SampleCount    int
	BufferLength   int
	BufferID       int
	Payload        []float32
	PoolStatsValid bool
	PoolAllocated  int
	PoolAvailable  int
	PoolInFlight   int
	PoolPeak       int
	PoolFailures   int
}

// ProcessingError is a producer -> driver message reporting a transport
// or capture failure that does not carry a payload.
type ProcessingError struct {
	MessageID uint32
	Error     string
}

// StartProcessing is a driver -> producer message. Idempotent: sending
// it while already running has no effect (invariant 9, §8).
type StartProcessing struct{ MessageID uint32 }

// StopProcessing is a driver -> producer message. Idempotent.
type StopProcessing struct{ MessageID uint32 }

// UpdateBatchConfig is a driver -> producer message reconfiguring the
// batch length. The producer adopts a valid new length as soon as it
// drains the message, including for the buffer it is currently filling,
// which is flushed once it holds at least the new length.
type UpdateBatchConfig struct {
	MessageID uint32
	BatchSize int
}

// ReturnBuffer is a driver -> producer message recycling a payload back
// to the indicated pool slot.
type ReturnBuffer struct {
	MessageID uint32
	BufferID  int
	Payload   []float32
}

// ControlMessage is the union of driver -> producer messages.
type ControlMessage struct {
	Start   *StartProcessing
	Stop    *StopProcessing
	Config  *UpdateBatchConfig
	Recycle *ReturnBuffer
}

// DataMessage is the union of producer -> driver messages.
type DataMessage struct {
	Batch *AudioDataBatch
	Err   *ProcessingError
}

// Link is the bidirectional channel pair connecting one producer to one
// driver. Each direction is single-producer/single-consumer and FIFO.
type Link struct {
	dataChan    chan DataMessage
	controlChan chan ControlMessage

	dataSeq    atomic.Uint32
	controlSeq atomic.Uint32
}

// NewLink creates a Link with the given channel depth per direction.
// depth bounds how many batches the data direction can hold; once it is
// full, TrySendBatch (the only batch send) fails instead of blocking, so
// the audio thread keeps the non-blocking discipline of §4.1. The
// control-direction Send methods block while depth messages are pending.
func NewLink(depth int) *Link {
	if depth < 1 {
		depth = 1
	}
	return &Link{
		dataChan:    make(chan DataMessage, depth),
		controlChan: make(chan ControlMessage, depth),
	}
}

// TrySendBatch attempts to enqueue a batch without blocking. false means
// the transport is full; the caller (the producer) must treat this as a
// TransportSendFailed condition and reclaim the buffer locally (§4.1,
// §7).
func (l *Link) TrySendBatch(b AudioDataBatch) bool {
	b.MessageID = l.dataSeq.Add(1)
	select {
	case l.dataChan <- DataMessage{Batch: &b}:
		return true
	default:
		return false
	}
}

// SendError enqueues a ProcessingError, non-blocking; dropped silently
// if the transport is full since errors are best-effort diagnostics.
func (l *Link) SendError(msg string) {
	id := l.dataSeq.Add(1)
	select {
	case l.dataChan <- DataMessage{Err: &ProcessingError{MessageID: id, Error: msg}}:
	default:
	}
}

// Data returns the receive-only data channel for the driver side.
func (l *Link) Data() <-chan DataMessage {
	return l.dataChan
}

// SendStart enqueues a StartProcessing control message.
func (l *Link) SendStart() {
	l.controlChan <- ControlMessage{Start: &StartProcessing{MessageID: l.controlSeq.Add(1)}}
}

// SendStop enqueues a StopProcessing control message.
func (l *Link) SendStop() {
	l.controlChan <- ControlMessage{Stop: &StopProcessing{MessageID: l.controlSeq.Add(1)}}
}

// SendBatchConfig enqueues an UpdateBatchConfig control message.
func (l *Link) SendBatchConfig(batchSize int) {
	l.controlChan <- ControlMessage{Config: &UpdateBatchConfig{
		MessageID: l.controlSeq.Add(1),
		BatchSize: batchSize,
	}}
}

// SendReturnBuffer enqueues a ReturnBuffer control message. This is the
// one control message the analysis thread must send for every batch it
// receives, regardless of analysis outcome (§4.2, §4.7) — failing to do
// so is a fatal pool leak.
func (l *Link) SendReturnBuffer(bufferID int, payload []float32) {
	l.controlChan <- ControlMessage{Recycle: &ReturnBuffer{
		MessageID: l.controlSeq.Add(1),
		BufferID:  bufferID,
		Payload:   payload,
	}}
}

// Control returns the receive-only control channel for the producer
// side.
func (l *Link) Control() <-chan ControlMessage {
	return l.controlChan
}
