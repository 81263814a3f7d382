// Package producer implements the Worklet Producer (§4.1): the
// audio-thread side of the pipeline, accumulating fixed-size frames into
// batches and handing them to the transport without ever blocking or
// allocating on the audio thread.
//
// Grounded on the teacher's internal/emulator.Emulator fixed-cadence
// stepping loop and its component-registration style (step functions
// wired onto a scheduler at construction), retargeted from
// CPU/PPU/APU cycle stepping to 128-sample audio-callback stepping.
package producer

import (
	"github.com/intonetrainer/core/internal/buffer"
	"github.com/intonetrainer/core/internal/telemetry"
	"github.com/intonetrainer/core/internal/transport"
)

// Producer accumulates audio-callback frames into analysis batches.
type Producer struct {
	pool *buffer.Pool
	link *transport.Link
	log  *telemetry.Logger

	frameSize int
	batchSize int // samples per batch; reconfigurable via UpdateBatchConfig

	running bool

	currentBufferID int
	current         []float32
	haveCurrent     bool
}

// New creates a Producer over pool and link. batchSize must be a
// positive multiple of frameSize and at most pool.Capacity(); unlike an
// UpdateBatchConfig message, New does not check this.
func New(pool *buffer.Pool, link *transport.Link, log *telemetry.Logger, frameSize, batchSize int) *Producer {
	return &Producer{
		pool:      pool,
		link:      link,
		log:       log,
		frameSize: frameSize,
		batchSize: batchSize,
	}
}

// DrainControl applies any pending control messages from the driver
// (StartProcessing, StopProcessing, UpdateBatchConfig, ReturnBuffer).
// Called once per audio callback before PushFrame, never blocking.
func (p *Producer) DrainControl() {
	for {
		select {
		case msg := <-p.link.Control():
			p.applyControl(msg)
		default:
			return
		}
	}
}

func (p *Producer) applyControl(msg transport.ControlMessage) {
	switch {
	case msg.Start != nil:
		p.running = true // idempotent: setting true again is a no-op
	case msg.Stop != nil:
		p.running = false
	case msg.Config != nil:
		valid := msg.Config.BatchSize > 0 &&
			msg.Config.BatchSize%p.frameSize == 0 &&
			msg.Config.BatchSize <= p.pool.Capacity()
		if valid {
			p.batchSize = msg.Config.BatchSize
		} else if p.log != nil {
			p.log.Log(telemetry.ComponentProducer, telemetry.LevelWarning,
				"UpdateBatchConfig rejected: invalid batch size", map[string]interface{}{
					"batch_size":    msg.Config.BatchSize,
					"pool_capacity": p.pool.Capacity(),
				})
		}
	case msg.Recycle != nil:
		if err := p.pool.Release(msg.Recycle.BufferID); err != nil && p.log != nil {
			p.log.Log(telemetry.ComponentProducer, telemetry.LevelWarning,
				"ReturnBuffer for unknown or already-free slot", map[string]interface{}{
					"buffer_id": msg.Recycle.BufferID,
					"error":     err.Error(),
				})
		}
	}
}

// PushFrame delivers exactly frameSize samples from the audio callback.
// It never blocks and never allocates: if no pool buffer is available
// it drops the frame (§4.1).
func (p *Producer) PushFrame(frame []float32) {
	if !p.running {
		return
	}

	if !p.haveCurrent {
		id, payload, ok := p.pool.Acquire()
		if !ok {
			if p.log != nil {
				p.log.Log(telemetry.ComponentProducer, telemetry.LevelWarning,
					"dropped frame: no free pool buffer", nil)
			}
			return
		}
		p.currentBufferID = id
		p.current = payload
		p.haveCurrent = true
	}

	p.current = append(p.current, frame...)

	if len(p.current) >= p.batchSize {
		p.flush()
	}
}

func (p *Producer) flush() {
	batch := transport.AudioDataBatch{
		SampleCount:  len(p.current),
		BufferLength: p.pool.Capacity(),
		BufferID:     p.currentBufferID,
	}
	batch.Payload = p.current

	stats := p.pool.Stats()
	batch.PoolStatsValid = true
	batch.PoolAllocated = stats.Allocated
	batch.PoolAvailable = stats.Available
	batch.PoolInFlight = stats.InFlight
	batch.PoolPeak = stats.PeakInFlight
	batch.PoolFailures = stats.AllocationFailures

	if !p.link.TrySendBatch(batch) {
		// TransportSendFailed (§7): reclaim locally rather than leak.
		if err := p.pool.Release(p.currentBufferID); err != nil && p.log != nil {
			p.log.Log(telemetry.ComponentProducer, telemetry.LevelError,
				"failed to reclaim buffer after transport send failure", map[string]interface{}{
					"error": err.Error(),
				})
		}
	}

	p.haveCurrent = false
	p.current = nil
}

// Running reports whether the producer is currently emitting batches.
func (p *Producer) Running() bool {
	return p.running
}
