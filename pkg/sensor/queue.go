package sensor

import (
	"context"
	"sync/atomic"
)

// processedQueueSize buffers measurements towards consumers. Small on
// purpose: the drop-oldest policy below favors freshness over
// completeness, so a slow consumer only ever lags by this many
// readings.
const processedQueueSize = 5

// measurementQueue is the bounded hand-off from the processing
// goroutine to consumers. The single producer never blocks: when the
// queue is full the oldest entry is evicted to admit the newest and
// the overflow counter increments. Delivery order is FIFO.
type measurementQueue struct {
	ch        chan Measurement
	overflows atomic.Uint32
}

func newMeasurementQueue(capacity int) *measurementQueue {
	if capacity <= 0 {
		capacity = processedQueueSize
	}
	return &measurementQueue{
		ch: make(chan Measurement, capacity),
	}
}

// publish enqueues a measurement, evicting the oldest entry if the
// queue is full. Called only from the processing goroutine.
func (q *measurementQueue) publish(m Measurement) {
	select {
	case q.ch <- m:
		return
	default:
	}

	// Full. Evict one entry, then retry. A concurrent receive may have
	// already made room, in which case nothing is dropped and the
	// counter stays put.
	select {
	case <-q.ch:
		q.overflows.Add(1)
	default:
	}
	select {
	case q.ch <- m:
	default:
	}
}

// receive blocks until the next measurement or context cancellation.
func (q *measurementQueue) receive(ctx context.Context) (Measurement, error) {
	select {
	case m := <-q.ch:
		return m, nil
	case <-ctx.Done():
		return Measurement{}, ctx.Err()
	}
}

// pending reports whether an unread measurement exists, without
// consuming it.
func (q *measurementQueue) pending() bool {
	return len(q.ch) > 0
}

// overflowCount returns the number of dropped measurements. Never
// decreases; safe to call from any goroutine in any state.
func (q *measurementQueue) overflowCount() uint32 {
	return q.overflows.Load()
}
