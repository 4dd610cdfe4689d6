package sensor

import "github.com/usonic/gosonar/pkg/hal"

// rawQueueSize buffers edge events between the capture context and the
// processor. Kept minimal: the processor consumes one event per cycle,
// so anything beyond a spare slot is stale data.
const rawQueueSize = 2

// edgeTimer turns echo line transitions into RawEdgeEvents. Its handle
// method runs in the backend's capture context and follows interrupt
// discipline: constant work, no allocation, no floats, and only a
// non-blocking channel send.
//
// The rising timestamp cell is written on the rising edge and read on
// the falling edge, both from the capture context; the processor only
// ever sees it through the channel.
type edgeTimer struct {
	events chan RawEdgeEvent

	risingMicros uint64
	inProgress   bool
}

func newEdgeTimer() *edgeTimer {
	return &edgeTimer{
		events: make(chan RawEdgeEvent, rawQueueSize),
	}
}

// handle is the registered hal.EdgeHandler.
func (t *edgeTimer) handle(edge hal.Edge, timestampMicros uint64) {
	switch edge {
	case hal.EdgeRising:
		t.risingMicros = timestampMicros
		t.inProgress = true
	case hal.EdgeFalling:
		if !t.inProgress {
			// Spurious falling edge, no pulse in flight.
			return
		}
		t.inProgress = false

		ev := RawEdgeEvent{
			RisingMicros:  t.risingMicros,
			FallingMicros: timestampMicros,
		}

		// If the channel is full the event is dropped and the
		// processor times out; it retriggers every cycle, so nothing
		// is lost beyond one reading.
		select {
		case t.events <- ev:
		default:
		}
	}
}
