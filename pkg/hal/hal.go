// Package hal abstracts the ultrasonic ranging hardware: a trigger
// line, an echo line with edge-event capability, and a monotonic
// microsecond clock. Backends exist for a serial-attached MCU bridge,
// direct host GPIO, and a simulator.
package hal

import "time"

// Edge identifies a transition on the echo line.
type Edge int

const (
	// EdgeRising marks the start of the echo pulse (burst transmitted).
	EdgeRising Edge = iota
	// EdgeFalling marks the end of the echo pulse (echo received).
	EdgeFalling
)

// String returns a short label for logging.
func (e Edge) String() string {
	if e == EdgeRising {
		return "rising"
	}
	return "falling"
}

// EdgeHandler receives echo line transitions with a monotonic
// microsecond timestamp. It is invoked from the backend's capture
// context and must follow interrupt discipline: no blocking, no
// allocation, no locks shared with the processing task. Channel sends
// inside the handler must be non-blocking.
type EdgeHandler func(edge Edge, timestampMicros uint64)

// Transducer is the interface for ranging hardware (real or simulated).
//
// SetEdgeHandler must be called before Connect; Connect fails if no
// handler is registered, since measurements would be undetectable.
type Transducer interface {
	Connect() error
	Close() error
	SetEdgeHandler(h EdgeHandler) error
	// Trigger emits the 10 microsecond trigger pulse that starts one
	// measurement. It must not block on the echo response.
	Trigger() error
	// Now returns the backend's monotonic clock in microseconds, the
	// same timebase used for edge timestamps.
	Now() uint64
	IsConnected() bool
}

// Ensure the serial bridge implements Transducer.
var _ Transducer = (*Serial)(nil)

// Ensure the GPIO backend implements Transducer.
var _ Transducer = (*GPIO)(nil)

// Ensure the simulator implements Transducer.
var _ Transducer = (*Sim)(nil)

// busyWait spins until d has elapsed. Trigger pulses need microsecond
// precision that time.Sleep cannot provide on a general-purpose
// scheduler.
func busyWait(d time.Duration) {
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
	}
}
