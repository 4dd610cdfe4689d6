// Package sensor implements the ultrasonic ranging pipeline: an edge
// timer fed by the hardware abstraction, a measurement processor that
// converts echo times to validated, smoothed distances, and a bounded
// drop-oldest queue towards consumers.
package sensor

// Status classifies a measurement. Every measurement carries exactly
// one status; consumers must branch on it rather than assume validity.
type Status uint8

const (
	// StatusOK marks a validated in-range measurement.
	StatusOK Status = iota
	// StatusOutOfRange marks a reading outside the 20-4000mm sensor
	// envelope. The raw distance is still reported.
	StatusOutOfRange
	// StatusTimeout marks a cycle where no echo arrived. Distance is 0.
	StatusTimeout
)

// String returns the status label used in logs and metrics.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusOutOfRange:
		return "out_of_range"
	case StatusTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// RawEdgeEvent carries the two edge timestamps of one echo pulse from
// the capture context to the processor. Produced at most once per
// trigger cycle.
type RawEdgeEvent struct {
	RisingMicros  uint64
	FallingMicros uint64
}

// ElapsedMicros returns the echo pulse width.
func (e RawEdgeEvent) ElapsedMicros() uint64 {
	return e.FallingMicros - e.RisingMicros
}

// Measurement is one processed distance reading. Immutable once
// constructed; consumers receive copies.
type Measurement struct {
	DistanceMM      uint32
	TimestampMicros uint64
	Status          Status
}

// Millimeters returns the distance in millimeters.
func (m Measurement) Millimeters() uint32 {
	return m.DistanceMM
}

// Centimeters converts the distance to centimeters.
func (m Measurement) Centimeters() float64 {
	return float64(m.DistanceMM) / 10
}

// Meters converts the distance to meters.
func (m Measurement) Meters() float64 {
	return float64(m.DistanceMM) / 1000
}
