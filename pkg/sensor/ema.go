package sensor

const (
	// FilterScale is the fixed-point denominator of the smoothing
	// factor. A factor of FilterScale disables smoothing entirely; a
	// factor of 0 freezes the output at the first valid reading.
	FilterScale = 1000

	// DefaultSmoothingFactor blends 30% new reading with 70% history.
	DefaultSmoothingFactor = 300
)

// emaFilter is an integer exponential moving average. It is owned and
// mutated exclusively by the processing goroutine; only StatusOK
// readings pass through it.
type emaFilter struct {
	factor uint32 // [0, FilterScale]
	prev   uint32
	seeded bool
}

// apply folds one valid reading into the filter and returns the
// smoothed value.
//
//	smoothed = (factor×new + (1000−factor)×prev) / 1000
//
// The first valid reading seeds the filter directly, with no blending.
func (f *emaFilter) apply(distanceMM uint32) uint32 {
	if !f.seeded {
		f.prev = distanceMM
		f.seeded = true
		return distanceMM
	}

	smoothed := uint32((uint64(f.factor)*uint64(distanceMM) +
		uint64(FilterScale-f.factor)*uint64(f.prev)) / FilterScale)
	f.prev = smoothed
	return smoothed
}

// reset clears the filter history so the next valid reading reseeds it.
func (f *emaFilter) reset() {
	f.prev = 0
	f.seeded = false
}
