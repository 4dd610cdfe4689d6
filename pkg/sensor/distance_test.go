package sensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceMM(t *testing.T) {
	tests := []struct {
		name          string
		elapsedMicros uint64
		tempTenths    int32
		want          float64
		tolerance     float64
	}{
		{
			name:          "200mm at 20.0C",
			elapsedMicros: 1160,
			tempTenths:    200,
			want:          200,
			tolerance:     2,
		},
		{
			name:          "zero elapsed",
			elapsedMicros: 0,
			tempTenths:    200,
			want:          0,
			tolerance:     0,
		},
		{
			name:          "near minimum range",
			elapsedMicros: 117,
			tempTenths:    200,
			want:          20,
			tolerance:     1,
		},
		{
			name:          "near maximum range",
			elapsedMicros: 23200,
			tempTenths:    200,
			want:          3984,
			tolerance:     2,
		},
		{
			name:          "cold air is slower",
			elapsedMicros: 1160,
			tempTenths:    0,
			want:          192,
			tolerance:     1,
		},
		{
			name:          "hot air is faster",
			elapsedMicros: 1160,
			tempTenths:    400,
			want:          206,
			tolerance:     1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DistanceMM(tt.elapsedMicros, tt.tempTenths)
			assert.InDelta(t, tt.want, float64(got), tt.tolerance)
		})
	}
}

func TestDistanceMM_Monotonic(t *testing.T) {
	prev := DistanceMM(117, 200)
	for elapsed := uint64(118); elapsed <= 23300; elapsed++ {
		got := DistanceMM(elapsed, 200)
		assert.GreaterOrEqual(t, got, prev, "distance decreased at %d µs", elapsed)
		prev = got
	}

	// One centimeter of round trip is ~58µs; steps that large must be
	// strictly increasing.
	prev = DistanceMM(117, 200)
	for elapsed := uint64(175); elapsed <= 23300; elapsed += 58 {
		got := DistanceMM(elapsed, 200)
		assert.Greater(t, got, prev, "distance not strictly increasing at %d µs", elapsed)
		prev = got
	}
}

func TestDistanceMM_MatchesFloatReference(t *testing.T) {
	const tempTenths = 200
	// Reference floating-point calculation in mm/s.
	speed := 331300.0 + 60.6*float64(tempTenths)

	for elapsed := uint64(117); elapsed <= 23300; elapsed += 97 {
		want := float64(elapsed) * speed / 2e6
		got := DistanceMM(elapsed, tempTenths)
		assert.InDelta(t, want, float64(got), 1.0, "mismatch at %d µs", elapsed)
	}
}

func TestInRange(t *testing.T) {
	tests := []struct {
		distance uint32
		want     bool
	}{
		{0, false},
		{19, false},
		{20, true},
		{2000, true},
		{4000, true},
		{4001, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, inRange(tt.distance), "inRange(%d)", tt.distance)
	}
}
