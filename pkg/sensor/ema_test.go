package sensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEMAFilter_FirstSampleSeedsDirectly(t *testing.T) {
	f := emaFilter{factor: 300}

	got := f.apply(1234)
	assert.Equal(t, uint32(1234), got, "first sample must pass through unblended")
	assert.True(t, f.seeded)
}

func TestEMAFilter_FactorFullIsPassthrough(t *testing.T) {
	f := emaFilter{factor: FilterScale}

	inputs := []uint32{100, 250, 3999, 20, 1500}
	for _, v := range inputs {
		assert.Equal(t, v, f.apply(v), "factor=1000 must not smooth")
	}
}

func TestEMAFilter_FactorZeroFreezes(t *testing.T) {
	f := emaFilter{factor: 0}

	assert.Equal(t, uint32(777), f.apply(777))
	for _, v := range []uint32{100, 4000, 20, 999} {
		assert.Equal(t, uint32(777), f.apply(v), "factor=0 must hold the first value")
	}
}

func TestEMAFilter_BlendSequence(t *testing.T) {
	f := emaFilter{factor: 300}

	// Seed, then exact integer expectations for
	// smoothed = (300·new + 700·prev) / 1000.
	assert.Equal(t, uint32(100), f.apply(100))
	assert.Equal(t, uint32(130), f.apply(200)) // (60000+70000)/1000
	assert.Equal(t, uint32(151), f.apply(200)) // (60000+91000)/1000
	assert.Equal(t, uint32(135), f.apply(100)) // (30000+105700)/1000
}

func TestEMAFilter_Reset(t *testing.T) {
	f := emaFilter{factor: 300}

	f.apply(100)
	f.apply(4000)
	f.reset()

	assert.False(t, f.seeded)
	assert.Equal(t, uint32(50), f.apply(50), "reset filter must reseed from the next sample")
}
