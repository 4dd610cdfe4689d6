package telemetry

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usonic/gosonar/pkg/hal"
	"github.com/usonic/gosonar/pkg/sensor"
)

func TestRegister_Idempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		Register()
		Register()
	})
}

func TestObserve(t *testing.T) {
	Register()

	before := testutil.ToFloat64(MeasurementsTotal.WithLabelValues("ok"))

	Observe(sensor.Measurement{DistanceMM: 321, Status: sensor.StatusOK})
	Observe(sensor.Measurement{DistanceMM: 9999, Status: sensor.StatusOutOfRange})
	Observe(sensor.Measurement{Status: sensor.StatusTimeout})

	assert.Equal(t, before+1, testutil.ToFloat64(MeasurementsTotal.WithLabelValues("ok")))
	assert.GreaterOrEqual(t, testutil.ToFloat64(MeasurementsTotal.WithLabelValues("timeout")), 1.0)

	// Only valid readings move the distance gauge.
	assert.Equal(t, 321.0, testutil.ToFloat64(LastDistanceMM))
}

func TestSync(t *testing.T) {
	Register()

	sim := hal.NewSim(hal.SimConfig{DistanceMM: 500})
	s, err := sensor.New(sim, sensor.Options{})
	require.NoError(t, err)

	Sync(s)
	assert.Equal(t, 0.0, testutil.ToFloat64(SensorRunning))
	assert.Equal(t, 0.0, testutil.ToFloat64(QueueOverflows))
}
