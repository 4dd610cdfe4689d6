package sensor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usonic/gosonar/pkg/hal"
)

// TestSensor_GracefulShutdown tests that Stop waits for the processing
// goroutine and leaves buffered measurements readable.
func TestSensor_GracefulShutdown(t *testing.T) {
	sim := hal.NewSim(hal.SimConfig{DistanceMM: 500})
	s, err := New(sim, testOptions())
	require.NoError(t, err)
	require.NoError(t, sim.Connect())
	defer sim.Close()

	require.NoError(t, s.Start())

	// Let at least one measurement land.
	require.Eventually(t, s.HasNewMeasurement, time.Second, time.Millisecond)

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())

	// The queue outlives the task; whatever was buffered is still
	// deliverable.
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	var m Measurement
	require.NoError(t, s.ReadLatest(ctx, &m))
	assert.Equal(t, StatusOK, m.Status)
}

// TestSensor_RestartAfterStop tests that a stopped sensor can be
// started again and produces measurements.
func TestSensor_RestartAfterStop(t *testing.T) {
	sim := hal.NewSim(hal.SimConfig{DistanceMM: 300})
	s, err := New(sim, testOptions())
	require.NoError(t, err)
	require.NoError(t, sim.Connect())
	defer sim.Close()

	require.NoError(t, s.Start())
	readStatus(t, s, StatusOK)
	require.NoError(t, s.Stop())

	require.NoError(t, s.Start())
	defer s.Stop()

	m := readStatus(t, s, StatusOK)
	assert.InDelta(t, 300, float64(m.DistanceMM), 2)
}

// TestSensor_ReadLatestUnblocksOnCancel tests that a blocked consumer
// is released by its own context, not by sensor state.
func TestSensor_ReadLatestUnblocksOnCancel(t *testing.T) {
	sim := hal.NewSim(hal.SimConfig{DistanceMM: 500})
	s, err := New(sim, testOptions())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() {
		var m Measurement
		errCh <- s.ReadLatest(ctx, &m)
	}()

	select {
	case err := <-errCh:
		t.Fatalf("ReadLatest returned early: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("ReadLatest did not unblock on cancellation")
	}
}

// TestSensor_StopIsDeterministic tests repeated start/stop cycling.
func TestSensor_StopIsDeterministic(t *testing.T) {
	sim := hal.NewSim(hal.SimConfig{DistanceMM: 500})
	s, err := New(sim, testOptions())
	require.NoError(t, err)
	require.NoError(t, sim.Connect())
	defer sim.Close()

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Start(), "cycle %d", i)
		require.NoError(t, s.Stop(), "cycle %d", i)
		assert.False(t, s.IsRunning(), "cycle %d", i)
	}

	assert.ErrorIs(t, s.Stop(), ErrNotRunning)
}
