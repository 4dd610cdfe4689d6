package sensor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeasurementQueue_OrderPreserved(t *testing.T) {
	q := newMeasurementQueue(5)

	for i := uint32(1); i <= 3; i++ {
		q.publish(Measurement{DistanceMM: i * 100, Status: StatusOK})
	}

	ctx := context.Background()
	for i := uint32(1); i <= 3; i++ {
		m, err := q.receive(ctx)
		require.NoError(t, err)
		assert.Equal(t, i*100, m.DistanceMM)
	}
	assert.Zero(t, q.overflowCount())
}

func TestMeasurementQueue_DropOldestOnOverflow(t *testing.T) {
	q := newMeasurementQueue(5)

	// 20 measurements, no consumer: 5 retained, 15 dropped.
	for i := uint32(0); i < 20; i++ {
		q.publish(Measurement{DistanceMM: i, Status: StatusOK})
	}

	assert.Equal(t, uint32(15), q.overflowCount())

	// The retained 5 are the most recent 5, in production order.
	ctx := context.Background()
	for i := uint32(15); i < 20; i++ {
		m, err := q.receive(ctx)
		require.NoError(t, err)
		assert.Equal(t, i, m.DistanceMM)
	}
	assert.False(t, q.pending())
}

func TestMeasurementQueue_OverflowCountNeverDecreases(t *testing.T) {
	q := newMeasurementQueue(5)

	for i := uint32(0); i < 10; i++ {
		q.publish(Measurement{DistanceMM: i})
	}
	first := q.overflowCount()

	ctx := context.Background()
	_, err := q.receive(ctx)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, q.overflowCount(), first)
}

func TestMeasurementQueue_Pending(t *testing.T) {
	q := newMeasurementQueue(5)

	assert.False(t, q.pending())
	q.publish(Measurement{DistanceMM: 42})
	assert.True(t, q.pending())

	// Peek must not consume.
	assert.True(t, q.pending())

	_, err := q.receive(context.Background())
	require.NoError(t, err)
	assert.False(t, q.pending())
}

func TestMeasurementQueue_ReceiveHonorsContext(t *testing.T) {
	q := newMeasurementQueue(5)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := q.receive(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
