package sensor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/usonic/gosonar/pkg/hal"
)

var (
	// ErrAlreadyRunning is returned by Start when the processing
	// goroutine is already active.
	ErrAlreadyRunning = errors.New("sensor already running")
	// ErrNotRunning is returned by Stop when there is nothing to stop.
	ErrNotRunning = errors.New("sensor not running")
	// ErrNilMeasurement is returned by ReadLatest for a nil output
	// target.
	ErrNilMeasurement = errors.New("nil measurement target")
)

// Options configures the measurement pipeline. Zero interval or
// timeout are backfilled from DefaultOptions; zero smoothing factor
// and zero temperature are meaningful values and taken as given.
type Options struct {
	IntervalMS        uint32 // Time between trigger cycles
	TimeoutMS         uint32 // Echo wait bound per cycle
	SmoothingFactor   uint32 // EMA factor, 0-1000
	TemperatureTenths int32  // Ambient temperature in tenths of a °C
}

// DefaultOptions returns the standard HC-SR04 tuning: 10Hz cycles,
// 30ms echo timeout (max range plus margin), 30% smoothing, 20.0°C.
func DefaultOptions() Options {
	return Options{
		IntervalMS:        100,
		TimeoutMS:         30,
		SmoothingFactor:   DefaultSmoothingFactor,
		TemperatureTenths: 200,
	}
}

// Sensor owns the measurement pipeline for one transducer. All
// processing state (filter, speed constant) is confined to the
// processing goroutine; the cross-context hand-offs are the two
// bounded channels.
type Sensor struct {
	hw    hal.Transducer
	opts  Options
	timer *edgeTimer
	queue *measurementQueue

	filter emaFilter
	speed  uint64 // tenth-mm/s, fixed at construction

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running atomic.Bool
}

// New wires the pipeline to a transducer and registers the edge
// handler. A failed registration is fatal: without it no echo can ever
// be observed.
func New(hw hal.Transducer, opts Options) (*Sensor, error) {
	def := DefaultOptions()
	if opts.IntervalMS == 0 {
		opts.IntervalMS = def.IntervalMS
	}
	if opts.TimeoutMS == 0 {
		opts.TimeoutMS = def.TimeoutMS
	}
	if opts.SmoothingFactor > FilterScale {
		log.Printf("Smoothing factor %d exceeds %d, clamping (no smoothing)", opts.SmoothingFactor, FilterScale)
		opts.SmoothingFactor = FilterScale
	}

	s := &Sensor{
		hw:    hw,
		opts:  opts,
		timer: newEdgeTimer(),
		queue: newMeasurementQueue(processedQueueSize),
		filter: emaFilter{
			factor: opts.SmoothingFactor,
		},
		speed: speedTenthMMPerS(opts.TemperatureTenths),
	}

	if err := hw.SetEdgeHandler(s.timer.handle); err != nil {
		return nil, fmt.Errorf("failed to register echo edge handler: %w", err)
	}

	return s, nil
}

// Start launches the processing goroutine. Returns ErrAlreadyRunning
// if it is already active.
func (s *Sensor) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done != nil {
		return ErrAlreadyRunning
	}

	// A fresh run starts with fresh filter history.
	s.filter.reset()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done

	go s.run(ctx, done)

	return nil
}

// Stop tears down the processing goroutine and waits for it to exit.
// Buffered measurements remain readable afterwards.
func (s *Sensor) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done == nil {
		return ErrNotRunning
	}

	s.cancel()
	<-s.done
	s.cancel = nil
	s.done = nil

	return nil
}

// ReadLatest blocks until the next measurement is available and copies
// it into out. The context bounds the wait; a consumer is never left
// hanging past its own cancellation.
func (s *Sensor) ReadLatest(ctx context.Context, out *Measurement) error {
	if out == nil {
		return ErrNilMeasurement
	}

	m, err := s.queue.receive(ctx)
	if err != nil {
		return err
	}
	*out = m
	return nil
}

// HasNewMeasurement reports whether an unread measurement is queued,
// without consuming it.
func (s *Sensor) HasNewMeasurement() bool {
	return s.queue.pending()
}

// OverflowCount returns the number of measurements dropped to admit
// newer ones. Safe to call in any state.
func (s *Sensor) OverflowCount() uint32 {
	return s.queue.overflowCount()
}

// IsRunning reflects actual goroutine liveness, not merely whether
// Start was called.
func (s *Sensor) IsRunning() bool {
	return s.running.Load()
}

// run is the measurement loop: trigger, await echo or timeout,
// process, publish, then sleep out the rest of the interval.
func (s *Sensor) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	s.running.Store(true)
	defer s.running.Store(false)

	log.Printf("Sensor task started (interval: %d ms, timeout: %d ms)", s.opts.IntervalMS, s.opts.TimeoutMS)

	interval := time.Duration(s.opts.IntervalMS) * time.Millisecond
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		s.cycle(ctx)

		select {
		case <-ctx.Done():
			log.Printf("Sensor task stopped")
			return
		case <-ticker.C:
		}
	}
}

// cycle runs one trigger/measure/publish pass.
func (s *Sensor) cycle(ctx context.Context) {
	if err := s.hw.Trigger(); err != nil {
		// A failed trigger means no echo; the timeout path below
		// produces the measurement for this cycle.
		log.Printf("Trigger failed: %v", err)
	}

	timeout := time.NewTimer(time.Duration(s.opts.TimeoutMS) * time.Millisecond)
	defer timeout.Stop()

	var m Measurement
	select {
	case ev := <-s.timer.events:
		m = s.process(ev)
	case <-timeout.C:
		m = Measurement{
			DistanceMM:      0,
			TimestampMicros: s.hw.Now(),
			Status:          StatusTimeout,
		}
	case <-ctx.Done():
		return
	}

	s.queue.publish(m)
}

// process converts a raw edge event into a measurement: compute,
// validate, then smooth. Out-of-range readings report the raw value
// and leave the filter untouched.
func (s *Sensor) process(ev RawEdgeEvent) Measurement {
	distance := uint32(ev.ElapsedMicros() * s.speed / roundTripScaleDivisor)

	status := StatusOK
	if !inRange(distance) {
		status = StatusOutOfRange
		log.Printf("Measurement out of range: %d mm (no smoothing applied)", distance)
	} else {
		distance = s.filter.apply(distance)
	}

	return Measurement{
		DistanceMM:      distance,
		TimestampMicros: ev.FallingMicros,
		Status:          status,
	}
}
