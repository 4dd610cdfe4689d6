package hal

import (
	"fmt"
	"sync"
	"time"

	"github.com/chewxy/math32"
)

// SimConfig configures the simulated transducer.
type SimConfig struct {
	DistanceMM        uint32  // Simulated true distance (mm)
	NoiseMM           float32 // Peak measurement noise (mm)
	DropEvery         int     // Every Nth cycle produces no echo (0 = never)
	TemperatureTenths int32   // Ambient temperature (tenths of °C) for time-of-flight
}

// Sim simulates an HC-SR04 for development and tests. Each Trigger
// synchronously replays the rising and falling edges a real echo at
// the configured distance would produce, so test pipelines run at
// full speed instead of waiting out real echo times.
type Sim struct {
	cfg SimConfig

	handler   EdgeHandler
	mu        sync.RWMutex
	connected bool
	cycles    uint64
	epoch     time.Time
}

// NewSim creates a simulated transducer.
func NewSim(cfg SimConfig) *Sim {
	if cfg.DistanceMM == 0 {
		cfg.DistanceMM = 500
	}
	if cfg.TemperatureTenths == 0 {
		cfg.TemperatureTenths = 200
	}

	return &Sim{
		cfg:   cfg,
		epoch: time.Now(),
	}
}

// SetEdgeHandler registers the edge handler. Must be called before
// Connect.
func (m *Sim) SetEdgeHandler(h EdgeHandler) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected {
		return fmt.Errorf("cannot register edge handler while connected")
	}
	if h == nil {
		return fmt.Errorf("edge handler must not be nil")
	}
	m.handler = h
	return nil
}

// Connect simulates connecting to the device.
func (m *Sim) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected {
		return fmt.Errorf("already connected")
	}
	if m.handler == nil {
		return fmt.Errorf("no edge handler registered")
	}

	m.connected = true
	m.cycles = 0
	return nil
}

// Close stops the simulated device.
func (m *Sim) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = false
	return nil
}

// SetDistance changes the simulated true distance at runtime.
func (m *Sim) SetDistance(mm uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg.DistanceMM = mm
}

// Trigger replays one echo. On dropout cycles the echo line stays low
// and no edges are delivered, which the processor resolves as a
// timeout.
func (m *Sim) Trigger() error {
	m.mu.Lock()

	if !m.connected {
		m.mu.Unlock()
		return fmt.Errorf("not connected")
	}

	m.cycles++
	cycle := m.cycles
	cfg := m.cfg
	handler := m.handler
	m.mu.Unlock()

	if cfg.DropEvery > 0 && cycle%uint64(cfg.DropEvery) == 0 {
		return nil
	}

	distance := float32(cfg.DistanceMM) + noiseMM(cfg.NoiseMM, cycle)
	if distance < 0 {
		distance = 0
	}

	rise := m.Now()
	fall := rise + elapsedMicros(distance, cfg.TemperatureTenths)

	handler(EdgeRising, rise)
	handler(EdgeFalling, fall)
	return nil
}

// Now returns the simulator's monotonic clock in microseconds.
func (m *Sim) Now() uint64 {
	return uint64(time.Since(m.epoch).Microseconds())
}

// IsConnected reports whether the simulated device is connected.
func (m *Sim) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

// noiseMM generates deterministic pseudo-noise from the cycle counter,
// the same mixed-sinusoid model the bench device exhibits.
func noiseMM(peak float32, cycle uint64) float32 {
	if peak == 0 {
		return 0
	}
	t := float32(cycle)
	return (math32.Sin(t*0.7) + math32.Cos(t*1.3)) * peak * 0.5
}

// elapsedMicros converts a one-way distance to the round-trip echo
// time at the given temperature.
func elapsedMicros(distanceMM float32, temperatureTenths int32) uint64 {
	// Speed of sound in tenth-mm/s: 3313000 + 606 per tenth of a °C.
	speed := float32(3313000 + 606*temperatureTenths)
	return uint64(distanceMM * 2e7 / speed)
}
