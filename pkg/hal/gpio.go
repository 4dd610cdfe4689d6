package hal

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpioreg"
	"periph.io/x/periph/host"
)

// triggerPulseWidth is the HC-SR04 trigger pulse length. The datasheet
// requires 10µs ±1µs, which rules out a schedulable sleep.
const triggerPulseWidth = 10 * time.Microsecond

// edgeWaitSlice bounds each WaitForEdge call so the watcher can notice
// cancellation on a quiet echo line.
const edgeWaitSlice = 500 * time.Millisecond

// GPIO drives the HC-SR04 directly from host GPIO pins via periph.io.
// Pin names are in the format expected by gpioreg.ByName; on a
// Raspberry Pi that is the BCM pin number as a string.
type GPIO struct {
	triggerName string
	echoName    string

	trigger gpio.PinIO
	echo    gpio.PinIO

	handler   EdgeHandler
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	connected bool
	epoch     time.Time
}

// NewGPIO creates a GPIO backend with the given trigger and echo pin
// names.
func NewGPIO(triggerPin, echoPin string) *GPIO {
	ctx, cancel := context.WithCancel(context.Background())

	return &GPIO{
		triggerName: triggerPin,
		echoName:    echoPin,
		ctx:         ctx,
		cancel:      cancel,
		epoch:       time.Now(),
	}
}

// SetEdgeHandler registers the edge handler. Must be called before
// Connect.
func (g *GPIO) SetEdgeHandler(h EdgeHandler) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.connected {
		return fmt.Errorf("cannot register edge handler while connected")
	}
	if h == nil {
		return fmt.Errorf("edge handler must not be nil")
	}
	g.handler = h
	return nil
}

// Connect initializes the host, claims both pins and starts the edge
// watcher.
func (g *GPIO) Connect() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.connected {
		return fmt.Errorf("already connected")
	}
	if g.handler == nil {
		return fmt.Errorf("no edge handler registered")
	}

	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph host: %w", err)
	}

	g.trigger = gpioreg.ByName(g.triggerName)
	if g.trigger == nil {
		return fmt.Errorf("no GPIO trigger pin named: %s", g.triggerName)
	}
	g.echo = gpioreg.ByName(g.echoName)
	if g.echo == nil {
		return fmt.Errorf("no GPIO echo pin named: %s", g.echoName)
	}

	if err := g.trigger.Out(gpio.Low); err != nil {
		return fmt.Errorf("failed to configure trigger pin: %w", err)
	}
	if err := g.echo.In(gpio.PullDown, gpio.BothEdges); err != nil {
		return fmt.Errorf("failed to configure echo pin: %w", err)
	}

	g.connected = true

	go g.watchEdges()

	return nil
}

// Close stops the edge watcher and releases the pins.
func (g *GPIO) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.connected {
		return nil
	}

	g.cancel()

	if g.echo != nil {
		if err := g.echo.Halt(); err != nil {
			log.Printf("Error halting echo pin: %v", err)
		}
	}

	g.connected = false
	return nil
}

// Trigger raises the trigger line for 10µs using a busy-wait delay.
func (g *GPIO) Trigger() error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if !g.connected {
		return fmt.Errorf("not connected")
	}

	if err := g.trigger.Out(gpio.High); err != nil {
		return fmt.Errorf("failed to raise trigger pin: %w", err)
	}
	busyWait(triggerPulseWidth)
	if err := g.trigger.Out(gpio.Low); err != nil {
		return fmt.Errorf("failed to lower trigger pin: %w", err)
	}
	return nil
}

// Now returns the host monotonic clock in microseconds.
func (g *GPIO) Now() uint64 {
	return uint64(time.Since(g.epoch).Microseconds())
}

// IsConnected reports whether the pins are claimed.
func (g *GPIO) IsConnected() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.connected
}

// watchEdges blocks on the echo pin and timestamps each transition.
// The pin level after the edge decides the direction: high means the
// pulse just started, low means it just ended.
func (g *GPIO) watchEdges() {
	for {
		select {
		case <-g.ctx.Done():
			return
		default:
		}

		if !g.echo.WaitForEdge(edgeWaitSlice) {
			continue
		}
		ts := g.Now()

		if g.echo.Read() == gpio.High {
			g.handler(EdgeRising, ts)
		} else {
			g.handler(EdgeFalling, ts)
		}
	}
}
