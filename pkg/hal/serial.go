package hal

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"
)

const (
	// DefaultBaudRate is the standard baud rate for the MCU bridge.
	DefaultBaudRate = 115200

	triggerCommand = "T\n"
	edgeLinePrefix = "E,"
)

// Serial talks to an MCU bridge (see firmware/) that drives the
// HC-SR04 directly and streams one edge pair per measurement.
//
// Protocol, one line per message:
//
//	host → MCU:  "T\n"                     trigger one measurement
//	MCU → host:  "E,<rise_us>,<fall_us>\n" echo edge timestamps
//
// Edge timestamps are on the MCU's monotonic microsecond clock. The
// bridge performs the precise 10µs trigger pulse itself, so Trigger
// only queues the command.
type Serial struct {
	port     string
	baudRate int

	conn      serial.Port
	handler   EdgeHandler
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	connected bool
	epoch     time.Time
}

// Port represents an available serial port.
type Port struct {
	Name        string
	Description string
}

// NewSerial creates a serial bridge backend for the given port.
func NewSerial(port string, baudRate int) *Serial {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Serial{
		port:     port,
		baudRate: baudRate,
		ctx:      ctx,
		cancel:   cancel,
		epoch:    time.Now(),
	}
}

// Ports returns a list of available serial ports.
func Ports() ([]Port, error) {
	names, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	result := make([]Port, 0, len(names))
	for _, name := range names {
		result = append(result, Port{Name: name, Description: name})
	}
	return result, nil
}

// SetEdgeHandler registers the edge handler. Must be called before
// Connect.
func (s *Serial) SetEdgeHandler(h EdgeHandler) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.connected {
		return fmt.Errorf("cannot register edge handler while connected")
	}
	if h == nil {
		return fmt.Errorf("edge handler must not be nil")
	}
	s.handler = h
	return nil
}

// Connect opens the serial port and starts reading edge events.
func (s *Serial) Connect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.connected {
		return fmt.Errorf("already connected")
	}
	if s.handler == nil {
		return fmt.Errorf("no edge handler registered")
	}

	mode := &serial.Mode{
		BaudRate: s.baudRate,
	}

	port, err := serial.Open(s.port, mode)
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", s.port, err)
	}

	s.conn = port
	s.connected = true

	go s.readEvents()

	return nil
}

// Close closes the connection and stops the reader goroutine.
func (s *Serial) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return nil
	}

	s.cancel()

	if s.conn != nil {
		if err := s.conn.Close(); err != nil {
			log.Printf("Error closing serial port: %v", err)
		}
		s.conn = nil
	}

	s.connected = false
	return nil
}

// Trigger asks the bridge to start one measurement.
func (s *Serial) Trigger() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.connected {
		return fmt.Errorf("not connected")
	}

	if _, err := s.conn.Write([]byte(triggerCommand)); err != nil {
		return fmt.Errorf("failed to send trigger command: %w", err)
	}
	return nil
}

// Now returns the host monotonic clock in microseconds. Edge
// timestamps use the MCU clock; the two are never compared directly,
// each only measures intervals within its own stream.
func (s *Serial) Now() uint64 {
	return uint64(time.Since(s.epoch).Microseconds())
}

// IsConnected reports whether the bridge is currently connected.
func (s *Serial) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

// readEvents reads lines from the bridge and dispatches edge pairs.
func (s *Serial) readEvents() {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Panic in readEvents: %v", r)
		}
	}()

	scanner := bufio.NewScanner(s.conn)
	for {
		select {
		case <-s.ctx.Done():
			return
		default:
			if !scanner.Scan() {
				if err := scanner.Err(); err != nil && err != io.EOF {
					log.Printf("Error reading from serial port: %v", err)
				}
				return
			}

			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}

			rise, fall, err := parseEdgeLine(line)
			if err != nil {
				log.Printf("Failed to parse line '%s': %v", line, err)
				continue
			}

			// The pair arrives whole; replay it as the two transitions
			// the handler contract expects.
			s.handler(EdgeRising, rise)
			s.handler(EdgeFalling, fall)
		}
	}
}

// parseEdgeLine parses an edge pair line from the bridge.
// Format: E,<rise_us>,<fall_us>
// Example: E,1234567890,1234569050
func parseEdgeLine(line string) (rise, fall uint64, err error) {
	if !strings.HasPrefix(line, edgeLinePrefix) {
		return 0, 0, fmt.Errorf("invalid line format: missing %q prefix", edgeLinePrefix)
	}

	parts := strings.Split(line[len(edgeLinePrefix):], ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid line format: expected 2 timestamps, got %d", len(parts))
	}

	rise, err = strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid rising timestamp: %w", err)
	}

	fall, err = strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid falling timestamp: %w", err)
	}

	if fall < rise {
		return 0, 0, fmt.Errorf("falling timestamp %d precedes rising timestamp %d", fall, rise)
	}

	return rise, fall, nil
}
