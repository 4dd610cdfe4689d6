//go:build tinygo

package main

import "machine"

const (
	// HC-SR04 wiring
	PIN_TRIGGER = machine.D7 // Trigger output (10µs pulse starts a burst)
	PIN_ECHO    = machine.D8 // Echo input (pulse width = round-trip time)

	// Echo timing
	TRIGGER_PULSE_US = 10    // Trigger pulse width in microseconds
	ECHO_TIMEOUT_US  = 30000 // Max echo wait (~5m round trip plus margin)

	// Serial configuration
	// Line format: "E,<rise_us>,<fall_us>\n", worst case ~45 bytes.
	// At 10 measurements/sec that is 450 bytes/sec; UART 8N1 at 115200
	// baud moves 11,520 bytes/sec, ~25x headroom.
	UART_BAUD_RATE = 115200
)
