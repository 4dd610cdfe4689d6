//go:build tinygo

//go:generate tinygo flash -target=xiao

package main

import (
	"machine"
	"strconv"
	"time"
)

var (
	uart = machine.UART0

	// Edge capture state, written only from the pin interrupt.
	riseMicros int64
	fallMicros int64
	inProgress bool
	echoReady  bool

	bootTime time.Time
)

func micros() int64 {
	return time.Since(bootTime).Microseconds()
}

// echoInterrupt timestamps both edges of the echo pulse. Interrupt
// context: capture only, no serial output here.
func echoInterrupt(pin machine.Pin) {
	if pin.Get() {
		riseMicros = micros()
		inProgress = true
		return
	}
	if inProgress {
		fallMicros = micros()
		inProgress = false
		echoReady = true
	}
}

func main() {
	bootTime = time.Now()

	PIN_TRIGGER.Configure(machine.PinConfig{Mode: machine.PinOutput})
	PIN_TRIGGER.Low()

	PIN_ECHO.Configure(machine.PinConfig{Mode: machine.PinInput})
	PIN_ECHO.SetInterrupt(machine.PinToggle, echoInterrupt)

	uart.Configure(machine.UARTConfig{
		BaudRate: UART_BAUD_RATE,
	})

	for {
		b, err := uart.ReadByte()
		if err != nil || b != 'T' {
			time.Sleep(time.Millisecond)
			continue
		}

		echoReady = false
		inProgress = false

		// 10µs trigger pulse
		PIN_TRIGGER.High()
		spinMicros(TRIGGER_PULSE_US)
		PIN_TRIGGER.Low()

		// Wait for the echo pair or give up. On timeout nothing is
		// sent; the host resolves the missing line as a timeout.
		deadline := micros() + ECHO_TIMEOUT_US
		for !echoReady && micros() < deadline {
		}

		if echoReady {
			writeEdgeLine(riseMicros, fallMicros)
		}
	}
}

// spinMicros busy-waits; the trigger pulse needs microsecond precision
// the scheduler cannot provide.
func spinMicros(us int64) {
	deadline := micros() + us
	for micros() < deadline {
	}
}

func writeEdgeLine(rise, fall int64) {
	uart.Write([]byte("E,"))
	uart.Write([]byte(strconv.FormatInt(rise, 10)))
	uart.Write([]byte(","))
	uart.Write([]byte(strconv.FormatInt(fall, 10)))
	uart.Write([]byte("\n"))
}
