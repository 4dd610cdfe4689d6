// Command sonar runs the ultrasonic ranging daemon: it wires a
// hardware backend to the measurement pipeline, logs the distance
// stream and serves monitoring counters.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/usonic/gosonar/pkg/config"
	"github.com/usonic/gosonar/pkg/hal"
	"github.com/usonic/gosonar/pkg/sensor"
	"github.com/usonic/gosonar/pkg/telemetry"
)

func main() {
	var (
		portFlag   = flag.String("p", "", "Serial port override (e.g., COM3 or /dev/ttyACM0)")
		configFlag = flag.String("config", "config.yaml", "Configuration file path")
		mockFlag   = flag.Bool("mock", false, "Use the simulated transducer instead of hardware")
		listFlag   = flag.Bool("list-ports", false, "List available serial ports and exit")
	)
	flag.Parse()

	if *listFlag {
		ports, err := hal.Ports()
		if err != nil {
			log.Fatalf("Failed to list serial ports: %v", err)
		}
		for _, p := range ports {
			fmt.Println(p.Name)
		}
		return
	}

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if *portFlag != "" {
		cfg.Device.Port = *portFlag
	}
	if *mockFlag {
		cfg.Device.Backend = config.BackendSim
	}

	hw, err := buildTransducer(cfg)
	if err != nil {
		log.Fatalf("Failed to build %s backend: %v", cfg.Device.Backend, err)
	}

	s, err := sensor.New(hw, sensor.Options{
		IntervalMS:        cfg.Sensor.IntervalMS,
		TimeoutMS:         cfg.Sensor.TimeoutMS,
		SmoothingFactor:   cfg.Sensor.SmoothingFactor,
		TemperatureTenths: cfg.Sensor.TemperatureTenths,
	})
	if err != nil {
		log.Fatalf("Failed to initialize sensor: %v", err)
	}

	if err := hw.Connect(); err != nil {
		log.Fatalf("Failed to connect %s backend: %v", cfg.Device.Backend, err)
	}
	defer hw.Close()

	if err := s.Start(); err != nil {
		log.Fatalf("Failed to start sensor: %v", err)
	}
	defer s.Stop()

	telemetry.Register()
	if cfg.Telemetry.Listen != "" {
		go serveTelemetry(cfg.Telemetry.Listen, s)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("Ranging on %s backend (interval: %d ms)", cfg.Device.Backend, cfg.Sensor.IntervalMS)

	for {
		var m sensor.Measurement
		if err := s.ReadLatest(ctx, &m); err != nil {
			if errors.Is(err, context.Canceled) {
				log.Printf("Shutting down")
				return
			}
			log.Fatalf("Failed to read measurement: %v", err)
		}

		telemetry.Observe(m)
		telemetry.Sync(s)

		switch m.Status {
		case sensor.StatusOK:
			log.Printf("Distance: %d mm (%.1f cm)", m.DistanceMM, m.Centimeters())
		case sensor.StatusOutOfRange:
			log.Printf("Distance out of range: %d mm", m.DistanceMM)
		case sensor.StatusTimeout:
			log.Printf("Echo timeout")
		}
	}
}

// buildTransducer constructs the configured hardware backend.
func buildTransducer(cfg *config.Config) (hal.Transducer, error) {
	switch cfg.Device.Backend {
	case config.BackendSerial:
		return hal.NewSerial(cfg.Device.Port, cfg.Device.BaudRate), nil
	case config.BackendGPIO:
		return hal.NewGPIO(cfg.Device.TriggerPin, cfg.Device.EchoPin), nil
	case config.BackendSim:
		return hal.NewSim(hal.SimConfig{
			DistanceMM:        cfg.Sim.DistanceMM,
			NoiseMM:           cfg.Sim.NoiseMM,
			DropEvery:         cfg.Sim.DropEvery,
			TemperatureTenths: cfg.Sensor.TemperatureTenths,
		}), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Device.Backend)
	}
}

// serveTelemetry exposes /metrics and /healthz for the monitoring
// path. Monitoring never touches the blocking read API.
func serveTelemetry(addr string, s *sensor.Sensor) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", telemetry.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		telemetry.Sync(s)
		if !s.IsRunning() {
			http.Error(w, "sensor not running", http.StatusServiceUnavailable)
			return
		}
		fmt.Fprintln(w, "ok")
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Printf("Telemetry server error: %v", err)
	}
}
