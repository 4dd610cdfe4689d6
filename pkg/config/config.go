// Package config loads and saves the daemon configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Backend names accepted by DeviceConfig.Backend.
const (
	BackendSerial = "serial"
	BackendGPIO   = "gpio"
	BackendSim    = "sim"
)

// Config represents the application configuration.
type Config struct {
	Device    DeviceConfig    `yaml:"device"`
	Sensor    SensorConfig    `yaml:"sensor"`
	Sim       SimConfig       `yaml:"sim"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// DeviceConfig selects and configures the hardware backend.
type DeviceConfig struct {
	Backend    string `yaml:"backend"`     // serial, gpio or sim
	Port       string `yaml:"port"`        // serial: port name
	BaudRate   int    `yaml:"baud_rate"`   // serial: baud rate
	TriggerPin string `yaml:"trigger_pin"` // gpio: trigger pin name
	EchoPin    string `yaml:"echo_pin"`    // gpio: echo pin name
}

// SensorConfig contains measurement pipeline tuning.
type SensorConfig struct {
	IntervalMS      uint32 `yaml:"interval_ms"`      // Time between measurements
	TimeoutMS       uint32 `yaml:"timeout_ms"`       // Echo wait bound
	SmoothingFactor uint32 `yaml:"smoothing_factor"` // EMA factor, 0-1000

	// TemperatureTenths is the ambient temperature in tenths of a °C
	// (200 = 20.0°C), used for speed-of-sound compensation.
	TemperatureTenths int32 `yaml:"temperature_tenths"`
}

// SimConfig configures the simulated transducer.
type SimConfig struct {
	DistanceMM uint32  `yaml:"distance_mm"` // Simulated true distance
	NoiseMM    float32 `yaml:"noise_mm"`    // Peak measurement noise
	DropEvery  int     `yaml:"drop_every"`  // Every Nth cycle has no echo (0 = never)
}

// TelemetryConfig configures the monitoring endpoint.
type TelemetryConfig struct {
	Listen string `yaml:"listen"` // Address for /metrics and /healthz; empty disables
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Device: DeviceConfig{
			Backend:    BackendSerial,
			Port:       "/dev/ttyACM0",
			BaudRate:   115200,
			TriggerPin: "14",
			EchoPin:    "15",
		},
		Sensor: SensorConfig{
			IntervalMS:        100,
			TimeoutMS:         30,
			SmoothingFactor:   300,
			TemperatureTenths: 200,
		},
		Sim: SimConfig{
			DistanceMM: 500,
			NoiseMM:    2,
			DropEvery:  0,
		},
		Telemetry: TelemetryConfig{
			Listen: ":2112",
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist
// or fields are missing, defaults are used. Explicit zeros for fields
// where zero is meaningful (smoothing factor, temperature) are
// preserved because the file is unmarshalled over the defaults.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ensureDefaults backfills fields that must not be zero.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Device.Backend == "" {
		c.Device.Backend = def.Device.Backend
	}
	if c.Device.Port == "" {
		c.Device.Port = def.Device.Port
	}
	if c.Device.BaudRate == 0 {
		c.Device.BaudRate = def.Device.BaudRate
	}
	if c.Device.TriggerPin == "" {
		c.Device.TriggerPin = def.Device.TriggerPin
	}
	if c.Device.EchoPin == "" {
		c.Device.EchoPin = def.Device.EchoPin
	}

	if c.Sensor.IntervalMS == 0 {
		c.Sensor.IntervalMS = def.Sensor.IntervalMS
	}
	if c.Sensor.TimeoutMS == 0 {
		c.Sensor.TimeoutMS = def.Sensor.TimeoutMS
	}

	if c.Sim.DistanceMM == 0 {
		c.Sim.DistanceMM = def.Sim.DistanceMM
	}
}
