// Package telemetry exposes the pipeline's health counters to
// Prometheus. It is a pure monitoring consumer: it observes copies of
// measurements and mirrors the overflow counter, and never reads from
// the blocking measurement queue.
package telemetry

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/usonic/gosonar/pkg/sensor"
)

var (
	MeasurementsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gosonar_measurements_total",
		Help: "Total number of measurements produced, by status",
	}, []string{"status"})
	LastDistanceMM = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "gosonar_last_distance_mm",
		Help: "Most recent valid smoothed distance in millimeters",
	})
	QueueOverflows = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "gosonar_queue_overflows",
		Help: "Measurements dropped from the processed queue to admit newer ones",
	})
	SensorRunning = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "gosonar_sensor_running",
		Help: "Whether the measurement task is live (1) or stopped (0)",
	})

	registerOnce sync.Once
)

// Register registers all collectors with the default registry. Safe to
// call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			MeasurementsTotal,
			LastDistanceMM,
			QueueOverflows,
			SensorRunning,
		)
	})
}

// Observe records one published measurement.
func Observe(m sensor.Measurement) {
	MeasurementsTotal.WithLabelValues(m.Status.String()).Inc()
	if m.Status == sensor.StatusOK {
		LastDistanceMM.Set(float64(m.DistanceMM))
	}
}

// Sync mirrors the sensor's own counters. Uses only the non-blocking
// parts of the sensor surface.
func Sync(s *sensor.Sensor) {
	QueueOverflows.Set(float64(s.OverflowCount()))
	if s.IsRunning() {
		SensorRunning.Set(1)
	} else {
		SensorRunning.Set(0)
	}
}

// Handler returns the /metrics handler for the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
