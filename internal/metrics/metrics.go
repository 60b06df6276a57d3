// Package metrics exposes prometheus collectors for the curve engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Recalculations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "heating_curve_recalculations_total",
			Help: "Recalculations by trigger (config, sensor, adjust, handshake).",
		},
		[]string{"trigger"},
	)

	ActuatorWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "heating_curve_actuator_writes_total",
			Help: "Actuator write attempts by outcome.",
		},
		[]string{"outcome"},
	)

	OutdoorTemperature = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "heating_curve_outdoor_temperature",
			Help: "Last outdoor temperature read, in degrees Celsius.",
		},
	)

	FlowTarget = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "heating_curve_flow_target",
			Help: "Last computed flow temperature target, in degrees Celsius.",
		},
	)

	ConfigValid = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "heating_curve_config_valid",
			Help: "1 if the applied configuration allows actuator writes, 0 otherwise.",
		},
	)
)

var registry = prometheus.NewRegistry()

func init() {
	registry.MustRegister(Recalculations, ActuatorWrites, OutdoorTemperature, FlowTarget, ConfigValid)
	registry.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
}

// Handler serves the collectors in the prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// SetConfigValid records the result of the last configuration validation.
func SetConfigValid(valid bool) { ConfigValid.Set(boolGauge(valid)) }
