// Package metrics exposes the server's Prometheus collectors.
package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles the protocol and executive metrics.
type Collector struct {
	gatherer prometheus.Gatherer

	Commands      *prometheus.CounterVec
	CommandErrors *prometheus.CounterVec
	Resets        *prometheus.CounterVec
	Steps         prometheus.Counter
	BytesReceived prometheus.Counter
	Holding       prometheus.Gauge
	SimTime       prometheus.Gauge
}

// New registers the collectors against reg, defaulting to the global
// registry when nil. Registering twice returns the existing collectors.
func New(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	commands, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fdm_commands_total",
		Help: "Dispatched protocol commands, labeled by keyword.",
	}, []string{"keyword"}), "fdm_commands_total")
	if err != nil {
		return nil, err
	}
	cmdErrors, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fdm_command_errors_total",
		Help: "Protocol commands that ended in an error reply, labeled by keyword.",
	}, []string{"keyword"}), "fdm_command_errors_total")
	if err != nil {
		return nil, err
	}
	resets, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fdm_ic_resets_total",
		Help: "Initial condition resets, labeled by mode.",
	}, []string{"mode"}), "fdm_ic_resets_total")
	if err != nil {
		return nil, err
	}
	steps, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fdm_steps_total",
		Help: "Simulation steps executed.",
	}), "fdm_steps_total")
	if err != nil {
		return nil, err
	}
	received, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fdm_input_bytes_total",
		Help: "Bytes received on protocol sessions.",
	}), "fdm_input_bytes_total")
	if err != nil {
		return nil, err
	}
	holding, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "fdm_holding",
		Help: "1 while the simulation is held.",
	}), "fdm_holding")
	if err != nil {
		return nil, err
	}
	simTime, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "fdm_sim_time_seconds",
		Help: "Current simulation time.",
	}), "fdm_sim_time_seconds")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:      gatherer,
		Commands:      commands,
		CommandErrors: cmdErrors,
		Resets:        resets,
		Steps:         steps,
		BytesReceived: received,
		Holding:       holding,
		SimTime:       simTime,
	}, nil
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}

// The methods below accept a nil receiver so callers can run without
// metrics.

func (c *Collector) ObserveCommand(keyword string, failed bool) {
	if c == nil {
		return
	}
	c.Commands.WithLabelValues(keyword).Inc()
	if failed {
		c.CommandErrors.WithLabelValues(keyword).Inc()
	}
}

func (c *Collector) ObserveReset(mode string) {
	if c == nil {
		return
	}
	c.Resets.WithLabelValues(mode).Inc()
}

func (c *Collector) ObserveBytes(n int) {
	if c == nil || n <= 0 {
		return
	}
	c.BytesReceived.Add(float64(n))
}

// OnStep records one executed step at simulation time t.
func (c *Collector) OnStep(t float64) {
	if c == nil {
		return
	}
	c.Steps.Inc()
	c.SimTime.Set(t)
}

func (c *Collector) SetHolding(held bool) {
	if c == nil {
		return
	}
	if held {
		c.Holding.Set(1)
	} else {
		c.Holding.Set(0)
	}
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerCounter(reg prometheus.Registerer, c prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return c, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
