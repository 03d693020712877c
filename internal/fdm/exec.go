// Package fdm is the simulation executive. It owns the model set, the
// property tree and the hold/step state the protocol sessions drive.
package fdm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/san-kum/fdmctl/internal/dynamo"
	"github.com/san-kum/fdmctl/internal/ground"
	"github.com/san-kum/fdmctl/internal/ic"
	"github.com/san-kum/fdmctl/internal/logging"
	"github.com/san-kum/fdmctl/internal/metrics"
	"github.com/san-kum/fdmctl/internal/propagate"
	"github.com/san-kum/fdmctl/internal/props"
)

const Version = "1.0.0"

var ErrInvalidStep = errors.New("fdm: time step must be positive")

// Input is polled once per tick, before the models run.
type Input interface {
	Read(ctx context.Context, holding bool)
}

// Observer is notified after every executed step.
type Observer interface {
	OnStep(simTime float64)
}

type Config struct {
	Dt            float64
	Aircraft      string
	ConfigVersion string
	Integrator    dynamo.Integrator
	Ground        ground.Params
}

type Executive struct {
	pm     *props.Manager
	ic     *ic.InitialCondition
	prop   *propagate.Propagator
	ground *ground.Reactions

	inputs    []Input
	observers []Observer
	metrics   *metrics.Collector
	log       logging.Logger

	dt, savedDt float64
	simTime     float64
	frame       int64

	holding            bool
	incrementThenHold  bool
	timeStepsUntilHold int

	aircraft      string
	configVersion string
}

func New(cfg Config, log logging.Logger) (*Executive, error) {
	if cfg.Dt <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStep, cfg.Dt)
	}
	if cfg.Integrator == nil {
		return nil, errors.New("fdm: no integrator")
	}
	if log == nil {
		log = logging.Noop()
	}

	pm := props.New()
	prop := propagate.New(cfg.Integrator)
	e := &Executive{
		pm:            pm,
		ic:            ic.New(),
		prop:          prop,
		ground:        ground.New(prop, cfg.Ground),
		log:           log,
		dt:            cfg.Dt,
		aircraft:      cfg.Aircraft,
		configVersion: cfg.ConfigVersion,
	}

	if err := e.bind(); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Executive) bind() error {
	binders := []func(*props.Manager) error{e.ic.Bind, e.prop.Bind, e.ground.Bind}
	for _, b := range binders {
		if err := b(e.pm); err != nil {
			return err
		}
	}
	ties := []struct {
		path string
		get  func() float64
		set  func(float64)
	}{
		{"simulation/sim-time-sec", e.SimTime, nil},
		{"simulation/dt", e.DeltaT, nil},
		{"simulation/frame", func() float64 { return float64(e.frame) }, nil},
		{"simulation/holding", func() float64 {
			if e.holding {
				return 1
			}
			return 0
		}, nil},
	}
	for _, t := range ties {
		if err := e.pm.Tie(t.path, t.get, t.set); err != nil {
			return err
		}
	}
	return nil
}

// RunIC seeds the live state from the initial condition and settles the
// models without advancing time.
func (e *Executive) RunIC() error {
	e.SuspendIntegration()
	defer e.ResumeIntegration()

	e.prop.SetInitialState(e.ic)
	e.ground.InitModel()
	if err := e.Step(); err != nil {
		return err
	}
	e.prop.InitializeDerivatives()
	return nil
}

func (e *Executive) AddInput(in Input)      { e.inputs = append(e.inputs, in) }
func (e *Executive) AddObserver(o Observer) { e.observers = append(e.observers, o) }
func (e *Executive) SetMetrics(c *metrics.Collector) {
	e.metrics = c
	c.SetHolding(e.holding)
}

func (e *Executive) PropertyManager() *props.Manager    { return e.pm }
func (e *Executive) IC() *ic.InitialCondition           { return e.ic }
func (e *Executive) Propagator() *propagate.Propagator  { return e.prop }
func (e *Executive) GroundReactions() *ground.Reactions { return e.ground }

func (e *Executive) SimTime() float64 { return e.simTime }
func (e *Executive) DeltaT() float64  { return e.dt }
func (e *Executive) Frame() int64     { return e.frame }

func (e *Executive) Version() string       { return Version }
func (e *Executive) ConfigVersion() string { return e.configVersion }
func (e *Executive) AircraftName() string  { return e.aircraft }

func (e *Executive) Holding() bool { return e.holding }

func (e *Executive) Hold() {
	e.holding = true
	e.metrics.SetHolding(true)
}

func (e *Executive) Resume() {
	e.holding = false
	e.metrics.SetHolding(false)
}

// EnableIncrementThenHold arranges for the executive to hold again after
// exactly steps further executed steps.
func (e *Executive) EnableIncrementThenHold(steps int) {
	e.incrementThenHold = true
	e.timeStepsUntilHold = steps
}

// SuspendIntegration zeroes the time step, remembering the old one.
func (e *Executive) SuspendIntegration() {
	if e.dt == 0 {
		return
	}
	e.savedDt = e.dt
	e.dt = 0
}

func (e *Executive) ResumeIntegration() {
	if e.dt != 0 {
		return
	}
	e.dt = e.savedDt
}

func (e *Executive) IntegrationSuspended() bool { return e.dt == 0 }

// Step runs every model once at the current time step, whether or not the
// executive is held. It does not advance simulation time or count towards
// an increment-then-hold.
func (e *Executive) Step() error {
	if err := e.ground.Run(e.dt); err != nil {
		return fmt.Errorf("ground reactions: %w", err)
	}
	if err := e.prop.Run(e.dt); err != nil {
		return fmt.Errorf("propagate: %w", err)
	}
	return nil
}

// Run executes one step unless held, then advances time and applies any
// pending increment-then-hold.
func (e *Executive) Run() error {
	if e.holding {
		return nil
	}
	if err := e.Step(); err != nil {
		return err
	}
	if !e.IntegrationSuspended() {
		e.simTime += e.dt
		e.frame++
	}
	for _, o := range e.observers {
		o.OnStep(e.simTime)
	}
	e.metrics.OnStep(e.simTime)

	if e.incrementThenHold {
		e.timeStepsUntilHold--
		if e.timeStepsUntilHold <= 0 {
			e.incrementThenHold = false
			e.Hold()
		}
	}
	return nil
}

// Tick services every input, then runs the models.
func (e *Executive) Tick(ctx context.Context) error {
	for _, in := range e.inputs {
		in.Read(ctx, e.holding)
	}
	return e.Run()
}

// Pacing selects how Loop maps simulation time to wall-clock time.
type Pacing int

const (
	// RealTime runs one tick per dt of wall-clock time.
	RealTime Pacing = iota
	// Accelerated runs ticks back to back.
	Accelerated
)

// Loop ticks until ctx is cancelled or a model fails.
func (e *Executive) Loop(ctx context.Context, pacing Pacing) error {
	e.log.Info(ctx, "executive loop started",
		logging.Float64("dt", e.dt),
		logging.String("aircraft", e.aircraft),
		logging.Bool("real_time", pacing == RealTime),
	)

	var tick <-chan time.Time
	if pacing == RealTime {
		d := time.Duration(e.dt * float64(time.Second))
		if d <= 0 {
			d = time.Millisecond
		}
		ticker := time.NewTicker(d)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		if tick != nil {
			select {
			case <-ctx.Done():
				return nil
			case <-tick:
			}
		} else {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
		}

		if err := e.Tick(ctx); err != nil {
			e.log.Error(ctx, "executive stopped", logging.Err(err), logging.Float64("sim_time", e.simTime))
			return err
		}
	}
}

// QueryPropertyCatalog lists every valued property whose path contains
// check, each followed by eol.
func (e *Executive) QueryPropertyCatalog(check, eol string) string {
	matches := e.pm.Catalog(check)
	if len(matches) == 0 {
		return "No matches found" + eol
	}
	var b strings.Builder
	for _, m := range matches {
		b.WriteString(m)
		b.WriteString(eol)
	}
	return b.String()
}
