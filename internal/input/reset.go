package input

import (
	"context"
	"strings"

	"github.com/san-kum/fdmctl/internal/frames"
	"github.com/san-kum/fdmctl/internal/ic"
	"github.com/san-kum/fdmctl/internal/logging"
)

// settleSteps is how many zero-length steps a complete reset runs: the
// first carries the new state into the dependent models, the second lets
// models that read those settle.
const settleSteps = 2

const (
	ResetComplete = "complete"
	ResetState    = "state"
)

// icField is one initial-condition value a complete reset pulls from the
// property tree.
type icField struct {
	path  string
	apply func(*ic.InitialCondition, float64)
}

var resetFields = []icField{
	{"ic/lat-gc-deg", (*ic.InitialCondition).SetLatitudeDeg},
	{"ic/long-gc-deg", (*ic.InitialCondition).SetLongitudeDeg},
	{"ic/h-agl-ft", (*ic.InitialCondition).SetAltitudeAGLFt},
	{"ic/h-sl-ft", (*ic.InitialCondition).SetAltitudeASLFt},
	{"ic/terrain-elevation-ft", (*ic.InitialCondition).SetTerrainElevationFt},
	{"ic/psi-true-deg", (*ic.InitialCondition).SetPsiDeg},
	{"ic/theta-deg", (*ic.InitialCondition).SetThetaDeg},
	{"ic/phi-deg", (*ic.InitialCondition).SetPhiDeg},
}

func (s *Session) handleResetIC(ctx context.Context, cmd Command) error {
	mode := ResetComplete
	if cmd.Argument != "" {
		mode = strings.ToLower(cmd.Argument)
	}

	switch mode {
	case ResetComplete:
		if err := s.resetComplete(ctx); err != nil {
			return fail(cmd.Keyword, "Initial conditions reset failed: "+err.Error())
		}
		s.opts.Metrics.ObserveReset(mode)
		s.reply("Initial conditions reset (complete)\r\n")
	case ResetState:
		s.resetState()
		s.opts.Metrics.ObserveReset(mode)
		s.reply("Initial conditions applied (state)\r\n")
	default:
		s.reply("Invalid reset_ic mode. Use 'complete' or 'state'\r\n")
	}
	return nil
}

// resetComplete reseeds position, attitude and a zero velocity from the
// ic/ properties. Only properties that exist and carry a value overwrite
// the initial condition.
func (s *Session) resetComplete(ctx context.Context) error {
	ex := s.deps.Exec
	c := ex.IC()

	values := make([]float64, len(resetFields))
	present := make([]bool, len(resetFields))
	for i, f := range resetFields {
		res := s.deps.Props.Lookup(f.path)
		if res.Node == nil {
			continue
		}
		values[i] = res.Node.Float()
		present[i] = res.Node.HasValue()
	}

	before := icFields(c)
	for i, f := range resetFields {
		if present[i] {
			f.apply(c, values[i])
		}
	}
	c.SetUBodyFps(0)
	c.SetVBodyFps(0)
	c.SetWBodyFps(0)

	s.log.Debug(ctx, "reset_ic complete",
		logging.Any("properties", values),
		logging.Any("ic_before", before),
		logging.Any("ic_after", icFields(c)),
	)

	ex.SuspendIntegration()
	defer ex.ResumeIntegration()

	s.deps.Propagator.SetInitialState(c)
	s.deps.Ground.InitModel()
	for i := 0; i < settleSteps; i++ {
		if err := ex.Step(); err != nil {
			return err
		}
	}
	s.deps.Propagator.InitializeDerivatives()
	return nil
}

// resetState rebuilds the inertial attitude from the initial condition's
// local attitude at the current position and copies its body velocity.
// Position is left alone.
func (s *Session) resetState() {
	c := s.deps.Exec.IC()
	p := s.deps.Propagator

	p.SetInertialOrientation(frames.Compose(p.Ti2l(), c.Orientation()))
	p.SetBodyVelocity(c.UVW())
}

func icFields(c *ic.InitialCondition) map[string]float64 {
	return map[string]float64{
		"lat":   c.LatitudeDeg(),
		"lon":   c.LongitudeDeg(),
		"psi":   c.PsiDeg(),
		"theta": c.ThetaDeg(),
	}
}
