package input_test

import (
	"context"
	"errors"
	"strings"

	"github.com/san-kum/fdmctl/internal/frames"
	"github.com/san-kum/fdmctl/internal/ic"
	"github.com/san-kum/fdmctl/internal/props"
)

type fakeTransport struct {
	chunks    [][]byte
	replies   []string
	sent      []string
	closed    bool
	connected bool
	waits     int
}

func newTransport() *fakeTransport {
	return &fakeTransport{connected: true}
}

func (f *fakeTransport) push(s string) { f.chunks = append(f.chunks, []byte(s)) }

func (f *fakeTransport) Receive() []byte {
	if len(f.chunks) == 0 {
		return nil
	}
	c := f.chunks[0]
	f.chunks = f.chunks[1:]
	return c
}

func (f *fakeTransport) WaitUntilReadable(context.Context) { f.waits++ }
func (f *fakeTransport) Reply(text string)                 { f.replies = append(f.replies, text) }
func (f *fakeTransport) Send(text string)                  { f.sent = append(f.sent, text) }
func (f *fakeTransport) Close()                            { f.closed = true }
func (f *fakeTransport) Connected() bool                   { return f.connected }

func (f *fakeTransport) output() string { return strings.Join(f.replies, "") }

// calls is the ordered log shared by the fake executive, propagator and
// ground model.
type calls []string

func (c *calls) add(s string) { *c = append(*c, s) }

type fakeExec struct {
	log *calls
	pm  *props.Manager
	ic  *ic.InitialCondition

	holding   bool
	incSteps  int
	dt, saved float64
	stepDts   []float64
	stepErr   error
	simTime   float64
}

func newExec(log *calls, pm *props.Manager) *fakeExec {
	return &fakeExec{log: log, pm: pm, ic: ic.New(), dt: 0.01}
}

func (e *fakeExec) Hold()                             { e.holding = true }
func (e *fakeExec) Resume()                           { e.holding = false }
func (e *fakeExec) Holding() bool                     { return e.holding }
func (e *fakeExec) EnableIncrementThenHold(steps int) { e.incSteps = steps }
func (e *fakeExec) SimTime() float64                  { return e.simTime }
func (e *fakeExec) Version() string                   { return "1.0.0" }
func (e *fakeExec) ConfigVersion() string             { return "2.0" }
func (e *fakeExec) AircraftName() string              { return "c172" }
func (e *fakeExec) IC() *ic.InitialCondition          { return e.ic }

func (e *fakeExec) QueryPropertyCatalog(check, eol string) string {
	var b strings.Builder
	for _, p := range e.pm.Catalog(check) {
		b.WriteString(p + eol)
	}
	if b.Len() == 0 {
		return "No matches found" + eol
	}
	return b.String()
}

func (e *fakeExec) SuspendIntegration() {
	e.log.add("suspend")
	e.saved, e.dt = e.dt, 0
}

func (e *fakeExec) ResumeIntegration() {
	e.log.add("resume-integration")
	e.dt = e.saved
}

func (e *fakeExec) Step() error {
	e.log.add("step")
	e.stepDts = append(e.stepDts, e.dt)
	return e.stepErr
}

// advance mimics the executive's increment-then-hold bookkeeping for n
// ticks and returns how many steps actually ran.
func (e *fakeExec) advance(n int) int {
	ran := 0
	for i := 0; i < n; i++ {
		if e.holding {
			continue
		}
		ran++
		if e.incSteps > 0 {
			e.incSteps--
			if e.incSteps == 0 {
				e.holding = true
			}
		}
	}
	return ran
}

type fakePropagator struct {
	log       *calls
	ti2l      frames.InertialToLocal
	qi2b      frames.InertialToBody
	uvw       frames.Vec3
	position  [3]float64
	seededLat float64
}

func (p *fakePropagator) SetInitialState(c *ic.InitialCondition) {
	p.log.add("set-initial-state")
	p.seededLat = c.LatitudeDeg()
}

func (p *fakePropagator) InitializeDerivatives()                         { p.log.add("initialize-derivatives") }
func (p *fakePropagator) Ti2l() frames.InertialToLocal                   { return p.ti2l }
func (p *fakePropagator) SetInertialOrientation(q frames.InertialToBody) { p.qi2b = q }
func (p *fakePropagator) SetBodyVelocity(v frames.Vec3)                  { p.uvw = v }

type fakeGround struct{ log *calls }

func (g *fakeGround) InitModel() { g.log.add("ground-init") }

var errStep = errors.New("model diverged")
