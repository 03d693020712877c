package integrators

import "github.com/san-kum/fdmctl/internal/dynamo"

// RK4 is the classic four-stage Runge-Kutta method. Stage buffers are kept
// between calls, so one RK4 must not be shared across goroutines.
type RK4 struct {
	k     [4]dynamo.State
	probe dynamo.State
}

func NewRK4() *RK4 { return &RK4{} }

// stage evaluates the derivative at x + h*prev and stores it in k[i].
func (r *RK4) stage(i int, dyn dynamo.System, x, prev dynamo.State, u dynamo.Control, t, h float64) {
	r.probe = x.AddScaled(r.probe, prev, h)
	r.k[i] = append(r.k[i][:0], dyn.Derive(r.probe, u, t)...)
}

func (r *RK4) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	half := dt / 2
	r.k[0] = append(r.k[0][:0], dyn.Derive(x, u, t)...)
	r.stage(1, dyn, x, r.k[0], u, t+half, half)
	r.stage(2, dyn, x, r.k[1], u, t+half, half)
	r.stage(3, dyn, x, r.k[2], u, t+dt, dt)

	next := make(dynamo.State, len(x))
	w := dt / 6
	for i := range x {
		next[i] = x[i] + w*(r.k[0][i]+2*(r.k[1][i]+r.k[2][i])+r.k[3][i])
	}
	return next
}
