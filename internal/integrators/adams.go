package integrators

import "github.com/san-kum/fdmctl/internal/dynamo"

// AdamsBashforth2 is the two-step Adams-Bashforth method. It remembers the
// derivative from the previous call, so after the state is overwritten from
// outside the history must be cleared with Reset or the first step of the
// new trajectory extrapolates from the old one.
type AdamsBashforth2 struct {
	prev    dynamo.State
	hasPrev bool
}

func NewAdamsBashforth2() *AdamsBashforth2 {
	return &AdamsBashforth2{}
}

func (a *AdamsBashforth2) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	dx := dyn.Derive(x, u, t)

	var result dynamo.State
	if !a.hasPrev || len(a.prev) != len(x) {
		// bootstrap with Euler
		result = x.AddScaled(nil, dx, dt)
	} else {
		result = make(dynamo.State, len(x))
		for i := range x {
			result[i] = x[i] + dt*(1.5*dx[i]-0.5*a.prev[i])
		}
	}

	a.prev = append(a.prev[:0], dx...)
	a.hasPrev = true
	return result
}

func (a *AdamsBashforth2) Reset() {
	a.hasPrev = false
}

func (a *AdamsBashforth2) HistoryLen() int {
	if a.hasPrev {
		return 1
	}
	return 0
}
