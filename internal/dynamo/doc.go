// Package dynamo provides the numerical primitives the propagation model
// integrates with.
//
// The package defines the fundamental interfaces and types for stepping
// ordinary differential equations (ODEs):
//
//   - [State]: vector representing system state
//   - [System]: interface for ODE systems (dX/dt = f(X, u, t))
//   - [Integrator]: numerical integrator interface
//   - [HistoryResetter]: integrators that carry derivative history
//
// # Example
//
//	integ := integrators.NewAdamsBashforth2()
//	x = integ.Step(sys, x, nil, t, dt)
//	// after re-seeding x, drop the stale history
//	if r, ok := integ.(dynamo.HistoryResetter); ok {
//		r.Reset()
//	}
//
// # Thread Safety
//
// Integrators keep scratch buffers and are NOT thread-safe. Each model owns
// its own instance.
package dynamo
