package integrators

import (
	"math"
	"testing"

	"github.com/san-kum/fdmctl/internal/dynamo"
)

func TestAdamsBashforth2Accuracy(t *testing.T) {
	dyn := &simpleDynamics{}
	integ := NewAdamsBashforth2()

	x := dynamo.State{1.0, 0.0}
	dt := 0.001
	steps := 1000
	for i := 0; i < steps; i++ {
		x = integ.Step(dyn, x, nil, float64(i)*dt, dt)
	}

	if math.Abs(x[0]-math.Cos(1.0)) > 1e-3 {
		t.Errorf("position error too large: got %.6f, expected %.6f", x[0], math.Cos(1.0))
	}
}

func TestAdamsBashforth2History(t *testing.T) {
	dyn := &simpleDynamics{}
	integ := NewAdamsBashforth2()

	if dynamo.HistoryLen(integ) != 0 {
		t.Fatal("fresh integrator should have no history")
	}

	integ.Step(dyn, dynamo.State{1, 0}, nil, 0, 0)
	if dynamo.HistoryLen(integ) != 1 {
		t.Fatal("zero-dt step should still record a derivative")
	}

	integ.Reset()
	if dynamo.HistoryLen(integ) != 0 {
		t.Error("Reset should clear derivative history")
	}

	// After Reset the next step is a plain Euler step.
	x := dynamo.State{1, 0}
	got := integ.Step(dyn, x, nil, 0, 0.1)
	want := NewEuler().Step(dyn, x, nil, 0, 0.1)
	if got.Sub(want).Norm() > 1e-15 {
		t.Errorf("expected Euler bootstrap %v, got %v", want, got)
	}
}

func TestSingleStepIntegratorsHaveNoHistory(t *testing.T) {
	if dynamo.HistoryLen(NewRK4()) != 0 || dynamo.HistoryLen(NewEuler()) != 0 {
		t.Error("single-step integrators should report zero history")
	}
}
