package dynamo

import (
	"fmt"
	"math"
)

// State is a flat vector of continuous states.
type State []float64

func (s State) Clone() State { return append(State(nil), s...) }

// IsValid reports whether every component is finite.
func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Dot(o State) float64 {
	var sum float64
	for i := range min(len(s), len(o)) {
		sum += s[i] * o[i]
	}
	return sum
}

func (s State) Norm() float64 { return math.Sqrt(s.Dot(s)) }

// Sub returns s - o. Components of s beyond len(o) are kept.
func (s State) Sub(o State) State {
	d := s.Clone()
	for i := range min(len(s), len(o)) {
		d[i] -= o[i]
	}
	return d
}

// AddScaled writes s + h*k into dst, allocating when dst does not fit.
func (s State) AddScaled(dst, k State, h float64) State {
	if len(dst) != len(s) {
		dst = make(State, len(s))
	}
	for i := range s {
		dst[i] = s[i] + h*k[i]
	}
	return dst
}

type Control []float64

type System interface {
	Derive(x State, u Control, t float64) State
	StateDim() int
}

type Integrator interface {
	Step(dyn System, x State, u Control, t float64, dt float64) State
}

// HistoryResetter is implemented by multistep integrators. Reset discards
// every stored derivative so the next step starts single-step again.
type HistoryResetter interface {
	Reset()
}

// HistoryLen reports how many past derivatives an integrator still holds.
// Single-step integrators always report zero.
func HistoryLen(integ Integrator) int {
	if h, ok := integ.(interface{ HistoryLen() int }); ok {
		return h.HistoryLen()
	}
	return 0
}

type SimError struct {
	Time    float64
	Step    int
	Message string
}

func (e SimError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %s", e.Step, e.Time, e.Message)
}
