// Package ground models a single spring/damper contact between the vehicle
// and the terrain.
package ground

import (
	"github.com/san-kum/fdmctl/internal/frames"
	"github.com/san-kum/fdmctl/internal/props"
)

// Vehicle is what the contact model reads and pushes its force into.
type Vehicle interface {
	AltitudeAGLFt() float64
	HDotFps() float64
	LocalOrientation() frames.LocalToBody
	SetExternalAccel(frames.Vec3)
}

// Params are per unit mass: spring in 1/s^2, damping in 1/s.
type Params struct {
	Spring  float64
	Damping float64
}

func DefaultParams() Params {
	return Params{Spring: 60, Damping: 12}
}

type Reactions struct {
	params Params
	v      Vehicle

	wow           bool
	compression   float64
	compressSpeed float64
	force         float64
}

func New(v Vehicle, params Params) *Reactions {
	return &Reactions{v: v, params: params}
}

// InitModel clears the contact state left from a previous trajectory.
func (r *Reactions) InitModel() {
	r.wow = false
	r.compression = 0
	r.compressSpeed = 0
	r.force = 0
	r.v.SetExternalAccel(frames.Vec3{})
}

// Run updates the contact from the current vehicle state. dt is unused; the
// model is algebraic in the state.
func (r *Reactions) Run(_ float64) error {
	h := r.v.AltitudeAGLFt()
	if h >= 0 {
		r.wow = false
		r.compression = 0
		r.compressSpeed = 0
		r.force = 0
		r.v.SetExternalAccel(frames.Vec3{})
		return nil
	}

	r.wow = true
	r.compression = -h
	r.compressSpeed = -r.v.HDotFps()
	f := r.params.Spring*r.compression + r.params.Damping*r.compressSpeed
	if f < 0 {
		f = 0
	}
	r.force = f

	tl2b := frames.Quaternion(r.v.LocalOrientation()).T()
	r.v.SetExternalAccel(tl2b.MulVec(frames.Vec3{Z: -f}))
	return nil
}

func (r *Reactions) WOW() bool              { return r.wow }
func (r *Reactions) Compression() float64   { return r.compression }
func (r *Reactions) CompressSpeed() float64 { return r.compressSpeed }
func (r *Reactions) NormalForce() float64   { return r.force }

func (r *Reactions) Bind(pm *props.Manager) error {
	wow := func() float64 {
		if r.wow {
			return 1
		}
		return 0
	}
	ties := []struct {
		path string
		get  func() float64
	}{
		{"gear/wow", wow},
		{"gear/compression-ft", r.Compression},
		{"gear/compress-speed-fps", r.CompressSpeed},
		{"gear/normal-accel-fps2", r.NormalForce},
	}
	for _, t := range ties {
		if err := pm.Tie(t.path, t.get, nil); err != nil {
			return err
		}
	}
	return nil
}
