// Package ic holds the initial condition the propagation engine is seeded
// from at the start of a run and on every reset.
package ic

import (
	"math"

	"github.com/san-kum/fdmctl/internal/frames"
	"github.com/san-kum/fdmctl/internal/props"
)

const deg = math.Pi / 180

// InitialCondition is the pre-run seed state. Angles are kept in radians;
// the deg accessors convert at the boundary. The altitude above sea level
// always equals the altitude above ground plus the terrain elevation.
type InitialCondition struct {
	lat, lon   float64
	altASL     float64
	terrain    float64
	orient     frames.LocalToBody
	u, v, w    float64
	phi, theta float64
	psi        float64
}

func New() *InitialCondition {
	return &InitialCondition{orient: frames.LocalToBody(frames.IdentityQuaternion())}
}

// Preset is a named set of initial values, as loaded from configuration.
type Preset struct {
	LatitudeDeg   float64
	LongitudeDeg  float64
	AltitudeAGLFt float64
	TerrainFt     float64
	PhiDeg        float64
	ThetaDeg      float64
	PsiDeg        float64
	UFps          float64
	VFps          float64
	WFps          float64
}

// Apply overwrites every field of ic from p.
func (ic *InitialCondition) Apply(p Preset) {
	ic.SetLatitudeDeg(p.LatitudeDeg)
	ic.SetLongitudeDeg(p.LongitudeDeg)
	ic.SetTerrainElevationFt(p.TerrainFt)
	ic.SetAltitudeAGLFt(p.AltitudeAGLFt)
	ic.SetPhiDeg(p.PhiDeg)
	ic.SetThetaDeg(p.ThetaDeg)
	ic.SetPsiDeg(p.PsiDeg)
	ic.SetUBodyFps(p.UFps)
	ic.SetVBodyFps(p.VFps)
	ic.SetWBodyFps(p.WFps)
}

func (ic *InitialCondition) LatitudeDeg() float64        { return ic.lat / deg }
func (ic *InitialCondition) LongitudeDeg() float64       { return ic.lon / deg }
func (ic *InitialCondition) LatitudeRad() float64        { return ic.lat }
func (ic *InitialCondition) LongitudeRad() float64       { return ic.lon }
func (ic *InitialCondition) AltitudeASLFt() float64      { return ic.altASL }
func (ic *InitialCondition) AltitudeAGLFt() float64      { return ic.altASL - ic.terrain }
func (ic *InitialCondition) TerrainElevationFt() float64 { return ic.terrain }
func (ic *InitialCondition) PhiDeg() float64             { return ic.phi / deg }
func (ic *InitialCondition) ThetaDeg() float64           { return ic.theta / deg }
func (ic *InitialCondition) PsiDeg() float64             { return ic.psi / deg }
func (ic *InitialCondition) UBodyFps() float64           { return ic.u }
func (ic *InitialCondition) VBodyFps() float64           { return ic.v }
func (ic *InitialCondition) WBodyFps() float64           { return ic.w }

func (ic *InitialCondition) SetLatitudeDeg(v float64)  { ic.lat = v * deg }
func (ic *InitialCondition) SetLongitudeDeg(v float64) { ic.lon = v * deg }

func (ic *InitialCondition) SetAltitudeAGLFt(v float64) { ic.altASL = v + ic.terrain }
func (ic *InitialCondition) SetAltitudeASLFt(v float64) { ic.altASL = v }

// SetTerrainElevationFt moves the ground under the aircraft; the altitude
// above sea level is kept and the altitude above ground follows.
func (ic *InitialCondition) SetTerrainElevationFt(v float64) { ic.terrain = v }

func (ic *InitialCondition) SetPhiDeg(v float64) {
	ic.phi = v * deg
	ic.syncOrientation()
}

func (ic *InitialCondition) SetThetaDeg(v float64) {
	ic.theta = v * deg
	ic.syncOrientation()
}

func (ic *InitialCondition) SetPsiDeg(v float64) {
	ic.psi = v * deg
	ic.syncOrientation()
}

func (ic *InitialCondition) syncOrientation() {
	ic.orient = frames.LocalToBody(frames.FromEuler(ic.phi, ic.theta, ic.psi))
}

func (ic *InitialCondition) SetUBodyFps(v float64) { ic.u = v }
func (ic *InitialCondition) SetVBodyFps(v float64) { ic.v = v }
func (ic *InitialCondition) SetWBodyFps(v float64) { ic.w = v }

// Orientation is the local-level to body attitude.
func (ic *InitialCondition) Orientation() frames.LocalToBody { return ic.orient }

// SetOrientation overwrites the attitude and keeps the Euler angles in step.
func (ic *InitialCondition) SetOrientation(q frames.LocalToBody) {
	ic.orient = q
	ic.phi, ic.theta, ic.psi = frames.Quaternion(q).Euler()
}

// UVW is the body-frame velocity in ft/s.
func (ic *InitialCondition) UVW() frames.Vec3 {
	return frames.Vec3{X: ic.u, Y: ic.v, Z: ic.w}
}

// Bind exposes the initial condition under ic/.
func (ic *InitialCondition) Bind(pm *props.Manager) error {
	ties := []struct {
		path string
		get  func() float64
		set  func(float64)
	}{
		{"ic/lat-gc-deg", ic.LatitudeDeg, ic.SetLatitudeDeg},
		{"ic/long-gc-deg", ic.LongitudeDeg, ic.SetLongitudeDeg},
		{"ic/h-agl-ft", ic.AltitudeAGLFt, ic.SetAltitudeAGLFt},
		{"ic/h-sl-ft", ic.AltitudeASLFt, ic.SetAltitudeASLFt},
		{"ic/terrain-elevation-ft", ic.TerrainElevationFt, ic.SetTerrainElevationFt},
		{"ic/phi-deg", ic.PhiDeg, ic.SetPhiDeg},
		{"ic/theta-deg", ic.ThetaDeg, ic.SetThetaDeg},
		{"ic/psi-true-deg", ic.PsiDeg, ic.SetPsiDeg},
		{"ic/u-fps", ic.UBodyFps, ic.SetUBodyFps},
		{"ic/v-fps", ic.VBodyFps, ic.SetVBodyFps},
		{"ic/w-fps", ic.WBodyFps, ic.SetWBodyFps},
	}
	for _, t := range ties {
		if err := pm.Tie(t.path, t.get, t.set); err != nil {
			return err
		}
	}
	return nil
}
