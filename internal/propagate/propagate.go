// Package propagate advances the vehicle's position, inertial attitude and
// body velocity over time.
package propagate

import (
	"math"

	"github.com/san-kum/fdmctl/internal/dynamo"
	"github.com/san-kum/fdmctl/internal/frames"
	"github.com/san-kum/fdmctl/internal/ic"
	"github.com/san-kum/fdmctl/internal/props"
)

const (
	EarthRadiusFt = 20925646.32546
	EarthRateRad  = 0.00007292115
	Gravity       = 32.174049

	deg = math.Pi / 180
)

// state vector layout
const (
	iLat = iota
	iLon
	iAlt
	iQW
	iQX
	iQY
	iQZ
	iU
	iV
	iW
	iP
	iQ
	iR
	stateDim
)

// Propagator owns the kinematic state. The inertial attitude is the
// canonical orientation; the local-level attitude and Euler angles are
// derived from it on demand.
type Propagator struct {
	integ      dynamo.Integrator
	x          dynamo.State
	earthAngle float64
	terrain    float64
	accel      frames.Vec3
	t          float64
}

func New(integ dynamo.Integrator) *Propagator {
	p := &Propagator{integ: integ, x: make(dynamo.State, stateDim)}
	p.x[iQW] = 1
	return p
}

func (p *Propagator) StateDim() int { return stateDim }

// Derive implements dynamo.System.
func (p *Propagator) Derive(x dynamo.State, _ dynamo.Control, _ float64) dynamo.State {
	dx := make(dynamo.State, stateDim)

	lat, alt := x[iLat], x[iAlt]
	qi2b := frames.InertialToBody(quat(x))
	ti2l := frames.LocalLevel(lat, x[iLon], p.earthAngle)
	tl2b := frames.Quaternion(qi2b.Local(ti2l)).T()

	uvw := frames.Vec3{X: x[iU], Y: x[iV], Z: x[iW]}
	ned := tl2b.Transpose().MulVec(uvw)

	r := EarthRadiusFt + alt
	dx[iLat] = ned.X / r
	if c := math.Cos(lat); math.Abs(c) > 1e-9 {
		dx[iLon] = ned.Y / (r * c)
	}
	dx[iAlt] = -ned.Z

	q := quat(x)
	omega := frames.Quaternion{X: x[iP], Y: x[iQ], Z: x[iR]}
	qdot := q.Mul(omega)
	dx[iQW], dx[iQX], dx[iQY], dx[iQZ] = 0.5*qdot.W, 0.5*qdot.X, 0.5*qdot.Y, 0.5*qdot.Z

	g := tl2b.MulVec(frames.Vec3{Z: Gravity})
	pqr := frames.Vec3{X: x[iP], Y: x[iQ], Z: x[iR]}
	cor := cross(pqr, uvw)
	dx[iU] = g.X + p.accel.X - cor.X
	dx[iV] = g.Y + p.accel.Y - cor.Y
	dx[iW] = g.Z + p.accel.Z - cor.Z
	return dx
}

func cross(a, b frames.Vec3) frames.Vec3 {
	return frames.Vec3{
		X: a.Y*b.Z - a.Z*b.Y,
		Y: a.Z*b.X - a.X*b.Z,
		Z: a.X*b.Y - a.Y*b.X,
	}
}

func quat(x dynamo.State) frames.Quaternion {
	return frames.Quaternion{W: x[iQW], X: x[iQX], Y: x[iQY], Z: x[iQZ]}
}

// Run advances the state by dt. A zero dt leaves the state untouched but
// still lets dependents observe it.
func (p *Propagator) Run(dt float64) error {
	if dt < 0 {
		return dynamo.ErrNegativeStep
	}
	if dt == 0 {
		return nil
	}
	next := p.integ.Step(p, p.x, nil, p.t, dt)
	if !next.IsValid() {
		return &dynamo.SimulationError{Time: p.t, State: next, Wrapped: dynamo.ErrInvalidState}
	}
	q := quat(next).Normalize()
	next[iQW], next[iQX], next[iQY], next[iQZ] = q.W, q.X, q.Y, q.Z
	p.x = next
	p.t += dt
	p.earthAngle = math.Mod(p.earthAngle+EarthRateRad*dt, 2*math.Pi)
	return nil
}

// SetInitialState copies position, attitude and velocity from the initial
// condition into the live state. Angular rates are zeroed.
func (p *Propagator) SetInitialState(c *ic.InitialCondition) {
	p.x[iLat] = c.LatitudeRad()
	p.x[iLon] = c.LongitudeRad()
	p.x[iAlt] = c.AltitudeASLFt()
	p.terrain = c.TerrainElevationFt()
	p.SetInertialOrientation(frames.Compose(p.Ti2l(), c.Orientation()))
	p.SetBodyVelocity(c.UVW())
	p.x[iP], p.x[iQ], p.x[iR] = 0, 0, 0
}

// InitializeDerivatives discards any derivative history held by the
// integrator.
func (p *Propagator) InitializeDerivatives() {
	if h, ok := p.integ.(dynamo.HistoryResetter); ok {
		h.Reset()
	}
}

// Ti2l is the current inertial to local-level transform.
func (p *Propagator) Ti2l() frames.InertialToLocal {
	return frames.LocalLevel(p.x[iLat], p.x[iLon], p.earthAngle)
}

func (p *Propagator) InertialOrientation() frames.InertialToBody {
	return frames.InertialToBody(quat(p.x))
}

func (p *Propagator) SetInertialOrientation(q frames.InertialToBody) {
	n := frames.Quaternion(q).Normalize()
	p.x[iQW], p.x[iQX], p.x[iQY], p.x[iQZ] = n.W, n.X, n.Y, n.Z
}

// LocalOrientation is the attitude relative to the local-level frame.
func (p *Propagator) LocalOrientation() frames.LocalToBody {
	return p.InertialOrientation().Local(p.Ti2l())
}

func (p *Propagator) BodyVelocity() frames.Vec3 {
	return frames.Vec3{X: p.x[iU], Y: p.x[iV], Z: p.x[iW]}
}

func (p *Propagator) SetBodyVelocity(v frames.Vec3) {
	p.x[iU], p.x[iV], p.x[iW] = v.X, v.Y, v.Z
}

// SetExternalAccel sets the non-gravitational body acceleration applied on
// the next Run, in ft/s^2.
func (p *Propagator) SetExternalAccel(a frames.Vec3) {
	p.accel = a
}

func (p *Propagator) LatitudeDeg() float64            { return p.x[iLat] / deg }
func (p *Propagator) LongitudeDeg() float64           { return p.x[iLon] / deg }
func (p *Propagator) AltitudeASLFt() float64          { return p.x[iAlt] }
func (p *Propagator) AltitudeAGLFt() float64          { return p.x[iAlt] - p.terrain }
func (p *Propagator) TerrainElevationFt() float64     { return p.terrain }
func (p *Propagator) SetTerrainElevationFt(v float64) { p.terrain = v }

// Position is latitude, longitude and altitude above sea level.
func (p *Propagator) Position() (latDeg, lonDeg, altFt float64) {
	return p.LatitudeDeg(), p.LongitudeDeg(), p.AltitudeASLFt()
}

func (p *Propagator) HDotFps() float64 {
	tl2b := frames.Quaternion(p.LocalOrientation()).T()
	return -tl2b.Transpose().MulVec(p.BodyVelocity()).Z
}

func (p *Propagator) euler() (phi, theta, psi float64) {
	return frames.Quaternion(p.LocalOrientation()).Euler()
}

// Bind ties the live state to position/, attitude/ and velocities/.
func (p *Propagator) Bind(pm *props.Manager) error {
	idx := func(i int, scale float64) (func() float64, func(float64)) {
		return func() float64 { return p.x[i] / scale }, func(v float64) { p.x[i] = v * scale }
	}
	latG, latS := idx(iLat, deg)
	lonG, lonS := idx(iLon, deg)
	altG, altS := idx(iAlt, 1)
	uG, uS := idx(iU, 1)
	vG, vS := idx(iV, 1)
	wG, wS := idx(iW, 1)
	pG, pS := idx(iP, 1)
	qG, qS := idx(iQ, 1)
	rG, rS := idx(iR, 1)

	ties := []struct {
		path string
		get  func() float64
		set  func(float64)
	}{
		{"position/lat-gc-deg", latG, latS},
		{"position/long-gc-deg", lonG, lonS},
		{"position/h-sl-ft", altG, altS},
		{"position/h-agl-ft", p.AltitudeAGLFt, nil},
		{"position/terrain-elevation-ft", p.TerrainElevationFt, p.SetTerrainElevationFt},
		{"attitude/phi-deg", func() float64 { phi, _, _ := p.euler(); return phi / deg }, nil},
		{"attitude/theta-deg", func() float64 { _, th, _ := p.euler(); return th / deg }, nil},
		{"attitude/psi-deg", func() float64 { _, _, psi := p.euler(); return psi / deg }, nil},
		{"velocities/u-fps", uG, uS},
		{"velocities/v-fps", vG, vS},
		{"velocities/w-fps", wG, wS},
		{"velocities/p-rad_sec", pG, pS},
		{"velocities/q-rad_sec", qG, qS},
		{"velocities/r-rad_sec", rG, rS},
		{"velocities/h-dot-fps", p.HDotFps, nil},
	}
	for _, t := range ties {
		if err := pm.Tie(t.path, t.get, t.set); err != nil {
			return err
		}
	}
	return nil
}
