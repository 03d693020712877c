package frames

import "math"

type Quaternion struct {
	W, X, Y, Z float64
}

func IdentityQuaternion() Quaternion { return Quaternion{W: 1} }

// FromEuler builds the transform quaternion for a 3-2-1 (psi, theta, phi)
// rotation sequence. Angles are in radians.
func FromEuler(phi, theta, psi float64) Quaternion {
	sphi, cphi := math.Sincos(0.5 * phi)
	stht, ctht := math.Sincos(0.5 * theta)
	spsi, cpsi := math.Sincos(0.5 * psi)

	return Quaternion{
		W: cphi*ctht*cpsi + sphi*stht*spsi,
		X: sphi*ctht*cpsi - cphi*stht*spsi,
		Y: cphi*stht*cpsi + sphi*ctht*spsi,
		Z: cphi*ctht*spsi - sphi*stht*cpsi,
	}
}

// Mul is the Hamilton product q*p.
func (q Quaternion) Mul(p Quaternion) Quaternion {
	return Quaternion{
		W: q.W*p.W - q.X*p.X - q.Y*p.Y - q.Z*p.Z,
		X: q.W*p.X + q.X*p.W + q.Y*p.Z - q.Z*p.Y,
		Y: q.W*p.Y - q.X*p.Z + q.Y*p.W + q.Z*p.X,
		Z: q.W*p.Z + q.X*p.Y - q.Y*p.X + q.Z*p.W,
	}
}

func (q Quaternion) Conj() Quaternion {
	return Quaternion{W: q.W, X: -q.X, Y: -q.Y, Z: -q.Z}
}

func (q Quaternion) Magnitude() float64 {
	return math.Sqrt(q.W*q.W + q.X*q.X + q.Y*q.Y + q.Z*q.Z)
}

func (q Quaternion) Normalize() Quaternion {
	m := q.Magnitude()
	if m == 0 {
		return IdentityQuaternion()
	}
	return Quaternion{W: q.W / m, X: q.X / m, Y: q.Y / m, Z: q.Z / m}
}

// Equal reports whether q and p describe the same rotation within tol,
// treating q and -q as equal.
func (q Quaternion) Equal(p Quaternion, tol float64) bool {
	same := math.Abs(q.W-p.W) <= tol && math.Abs(q.X-p.X) <= tol &&
		math.Abs(q.Y-p.Y) <= tol && math.Abs(q.Z-p.Z) <= tol
	flipped := math.Abs(q.W+p.W) <= tol && math.Abs(q.X+p.X) <= tol &&
		math.Abs(q.Y+p.Y) <= tol && math.Abs(q.Z+p.Z) <= tol
	return same || flipped
}

// T returns the transform matrix of q.
func (q Quaternion) T() Matrix33 {
	w, x, y, z := q.W, q.X, q.Y, q.Z
	ww, xx, yy, zz := w*w, x*x, y*y, z*z
	return Matrix33{
		{ww + xx - yy - zz, 2 * (x*y + w*z), 2 * (x*z - w*y)},
		{2 * (x*y - w*z), ww - xx + yy - zz, 2 * (y*z + w*x)},
		{2 * (x*z + w*y), 2 * (y*z - w*x), ww - xx - yy + zz},
	}
}

// Euler returns (phi, theta, psi) in radians.
func (q Quaternion) Euler() (phi, theta, psi float64) {
	m := q.T()
	phi = math.Atan2(m[1][2], m[2][2])
	theta = -math.Asin(clamp(m[0][2], -1, 1))
	psi = math.Atan2(m[0][1], m[0][0])
	if psi < 0 {
		psi += 2 * math.Pi
	}
	return phi, theta, psi
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
