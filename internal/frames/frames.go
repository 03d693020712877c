package frames

import "math"

// LocalToBody is the vehicle attitude relative to the local-level frame.
type LocalToBody Quaternion

// InertialToLocal transforms inertial vectors into the local-level frame.
type InertialToLocal Matrix33

// InertialToBody is the vehicle attitude relative to the inertial frame.
type InertialToBody Quaternion

// Compose returns the inertial attitude reached by first rotating from the
// inertial to the local-level frame and then from local-level to body.
// Swapping the operands yields a different, wrong orientation.
func Compose(ti2l InertialToLocal, ql LocalToBody) InertialToBody {
	return InertialToBody(Matrix33(ti2l).Quaternion().Mul(Quaternion(ql)))
}

// Local recovers the local-level attitude from an inertial one.
func (qi InertialToBody) Local(ti2l InertialToLocal) LocalToBody {
	qi2l := Matrix33(ti2l).Quaternion()
	return LocalToBody(qi2l.Conj().Mul(Quaternion(qi)))
}

// Tec2l is the transform from earth-centered earth-fixed axes to the
// north-east-down frame at the given geocentric latitude and longitude.
func Tec2l(lat, lon float64) Matrix33 {
	slat, clat := math.Sincos(lat)
	slon, clon := math.Sincos(lon)
	return Matrix33{
		{-slat * clon, -slat * slon, clat},
		{-slon, clon, 0},
		{-clat * clon, -clat * slon, -slat},
	}
}

// Ti2ec rotates inertial axes into earth-fixed axes after the earth has
// turned by angle radians.
func Ti2ec(angle float64) Matrix33 {
	s, c := math.Sincos(angle)
	return Matrix33{
		{c, s, 0},
		{-s, c, 0},
		{0, 0, 1},
	}
}

// LocalLevel derives the inertial-to-local transform at a position.
func LocalLevel(lat, lon, earthAngle float64) InertialToLocal {
	return InertialToLocal(Tec2l(lat, lon).Mul(Ti2ec(earthAngle)))
}
