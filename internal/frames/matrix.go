package frames

import "math"

// Matrix33 is a row-major 3x3 matrix.
type Matrix33 [3][3]float64

func Identity() Matrix33 {
	return Matrix33{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}

func (m Matrix33) Mul(o Matrix33) Matrix33 {
	var r Matrix33
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i][j] = m[i][0]*o[0][j] + m[i][1]*o[1][j] + m[i][2]*o[2][j]
		}
	}
	return r
}

func (m Matrix33) MulVec(v Vec3) Vec3 {
	return Vec3{
		X: m[0][0]*v.X + m[0][1]*v.Y + m[0][2]*v.Z,
		Y: m[1][0]*v.X + m[1][1]*v.Y + m[1][2]*v.Z,
		Z: m[2][0]*v.X + m[2][1]*v.Y + m[2][2]*v.Z,
	}
}

func (m Matrix33) Transpose() Matrix33 {
	var r Matrix33
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i][j] = m[j][i]
		}
	}
	return r
}

// Quaternion returns the unit quaternion whose transform matrix is m. The
// largest diagonal term picks the pivot component to keep the division
// well conditioned.
func (m Matrix33) Quaternion() Quaternion {
	t := [4]float64{
		1 + m[0][0] + m[1][1] + m[2][2],
		1 + m[0][0] - m[1][1] - m[2][2],
		1 - m[0][0] + m[1][1] - m[2][2],
		1 - m[0][0] - m[1][1] + m[2][2],
	}

	idx := 0
	for i := 1; i < 4; i++ {
		if t[i] > t[idx] {
			idx = i
		}
	}

	var q Quaternion
	switch idx {
	case 0:
		q.W = 0.5 * math.Sqrt(t[0])
		r := 0.25 / q.W
		q.X = (m[1][2] - m[2][1]) * r
		q.Y = (m[2][0] - m[0][2]) * r
		q.Z = (m[0][1] - m[1][0]) * r
	case 1:
		q.X = 0.5 * math.Sqrt(t[1])
		r := 0.25 / q.X
		q.W = (m[1][2] - m[2][1]) * r
		q.Y = (m[1][0] + m[0][1]) * r
		q.Z = (m[2][0] + m[0][2]) * r
	case 2:
		q.Y = 0.5 * math.Sqrt(t[2])
		r := 0.25 / q.Y
		q.W = (m[2][0] - m[0][2]) * r
		q.X = (m[1][0] + m[0][1]) * r
		q.Z = (m[2][1] + m[1][2]) * r
	case 3:
		q.Z = 0.5 * math.Sqrt(t[3])
		r := 0.25 / q.Z
		q.W = (m[0][1] - m[1][0]) * r
		q.X = (m[2][0] + m[0][2]) * r
		q.Y = (m[2][1] + m[1][2]) * r
	}
	return q
}
