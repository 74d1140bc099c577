package math

import "math"

// Mat43 is a 4x4 affine transform whose last row is always (0 0 0 1) and so
// is not stored. Rows are the x, y and z outputs; columns 0-2 are the linear
// part (the "right", "down" and "heading" axes) and column 3 the translation.
//
//	[m00 m01 m02 m03]
//	[m10 m11 m12 m13]
//	[m20 m21 m22 m23]
type Mat43 [3][4]float64

// Identity returns an identity matrix.
func Identity() Mat43 {
	return Mat43{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
	}
}

// Translate returns a translation matrix.
func Translate(x, y, z float64) Mat43 {
	return Mat43{
		{1, 0, 0, x},
		{0, 1, 0, y},
		{0, 0, 1, z},
	}
}

// TranslateVec returns a translation by v.
func TranslateVec(v Vec3) Mat43 {
	return Translate(v.X, v.Y, v.Z)
}

// FromAxes builds a matrix from its three axis columns and a position, in the
// order they are stored in 3D Studio mesh matrices.
func FromAxes(right, down, heading, pos Vec3) Mat43 {
	return Mat43{
		{right.X, down.X, heading.X, pos.X},
		{right.Y, down.Y, heading.Y, pos.Y},
		{right.Z, down.Z, heading.Z, pos.Z},
	}
}

// RotateAxis returns the rotation about a unit axis by angle radians in the
// 3D Studio handedness (Graphics Gems I, p. 466). A zero axis yields identity.
func RotateAxis(axis Vec3, angle float64) Mat43 {
	l := axis.Length()
	if l == 0 {
		return Identity()
	}
	x, y, z := axis.X/l, axis.Y/l, axis.Z/l
	s := math.Sin(angle)
	c := math.Cos(angle)
	t := 1 - c

	return Mat43{
		{t*x*x + c, t*x*y + s*z, t*x*z - s*y, 0},
		{t*x*y - s*z, t*y*y + c, t*y*z + s*x, 0},
		{t*x*z + s*y, t*y*z - s*x, t*z*z + c, 0},
	}
}

// Mul returns m * other, i.e. other applied first.
func (m Mat43) Mul(other Mat43) Mat43 {
	var r Mat43
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			r[row][col] = m[row][0]*other[0][col] +
				m[row][1]*other[1][col] +
				m[row][2]*other[2][col]
		}
		r[row][3] = m[row][0]*other[0][3] +
			m[row][1]*other[1][3] +
			m[row][2]*other[2][3] +
			m[row][3]
	}
	return r
}

// RigidInverse inverts a rotation plus translation: the transposed linear
// part applied after undoing the translation. It is only exact when the
// linear part is orthonormal.
func (m Mat43) RigidInverse() Mat43 {
	undo := Translate(-m[0][3], -m[1][3], -m[2][3])
	rot := Mat43{
		{m[0][0], m[1][0], m[2][0], 0},
		{m[0][1], m[1][1], m[2][1], 0},
		{m[0][2], m[1][2], m[2][2], 0},
	}
	return rot.Mul(undo)
}

// TransformPoint applies the matrix to a point.
func (m Mat43) TransformPoint(p Vec3) Vec3 {
	return Vec3{
		m[0][0]*p.X + m[0][1]*p.Y + m[0][2]*p.Z + m[0][3],
		m[1][0]*p.X + m[1][1]*p.Y + m[1][2]*p.Z + m[1][3],
		m[2][0]*p.X + m[2][1]*p.Y + m[2][2]*p.Z + m[2][3],
	}
}

// TransformDirection applies the linear part only.
func (m Mat43) TransformDirection(d Vec3) Vec3 {
	return Vec3{
		m[0][0]*d.X + m[0][1]*d.Y + m[0][2]*d.Z,
		m[1][0]*d.X + m[1][1]*d.Y + m[1][2]*d.Z,
		m[2][0]*d.X + m[2][1]*d.Y + m[2][2]*d.Z,
	}
}

// Translation returns the translation column.
func (m Mat43) Translation() Vec3 {
	return Vec3{m[0][3], m[1][3], m[2][3]}
}

// Column returns linear column i (0 right, 1 down, 2 heading).
func (m Mat43) Column(i int) Vec3 {
	return Vec3{m[0][i], m[1][i], m[2][i]}
}

// ApproxEqual reports whether every element differs by at most eps.
func (m Mat43) ApproxEqual(other Mat43, eps float64) bool {
	for r := 0; r < 3; r++ {
		for c := 0; c < 4; c++ {
			if math.Abs(m[r][c]-other[r][c]) > eps {
				return false
			}
		}
	}
	return true
}
