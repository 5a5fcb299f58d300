package mathutil

import "math"

// Quaternion is a unit rotation quaternion (x,y,z,w).
type Quaternion struct {
	X, Y, Z, W float32
}

func QuaternionIdentity() Quaternion { return Quaternion{0, 0, 0, 1} }

func QuaternionFromAxisAngle(axis Vec3, angle float32) Quaternion {
	half := angle / 2
	s := float32(math.Sin(float64(half)))
	c := float32(math.Cos(float64(half)))
	axis = axis.Normalize()
	return Quaternion{X: axis.X * s, Y: axis.Y * s, Z: axis.Z * s, W: c}
}

func (q Quaternion) Mul(o Quaternion) Quaternion {
	return Quaternion{
		X: q.W*o.X + q.X*o.W + q.Y*o.Z - q.Z*o.Y,
		Y: q.W*o.Y - q.X*o.Z + q.Y*o.W + q.Z*o.X,
		Z: q.W*o.Z + q.X*o.Y - q.Y*o.X + q.Z*o.W,
		W: q.W*o.W - q.X*o.X - q.Y*o.Y - q.Z*o.Z,
	}
}

func (q Quaternion) Normalize() Quaternion {
	l := float32(math.Sqrt(float64(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)))
	if l == 0 {
		return q
	}
	inv := 1 / l
	return Quaternion{q.X * inv, q.Y * inv, q.Z * inv, q.W * inv}
}

func (q Quaternion) RotateVector(v Vec3) Vec3 {
	qv := Vec3{q.X, q.Y, q.Z}
	t := qv.Cross(v).Mul(2)
	return v.Add(t.Mul(q.W)).Add(qv.Cross(t))
}

// ToMat4 produces a row-major rotation matrix with translation-free
// homogeneous row/column.
func (q Quaternion) ToMat4() Mat4 {
	xx, yy, zz := q.X*q.X, q.Y*q.Y, q.Z*q.Z
	xy, xz, yz := q.X*q.Y, q.X*q.Z, q.Y*q.Z
	wx, wy, wz := q.W*q.X, q.W*q.Y, q.W*q.Z

	return Mat4{
		{1 - 2*(yy+zz), 2 * (xy - wz), 2 * (xz + wy), 0},
		{2 * (xy + wz), 1 - 2*(xx+zz), 2 * (yz - wx), 0},
		{2 * (xz - wy), 2 * (yz + wx), 1 - 2*(xx+yy), 0},
		{0, 0, 0, 1},
	}
}

func (q Quaternion) Slerp(o Quaternion, t float32) Quaternion {
	dot := q.X*o.X + q.Y*o.Y + q.Z*o.Z + q.W*o.W
	if dot < 0 {
		dot = -dot
		o = Quaternion{-o.X, -o.Y, -o.Z, -o.W}
	}
	if dot > 0.9995 {
		return Quaternion{
			X: q.X + (o.X-q.X)*t,
			Y: q.Y + (o.Y-q.Y)*t,
			Z: q.Z + (o.Z-q.Z)*t,
			W: q.W + (o.W-q.W)*t,
		}.Normalize()
	}

	theta0 := math.Acos(float64(dot))
	theta := theta0 * float64(t)
	sinTheta := math.Sin(theta)
	sinTheta0 := math.Sin(theta0)

	s0 := float32(math.Cos(theta) - float64(dot)*sinTheta/sinTheta0)
	s1 := float32(sinTheta / sinTheta0)

	return Quaternion{
		X: q.X*s0 + o.X*s1,
		Y: q.Y*s0 + o.Y*s1,
		Z: q.Z*s0 + o.Z*s1,
		W: q.W*s0 + o.W*s1,
	}
}
