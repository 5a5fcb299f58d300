// Package mathutil provides the vector, matrix, quaternion, and
// screen-space geometry helpers shared by culling, shadow cascade
// selection, and the lighting pass.
package mathutil

import "math"

// Vec3 is a 3-component float32 vector.
type Vec3 struct {
	X, Y, Z float32
}

var (
	Vec3Zero = Vec3{0, 0, 0}
	Vec3One  = Vec3{1, 1, 1}
	Vec3Up   = Vec3{0, 1, 0}
)

func NewVec3(x, y, z float32) Vec3 { return Vec3{X: x, Y: y, Z: z} }

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Mul(s float32) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}
func (v Vec3) Dot(o Vec3) float32 { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }
func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		X: v.Y*o.Z - v.Z*o.Y,
		Y: v.Z*o.X - v.X*o.Z,
		Z: v.X*o.Y - v.Y*o.X,
	}
}
func (v Vec3) LengthSqr() float32 { return v.X*v.X + v.Y*v.Y + v.Z*v.Z }
func (v Vec3) Length() float32    { return float32(math.Sqrt(float64(v.LengthSqr()))) }
func (v Vec3) Normalize() Vec3 {
	l := v.Length()
	if l == 0 {
		return v
	}
	return v.Mul(1 / l)
}
func (v Vec3) Distance(o Vec3) float32 { return v.Sub(o).Length() }
func (v Vec3) Lerp(o Vec3, t float32) Vec3 {
	return v.Add(o.Sub(v).Mul(t))
}
func (v Vec3) ToVec4(w float32) Vec4 { return Vec4{v.X, v.Y, v.Z, w} }

// Vec4 is a 4-component float32 vector, used for homogeneous coordinates
// and color(+alpha) quantities.
type Vec4 struct {
	X, Y, Z, W float32
}

func NewVec4(x, y, z, w float32) Vec4 { return Vec4{X: x, Y: y, Z: z, W: w} }

func (v Vec4) Add(o Vec4) Vec4 {
	return Vec4{v.X + o.X, v.Y + o.Y, v.Z + o.Z, v.W + o.W}
}
func (v Vec4) Mul(s float32) Vec4 {
	return Vec4{v.X * s, v.Y * s, v.Z * s, v.W * s}
}
func (v Vec4) Dot(o Vec4) float32 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z + v.W*o.W
}
func (v Vec4) ToVec3DivW() Vec3 {
	if v.W == 0 {
		return Vec3{v.X, v.Y, v.Z}
	}
	inv := 1 / v.W
	return Vec3{v.X * inv, v.Y * inv, v.Z * inv}
}
