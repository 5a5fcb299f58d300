package mathutil

import "math"

// Sphere is a bounding sphere in world space.
type Sphere struct {
	Center Vec3
	Radius float32
}

// Transform returns the sphere transformed by the world matrix: the
// center is transformed as a point, and the radius is scaled by the
// matrix's maximum column magnitude (the conservative bound for a
// non-uniformly scaled/rotated sphere).
func (s Sphere) Transform(m Mat4) Sphere {
	return Sphere{
		Center: m.MulPoint(s.Center),
		Radius: s.Radius * m.MaxColumnScale(),
	}
}

// Plane is a plane in Ax+By+Cz+D=0 form with a unit-length normal.
type Plane struct {
	Normal Vec3
	D      float32
}

// SignedDistance returns the signed distance from p to the plane;
// positive means p is on the side the normal points toward.
func (p Plane) SignedDistance(v Vec3) float32 {
	return p.Normal.Dot(v) + p.D
}

func (p Plane) normalize() Plane {
	l := p.Normal.Length()
	if l == 0 {
		return p
	}
	inv := 1 / l
	return Plane{Normal: p.Normal.Mul(inv), D: p.D * inv}
}

// Frustum is the six planes (left, right, bottom, top, near, far) of a
// view-projection matrix, each with a unit-length normal pointing
// inward (toward the visible volume).
type Frustum struct {
	Planes [6]Plane
}

// ExtractFrustum derives the six clip planes from a combined
// view-projection matrix using the standard Gribb/Hartmann row
// extraction, then normalizes each plane.
func ExtractFrustum(viewProj Mat4) Frustum {
	m := viewProj
	row := func(i int) Vec4 {
		return Vec4{m[i][0], m[i][1], m[i][2], m[i][3]}
	}
	r0, r1, r2, r3 := row(0), row(1), row(2), row(3)

	mk := func(a Vec4) Plane {
		return Plane{Normal: Vec3{a.X, a.Y, a.Z}, D: a.W}.normalize()
	}

	left := mk(Vec4{r3.X + r0.X, r3.Y + r0.Y, r3.Z + r0.Z, r3.W + r0.W})
	right := mk(Vec4{r3.X - r0.X, r3.Y - r0.Y, r3.Z - r0.Z, r3.W - r0.W})
	bottom := mk(Vec4{r3.X + r1.X, r3.Y + r1.Y, r3.Z + r1.Z, r3.W + r1.W})
	top := mk(Vec4{r3.X - r1.X, r3.Y - r1.Y, r3.Z - r1.Z, r3.W - r1.W})
	near := mk(Vec4{r2.X, r2.Y, r2.Z, r2.W})
	far := mk(Vec4{r3.X - r2.X, r3.Y - r2.Y, r3.Z - r2.Z, r3.W - r2.W})

	return Frustum{Planes: [6]Plane{left, right, bottom, top, near, far}}
}

// ContainsSphere reports whether the sphere is at least partially
// inside every frustum plane (i.e. not fully rejected). A sphere fully
// on the negative side of any plane is outside.
func (f Frustum) ContainsSphere(s Sphere) bool {
	for _, p := range f.Planes {
		if p.SignedDistance(s.Center) < -s.Radius {
			return false
		}
	}
	return true
}

// SquircleDistance computes the power-4 Minkowski norm on the XZ plane
// used for cascade-region selection: a rounded-square iso-contour
// normalized by halfWidth. A result < 1 means the point is inside.
func SquircleDistance(dx, dz, halfWidth float32) float32 {
	if halfWidth <= 0 {
		return math.MaxFloat32
	}
	nx := float64(dx / halfWidth)
	nz := float64(dz / halfWidth)
	return float32(math.Pow(math.Pow(math.Abs(nx), 4)+math.Pow(math.Abs(nz), 4), 0.25))
}

// EncodeOctahedral maps a unit direction vector to a [0,1]^2 square
// (octahedral normal encoding), used to pack world-space normals into
// the G-buffer's lower-precision channels without a third component.
func EncodeOctahedral(n Vec3) (u, v float32) {
	absSum := float32(math.Abs(float64(n.X)) + math.Abs(float64(n.Y)) + math.Abs(float64(n.Z)))
	if absSum == 0 {
		return 0.5, 0.5
	}
	px := n.X / absSum
	py := n.Y / absSum
	if n.Z < 0 {
		ox, oy := px, py
		px = (1 - float32(math.Abs(float64(oy)))) * sign(ox)
		py = (1 - float32(math.Abs(float64(ox)))) * sign(oy)
	}
	return px*0.5 + 0.5, py*0.5 + 0.5
}

// DecodeOctahedral is the inverse of EncodeOctahedral.
func DecodeOctahedral(u, v float32) Vec3 {
	px := u*2 - 1
	py := v*2 - 1
	nz := 1 - float32(math.Abs(float64(px))) - float32(math.Abs(float64(py)))
	nx, ny := px, py
	if nz < 0 {
		nx = (1 - float32(math.Abs(float64(py)))) * sign(px)
		ny = (1 - float32(math.Abs(float64(px)))) * sign(py)
	}
	return Vec3{nx, ny, nz}.Normalize()
}

func sign(v float32) float32 {
	if v < 0 {
		return -1
	}
	return 1
}

// ProjectedPixelRadius computes the projected screen-pixel radius of a
// world-space sphere, used by the culling pass's min-pixel-size test.
func ProjectedPixelRadius(radius, distance, screenHeight, fovYRadians float32) float32 {
	if distance <= 0 {
		return math.MaxFloat32
	}
	return radius * screenHeight / (2 * distance * float32(math.Tan(float64(fovYRadians)/2)))
}
