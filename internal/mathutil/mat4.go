package mathutil

import "math"

// Mat4 is a row-major 4x4 float32 matrix.
type Mat4 [4][4]float32

func Mat4Identity() Mat4 {
	return Mat4{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
	}
}

func mat4Zero() Mat4 {
	return Mat4{}
}

func (m Mat4) Mul(o Mat4) Mat4 {
	r := mat4Zero()
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			for k := 0; k < 4; k++ {
				r[i][j] += m[i][k] * o[k][j]
			}
		}
	}
	return r
}

func (m Mat4) MulVec4(v Vec4) Vec4 {
	return Vec4{
		X: m[0][0]*v.X + m[0][1]*v.Y + m[0][2]*v.Z + m[0][3]*v.W,
		Y: m[1][0]*v.X + m[1][1]*v.Y + m[1][2]*v.Z + m[1][3]*v.W,
		Z: m[2][0]*v.X + m[2][1]*v.Y + m[2][2]*v.Z + m[2][3]*v.W,
		W: m[3][0]*v.X + m[3][1]*v.Y + m[3][2]*v.Z + m[3][3]*v.W,
	}
}

func (m Mat4) MulPoint(v Vec3) Vec3 {
	return m.MulVec4(v.ToVec4(1)).ToVec3DivW()
}

func (m Mat4) Transpose() Mat4 {
	var r Mat4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			r[i][j] = m[j][i]
		}
	}
	return r
}

// ColumnMajor flattens m into the column-major float32 layout WGSL's
// mat4x4 expects on the wire: consecutive groups of 4 are columns, not
// rows.
func (m Mat4) ColumnMajor() [16]float32 {
	var out [16]float32
	idx := 0
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			out[idx] = m[row][col]
			idx++
		}
	}
	return out
}

func Mat4Translation(t Vec3) Mat4 {
	m := Mat4Identity()
	m[0][3] = t.X
	m[1][3] = t.Y
	m[2][3] = t.Z
	return m
}

func Mat4Scale(s Vec3) Mat4 {
	m := Mat4Identity()
	m[0][0] = s.X
	m[1][1] = s.Y
	m[2][2] = s.Z
	return m
}

// Mat4TRS composes translation * rotation * scale, the model matrix layout
// entities are built from.
func Mat4TRS(translation Vec3, rotation Quaternion, scale Vec3) Mat4 {
	return Mat4Translation(translation).Mul(rotation.ToMat4()).Mul(Mat4Scale(scale))
}

// Mat4Perspective builds a right-handed perspective projection with
// fovY in radians.
func Mat4Perspective(fovY, aspect, near, far float32) Mat4 {
	f := float32(1 / math.Tan(float64(fovY)/2))
	m := mat4Zero()
	m[0][0] = f / aspect
	m[1][1] = f
	m[2][2] = (far + near) / (near - far)
	m[2][3] = (2 * far * near) / (near - far)
	m[3][2] = -1
	return m
}

// Mat4Orthographic builds a right-handed orthographic projection.
func Mat4Orthographic(left, right, bottom, top, near, far float32) Mat4 {
	m := Mat4Identity()
	m[0][0] = 2 / (right - left)
	m[1][1] = 2 / (top - bottom)
	m[2][2] = -2 / (far - near)
	m[0][3] = -(right + left) / (right - left)
	m[1][3] = -(top + bottom) / (top - bottom)
	m[2][3] = -(far + near) / (far - near)
	return m
}

func Mat4LookAt(eye, target, up Vec3) Mat4 {
	zAxis := eye.Sub(target).Normalize()
	xAxis := up.Cross(zAxis).Normalize()
	yAxis := zAxis.Cross(xAxis)

	return Mat4{
		{xAxis.X, xAxis.Y, xAxis.Z, -xAxis.Dot(eye)},
		{yAxis.X, yAxis.Y, yAxis.Z, -yAxis.Dot(eye)},
		{zAxis.X, zAxis.Y, zAxis.Z, -zAxis.Dot(eye)},
		{0, 0, 0, 1},
	}
}

// ColumnScale returns the Euclidean length of column i (0..2) of the
// upper-left 3x3: how much the matrix scales a unit vector along that
// basis axis. Used to scale a local bounding-sphere radius by a world
// matrix's maximum axis scale.
func (m Mat4) ColumnScale(i int) float32 {
	x, y, z := m[0][i], m[1][i], m[2][i]
	return float32(math.Sqrt(float64(x*x + y*y + z*z)))
}

// MaxColumnScale returns the largest of the three column scales, the
// conservative scale factor for a sphere radius under this transform.
func (m Mat4) MaxColumnScale() float32 {
	s := m.ColumnScale(0)
	if v := m.ColumnScale(1); v > s {
		s = v
	}
	if v := m.ColumnScale(2); v > s {
		s = v
	}
	return s
}

func (m Mat4) Inverse() Mat4 {
	a := m
	var inv Mat4

	inv[0][0] = a[1][1]*a[2][2]*a[3][3] - a[1][1]*a[2][3]*a[3][2] - a[2][1]*a[1][2]*a[3][3] + a[2][1]*a[1][3]*a[3][2] + a[3][1]*a[1][2]*a[2][3] - a[3][1]*a[1][3]*a[2][2]
	inv[1][0] = -a[1][0]*a[2][2]*a[3][3] + a[1][0]*a[2][3]*a[3][2] + a[2][0]*a[1][2]*a[3][3] - a[2][0]*a[1][3]*a[3][2] - a[3][0]*a[1][2]*a[2][3] + a[3][0]*a[1][3]*a[2][2]
	inv[2][0] = a[1][0]*a[2][1]*a[3][3] - a[1][0]*a[2][3]*a[3][1] - a[2][0]*a[1][1]*a[3][3] + a[2][0]*a[1][3]*a[3][1] + a[3][0]*a[1][1]*a[2][3] - a[3][0]*a[1][3]*a[2][1]
	inv[3][0] = -a[1][0]*a[2][1]*a[3][2] + a[1][0]*a[2][2]*a[3][1] + a[2][0]*a[1][1]*a[3][2] - a[2][0]*a[1][2]*a[3][1] - a[3][0]*a[1][1]*a[2][2] + a[3][0]*a[1][2]*a[2][1]

	det := a[0][0]*inv[0][0] + a[0][1]*inv[1][0] + a[0][2]*inv[2][0] + a[0][3]*inv[3][0]
	if det == 0 {
		return Mat4Identity()
	}

	// Remaining cofactors, transposed into row-major inverse.
	inv[0][1] = -a[0][1]*a[2][2]*a[3][3] + a[0][1]*a[2][3]*a[3][2] + a[2][1]*a[0][2]*a[3][3] - a[2][1]*a[0][3]*a[3][2] - a[3][1]*a[0][2]*a[2][3] + a[3][1]*a[0][3]*a[2][2]
	inv[1][1] = a[0][0]*a[2][2]*a[3][3] - a[0][0]*a[2][3]*a[3][2] - a[2][0]*a[0][2]*a[3][3] + a[2][0]*a[0][3]*a[3][2] + a[3][0]*a[0][2]*a[2][3] - a[3][0]*a[0][3]*a[2][2]
	inv[2][1] = -a[0][0]*a[2][1]*a[3][3] + a[0][0]*a[2][3]*a[3][1] + a[2][0]*a[0][1]*a[3][3] - a[2][0]*a[0][3]*a[3][1] - a[3][0]*a[0][1]*a[2][3] + a[3][0]*a[0][3]*a[2][1]
	inv[3][1] = a[0][0]*a[2][1]*a[3][2] - a[0][0]*a[2][2]*a[3][1] - a[2][0]*a[0][1]*a[3][2] + a[2][0]*a[0][2]*a[3][1] + a[3][0]*a[0][1]*a[2][2] - a[3][0]*a[0][2]*a[2][1]

	inv[0][2] = a[0][1]*a[1][2]*a[3][3] - a[0][1]*a[1][3]*a[3][2] - a[1][1]*a[0][2]*a[3][3] + a[1][1]*a[0][3]*a[3][2] + a[3][1]*a[0][2]*a[1][3] - a[3][1]*a[0][3]*a[1][2]
	inv[1][2] = -a[0][0]*a[1][2]*a[3][3] + a[0][0]*a[1][3]*a[3][2] + a[1][0]*a[0][2]*a[3][3] - a[1][0]*a[0][3]*a[3][2] - a[3][0]*a[0][2]*a[1][3] + a[3][0]*a[0][3]*a[1][2]
	inv[2][2] = a[0][0]*a[1][1]*a[3][3] - a[0][0]*a[1][3]*a[3][1] - a[1][0]*a[0][1]*a[3][3] + a[1][0]*a[0][3]*a[3][1] + a[3][0]*a[0][1]*a[1][3] - a[3][0]*a[0][3]*a[1][1]
	inv[3][2] = -a[0][0]*a[1][1]*a[3][2] + a[0][0]*a[1][2]*a[3][1] + a[1][0]*a[0][1]*a[3][2] - a[1][0]*a[0][2]*a[3][1] - a[3][0]*a[0][1]*a[1][2] + a[3][0]*a[0][2]*a[1][1]

	inv[0][3] = -a[0][1]*a[1][2]*a[2][3] + a[0][1]*a[1][3]*a[2][2] + a[1][1]*a[0][2]*a[2][3] - a[1][1]*a[0][3]*a[2][2] - a[2][1]*a[0][2]*a[1][3] + a[2][1]*a[0][3]*a[1][2]
	inv[1][3] = a[0][0]*a[1][2]*a[2][3] - a[0][0]*a[1][3]*a[2][2] - a[1][0]*a[0][2]*a[2][3] + a[1][0]*a[0][3]*a[2][2] + a[2][0]*a[0][2]*a[1][3] - a[2][0]*a[0][3]*a[1][2]
	inv[2][3] = -a[0][0]*a[1][1]*a[2][3] + a[0][0]*a[1][3]*a[2][1] + a[1][0]*a[0][1]*a[2][3] - a[1][0]*a[0][3]*a[2][1] - a[2][0]*a[0][1]*a[1][3] + a[2][0]*a[0][3]*a[1][1]
	inv[3][3] = a[0][0]*a[1][1]*a[2][2] - a[0][0]*a[1][2]*a[2][1] - a[1][0]*a[0][1]*a[2][2] + a[1][0]*a[0][2]*a[2][1] + a[2][0]*a[0][1]*a[1][2] - a[2][0]*a[0][2]*a[1][1]

	invDet := 1 / det
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			inv[i][j] *= invDet
		}
	}
	return inv
}
