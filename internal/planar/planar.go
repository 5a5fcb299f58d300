// Package planar builds the mirrored camera and clip-plane parameters
// the planar reflection pass renders with: a scene reflected below a
// world-Y plane, reusing the same G-buffer/culling/lighting pipeline
// the main view runs, and read back by the lighting composite as a
// texture.
package planar

import "github.com/bitofgold/topazcube/internal/mathutil"

// ReflectionMatrix builds the Householder reflection matrix across a
// horizontal world-Y plane at height planeY: reflects Y, leaves X/Z
// unchanged, and carries the translation term needed for an
// affine (not purely linear) reflection about a plane not through the
// origin.
func ReflectionMatrix(planeY float32) mathutil.Mat4 {
	m := mathutil.Mat4Identity()
	m[1][1] = -1
	m[1][3] = 2 * planeY
	return m
}

// ReflectCamera mirrors a camera's position and view direction across
// planeY, returning the eye/target/up triple Mat4LookAt needs to build
// the reflected view matrix. The projection matrix is reused unchanged
// (reflection doesn't change FOV/aspect/near/far).
func ReflectCamera(eye, target, up mathutil.Vec3, planeY float32) (reflectedEye, reflectedTarget, reflectedUp mathutil.Vec3) {
	reflect := func(v mathutil.Vec3) mathutil.Vec3 {
		return mathutil.Vec3{X: v.X, Y: 2*planeY - v.Y, Z: v.Z}
	}
	reflectedEye = reflect(eye)
	reflectedTarget = reflect(target)
	// Up flips its Y component like any other reflected direction vector
	// (no translation term applies to a direction).
	reflectedUp = mathutil.Vec3{X: up.X, Y: -up.Y, Z: up.Z}
	return
}

// ClipPlaneDirection is the gbuffer clip-plane direction the reflected
// pass renders with: only geometry above the plane (the real,
// above-water world) should appear in the mirrored render, so the
// reflected draw clips anything below planeY.
const ClipPlaneDirection = float32(1)

// DistanceFade computes the planar reflection composite's fade factor
// from a fragment's world-space Y (read from the G-buffer normal
// target's w channel): reflections fade out far from the plane so
// the effect doesn't read as a hard-edged mirror cutoff.
func DistanceFade(worldY, planeY, fadeDistance float32) float32 {
	if fadeDistance <= 0 {
		return 1
	}
	d := worldY - planeY
	if d < 0 {
		d = -d
	}
	if d >= fadeDistance {
		return 0
	}
	return 1 - d/fadeDistance
}
