// Package gbuffer describes the geometry pass's data contract: the
// four color attachments plus linear-depth and velocity targets,
// the per-draw camera uniform the vertex/fragment WGSL entry points
// read, and the CPU-computable pieces of that contract (billboard
// reconstruction, TAA jitter sequence, pixel rounding, distance fade,
// alpha-hash threshold) that this package's tests can verify without a
// GPU. The fragment/vertex shader bodies themselves are opaque WGSL
// blobs; this package is the host-side half of their binding contract.
package gbuffer

import (
	"math"

	"github.com/bitofgold/topazcube/internal/mathutil"
)

// BillboardMode selects how the vertex stage reconstructs a draw's
// world position from its instance transform.
type BillboardMode int

const (
	// BillboardNone draws the mesh with its model matrix unchanged.
	BillboardNone BillboardMode = iota
	// BillboardCenter faces the camera about the entity's center
	// (spherical billboard).
	BillboardCenter
	// BillboardBottom pivots at the entity's anchor, facing the camera
	// only around the up axis.
	BillboardBottom
	// BillboardHorizontal lies flat on the XZ plane; the model matrix is
	// used unchanged, same as BillboardNone, but the fragment stage
	// treats the quad as ground-aligned for distance-fade purposes.
	BillboardHorizontal
)

// Attachment describes one G-buffer color target's role, format, and
// channel packing.
type Attachment struct {
	Name   string
	Format string // descriptive, not a gputypes enum — resolved by the render graph's pipeline layer
	Usage  string
}

// Attachments lists the five G-buffer targets in the fixed binding
// order every consuming pass (lighting, SSGI, SSAO, planar, volumetric,
// particles) agrees on.
var Attachments = [5]Attachment{
	{Name: "albedo", Format: "rgba8unorm-srgb", Usage: "rgb: base color, a: base alpha"},
	{Name: "normal", Format: "rgba16float", Usage: "xyz: world normal, w: world-space Y"},
	{Name: "arm", Format: "rgba8unorm", Usage: "r: material AO, g: roughness, b: metallic, a: specular boost"},
	{Name: "emission", Format: "rgba16float", Usage: "rgb: emissive * factor"},
	{Name: "velocity", Format: "rg16float", Usage: "screen-pixel motion (current NDC - previous NDC) * screenSize/2"},
}

// LinearDepthFormat is the separate full-resolution depth target's
// format: frag_depth = (viewZ - near) / (far - near).
const LinearDepthFormat = "r32float"

// CameraUniform is the per-draw uniform block the G-buffer pipeline's
// vertex and fragment stages read.
type CameraUniform struct {
	View         mathutil.Mat4
	Proj         mathutil.Mat4
	PrevViewProj mathutil.Mat4
	Near, Far    float32
	JitterX      float32
	JitterY      float32
	ScreenWidth  float32
	ScreenHeight float32
	EmissionFactor float32

	// Clip plane (planar reflection discard).
	ClipPlaneEnabled   bool
	ClipPlaneY         float32
	ClipPlaneDirection float32 // +1 keeps world.Y >= ClipPlaneY, -1 keeps world.Y <= ClipPlaneY

	// Pixel rounding.
	PixelRoundingEnabled bool

	// Alpha hashing.
	AlphaHashEnabled bool
	AlphaHashScale   float32

	// Distance fade.
	DistanceFadeStart float32
	DistanceFadeEnd   float32

	// Billboard basis (camera right/up in world space), used by modes 1/2.
	CameraRight mathutil.Vec3
	CameraUp    mathutil.Vec3

	SpecularBoost float32
}

// LinearDepth computes frag_depth = (viewZ - near) / (far - near). When
// near == far (a degenerate camera) it returns 0 for every fragment
// rather than dividing by zero.
func LinearDepth(viewZ, near, far float32) float32 {
	if far == near {
		return 0
	}
	return (viewZ - near) / (far - near)
}

// Velocity computes the G-buffer's screen-pixel motion vector from a
// fragment's current and previous NDC position.
func Velocity(currentNDC, previousNDC mathutil.Vec3, screenWidth, screenHeight float32) (vx, vy float32) {
	vx = (currentNDC.X - previousNDC.X) * screenWidth / 2
	vy = (currentNDC.Y - previousNDC.Y) * screenHeight / 2
	return
}

// HaltonJitter generates the nth (1-indexed) TAA sub-pixel jitter
// offset in [-0.5, 0.5]^2 using a base-2/base-3 Halton sequence, the
// standard low-discrepancy sequence for temporal jitter.
func HaltonJitter(n int) (x, y float32) {
	return haltonSequence(n, 2) - 0.5, haltonSequence(n, 3) - 0.5
}

func haltonSequence(index, base int) float32 {
	f := float32(1)
	r := float32(0)
	for index > 0 {
		f /= float32(base)
		r += f * float32(index%base)
		index /= base
	}
	return r
}

// JitterFade scales the TAA jitter offset by a distance-based fade so
// near geometry jitters (feeding temporal accumulation) while distant
// geometry does not, avoiding shimmer on stable far-field silhouettes.
// Fade is 1 at dist <= fadeStart and 0 at dist >= fadeEnd.
func JitterFade(dist, fadeStart, fadeEnd float32) float32 {
	if fadeEnd <= fadeStart {
		return 1
	}
	if dist <= fadeStart {
		return 1
	}
	if dist >= fadeEnd {
		return 0
	}
	return 1 - (dist-fadeStart)/(fadeEnd-fadeStart)
}

// RoundPixel snaps an NDC-space coordinate to the nearest pixel center,
// then applies a small sub-pixel outward expansion so adjacent
// triangles overlap rather than leaving gaps. expansion is in pixels
// (typically ~0.5).
func RoundPixel(ndc, screenPixels, expansion float32) float32 {
	px := (ndc*0.5 + 0.5) * screenPixels
	snapped := float32(math.Round(float64(px)))
	if snapped < px {
		snapped -= expansion
	} else if snapped > px {
		snapped += expansion
	}
	return (snapped/screenPixels - 0.5) * 2
}

// ClipPlaneDiscard reports whether a fragment at worldY should be
// discarded by the planar-reflection clip plane: discard when the
// fragment is on the wrong side for direction (+1 or -1).
func ClipPlaneDiscard(worldY, planeY, direction float32) bool {
	if direction >= 0 {
		return worldY < planeY
	}
	return worldY > planeY
}

// LuminanceAlphaDiscard reports whether a fragment should be discarded
// under the legacy "black = transparent" convention: pure-black pixels
// (luminance below the threshold) with no dithering.
func LuminanceAlphaDiscard(color mathutil.Vec3) bool {
	const threshold = 0.004
	return Luminance(color) < threshold
}

// Luminance computes Rec. 709 relative luminance.
func Luminance(c mathutil.Vec3) float32 {
	return 0.2126*c.X + 0.7152*c.Y + 0.0722*c.Z
}

// AlphaHashDiscard evaluates the alpha-hash test: hard-discards below
// 0.5 after scaling, otherwise remaps [0.5,1] and compares against a
// per-pixel noise sample for a soft dithered edge.
func AlphaHashDiscard(alpha, alphaHashScale, noiseSample float32) bool {
	scaled := alpha * alphaHashScale
	if scaled < 0.5 {
		return true
	}
	remapped := (scaled - 0.5) * 2
	return remapped < noiseSample
}

// DistanceFadeDiscard reports whether a fragment past distanceFadeStart
// should be discarded (dithered dissolve), comparing a noise sample
// against the fade factor from gbuffer.CameraUniform's fade bounds.
func DistanceFadeDiscard(dist, fadeStart, fadeEnd, noiseSample float32) bool {
	if dist < fadeStart {
		return false
	}
	fade := float32(1)
	if fadeEnd > fadeStart {
		fade = 1 - (dist-fadeStart)/(fadeEnd-fadeStart)
	}
	if fade < 0 {
		fade = 0
	}
	return fade < noiseSample
}

// ReconstructBillboard computes the world position of a billboard
// vertex for BillboardCenter/BillboardBottom modes: the entity's anchor
// plus the local quad coordinate scaled along the camera's basis
// vectors. BillboardBottom pins the up axis to world-up instead of the
// camera's up vector so the quad only rotates around Y.
func ReconstructBillboard(mode BillboardMode, anchor mathutil.Vec3, localXY mathutil.Vec4, cameraRight, cameraUp mathutil.Vec3) mathutil.Vec3 {
	up := cameraUp
	if mode == BillboardBottom {
		up = mathutil.Vec3{Y: 1}
	}
	offset := cameraRight.Mul(localXY.X).Add(up.Mul(localXY.Y))
	return anchor.Add(offset)
}

// PreviousWorldRigid returns the previous-frame world position for a
// rigid (non-skinned) entity: the current instance matrix applied to
// the local position, since per-object motion history isn't tracked
// yet (see SPEC_FULL.md for the reasoning behind this choice). Moving
// rigid geometry under-rejects in motion-vector-based temporal effects
// until a previous-transform slot is added.
func PreviousWorldRigid(model mathutil.Mat4, local mathutil.Vec3) mathutil.Vec3 {
	return model.MulPoint(local)
}
