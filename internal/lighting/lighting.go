// Package lighting implements the deferred lighting pass's
// CPU-computable contract: cascade selection from the squircle
// distance the shadow package's cascades define, the PCF sample
// kernels (Poisson-disk for cascades, rotated for spot slots), the
// Vogel-disk pattern shared by IBL specular, SSAO, and volumetric fog,
// and the synthetic specular-boost light directions. The PBR/GGX
// shading math itself lives in the WGSL fragment shader (an opaque
// blob per the engine's scope); this package is the host-side half of
// its data contract.
package lighting

import (
	"math"

	"github.com/bitofgold/topazcube/internal/mathutil"
	"github.com/bitofgold/topazcube/internal/shadow"
)

// Binding indices for the lighting pipeline's cascade/spot shadow
// matrix storage buffers, resolved to a single coherent mapping
// applied identically to the bind group layout and the WGSL
// contract: binding 12 is cascades, binding 13 is spot lights.
const (
	BindingCascadeMatrices = 12
	BindingSpotMatrices    = 13
)

// CascadeBlendBand is the fraction of a cascade's normalized distance
// (0.9..1.0) over which the shader blends to the next cascade.
const CascadeBlendBand = 0.9

// HalfLitBeyondCascades is the shading factor applied to a pixel beyond
// every cascade's coverage, avoiding a hard shadow edge at the far
// cascade's boundary.
const HalfLitBeyondCascades = 0.5

// CascadeSelection is the result of selecting a directional shadow
// cascade for a world-space point: the nearest cascade, and a blend
// weight toward the next cascade when inside the blend band.
type CascadeSelection struct {
	Index        int  // -1 if beyond every cascade
	NextIndex    int  // -1 if Index is the last cascade or Index is -1
	BlendToNext  float32
	Lit          float32 // shading multiplier when Index == -1 (HalfLitBeyondCascades)
}

// SelectCascade computes the squircle distance of worldXZ (relative to
// each cascade's center) against cascade half-widths and picks the
// smallest index i with distance < 1. At 0.9..1.0 of that cascade's
// distance it reports a linear blend weight toward cascade i+1;
// cascade count-1 additionally fades
// toward HalfLitBeyondCascades rather than blending to a nonexistent
// next cascade.
func SelectCascade(cascades []shadow.Cascade, worldXZCenter mathutil.Vec3, point mathutil.Vec3) CascadeSelection {
	dx := point.X - worldXZCenter.X
	dz := point.Z - worldXZCenter.Z

	for i, c := range cascades {
		halfWidth := c.Sphere.Radius / float32(math.Sqrt2)
		d := mathutil.SquircleDistance(dx, dz, halfWidth)
		if d >= 1 {
			continue
		}

		sel := CascadeSelection{Index: i, NextIndex: -1, Lit: 1}
		if d < CascadeBlendBand {
			return sel
		}

		blend := (d - CascadeBlendBand) / (1 - CascadeBlendBand)
		if i+1 < len(cascades) {
			sel.NextIndex = i + 1
			sel.BlendToNext = blend
		} else {
			// Last cascade additionally fades to half-lit near its outer
			// edge instead of blending into a cascade that doesn't exist.
			sel.Lit = 1 - blend*(1-HalfLitBeyondCascades)
		}
		return sel
	}

	return CascadeSelection{Index: -1, NextIndex: -1, Lit: HalfLitBeyondCascades}
}

// PoissonDisk8 is the fixed 8-tap Poisson-disk kernel used for
// directional-cascade PCF, rotated per-pixel by blue noise at sample
// time.
var PoissonDisk8 = [8][2]float32{
	{-0.613392, 0.617481},
	{0.170019, -0.040254},
	{-0.299417, 0.791925},
	{0.645680, 0.493210},
	{-0.651784, 0.717887},
	{0.421003, 0.027070},
	{-0.817194, -0.271096},
	{0.977050, -0.108615},
}

// RotateSample2D rotates a kernel sample by an angle (radians), the
// operation the shader performs with a per-pixel blue-noise-derived
// angle to break up PCF banding.
func RotateSample2D(sample [2]float32, angle float32) (x, y float32) {
	s, c := float32(math.Sin(float64(angle))), float32(math.Cos(float64(angle)))
	return sample[0]*c - sample[1]*s, sample[0]*s + sample[1]*c
}

// VogelDisk generates n points of a Vogel spiral disk sampling pattern
// (used by IBL specular, SSGI resolve, SSAO, and volumetric fog — one
// generator shared by every consumer rather than independently
// hand-tuned ones).
func VogelDisk(n int) [][2]float32 {
	const goldenAngle = 2.399963229728653 // radians
	out := make([][2]float32, n)
	for i := 0; i < n; i++ {
		r := float32(math.Sqrt((float64(i) + 0.5) / float64(n)))
		theta := float64(i) * goldenAngle
		out[i] = [2]float32{r * float32(math.Cos(theta)), r * float32(math.Sin(theta))}
	}
	return out
}

// IBLSampleCount selects the IBL specular sample count: a single tap
// for near-mirror roughness, otherwise a 4-sample Vogel disk.
func IBLSampleCount(roughness float32) int {
	if roughness < 0.1 {
		return 1
	}
	return 4
}

// IBLConeAngle computes the specular IBL sampling cone half-angle:
// roughness^2 scaled by maxAngle.
func IBLConeAngle(roughness, maxAngle float32) float32 {
	return roughness * roughness * maxAngle
}

// SpecularBoostDirections returns the three synthetic light directions
// (30/150/270 degree yaw, 30 degree elevation) the optional specular
// boost adds to simulate extra highlights without extra real lights or
// shadows.
func SpecularBoostDirections() [3]mathutil.Vec3 {
	const elevation = 30 * math.Pi / 180
	yaws := [3]float32{30 * math.Pi / 180, 150 * math.Pi / 180, 270 * math.Pi / 180}
	var out [3]mathutil.Vec3
	cosEl := float32(math.Cos(elevation))
	sinEl := float32(math.Sin(elevation))
	for i, yaw := range yaws {
		out[i] = mathutil.Vec3{
			X: cosEl * float32(math.Cos(float64(yaw))),
			Y: sinEl,
			Z: cosEl * float32(math.Sin(float64(yaw))),
		}
	}
	return out
}

// SpotConeAttenuation computes the smoothstep cone falloff between the
// outer and inner cone cosines for a fragment at cosAngle from the
// spot's axis.
func SpotConeAttenuation(cosAngle, innerCos, outerCos float32) float32 {
	if outerCos >= innerCos {
		if cosAngle >= innerCos {
			return 1
		}
		return 0
	}
	t := (cosAngle - outerCos) / (innerCos - outerCos)
	if t <= 0 {
		return 0
	}
	if t >= 1 {
		return 1
	}
	return t * t * (3 - 2*t)
}

// RadiusAttenuation computes inverse-square-style falloff clamped to
// zero beyond radius, the point/spot light distance attenuation term.
func RadiusAttenuation(distance, radius float32) float32 {
	if radius <= 0 {
		return 0
	}
	ratio := distance / radius
	if ratio >= 1 {
		return 0
	}
	falloff := 1 - ratio*ratio
	return falloff * falloff / (1 + distance*distance)
}
