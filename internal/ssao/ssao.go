// Package ssao implements screen-space ambient occlusion: a
// Poisson-disk depth-only sampling kernel and the per-pixel occlusion
// accumulation, written into a single-channel AO texture the lighting
// pass multiplies into ambient/IBL diffuse and specular.
package ssao

import (
	"math"

	"github.com/bitofgold/topazcube/internal/mathutil"
)

// KernelSize is the default number of Poisson-disk samples per pixel.
const KernelSize = 16

// PoissonKernel generates n samples on a unit disk using a Vogel
// spiral, the deterministic stand-in for a precomputed Poisson-disk
// table: evenly distributed, no clustering, and reproducible across
// runs (unlike a random Poisson-disk generator), which matters for the
// round-trip property that re-running the same frame twice must
// produce identical output.
func PoissonKernel(n int) [][3]float32 {
	const goldenAngle = 2.399963229728653
	out := make([][3]float32, n)
	for i := 0; i < n; i++ {
		r := float32(math.Sqrt((float64(i) + 0.5) / float64(n)))
		theta := float64(i) * goldenAngle
		// z jitters the sample's bias toward the hemisphere's center,
		// avoiding a perfectly flat disk that would only test the
		// tangent plane.
		z := float32(0.3 + 0.7*(float64(i)/float64(n)))
		out[i] = [3]float32{r * float32(math.Cos(theta)), r * float32(math.Sin(theta)), z}
	}
	return out
}

// Sample computes one occlusion sample: given a fragment's view-space
// depth and the depth buffer's view-space depth at the sample's
// projected position, returns the occlusion contribution (0 = no occlusion, 1 = fully
// occluded) with a range check that rejects samples whose depth
// difference exceeds radius (avoiding the "halo" artifact where a
// distant background wrongly occludes a nearby edge).
func Sample(fragViewZ, sampleViewZ, radius, power float32) float32 {
	if sampleViewZ <= fragViewZ {
		return 0 // sample is behind the fragment: not occluding
	}
	diff := sampleViewZ - fragViewZ
	if diff > radius {
		return 0 // range check: too far apart to plausibly occlude
	}
	rangeCheck := 1 - diff/radius
	return float32(math.Pow(float64(rangeCheck), float64(power)))
}

// Accumulate averages a kernel's occlusion contributions into a single
// [0,1] AO factor (1 = fully visible, matching the G-buffer's `arm.r`
// material-AO convention so the lighting pass can simply multiply the
// two together).
func Accumulate(occlusionSum float32, kernelSize int) float32 {
	if kernelSize <= 0 {
		return 1
	}
	ao := 1 - occlusionSum/float32(kernelSize)
	if ao < 0 {
		return 0
	}
	if ao > 1 {
		return 1
	}
	return ao
}

// TangentSpaceSample rotates a kernel sample into the fragment's
// tangent space (built from its normal and a per-pixel rotation vector
// from the shared noise texture) and scales it by radius, producing the
// view-space sample offset Sample's caller projects and compares
// against the depth buffer.
func TangentSpaceSample(sample [3]float32, normal, randomTangent mathutil.Vec3, radius float32) mathutil.Vec3 {
	t := randomTangent.Sub(normal.Mul(randomTangent.Dot(normal))).Normalize()
	if t.LengthSqr() == 0 {
		t = mathutil.Vec3{X: 1}
	}
	b := normal.Cross(t)

	offset := t.Mul(sample[0]).Add(b.Mul(sample[1])).Add(normal.Mul(sample[2]))
	return offset.Mul(radius)
}
