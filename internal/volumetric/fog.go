// Package volumetric implements the ray-marched volumetric fog pass's
// CPU-testable contract: the camera-ray/Y-slab clip, the Henyey-
// Greenstein phase function for main-light scattering, the per-step
// density and alpha accumulation, and the luminance-based composite
// visibility attenuation.
package volumetric

import "math"

// PhaseG is the Henyey-Greenstein asymmetry parameter for main-light
// (forward) scattering.
const PhaseG = 0.6

// PhaseFloor is the lower bound HenyeyGreenstein clamps its result to,
// so backscatter never goes fully dark.
const PhaseFloor = 0.4

// HenyeyGreenstein evaluates the phase function for a given cosine of
// the angle between the view ray and the light direction, clamped from
// below at PhaseFloor so the result never drops below it.
func HenyeyGreenstein(cosTheta, g float32) float32 {
	g2 := g * g
	denom := float32(math.Pow(float64(1+g2-2*g*cosTheta), 1.5))
	if denom == 0 {
		return 1
	}
	hg := (1 - g2) / (4 * math.Pi * denom)
	if hg < PhaseFloor {
		return PhaseFloor
	}
	return hg
}

// IsotropicPhase is the phase function used for point/spot light
// scattering contributions (uniform in all directions).
const IsotropicPhase = 1 / (4 * math.Pi)

// StepSizeRange clamps a ray-march step size to a fixed range,
// applied after jittering by a screen-space hash.
const (
	MinStepSize = 0.25
	MaxStepSize = 2.0
)

// ClampStep clamps a step size to [MinStepSize, MaxStepSize].
func ClampStep(step float32) float32 {
	if step < MinStepSize {
		return MinStepSize
	}
	if step > MaxStepSize {
		return MaxStepSize
	}
	return step
}

// SlabIntersect clips a camera ray (origin + t*dir) to the world-Y slab
// [bottomY, topY], returning the entry/exit t values and whether the
// ray intersects the slab at all within [0, maxT].
func SlabIntersect(originY, dirY, bottomY, topY, maxT float32) (tEnter, tExit float32, ok bool) {
	if dirY == 0 {
		if originY < bottomY || originY > topY {
			return 0, 0, false
		}
		return 0, maxT, true
	}

	t1 := (bottomY - originY) / dirY
	t2 := (topY - originY) / dirY
	if t1 > t2 {
		t1, t2 = t2, t1
	}
	tEnter = t1
	if tEnter < 0 {
		tEnter = 0
	}
	tExit = t2
	if tExit > maxT {
		tExit = maxT
	}
	if tEnter >= tExit {
		return 0, 0, false
	}
	return tEnter, tExit, true
}

// HeightDensity computes the fog density contribution from a sample's
// world-Y position within the slab: 1 at bottomY, falling to 0 at
// topY (linear falloff), a factor the combined fbm noise value is
// then multiplied by.
func HeightDensity(y, bottomY, topY float32) float32 {
	if topY <= bottomY {
		return 0
	}
	if y <= bottomY {
		return 1
	}
	if y >= topY {
		return 0
	}
	return 1 - (y-bottomY)/(topY-bottomY)
}

// MaxAlphaPerSample is the per-sample alpha-accumulation clamp that
// avoids saturating the fog's opacity too close to the camera.
const MaxAlphaPerSample = 0.03

// AccumulateAlpha adds one sample's density-scaled contribution to the
// running transmittance-style alpha accumulator, clamping the
// per-sample delta and the total to 1.
func AccumulateAlpha(current, density, stepSize float32) float32 {
	delta := density * stepSize
	if delta > MaxAlphaPerSample {
		delta = MaxAlphaPerSample
	}
	out := current + delta*(1-current)
	if out > 1 {
		return 1
	}
	return out
}

// CompositeVisibility attenuates the fog's contribution in bright/sky
// regions: visibility drops from 1 toward minVisibility as scene
// luminance exceeds brightnessThreshold, and is further multiplied down
// for sky pixels (depth >= far) by skyBrightness.
func CompositeVisibility(sceneLuminance, minVisibility, brightnessThreshold, skyBrightness float32, isSky bool) float32 {
	visibility := float32(1)
	if sceneLuminance > brightnessThreshold {
		excess := sceneLuminance - brightnessThreshold
		visibility = 1 - excess
		if visibility < minVisibility {
			visibility = minVisibility
		}
	}
	if isSky {
		visibility *= skyBrightness
	}
	return visibility
}
