// Package post implements the final post-processing chain's
// CPU-testable math: ACES filmic tonemapping, ordered (Bayer) dithering
// to hide 8-bit banding, the FXAA edge-detection contrast contract, and
// the CRT pass's barrel distortion, scanline, aperture-grille mask,
// RGB channel convergence offset, and vignette terms.
package post

import "math"

// acesInputMatrix and acesOutputMatrix are the standard ACES fitted
// tonemap transform's color matrices (Stephen Hill's fit), applied
// before and after the RRT+ODT curve fit.
var acesInputMatrix = [3][3]float32{
	{0.59719, 0.35458, 0.04823},
	{0.07600, 0.90834, 0.01566},
	{0.02840, 0.13383, 0.83777},
}

var acesOutputMatrix = [3][3]float32{
	{1.60475, -0.53108, -0.07367},
	{-0.10208, 1.10813, -0.00605},
	{-0.00327, -0.07276, 1.07602},
}

func mulMat3(m [3][3]float32, v [3]float32) [3]float32 {
	return [3]float32{
		m[0][0]*v[0] + m[0][1]*v[1] + m[0][2]*v[2],
		m[1][0]*v[0] + m[1][1]*v[1] + m[1][2]*v[2],
		m[2][0]*v[0] + m[2][1]*v[1] + m[2][2]*v[2],
	}
}

func rttOdt(v float32) float32 {
	a := v * (v + 0.0245786) - 0.000090537
	b := v*(0.983729*v+0.4329510) + 0.238081
	return a / b
}

// ACESFilmic tonemaps an HDR linear color to display-referred [0,1]
// using Stephen Hill's fitted ACES approximation (input matrix, RRT+ODT
// curve fit, output matrix).
func ACESFilmic(hdr [3]float32) [3]float32 {
	v := mulMat3(acesInputMatrix, hdr)
	v = [3]float32{rttOdt(v[0]), rttOdt(v[1]), rttOdt(v[2])}
	v = mulMat3(acesOutputMatrix, v)
	for i := range v {
		if v[i] < 0 {
			v[i] = 0
		}
		if v[i] > 1 {
			v[i] = 1
		}
	}
	return v
}

// BayerMatrix8 is the 8x8 ordered-dithering threshold matrix of ranks
// 0..63; DitherThreshold divides a rank by 64 to get a [0,1) threshold.
var BayerMatrix8 = [8][8]float32{
	{0, 32, 8, 40, 2, 34, 10, 42},
	{48, 16, 56, 24, 50, 18, 58, 26},
	{12, 44, 4, 36, 14, 46, 6, 38},
	{60, 28, 52, 20, 62, 30, 54, 22},
	{3, 35, 11, 43, 1, 33, 9, 41},
	{51, 19, 59, 27, 49, 17, 57, 25},
	{15, 47, 7, 39, 13, 45, 5, 37},
	{63, 31, 55, 23, 61, 29, 53, 21},
}

// DitherThreshold returns the normalized [-0.5, 0.5) Bayer threshold
// for screen pixel (x, y), scaled by strength and the target bit
// depth's quantization step.
func DitherThreshold(x, y int, bitDepth int, strength float32) float32 {
	t := BayerMatrix8[y%8][x%8]/64 - 0.5
	step := float32(1) / float32((uint(1)<<uint(bitDepth))-1)
	return t * step * strength
}

// Dither applies ordered dithering to a single color channel and
// rounds to the nearest representable level at bitDepth.
func Dither(value float32, x, y, bitDepth int, strength float32) float32 {
	dithered := value + DitherThreshold(x, y, bitDepth, strength)
	levels := float32((uint(1) << uint(bitDepth)) - 1)
	q := float32(math.Round(float64(dithered*levels))) / levels
	if q < 0 {
		return 0
	}
	if q > 1 {
		return 1
	}
	return q
}

// LumaEdgeDetect computes the FXAA-style local contrast at a pixel from
// its four orthogonal neighbor luminances, returning whether the
// contrast exceeds the edge threshold and the normalized contrast
// value used to weight the blur direction.
func LumaEdgeDetect(center, up, down, left, right, edgeThreshold, edgeThresholdMin float32) (isEdge bool, contrast float32) {
	lumaMin := center
	lumaMax := center
	for _, l := range [4]float32{up, down, left, right} {
		if l < lumaMin {
			lumaMin = l
		}
		if l > lumaMax {
			lumaMax = l
		}
	}
	contrast = lumaMax - lumaMin
	threshold := edgeThreshold * lumaMax
	if threshold < edgeThresholdMin {
		threshold = edgeThresholdMin
	}
	return contrast >= threshold, contrast
}

// BarrelDistort applies radial barrel distortion to a normalized
// [-1,1] screen coordinate, curvature > 0 bulging the center outward
// like a convex CRT tube.
func BarrelDistort(uv [2]float32, curvature float32) [2]float32 {
	r2 := uv[0]*uv[0] + uv[1]*uv[1]
	factor := 1 + curvature*r2
	return [2]float32{uv[0] * factor, uv[1] * factor}
}

// OutsideScreen reports whether a distorted UV (after BarrelDistort and
// remapping back to [0,1]) falls outside the visible screen, the
// condition the CRT pass uses to draw the bezel/black border.
func OutsideScreen(uv01 [2]float32) bool {
	return uv01[0] < 0 || uv01[0] > 1 || uv01[1] < 0 || uv01[1] > 1
}

// ScanlineAttenuation computes the horizontal scanline darkening factor
// for a screen-space Y coordinate, sinusoidal with period one texel.
func ScanlineAttenuation(screenY float32, intensity float32) float32 {
	s := float32(math.Sin(float64(screenY) * math.Pi))
	return 1 - intensity*(1-s*s)
}

// ApertureGrilleMask computes the per-subpixel RGB mask for an
// aperture-grille shadow mask at screen-space X, cycling R/G/B every
// three columns.
func ApertureGrilleMask(screenX int, strength float32) [3]float32 {
	mask := [3]float32{strength, strength, strength}
	mask[screenX%3] = 1
	return mask
}

// ConvergenceOffset returns the per-channel UV offset simulating CRT
// RGB electron-beam misconvergence, a small fixed displacement per
// channel scaled by strength.
func ConvergenceOffset(strength float32) (r, g, b [2]float32) {
	r = [2]float32{-strength, 0}
	g = [2]float32{0, 0}
	b = [2]float32{strength, 0}
	return
}

// Vignette computes the screen-edge darkening factor from a normalized
// [-1,1] coordinate, falling off from 1 at center to (1-strength) at
// the radius-1 corner.
func Vignette(uv [2]float32, strength, radius float32) float32 {
	d := float32(math.Sqrt(float64(uv[0]*uv[0] + uv[1]*uv[1])))
	if radius <= 0 {
		return 1
	}
	t := d / radius
	if t > 1 {
		t = 1
	}
	return 1 - strength*t*t
}

// HorizontalBlurWeights returns normalized Gaussian weights (sigma =
// radius+1) for the
// CRT pass's horizontal-only blur (approximating the phosphor's
// horizontal light bleed without a vertical component that would
// smear scanlines).
func HorizontalBlurWeights(radius int) []float32 {
	n := 2*radius + 1
	weights := make([]float32, n)
	var sum float32
	for i := 0; i < n; i++ {
		d := float32(i - radius)
		w := float32(math.Exp(float64(-d * d / (2 * float32(radius+1) * float32(radius+1)))))
		weights[i] = w
		sum += w
	}
	for i := range weights {
		weights[i] /= sum
	}
	return weights
}
