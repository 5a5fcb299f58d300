// Package bloom implements the bright-pass extraction, mip-chain blur
// weighting, and additive composite math for the bloom pass: a
// soft-knee threshold extracts over-bright pixels into a half-res
// target, a downsample/upsample mip chain blurs and accumulates them,
// and the composite mask attenuates bloom over already-bright pixels so
// it shows in the darker surroundings of bright sources rather than as
// a flat glow overlay.
package bloom

// SoftThreshold extracts a pixel's bloom contribution using the
// Karis-style soft knee: pixels below (threshold-knee) contribute
// nothing, pixels above (threshold+knee) contribute their excess over
// threshold, and the knee band in between ramps up quadratically so the
// cutoff doesn't produce a hard edge in motion. With knee <= 0 the cut
// is hard and pixels at or above threshold pass through unattenuated.
func SoftThreshold(luminance, threshold, knee float32) float32 {
	if knee <= 0 {
		if luminance < threshold {
			return 0
		}
		return luminance
	}
	soft := luminance - threshold + knee
	if soft < 0 {
		soft = 0
	}
	if soft > 2*knee {
		soft = 2 * knee
	}
	soft = soft * soft / (4*knee + 1e-5)
	contribution := luminance - threshold
	if contribution < soft {
		contribution = soft
	}
	if contribution <= 0 {
		return 0
	}
	scale := contribution / (luminance + 1e-5)
	return luminance * scale
}

// MipWeights returns the per-mip-level blend weights the upsample pass
// accumulates with, falling off geometrically so the brightest, least
// blurred mip dominates and the widest, most-blurred mip contributes
// only a soft halo.
func MipWeights(mipCount int) []float32 {
	weights := make([]float32, mipCount)
	var sum float32
	for i := range weights {
		w := float32(1) / float32(uint(1)<<uint(i))
		weights[i] = w
		sum += w
	}
	for i := range weights {
		weights[i] /= sum
	}
	return weights
}

// GaussianKernel5 returns the normalized 5-tap binomial-approximation
// Gaussian weights used for each separable blur pass in the mip chain.
func GaussianKernel5() [5]float32 {
	return [5]float32{1.0 / 16, 4.0 / 16, 6.0 / 16, 4.0 / 16, 1.0 / 16}
}

// DownsampleDimensions halves a mip level's dimensions, flooring at 1
// so the chain terminates instead of reaching zero.
func DownsampleDimensions(width, height int) (int, int) {
	w := width / 2
	if w < 1 {
		w = 1
	}
	h := height / 2
	if h < 1 {
		h = 1
	}
	return w, h
}

// MipChainLength computes how many mip levels fit before either
// dimension would drop below minSize.
func MipChainLength(width, height, minSize int) int {
	levels := 1
	w, h := width, height
	for w > minSize && h > minSize {
		w, h = DownsampleDimensions(w, h)
		levels++
	}
	return levels
}

// CompositeMask attenuates the additive bloom contribution over bright
// scene pixels with (1-luminance)^2: the mask is 1 over black pixels
// and 0 at luminance 1 and above, so bloom shows in the dark areas
// around bright sources rather than washing out the sources themselves.
func CompositeMask(sceneLuminance float32) float32 {
	inv := 1 - sceneLuminance
	if inv < 0 {
		inv = 0
	}
	return inv * inv
}

// Composite blends a mip chain's accumulated bloom color additively
// into the scene color, scaled by intensity and CompositeMask.
func Composite(sceneColor, bloomColor [3]float32, sceneLuminance, intensity float32) [3]float32 {
	mask := CompositeMask(sceneLuminance) * intensity
	var out [3]float32
	for i := range out {
		out[i] = sceneColor[i] + bloomColor[i]*mask
	}
	return out
}

// Luminance computes Rec.709 relative luminance.
func Luminance(c [3]float32) float32 {
	return 0.2126*c[0] + 0.7152*c[1] + 0.0722*c[2]
}

// AnamorphicStretch widens the bright-pass sample footprint along X to
// approximate an anamorphic lens streak, used by the optional
// streak-mip variant of the chain.
func AnamorphicStretch(u, stretch float32) float32 {
	if stretch <= 1 {
		return u
	}
	centered := u - 0.5
	return centered/stretch + 0.5
}

// LensDirtMix blends a lens-dirt texture sample into the final bloom
// contribution, scaled by the dirt mask's own luminance so clean lens
// regions pass bloom through unmodified.
func LensDirtMix(bloom, dirt [3]float32, intensity float32) [3]float32 {
	dirtLum := Luminance(dirt)
	scale := 1 + dirtLum*intensity
	var out [3]float32
	for i := range out {
		out[i] = bloom[i] * scale
	}
	return out
}

// clampUnit clamps a value composed from user-controlled sliders that
// may fall outside [0,1].
func clampUnit(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
