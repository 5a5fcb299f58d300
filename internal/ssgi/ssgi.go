// Package ssgi implements the three-stage screen-space global
// illumination pipeline's CPU-testable contract: tile accumulation
// (averaging the previous frame's HDR + boosted emissive, clamped by
// max-RGB brightness), four-direction propagation across the tile
// grid, and the half-resolution Vogel-disk resolve that gathers
// propagated light per-pixel.
package ssgi

import (
	"math"

	"github.com/bitofgold/topazcube/internal/mathutil"
)

// Direction indexes the four propagation directions a tile exchanges
// light with.
type Direction int

const (
	DirLeft Direction = iota
	DirRight
	DirUp
	DirDown
)

// Grid is the SSGI tile dimensions, independent of the light-culling
// tile size.
type Grid struct {
	TileSize           int
	Cols, Rows         int
}

// NewGrid computes a tile grid covering screenWidth x screenHeight at
// tileSize granularity.
func NewGrid(screenWidth, screenHeight, tileSize int) Grid {
	if tileSize <= 0 {
		tileSize = 1
	}
	cols := (screenWidth + tileSize - 1) / tileSize
	rows := (screenHeight + tileSize - 1) / tileSize
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	return Grid{TileSize: tileSize, Cols: cols, Rows: rows}
}

// HalfScreenTiles returns the propagation falloff denominator: half
// the grid's longer dimension.
func (g Grid) HalfScreenTiles() float32 {
	longest := g.Cols
	if g.Rows > longest {
		longest = g.Rows
	}
	return float32(longest) / 2
}

// AccumulateTile adds a tile's boosted emissive contribution to its
// previous-frame HDR color (both already per-tile values), clamping the result's max channel to
// maxBrightness (not a per-channel clamp — the whole color is scaled
// down uniformly to preserve hue).
func AccumulateTile(prevHDR, emissive mathutil.Vec3, emissiveBoost, maxBrightness float32) mathutil.Vec3 {
	combined := prevHDR.Add(emissive.Mul(emissiveBoost))
	return clampMaxRGB(combined, maxBrightness)
}

func clampMaxRGB(c mathutil.Vec3, maxBrightness float32) mathutil.Vec3 {
	m := c.X
	if c.Y > m {
		m = c.Y
	}
	if c.Z > m {
		m = c.Z
	}
	if m <= maxBrightness || m <= 0 {
		return c
	}
	return c.Mul(maxBrightness / m)
}

// PropagationResult is one tile's accumulated light + total weight for
// one of the four directions; weight (the alpha channel in the RGBA
// layout) doubles as a validity mask for the resolve stage's
// bilinear gather.
type PropagationResult struct {
	Light  mathutil.Vec3
	Weight float32
}

// Propagate computes one tile's propagated value for direction dir by
// summing every tile in that direction along the same row/column,
// weighted by a linear falloff from distance 1 to halfScreenTiles, then
// normalizing by the accumulated weight.
func Propagate(accum [][]mathutil.Vec3, tx, ty int, dir Direction, halfScreenTiles float32) PropagationResult {
	rows := len(accum)
	if rows == 0 {
		return PropagationResult{}
	}
	cols := len(accum[0])

	var total mathutil.Vec3
	var totalWeight float32

	step := func(x, y, dist int) {
		if y < 0 || y >= rows || x < 0 || x >= cols {
			return
		}
		w := propagationWeight(float32(dist), halfScreenTiles)
		if w <= 0 {
			return
		}
		total = total.Add(accum[y][x].Mul(w))
		totalWeight += w
	}

	switch dir {
	case DirLeft:
		for d := 1; tx-d >= 0; d++ {
			step(tx-d, ty, d)
		}
	case DirRight:
		for d := 1; tx+d < cols; d++ {
			step(tx+d, ty, d)
		}
	case DirUp:
		for d := 1; ty-d >= 0; d++ {
			step(tx, ty-d, d)
		}
	case DirDown:
		for d := 1; ty+d < rows; d++ {
			step(tx, ty+d, d)
		}
	}

	if totalWeight <= 0 {
		return PropagationResult{}
	}
	return PropagationResult{Light: total.Mul(1 / totalWeight), Weight: totalWeight}
}

func propagationWeight(dist, halfScreenTiles float32) float32 {
	if halfScreenTiles <= 1 {
		if dist <= 1 {
			return 1
		}
		return 0
	}
	if dist < 1 {
		return 0
	}
	if dist >= halfScreenTiles {
		return 0
	}
	return 1 - (dist-1)/(halfScreenTiles-1)
}

// DirectionWeight projects a screen-space normal onto one of the four
// screen-space propagation directions (as NDC-plane vectors), adding a
// flat ambient floor so every direction contributes at least a little.
func DirectionWeight(normalScreenSpace mathutil.Vec3, dir Direction, ambientFloor float32) float32 {
	var axis mathutil.Vec3
	switch dir {
	case DirLeft:
		axis = mathutil.Vec3{X: -1}
	case DirRight:
		axis = mathutil.Vec3{X: 1}
	case DirUp:
		axis = mathutil.Vec3{Y: 1}
	case DirDown:
		axis = mathutil.Vec3{Y: -1}
	}
	d := normalScreenSpace.Dot(axis)
	if d < 0 {
		d = 0
	}
	return d + ambientFloor
}

// MaxResolveLuminance is the clamp applied to the SSGI resolve stage's
// final output to avoid runaway bright spots feeding into the lighting
// composite.
const MaxResolveLuminance = 4

// ClampLuminance clamps c's luminance (not per-channel) to max,
// preserving hue, the same scaling approach AccumulateTile's max-RGB
// clamp uses.
func ClampLuminance(c mathutil.Vec3, max float32) mathutil.Vec3 {
	l := 0.2126*c.X + 0.7152*c.Y + 0.0722*c.Z
	if l <= max || l <= 0 {
		return c
	}
	return c.Mul(max / l)
}

// CompositeContribution computes the lighting pass's SSGI add term:
// ssgi * (1 - metallic*0.5) * ao * intensity, then applies logarithmic
// saturation (log1p, normalized) to compress the result before adding
// to the HDR buffer.
func CompositeContribution(ssgi mathutil.Vec3, metallic, ao, intensity float32) mathutil.Vec3 {
	scale := (1 - metallic*0.5) * ao * intensity
	scaled := ssgi.Mul(scale)
	return mathutil.Vec3{
		X: logSaturate(scaled.X),
		Y: logSaturate(scaled.Y),
		Z: logSaturate(scaled.Z),
	}
}

func logSaturate(v float32) float32 {
	if v <= 0 {
		return 0
	}
	// log1p-style soft compression: grows like v for small v, flattens
	// for large v, without a hard clamp.
	return float32(math.Log1p(float64(v)))
}
