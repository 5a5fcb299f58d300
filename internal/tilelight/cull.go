package tilelight

import "math"

// TileRadiusScale is the conservative multiplier applied to a light's
// projected NDC radius before the per-tile bounding-box test, chosen
// to over-include rather than miss a tile at the silhouette edge.
const TileRadiusScale = 1.5

// MinRadiusBase and MinRadiusPerDepth define the depth-dependent floor
// on a light's radius in tile units: `MinRadiusBase +
// viewDepth*MinRadiusPerDepth`. This guarantees the light is always
// assigned to at least the tile containing its projected center, even
// for a light whose true projected radius rounds to near zero, so a
// light inside a tile's NDC bounds is always assigned to that tile.
const (
	MinRadiusBase     = 1.0
	MinRadiusPerDepth = 0.002
)

// ClampRadiusTiles applies TileRadiusScale and the depth-dependent
// minimum to a light's raw projected radius (in tile units). Callers
// that need a settings-driven scale (config.LightingSettings.
// TileRadiusScale) should use ClampRadiusTilesScaled instead.
func ClampRadiusTiles(radiusTiles, viewDepth float32) float32 {
	return ClampRadiusTilesScaled(radiusTiles, viewDepth, TileRadiusScale)
}

// ClampRadiusTilesScaled is ClampRadiusTiles with an explicit scale
// factor, so a host can tune the over-inclusion margin (e.g. via
// config.LightingSettings.TileRadiusScale) without touching the
// package default.
func ClampRadiusTilesScaled(radiusTiles, viewDepth, scale float32) float32 {
	scaled := radiusTiles * scale
	min := MinRadiusBase + viewDepth*MinRadiusPerDepth
	if scaled < min {
		return min
	}
	return scaled
}

// TileBounds returns the inclusive tile-index range a light's
// projected center and (already-clamped) radius cover.
func TileBounds(centerTileX, centerTileY, radiusTiles float32) (minX, maxX, minY, maxY int) {
	minX = int(math.Floor(float64(centerTileX - radiusTiles)))
	maxX = int(math.Floor(float64(centerTileX + radiusTiles)))
	minY = int(math.Floor(float64(centerTileY - radiusTiles)))
	maxY = int(math.Floor(float64(centerTileY + radiusTiles)))
	return
}

// AssignedToTile reports whether (tileX, tileY) falls within the
// inclusive bounds TileBounds computed.
func AssignedToTile(tileX, tileY, minX, maxX, minY, maxY int) bool {
	return tileX >= minX && tileX <= maxX && tileY >= minY && tileY <= maxY
}

// BehindCamera reports whether a light should be rejected outright:
// its view-space depth plus radius places it entirely behind the
// camera.
func BehindCamera(viewZ, radius float32) bool {
	return viewZ+radius < 0
}

// NearCameraConservative reports whether a light is close enough to
// the camera (clip-space w below the threshold) that it should be
// conservatively included in every tile its rough bounds might touch,
// rather than trusting the perspective-divided projection.
func NearCameraConservative(clipW, threshold float32) bool {
	return clipW < threshold
}
