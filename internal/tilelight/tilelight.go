// Package tilelight prepares the per-frame data the tile-based light
// culling compute pass and the deferred lighting pass share: the
// packed GPU light buffer and the uniform blocks describing the tile
// grid, camera matrices, and light budget.
package tilelight

import (
	"sort"

	"github.com/bitofgold/topazcube/gpucore"
	"github.com/bitofgold/topazcube/internal/entity"
	"github.com/bitofgold/topazcube/internal/mathutil"
)

// VisibleLight bundles an entity's light record with its resolved
// world-space position/direction, camera distance (for budget
// priority), and this frame's shadow assignment, ready to marshal into
// the GPU light buffer. ShadowSlot is the spot atlas slot (-1 if
// none) and ShadowFade the matching distance fade (1 = unfaded, 0 =
// fully faded to the constant minimum shadow); both are decided by the
// shadow pass each frame, so the render graph overwrites them from the
// atlas assignment before the buffer is built.
type VisibleLight struct {
	Entity     entity.ID
	Light      entity.Light
	Position   mathutil.Vec3
	Direction  mathutil.Vec3
	Distance   float32
	ShadowSlot int
	ShadowFade float32
}

// BuildLightBuffer converts visible lights into the GPU-aligned light
// list, nearest-to-camera first, so gpucore.MarshalLightBuffer's
// MaxGPULights truncation drops the least important lights first.
func BuildLightBuffer(lights []VisibleLight, ambient [3]float32) []byte {
	sorted := make([]VisibleLight, len(lights))
	copy(sorted, lights)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Distance < sorted[j].Distance })

	gpuLights := make([]gpucore.GPULight, len(sorted))
	for i, v := range sorted {
		gpuLights[i] = toGPULight(v)
	}
	return gpucore.MarshalLightBuffer(gpuLights, ambient)
}

func toGPULight(v VisibleLight) gpucore.GPULight {
	var lt uint32
	switch v.Light.Type {
	case entity.LightDirectional:
		lt = gpucore.LightTypeDirectional
	case entity.LightSpot:
		lt = gpucore.LightTypeSpot
	default:
		lt = gpucore.LightTypePoint
	}

	var enabled uint32
	if v.Light.Enabled {
		enabled = 1
	}

	shadowIndex := gpucore.NoShadowIndex
	if v.Light.Type == entity.LightSpot && v.ShadowSlot >= 0 {
		shadowIndex = int32(v.ShadowSlot)
	}

	return gpucore.GPULight{
		Enabled:     enabled,
		LightType:   lt,
		Position:    [3]float32{v.Position.X, v.Position.Y, v.Position.Z},
		Color:       [4]float32{v.Light.Color.X, v.Light.Color.Y, v.Light.Color.Z, v.Light.Color.W},
		Direction:   [3]float32{v.Direction.X, v.Direction.Y, v.Direction.Z},
		Geom:        [4]float32{v.Light.Radius, v.Light.InnerCone, v.Light.OuterCone, v.ShadowFade},
		ShadowIndex: shadowIndex,
	}
}

// BuildCullUniforms assembles the uniform block the tile light culling
// compute shader reads to reconstruct per-tile frustum planes and
// index into the light buffer.
func BuildCullUniforms(invProj, viewMatrix mathutil.Mat4, grid *gpucore.TileGrid, screenWidth, screenHeight, lightCount int, near, far float32) gpucore.GPULightCullUniforms {
	return gpucore.GPULightCullUniforms{
		InvProj:      invProj.ColumnMajor(),
		ViewMatrix:   viewMatrix.ColumnMajor(),
		TileCountX:   uint32(grid.TileColumns()),
		TileCountY:   uint32(grid.TileRows()),
		ScreenWidth:  uint32(screenWidth),
		ScreenHeight: uint32(screenHeight),
		LightCount:   uint32(lightCount),
		Near:         near,
		Far:          far,
	}
}

// BuildTileUniforms assembles the small uniform block the deferred
// lighting fragment shader reads to index into the per-tile light
// list buffer the culling pass wrote.
func BuildTileUniforms(grid *gpucore.TileGrid) gpucore.GPUTileUniforms {
	return gpucore.GPUTileUniforms{
		TileCountX:       uint32(grid.TileColumns()),
		MaxLightsPerTile: uint32(grid.MaxLightsPerTile()),
	}
}

// WorldDirection resolves a light's world-space forward direction from
// its entity transform: directional and spot lights point down their
// local -Z axis, rotated into world space.
func WorldDirection(rotation mathutil.Quaternion) mathutil.Vec3 {
	return rotation.RotateVector(mathutil.Vec3{Z: -1}).Normalize()
}
