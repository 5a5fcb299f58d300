package config

import (
	"reflect"
	"testing"
)

func TestMergeOverridesOnlyNonZeroFields(t *testing.T) {
	defaults := Defaults()

	var partial Settings
	partial.Shadow.Bias = 0.01
	partial.Lighting.MaxLightsPerTile = 64

	merged := Merge(defaults, partial)

	if merged.Shadow.Bias != 0.01 {
		t.Errorf("Shadow.Bias = %v, want 0.01", merged.Shadow.Bias)
	}
	if merged.Lighting.MaxLightsPerTile != 64 {
		t.Errorf("Lighting.MaxLightsPerTile = %v, want 64", merged.Lighting.MaxLightsPerTile)
	}
	// Untouched sibling fields in the same groups keep their defaults.
	if merged.Shadow.NormalBias != defaults.Shadow.NormalBias {
		t.Errorf("Shadow.NormalBias = %v, want default %v", merged.Shadow.NormalBias, defaults.Shadow.NormalBias)
	}
	if merged.Lighting.TileSize != defaults.Lighting.TileSize {
		t.Errorf("Lighting.TileSize = %v, want default %v", merged.Lighting.TileSize, defaults.Lighting.TileSize)
	}
	// Untouched top-level groups are untouched entirely.
	if merged.Camera != defaults.Camera {
		t.Errorf("Camera = %+v, want unchanged default %+v", merged.Camera, defaults.Camera)
	}
}

func TestMergeIsIdempotent(t *testing.T) {
	defaults := Defaults()

	var partial Settings
	partial.Bloom.Intensity = 0.9
	partial.Culling.Main.MaxDistance = 1000

	once := Merge(defaults, partial)
	twice := Merge(defaults, once)

	if !reflect.DeepEqual(once, twice) {
		t.Errorf("merge is not idempotent:\nonce=%+v\ntwice=%+v", once, twice)
	}
}

func TestMergeEmptyPartialYieldsDefaults(t *testing.T) {
	defaults := Defaults()
	merged := Merge(defaults, Settings{})

	if !reflect.DeepEqual(merged, defaults) {
		t.Error("merging an empty partial should yield the defaults unchanged")
	}
}

func TestMergeSliceFieldOverride(t *testing.T) {
	defaults := Defaults()

	var partial Settings
	partial.Shadow.CascadeSizes = []float32{5, 15}

	merged := Merge(defaults, partial)
	if len(merged.Shadow.CascadeSizes) != 2 || merged.Shadow.CascadeSizes[0] != 5 {
		t.Errorf("CascadeSizes = %v, want [5 15]", merged.Shadow.CascadeSizes)
	}
}
