package cull

import (
	"math"
	"testing"

	"github.com/bitofgold/topazcube/internal/entity"
	"github.com/bitofgold/topazcube/internal/mathutil"
)

type fakeAssets struct {
	spheres   map[string]mathutil.Sphere
	skinned   map[string]bool
	durations map[string]float32
}

func (f fakeAssets) BoundingSphere(modelKey string) (mathutil.Sphere, bool) {
	s, ok := f.spheres[modelKey]
	return s, ok
}

func (f fakeAssets) IsSkinned(modelKey string) bool {
	return f.skinned[modelKey]
}

func (f fakeAssets) AnimationDuration(modelKey, animation string) float32 {
	return f.durations[modelKey+"|"+animation]
}

func straightCamera(distance float32) Camera {
	proj := mathutil.Mat4Perspective(float32(math.Pi)/3, 16.0/9.0, 0.1, 1000)
	view := mathutil.Mat4LookAt(mathutil.Vec3{Z: -distance}, mathutil.Vec3{}, mathutil.Vec3{Y: 1})
	viewProj := proj.Mul(view)
	return Camera{
		Position:     mathutil.Vec3{Z: -distance},
		Forward:      mathutil.Vec3{Z: 1},
		Frustum:      mathutil.ExtractFrustum(viewProj),
		ViewProj:     viewProj,
		FovYRadians:  float32(math.Pi) / 3,
		ScreenWidth:  1920,
		ScreenHeight: 1080,
	}
}

func newStoreWithEntity(modelKey string) *entity.Store {
	s := entity.NewStore()
	s.Create(entity.Data{ModelKey: modelKey})
	return s
}

func TestRunRejectsEntityBeyondMaxDistance(t *testing.T) {
	store := newStoreWithEntity("cube")
	assets := fakeAssets{spheres: map[string]mathutil.Sphere{"cube": {Radius: 1}}}
	pass := NewPass(Config{MaxDistance: 5})

	groups := pass.Run(store, straightCamera(100), assets, nil, OcclusionConfig{})

	if len(groups.ByModel) != 0 {
		t.Errorf("expected no visible entries beyond max distance, got %v", groups.ByModel)
	}
}

func TestRunAcceptsEntityWithinMaxDistance(t *testing.T) {
	store := newStoreWithEntity("cube")
	assets := fakeAssets{spheres: map[string]mathutil.Sphere{"cube": {Radius: 1}}}
	pass := NewPass(Config{MaxDistance: 100})

	groups := pass.Run(store, straightCamera(10), assets, nil, OcclusionConfig{})

	if len(groups.ByModel["cube"]) != 1 {
		t.Fatalf("ByModel[cube] = %v, want 1 entry", groups.ByModel["cube"])
	}
}

func TestRunMissingAssetYieldsNoVisibleEntries(t *testing.T) {
	store := newStoreWithEntity("unknown")
	assets := fakeAssets{spheres: map[string]mathutil.Sphere{}}
	pass := NewPass(Config{MaxDistance: 100})

	groups := pass.Run(store, straightCamera(10), assets, nil, OcclusionConfig{})

	if len(groups.ByModel) != 0 {
		t.Errorf("expected empty groups for missing asset, got %v", groups.ByModel)
	}
}

func TestRunNilStoreNeverFails(t *testing.T) {
	assets := fakeAssets{}
	pass := NewPass(Config{MaxDistance: 100})

	groups := pass.Run(nil, straightCamera(10), assets, nil, OcclusionConfig{})

	if groups.ByModel == nil || groups.BySkinKey == nil {
		t.Error("Run should always return initialized maps, even with a nil store")
	}
}

func TestDistanceFadeIsOneBelowFadeStartAndZeroAtMax(t *testing.T) {
	const maxDist, fadeStart = float32(100), float32(0.8)

	if got := distanceFade(50, maxDist, fadeStart); got != 1 {
		t.Errorf("distanceFade(50) = %v, want 1", got)
	}
	if got := distanceFade(100, maxDist, fadeStart); got != 0 {
		t.Errorf("distanceFade(100) = %v, want 0", got)
	}
	mid := distanceFade(90, maxDist, fadeStart)
	if mid <= 0 || mid >= 1 {
		t.Errorf("distanceFade(90) = %v, want strictly between 0 and 1", mid)
	}
}

func TestSkinnedEntitiesGroupBySharedPhaseBucket(t *testing.T) {
	store := entity.NewStore()
	for i := 0; i < 3; i++ {
		store.Create(entity.Data{
			ModelKey: "hero",
			Animation: &entity.AnimationState{
				ToAnimation: "walk",
				Elapsed:     0.1, // all three at the same phase
			},
		})
	}

	assets := fakeAssets{
		spheres:   map[string]mathutil.Sphere{"hero": {Radius: 1}},
		skinned:   map[string]bool{"hero": true},
		durations: map[string]float32{"hero|walk": 1.0},
	}
	pass := NewPass(Config{MaxDistance: 100})

	groups := pass.Run(store, straightCamera(10), assets, nil, OcclusionConfig{})

	if len(groups.BySkinKey) != 1 {
		t.Fatalf("BySkinKey has %d keys, want 1 (all same phase bucket): %v", len(groups.BySkinKey), groups.BySkinKey)
	}
	for _, entries := range groups.BySkinKey {
		if len(entries) != 3 {
			t.Errorf("bucket has %d entries, want 3", len(entries))
		}
	}
}

func TestMaxSkinnedBudgetSplitsIndividualFromShared(t *testing.T) {
	store := entity.NewStore()
	for i := 0; i < 5; i++ {
		store.Create(entity.Data{ModelKey: "hero"})
	}

	assets := fakeAssets{
		spheres: map[string]mathutil.Sphere{"hero": {Radius: 1}},
		skinned: map[string]bool{"hero": true},
	}
	pass := NewPass(Config{MaxDistance: 100, MaxSkinned: 2})

	groups := pass.Run(store, straightCamera(10), assets, nil, OcclusionConfig{})

	if len(groups.IndividualSkinned) != 2 {
		t.Errorf("IndividualSkinned has %d entries, want 2", len(groups.IndividualSkinned))
	}
	total := 0
	for _, entries := range groups.BySkinKey {
		total += len(entries)
	}
	if total != 3 {
		t.Errorf("BySkinKey holds %d entries, want 3 (5 - MaxSkinned)", total)
	}
}

func TestMinPixelSizeRejectsTinyDistantEntities(t *testing.T) {
	store := newStoreWithEntity("speck")
	assets := fakeAssets{spheres: map[string]mathutil.Sphere{"speck": {Radius: 0.001}}}
	pass := NewPass(Config{MaxDistance: 1000, MinPixelSize: 1})

	groups := pass.Run(store, straightCamera(500), assets, nil, OcclusionConfig{})

	if len(groups.ByModel) != 0 {
		t.Errorf("expected sub-pixel entity to be rejected, got %v", groups.ByModel)
	}
}

func TestInvalidateOcclusionCullingReentersWarmup(t *testing.T) {
	pass := NewPass(Config{HiZ: true})
	occ := OcclusionConfig{Enabled: true, WarmupFrames: 3}
	cam := straightCamera(10)

	pass.updateOcclusionState(cam, occ)
	if pass.warmupRemaining <= 0 {
		t.Fatalf("first call should start warmup, got warmupRemaining=%d", pass.warmupRemaining)
	}
	for pass.warmupRemaining > 0 {
		pass.updateOcclusionState(cam, occ)
	}
	if trusted := pass.updateOcclusionState(cam, occ); !trusted {
		t.Fatal("expected occlusion test to be trusted once warmup has elapsed")
	}

	pass.InvalidateOcclusionCulling()
	if pass.hasLastCamera {
		t.Fatal("expected InvalidateOcclusionCulling to clear hasLastCamera")
	}
	if trusted := pass.updateOcclusionState(cam, occ); trusted {
		t.Fatal("expected occlusion test to re-enter warmup immediately after invalidation")
	}
	if pass.warmupRemaining != occ.WarmupFrames {
		t.Fatalf("warmupRemaining = %d, want %d", pass.warmupRemaining, occ.WarmupFrames)
	}
}
