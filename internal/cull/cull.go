// Package cull implements visibility testing: for a camera or light's
// view, it walks the entity store and produces the subset of entities
// worth drawing, grouped by model for instanced batching. Four
// independent pass configurations (main view, shadow cascades,
// planar/cubemap reflection) share this one procedure with different
// Config values.
package cull

import (
	"math"

	"github.com/bitofgold/topazcube/internal/entity"
	"github.com/bitofgold/topazcube/internal/mathutil"
)

// AnimationPhaseBuckets discretizes a skinned entity's clip time into
// this many buckets per animation, so every entity in the same bucket
// can share one joint-matrix texture computed once per frame instead
// of once per instance.
const AnimationPhaseBuckets = 8

// Config configures one culling pass instance (main, shadow,
// reflection, or planar-reflection view).
type Config struct {
	Frustum       bool
	HiZ           bool
	CascadeFilter bool
	MaxDistance   float32
	MaxSkinned    int
	MinPixelSize  float32
	FadeStart     float32 // fraction of MaxDistance where fade-out begins
}

// OcclusionConfig configures the HiZ occlusion test's invalidation
// thresholds, shared across every pass that enables HiZ.
type OcclusionConfig struct {
	Enabled           bool
	MaxTileSpan       int
	Threshold         float32
	PositionThreshold float32
	RotationThreshold float32
	WarmupFrames      int
}

// Camera is the view this pass culls against.
type Camera struct {
	Position mathutil.Vec3
	Forward  mathutil.Vec3 // normalized; used only for HiZ-invalidation rotation tracking
	Frustum  mathutil.Frustum
	// ViewProj is used only by the HiZ occlusion test, to project a
	// sphere's center into screen-tile coordinates.
	ViewProj     mathutil.Mat4
	FovYRadians  float32
	ScreenWidth  float32
	ScreenHeight float32
}

// AssetResolver answers the model-shape questions culling needs
// without depending on the asset package directly.
type AssetResolver interface {
	// BoundingSphere returns the model's local-space bounding sphere.
	// ok is false if the model isn't loaded (or doesn't exist); the
	// caller treats that entity as having zero visible extent.
	BoundingSphere(modelKey string) (sphere mathutil.Sphere, ok bool)
	// IsSkinned reports whether the model carries joint/animation data.
	IsSkinned(modelKey string) bool
	// AnimationDuration returns the named clip's duration in seconds,
	// or 0 if the model or clip is unknown.
	AnimationDuration(modelKey, animation string) float32
}

// HiZSource exposes the previous frame's hierarchical-depth buffer in
// screen-tile units.
type HiZSource interface {
	TileSize() int
	Dimensions() (cols, rows int)
	// MinMax returns the tile's (min, max) linear depth. ok is false
	// for a tile outside Dimensions().
	MinMax(tileX, tileY int) (min, max float32, ok bool)
}

// Visible is one surviving entity after a culling pass.
type Visible struct {
	Entity   entity.ID
	ModelKey string
	Distance float32
	// Fade is a smooth [0,1] factor: 1 below FadeStart*MaxDistance,
	// decreasing linearly to 0 at MaxDistance. Consumed shader-side for
	// dithered dissolve rather than a hard cutoff.
	Fade    float32
	Skinned bool
}

// Groups is the result of one culling pass.
type Groups struct {
	// ByModel groups surviving non-skinned-budget entries by modelId
	// for instanced batching.
	ByModel map[string][]Visible
	// BySkinKey groups skinned entries by modelId|animation|phaseBucket
	// so each bucket can share one joint texture per frame.
	BySkinKey map[string][]Visible
	// IndividualSkinned holds entries that exceeded the shared-bucket
	// budget and are drawn with their own joint texture, sorted nearest
	// first (closest entities get individual treatment preferentially).
	IndividualSkinned []Visible
}

// Pass runs one configured culling pass across frames, tracking camera
// motion so the HiZ occlusion test can invalidate itself after a cut
// or a fast pan/rotation rather than reject against stale depth.
type Pass struct {
	cfg Config

	hasLastCamera   bool
	lastPosition    mathutil.Vec3
	lastForward     mathutil.Vec3
	warmupRemaining int
}

// NewPass creates a culling pass with the given configuration.
func NewPass(cfg Config) *Pass {
	return &Pass{cfg: cfg}
}

// InvalidateOcclusionCulling forces the next Run to treat the camera as
// just having cut or moved, re-entering the HiZ warmup window rather
// than trusting the previous frame's depth against a scene that may
// have just changed out from under it (e.g. a streamed-in asset or a
// teleported camera).
func (p *Pass) InvalidateOcclusionCulling() {
	p.hasLastCamera = false
	p.warmupRemaining = 0
}

// Run executes the pass over every live entity in store. Culling never
// fails: missing assets and degenerate cameras simply yield fewer, or
// zero, visible entries; the frame still completes.
func (p *Pass) Run(store *entity.Store, cam Camera, assets AssetResolver, hiz HiZSource, occ OcclusionConfig) Groups {
	groups := Groups{
		ByModel:   make(map[string][]Visible),
		BySkinKey: make(map[string][]Visible),
	}
	if store == nil || assets == nil {
		return groups
	}

	hizUsable := p.cfg.HiZ && occ.Enabled && hiz != nil && p.updateOcclusionState(cam, occ)

	var skinned []skinCandidate

	store.ForEach(func(e entity.Entity) {
		if e.ModelKey == "" {
			return
		}
		localSphere, ok := assets.BoundingSphere(e.ModelKey)
		if !ok {
			return
		}

		worldMatrix := mathutil.Mat4TRS(e.Position, e.Rotation, e.Scale)
		world := localSphere.Transform(worldMatrix)

		dist := world.Center.Sub(cam.Position).Length()

		// 1. Distance test.
		if dist-world.Radius > p.cfg.MaxDistance {
			return
		}
		fade := distanceFade(dist, p.cfg.MaxDistance, p.cfg.FadeStart)

		// 2. Min-pixel-size test.
		if p.cfg.MinPixelSize > 0 {
			px := mathutil.ProjectedPixelRadius(world.Radius, dist, cam.ScreenHeight, cam.FovYRadians)
			if px < p.cfg.MinPixelSize {
				return
			}
		}

		// 3. Frustum test.
		if p.cfg.Frustum && !cam.Frustum.ContainsSphere(world) {
			return
		}

		// 4. HiZ occlusion test.
		if hizUsable && p.occluded(world, cam, hiz, occ) {
			return
		}

		v := Visible{Entity: e.ID, ModelKey: e.ModelKey, Distance: dist, Fade: fade}

		if assets.IsSkinned(e.ModelKey) {
			v.Skinned = true
			animName, phase := animationPhase(e, assets)
			skinned = append(skinned, skinCandidate{v: v, phase: phase, animName: animName})
			return
		}

		groups.ByModel[e.ModelKey] = append(groups.ByModel[e.ModelKey], v)
	})

	p.groupSkinned(&groups, skinned)
	return groups
}

type skinCandidate struct {
	v        Visible
	phase    float32
	animName string
}

func (p *Pass) groupSkinned(groups *Groups, skinned []skinCandidate) {
	if p.cfg.MaxSkinned > 0 && len(skinned) > p.cfg.MaxSkinned {
		// Individual treatment for the nearest MaxSkinned entities; the
		// rest fall back to shared phase-bucketed animation state.
		sortByDistance(skinned)
		for i := 0; i < p.cfg.MaxSkinned; i++ {
			groups.IndividualSkinned = append(groups.IndividualSkinned, skinned[i].v)
		}
		skinned = skinned[p.cfg.MaxSkinned:]
	}

	for _, c := range skinned {
		key := c.v.ModelKey + "|" + c.animName + "|" + phaseBucketKey(c.phase)
		groups.BySkinKey[key] = append(groups.BySkinKey[key], c.v)
	}
}

func sortByDistance(c []skinCandidate) {
	// Small N in practice (bounded by a realistic skinned-entity count
	// per frame); insertion sort avoids pulling in sort.Slice's
	// reflection overhead for what's typically a few dozen entries.
	for i := 1; i < len(c); i++ {
		for j := i; j > 0 && c[j].v.Distance < c[j-1].v.Distance; j-- {
			c[j], c[j-1] = c[j-1], c[j]
		}
	}
}

func animationPhase(e entity.Entity, assets AssetResolver) (animName string, phase float32) {
	if e.Animation == nil || e.Animation.ToAnimation == "" {
		return "", 0
	}
	duration := assets.AnimationDuration(e.ModelKey, e.Animation.ToAnimation)
	if duration <= 0 {
		return e.Animation.ToAnimation, 0
	}
	t := e.Animation.Elapsed
	for t >= duration {
		t -= duration
	}
	return e.Animation.ToAnimation, t / duration
}

func phaseBucketKey(normalizedPhase float32) string {
	bucket := int(normalizedPhase * AnimationPhaseBuckets)
	if bucket >= AnimationPhaseBuckets {
		bucket = AnimationPhaseBuckets - 1
	}
	if bucket < 0 {
		bucket = 0
	}
	return bucketDigits[bucket]
}

var bucketDigits = [AnimationPhaseBuckets]string{"0", "1", "2", "3", "4", "5", "6", "7"}

func distanceFade(dist, maxDistance, fadeStart float32) float32 {
	if maxDistance <= 0 {
		return 1
	}
	start := fadeStart * maxDistance
	if dist <= start {
		return 1
	}
	if dist >= maxDistance {
		return 0
	}
	return 1 - (dist-start)/(maxDistance-start)
}

// updateOcclusionState tracks camera motion between frames and returns
// whether HiZ testing is currently trusted. On a cut or fast
// pan/rotation it invalidates the test for WarmupFrames frames.
func (p *Pass) updateOcclusionState(cam Camera, occ OcclusionConfig) bool {
	if !p.hasLastCamera {
		p.hasLastCamera = true
		p.lastPosition = cam.Position
		p.lastForward = cam.Forward
		p.warmupRemaining = occ.WarmupFrames
		return false
	}

	moved := cam.Position.Sub(p.lastPosition).Length()
	rotated := angleBetween(p.lastForward, cam.Forward)
	p.lastPosition = cam.Position
	p.lastForward = cam.Forward

	if moved > occ.PositionThreshold || rotated > occ.RotationThreshold {
		p.warmupRemaining = occ.WarmupFrames
	}

	if p.warmupRemaining > 0 {
		p.warmupRemaining--
		return false
	}
	return true
}

func angleBetween(a, b mathutil.Vec3) float32 {
	la, lb := a.Length(), b.Length()
	if la == 0 || lb == 0 {
		return 0
	}
	cos := a.Dot(b) / (la * lb)
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}
	return float32(math.Acos(float64(cos)))
}

// occluded projects the sphere's bounding screen rectangle into tile
// coordinates. A sphere whose covered span is wider than MaxTileSpan
// tiles is too wide to trust and is never rejected; otherwise it is
// rejected if its nearest depth is strictly farther than the covered
// tiles' maximum min-depth scaled by Threshold.
func (p *Pass) occluded(world mathutil.Sphere, cam Camera, hiz HiZSource, occ OcclusionConfig) bool {
	dist := world.Center.Sub(cam.Position).Length()
	if dist <= world.Radius {
		return false // camera inside the sphere: never occluded
	}
	if cam.ScreenWidth <= 0 || cam.ScreenHeight <= 0 {
		return false
	}

	clip := cam.ViewProj.MulVec4(world.Center.ToVec4(1))
	if clip.W <= 0.0001 {
		return false // behind or at the camera; the frustum test handles rejection
	}
	ndcX := clip.X / clip.W
	ndcY := clip.Y / clip.W

	pixelRadius := mathutil.ProjectedPixelRadius(world.Radius, dist, cam.ScreenHeight, cam.FovYRadians)
	tileSize := float32(hiz.TileSize())
	if tileSize <= 0 {
		return false
	}

	screenX := (ndcX*0.5 + 0.5) * cam.ScreenWidth
	screenY := (1 - (ndcY*0.5 + 0.5)) * cam.ScreenHeight

	minTileX := int((screenX - pixelRadius) / tileSize)
	maxTileX := int((screenX + pixelRadius) / tileSize)
	minTileY := int((screenY - pixelRadius) / tileSize)
	maxTileY := int((screenY + pixelRadius) / tileSize)

	span := maxTileX - minTileX + 1
	if rowSpan := maxTileY - minTileY + 1; rowSpan > span {
		span = rowSpan
	}
	if span > occ.MaxTileSpan {
		return false // footprint too large to trust a coarse HiZ test
	}

	cols, rows := hiz.Dimensions()
	nearestDepth := dist - world.Radius
	var maxOfMins float32
	found := false
	for ty := minTileY; ty <= maxTileY; ty++ {
		if ty < 0 || ty >= rows {
			continue
		}
		for tx := minTileX; tx <= maxTileX; tx++ {
			if tx < 0 || tx >= cols {
				continue
			}
			min, _, ok := hiz.MinMax(tx, ty)
			if !ok {
				continue
			}
			if !found || min > maxOfMins {
				maxOfMins = min
				found = true
			}
		}
	}
	if !found {
		return false
	}
	return nearestDepth > maxOfMins*occ.Threshold
}
