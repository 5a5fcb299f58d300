// Package shadow builds the cascade and spot shadow atlases: cascade
// projection matrices centered on the camera, per-cascade visibility
// filtering against the culling pass's output, and an LRU slot
// assignment for spot shadows sharing one small atlas texture.
package shadow

import (
	"math"
	"sort"

	"github.com/bitofgold/topazcube/internal/cull"
	"github.com/bitofgold/topazcube/internal/entity"
	"github.com/bitofgold/topazcube/internal/mathutil"
)

// MaxSpotShadows is the number of slots in the spot shadow atlas's
// 4x4 grid.
const MaxSpotShadows = 16

// SpotTilesPerRow is the atlas grid dimension (4x4 = MaxSpotShadows).
const SpotTilesPerRow = 4

// NoShadowSlot is the shadowIndex value for a light that currently has
// no assigned shadow slot.
const NoShadowSlot = -1

// Config mirrors the shadow settings group: cascade geometry, the spot
// atlas's capacity and fade distances, and the bias terms applied at
// draw and sample time.
type Config struct {
	CascadeCount int
	// CascadeSizes holds the half-width in world units of each
	// cascade's square orthographic frustum, nearest first.
	CascadeSizes []float32
	MapSize      int

	SpotTileSize    int
	SpotAtlasSize   int
	SpotMaxDistance float32
	SpotFadeStart   float32

	Bias        float32
	NormalBias  float32
	SurfaceBias float32
	Strength    float32
}

// Cascade is one directional-light cascade's render target: a
// view-projection matrix and the world-space bounding sphere used to
// filter instances against it.
type Cascade struct {
	ViewProj mathutil.Mat4
	Sphere   mathutil.Sphere
}

// BuildCascades constructs N square orthographic cascades facing
// lightDir, each centered on the camera position itself (camera Y
// included; no separate light-plane height is used), with half-width
// cfg.CascadeSizes[i].
func BuildCascades(cfg Config, cameraPos mathutil.Vec3, lightDir mathutil.Vec3) []Cascade {
	n := cfg.CascadeCount
	if n > len(cfg.CascadeSizes) {
		n = len(cfg.CascadeSizes)
	}

	lightDir = lightDir.Normalize()
	up := mathutil.Vec3{Y: 1}
	if math.Abs(float64(lightDir.Y)) > 0.999 {
		up = mathutil.Vec3{X: 1}
	}

	cascades := make([]Cascade, 0, n)
	for i := 0; i < n; i++ {
		halfWidth := cfg.CascadeSizes[i]
		center := mathutil.Vec3{X: cameraPos.X, Y: cameraPos.Y, Z: cameraPos.Z}
		eye := center.Sub(lightDir.Mul(halfWidth * 2))

		view := mathutil.Mat4LookAt(eye, center, up)
		proj := mathutil.Mat4Orthographic(-halfWidth, halfWidth, -halfWidth, halfWidth, 0.05, halfWidth*4)

		cascades = append(cascades, Cascade{
			ViewProj: proj.Mul(view),
			Sphere: mathutil.Sphere{
				Center: center,
				Radius: halfWidth * float32(math.Sqrt2),
			},
		})
	}
	return cascades
}

// FilterForCascade returns the subset of visible instances whose
// world-space bounding sphere intersects the cascade's coverage
// sphere, so a batch that can't possibly shadow the cascade's area is
// never uploaded to it.
func FilterForCascade(cascade Cascade, visible []cull.Visible, assets cull.AssetResolver, entities *entity.Store) []cull.Visible {
	out := make([]cull.Visible, 0, len(visible))
	for _, v := range visible {
		local, ok := assets.BoundingSphere(v.ModelKey)
		if !ok {
			continue
		}
		e, ok := entities.Get(v.Entity)
		if !ok {
			continue
		}
		world := local.Transform(mathutil.Mat4TRS(e.Position, e.Rotation, e.Scale))
		if spheresIntersect(world, cascade.Sphere) {
			out = append(out, v)
		}
	}
	return out
}

func spheresIntersect(a, b mathutil.Sphere) bool {
	d := a.Center.Sub(b.Center).Length()
	return d <= a.Radius+b.Radius
}

// SpotLight is the subset of a spot light entity's state the atlas
// needs to build its shadow matrix and fade.
type SpotLight struct {
	Entity    entity.ID
	Position  mathutil.Vec3
	Direction mathutil.Vec3
	OuterCone float32 // radians, full cone half-angle
	Radius    float32
	Distance  float32 // distance from camera, for the far fade
}

// SpotSlotResult is one light's resolved slot assignment: either a
// live atlas slot with a fresh shadow matrix, or NoShadowSlot with a
// fade factor for lights beyond SpotMaxDistance.
type SpotSlotResult struct {
	Light      entity.ID
	Slot       int // NoShadowSlot if none assigned
	ShadowProj mathutil.Mat4
	Fade       float32 // 1 = full shadow strength, 0 = SPOT_MIN_SHADOW
}

// SpotAtlas assigns the spot shadow atlas's MaxSpotShadows slots to
// visible spot lights each frame. Slots keyed by light id persist
// across frames when the light is still visible; a least-recently-used
// policy reclaims slots for new lights once the atlas is full.
type SpotAtlas struct {
	slotOwner [MaxSpotShadows]entity.ID
	lastUsed  [MaxSpotShadows]uint64
	occupied  [MaxSpotShadows]bool
	frame     uint64
}

// NewSpotAtlas creates an empty spot shadow atlas.
func NewSpotAtlas() *SpotAtlas {
	return &SpotAtlas{}
}

// Assign resolves slot ownership for this frame's visible spot lights,
// farthest lights beyond cfg.SpotMaxDistance receiving NoShadowSlot
// with a fade computed from cfg.SpotFadeStart. Lights are processed
// nearest-first so a slot eviction always prefers to keep the closest
// lights lit.
func (a *SpotAtlas) Assign(cfg Config, lights []SpotLight) []SpotSlotResult {
	a.frame++

	sorted := make([]SpotLight, len(lights))
	copy(sorted, lights)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Distance < sorted[j].Distance })

	results := make([]SpotSlotResult, 0, len(sorted))
	assignedThisFrame := make(map[int]bool, MaxSpotShadows)

	for _, l := range sorted {
		fade := distanceFade(l.Distance, cfg.SpotMaxDistance, cfg.SpotFadeStart)
		if l.Distance >= cfg.SpotMaxDistance {
			results = append(results, SpotSlotResult{Light: l.Entity, Slot: NoShadowSlot, Fade: 0})
			continue
		}

		slot := a.findExistingSlot(l.Entity)
		if slot == -1 {
			slot = a.findFreeSlot(assignedThisFrame)
		}
		if slot == -1 {
			slot = a.findEvictableSlot(assignedThisFrame)
		}

		proj := BuildSpotMatrix(l)
		if slot == -1 {
			// Atlas fully committed to closer lights this frame.
			results = append(results, SpotSlotResult{Light: l.Entity, Slot: NoShadowSlot, ShadowProj: proj, Fade: fade})
			continue
		}

		a.slotOwner[slot] = l.Entity
		a.occupied[slot] = true
		a.lastUsed[slot] = a.frame
		assignedThisFrame[slot] = true

		results = append(results, SpotSlotResult{Light: l.Entity, Slot: slot, ShadowProj: proj, Fade: fade})
	}

	return results
}

func (a *SpotAtlas) findExistingSlot(light entity.ID) int {
	for i, occ := range a.occupied {
		if occ && a.slotOwner[i] == light {
			return i
		}
	}
	return -1
}

func (a *SpotAtlas) findFreeSlot(taken map[int]bool) int {
	for i, occ := range a.occupied {
		if !occ && !taken[i] {
			return i
		}
	}
	return -1
}

func (a *SpotAtlas) findEvictableSlot(taken map[int]bool) int {
	best := -1
	for i := range a.occupied {
		if taken[i] {
			continue
		}
		if best == -1 || a.lastUsed[i] < a.lastUsed[best] {
			best = i
		}
	}
	return best
}

// SlotOrigin returns the pixel offset of slot within the spot atlas
// texture's 4x4 grid.
func SlotOrigin(cfg Config, slot int) (x, y int) {
	row := slot / SpotTilesPerRow
	col := slot % SpotTilesPerRow
	return col * cfg.SpotTileSize, row * cfg.SpotTileSize
}

// BuildSpotMatrix derives a spot light's view-projection matrix from
// its position, direction, and outer cone half-angle.
func BuildSpotMatrix(l SpotLight) mathutil.Mat4 {
	dir := l.Direction.Normalize()
	up := mathutil.Vec3{Y: 1}
	if math.Abs(float64(dir.Y)) > 0.999 {
		up = mathutil.Vec3{X: 1}
	}
	view := mathutil.Mat4LookAt(l.Position, l.Position.Add(dir), up)
	proj := mathutil.Mat4Perspective(l.OuterCone*2, 1, 0.05, l.Radius)
	return proj.Mul(view)
}

func distanceFade(dist, maxDistance, fadeStart float32) float32 {
	if maxDistance <= 0 {
		return 1
	}
	startDist := maxDistance * fadeStart
	if dist <= startDist {
		return 1
	}
	if dist >= maxDistance {
		return 0
	}
	return 1 - (dist-startDist)/(maxDistance-startDist)
}
