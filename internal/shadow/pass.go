package shadow

import (
	"github.com/bitofgold/topazcube/internal/cull"
	"github.com/bitofgold/topazcube/internal/entity"
	"github.com/bitofgold/topazcube/internal/mathutil"
)

// State is a shadow pass's position in its per-frame lifecycle.
type State int

const (
	StateIdle State = iota
	StateCollectingFilters
	StateRenderingCascades
	StateRenderingSpotSlots
	StatePublished
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCollectingFilters:
		return "collecting filters"
	case StateRenderingCascades:
		return "rendering cascades"
	case StateRenderingSpotSlots:
		return "rendering spot slots"
	case StatePublished:
		return "published matrices"
	default:
		return "unknown"
	}
}

// Result is one frame's shadow pass output: the matrices and per-slot
// draw lists the lighting pass and the draw submission step consume.
type Result struct {
	Cascades         []Cascade
	CascadeFiltered  [][]cull.Visible
	SpotSlots        []SpotSlotResult
	SpotFiltered     map[int][]cull.Visible // keyed by atlas slot
}

// Pass drives the shadow system's per-frame state machine and owns
// the spot atlas's cross-frame slot assignment.
type Pass struct {
	cfg   Config
	atlas *SpotAtlas
	state State
}

// NewPass creates a shadow pass with its own persistent spot atlas.
func NewPass(cfg Config) *Pass {
	return &Pass{cfg: cfg, atlas: NewSpotAtlas(), state: StateIdle}
}

// State reports the pass's current lifecycle position.
func (p *Pass) State() State { return p.state }

// Run executes one full frame of the shadow pass: cascade
// construction, per-cascade filtering, spot atlas slot assignment, and
// spot filtering, advancing through every state in order and leaving
// the pass StatePublished on return.
func (p *Pass) Run(
	cameraPos, lightDir mathutil.Vec3,
	visible []cull.Visible,
	spotLights []SpotLight,
	assets cull.AssetResolver,
	entities *entity.Store,
) Result {
	p.state = StateCollectingFilters

	cascades := BuildCascades(p.cfg, cameraPos, lightDir)
	cascadeFiltered := make([][]cull.Visible, len(cascades))
	for i, c := range cascades {
		cascadeFiltered[i] = FilterForCascade(c, visible, assets, entities)
	}

	p.state = StateRenderingCascades
	// Cascade draw submission happens in the render-graph layer; this
	// pass only produces the matrices and filtered lists it needs.

	p.state = StateRenderingSpotSlots
	spotSlots := p.atlas.Assign(p.cfg, spotLights)
	spotFiltered := make(map[int][]cull.Visible, len(spotSlots))
	for _, s := range spotSlots {
		if s.Slot == NoShadowSlot {
			continue
		}
		spotFiltered[s.Slot] = FilterForCascade(Cascade{Sphere: spotBoundingSphere(spotLights, s.Light)}, visible, assets, entities)
	}

	p.state = StatePublished

	return Result{
		Cascades:        cascades,
		CascadeFiltered: cascadeFiltered,
		SpotSlots:       spotSlots,
		SpotFiltered:    spotFiltered,
	}
}

func spotBoundingSphere(lights []SpotLight, id entity.ID) mathutil.Sphere {
	for _, l := range lights {
		if l.Entity == id {
			return mathutil.Sphere{Center: l.Position, Radius: l.Radius}
		}
	}
	return mathutil.Sphere{}
}
