// Package entity holds the flat entity store: the engine's only mutable
// scene input. Entities are created and destroyed by the host
// application; the engine never mutates entity state itself.
package entity

import (
	"sync"
	"sync/atomic"

	"github.com/bitofgold/topazcube/internal/mathutil"
)

// ID identifies an entity. Zero is never issued by Store.Create.
type ID uint64

// LightType discriminates the optional light record on an entity.
type LightType int

const (
	LightNone LightType = iota
	LightDirectional
	LightPoint
	LightSpot
)

// Light is the host-facing light record attached to an entity.
type Light struct {
	Type       LightType
	Color      mathutil.Vec4 // rgb + intensity in alpha
	Radius     float32
	InnerCone  float32 // cosine of inner half-angle
	OuterCone  float32 // cosine of outer half-angle
	Enabled    bool
}

// AnimationState is an entity's current skeletal animation blend
// state. It may be transitioning from one clip to another, weighted by
// Weight and advancing through Elapsed seconds of the target clip;
// Weight 0 means fully FromAnimation, Weight 1 means fully ToAnimation.
type AnimationState struct {
	FromAnimation string
	FromTime      float32
	ToAnimation   string
	Weight        float32
	Elapsed       float32
}

// Entity is one scene object: a transform, an optional model reference,
// an optional light, and rendering modifiers (UV transform, tint,
// static flag). ModelKey is "path|mesh" or empty for a light-only or
// transform-only entity.
type Entity struct {
	ID       ID
	Position mathutil.Vec3
	Rotation mathutil.Quaternion
	Scale    mathutil.Vec3
	ModelKey string

	Light *Light

	// Animation is nil for non-skinned entities and for skinned
	// entities that haven't started playing a clip yet.
	Animation *AnimationState

	UVTransform mathutil.Vec4 // offset.xy, scale.xy; default (0,0,1,1)
	Color       mathutil.Vec4 // rgba tint; default (1,1,1,1)

	// Static entities skip per-frame instance-data reset; the loader
	// marks world-placed, never-moving meshes this way.
	Static bool

	// BoundingSphere is the entity's local-space bounding sphere, as
	// recorded by Store.SetBoundingSphere. Zero radius until then.
	BoundingSphere mathutil.Sphere
}

// Data is the host-facing creation/update payload; zero-value fields
// are defaults (identity transform, unit scale, white tint, full UV
// rect), matching the Scene API contract.
type Data struct {
	Position mathutil.Vec3
	Rotation mathutil.Quaternion
	Scale    mathutil.Vec3
	ModelKey  string
	Light     *Light
	Animation *AnimationState

	UVTransform mathutil.Vec4
	Color       mathutil.Vec4
	Static      bool
}

// DefaultData returns a Data with the Scene API's documented defaults
// applied (unit scale, identity rotation, full UV rect, white tint).
func DefaultData() Data {
	return Data{
		Rotation:    mathutil.QuaternionIdentity(),
		Scale:       mathutil.Vec3One,
		UVTransform: mathutil.Vec4{X: 0, Y: 0, Z: 1, W: 1},
		Color:       mathutil.Vec4{X: 1, Y: 1, Z: 1, W: 1},
	}
}

// Store is the flat id -> entity map. Safe for concurrent use; the
// render loop and the host's entity-mutation calls may run on
// different goroutines between frames.
type Store struct {
	mu      sync.RWMutex
	entries map[ID]*Entity
	nextID  atomic.Uint64
}

// NewStore creates an empty entity store.
func NewStore() *Store {
	return &Store{entries: make(map[ID]*Entity)}
}

// Create inserts a new entity built from data, applying DefaultData's
// zero-value fallbacks for unset fields, and returns its id.
func (s *Store) Create(data Data) ID {
	if data.Rotation == (mathutil.Quaternion{}) {
		data.Rotation = mathutil.QuaternionIdentity()
	}
	if data.Scale == (mathutil.Vec3{}) {
		data.Scale = mathutil.Vec3One
	}
	if data.UVTransform == (mathutil.Vec4{}) {
		data.UVTransform = mathutil.Vec4{X: 0, Y: 0, Z: 1, W: 1}
	}
	if data.Color == (mathutil.Vec4{}) {
		data.Color = mathutil.Vec4{X: 1, Y: 1, Z: 1, W: 1}
	}

	id := ID(s.nextID.Add(1))
	e := &Entity{
		ID:          id,
		Position:    data.Position,
		Rotation:    data.Rotation,
		Scale:       data.Scale,
		ModelKey:    data.ModelKey,
		Light:       data.Light,
		Animation:   data.Animation,
		UVTransform: data.UVTransform,
		Color:       data.Color,
		Static:      data.Static,
	}

	s.mu.Lock()
	s.entries[id] = e
	s.mu.Unlock()

	return id
}

// Update applies delta to an existing entity's data, using the host's
// documented partial-update semantics: a nil Light leaves the existing
// light record unchanged; non-nil replaces it wholesale. Returns false
// if id does not exist.
func (s *Store) Update(id ID, delta Data) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return false
	}

	e.Position = delta.Position
	e.Rotation = delta.Rotation
	e.Scale = delta.Scale
	e.ModelKey = delta.ModelKey
	if delta.Light != nil {
		e.Light = delta.Light
	}
	if delta.Animation != nil {
		e.Animation = delta.Animation
	}
	e.UVTransform = delta.UVTransform
	e.Color = delta.Color
	e.Static = delta.Static
	return true
}

// Delete removes an entity. Returns false if id did not exist.
func (s *Store) Delete(id ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[id]; !ok {
		return false
	}
	delete(s.entries, id)
	return true
}

// Get returns a copy of the entity's current data and true, or a zero
// Entity and false if it does not exist.
func (s *Store) Get(id ID) (Entity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[id]
	if !ok {
		return Entity{}, false
	}
	return *e, true
}

// SetBoundingSphere records the asset-derived local bounding sphere for
// an entity. Nothing in this module calls it; Create leaves the sphere
// at zero radius.
func (s *Store) SetBoundingSphere(id ID, sphere mathutil.Sphere) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[id]; ok {
		e.BoundingSphere = sphere
	}
}

// SetAnimationState records the skinned-entity animation blend state
// for an entity, replacing any previous state. Nothing in this module
// calls it.
func (s *Store) SetAnimationState(id ID, state AnimationState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[id]; ok {
		e.Animation = &state
	}
}

// Len returns the number of live entities.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// ForEach calls fn for every live entity in an unspecified order. fn
// must not call back into the Store (Create/Update/Delete) — ForEach
// holds the read lock for its duration.
func (s *Store) ForEach(fn func(Entity)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.entries {
		fn(*e)
	}
}
