// Package asset loads and caches the models entities reference:
// geometry, material, an optional skin, and a combined bounding
// sphere, keyed by the "path" or "path|mesh" reference the scene's
// Entity.ModelKey contract uses.
package asset

import (
	"github.com/bitofgold/topazcube/gpucore"
	"github.com/bitofgold/topazcube/internal/mathutil"
)

// MaterialProps is the subset of PBR material properties the G-buffer
// pass consumes. Texture fields are source-relative URIs resolved by
// the host's own texture loader; this package never decodes pixels.
type MaterialProps struct {
	Name          string
	Albedo        mathutil.Vec4
	AlbedoTexture string
	NormalTexture string
	Roughness     float32
	Metallic      float32
	Emissive      mathutil.Vec3
	SpecularBoost float32
	DoubleSided   bool
}

// Primitive is one drawable piece of a model: a vertex/index buffer
// pair sharing one material. Skinned is set once the owning Asset's
// skin (if any) is resolved.
type Primitive struct {
	Vertices []gpucore.Vertex
	Indices  []uint32
	Material MaterialProps
	Skinned  bool
}

// AnimationPath discriminates which transform channel an animation
// sampler drives.
type AnimationPath int

const (
	PathTranslation AnimationPath = iota
	PathRotation
	PathScale
)

// Interpolation discriminates a sampler's interpolation mode.
type Interpolation int

const (
	InterpLinear Interpolation = iota
	InterpStep
	InterpCubicSpline
)

// Sampler holds one animation channel's keyframe data. Values are
// 3-component for translation/scale and 4-component (quaternion) for
// rotation; the unused lane is left zero.
type Sampler struct {
	Times         []float32
	Values        [][4]float32
	Interpolation Interpolation
}

// Channel drives one joint's transform over time.
type Channel struct {
	TargetJoint int
	Path        AnimationPath
	Sampler     Sampler
}

// Animation is a named set of channels sharing a duration.
type Animation struct {
	Name     string
	Duration float32
	Channels []Channel
}

// Skin is the joint hierarchy and animation set shared by every
// skinned primitive in an asset. JointNames and InverseBind are
// parallel, ordered by joint index.
type Skin struct {
	JointNames  []string
	InverseBind []mathutil.Mat4
	Animations  map[string]Animation
}

// Asset is one loaded model: its drawable primitives, optional skin,
// and a combined bounding sphere. Per the model's culling invariant,
// if any primitive is skinned the bounding sphere is the union over
// every primitive's positions, not just the skinned one, so rigid
// sibling parts share the skinned part's culling fate — this package
// always computes the union, skinned or not, since an Asset has
// exactly one bounding sphere regardless of primitive count.
type Asset struct {
	Key            string
	Primitives     []Primitive
	Skin           *Skin
	BoundingSphere mathutil.Sphere
}

// HasSkin reports whether the asset carries joint/animation data.
func (a *Asset) HasSkin() bool {
	return a.Skin != nil
}
