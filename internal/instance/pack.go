package instance

import (
	"github.com/bitofgold/topazcube/gpucore"
	"github.com/bitofgold/topazcube/internal/cull"
	"github.com/bitofgold/topazcube/internal/entity"
	"github.com/bitofgold/topazcube/internal/mathutil"
)

// EntitySource resolves per-entity state for packing without pulling
// in the entity package's Store concretely, keeping the builder
// testable with a fake.
type EntitySource interface {
	Get(id entity.ID) (entity.Entity, bool)
}

// AssetSource resolves an asset's local-space bounding sphere, for
// transforming into the world-space sphere packed alongside the model
// matrix.
type AssetSource interface {
	BoundingSphere(modelKey string) (mathutil.Sphere, bool)
}

// Batch is one model's instanced draw data: a buffer acquired from the
// pool, packed with exactly InstanceCount live instances.
type Batch struct {
	Buffer        Buffer
	InstanceCount int
	HasSkin       bool
}

// BuildInstance packs one entity's GPU instance record. A static
// entity's bounding-sphere radius is encoded negative, the sentinel
// that tells the vertex stage to skip per-pixel rounding for this
// instance.
func BuildInstance(e entity.Entity, worldSphere mathutil.Sphere) gpucore.Instance {
	radius := worldSphere.Radius
	if e.Static {
		radius = -radius
	}

	m := mathutil.Mat4TRS(e.Position, e.Rotation, e.Scale)
	return gpucore.Instance{
		Model:          m.ColumnMajor(),
		BoundingSphere: [4]float32{worldSphere.Center.X, worldSphere.Center.Y, worldSphere.Center.Z, radius},
		UVTransform:    [4]float32{e.UVTransform.X, e.UVTransform.Y, e.UVTransform.Z, e.UVTransform.W},
		Color:          [4]float32{e.Color.X, e.Color.Y, e.Color.Z, e.Color.W},
	}
}

// Pack serializes instances into one contiguous byte buffer
// (len(instances) * gpucore.InstanceStride bytes) for upload.
func Pack(instances []gpucore.Instance) []byte {
	buf := make([]byte, len(instances)*gpucore.InstanceStride)
	for i := range instances {
		copy(buf[i*gpucore.InstanceStride:], instances[i].Marshal())
	}
	return buf
}

// Builder turns one culling pass's visibility groups into GPU-ready
// batches, acquiring buffers from a Pool and packing live instances
// into them.
type Builder struct {
	pool     *Pool
	entities EntitySource
	assets   AssetSource
}

// NewBuilder creates a batch builder backed by pool, resolving entity
// and asset data through entities and assets.
func NewBuilder(pool *Pool, entities EntitySource, assets AssetSource) *Builder {
	return &Builder{pool: pool, entities: entities, assets: assets}
}

// Build acquires one pooled buffer per model key in byModel, packs its
// visible instances, and uploads the exact N*InstanceStride byte
// range. Callers must return the previous call's buffers to the pool
// (via Pool.ReleaseAll) before calling Build again.
func (b *Builder) Build(byModel map[string][]cull.Visible) map[string]Batch {
	out := make(map[string]Batch, len(byModel))

	for modelKey, visibles := range byModel {
		if len(visibles) == 0 {
			continue
		}

		localSphere, ok := b.assets.BoundingSphere(modelKey)
		if !ok {
			continue
		}

		instances := make([]gpucore.Instance, 0, len(visibles))
		hasSkin := false
		for _, v := range visibles {
			e, ok := b.entities.Get(v.Entity)
			if !ok {
				continue
			}
			world := localSphere.Transform(mathutil.Mat4TRS(e.Position, e.Rotation, e.Scale))
			instances = append(instances, BuildInstance(e, world))
			hasSkin = hasSkin || v.Skinned
		}
		if len(instances) == 0 {
			continue
		}

		buf := b.pool.Acquire(len(instances))
		b.pool.alloc.WriteInstanceBuffer(buf.Handle, Pack(instances))

		out[modelKey] = Batch{Buffer: buf, InstanceCount: len(instances), HasSkin: hasSkin}
	}

	return out
}
