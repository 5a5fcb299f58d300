package gpucore

import (
	"encoding/binary"
	"math"
)

// Resource IDs
//
// These opaque IDs represent GPU resources. Each adapter implementation
// maintains a mapping between IDs and actual backend resources.
// IDs are uint64 to accommodate various backend handle sizes.

// BufferID is an opaque handle to a GPU buffer.
type BufferID uint64

// TextureID is an opaque handle to a GPU texture.
type TextureID uint64

// ShaderModuleID is an opaque handle to a compiled shader module.
type ShaderModuleID uint64

// ComputePipelineID is an opaque handle to a compute pipeline.
type ComputePipelineID uint64

// BindGroupLayoutID is an opaque handle to a bind group layout.
type BindGroupLayoutID uint64

// BindGroupID is an opaque handle to a bind group.
type BindGroupID uint64

// PipelineLayoutID is an opaque handle to a pipeline layout.
type PipelineLayoutID uint64

// InvalidID is the zero value, representing an invalid/null resource.
const InvalidID = 0

// BufferUsage is a bitmask specifying how a buffer will be used.
type BufferUsage uint32

// Buffer usage flags.
const (
	// BufferUsageMapRead indicates the buffer can be mapped for reading.
	BufferUsageMapRead BufferUsage = 1 << 0

	// BufferUsageMapWrite indicates the buffer can be mapped for writing.
	BufferUsageMapWrite BufferUsage = 1 << 1

	// BufferUsageCopySrc indicates the buffer can be used as a copy source.
	BufferUsageCopySrc BufferUsage = 1 << 2

	// BufferUsageCopyDst indicates the buffer can be used as a copy destination.
	BufferUsageCopyDst BufferUsage = 1 << 3

	// BufferUsageIndex indicates the buffer can be used as an index buffer.
	BufferUsageIndex BufferUsage = 1 << 4

	// BufferUsageVertex indicates the buffer can be used as a vertex buffer.
	BufferUsageVertex BufferUsage = 1 << 5

	// BufferUsageUniform indicates the buffer can be used as a uniform buffer.
	BufferUsageUniform BufferUsage = 1 << 6

	// BufferUsageStorage indicates the buffer can be used as a storage buffer.
	BufferUsageStorage BufferUsage = 1 << 7

	// BufferUsageIndirect indicates the buffer can be used for indirect dispatch/draw.
	BufferUsageIndirect BufferUsage = 1 << 8
)

// TextureFormat specifies the format of texture data.
type TextureFormat uint32

// Texture formats.
const (
	// TextureFormatRGBA8Unorm is 8-bit RGBA, normalized unsigned integer.
	TextureFormatRGBA8Unorm TextureFormat = iota + 1

	// TextureFormatRGBA8UnormSRGB is 8-bit RGBA, normalized unsigned integer in sRGB color space.
	TextureFormatRGBA8UnormSRGB

	// TextureFormatBGRA8Unorm is 8-bit BGRA, normalized unsigned integer.
	TextureFormatBGRA8Unorm

	// TextureFormatBGRA8UnormSRGB is 8-bit BGRA, normalized unsigned integer in sRGB color space.
	TextureFormatBGRA8UnormSRGB

	// TextureFormatR8Unorm is 8-bit red channel only, normalized unsigned integer.
	TextureFormatR8Unorm

	// TextureFormatR32Float is 32-bit red channel only, floating point.
	TextureFormatR32Float

	// TextureFormatRG32Float is 32-bit RG, floating point.
	TextureFormatRG32Float

	// TextureFormatRGBA32Float is 32-bit RGBA, floating point.
	TextureFormatRGBA32Float
)

// TextureUsage is a bitmask specifying how a texture will be used.
type TextureUsage uint32

// Texture usage flags.
const (
	// TextureUsageCopySrc indicates the texture can be used as a copy source.
	TextureUsageCopySrc TextureUsage = 1 << 0

	// TextureUsageCopyDst indicates the texture can be used as a copy destination.
	TextureUsageCopyDst TextureUsage = 1 << 1

	// TextureUsageTextureBinding indicates the texture can be bound as a sampled texture.
	TextureUsageTextureBinding TextureUsage = 1 << 2

	// TextureUsageStorageBinding indicates the texture can be bound as a storage texture.
	TextureUsageStorageBinding TextureUsage = 1 << 3

	// TextureUsageRenderAttachment indicates the texture can be used as a render target.
	TextureUsageRenderAttachment TextureUsage = 1 << 4
)

// BindingType specifies the type of a shader binding.
type BindingType uint32

// Binding types.
const (
	// BindingTypeUniformBuffer is a uniform buffer binding.
	BindingTypeUniformBuffer BindingType = iota + 1

	// BindingTypeStorageBuffer is a storage buffer binding (read-write).
	BindingTypeStorageBuffer

	// BindingTypeReadOnlyStorageBuffer is a read-only storage buffer binding.
	BindingTypeReadOnlyStorageBuffer

	// BindingTypeSampler is a texture sampler binding.
	BindingTypeSampler

	// BindingTypeSampledTexture is a sampled texture binding.
	BindingTypeSampledTexture

	// BindingTypeStorageTexture is a storage texture binding.
	BindingTypeStorageTexture
)

// ComputePipelineDesc describes a compute pipeline.
type ComputePipelineDesc struct {
	// Label is an optional debug label.
	Label string

	// Layout is the pipeline layout.
	Layout PipelineLayoutID

	// ShaderModule contains the compute shader.
	ShaderModule ShaderModuleID

	// EntryPoint is the name of the shader entry point function.
	EntryPoint string
}

// BindGroupLayoutDesc describes a bind group layout.
type BindGroupLayoutDesc struct {
	// Label is an optional debug label.
	Label string

	// Entries defines the bindings in this layout.
	Entries []BindGroupLayoutEntry
}

// BindGroupLayoutEntry describes a single binding in a bind group layout.
type BindGroupLayoutEntry struct {
	// Binding is the binding index.
	Binding uint32

	// Type is the type of resource bound at this index.
	Type BindingType

	// MinBindingSize is the minimum buffer size for buffer bindings.
	// Set to 0 for non-buffer bindings.
	MinBindingSize uint64
}

// BindGroupEntry describes a single binding in a bind group.
type BindGroupEntry struct {
	// Binding is the binding index.
	Binding uint32

	// Buffer is the buffer to bind (for buffer bindings).
	Buffer BufferID

	// Offset is the offset into the buffer.
	Offset uint64

	// Size is the size of the buffer range to bind.
	// Use 0 to bind the entire buffer from offset.
	Size uint64

	// Texture is the texture to bind (for texture bindings).
	Texture TextureID
}

// BindGroupDesc describes a bind group.
type BindGroupDesc struct {
	// Label is an optional debug label.
	Label string

	// Layout is the bind group layout.
	Layout BindGroupLayoutID

	// Entries are the resource bindings.
	Entries []BindGroupEntry
}

// GPU Data Structures
//
// These structures mirror the WGSL shader data layouts used for CPU-GPU
// data transfer: the vertex/instance geometry streams, the light storage
// buffer, the cascade/spot shadow matrices, and the tile light culling
// uniforms. Each carries a Size (for buffer sizing) and a Marshal method
// (little-endian, std430-compatible) so callers never hand-roll offsets.

// VertexStride is the byte size of one Vertex: position(3) + uv(2) +
// normal(3) + color(4) + skin weights(4) + skin joint indices(4) = 20
// float32 lanes.
const VertexStride = 80

// Vertex is the fixed interleaved vertex layout shared by every mesh in
// the scene. Skin weights/joints are present even on non-skinned meshes
// (zero weight, joint index 0) so a single pipeline layout serves both.
type Vertex struct {
	Position    [3]float32 // offset  0
	UV          [2]float32 // offset 12
	Normal      [3]float32 // offset 20
	Color       [4]float32 // offset 32
	SkinWeights [4]float32 // offset 48
	SkinJoints  [4]uint32  // offset 64: joint indices, reinterpreted as float bits on upload
}

// Size returns the size of Vertex in bytes (VertexStride).
func (v *Vertex) Size() int { return VertexStride }

// Marshal serializes the vertex into an 80-byte little-endian buffer.
func (v *Vertex) Marshal() []byte {
	buf := make([]byte, VertexStride)
	off := 0
	putF32s := func(vals []float32) {
		for _, f := range vals {
			binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(f))
			off += 4
		}
	}
	putF32s(v.Position[:])
	putF32s(v.UV[:])
	putF32s(v.Normal[:])
	putF32s(v.Color[:])
	putF32s(v.SkinWeights[:])
	for _, j := range v.SkinJoints {
		binary.LittleEndian.PutUint32(buf[off:off+4], j)
		off += 4
	}
	return buf
}

// InstanceStride is the byte size of one Instance: model matrix(16) +
// bounding-sphere center+radius(4) + UV transform(4) + instance color(4)
// = 28 float32 lanes.
const InstanceStride = 112

// Instance is one entry of the growable per-instance buffer. The
// bounding sphere is carried alongside the model matrix so the culling
// pass never re-derives it from the matrix.
type Instance struct {
	Model          [16]float32 // offset  0: model-to-world transform
	BoundingSphere [4]float32  // offset 64: center.xyz, radius
	UVTransform    [4]float32  // offset 80: offset.xy, scale.xy
	Color          [4]float32  // offset 96: per-instance tint
}

// Size returns the size of Instance in bytes (InstanceStride).
func (i *Instance) Size() int { return InstanceStride }

// Marshal serializes the instance into a 112-byte little-endian buffer.
func (i *Instance) Marshal() []byte {
	buf := make([]byte, InstanceStride)
	off := 0
	putF32s := func(vals []float32) {
		for _, f := range vals {
			binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(f))
			off += 4
		}
	}
	putF32s(i.Model[:])
	putF32s(i.BoundingSphere[:])
	putF32s(i.UVTransform[:])
	putF32s(i.Color[:])
	return buf
}

// MaxGPULights is the maximum number of lights marshaled into the light
// storage buffer per frame; the tile light culling pass indexes into
// this bounded list.
const MaxGPULights = 1024

// Light type discriminants, matching the WGSL Light struct's light_type field.
const (
	LightTypeDirectional uint32 = iota
	LightTypePoint
	LightTypeSpot
)

// GPULightSize is the byte size of one light record in the light
// storage buffer.
const GPULightSize = 96

// NoShadowIndex is the ShadowIndex value for a light with no shadow
// map this frame.
const NoShadowIndex int32 = -1

// GPULight is the GPU-aligned representation of a single light source:
// one 96-byte record in the light storage buffer. Geom packs the
// attenuation and cone terms with the shadow distance fade (1 =
// unfaded, 0 = fully faded to the constant minimum shadow), and
// ShadowIndex is the spot atlas slot 0..15 or NoShadowIndex.
type GPULight struct {
	Enabled     uint32     // offset  0: 0 = skipped by the culling pass
	LightType   uint32     // offset  4
	Position    [3]float32 // offset 16: world-space position (point/spot)
	Color       [4]float32 // offset 32: rgb, intensity in w
	Direction   [3]float32 // offset 48: normalized direction (directional/spot)
	Geom        [4]float32 // offset 64: radius, cos(inner), cos(outer), distance fade
	ShadowIndex int32      // offset 80: spot atlas slot, NoShadowIndex = none
}

// Size returns the size of GPULight in bytes (96).
func (g *GPULight) Size() int { return GPULightSize }

// Marshal serializes the light into a 96-byte little-endian buffer,
// vec3 fields padded to 16-byte boundaries.
func (g *GPULight) Marshal() []byte {
	buf := make([]byte, GPULightSize)
	binary.LittleEndian.PutUint32(buf[0:4], g.Enabled)
	binary.LittleEndian.PutUint32(buf[4:8], g.LightType)
	binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(g.Position[0]))
	binary.LittleEndian.PutUint32(buf[20:24], math.Float32bits(g.Position[1]))
	binary.LittleEndian.PutUint32(buf[24:28], math.Float32bits(g.Position[2]))
	binary.LittleEndian.PutUint32(buf[32:36], math.Float32bits(g.Color[0]))
	binary.LittleEndian.PutUint32(buf[36:40], math.Float32bits(g.Color[1]))
	binary.LittleEndian.PutUint32(buf[40:44], math.Float32bits(g.Color[2]))
	binary.LittleEndian.PutUint32(buf[44:48], math.Float32bits(g.Color[3]))
	binary.LittleEndian.PutUint32(buf[48:52], math.Float32bits(g.Direction[0]))
	binary.LittleEndian.PutUint32(buf[52:56], math.Float32bits(g.Direction[1]))
	binary.LittleEndian.PutUint32(buf[56:60], math.Float32bits(g.Direction[2]))
	binary.LittleEndian.PutUint32(buf[64:68], math.Float32bits(g.Geom[0]))
	binary.LittleEndian.PutUint32(buf[68:72], math.Float32bits(g.Geom[1]))
	binary.LittleEndian.PutUint32(buf[72:76], math.Float32bits(g.Geom[2]))
	binary.LittleEndian.PutUint32(buf[76:80], math.Float32bits(g.Geom[3]))
	binary.LittleEndian.PutUint32(buf[80:84], uint32(g.ShadowIndex))
	return buf
}

// GPULightHeader is prepended to the light storage buffer: scene ambient
// color and the active light count.
// Size: 16 bytes.
type GPULightHeader struct {
	AmbientColor [3]float32
	LightCount   uint32
}

// Size returns the size of GPULightHeader in bytes (16).
func (h *GPULightHeader) Size() int { return 16 }

// Marshal serializes the header into a 16-byte little-endian buffer.
func (h *GPULightHeader) Marshal() []byte {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(h.AmbientColor[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(h.AmbientColor[1]))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(h.AmbientColor[2]))
	binary.LittleEndian.PutUint32(buf[12:16], h.LightCount)
	return buf
}

// MarshalLightBuffer packs a header followed by up to MaxGPULights
// entries into one buffer for upload to the light storage buffer.
// Lights beyond the budget are dropped; callers should pre-sort by
// priority (screen coverage / intensity) before calling this.
func MarshalLightBuffer(lights []GPULight, ambient [3]float32) []byte {
	count := len(lights)
	if count > MaxGPULights {
		count = MaxGPULights
	}

	header := GPULightHeader{AmbientColor: ambient, LightCount: uint32(count)}
	buf := make([]byte, header.Size()+count*GPULightSize)
	copy(buf, header.Marshal())

	offset := header.Size()
	for i := 0; i < count; i++ {
		l := lights[i]
		copy(buf[offset:offset+GPULightSize], l.Marshal())
		offset += GPULightSize
	}
	return buf
}

// MaxShadowCascades is the maximum number of cascades the directional
// shadow pass splits the view frustum into.
const MaxShadowCascades = 4

// GPUShadowData is the GPU-aligned per-cascade (or spot) shadow matrix
// plus PCF sampling parameters.
// Size: 80 bytes.
type GPUShadowData struct {
	LightVP    [16]float32 // view-projection from the light's perspective
	TexelSize  [2]float32  // 1.0 / shadow_map_resolution
	Bias       float32     // depth comparison bias
	NormalBias float32     // world-space normal-offset distance
}

// Size returns the size of GPUShadowData in bytes (80).
func (s *GPUShadowData) Size() int { return 80 }

// Marshal serializes the shadow data into an 80-byte little-endian buffer.
func (s *GPUShadowData) Marshal() []byte {
	buf := make([]byte, 80)
	for i := 0; i < 16; i++ {
		binary.LittleEndian.PutUint32(buf[i*4:(i+1)*4], math.Float32bits(s.LightVP[i]))
	}
	binary.LittleEndian.PutUint32(buf[64:68], math.Float32bits(s.TexelSize[0]))
	binary.LittleEndian.PutUint32(buf[68:72], math.Float32bits(s.TexelSize[1]))
	binary.LittleEndian.PutUint32(buf[72:76], math.Float32bits(s.Bias))
	binary.LittleEndian.PutUint32(buf[76:80], math.Float32bits(s.NormalBias))
	return buf
}

// GPULightCullUniforms is the uniform data read by the tile light
// culling compute shader: the matrices needed to reconstruct per-tile
// frustum planes plus tile/screen dimensions and the active light count.
// Size: 160 bytes.
type GPULightCullUniforms struct {
	InvProj      [16]float32
	ViewMatrix   [16]float32
	TileCountX   uint32
	TileCountY   uint32
	ScreenWidth  uint32
	ScreenHeight uint32
	LightCount   uint32
	Near         float32
	Far          float32
	_pad         uint32
}

// Size returns the size of GPULightCullUniforms in bytes (160).
func (u *GPULightCullUniforms) Size() int { return 160 }

// Marshal serializes the culling uniforms into a 160-byte little-endian buffer.
func (u *GPULightCullUniforms) Marshal() []byte {
	buf := make([]byte, 160)
	off := 0
	putMat := func(m [16]float32) {
		for i := range m {
			binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(m[i]))
			off += 4
		}
	}
	putMat(u.InvProj)
	putMat(u.ViewMatrix)
	for _, v := range []uint32{u.TileCountX, u.TileCountY, u.ScreenWidth, u.ScreenHeight, u.LightCount} {
		binary.LittleEndian.PutUint32(buf[off:off+4], v)
		off += 4
	}
	binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(u.Near))
	off += 4
	binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(u.Far))
	off += 4
	binary.LittleEndian.PutUint32(buf[off:off+4], 0)
	return buf
}

// GPUTileUniforms is the uniform data read by the deferred lighting
// fragment shader to index into the per-tile light list buffer.
// Size: 8 bytes.
type GPUTileUniforms struct {
	TileCountX       uint32
	MaxLightsPerTile uint32
}

// Size returns the size of GPUTileUniforms in bytes (8).
func (u *GPUTileUniforms) Size() int { return 8 }

// Marshal serializes the tile uniforms into an 8-byte little-endian buffer.
func (u *GPUTileUniforms) Marshal() []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint32(buf[0:4], u.TileCountX)
	binary.LittleEndian.PutUint32(buf[4:8], u.MaxLightsPerTile)
	return buf
}

// TileSize is the size of a tile in pixels for tiled light culling.
const TileSize = 16
