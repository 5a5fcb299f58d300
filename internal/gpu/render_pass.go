package gpu

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/core"
)

// Render pass errors.
var (
	// ErrPassEnded is returned when operations are called on an ended pass.
	ErrPassEnded = errors.New("gpu: render pass has already ended")

	// ErrNilPipeline is returned when SetPipeline is called with nil.
	ErrNilPipeline = errors.New("gpu: pipeline is nil")

	// ErrNilBindGroup is returned when SetBindGroup is called with nil.
	ErrNilBindGroup = errors.New("gpu: bind group is nil")

	// ErrBindGroupIndexOutOfRange is returned when bind group index exceeds maximum.
	ErrBindGroupIndexOutOfRange = errors.New("gpu: bind group index exceeds maximum (3)")

	// ErrNilVertexBuffer is returned when SetVertexBuffer is called with nil.
	ErrNilVertexBuffer = errors.New("gpu: vertex buffer is nil")

	// ErrNilIndexBuffer is returned when SetIndexBuffer is called with nil.
	ErrNilIndexBuffer = errors.New("gpu: index buffer is nil")

	// ErrSpotSlotOutOfRange is returned for a spot atlas slot outside 0..15.
	ErrSpotSlotOutOfRange = errors.New("gpu: spot atlas slot out of range (0..15)")
)

// IndexFormat selects the width of index buffer entries.
type IndexFormat int

const (
	// IndexFormatUint16 is 16-bit indices.
	IndexFormatUint16 IndexFormat = iota

	// IndexFormatUint32 is 32-bit indices. Every geometry in this engine
	// uploads 32-bit indices, so this is the format every batch binds.
	IndexFormatUint32
)

// Vertex buffer slot assignment shared by every geometry draw: the
// interleaved vertex stream in slot 0, the per-frame instance stream
// (model matrix, bounding sphere, UV transform, tint) in slot 1.
const (
	VertexBufferSlot   = 0
	InstanceBufferSlot = 1
)

// spotTilesPerRow is the spot shadow atlas grid edge: 4x4 tiles, 16 slots.
const spotTilesPerRow = 4

// RenderPassState represents the state of a render pass encoder.
type RenderPassState int

const (
	// RenderPassStateRecording means the pass is actively recording commands.
	RenderPassStateRecording RenderPassState = iota

	// RenderPassStateEnded means the pass has been ended.
	RenderPassStateEnded
)

// String returns the string representation of RenderPassState.
func (s RenderPassState) String() string {
	switch s {
	case RenderPassStateRecording:
		return "Recording"
	case RenderPassStateEnded:
		return "Ended"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// RenderPassEncoder records one of the engine's raster passes: the
// depth-only shadow passes (one per cascade layer, one per spot atlas
// slot), the G-buffer fill, the full-screen lighting composite, and
// the post/CRT chain. Geometry passes record DrawBatch per visible
// batch; screen passes record a single DrawFullScreen.
//
// There is no indirect draw path: culling runs on the CPU and every
// instance buffer is uploaded per frame, so draw parameters are always
// host-known.
//
// RenderPassEncoder is NOT safe for concurrent use. All commands must
// be recorded from a single goroutine, and the pass must be ended with
// End() before the parent command encoder can continue recording.
//
// State machine:
//
//	Recording -> End() -> Ended
type RenderPassEncoder struct {
	mu sync.Mutex

	// corePass is the underlying core render pass encoder.
	corePass *core.CoreRenderPassEncoder

	// encoder is the parent command encoder.
	encoder *CoreCommandEncoder

	state RenderPassState

	currentPipeline *RenderPipeline

	// vertexBufferCount tracks the number of vertex buffer slots used.
	vertexBufferCount uint32

	// hasIndexBuffer tracks whether an index buffer is bound.
	hasIndexBuffer bool

	// drawCount tracks the number of draw calls recorded.
	drawCount uint32
}

// State returns the current pass state.
func (p *RenderPassEncoder) State() RenderPassState {
	if p == nil {
		return RenderPassStateEnded
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// IsEnded returns true if the pass has been ended.
func (p *RenderPassEncoder) IsEnded() bool {
	return p.State() == RenderPassStateEnded
}

// checkRecording returns an error if the pass is not in Recording state.
// The caller must hold p.mu.
func (p *RenderPassEncoder) checkRecording() error {
	if p.state != RenderPassStateRecording {
		return ErrPassEnded
	}
	return nil
}

// SetPipeline binds a render pipeline for subsequent draw calls: the
// depth-only pipeline for shadow passes, the G-buffer pipeline (skinned
// or rigid variant), or one of the full-screen pipelines.
func (p *RenderPassEncoder) SetPipeline(pipeline *RenderPipeline) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.checkRecording(); err != nil {
		return fmt.Errorf("set pipeline: %w", err)
	}

	if pipeline == nil {
		return ErrNilPipeline
	}

	p.currentPipeline = pipeline

	// core.CoreRenderPassEncoder.SetPipeline takes *core.RenderPipeline;
	// the binding is recorded locally until the pipeline bridge lands.
	_ = p.corePass

	return nil
}

// SetBindGroup binds a bind group for the given index. Geometry passes
// bind the camera uniform and joint texture here; the lighting pass
// binds the G-buffer targets, shadow atlases, matrix buffers and the
// tile light list. WebGPU supports up to 4 bind groups (indices 0-3).
func (p *RenderPassEncoder) SetBindGroup(index uint32, bindGroup *BindGroup, dynamicOffsets []uint32) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.checkRecording(); err != nil {
		return fmt.Errorf("set bind group: %w", err)
	}

	if index > 3 {
		return fmt.Errorf("%w: index %d", ErrBindGroupIndexOutOfRange, index)
	}

	if bindGroup == nil {
		return ErrNilBindGroup
	}

	_ = p.corePass

	return nil
}

// SetVertexBuffer binds a vertex buffer to a slot. Slot 0 carries the
// interleaved 80-byte vertex stream; slot 1 carries the 112-byte
// per-instance stream a batch uploads each frame. size 0 binds the
// remaining buffer.
func (p *RenderPassEncoder) SetVertexBuffer(slot uint32, buffer *Buffer, offset, size uint64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.checkRecording(); err != nil {
		return fmt.Errorf("set vertex buffer: %w", err)
	}

	if buffer == nil {
		return ErrNilVertexBuffer
	}

	if slot >= p.vertexBufferCount {
		p.vertexBufferCount = slot + 1
	}

	// core.CoreRenderPassEncoder.SetVertexBuffer takes *core.Buffer;
	// recorded locally until the buffer bridge lands.
	_ = p.corePass

	return nil
}

// SetIndexBuffer binds the index buffer for indexed draw calls. Every
// geometry in this engine indexes with IndexFormatUint32. size 0 binds
// the remaining buffer.
func (p *RenderPassEncoder) SetIndexBuffer(buffer *Buffer, format IndexFormat, offset, size uint64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.checkRecording(); err != nil {
		return fmt.Errorf("set index buffer: %w", err)
	}

	if buffer == nil {
		return ErrNilIndexBuffer
	}

	p.hasIndexBuffer = true

	_ = p.corePass

	return nil
}

// SetViewport sets the viewport transformation. Depth is clamped to
// [0, 1].
func (p *RenderPassEncoder) SetViewport(x, y, width, height, minDepth, maxDepth float32) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.checkRecording(); err != nil {
		return fmt.Errorf("set viewport: %w", err)
	}

	minDepth = min(max(minDepth, 0), 1)
	maxDepth = min(max(maxDepth, 0), 1)

	if p.corePass != nil {
		p.corePass.SetViewport(x, y, width, height, minDepth, maxDepth)
	}

	return nil
}

// SetSpotAtlasViewport restricts rendering to one tile of the 4x4 spot
// shadow atlas grid. slot is the LRU-assigned atlas slot (0..15),
// tileSize the configured spot tile edge in pixels.
func (p *RenderPassEncoder) SetSpotAtlasViewport(slot, tileSize int) error {
	if slot < 0 || slot >= spotTilesPerRow*spotTilesPerRow {
		return fmt.Errorf("%w: slot %d", ErrSpotSlotOutOfRange, slot)
	}
	if tileSize <= 0 {
		return fmt.Errorf("%w: tile size %d", ErrInvalidDimensions, tileSize)
	}

	x := float32((slot % spotTilesPerRow) * tileSize)
	y := float32((slot / spotTilesPerRow) * tileSize)
	size := float32(tileSize)

	if err := p.SetViewport(x, y, size, size, 0, 1); err != nil {
		return err
	}
	return p.SetScissorRect(uint32((slot%spotTilesPerRow)*tileSize), uint32((slot/spotTilesPerRow)*tileSize), uint32(tileSize), uint32(tileSize))
}

// SetScissorRect sets the scissor rectangle; fragments outside it are
// discarded.
func (p *RenderPassEncoder) SetScissorRect(x, y, width, height uint32) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.checkRecording(); err != nil {
		return fmt.Errorf("set scissor rect: %w", err)
	}

	if p.corePass != nil {
		p.corePass.SetScissorRect(x, y, width, height)
	}

	return nil
}

// SetBlendConstant sets the blend constant color, used when a blend
// factor is Constant or OneMinusConstant.
func (p *RenderPassEncoder) SetBlendConstant(color gputypes.Color) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.checkRecording(); err != nil {
		return fmt.Errorf("set blend constant: %w", err)
	}

	if p.corePass != nil {
		p.corePass.SetBlendConstant(&color)
	}

	return nil
}

// SetStencilReference sets the stencil reference value.
func (p *RenderPassEncoder) SetStencilReference(reference uint32) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.checkRecording(); err != nil {
		return fmt.Errorf("set stencil reference: %w", err)
	}

	if p.corePass != nil {
		p.corePass.SetStencilReference(reference)
	}

	return nil
}

// Draw issues a non-indexed draw call.
func (p *RenderPassEncoder) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.checkRecording(); err != nil {
		return fmt.Errorf("draw: %w", err)
	}

	p.drawCount++

	if p.corePass != nil {
		p.corePass.Draw(vertexCount, instanceCount, firstVertex, firstInstance)
	}

	return nil
}

// DrawFullScreen records the single-triangle draw the lighting, SSGI
// resolve, fog composite, bloom and post passes use: three vertices,
// one instance, positions synthesized in the vertex stage.
func (p *RenderPassEncoder) DrawFullScreen() error {
	return p.Draw(3, 1, 0, 0)
}

// DrawParticles records the billboard draw for count live particles:
// six vertices per instance, expanded in the vertex stage.
func (p *RenderPassEncoder) DrawParticles(count uint32) error {
	return p.Draw(6, count, 0, 0)
}

// DrawIndexed issues an indexed draw call.
func (p *RenderPassEncoder) DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.checkRecording(); err != nil {
		return fmt.Errorf("draw indexed: %w", err)
	}

	p.drawCount++

	if p.corePass != nil {
		p.corePass.DrawIndexed(indexCount, instanceCount, firstIndex, baseVertex, firstInstance)
	}

	return nil
}

// DrawBatch records one instanced geometry draw: the batch's vertex
// stream in slot 0, its pooled instance buffer in slot 1, its 32-bit
// index buffer, then one DrawIndexed covering every instance. This is
// the draw shape shared by the shadow and G-buffer passes.
func (p *RenderPassEncoder) DrawBatch(vertexBuf, instanceBuf, indexBuf *Buffer, indexCount, instanceCount uint32) error {
	if err := p.SetVertexBuffer(VertexBufferSlot, vertexBuf, 0, 0); err != nil {
		return err
	}
	if err := p.SetVertexBuffer(InstanceBufferSlot, instanceBuf, 0, 0); err != nil {
		return err
	}
	if err := p.SetIndexBuffer(indexBuf, IndexFormatUint32, 0, 0); err != nil {
		return err
	}
	return p.DrawIndexed(indexCount, instanceCount, 0, 0, 0)
}

// End completes the render pass. After End() the encoder cannot record
// further commands and the parent command encoder resumes recording.
// End is idempotent.
func (p *RenderPassEncoder) End() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == RenderPassStateEnded {
		return nil
	}
	p.state = RenderPassStateEnded

	if p.corePass != nil {
		if err := p.corePass.End(); err != nil {
			return fmt.Errorf("end render pass: %w", err)
		}
	}

	if p.encoder != nil {
		return p.encoder.endRenderPass(p)
	}

	return nil
}

// DrawCount returns the number of draw calls recorded during this pass.
func (p *RenderPassEncoder) DrawCount() uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.drawCount
}

// RenderPipeline is one of the engine's compiled raster pipelines:
// depth-only (shadow), G-buffer (rigid and skinned variants), particle
// billboard (alpha and additive), and the full-screen pipelines for
// lighting, SSGI resolve, fog, bloom, post and CRT.
type RenderPipeline struct {
	id    uint64
	label string

	destroyed bool

	mu sync.RWMutex
}

// ID returns the pipeline's unique identifier.
func (p *RenderPipeline) ID() uint64 {
	return p.id
}

// Label returns the pipeline's debug label.
func (p *RenderPipeline) Label() string {
	return p.label
}

// IsDestroyed returns true if the pipeline has been destroyed.
func (p *RenderPipeline) IsDestroyed() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.destroyed
}

// Destroy releases the pipeline resources.
func (p *RenderPipeline) Destroy() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.destroyed = true
}

// BindGroup is a bound resource set: uniform and storage buffers,
// texture views and samplers, grouped to match one of the engine's
// bind group layouts.
type BindGroup struct {
	id    uint64
	label string

	destroyed bool

	mu sync.RWMutex
}

// ID returns the bind group's unique identifier.
func (bg *BindGroup) ID() uint64 {
	return bg.id
}

// Label returns the bind group's debug label.
func (bg *BindGroup) Label() string {
	return bg.label
}

// IsDestroyed returns true if the bind group has been destroyed.
func (bg *BindGroup) IsDestroyed() bool {
	bg.mu.RLock()
	defer bg.mu.RUnlock()
	return bg.destroyed
}

// Destroy releases the bind group resources.
func (bg *BindGroup) Destroy() {
	bg.mu.Lock()
	defer bg.mu.Unlock()
	bg.destroyed = true
}
