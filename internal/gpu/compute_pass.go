package gpu

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/wgpu/core"
)

// Compute pass errors.
var (
	// ErrComputePassEnded is returned when operations are called on an ended compute pass.
	ErrComputePassEnded = errors.New("gpu: compute pass has already ended")

	// ErrNilComputePipeline is returned when SetPipeline is called with nil.
	ErrNilComputePipeline = errors.New("gpu: compute pipeline is nil")

	// ErrNilComputeBindGroup is returned when SetBindGroup is called with nil.
	ErrNilComputeBindGroup = errors.New("gpu: bind group is nil")

	// ErrComputeBindGroupIndexOutOfRange is returned when bind group index exceeds maximum.
	ErrComputeBindGroupIndexOutOfRange = errors.New("gpu: bind group index exceeds maximum (3)")

	// ErrZeroTileSize is returned when a tile dispatch is sized with a zero tile edge.
	ErrZeroTileSize = errors.New("gpu: tile size must be greater than zero")
)

// ComputePassState represents the state of a compute pass encoder.
type ComputePassState int

const (
	// ComputePassStateRecording means the pass is actively recording commands.
	ComputePassStateRecording ComputePassState = iota

	// ComputePassStateEnded means the pass has been ended.
	ComputePassStateEnded
)

// String returns the string representation of ComputePassState.
func (s ComputePassState) String() string {
	switch s {
	case ComputePassStateRecording:
		return "Recording"
	case ComputePassStateEnded:
		return "Ended"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// ComputePassEncoder records one of the engine's compute passes: the
// HiZ depth reduction, tile light culling, the SSGI accumulate and
// propagate stages, and the particle spawn/simulate entry points all
// record through this type. Each pass is SetPipeline + SetBindGroup
// followed by one or more dispatches, then End.
//
// All dispatches are CPU-sized: the engine culls on the CPU and uploads
// instance data per frame, so there is no indirect dispatch path.
//
// ComputePassEncoder is NOT safe for concurrent use. All commands must
// be recorded from a single goroutine, and the pass must be ended with
// End() before the parent command encoder can continue recording.
//
// State machine:
//
//	Recording -> End() -> Ended
type ComputePassEncoder struct {
	mu sync.Mutex

	// corePass is the underlying core compute pass encoder.
	corePass *core.CoreComputePassEncoder

	// encoder is the parent command encoder.
	encoder *CoreCommandEncoder

	state ComputePassState

	currentPipeline *ComputePipeline

	// dispatchCount tracks the number of dispatch calls made.
	dispatchCount uint32
}

// State returns the current pass state.
func (p *ComputePassEncoder) State() ComputePassState {
	if p == nil {
		return ComputePassStateEnded
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// IsEnded returns true if the pass has been ended.
func (p *ComputePassEncoder) IsEnded() bool {
	return p.State() == ComputePassStateEnded
}

// checkRecording returns an error if the pass is not in Recording state.
// The caller must hold p.mu.
func (p *ComputePassEncoder) checkRecording() error {
	if p.state != ComputePassStateRecording {
		return ErrComputePassEnded
	}
	return nil
}

// SetPipeline sets the compute pipeline for subsequent dispatch calls.
func (p *ComputePassEncoder) SetPipeline(pipeline *ComputePipeline) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.checkRecording(); err != nil {
		return fmt.Errorf("set pipeline: %w", err)
	}

	if pipeline == nil {
		return ErrNilComputePipeline
	}

	p.currentPipeline = pipeline

	// core.CoreComputePassEncoder.SetPipeline takes *core.ComputePipeline;
	// the binding is recorded locally until the pipeline bridge lands.
	_ = p.corePass

	return nil
}

// SetBindGroup binds a bind group for the given index. The engine's
// compute passes bind the shared storage buffers here: the HiZ tile
// buffer, the tile light list, the light buffer, and the particle ring.
// WebGPU supports up to 4 bind groups (indices 0-3).
func (p *ComputePassEncoder) SetBindGroup(index uint32, bindGroup *BindGroup, dynamicOffsets []uint32) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.checkRecording(); err != nil {
		return fmt.Errorf("set bind group: %w", err)
	}

	if index > 3 {
		return fmt.Errorf("%w: index %d", ErrComputeBindGroupIndexOutOfRange, index)
	}

	if bindGroup == nil {
		return ErrNilComputeBindGroup
	}

	_ = p.corePass

	return nil
}

// DispatchWorkgroups dispatches x*y*z compute workgroups. The invocation
// count per workgroup is fixed by the shader (8x8 for the HiZ reducer,
// 16x16 for tile light culling, 64 for particle simulate).
//
// A zero count in any dimension is a valid no-op dispatch.
func (p *ComputePassEncoder) DispatchWorkgroups(x, y, z uint32) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.checkRecording(); err != nil {
		return fmt.Errorf("dispatch workgroups: %w", err)
	}

	p.dispatchCount++

	if p.corePass != nil {
		p.corePass.Dispatch(x, y, z)
	}

	return nil
}

// DispatchScreenTiles dispatches one workgroup per screen tile for a
// pass whose workgroup covers tilePx x tilePx pixels: 64 for the HiZ
// reducer's 8x8-threads-of-8x8-pixels reduction, 16 for tile light
// culling. Partial edge tiles round up so every pixel is covered.
func (p *ComputePassEncoder) DispatchScreenTiles(width, height, tilePx uint32) error {
	if tilePx == 0 {
		return ErrZeroTileSize
	}
	x := (width + tilePx - 1) / tilePx
	y := (height + tilePx - 1) / tilePx
	return p.DispatchWorkgroups(x, y, 1)
}

// End completes the compute pass. After End() the encoder cannot record
// further commands and the parent command encoder resumes recording.
// End is idempotent.
func (p *ComputePassEncoder) End() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == ComputePassStateEnded {
		return nil
	}
	p.state = ComputePassStateEnded

	if p.corePass != nil {
		if err := p.corePass.End(); err != nil {
			return fmt.Errorf("end compute pass: %w", err)
		}
	}

	if p.encoder != nil {
		return p.encoder.endComputePass(p)
	}

	return nil
}

// DispatchCount returns the number of dispatch calls made during this pass.
func (p *ComputePassEncoder) DispatchCount() uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dispatchCount
}

// ComputePipeline is one of the engine's compiled compute entry points
// (HiZ reduce, tile light cull, SSGI accumulate/propagate, particle
// spawn/simulate) together with its fixed workgroup size.
type ComputePipeline struct {
	id    uint64
	label string

	// workgroupSize is the shader's fixed workgroup size, used by hosts
	// to derive dispatch counts from screen or buffer dimensions.
	workgroupSize [3]uint32

	destroyed bool

	mu sync.RWMutex
}

// ID returns the pipeline's unique identifier.
func (p *ComputePipeline) ID() uint64 {
	return p.id
}

// Label returns the pipeline's debug label.
func (p *ComputePipeline) Label() string {
	return p.label
}

// WorkgroupSize returns the compute shader's [x, y, z] workgroup size.
func (p *ComputePipeline) WorkgroupSize() [3]uint32 {
	return p.workgroupSize
}

// IsDestroyed returns true if the pipeline has been destroyed.
func (p *ComputePipeline) IsDestroyed() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.destroyed
}

// Destroy releases the pipeline resources.
func (p *ComputePipeline) Destroy() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.destroyed = true
}
