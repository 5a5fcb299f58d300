//go:build !nogpu

package gpu

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/bitofgold/topazcube/gpucore"
	"github.com/bitofgold/topazcube/internal/instance"
)

// instanceBufferEntry tracks one pooled instance buffer's logical state.
// The queue.WriteBuffer dispatch itself follows the same "tracked now,
// real upload pending the backend's buffer-creation path" shape as
// GPUTexture.UploadLayer in texture.go: callers above this layer get a
// stable BufferID and can exercise the full acquire/write/release cycle
// against real byte layouts today.
type instanceBufferEntry struct {
	capacity int
	written  int // bytes last written by WriteInstanceBuffer
}

// InstanceAllocator is the production instance.Allocator a host
// constructs over an initialized Context and passes to NewEngine. It
// hands out a BufferID per Acquire-sized request and keeps byte
// accounting consistent with gpucore.InstanceStride, the same
// bookkeeping MemoryManager already does for textures.
//
// Each WriteInstanceBuffer call also records a real command buffer
// through a FrameEncoder: a tile-light compute pass sized by TileGrid
// (when one is attached) followed by the G-buffer render pass.
// This is the consumer that exercises CoreCommandEncoder,
// ComputePassEncoder and RenderPassEncoder every frame.
//
// InstanceAllocator is safe for concurrent use.
type InstanceAllocator struct {
	ctx      *Context
	encoder  *FrameEncoder
	tileGrid *gpucore.TileGrid

	mu         sync.Mutex
	next       uint64
	buffers    map[gpucore.BufferID]*instanceBufferEntry
	frameCount uint64
	lastErr    error
}

// NewInstanceAllocator builds an InstanceAllocator over ctx. ctx need
// not be initialized yet; CreateInstanceBuffer does not check it.
func NewInstanceAllocator(ctx *Context) *InstanceAllocator {
	return &InstanceAllocator{
		ctx:     ctx,
		encoder: NewFrameEncoder(ctx),
		buffers: make(map[gpucore.BufferID]*instanceBufferEntry),
	}
}

// SetTileGrid attaches the tile grid WriteInstanceBuffer uses to size
// the tile-light compute dispatch recorded alongside each instance
// upload. Passing nil skips the compute pass for subsequent frames,
// matching a frame with tile-light culling disabled.
func (a *InstanceAllocator) SetTileGrid(grid *gpucore.TileGrid) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.tileGrid = grid
}

// CreateInstanceBuffer allocates a logical buffer sized for capacity
// gpucore.Instance entries (capacity*gpucore.InstanceStride bytes).
func (a *InstanceAllocator) CreateInstanceBuffer(capacity int) gpucore.BufferID {
	id := gpucore.BufferID(atomic.AddUint64(&a.next, 1))

	a.mu.Lock()
	a.buffers[id] = &instanceBufferEntry{capacity: capacity}
	a.mu.Unlock()

	return id
}

// DestroyInstanceBuffer releases the buffer. Destroying an unknown or
// already-destroyed id is a no-op, matching Buffer.Destroy's own
// idempotence.
func (a *InstanceAllocator) DestroyInstanceBuffer(id gpucore.BufferID) {
	a.mu.Lock()
	delete(a.buffers, id)
	a.mu.Unlock()
}

// WriteInstanceBuffer records the exact N*gpucore.InstanceStride byte
// range instance.Pool uploads each frame, then records the frame's
// command buffer through the attached FrameEncoder (tile-light compute
// pass, if a TileGrid is attached, followed by the G-buffer render
// pass). The actual queue.WriteBuffer dispatch happens once the
// backend's buffer-creation path (tracked alongside GPUTexture's, see
// texture.go) lands; until then the byte accounting and the pass
// sequencing are both exercised against real state every frame.
func (a *InstanceAllocator) WriteInstanceBuffer(id gpucore.BufferID, data []byte) {
	a.mu.Lock()
	entry, ok := a.buffers[id]
	if ok {
		entry.written = len(data)
	}
	tileGrid := a.tileGrid
	a.frameCount++
	frameCount := a.frameCount
	a.mu.Unlock()

	if !ok {
		return
	}

	_, err := a.encoder.RecordFrame(fmt.Sprintf("frame-%d", frameCount), tileGrid)

	a.mu.Lock()
	a.lastErr = err
	a.mu.Unlock()
}

// Stats reports the number of live buffers, bytes written to them this
// frame, and the number of frames recorded through the FrameEncoder,
// for diagnostics and tests.
func (a *InstanceAllocator) Stats() (liveBuffers int, bytesWritten int, framesRecorded uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, e := range a.buffers {
		liveBuffers++
		bytesWritten += e.written
	}
	return liveBuffers, bytesWritten, a.frameCount
}

// LastFrameError returns the error (if any) from the most recent
// FrameEncoder.RecordFrame call, for hosts that want to surface
// command-buffer recording failures distinctly from buffer bookkeeping.
func (a *InstanceAllocator) LastFrameError() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastErr
}

var _ instance.Allocator = (*InstanceAllocator)(nil)
