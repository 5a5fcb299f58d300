package gpu

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
)

// Buffer errors.
var (
	// ErrBufferDestroyed is returned when operating on a destroyed buffer.
	ErrBufferDestroyed = errors.New("gpu: buffer has been destroyed")

	// ErrNilBuffer is returned when creating operations without a buffer.
	ErrNilBuffer = errors.New("gpu: buffer is nil")

	// ErrInvalidBufferSize is returned when buffer size is invalid.
	ErrInvalidBufferSize = errors.New("gpu: invalid buffer size")

	// ErrBufferAlreadyMapped is returned when attempting to map an already mapped buffer.
	ErrBufferAlreadyMapped = errors.New("gpu: buffer is already mapped or mapping is pending")

	// ErrBufferNotMapped is returned when attempting to access unmapped buffer data.
	ErrBufferNotMapped = errors.New("gpu: buffer is not mapped")

	// ErrBufferMapPending is returned when accessing a buffer with pending map operation.
	ErrBufferMapPending = errors.New("gpu: buffer mapping is pending")

	// ErrInvalidMapMode is returned when mapping with an invalid mode.
	ErrInvalidMapMode = errors.New("gpu: invalid map mode")

	// ErrInvalidMapRange is returned when the map range is out of bounds.
	ErrInvalidMapRange = errors.New("gpu: map range out of bounds")

	// ErrMapUsageMismatch is returned when mapping mode doesn't match buffer usage.
	ErrMapUsageMismatch = errors.New("gpu: map mode does not match buffer usage flags")

	// ErrMappingFailed is returned when buffer mapping fails.
	ErrMappingFailed = errors.New("gpu: buffer mapping failed")

	// ErrCallbackNil is returned when MapAsync is called with nil callback.
	ErrCallbackNil = errors.New("gpu: map callback is nil")

	// ErrNilContext is returned when creating a buffer without a context.
	ErrNilContext = errors.New("gpu: context is nil")
)

// BufferMapState represents the mapping state of a buffer.
type BufferMapState int

const (
	// BufferMapStateUnmapped means the buffer is not mapped.
	BufferMapStateUnmapped BufferMapState = iota
	// BufferMapStatePending means a map operation is pending.
	BufferMapStatePending
	// BufferMapStateMapped means the buffer is mapped.
	BufferMapStateMapped
)

// String returns the string representation of BufferMapState.
func (s BufferMapState) String() string {
	switch s {
	case BufferMapStateUnmapped:
		return "Unmapped"
	case BufferMapStatePending:
		return "Pending"
	case BufferMapStateMapped:
		return "Mapped"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// BufferMapAsyncStatus represents the result of an async map operation.
type BufferMapAsyncStatus int

const (
	// BufferMapAsyncStatusSuccess indicates mapping completed successfully.
	BufferMapAsyncStatusSuccess BufferMapAsyncStatus = iota
	// BufferMapAsyncStatusValidationError indicates a validation error.
	BufferMapAsyncStatusValidationError
	// BufferMapAsyncStatusUnknown indicates an unknown error.
	BufferMapAsyncStatusUnknown
	// BufferMapAsyncStatusDeviceLost indicates the device was lost.
	BufferMapAsyncStatusDeviceLost
	// BufferMapAsyncStatusDestroyedBeforeCallback indicates buffer was destroyed.
	BufferMapAsyncStatusDestroyedBeforeCallback
	// BufferMapAsyncStatusUnmappedBeforeCallback indicates buffer was unmapped.
	BufferMapAsyncStatusUnmappedBeforeCallback
	// BufferMapAsyncStatusMappingAlreadyPending indicates another map is pending.
	BufferMapAsyncStatusMappingAlreadyPending
	// BufferMapAsyncStatusOffsetOutOfRange indicates offset is out of range.
	BufferMapAsyncStatusOffsetOutOfRange
	// BufferMapAsyncStatusSizeOutOfRange indicates size is out of range.
	BufferMapAsyncStatusSizeOutOfRange
)

// String returns the string representation of BufferMapAsyncStatus.
func (s BufferMapAsyncStatus) String() string {
	switch s {
	case BufferMapAsyncStatusSuccess:
		return "Success"
	case BufferMapAsyncStatusValidationError:
		return "ValidationError"
	case BufferMapAsyncStatusUnknown:
		return "Unknown"
	case BufferMapAsyncStatusDeviceLost:
		return "DeviceLost"
	case BufferMapAsyncStatusDestroyedBeforeCallback:
		return "DestroyedBeforeCallback"
	case BufferMapAsyncStatusUnmappedBeforeCallback:
		return "UnmappedBeforeCallback"
	case BufferMapAsyncStatusMappingAlreadyPending:
		return "MappingAlreadyPending"
	case BufferMapAsyncStatusOffsetOutOfRange:
		return "OffsetOutOfRange"
	case BufferMapAsyncStatusSizeOutOfRange:
		return "SizeOutOfRange"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// Buffer represents a GPU buffer resource: a vertex, index, uniform or
// storage buffer. Only this file's Create* helpers construct one;
// InstanceAllocator keeps its own BufferID-keyed records for instance
// buffers instead.
//
// Buffer tracks its logical state (size, usage, map lifecycle) against
// the owning Context the same way GPUTexture does for textures — the
// real device.CreateBuffer/queue.WriteBuffer dispatch is left for the
// backend's buffer-creation path to complete, so callers above this
// layer can exercise the full acquire/map/write/destroy cycle against
// real byte layouts today.
//
// Thread Safety:
// Buffer is safe for concurrent access. All state mutations are
// protected by a mutex. The mapping callback is invoked from the
// polling goroutine.
//
// Lifecycle:
//  1. Create via CreateBuffer()
//  2. Use MapAsync() to initiate mapping
//  3. Poll with PollMapAsync() until complete
//  4. Access data with GetMappedRange()
//  5. Call Unmap() when done
//  6. Call Destroy() when the buffer is no longer needed
type Buffer struct {
	// mu protects mutable state.
	mu sync.RWMutex

	// ctx is the parent GPU context.
	ctx *Context

	// descriptor holds the buffer configuration (immutable after creation).
	descriptor BufferDescriptor

	// mapState is the current mapping state.
	mapState BufferMapState

	// mapMode is the mode used for the current mapping.
	mapMode gputypes.MapMode

	// mapOffset is the offset of the current mapping.
	mapOffset uint64

	// mapSize is the size of the current mapping.
	mapSize uint64

	// mappedData holds the mapped memory slice (only valid when mapped).
	mappedData []byte

	// mapCallback is the callback for async map operations.
	mapCallback func(BufferMapAsyncStatus)

	// destroyed indicates whether the buffer has been destroyed.
	destroyed bool
}

// BufferDescriptor describes a buffer to create.
type BufferDescriptor struct {
	// Label is an optional debug name.
	Label string

	// Size is the buffer size in bytes.
	Size uint64

	// Usage specifies how the buffer will be used.
	Usage gputypes.BufferUsage

	// MappedAtCreation creates the buffer pre-mapped for writing.
	MappedAtCreation bool
}

// NewBuffer creates a new Buffer over ctx. Callers go through
// CreateBuffer, which validates the descriptor first.
func NewBuffer(ctx *Context, desc *BufferDescriptor) *Buffer {
	buf := &Buffer{
		ctx:        ctx,
		descriptor: *desc,
		mapState:   BufferMapStateUnmapped,
	}

	// If mapped at creation, set state to mapped
	if desc.MappedAtCreation {
		buf.mapState = BufferMapStateMapped
		buf.mapMode = gputypes.MapModeWrite
		buf.mapOffset = 0
		buf.mapSize = desc.Size
	}

	return buf
}

// Label returns the buffer's debug label.
func (b *Buffer) Label() string {
	return b.descriptor.Label
}

// Size returns the buffer size in bytes.
func (b *Buffer) Size() uint64 {
	return b.descriptor.Size
}

// Usage returns the buffer usage flags.
func (b *Buffer) Usage() gputypes.BufferUsage {
	return b.descriptor.Usage
}

// Descriptor returns a copy of the buffer descriptor.
func (b *Buffer) Descriptor() BufferDescriptor {
	return b.descriptor
}

// MapState returns the current mapping state.
func (b *Buffer) MapState() BufferMapState {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.mapState
}

// IsDestroyed returns true if the buffer has been destroyed.
func (b *Buffer) IsDestroyed() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.destroyed
}

// Context returns the parent GPU context.
//
// Returns nil if the buffer has been destroyed.
func (b *Buffer) Context() *Context {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.destroyed {
		return nil
	}
	return b.ctx
}

// MapAsync initiates an async map operation. The buffer must carry the
// matching usage flag (MapRead to read, MapWrite to write), offset and
// size must be 8-byte aligned, and the callback fires once mapping
// completes or fails. After a successful call the state is Pending;
// poll with PollMapAsync until the callback runs and the state becomes
// Mapped. The engine maps buffers only off the frame loop (readback of
// a finished frame, debug captures); per-frame uploads go through the
// queue write path instead, so a frame never suspends on a map.
func (b *Buffer) MapAsync(mode gputypes.MapMode, offset, size uint64, callback func(BufferMapAsyncStatus)) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	// Check if destroyed
	if b.destroyed {
		return ErrBufferDestroyed
	}

	// Check if already mapped or pending
	if b.mapState != BufferMapStateUnmapped {
		if callback != nil {
			callback(BufferMapAsyncStatusMappingAlreadyPending)
		}
		return ErrBufferAlreadyMapped
	}

	// Validate callback
	if callback == nil {
		return ErrCallbackNil
	}

	// Validate mode
	if mode == 0 {
		callback(BufferMapAsyncStatusValidationError)
		return ErrInvalidMapMode
	}

	// Validate mode matches usage
	if mode == gputypes.MapModeRead && !b.descriptor.Usage.Contains(gputypes.BufferUsageMapRead) {
		callback(BufferMapAsyncStatusValidationError)
		return fmt.Errorf("%w: buffer does not have MapRead usage", ErrMapUsageMismatch)
	}
	if mode == gputypes.MapModeWrite && !b.descriptor.Usage.Contains(gputypes.BufferUsageMapWrite) {
		callback(BufferMapAsyncStatusValidationError)
		return fmt.Errorf("%w: buffer does not have MapWrite usage", ErrMapUsageMismatch)
	}

	// Validate range
	if offset > b.descriptor.Size {
		callback(BufferMapAsyncStatusOffsetOutOfRange)
		return fmt.Errorf("%w: offset %d > buffer size %d", ErrInvalidMapRange, offset, b.descriptor.Size)
	}
	if offset+size > b.descriptor.Size {
		callback(BufferMapAsyncStatusSizeOutOfRange)
		return fmt.Errorf("%w: offset %d + size %d > buffer size %d", ErrInvalidMapRange, offset, size, b.descriptor.Size)
	}

	// Validate alignment (WebGPU requires 8-byte alignment for map operations)
	const mapAlignment uint64 = 8
	if offset%mapAlignment != 0 {
		callback(BufferMapAsyncStatusValidationError)
		return fmt.Errorf("%w: offset %d must be %d-byte aligned", ErrInvalidMapRange, offset, mapAlignment)
	}
	if size%mapAlignment != 0 && size != b.descriptor.Size-offset {
		// Size doesn't need alignment if mapping to end of buffer
		callback(BufferMapAsyncStatusValidationError)
		return fmt.Errorf("%w: size %d must be %d-byte aligned", ErrInvalidMapRange, size, mapAlignment)
	}

	// Transition to pending state
	b.mapState = BufferMapStatePending
	b.mapMode = mode
	b.mapOffset = offset
	b.mapSize = size
	b.mapCallback = callback

	// Note: In a real implementation, this would initiate the buffer map
	// operation. For now, we simulate immediate completion in PollMapAsync.

	return nil
}

// PollMapAsync polls for map completion: call repeatedly after
// MapAsync until it returns true, at which point the MapAsync callback
// has run. The resize drain loop in the render graph uses the same
// busy-wait shape for in-flight frames.
func (b *Buffer) PollMapAsync() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	// If not pending, return immediately
	if b.mapState != BufferMapStatePending {
		return b.mapState == BufferMapStateMapped || b.mapState == BufferMapStateUnmapped
	}

	// Check if destroyed during pending
	if b.destroyed {
		if b.mapCallback != nil {
			callback := b.mapCallback
			b.mapCallback = nil
			b.mapState = BufferMapStateUnmapped
			// Call callback outside lock to avoid deadlock
			b.mu.Unlock()
			callback(BufferMapAsyncStatusDestroyedBeforeCallback)
			b.mu.Lock()
		}
		return true
	}

	// Until the backend bridge lands this completes immediately with a
	// CPU-side slice standing in for the mapped pointer; device polling
	// replaces it without changing the state machine.
	b.mappedData = make([]byte, b.mapSize)
	b.mapState = BufferMapStateMapped

	// Invoke callback
	if b.mapCallback != nil {
		callback := b.mapCallback
		b.mapCallback = nil
		// Call callback outside lock to avoid deadlock
		b.mu.Unlock()
		callback(BufferMapAsyncStatusSuccess)
		b.mu.Lock()
	}

	return true
}

// GetMappedRange returns the mapped data slice. offset and size are
// buffer-relative and must fall inside the mapped region. The slice is
// only valid until Unmap.
func (b *Buffer) GetMappedRange(offset, size uint64) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	// Check if destroyed
	if b.destroyed {
		return nil, ErrBufferDestroyed
	}

	// Check if mapped
	if b.mapState == BufferMapStatePending {
		return nil, ErrBufferMapPending
	}
	if b.mapState != BufferMapStateMapped {
		return nil, ErrBufferNotMapped
	}

	// Validate range is within mapped region
	// The offset and size are relative to the buffer, not the mapped region
	if offset < b.mapOffset {
		return nil, fmt.Errorf("%w: offset %d is before mapped region start %d",
			ErrInvalidMapRange, offset, b.mapOffset)
	}
	if offset+size > b.mapOffset+b.mapSize {
		return nil, fmt.Errorf("%w: offset %d + size %d exceeds mapped region end %d",
			ErrInvalidMapRange, offset, size, b.mapOffset+b.mapSize)
	}

	// Calculate slice indices within mappedData
	relOffset := offset - b.mapOffset
	return b.mappedData[relOffset : relOffset+size], nil
}

// Unmap unmaps the buffer, making changes visible to the GPU and
// invalidating any GetMappedRange slices. Unmapping an unmapped buffer
// is a no-op; unmapping a pending buffer cancels the map and fires the
// callback with UnmappedBeforeCallback.
func (b *Buffer) Unmap() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	// Check if destroyed
	if b.destroyed {
		return ErrBufferDestroyed
	}

	// If pending, cancel and invoke callback
	if b.mapState == BufferMapStatePending {
		if b.mapCallback != nil {
			callback := b.mapCallback
			b.mapCallback = nil
			b.mapState = BufferMapStateUnmapped
			b.mappedData = nil
			// Call callback outside lock
			b.mu.Unlock()
			callback(BufferMapAsyncStatusUnmappedBeforeCallback)
			b.mu.Lock()
		}
		return nil
	}

	// If not mapped, nothing to do
	if b.mapState != BufferMapStateMapped {
		return nil
	}

	// Note: In a real implementation, this would call buffer unmap
	// to flush changes to GPU memory.

	// Clear state
	b.mapState = BufferMapStateUnmapped
	b.mappedData = nil
	b.mapCallback = nil

	return nil
}

// Destroy releases the buffer. A mapped or pending buffer is unmapped
// first (a pending callback fires with DestroyedBeforeCallback).
// Destroy is idempotent.
func (b *Buffer) Destroy() {
	b.mu.Lock()
	if b.destroyed {
		b.mu.Unlock()
		return
	}
	b.destroyed = true
	callback := b.mapCallback
	wasMapping := b.mapState == BufferMapStatePending
	b.ctx = nil
	b.mappedData = nil
	b.mapCallback = nil
	b.mapState = BufferMapStateUnmapped
	b.mu.Unlock()

	// Invoke pending callback if any
	if wasMapping && callback != nil {
		callback(BufferMapAsyncStatusDestroyedBeforeCallback)
	}

	// The actual queue-side buffer release happens once the backend's
	// buffer-creation path lands, the same "tracked now, dispatch pending"
	// shape GPUTexture.Close already documents for textures.
}

// =============================================================================
// Device Buffer Creation
// =============================================================================

// CreateBuffer creates a new buffer over an initialized context. It
// validates the descriptor, rounds the size up to copy alignment, and
// wraps the logical buffer state in a Buffer — the same "validate,
// track, defer the real dispatch" shape CreateTexture uses in
// texture.go.
func CreateBuffer(ctx *Context, desc *BufferDescriptor) (*Buffer, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	if !ctx.IsInitialized() {
		return nil, ErrNotInitialized
	}

	if desc == nil {
		return nil, fmt.Errorf("buffer descriptor is nil")
	}

	// Validate size
	if desc.Size == 0 {
		return nil, fmt.Errorf("%w: size is 0", ErrInvalidBufferSize)
	}

	// Validate usage
	if desc.Usage == 0 {
		return nil, fmt.Errorf("buffer usage is empty")
	}

	// Validate MappedAtCreation requires MapWrite or CopyDst usage
	if desc.MappedAtCreation {
		if !desc.Usage.Contains(gputypes.BufferUsageMapWrite) &&
			!desc.Usage.Contains(gputypes.BufferUsageCopyDst) {
			return nil, fmt.Errorf("MappedAtCreation requires MapWrite or CopyDst usage")
		}
	}

	// Calculate aligned size (align to 4 bytes for copy operations)
	const copyBufferAlignment uint64 = 4
	alignedSize := (desc.Size + copyBufferAlignment - 1) &^ (copyBufferAlignment - 1)

	// Update descriptor with aligned size
	resolvedDesc := *desc
	resolvedDesc.Size = alignedSize

	return NewBuffer(ctx, &resolvedDesc), nil
}

// CreateBufferSimple creates a buffer from size, usage and label
// without building a descriptor by hand.
func CreateBufferSimple(
	ctx *Context,
	size uint64,
	usage gputypes.BufferUsage,
	label string,
) (*Buffer, error) {
	desc := &BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: usage,
	}

	return CreateBuffer(ctx, desc)
}

// CreateStagingBuffer creates a staging buffer for CPU-GPU transfer.
// Upload staging buffers (MapWrite | CopySrc, pre-mapped) feed texture
// and geometry uploads; readback buffers (MapRead | CopyDst) pull a
// finished frame or the HiZ tile buffer back for inspection.
func CreateStagingBuffer(
	ctx *Context,
	size uint64,
	forUpload bool,
	label string,
) (*Buffer, error) {
	var usage gputypes.BufferUsage
	if forUpload {
		usage = gputypes.BufferUsageMapWrite | gputypes.BufferUsageCopySrc
	} else {
		usage = gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst
	}

	desc := &BufferDescriptor{
		Label:            label,
		Size:             size,
		Usage:            usage,
		MappedAtCreation: forUpload,
	}

	return CreateBuffer(ctx, desc)
}

// CreateUniformBuffer creates a per-pass uniform buffer (the camera
// block, fog parameters, post settings), written once per frame by the
// queue and read by one pipeline stage.
func CreateUniformBuffer(ctx *Context, size uint64, label string) (*Buffer, error) {
	return CreateBufferSimple(ctx, size, gputypes.BufferUsageUniform|gputypes.BufferUsageCopyDst, label)
}

// CreateStorageBuffer creates a shader-visible storage buffer: the
// light buffer, the tile light list, the cascade and spot matrix
// arrays, the HiZ tile buffer and the particle ring all use this
// shape. Every such buffer is written in exactly one pass per frame.
func CreateStorageBuffer(ctx *Context, size uint64, label string) (*Buffer, error) {
	return CreateBufferSimple(ctx, size, gputypes.BufferUsageStorage|gputypes.BufferUsageCopyDst, label)
}
