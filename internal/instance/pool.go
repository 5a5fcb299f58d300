// Package instance turns a culling pass's grouped results into
// GPU-ready instance buffers: a growable buffer pool keyed by rounded
// capacity, and the per-instance packing (model matrix, bounding
// sphere, UV transform, tint) the G-buffer and shadow passes read.
package instance

import "github.com/bitofgold/topazcube/gpucore"

// MinCapacity is the smallest instance count a pooled buffer is ever
// sized for; every acquired capacity is rounded up to a power of two
// no smaller than this.
const MinCapacity = 1000

// Allocator creates, destroys, and writes GPU buffers sized to hold N
// gpucore.Instance entries. The pool never talks to an adapter
// directly, so it (and everything built on it) can be unit tested
// without a GPU.
type Allocator interface {
	CreateInstanceBuffer(capacity int) gpucore.BufferID
	DestroyInstanceBuffer(id gpucore.BufferID)
	WriteInstanceBuffer(id gpucore.BufferID, data []byte)
}

// Buffer is one GPU-backed instance buffer: a handle plus its capacity
// in instances (not bytes).
type Buffer struct {
	Handle   gpucore.BufferID
	Capacity int
}

// Pool manages reusable instance buffers keyed by capacity. A buffer
// acquired at capacity C may be packed with N <= C instances; only the
// exact N*gpucore.InstanceStride byte range is ever uploaded. Release
// is the only path that frees a buffer back to the pool; Teardown
// destroys every GPU handle the pool has ever allocated, idle or still
// checked out.
type Pool struct {
	alloc Allocator
	free  map[int][]Buffer
	live  map[gpucore.BufferID]int
}

// NewPool creates an instance buffer pool backed by alloc.
func NewPool(alloc Allocator) *Pool {
	return &Pool{
		alloc: alloc,
		free:  make(map[int][]Buffer),
		live:  make(map[gpucore.BufferID]int),
	}
}

// Acquire returns a buffer with capacity >= n instances, reusing an
// idle buffer of the rounded capacity if one exists, otherwise
// allocating a new one.
func (p *Pool) Acquire(n int) Buffer {
	capacity := roundCapacity(n)
	if bucket := p.free[capacity]; len(bucket) > 0 {
		buf := bucket[len(bucket)-1]
		p.free[capacity] = bucket[:len(bucket)-1]
		return buf
	}

	id := p.alloc.CreateInstanceBuffer(capacity)
	buf := Buffer{Handle: id, Capacity: capacity}
	p.live[id] = capacity
	return buf
}

// Release returns a single buffer to the pool for reuse by a future
// Acquire of the same capacity.
func (p *Pool) Release(buf Buffer) {
	p.free[buf.Capacity] = append(p.free[buf.Capacity], buf)
}

// ReleaseAll returns every buffer in bufs to the pool. Called once per
// frame when a new batch build starts, returning the previous frame's
// buffers before this frame's batches are built.
func (p *Pool) ReleaseAll(bufs []Buffer) {
	for _, b := range bufs {
		p.Release(b)
	}
}

// Teardown destroys every GPU handle the pool has ever allocated. Only
// called once, at engine shutdown.
func (p *Pool) Teardown() {
	for id := range p.live {
		p.alloc.DestroyInstanceBuffer(id)
	}
	p.free = make(map[int][]Buffer)
	p.live = make(map[gpucore.BufferID]int)
}

// LiveCapacityFor reports the capacity a previously acquired handle
// was allocated at, or (0, false) if the handle is unknown.
func (p *Pool) LiveCapacityFor(id gpucore.BufferID) (int, bool) {
	c, ok := p.live[id]
	return c, ok
}

func roundCapacity(n int) int {
	if n < MinCapacity {
		n = MinCapacity
	}
	c := 1
	for c < n {
		c <<= 1
	}
	return c
}
