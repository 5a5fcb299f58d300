//go:build !nogpu

package gpu

import (
	"testing"

	"github.com/bitofgold/topazcube/gpucore"
	"github.com/bitofgold/topazcube/internal/instance"
)

func TestInstanceAllocatorLifecycle(t *testing.T) {
	alloc := NewInstanceAllocator(NewContext())

	id := alloc.CreateInstanceBuffer(1024)
	if id == 0 {
		t.Fatal("expected a non-zero buffer id")
	}

	data := make([]byte, 512*gpucore.InstanceStride)
	alloc.WriteInstanceBuffer(id, data)

	live, written, frames := alloc.Stats()
	if live != 1 {
		t.Errorf("live buffers = %d, want 1", live)
	}
	if written != len(data) {
		t.Errorf("bytes written = %d, want %d", written, len(data))
	}
	if frames != 1 {
		t.Errorf("frames recorded = %d, want 1", frames)
	}
	// The context above was never Init'd, so the FrameEncoder's command
	// encoder creation fails every frame; LastFrameError surfaces that
	// rather than swallowing it.
	if alloc.LastFrameError() == nil {
		t.Error("expected LastFrameError on an uninitialized context")
	}

	alloc.DestroyInstanceBuffer(id)
	live, _, _ = alloc.Stats()
	if live != 0 {
		t.Errorf("live buffers after destroy = %d, want 0", live)
	}

	// Writing to a destroyed/unknown id must not panic.
	alloc.WriteInstanceBuffer(id, data)
}

func TestInstanceAllocatorSatisfiesPoolInterface(t *testing.T) {
	alloc := NewInstanceAllocator(NewContext())
	pool := instance.NewPool(alloc)

	buf := pool.Acquire(10)
	if buf.Capacity < 10 {
		t.Fatalf("acquired capacity %d < 10", buf.Capacity)
	}
	pool.Release(buf)
	pool.Teardown()

	live, _, _ := alloc.Stats()
	if live != 0 {
		t.Errorf("live buffers after teardown = %d, want 0", live)
	}
}

func TestInstanceAllocatorRecordsTileLightDispatchWhenGridAttached(t *testing.T) {
	alloc := NewInstanceAllocator(NewContext())
	grid, err := gpucore.NewTileGrid(fakeTileAdapter{}, gpucore.TileGridConfig{Width: 1920, Height: 1080})
	if err != nil {
		t.Fatalf("NewTileGrid: %v", err)
	}
	alloc.SetTileGrid(grid)

	id := alloc.CreateInstanceBuffer(64)
	alloc.WriteInstanceBuffer(id, make([]byte, 64*gpucore.InstanceStride))

	_, _, frames := alloc.Stats()
	if frames != 1 {
		t.Errorf("frames recorded = %d, want 1", frames)
	}
}

// fakeTileAdapter is a minimal gpucore.GPUAdapter stub, enough to build a
// TileGrid without a real GPU backend.
type fakeTileAdapter struct{}

func (fakeTileAdapter) SupportsCompute() bool       { return true }
func (fakeTileAdapter) MaxWorkgroupSize() [3]uint32 { return [3]uint32{256, 256, 64} }
func (fakeTileAdapter) MaxBufferSize() uint64       { return 1 << 30 }
func (fakeTileAdapter) CreateShaderModule(spirv []uint32, label string) (gpucore.ShaderModuleID, error) {
	return gpucore.ShaderModuleID(1), nil
}
func (fakeTileAdapter) DestroyShaderModule(id gpucore.ShaderModuleID) {}
func (fakeTileAdapter) CreateBuffer(size int, usage gpucore.BufferUsage) (gpucore.BufferID, error) {
	return gpucore.BufferID(1), nil
}
func (fakeTileAdapter) DestroyBuffer(id gpucore.BufferID)                         {}
func (fakeTileAdapter) WriteBuffer(id gpucore.BufferID, offset uint64, data []byte) {}
func (fakeTileAdapter) ReadBuffer(id gpucore.BufferID, offset, size uint64) ([]byte, error) {
	return make([]byte, size), nil
}
func (fakeTileAdapter) CreateTexture(width, height int, format gpucore.TextureFormat) (gpucore.TextureID, error) {
	return gpucore.TextureID(1), nil
}
func (fakeTileAdapter) DestroyTexture(id gpucore.TextureID)           {}
func (fakeTileAdapter) WriteTexture(id gpucore.TextureID, data []byte) {}
func (fakeTileAdapter) ReadTexture(id gpucore.TextureID) ([]byte, error) {
	return nil, nil
}
func (fakeTileAdapter) CreateBindGroupLayout(desc *gpucore.BindGroupLayoutDesc) (gpucore.BindGroupLayoutID, error) {
	return gpucore.BindGroupLayoutID(1), nil
}
func (fakeTileAdapter) DestroyBindGroupLayout(id gpucore.BindGroupLayoutID) {}
func (fakeTileAdapter) CreatePipelineLayout(layouts []gpucore.BindGroupLayoutID) (gpucore.PipelineLayoutID, error) {
	return gpucore.PipelineLayoutID(1), nil
}
func (fakeTileAdapter) DestroyPipelineLayout(id gpucore.PipelineLayoutID) {}
func (fakeTileAdapter) CreateComputePipeline(desc *gpucore.ComputePipelineDesc) (gpucore.ComputePipelineID, error) {
	return gpucore.ComputePipelineID(1), nil
}
func (fakeTileAdapter) DestroyComputePipeline(id gpucore.ComputePipelineID) {}
func (fakeTileAdapter) CreateBindGroup(layout gpucore.BindGroupLayoutID, entries []gpucore.BindGroupEntry) (gpucore.BindGroupID, error) {
	return gpucore.BindGroupID(1), nil
}
func (fakeTileAdapter) DestroyBindGroup(id gpucore.BindGroupID) {}
func (fakeTileAdapter) BeginComputePass() gpucore.ComputePassEncoder {
	return fakeTileComputePassEncoder{}
}
func (fakeTileAdapter) Submit()   {}
func (fakeTileAdapter) WaitIdle() {}

type fakeTileComputePassEncoder struct{}

func (fakeTileComputePassEncoder) SetPipeline(pipeline gpucore.ComputePipelineID)       {}
func (fakeTileComputePassEncoder) SetBindGroup(index uint32, group gpucore.BindGroupID) {}
func (fakeTileComputePassEncoder) Dispatch(x, y, z uint32)                              {}
func (fakeTileComputePassEncoder) End()                                                 {}
