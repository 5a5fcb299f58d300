//go:build !nogpu

// Package gpu wraps the gogpu/wgpu Pure Go WebGPU implementation (zero CGO)
// into the device, resource and command-encoding primitives used throughout
// the renderer. It supports Vulkan, Metal, and DX12 backends depending on
// the platform.
//
// # Architecture Overview
//
// Key components:
//
//   - Context: owns the instance/adapter/device/queue for the session
//   - GPUTexture: a texture resource, optionally array-layered for cascade
//     and spot shadow maps
//   - MemoryManager: GPU texture memory with LRU eviction (configurable
//     budget)
//   - TextureAtlas: shelf-packing allocator backing the spot shadow atlas
//   - Buffer: vertex, index, uniform and storage buffer wrapper
//   - CommandEncoder, RenderPass, ComputePass: command recording for a
//     single frame's G-buffer, lighting, and post-processing passes
//   - PipelineCompiler: WGSL-to-SPIR-V compilation (via gogpu/naga) for
//     every pass pipeline, issued concurrently and awaited once at startup
//   - Surface, DeviceHandle: host window surface ownership over a
//     gpucontext.DeviceProvider
//
// # Usage
//
// Create and initialize a context directly:
//
//	ctx := gpu.NewContext()
//	if err := ctx.Init(); err != nil {
//	    log.Fatal(err)
//	}
//	defer ctx.Close()
//
// # Memory Management
//
// Textures are allocated through a MemoryManager with a configurable budget:
//
//	mm := gpu.NewMemoryManager(ctx, gpu.MemoryManagerConfig{MaxMemoryMB: 512})
//	tex, err := mm.AllocTexture(gpu.TextureConfig{
//	    Width: 1920, Height: 1080, Format: gpu.TextureFormatRGBA16Float,
//	})
//
// When the budget is exceeded, least-recently-used textures are evicted.
//
// # Requirements
//
//   - Go 1.25+ (for generic features)
//   - gogpu/wgpu module (github.com/gogpu/wgpu)
//   - A GPU that supports Vulkan, Metal, or DX12 (for actual GPU rendering)
//
// # Thread Safety
//
// Context, MemoryManager, GPUTexture and TextureAtlas are safe for
// concurrent use from multiple goroutines. Internal synchronization is
// handled via mutexes.
//
// # Error Handling
//
// Common errors returned by this package:
//
//   - ErrNotInitialized: Context must be initialized before use
//   - ErrNoGPU: No compatible GPU found
//   - ErrDeviceLost: GPU device was lost (requires re-initialization)
//   - ErrNilTarget: required target resource is nil
//   - ErrMemoryBudgetExceeded: allocation exceeds the memory budget
//   - ErrAtlasFull: texture atlas has no room for a region
//
// # Related Packages
//
//   - github.com/gogpu/wgpu: Pure Go WebGPU implementation
//   - github.com/gogpu/gputypes: shared descriptor and enum types
//
// # References
//
//   - W3C WebGPU Specification: https://www.w3.org/TR/webgpu/
//   - gogpu Organization: https://github.com/gogpu
//   - gogpu/wgpu: https://github.com/gogpu/wgpu
package gpu
