// Package gpucore provides shared, backend-agnostic GPU abstractions used
// across the renderer: opaque resource IDs, the GPUAdapter capability
// interface, the GPU-aligned marshaling structs for vertices, instances,
// lights and shadow data, and the screen-space tile grid shared by the
// tile light culling and deferred lighting passes.
//
// # Architecture
//
// gpucore implements shared-core-plus-thin-adapter: the dimension math,
// struct layouts and buffer-sizing logic live once in this package, while
// a thin adapter elsewhere translates [GPUAdapter] calls to a specific
// backend (gogpu/wgpu via HAL, or another gogpu backend).
//
//	               +-----------------+
//	               |    gpucore      |
//	               | (TileGrid, IDs, |
//	               |  marshal types) |
//	               +--------+--------+
//	                        |
//	               +--------v--------+
//	               |   wgpu adapter  |
//	               |  (hal.Device)   |
//	               +--------+--------+
//	                        |
//	               +--------v--------+
//	               |   gogpu/wgpu    |
//	               |   (Pure Go)     |
//	               +-----------------+
//
// # Resource Management
//
// GPU resources are referenced via opaque IDs ([BufferID], [TextureID],
// etc.). The [GPUAdapter] interface provides creation and destruction
// methods for each resource type; adapters track the mapping between IDs
// and actual GPU resources.
//
// # GPU Struct Marshaling
//
// [Vertex], [Instance], [GPULight], [GPUShadowData] and the tile/light
// culling uniform structs each expose Size() and Marshal() so CPU-side
// code can build GPU buffers without hand-rolled byte offsets.
//
// # Tile Grid
//
// [TileGrid] computes the screen-space tile dimensions shared by the
// tile light culling compute pass and the deferred lighting pass that
// consumes its output, recomputed on every resize.
package gpucore
