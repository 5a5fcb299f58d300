//go:build !nogpu

package gpu

import "github.com/bitofgold/topazcube/gpucore"

// tileLightGroupSize is the number of tiles per side that one
// tile-light culling workgroup covers: each 16x16 workgroup handles
// exactly one tile, so the dispatch is one workgroup per tile.
const tileLightGroupSize = 1

// FrameEncoder sequences the command-buffer recording for one frame: a
// compute pass for tile-light culling followed by a render pass for the
// G-buffer fill. It is the real consumer of CoreCommandEncoder,
// ComputePassEncoder and RenderPassEncoder: until a concrete backend
// wires real pipelines and bind groups, the compute pass records a single
// dispatch sized from the tile grid and the render pass records no draws,
// the same "tracked now, dispatch pending the backend" shape
// GPUTexture.UploadLayer and InstanceAllocator.WriteInstanceBuffer
// already use for their own resources.
type FrameEncoder struct {
	ctx *Context
}

// NewFrameEncoder builds a FrameEncoder over ctx.
func NewFrameEncoder(ctx *Context) *FrameEncoder {
	return &FrameEncoder{ctx: ctx}
}

// RecordFrame opens a command encoder, records the tile-light compute
// pass and the G-buffer render pass back to back, and finishes the
// encoder into a submittable command buffer. tileGrid is optional; when
// nil the compute pass is skipped, matching a frame with tile-light
// culling disabled.
func (f *FrameEncoder) RecordFrame(label string, tileGrid *gpucore.TileGrid) (*CoreCommandBuffer, error) {
	encoder, err := NewCoreCommandEncoder(f.ctx, label)
	if err != nil {
		return nil, err
	}

	if tileGrid != nil {
		computePass, err := encoder.BeginComputePass(&ComputePassDescriptor{Label: label + ".tile-light"})
		if err != nil {
			return nil, err
		}
		x, y, z := tileGrid.DispatchSize(tileLightGroupSize)
		if err := computePass.DispatchWorkgroups(x, y, z); err != nil {
			return nil, err
		}
		if err := computePass.End(); err != nil {
			return nil, err
		}
	}

	renderPass, err := encoder.BeginRenderPass(&RenderPassDescriptor{Label: label + ".gbuffer"})
	if err != nil {
		return nil, err
	}
	if err := renderPass.End(); err != nil {
		return nil, err
	}

	return encoder.Finish()
}
