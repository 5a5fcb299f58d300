//go:build !nogpu

package gpu

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"
)

func newRecordingRenderPass() *RenderPassEncoder {
	return &RenderPassEncoder{state: RenderPassStateRecording}
}

func TestRenderPassEncoderState(t *testing.T) {
	p := newRecordingRenderPass()
	if p.State() != RenderPassStateRecording {
		t.Errorf("State() = %v, want Recording", p.State())
	}
	if p.IsEnded() {
		t.Error("a fresh pass must not report ended")
	}

	if err := p.End(); err != nil {
		t.Fatalf("End() error = %v", err)
	}
	if !p.IsEnded() {
		t.Error("pass must report ended after End")
	}

	var nilPass *RenderPassEncoder
	if nilPass.State() != RenderPassStateEnded {
		t.Error("a nil pass must report ended")
	}
}

func TestRenderPassEncoderSetPipeline(t *testing.T) {
	p := newRecordingRenderPass()

	if err := p.SetPipeline(nil); !errors.Is(err, ErrNilPipeline) {
		t.Errorf("SetPipeline(nil) error = %v, want ErrNilPipeline", err)
	}

	depthOnly := &RenderPipeline{label: "shadow-depth-only"}
	if err := p.SetPipeline(depthOnly); err != nil {
		t.Fatalf("SetPipeline() error = %v", err)
	}

	_ = p.End()
	if err := p.SetPipeline(depthOnly); !errors.Is(err, ErrPassEnded) {
		t.Errorf("SetPipeline() after End error = %v, want ErrPassEnded", err)
	}
}

func TestRenderPassEncoderSetBindGroup(t *testing.T) {
	p := newRecordingRenderPass()
	bg := &BindGroup{label: "camera-uniform"}

	for index := uint32(0); index <= 3; index++ {
		if err := p.SetBindGroup(index, bg, nil); err != nil {
			t.Errorf("SetBindGroup(%d) error = %v", index, err)
		}
	}

	if err := p.SetBindGroup(4, bg, nil); !errors.Is(err, ErrBindGroupIndexOutOfRange) {
		t.Errorf("SetBindGroup(4) error = %v, want ErrBindGroupIndexOutOfRange", err)
	}
	if err := p.SetBindGroup(0, nil, nil); !errors.Is(err, ErrNilBindGroup) {
		t.Errorf("SetBindGroup(0, nil) error = %v, want ErrNilBindGroup", err)
	}
}

func TestRenderPassEncoderSetVertexBuffer(t *testing.T) {
	p := newRecordingRenderPass()

	if err := p.SetVertexBuffer(VertexBufferSlot, &Buffer{}, 0, 0); err != nil {
		t.Fatalf("SetVertexBuffer(vertex slot) error = %v", err)
	}
	if err := p.SetVertexBuffer(InstanceBufferSlot, &Buffer{}, 0, 0); err != nil {
		t.Fatalf("SetVertexBuffer(instance slot) error = %v", err)
	}
	if err := p.SetVertexBuffer(0, nil, 0, 0); !errors.Is(err, ErrNilVertexBuffer) {
		t.Errorf("SetVertexBuffer(nil) error = %v, want ErrNilVertexBuffer", err)
	}

	_ = p.End()
	if err := p.SetVertexBuffer(0, &Buffer{}, 0, 0); !errors.Is(err, ErrPassEnded) {
		t.Errorf("SetVertexBuffer() after End error = %v, want ErrPassEnded", err)
	}
}

func TestRenderPassEncoderSetIndexBuffer(t *testing.T) {
	p := newRecordingRenderPass()

	if err := p.SetIndexBuffer(&Buffer{}, IndexFormatUint32, 0, 0); err != nil {
		t.Fatalf("SetIndexBuffer() error = %v", err)
	}
	if err := p.SetIndexBuffer(nil, IndexFormatUint32, 0, 0); !errors.Is(err, ErrNilIndexBuffer) {
		t.Errorf("SetIndexBuffer(nil) error = %v, want ErrNilIndexBuffer", err)
	}
}

func TestRenderPassEncoderViewportAndScissor(t *testing.T) {
	p := newRecordingRenderPass()

	if err := p.SetViewport(0, 0, 1280, 720, 0, 1); err != nil {
		t.Fatalf("SetViewport() error = %v", err)
	}
	if err := p.SetScissorRect(0, 0, 1280, 720); err != nil {
		t.Fatalf("SetScissorRect() error = %v", err)
	}

	_ = p.End()
	if err := p.SetViewport(0, 0, 1, 1, 0, 1); !errors.Is(err, ErrPassEnded) {
		t.Errorf("SetViewport() after End error = %v, want ErrPassEnded", err)
	}
}

func TestRenderPassEncoderSetSpotAtlasViewport(t *testing.T) {
	// Slot 5 of a 4x4 grid with 512px tiles sits at column 1, row 1.
	p := newRecordingRenderPass()
	if err := p.SetSpotAtlasViewport(5, 512); err != nil {
		t.Fatalf("SetSpotAtlasViewport(5) error = %v", err)
	}

	for _, slot := range []int{-1, 16, 100} {
		if err := p.SetSpotAtlasViewport(slot, 512); !errors.Is(err, ErrSpotSlotOutOfRange) {
			t.Errorf("SetSpotAtlasViewport(%d) error = %v, want ErrSpotSlotOutOfRange", slot, err)
		}
	}
	if err := p.SetSpotAtlasViewport(0, 0); !errors.Is(err, ErrInvalidDimensions) {
		t.Errorf("SetSpotAtlasViewport(tileSize=0) error = %v, want ErrInvalidDimensions", err)
	}
}

func TestRenderPassEncoderBlendAndStencil(t *testing.T) {
	p := newRecordingRenderPass()

	if err := p.SetBlendConstant(gputypes.Color{R: 1, G: 1, B: 1, A: 1}); err != nil {
		t.Fatalf("SetBlendConstant() error = %v", err)
	}
	if err := p.SetStencilReference(1); err != nil {
		t.Fatalf("SetStencilReference() error = %v", err)
	}
}

func TestRenderPassEncoderDraw(t *testing.T) {
	p := newRecordingRenderPass()

	if err := p.DrawFullScreen(); err != nil {
		t.Fatalf("DrawFullScreen() error = %v", err)
	}
	if err := p.DrawParticles(256); err != nil {
		t.Fatalf("DrawParticles() error = %v", err)
	}
	if p.DrawCount() != 2 {
		t.Errorf("DrawCount() = %d, want 2", p.DrawCount())
	}

	_ = p.End()
	if err := p.Draw(3, 1, 0, 0); !errors.Is(err, ErrPassEnded) {
		t.Errorf("Draw() after End error = %v, want ErrPassEnded", err)
	}
}

func TestRenderPassEncoderDrawBatch(t *testing.T) {
	p := newRecordingRenderPass()

	// One batch of 36 indices drawn twice: the two-entities-one-model
	// instancing shape the G-buffer pass produces.
	if err := p.DrawBatch(&Buffer{}, &Buffer{}, &Buffer{}, 36, 2); err != nil {
		t.Fatalf("DrawBatch() error = %v", err)
	}
	if p.DrawCount() != 1 {
		t.Errorf("DrawCount() = %d, want 1", p.DrawCount())
	}
	if !p.hasIndexBuffer {
		t.Error("DrawBatch must bind the index buffer")
	}
	if p.vertexBufferCount != 2 {
		t.Errorf("vertexBufferCount = %d, want 2 (vertex + instance)", p.vertexBufferCount)
	}

	if err := p.DrawBatch(nil, &Buffer{}, &Buffer{}, 36, 1); !errors.Is(err, ErrNilVertexBuffer) {
		t.Errorf("DrawBatch(nil vertex) error = %v, want ErrNilVertexBuffer", err)
	}
	if err := p.DrawBatch(&Buffer{}, &Buffer{}, nil, 36, 1); !errors.Is(err, ErrNilIndexBuffer) {
		t.Errorf("DrawBatch(nil index) error = %v, want ErrNilIndexBuffer", err)
	}
}

func TestRenderPassEncoderEndIsIdempotent(t *testing.T) {
	p := newRecordingRenderPass()
	if err := p.End(); err != nil {
		t.Fatalf("End() error = %v", err)
	}
	if err := p.End(); err != nil {
		t.Fatalf("second End() error = %v", err)
	}
}

func TestRenderPassStateString(t *testing.T) {
	if RenderPassStateRecording.String() != "Recording" {
		t.Errorf("Recording.String() = %q", RenderPassStateRecording.String())
	}
	if RenderPassStateEnded.String() != "Ended" {
		t.Errorf("Ended.String() = %q", RenderPassStateEnded.String())
	}
	if RenderPassState(42).String() != "Unknown(42)" {
		t.Errorf("unknown state String() = %q", RenderPassState(42).String())
	}
}

func TestRenderPipelineMethods(t *testing.T) {
	pipeline := &RenderPipeline{id: 3, label: "gbuffer-skinned"}

	if pipeline.ID() != 3 {
		t.Errorf("ID() = %d, want 3", pipeline.ID())
	}
	if pipeline.Label() != "gbuffer-skinned" {
		t.Errorf("Label() = %q", pipeline.Label())
	}
	if pipeline.IsDestroyed() {
		t.Error("fresh pipeline must not report destroyed")
	}
	pipeline.Destroy()
	if !pipeline.IsDestroyed() {
		t.Error("pipeline must report destroyed after Destroy")
	}
}

func TestBindGroupMethods(t *testing.T) {
	bg := &BindGroup{id: 9, label: "lighting-gbuffer"}

	if bg.ID() != 9 {
		t.Errorf("ID() = %d, want 9", bg.ID())
	}
	if bg.Label() != "lighting-gbuffer" {
		t.Errorf("Label() = %q", bg.Label())
	}
	if bg.IsDestroyed() {
		t.Error("fresh bind group must not report destroyed")
	}
	bg.Destroy()
	if !bg.IsDestroyed() {
		t.Error("bind group must report destroyed after Destroy")
	}
}

func TestIndexFormatValues(t *testing.T) {
	if IndexFormatUint16 != 0 {
		t.Errorf("IndexFormatUint16 = %d, want 0", IndexFormatUint16)
	}
	if IndexFormatUint32 != 1 {
		t.Errorf("IndexFormatUint32 = %d, want 1", IndexFormatUint32)
	}
}
