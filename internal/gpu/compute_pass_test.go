package gpu

import (
	"errors"
	"testing"
)

func newRecordingComputePass() *ComputePassEncoder {
	return &ComputePassEncoder{state: ComputePassStateRecording}
}

func TestComputePassEncoderState(t *testing.T) {
	p := newRecordingComputePass()
	if p.State() != ComputePassStateRecording {
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

	var nilPass *ComputePassEncoder
	if nilPass.State() != ComputePassStateEnded {
		t.Error("a nil pass must report ended")
	}
}

func TestComputePassEncoderSetPipeline(t *testing.T) {
	p := newRecordingComputePass()

	if err := p.SetPipeline(nil); !errors.Is(err, ErrNilComputePipeline) {
		t.Errorf("SetPipeline(nil) error = %v, want ErrNilComputePipeline", err)
	}

	hiz := &ComputePipeline{label: "hiz-reduce", workgroupSize: [3]uint32{8, 8, 1}}
	if err := p.SetPipeline(hiz); err != nil {
		t.Fatalf("SetPipeline() error = %v", err)
	}

	_ = p.End()
	if err := p.SetPipeline(hiz); !errors.Is(err, ErrComputePassEnded) {
		t.Errorf("SetPipeline() after End error = %v, want ErrComputePassEnded", err)
	}
}

func TestComputePassEncoderSetBindGroup(t *testing.T) {
	p := newRecordingComputePass()
	bg := &BindGroup{label: "tile-light-buffers"}

	for index := uint32(0); index <= 3; index++ {
		if err := p.SetBindGroup(index, bg, nil); err != nil {
			t.Errorf("SetBindGroup(%d) error = %v", index, err)
		}
	}

	if err := p.SetBindGroup(4, bg, nil); !errors.Is(err, ErrComputeBindGroupIndexOutOfRange) {
		t.Errorf("SetBindGroup(4) error = %v, want ErrComputeBindGroupIndexOutOfRange", err)
	}
	if err := p.SetBindGroup(0, nil, nil); !errors.Is(err, ErrNilComputeBindGroup) {
		t.Errorf("SetBindGroup(0, nil) error = %v, want ErrNilComputeBindGroup", err)
	}
}

func TestComputePassEncoderDispatchWorkgroups(t *testing.T) {
	p := newRecordingComputePass()

	// One workgroup per 16x16 light-culling tile of a 1280x720 target.
	if err := p.DispatchWorkgroups(80, 45, 1); err != nil {
		t.Fatalf("DispatchWorkgroups() error = %v", err)
	}
	// Zero workgroups is a valid no-op dispatch.
	if err := p.DispatchWorkgroups(0, 0, 0); err != nil {
		t.Fatalf("DispatchWorkgroups(0,0,0) error = %v", err)
	}
	if p.DispatchCount() != 2 {
		t.Errorf("DispatchCount() = %d, want 2", p.DispatchCount())
	}

	_ = p.End()
	if err := p.DispatchWorkgroups(1, 1, 1); !errors.Is(err, ErrComputePassEnded) {
		t.Errorf("DispatchWorkgroups() after End error = %v, want ErrComputePassEnded", err)
	}
}

func TestComputePassEncoderDispatchScreenTiles(t *testing.T) {
	tests := []struct {
		name          string
		width, height uint32
		tilePx        uint32
	}{
		{"hiz 64px tiles, exact", 1280, 640, 64},
		{"hiz 64px tiles, partial edge", 1280, 720, 64},
		{"light culling 16px tiles", 1920, 1080, 16},
		{"single pixel target", 1, 1, 64},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newRecordingComputePass()
			if err := p.DispatchScreenTiles(tt.width, tt.height, tt.tilePx); err != nil {
				t.Fatalf("DispatchScreenTiles() error = %v", err)
			}
			if p.DispatchCount() != 1 {
				t.Errorf("DispatchCount() = %d, want 1", p.DispatchCount())
			}
		})
	}

	p := newRecordingComputePass()
	if err := p.DispatchScreenTiles(1280, 720, 0); !errors.Is(err, ErrZeroTileSize) {
		t.Errorf("DispatchScreenTiles(tilePx=0) error = %v, want ErrZeroTileSize", err)
	}
}

func TestComputePassEncoderEndIsIdempotent(t *testing.T) {
	p := newRecordingComputePass()
	if err := p.End(); err != nil {
		t.Fatalf("End() error = %v", err)
	}
	if err := p.End(); err != nil {
		t.Fatalf("second End() error = %v", err)
	}
}

func TestComputePassStateString(t *testing.T) {
	if ComputePassStateRecording.String() != "Recording" {
		t.Errorf("Recording.String() = %q", ComputePassStateRecording.String())
	}
	if ComputePassStateEnded.String() != "Ended" {
		t.Errorf("Ended.String() = %q", ComputePassStateEnded.String())
	}
	if ComputePassState(99).String() != "Unknown(99)" {
		t.Errorf("unknown state String() = %q", ComputePassState(99).String())
	}
}

func TestComputePipelineMethods(t *testing.T) {
	pipeline := &ComputePipeline{
		id:            7,
		label:         "particle-simulate",
		workgroupSize: [3]uint32{64, 1, 1},
	}

	if pipeline.ID() != 7 {
		t.Errorf("ID() = %d, want 7", pipeline.ID())
	}
	if pipeline.Label() != "particle-simulate" {
		t.Errorf("Label() = %q", pipeline.Label())
	}
	if pipeline.WorkgroupSize() != [3]uint32{64, 1, 1} {
		t.Errorf("WorkgroupSize() = %v", pipeline.WorkgroupSize())
	}

	if pipeline.IsDestroyed() {
		t.Error("fresh pipeline must not report destroyed")
	}
	pipeline.Destroy()
	if !pipeline.IsDestroyed() {
		t.Error("pipeline must report destroyed after Destroy")
	}
}

// One frame's compute sequence: HiZ reduce, then tile light culling,
// mirroring the pass order the render graph enforces.
func TestComputePassTypicalFrame(t *testing.T) {
	hizPass := newRecordingComputePass()
	if err := hizPass.SetPipeline(&ComputePipeline{label: "hiz-reduce", workgroupSize: [3]uint32{8, 8, 1}}); err != nil {
		t.Fatalf("SetPipeline() error = %v", err)
	}
	if err := hizPass.SetBindGroup(0, &BindGroup{label: "hiz-depth"}, nil); err != nil {
		t.Fatalf("SetBindGroup() error = %v", err)
	}
	if err := hizPass.DispatchScreenTiles(1280, 720, 64); err != nil {
		t.Fatalf("DispatchScreenTiles() error = %v", err)
	}
	if err := hizPass.End(); err != nil {
		t.Fatalf("End() error = %v", err)
	}

	cullPass := newRecordingComputePass()
	if err := cullPass.SetPipeline(&ComputePipeline{label: "tile-light-cull", workgroupSize: [3]uint32{16, 16, 1}}); err != nil {
		t.Fatalf("SetPipeline() error = %v", err)
	}
	if err := cullPass.DispatchScreenTiles(1280, 720, 16); err != nil {
		t.Fatalf("DispatchScreenTiles() error = %v", err)
	}
	if err := cullPass.End(); err != nil {
		t.Fatalf("End() error = %v", err)
	}

	if hizPass.DispatchCount() != 1 || cullPass.DispatchCount() != 1 {
		t.Errorf("dispatch counts = %d, %d, want 1, 1", hizPass.DispatchCount(), cullPass.DispatchCount())
	}
}
