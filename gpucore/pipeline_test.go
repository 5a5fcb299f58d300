package gpucore

import "testing"

// fakeAdapter is a minimal GPUAdapter stub for exercising TileGrid without
// a real GPU backend.
type fakeAdapter struct {
	supportsCompute bool
}

func (f *fakeAdapter) SupportsCompute() bool         { return f.supportsCompute }
func (f *fakeAdapter) MaxWorkgroupSize() [3]uint32   { return [3]uint32{256, 256, 64} }
func (f *fakeAdapter) MaxBufferSize() uint64         { return 1 << 30 }
func (f *fakeAdapter) CreateShaderModule(spirv []uint32, label string) (ShaderModuleID, error) {
	return ShaderModuleID(1), nil
}
func (f *fakeAdapter) DestroyShaderModule(id ShaderModuleID) {}
func (f *fakeAdapter) CreateBuffer(size int, usage BufferUsage) (BufferID, error) {
	return BufferID(1), nil
}
func (f *fakeAdapter) DestroyBuffer(id BufferID)                    {}
func (f *fakeAdapter) WriteBuffer(id BufferID, offset uint64, data []byte) {}
func (f *fakeAdapter) ReadBuffer(id BufferID, offset, size uint64) ([]byte, error) {
	return make([]byte, size), nil
}
func (f *fakeAdapter) CreateTexture(width, height int, format TextureFormat) (TextureID, error) {
	return TextureID(1), nil
}
func (f *fakeAdapter) DestroyTexture(id TextureID)        {}
func (f *fakeAdapter) WriteTexture(id TextureID, data []byte) {}
func (f *fakeAdapter) ReadTexture(id TextureID) ([]byte, error) {
	return nil, nil
}
func (f *fakeAdapter) CreateBindGroupLayout(desc *BindGroupLayoutDesc) (BindGroupLayoutID, error) {
	return BindGroupLayoutID(1), nil
}
func (f *fakeAdapter) DestroyBindGroupLayout(id BindGroupLayoutID) {}
func (f *fakeAdapter) CreatePipelineLayout(layouts []BindGroupLayoutID) (PipelineLayoutID, error) {
	return PipelineLayoutID(1), nil
}
func (f *fakeAdapter) DestroyPipelineLayout(id PipelineLayoutID) {}
func (f *fakeAdapter) CreateComputePipeline(desc *ComputePipelineDesc) (ComputePipelineID, error) {
	return ComputePipelineID(1), nil
}
func (f *fakeAdapter) DestroyComputePipeline(id ComputePipelineID) {}
func (f *fakeAdapter) CreateBindGroup(layout BindGroupLayoutID, entries []BindGroupEntry) (BindGroupID, error) {
	return BindGroupID(1), nil
}
func (f *fakeAdapter) DestroyBindGroup(id BindGroupID)      {}
func (f *fakeAdapter) BeginComputePass() ComputePassEncoder { return &fakeComputePass{} }
func (f *fakeAdapter) Submit()                              {}
func (f *fakeAdapter) WaitIdle()                             {}

type fakeComputePass struct{}

func (f *fakeComputePass) SetPipeline(pipeline ComputePipelineID)        {}
func (f *fakeComputePass) SetBindGroup(index uint32, group BindGroupID)  {}
func (f *fakeComputePass) Dispatch(x, y, z uint32)                       {}
func (f *fakeComputePass) End()                                          {}

func TestNewTileGridRejectsNilAdapter(t *testing.T) {
	_, err := NewTileGrid(nil, TileGridConfig{Width: 1920, Height: 1080})
	if err == nil {
		t.Fatal("expected error for nil adapter")
	}
}

func TestNewTileGridRejectsInvalidSize(t *testing.T) {
	a := &fakeAdapter{supportsCompute: true}
	if _, err := NewTileGrid(a, TileGridConfig{Width: 0, Height: 1080}); err == nil {
		t.Fatal("expected error for zero width")
	}
	if _, err := NewTileGrid(a, TileGridConfig{Width: 1920, Height: -1}); err == nil {
		t.Fatal("expected error for negative height")
	}
}

func TestTileGridDimensions(t *testing.T) {
	a := &fakeAdapter{supportsCompute: true}
	g, err := NewTileGrid(a, TileGridConfig{Width: 1920, Height: 1080})
	if err != nil {
		t.Fatalf("NewTileGrid() error = %v", err)
	}

	// 1920/16 = 120 exactly, 1080/16 = 67.5 -> rounds up to 68.
	if got := g.TileColumns(); got != 120 {
		t.Errorf("TileColumns() = %d, want 120", got)
	}
	if got := g.TileRows(); got != 68 {
		t.Errorf("TileRows() = %d, want 68", got)
	}
	if got := g.TileCount(); got != 120*68 {
		t.Errorf("TileCount() = %d, want %d", got, 120*68)
	}
	if got := g.MaxLightsPerTile(); got != DefaultMaxLightsPerTile {
		t.Errorf("MaxLightsPerTile() = %d, want %d", got, DefaultMaxLightsPerTile)
	}
	if got := g.LightListBufferSize(); got != 120*68*(1+DefaultMaxLightsPerTile)*4 {
		t.Errorf("LightListBufferSize() = %d, want %d", got, 120*68*(1+DefaultMaxLightsPerTile)*4)
	}
}

func TestTileGridCustomTileSizeAndBudget(t *testing.T) {
	a := &fakeAdapter{supportsCompute: true}
	g, err := NewTileGrid(a, TileGridConfig{
		Width:            800,
		Height:           600,
		TileSizePixels:   32,
		MaxLightsPerTile: 64,
	})
	if err != nil {
		t.Fatalf("NewTileGrid() error = %v", err)
	}

	if got := g.TileColumns(); got != 25 {
		t.Errorf("TileColumns() = %d, want 25", got)
	}
	if got := g.TileRows(); got != 19 {
		t.Errorf("TileRows() = %d, want 19", got)
	}
	if got := g.MaxLightsPerTile(); got != 64 {
		t.Errorf("MaxLightsPerTile() = %d, want 64", got)
	}
}

func TestTileGridResize(t *testing.T) {
	a := &fakeAdapter{supportsCompute: true}
	g, err := NewTileGrid(a, TileGridConfig{Width: 1920, Height: 1080})
	if err != nil {
		t.Fatalf("NewTileGrid() error = %v", err)
	}

	if err := g.Resize(1280, 720); err != nil {
		t.Fatalf("Resize() error = %v", err)
	}
	if got := g.TileColumns(); got != 80 {
		t.Errorf("TileColumns() = %d, want 80", got)
	}
	if got := g.TileRows(); got != 45 {
		t.Errorf("TileRows() = %d, want 45", got)
	}

	if err := g.Resize(0, 720); err == nil {
		t.Fatal("expected error resizing to zero width")
	}
}

func TestTileGridUseCompute(t *testing.T) {
	cfg := TileGridConfig{Width: 1920, Height: 1080}

	g, err := NewTileGrid(&fakeAdapter{supportsCompute: true}, cfg)
	if err != nil {
		t.Fatalf("NewTileGrid() error = %v", err)
	}
	if !g.UseCompute() {
		t.Error("UseCompute() = false, want true")
	}

	g2, err := NewTileGrid(&fakeAdapter{supportsCompute: false}, cfg)
	if err != nil {
		t.Fatalf("NewTileGrid() error = %v", err)
	}
	if g2.UseCompute() {
		t.Error("UseCompute() = true, want false")
	}
}

func TestTileGridDispatchSize(t *testing.T) {
	a := &fakeAdapter{supportsCompute: true}
	g, err := NewTileGrid(a, TileGridConfig{Width: 1920, Height: 1080})
	if err != nil {
		t.Fatalf("NewTileGrid() error = %v", err)
	}

	x, y, z := g.DispatchSize(8)
	if x != 15 || y != 9 || z != 1 {
		t.Errorf("DispatchSize(8) = (%d,%d,%d), want (15,9,1)", x, y, z)
	}

	x, y, z = g.DispatchSize(0)
	if x != 120 || y != 68 || z != 1 {
		t.Errorf("DispatchSize(0) = (%d,%d,%d), want (120,68,1)", x, y, z)
	}
}
