package rendergraph

import (
	"testing"
	"time"

	"github.com/bitofgold/topazcube/gpucore"
	"github.com/bitofgold/topazcube/internal/cull"
	"github.com/bitofgold/topazcube/internal/entity"
	"github.com/bitofgold/topazcube/internal/instance"
	"github.com/bitofgold/topazcube/internal/mathutil"
	"github.com/bitofgold/topazcube/internal/shadow"
	"github.com/bitofgold/topazcube/internal/tilelight"
)

func TestDescribeAndRenderingDispatch(t *testing.T) {
	cases := []struct {
		state     EngineState
		rendering bool
	}{
		{Running{}, true},
		{Degraded{Reason: "timestamps unsupported"}, true},
		{Stopped{Reason: "no adapter"}, false},
	}
	for _, c := range cases {
		if got := Rendering(c.state); got != c.rendering {
			t.Errorf("Rendering(%v) = %v, want %v", Describe(c.state), got, c.rendering)
		}
	}
}

func TestInFlightSkipsSecondBegin(t *testing.T) {
	var f InFlight
	if !f.Begin() {
		t.Fatal("first Begin should succeed")
	}
	if f.Begin() {
		t.Fatal("second Begin while busy should fail")
	}
	f.End()
	if !f.Begin() {
		t.Fatal("Begin after End should succeed")
	}
}

type countingResizable struct {
	calls int
	lastW, lastH int
}

func (c *countingResizable) Resize(w, h int, scale float32) error {
	c.calls++
	c.lastW, c.lastH = w, h
	return nil
}

func TestResizeToSameDimensionsIsIdempotent(t *testing.T) {
	g := &Graph{}
	r := &countingResizable{}
	g.RegisterResizable(r)

	if err := g.Resize(800, 600, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := g.Resize(800, 600, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", r.calls)
	}
	if r.lastW != 800 || r.lastH != 600 {
		t.Fatalf("expected dimensions to stick, got %d %d", r.lastW, r.lastH)
	}
}

func TestResizeDrainsInFlightBeforeCalling(t *testing.T) {
	g := &Graph{}
	r := &countingResizable{}
	g.RegisterResizable(r)
	g.inFlight.Begin()

	go func() {
		time.Sleep(2 * ResizePollInterval)
		g.inFlight.End()
	}()

	if err := g.Resize(1280, 720, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.calls != 1 {
		t.Fatalf("expected resize to run once in-flight cleared, got %d calls", r.calls)
	}
}

type fakeAllocator struct {
	nextID gpucore.BufferID
}

func (a *fakeAllocator) CreateInstanceBuffer(capacity int) gpucore.BufferID {
	a.nextID++
	return a.nextID
}
func (a *fakeAllocator) DestroyInstanceBuffer(id gpucore.BufferID) {}
func (a *fakeAllocator) WriteInstanceBuffer(id gpucore.BufferID, data []byte) {}

// fakeGPUAdapter is a minimal gpucore.GPUAdapter stub, enough to build a
// TileGrid without a real GPU backend.
type fakeGPUAdapter struct{}

func (fakeGPUAdapter) SupportsCompute() bool       { return true }
func (fakeGPUAdapter) MaxWorkgroupSize() [3]uint32 { return [3]uint32{256, 256, 64} }
func (fakeGPUAdapter) MaxBufferSize() uint64       { return 1 << 30 }
func (fakeGPUAdapter) CreateShaderModule(spirv []uint32, label string) (gpucore.ShaderModuleID, error) {
	return gpucore.ShaderModuleID(1), nil
}
func (fakeGPUAdapter) DestroyShaderModule(id gpucore.ShaderModuleID) {}
func (fakeGPUAdapter) CreateBuffer(size int, usage gpucore.BufferUsage) (gpucore.BufferID, error) {
	return gpucore.BufferID(1), nil
}
func (fakeGPUAdapter) DestroyBuffer(id gpucore.BufferID)                    {}
func (fakeGPUAdapter) WriteBuffer(id gpucore.BufferID, offset uint64, data []byte) {}
func (fakeGPUAdapter) ReadBuffer(id gpucore.BufferID, offset, size uint64) ([]byte, error) {
	return make([]byte, size), nil
}
func (fakeGPUAdapter) CreateTexture(width, height int, format gpucore.TextureFormat) (gpucore.TextureID, error) {
	return gpucore.TextureID(1), nil
}
func (fakeGPUAdapter) DestroyTexture(id gpucore.TextureID)        {}
func (fakeGPUAdapter) WriteTexture(id gpucore.TextureID, data []byte) {}
func (fakeGPUAdapter) ReadTexture(id gpucore.TextureID) ([]byte, error) {
	return nil, nil
}
func (fakeGPUAdapter) CreateBindGroupLayout(desc *gpucore.BindGroupLayoutDesc) (gpucore.BindGroupLayoutID, error) {
	return gpucore.BindGroupLayoutID(1), nil
}
func (fakeGPUAdapter) DestroyBindGroupLayout(id gpucore.BindGroupLayoutID) {}
func (fakeGPUAdapter) CreatePipelineLayout(layouts []gpucore.BindGroupLayoutID) (gpucore.PipelineLayoutID, error) {
	return gpucore.PipelineLayoutID(1), nil
}
func (fakeGPUAdapter) DestroyPipelineLayout(id gpucore.PipelineLayoutID) {}
func (fakeGPUAdapter) CreateComputePipeline(desc *gpucore.ComputePipelineDesc) (gpucore.ComputePipelineID, error) {
	return gpucore.ComputePipelineID(1), nil
}
func (fakeGPUAdapter) DestroyComputePipeline(id gpucore.ComputePipelineID) {}
func (fakeGPUAdapter) CreateBindGroup(layout gpucore.BindGroupLayoutID, entries []gpucore.BindGroupEntry) (gpucore.BindGroupID, error) {
	return gpucore.BindGroupID(1), nil
}
func (fakeGPUAdapter) DestroyBindGroup(id gpucore.BindGroupID) {}
func (fakeGPUAdapter) BeginComputePass() gpucore.ComputePassEncoder {
	return fakeComputePassEncoder{}
}
func (fakeGPUAdapter) Submit()   {}
func (fakeGPUAdapter) WaitIdle() {}

type fakeComputePassEncoder struct{}

func (fakeComputePassEncoder) SetPipeline(pipeline gpucore.ComputePipelineID)       {}
func (fakeComputePassEncoder) SetBindGroup(index uint32, group gpucore.BindGroupID) {}
func (fakeComputePassEncoder) Dispatch(x, y, z uint32)                              {}
func (fakeComputePassEncoder) End()                                                 {}

func TestEnableTileLightCullingPublishesTileDimensions(t *testing.T) {
	g := NewGraph(
		cull.Config{MaxDistance: 1000},
		shadow.Config{CascadeCount: 1, CascadeSizes: []float32{10}},
		TemporalConfig{JitterEnabled: true, JitterScale: 1},
		EffectsConfig{},
		&fakeAllocator{}, fakeEntities{}, fakeAssets{},
		256, 256, 8,
	)

	if err := g.EnableTileLightCulling(fakeGPUAdapter{}, 128); err != nil {
		t.Fatalf("EnableTileLightCulling: %v", err)
	}

	result, ok := g.RunFrame(FrameInputs{
		Entities: entity.NewStore(),
		Proj:     mathutil.Mat4Perspective(1, 1, 0.1, 100),
		View:     mathutil.Mat4Identity(),
		Near:     0.1,
		Far:      100,
	})
	if !ok {
		t.Fatal("expected RunFrame to proceed")
	}
	if result.TileCountX == 0 || result.TileCountY == 0 {
		t.Errorf("expected non-zero tile grid dimensions, got %dx%d", result.TileCountX, result.TileCountY)
	}
	if result.MaxLightsPerTile != 128 {
		t.Errorf("MaxLightsPerTile = %d, want 128", result.MaxLightsPerTile)
	}
	if !result.TileCullingUsesCompute {
		t.Error("expected tile culling to report compute support from the fake adapter")
	}
}

type fakeEntities struct{}

func (fakeEntities) Get(id entity.ID) (entity.Entity, bool) {
	return entity.Entity{
		Rotation:    mathutil.QuaternionIdentity(),
		Scale:       mathutil.Vec3One,
		UVTransform: mathutil.Vec4{Z: 1, W: 1},
		Color:       mathutil.Vec4{X: 1, Y: 1, Z: 1, W: 1},
	}, true
}

type fakeAssets struct{}

func (fakeAssets) BoundingSphere(modelKey string) (mathutil.Sphere, bool) {
	return mathutil.Sphere{Radius: 1}, true
}
func (fakeAssets) IsSkinned(modelKey string) bool                         { return false }
func (fakeAssets) AnimationDuration(modelKey, animation string) float32 { return 0 }

func TestRunFrameOrdersPassesAndSkipsWhenInFlight(t *testing.T) {
	store := entity.NewStore()
	data := entity.DefaultData()
	data.ModelKey = "cube"
	store.Create(data)

	g := NewGraph(
		cull.Config{MaxDistance: 1000, MinPixelSize: 0},
		shadow.Config{CascadeCount: 2, CascadeSizes: []float32{10, 50}, SpotTileSize: 64, SpotAtlasSize: 256},
		TemporalConfig{JitterEnabled: true, JitterScale: 1},
		EffectsConfig{
			AO:         AOConfig{Enabled: true, Radius: 0.5, Power: 2},
			Planar:     PlanarConfig{Enabled: true, PlaneY: 0},
			Volumetric: VolumetricConfig{Enabled: true, BottomY: -1, TopY: 5},
			Bloom:      BloomConfig{Enabled: true, Threshold: 1, Knee: 0.5},
			CRT:        CRTConfig{Enabled: true, BlurRadius: 2},
		},
		&fakeAllocator{}, fakeEntities{}, fakeAssets{},
		256, 256, 64,
	)

	cam := cull.Camera{
		Position:     mathutil.Vec3{Z: -5},
		Forward:      mathutil.Vec3{Z: 1},
		ScreenWidth:  256,
		ScreenHeight: 256,
		FovYRadians:  1,
	}

	in := FrameInputs{
		Entities:     store,
		Camera:       cam,
		Assets:       fakeAssets{},
		MainLightDir: mathutil.Vec3{Y: -1},
	}

	result, ok := g.RunFrame(in)
	if !ok {
		t.Fatal("expected first RunFrame to proceed")
	}
	if result.CascadeCount != 2 {
		t.Errorf("CascadeCount = %d, want 2", result.CascadeCount)
	}
	if result.ShadowState != shadow.StatePublished {
		t.Errorf("ShadowState = %v, want published", result.ShadowState)
	}
	if result.CascadeSelection.Index < 0 {
		t.Error("expected a representative forward-ray point to resolve to a cascade")
	}
	if result.IBLSampleCount == 0 {
		t.Error("expected a nonzero IBL sample count for the default representative roughness")
	}
	if result.AOValue < 0 || result.AOValue > 1 {
		t.Errorf("AOValue = %v, want in [0,1]", result.AOValue)
	}
	if !result.PlanarReflectionActive {
		t.Error("expected planar reflection to be active")
	}
	if result.ReflectedEye.Z != cam.Position.Z {
		t.Errorf("ReflectedEye.Z = %v, want unchanged from camera position %v", result.ReflectedEye.Z, cam.Position.Z)
	}
	if !result.FogVisible {
		t.Error("expected the camera's forward ray to intersect the fog slab")
	}
	if result.BloomMipLevels == 0 {
		t.Error("expected a nonzero bloom mip chain length")
	}
	if result.CRTBlurTaps == 0 {
		t.Error("expected a nonzero CRT blur tap count")
	}

	g.inFlight.Begin()
	if _, ok := g.RunFrame(in); ok {
		t.Fatal("expected RunFrame to skip while a frame is in flight")
	}
	g.inFlight.End()
}

func TestRunFrameAccumulatesSSGIWhenTileShapeMatches(t *testing.T) {
	g := NewGraph(
		cull.Config{},
		shadow.Config{CascadeCount: 1, CascadeSizes: []float32{10}},
		TemporalConfig{},
		EffectsConfig{SSGI: SSGIConfig{Enabled: true, TileSize: 32, MaxBrightness: 4, Intensity: 1}},
		&fakeAllocator{}, fakeEntities{}, fakeAssets{},
		256, 256, 8,
	)

	rows, cols := 8, 8 // 256/32
	prevHDR := make([][]mathutil.Vec3, rows)
	emissive := make([][]mathutil.Vec3, rows)
	for y := 0; y < rows; y++ {
		prevHDR[y] = make([]mathutil.Vec3, cols)
		emissive[y] = make([]mathutil.Vec3, cols)
		for x := 0; x < cols; x++ {
			prevHDR[y][x] = mathutil.Vec3{X: 0.2, Y: 0.2, Z: 0.2}
		}
	}

	result, ok := g.RunFrame(FrameInputs{
		Entities:      entity.NewStore(),
		Camera:        cull.Camera{Forward: mathutil.Vec3{Z: 1}},
		Assets:        fakeAssets{},
		MainLightDir:  mathutil.Vec3{Y: -1},
		PrevHDRTiles:  prevHDR,
		EmissiveTiles: emissive,
	})
	if !ok {
		t.Fatal("expected RunFrame to proceed")
	}
	if result.SSGIPropagatedTiles == 0 {
		t.Error("expected nonzero SSGI tiles to receive a propagated sample from uniformly lit neighbors")
	}
	if result.SSGIAverageWeight <= 0 {
		t.Errorf("SSGIAverageWeight = %v, want > 0", result.SSGIAverageWeight)
	}
}

func TestRunFrameSkipsSSGIOnTileShapeMismatch(t *testing.T) {
	g := NewGraph(
		cull.Config{},
		shadow.Config{CascadeCount: 1, CascadeSizes: []float32{10}},
		TemporalConfig{},
		EffectsConfig{SSGI: SSGIConfig{Enabled: true, TileSize: 32}},
		&fakeAllocator{}, fakeEntities{}, fakeAssets{},
		256, 256, 8,
	)

	result, ok := g.RunFrame(FrameInputs{
		Entities:     entity.NewStore(),
		Camera:       cull.Camera{Forward: mathutil.Vec3{Z: 1}},
		Assets:       fakeAssets{},
		MainLightDir: mathutil.Vec3{Y: -1},
		// PrevHDRTiles/EmissiveTiles left nil: shape mismatch against the 8x8 grid.
	})
	if !ok {
		t.Fatal("expected RunFrame to proceed")
	}
	if result.SSGIPropagatedTiles != 0 || result.SSGIAverageWeight != 0 {
		t.Errorf("expected SSGI accumulation to be skipped on shape mismatch, got %+v", result)
	}
}

func TestRunFrameSkippedWhenStopped(t *testing.T) {
	g := NewGraph(cull.Config{}, shadow.Config{CascadeCount: 1, CascadeSizes: []float32{10}}, TemporalConfig{}, EffectsConfig{}, &fakeAllocator{}, fakeEntities{}, fakeAssets{}, 64, 64, 8)
	g.SetState(Stopped{Reason: "no adapter"})

	if _, ok := g.RunFrame(FrameInputs{Entities: entity.NewStore()}); ok {
		t.Fatal("expected RunFrame to skip when stopped")
	}
}

var _ instance.Allocator = (*fakeAllocator)(nil)

// Two steady frames of the same scene must reuse the first frame's
// instance buffer: the batches borrow it until the next build, which
// returns it to the pool before acquiring again.
func TestRunFrameReturnsInstanceBuffersToPool(t *testing.T) {
	store := entity.NewStore()
	data := entity.DefaultData()
	data.ModelKey = "cube"
	store.Create(data)

	alloc := &fakeAllocator{}
	g := NewGraph(
		cull.Config{MaxDistance: 1000},
		shadow.Config{CascadeCount: 1, CascadeSizes: []float32{10}},
		TemporalConfig{},
		EffectsConfig{},
		alloc, fakeEntities{}, fakeAssets{},
		256, 256, 8,
	)

	in := FrameInputs{
		Entities: store,
		Camera: cull.Camera{
			Position:     mathutil.Vec3{Z: -5},
			Forward:      mathutil.Vec3{Z: 1},
			ScreenWidth:  256,
			ScreenHeight: 256,
			FovYRadians:  1,
		},
		Assets: fakeAssets{},
	}

	for frame := 0; frame < 3; frame++ {
		result, ok := g.RunFrame(in)
		if !ok {
			t.Fatalf("frame %d: expected RunFrame to proceed", frame)
		}
		if result.BatchCount != 1 {
			t.Fatalf("frame %d: BatchCount = %d, want 1", frame, result.BatchCount)
		}
	}

	if alloc.nextID != 1 {
		t.Errorf("instance buffers allocated = %d, want 1 (later frames must reuse the pool)", alloc.nextID)
	}
}

// The spot atlas assignment happens inside the frame, after the light
// list is received; its slot and fade must be joined back onto the
// list before the light buffer is built, or the lighting shader would
// sample a slot no matrix was written to.
func TestRunFrameJoinsSpotSlotsIntoLightBuffer(t *testing.T) {
	store := entity.NewStore()
	spotID := entity.ID(7)

	g := NewGraph(
		cull.Config{MaxDistance: 1000},
		shadow.Config{
			CascadeCount:    1,
			CascadeSizes:    []float32{10},
			SpotTileSize:    64,
			SpotAtlasSize:   256,
			SpotMaxDistance: 100,
			SpotFadeStart:   0.5,
		},
		TemporalConfig{},
		EffectsConfig{},
		&fakeAllocator{}, fakeEntities{}, fakeAssets{},
		256, 256, 8,
	)

	in := FrameInputs{
		Entities: store,
		Camera:   cull.Camera{ScreenWidth: 256, ScreenHeight: 256, FovYRadians: 1},
		Assets:   fakeAssets{},
		SpotLights: []shadow.SpotLight{{
			Entity:    spotID,
			Position:  mathutil.Vec3{Y: 3},
			Direction: mathutil.Vec3{Y: -1},
			OuterCone: 0.5,
			Radius:    10,
			Distance:  5,
		}},
		Lights: []tilelight.VisibleLight{{
			Entity:     spotID,
			Light:      entity.Light{Type: entity.LightSpot, Enabled: true, Radius: 10},
			Position:   mathutil.Vec3{Y: 3},
			Direction:  mathutil.Vec3{Y: -1},
			Distance:   5,
			ShadowSlot: -1, // the caller cannot know this frame's slot
		}},
	}

	result, ok := g.RunFrame(in)
	if !ok {
		t.Fatal("expected RunFrame to proceed")
	}
	if result.SpotSlotsAssigned != 1 {
		t.Fatalf("SpotSlotsAssigned = %d, want 1", result.SpotSlotsAssigned)
	}
	// The caller passed ShadowSlot -1, so only the join can have put a
	// live slot on the record the buffer was built from.
	if result.LightsWithShadowSlots != 1 {
		t.Fatalf("LightsWithShadowSlots = %d, want 1", result.LightsWithShadowSlots)
	}
	if want := 16 + gpucore.GPULightSize; result.LightBufferBytes != want {
		t.Fatalf("LightBufferBytes = %d, want %d", result.LightBufferBytes, want)
	}
}
