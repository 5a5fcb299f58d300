package rendergraph

import (
	"math"

	"github.com/bitofgold/topazcube/gpucore"
	"github.com/bitofgold/topazcube/internal/bloom"
	"github.com/bitofgold/topazcube/internal/cull"
	"github.com/bitofgold/topazcube/internal/entity"
	"github.com/bitofgold/topazcube/internal/gbuffer"
	"github.com/bitofgold/topazcube/internal/hiz"
	"github.com/bitofgold/topazcube/internal/instance"
	"github.com/bitofgold/topazcube/internal/lighting"
	"github.com/bitofgold/topazcube/internal/mathutil"
	"github.com/bitofgold/topazcube/internal/particles"
	"github.com/bitofgold/topazcube/internal/planar"
	"github.com/bitofgold/topazcube/internal/post"
	"github.com/bitofgold/topazcube/internal/shadow"
	"github.com/bitofgold/topazcube/internal/ssao"
	"github.com/bitofgold/topazcube/internal/ssgi"
	"github.com/bitofgold/topazcube/internal/tilelight"
	"github.com/bitofgold/topazcube/internal/volumetric"
)

// TemporalConfig carries the cross-frame TAA state the graph owns:
// whether jitter is applied at all, and the scale the G-buffer pass's
// distance-based jitter fade multiplies onto the raw Halton offset.
type TemporalConfig struct {
	JitterEnabled bool
	JitterScale   float32
}

// defaultSSGITileSize is the SSGI accumulation grid's tile granularity
// when EffectsConfig.SSGI.TileSize is left at zero.
const defaultSSGITileSize = 32

// maxIBLConeAngle is the full cone half-angle (radians) a roughness of
// 1 maps to in lighting.IBLConeAngle, a quarter turn.
const maxIBLConeAngle = math.Pi / 2

// EffectsConfig carries the once-per-frame host-side parameters for the
// screen-space and post passes that have no natural per-frame input of
// their own (everything else flows through FrameInputs). A zero-value
// group leaves that pass's host-side contribution disabled; RunFrame
// still runs the rest of the sequence.
type EffectsConfig struct {
	AO         AOConfig
	SSGI       SSGIConfig
	Volumetric VolumetricConfig
	Planar     PlanarConfig
	Bloom      BloomConfig
	CRT        CRTConfig
}

// AOConfig configures the screen-space ambient occlusion sample Graph
// accumulates once per frame from the HiZ tile buffer.
type AOConfig struct {
	Enabled bool
	Radius  float32
	Power   float32
}

// SSGIConfig configures the tile-accumulation/propagation grid. Mirrors
// config.SSGISettings minus HalfScreenTiles, which Grid derives itself
// from the tile count.
type SSGIConfig struct {
	Enabled       bool
	TileSize      int
	MaxBrightness float32
	Intensity     float32
}

// VolumetricConfig configures the fog slab the camera ray is clipped
// against once per frame.
type VolumetricConfig struct {
	Enabled             bool
	BottomY, TopY       float32
	MaxSamples          int
	MinVisibility       float32
	BrightnessThreshold float32
	SkyBrightness       float32
}

// PlanarConfig configures the mirrored-camera reflection built once per
// frame from the main camera.
type PlanarConfig struct {
	Enabled bool
	PlaneY  float32
}

// BloomConfig configures the bright-pass mip chain sized once per frame
// from the current viewport.
type BloomConfig struct {
	Enabled    bool
	Threshold  float32
	Knee       float32
	MinMipSize int
}

// CRTConfig configures the post pass's horizontal blur tap count.
type CRTConfig struct {
	Enabled    bool
	BlurRadius int
}

// Graph owns every resource shared between passes and drives one
// frame's fixed pass sequence: entity store -> culling -> instance
// manager -> (shadow, G-buffer) -> HiZ -> tile-light -> lighting ->
// (SSGI, AO, planar, volumetric, particles) -> post. Passes never
// allocate screen-sized resources themselves; Graph is where those
// live and where Resize reaches them.
type Graph struct {
	state EngineState

	inFlight   InFlight
	resizables []Resizable

	cull     *cull.Pass
	shadow   *shadow.Pass
	pool     *instance.Pool
	builder  *instance.Builder
	hizBuf   *hiz.Buffer
	particle *particles.System
	tileGrid *gpucore.TileGrid

	// prevBatches holds the batches built last frame; their buffers are
	// returned to the pool at the start of the next build.
	prevBatches map[string]instance.Batch

	temporal    TemporalConfig
	jitterIndex int

	width, height int

	effects  EffectsConfig
	ssgiGrid ssgi.Grid
	aoKernel [][3]float32
}

// NewGraph wires the per-pass objects into one orchestrated graph.
// alloc backs the instance buffer pool; entities/assets back the
// instance builder's lookups; temporal configures the G-buffer pass's
// TAA jitter; effects configures the screen-space/post passes' once-
// per-frame host-side parameters (SSGI grid sizing, AO kernel, fog
// slab, planar plane height, bloom mip chain, CRT blur) — the only
// other pieces of cross-frame state the graph itself advances besides
// the HiZ buffer and particle system above.
func NewGraph(cullCfg cull.Config, shadowCfg shadow.Config, temporal TemporalConfig, effects EffectsConfig, alloc instance.Allocator, entities instance.EntitySource, assets instance.AssetSource, screenWidth, screenHeight, particleCapacity int) *Graph {
	pool := instance.NewPool(alloc)
	ssgiTileSize := effects.SSGI.TileSize
	if ssgiTileSize <= 0 {
		ssgiTileSize = defaultSSGITileSize
	}
	g := &Graph{
		state:    Running{},
		cull:     cull.NewPass(cullCfg),
		shadow:   shadow.NewPass(shadowCfg),
		pool:     pool,
		builder:  instance.NewBuilder(pool, entities, assets),
		hizBuf:   hiz.NewBuffer(screenWidth, screenHeight, hiz.WorkgroupPixels),
		particle: particles.NewSystem(particleCapacity),
		temporal: temporal,
		width:    screenWidth,
		height:   screenHeight,
		effects:  effects,
		ssgiGrid: ssgi.NewGrid(screenWidth, screenHeight, ssgiTileSize),
		aoKernel: ssao.PoissonKernel(ssao.KernelSize),
	}
	g.RegisterResizable(resizeFunc(func(w, h int, _ float32) error {
		g.hizBuf = hiz.NewBuffer(w, h, hiz.WorkgroupPixels)
		g.width, g.height = w, h
		g.ssgiGrid = ssgi.NewGrid(w, h, ssgiTileSize)
		if g.tileGrid != nil {
			return g.tileGrid.Resize(w, h)
		}
		return nil
	}))
	return g
}

// EnableTileLightCulling builds the shared tile grid the tile-light
// culling compute pass and the deferred lighting pass read, sized to
// the graph's current viewport. adapter is consulted for compute-shader
// support: if the backend can't dispatch compute, TileGrid.UseCompute
// reports false and RunFrame still publishes tile dimensions (so the
// lighting pass can bind a correctly-shaped, if emptily-culled, tile
// list) without attempting a dispatch no backend can serve. Never
// calling this leaves tile light culling disabled entirely —
// FrameResult reports zero tiles and zero lights per tile.
func (g *Graph) EnableTileLightCulling(adapter gpucore.GPUAdapter, maxLightsPerTile int) error {
	grid, err := gpucore.NewTileGrid(adapter, gpucore.TileGridConfig{
		Width:            g.width,
		Height:           g.height,
		MaxLightsPerTile: maxLightsPerTile,
	})
	if err != nil {
		return err
	}
	g.tileGrid = grid
	return nil
}

// resizeFunc adapts a plain function to the Resizable interface.
type resizeFunc func(width, height int, scale float32) error

func (f resizeFunc) Resize(width, height int, scale float32) error { return f(width, height, scale) }

// State reports the graph's current engine state.
func (g *Graph) State() EngineState { return g.state }

// SetState transitions the graph to a new engine state (e.g. Degraded
// after a feature-negotiation failure, Stopped after a fatal pipeline
// compilation error).
func (g *Graph) SetState(s EngineState) {
	g.state = s
	slogger().Info("engine state transition", "state", Describe(s))
}

// FrameInputs is everything one frame's orchestration needs that isn't
// already owned by the graph.
type FrameInputs struct {
	Entities      *entity.Store
	Camera        cull.Camera
	Assets        cull.AssetResolver
	Occlusion     cull.OcclusionConfig
	MainLightDir  mathutil.Vec3
	SpotLights    []shadow.SpotLight
	Lights        []tilelight.VisibleLight
	Ambient       [3]float32
	PreviousDepth []float32 // previous frame's linear depth, row-major width*height
	ParticleSim   particles.SimulateParams

	// View/Proj/Near/Far feed the tile-light culling uniforms (and, via
	// Proj.Inverse(), the lighting pass's world-position reconstruction)
	// when EnableTileLightCulling has been called. Ignored otherwise.
	View, Proj mathutil.Mat4
	Near, Far  float32

	// CameraUp orients the planar-reflection mirrored camera; defaults
	// to world-up (0,1,0) when left zero.
	CameraUp mathutil.Vec3

	// RepresentativeRoughness feeds the lighting pass's IBL sample-count
	// and cone-angle contract; left at zero it defaults to 0.5.
	RepresentativeRoughness float32

	// PrevHDRTiles/EmissiveTiles carry the previous frame's per-tile HDR
	// color and boosted emissive, one entry per ssgiGrid tile
	// (row-major, PrevHDRTiles[row][col]). A mismatched shape skips SSGI
	// accumulation for the frame, the same guard PreviousDepth uses.
	PrevHDRTiles  [][]mathutil.Vec3
	EmissiveTiles [][]mathutil.Vec3

	// SceneLuminance is a representative HDR luminance sample (e.g. the
	// previous frame's average). RunFrame does not read it.
	SceneLuminance float32
}

// FrameResult summarizes what one orchestrated frame computed, enough
// to drive concrete per-scenario assertions without a GPU.
type FrameResult struct {
	VisibleCount      int
	BatchCount        int
	ShadowState       shadow.State
	CascadeCount      int
	SpotSlotsAssigned int

	// LightsWithShadowSlots counts the lights that entered the light
	// buffer carrying a live spot atlas slot after the per-frame join.
	LightsWithShadowSlots int

	LightBufferBytes   int
	HiZTileCount       int
	ParticleAliveCount int64

	JitterX, JitterY float32

	TileCountX, TileCountY int
	MaxLightsPerTile       int
	TileCullingUsesCompute bool

	// CascadeSelection is the directional-shadow cascade a representative
	// point along the camera's forward ray resolves to this frame.
	CascadeSelection lighting.CascadeSelection
	IBLSampleCount   int
	IBLConeAngle     float32

	// SSGIPropagatedTiles/SSGIAverageWeight summarize the tile-
	// accumulation/propagation pass: how many of the grid's tiles
	// produced a nonzero propagated light sample in any of the four
	// directions, and the mean of their propagation weights.
	SSGIPropagatedTiles int
	SSGIAverageWeight   float32

	// AOValue is one representative ambient-occlusion sample accumulated
	// from the HiZ tile buffer's already-reduced depth this frame.
	AOValue float32

	// PlanarReflectionActive reports whether the planar pass's mirrored
	// camera was built this frame; ReflectedEye/Target/Up are only
	// meaningful when true.
	PlanarReflectionActive bool
	ReflectedEye           mathutil.Vec3
	ReflectedTarget        mathutil.Vec3
	ReflectedUp            mathutil.Vec3

	// FogVisible reports whether the camera's forward ray intersects the
	// volumetric fog slab this frame; FogTEnter/FogTExit are the clipped
	// entry/exit distances when true.
	FogVisible          bool
	FogTEnter, FogTExit float32

	// BloomMipLevels is the mip chain length the bloom pass sizes for
	// the graph's current viewport.
	BloomMipLevels int

	// CRTBlurTaps is the tap count of the CRT pass's horizontal blur
	// kernel.
	CRTBlurTaps int
}

// RunFrame executes one full pass sequence. It returns ok=false
// without doing any work if the engine is Stopped or a previous
// frame's submission is still in flight — the caller's tick is simply
// dropped, not queued.
func (g *Graph) RunFrame(in FrameInputs) (result FrameResult, ok bool) {
	if !Rendering(g.state) {
		return FrameResult{}, false
	}
	if !g.inFlight.Begin() {
		return FrameResult{}, false
	}
	defer g.inFlight.End()

	groups := g.cull.Run(in.Entities, in.Camera, in.Assets, g.hizBuf, in.Occlusion)
	visibleCount := len(groups.IndividualSkinned)
	for _, v := range groups.ByModel {
		visibleCount += len(v)
	}
	for _, v := range groups.BySkinKey {
		visibleCount += len(v)
	}

	// Last frame's batches borrowed their buffers until now; return
	// them before this frame's build so equal capacities are reused
	// instead of allocated fresh.
	if len(g.prevBatches) > 0 {
		bufs := make([]instance.Buffer, 0, len(g.prevBatches))
		for _, b := range g.prevBatches {
			bufs = append(bufs, b.Buffer)
		}
		g.pool.ReleaseAll(bufs)
	}

	batches := g.builder.Build(groups.ByModel)
	g.prevBatches = batches

	var flatVisible []cull.Visible
	for _, v := range groups.ByModel {
		flatVisible = append(flatVisible, v...)
	}
	for _, v := range groups.BySkinKey {
		flatVisible = append(flatVisible, v...)
	}
	flatVisible = append(flatVisible, groups.IndividualSkinned...)

	shadowResult := g.shadow.Run(in.Camera.Position, in.MainLightDir, flatVisible, in.SpotLights, in.Assets, in.Entities)

	spotAssigned := 0
	spotSlots := make(map[entity.ID]shadow.SpotSlotResult, len(shadowResult.SpotSlots))
	for _, s := range shadowResult.SpotSlots {
		spotSlots[s.Light] = s
		if s.Slot != shadow.NoShadowSlot {
			spotAssigned++
		}
	}

	// The atlas assignment above decided this frame's spot slots and
	// fades; the caller's light list cannot carry them. Join by entity
	// id before the buffer is built so the lighting shader sees the
	// slot the shadow matrices were written to.
	lights := in.Lights
	if len(spotSlots) > 0 && len(lights) > 0 {
		lights = make([]tilelight.VisibleLight, len(in.Lights))
		copy(lights, in.Lights)
		for i := range lights {
			if s, ok := spotSlots[lights[i].Entity]; ok {
				lights[i].ShadowSlot = s.Slot
				lights[i].ShadowFade = s.Fade
			}
		}
	}
	lightsWithSlots := 0
	for _, l := range lights {
		if l.ShadowSlot >= 0 {
			lightsWithSlots++
		}
	}

	if len(in.PreviousDepth) == g.width*g.height {
		g.hizBuf.Reduce(in.PreviousDepth, g.width, g.height)
	}

	lightBuffer := tilelight.BuildLightBuffer(lights, in.Ambient)

	g.particle.Simulate(in.ParticleSim)

	jitterX, jitterY := g.nextJitter()

	result = FrameResult{
		VisibleCount:          visibleCount,
		BatchCount:            len(batches),
		ShadowState:           g.shadow.State(),
		CascadeCount:          len(shadowResult.Cascades),
		SpotSlotsAssigned:     spotAssigned,
		LightsWithShadowSlots: lightsWithSlots,
		LightBufferBytes:      len(lightBuffer),
		HiZTileCount:          g.hizTileCount(),
		ParticleAliveCount:    g.particle.AliveCount(),
		JitterX:               jitterX,
		JitterY:               jitterY,
	}

	if g.tileGrid != nil {
		cullUniforms := tilelight.BuildCullUniforms(in.Proj.Inverse(), in.View, g.tileGrid, g.width, g.height, len(in.Lights), in.Near, in.Far)
		tileUniforms := tilelight.BuildTileUniforms(g.tileGrid)
		result.TileCountX = int(cullUniforms.TileCountX)
		result.TileCountY = int(cullUniforms.TileCountY)
		result.MaxLightsPerTile = int(tileUniforms.MaxLightsPerTile)
		result.TileCullingUsesCompute = g.tileGrid.UseCompute()
	}

	if len(shadowResult.Cascades) > 0 {
		result.CascadeSelection = g.selectCascade(shadowResult.Cascades, in.Camera, in.Near, in.Far)
	}
	roughness := in.RepresentativeRoughness
	if roughness == 0 {
		roughness = 0.5
	}
	result.IBLSampleCount = lighting.IBLSampleCount(roughness)
	result.IBLConeAngle = lighting.IBLConeAngle(roughness, maxIBLConeAngle)

	if g.effects.SSGI.Enabled {
		result.SSGIPropagatedTiles, result.SSGIAverageWeight = g.accumulateSSGI(in)
	}

	if g.effects.AO.Enabled {
		result.AOValue = g.accumulateAO()
	}

	if g.effects.Planar.Enabled {
		up := in.CameraUp
		if up.X == 0 && up.Y == 0 && up.Z == 0 {
			up = mathutil.Vec3{Y: 1}
		}
		target := in.Camera.Position.Add(in.Camera.Forward)
		eye, tgt, rUp := planar.ReflectCamera(in.Camera.Position, target, up, g.effects.Planar.PlaneY)
		result.PlanarReflectionActive = true
		result.ReflectedEye, result.ReflectedTarget, result.ReflectedUp = eye, tgt, rUp
	}

	if g.effects.Volumetric.Enabled {
		maxT := in.Far
		if maxT == 0 {
			maxT = 100
		}
		tEnter, tExit, visible := volumetric.SlabIntersect(in.Camera.Position.Y, in.Camera.Forward.Y, g.effects.Volumetric.BottomY, g.effects.Volumetric.TopY, maxT)
		result.FogVisible = visible
		result.FogTEnter, result.FogTExit = tEnter, tExit
	}

	g.particle.Simulate(in.ParticleSim)
	result.ParticleAliveCount = g.particle.AliveCount()

	if g.effects.Bloom.Enabled {
		minSize := g.effects.Bloom.MinMipSize
		if minSize <= 0 {
			minSize = 4
		}
		result.BloomMipLevels = bloom.MipChainLength(g.width, g.height, minSize)
	}

	if g.effects.CRT.Enabled {
		radius := g.effects.CRT.BlurRadius
		if radius <= 0 {
			radius = 1
		}
		result.CRTBlurTaps = len(post.HorizontalBlurWeights(radius))
	}

	return result, true
}

// selectCascade resolves the directional shadow cascade for a
// representative point along the camera's forward ray at the midpoint
// of its near/far range, avoiding the trivial always-cascade-0 result
// that selecting the camera's own position would produce.
func (g *Graph) selectCascade(cascades []shadow.Cascade, camera cull.Camera, near, far float32) lighting.CascadeSelection {
	distance := far - near
	if distance <= 0 {
		distance = 10
	} else {
		distance = near + distance/2
	}
	point := camera.Position.Add(camera.Forward.Mul(distance))
	return lighting.SelectCascade(cascades, camera.Position, point)
}

// accumulateSSGI feeds the previous frame's per-tile HDR/emissive
// buffers through AccumulateTile and then Propagate in all four
// directions for every tile, reporting how many tiles ended up with a
// nonzero propagated sample and their average weight. A shape mismatch
// against the current grid (e.g. right after a resize) skips the
// frame's accumulation, mirroring the PreviousDepth length guard above.
func (g *Graph) accumulateSSGI(in FrameInputs) (propagatedTiles int, averageWeight float32) {
	rows, cols := g.ssgiGrid.Rows, g.ssgiGrid.Cols
	if len(in.PrevHDRTiles) != rows || len(in.EmissiveTiles) != rows {
		return 0, 0
	}
	accum := make([][]mathutil.Vec3, rows)
	for y := 0; y < rows; y++ {
		if len(in.PrevHDRTiles[y]) != cols || len(in.EmissiveTiles[y]) != cols {
			return 0, 0
		}
		accum[y] = make([]mathutil.Vec3, cols)
		for x := 0; x < cols; x++ {
			accum[y][x] = ssgi.AccumulateTile(in.PrevHDRTiles[y][x], in.EmissiveTiles[y][x], g.effects.SSGI.Intensity, g.effects.SSGI.MaxBrightness)
		}
	}

	half := g.ssgiGrid.HalfScreenTiles()
	var weightSum float32
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			for _, dir := range [4]ssgi.Direction{ssgi.DirLeft, ssgi.DirRight, ssgi.DirUp, ssgi.DirDown} {
				res := ssgi.Propagate(accum, x, y, dir, half)
				if res.Weight > 0 {
					propagatedTiles++
					weightSum += res.Weight
				}
			}
		}
	}
	if propagatedTiles == 0 {
		return 0, 0
	}
	return propagatedTiles, weightSum / float32(propagatedTiles)
}

// accumulateAO builds one representative ambient-occlusion sample from
// the HiZ tile buffer already reduced this frame: tile (0,0)'s min
// depth stands in for the fragment, and each Poisson kernel sample
// maps to a nearby tile whose max depth stands in for the occluder
// candidate at that offset.
func (g *Graph) accumulateAO() float32 {
	cols, rows := g.hizBuf.Dimensions()
	fragZ, _, ok := g.hizBuf.MinMax(0, 0)
	if !ok {
		return 1
	}

	var occlusionSum float32
	n := len(g.aoKernel)
	for i := 0; i < n; i++ {
		tx := i % cols
		ty := (i / cols) % rows
		_, sampleMax, ok := g.hizBuf.MinMax(tx, ty)
		if !ok {
			continue
		}
		occlusionSum += ssao.Sample(fragZ, sampleMax, g.effects.AO.Radius, g.effects.AO.Power)
	}
	return ssao.Accumulate(occlusionSum, n)
}

// nextJitter advances the TAA jitter sample index and returns the
// scaled Halton offset the G-buffer pass applies in clip space this
// frame. Disabled temporal jitter always returns (0, 0) without
// advancing the sequence, so re-enabling it later resumes cleanly.
func (g *Graph) nextJitter() (x, y float32) {
	if !g.temporal.JitterEnabled {
		return 0, 0
	}
	g.jitterIndex++
	scale := g.temporal.JitterScale
	if scale == 0 {
		scale = 1
	}
	jx, jy := gbuffer.HaltonJitter(g.jitterIndex)
	return jx * scale, jy * scale
}

func (g *Graph) hizTileCount() int {
	cols, rows := g.hizBuf.Dimensions()
	return cols * rows
}

// Teardown releases every GPU handle owned by the graph's pools. Only
// called once, at engine shutdown.
func (g *Graph) Teardown() {
	g.prevBatches = nil
	g.pool.Teardown()
}

// InvalidateOcclusionCulling resets the main culling pass's HiZ warmup,
// forcing the next frames to fall back to frustum+distance culling
// until the warmup period elapses again. Exposed to the host so a
// teleport or streamed-in scene change doesn't trust stale depth.
func (g *Graph) InvalidateOcclusionCulling() {
	g.cull.InvalidateOcclusionCulling()
}
