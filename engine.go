// Package topazcube is the engine's host-facing entry point. Engine
// wires the entity store, asset cache, and render graph together and
// exposes the Scene API a host embeds against: create/update/delete
// entities, load assets and scenes, and invalidate occlusion culling
// across a camera cut.
package topazcube

import (
	"sync"

	"github.com/bitofgold/topazcube/gpucore"
	"github.com/bitofgold/topazcube/internal/asset"
	"github.com/bitofgold/topazcube/internal/config"
	"github.com/bitofgold/topazcube/internal/cull"
	"github.com/bitofgold/topazcube/internal/entity"
	"github.com/bitofgold/topazcube/internal/gpu"
	"github.com/bitofgold/topazcube/internal/instance"
	"github.com/bitofgold/topazcube/internal/rendergraph"
	"github.com/bitofgold/topazcube/internal/shadow"
)

// DefaultParticleCapacity bounds the fixed-size particle ring every
// Engine allocates. No settings group currently exposes this; raise it
// here if a scene needs more concurrent particles than the default
// affords.
const DefaultParticleCapacity = 4096

// DefaultAssetCacheShards sizes the per-shard capacity of the asset
// cache's sharded map (distinct files, not meshes).
const DefaultAssetCacheShards = 64

// Engine is the top-level handle a host holds for the lifetime of one
// surface: settings, the entity store, the asset cache, and the render
// graph that ticks them into frames.
type Engine struct {
	settings config.Settings

	entities *entity.Store
	assets   *asset.Cache
	graph    *rendergraph.Graph
	surface  *gpu.Surface

	assetMu     sync.Mutex
	assetStatus map[string]*AssetStatus
}

// NewEngine builds an engine from a fully merged Settings tree (see
// config.Merge) and an instance-buffer allocator backed by the host's
// GPU device. screenWidth/screenHeight are the initial surface
// dimensions in physical pixels.
func NewEngine(settings config.Settings, alloc instance.Allocator, screenWidth, screenHeight int) *Engine {
	entities := entity.NewStore()
	assets := asset.NewCache(DefaultAssetCacheShards)

	graph := rendergraph.NewGraph(
		cullConfigFrom(settings.Culling.Main),
		shadowConfigFrom(settings.Shadow),
		temporalConfigFrom(settings.Temporal),
		effectsConfigFrom(settings),
		alloc, entities, assets,
		screenWidth, screenHeight,
		DefaultParticleCapacity,
	)

	return &Engine{
		settings:    settings,
		entities:    entities,
		assets:      assets,
		graph:       graph,
		assetStatus: make(map[string]*AssetStatus),
	}
}

func cullConfigFrom(s config.CullingSettings) cull.Config {
	return cull.Config{
		Frustum:       s.Frustum,
		HiZ:           s.HiZ,
		CascadeFilter: s.CascadeFilter,
		MaxDistance:   s.MaxDistance,
		MaxSkinned:    s.MaxSkinned,
		MinPixelSize:  s.MinPixelSize,
		FadeStart:     s.FadeStart,
	}
}

func temporalConfigFrom(s config.TemporalSettings) rendergraph.TemporalConfig {
	return rendergraph.TemporalConfig{
		JitterEnabled: s.JitterEnabled,
		JitterScale:   s.JitterScale,
	}
}

// effectsConfigFrom adapts the settings tree's screen-space and post
// pass groups into the render graph's per-frame EffectsConfig.
func effectsConfigFrom(settings config.Settings) rendergraph.EffectsConfig {
	return rendergraph.EffectsConfig{
		AO: rendergraph.AOConfig{
			Enabled: settings.AO.Enabled,
			Radius:  settings.AO.Radius,
			Power:   settings.AO.Power,
		},
		SSGI: rendergraph.SSGIConfig{
			Enabled:       settings.SSGI.Enabled,
			TileSize:      settings.SSGI.TileSize,
			MaxBrightness: settings.SSGI.MaxBrightness,
			Intensity:     settings.SSGI.Intensity,
		},
		Volumetric: rendergraph.VolumetricConfig{
			Enabled:             settings.VolumetricFog.Enabled,
			BottomY:             settings.VolumetricFog.BottomY,
			TopY:                settings.VolumetricFog.TopY,
			MaxSamples:          settings.VolumetricFog.MaxSamples,
			MinVisibility:       settings.VolumetricFog.MinVisibility,
			BrightnessThreshold: settings.VolumetricFog.BrightnessThreshold,
			SkyBrightness:       settings.VolumetricFog.SkyBrightness,
		},
		Planar: rendergraph.PlanarConfig{
			Enabled: settings.PlanarReflection.Enabled,
			PlaneY:  settings.PlanarReflection.PlaneY,
		},
		Bloom: rendergraph.BloomConfig{
			Enabled:   settings.Bloom.Enabled,
			Threshold: settings.Bloom.Threshold,
			Knee:      settings.Bloom.Knee,
		},
		CRT: rendergraph.CRTConfig{
			Enabled: settings.CRT.Enabled,
		},
	}
}

// EnableTileLightCulling builds the shared tile grid the tile-light
// culling compute pass and the deferred lighting pass read. Call once
// after construction with an adapter backed by the host's GPU device;
// leaving it uncalled disables tiled lighting entirely (equivalent to
// a zero max-lights-per-tile budget).
func (e *Engine) EnableTileLightCulling(adapter gpucore.GPUAdapter) error {
	return e.graph.EnableTileLightCulling(adapter, e.settings.Lighting.MaxLightsPerTile)
}

func shadowConfigFrom(s config.ShadowSettings) shadow.Config {
	return shadow.Config{
		CascadeCount:    s.CascadeCount,
		CascadeSizes:    s.CascadeSizes,
		MapSize:         s.MapSize,
		SpotTileSize:    s.SpotTileSize,
		SpotAtlasSize:   s.SpotAtlasSize,
		SpotMaxDistance: s.SpotMaxDistance,
		SpotFadeStart:   s.SpotFadeStart,
		Bias:            s.Bias,
		NormalBias:      s.NormalBias,
		SurfaceBias:     s.SurfaceBias,
		Strength:        s.Strength,
	}
}

// Settings returns the engine's current settings tree.
func (e *Engine) Settings() config.Settings { return e.settings }

// State reports the render graph's current engine state (Running,
// Degraded, or Stopped).
func (e *Engine) State() rendergraph.EngineState { return e.graph.State() }

// SetState transitions the render graph to a new engine state. Called
// by the host's device-acquisition and pipeline-compilation error
// paths, never by scene code.
func (e *Engine) SetState(s rendergraph.EngineState) { e.graph.SetState(s) }

// RunFrame drives one frame of the render graph. See
// rendergraph.Graph.RunFrame for the pass ordering and skip semantics.
func (e *Engine) RunFrame(in rendergraph.FrameInputs) (rendergraph.FrameResult, bool) {
	return e.graph.RunFrame(in)
}

// AttachSurface hands the host's window surface to the engine, which
// takes exclusive ownership of its configure call from then on: the
// host must stop reconfiguring the surface itself and route size
// changes through Resize. width/height are the surface's current
// physical dimensions.
func (e *Engine) AttachSurface(handle gpu.DeviceHandle, width, height int) error {
	s, err := gpu.NewSurface(handle, width, height)
	if err != nil {
		return err
	}
	e.surface = s
	return nil
}

// Surface returns the attached surface, or nil if none was attached.
func (e *Engine) Surface() *gpu.Surface { return e.surface }

// CompilePipelines compiles the pass shader programs concurrently,
// awaited as a group, and creates their modules on creator (any
// gpucore.GPUAdapter satisfies it). Any compilation failure is fatal:
// the engine transitions to Stopped (the handle stays valid for
// teardown) and no modules are returned.
func (e *Engine) CompilePipelines(creator gpu.ShaderModuleCreator, programs []gpu.ShaderProgram) (map[string]gpucore.ShaderModuleID, error) {
	modules, err := gpu.NewPipelineCompiler(programs...).CompileAll(creator)
	if err != nil {
		e.graph.SetState(rendergraph.Stopped{Reason: err.Error()})
		return nil, err
	}
	return modules, nil
}

// Resize reconfigures the attached surface (a no-op when the
// dimensions are unchanged), then drains the in-flight frame and
// resizes every screen-sized resource the graph owns. See
// rendergraph.Graph.Resize.
func (e *Engine) Resize(width, height int, scale float32) error {
	if e.surface != nil {
		if err := e.surface.Configure(width, height); err != nil {
			return err
		}
	}
	return e.graph.Resize(width, height, scale)
}

// Teardown releases every GPU handle the engine owns. Called once, at
// shutdown.
func (e *Engine) Teardown() {
	e.graph.Teardown()
}

// CreateEntity inserts a new entity built from data, applying the
// Scene API's documented defaults (identity rotation, unit scale, full
// UV rect, white tint) for any zero-value field, and returns its id.
func (e *Engine) CreateEntity(data entity.Data) entity.ID {
	return e.entities.Create(data)
}

// UpdateEntity applies a partial update to an existing entity. A nil
// Light in delta leaves the entity's current light record unchanged;
// every other field in delta replaces the corresponding field
// wholesale. Returns false if id does not exist.
func (e *Engine) UpdateEntity(id entity.ID, delta entity.Data) bool {
	return e.entities.Update(id, delta)
}

// DeleteEntity removes an entity. Returns false if id did not exist.
func (e *Engine) DeleteEntity(id entity.ID) bool {
	return e.entities.Delete(id)
}

// GetEntity returns a copy of the entity's current data and true, or a
// zero Entity and false if it does not exist.
func (e *Engine) GetEntity(id entity.ID) (entity.Entity, bool) {
	return e.entities.Get(id)
}

// InvalidateOcclusionCulling resets the HiZ warmup, so the next frames
// fall back to frustum+distance culling until the camera has settled
// again. Call this after a teleport, cutscene cut, or any other change
// that makes the previous frame's depth buffer meaningless as an
// occlusion test.
func (e *Engine) InvalidateOcclusionCulling() {
	e.graph.InvalidateOcclusionCulling()
}

// LoadOptions carries per-call overrides for an asset or scene load.
// Mesh restricts a LoadAsset call to one named mesh; without it the
// bare path resolves to one of the file's meshes, and which one is not
// defined when the file holds several. LoadScene ignores it.
type LoadOptions struct {
	Mesh string
}

// AssetStatus is the host-queryable state of one in-flight or
// completed asset load: Ready is false and Err is nil while the load
// is still running; once the load completes Ready is true and Err
// holds the decode failure, if any.
type AssetStatus struct {
	Ready bool
	Err   error
}

// modelKey builds the Entity.ModelKey contract string from a file path
// and an optional mesh name.
func modelKey(path, mesh string) string {
	if mesh == "" {
		return path
	}
	return path + "|" + mesh
}

// LoadAsset asynchronously populates the asset cache with path (or
// path|mesh if options names a mesh), returning immediately. Poll
// AssetLoadStatus with the same key to observe completion; concurrent
// loads of the same key are deduplicated by the underlying cache, so a
// second LoadAsset call for an in-flight key simply shares the first
// call's result.
func (e *Engine) LoadAsset(path string, options LoadOptions) {
	e.startLoad(modelKey(path, options.Mesh))
}

// LoadScene asynchronously loads every mesh in path's file into the
// asset cache; each mesh's bounding sphere is the union over its own
// primitives. Node transforms and the node hierarchy are not applied,
// and no entities are created. Scene loads key on the bare path
// regardless of options.
func (e *Engine) LoadScene(path string, options LoadOptions) {
	e.startLoad(path)
}

// startLoad records a not-ready status for key (unless a load for it
// is already tracked) and resolves it on a background goroutine,
// recording the outcome once the cache has settled.
func (e *Engine) startLoad(key string) {
	e.assetMu.Lock()
	if _, tracked := e.assetStatus[key]; tracked {
		e.assetMu.Unlock()
		return
	}
	e.assetStatus[key] = &AssetStatus{}
	e.assetMu.Unlock()

	go func() {
		_, err := e.assets.Resolve(key)

		e.assetMu.Lock()
		e.assetStatus[key] = &AssetStatus{Ready: true, Err: err}
		e.assetMu.Unlock()
	}()
}

// AssetLoadStatus reports the current status of a key previously
// passed to LoadAsset or LoadScene. ok is false if key has never been
// loaded.
func (e *Engine) AssetLoadStatus(key string) (status AssetStatus, ok bool) {
	e.assetMu.Lock()
	defer e.assetMu.Unlock()

	s, tracked := e.assetStatus[key]
	if !tracked {
		return AssetStatus{}, false
	}
	return *s, true
}
