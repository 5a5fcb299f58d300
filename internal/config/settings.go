// Package config holds the engine's settings tree: a deep-merged
// configuration record covering every group the render graph reads
// from. Settings are loaded as a TOML partial override on top of
// compiled-in defaults, using github.com/BurntSushi/toml against a
// nested group structure matching this engine's passes.
package config

// CullingSettings configures one culling pass instance (main, shadow,
// reflection, or planar-reflection view).
type CullingSettings struct {
	Frustum       bool
	HiZ           bool
	CascadeFilter bool
	MaxDistance   float32
	MaxSkinned    int
	MinPixelSize  float32
	FadeStart     float32
}

// ShadowSettings configures cascade and spot shadow resolution/atlas
// layout and filtering parameters.
type ShadowSettings struct {
	MapSize         int
	CascadeCount    int
	CascadeSizes    []float32
	MaxSpotShadows  int
	SpotTileSize    int
	SpotAtlasSize   int
	SpotMaxDistance float32
	SpotFadeStart   float32
	Bias            float32
	NormalBias      float32
	SurfaceBias     float32
	Strength        float32
}

// LightingSettings configures the deferred lighting pass and tile
// light culling.
type LightingSettings struct {
	MaxLights                     int
	TileSize                      int
	MaxLightsPerTile              int
	DirectSpecularMultiplier      float32
	SpecularBoost                 float32
	SpecularBoostRoughnessCutoff  float32
	TileRadiusScale               float32
}

// EnvironmentFogSettings configures the environment's distance-fog
// contribution (distinct from the volumetric fog pass).
type EnvironmentFogSettings struct {
	Enabled bool
	Color   [3]float32
	Density float32
}

// EnvironmentSettings configures the IBL environment texture and its
// sampling parameters.
type EnvironmentSettings struct {
	Texture  string
	Diffuse  float32
	Specular float32
	Exposure float32
	Fog      EnvironmentFogSettings
}

// MainLightSettings configures the single directional (sun) light.
type MainLightSettings struct {
	Direction [3]float32
	Color     [3]float32
	Intensity float32
}

// AOSettings configures screen-space ambient occlusion.
type AOSettings struct {
	Enabled bool
	Radius  float32
	Power   float32
}

// SSGISettings configures screen-space global illumination.
type SSGISettings struct {
	Enabled        bool
	TileSize       int
	MaxBrightness  float32
	HalfScreenTiles int
	Intensity      float32
}

// VolumetricFogSettings configures the ray-marched volumetric fog pass.
type VolumetricFogSettings struct {
	Enabled            bool
	BottomY            float32
	TopY               float32
	MaxSamples         int
	MinVisibility      float32
	BrightnessThreshold float32
	SkyBrightness      float32
}

// PlanarReflectionSettings configures the mirrored-plane reflection
// pass.
type PlanarReflectionSettings struct {
	Enabled    bool
	PlaneY     float32
	Resolution int
}

// BloomSettings configures the bright-pass extraction and mip-chain
// blur/composite.
type BloomSettings struct {
	Enabled       bool
	Threshold     float32
	Knee          float32
	MaxBrightness float32
	Intensity     float32
}

// DitheringSettings configures post-pass ordered dithering.
type DitheringSettings struct {
	Enabled bool
	Levels  int
}

// NoiseSettings configures the shared blue-noise texture sampling used
// by shadow PCF rotation, IBL jitter, and dithered dissolve.
type NoiseSettings struct {
	TextureSize int
}

// CullingGroupSettings bundles the four independent culling-pass
// configurations the render graph drives.
type CullingGroupSettings struct {
	FrustumEnabled    bool
	Shadow            CullingSettings
	Reflection        CullingSettings
	PlanarReflection  CullingSettings
	Main              CullingSettings
}

// OcclusionCullingSettings configures the HiZ-based occlusion test's
// invalidation thresholds.
type OcclusionCullingSettings struct {
	Enabled             bool
	MaxTileSpan         int
	Threshold           float32
	PositionThreshold   float32
	RotationThreshold   float32
	WarmupFrames        int
}

// SkinningSettings configures GPU skinning.
type SkinningSettings struct {
	Enabled bool
}

// TemporalSettings configures TAA jitter and motion-vector consumers.
type TemporalSettings struct {
	JitterEnabled bool
	JitterScale   float32
}

// PerformanceSettings configures render-scale and resolution knobs
// independent of any one pass.
type PerformanceSettings struct {
	RenderScale float32
}

// AmbientCaptureSettings configures ambient-probe capture (reserved
// for a future IBL refresh pass; present so the settings tree matches
// the documented group list even though no pass yet consumes it).
type AmbientCaptureSettings struct {
	Enabled bool
}

// CRTSettings configures the optional CRT post-process.
type CRTSettings struct {
	Enabled         bool
	Curvature       float32
	ScanlineOpacity float32
	MaskOpacity     float32
	Vignette        float32
}

// EngineSettings configures top-level engine behavior.
type EngineSettings struct {
	Width  int
	Height int
}

// CameraSettings configures the default camera.
type CameraSettings struct {
	FovYDegrees float32
	Near        float32
	Far         float32
}

// RenderingSettings configures render-target formats and color
// management shared across passes.
type RenderingSettings struct {
	ColorFormat string
}

// Settings is the full deep-merged configuration tree. Every group
// named by the external Settings contract has a field here.
type Settings struct {
	Engine           EngineSettings
	Camera           CameraSettings
	Rendering        RenderingSettings
	Noise            NoiseSettings
	Dithering        DitheringSettings
	Bloom            BloomSettings
	Environment      EnvironmentSettings
	MainLight        MainLightSettings
	Shadow           ShadowSettings
	AO               AOSettings
	Lighting         LightingSettings
	Culling          CullingGroupSettings
	OcclusionCulling OcclusionCullingSettings
	Skinning         SkinningSettings
	SSGI             SSGISettings
	VolumetricFog    VolumetricFogSettings
	PlanarReflection PlanarReflectionSettings
	AmbientCapture   AmbientCaptureSettings
	Temporal         TemporalSettings
	Performance      PerformanceSettings
	CRT              CRTSettings
}
