package config

// Defaults returns the engine's compiled-in default settings. A host
// overrides these by constructing a partial Settings value and calling
// Merge(Defaults(), partial).
func Defaults() Settings {
	return Settings{
		Engine: EngineSettings{Width: 1920, Height: 1080},
		Camera: CameraSettings{FovYDegrees: 70, Near: 0.05, Far: 5000},
		Rendering: RenderingSettings{
			ColorFormat: "rgba16float",
		},
		Noise: NoiseSettings{TextureSize: 64},
		Dithering: DitheringSettings{
			Enabled: true,
			Levels:  256,
		},
		Bloom: BloomSettings{
			Enabled:       true,
			Threshold:     1.0,
			Knee:          0.5,
			MaxBrightness: 16,
			Intensity:     0.35,
		},
		Environment: EnvironmentSettings{
			Diffuse:  1,
			Specular: 1,
			Exposure: 1,
		},
		MainLight: MainLightSettings{
			Direction: [3]float32{-0.4, -1, -0.3},
			Color:     [3]float32{1, 1, 0.95},
			Intensity: 3,
		},
		Shadow: ShadowSettings{
			MapSize:         2048,
			CascadeCount:    3,
			CascadeSizes:    []float32{10, 30, 100},
			MaxSpotShadows:  16,
			SpotTileSize:    512,
			SpotAtlasSize:   2048,
			SpotMaxDistance: 30,
			SpotFadeStart:   24,
			Bias:            0.002,
			NormalBias:      0.5,
			SurfaceBias:     0.002,
			Strength:        1,
		},
		AO: AOSettings{Enabled: true, Radius: 0.5, Power: 1.5},
		Lighting: LightingSettings{
			MaxLights:                    1024,
			TileSize:                     16,
			MaxLightsPerTile:             256,
			DirectSpecularMultiplier:     1,
			SpecularBoost:                0,
			SpecularBoostRoughnessCutoff: 0.6,
			TileRadiusScale:              1.5,
		},
		Culling: CullingGroupSettings{
			FrustumEnabled: true,
			Main: CullingSettings{
				Frustum: true, HiZ: true, CascadeFilter: false,
				MaxDistance: 2000, MinPixelSize: 1, FadeStart: 0.85,
			},
			Shadow: CullingSettings{
				Frustum: false, HiZ: false, CascadeFilter: true,
				MaxDistance: 200, MinPixelSize: 0, FadeStart: 1,
			},
			Reflection: CullingSettings{
				Frustum: true, HiZ: false, CascadeFilter: false,
				MaxDistance: 500, MinPixelSize: 1, FadeStart: 0.85,
			},
			PlanarReflection: CullingSettings{
				Frustum: true, HiZ: false, CascadeFilter: false,
				MaxDistance: 500, MinPixelSize: 1, FadeStart: 0.85,
			},
		},
		OcclusionCulling: OcclusionCullingSettings{
			Enabled:           true,
			MaxTileSpan:       64,
			Threshold:         1.0,
			PositionThreshold: 2.0,
			RotationThreshold: 0.1,
			WarmupFrames:      5,
		},
		Skinning: SkinningSettings{Enabled: true},
		SSGI: SSGISettings{
			Enabled:         true,
			TileSize:        16,
			MaxBrightness:   8,
			HalfScreenTiles: 8,
			Intensity:       1,
		},
		VolumetricFog: VolumetricFogSettings{
			Enabled:             false,
			BottomY:             0,
			TopY:                20,
			MaxSamples:          48,
			MinVisibility:       0.15,
			BrightnessThreshold: 1.5,
			SkyBrightness:       2.0,
		},
		PlanarReflection: PlanarReflectionSettings{
			Enabled:    false,
			PlaneY:     0,
			Resolution: 512,
		},
		AmbientCapture: AmbientCaptureSettings{Enabled: false},
		Temporal:       TemporalSettings{JitterEnabled: true, JitterScale: 1},
		Performance:    PerformanceSettings{RenderScale: 1},
		CRT: CRTSettings{
			Enabled:         false,
			Curvature:       0.1,
			ScanlineOpacity: 0.2,
			MaskOpacity:     0.15,
			Vignette:        0.3,
		},
	}
}
