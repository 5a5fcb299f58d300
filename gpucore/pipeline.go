package gpucore

import (
	"fmt"
	"sync"
)

// TileGridConfig configures a TileGrid.
type TileGridConfig struct {
	// Width is the viewport width in pixels.
	Width int

	// Height is the viewport height in pixels.
	Height int

	// TileSizePixels is the edge length of a square tile in pixels.
	// If 0, defaults to TileSize.
	TileSizePixels int

	// MaxLightsPerTile bounds the per-tile light list the culling
	// compute shader writes. If 0, defaults to DefaultMaxLightsPerTile.
	MaxLightsPerTile int
}

// DefaultMaxLightsPerTile is the default cap on lights assigned to a
// single screen tile by the culling compute pass.
const DefaultMaxLightsPerTile = 256

// TileGrid computes and tracks the screen-space tile grid shared by the
// tile light culling compute pass and the deferred lighting pass that
// reads its output. Both passes must agree on tile dimensions, so this
// is the single source of truth, recomputed on resize.
//
// TileGrid is safe for concurrent use.
type TileGrid struct {
	mu sync.Mutex

	adapter GPUAdapter
	config  TileGridConfig

	tileSize    int
	tileColumns int
	tileRows    int
	tileCount   int

	useCompute bool
}

// NewTileGrid creates a tile grid sized for the given viewport. adapter
// is consulted for compute-shader support; if unsupported, UseCompute
// reports false so the caller can surface a degraded-lighting state
// instead of attempting a dispatch no backend can serve.
func NewTileGrid(adapter GPUAdapter, config TileGridConfig) (*TileGrid, error) {
	if adapter == nil {
		return nil, fmt.Errorf("gpucore: adapter is required")
	}
	if config.Width <= 0 || config.Height <= 0 {
		return nil, fmt.Errorf("gpucore: invalid viewport size: %dx%d", config.Width, config.Height)
	}

	cfg := config
	if cfg.TileSizePixels <= 0 {
		cfg.TileSizePixels = TileSize
	}
	if cfg.MaxLightsPerTile <= 0 {
		cfg.MaxLightsPerTile = DefaultMaxLightsPerTile
	}

	g := &TileGrid{
		adapter:    adapter,
		config:     cfg,
		tileSize:   cfg.TileSizePixels,
		useCompute: adapter.SupportsCompute(),
	}
	g.recompute(cfg.Width, cfg.Height)

	return g, nil
}

func (g *TileGrid) recompute(width, height int) {
	g.tileColumns = (width + g.tileSize - 1) / g.tileSize
	g.tileRows = (height + g.tileSize - 1) / g.tileSize
	g.tileCount = g.tileColumns * g.tileRows
}

// Resize updates the grid for a new viewport size.
func (g *TileGrid) Resize(width, height int) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if width <= 0 || height <= 0 {
		return fmt.Errorf("gpucore: invalid viewport size: %dx%d", width, height)
	}

	g.config.Width = width
	g.config.Height = height
	g.recompute(width, height)

	return nil
}

// TileColumns returns the number of tile columns.
func (g *TileGrid) TileColumns() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.tileColumns
}

// TileRows returns the number of tile rows.
func (g *TileGrid) TileRows() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.tileRows
}

// TileCount returns the total number of tiles.
func (g *TileGrid) TileCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.tileCount
}

// MaxLightsPerTile returns the per-tile light list cap.
func (g *TileGrid) MaxLightsPerTile() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.config.MaxLightsPerTile
}

// LightListBufferSize returns the byte size of the storage buffer
// for the tile light list: per tile, one uint32 count followed by
// MaxLightsPerTile uint32 light indices.
func (g *TileGrid) LightListBufferSize() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.tileCount * (1 + g.config.MaxLightsPerTile) * 4
}

// UseCompute reports whether the tile culling pass can dispatch a
// compute shader on the current adapter.
func (g *TileGrid) UseCompute() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.useCompute
}

// DispatchSize returns the workgroup counts for a compute shader that
// assigns one thread per tile, given a square workgroup of side
// groupSize (e.g. 8 for an 8x8 workgroup).
func (g *TileGrid) DispatchSize(groupSize uint32) (x, y, z uint32) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if groupSize == 0 {
		groupSize = 1
	}
	//nolint:gosec // G115: tile counts bounded by viewport dimensions
	x = (uint32(g.tileColumns) + groupSize - 1) / groupSize
	//nolint:gosec // G115: tile counts bounded by viewport dimensions
	y = (uint32(g.tileRows) + groupSize - 1) / groupSize
	return x, y, 1
}
