// Package hiz builds the hierarchical-depth pyramid the culling pass's
// occlusion test reads: one (min, max) linear-depth pair per screen
// tile, reduced from the previous frame's depth target. The compute
// shader itself (8x8 threads reducing an 8x8 block each, six
// shared-memory halving steps to cover a 64x64-pixel workgroup) is an
// opaque WGSL blob per the engine's scope; this package is the
// CPU-testable reference reduction and the tile-indexed buffer both
// the GPU dispatch sizing and the culling pass's HiZSource consume.
package hiz

import "math"

// WorkgroupPixels is the screen-space footprint of one compute
// workgroup: 8x8 threads, each reducing an 8x8 block of pixels.
const WorkgroupPixels = 64

// ThreadBlockPixels is the per-thread reduction footprint within a
// workgroup.
const ThreadBlockPixels = 8

// Buffer holds one (min, max) linear-depth pair per tile, reduced from
// a full-resolution depth target. It implements cull.HiZSource without
// importing the cull package (the small-interface seam the culling
// pass itself defines).
type Buffer struct {
	tileSize   int
	cols, rows int
	min, max   []float32
}

// NewBuffer allocates a HiZ buffer sized for a screenWidth x
// screenHeight depth target reduced at tileSize-pixel granularity.
func NewBuffer(screenWidth, screenHeight, tileSize int) *Buffer {
	if tileSize <= 0 {
		tileSize = WorkgroupPixels
	}
	cols := (screenWidth + tileSize - 1) / tileSize
	rows := (screenHeight + tileSize - 1) / tileSize
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	return &Buffer{
		tileSize: tileSize,
		cols:     cols,
		rows:     rows,
		min:      make([]float32, cols*rows),
		max:      make([]float32, cols*rows),
	}
}

// TileSize reports the tile granularity in pixels.
func (b *Buffer) TileSize() int { return b.tileSize }

// Dimensions reports the tile grid's column and row count.
func (b *Buffer) Dimensions() (cols, rows int) { return b.cols, b.rows }

// MinMax returns the tile's reduced (min, max) linear depth. ok is
// false for a tile outside Dimensions().
func (b *Buffer) MinMax(tileX, tileY int) (min, max float32, ok bool) {
	if tileX < 0 || tileY < 0 || tileX >= b.cols || tileY >= b.rows {
		return 0, 0, false
	}
	idx := tileY*b.cols + tileX
	return b.min[idx], b.max[idx], true
}

// DispatchSize returns the compute workgroup counts needed to cover a
// screenWidth x screenHeight depth target at WorkgroupPixels
// granularity (independent of the Buffer's own tile size, since the
// reduction dispatch always processes whole 64x64 workgroups).
func DispatchSize(screenWidth, screenHeight int) (x, y uint32) {
	cols := (screenWidth + WorkgroupPixels - 1) / WorkgroupPixels
	rows := (screenHeight + WorkgroupPixels - 1) / WorkgroupPixels
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	return uint32(cols), uint32(rows)
}

// Reduce recomputes every tile's (min, max) from a full-resolution
// linear depth buffer (row-major, length screenWidth*screenHeight).
// This is the CPU reference for what the compute shader's per-thread
// 8x8 min/max followed by six shared-memory halving steps computes in
// parallel; Reduce produces the identical result by definition (a
// tile's min/max over its covered pixels), so it also serves as the
// pass's fallback when no compute-capable adapter is available.
func (b *Buffer) Reduce(depth []float32, screenWidth, screenHeight int) {
	for ty := 0; ty < b.rows; ty++ {
		for tx := 0; tx < b.cols; tx++ {
			min := float32(math.MaxFloat32)
			max := float32(0)
			found := false

			startY := ty * b.tileSize
			endY := startY + b.tileSize
			if endY > screenHeight {
				endY = screenHeight
			}
			startX := tx * b.tileSize
			endX := startX + b.tileSize
			if endX > screenWidth {
				endX = screenWidth
			}

			for y := startY; y < endY; y++ {
				row := y * screenWidth
				for x := startX; x < endX; x++ {
					d := depth[row+x]
					if d < min {
						min = d
					}
					if d > max {
						max = d
					}
					found = true
				}
			}

			if !found {
				min, max = 0, 0
			}
			idx := ty*b.cols + tx
			b.min[idx] = min
			b.max[idx] = max
		}
	}
}
