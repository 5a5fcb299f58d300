//go:build !nogpu

package gpu

import (
	"errors"
	"fmt"
	"sync"
)

// Atlas-related errors.
var (
	// ErrAtlasFull is returned when the atlas cannot fit the requested region.
	ErrAtlasFull = errors.New("gpu: texture atlas is full")

	// ErrAtlasClosed is returned when operating on a closed atlas.
	ErrAtlasClosed = errors.New("gpu: texture atlas is closed")

	// ErrRegionOutOfBounds is returned when a region is outside atlas bounds.
	ErrRegionOutOfBounds = errors.New("gpu: region is outside atlas bounds")
)

// Default atlas settings.
const (
	// DefaultAtlasSize is the default atlas dimension (2048x2048), large
	// enough to hold the spot shadow atlas at its default tile budget.
	DefaultAtlasSize = 2048

	// MinAtlasSize is the minimum atlas dimension (256x256).
	MinAtlasSize = 256

	// DefaultShelfPadding is the padding between shelves.
	DefaultShelfPadding = 1
)

// AtlasRegion is a rectangular region of a texture atlas.
type AtlasRegion struct {
	X      int
	Y      int
	Width  int
	Height int
}

// IsValid reports whether the region has positive dimensions.
func (r AtlasRegion) IsValid() bool {
	return r.Width > 0 && r.Height > 0
}

// Contains reports whether the point (x, y) is inside the region.
func (r AtlasRegion) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

// String returns a string representation of the region.
func (r AtlasRegion) String() string {
	return fmt.Sprintf("Region(%d,%d %dx%d)", r.X, r.Y, r.Width, r.Height)
}

// shelf is a horizontal strip in the shelf-packing allocator.
type shelf struct {
	y       int
	height  int
	nextX   int
	padding int
}

// RectAllocator is a shelf-packing allocator for rectangular regions inside
// a fixed-size area. New rectangles are placed on the first shelf they
// fit on, or a new shelf is opened below. It never repacks, so it is
// reset wholesale (Reset) when its backing atlas is recycled, which is how
// the spot shadow atlas reclaims space once every light's tile budget no
// longer fits.
type RectAllocator struct {
	mu sync.Mutex

	width  int
	height int

	shelves      []*shelf
	currentShelf int
	padding      int

	allocCount int
	usedArea   int
}

// NewRectAllocator creates a new rectangular region allocator.
func NewRectAllocator(width, height, padding int) *RectAllocator {
	if width < MinAtlasSize {
		width = MinAtlasSize
	}
	if height < MinAtlasSize {
		height = MinAtlasSize
	}
	if padding < 0 {
		padding = 0
	}

	return &RectAllocator{
		width:   width,
		height:  height,
		shelves: make([]*shelf, 0, 16),
		padding: padding,
	}
}

// Allocate finds space for a rectangle of the given size. It returns an
// invalid region if the rectangle cannot be allocated.
func (a *RectAllocator) Allocate(width, height int) AtlasRegion {
	a.mu.Lock()
	defer a.mu.Unlock()

	if width <= 0 || height <= 0 {
		return AtlasRegion{}
	}

	paddedWidth := width + a.padding
	paddedHeight := height + a.padding

	if paddedWidth > a.width || paddedHeight > a.height {
		return AtlasRegion{}
	}

	for i, s := range a.shelves {
		if a.fitsOnShelf(s, paddedWidth, paddedHeight) {
			return a.allocateOnShelf(i, width, height, paddedWidth)
		}
	}

	return a.allocateNewShelf(width, height, paddedWidth, paddedHeight)
}

func (a *RectAllocator) fitsOnShelf(s *shelf, paddedWidth, paddedHeight int) bool {
	if s.nextX+paddedWidth > a.width {
		return false
	}
	if paddedHeight > s.height && s.nextX > 0 {
		return false
	}
	return true
}

func (a *RectAllocator) allocateOnShelf(shelfIndex, width, height, paddedWidth int) AtlasRegion {
	s := a.shelves[shelfIndex]

	region := AtlasRegion{X: s.nextX, Y: s.y, Width: width, Height: height}

	s.nextX += paddedWidth
	if height+a.padding > s.height {
		s.height = height + a.padding
	}

	a.allocCount++
	a.usedArea += width * height

	return region
}

func (a *RectAllocator) allocateNewShelf(width, height, paddedWidth, paddedHeight int) AtlasRegion {
	newY := 0
	if len(a.shelves) > 0 {
		lastShelf := a.shelves[len(a.shelves)-1]
		newY = lastShelf.y + lastShelf.height
	}

	if newY+paddedHeight > a.height {
		return AtlasRegion{}
	}

	newShelf := &shelf{y: newY, height: paddedHeight, nextX: paddedWidth, padding: a.padding}
	a.shelves = append(a.shelves, newShelf)

	region := AtlasRegion{X: 0, Y: newY, Width: width, Height: height}

	a.allocCount++
	a.usedArea += width * height

	return region
}

// Reset clears all allocations, making the entire area available again.
func (a *RectAllocator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.shelves = a.shelves[:0]
	a.currentShelf = 0
	a.allocCount = 0
	a.usedArea = 0
}

// UsedArea returns the total area of allocated rectangles.
func (a *RectAllocator) UsedArea() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.usedArea
}

// Utilization returns the fraction of area used (0.0 to 1.0).
func (a *RectAllocator) Utilization() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	totalArea := a.width * a.height
	if totalArea == 0 {
		return 0
	}
	return float64(a.usedArea) / float64(totalArea)
}

// AllocCount returns the number of successful allocations since creation
// or the last Reset.
func (a *RectAllocator) AllocCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.allocCount
}

// TextureAtlas packs many small render targets into one large GPU texture,
// backing the spot shadow atlas: each visible spot light is granted
// a tile-sized region instead of its own texture, and the atlas is reset
// and repacked whenever the visible set changes too much to fit.
//
// TextureAtlas is safe for concurrent use.
type TextureAtlas struct {
	mu sync.RWMutex

	texture   *GPUTexture
	allocator *RectAllocator

	width  int
	height int

	padding int

	closed bool
	dirty  bool
}

// TextureAtlasConfig configures a new TextureAtlas.
type TextureAtlasConfig struct {
	Width   int
	Height  int
	Padding int
	Format  TextureFormat
	Label   string
}

// NewTextureAtlas creates a new texture atlas backed by a single GPU
// texture of the given configuration.
func NewTextureAtlas(ctx *Context, config TextureAtlasConfig) (*TextureAtlas, error) {
	width := config.Width
	if width < MinAtlasSize {
		width = DefaultAtlasSize
	}

	height := config.Height
	if height < MinAtlasSize {
		height = DefaultAtlasSize
	}

	padding := config.Padding
	if padding < 0 {
		padding = DefaultShelfPadding
	}

	tex, err := CreateTexture(ctx, TextureConfig{
		Width:  width,
		Height: height,
		Format: config.Format,
		Label:  config.Label,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create atlas texture: %w", err)
	}

	return &TextureAtlas{
		texture:   tex,
		allocator: NewRectAllocator(width, height, padding),
		width:     width,
		height:    height,
		padding:   padding,
	}, nil
}

// Allocate finds space for a rectangle of the given size.
func (a *TextureAtlas) Allocate(width, height int) (AtlasRegion, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return AtlasRegion{}, ErrAtlasClosed
	}

	region := a.allocator.Allocate(width, height)
	if !region.IsValid() {
		return AtlasRegion{}, ErrAtlasFull
	}

	return region, nil
}

// Upload checks raw texel data for a region of the atlas and marks the
// atlas dirty; the bytes are not copied into the texture. data must be
// exactly region.Width*region.Height*BytesPerPixel bytes.
func (a *TextureAtlas) Upload(region AtlasRegion, data []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return ErrAtlasClosed
	}
	if data == nil {
		return ErrNilUploadData
	}

	if region.X < 0 || region.Y < 0 ||
		region.X+region.Width > a.width ||
		region.Y+region.Height > a.height {
		return ErrRegionOutOfBounds
	}

	want := region.Width * region.Height * a.texture.Format().BytesPerPixel()
	if len(data) != want {
		return fmt.Errorf("%w: region is %dx%d but data is %d bytes (want %d)",
			ErrTextureSizeMismatch, region.Width, region.Height, len(data), want)
	}

	a.dirty = true
	return nil
}

// AllocateAndUpload combines Allocate and Upload into a single call.
func (a *TextureAtlas) AllocateAndUpload(width, height int, data []byte) (AtlasRegion, error) {
	region, err := a.Allocate(width, height)
	if err != nil {
		return AtlasRegion{}, err
	}

	if err := a.Upload(region, data); err != nil {
		return AtlasRegion{}, err
	}

	return region, nil
}

// Texture returns the underlying GPU texture.
func (a *TextureAtlas) Texture() *GPUTexture {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.texture
}

// Width returns the atlas width in pixels.
func (a *TextureAtlas) Width() int { return a.width }

// Height returns the atlas height in pixels.
func (a *TextureAtlas) Height() int { return a.height }

// Utilization returns the fraction of atlas area used (0.0 to 1.0).
func (a *TextureAtlas) Utilization() float64 { return a.allocator.Utilization() }

// AllocCount returns the number of allocated regions.
func (a *TextureAtlas) AllocCount() int { return a.allocator.AllocCount() }

// Reset clears all allocation tracking, making the full atlas available
// again. It does not clear the texture's contents.
func (a *TextureAtlas) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return
	}

	a.allocator.Reset()
	a.dirty = false
}

// Close releases the atlas's texture. The atlas should not be used after
// Close is called.
func (a *TextureAtlas) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return
	}

	if a.texture != nil {
		a.texture.Close()
		a.texture = nil
	}

	a.allocator = nil
	a.closed = true
}

// IsClosed reports whether the atlas has been closed.
func (a *TextureAtlas) IsClosed() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.closed
}
