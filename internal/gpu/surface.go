//go:build !nogpu

package gpu

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// Surface errors.
var (
	// ErrNilDeviceHandle is returned when a nil DeviceHandle is passed.
	ErrNilDeviceHandle = errors.New("gpu: nil device handle")
)

// DeviceHandle provides GPU device access from the host application.
//
// The host creates the window, acquires the device, and hands both to
// the engine through this interface; the engine never creates a device
// of its own when a handle is supplied. DeviceHandle is an alias for
// gpucontext.DeviceProvider so any provider from the gpucontext
// ecosystem plugs in directly.
type DeviceHandle = gpucontext.DeviceProvider

// NullDeviceHandle is a DeviceHandle with nil implementations, for
// CPU-only paths where no GPU is available.
type NullDeviceHandle struct{}

// Device returns nil for the null device.
func (NullDeviceHandle) Device() gpucontext.Device { return nil }

// Queue returns nil for the null device.
func (NullDeviceHandle) Queue() gpucontext.Queue { return nil }

// Adapter returns nil for the null device.
func (NullDeviceHandle) Adapter() gpucontext.Adapter { return nil }

// AdapterInfo returns unknown adapter info for the null device.
func (NullDeviceHandle) AdapterInfo() gpucontext.AdapterInfo {
	return gpucontext.AdapterInfo{Type: gpucontext.AdapterTypeUnknown}
}

// SurfaceFormat returns undefined format for the null device.
func (NullDeviceHandle) SurfaceFormat() gputypes.TextureFormat {
	return gputypes.TextureFormatUndefined
}

var _ DeviceHandle = NullDeviceHandle{}

// PreferredSurfaceFormat is used when the host's provider reports no
// surface format of its own.
const PreferredSurfaceFormat = gputypes.TextureFormatBGRA8Unorm

// Surface owns the host window surface's configuration. The engine
// holds exclusive ownership of the configure call: after handing its
// DeviceHandle over, the host must not reconfigure the surface itself.
//
// Surface is safe for concurrent use.
type Surface struct {
	mu sync.Mutex

	handle DeviceHandle
	format gputypes.TextureFormat

	width  int
	height int

	// generation counts real reconfigurations. A Configure call with
	// the current dimensions is a no-op and does not advance it.
	generation uint64
}

// NewSurface wraps the host's device handle and configures the surface
// to the given dimensions. The surface format is the provider's
// reported format, or PreferredSurfaceFormat when the provider reports
// none.
func NewSurface(handle DeviceHandle, width, height int) (*Surface, error) {
	if handle == nil {
		return nil, ErrNilDeviceHandle
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}

	format := handle.SurfaceFormat()
	if format == gputypes.TextureFormatUndefined {
		format = PreferredSurfaceFormat
	}

	s := &Surface{
		handle:     handle,
		format:     format,
		width:      width,
		height:     height,
		generation: 1,
	}

	slogger().Info("gpu: surface configured",
		"width", width, "height", height, "format", format)

	return s, nil
}

// Configure reconfigures the surface to new dimensions. Configuring to
// the current dimensions is a no-op that leaves the surface untouched.
func (s *Surface) Configure(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if width == s.width && height == s.height {
		return nil
	}

	s.width = width
	s.height = height
	s.generation++

	slogger().Info("gpu: surface reconfigured",
		"width", width, "height", height)

	return nil
}

// Handle returns the host device handle the surface was built over.
func (s *Surface) Handle() DeviceHandle { return s.handle }

// Format returns the surface's texture format.
func (s *Surface) Format() gputypes.TextureFormat { return s.format }

// Width returns the surface width in physical pixels.
func (s *Surface) Width() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width
}

// Height returns the surface height in physical pixels.
func (s *Surface) Height() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.height
}

// Generation returns the number of real configurations applied so far.
func (s *Surface) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}
