//go:build !nogpu

package gpu

import "errors"

// Device and context errors.
var (
	// ErrNotInitialized is returned when an operation requires an initialized context.
	ErrNotInitialized = errors.New("gpu: context not initialized")

	// ErrNoGPU is returned when no suitable adapter could be found.
	ErrNoGPU = errors.New("gpu: no GPU adapter available")

	// ErrDeviceLost is returned when the GPU device has been lost.
	ErrDeviceLost = errors.New("gpu: device lost")

	// ErrNotImplemented is returned by operations awaiting backend support.
	ErrNotImplemented = errors.New("gpu: operation not implemented")

	// ErrInvalidDimensions is returned for non-positive width/height/depth.
	ErrInvalidDimensions = errors.New("gpu: invalid dimensions")

	// ErrNilTarget is returned when a required target resource is nil.
	ErrNilTarget = errors.New("gpu: nil target")
)
