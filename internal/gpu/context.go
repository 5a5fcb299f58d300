//go:build !nogpu

package gpu

import (
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/core"
)

// GPUInfo describes the adapter selected for a Context.
type GPUInfo struct {
	Name       string
	Vendor     string
	DeviceType gputypes.DeviceType
	Backend    gputypes.Backend
	Driver     string
}

// String returns a human-readable description of the GPU.
func (g *GPUInfo) String() string {
	return fmt.Sprintf("%s (%s, %s)", g.Name, g.DeviceType, g.Backend)
}

// Context owns the instance, adapter, device and queue used by every other
// package in the engine. It is created once at startup and closed once at
// shutdown; every render pass, compute pass and resource allocation in this
// module is reached through the device/queue it exposes.
//
// Context is safe for concurrent use.
type Context struct {
	mu sync.RWMutex

	instance *core.Instance
	adapter  core.AdapterID
	device   core.DeviceID
	queue    core.QueueID

	gpuInfo *GPUInfo

	initialized bool
}

// NewContext creates an uninitialized GPU context. Call Init before use.
func NewContext() *Context {
	return &Context{}
}

// Init creates the instance, requests a high-performance adapter, opens a
// device and retrieves its queue. Init is idempotent: calling it again on an
// already-initialized context is a no-op.
func (c *Context) Init() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.initialized {
		return nil
	}

	desc := &gputypes.InstanceDescriptor{
		Backends: gputypes.BackendsPrimary,
		Flags:    0,
	}
	c.instance = core.NewInstance(desc)

	adapterID, err := c.instance.RequestAdapter(&gputypes.RequestAdapterOptions{
		PowerPreference: gputypes.PowerPreferenceHighPerformance,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNoGPU, err)
	}
	c.adapter = adapterID

	slogger().Info("gpu: adapter selected", "adapter", adapterID)

	c.gpuInfo, _ = getGPUInfo(adapterID)
	if c.gpuInfo != nil {
		slogger().Info("gpu: adapter info", "gpu", c.gpuInfo.String())
	}

	deviceID, err := createDevice(adapterID, "topazcube-device")
	if err != nil {
		return fmt.Errorf("device creation failed: %w", err)
	}
	c.device = deviceID

	queueID, err := getDeviceQueue(deviceID)
	if err != nil {
		_ = releaseDevice(deviceID)
		return fmt.Errorf("queue retrieval failed: %w", err)
	}
	c.queue = queueID

	c.initialized = true
	slogger().Info("gpu: context initialized")

	return nil
}

// Close releases the device and adapter. The context should not be used
// after Close is called.
func (c *Context) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.initialized {
		return
	}

	if !c.device.IsZero() {
		if err := releaseDevice(c.device); err != nil {
			slogger().Warn("gpu: error releasing device", "error", err)
		}
		c.device = core.DeviceID{}
	}

	if !c.adapter.IsZero() {
		if err := releaseAdapter(c.adapter); err != nil {
			slogger().Warn("gpu: error releasing adapter", "error", err)
		}
		c.adapter = core.AdapterID{}
	}

	c.instance = nil
	c.queue = core.QueueID{}
	c.gpuInfo = nil
	c.initialized = false

	slogger().Info("gpu: context closed")
}

// IsInitialized reports whether Init has completed successfully.
func (c *Context) IsInitialized() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.initialized
}

// GPUInfo returns information about the selected adapter, or nil if the
// context is not initialized.
func (c *Context) GPUInfo() *GPUInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gpuInfo
}

// Device returns the device ID, or a zero ID if uninitialized.
func (c *Context) Device() core.DeviceID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.device
}

// Queue returns the queue ID, or a zero ID if uninitialized.
func (c *Context) Queue() core.QueueID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.queue
}

// CheckDeviceLimits logs the device's headline limits (maximum 2D texture
// dimension and maximum buffer size). It does not compare them against
// the engine's worst-case buffer and texture sizes.
func (c *Context) CheckDeviceLimits() error {
	c.mu.RLock()
	deviceID := c.device
	c.mu.RUnlock()

	limits, err := core.GetDeviceLimits(deviceID)
	if err != nil {
		return fmt.Errorf("failed to get device limits: %w", err)
	}

	slogger().Info("gpu: device limits",
		"max_texture_dimension_2d", limits.MaxTextureDimension2D,
		"max_buffer_size", limits.MaxBufferSize)

	return nil
}
