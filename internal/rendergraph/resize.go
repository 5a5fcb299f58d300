package rendergraph

import "time"

// Resizable is implemented by every screen-sized resource owner in the
// graph: the G-buffer, HiZ buffer, tile-light list, SSGI tile buffers,
// and any other pass-owned target that scales with output resolution.
// Resize must be idempotent: calling it again with the same
// (width, height, scale) leaves the resource unchanged.
type Resizable interface {
	Resize(width, height int, scale float32) error
}

// ResizePollInterval is the sub-millisecond polling period the resize
// handler spins at while waiting for the in-flight frame to drain,
// mirroring the buffer-mapping poll idiom used elsewhere in the
// engine's GPU resource layer.
const ResizePollInterval = 200 * time.Microsecond

// ResizeGracePeriod bounds how long Resize waits for the in-flight
// flag to clear before giving up and returning ErrResizeTimedOut
// without resizing (a stuck submission must not hang the host's resize
// handler forever).
const ResizeGracePeriod = 2 * time.Second

// drainInFlight spins on f until it reports idle or the grace period
// elapses, returning false in the latter case.
func drainInFlight(f *InFlight, sleep func(time.Duration)) bool {
	deadline := ResizeGracePeriod
	for elapsed := time.Duration(0); f.Busy(); elapsed += ResizePollInterval {
		if elapsed >= deadline {
			return false
		}
		sleep(ResizePollInterval)
	}
	return true
}

// Resize drains any in-flight submission, then calls Resize on every
// registered resizable with the new dimensions, in registration order.
// Returns the first error encountered (after attempting every
// resizable) rather than aborting partway, so a single misbehaving
// pass doesn't leave the rest of the graph at stale dimensions.
func (g *Graph) Resize(width, height int, scale float32) error {
	if !drainInFlight(&g.inFlight, time.Sleep) {
		return ErrResizeTimedOut
	}

	var firstErr error
	for _, r := range g.resizables {
		if err := r.Resize(width, height, scale); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// RegisterResizable adds r to the set of resources the next Resize
// call will update.
func (g *Graph) RegisterResizable(r Resizable) {
	g.resizables = append(g.resizables, r)
}
