// Package rendergraph owns the per-frame orchestration: it sequences
// every pass in the exact dependency order entity store -> culling ->
// instance manager -> (shadow, G-buffer) -> HiZ -> tile-light ->
// lighting -> (SSGI, AO, planar, volumetric, particles) -> post, holds
// the resources shared between passes (the G-buffer, shadow atlas,
// HiZ buffer, tile-light list, previous-frame history), and drives the
// resize and in-flight-frame protocols.
package rendergraph

// EngineState is the sum type replacing an ad hoc "rendering enabled"
// boolean: an engine is either Running, Degraded with a reason (a
// feature was disabled but rendering continues), or Stopped with a
// reason (a fatal error cleared the rendering flag; the handle stays
// valid for teardown). Callers dispatch on it with a type switch
// rather than inspecting a flag.
type EngineState interface {
	isEngineState()
}

// Running is the normal per-frame rendering state.
type Running struct{}

func (Running) isEngineState() {}

// Degraded means a non-fatal feature negotiation failed and that
// feature is disabled, but frames still render.
type Degraded struct {
	Reason string
}

func (Degraded) isEngineState() {}

// Stopped means a fatal error (device acquisition, pipeline
// compilation) cleared the rendering flag. The engine handle remains
// valid so the host can still tear it down.
type Stopped struct {
	Reason string
}

func (Stopped) isEngineState() {}

// Describe returns a short human-readable description of state, a
// one-line diagnostic suitable for logging fatal states.
func Describe(state EngineState) string {
	switch s := state.(type) {
	case Running:
		return "running"
	case Degraded:
		return "degraded: " + s.Reason
	case Stopped:
		return "stopped: " + s.Reason
	default:
		return "unknown"
	}
}

// Rendering reports whether a state permits the frame loop to submit
// work: Running and Degraded both render; Stopped does not.
func Rendering(state EngineState) bool {
	switch state.(type) {
	case Stopped:
		return false
	default:
		return true
	}
}
