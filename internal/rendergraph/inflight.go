package rendergraph

import "sync/atomic"

// InFlight guards against queue pile-up: if the previous
// frame's submission has not yet returned, the next tick is skipped
// rather than queued. The render loop itself is single-threaded; this
// is a plain bool in spirit, made atomic so the resize protocol (which
// may poll from a different goroutine than the frame tick, e.g. a
// host window-event callback) can observe it safely.
type InFlight struct {
	flag atomic.Bool
}

// Begin attempts to mark a frame as submitted, returning false if one
// is already in flight (the caller should skip this tick).
func (f *InFlight) Begin() bool {
	return f.flag.CompareAndSwap(false, true)
}

// End marks the in-flight frame as completed.
func (f *InFlight) End() {
	f.flag.Store(false)
}

// Busy reports whether a frame is currently in flight.
func (f *InFlight) Busy() bool {
	return f.flag.Load()
}
