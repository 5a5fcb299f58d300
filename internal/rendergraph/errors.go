package rendergraph

import "errors"

// Fatal engine errors, set as a Stopped state's underlying cause by
// the host when it observes one of the fatal error classes below.
var (
	// ErrNoAdapter means device/adapter acquisition failed.
	ErrNoAdapter = errors.New("rendergraph: no GPU adapter available")

	// ErrPipelineCompilation means a shader failed to compile; the
	// triggering diagnostic (line/column/source fragment) is logged
	// separately and not carried on this sentinel.
	ErrPipelineCompilation = errors.New("rendergraph: pipeline compilation failed")

	// ErrResizeTimedOut means the in-flight frame did not drain within
	// ResizeGracePeriod.
	ErrResizeTimedOut = errors.New("rendergraph: resize timed out waiting for in-flight frame")
)
