package gpuwave

import "errors"

// Configuration errors. All of them are fatal: a render that fails with one
// of these will fail the same way on every attempt.
var (
	// ErrInvalidSampleRate is returned when the sample rate is not positive.
	ErrInvalidSampleRate = errors.New("gpuwave: sample rate must be positive")

	// ErrInvalidDuration is returned when the duration is not a positive,
	// finite number of seconds.
	ErrInvalidDuration = errors.New("gpuwave: duration must be positive and finite")

	// ErrInvalidGrid is returned when a grid has fewer than one invocation
	// slot or exceeds a backend's dispatch limits.
	ErrInvalidGrid = errors.New("gpuwave: invalid compute grid")

	// ErrBackendUnavailable is returned when a compute backend cannot be
	// initialized.
	ErrBackendUnavailable = errors.New("gpuwave: compute backend unavailable")

	// ErrKernelBuild is returned when a kernel fails to compile or link.
	ErrKernelBuild = errors.New("gpuwave: kernel build failed")

	// ErrKernelUnsupported is returned when a surface cannot express the
	// sound as a kernel (e.g. a GPU surface given a Go-only sound).
	ErrKernelUnsupported = errors.New("gpuwave: sound cannot be built as a kernel on this surface")

	// ErrStrategyUnsupported is returned when the surface does not support
	// the requested readback strategy. The renderer never substitutes
	// another strategy.
	ErrStrategyUnsupported = errors.New("gpuwave: readback strategy not supported by surface")

	// ErrSurfaceClosed is returned when a closed surface or released
	// binding is used.
	ErrSurfaceClosed = errors.New("gpuwave: surface closed")
)
