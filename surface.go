package gpuwave

import (
	"errors"
	"sync"
)

// Uniforms are the per-dispatch scalars visible to every invocation.
type Uniforms struct {
	// SampleRate in samples per second.
	SampleRate float64

	// BlockOffset is the time in seconds of invocation 0.
	BlockOffset float64
}

// Surface is a compute backend that evaluates a Sound over a fixed grid of
// parallel invocations.
//
// A surface is provisioned once (Init), then bound to a kernel per render.
// Each Binding is used by a single control goroutine: dispatches on one
// binding never overlap.
type Surface interface {
	// Name returns the backend name (e.g. "software", "vulkan").
	Name() string

	// Init acquires backend resources. A failure means the backend is
	// unavailable and is not retried.
	Init() error

	// Close releases backend resources.
	Close()

	// Supports reports whether the backend can read back with strategy s.
	Supports(s Strategy) bool

	// Bind builds sound into a kernel that writes grid.Capacity()
	// invocations per dispatch in codec's surface format.
	Bind(sound Sound, grid Grid, codec Codec) (Binding, error)
}

// Binding is a kernel bound to a surface, ready to dispatch.
type Binding interface {
	// Dispatch runs every invocation once with u and returns the readback
	// memory: Capacity()*codec.Stride() bytes in invocation order. The
	// returned slice is owned by the binding and is only valid until the
	// next Dispatch or Release.
	Dispatch(u Uniforms) ([]byte, error)

	// Release frees the kernel and its buffers.
	Release()
}

var (
	surfaceMu sync.RWMutex
	surface   Surface
)

// RegisterSurface makes s the default surface for renders that do not pass
// WithSurface.
//
// Only one surface can be registered; a later call replaces and closes the
// previous one. s.Init is called first, and s is not registered if it fails.
// Renders already bound to the previous surface keep their binding: on the
// software surface they finish normally, on a GPU surface their next
// dispatch fails with ErrSurfaceClosed.
//
// GPU backend packages register themselves via blank import:
//
//	import _ "github.com/gogpu/gpuwave/gpu"
func RegisterSurface(s Surface) error {
	if s == nil {
		return errors.New("gpuwave: surface must not be nil")
	}
	if err := s.Init(); err != nil {
		return err
	}
	propagateLogger(s, Logger())

	surfaceMu.Lock()
	old := surface
	surface = s
	surfaceMu.Unlock()
	if old != nil && old != s {
		old.Close()
	}
	Logger().Info("gpuwave: surface registered", "surface", s.Name())
	return nil
}

// RegisteredSurface returns the registered surface, or nil if none.
func RegisteredSurface() Surface {
	surfaceMu.RLock()
	s := surface
	surfaceMu.RUnlock()
	return s
}

// UnregisterSurface removes and closes the registered surface. Renders fall
// back to the software surface afterwards. In-flight renders behave as
// described for RegisterSurface.
func UnregisterSurface() {
	surfaceMu.Lock()
	old := surface
	surface = nil
	surfaceMu.Unlock()
	if old != nil {
		old.Close()
	}
}
