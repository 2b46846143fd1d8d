package gpuwave

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gpuwave/internal/parallel"
)

// SoftwareSurface evaluates the kernel on the CPU with a pool of worker
// goroutines. It is the fallback when no GPU surface is registered and the
// reference the GPU surfaces are tested against.
//
// Invocations are split into contiguous index ranges and run in no
// particular order; each invocation writes only its own output slot.
//
// Close waits for dispatches already running on the pool, so the surface
// may be replaced while a render is in flight.
type SoftwareSurface struct {
	// runMu is held for reading while a dispatch runs on the pool and for
	// writing while the pool is stopped.
	runMu sync.RWMutex

	mu         sync.Mutex
	pool       *parallel.Pool
	workers    int
	grain      int
	strategies map[Strategy]bool
	logger     atomic.Pointer[slog.Logger]
}

var _ Surface = (*SoftwareSurface)(nil)

// SoftwareOption configures a SoftwareSurface.
type SoftwareOption func(*SoftwareSurface)

// WithWorkers sets the number of worker goroutines (default GOMAXPROCS).
func WithWorkers(n int) SoftwareOption {
	return func(s *SoftwareSurface) {
		s.workers = n
	}
}

// WithGrain sets how many invocations a worker evaluates per work item.
// Zero picks a grain from the grid capacity.
func WithGrain(n int) SoftwareOption {
	return func(s *SoftwareSurface) {
		s.grain = n
	}
}

// WithStrategies restricts the readback strategies the surface advertises,
// emulating a backend that lacks e.g. float-valued surfaces.
func WithStrategies(strategies ...Strategy) SoftwareOption {
	return func(s *SoftwareSurface) {
		s.strategies = make(map[Strategy]bool, len(strategies))
		for _, st := range strategies {
			s.strategies[st] = true
		}
	}
}

// NewSoftwareSurface creates a CPU surface supporting every strategy unless
// restricted with WithStrategies. Init is called lazily by Bind.
func NewSoftwareSurface(opts ...SoftwareOption) *SoftwareSurface {
	s := &SoftwareSurface{
		strategies: map[Strategy]bool{
			StrategyFloatSurface: true,
			StrategyByteSurface:  true,
			StrategyStream:       true,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns "software".
func (s *SoftwareSurface) Name() string { return "software" }

// Init starts the worker pool.
func (s *SoftwareSurface) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pool == nil {
		s.pool = parallel.NewPool(s.workers)
	}
	return nil
}

// Close stops the worker pool. Bindings created before Close run on the
// calling goroutine afterwards.
func (s *SoftwareSurface) Close() {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pool != nil {
		s.pool.Close()
		s.pool = nil
	}
}

// SetLogger sets the surface logger. Nil restores the package logger.
func (s *SoftwareSurface) SetLogger(l *slog.Logger) {
	s.logger.Store(l)
}

func (s *SoftwareSurface) log() *slog.Logger {
	if l := s.logger.Load(); l != nil {
		return l
	}
	return Logger()
}

// Supports reports whether strategy st is enabled.
func (s *SoftwareSurface) Supports(st Strategy) bool {
	return s.strategies[st]
}

// Bind prepares a dispatch of sound over grid in codec's format.
func (s *SoftwareSurface) Bind(sound Sound, grid Grid, codec Codec) (Binding, error) {
	if sound == nil {
		return nil, fmt.Errorf("%w: nil sound", ErrKernelBuild)
	}
	if err := grid.Validate(); err != nil {
		return nil, err
	}
	if !s.Supports(codec.Strategy()) {
		return nil, fmt.Errorf("%w: %s on %s", ErrStrategyUnsupported, codec.Strategy(), s.Name())
	}
	if err := s.Init(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	pool := s.pool
	s.mu.Unlock()

	n := grid.Capacity()
	s.log().Debug("software: kernel bound",
		"grid", grid.String(),
		"strategy", codec.Strategy().String(),
		"workers", pool.Workers())
	return &softwareBinding{
		run:     &s.runMu,
		pool:    pool,
		grain:   s.grain,
		sound:   sound,
		grid:    grid,
		codec:   codec,
		surface: make([]byte, n*codec.Stride()),
	}, nil
}

// softwareBinding owns the host-side surface memory for one render.
type softwareBinding struct {
	run     *sync.RWMutex
	pool    *parallel.Pool
	grain   int
	sound   Sound
	grid    Grid
	codec   Codec
	surface []byte
}

func (b *softwareBinding) Dispatch(u Uniforms) ([]byte, error) {
	if b.surface == nil {
		return nil, ErrSurfaceClosed
	}
	if u.SampleRate <= 0 {
		return nil, ErrInvalidSampleRate
	}
	b.run.RLock()
	defer b.run.RUnlock()
	switch b.codec.Layout() {
	case LayoutLinear:
		b.pool.Run(b.grid.Capacity(), b.grain, func(lo, hi int) {
			for k := lo; k < hi; k++ {
				b.invoke(k, u)
			}
		})
	default:
		// Rows are the work unit; each cell derives its slot from (x, y).
		rowGrain := 0
		if b.grain > 0 {
			rowGrain = max(1, b.grain/b.grid.Width)
		}
		b.pool.Run(b.grid.Height, rowGrain, func(lo, hi int) {
			for y := lo; y < hi; y++ {
				for x := 0; x < b.grid.Width; x++ {
					b.invoke(b.grid.Index(x, y), u)
				}
			}
		})
	}
	return b.surface, nil
}

// invoke is one invocation: evaluate the sound at the slot's absolute time
// and store it in the slot.
func (b *softwareBinding) invoke(k int, u Uniforms) {
	t := u.BlockOffset + float64(k)/u.SampleRate
	stride := b.codec.Stride()
	b.codec.Encode(b.sound.Eval(t), b.surface[k*stride:(k+1)*stride])
}

func (b *softwareBinding) Release() {
	b.surface = nil
}
