package gpuwave

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// RenderRequest describes one offline render. It is immutable once issued.
type RenderRequest struct {
	// SampleRate in samples per second.
	SampleRate int

	// Duration in seconds.
	Duration float64
}

// Validate reports ErrInvalidSampleRate or ErrInvalidDuration.
func (r RenderRequest) Validate() error {
	if r.SampleRate <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidSampleRate, r.SampleRate)
	}
	if r.Duration <= 0 || math.IsNaN(r.Duration) || math.IsInf(r.Duration, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidDuration, r.Duration)
	}
	return nil
}

// Samples returns the output length per channel, round(SampleRate*Duration).
func (r RenderRequest) Samples() int {
	return int(math.Round(float64(r.SampleRate) * r.Duration))
}

// Render renders seconds of the configured sound at sampleRate and returns
// the left and right channels. Both have length round(sampleRate*seconds).
//
// Example:
//
//	left, right, err := gpuwave.Render(48000, 180)
func Render(sampleRate int, seconds float64, opts ...Option) (left, right []float32, err error) {
	r := NewRenderer(opts...)
	defer r.Close()

	buf, err := r.Render(context.Background(), RenderRequest{SampleRate: sampleRate, Duration: seconds})
	if err != nil {
		return nil, nil, err
	}
	return buf.Left, buf.Right, nil
}

// Renderer drives block-by-block renders on a compute surface.
//
// A Renderer may be reused for any number of renders. Renders on the same
// Renderer may run concurrently only if the surface supports concurrent
// bindings; the software surface does.
type Renderer struct {
	opts options

	mu       sync.Mutex
	fallback *SoftwareSurface // created when no surface is given or registered
}

// NewRenderer creates a renderer with the given options.
func NewRenderer(opts ...Option) *Renderer {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Renderer{opts: o}
}

// Close releases the software surface the renderer created for itself, if
// any. Surfaces passed with WithSurface or registered globally are left open.
func (r *Renderer) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fallback != nil {
		r.fallback.Close()
		r.fallback = nil
	}
}

// Surface returns the surface renders will use.
func (r *Renderer) Surface() Surface {
	if r.opts.surface != nil {
		return r.opts.surface
	}
	if s := RegisteredSurface(); s != nil {
		return s
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fallback == nil {
		r.fallback = NewSoftwareSurface()
	}
	return r.fallback
}

// Render renders req and returns the assembled buffer.
//
// Configuration errors (invalid request or grid, unsupported strategy,
// backend or kernel failures) are returned immediately and are not retried.
// ctx is checked between blocks.
func (r *Renderer) Render(ctx context.Context, req RenderRequest) (*Buffer, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := r.opts.grid.Validate(); err != nil {
		return nil, err
	}
	if r.opts.sound == nil {
		return nil, errors.New("gpuwave: no sound configured")
	}
	codec, err := NewCodec(r.opts.strategy)
	if err != nil {
		return nil, err
	}
	surf := r.Surface()
	if !surf.Supports(codec.Strategy()) {
		return nil, fmt.Errorf("%w: %s on %s", ErrStrategyUnsupported, codec.Strategy(), surf.Name())
	}

	total := req.Samples()
	sched, err := NewSchedule(total, r.opts.grid.Capacity(), req.SampleRate)
	if err != nil {
		return nil, err
	}
	buf := NewBuffer(req.SampleRate, total)
	if total == 0 {
		return buf, nil
	}

	binding, err := surf.Bind(r.opts.sound, r.opts.grid, codec)
	if err != nil {
		return nil, fmt.Errorf("gpuwave: bind kernel on %s: %w", surf.Name(), err)
	}
	defer binding.Release()

	job := &renderJob{
		sched:   sched,
		codec:   codec,
		binding: binding,
		asm:     NewAssembler(buf),
		rate:    float64(req.SampleRate),
	}

	start := time.Now()
	if r.opts.pipelining {
		err = job.runPipelined(ctx)
	} else {
		err = job.run(ctx)
	}
	if err != nil {
		return nil, err
	}

	Logger().Info("gpuwave: render finished",
		"surface", surf.Name(),
		"strategy", codec.Strategy().String(),
		"samples", total,
		"blocks", sched.BlockCount(),
		"elapsed", time.Since(start))
	return buf, nil
}

// renderJob is the state of one render's block loop.
type renderJob struct {
	sched   Schedule
	codec   Codec
	binding Binding
	asm     *Assembler
	rate    float64
}

// dispatch runs one block on the surface and decodes it into samples.
func (j *renderJob) dispatch(blk Block, samples []Stereo) error {
	raw, err := j.binding.Dispatch(Uniforms{SampleRate: j.rate, BlockOffset: blk.Offset})
	if err != nil {
		return fmt.Errorf("gpuwave: dispatch block %d: %w", blk.Index, err)
	}
	if want := len(samples) * j.codec.Stride(); len(raw) < want {
		return fmt.Errorf("gpuwave: block %d: short readback: %d bytes, want %d", blk.Index, len(raw), want)
	}
	j.codec.Decode(raw, samples)
	Logger().Debug("gpuwave: block dispatched",
		"block", blk.Index,
		"offset", blk.Offset,
		"count", blk.Count)
	return nil
}

// run is the baseline loop: dispatch, decode and assemble each block in
// ascending order on the calling goroutine.
func (j *renderJob) run(ctx context.Context) error {
	samples := make([]Stereo, j.sched.Capacity)
	for blk := range j.sched.Blocks() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := j.dispatch(blk, samples); err != nil {
			return err
		}
		j.asm.Write(blk, samples)
	}
	return nil
}

// decodedBlock carries a decoded block from the dispatcher to the assembler.
type decodedBlock struct {
	block   Block
	samples []Stereo
}

// runPipelined splits the loop into a dispatcher and an assembler. Two
// sample buffers circulate through free, so block i+1 can be dispatched and
// decoded while block i is being assembled. Blocks still arrive at the
// assembler in ascending order.
func (j *renderJob) runPipelined(ctx context.Context) error {
	free := make(chan []Stereo, 2)
	for range 2 {
		free <- make([]Stereo, j.sched.Capacity)
	}
	ready := make(chan decodedBlock, 1)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(ready)
		for blk := range j.sched.Blocks() {
			if err := gctx.Err(); err != nil {
				return err
			}
			var samples []Stereo
			select {
			case samples = <-free:
			case <-gctx.Done():
				return gctx.Err()
			}
			if err := j.dispatch(blk, samples); err != nil {
				return err
			}
			select {
			case ready <- decodedBlock{block: blk, samples: samples}:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})
	g.Go(func() error {
		for d := range ready {
			j.asm.Write(d.block, d.samples)
			free <- d.samples
		}
		return nil
	})
	return g.Wait()
}
