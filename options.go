package gpuwave

// Option configures a Renderer.
//
// Example:
//
//	// Defaults: registered surface (or software), 512x512 grid, float surface.
//	r := gpuwave.NewRenderer()
//
//	// Byte-surface readback on a small grid.
//	r := gpuwave.NewRenderer(
//	    gpuwave.WithGrid(gpuwave.Grid{Width: 256, Height: 256}),
//	    gpuwave.WithStrategy(gpuwave.StrategyByteSurface),
//	)
type Option func(*options)

type options struct {
	surface    Surface
	grid       Grid
	strategy   Strategy
	sound      Sound
	pipelining bool
}

func defaultOptions() options {
	return options{
		surface:  nil, // registered surface, else software
		grid:     DefaultGrid,
		strategy: StrategyFloatSurface,
		sound:    DefaultBeat(),
	}
}

// WithSurface renders on s instead of the registered surface. The renderer
// does not take ownership: the caller closes s.
func WithSurface(s Surface) Option {
	return func(o *options) {
		o.surface = s
	}
}

// WithGrid sets the compute grid, and with it the samples per block.
func WithGrid(g Grid) Option {
	return func(o *options) {
		o.grid = g
	}
}

// WithStrategy selects the readback strategy. If the surface does not
// support it the render fails with ErrStrategyUnsupported.
func WithStrategy(s Strategy) Option {
	return func(o *options) {
		o.strategy = s
	}
}

// WithSound sets the sound to render (default DefaultBeat()).
func WithSound(s Sound) Option {
	return func(o *options) {
		o.sound = s
	}
}

// WithPipelining overlaps assembling block i with dispatching block i+1.
// Dispatches stay sequential; only the host-side copy runs alongside.
func WithPipelining(enabled bool) Option {
	return func(o *options) {
		o.pipelining = enabled
	}
}
