// Command gpuwave renders the default beat with a compute surface and
// writes, previews or plays the result.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/gpuwave"
	"github.com/gogpu/gpuwave/export"
	"github.com/gogpu/gpuwave/internal/config"
	"github.com/gogpu/gpuwave/internal/playback"
	"github.com/gogpu/gpuwave/internal/preview"
)

func main() {
	log.SetFlags(0)
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg := config.Load()

	var (
		rate     = flag.Int("rate", cfg.SampleRate, "sample rate in Hz")
		duration = flag.Float64("duration", cfg.Duration, "duration in seconds")
		strategy = flag.String("strategy", cfg.Strategy, "readback strategy: float, byte or stream")
		grid     = flag.String("grid", cfg.Grid, "compute grid WxH (samples per block = W*H)")
		backend  = flag.String("backend", cfg.Backend, "compute backend: auto, cpu or gpu")
		pipeline = flag.Bool("pipeline", cfg.Pipeline, "overlap block dispatch with assembly")
		workers  = flag.Int("workers", cfg.Workers, "software surface workers (0 = GOMAXPROCS)")
		wavPath  = flag.String("wav", "", "write a WAV file")
		bits     = flag.Int("bits", cfg.BitDepth, "WAV bit depth: 16 or 24")
		pngPath  = flag.String("png", "", "write a waveform preview PNG")
		play     = flag.Bool("play", false, "play the rendered buffer")
		verbose  = flag.Bool("v", false, "verbose logging")
	)
	flag.Parse()

	setupLogging(cfg.LogLevel, *verbose)

	st, err := gpuwave.ParseStrategy(*strategy)
	if err != nil {
		return err
	}
	g, err := gpuwave.ParseGrid(*grid)
	if err != nil {
		return err
	}

	opts := []gpuwave.Option{
		gpuwave.WithStrategy(st),
		gpuwave.WithGrid(g),
		gpuwave.WithPipelining(*pipeline),
	}
	surface, err := chooseSurface(*backend, *workers)
	if err != nil {
		return err
	}
	if surface != nil {
		opts = append(opts, gpuwave.WithSurface(surface))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	r := gpuwave.NewRenderer(opts...)
	defer r.Close()

	start := time.Now()
	buf, err := r.Render(ctx, gpuwave.RenderRequest{SampleRate: *rate, Duration: *duration})
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	elapsed := time.Since(start)

	p := message.NewPrinter(language.English)
	p.Printf("rendered %d samples (%.2fs) on %s/%s in %v (%.1fx realtime)\n",
		buf.Len(), buf.Duration().Seconds(), r.Surface().Name(), st, elapsed.Round(time.Millisecond),
		buf.Duration().Seconds()/max(elapsed.Seconds(), 1e-9))

	if *wavPath != "" {
		if err := export.WriteWAVFile(*wavPath, buf, *bits); err != nil {
			return fmt.Errorf("wav: %w", err)
		}
		p.Printf("wrote %s (%d-bit, %d frames)\n", *wavPath, *bits, buf.Len())
	}
	if *pngPath != "" {
		if err := writePreview(*pngPath, buf); err != nil {
			return fmt.Errorf("png: %w", err)
		}
		fmt.Printf("wrote %s\n", *pngPath)
	}
	if *play {
		if err := playBuffer(ctx, playback.NewReader(buf), buf.SampleRate); err != nil {
			return fmt.Errorf("play: %w", err)
		}
	}
	return nil
}

// chooseSurface returns nil for auto, letting the renderer pick the
// registered surface and fall back to software.
func chooseSurface(backend string, workers int) (gpuwave.Surface, error) {
	switch strings.ToLower(backend) {
	case "auto", "":
		return nil, nil
	case "cpu", "software":
		return gpuwave.NewSoftwareSurface(gpuwave.WithWorkers(workers)), nil
	case "gpu", "wgpu":
		s := gpuwave.RegisteredSurface()
		if s == nil {
			return nil, fmt.Errorf("%w: no GPU surface registered", gpuwave.ErrBackendUnavailable)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown backend %q (want auto, cpu or gpu)", backend)
	}
}

func setupLogging(level string, verbose bool) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelWarn
	}
	if verbose {
		lvl = slog.LevelDebug
	}
	gpuwave.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}

func writePreview(path string, buf *gpuwave.Buffer) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return preview.WritePNG(f, preview.Render(buf, 1200, 300))
}
