//go:build !headless

package main

import (
	"context"
	"io"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/gogpu/gpuwave/internal/playback"
)

// playBuffer plays r once and returns when it has drained or ctx is done.
func playBuffer(ctx context.Context, r io.Reader, sampleRate int) error {
	otoCtx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: playback.Channels,
		Format:       oto.FormatFloat32LE,
	})
	if err != nil {
		return err
	}
	<-ready

	player := otoCtx.NewPlayer(r)
	defer player.Close()
	player.Play()

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for player.IsPlaying() {
		select {
		case <-ctx.Done():
			player.Pause()
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}
