//go:build headless

package main

import (
	"context"
	"errors"
	"io"
)

var errPlaybackUnavailable = errors.New("playback not available in headless builds")

func playBuffer(context.Context, io.Reader, int) error {
	return errPlaybackUnavailable
}
