// Package export writes rendered buffers to audio files.
package export

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/gogpu/gpuwave"
)

// wavFormatPCM is the WAVE format tag for integer PCM.
const wavFormatPCM = 1

// ErrBitDepth is returned for bit depths other than 16 and 24.
var ErrBitDepth = errors.New("export: bit depth must be 16 or 24")

// ErrNilBuffer is returned when there is no buffer to write.
var ErrNilBuffer = errors.New("export: nil buffer")

// WriteWAV encodes buf as a stereo integer PCM WAV stream. Samples are
// clamped to [-1, 1] before scaling.
func WriteWAV(w io.WriteSeeker, buf *gpuwave.Buffer, bitDepth int) error {
	if bitDepth != 16 && bitDepth != 24 {
		return fmt.Errorf("%w: %d", ErrBitDepth, bitDepth)
	}
	if buf == nil {
		return ErrNilBuffer
	}
	if buf.SampleRate <= 0 {
		return fmt.Errorf("export: %w: %d", gpuwave.ErrInvalidSampleRate, buf.SampleRate)
	}

	enc := wav.NewEncoder(w, buf.SampleRate, bitDepth, 2, wavFormatPCM)
	scale := math.Pow(2, float64(bitDepth-1)) - 1

	frames := buf.Interleaved()
	intBuf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: 2,
			SampleRate:  buf.SampleRate,
		},
		Data:           make([]int, len(frames)),
		SourceBitDepth: bitDepth,
	}
	for i, smp := range frames {
		intBuf.Data[i] = int(math.Round(clamp(float64(smp)) * scale))
	}
	if err := enc.Write(intBuf); err != nil {
		return fmt.Errorf("export: write samples: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("export: finish wav: %w", err)
	}
	return nil
}

// WriteWAVFile creates path and writes buf to it with WriteWAV.
func WriteWAVFile(path string, buf *gpuwave.Buffer, bitDepth int) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return WriteWAV(f, buf, bitDepth)
}

func clamp(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(-1, math.Min(1, v))
}
