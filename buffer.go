package gpuwave

import (
	"math"
	"time"
)

// Buffer is a rendered stereo waveform stored as two equal-length planar
// channels.
type Buffer struct {
	SampleRate int
	Left       []float32
	Right      []float32
}

// NewBuffer allocates a zeroed buffer of frames samples per channel.
func NewBuffer(sampleRate, frames int) *Buffer {
	return &Buffer{
		SampleRate: sampleRate,
		Left:       make([]float32, frames),
		Right:      make([]float32, frames),
	}
}

// Len returns the number of frames (samples per channel).
func (b *Buffer) Len() int {
	return len(b.Left)
}

// Duration returns the playing time of the buffer.
func (b *Buffer) Duration() time.Duration {
	if b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(b.Len()) / float64(b.SampleRate) * float64(time.Second))
}

// Interleaved returns the buffer as LRLR... frames, the layout audio
// devices and WAV files expect.
func (b *Buffer) Interleaved() []float32 {
	out := make([]float32, 2*b.Len())
	for i := range b.Left {
		out[2*i] = b.Left[i]
		out[2*i+1] = b.Right[i]
	}
	return out
}

// Peak returns the largest absolute sample value over both channels.
func (b *Buffer) Peak() float32 {
	var peak float64
	for i := range b.Left {
		peak = math.Max(peak, math.Abs(float64(b.Left[i])))
		peak = math.Max(peak, math.Abs(float64(b.Right[i])))
	}
	return float32(peak)
}

// Assembler scatters decoded blocks into a Buffer. It is the only writer of
// the buffer during a render.
type Assembler struct {
	buf *Buffer
}

// NewAssembler returns an assembler that owns buf until the render ends.
func NewAssembler(buf *Buffer) *Assembler {
	return &Assembler{buf: buf}
}

// Write copies samples into the buffer at the block's start. It writes at
// most block.Count samples and never past the end of the buffer; surplus
// invocations of a partial final block are dropped. It returns the number of
// frames written.
func (a *Assembler) Write(block Block, samples []Stereo) int {
	n := len(samples)
	if block.Count < n {
		n = block.Count
	}
	if remaining := a.buf.Len() - block.Start; remaining < n {
		n = remaining
	}
	if n <= 0 || block.Start < 0 {
		return 0
	}
	left := a.buf.Left[block.Start : block.Start+n]
	right := a.buf.Right[block.Start : block.Start+n]
	for j := range n {
		left[j] = samples[j].L
		right[j] = samples[j].R
	}
	return n
}

// Buffer returns the assembled buffer.
func (a *Assembler) Buffer() *Buffer {
	return a.buf
}
