// Package preview draws a rendered buffer as a waveform image.
package preview

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"

	"golang.org/x/image/vector"

	"github.com/gogpu/gpuwave"
)

var (
	background = color.RGBA{R: 0x10, G: 0x12, B: 0x16, A: 0xff}
	axisColor  = color.RGBA{R: 0x3a, G: 0x3f, B: 0x4a, A: 0xff}
	leftColor  = color.RGBA{R: 0x4f, G: 0xc3, B: 0xf7, A: 0xff}
	rightColor = color.RGBA{R: 0xff, G: 0xb7, B: 0x4d, A: 0xff}
)

// minThickness keeps silent stretches visible as a hairline.
const minThickness = 1.0

// Envelope is the per-column min/max of one channel.
type Envelope struct {
	Min, Max []float32
}

// ComputeEnvelope splits samples into columns of equal duration and
// records the extremes of each. Columns past the end of a short channel
// are zero.
func ComputeEnvelope(samples []float32, columns int) Envelope {
	env := Envelope{Min: make([]float32, columns), Max: make([]float32, columns)}
	n := len(samples)
	if n == 0 || columns <= 0 {
		return env
	}
	for c := range columns {
		lo := c * n / columns
		hi := (c + 1) * n / columns
		if hi <= lo {
			hi = lo + 1
		}
		if lo >= n {
			break
		}
		hi = min(hi, n)
		mn, mx := samples[lo], samples[lo]
		for _, s := range samples[lo+1 : hi] {
			mn = min(mn, s)
			mx = max(mx, s)
		}
		env.Min[c], env.Max[c] = mn, mx
	}
	return env
}

// Render draws the left channel in the top half and the right channel in
// the bottom half of a width x height image.
func Render(buf *gpuwave.Buffer, width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)
	if width <= 0 || height < 2 || buf == nil {
		return img
	}

	lane := height / 2
	drawLane(img, ComputeEnvelope(buf.Left, width), 0, lane, leftColor)
	drawLane(img, ComputeEnvelope(buf.Right, width), lane, height-lane, rightColor)
	return img
}

// drawLane fills the envelope polygon of one channel: along the maxima
// left to right, then back along the minima.
func drawLane(dst *image.RGBA, env Envelope, top, h int, c color.RGBA) {
	w := len(env.Max)
	mid := float32(top) + float32(h)/2
	half := float32(h)/2 - 1

	for x := range w {
		dst.SetRGBA(x, int(mid), axisColor)
	}

	y := func(v float32) float32 {
		v = max(-1, min(1, v))
		return mid - v*half
	}

	z := vector.NewRasterizer(w, dst.Bounds().Dy())
	z.DrawOp = draw.Over
	z.MoveTo(0, y(env.Max[0]))
	for x := range w {
		z.LineTo(float32(x)+1, y(env.Max[x]))
	}
	for x := w - 1; x >= 0; x-- {
		lo := y(env.Min[x])
		if hi := y(env.Max[x]); lo-hi < minThickness {
			lo = hi + minThickness
		}
		z.LineTo(float32(x)+1, lo)
	}
	z.LineTo(0, y(env.Min[0]))
	z.ClosePath()
	z.Draw(dst, dst.Bounds(), image.NewUniform(c), image.Point{})
}

// WritePNG encodes img as PNG.
func WritePNG(w io.Writer, img image.Image) error {
	return png.Encode(w, img)
}
