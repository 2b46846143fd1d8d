package gpuwave

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// Strategy selects how computed samples travel from the compute surface back
// to host memory.
type Strategy int

const (
	// StrategyFloatSurface stores two float32 components per grid cell.
	// Lossless; requires a backend with float-valued readback surfaces.
	StrategyFloatSurface Strategy = iota

	// StrategyByteSurface stores each channel as a 16-bit fixed-point value
	// split over two 8-bit components of a 4x8-bit cell. Works on backends
	// that only read back 8-bit channels; exact to 16-bit quantization.
	StrategyByteSurface

	// StrategyStream captures each invocation's float pair directly into a
	// linear buffer indexed by invocation number. Lossless, no 2D surface.
	StrategyStream
)

// String returns the strategy name used by ParseStrategy.
func (s Strategy) String() string {
	switch s {
	case StrategyFloatSurface:
		return "float"
	case StrategyByteSurface:
		return "byte"
	case StrategyStream:
		return "stream"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// ParseStrategy parses "float", "byte" or "stream".
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "float", "a":
		return StrategyFloatSurface, nil
	case "byte", "b":
		return StrategyByteSurface, nil
	case "stream", "c":
		return StrategyStream, nil
	}
	return 0, fmt.Errorf("gpuwave: unknown readback strategy %q", name)
}

// Layout describes how a surface maps invocations to output slots.
type Layout int

const (
	// Layout2D indexes invocations by grid cell; slot = x + y*Width.
	Layout2D Layout = iota

	// LayoutLinear indexes invocations by their position in a 1D stream.
	LayoutLinear
)

// Codec encodes what one invocation stores on the surface and decodes a
// block of readback memory into samples.
//
// Every codec maps slot k of the readback to invocation coordinate k, so all
// strategies agree on which absolute sample each slot holds.
type Codec interface {
	Strategy() Strategy
	Layout() Layout

	// Stride is the number of readback bytes per invocation.
	Stride() int

	// Encode writes s in surface format into dst[:Stride()].
	Encode(s Stereo, dst []byte)

	// Decode converts len(dst) invocations from src into samples.
	// src must hold at least len(dst)*Stride() bytes.
	Decode(src []byte, dst []Stereo)
}

// NewCodec returns the codec for a strategy.
func NewCodec(s Strategy) (Codec, error) {
	switch s {
	case StrategyFloatSurface:
		return floatCodec{layout: Layout2D, strategy: s}, nil
	case StrategyByteSurface:
		return byteCodec{}, nil
	case StrategyStream:
		return floatCodec{layout: LayoutLinear, strategy: s}, nil
	}
	return nil, fmt.Errorf("gpuwave: unknown readback strategy %d", int(s))
}

// floatCodec is shared by the float surface and the stream: both read back
// native float32 pairs and differ only in how invocations are indexed.
type floatCodec struct {
	layout   Layout
	strategy Strategy
}

func (c floatCodec) Strategy() Strategy { return c.strategy }
func (c floatCodec) Layout() Layout     { return c.layout }
func (c floatCodec) Stride() int        { return 8 }

func (c floatCodec) Encode(s Stereo, dst []byte) {
	binary.LittleEndian.PutUint32(dst[0:], math.Float32bits(s.L))
	binary.LittleEndian.PutUint32(dst[4:], math.Float32bits(s.R))
}

func (c floatCodec) Decode(src []byte, dst []Stereo) {
	for i := range dst {
		o := i * 8
		dst[i] = Stereo{
			L: math.Float32frombits(binary.LittleEndian.Uint32(src[o:])),
			R: math.Float32frombits(binary.LittleEndian.Uint32(src[o+4:])),
		}
	}
}

// QuantizationStep is the largest difference between a sample and its
// byte-surface round trip: one 16-bit step over the [-1, 1] range.
const QuantizationStep = 2.0 / 65535.0

// byteCodec packs each channel into 16 bits: (lo, hi) for L then (lo, hi)
// for R, matching a 4x8-bit unorm cell with components (L.lo, L.hi, R.lo, R.hi).
type byteCodec struct{}

func (byteCodec) Strategy() Strategy { return StrategyByteSurface }
func (byteCodec) Layout() Layout     { return Layout2D }
func (byteCodec) Stride() int        { return 4 }

func (byteCodec) Encode(s Stereo, dst []byte) {
	l := quantize(s.L)
	r := quantize(s.R)
	dst[0] = uint8(l & 0xFF) //nolint:gosec // masked to 8 bits
	dst[1] = uint8(l >> 8)   //nolint:gosec // l < 65536
	dst[2] = uint8(r & 0xFF) //nolint:gosec // masked to 8 bits
	dst[3] = uint8(r >> 8)   //nolint:gosec // r < 65536
}

func (byteCodec) Decode(src []byte, dst []Stereo) {
	for i := range dst {
		o := i * 4
		dst[i] = Stereo{
			L: dequantize(uint32(src[o]) + 256*uint32(src[o+1])),
			R: dequantize(uint32(src[o+2]) + 256*uint32(src[o+3])),
		}
	}
}

// quantize maps [-1, 1] to [0, 65535] as floor((0.5+0.5*s)*65536). The
// sample is clamped first so the encoding never wraps.
func quantize(s float32) uint32 {
	v := float64(s)
	if v != v { // NaN
		v = 0
	}
	v = math.Max(-1, math.Min(1, v))
	q := math.Floor((0.5 + 0.5*v) * 65536)
	if q > 65535 {
		q = 65535
	}
	if q < 0 {
		q = 0
	}
	return uint32(q)
}

func dequantize(v uint32) float32 {
	return float32(float64(v)/65535*2 - 1)
}
