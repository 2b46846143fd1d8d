package gpuwave

import (
	"math"
	"testing"
	"testing/quick"
)

func TestParseStrategy(t *testing.T) {
	tests := map[string]Strategy{
		"float":  StrategyFloatSurface,
		"A":      StrategyFloatSurface,
		"byte":   StrategyByteSurface,
		" b ":    StrategyByteSurface,
		"stream": StrategyStream,
		"STREAM": StrategyStream,
		"c":      StrategyStream,
	}
	for in, want := range tests {
		got, err := ParseStrategy(in)
		if err != nil || got != want {
			t.Errorf("ParseStrategy(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseStrategy("texture"); err == nil {
		t.Error("ParseStrategy(texture) should fail")
	}
	for _, s := range []Strategy{StrategyFloatSurface, StrategyByteSurface, StrategyStream} {
		if got, _ := ParseStrategy(s.String()); got != s {
			t.Errorf("ParseStrategy(%q) = %v, want %v", s.String(), got, s)
		}
	}
}

func TestNewCodec(t *testing.T) {
	tests := []struct {
		s      Strategy
		layout Layout
		stride int
	}{
		{StrategyFloatSurface, Layout2D, 8},
		{StrategyByteSurface, Layout2D, 4},
		{StrategyStream, LayoutLinear, 8},
	}
	for _, tt := range tests {
		c, err := NewCodec(tt.s)
		if err != nil {
			t.Fatalf("NewCodec(%v): %v", tt.s, err)
		}
		if c.Strategy() != tt.s || c.Layout() != tt.layout || c.Stride() != tt.stride {
			t.Errorf("NewCodec(%v) = (%v, %v, %d), want (%v, %v, %d)",
				tt.s, c.Strategy(), c.Layout(), c.Stride(), tt.s, tt.layout, tt.stride)
		}
	}
	if _, err := NewCodec(Strategy(42)); err == nil {
		t.Error("NewCodec(42) should fail")
	}
}

func roundTrip(c Codec, s Stereo) Stereo {
	raw := make([]byte, c.Stride())
	c.Encode(s, raw)
	out := make([]Stereo, 1)
	c.Decode(raw, out)
	return out[0]
}

func TestFloatCodecLossless(t *testing.T) {
	for _, st := range []Strategy{StrategyFloatSurface, StrategyStream} {
		c, _ := NewCodec(st)
		f := func(l, r float32) bool {
			in := Stereo{L: l, R: r}
			out := roundTrip(c, in)
			return math.Float32bits(out.L) == math.Float32bits(in.L) &&
				math.Float32bits(out.R) == math.Float32bits(in.R)
		}
		if err := quick.Check(f, nil); err != nil {
			t.Errorf("%v: %v", st, err)
		}
	}
}

func TestByteCodecQuantizationBound(t *testing.T) {
	c, _ := NewCodec(StrategyByteSurface)
	const tol = QuantizationStep + 1e-6
	f := func(a, b uint32) bool {
		// Map to [-1, 1].
		l := float32(float64(a)/math.MaxUint32*2 - 1)
		r := float32(float64(b)/math.MaxUint32*2 - 1)
		out := roundTrip(c, Stereo{L: l, R: r})
		return math.Abs(float64(out.L-l)) <= tol && math.Abs(float64(out.R-r)) <= tol
	}
	if err := quick.Check(f, &quick.Config{MaxCount: 5000}); err != nil {
		t.Error(err)
	}
}

func TestByteCodecLayout(t *testing.T) {
	c, _ := NewCodec(StrategyByteSurface)
	raw := make([]byte, 4)

	// -1 quantizes to 0, +1 to 65535: (L.lo, L.hi, R.lo, R.hi).
	c.Encode(Stereo{L: -1, R: 1}, raw)
	if raw[0] != 0 || raw[1] != 0 || raw[2] != 0xFF || raw[3] != 0xFF {
		t.Errorf("Encode(-1, 1) = %v, want [0 0 255 255]", raw)
	}

	// 0 quantizes to 32768 = 0x8000.
	c.Encode(Stereo{L: 0, R: 0}, raw)
	if raw[0] != 0x00 || raw[1] != 0x80 {
		t.Errorf("Encode(0).L = [%#x %#x], want [0x00 0x80]", raw[0], raw[1])
	}

	out := roundTrip(c, Stereo{L: -1, R: 1})
	if out.L != -1 || out.R != 1 {
		t.Errorf("extremes round trip to %v, want {-1 1}", out)
	}
}

func TestByteCodecClamps(t *testing.T) {
	c, _ := NewCodec(StrategyByteSurface)
	tests := []struct {
		in, want float32
	}{
		{2, 1},
		{-3, -1},
		{float32(math.Inf(1)), 1},
		{float32(math.Inf(-1)), -1},
	}
	for _, tt := range tests {
		out := roundTrip(c, Stereo{L: tt.in, R: tt.in})
		if out.L != tt.want || out.R != tt.want {
			t.Errorf("round trip of %v = %v, want %v", tt.in, out, tt.want)
		}
	}
	nan := roundTrip(c, Stereo{L: float32(math.NaN())})
	if math.Abs(float64(nan.L)) > QuantizationStep {
		t.Errorf("NaN round trip = %v, want ~0", nan.L)
	}
}
