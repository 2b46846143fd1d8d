//go:build !nogpu

package gpu

import (
	"context"
	"math"
	"testing"

	"github.com/gogpu/gpuwave"
)

// =============================================================================
// Hardware Integration Tests
// =============================================================================

// hwGrid is small enough that a short render spans several blocks.
var hwGrid = gpuwave.Grid{Width: 16, Height: 8}

// hwRequest is 300 samples on a 128-slot grid: two full blocks and a final
// block with 44 valid samples.
var hwRequest = gpuwave.RenderRequest{SampleRate: 1000, Duration: 0.3}

// hwTolerance absorbs differences between GPU and Go transcendentals.
const hwTolerance = 1e-3

var allStrategies = []gpuwave.Strategy{
	gpuwave.StrategyFloatSurface,
	gpuwave.StrategyByteSurface,
	gpuwave.StrategyStream,
}

func newHardwareSurface(t *testing.T) *Surface {
	t.Helper()
	s := NewSurface()
	if err := s.Init(); err != nil {
		t.Skipf("GPU not available: %v (expected in CI/test environments)", err)
	}
	t.Cleanup(s.Close)
	return s
}

func renderOn(t *testing.T, surf gpuwave.Surface, st gpuwave.Strategy) *gpuwave.Buffer {
	t.Helper()
	r := gpuwave.NewRenderer(
		gpuwave.WithSurface(surf),
		gpuwave.WithGrid(hwGrid),
		gpuwave.WithStrategy(st),
	)
	defer r.Close()
	buf, err := r.Render(context.Background(), hwRequest)
	skipOnNagaLimitation(t, err)
	if err != nil {
		t.Fatalf("Render(%s on %s): %v", st, surf.Name(), err)
	}
	return buf
}

// TestHardwareMatchesSoftware checks every GPU sample against the software
// surface and against the sound evaluated at i/R, which covers the kernel
// body, the row-major slot mapping and the block offsets.
func TestHardwareMatchesSoftware(t *testing.T) {
	gpuSurf := newHardwareSurface(t)
	cpuSurf := gpuwave.NewSoftwareSurface()
	defer cpuSurf.Close()

	beat := gpuwave.DefaultBeat()
	rate := float64(hwRequest.SampleRate)

	for _, st := range allStrategies {
		t.Run(st.String(), func(t *testing.T) {
			got := renderOn(t, gpuSurf, st)
			want := renderOn(t, cpuSurf, st)
			if got.Len() != hwRequest.Samples() || want.Len() != got.Len() {
				t.Fatalf("Len = %d (software %d), want %d", got.Len(), want.Len(), hwRequest.Samples())
			}

			tol := hwTolerance
			if st == gpuwave.StrategyByteSurface {
				tol += gpuwave.QuantizationStep
			}
			for i := range got.Left {
				exact := beat.Eval(float64(i) / rate)
				if d := math.Abs(float64(got.Left[i] - want.Left[i])); d > tol {
					t.Fatalf("sample %d: L = %v, software %v", i, got.Left[i], want.Left[i])
				}
				if d := math.Abs(float64(got.Right[i] - want.Right[i])); d > tol {
					t.Fatalf("sample %d: R = %v, software %v", i, got.Right[i], want.Right[i])
				}
				if d := math.Abs(float64(got.Left[i] - exact.L)); d > tol {
					t.Fatalf("sample %d: L = %v, sound %v", i, got.Left[i], exact.L)
				}
				if d := math.Abs(float64(got.Right[i] - exact.R)); d > tol {
					t.Fatalf("sample %d: R = %v, sound %v", i, got.Right[i], exact.R)
				}
			}
		})
	}
}

// TestHardwareStrategiesAgree checks the readback strategies against each
// other on the same device.
func TestHardwareStrategiesAgree(t *testing.T) {
	s := newHardwareSurface(t)

	float := renderOn(t, s, gpuwave.StrategyFloatSurface)
	stream := renderOn(t, s, gpuwave.StrategyStream)
	bytes := renderOn(t, s, gpuwave.StrategyByteSurface)

	const tol = gpuwave.QuantizationStep + 1e-6
	for i := range float.Left {
		if math.Float32bits(float.Left[i]) != math.Float32bits(stream.Left[i]) ||
			math.Float32bits(float.Right[i]) != math.Float32bits(stream.Right[i]) {
			t.Fatalf("sample %d: float (%v, %v) != stream (%v, %v)",
				i, float.Left[i], float.Right[i], stream.Left[i], stream.Right[i])
		}
		if math.Abs(float64(bytes.Left[i]-float.Left[i])) > tol ||
			math.Abs(float64(bytes.Right[i]-float.Right[i])) > tol {
			t.Fatalf("sample %d: byte (%v, %v) off float (%v, %v) by more than %v",
				i, bytes.Left[i], bytes.Right[i], float.Left[i], float.Right[i], tol)
		}
	}
}
