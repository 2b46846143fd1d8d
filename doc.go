// Package gpuwave renders fixed-duration stereo waveforms offline by
// evaluating a procedural sound function in parallel on a compute surface,
// one block of invocations at a time.
//
// # Overview
//
// A render of D seconds at R samples per second needs T = round(R*D)
// samples. The compute surface evaluates a fixed grid of N = Width*Height
// independent invocations per dispatch, so the render is split into
// ceil(T/N) blocks. Block i is dispatched with the time offset i*N/R, and
// invocation k of that block computes the sample at time i*N/R + k/R. The
// results are read back, decoded and written to the output buffer at sample
// i*N + k; the surplus invocations of a partial final block are dropped.
//
// # Quick Start
//
//	import "github.com/gogpu/gpuwave"
//
//	// Three minutes of the reference beat at 48 kHz.
//	left, right, err := gpuwave.Render(48000, 180)
//
// # Surfaces
//
// Surfaces are the compute backends:
//
//   - [SoftwareSurface]: CPU worker pool. Always available and the default.
//   - GPU surface: wgpu compute shaders. Enable with a blank import:
//
//     import _ "github.com/gogpu/gpuwave/gpu"
//
// If the GPU cannot be initialized the import registers nothing and renders
// stay on the CPU. Once a render has started, backend errors are fatal.
//
// # Readback Strategies
//
// Three [Strategy] values trade precision against backend requirements:
//
//   - [StrategyFloatSurface]: float32 pair per grid cell, lossless.
//   - [StrategyByteSurface]: 16-bit fixed point per channel packed into a
//     4x8-bit cell; within [QuantizationStep] of the float result.
//   - [StrategyStream]: float32 pairs captured into a linear buffer, lossless
//     and bit-identical to the float surface.
//
// A renderer never substitutes one strategy for another.
//
// # Sounds
//
// A [Sound] must be pure: invocations run concurrently and in any order. GPU
// surfaces additionally need a [ShaderSound] that provides WGSL. The
// reference [BeatSound] implements both.
package gpuwave
