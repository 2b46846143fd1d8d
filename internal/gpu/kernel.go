// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package gpu

import (
	_ "embed"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gpuwave"
	"github.com/gogpu/naga"
)

// Strategy entry points. Each one expects main_sound to be defined by the
// sound's WGSL fragment, which is prepended.

//go:embed shaders/float_surface.wgsl
var floatSurfaceWGSL string

//go:embed shaders/byte_surface.wgsl
var byteSurfaceWGSL string

//go:embed shaders/stream.wgsl
var streamWGSL string

const (
	// surfaceWorkgroup is the 2D workgroup edge of the surface kernels.
	surfaceWorkgroup = 8

	// streamWorkgroup is the 1D workgroup size of the stream kernel.
	streamWorkgroup = 64

	// maxWorkgroupsPerDim is the WebGPU default dispatch limit.
	maxWorkgroupsPerDim = 65535

	// paramsSize is the size of the Params uniform struct.
	paramsSize = 16
)

// kernelSource assembles the full WGSL module for sound and strategy.
func kernelSource(sound gpuwave.ShaderSound, st gpuwave.Strategy) (string, error) {
	var entry string
	switch st {
	case gpuwave.StrategyFloatSurface:
		entry = floatSurfaceWGSL
	case gpuwave.StrategyByteSurface:
		entry = byteSurfaceWGSL
	case gpuwave.StrategyStream:
		entry = streamWGSL
	default:
		return "", fmt.Errorf("%w: %s", gpuwave.ErrStrategyUnsupported, st)
	}
	return sound.WGSL() + "\n" + entry, nil
}

// compileKernel compiles WGSL to SPIR-V words. Any naga error is a kernel
// build failure.
func compileKernel(source string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", gpuwave.ErrKernelBuild, err)
	}
	if len(spirvBytes)%4 != 0 {
		return nil, fmt.Errorf("%w: SPIR-V length %d is not word aligned", gpuwave.ErrKernelBuild, len(spirvBytes))
	}

	// SPIR-V is a stream of little-endian 32-bit words.
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(spirvBytes[i*4:])
	}
	return words, nil
}

// workgroups returns the dispatch size covering grid for a layout.
func workgroups(grid gpuwave.Grid, layout gpuwave.Layout) (x, y uint32, err error) {
	switch layout {
	case gpuwave.LayoutLinear:
		x = uint32((grid.Capacity() + streamWorkgroup - 1) / streamWorkgroup) //nolint:gosec // validated below
		y = 1
	default:
		x = uint32((grid.Width + surfaceWorkgroup - 1) / surfaceWorkgroup)  //nolint:gosec // validated below
		y = uint32((grid.Height + surfaceWorkgroup - 1) / surfaceWorkgroup) //nolint:gosec // validated below
	}
	if x > maxWorkgroupsPerDim || y > maxWorkgroupsPerDim {
		return 0, 0, fmt.Errorf("%w: %s needs %dx%d workgroups (limit %d)",
			gpuwave.ErrInvalidGrid, grid, x, y, maxWorkgroupsPerDim)
	}
	return x, y, nil
}

// packParams encodes the Params uniform:
//
//	struct Params { sample_rate: f32, block_offset: f32, width: u32, count: u32 }
func packParams(u gpuwave.Uniforms, grid gpuwave.Grid) []byte {
	buf := make([]byte, paramsSize)
	binary.LittleEndian.PutUint32(buf[0:], math.Float32bits(float32(u.SampleRate)))
	binary.LittleEndian.PutUint32(buf[4:], math.Float32bits(float32(u.BlockOffset)))
	binary.LittleEndian.PutUint32(buf[8:], uint32(grid.Width))       //nolint:gosec // grid validated against dispatch limits
	binary.LittleEndian.PutUint32(buf[12:], uint32(grid.Capacity())) //nolint:gosec // grid validated against dispatch limits
	return buf
}
