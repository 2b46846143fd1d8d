//go:build !nogpu

package main

import _ "github.com/gogpu/gpuwave/gpu" // register the wgpu surface
