//go:build !nogpu

// Package gpu registers the wgpu compute surface for gpuwave renders.
//
// Import this package to render on the GPU. Each block is one compute
// dispatch over the grid; the sound must implement gpuwave.ShaderSound so
// its WGSL can be built into the kernel.
//
// If GPU initialization fails (no Vulkan available), the registration is
// skipped with a warning and renders fall back to the software surface.
//
// Usage:
//
//	import _ "github.com/gogpu/gpuwave/gpu" // enable GPU synthesis
package gpu

import (
	"errors"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gpuwave"
	gpuimpl "github.com/gogpu/gpuwave/internal/gpu"
)

func init() {
	if err := gpuwave.RegisterSurface(gpuimpl.NewSurface()); err != nil {
		gpuwave.Logger().Warn("GPU surface not available", "err", err)
	}
}

// deviceProviderSetter is implemented by surfaces that can adopt a shared
// device.
type deviceProviderSetter interface {
	SetDeviceProvider(provider any) error
}

// SetDeviceProvider configures the GPU surface to use a shared GPU device
// from an external provider (e.g., gogpu) instead of opening its own.
//
// The provider must also expose HalDevice() and HalQueue() for direct HAL
// access. If no GPU surface is registered (initialization failed at import
// time), a new one is created on the provider's device and registered.
func SetDeviceProvider(provider gpucontext.DeviceProvider) error {
	if provider == nil {
		return errors.New("gpuwave/gpu: nil device provider")
	}
	if s, ok := gpuwave.RegisteredSurface().(deviceProviderSetter); ok {
		return s.SetDeviceProvider(provider)
	}
	s := gpuimpl.NewSurface()
	if err := s.SetDeviceProvider(provider); err != nil {
		return err
	}
	return gpuwave.RegisterSurface(s)
}
