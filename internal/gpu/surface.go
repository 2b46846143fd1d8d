//go:build !nogpu

package gpu

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gogpu/gpuwave"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// fenceTimeout bounds the wait for one block dispatch.
const fenceTimeout = 10 * time.Second

// Surface is a gpuwave.Surface backed by wgpu/hal compute shaders.
//
// The sound's WGSL is combined with a per-strategy entry point, compiled to
// SPIR-V with naga and dispatched over storage buffers: a row-major
// vec2<f32> grid for the float surface, packed 4x8-bit cells for the byte
// surface and a linear vec2<f32> stream for the stream strategy. Each block
// is copied into a MapRead staging buffer and read back after a fence wait.
//
// Close and SetDeviceProvider wait for in-flight dispatches, then release
// every live binding before the device goes away. Those bindings report
// gpuwave.ErrSurfaceClosed afterwards.
type Surface struct {
	// dispatchMu is held for reading by Dispatch and for writing by
	// anything that creates or destroys bindings. Acquired before mu.
	dispatchMu sync.RWMutex
	bindings   map[*binding]struct{}

	mu sync.Mutex

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue

	adapterName    string
	gpuReady       bool
	externalDevice bool // true when using a shared device (don't destroy on Close)
}

var _ gpuwave.Surface = (*Surface)(nil)

// NewSurface returns a surface that opens its own Vulkan device on Init.
func NewSurface() *Surface {
	return &Surface{}
}

// NewSurfaceWithDevice returns a ready surface on an existing device and
// queue. The surface does not destroy them on Close.
func NewSurfaceWithDevice(device hal.Device, queue hal.Queue) *Surface {
	return &Surface{
		device:         device,
		queue:          queue,
		adapterName:    "external",
		gpuReady:       device != nil && queue != nil,
		externalDevice: true,
	}
}

// Name returns "wgpu".
func (s *Surface) Name() string { return "wgpu" }

// AdapterName returns the name of the selected GPU adapter.
func (s *Surface) AdapterName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.adapterName
}

// SetLogger sets the logger for the GPU backend.
func (s *Surface) SetLogger(l *slog.Logger) {
	setLogger(l)
}

// Init opens a Vulkan device unless the surface already has one.
func (s *Surface) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gpuReady {
		return nil
	}
	if err := s.initGPU(); err != nil {
		s.releaseDevice()
		return fmt.Errorf("%w: %w", gpuwave.ErrBackendUnavailable, err)
	}
	return nil
}

// Close releases every live binding, then the device unless it is shared.
func (s *Surface) Close() {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()
	s.releaseBindings()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.releaseDevice()
}

// releaseBindings destroys the resources of every live binding.
// dispatchMu must be held for writing.
func (s *Surface) releaseBindings() {
	for b := range s.bindings {
		b.release()
	}
	clear(s.bindings)
}

func (s *Surface) releaseDevice() {
	if !s.externalDevice {
		if s.device != nil {
			s.device.Destroy()
		}
		if s.instance != nil {
			s.instance.Destroy()
		}
	}
	s.device = nil
	s.queue = nil
	s.instance = nil
	s.gpuReady = false
	s.externalDevice = false
}

// SetDeviceProvider switches the surface to a shared GPU device from an
// external provider. The provider must implement HalDevice() any and
// HalQueue() any returning hal.Device and hal.Queue.
func (s *Surface) SetDeviceProvider(provider any) error {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return fmt.Errorf("gpu-wave: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return fmt.Errorf("gpu-wave: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return fmt.Errorf("gpu-wave: provider HalQueue is not hal.Queue")
	}

	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()
	s.releaseBindings()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.releaseDevice()
	s.device = device
	s.queue = queue
	s.adapterName = "shared"
	s.externalDevice = true
	s.gpuReady = true
	slogger().Info("gpu-wave: switched to shared GPU device")
	return nil
}

// Supports reports true for every strategy: all three are storage-buffer
// kernels on this backend.
func (s *Surface) Supports(st gpuwave.Strategy) bool {
	switch st {
	case gpuwave.StrategyFloatSurface, gpuwave.StrategyByteSurface, gpuwave.StrategyStream:
		return true
	}
	return false
}

// Bind builds the kernel for sound and allocates the block's buffers.
func (s *Surface) Bind(sound gpuwave.Sound, grid gpuwave.Grid, codec gpuwave.Codec) (gpuwave.Binding, error) {
	shaderSound, ok := sound.(gpuwave.ShaderSound)
	if !ok {
		return nil, fmt.Errorf("%w: %T has no WGSL", gpuwave.ErrKernelUnsupported, sound)
	}
	if err := grid.Validate(); err != nil {
		return nil, err
	}
	wgX, wgY, err := workgroups(grid, codec.Layout())
	if err != nil {
		return nil, err
	}
	source, err := kernelSource(shaderSound, codec.Strategy())
	if err != nil {
		return nil, err
	}
	spirv, err := compileKernel(source)
	if err != nil {
		return nil, err
	}

	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.gpuReady {
		return nil, fmt.Errorf("%w: surface not initialized", gpuwave.ErrBackendUnavailable)
	}

	b := &binding{
		device: s.device,
		queue:  s.queue,
		grid:   grid,
		codec:  codec,
		size:   uint64(grid.Capacity()) * uint64(codec.Stride()), //nolint:gosec // capacity is positive
		wgX:    wgX,
		wgY:    wgY,
	}
	if err := b.createPipeline(spirv, codec.Strategy()); err != nil {
		b.release()
		return nil, fmt.Errorf("%w: %w", gpuwave.ErrKernelBuild, err)
	}
	if err := b.createBuffers(); err != nil {
		b.release()
		return nil, err
	}
	b.readback = make([]byte, b.size)
	b.surf = s
	if s.bindings == nil {
		s.bindings = make(map[*binding]struct{})
	}
	s.bindings[b] = struct{}{}

	slogger().Debug("gpu-wave: kernel bound",
		"grid", grid.String(),
		"strategy", codec.Strategy().String(),
		"workgroups", [2]uint32{wgX, wgY},
		"bytes", b.size)
	return b, nil
}

// initGPU creates a standalone Vulkan device for compute-only use.
func (s *Surface) initGPU() error {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return fmt.Errorf("vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return fmt.Errorf("create instance: %w", err)
	}
	s.instance = instance

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		return fmt.Errorf("no GPU adapters found")
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		return fmt.Errorf("open device: %w", err)
	}
	s.device = openDev.Device
	s.queue = openDev.Queue
	s.adapterName = selected.Info.Name
	s.gpuReady = true
	slogger().Info("gpu-wave: GPU initialized", "adapter", selected.Info.Name)
	return nil
}
