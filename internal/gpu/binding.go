// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package gpu

import (
	"fmt"

	"github.com/gogpu/gpuwave"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// binding is a compiled kernel plus the buffers one block needs. All
// buffers are allocated once per render and reused for every block.
type binding struct {
	surf   *Surface
	device hal.Device
	queue  hal.Queue

	shader     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.ComputePipeline

	params    hal.Buffer // uniform Params
	storage   hal.Buffer // kernel output
	staging   hal.Buffer // MapRead copy of storage
	bindGroup hal.BindGroup

	grid     gpuwave.Grid
	codec    gpuwave.Codec
	size     uint64
	wgX, wgY uint32
	readback []byte
}

func (b *binding) createPipeline(spirv []uint32, st gpuwave.Strategy) error {
	label := "wave_" + st.String()

	shader, err := b.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  label,
		Source: hal.ShaderSource{SPIRV: spirv},
	})
	if err != nil {
		return fmt.Errorf("create shader module: %w", err)
	}
	b.shader = shader

	bindLayout, err := b.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: label + "_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{Binding: 0, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}},
			{Binding: 1, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage}},
		},
	})
	if err != nil {
		return fmt.Errorf("create bind group layout: %w", err)
	}
	b.bindLayout = bindLayout

	pipeLayout, err := b.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label: label + "_pipe_layout", BindGroupLayouts: []hal.BindGroupLayout{b.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("create pipeline layout: %w", err)
	}
	b.pipeLayout = pipeLayout

	pipeline, err := b.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label: label + "_pipeline", Layout: b.pipeLayout,
		Compute: hal.ComputeState{Module: b.shader, EntryPoint: "main"},
	})
	if err != nil {
		return fmt.Errorf("create compute pipeline: %w", err)
	}
	b.pipeline = pipeline
	return nil
}

func (b *binding) createBuffers() error {
	var err error
	b.params, err = b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "wave_params", Size: paramsSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create params buffer: %w", err)
	}

	b.storage, err = b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "wave_surface", Size: b.size,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("create storage buffer: %w", err)
	}

	b.staging, err = b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "wave_staging", Size: b.size,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create staging buffer: %w", err)
	}

	b.bindGroup, err = b.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label: "wave_bind", Layout: b.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: b.params.NativeHandle(), Offset: 0, Size: paramsSize}},
			{Binding: 1, Resource: gputypes.BufferBinding{Buffer: b.storage.NativeHandle(), Offset: 0, Size: b.size}},
		},
	})
	if err != nil {
		return fmt.Errorf("create bind group: %w", err)
	}
	return nil
}

// Dispatch runs one block: upload uniforms, one compute pass over the grid,
// copy to staging, submit, wait on the fence and read back.
func (b *binding) Dispatch(u gpuwave.Uniforms) ([]byte, error) {
	if b.surf != nil {
		b.surf.dispatchMu.RLock()
		defer b.surf.dispatchMu.RUnlock()
	}
	if b.pipeline == nil || b.readback == nil {
		return nil, gpuwave.ErrSurfaceClosed
	}
	b.queue.WriteBuffer(b.params, 0, packParams(u, b.grid))

	encoder, err := b.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "wave_encoder"})
	if err != nil {
		return nil, fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("wave_block"); err != nil {
		return nil, fmt.Errorf("begin encoding: %w", err)
	}

	pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "wave_pass"})
	pass.SetPipeline(b.pipeline)
	pass.SetBindGroup(0, b.bindGroup, nil)
	pass.Dispatch(b.wgX, b.wgY, 1)
	pass.End()

	encoder.CopyBufferToBuffer(b.storage, b.staging, []hal.BufferCopy{
		{SrcOffset: 0, DstOffset: 0, Size: b.size},
	})
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("end encoding: %w", err)
	}
	defer b.device.FreeCommandBuffer(cmdBuf)

	fence, err := b.device.CreateFence()
	if err != nil {
		return nil, fmt.Errorf("create fence: %w", err)
	}
	defer b.device.DestroyFence(fence)

	if err := b.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return nil, fmt.Errorf("submit: %w", err)
	}
	ok, err := b.device.Wait(fence, 1, fenceTimeout)
	if err != nil {
		return nil, fmt.Errorf("wait for GPU: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("wait for GPU: timeout after %v", fenceTimeout)
	}

	if err := b.queue.ReadBuffer(b.staging, 0, b.readback); err != nil {
		return nil, fmt.Errorf("readback: %w", err)
	}
	return b.readback, nil
}

// Release destroys everything Bind created. Safe to call after the
// surface has been closed.
func (b *binding) Release() {
	s := b.surf
	if s == nil {
		b.release()
		return
	}
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()
	delete(s.bindings, b)
	b.release()
}

// release destroys the GPU resources in reverse creation order.
func (b *binding) release() {
	if b.device == nil {
		return
	}
	if b.bindGroup != nil {
		b.device.DestroyBindGroup(b.bindGroup)
	}
	for _, buf := range []hal.Buffer{b.staging, b.storage, b.params} {
		if buf != nil {
			b.device.DestroyBuffer(buf)
		}
	}
	if b.pipeline != nil {
		b.device.DestroyComputePipeline(b.pipeline)
	}
	if b.pipeLayout != nil {
		b.device.DestroyPipelineLayout(b.pipeLayout)
	}
	if b.bindLayout != nil {
		b.device.DestroyBindGroupLayout(b.bindLayout)
	}
	if b.shader != nil {
		b.device.DestroyShaderModule(b.shader)
	}
	*b = binding{surf: b.surf, grid: b.grid, codec: b.codec}
}
