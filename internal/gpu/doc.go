// Package gpu implements the wgpu compute surface for gpuwave.
//
// Kernels are WGSL: the sound's main_sound fragment followed by one of three
// entry points (float surface, byte surface, stream). They are compiled to
// SPIR-V with naga at Bind time, so a malformed sound fails before any
// dispatch. Output goes to storage buffers, which are copied to a MapRead
// staging buffer and read back after each block.
//
// Most users enable this backend through github.com/gogpu/gpuwave/gpu.
package gpu
