package pipeline

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/mipforge/mipforge/renderer/shader"
)

// computePipeline is the implementation of the ComputePipeline interface.
type computePipeline struct {
	// key is the unique identifier for this pipeline, used for caching and lookups
	key string
	// computeShader is the parsed WGSL shader driving this pipeline
	computeShader shader.Shader

	pipeline *wgpu.ComputePipeline
	layout   *wgpu.PipelineLayout
	module   *wgpu.ShaderModule

	// bindGroupLayouts are the externally owned layouts the pipeline layout is built from
	bindGroupLayouts []*wgpu.BindGroupLayout
	label            string
}

// ComputePipeline wraps a compiled WebGPU compute pipeline together with the
// shader metadata needed at dispatch time. The bind group layouts passed at
// construction remain owned by their creators; the pipeline owns its shader
// module, pipeline layout, and pipeline objects.
type ComputePipeline interface {
	// Key returns the unique key associated with this pipeline, used for caching and lookups.
	//
	// Returns:
	//   - string: the unique key for this pipeline
	Key() string

	// Handle returns the underlying WebGPU compute pipeline.
	//
	// Returns:
	//   - *wgpu.ComputePipeline: the compiled pipeline
	Handle() *wgpu.ComputePipeline

	// WorkgroupSize returns the workgroup dimensions parsed from the shader's
	// @workgroup_size annotation, used to size dispatch grids.
	//
	// Returns:
	//   - [3]uint32: the workgroup size as [x, y, z]
	WorkgroupSize() [3]uint32

	// Release frees the pipeline, pipeline layout, and shader module. The
	// externally provided bind group layouts are not released.
	Release()
}

var _ ComputePipeline = &computePipeline{}

// NewComputePipeline compiles the given compute shader into a WebGPU compute
// pipeline with an explicit pipeline layout built from the provided bind group
// layouts.
//
// Parameters:
//   - device: the logical device to compile on
//   - key: the unique key for this pipeline
//   - computeShader: the parsed compute shader (must be shader.ShaderTypeCompute)
//   - opts: a variadic list of ComputePipelineBuilderOption functions to configure the pipeline
//
// Returns:
//   - ComputePipeline: the compiled pipeline
//   - error: error if the shader type is wrong or any GPU object creation fails
func NewComputePipeline(device *wgpu.Device, key string, computeShader shader.Shader, opts ...ComputePipelineBuilderOption) (ComputePipeline, error) {
	if computeShader == nil || computeShader.ShaderType() != shader.ShaderTypeCompute {
		return nil, fmt.Errorf("pipeline %s: a compute shader is required", key)
	}

	p := &computePipeline{
		key:           key,
		computeShader: computeShader,
		label:         key,
	}
	for _, opt := range opts {
		opt(p)
	}

	module, err := device.CreateShaderModule(computeShader.Module())
	if err != nil {
		return nil, fmt.Errorf("pipeline %s: failed to create shader module: %v", key, err)
	}
	p.module = module

	layout, err := device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            p.label,
		BindGroupLayouts: p.bindGroupLayouts,
	})
	if err != nil {
		p.Release()
		return nil, fmt.Errorf("pipeline %s: failed to create pipeline layout: %v", key, err)
	}
	p.layout = layout

	pipe, err := device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:  p.label,
		Layout: layout,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     module,
			EntryPoint: computeShader.EntryPoint(),
		},
	})
	if err != nil {
		p.Release()
		return nil, fmt.Errorf("pipeline %s: failed to create compute pipeline: %v", key, err)
	}
	p.pipeline = pipe

	return p, nil
}

func (p *computePipeline) Key() string {
	return p.key
}

func (p *computePipeline) Handle() *wgpu.ComputePipeline {
	return p.pipeline
}

func (p *computePipeline) WorkgroupSize() [3]uint32 {
	return p.computeShader.WorkgroupSize()
}

func (p *computePipeline) Release() {
	if p.pipeline != nil {
		p.pipeline.Release()
		p.pipeline = nil
	}
	if p.layout != nil {
		p.layout.Release()
		p.layout = nil
	}
	if p.module != nil {
		p.module.Release()
		p.module = nil
	}
}
