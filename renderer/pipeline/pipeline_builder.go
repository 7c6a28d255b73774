package pipeline

import "github.com/cogentcore/webgpu/wgpu"

// ComputePipelineBuilderOption is a functional option used to configure a ComputePipeline during construction.
type ComputePipelineBuilderOption func(*computePipeline)

// WithBindGroupLayouts sets the bind group layouts the pipeline layout is built from.
// The layouts remain owned by their creators and are not released with the pipeline.
//
// Parameters:
//   - layouts: the bind group layouts, in group index order
//
// Returns:
//   - ComputePipelineBuilderOption: a function that sets the bind group layouts for this pipeline
func WithBindGroupLayouts(layouts ...*wgpu.BindGroupLayout) ComputePipelineBuilderOption {
	return func(p *computePipeline) {
		p.bindGroupLayouts = layouts
	}
}

// WithLabel sets the debug label attached to the GPU pipeline objects.
//
// Parameters:
//   - label: the debug label text
//
// Returns:
//   - ComputePipelineBuilderOption: a function that sets the label for this pipeline
func WithLabel(label string) ComputePipelineBuilderOption {
	return func(p *computePipeline) {
		p.label = label
	}
}
