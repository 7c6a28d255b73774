package renderer

import "github.com/cogentcore/webgpu/wgpu"

// RendererBuilderOption is a functional option applied to a renderer during construction via New.
type RendererBuilderOption func(*renderer)

// WithClearColor sets the color the window is cleared to at the start of each frame.
//
// Parameters:
//   - color: the clear color with components in [0, 1]
//
// Returns:
//   - RendererBuilderOption: option function to apply
func WithClearColor(color wgpu.Color) RendererBuilderOption {
	return func(r *renderer) {
		r.clearColor = color
	}
}
