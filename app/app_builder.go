package app

import "github.com/mipforge/mipforge/device"

// AppBuilderOption is a functional option applied to an app during construction via New.
type AppBuilderOption func(*app)

// WithTitle sets the window title.
//
// Parameters:
//   - title: the window title text
//
// Returns:
//   - AppBuilderOption: option function to apply
func WithTitle(title string) AppBuilderOption {
	return func(a *app) {
		a.title = title
	}
}

// WithWindowSize sets the initial window dimensions.
//
// Parameters:
//   - width: initial width in pixels
//   - height: initial height in pixels
//
// Returns:
//   - AppBuilderOption: option function to apply
func WithWindowSize(width, height int) AppBuilderOption {
	return func(a *app) {
		if width > 0 {
			a.width = width
		}
		if height > 0 {
			a.height = height
		}
	}
}

// WithImagePath sets the input image file to build the mip chain from.
// PNG, JPEG, BMP, TIFF, and WebP are supported. When empty, a procedural
// 256x256 test pattern is used.
//
// Parameters:
//   - path: the input image file path
//
// Returns:
//   - AppBuilderOption: option function to apply
func WithImagePath(path string) AppBuilderOption {
	return func(a *app) {
		a.imagePath = path
	}
}

// WithOutputPath sets the output path prefix for saved mip levels. Level N
// is written to <path>.mip<N>.png.
//
// Parameters:
//   - path: the output path prefix (default "output")
//
// Returns:
//   - AppBuilderOption: option function to apply
func WithOutputPath(path string) AppBuilderOption {
	return func(a *app) {
		if path != "" {
			a.outputPath = path
		}
	}
}

// WithShaderPath sets the WGSL file holding the downsample compute shader.
//
// Parameters:
//   - path: the shader file path (default "resources/compute-shader.wgsl")
//
// Returns:
//   - AppBuilderOption: option function to apply
func WithShaderPath(path string) AppBuilderOption {
	return func(a *app) {
		if path != "" {
			a.shaderPath = path
		}
	}
}

// WithForceSoftwareRenderer forces the CPU fallback adapter instead of
// hardware GPU acceleration. Requires a software Vulkan ICD to be installed
// (e.g. SwiftShader or lavapipe).
//
// Parameters:
//   - force: true to force the software adapter
//
// Returns:
//   - AppBuilderOption: option function to apply
func WithForceSoftwareRenderer(force bool) AppBuilderOption {
	return func(a *app) {
		a.forceSoftware = force
	}
}

// WithPresentMode sets the surface present mode.
//
// Parameters:
//   - mode: device.PresentModeVSync or device.PresentModeUncapped
//
// Returns:
//   - AppBuilderOption: option function to apply
func WithPresentMode(mode device.PresentMode) AppBuilderOption {
	return func(a *app) {
		a.presentMode = mode
	}
}

// WithProfiling enables periodic FPS, heap, and compute pass logging.
//
// Parameters:
//   - enabled: true to enable the profiler
//
// Returns:
//   - AppBuilderOption: option function to apply
func WithProfiling(enabled bool) AppBuilderOption {
	return func(a *app) {
		a.profile = enabled
	}
}
