package device

import "github.com/cogentcore/webgpu/wgpu"

// DeviceBuilderOption is a functional option applied to a device context during construction via New.
type DeviceBuilderOption func(*deviceContext)

// WithForceFallbackAdapter forces WGPU to use a CPU/software fallback adapter instead of
// hardware GPU acceleration. This requires a software Vulkan ICD to be installed on the
// system (e.g. SwiftShader or lavapipe).
//
// Parameters:
//   - force: true to force the software fallback adapter, false to use hardware (default)
//
// Returns:
//   - DeviceBuilderOption: option function to apply
func WithForceFallbackAdapter(force bool) DeviceBuilderOption {
	return func(d *deviceContext) {
		d.forceFallbackAdapter = force
	}
}

// WithPresentMode sets the surface present mode which controls how frames are delivered
// to the display.
//
// Parameters:
//   - mode: the PresentMode to use (VSync or Uncapped)
//
// Returns:
//   - DeviceBuilderOption: option function to apply
func WithPresentMode(mode PresentMode) DeviceBuilderOption {
	return func(d *deviceContext) {
		switch mode {
		case PresentModeUncapped:
			d.presentMode = wgpu.PresentModeImmediate
		default:
			d.presentMode = wgpu.PresentModeFifo
		}
	}
}

// WithMaxTextureDimension sets the 2D texture dimension cap requested from the adapter.
// Input images larger than this in either dimension will fail texture creation.
//
// Parameters:
//   - dim: the maximum texture dimension in pixels (default 4096)
//
// Returns:
//   - DeviceBuilderOption: option function to apply
func WithMaxTextureDimension(dim uint32) DeviceBuilderOption {
	return func(d *deviceContext) {
		if dim > 0 {
			d.maxTextureDimension = dim
		}
	}
}

// WithLabel sets the debug label attached to the logical device.
//
// Parameters:
//   - label: the debug label text
//
// Returns:
//   - DeviceBuilderOption: option function to apply
func WithLabel(label string) DeviceBuilderOption {
	return func(d *deviceContext) {
		d.label = label
	}
}
