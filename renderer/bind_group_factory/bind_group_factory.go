package bind_group_factory

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// bindGroupFactory is the unexported implementation of BindGroupFactory.
type bindGroupFactory struct {
	device *wgpu.Device
	layout *wgpu.BindGroupLayout
}

// BindGroupFactory owns the fixed two-binding layout of the downsample pass
// and builds the transient bind groups that walk the mip chain. Each level
// transition reads one level (binding 0, sampled float 2D) and writes the
// next (binding 1, write-only RGBA8 storage), so the layout never changes
// while the bound views change every transition.
type BindGroupFactory interface {
	// Layout returns the shared bind group layout for the downsample pass.
	// The factory owns the layout; callers must not release it.
	//
	// Returns:
	//   - *wgpu.BindGroupLayout: the two-binding compute layout
	Layout() *wgpu.BindGroupLayout

	// Build creates a bind group binding readView as the sampled source level
	// and writeView as the storage destination level. The caller owns the
	// returned bind group and releases it once the pass that used it is encoded.
	//
	// Parameters:
	//   - readView: single-level view of the source mip level
	//   - writeView: single-level view of the destination mip level
	//
	// Returns:
	//   - *wgpu.BindGroup: the bind group for one level transition
	//   - error: error if bind group creation fails
	Build(readView, writeView *wgpu.TextureView) (*wgpu.BindGroup, error)

	// Release frees the shared layout. The factory must not be used afterwards.
	Release()
}

var _ BindGroupFactory = &bindGroupFactory{}

// New creates the bind group factory and its shared layout on the given device.
//
// Parameters:
//   - device: the logical device to allocate the layout on
//
// Returns:
//   - BindGroupFactory: the factory holding the shared layout
//   - error: error if layout creation fails
func New(device *wgpu.Device) (BindGroupFactory, error) {
	layout, err := device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "downsample bind group layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageCompute,
				Texture: wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleTypeFloat,
					ViewDimension: wgpu.TextureViewDimension2D,
				},
			},
			{
				Binding:    1,
				Visibility: wgpu.ShaderStageCompute,
				StorageTexture: wgpu.StorageTextureBindingLayout{
					Access:        wgpu.StorageTextureAccessWriteOnly,
					Format:        wgpu.TextureFormatRGBA8Unorm,
					ViewDimension: wgpu.TextureViewDimension2D,
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("bind group factory: failed to create layout: %v", err)
	}

	return &bindGroupFactory{
		device: device,
		layout: layout,
	}, nil
}

func (f *bindGroupFactory) Layout() *wgpu.BindGroupLayout {
	return f.layout
}

func (f *bindGroupFactory) Build(readView, writeView *wgpu.TextureView) (*wgpu.BindGroup, error) {
	if readView == nil || writeView == nil {
		return nil, fmt.Errorf("bind group factory: both level views must be non-nil")
	}
	bindGroup, err := f.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "downsample bind group",
		Layout: f.layout,
		Entries: []wgpu.BindGroupEntry{
			{
				Binding:     0,
				TextureView: readView,
			},
			{
				Binding:     1,
				TextureView: writeView,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("bind group factory: failed to create bind group: %v", err)
	}
	return bindGroup, nil
}

func (f *bindGroupFactory) Release() {
	if f.layout != nil {
		f.layout.Release()
		f.layout = nil
	}
}
