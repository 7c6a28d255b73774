package mipchain

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// mipChain is the implementation of the MipChain interface.
// It owns the GPU texture holding the full mip pyramid and one
// single-level view per mip level.
type mipChain struct {
	texture *wgpu.Texture
	views   []*wgpu.TextureView
	width   uint32
	height  uint32
	levels  uint32
}

// MipChain owns an RGBA8 texture allocated with a full mip pyramid and a
// single-level view for each level. Level 0 holds the source image; the
// remaining levels are filled by the downsample compute pass. The texture
// carries sampled, storage, and copy usages so every level can be read in
// the shader, written by the shader, and copied out for export.
type MipChain interface {
	// Texture returns the underlying GPU texture holding all mip levels.
	//
	// Returns:
	//   - *wgpu.Texture: the mip pyramid texture
	Texture() *wgpu.Texture

	// View returns the single-level texture view for the given mip level.
	// Views are created once at construction and owned by the chain.
	//
	// Parameters:
	//   - level: the mip level index (0 is the base level)
	//
	// Returns:
	//   - *wgpu.TextureView: the view restricted to that level, or nil if out of range
	View(level uint32) *wgpu.TextureView

	// Levels returns the number of mip levels in the chain.
	//
	// Returns:
	//   - uint32: the mip level count
	Levels() uint32

	// Width returns the base level width in pixels.
	//
	// Returns:
	//   - uint32: base width
	Width() uint32

	// Height returns the base level height in pixels.
	//
	// Returns:
	//   - uint32: base height
	Height() uint32

	// Release frees all level views and the texture. The chain must not be
	// used afterwards.
	Release()
}

var _ MipChain = &mipChain{}

// New allocates the mip pyramid texture for an RGBA source image, uploads
// the pixels into level 0, and creates one single-level view per level.
//
// Parameters:
//   - device: the logical device to allocate on
//   - queue: the queue used to upload the base level pixels
//   - pixels: tightly packed RGBA pixel data for the base level (4 bytes per pixel)
//   - width: the base level width in pixels
//   - height: the base level height in pixels
//
// Returns:
//   - MipChain: the allocated chain with level 0 populated
//   - error: error if the dimensions are invalid or the pixel data has the wrong size
func New(device *wgpu.Device, queue *wgpu.Queue, pixels []byte, width, height uint32) (MipChain, error) {
	levels := LevelCount(width, height)
	if levels == 0 {
		return nil, fmt.Errorf("mipchain: invalid base extent %dx%d", width, height)
	}
	if expected := int(4 * width * height); len(pixels) != expected {
		return nil, fmt.Errorf("mipchain: pixel data is %d bytes, want %d for %dx%d RGBA", len(pixels), expected, width, height)
	}

	texture, err := device.CreateTexture(&wgpu.TextureDescriptor{
		Label:     "mip chain",
		Dimension: wgpu.TextureDimension2D,
		Size: wgpu.Extent3D{
			Width:              width,
			Height:             height,
			DepthOrArrayLayers: 1,
		},
		Format:        wgpu.TextureFormatRGBA8Unorm,
		MipLevelCount: levels,
		SampleCount:   1,
		Usage: wgpu.TextureUsageTextureBinding |
			wgpu.TextureUsageStorageBinding |
			wgpu.TextureUsageCopyDst |
			wgpu.TextureUsageCopySrc,
	})
	if err != nil {
		return nil, fmt.Errorf("mipchain: failed to create texture: %v", err)
	}

	queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  texture,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{X: 0, Y: 0, Z: 0},
			Aspect:   wgpu.TextureAspectAll,
		},
		pixels,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  4 * width,
			RowsPerImage: height,
		},
		&wgpu.Extent3D{
			Width:              width,
			Height:             height,
			DepthOrArrayLayers: 1,
		},
	)

	views := make([]*wgpu.TextureView, levels)
	for level := uint32(0); level < levels; level++ {
		view, err := texture.CreateView(&wgpu.TextureViewDescriptor{
			Label:           fmt.Sprintf("mip level %d", level),
			Format:          wgpu.TextureFormatRGBA8Unorm,
			Dimension:       wgpu.TextureViewDimension2D,
			BaseMipLevel:    level,
			MipLevelCount:   1,
			BaseArrayLayer:  0,
			ArrayLayerCount: 1,
			Aspect:          wgpu.TextureAspectAll,
		})
		if err != nil {
			for _, v := range views[:level] {
				v.Release()
			}
			texture.Release()
			return nil, fmt.Errorf("mipchain: failed to create view for level %d: %v", level, err)
		}
		views[level] = view
	}

	return &mipChain{
		texture: texture,
		views:   views,
		width:   width,
		height:  height,
		levels:  levels,
	}, nil
}

func (m *mipChain) Texture() *wgpu.Texture {
	return m.texture
}

func (m *mipChain) View(level uint32) *wgpu.TextureView {
	if level >= m.levels {
		return nil
	}
	return m.views[level]
}

func (m *mipChain) Levels() uint32 {
	return m.levels
}

func (m *mipChain) Width() uint32 {
	return m.width
}

func (m *mipChain) Height() uint32 {
	return m.height
}

func (m *mipChain) Release() {
	for _, view := range m.views {
		view.Release()
	}
	m.views = nil
	if m.texture != nil {
		m.texture.Release()
		m.texture = nil
	}
}
