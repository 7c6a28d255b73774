package mipchain

import "math/bits"

// LevelCount returns the number of mip levels in a full chain for a
// texture of the given dimensions. This is floor(log2(max(w, h))) + 1,
// so a 256x256 texture has 9 levels and a 1x1 texture has 1.
//
// Parameters:
//   - width: the base level width in pixels
//   - height: the base level height in pixels
//
// Returns:
//   - uint32: the full mip chain length, 0 if either dimension is 0
func LevelCount(width, height uint32) uint32 {
	if width == 0 || height == 0 {
		return 0
	}
	return uint32(bits.Len32(max(width, height)))
}

// LevelExtent returns the dimensions of the given mip level. Each level
// halves the previous one per dimension, clamping at 1 so non-square
// chains stay valid once the narrow dimension bottoms out.
//
// Parameters:
//   - width: the base level width in pixels
//   - height: the base level height in pixels
//   - level: the mip level index (0 is the base level)
//
// Returns:
//   - uint32: the level width in pixels
//   - uint32: the level height in pixels
func LevelExtent(width, height, level uint32) (uint32, uint32) {
	w := width >> level
	h := height >> level
	return max(w, 1), max(h, 1)
}

// WorkgroupCount returns the number of workgroups needed to cover extent
// pixels with workgroups of workgroupSize invocations per dimension,
// rounding up so partial edge tiles are still dispatched.
//
// Parameters:
//   - extent: the level extent in pixels along one dimension
//   - workgroupSize: the workgroup size along the same dimension
//
// Returns:
//   - uint32: the workgroup count, ceil(extent / workgroupSize)
func WorkgroupCount(extent, workgroupSize uint32) uint32 {
	if workgroupSize == 0 {
		return 0
	}
	return (extent + workgroupSize - 1) / workgroupSize
}
