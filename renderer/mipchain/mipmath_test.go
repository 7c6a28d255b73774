package mipchain

import "testing"

func TestLevelCount(t *testing.T) {
	tests := []struct {
		name   string
		width  uint32
		height uint32
		want   uint32
	}{
		{name: "256 square", width: 256, height: 256, want: 9},
		{name: "512 square", width: 512, height: 512, want: 10},
		{name: "1x1", width: 1, height: 1, want: 1},
		{name: "2x2", width: 2, height: 2, want: 2},
		{name: "non power of two", width: 640, height: 480, want: 10},
		{name: "wide rectangle uses larger dimension", width: 1024, height: 4, want: 11},
		{name: "tall rectangle uses larger dimension", width: 4, height: 1024, want: 11},
		{name: "zero width", width: 0, height: 256, want: 0},
		{name: "zero height", width: 256, height: 0, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LevelCount(tt.width, tt.height)
			if got != tt.want {
				t.Errorf("LevelCount(%d, %d) = %d, want %d", tt.width, tt.height, got, tt.want)
			}
		})
	}
}

func TestLevelExtent(t *testing.T) {
	tests := []struct {
		name       string
		width      uint32
		height     uint32
		level      uint32
		wantWidth  uint32
		wantHeight uint32
	}{
		{name: "level 0 is base", width: 256, height: 256, level: 0, wantWidth: 256, wantHeight: 256},
		{name: "level 1 halves", width: 256, height: 256, level: 1, wantWidth: 128, wantHeight: 128},
		{name: "last level of square chain", width: 256, height: 256, level: 8, wantWidth: 1, wantHeight: 1},
		{name: "narrow dimension clamps at 1", width: 1024, height: 4, level: 4, wantWidth: 64, wantHeight: 1},
		{name: "non power of two floors", width: 640, height: 480, level: 1, wantWidth: 320, wantHeight: 240},
		{name: "odd extent floors", width: 5, height: 5, level: 1, wantWidth: 2, wantHeight: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := LevelExtent(tt.width, tt.height, tt.level)
			if w != tt.wantWidth || h != tt.wantHeight {
				t.Errorf("LevelExtent(%d, %d, %d) = (%d, %d), want (%d, %d)",
					tt.width, tt.height, tt.level, w, h, tt.wantWidth, tt.wantHeight)
			}
		})
	}
}

// Halving must hold exactly between consecutive levels across the whole chain.
func TestLevelExtentHalvingInvariant(t *testing.T) {
	const width, height = 640, 480
	levels := LevelCount(width, height)
	for level := uint32(1); level < levels; level++ {
		prevW, prevH := LevelExtent(width, height, level-1)
		w, h := LevelExtent(width, height, level)
		if w != max(prevW/2, 1) || h != max(prevH/2, 1) {
			t.Errorf("level %d extent (%d, %d) does not halve level %d extent (%d, %d)",
				level, w, h, level-1, prevW, prevH)
		}
	}
}

func TestWorkgroupCount(t *testing.T) {
	tests := []struct {
		name          string
		extent        uint32
		workgroupSize uint32
		want          uint32
	}{
		{name: "exact multiple", extent: 256, workgroupSize: 8, want: 32},
		{name: "partial tile rounds up", extent: 255, workgroupSize: 8, want: 32},
		{name: "one pixel", extent: 1, workgroupSize: 8, want: 1},
		{name: "smaller than workgroup", extent: 7, workgroupSize: 8, want: 1},
		{name: "zero workgroup size", extent: 256, workgroupSize: 0, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WorkgroupCount(tt.extent, tt.workgroupSize)
			if got != tt.want {
				t.Errorf("WorkgroupCount(%d, %d) = %d, want %d", tt.extent, tt.workgroupSize, got, tt.want)
			}
		})
	}
}

// A 256x256 chain drives 8 dispatches (levels 1 through 8), with level 1
// covered by 16x16 workgroups.
func TestChainDispatchShape(t *testing.T) {
	const width, height = 256, 256
	levels := LevelCount(width, height)
	if levels != 9 {
		t.Fatalf("LevelCount(256, 256) = %d, want 9", levels)
	}

	dispatches := 0
	for level := uint32(1); level < levels; level++ {
		w, h := LevelExtent(width, height, level)
		x := WorkgroupCount(w, 8)
		y := WorkgroupCount(h, 8)
		if level == 1 && (x != 16 || y != 16) {
			t.Errorf("level 1 workgroup grid = (%d, %d), want (16, 16)", x, y)
		}
		if x == 0 || y == 0 {
			t.Errorf("level %d produced an empty dispatch grid", level)
		}
		dispatches++
	}
	if dispatches != 8 {
		t.Errorf("chain produced %d dispatches, want 8", dispatches)
	}
}
