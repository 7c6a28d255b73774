package exporter

import (
	"bytes"
	"testing"
)

func TestAlignedBytesPerRow(t *testing.T) {
	tests := []struct {
		name  string
		width uint32
		want  uint32
	}{
		{name: "exact alignment", width: 64, want: 256},
		{name: "wide row", width: 256, want: 1024},
		{name: "one pixel rounds up", width: 1, want: 256},
		{name: "just over boundary", width: 65, want: 512},
		{name: "odd width", width: 100, want: 512},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AlignedBytesPerRow(tt.width)
			if got != tt.want {
				t.Errorf("AlignedBytesPerRow(%d) = %d, want %d", tt.width, got, tt.want)
			}
			if got%256 != 0 {
				t.Errorf("AlignedBytesPerRow(%d) = %d, not 256 byte aligned", tt.width, got)
			}
			if got < tt.width*4 {
				t.Errorf("AlignedBytesPerRow(%d) = %d, smaller than the tight row", tt.width, got)
			}
		})
	}
}

func TestUnpackRows(t *testing.T) {
	const width, height = 3, 2
	bytesPerRow := AlignedBytesPerRow(width)

	// Two rows of distinct pixel bytes surrounded by padding that must not
	// survive the unpack.
	data := make([]byte, bytesPerRow*height)
	for i := range data {
		data[i] = 0xEE
	}
	row0 := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	row1 := []byte{21, 22, 23, 24, 25, 26, 27, 28, 29, 30, 31, 32}
	copy(data[0:], row0)
	copy(data[bytesPerRow:], row1)

	got := UnpackRows(data, width, height, bytesPerRow)
	want := append(append([]byte{}, row0...), row1...)

	if len(got) != 4*width*height {
		t.Fatalf("UnpackRows() returned %d bytes, want %d", len(got), 4*width*height)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("UnpackRows() = %v, want %v", got, want)
	}
}

func TestLevelPath(t *testing.T) {
	tests := []struct {
		name     string
		basePath string
		level    uint32
		want     string
	}{
		{name: "base level", basePath: "output", level: 0, want: "output.mip0.png"},
		{name: "deep level", basePath: "output", level: 8, want: "output.mip8.png"},
		{name: "path with directory", basePath: "out/dir/image", level: 3, want: "out/dir/image.mip3.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LevelPath(tt.basePath, tt.level)
			if got != tt.want {
				t.Errorf("LevelPath(%q, %d) = %q, want %q", tt.basePath, tt.level, got, tt.want)
			}
		})
	}
}
