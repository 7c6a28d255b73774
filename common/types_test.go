package common

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func TestSourceImageDecodeForcesRGBA(t *testing.T) {
	// Encode a paletted image; Decode must still hand back RGBA pixels.
	src := image.NewPaletted(image.Rect(0, 0, 4, 2), color.Palette{
		color.RGBA{R: 255, A: 255},
		color.RGBA{G: 255, A: 255},
	})
	for y := 0; y < 2; y++ {
		for x := 0; x < 4; x++ {
			src.SetColorIndex(x, y, uint8((x+y)%2))
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		t.Fatalf("failed to encode fixture: %v", err)
	}

	img := &SourceImage{Data: buf.Bytes()}
	pixels, width, height, err := img.Decode()
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if width != 4 || height != 2 {
		t.Errorf("Decode() size = %dx%d, want 4x2", width, height)
	}
	if len(pixels) != 4*4*2 {
		t.Fatalf("Decode() returned %d bytes, want %d", len(pixels), 4*4*2)
	}
	// First pixel is palette entry 0: opaque red.
	if pixels[0] != 255 || pixels[1] != 0 || pixels[2] != 0 || pixels[3] != 255 {
		t.Errorf("first pixel = %v, want opaque red", pixels[0:4])
	}
	// Second pixel is palette entry 1: opaque green.
	if pixels[4] != 0 || pixels[5] != 255 || pixels[6] != 0 || pixels[7] != 255 {
		t.Errorf("second pixel = %v, want opaque green", pixels[4:8])
	}
}

func TestSourceImageDecodeMissingInput(t *testing.T) {
	img := &SourceImage{}
	if _, _, _, err := img.Decode(); err == nil {
		t.Error("expected error for SourceImage with neither data nor path")
	}

	img = &SourceImage{Path: "does-not-exist.png"}
	if _, _, _, err := img.Decode(); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestCoalesce(t *testing.T) {
	if got := Coalesce(0, 0, 7, 3); got != 7 {
		t.Errorf("Coalesce(0, 0, 7, 3) = %d, want 7", got)
	}
	if got := Coalesce("", "fallback"); got != "fallback" {
		t.Errorf("Coalesce(\"\", \"fallback\") = %q, want %q", got, "fallback")
	}
	if got := Coalesce(0, 0); got != 0 {
		t.Errorf("Coalesce(0, 0) = %d, want 0", got)
	}
}

func TestSliceToBytes(t *testing.T) {
	data := []float32{1.0, 2.0}
	b := SliceToBytes(data)
	if len(b) != 8 {
		t.Errorf("SliceToBytes() returned %d bytes, want 8", len(b))
	}
	if SliceToBytes([]float32(nil)) != nil {
		t.Error("SliceToBytes(nil) should return nil")
	}
}
