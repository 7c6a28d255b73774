package gui

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	imgui "github.com/inkyblackness/imgui-go/v4"
)

func TestResolveTextureGroup(t *testing.T) {
	font := &wgpu.BindGroup{}
	preview := &wgpu.BindGroup{}
	r := &guiRenderer{
		fontID: 1,
		textureGroups: map[imgui.TextureID]*wgpu.BindGroup{
			1: font,
			2: preview,
		},
	}

	if got := r.resolveTextureGroup(2); got != preview {
		t.Errorf("resolveTextureGroup(2) = %p, want the registered group", got)
	}
	if got := r.resolveTextureGroup(99); got != font {
		t.Errorf("resolveTextureGroup(99) = %p, want the font atlas fallback", got)
	}
}

func TestResolveTextureGroupNothingRegistered(t *testing.T) {
	// When registration failed at init there is no font group either; the
	// draw loop must see nil and skip the command rather than bind it.
	r := &guiRenderer{
		textureGroups: map[imgui.TextureID]*wgpu.BindGroup{},
	}
	if got := r.resolveTextureGroup(5); got != nil {
		t.Errorf("resolveTextureGroup(5) = %p, want nil", got)
	}
}
