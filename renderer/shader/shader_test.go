package shader

import "testing"

const downsampleSource = `
@group(0) @binding(0) var previousMipLevel: texture_2d<f32>;
@group(0) @binding(1) var nextMipLevel: texture_storage_2d<rgba8unorm, write>;

@compute @workgroup_size(8, 8)
fn computeMipMap(@builtin(global_invocation_id) id: vec3<u32>) {
    let offset = vec2<u32>(0u, 1u);
    let color = (
        textureLoad(previousMipLevel, 2u * id.xy + offset.xx, 0) +
        textureLoad(previousMipLevel, 2u * id.xy + offset.xy, 0) +
        textureLoad(previousMipLevel, 2u * id.xy + offset.yx, 0) +
        textureLoad(previousMipLevel, 2u * id.xy + offset.yy, 0)
    ) * 0.25;
    textureStore(nextMipLevel, id.xy, color);
}
`

func TestParseWorkgroupSize(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   [3]uint32
	}{
		{
			name:   "two dimensions",
			source: downsampleSource,
			want:   [3]uint32{8, 8, 1},
		},
		{
			name:   "single dimension",
			source: "@compute @workgroup_size(64)\nfn main() {}",
			want:   [3]uint32{64, 1, 1},
		},
		{
			name:   "three dimensions",
			source: "@compute @workgroup_size(4, 2, 1)\nfn main() {}",
			want:   [3]uint32{4, 2, 1},
		},
		{
			name:   "missing annotation defaults to ones",
			source: "@compute\nfn main() {}",
			want:   [3]uint32{1, 1, 1},
		},
		{
			name:   "annotation inside comment is ignored",
			source: "// @workgroup_size(16, 16)\n@compute @workgroup_size(8, 8)\nfn main() {}",
			want:   [3]uint32{8, 8, 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseWorkgroupSize(tt.source)
			if got != tt.want {
				t.Errorf("parseWorkgroupSize() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseEntryPoint(t *testing.T) {
	tests := []struct {
		name       string
		source     string
		shaderType ShaderType
		want       string
	}{
		{
			name:       "compute entry",
			source:     downsampleSource,
			shaderType: ShaderTypeCompute,
			want:       "computeMipMap",
		},
		{
			name:       "vertex entry",
			source:     "@vertex\nfn vs_main() -> @builtin(position) vec4<f32> {}",
			shaderType: ShaderTypeVertex,
			want:       "vs_main",
		},
		{
			name:       "fragment entry",
			source:     "@fragment\nfn fs_main() -> @location(0) vec4<f32> {}",
			shaderType: ShaderTypeFragment,
			want:       "fs_main",
		},
		{
			name:       "no compute entry in render shader",
			source:     "@vertex\nfn vs_main() {}",
			shaderType: ShaderTypeCompute,
			want:       "",
		},
		{
			name:       "block comment stripped",
			source:     "/* @compute fn bogus */\n@compute @workgroup_size(8, 8)\nfn real_entry() {}",
			shaderType: ShaderTypeCompute,
			want:       "real_entry",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseEntryPoint(tt.source, tt.shaderType)
			if got != tt.want {
				t.Errorf("parseEntryPoint() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewShaderFromSource(t *testing.T) {
	s, err := NewShaderFromSource("downsample", ShaderTypeCompute, downsampleSource)
	if err != nil {
		t.Fatalf("NewShaderFromSource() error = %v", err)
	}
	if s.EntryPoint() != "computeMipMap" {
		t.Errorf("EntryPoint() = %q, want %q", s.EntryPoint(), "computeMipMap")
	}
	if s.WorkgroupSize() != [3]uint32{8, 8, 1} {
		t.Errorf("WorkgroupSize() = %v, want [8 8 1]", s.WorkgroupSize())
	}
	if s.Module() == nil || s.Module().WGSLDescriptor == nil {
		t.Fatal("Module() descriptor not built")
	}
	if s.Module().Label != "downsample" {
		t.Errorf("Module().Label = %q, want %q", s.Module().Label, "downsample")
	}

	if _, err := NewShaderFromSource("bad", ShaderTypeCompute, "@vertex\nfn vs() {}"); err == nil {
		t.Error("expected error for source without compute entry point")
	}
}
