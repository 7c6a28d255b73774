package gui

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	imgui "github.com/inkyblackness/imgui-go/v4"
	"github.com/mipforge/mipforge/common"
	"github.com/mipforge/mipforge/device"
	"github.com/mipforge/mipforge/renderer/shader"
)

// guiShaderSource draws the GUI vertex stream in pixel space through an
// orthographic projection, modulating the vertex color with the bound texture.
const guiShaderSource = `
struct Uniforms {
    proj: mat4x4<f32>,
};

@group(0) @binding(0) var<uniform> uniforms: Uniforms;
@group(0) @binding(1) var texSampler: sampler;
@group(1) @binding(0) var tex: texture_2d<f32>;

struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) uv: vec2<f32>,
    @location(1) color: vec4<f32>,
};

@vertex
fn vs_main(
    @location(0) position: vec2<f32>,
    @location(1) uv: vec2<f32>,
    @location(2) color: vec4<f32>,
) -> VertexOutput {
    var out: VertexOutput;
    out.position = uniforms.proj * vec4<f32>(position, 0.0, 1.0);
    out.uv = uv;
    out.color = color;
    return out;
}

@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    return in.color * textureSample(tex, texSampler, in.uv);
}
`

// guiRenderer is the WebGPU backend that encodes GUI draw data into an open
// render pass. Vertex and index data are uploaded into transient buffers each
// frame; the buffers from the previous frame are freed at the start of the
// next one, after their command buffer has been submitted.
type guiRenderer struct {
	device device.Device

	pipeline      *wgpu.RenderPipeline
	commonLayout  *wgpu.BindGroupLayout
	textureLayout *wgpu.BindGroupLayout
	commonGroup   *wgpu.BindGroup

	uniformBuffer *wgpu.Buffer
	sampler       *wgpu.Sampler

	fontTexture *wgpu.Texture
	fontView    *wgpu.TextureView
	fontID      imgui.TextureID

	// textureGroups maps registered texture IDs to their per-texture bind group.
	textureGroups map[imgui.TextureID]*wgpu.BindGroup
	nextTextureID uintptr

	transientBuffers []*wgpu.Buffer

	indexFormat wgpu.IndexFormat
}

func newGUIRenderer(dev device.Device, io imgui.IO, format wgpu.TextureFormat) (*guiRenderer, error) {
	r := &guiRenderer{
		device:        dev,
		textureGroups: make(map[imgui.TextureID]*wgpu.BindGroup),
		nextTextureID: 1,
		indexFormat:   wgpu.IndexFormatUint16,
	}
	if imgui.IndexBufferLayout() == 4 {
		r.indexFormat = wgpu.IndexFormatUint32
	}

	if err := r.createCommonResources(); err != nil {
		r.release()
		return nil, err
	}
	if err := r.createFontTexture(io); err != nil {
		r.release()
		return nil, err
	}
	if err := r.createPipeline(format); err != nil {
		r.release()
		return nil, err
	}
	return r, nil
}

func (r *guiRenderer) createCommonResources() error {
	dev := r.device.Handle()

	uniformBuffer, err := dev.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "gui projection",
		Size:  64,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("gui: failed to create uniform buffer: %v", err)
	}
	r.uniformBuffer = uniformBuffer

	sampler, err := dev.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "gui sampler",
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeLinear,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return fmt.Errorf("gui: failed to create sampler: %v", err)
	}
	r.sampler = sampler

	commonLayout, err := dev.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "gui common layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: 64,
				},
			},
			{
				Binding:    1,
				Visibility: wgpu.ShaderStageFragment,
				Sampler: wgpu.SamplerBindingLayout{
					Type: wgpu.SamplerBindingTypeFiltering,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("gui: failed to create common layout: %v", err)
	}
	r.commonLayout = commonLayout

	textureLayout, err := dev.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "gui texture layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageFragment,
				Texture: wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleTypeFloat,
					ViewDimension: wgpu.TextureViewDimension2D,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("gui: failed to create texture layout: %v", err)
	}
	r.textureLayout = textureLayout

	commonGroup, err := dev.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "gui common bind group",
		Layout: commonLayout,
		Entries: []wgpu.BindGroupEntry{
			{
				Binding: 0,
				Buffer:  uniformBuffer,
				Size:    64,
			},
			{
				Binding: 1,
				Sampler: sampler,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("gui: failed to create common bind group: %v", err)
	}
	r.commonGroup = commonGroup

	return nil
}

func (r *guiRenderer) createFontTexture(io imgui.IO) error {
	fontAtlas := io.Fonts().TextureDataRGBA32()
	pixels := common.PointerToBytes(fontAtlas.Pixels, fontAtlas.Width*fontAtlas.Height*4)

	texture, err := r.device.Handle().CreateTexture(&wgpu.TextureDescriptor{
		Label:     "gui font atlas",
		Dimension: wgpu.TextureDimension2D,
		Size: wgpu.Extent3D{
			Width:              uint32(fontAtlas.Width),
			Height:             uint32(fontAtlas.Height),
			DepthOrArrayLayers: 1,
		},
		Format:        wgpu.TextureFormatRGBA8Unorm,
		MipLevelCount: 1,
		SampleCount:   1,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("gui: failed to create font texture: %v", err)
	}
	r.fontTexture = texture

	r.device.Queue().WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture: texture,
			Origin:  wgpu.Origin3D{X: 0, Y: 0, Z: 0},
			Aspect:  wgpu.TextureAspectAll,
		},
		pixels,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(4 * fontAtlas.Width),
			RowsPerImage: uint32(fontAtlas.Height),
		},
		&wgpu.Extent3D{
			Width:              uint32(fontAtlas.Width),
			Height:             uint32(fontAtlas.Height),
			DepthOrArrayLayers: 1,
		},
	)

	view, err := texture.CreateView(nil)
	if err != nil {
		return fmt.Errorf("gui: failed to create font view: %v", err)
	}
	r.fontView = view

	fontID, err := r.registerTexture(view)
	if err != nil {
		return err
	}
	r.fontID = fontID
	io.Fonts().SetTextureID(r.fontID)
	return nil
}

func (r *guiRenderer) createPipeline(format wgpu.TextureFormat) error {
	dev := r.device.Handle()

	vs, err := shader.NewShaderFromSource("gui vertex", shader.ShaderTypeVertex, guiShaderSource)
	if err != nil {
		return err
	}
	fs, err := shader.NewShaderFromSource("gui fragment", shader.ShaderTypeFragment, guiShaderSource)
	if err != nil {
		return err
	}

	module, err := dev.CreateShaderModule(vs.Module())
	if err != nil {
		return fmt.Errorf("gui: failed to create shader module: %v", err)
	}
	defer module.Release()

	pipelineLayout, err := dev.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "gui pipeline layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{r.commonLayout, r.textureLayout},
	})
	if err != nil {
		return fmt.Errorf("gui: failed to create pipeline layout: %v", err)
	}
	defer pipelineLayout.Release()

	vertexSize, posOffset, uvOffset, colOffset := imgui.VertexBufferLayout()

	pipeline, err := dev.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  "gui pipeline",
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: vs.EntryPoint(),
			Buffers: []wgpu.VertexBufferLayout{
				{
					ArrayStride: uint64(vertexSize),
					StepMode:    wgpu.VertexStepModeVertex,
					Attributes: []wgpu.VertexAttribute{
						{Format: wgpu.VertexFormatFloat32x2, Offset: uint64(posOffset), ShaderLocation: 0},
						{Format: wgpu.VertexFormatFloat32x2, Offset: uint64(uvOffset), ShaderLocation: 1},
						{Format: wgpu.VertexFormatUnorm8x4, Offset: uint64(colOffset), ShaderLocation: 2},
					},
				},
			},
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: fs.EntryPoint(),
			Targets: []wgpu.ColorTargetState{
				{
					Format: format,
					Blend: &wgpu.BlendState{
						Color: wgpu.BlendComponent{
							SrcFactor: wgpu.BlendFactorSrcAlpha,
							DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
							Operation: wgpu.BlendOperationAdd,
						},
						Alpha: wgpu.BlendComponent{
							SrcFactor: wgpu.BlendFactorOne,
							DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
							Operation: wgpu.BlendOperationAdd,
						},
					},
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("gui: failed to create pipeline: %v", err)
	}
	r.pipeline = pipeline
	return nil
}

// registerTexture creates a per-texture bind group for the given view and
// returns the ID the GUI uses to reference it in draw commands.
func (r *guiRenderer) registerTexture(view *wgpu.TextureView) (imgui.TextureID, error) {
	bindGroup, err := r.device.Handle().CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "gui texture bind group",
		Layout: r.textureLayout,
		Entries: []wgpu.BindGroupEntry{
			{
				Binding:     0,
				TextureView: view,
			},
		},
	})
	if err != nil {
		return 0, fmt.Errorf("gui: failed to create texture bind group: %v", err)
	}
	id := imgui.TextureID(r.nextTextureID)
	r.nextTextureID++
	r.textureGroups[id] = bindGroup
	return id, nil
}

// resolveTextureGroup looks up the bind group for a draw command's texture
// ID, falling back to the font atlas. Returns nil when neither is registered.
func (r *guiRenderer) resolveTextureGroup(id imgui.TextureID) *wgpu.BindGroup {
	if bg, ok := r.textureGroups[id]; ok {
		return bg
	}
	return r.textureGroups[r.fontID]
}

func (r *guiRenderer) unregisterTexture(id imgui.TextureID) {
	if bg, ok := r.textureGroups[id]; ok {
		bg.Release()
		delete(r.textureGroups, id)
	}
}

func (r *guiRenderer) freeTransientBuffers() {
	for _, buf := range r.transientBuffers {
		buf.Release()
	}
	r.transientBuffers = r.transientBuffers[:0]
}

func (r *guiRenderer) render(drawData imgui.DrawData, pass *wgpu.RenderPassEncoder, width, height int) {
	if pass == nil || width <= 0 || height <= 0 {
		return
	}

	// The previous frame's buffers were submitted and presented by now.
	r.freeTransientBuffers()

	drawData.ScaleClipRects(imgui.Vec2{X: 1.0, Y: 1.0})

	// Pixel space to NDC: y flipped, origin top left.
	w := float32(width)
	h := float32(height)
	proj := []float32{
		2.0 / w, 0, 0, 0,
		0, -2.0 / h, 0, 0,
		0, 0, 1, 0,
		-1, 1, 0, 1,
	}
	r.device.Queue().WriteBuffer(r.uniformBuffer, 0, common.SliceToBytes(proj))

	pass.SetPipeline(r.pipeline)
	pass.SetBindGroup(0, r.commonGroup, nil)

	for _, list := range drawData.CommandLists() {
		vertexData, vertexSize := list.VertexBuffer()
		indexData, indexSize := list.IndexBuffer()
		if vertexSize == 0 || indexSize == 0 {
			continue
		}

		vertexBuffer, err := r.device.Handle().CreateBufferInit(&wgpu.BufferInitDescriptor{
			Label:    "gui vertices",
			Contents: common.PointerToBytes(vertexData, vertexSize),
			Usage:    wgpu.BufferUsageVertex,
		})
		if err != nil {
			continue
		}
		indexBuffer, err := r.device.Handle().CreateBufferInit(&wgpu.BufferInitDescriptor{
			Label:    "gui indices",
			Contents: common.PointerToBytes(indexData, indexSize),
			Usage:    wgpu.BufferUsageIndex,
		})
		if err != nil {
			vertexBuffer.Release()
			continue
		}
		r.transientBuffers = append(r.transientBuffers, vertexBuffer, indexBuffer)

		pass.SetVertexBuffer(0, vertexBuffer, 0, wgpu.WholeSize)
		pass.SetIndexBuffer(indexBuffer, r.indexFormat, 0, wgpu.WholeSize)

		indexOffset := 0
		for _, cmd := range list.Commands() {
			if cmd.HasUserCallback() {
				cmd.CallUserCallback(list)
				indexOffset += cmd.ElementCount()
				continue
			}

			clip := cmd.ClipRect()
			x := max(int32(clip.X), 0)
			y := max(int32(clip.Y), 0)
			cw := min(int32(clip.Z), int32(width)) - x
			ch := min(int32(clip.W), int32(height)) - y
			if cw <= 0 || ch <= 0 {
				indexOffset += cmd.ElementCount()
				continue
			}
			pass.SetScissorRect(uint32(x), uint32(y), uint32(cw), uint32(ch))

			textureGroup := r.resolveTextureGroup(cmd.TextureID())
			if textureGroup == nil {
				indexOffset += cmd.ElementCount()
				continue
			}
			pass.SetBindGroup(1, textureGroup, nil)

			pass.DrawIndexed(uint32(cmd.ElementCount()), 1, uint32(indexOffset), 0, 0)
			indexOffset += cmd.ElementCount()
		}
	}

	pass.SetScissorRect(0, 0, uint32(width), uint32(height))
}

func (r *guiRenderer) release() {
	r.freeTransientBuffers()
	for id, bg := range r.textureGroups {
		bg.Release()
		delete(r.textureGroups, id)
	}
	if r.pipeline != nil {
		r.pipeline.Release()
		r.pipeline = nil
	}
	if r.fontView != nil {
		r.fontView.Release()
		r.fontView = nil
	}
	if r.fontTexture != nil {
		r.fontTexture.Release()
		r.fontTexture = nil
	}
	if r.commonGroup != nil {
		r.commonGroup.Release()
		r.commonGroup = nil
	}
	if r.textureLayout != nil {
		r.textureLayout.Release()
		r.textureLayout = nil
	}
	if r.commonLayout != nil {
		r.commonLayout.Release()
		r.commonLayout = nil
	}
	if r.sampler != nil {
		r.sampler.Release()
		r.sampler = nil
	}
	if r.uniformBuffer != nil {
		r.uniformBuffer.Release()
		r.uniformBuffer = nil
	}
}
