package renderer

import (
	"fmt"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/mipforge/mipforge/device"
	"github.com/mipforge/mipforge/renderer/bind_group_factory"
	"github.com/mipforge/mipforge/renderer/mipchain"
	"github.com/mipforge/mipforge/renderer/pipeline"
	"github.com/mipforge/mipforge/renderer/shader"
)

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	device      device.Device
	factory     bind_group_factory.BindGroupFactory
	downsample  pipeline.ComputePipeline
	clearColor  wgpu.Color
	frameActive bool
}

// Renderer drives the two GPU command streams of the application: the
// per-frame render stream that clears the window and draws the GUI, and
// the on-demand compute stream that fills a mip chain by walking its
// levels with the downsample pipeline.
type Renderer interface {
	// GenerateMips fills levels 1 through Levels()-1 of the chain from level 0
	// by encoding one compute pass with one dispatch per level transition. The
	// pipeline is set once; a fresh bind group is built for each transition and
	// released after submission. The dispatch grid covers the destination level
	// with ceil division by the shader's workgroup size.
	//
	// Parameters:
	//   - chain: the mip chain whose base level is already populated
	//
	// Returns:
	//   - error: error if command encoding or bind group creation fails
	GenerateMips(chain mipchain.MipChain) error

	// RenderFrame acquires the next surface texture, clears it, invokes the
	// GUI draw callback inside the render pass, submits, and presents. When
	// surface acquisition fails (resize in flight, swapchain outdated) the
	// frame is skipped and the error returned; the caller logs it and tries
	// again next frame.
	//
	// Parameters:
	//   - drawGUI: callback invoked with the open render pass, or nil to draw nothing
	//
	// Returns:
	//   - error: error if the frame could not be acquired or encoded
	RenderFrame(drawGUI func(pass *wgpu.RenderPassEncoder)) error

	// Release frees the downsample pipeline and bind group layout. The device
	// is owned by the caller and is not released.
	Release()
}

var _ Renderer = &renderer{}

// New creates the renderer, building the downsample bind group layout and
// compiling the downsample compute pipeline from the given shader.
//
// Parameters:
//   - dev: the device context to render with
//   - downsampleShader: the parsed compute shader performing the 2x2 box filter
//   - options: functional options for renderer configuration
//
// Returns:
//   - Renderer: the configured renderer
//   - error: error if layout or pipeline creation fails
func New(dev device.Device, downsampleShader shader.Shader, options ...RendererBuilderOption) (Renderer, error) {
	r := &renderer{
		mu:         &sync.Mutex{},
		device:     dev,
		clearColor: wgpu.Color{R: 0, G: 0, B: 0, A: 1},
	}
	for _, opt := range options {
		opt(r)
	}

	factory, err := bind_group_factory.New(dev.Handle())
	if err != nil {
		return nil, err
	}
	r.factory = factory

	downsample, err := pipeline.NewComputePipeline(
		dev.Handle(),
		"downsample",
		downsampleShader,
		pipeline.WithBindGroupLayouts(factory.Layout()),
	)
	if err != nil {
		factory.Release()
		return nil, err
	}
	r.downsample = downsample

	return r, nil
}

func (r *renderer) GenerateMips(chain mipchain.MipChain) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	encoder, err := r.device.Handle().CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("renderer: failed to create compute encoder: %v", err)
	}
	defer encoder.Release()

	workgroupSize := r.downsample.WorkgroupSize()

	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(r.downsample.Handle())

	for level := uint32(1); level < chain.Levels(); level++ {
		bindGroup, err := r.factory.Build(chain.View(level-1), chain.View(level))
		if err != nil {
			pass.End()
			return fmt.Errorf("renderer: level %d: %v", level, err)
		}

		width, height := mipchain.LevelExtent(chain.Width(), chain.Height(), level)
		pass.SetBindGroup(0, bindGroup, nil)
		pass.DispatchWorkgroups(
			mipchain.WorkgroupCount(width, workgroupSize[0]),
			mipchain.WorkgroupCount(height, workgroupSize[1]),
			1,
		)

		// The recorded pass holds its own reference; exactly one bind group
		// is alive on the host per level transition.
		bindGroup.Release()
	}
	pass.End()

	commandBuffer, err := encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("renderer: failed to finish compute encoder: %v", err)
	}
	defer commandBuffer.Release()

	r.device.Queue().Submit(commandBuffer)
	return nil
}

func (r *renderer) RenderFrame(drawGUI func(pass *wgpu.RenderPassEncoder)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// The surface allows only one acquired texture at a time.
	if r.frameActive {
		return fmt.Errorf("previous frame surface not yet presented")
	}

	surfaceTexture, err := r.device.Surface().GetCurrentTexture()
	if err != nil {
		return fmt.Errorf("renderer: failed to acquire surface texture: %v", err)
	}
	r.frameActive = true
	defer func() {
		surfaceTexture.Release()
		r.frameActive = false
	}()

	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		return fmt.Errorf("renderer: failed to create surface view: %v", err)
	}
	defer view.Release()

	encoder, err := r.device.Handle().CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("renderer: failed to create render encoder: %v", err)
	}
	defer encoder.Release()

	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       view,
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: r.clearColor,
			},
		},
	})
	if drawGUI != nil {
		drawGUI(pass)
	}
	pass.End()

	commandBuffer, err := encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("renderer: failed to finish render encoder: %v", err)
	}
	defer commandBuffer.Release()

	r.device.Queue().Submit(commandBuffer)
	r.device.Surface().Present()
	return nil
}

func (r *renderer) Release() {
	if r.downsample != nil {
		r.downsample.Release()
		r.downsample = nil
	}
	if r.factory != nil {
		r.factory.Release()
		r.factory = nil
	}
}
