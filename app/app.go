package app

import (
	"fmt"
	"log"
	"time"

	"github.com/mipforge/mipforge/common"
	"github.com/mipforge/mipforge/device"
	"github.com/mipforge/mipforge/exporter"
	"github.com/mipforge/mipforge/gui"
	"github.com/mipforge/mipforge/profiler"
	"github.com/mipforge/mipforge/renderer"
	"github.com/mipforge/mipforge/renderer/mipchain"
	"github.com/mipforge/mipforge/renderer/shader"
	"github.com/mipforge/mipforge/window"
)

// app is the implementation of the App interface.
// It owns every subsystem for the lifetime of one Run call and coordinates
// them from the window's update callback.
type app struct {
	window   window.Window
	device   device.Device
	renderer renderer.Renderer
	gui      gui.GUI
	exporter exporter.Exporter
	chain    mipchain.MipChain
	profiler *profiler.Profiler

	// Pre-run config collected from builder options
	title         string
	width         int
	height        int
	imagePath     string
	outputPath    string
	shaderPath    string
	forceSoftware bool
	presentMode   device.PresentMode
	profile       bool

	// shouldCompute arms one mip generation pass for the next frame. Set at
	// startup and whenever the GUI requests a recompute; cleared after the
	// pass is submitted so repeated triggers stay idempotent.
	shouldCompute bool

	lastFrame time.Time
	saving    bool
}

// App is the top level application: window, GPU device, mip generation,
// GUI, and PNG export wired together.
type App interface {
	// Run initializes every subsystem, enters the window message loop, and
	// tears everything down in reverse order when the window closes. Blocks
	// until the application exits.
	//
	// Returns:
	//   - error: error if any subsystem fails to initialize
	Run() error
}

var _ App = &app{}

// New creates an App with the specified options. Nothing is initialized
// until Run is called.
//
// Parameters:
//   - options: functional options to configure the application
//
// Returns:
//   - App: the configured application
func New(options ...AppBuilderOption) App {
	a := &app{
		presentMode: device.PresentModeVSync,
	}
	for _, opt := range options {
		opt(a)
	}
	a.title = common.Coalesce(a.title, "mipforge")
	a.width = common.Coalesce(a.width, 640)
	a.height = common.Coalesce(a.height, 480)
	a.outputPath = common.Coalesce(a.outputPath, "output")
	a.shaderPath = common.Coalesce(a.shaderPath, "resources/compute-shader.wgsl")
	return a
}

func (a *app) Run() error {
	a.window = window.NewWindow(
		window.WithTitle(a.title),
		window.WithWidth(a.width),
		window.WithHeight(a.height),
	)
	defer a.window.Close()

	dev, err := device.New(
		a.window.SurfaceDescriptor(),
		device.WithForceFallbackAdapter(a.forceSoftware),
		device.WithPresentMode(a.presentMode),
	)
	if err != nil {
		return fmt.Errorf("app: device negotiation failed: %w", err)
	}
	a.device = dev
	defer dev.Release()

	dev.ConfigureSurface(a.window.Width(), a.window.Height())

	pixels, imgWidth, imgHeight, err := a.loadSourceImage()
	if err != nil {
		return fmt.Errorf("app: failed to load source image: %v", err)
	}

	chain, err := mipchain.New(dev.Handle(), dev.Queue(), pixels, imgWidth, imgHeight)
	if err != nil {
		return err
	}
	a.chain = chain
	defer chain.Release()
	log.Printf("app: loaded %dx%d source image, %d mip levels", imgWidth, imgHeight, chain.Levels())

	downsampleShader, err := shader.NewShader("downsample", shader.ShaderTypeCompute, a.shaderPath)
	if err != nil {
		return err
	}

	rend, err := renderer.New(dev, downsampleShader)
	if err != nil {
		return err
	}
	a.renderer = rend
	defer rend.Release()

	g, err := gui.New(dev)
	if err != nil {
		return err
	}
	a.gui = g
	defer g.Release()

	g.AttachInput(a.window)
	g.SetPreview(chain.View(0), chain.Width(), chain.Height(), chain.Levels())

	a.exporter = exporter.New(dev)

	if a.profile {
		a.profiler = profiler.NewProfiler()
	}

	a.window.SetResizeCallback(func(width, height int) {
		dev.ConfigureSurface(width, height)
	})

	a.shouldCompute = true
	a.lastFrame = time.Now()
	a.window.SetUpdateCallback(a.update)
	a.window.ProcessMessages()

	return nil
}

// update runs once per message loop iteration: submit the mip pass when
// armed, build the GUI frame, react to its requests, and render.
func (a *app) update() {
	now := time.Now()
	deltaTime := float32(now.Sub(a.lastFrame).Seconds())
	a.lastFrame = now

	if a.shouldCompute {
		start := time.Now()
		if err := a.renderer.GenerateMips(a.chain); err != nil {
			log.Printf("app: mip generation failed: %v", err)
		}
		a.shouldCompute = false
		if a.profiler != nil {
			a.profiler.RecordCompute(time.Since(start))
		}
	}

	params := a.gui.Frame(gui.FrameInfo{
		Width:     a.window.Width(),
		Height:    a.window.Height(),
		DeltaTime: deltaTime,
	})
	if params.ComputeRequested {
		a.shouldCompute = true
	}
	if params.SaveRequested && !a.saving {
		a.saving = true
		if err := a.exporter.SaveMipLevels(a.chain, a.outputPath); err != nil {
			log.Printf("app: save failed: %v", err)
		}
		a.saving = false
	}

	if err := a.renderer.RenderFrame(a.gui.Draw); err != nil {
		// Surface acquisition fails transiently during resize; skip the
		// frame and try again on the next loop iteration.
		log.Printf("app: skipped frame: %v", err)
		return
	}

	if a.profiler != nil {
		a.profiler.Tick()
	}
}

// loadSourceImage decodes the configured input file, or builds a procedural
// test pattern when no input was given.
func (a *app) loadSourceImage() ([]byte, uint32, uint32, error) {
	if a.imagePath != "" {
		src := &common.SourceImage{Path: a.imagePath}
		return src.Decode()
	}
	const size = 256
	return testPattern(size, size), size, size, nil
}

// testPattern fills an RGBA gradient with an 8 pixel checker overlay so each
// downsampled level is visually distinct.
func testPattern(width, height uint32) []byte {
	pixels := make([]byte, 4*width*height)
	for y := uint32(0); y < height; y++ {
		for x := uint32(0); x < width; x++ {
			i := 4 * (y*width + x)
			checker := byte(0)
			if (x/8+y/8)%2 == 0 {
				checker = 64
			}
			pixels[i+0] = byte(255 * x / width)
			pixels[i+1] = byte(255 * y / height)
			pixels[i+2] = 128 + checker
			pixels[i+3] = 255
		}
	}
	return pixels
}
