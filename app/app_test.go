package app

import (
	"testing"
	"time"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/mipforge/mipforge/exporter"
	"github.com/mipforge/mipforge/gui"
	"github.com/mipforge/mipforge/renderer"
	"github.com/mipforge/mipforge/renderer/mipchain"
	"github.com/mipforge/mipforge/window"
)

type fakeRenderer struct {
	mipPasses int
	frames    int
}

var _ renderer.Renderer = &fakeRenderer{}

func (r *fakeRenderer) GenerateMips(mipchain.MipChain) error {
	r.mipPasses++
	return nil
}

func (r *fakeRenderer) RenderFrame(func(*wgpu.RenderPassEncoder)) error {
	r.frames++
	return nil
}

func (r *fakeRenderer) Release() {}

// fakeGUI returns its queued params once, then empty params, the way one
// widget interaction produces exactly one frame of requests.
type fakeGUI struct {
	next gui.Params
}

var _ gui.GUI = &fakeGUI{}

func (g *fakeGUI) AttachInput(window.Window) {}

func (g *fakeGUI) SetPreview(*wgpu.TextureView, uint32, uint32, uint32) {}

func (g *fakeGUI) Frame(gui.FrameInfo) gui.Params {
	p := g.next
	g.next = gui.Params{}
	return p
}

func (g *fakeGUI) Draw(*wgpu.RenderPassEncoder) {}

func (g *fakeGUI) Release() {}

type fakeExporter struct {
	saves int
}

var _ exporter.Exporter = &fakeExporter{}

func (e *fakeExporter) SaveMipLevels(mipchain.MipChain, string) error {
	e.saves++
	return nil
}

type fakeWindow struct {
	width  int
	height int
}

var _ window.Window = &fakeWindow{}

func (w *fakeWindow) SetUpdateCallback(func())                    {}
func (w *fakeWindow) SetResizeCallback(func(int, int))            {}
func (w *fakeWindow) SetScrollCallback(func(float32, float32))    {}
func (w *fakeWindow) SetKeyCallback(func(uint32, bool))           {}
func (w *fakeWindow) SetCharCallback(func(rune))                  {}
func (w *fakeWindow) SetMouseButtonCallback(func(int, bool))      {}
func (w *fakeWindow) SetMouseMoveCallback(func(float32, float32)) {}
func (w *fakeWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor  { return nil }
func (w *fakeWindow) IsRunning() bool                             { return false }
func (w *fakeWindow) Close() error                                { return nil }
func (w *fakeWindow) ProcessMessages()                            {}
func (w *fakeWindow) Width() int                                  { return w.width }
func (w *fakeWindow) Height() int                                 { return w.height }

func newTestApp(r *fakeRenderer, g *fakeGUI, e *fakeExporter) *app {
	return &app{
		window:    &fakeWindow{width: 640, height: 480},
		renderer:  r,
		gui:       g,
		exporter:  e,
		lastFrame: time.Now(),
	}
}

func TestUpdateComputeTriggerIsIdempotent(t *testing.T) {
	r := &fakeRenderer{}
	a := newTestApp(r, &fakeGUI{}, &fakeExporter{})
	a.shouldCompute = true

	a.update()
	a.update()
	a.update()

	if r.mipPasses != 1 {
		t.Errorf("mip passes after repeated updates = %d, want 1", r.mipPasses)
	}
	if r.frames != 3 {
		t.Errorf("rendered frames = %d, want 3", r.frames)
	}
}

func TestUpdateRecomputeRequestArmsOnePass(t *testing.T) {
	r := &fakeRenderer{}
	g := &fakeGUI{next: gui.Params{ComputeRequested: true}}
	a := newTestApp(r, g, &fakeExporter{})

	a.update() // request arrives, arms the next frame
	a.update() // armed pass runs and clears
	a.update() // no new request, no pass

	if r.mipPasses != 1 {
		t.Errorf("mip passes after one recompute request = %d, want 1", r.mipPasses)
	}
}

func TestUpdateSaveRequest(t *testing.T) {
	r := &fakeRenderer{}
	g := &fakeGUI{next: gui.Params{SaveRequested: true}}
	e := &fakeExporter{}
	a := newTestApp(r, g, e)

	a.update()
	a.update()

	if e.saves != 1 {
		t.Errorf("saves after one save request = %d, want 1", e.saves)
	}
	if r.mipPasses != 0 {
		t.Errorf("save request triggered %d mip passes, want 0", r.mipPasses)
	}
}

func TestNewAppliesDefaults(t *testing.T) {
	a := New().(*app)
	if a.title != "mipforge" {
		t.Errorf("title = %q, want %q", a.title, "mipforge")
	}
	if a.width != 640 || a.height != 480 {
		t.Errorf("window size = %dx%d, want 640x480", a.width, a.height)
	}
	if a.outputPath != "output" {
		t.Errorf("output path = %q, want %q", a.outputPath, "output")
	}
	if a.shaderPath != "resources/compute-shader.wgsl" {
		t.Errorf("shader path = %q, want %q", a.shaderPath, "resources/compute-shader.wgsl")
	}

	a = New(WithWindowSize(0, 0), WithOutputPath("")).(*app)
	if a.width != 640 || a.height != 480 || a.outputPath != "output" {
		t.Error("zero-valued options should fall back to defaults")
	}

	a = New(WithTitle("viewer"), WithWindowSize(800, 600)).(*app)
	if a.title != "viewer" || a.width != 800 || a.height != 600 {
		t.Error("explicit options should override defaults")
	}
}
