package gui

import (
	"fmt"
	"log"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/glfw/v3.3/glfw"
	imgui "github.com/inkyblackness/imgui-go/v4"
	"github.com/mipforge/mipforge/device"
	"github.com/mipforge/mipforge/window"
)

// Params carries the widget state read back from one GUI frame.
type Params struct {
	// TestValue is the current value of the "Test" slider, in [0, 1].
	TestValue float32

	// ComputeRequested is true when the slider moved or the Recompute button
	// was pressed this frame, arming one mip generation pass.
	ComputeRequested bool

	// SaveRequested is true when the save button was pressed this frame.
	SaveRequested bool
}

// FrameInfo carries the per-frame inputs the GUI needs to lay itself out.
type FrameInfo struct {
	// Width is the current framebuffer width in pixels.
	Width int

	// Height is the current framebuffer height in pixels.
	Height int

	// DeltaTime is the time since the previous frame in seconds.
	DeltaTime float32
}

// gui is the implementation of the GUI interface.
type gui struct {
	context  *imgui.Context
	io       imgui.IO
	renderer *guiRenderer

	testValue float32

	previewID     imgui.TextureID
	previewWidth  uint32
	previewHeight uint32
	previewLevels uint32

	drawData imgui.DrawData
	width    int
	height   int
}

// GUI owns the immediate-mode GUI context and its WebGPU rendering backend.
// Each frame the application calls Frame to build the widgets and read their
// state, then Draw inside the open render pass to encode the draw data.
type GUI interface {
	// AttachInput wires the window's input callbacks into the GUI context so
	// the widgets receive mouse, keyboard, and scroll events.
	//
	// Parameters:
	//   - win: the window to read input from
	AttachInput(win window.Window)

	// SetPreview registers the texture view shown in the preview image widget,
	// typically the base level of the current mip chain. Passing nil clears
	// the preview.
	//
	// Parameters:
	//   - view: the texture view to preview, or nil
	//   - width: the view's width in pixels
	//   - height: the view's height in pixels
	//   - levels: the mip level count shown alongside the preview
	SetPreview(view *wgpu.TextureView, width, height, levels uint32)

	// Frame builds the widget tree for one frame and returns the widget state.
	// Must be called once per frame before Draw.
	//
	// Parameters:
	//   - info: the framebuffer size and frame delta time
	//
	// Returns:
	//   - Params: the widget state for this frame
	Frame(info FrameInfo) Params

	// Draw encodes the draw data produced by the last Frame call into the
	// given render pass.
	//
	// Parameters:
	//   - pass: the open render pass to draw into
	Draw(pass *wgpu.RenderPassEncoder)

	// Release frees the GPU resources of the rendering backend and destroys
	// the GUI context.
	Release()
}

var _ GUI = &gui{}

// New creates the GUI context and its WebGPU backend. The device surface must
// already be configured, since the backend pipeline targets the surface format.
//
// Parameters:
//   - dev: the device context to render with
//
// Returns:
//   - GUI: the configured GUI
//   - error: error if backend resource creation fails
func New(dev device.Device) (GUI, error) {
	context := imgui.CreateContext(nil)
	io := imgui.CurrentIO()

	renderer, err := newGUIRenderer(dev, io, dev.SurfaceFormat())
	if err != nil {
		context.Destroy()
		return nil, err
	}

	g := &gui{
		context:  context,
		io:       io,
		renderer: renderer,
	}
	g.setKeyMapping()
	return g, nil
}

func (g *gui) AttachInput(win window.Window) {
	win.SetMouseMoveCallback(func(x, y float32) {
		g.io.SetMousePosition(imgui.Vec2{X: x, Y: y})
	})
	win.SetMouseButtonCallback(func(button int, pressed bool) {
		if button >= 0 && button < 3 {
			g.io.SetMouseButtonDown(button, pressed)
		}
	})
	win.SetScrollCallback(func(dx, dy float32) {
		g.io.AddMouseWheelDelta(dx, dy)
	})
	win.SetKeyCallback(func(keyCode uint32, pressed bool) {
		if pressed {
			g.io.KeyPress(int(keyCode))
		} else {
			g.io.KeyRelease(int(keyCode))
		}
		// Modifiers are not reliable across systems
		g.io.KeyCtrl(int(glfw.KeyLeftControl), int(glfw.KeyRightControl))
		g.io.KeyShift(int(glfw.KeyLeftShift), int(glfw.KeyRightShift))
		g.io.KeyAlt(int(glfw.KeyLeftAlt), int(glfw.KeyRightAlt))
		g.io.KeySuper(int(glfw.KeyLeftSuper), int(glfw.KeyRightSuper))
	})
	win.SetCharCallback(func(char rune) {
		g.io.AddInputCharacters(string(char))
	})
}

func (g *gui) SetPreview(view *wgpu.TextureView, width, height, levels uint32) {
	if g.previewID != 0 {
		g.renderer.unregisterTexture(g.previewID)
		g.previewID = 0
	}
	if view == nil {
		return
	}
	id, err := g.renderer.registerTexture(view)
	if err != nil {
		// No preview this session; the rest of the GUI still works.
		log.Printf("gui: failed to register preview texture: %v", err)
		return
	}
	g.previewID = id
	g.previewWidth = width
	g.previewHeight = height
	g.previewLevels = levels
}

func (g *gui) Frame(info FrameInfo) Params {
	g.width = info.Width
	g.height = info.Height
	g.io.SetDisplaySize(imgui.Vec2{X: float32(info.Width), Y: float32(info.Height)})
	if info.DeltaTime > 0 {
		g.io.SetDeltaTime(info.DeltaTime)
	}

	var params Params
	imgui.NewFrame()
	imgui.Begin("Mip Levels")

	if imgui.SliderFloat("Test", &g.testValue, 0.0, 1.0) {
		params.ComputeRequested = true
	}
	params.TestValue = g.testValue

	if imgui.Button("Recompute") {
		params.ComputeRequested = true
	}
	if imgui.Button("Save MIP levels") {
		params.SaveRequested = true
	}

	if g.previewID != 0 {
		imgui.Text(fmt.Sprintf("%dx%d, %d levels", g.previewWidth, g.previewHeight, g.previewLevels))
		imgui.Image(g.previewID, previewSize(g.previewWidth, g.previewHeight))
	}

	imgui.End()
	imgui.Render()
	g.drawData = imgui.RenderedDrawData()
	return params
}

func (g *gui) Draw(pass *wgpu.RenderPassEncoder) {
	g.renderer.render(g.drawData, pass, g.width, g.height)
}

func (g *gui) Release() {
	if g.renderer != nil {
		g.renderer.release()
		g.renderer = nil
	}
	if g.context != nil {
		g.context.Destroy()
		g.context = nil
	}
}

// previewSize fits the preview image into a 256 pixel box, preserving aspect.
func previewSize(width, height uint32) imgui.Vec2 {
	const box = 256.0
	w := float32(width)
	h := float32(height)
	if w <= box && h <= box {
		return imgui.Vec2{X: w, Y: h}
	}
	scale := box / max(w, h)
	return imgui.Vec2{X: w * scale, Y: h * scale}
}

func (g *gui) setKeyMapping() {
	g.io.KeyMap(imgui.KeyTab, int(glfw.KeyTab))
	g.io.KeyMap(imgui.KeyLeftArrow, int(glfw.KeyLeft))
	g.io.KeyMap(imgui.KeyRightArrow, int(glfw.KeyRight))
	g.io.KeyMap(imgui.KeyUpArrow, int(glfw.KeyUp))
	g.io.KeyMap(imgui.KeyDownArrow, int(glfw.KeyDown))
	g.io.KeyMap(imgui.KeyPageUp, int(glfw.KeyPageUp))
	g.io.KeyMap(imgui.KeyPageDown, int(glfw.KeyPageDown))
	g.io.KeyMap(imgui.KeyHome, int(glfw.KeyHome))
	g.io.KeyMap(imgui.KeyEnd, int(glfw.KeyEnd))
	g.io.KeyMap(imgui.KeyInsert, int(glfw.KeyInsert))
	g.io.KeyMap(imgui.KeyDelete, int(glfw.KeyDelete))
	g.io.KeyMap(imgui.KeyBackspace, int(glfw.KeyBackspace))
	g.io.KeyMap(imgui.KeySpace, int(glfw.KeySpace))
	g.io.KeyMap(imgui.KeyEnter, int(glfw.KeyEnter))
	g.io.KeyMap(imgui.KeyEscape, int(glfw.KeyEscape))
	g.io.KeyMap(imgui.KeyA, int(glfw.KeyA))
	g.io.KeyMap(imgui.KeyC, int(glfw.KeyC))
	g.io.KeyMap(imgui.KeyV, int(glfw.KeyV))
	g.io.KeyMap(imgui.KeyX, int(glfw.KeyX))
	g.io.KeyMap(imgui.KeyY, int(glfw.KeyY))
	g.io.KeyMap(imgui.KeyZ, int(glfw.KeyZ))
}
