package device

import (
	"errors"
	"fmt"
	"log"
	"os"
	"runtime"
	"strings"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
)

// ErrNoAdapter indicates that no GPU adapter compatible with the
// presentation surface could be acquired.
var ErrNoAdapter = errors.New("no compatible GPU adapter")

// ErrNoDevice indicates that the adapter refused the logical device
// request, typically because the required limits exceed its capabilities.
var ErrNoDevice = errors.New("no logical GPU device")

// Route native wgpu log output through stderr at the requested level.
// The driver reports uncaptured errors and device loss through this
// channel; there is no separate callback surface in the Go bindings.
func init() {
	switch strings.ToUpper(os.Getenv("WGPU_LOG_LEVEL")) {
	case "OFF":
		wgpu.SetLogLevel(wgpu.LogLevelOff)
	case "WARN":
		wgpu.SetLogLevel(wgpu.LogLevelWarn)
	case "INFO":
		wgpu.SetLogLevel(wgpu.LogLevelInfo)
	case "DEBUG":
		wgpu.SetLogLevel(wgpu.LogLevelDebug)
	case "TRACE":
		wgpu.SetLogLevel(wgpu.LogLevelTrace)
	default:
		wgpu.SetLogLevel(wgpu.LogLevelError)
	}
}

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing. This is the default.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

// deviceContext is the implementation of the Device interface.
// It owns the WebGPU instance, surface, adapter, logical device, and queue
// for the lifetime of the application.
type deviceContext struct {
	mu *sync.Mutex

	instance *wgpu.Instance
	surface  *wgpu.Surface
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	surfaceFormat wgpu.TextureFormat
	presentMode   wgpu.PresentMode

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	maxTextureDimension  uint32
	label                string
}

// Device owns the GPU instance, logical device, and command queue, and
// manages the presentation surface configuration. It is created once at
// startup and released once at shutdown, in reverse order of acquisition.
type Device interface {
	// Handle returns the underlying logical WebGPU device.
	//
	// Returns:
	//   - *wgpu.Device: the logical device
	Handle() *wgpu.Device

	// Queue returns the device's command submission queue.
	//
	// Returns:
	//   - *wgpu.Queue: the command queue
	Queue() *wgpu.Queue

	// Surface returns the presentation surface the device renders to.
	//
	// Returns:
	//   - *wgpu.Surface: the presentation surface
	Surface() *wgpu.Surface

	// SurfaceFormat returns the texture format the surface was configured with.
	// Only valid after the first ConfigureSurface call.
	//
	// Returns:
	//   - wgpu.TextureFormat: the configured surface format
	SurfaceFormat() wgpu.TextureFormat

	// ConfigureSurface (re)configures the presentation surface for the given
	// framebuffer size. Must be called once at startup and again whenever the
	// window is resized; the previous configuration is discarded rather than
	// resized in place.
	//
	// Parameters:
	//   - width: the new surface width in pixels
	//   - height: the new surface height in pixels
	ConfigureSurface(width, height int)

	// Poll processes outstanding device work. When wait is true, blocks until
	// the queue is idle; used to complete buffer map operations.
	//
	// Parameters:
	//   - wait: whether to block until all submitted work finishes
	Poll(wait bool)

	// Release frees the queue, device, adapter, surface, and instance, in
	// reverse order of acquisition. The Device must not be used afterwards.
	Release()
}

var _ Device = &deviceContext{}

// New negotiates a GPU adapter against the given presentation surface and
// requests a logical device with an explicit capability-limit set. The
// limits start from the WebGPU spec defaults and are raised only where
// the mip compute pass needs it (see negotiateLimits).
//
// One empty queue submission is issued after creation; on the wgpu-native
// backend this forces initial driver-side setup that otherwise happens
// lazily on the first real submit.
//
// Parameters:
//   - surfaceDescriptor: the platform-specific surface descriptor, typically from Window.SurfaceDescriptor()
//   - options: functional options for device configuration
//
// Returns:
//   - Device: the negotiated device context
//   - error: ErrNoAdapter or ErrNoDevice (wrapped) if negotiation fails
func New(surfaceDescriptor *wgpu.SurfaceDescriptor, options ...DeviceBuilderOption) (Device, error) {
	runtime.LockOSThread()

	d := &deviceContext{
		mu:                  &sync.Mutex{},
		presentMode:         wgpu.PresentModeFifo,
		maxTextureDimension: 4096,
		label:               "mipforge device",
	}
	for _, opt := range options {
		opt(d)
	}

	d.instance = wgpu.CreateInstance(nil)
	d.surface = d.instance.CreateSurface(surfaceDescriptor)

	adapter, err := d.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: d.forceFallbackAdapter,
		CompatibleSurface:    d.surface,
	})
	if err != nil {
		d.Release()
		return nil, fmt.Errorf("%w: %v", ErrNoAdapter, err)
	}
	d.adapter = adapter

	dev, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: d.label,
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: negotiateLimits(d.maxTextureDimension),
		},
	})
	if err != nil {
		d.Release()
		return nil, fmt.Errorf("%w: %v", ErrNoDevice, err)
	}
	d.device = dev
	d.queue = dev.GetQueue()

	// Empty submit to kick the driver into a fully initialized state.
	d.queue.Submit()

	return d, nil
}

// negotiateLimits builds the capability-limit request for the logical
// device. Starts from the WebGPU spec default limits and overrides the
// caps the mip pipeline depends on: the texture dimension bound (which
// also bounds the mip chain depth) and the compute workgroup shape used
// by the downsample shader (8x8, so 64 invocations, and up to
// ceil(maxTextureDimension/8) workgroups per dimension).
//
// Parameters:
//   - maxTextureDimension: the requested 2D texture dimension cap in pixels
//
// Returns:
//   - wgpu.Limits: the limit set to request from the adapter
func negotiateLimits(maxTextureDimension uint32) wgpu.Limits {
	limits := wgpu.DefaultLimits()
	limits.MaxTextureDimension1D = maxTextureDimension
	limits.MaxTextureDimension2D = maxTextureDimension
	limits.MaxComputeWorkgroupSizeX = 8
	limits.MaxComputeWorkgroupSizeY = 8
	limits.MaxComputeWorkgroupSizeZ = 1
	limits.MaxComputeInvocationsPerWorkgroup = 64
	limits.MaxComputeWorkgroupsPerDimension = (maxTextureDimension + 7) / 8
	return limits
}

func (d *deviceContext) Handle() *wgpu.Device {
	return d.device
}

func (d *deviceContext) Queue() *wgpu.Queue {
	return d.queue
}

func (d *deviceContext) Surface() *wgpu.Surface {
	return d.surface
}

func (d *deviceContext) SurfaceFormat() wgpu.TextureFormat {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.surfaceFormat
}

func (d *deviceContext) ConfigureSurface(width, height int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if width <= 0 || height <= 0 {
		// Minimized window; keep the previous configuration.
		return
	}

	capabilities := d.surface.GetCapabilities(d.adapter)
	d.surfaceFormat = capabilities.Formats[0]

	d.surface.Configure(d.adapter, d.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      d.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: d.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})
}

func (d *deviceContext) Poll(wait bool) {
	d.device.Poll(wait, nil)
}

func (d *deviceContext) Release() {
	if d.queue != nil {
		d.queue.Release()
		d.queue = nil
	}
	if d.device != nil {
		d.device.Release()
		d.device = nil
		log.Printf("device: released logical device")
	}
	if d.adapter != nil {
		d.adapter.Release()
		d.adapter = nil
	}
	if d.surface != nil {
		d.surface.Release()
		d.surface = nil
	}
	if d.instance != nil {
		d.instance.Release()
		d.instance = nil
	}
}
