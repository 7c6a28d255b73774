package exporter

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"log"
	"os"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/mipforge/mipforge/common"
	"github.com/mipforge/mipforge/device"
	"github.com/mipforge/mipforge/renderer/mipchain"
)

// exporter is the implementation of the Exporter interface.
type exporter struct {
	device device.Device

	// encodePool manages a bounded set of reusable goroutines for the parallel
	// PNG encode phase. GPU readback stays on the calling thread because it
	// drives device polling; only the CPU-side encoding fans out.
	encodePool worker.DynamicWorkerPool

	encodeWorkers int
}

// Exporter reads every level of a mip chain back from the GPU and writes
// each one as a PNG file. Readback is sequential per level; PNG encoding
// and file writing run in parallel on a worker pool.
type Exporter interface {
	// SaveMipLevels exports all levels of the chain to basePath.mip<N>.png,
	// where N is the mip level index. Existing files are overwritten. All
	// levels are attempted even when some fail; the errors are joined.
	//
	// Parameters:
	//   - chain: the mip chain to export
	//   - basePath: the output path prefix, e.g. "output" for output.mip0.png
	//
	// Returns:
	//   - error: joined errors for every level that failed to read back or encode
	SaveMipLevels(chain mipchain.MipChain, basePath string) error
}

var _ Exporter = &exporter{}

// New creates an exporter reading from the given device context.
//
// Parameters:
//   - dev: the device context owning the queue used for readback
//   - options: functional options for exporter configuration
//
// Returns:
//   - Exporter: the configured exporter
func New(dev device.Device, options ...ExporterBuilderOption) Exporter {
	e := &exporter{
		device: dev,
	}
	for _, opt := range options {
		opt(e)
	}
	e.encodeWorkers = common.Coalesce(e.encodeWorkers, 4)
	e.encodePool = worker.NewDynamicWorkerPool(e.encodeWorkers, 256, 1*time.Second)
	return e
}

func (e *exporter) SaveMipLevels(chain mipchain.MipChain, basePath string) error {
	start := time.Now()
	levels := chain.Levels()

	type levelImage struct {
		level uint32
		img   *image.RGBA
	}

	images := make([]levelImage, 0, levels)
	var errs []error
	for level := uint32(0); level < levels; level++ {
		img, err := e.readLevel(chain, level)
		if err != nil {
			errs = append(errs, fmt.Errorf("exporter: level %d: %v", level, err))
			continue
		}
		images = append(images, levelImage{level: level, img: img})
	}

	// Parallel PNG encode. The pool has no barrier of its own, so a
	// WaitGroup tracks task completion.
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i, li := range images {
		wg.Add(1)
		liCap := li // capture for closure
		e.encodePool.SubmitTask(worker.Task{
			ID: i,
			Do: func() (any, error) {
				defer wg.Done()
				path := LevelPath(basePath, liCap.level)
				if err := writePNG(path, liCap.img); err != nil {
					mu.Lock()
					errs = append(errs, fmt.Errorf("exporter: level %d: %v", liCap.level, err))
					mu.Unlock()
				}
				return nil, nil
			},
		})
	}
	wg.Wait()

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	log.Printf("exporter: saved %d mip levels to %s.mip*.png in %s", levels, basePath, time.Since(start).Round(time.Millisecond))
	return nil
}

// readLevel copies one mip level into a mappable staging buffer and unpacks
// the driver-aligned rows into a tightly packed RGBA image.
func (e *exporter) readLevel(chain mipchain.MipChain, level uint32) (*image.RGBA, error) {
	width, height := mipchain.LevelExtent(chain.Width(), chain.Height(), level)
	bytesPerRow := AlignedBytesPerRow(width)
	size := uint64(bytesPerRow * height)

	staging, err := e.device.Handle().CreateBuffer(&wgpu.BufferDescriptor{
		Label: fmt.Sprintf("mip level %d readback", level),
		Size:  size,
		Usage: wgpu.BufferUsageCopyDst | wgpu.BufferUsageMapRead,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readback buffer: %v", err)
	}
	defer staging.Release()

	encoder, err := e.device.Handle().CreateCommandEncoder(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create encoder: %v", err)
	}
	defer encoder.Release()

	encoder.CopyTextureToBuffer(
		&wgpu.ImageCopyTexture{
			Texture:  chain.Texture(),
			MipLevel: level,
			Origin:   wgpu.Origin3D{X: 0, Y: 0, Z: 0},
			Aspect:   wgpu.TextureAspectAll,
		},
		&wgpu.ImageCopyBuffer{
			Buffer: staging,
			Layout: wgpu.TextureDataLayout{
				Offset:       0,
				BytesPerRow:  bytesPerRow,
				RowsPerImage: height,
			},
		},
		&wgpu.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
	)

	commandBuffer, err := encoder.Finish(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to finish encoder: %v", err)
	}
	defer commandBuffer.Release()
	e.device.Queue().Submit(commandBuffer)

	done := make(chan error, 1)
	err = staging.MapAsync(wgpu.MapModeRead, 0, size, func(status wgpu.BufferMapAsyncStatus) {
		if status != wgpu.BufferMapAsyncStatusSuccess {
			done <- fmt.Errorf("failed to map readback buffer: %v", status)
		} else {
			done <- nil
		}
	})
	if err != nil {
		return nil, err
	}

	e.device.Poll(true)
	if err := <-done; err != nil {
		return nil, err
	}

	mapped := staging.GetMappedRange(0, uint(size))
	pixels := UnpackRows(mapped, width, height, bytesPerRow)
	staging.Unmap()

	img := &image.RGBA{
		Pix:    pixels,
		Stride: int(4 * width),
		Rect:   image.Rect(0, 0, int(width), int(height)),
	}
	return img, nil
}

func writePNG(path string, img *image.RGBA) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %q: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("failed to encode %q: %v", path, err)
	}
	return nil
}

// AlignedBytesPerRow returns the row pitch for a texture-to-buffer copy of
// width RGBA pixels, rounded up to the 256 byte alignment WebGPU requires.
//
// Parameters:
//   - width: the row width in pixels
//
// Returns:
//   - uint32: the aligned row pitch in bytes
func AlignedBytesPerRow(width uint32) uint32 {
	return (width*4 + 255) & ^uint32(255)
}

// UnpackRows copies driver-aligned readback data into a tightly packed RGBA
// slice, dropping the per-row padding.
//
// Parameters:
//   - data: the mapped readback data, bytesPerRow bytes per row
//   - width: the image width in pixels
//   - height: the image height in pixels
//   - bytesPerRow: the aligned row pitch of data
//
// Returns:
//   - []byte: tightly packed RGBA pixels, 4*width*height bytes
func UnpackRows(data []byte, width, height, bytesPerRow uint32) []byte {
	tight := make([]byte, 4*width*height)
	rowBytes := 4 * width
	for row := uint32(0); row < height; row++ {
		src := data[row*bytesPerRow : row*bytesPerRow+rowBytes]
		dst := tight[row*rowBytes : (row+1)*rowBytes]
		copy(dst, src)
	}
	return tight
}

// LevelPath returns the output file path for one mip level.
//
// Parameters:
//   - basePath: the output path prefix
//   - level: the mip level index
//
// Returns:
//   - string: basePath.mip<level>.png
func LevelPath(basePath string, level uint32) string {
	return fmt.Sprintf("%s.mip%d.png", basePath, level)
}
