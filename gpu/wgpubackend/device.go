// Package wgpubackend implements the gpu capabilities on a headless WebGPU
// device.
package wgpubackend

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/particles"
	"github.com/gekko3d/particles/gpu"
	"github.com/google/uuid"
)

var (
	ErrNotMappable    = errors.New("wgpubackend: staging buffer can only be mapped once")
	ErrForeignStaging = errors.New("wgpubackend: staging buffer belongs to another device")
)

var (
	_ gpu.ResourceProvider = (*Device)(nil)
	_ gpu.MemoryReporter   = (*Device)(nil)
)

// Device owns a WebGPU device and queue and tracks the bytes of every
// buffer and texture it has handed out.
type Device struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	logger   particles.Logger

	allocated atomic.Uint64
}

// Open requests a high performance adapter without a surface.
func Open(logger particles.Logger) (*Device, error) {
	if logger == nil {
		logger = particles.NewNopLogger()
	}

	instance := wgpu.CreateInstance(nil)
	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		instance.Release()
		return nil, fmt.Errorf("request adapter: %w", err)
	}

	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Particles Device",
	})
	if err != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("request device: %w", err)
	}

	logger.Infof("opened headless WebGPU device")

	return &Device{
		instance: instance,
		adapter:  adapter,
		device:   device,
		queue:    device.GetQueue(),
		logger:   logger,
	}, nil
}

func (d *Device) Close() {
	if d.queue != nil {
		d.queue.Release()
		d.queue = nil
	}
	if d.device != nil {
		d.device.Release()
		d.device = nil
	}
	if d.adapter != nil {
		d.adapter.Release()
		d.adapter = nil
	}
	if d.instance != nil {
		d.instance.Release()
		d.instance = nil
	}
}

func (d *Device) AllocatedBytes() uint64 { return d.allocated.Load() }

func (d *Device) track(size uint64) { d.allocated.Add(size) }

func (d *Device) untrack(size uint64) { d.allocated.Add(^(size - 1)) }

// alignedSize rounds size up to the 4 byte copy alignment. Empty buffers
// still occupy one word.
func alignedSize(size uint64) uint64 {
	if size == 0 {
		return 4
	}
	if size%4 != 0 {
		size += 4 - size%4
	}
	return size
}

func label(kind string) string {
	return kind + " " + uuid.NewString()[:8]
}

func (d *Device) createBuffer(kind string, size uint64, usage wgpu.BufferUsage, mapped bool) (*buffer, error) {
	padded := alignedSize(size)
	buf, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            label(kind),
		Size:             padded,
		Usage:            usage,
		MappedAtCreation: mapped,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s buffer of %d bytes: %w", kind, padded, err)
	}
	d.track(padded)
	return &buffer{device: d, buf: buf, size: size, padded: padded}, nil
}

// CreateStagingBuffer returns a CPU-writable buffer that is already mapped.
func (d *Device) CreateStagingBuffer(size uint64) (gpu.StagingBuffer, error) {
	b, err := d.createBuffer("Staging", size, wgpu.BufferUsageMapWrite|wgpu.BufferUsageCopySrc, true)
	if err != nil {
		return nil, err
	}
	return &stagingBuffer{buffer: *b, mapped: true}, nil
}

// CreateStructuredBuffer copies the staged bytes into a storage buffer. The
// copy is submitted before returning, so it is ordered ahead of any later
// submission that reads the buffer.
func (d *Device) CreateStructuredBuffer(staging gpu.StagingBuffer, numElements, elementSize uint64) (gpu.Buffer, error) {
	src, ok := staging.(*stagingBuffer)
	if !ok || src.device != d {
		return nil, ErrForeignStaging
	}

	size := numElements * elementSize
	dst, err := d.createBuffer("Structured", size, wgpu.BufferUsageStorage|wgpu.BufferUsageCopyDst|wgpu.BufferUsageCopySrc, false)
	if err != nil {
		return nil, err
	}
	if size == 0 {
		return dst, nil
	}

	encoder, err := d.device.CreateCommandEncoder(nil)
	if err != nil {
		dst.Release()
		return nil, fmt.Errorf("create command encoder: %w", err)
	}
	defer encoder.Release()

	if err := encoder.CopyBufferToBuffer(src.buf, 0, dst.buf, 0, min(dst.padded, src.padded)); err != nil {
		dst.Release()
		return nil, fmt.Errorf("copy staged bytes: %w", err)
	}

	cmd, err := encoder.Finish(nil)
	if err != nil {
		dst.Release()
		return nil, fmt.Errorf("finish upload commands: %w", err)
	}
	defer cmd.Release()

	d.queue.Submit(cmd)
	return dst, nil
}

func (d *Device) CreateByteAddressBuffer(size uint64) (gpu.Buffer, error) {
	return d.createBuffer("Counter", size, wgpu.BufferUsageStorage|wgpu.BufferUsageCopyDst, false)
}

// CreatePoint uploads a single vertex at the origin.
func (d *Device) CreatePoint() (gpu.Primitive, error) {
	contents := wgpu.ToBytes([]float32{0, 0, 0})
	buf, err := d.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    label("Point"),
		Contents: contents,
		Usage:    wgpu.BufferUsageVertex,
	})
	if err != nil {
		return nil, fmt.Errorf("create point vertex buffer: %w", err)
	}
	size := uint64(len(contents))
	d.track(size)
	return &primitive{buffer: buffer{device: d, buf: buf, size: size, padded: size}}, nil
}

// LoadTexture decodes an image file and uploads it as an RGBA8 texture.
func (d *Device) LoadTexture(path string, srgb bool) (gpu.Texture, error) {
	data, err := gpu.LoadTextureFile(path)
	if err != nil {
		return nil, err
	}

	format := wgpu.TextureFormatRGBA8Unorm
	if srgb {
		format = wgpu.TextureFormatRGBA8UnormSrgb
	}
	extent := wgpu.Extent3D{
		Width:              data.Width,
		Height:             data.Height,
		DepthOrArrayLayers: 1,
	}

	tex, err := d.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         label("Texture"),
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension:     wgpu.TextureDimension2D,
		Size:          extent,
		Format:        format,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return nil, fmt.Errorf("create texture for %s: %w", path, err)
	}

	err = d.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  tex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		data.Texels,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  data.BytesPerRow(),
			RowsPerImage: data.Height,
		},
		&extent,
	)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("write texels for %s: %w", path, err)
	}

	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("create texture view for %s: %w", path, err)
	}

	size := uint64(len(data.Texels))
	d.track(size)
	d.logger.Debugf("loaded texture %s (%dx%d)", path, data.Width, data.Height)
	return &texture{device: d, tex: tex, view: view, size: size}, nil
}
