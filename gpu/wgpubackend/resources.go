package wgpubackend

import (
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/particles/gpu"
)

type buffer struct {
	device *Device
	buf    *wgpu.Buffer
	size   uint64
	padded uint64
}

func (b *buffer) Size() uint64 { return b.size }

func (b *buffer) Release() {
	if b.buf == nil {
		return
	}
	b.buf.Release()
	b.buf = nil
	b.device.untrack(b.padded)
}

type stagingBuffer struct {
	buffer
	mapped bool
}

// Map returns the range mapped at creation. After Unmap the buffer is
// write-once and cannot be mapped again.
func (b *stagingBuffer) Map() ([]byte, error) {
	if !b.mapped || b.buf == nil {
		return nil, ErrNotMappable
	}
	return b.buf.GetMappedRange(0, uint(b.padded))[:b.size], nil
}

func (b *stagingBuffer) Unmap() error {
	if !b.mapped {
		return nil
	}
	b.mapped = false
	return b.buf.Unmap()
}

type primitive struct {
	buffer
}

func (p *primitive) Accept(v gpu.Visitor) { v.Visit(p) }

type texture struct {
	device *Device
	tex    *wgpu.Texture
	view   *wgpu.TextureView
	size   uint64
}

func (t *texture) Release() {
	if t.tex == nil {
		return
	}
	t.view.Release()
	t.tex.Release()
	t.view = nil
	t.tex = nil
	t.device.untrack(t.size)
}
