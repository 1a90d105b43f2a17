// Package gputest provides recording fakes for the gpu capabilities.
package gputest

import (
	"errors"

	"github.com/gekko3d/particles/gpu"
	"github.com/go-gl/mathgl/mgl32"
)

var (
	ErrInjected     = errors.New("gputest: injected failure")
	ErrStillMapped  = errors.New("gputest: staging buffer still mapped")
	ErrNotFromFakes = errors.New("gputest: staging buffer not created by this provider")
)

type Buffer struct {
	Data     []byte
	Released bool

	provider *Provider
}

func (b *Buffer) Size() uint64 { return uint64(len(b.Data)) }

func (b *Buffer) Release() {
	if b.Released {
		return
	}
	b.Released = true
	if b.provider != nil {
		b.provider.live--
		b.provider.liveBytes -= uint64(len(b.Data))
	}
}

type StagingBuffer struct {
	Buffer
	Mapped   bool
	Unmapped bool

	failMap   bool
	failUnmap bool
}

func (b *StagingBuffer) Map() ([]byte, error) {
	if b.failMap {
		return nil, ErrInjected
	}
	b.Mapped = true
	return b.Data, nil
}

func (b *StagingBuffer) Unmap() error {
	if b.failUnmap {
		return ErrInjected
	}
	b.Mapped = false
	b.Unmapped = true
	return nil
}

type Primitive struct {
	Released bool
}

func (p *Primitive) Accept(v gpu.Visitor) { v.Visit(p) }
func (p *Primitive) Release()             { p.Released = true }

type Texture struct {
	Path     string
	SRGB     bool
	Released bool
}

func (t *Texture) Release() { t.Released = true }

// Provider is a ResourceProvider whose failure points can be switched on.
type Provider struct {
	FailStaging    bool
	FailMap        bool
	FailUnmap      bool
	FailStructured bool
	FailCounter    bool
	FailPoint      bool
	FailTexture    bool

	Staging    []*StagingBuffer
	Structured []*Buffer
	Counters   []*Buffer
	Points     []*Primitive
	Textures   []*Texture

	live      int
	liveBytes uint64
}

var (
	_ gpu.ResourceProvider = (*Provider)(nil)
	_ gpu.MemoryReporter   = (*Provider)(nil)
)

func (p *Provider) newBuffer(data []byte) Buffer {
	p.live++
	p.liveBytes += uint64(len(data))
	return Buffer{Data: data, provider: p}
}

func (p *Provider) CreateStagingBuffer(size uint64) (gpu.StagingBuffer, error) {
	if p.FailStaging {
		return nil, ErrInjected
	}
	sb := &StagingBuffer{Buffer: p.newBuffer(make([]byte, size)), failMap: p.FailMap, failUnmap: p.FailUnmap}
	p.Staging = append(p.Staging, sb)
	return sb, nil
}

func (p *Provider) CreateStructuredBuffer(staging gpu.StagingBuffer, numElements, elementSize uint64) (gpu.Buffer, error) {
	if p.FailStructured {
		return nil, ErrInjected
	}
	sb, ok := staging.(*StagingBuffer)
	if !ok {
		return nil, ErrNotFromFakes
	}
	if sb.Mapped {
		return nil, ErrStillMapped
	}
	data := make([]byte, numElements*elementSize)
	copy(data, sb.Data)
	b := p.newBuffer(data)
	p.Structured = append(p.Structured, &b)
	return &b, nil
}

func (p *Provider) CreateByteAddressBuffer(size uint64) (gpu.Buffer, error) {
	if p.FailCounter {
		return nil, ErrInjected
	}
	b := p.newBuffer(make([]byte, size))
	p.Counters = append(p.Counters, &b)
	return &b, nil
}

func (p *Provider) CreatePoint() (gpu.Primitive, error) {
	if p.FailPoint {
		return nil, ErrInjected
	}
	prim := &Primitive{}
	p.Points = append(p.Points, prim)
	return prim, nil
}

func (p *Provider) LoadTexture(path string, srgb bool) (gpu.Texture, error) {
	if p.FailTexture {
		return nil, ErrInjected
	}
	tex := &Texture{Path: path, SRGB: srgb}
	p.Textures = append(p.Textures, tex)
	return tex, nil
}

// LiveBuffers counts buffers created and not yet released.
func (p *Provider) LiveBuffers() int { return p.live }

func (p *Provider) AllocatedBytes() uint64 { return p.liveBytes }

// Sink records every CommandSink call in order.
type Sink struct {
	Calls []string

	Materials        []gpu.Material
	Textures         []gpu.Texture
	Constants        [][3]float32
	DrawTransforms   []mgl32.Mat4
	TransformBuffers []*gpu.StructuredBuffer
	Dispatches       []uint32
}

var _ gpu.CommandSink = (*Sink)(nil)

func (s *Sink) SetMaterial(m gpu.Material) {
	s.Calls = append(s.Calls, "SetMaterial")
	s.Materials = append(s.Materials, m)
}

func (s *Sink) SetTexture(t gpu.Texture) {
	s.Calls = append(s.Calls, "SetTexture")
	s.Textures = append(s.Textures, t)
}

func (s *Sink) SetConstants(c [3]float32) {
	s.Calls = append(s.Calls, "SetConstants")
	s.Constants = append(s.Constants, c)
}

func (s *Sink) SetDrawTransform(mvp mgl32.Mat4) {
	s.Calls = append(s.Calls, "SetDrawTransform")
	s.DrawTransforms = append(s.DrawTransforms, mvp)
}

func (s *Sink) SetTransformBuffer(b *gpu.StructuredBuffer) {
	s.Calls = append(s.Calls, "SetTransformBuffer")
	s.TransformBuffers = append(s.TransformBuffers, b)
}

func (s *Sink) DispatchMesh(groupCount uint32) {
	s.Calls = append(s.Calls, "DispatchMesh")
	s.Dispatches = append(s.Dispatches, groupCount)
}

// Visitor counts draws. When Sink is set, each draw is logged there too.
type Visitor struct {
	Sink   *Sink
	Visits int
}

func (v *Visitor) Visit(p gpu.Primitive) {
	v.Visits++
	if v.Sink != nil {
		v.Sink.Calls = append(v.Sink.Calls, "Draw")
	}
}
