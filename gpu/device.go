// Package gpu describes the narrow graphics capabilities the particle
// renderer depends on, and the staging upload protocol built on them.
//
// Backends implement ResourceProvider (allocation) and CommandSink
// (binding and draw submission). Both are used from a single submission
// goroutine; nothing in this package is safe for concurrent use.
package gpu

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Buffer is a GPU allocation owned by the caller until Release.
type Buffer interface {
	Size() uint64
	Release()
}

// StagingBuffer is CPU-writable memory used to move bytes to the GPU.
type StagingBuffer interface {
	Buffer
	// Map exposes the buffer for CPU writes. The returned slice is valid
	// until Unmap.
	Map() ([]byte, error)
	// Unmap commits the written bytes for GPU consumption.
	Unmap() error
}

// Primitive is shared geometry drawn once per visit.
type Primitive interface {
	Accept(v Visitor)
	Release()
}

// Texture is a sampled image.
type Texture interface {
	Release()
}

// Visitor issues the draw for a primitive. The renderer treats it as opaque.
type Visitor interface {
	Visit(p Primitive)
}

// ResourceProvider creates GPU resources.
type ResourceProvider interface {
	CreateStagingBuffer(size uint64) (StagingBuffer, error)
	// CreateStructuredBuffer builds a GPU-resident buffer from staged bytes.
	CreateStructuredBuffer(staging StagingBuffer, numElements, elementSize uint64) (Buffer, error)
	CreateByteAddressBuffer(size uint64) (Buffer, error)
	CreatePoint() (Primitive, error)
	LoadTexture(path string, srgb bool) (Texture, error)
}

// Material is the constant colour block bound before drawing particles.
type Material struct {
	Diffuse  [4]float32
	Emissive [4]float32
}

var MaterialWhite = Material{
	Diffuse: [4]float32{1, 1, 1, 1},
}

// CommandSink records binding and draw state for one frame.
type CommandSink interface {
	SetMaterial(m Material)
	SetTexture(t Texture)
	// SetConstants binds the per-frame root constants
	// {field of view, particle size, particle count}.
	SetConstants(constants [3]float32)
	// SetDrawTransform binds the model-view-projection matrix for the next draw.
	SetDrawTransform(mvp mgl32.Mat4)
	// SetTransformBuffer binds the structured buffer read by the batch dispatch.
	SetTransformBuffer(b *StructuredBuffer)
	// DispatchMesh launches groupCount groups of the batch pipeline.
	DispatchMesh(groupCount uint32)
}

// MemoryReporter is implemented by providers that track live GPU bytes.
type MemoryReporter interface {
	AllocatedBytes() uint64
}
