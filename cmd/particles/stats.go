package main

import (
	"github.com/gekko3d/particles/gpu"
	"github.com/go-gl/mathgl/mgl32"
)

// frameStats stands in for a command list when running headless. It counts
// what a frame would have submitted.
type frameStats struct {
	binds      int
	draws      int
	dispatches int
	groups     uint32
	last       *gpu.StructuredBuffer
}

var (
	_ gpu.CommandSink = (*frameStats)(nil)
	_ gpu.Visitor     = (*frameStats)(nil)
)

func (s *frameStats) reset() { *s = frameStats{} }

func (s *frameStats) SetMaterial(gpu.Material)    { s.binds++ }
func (s *frameStats) SetTexture(gpu.Texture)      { s.binds++ }
func (s *frameStats) SetConstants([3]float32)     { s.binds++ }
func (s *frameStats) SetDrawTransform(mgl32.Mat4) { s.binds++ }

func (s *frameStats) SetTransformBuffer(b *gpu.StructuredBuffer) {
	s.binds++
	s.last = b
}

func (s *frameStats) DispatchMesh(groupCount uint32) {
	s.dispatches++
	s.groups += groupCount
}

func (s *frameStats) Visit(gpu.Primitive) { s.draws++ }
