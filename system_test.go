package particles

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/gekko3d/particles/core"
	"github.com/gekko3d/particles/gpu"
	"github.com/gekko3d/particles/gpu/gputest"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingCollaborator struct {
	samples     []int
	populations []int
}

func (r *recordingCollaborator) BeginSample(population int) {
	r.samples = append(r.samples, population)
}

func (r *recordingCollaborator) RecordPopulation(population int) {
	r.populations = append(r.populations, population)
}

func testCamera() *core.CameraState {
	return DefaultConfig().Camera.NewCamera()
}

func newTestSystem(size float32, accel, perp bool) *ParticleSystem {
	return NewParticleSystemBuilder().
		WithParticleSize(size).
		WithAcceleration(accel).
		WithPerpendicular(perp).
		WithRand(core.NewRand(42)).
		Build()
}

func decodeTransforms(t *testing.T, data []byte) []mgl32.Mat4 {
	t.Helper()
	require.Zero(t, len(data)%MatrixSize)
	out := make([]mgl32.Mat4, len(data)/MatrixSize)
	for i := range out {
		for j := 0; j < 16; j++ {
			bits := binary.LittleEndian.Uint32(data[i*MatrixSize+j*4:])
			out[i][j] = math.Float32frombits(bits)
		}
	}
	return out
}

func TestNewParticleSystem_InitialPopulation(t *testing.T) {
	s := NewParticleSystem(0.5, false, false)
	assert.Equal(t, DefaultInitialParticles, s.Len())
	assert.Equal(t, core.Vector3{X: 0, Y: 3, Z: 0}, s.SpawnOrigin())
	for _, p := range s.Positions() {
		assert.Equal(t, mgl32.Vec3{0, 3, 0}, p)
	}
}

func TestParticleSystem_UpdateMovesBySpeedTimesDirection(t *testing.T) {
	s := newTestSystem(0.5, false, false)
	require.Equal(t, 500, s.Len())

	s.Update(1.0, testCamera(), nil, nil)

	origin := s.SpawnOrigin().Vec3()
	for i := 0; i < s.Len(); i++ {
		p := s.Particle(i)
		assert.Equal(t, float32(core.BaseSpeed), p.Speed())
		want := origin.Add(p.Direction().Vec3().Mul(core.BaseSpeed))
		assert.True(t, p.Position().ApproxEqualThreshold(want, 1e-5), "particle %d at %v, want %v", i, p.Position(), want)
	}
}

func TestParticleSystem_GrowthAfterTenSeconds(t *testing.T) {
	s := newTestSystem(0.5, false, false)
	collab := &recordingCollaborator{}
	cam := testCamera()

	for i := 0; i < 9; i++ {
		s.Update(1.0, cam, collab, collab)
		assert.Equal(t, 500, s.Len())
	}
	assert.Empty(t, collab.populations)

	s.Update(1.0, cam, collab, collab)
	assert.Equal(t, 1000, s.Len())
	assert.Equal(t, []int{500}, collab.populations)
	assert.Equal(t, []int{500}, collab.samples)
	assert.InDelta(t, 0, s.AccumulatedTime(), 1e-6)

	// new particles start at the spawn origin
	newest := s.Particle(999)
	assert.Equal(t, s.SpawnOrigin().Vec3(), newest.Position())
}

func TestParticleSystem_GrowthCarriesRemainder(t *testing.T) {
	s := NewParticleSystemBuilder().
		WithInitialParticles(4).
		WithGrowthInterval(1).
		WithRand(core.NewRand(1)).
		Build()

	s.Update(1.5, testCamera(), nil, nil)
	assert.Equal(t, 8, s.Len())
	assert.InDelta(t, 0.5, s.AccumulatedTime(), 1e-6)

	s.Update(0.5, testCamera(), nil, nil)
	assert.Equal(t, 16, s.Len())
}

func TestParticleSystem_GrowthMonotonic(t *testing.T) {
	s := NewParticleSystemBuilder().
		WithInitialParticles(3).
		WithGrowthInterval(0.75).
		WithWorkers(4).
		WithRand(core.NewRand(7)).
		Build()
	collab := &recordingCollaborator{}

	prev := s.Len()
	for _, dt := range []float32{0.1, 0.5, 0.3, 0, 0.9, 0.2, 0.75, 0.05, 1.0} {
		s.Update(dt, testCamera(), collab, collab)
		n := s.Len()
		assert.True(t, n == prev || n == 2*prev, "population went from %d to %d", prev, n)
		prev = n
	}
	for i, pre := range collab.populations {
		assert.Equal(t, pre, collab.samples[i])
	}
	assert.Equal(t, 3<<len(collab.populations), s.Len())
}

func TestParticleSystem_RenderRequiresInitialize(t *testing.T) {
	s := newTestSystem(0.1, false, false)
	sink := &gputest.Sink{}
	provider := &gputest.Provider{}

	assert.ErrorIs(t, s.Render(sink, provider, &gputest.Visitor{}, testCamera(), false), ErrNotInitialized)
	assert.ErrorIs(t, s.Render(sink, provider, &gputest.Visitor{}, testCamera(), true), ErrNotInitialized)
	assert.Empty(t, sink.Calls)
}

func TestParticleSystem_InitializeFailures(t *testing.T) {
	s := newTestSystem(0.1, false, false)

	err := s.Initialize(&gputest.Provider{FailPoint: true})
	assert.ErrorIs(t, err, gputest.ErrInjected)

	provider := &gputest.Provider{FailTexture: true}
	err = s.Initialize(provider)
	assert.ErrorIs(t, err, gputest.ErrInjected)
	require.Len(t, provider.Points, 1)
	assert.True(t, provider.Points[0].Released)

	assert.ErrorIs(t, s.Render(&gputest.Sink{}, provider, &gputest.Visitor{}, testCamera(), false), ErrNotInitialized)
}

func TestParticleSystem_RenderTraditional(t *testing.T) {
	s := newTestSystem(0.5, true, true)
	provider := &gputest.Provider{}
	require.NoError(t, s.Initialize(provider))
	require.Len(t, provider.Textures, 1)
	assert.True(t, provider.Textures[0].SRGB)

	cam := testCamera()
	s.Update(0.016, cam, nil, nil)

	sink := &gputest.Sink{}
	visitor := &gputest.Visitor{Sink: sink}
	require.NoError(t, s.Render(sink, provider, visitor, cam, false))

	assert.Equal(t, []string{"SetMaterial", "SetTexture", "SetConstants", "SetDrawTransform", "Draw"}, sink.Calls[:5])
	assert.Equal(t, gpu.MaterialWhite, sink.Materials[0])
	assert.Equal(t, [3]float32{45, 0.5, 500}, sink.Constants[0])
	assert.Equal(t, 500, visitor.Visits)
	assert.Equal(t, s.ModelViewProjections(), sink.DrawTransforms)
	assert.Empty(t, sink.Dispatches)
	assert.Zero(t, provider.LiveBuffers())
}

func TestParticleSystem_RenderBatch(t *testing.T) {
	s := newTestSystem(0.5, false, true)
	provider := &gputest.Provider{}
	require.NoError(t, s.Initialize(provider))

	cam := testCamera()
	s.Update(0.5, cam, nil, nil)

	sink := &gputest.Sink{}
	visitor := &gputest.Visitor{Sink: sink}
	require.NoError(t, s.Render(sink, provider, visitor, cam, true))

	assert.Equal(t, []string{"SetMaterial", "SetTexture", "SetConstants", "SetTransformBuffer", "DispatchMesh"}, sink.Calls)
	assert.Equal(t, []uint32{500}, sink.Dispatches)
	assert.Zero(t, visitor.Visits)

	buf := sink.TransformBuffers[0]
	assert.Same(t, s.Transforms(), buf)
	assert.Equal(t, uint64(500), buf.NumElements())
	assert.Equal(t, uint64(MatrixSize), buf.ElementSize())
	assert.Equal(t, uint64(gpu.CounterBufferSize), buf.Counter().Size())
}

func TestParticleSystem_BatchMatchesTraditional(t *testing.T) {
	s := newTestSystem(0.25, true, true)
	provider := &gputest.Provider{}
	require.NoError(t, s.Initialize(provider))

	cam := testCamera()
	for i := 0; i < 3; i++ {
		s.Update(0.1, cam, nil, nil)
	}

	traditional := &gputest.Sink{}
	require.NoError(t, s.Render(traditional, provider, &gputest.Visitor{}, cam, false))

	batch := &gputest.Sink{}
	require.NoError(t, s.Render(batch, provider, &gputest.Visitor{}, cam, true))

	uploaded := provider.Structured[len(provider.Structured)-1].Data
	assert.Equal(t, traditional.DrawTransforms, decodeTransforms(t, uploaded))
}

func TestParticleSystem_UploadFailureKeepsPreviousBuffer(t *testing.T) {
	s := newTestSystem(0.5, false, false)
	provider := &gputest.Provider{}
	require.NoError(t, s.Initialize(provider))
	s.Update(1, testCamera(), nil, nil)

	first, err := s.UploadTransforms(provider)
	require.NoError(t, err)
	live := provider.LiveBuffers()

	for _, fail := range []func(p *gputest.Provider){
		func(p *gputest.Provider) { p.FailStaging = true },
		func(p *gputest.Provider) { p.FailMap = true },
		func(p *gputest.Provider) { p.FailUnmap = true },
		func(p *gputest.Provider) { p.FailStructured = true },
		func(p *gputest.Provider) { p.FailCounter = true },
	} {
		failing := &gputest.Provider{}
		fail(failing)

		sink := &gputest.Sink{}
		err := s.Render(sink, failing, &gputest.Visitor{}, testCamera(), true)
		assert.ErrorIs(t, err, gputest.ErrInjected)
		assert.Same(t, first, s.Transforms())
		assert.Empty(t, sink.Dispatches)
		assert.Zero(t, failing.LiveBuffers())
	}
	assert.Equal(t, live, provider.LiveBuffers())
	assert.False(t, provider.Structured[0].Released)
}

func TestParticleSystem_UploadReplacesAndReleases(t *testing.T) {
	s := newTestSystem(0.5, false, false)
	provider := &gputest.Provider{}

	first, err := s.UploadTransforms(provider)
	require.NoError(t, err)
	second, err := s.UploadTransforms(provider)
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	assert.True(t, provider.Structured[0].Released)
	assert.True(t, provider.Counters[0].Released)
	assert.Equal(t, 2, provider.LiveBuffers())

	s.Release()
	assert.Zero(t, provider.LiveBuffers())
	assert.Nil(t, s.Transforms())
}

func TestParticleSystem_Release(t *testing.T) {
	s := newTestSystem(0.5, false, false)
	provider := &gputest.Provider{}
	require.NoError(t, s.Initialize(provider))

	s.Release()
	assert.True(t, provider.Points[0].Released)
	assert.True(t, provider.Textures[0].Released)
	assert.ErrorIs(t, s.Render(&gputest.Sink{}, provider, &gputest.Visitor{}, testCamera(), false), ErrNotInitialized)
}

func TestDispatchGroups(t *testing.T) {
	assert.Equal(t, uint32(0), DispatchGroups(0))
	assert.Equal(t, uint32(1), DispatchGroups(1))
	assert.Equal(t, uint32(1000), DispatchGroups(1000))
}
