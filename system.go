package particles

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/gekko3d/particles/core"
	"github.com/gekko3d/particles/gpu"
	"github.com/gekko3d/particles/internal/parallel"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	DefaultInitialParticles         = 500
	DefaultGrowthInterval   float32 = 10

	// ParticlesPerGroup is the mesh shader thread group size of the batch path.
	ParticlesPerGroup = 1
	// MatrixSize is the byte size of one serialized model-view-projection matrix.
	MatrixSize = 16 * 4
)

var DefaultSpawnOrigin = [3]float32{0, 3, 0}

var ErrNotInitialized = errors.New("particles: system not initialized")

// SampleTracker is told when a new sampling bucket starts, tagged with the
// population size before growth.
type SampleTracker interface {
	BeginSample(population int)
}

// PopulationRecorder receives the population size at each growth boundary.
type PopulationRecorder interface {
	RecordPopulation(population int)
}

type ParticleSystem struct {
	particles []core.Particle

	spawnOrigin     core.Vector3
	accumulatedTime float32
	growthInterval  float32

	particleSize         float32
	accelerationEnabled  bool
	perpendicularEnabled bool

	texturePath string
	workers     int
	rand        core.Rand
	logger      Logger

	point      gpu.Primitive
	texture    gpu.Texture
	transforms *gpu.StructuredBuffer
}

// NewParticleSystem spawns the default population at the default origin.
func NewParticleSystem(particleSize float32, accelerationEnabled, perpendicularEnabled bool) *ParticleSystem {
	return NewParticleSystemBuilder().
		WithParticleSize(particleSize).
		WithAcceleration(accelerationEnabled).
		WithPerpendicular(perpendicularEnabled).
		Build()
}

// Initialize acquires the point primitive and default texture. It must
// succeed before Render is called.
func (s *ParticleSystem) Initialize(provider gpu.ResourceProvider) error {
	point, err := provider.CreatePoint()
	if err != nil {
		return fmt.Errorf("create point primitive: %w", err)
	}
	texture, err := provider.LoadTexture(s.texturePath, true)
	if err != nil {
		point.Release()
		return fmt.Errorf("load texture %s: %w", s.texturePath, err)
	}

	s.releaseDrawResources()
	s.point = point
	s.texture = texture
	return nil
}

// Update moves every particle in parallel, then handles growth on the
// caller's goroutine. Either collaborator may be nil.
func (s *ParticleSystem) Update(deltaTime float32, camera core.Camera, sampler SampleTracker, recorder PopulationRecorder) {
	particles := s.particles
	accel, perp := s.accelerationEnabled, s.perpendicularEnabled
	parallel.ForEach(len(particles), s.workers, func(i int) {
		particles[i].Update(deltaTime, camera, accel, perp)
	})

	s.accumulatedTime += deltaTime
	if s.accumulatedTime < s.growthInterval {
		return
	}

	population := len(s.particles)
	if recorder != nil {
		recorder.RecordPopulation(population)
	}
	s.accumulatedTime -= s.growthInterval
	s.spawn(population)
	if sampler != nil {
		sampler.BeginSample(population)
	}
	if s.logger.DebugEnabled() {
		s.logger.Debugf("population grew from %d to %d", population, len(s.particles))
	}
}

func (s *ParticleSystem) spawn(count int) {
	s.particles = slices.Grow(s.particles, count)
	for range count {
		s.particles = append(s.particles, core.NewParticle(s.spawnOrigin, s.particleSize, s.rand))
	}
}

// Render binds the shared state and draws the population either one
// particle at a time or as a single uploaded batch.
func (s *ParticleSystem) Render(sink gpu.CommandSink, provider gpu.ResourceProvider, visitor gpu.Visitor, camera core.Camera, useBatchPath bool) error {
	if s.point == nil || s.texture == nil {
		return ErrNotInitialized
	}

	sink.SetMaterial(gpu.MaterialWhite)
	sink.SetTexture(s.texture)
	sink.SetConstants([3]float32{camera.FieldOfView(), s.particleSize, float32(len(s.particles))})

	if !useBatchPath {
		for i := range s.particles {
			sink.SetDrawTransform(s.particles[i].ProjectedTransform())
			s.point.Accept(visitor)
		}
		return nil
	}

	buf, err := s.UploadTransforms(provider)
	if err != nil {
		s.logger.Warnf("batch upload of %d transforms failed: %v", len(s.particles), err)
		return err
	}
	sink.SetTransformBuffer(buf)
	sink.DispatchMesh(DispatchGroups(len(s.particles)))
	return nil
}

// UploadTransforms stages every model-view-projection matrix into a new
// structured buffer. The previously held buffer is replaced only on success.
func (s *ParticleSystem) UploadTransforms(provider gpu.ResourceProvider) (*gpu.StructuredBuffer, error) {
	buf, err := gpu.UploadStructuredBuffer(provider, s.SerializeTransforms(), MatrixSize)
	if err != nil {
		return nil, fmt.Errorf("upload transforms: %w", err)
	}
	if s.transforms != nil {
		s.transforms.Release()
	}
	s.transforms = buf
	return buf, nil
}

// SerializeTransforms packs the cached model-view-projection matrices in
// population order, column-major little-endian float32.
func (s *ParticleSystem) SerializeTransforms() []byte {
	out := make([]byte, len(s.particles)*MatrixSize)
	for i := range s.particles {
		writeMat(out[i*MatrixSize:], s.particles[i].ProjectedTransform())
	}
	return out
}

func writeMat(dst []byte, m mgl32.Mat4) {
	for i, f := range m {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(f))
	}
}

// DispatchGroups returns the number of thread groups covering n particles.
func DispatchGroups(n int) uint32 {
	return uint32((n + ParticlesPerGroup - 1) / ParticlesPerGroup)
}

// Release frees the draw resources and the last uploaded transform buffer.
func (s *ParticleSystem) Release() {
	s.releaseDrawResources()
	if s.transforms != nil {
		s.transforms.Release()
		s.transforms = nil
	}
}

func (s *ParticleSystem) releaseDrawResources() {
	if s.point != nil {
		s.point.Release()
		s.point = nil
	}
	if s.texture != nil {
		s.texture.Release()
		s.texture = nil
	}
}

func (s *ParticleSystem) Len() int { return len(s.particles) }

// Particle returns a copy of the i-th particle.
func (s *ParticleSystem) Particle(i int) core.Particle { return s.particles[i] }

func (s *ParticleSystem) Positions() []mgl32.Vec3 {
	out := make([]mgl32.Vec3, len(s.particles))
	for i := range s.particles {
		out[i] = s.particles[i].Position()
	}
	return out
}

func (s *ParticleSystem) ModelViewProjections() []mgl32.Mat4 {
	out := make([]mgl32.Mat4, len(s.particles))
	for i := range s.particles {
		out[i] = s.particles[i].ProjectedTransform()
	}
	return out
}

func (s *ParticleSystem) SpawnOrigin() core.Vector3 { return s.spawnOrigin }

func (s *ParticleSystem) AccumulatedTime() float32 { return s.accumulatedTime }

// Transforms returns the buffer from the last successful upload, or nil.
func (s *ParticleSystem) Transforms() *gpu.StructuredBuffer { return s.transforms }
