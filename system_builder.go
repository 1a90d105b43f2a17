package particles

import (
	"github.com/gekko3d/particles/core"
)

type ParticleSystemBuilder struct {
	cfg    Config
	logger Logger
	rand   core.Rand
}

func NewParticleSystemBuilder() *ParticleSystemBuilder {
	return &ParticleSystemBuilder{cfg: DefaultConfig()}
}

// FromConfig copies the simulation settings of cfg.
func (b *ParticleSystemBuilder) FromConfig(cfg Config) *ParticleSystemBuilder {
	b.cfg = cfg
	return b
}

func (b *ParticleSystemBuilder) WithParticleSize(size float32) *ParticleSystemBuilder {
	b.cfg.ParticleSize = size
	return b
}

func (b *ParticleSystemBuilder) WithAcceleration(enabled bool) *ParticleSystemBuilder {
	b.cfg.Acceleration = enabled
	return b
}

func (b *ParticleSystemBuilder) WithPerpendicular(enabled bool) *ParticleSystemBuilder {
	b.cfg.Perpendicular = enabled
	return b
}

func (b *ParticleSystemBuilder) WithInitialParticles(n int) *ParticleSystemBuilder {
	b.cfg.InitialParticles = n
	return b
}

func (b *ParticleSystemBuilder) WithGrowthInterval(seconds float32) *ParticleSystemBuilder {
	b.cfg.GrowthInterval = seconds
	return b
}

func (b *ParticleSystemBuilder) WithSpawnOrigin(origin core.Vector3) *ParticleSystemBuilder {
	b.cfg.SpawnOrigin = [3]float32{origin.X, origin.Y, origin.Z}
	return b
}

func (b *ParticleSystemBuilder) WithWorkers(n int) *ParticleSystemBuilder {
	b.cfg.Workers = n
	return b
}

func (b *ParticleSystemBuilder) WithTexturePath(path string) *ParticleSystemBuilder {
	b.cfg.TexturePath = path
	return b
}

func (b *ParticleSystemBuilder) WithLogger(logger Logger) *ParticleSystemBuilder {
	b.logger = logger
	return b
}

// WithRand replaces the seeded source. Particles only draw from it on the
// caller's goroutine.
func (b *ParticleSystemBuilder) WithRand(r core.Rand) *ParticleSystemBuilder {
	b.rand = r
	return b
}

func (b *ParticleSystemBuilder) Build() *ParticleSystem {
	cfg := b.cfg

	logger := b.logger
	if logger == nil {
		logger = NewNopLogger()
	}
	r := b.rand
	if r == nil {
		r = core.NewRand(cfg.Seed)
	}

	s := &ParticleSystem{
		spawnOrigin:          core.Vector3{X: cfg.SpawnOrigin[0], Y: cfg.SpawnOrigin[1], Z: cfg.SpawnOrigin[2]},
		growthInterval:       cfg.GrowthInterval,
		particleSize:         cfg.ParticleSize,
		accelerationEnabled:  cfg.Acceleration,
		perpendicularEnabled: cfg.Perpendicular,
		texturePath:          cfg.TexturePath,
		workers:              cfg.Workers,
		rand:                 r,
		logger:               logger,
	}
	s.spawn(cfg.InitialParticles)
	return s
}
