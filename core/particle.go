package core

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	// BaseSpeed is the speed every particle starts with, in units per second.
	BaseSpeed float32 = 0.25
	// Acceleration is added to the speed every second while acceleration is enabled.
	Acceleration float32 = 0.05

	MinPerpendicularSpeed float32 = 0.25
	MaxPerpendicularSpeed float32 = 2.25

	// DefaultParticleSize matches the renderer's default billboard size.
	DefaultParticleSize float32 = 0.1

	twoPi = 2 * math32.Pi

	// minDirectionLength rejects direction draws too short to normalize.
	minDirectionLength float32 = 1e-6
	maxDirectionDraws          = 8
)

// Particle is a point moving in the XY plane along a random direction,
// optionally accelerating and oscillating sideways.
type Particle struct {
	size  float32
	speed float32

	direction              Vector3
	perpendicularDirection Vector3

	perpendicularPhase float32
	perpendicularSpeed float32

	transform Transform
	matrices  Matrices
}

// NewParticle spawns a particle at spawnPos. Directions and the sideways
// speed are drawn from r, which must not be shared with a concurrent caller.
func NewParticle(spawnPos Vector3, size float32, r Rand) Particle {
	p := Particle{
		size:      size,
		speed:     BaseSpeed,
		transform: NewTransform(spawnPos.Vec3(), size),
	}

	p.direction = randomPlanarDirection(r)

	p.perpendicularDirection = Vector3{X: p.direction.Y, Y: -p.direction.X, Z: 0}
	p.perpendicularDirection.Normalize()
	p.perpendicularSpeed = RandomInRange(r, MinPerpendicularSpeed, MaxPerpendicularSpeed)

	return p
}

// randomPlanarDirection draws X and Y from [-1,1) and normalizes.
// Draws whose length is too small to normalize are redrawn; after
// maxDirectionDraws failures the particle moves along +X.
func randomPlanarDirection(r Rand) Vector3 {
	for i := 0; i < maxDirectionDraws; i++ {
		dir := Vector3{
			X: RandomInRange(r, -1, 1),
			Y: RandomInRange(r, -1, 1),
		}
		if dir.Length() < minDirectionLength {
			continue
		}
		dir.Normalize()
		return dir
	}
	return Vector3{X: 1}
}

// Update advances the particle by deltaTime seconds.
//
// The primary translation always happens and the transform bundle is rebuilt
// from it. Acceleration then changes the speed used by the next step, and the
// sideways offset is added on top of the already moved position.
func (p *Particle) Update(deltaTime float32, camera Camera, accelerationEnabled, perpendicularEnabled bool) {
	p.transform.Translate(p.direction.Scale(p.speed * deltaTime).Vec3())

	model := p.transform.ObjectToWorld()
	p.matrices = ComputeMatrices(model, camera.ViewMatrix(), camera.ViewProjectionMatrix())

	if !accelerationEnabled {
		return
	}
	p.speed += Acceleration * deltaTime

	if !perpendicularEnabled {
		return
	}
	p.movePerpendicular(deltaTime)
}

func (p *Particle) movePerpendicular(deltaTime float32) {
	p.perpendicularPhase += deltaTime
	if p.perpendicularPhase >= twoPi {
		p.perpendicularPhase = math32.Mod(p.perpendicularPhase, twoPi)
	}

	offset := math32.Sin(p.perpendicularPhase) * p.perpendicularSpeed * deltaTime
	p.transform.Translate(p.perpendicularDirection.Scale(offset).Vec3())
}

// Position returns the translation part of the position transform.
func (p *Particle) Position() mgl32.Vec3 {
	return p.transform.Position
}

// Matrices returns the bundle computed by the last Update. It is the zero
// value before the first Update.
func (p *Particle) Matrices() Matrices {
	return p.matrices
}

// ProjectedTransform returns the cached model-view-projection matrix.
func (p *Particle) ProjectedTransform() mgl32.Mat4 {
	return p.matrices.ModelViewProjection
}

func (p *Particle) Size() float32                   { return p.size }
func (p *Particle) Speed() float32                  { return p.speed }
func (p *Particle) Direction() Vector3              { return p.direction }
func (p *Particle) PerpendicularDirection() Vector3 { return p.perpendicularDirection }
func (p *Particle) PerpendicularSpeed() float32     { return p.perpendicularSpeed }
func (p *Particle) PerpendicularPhase() float32     { return p.perpendicularPhase }
