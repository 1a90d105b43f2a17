package core

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Transform keeps position and scale apart so a particle can move without
// rebuilding its scale. Rotation stays identity for particles.
type Transform struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3
}

func NewTransform(position mgl32.Vec3, size float32) Transform {
	return Transform{
		Position: position,
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{size, size, size},
	}
}

// Translate moves the position by offset. Successive translations compound.
func (t *Transform) Translate(offset mgl32.Vec3) {
	t.Position = t.Position.Add(offset)
}

func (t *Transform) ObjectToWorld() mgl32.Mat4 {
	// M = T * R * S: scale first, then rotate, then move.
	translate := mgl32.Translate3D(t.Position.X(), t.Position.Y(), t.Position.Z())
	rotate := t.Rotation.Mat4()
	scale := mgl32.Scale3D(t.Scale.X(), t.Scale.Y(), t.Scale.Z())

	return translate.Mul4(rotate).Mul4(scale)
}

// Matrices is the per particle transform bundle handed to the renderer.
type Matrices struct {
	Model                     mgl32.Mat4
	ModelView                 mgl32.Mat4
	InverseTransposeModelView mgl32.Mat4
	ModelViewProjection       mgl32.Mat4
}

// ComputeMatrices derives the bundle from a model matrix and the camera's
// view and view-projection matrices.
func ComputeMatrices(model, view, viewProjection mgl32.Mat4) Matrices {
	modelView := view.Mul4(model)
	return Matrices{
		Model:                     model,
		ModelView:                 modelView,
		InverseTransposeModelView: modelView.Inv().Transpose(),
		ModelViewProjection:       viewProjection.Mul4(model),
	}
}
