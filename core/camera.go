package core

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Camera is the read-only view the simulation and renderer need.
type Camera interface {
	// FieldOfView returns the vertical field of view in degrees.
	FieldOfView() float32
	ViewMatrix() mgl32.Mat4
	ViewProjectionMatrix() mgl32.Mat4
}

// CameraState is a Y-up yaw/pitch camera with a perspective projection.
// Yaw 0 looks down +Z.
type CameraState struct {
	Position mgl32.Vec3
	Yaw      float32
	Pitch    float32
	FovY     float32 // degrees
	Aspect   float32
	Near     float32
	Far      float32
}

func NewCameraState() *CameraState {
	return &CameraState{
		Position: mgl32.Vec3{0, 5, -50},
		Yaw:      0,
		Pitch:    0,
		FovY:     45,
		Aspect:   16.0 / 9.0,
		Near:     0.1,
		Far:      100,
	}
}

// LookAt points the camera from its position towards target.
func (c *CameraState) LookAt(target mgl32.Vec3) {
	dir := target.Sub(c.Position)
	if dir.Len() == 0 {
		return
	}
	dir = dir.Normalize()
	c.Pitch = math32.Asin(dir.Y())
	c.Yaw = math32.Atan2(dir.X(), dir.Z())
}

func (c *CameraState) GetForward() mgl32.Vec3 {
	return mgl32.Vec3{
		math32.Cos(c.Pitch) * math32.Sin(c.Yaw),
		math32.Sin(c.Pitch),
		math32.Cos(c.Pitch) * math32.Cos(c.Yaw),
	}
}

func (c *CameraState) FieldOfView() float32 {
	return c.FovY
}

func (c *CameraState) ViewMatrix() mgl32.Mat4 {
	eye := c.Position
	target := eye.Add(c.GetForward())
	up := mgl32.Vec3{0, 1, 0}
	return mgl32.LookAtV(eye, target, up)
}

func (c *CameraState) ProjectionMatrix() mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(c.FovY), c.Aspect, c.Near, c.Far)
}

func (c *CameraState) ViewProjectionMatrix() mgl32.Mat4 {
	return c.ProjectionMatrix().Mul4(c.ViewMatrix())
}
