package components

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestCameraLookAt(t *testing.T) {
	c := NewCamera()
	c.SetPosition(mgl32.Vec3{0, 0, 5})
	c.LookAt(mgl32.Vec3{})

	assert.InDelta(t, 0, c.EulerRotation.Y(), 1e-6)
	fwd := c.Forward()
	assert.InDelta(t, -1, fwd.Z(), 1e-5)

	p := c.GetView().Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	assert.InDelta(t, -5, p.Z(), 1e-5)
	assert.False(t, c.IsDirty)
}

func TestCameraLookAtSide(t *testing.T) {
	c := NewCamera()
	c.SetPosition(mgl32.Vec3{3, 0, 0})
	c.LookAt(mgl32.Vec3{})

	fwd := c.Forward()
	assert.InDelta(t, -1, fwd.X(), 1e-5)
	p := c.GetView().Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	assert.InDelta(t, 0, p.X(), 1e-5)
	assert.InDelta(t, -3, p.Z(), 1e-5)
}

func TestCameraPitchClamp(t *testing.T) {
	c := NewCamera()
	c.Pitch(10)
	assert.InDelta(t, pitchLimit, c.EulerRotation.X(), 1e-6)
}

func TestCameraOrbitKeepsDistance(t *testing.T) {
	c := NewCamera()
	c.SetPosition(mgl32.Vec3{0, 2, 10})
	c.Orbit(mgl32.Vec3{}, mgl32.DegToRad(90))
	assert.InDelta(t, 10, mgl32.Vec2{c.Position.X(), c.Position.Z()}.Len(), 1e-4)
	assert.InDelta(t, 2, c.Position.Y(), 1e-5)

	p := c.GetView().Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	assert.InDelta(t, 0, p.X(), 1e-4)
	assert.Less(t, p.Z(), float32(0))
}

func TestCameraProjectionAspect(t *testing.T) {
	c := NewCamera()
	c.SetAspect(800, 400)
	assert.InDelta(t, 2, c.Aspect, 1e-6)
	c.SetAspect(0, 400)
	assert.InDelta(t, 2, c.Aspect, 1e-6)
	assert.Less(t, c.GetProjection()[5], float32(0))
}
