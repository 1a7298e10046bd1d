package components

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/umbra/engine/math"
)

/**
 * @brief Represents a camera that produces the view and projection
 * matrices of a frame. Rotation is pitch (x) and yaw (y) in radians,
 * applied yaw first.
 */
type Camera struct {
	/**
	 * @brief The position of this camera.
	 * NOTE: Do not set this directly, use SetPosition() instead
	 * so the view matrix is recalculated when needed.
	 */
	Position mgl32.Vec3
	/**
	 * @brief The rotation of this camera using Euler angles (pitch, yaw, roll).
	 * NOTE: Do not set this directly, use SetEulerRotation() instead
	 * so the view matrix is recalculated when needed.
	 */
	EulerRotation mgl32.Vec3
	/** @brief Internal flag used to determine when the view matrix needs to be rebuilt. */
	IsDirty bool
	/** @brief The view matrix of this camera. Use GetView(). */
	ViewMatrix mgl32.Mat4

	/** @brief Vertical field of view in degrees. */
	FovY   float32
	Aspect float32
	Near   float32
	Far    float32
}

/** @brief The name of the default camera. */
const DEFAULT_CAMERA_NAME string = "default"

// pitchLimit is 89 degrees, short of gimbal lock.
const pitchLimit = float32(1.55334306)

func NewCamera() *Camera {
	camera := &Camera{}
	camera.Reset()
	return camera
}

func (c *Camera) Reset() {
	c.EulerRotation = mgl32.Vec3{}
	c.Position = mgl32.Vec3{}
	c.IsDirty = false
	c.ViewMatrix = mgl32.Ident4()
	c.FovY = 45
	c.Aspect = 16.0 / 9.0
	c.Near = 0.1
	c.Far = 1000
}

func (c *Camera) GetPosition() mgl32.Vec3 {
	return c.Position
}

func (c *Camera) SetPosition(position mgl32.Vec3) {
	c.Position = position
	c.IsDirty = true
}

func (c *Camera) GetEulerRotation() mgl32.Vec3 {
	return c.EulerRotation
}

func (c *Camera) SetEulerRotation(rotation mgl32.Vec3) {
	c.EulerRotation = rotation
	c.EulerRotation[0] = math.Clamp(c.EulerRotation[0], -pitchLimit, pitchLimit)
	c.IsDirty = true
}

// LookAt turns the camera towards target.
func (c *Camera) LookAt(target mgl32.Vec3) {
	dir := target.Sub(c.Position)
	if dir.Len() < math.K_FLOAT_EPSILON {
		return
	}
	dir = dir.Normalize()
	pitch := float32(gomath.Asin(float64(dir.Y())))
	yaw := float32(gomath.Atan2(float64(-dir.X()), float64(-dir.Z())))
	c.SetEulerRotation(mgl32.Vec3{pitch, yaw, 0})
}

func (c *Camera) rotation() mgl32.Mat4 {
	return mgl32.HomogRotate3DY(c.EulerRotation.Y()).Mul4(mgl32.HomogRotate3DX(c.EulerRotation.X()))
}

func (c *Camera) GetView() mgl32.Mat4 {
	if c.IsDirty {
		p := c.Position
		c.ViewMatrix = c.rotation().Transpose().Mul4(mgl32.Translate3D(-p.X(), -p.Y(), -p.Z()))
		c.IsDirty = false
	}
	return c.ViewMatrix
}

// GetProjection returns a perspective projection already corrected for
// Vulkan clip space.
func (c *Camera) GetProjection() mgl32.Mat4 {
	return math.Perspective(c.FovY, c.Aspect, c.Near, c.Far)
}

func (c *Camera) SetAspect(width, height uint32) {
	if width == 0 || height == 0 {
		return
	}
	c.Aspect = float32(width) / float32(height)
}

func (c *Camera) Forward() mgl32.Vec3 {
	return c.rotation().Mul4x1(mgl32.Vec4{0, 0, -1, 0}).Vec3()
}

func (c *Camera) Backward() mgl32.Vec3 {
	return c.Forward().Mul(-1)
}

func (c *Camera) Right() mgl32.Vec3 {
	return c.rotation().Mul4x1(mgl32.Vec4{1, 0, 0, 0}).Vec3()
}

func (c *Camera) Left() mgl32.Vec3 {
	return c.Right().Mul(-1)
}

func (c *Camera) move(direction mgl32.Vec3, amount float32) {
	c.Position = c.Position.Add(direction.Mul(amount))
	c.IsDirty = true
}

func (c *Camera) MoveForward(amount float32)  { c.move(c.Forward(), amount) }
func (c *Camera) MoveBackward(amount float32) { c.move(c.Backward(), amount) }
func (c *Camera) MoveLeft(amount float32)     { c.move(c.Left(), amount) }
func (c *Camera) MoveRight(amount float32)    { c.move(c.Right(), amount) }
func (c *Camera) MoveUp(amount float32)       { c.move(mgl32.Vec3{0, 1, 0}, amount) }
func (c *Camera) MoveDown(amount float32)     { c.move(mgl32.Vec3{0, -1, 0}, amount) }

func (c *Camera) Yaw(amount float32) {
	c.EulerRotation[1] += amount
	c.IsDirty = true
}

func (c *Camera) Pitch(amount float32) {
	c.EulerRotation[0] = math.Clamp(c.EulerRotation[0]+amount, -pitchLimit, pitchLimit)
	c.IsDirty = true
}

// Orbit rotates the camera position around center on the horizontal plane
// and keeps it looking at center.
func (c *Camera) Orbit(center mgl32.Vec3, radians float32) {
	offset := mgl32.HomogRotate3DY(radians).Mul4x1(c.Position.Sub(center).Vec4(1)).Vec3()
	c.SetPosition(center.Add(offset))
	c.LookAt(center)
}
