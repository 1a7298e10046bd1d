package math

import "github.com/go-gl/mathgl/mgl32"

// VulkanClip maps OpenGL clip space (y up, z in [-1,1]) to Vulkan clip space
// (y down, z in [0,1]).
var VulkanClip = mgl32.Mat4{
	1, 0, 0, 0,
	0, -1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}

// Perspective builds a Vulkan-ready perspective projection, fovy in degrees.
func Perspective(fovyDeg, aspect, near, far float32) mgl32.Mat4 {
	return VulkanClip.Mul4(mgl32.Perspective(mgl32.DegToRad(fovyDeg), aspect, near, far))
}

// Ortho builds a Vulkan-ready orthographic projection.
func Ortho(left, right, bottom, top, near, far float32) mgl32.Mat4 {
	return VulkanClip.Mul4(mgl32.Ortho(left, right, bottom, top, near, far))
}

// LookAt builds a view matrix, picking a fallback up vector when dir is parallel to up.
func LookAt(eye, center, up mgl32.Vec3) mgl32.Mat4 {
	dir := center.Sub(eye)
	if dir.Len() < K_FLOAT_EPSILON {
		dir = mgl32.Vec3{0, 0, -1}
		center = eye.Add(dir)
	}
	if dir.Normalize().Cross(up.Normalize()).Len() < 1e-4 {
		up = mgl32.Vec3{0, 0, 1}
	}
	return mgl32.LookAtV(eye, center, up)
}
