package vulkan

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/umbra/engine/math"
	"github.com/spaghettifunk/umbra/engine/renderer/metadata"
)

// The tessellated unit sphere lies inside the true sphere, so the volume is
// grown enough for its faces to cover the light radius.
const lightVolumeScale = 1.05

const (
	pointShadowFov  = 90.0
	pointShadowNear = 0.1
)

/**
 * @brief Bounding sphere of everything drawn, used to fit directional
 * shadow projections.
 */
type sceneBounds struct {
	Min   mgl32.Vec3
	Max   mgl32.Vec3
	valid bool
}

// extend grows the bounds by the box [min, max] placed by world.
func (b *sceneBounds) extend(min, max mgl32.Vec3, world mgl32.Mat4) {
	for corner := 0; corner < 8; corner++ {
		local := mgl32.Vec3{min.X(), min.Y(), min.Z()}
		if corner&1 != 0 {
			local[0] = max.X()
		}
		if corner&2 != 0 {
			local[1] = max.Y()
		}
		if corner&4 != 0 {
			local[2] = max.Z()
		}
		p := world.Mul4x1(local.Vec4(1)).Vec3()
		if !b.valid {
			b.Min, b.Max, b.valid = p, p, true
			continue
		}
		for i := 0; i < 3; i++ {
			b.Min[i] = float32(gomath.Min(float64(b.Min[i]), float64(p[i])))
			b.Max[i] = float32(gomath.Max(float64(b.Max[i]), float64(p[i])))
		}
	}
}

func (b *sceneBounds) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Radius is at least 1 so an empty scene still gets a usable projection.
func (b *sceneBounds) Radius() float32 {
	r := b.Max.Sub(b.Min).Len() * 0.5
	if r < 1 {
		return 1
	}
	return r
}

func lightDirection(light *metadata.Light) mgl32.Vec3 {
	if light.Direction.Len() < math.K_FLOAT_EPSILON {
		return mgl32.Vec3{0, -1, 0}
	}
	return light.Direction.Normalize()
}

/**
 * @brief The view projection a shadow map is rendered with. Directional
 * lights get an orthographic projection fitted around the scene bounds,
 * point lights a single perspective view along their direction that
 * reaches as far as their radius.
 */
func shadowViewProjection(light *metadata.Light, bounds *sceneBounds) mgl32.Mat4 {
	dir := lightDirection(light)
	switch light.Type {
	case metadata.LightTypePoint:
		far := light.Radius
		if far <= pointShadowNear {
			far = bounds.Radius() * 2
		}
		view := math.LookAt(light.Position, light.Position.Add(dir), mgl32.Vec3{0, 1, 0})
		return math.Perspective(pointShadowFov, 1, pointShadowNear, far).Mul4(view)
	default:
		center := bounds.Center()
		r := bounds.Radius()
		eye := center.Sub(dir.Mul(2 * r))
		view := math.LookAt(eye, center, mgl32.Vec3{0, 1, 0})
		return math.Ortho(-r, r, -r, r, 0, 4*r).Mul4(view)
	}
}

/**
 * @brief Model matrix of the geometry that rasterizes a light. Directional
 * lights draw a full screen quad that ignores it.
 */
func lightVolumeTransform(light *metadata.Light) mgl32.Mat4 {
	if light.Type != metadata.LightTypePoint {
		return mgl32.Ident4()
	}
	s := light.Radius * lightVolumeScale
	p := light.Position
	return mgl32.Translate3D(p.X(), p.Y(), p.Z()).Mul4(mgl32.Scale3D(s, s, s))
}

// shadowIndices maps each light to its shadow map, -1 for lights without one.
func shadowIndices(lights []metadata.Light) []int32 {
	indices := make([]int32, len(lights))
	next := int32(0)
	for i := range lights {
		indices[i] = -1
		if lights[i].CastShadows {
			indices[i] = next
			next++
		}
	}
	return indices
}

func newLightUniform(light *metadata.Light, shadow int32, camera mgl32.Vec3) lightUniform {
	color := light.Color.Mul(light.Intensity)
	p := light.Position
	dir := lightDirection(light)
	return lightUniform{
		Transform:       lightVolumeTransform(light),
		PositionType:    mgl32.Vec4{p.X(), p.Y(), p.Z(), float32(light.Type)},
		ColorRadius:     mgl32.Vec4{color.X(), color.Y(), color.Z(), light.Radius},
		DirectionShadow: mgl32.Vec4{dir.X(), dir.Y(), dir.Z(), float32(shadow)},
		CameraPosition:  camera.Vec4(1),
	}
}

/**
 * @brief Computes everything the shaders read for one frame: the camera,
 * one world matrix per model, one view projection per shadow map and one
 * block per light.
 */
func buildFrameUniforms(frame *metadata.FrameData, objects []mgl32.Mat4, lights []metadata.Light, bounds *sceneBounds) *frameUniforms {
	uniforms := &frameUniforms{
		Camera: cameraUniform{
			ViewProjection: frame.Projection.Mul4(frame.View),
			Position:       frame.CameraPosition.Vec4(1),
		},
		Objects: objects,
		Lights:  make([]lightUniform, 0, len(lights)),
	}
	shadows := shadowIndices(lights)
	for i := range lights {
		if shadows[i] >= 0 {
			uniforms.ShadowViews = append(uniforms.ShadowViews, shadowViewProjection(&lights[i], bounds))
		}
		uniforms.Lights = append(uniforms.Lights, newLightUniform(&lights[i], shadows[i], frame.CameraPosition))
	}
	return uniforms
}
