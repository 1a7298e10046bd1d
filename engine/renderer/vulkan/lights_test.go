package vulkan

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/umbra/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLights() []metadata.Light {
	return []metadata.Light{
		{Type: metadata.LightTypeDirectional, Direction: mgl32.Vec3{0, -1, 0}, Color: mgl32.Vec3{1, 1, 1}, Intensity: 0.5},
		{Type: metadata.LightTypePoint, Position: mgl32.Vec3{2, 3, 4}, Color: mgl32.Vec3{1, 0.5, 0}, Intensity: 2, Radius: 10, CastShadows: true},
		{Type: metadata.LightTypePoint, Position: mgl32.Vec3{-2, 1, 0}, Color: mgl32.Vec3{0, 0, 1}, Intensity: 1, Radius: 4},
		{Type: metadata.LightTypeDirectional, Direction: mgl32.Vec3{1, -1, 0}, Color: mgl32.Vec3{1, 1, 1}, Intensity: 1, CastShadows: true},
	}
}

func TestShadowIndices(t *testing.T) {
	assert.Equal(t, []int32{-1, 0, -1, 1}, shadowIndices(testLights()))
	assert.Empty(t, shadowIndices(nil))
}

func TestLightVolumeTransform(t *testing.T) {
	lights := testLights()

	assert.Equal(t, mgl32.Ident4(), lightVolumeTransform(&lights[0]))

	m := lightVolumeTransform(&lights[1])
	center := m.Mul4x1(mgl32.Vec4{0, 0, 0, 1}).Vec3()
	assert.True(t, center.ApproxEqual(lights[1].Position))
	// A unit sphere vertex ends up just past the light radius.
	edge := m.Mul4x1(mgl32.Vec4{1, 0, 0, 1}).Vec3()
	assert.InDelta(t, 10*lightVolumeScale, edge.Sub(center).Len(), 1e-4)
	assert.Greater(t, edge.Sub(center).Len(), lights[1].Radius)
}

func TestSceneBounds(t *testing.T) {
	bounds := &sceneBounds{}
	assert.Equal(t, float32(1), bounds.Radius())

	bounds.extend(mgl32.Vec3{-1, -1, -1}, mgl32.Vec3{1, 1, 1}, mgl32.Translate3D(10, 0, 0))
	bounds.extend(mgl32.Vec3{-1, -1, -1}, mgl32.Vec3{1, 1, 1}, mgl32.Ident4())

	assert.Equal(t, mgl32.Vec3{-1, -1, -1}, bounds.Min)
	assert.Equal(t, mgl32.Vec3{11, 1, 1}, bounds.Max)
	assert.True(t, bounds.Center().ApproxEqual(mgl32.Vec3{5, 0, 0}))
	assert.InDelta(t, mgl32.Vec3{12, 2, 2}.Len()/2, bounds.Radius(), 1e-4)
}

func TestDirectionalShadowCoversScene(t *testing.T) {
	bounds := &sceneBounds{}
	bounds.extend(mgl32.Vec3{-5, 0, -5}, mgl32.Vec3{5, 2, 5}, mgl32.Ident4())
	light := metadata.Light{Type: metadata.LightTypeDirectional, Direction: mgl32.Vec3{0.3, -1, 0.2}, CastShadows: true}

	vp := shadowViewProjection(&light, bounds)
	for _, corner := range []mgl32.Vec3{{-5, 0, -5}, {5, 2, 5}, {-5, 2, 5}, {5, 0, -5}} {
		clip := vp.Mul4x1(corner.Vec4(1))
		ndc := clip.Vec3().Mul(1 / clip.W())
		assert.LessOrEqual(t, ndc.X(), float32(1.0001))
		assert.GreaterOrEqual(t, ndc.X(), float32(-1.0001))
		assert.LessOrEqual(t, ndc.Y(), float32(1.0001))
		assert.GreaterOrEqual(t, ndc.Y(), float32(-1.0001))
		assert.LessOrEqual(t, ndc.Z(), float32(1.0001))
		assert.GreaterOrEqual(t, ndc.Z(), float32(-0.0001))
	}
}

func TestPointShadowLooksAlongDirection(t *testing.T) {
	light := metadata.Light{
		Type:        metadata.LightTypePoint,
		Position:    mgl32.Vec3{0, 5, 0},
		Direction:   mgl32.Vec3{0, 0, -1},
		Radius:      20,
		CastShadows: true,
	}
	vp := shadowViewProjection(&light, &sceneBounds{})

	clip := vp.Mul4x1(mgl32.Vec4{0, 5, -10, 1})
	ndc := clip.Vec3().Mul(1 / clip.W())
	assert.InDelta(t, 0, ndc.X(), 1e-4)
	assert.InDelta(t, 0, ndc.Y(), 1e-4)
	assert.Greater(t, ndc.Z(), float32(0))
	assert.Less(t, ndc.Z(), float32(1))

	// Behind the light is clipped.
	behind := vp.Mul4x1(mgl32.Vec4{0, 5, 10, 1})
	assert.Less(t, behind.W(), float32(0))
}

func TestBuildFrameUniforms(t *testing.T) {
	lights := testLights()
	frame := &metadata.FrameData{
		View:           mgl32.Translate3D(0, 0, -5),
		Projection:     mgl32.Scale3D(2, 2, 1),
		CameraPosition: mgl32.Vec3{0, 0, 5},
	}
	objects := []mgl32.Mat4{mgl32.Ident4(), mgl32.Translate3D(1, 0, 0)}
	bounds := &sceneBounds{}
	bounds.extend(mgl32.Vec3{-1, -1, -1}, mgl32.Vec3{1, 1, 1}, mgl32.Ident4())

	uniforms := buildFrameUniforms(frame, objects, lights, bounds)

	assert.Equal(t, frame.Projection.Mul4(frame.View), uniforms.Camera.ViewProjection)
	assert.Equal(t, mgl32.Vec4{0, 0, 5, 1}, uniforms.Camera.Position)
	assert.Equal(t, objects, uniforms.Objects)
	require.Len(t, uniforms.ShadowViews, 2)
	assert.Equal(t, shadowViewProjection(&lights[1], bounds), uniforms.ShadowViews[0])
	assert.Equal(t, shadowViewProjection(&lights[3], bounds), uniforms.ShadowViews[1])
	require.Len(t, uniforms.Lights, len(lights))

	point := uniforms.Lights[1]
	assert.Equal(t, mgl32.Vec4{2, 3, 4, float32(metadata.LightTypePoint)}, point.PositionType)
	assert.Equal(t, mgl32.Vec4{2, 1, 0, 10}, point.ColorRadius)
	assert.Equal(t, float32(0), point.DirectionShadow.W())
	assert.Equal(t, lightVolumeTransform(&lights[1]), point.Transform)

	assert.Equal(t, float32(-1), uniforms.Lights[0].DirectionShadow.W())
	assert.Equal(t, float32(-1), uniforms.Lights[2].DirectionShadow.W())
	assert.Equal(t, float32(1), uniforms.Lights[3].DirectionShadow.W())

	dir := uniforms.Lights[3].DirectionShadow.Vec3()
	assert.InDelta(t, 1, dir.Len(), 1e-5)
	assert.Equal(t, mgl32.Vec4{0, 0, 5, 1}, uniforms.Lights[0].CameraPosition)
}

func TestZeroDirectionPointsDown(t *testing.T) {
	light := metadata.Light{Type: metadata.LightTypeDirectional}
	assert.Equal(t, mgl32.Vec3{0, -1, 0}, lightDirection(&light))
}
