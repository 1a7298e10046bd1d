package testbed

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/umbra/engine"
	"github.com/spaghettifunk/umbra/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGame(orbitSpeed float32) *TestGame {
	config := engine.DefaultApplicationConfig()
	config.Scene.Camera.Position = [3]float32{0, 0, 10}
	config.Scene.Camera.OrbitSpeed = orbitSpeed
	g := NewTestGame(config)
	state := g.state()
	state.WorldCamera = newSceneCamera(config.Scene.Camera)
	state.orbitSpeed = orbitSpeed
	state.orbiting = orbitSpeed != 0
	return g
}

func TestOrbitKeepsDistanceToTarget(t *testing.T) {
	g := testGame(0.5)
	for i := 0; i < 60; i++ {
		require.NoError(t, g.Update(1.0/60.0))
	}
	camera := g.state().WorldCamera
	assert.InDelta(t, 10, camera.GetPosition().Len(), 1e-3)
	assert.NotEqual(t, mgl32.Vec3{0, 0, 10}, camera.GetPosition())

	// The camera keeps looking at the target.
	p := camera.GetView().Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	assert.InDelta(t, 0, p.X(), 1e-3)
	assert.InDelta(t, -10, p.Z(), 1e-3)
}

func TestStillCameraDoesNotMove(t *testing.T) {
	g := testGame(0)
	require.NoError(t, g.Update(1))
	assert.Equal(t, mgl32.Vec3{0, 0, 10}, g.state().WorldCamera.GetPosition())
}

func TestRenderFillsFrame(t *testing.T) {
	g := testGame(0)
	require.NoError(t, g.OnResize(800, 400))

	frame := &metadata.FrameData{}
	require.NoError(t, g.Render(frame, 0.016))

	camera := g.state().WorldCamera
	assert.Equal(t, float32(2), camera.Aspect)
	assert.Equal(t, camera.GetView(), frame.View)
	assert.Equal(t, camera.GetProjection(), frame.Projection)
	assert.Equal(t, mgl32.Vec3{0, 0, 10}, frame.CameraPosition)
	assert.Nil(t, frame.ModelTransforms)
}
