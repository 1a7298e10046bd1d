package testbed

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/umbra/engine"
	"github.com/spaghettifunk/umbra/engine/core"
	"github.com/spaghettifunk/umbra/engine/renderer"
	"github.com/spaghettifunk/umbra/engine/renderer/components"
	"github.com/spaghettifunk/umbra/engine/renderer/metadata"
)

const (
	// Radians per second the arrow keys turn the camera around the target.
	manualOrbitSpeed = 1.0
	// Units per second W/S, Q/E move the camera.
	moveSpeed = 5.0
)

type TestGame struct {
	*engine.Game
}

type gameState struct {
	WorldCamera *components.Camera
	target      mgl32.Vec3
	orbitSpeed  float32
	orbiting    bool

	width  uint32
	height uint32
}

// NewTestGame renders the scene described by config.
func NewTestGame(config *engine.ApplicationConfig) *TestGame {
	tg := &TestGame{
		Game: &engine.Game{
			ApplicationConfig: config,
			State:             &gameState{},
		},
	}
	tg.FnInitialize = tg.Initialize
	tg.FnUpdate = tg.Update
	tg.FnRender = tg.Render
	tg.FnOnResize = tg.OnResize
	tg.FnShutdown = tg.Shutdown
	return tg
}

func (g *TestGame) state() *gameState {
	return g.State.(*gameState)
}

// Initialize loads every configured model and light and places the camera.
func (g *TestGame) Initialize(r *renderer.Renderer) error {
	scene := g.ApplicationConfig.Scene
	for _, m := range scene.Models {
		if _, err := r.LoadModel(m.Path, m.Transform()); err != nil {
			return err
		}
	}
	for _, l := range scene.Lights {
		if err := r.AddLight(l.Light()); err != nil {
			return err
		}
	}

	state := g.state()
	state.WorldCamera = newSceneCamera(scene.Camera)
	state.target = mgl32.Vec3(scene.Camera.Target)
	state.orbitSpeed = scene.Camera.OrbitSpeed
	state.orbiting = state.orbitSpeed != 0
	core.LogInfo("Testbed scene ready: %d models, %d lights.", len(scene.Models), len(scene.Lights))
	return nil
}

func newSceneCamera(config engine.CameraConfig) *components.Camera {
	camera := components.NewCamera()
	camera.FovY = config.Fov
	camera.Near = config.Near
	camera.Far = config.Far
	camera.SetPosition(mgl32.Vec3(config.Position))
	camera.LookAt(mgl32.Vec3(config.Target))
	return camera
}

func (g *TestGame) Update(deltaTime float64) error {
	state := g.state()
	camera := state.WorldCamera
	dt := float32(deltaTime)

	if core.InputKeyPressed(core.KEY_SPACE) {
		state.orbiting = !state.orbiting
	}
	if state.orbiting {
		camera.Orbit(state.target, state.orbitSpeed*dt)
	}
	if core.InputIsKeyDown(core.KEY_LEFT) || core.InputIsKeyDown(core.KEY_A) {
		camera.Orbit(state.target, -manualOrbitSpeed*dt)
	}
	if core.InputIsKeyDown(core.KEY_RIGHT) || core.InputIsKeyDown(core.KEY_D) {
		camera.Orbit(state.target, manualOrbitSpeed*dt)
	}
	if core.InputIsKeyDown(core.KEY_UP) || core.InputIsKeyDown(core.KEY_W) {
		camera.MoveForward(moveSpeed * dt)
	}
	if core.InputIsKeyDown(core.KEY_DOWN) || core.InputIsKeyDown(core.KEY_S) {
		camera.MoveBackward(moveSpeed * dt)
	}
	if core.InputIsKeyDown(core.KEY_Q) {
		camera.MoveDown(moveSpeed * dt)
	}
	if core.InputIsKeyDown(core.KEY_E) {
		camera.MoveUp(moveSpeed * dt)
	}
	return nil
}

func (g *TestGame) Render(frame *metadata.FrameData, deltaTime float64) error {
	camera := g.state().WorldCamera
	frame.View = camera.GetView()
	frame.Projection = camera.GetProjection()
	frame.CameraPosition = camera.GetPosition()
	return nil
}

func (g *TestGame) OnResize(width uint32, height uint32) error {
	state := g.state()
	state.width, state.height = width, height
	state.WorldCamera.SetAspect(width, height)
	return nil
}

func (g *TestGame) Shutdown() error {
	core.LogInfo("Shutting down testbed.")
	return nil
}
