package engine

import (
	"sync/atomic"

	"github.com/spaghettifunk/umbra/engine/core"
	"github.com/spaghettifunk/umbra/engine/platform"
	"github.com/spaghettifunk/umbra/engine/renderer"
	"github.com/spaghettifunk/umbra/engine/renderer/metadata"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

// metricsInterval is how often, in seconds, frame metrics are logged.
const metricsInterval = 1.0

type Engine struct {
	currentStage Stage
	gameInstance *Game
	isRunning    atomic.Bool
	isSuspended  bool
	platform     *platform.Platform
	renderer     *renderer.Renderer
	width        uint32
	height       uint32
	clock        *core.Clock
	lastTime     float64

	// Size reported by the last resize event, applied by the run loop.
	resizePending bool
	pendingWidth  uint32
	pendingHeight uint32

	lastMetricsLog float64
}

func New(g *Game) (*Engine, error) {
	if g.ApplicationConfig == nil {
		g.ApplicationConfig = DefaultApplicationConfig()
	}
	p, err := platform.New()
	if err != nil {
		return nil, err
	}
	return &Engine{
		currentStage: EngineStageUninitialized,
		gameInstance: g,
		clock:        core.NewClock(),
		platform:     p,
		width:        g.ApplicationConfig.Window.Width,
		height:       g.ApplicationConfig.Window.Height,
	}, nil
}

// Initialize opens the window, builds the renderer and lets the game fill
// the scene before the renderer is finalized.
func (e *Engine) Initialize() error {
	e.currentStage = EngineStageInitializing
	config := e.gameInstance.ApplicationConfig
	core.SetLogLevel(config.LogLevel())

	if !core.EventInitialize() {
		return core.ResourceCreationErrorf("event system already initialized")
	}
	if err := core.InputInitialize(); err != nil {
		return err
	}
	core.EventRegister(core.EVENT_CODE_APPLICATION_QUIT, e, e.onEvent)
	core.EventRegister(core.EVENT_CODE_RESIZED, e, e.onResized)

	w := config.Window
	if err := e.platform.Startup(w.Name, w.X, w.Y, w.Width, w.Height); err != nil {
		return err
	}
	e.width, e.height = e.platform.FramebufferSize()

	r, err := renderer.New(renderer.Vulkan, config.RendererConfig(), e.platform)
	if err != nil {
		return err
	}
	e.renderer = r

	if err := e.gameInstance.FnInitialize(e.renderer); err != nil {
		return err
	}
	if err := e.renderer.Finalize(); err != nil {
		return err
	}
	if err := e.gameInstance.FnOnResize(e.width, e.height); err != nil {
		return err
	}
	e.currentStage = EngineStageInitialized
	core.LogInfo("Engine initialized: %d models, %d lights.", e.renderer.ModelCount(), len(config.Scene.Lights))
	return nil
}

// Run drives the frame loop until the window closes or a quit event
// arrives. A renderer error ends the loop and is returned.
func (e *Engine) Run() error {
	e.currentStage = EngineStageRunning
	e.isRunning.Store(true)
	e.clock.Start()
	e.clock.Update()
	e.lastTime = e.clock.Elapsed()

	for e.isRunning.Load() && !e.platform.ShouldClose() {
		e.platform.PumpMessages()

		if e.resizePending {
			if err := e.applyResize(); err != nil {
				return err
			}
		}
		if e.isSuspended {
			continue
		}

		// Update clock and get delta time.
		e.clock.Update()
		currentTime := e.clock.Elapsed()
		delta := currentTime - e.lastTime
		frameStartTime := e.platform.GetAbsoluteTime()

		if err := e.gameInstance.FnUpdate(delta); err != nil {
			core.LogError("Game update failed, shutting down.")
			return err
		}

		frame := &metadata.FrameData{DeltaTime: delta}
		if err := e.gameInstance.FnRender(frame, delta); err != nil {
			core.LogError("Game render failed, shutting down.")
			return err
		}
		if err := e.renderer.DrawFrame(frame); err != nil {
			return err
		}

		frameElapsedTime := e.platform.GetAbsoluteTime() - frameStartTime
		core.MetricsUpdate(frameElapsedTime)
		if currentTime-e.lastMetricsLog >= metricsInterval {
			fps, frameMS := core.MetricsFrame()
			core.LogDebug("FPS: %.0f, frame time: %.3fms", fps, frameMS)
			e.lastMetricsLog = currentTime
		}

		// Input state copying happens after everything that reads input this frame.
		core.InputUpdate()
		e.lastTime = currentTime
	}
	return nil
}

// Quit asks the run loop to stop after the current frame. Safe to call from
// any goroutine.
func (e *Engine) Quit() {
	e.isRunning.Store(false)
}

func (e *Engine) Shutdown() error {
	e.currentStage = EngineStageShuttingDown
	if e.gameInstance.FnShutdown != nil {
		if err := e.gameInstance.FnShutdown(); err != nil {
			core.LogError("Game shutdown failed: %s", err)
		}
	}
	if e.renderer != nil {
		e.renderer.Shutdown()
		e.renderer = nil
	}
	if err := e.platform.Shutdown(); err != nil {
		return err
	}
	if err := core.InputShutdown(); err != nil {
		return err
	}
	return core.EventShutdown()
}

// GetFramebufferSize returns the width and height (in this order) of the
// application framebuffer.
func (e *Engine) GetFramebufferSize() (uint32, uint32) {
	return e.width, e.height
}

func (e *Engine) applyResize() error {
	e.resizePending = false
	width, height := e.pendingWidth, e.pendingHeight
	if width == e.width && height == e.height {
		return nil
	}
	e.width, e.height = width, height
	core.LogDebug("Window resize: %d, %d", width, height)

	if err := e.renderer.OnResize(width, height); err != nil {
		return err
	}
	// Handle minimization
	if width == 0 || height == 0 {
		core.LogInfo("Window minimized, suspending application.")
		e.isSuspended = true
		return nil
	}
	if e.isSuspended {
		core.LogInfo("Window restored, resuming application.")
		e.isSuspended = false
	}
	return e.gameInstance.FnOnResize(width, height)
}

func (e *Engine) onEvent(code core.SystemEventCode, sender, listener interface{}, context core.EventContext) bool {
	if code == core.EVENT_CODE_APPLICATION_QUIT {
		core.LogInfo("EVENT_CODE_APPLICATION_QUIT received, shutting down.")
		e.Quit()
		return true
	}
	return false
}

func (e *Engine) onResized(code core.SystemEventCode, sender, listener interface{}, context core.EventContext) bool {
	e.pendingWidth = context.Data.U32[0]
	e.pendingHeight = context.Data.U32[1]
	e.resizePending = true
	return false
}
