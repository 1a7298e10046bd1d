package engine

import (
	"github.com/spaghettifunk/umbra/engine/renderer"
	"github.com/spaghettifunk/umbra/engine/renderer/metadata"
)

/**
 * @brief The application driven by the engine. FnInitialize fills the
 * scene before the renderer is finalized; FnRender fills the frame data of
 * every frame.
 */
type Game struct {
	ApplicationConfig *ApplicationConfig
	State             interface{}
	FnInitialize      Initialize
	FnUpdate          Update
	FnRender          Render
	FnOnResize        OnResize
	FnShutdown        Shutdown
}

type Initialize func(r *renderer.Renderer) error
type Update func(deltaTime float64) error
type Render func(frame *metadata.FrameData, deltaTime float64) error
type OnResize func(width uint32, height uint32) error
type Shutdown func() error
