package renderer

import (
	"github.com/spaghettifunk/umbra/engine/core"
	"github.com/spaghettifunk/umbra/engine/math"
	"github.com/spaghettifunk/umbra/engine/renderer/metadata"
	"github.com/spaghettifunk/umbra/engine/renderer/vulkan"
)

type RendererType uint8

const (
	Vulkan RendererType = iota
)

/**
 * @brief Engine facing renderer. It forwards to the backend and keeps the
 * model order the per frame transforms are indexed by.
 */
type Renderer struct {
	backend RendererBackend
	models  []*vulkan.Model
}

func New(rendererType RendererType, config vulkan.RendererConfig, surface vulkan.Surface) (*Renderer, error) {
	switch rendererType {
	case Vulkan:
		backend, err := vulkan.New(config, surface)
		if err != nil {
			return nil, err
		}
		return newRenderer(backend), nil
	}
	return nil, core.ResourceCreationErrorf("unsupported renderer type %d", rendererType)
}

func newRenderer(backend RendererBackend) *Renderer {
	return &Renderer{backend: backend}
}

// LoadModel returns the index the model's transform takes in FrameData.ModelTransforms.
func (r *Renderer) LoadModel(path string, transform *math.Transform) (int, error) {
	model, err := r.backend.LoadModel(path, transform)
	if err != nil {
		return -1, err
	}
	r.models = append(r.models, model)
	return len(r.models) - 1, nil
}

func (r *Renderer) ModelCount() int {
	return len(r.models)
}

func (r *Renderer) AddLight(light metadata.Light) error {
	return r.backend.AddLight(light)
}

func (r *Renderer) Finalize() error {
	return r.backend.Finalize()
}

func (r *Renderer) DrawFrame(frame *metadata.FrameData) error {
	if frame.ModelTransforms != nil && len(frame.ModelTransforms) != len(r.models) {
		return core.SubmissionErrorf("frame has %d model transforms for %d models", len(frame.ModelTransforms), len(r.models))
	}
	if err := r.backend.Render(frame); err != nil {
		core.LogError("Renderer failed to draw the frame: %s", err)
		return err
	}
	return nil
}

// OnResize invalidates the swapchain and rebuilds it right away. A zero
// size is a minimized window: the rebuild waits for the next resize.
func (r *Renderer) OnResize(width, height uint32) error {
	if err := r.backend.Resize(width, height); err != nil {
		return err
	}
	if width == 0 || height == 0 {
		return nil
	}
	return r.backend.Finalize()
}

func (r *Renderer) Shutdown() {
	r.backend.Release()
	r.models = nil
}
