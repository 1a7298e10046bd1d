package renderer

import (
	"github.com/spaghettifunk/umbra/engine/math"
	"github.com/spaghettifunk/umbra/engine/renderer/metadata"
	"github.com/spaghettifunk/umbra/engine/renderer/vulkan"
)

/**
 * @brief What a graphics backend offers the engine. Models and lights are
 * added before the first Finalize; Finalize is called again after every
 * Resize to rebuild the size dependent objects.
 */
type RendererBackend interface {
	LoadModel(path string, transform *math.Transform) (*vulkan.Model, error)
	AddLight(light metadata.Light) error
	Finalize() error
	Render(frame *metadata.FrameData) error
	Resize(width, height uint32) error
	Release()
}

var _ RendererBackend = (*vulkan.VulkanRenderer)(nil)
