package vulkan

import (
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/umbra/engine/core"
	"github.com/spaghettifunk/umbra/engine/math"
	"github.com/spaghettifunk/umbra/engine/renderer/metadata"
)

type Pass int

const (
	PassShadow Pass = iota
	PassGeometry
	PassLighting
)

func (p Pass) String() string {
	switch p {
	case PassShadow:
		return "shadow"
	case PassGeometry:
		return "geometry"
	case PassLighting:
		return "lighting"
	}
	return "unknown"
}

// Uniform blocks. Every member is a vec4 or a mat4 so the std140 layout in
// the shaders matches the Go layout.
type (
	cameraUniform struct {
		ViewProjection mgl32.Mat4
		Position       mgl32.Vec4
	}

	// drawConstants is pushed per draw in push constant mode.
	drawConstants struct {
		World          mgl32.Mat4
		ViewProjection mgl32.Mat4
	}

	/**
	 * @brief Per light data. Transform is the light volume model matrix in
	 * uniform mode and the full volume MVP when pushed.
	 */
	lightUniform struct {
		Transform mgl32.Mat4
		// xyz position, w light type
		PositionType mgl32.Vec4
		// rgb color premultiplied by intensity, w radius
		ColorRadius mgl32.Vec4
		// xyz direction towards which the light shines, w shadow map index or -1
		DirectionShadow mgl32.Vec4
		CameraPosition  mgl32.Vec4
	}
)

const (
	matrixSize        = uint64(unsafe.Sizeof(mgl32.Mat4{}))
	cameraUniformSize = uint64(unsafe.Sizeof(cameraUniform{}))
	drawConstantsSize = uint32(unsafe.Sizeof(drawConstants{}))
	lightUniformSize  = uint64(unsafe.Sizeof(lightUniform{}))
)

/**
 * @brief Everything the shaders read for one frame, computed on the CPU
 * before the frame is submitted.
 */
type frameUniforms struct {
	Camera cameraUniform
	// World matrix per model, in model order.
	Objects []mgl32.Mat4
	// Light view projection per shadow map, in shadow map order.
	ShadowViews []mgl32.Mat4
	// Per light, in light order.
	Lights []lightUniform
}

/** @brief Number of elements each per-draw uniform array must hold. */
type sceneCounts struct {
	Models  uint32
	Shadows uint32
	Lights  uint32
}

/**
 * @brief Decides how per-draw data reaches the shaders. Push constant mode
 * pushes the data with every draw and re-records the command buffers each
 * frame. Dynamic uniform mode writes the data to aligned uniform arrays
 * and picks elements with dynamic offsets, so command buffers are recorded
 * once per swapchain build.
 */
type BindingStrategy interface {
	Mode() metadata.BindingMode
	// RecordsPerFrame is true when command buffers must be re-recorded every frame.
	RecordsPerFrame() bool
	// SetLayouts are the strategy's layouts, appended after the fixed sets of pass.
	SetLayouts(pass Pass) []*DescriptorSetLayout
	PushConstantRanges(pass Pass) []vk.PushConstantRange

	// Reserve sizes the uniform arrays for the scene.
	Reserve(counts sceneCounts)
	// RequestDescriptors adds the strategy's sets to the pool request.
	RequestDescriptors(request *PoolRequest)
	// Build allocates the uniform arena and writes the strategy's sets.
	Build(context *VulkanContext, pool *DescriptorPool) error
	// ShadowMatrices is the array of light view projections sampled by the lighting pass.
	ShadowMatrices() *DynamicRegion

	// Update makes the frame's data visible to the next submission.
	Update(uniforms *frameUniforms) error

	BeginPass(rec Recorder, pass Pass, pipeline *VulkanPipeline)
	BindObject(rec Recorder, pipeline *VulkanPipeline, model uint32)
	BindShadowObject(rec Recorder, pipeline *VulkanPipeline, shadow, model uint32)
	BindLight(rec Recorder, pipeline *VulkanPipeline, light uint32)

	Release()
}

// NewBindingStrategy creates the strategy for mode and its set layouts.
func NewBindingStrategy(context *VulkanContext, mode metadata.BindingMode) (BindingStrategy, error) {
	alignment := context.MinUniformBufferOffsetAlignment()
	switch mode {
	case metadata.BindingPushConstants:
		return newPushConstantStrategy(alignment), nil
	case metadata.BindingDynamicUniforms:
		layouts, err := newDynamicLayouts(context)
		if err != nil {
			return nil, err
		}
		return newDynamicUniformStrategy(layouts, alignment), nil
	}
	return nil, core.ResourceCreationErrorf("unknown binding mode %d", mode)
}

// writeShadowMatrices copies the light view projections into region.
func writeShadowMatrices(region *DynamicRegion, views []mgl32.Mat4) error {
	for i := range views {
		if err := region.Write(uint32(i), math.Bytes(&views[i])); err != nil {
			return err
		}
	}
	return nil
}
