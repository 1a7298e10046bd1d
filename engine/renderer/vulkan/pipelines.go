package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/umbra/engine/core"
	"github.com/spaghettifunk/umbra/engine/math"
	"github.com/spaghettifunk/umbra/engine/renderer/metadata"
)

/**
 * @brief The descriptor set layouts owned by the passes themselves, as
 * opposed to the ones contributed by the binding strategy.
 */
type PassLayouts struct {
	// Material textures, one binding per metadata.TextureSlot.
	Material *DescriptorSetLayout
	// G-buffer attachments sampled by the lighting pass.
	GBuffer *DescriptorSetLayout
	// Shadow map plus its light view projection.
	Shadow *DescriptorSetLayout
}

func NewPassLayouts(context *VulkanContext) (*PassLayouts, error) {
	fragment := vk.ShaderStageFlags(vk.ShaderStageFragmentBit)
	layouts := &PassLayouts{}

	materialBindings := make([]LayoutBinding, metadata.TextureSlotCount)
	for slot := range materialBindings {
		materialBindings[slot] = LayoutBinding{Binding: uint32(slot), Type: vk.DescriptorTypeCombinedImageSampler, Stages: fragment}
	}
	var err error
	if layouts.Material, err = NewDescriptorSetLayout(context, materialBindings...); err != nil {
		return nil, err
	}

	gbufferBindings := make([]LayoutBinding, gbufferAttachmentCount)
	for i := range gbufferBindings {
		gbufferBindings[i] = LayoutBinding{Binding: uint32(i), Type: vk.DescriptorTypeCombinedImageSampler, Stages: fragment}
	}
	if layouts.GBuffer, err = NewDescriptorSetLayout(context, gbufferBindings...); err != nil {
		layouts.Release()
		return nil, err
	}

	if layouts.Shadow, err = NewDescriptorSetLayout(context,
		LayoutBinding{Binding: shadowMapBinding, Type: vk.DescriptorTypeCombinedImageSampler, Stages: fragment},
		LayoutBinding{Binding: shadowMatrixBinding, Type: vk.DescriptorTypeUniformBufferDynamic, Stages: fragment},
	); err != nil {
		layouts.Release()
		return nil, err
	}
	return layouts, nil
}

func (l *PassLayouts) Release() {
	for _, layout := range []*DescriptorSetLayout{l.Material, l.GBuffer, l.Shadow} {
		if layout != nil {
			layout.Release()
		}
	}
}

// Shader base names. Variants are selected by ShaderName.
const (
	shaderShadow           = "shadow"
	shaderGeometry         = "geometry"
	shaderLightingQuad     = "lighting_quad"
	shaderLightingVolume   = "lighting_volume"
	shaderLighting         = "lighting"
	shaderLightingShadowed = "lighting_shadowed"
)

/**
 * @brief The render passes and every pipeline drawn in them. The lighting
 * pass has four variants: full screen quad or light volume, each with or
 * without shadow sampling. All four share one pipeline layout.
 */
type PipelineFamily struct {
	ShadowPass   *VulkanRenderpass
	GeometryPass *VulkanRenderpass
	LightingPass *VulkanRenderpass

	Shadow   *VulkanPipeline
	Geometry *VulkanPipeline
	// Lighting is indexed by [volume][shadowed].
	Lighting [2][2]*VulkanPipeline

	// ColorFormat is the swapchain format the lighting pass was built for.
	ColorFormat vk.Format

	stages []*VulkanShaderStage
}

// LightingPipeline returns the variant that draws light.
func (f *PipelineFamily) LightingPipeline(light *metadata.Light) *VulkanPipeline {
	return f.Lighting[boolIndex(light.Type == metadata.LightTypePoint)][boolIndex(light.CastShadows)]
}

func boolIndex(b bool) int {
	if b {
		return 1
	}
	return 0
}

type PipelineFamilyConfig struct {
	Layouts     *PassLayouts
	Strategy    BindingStrategy
	Shaders     ShaderSource
	ColorFormat vk.Format
	ClearColor  [4]float32
}

func NewPipelineFamily(context *VulkanContext, config PipelineFamilyConfig) (*PipelineFamily, error) {
	family := &PipelineFamily{ColorFormat: config.ColorFormat}
	if err := family.build(context, config); err != nil {
		family.Destroy(context)
		return nil, err
	}
	return family, nil
}

func (f *PipelineFamily) stage(context *VulkanContext, config PipelineFamilyConfig, base string, stage vk.ShaderStageFlagBits) (*VulkanShaderStage, error) {
	s, err := LoadShaderStage(context, config.Shaders, base, config.Strategy.Mode(), stage)
	if err != nil {
		return nil, err
	}
	f.stages = append(f.stages, s)
	return s, nil
}

func (f *PipelineFamily) build(context *VulkanContext, config PipelineFamilyConfig) error {
	var err error
	if f.ShadowPass, err = NewShadowRenderpass(context); err != nil {
		return err
	}
	if f.GeometryPass, err = NewGeometryRenderpass(context); err != nil {
		return err
	}
	if f.LightingPass, err = NewLightingRenderpass(context, config.ColorFormat, config.ClearColor); err != nil {
		return err
	}

	vertex := vk.ShaderStageVertexBit
	fragment := vk.ShaderStageFragmentBit
	strategy := config.Strategy

	shadowVert, err := f.stage(context, config, shaderShadow, vertex)
	if err != nil {
		return err
	}
	if f.Shadow, err = NewGraphicsPipeline(context, &VulkanPipelineConfig{
		Name:                 "shadow",
		Renderpass:           f.ShadowPass,
		Stages:               []*VulkanShaderStage{shadowVert},
		Stride:               math.Vertex3DSize,
		Attributes:           PositionAttribute(),
		Topology:             vk.PrimitiveTopologyTriangleList,
		DescriptorSetLayouts: strategy.SetLayouts(PassShadow),
		PushConstantRanges:   strategy.PushConstantRanges(PassShadow),
		CullMode:             vk.CullModeNone,
		DepthTest:            true,
		DepthWrite:           true,
		DepthCompare:         vk.CompareOpLessOrEqual,
		DepthBias:            true,
	}); err != nil {
		return err
	}

	geometryVert, err := f.stage(context, config, shaderGeometry, vertex)
	if err != nil {
		return err
	}
	geometryFrag, err := f.stage(context, config, shaderGeometry, fragment)
	if err != nil {
		return err
	}
	if f.Geometry, err = NewGraphicsPipeline(context, &VulkanPipelineConfig{
		Name:                 "geometry",
		Renderpass:           f.GeometryPass,
		Stages:               []*VulkanShaderStage{geometryVert, geometryFrag},
		Stride:               math.Vertex3DSize,
		Attributes:           Vertex3DAttributes(),
		Topology:             vk.PrimitiveTopologyTriangleList,
		DescriptorSetLayouts: append([]*DescriptorSetLayout{config.Layouts.Material}, strategy.SetLayouts(PassGeometry)...),
		PushConstantRanges:   strategy.PushConstantRanges(PassGeometry),
		CullMode:             vk.CullModeBackBit,
		DepthTest:            true,
		DepthWrite:           true,
		DepthCompare:         vk.CompareOpLess,
	}); err != nil {
		return err
	}

	lightingLayouts := append([]*DescriptorSetLayout{config.Layouts.GBuffer, config.Layouts.Shadow}, strategy.SetLayouts(PassLighting)...)
	fragments := [2]string{shaderLighting, shaderLightingShadowed}
	for volume := 0; volume < 2; volume++ {
		pipelineConfig := &VulkanPipelineConfig{
			Renderpass:           f.LightingPass,
			DescriptorSetLayouts: lightingLayouts,
			PushConstantRanges:   strategy.PushConstantRanges(PassLighting),
			Blend:                BlendAdditive,
		}
		vertBase := shaderLightingQuad
		if volume == 1 {
			// Back faces of the volume that lie behind scene geometry.
			vertBase = shaderLightingVolume
			pipelineConfig.Stride = math.Vertex3DSize
			pipelineConfig.Attributes = PositionAttribute()
			pipelineConfig.Topology = vk.PrimitiveTopologyTriangleList
			pipelineConfig.CullMode = vk.CullModeFrontBit
			pipelineConfig.DepthTest = true
			pipelineConfig.DepthCompare = vk.CompareOpGreaterOrEqual
		} else {
			pipelineConfig.Topology = vk.PrimitiveTopologyTriangleStrip
			pipelineConfig.CullMode = vk.CullModeNone
		}
		vert, err := f.stage(context, config, vertBase, vertex)
		if err != nil {
			return err
		}
		for shadowed := 0; shadowed < 2; shadowed++ {
			frag, err := f.stage(context, config, fragments[shadowed], fragment)
			if err != nil {
				return err
			}
			variant := *pipelineConfig
			variant.Name = vertBase + "/" + fragments[shadowed]
			variant.Stages = []*VulkanShaderStage{vert, frag}
			if f.Lighting[volume][shadowed], err = NewGraphicsPipeline(context, &variant); err != nil {
				return err
			}
		}
	}
	// Modules are no longer needed once the pipelines exist.
	f.releaseStages(context)
	core.LogInfo("Created %s pipelines for color format %d.", strategy.Mode(), config.ColorFormat)
	return nil
}

func (f *PipelineFamily) releaseStages(context *VulkanContext) {
	for _, s := range f.stages {
		s.Destroy(context)
	}
	f.stages = nil
}

func (f *PipelineFamily) Destroy(context *VulkanContext) {
	f.releaseStages(context)
	pipelines := []*VulkanPipeline{f.Shadow, f.Geometry}
	for _, row := range f.Lighting {
		pipelines = append(pipelines, row[:]...)
	}
	for _, p := range pipelines {
		if p != nil {
			p.Destroy(context)
		}
	}
	for _, rp := range []*VulkanRenderpass{f.ShadowPass, f.GeometryPass, f.LightingPass} {
		if rp != nil {
			rp.RenderpassDestroy(context)
		}
	}
}
