package vulkan

import (
	vk "github.com/goki/vulkan"
)

/** @brief How one attachment is loaded, stored and laid out by a render pass. */
type AttachmentConfig struct {
	Format  vk.Format
	LoadOp  vk.AttachmentLoadOp
	StoreOp vk.AttachmentStoreOp
	// Layout while the subpass runs.
	Layout        vk.ImageLayout
	InitialLayout vk.ImageLayout
	FinalLayout   vk.ImageLayout
}

type RenderpassConfig struct {
	Name         string
	Colors       []AttachmentConfig
	Depth        *AttachmentConfig
	Dependencies []vk.SubpassDependency
	// ClearValues in attachment order: colors first, then depth.
	ClearValues []vk.ClearValue
}

type VulkanRenderpass struct {
	Handle      vk.RenderPass
	Name        string
	ClearValues []vk.ClearValue
	// Number of color attachments, needed by pipelines for blend state.
	ColorAttachmentCount uint32
	HasDepth             bool
}

func RenderpassCreate(context *VulkanContext, config RenderpassConfig) (*VulkanRenderpass, error) {
	outRenderpass := &VulkanRenderpass{
		Name:                 config.Name,
		ClearValues:          config.ClearValues,
		ColorAttachmentCount: uint32(len(config.Colors)),
		HasDepth:             config.Depth != nil,
	}

	attachments := make([]vk.AttachmentDescription, 0, len(config.Colors)+1)
	colorReferences := make([]vk.AttachmentReference, 0, len(config.Colors))
	for _, color := range config.Colors {
		colorReferences = append(colorReferences, vk.AttachmentReference{
			Attachment: uint32(len(attachments)),
			Layout:     color.Layout,
		})
		attachments = append(attachments, attachmentDescription(color))
	}

	// Main subpass
	subpass := vk.SubpassDescription{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: uint32(len(colorReferences)),
		PColorAttachments:    colorReferences,
	}
	if config.Depth != nil {
		subpass.PDepthStencilAttachment = &vk.AttachmentReference{
			Attachment: uint32(len(attachments)),
			Layout:     config.Depth.Layout,
		}
		attachments = append(attachments, attachmentDescription(*config.Depth))
	}

	renderpassCreateInfo := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: uint32(len(config.Dependencies)),
		PDependencies:   config.Dependencies,
	}

	var pRenderPass vk.RenderPass
	if res := vk.CreateRenderPass(context.Device.LogicalDevice, &renderpassCreateInfo, context.Allocator, &pRenderPass); res != vk.Success {
		return nil, resultError(res, "failed to create %s render pass", config.Name)
	}
	outRenderpass.Handle = pRenderPass
	return outRenderpass, nil
}

func attachmentDescription(a AttachmentConfig) vk.AttachmentDescription {
	return vk.AttachmentDescription{
		Format:         a.Format,
		Samples:        vk.SampleCount1Bit,
		LoadOp:         a.LoadOp,
		StoreOp:        a.StoreOp,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  a.InitialLayout,
		FinalLayout:    a.FinalLayout,
	}
}

func (vr *VulkanRenderpass) RenderpassDestroy(context *VulkanContext) {
	if vr.Handle != nil {
		vk.DestroyRenderPass(context.Device.LogicalDevice, vr.Handle, context.Allocator)
		vr.Handle = nil
	}
}

func colorClear(r, g, b, a float32) vk.ClearValue {
	var v vk.ClearValue
	v.SetColor([]float32{r, g, b, a})
	return v
}

func depthClear(depth float32) vk.ClearValue {
	var v vk.ClearValue
	v.SetDepthStencil(depth, 0)
	return v
}

// Access and stage masks shared by the pass dependencies.
const (
	stageFragmentShader  = vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit)
	stageColorOutput     = vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)
	stageFragmentTests   = vk.PipelineStageFlags(vk.PipelineStageEarlyFragmentTestsBit | vk.PipelineStageLateFragmentTestsBit)
	accessShaderRead     = vk.AccessFlags(vk.AccessShaderReadBit)
	accessColorWrite     = vk.AccessFlags(vk.AccessColorAttachmentWriteBit)
	accessColorReadWrite = vk.AccessFlags(vk.AccessColorAttachmentReadBit | vk.AccessColorAttachmentWriteBit)
	accessDepthWrite     = vk.AccessFlags(vk.AccessDepthStencilAttachmentWriteBit)
	accessDepthReadWrite = vk.AccessFlags(vk.AccessDepthStencilAttachmentReadBit | vk.AccessDepthStencilAttachmentWriteBit)
)

/**
 * @brief Creates the depth only pass that renders one shadow map. The map
 * ends up in shader read layout for the lighting pass.
 */
func NewShadowRenderpass(context *VulkanContext) (*VulkanRenderpass, error) {
	return RenderpassCreate(context, RenderpassConfig{
		Name: "shadow",
		Depth: &AttachmentConfig{
			Format:        ShadowMapFormat,
			LoadOp:        vk.AttachmentLoadOpClear,
			StoreOp:       vk.AttachmentStoreOpStore,
			Layout:        vk.ImageLayoutDepthStencilAttachmentOptimal,
			InitialLayout: vk.ImageLayoutUndefined,
			FinalLayout:   vk.ImageLayoutShaderReadOnlyOptimal,
		},
		Dependencies: []vk.SubpassDependency{
			{
				// Previous frame's lighting reads before we overwrite.
				SrcSubpass:    vk.SubpassExternal,
				DstSubpass:    0,
				SrcStageMask:  stageFragmentShader,
				SrcAccessMask: accessShaderRead,
				DstStageMask:  stageFragmentTests,
				DstAccessMask: accessDepthReadWrite,
			},
			{
				SrcSubpass:    0,
				DstSubpass:    vk.SubpassExternal,
				SrcStageMask:  stageFragmentTests,
				SrcAccessMask: accessDepthWrite,
				DstStageMask:  stageFragmentShader,
				DstAccessMask: accessShaderRead,
			},
		},
		ClearValues: []vk.ClearValue{depthClear(1.0)},
	})
}

/**
 * @brief Creates the pass writing the G-buffer: position, normal, albedo
 * and material attachments plus the shared depth buffer.
 */
func NewGeometryRenderpass(context *VulkanContext) (*VulkanRenderpass, error) {
	gbuffer := func(format vk.Format) AttachmentConfig {
		return AttachmentConfig{
			Format:        format,
			LoadOp:        vk.AttachmentLoadOpClear,
			StoreOp:       vk.AttachmentStoreOpStore,
			Layout:        vk.ImageLayoutColorAttachmentOptimal,
			InitialLayout: vk.ImageLayoutUndefined,
			FinalLayout:   vk.ImageLayoutShaderReadOnlyOptimal,
		}
	}
	return RenderpassCreate(context, RenderpassConfig{
		Name: "geometry",
		Colors: []AttachmentConfig{
			gbuffer(GBufferPositionFormat),
			gbuffer(GBufferNormalFormat),
			gbuffer(GBufferAlbedoFormat),
			gbuffer(GBufferMaterialFormat),
		},
		Depth: &AttachmentConfig{
			Format:        context.Device.DepthFormat,
			LoadOp:        vk.AttachmentLoadOpClear,
			StoreOp:       vk.AttachmentStoreOpStore,
			Layout:        vk.ImageLayoutDepthStencilAttachmentOptimal,
			InitialLayout: vk.ImageLayoutUndefined,
			FinalLayout:   vk.ImageLayoutDepthStencilAttachmentOptimal,
		},
		Dependencies: []vk.SubpassDependency{
			{
				SrcSubpass:    vk.SubpassExternal,
				DstSubpass:    0,
				SrcStageMask:  stageFragmentShader | stageFragmentTests,
				SrcAccessMask: accessShaderRead | vk.AccessFlags(vk.AccessDepthStencilAttachmentReadBit),
				DstStageMask:  stageColorOutput | stageFragmentTests,
				DstAccessMask: accessColorWrite | accessDepthReadWrite,
			},
			{
				SrcSubpass:    0,
				DstSubpass:    vk.SubpassExternal,
				SrcStageMask:  stageColorOutput | stageFragmentTests,
				SrcAccessMask: accessColorWrite | accessDepthWrite,
				DstStageMask:  stageFragmentShader | stageFragmentTests,
				DstAccessMask: accessShaderRead | vk.AccessFlags(vk.AccessDepthStencilAttachmentReadBit),
			},
		},
		ClearValues: []vk.ClearValue{
			colorClear(0, 0, 0, 0),
			colorClear(0, 0, 0, 0),
			colorClear(0, 0, 0, 0),
			colorClear(0, 0, 0, 0),
			depthClear(1.0),
		},
	})
}

/**
 * @brief Creates the pass accumulating light into the swapchain image. The
 * depth written by the geometry pass is loaded read only so light volumes
 * can be depth tested against the scene.
 */
func NewLightingRenderpass(context *VulkanContext, colorFormat vk.Format, clear [4]float32) (*VulkanRenderpass, error) {
	return RenderpassCreate(context, RenderpassConfig{
		Name: "lighting",
		Colors: []AttachmentConfig{{
			Format:        colorFormat,
			LoadOp:        vk.AttachmentLoadOpClear,
			StoreOp:       vk.AttachmentStoreOpStore,
			Layout:        vk.ImageLayoutColorAttachmentOptimal,
			InitialLayout: vk.ImageLayoutUndefined,
			FinalLayout:   vk.ImageLayoutPresentSrc,
		}},
		Depth: &AttachmentConfig{
			Format:        context.Device.DepthFormat,
			LoadOp:        vk.AttachmentLoadOpLoad,
			StoreOp:       vk.AttachmentStoreOpDontCare,
			Layout:        vk.ImageLayoutDepthStencilReadOnlyOptimal,
			InitialLayout: vk.ImageLayoutDepthStencilAttachmentOptimal,
			FinalLayout:   vk.ImageLayoutDepthStencilAttachmentOptimal,
		},
		Dependencies: []vk.SubpassDependency{
			{
				SrcSubpass:    vk.SubpassExternal,
				DstSubpass:    0,
				SrcStageMask:  stageColorOutput | stageFragmentTests,
				SrcAccessMask: accessDepthWrite,
				DstStageMask:  stageColorOutput | stageFragmentTests,
				DstAccessMask: accessColorReadWrite | vk.AccessFlags(vk.AccessDepthStencilAttachmentReadBit),
			},
		},
		ClearValues: []vk.ClearValue{
			colorClear(clear[0], clear[1], clear[2], clear[3]),
			depthClear(1.0),
		},
	})
}
