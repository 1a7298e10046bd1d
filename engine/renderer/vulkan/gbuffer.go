package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/umbra/engine/renderer/metadata"
)

var gbufferFormats = [gbufferAttachmentCount]vk.Format{
	GBufferPositionFormat,
	GBufferNormalFormat,
	GBufferAlbedoFormat,
	GBufferMaterialFormat,
}

/**
 * @brief The geometry pass targets and the descriptor set the lighting pass
 * reads them through. Rebuilt whenever the swapchain extent changes.
 */
type GBuffer struct {
	Attachments [gbufferAttachmentCount]*VulkanImage
	Framebuffer *VulkanFramebuffer
	Sampler     vk.Sampler
	Set         *DescriptorSet

	pool    *DescriptorPool
	context *VulkanContext
}

// NewGBuffer creates the attachments at the size of depth, which is shared
// with the geometry pass framebuffer.
func NewGBuffer(context *VulkanContext, renderpass *VulkanRenderpass, layout *DescriptorSetLayout, depth *VulkanImage) (*GBuffer, error) {
	gbuffer := &GBuffer{context: context}
	if err := gbuffer.build(renderpass, layout, depth); err != nil {
		gbuffer.Release()
		return nil, err
	}
	return gbuffer, nil
}

func (g *GBuffer) build(renderpass *VulkanRenderpass, layout *DescriptorSetLayout, depth *VulkanImage) error {
	views := make([]vk.ImageView, 0, gbufferAttachmentCount+1)
	for i, format := range gbufferFormats {
		image, err := NewColorTarget(g.context, depth.Width, depth.Height, format)
		if err != nil {
			return err
		}
		g.Attachments[i] = image
		views = append(views, image.View)
	}
	views = append(views, depth.View)

	var err error
	if g.Framebuffer, err = FramebufferCreate(g.context, renderpass, depth.Width, depth.Height, views...); err != nil {
		return err
	}
	// One texel per fragment, no filtering across texels.
	if g.Sampler, err = NewSampler(g.context, SamplerConfig{
		Filter:      metadata.TextureFilterModeNearest,
		AddressMode: vk.SamplerAddressModeClampToEdge,
		BorderColor: vk.BorderColorFloatOpaqueBlack,
	}); err != nil {
		return err
	}

	request := PoolRequest{}
	request.Add(layout, 1)
	if g.pool, err = NewDescriptorPool(g.context, request); err != nil {
		return err
	}
	if g.Set, err = g.pool.Allocate(layout); err != nil {
		return err
	}
	descriptors := make([]Descriptor, 0, gbufferAttachmentCount)
	for i, image := range g.Attachments {
		descriptors = append(descriptors, ImageDescriptor(uint32(i), image.View, g.Sampler, vk.ImageLayoutShaderReadOnlyOptimal))
	}
	return g.Set.Write(descriptors...)
}

func (g *GBuffer) Release() {
	if g.pool != nil {
		g.pool.Release()
		g.pool = nil
	}
	g.Set = nil
	if g.Sampler != nil {
		vk.DestroySampler(g.context.Device.LogicalDevice, g.Sampler, g.context.Allocator)
		g.Sampler = nil
	}
	if g.Framebuffer != nil {
		g.Framebuffer.Destroy(g.context)
		g.Framebuffer = nil
	}
	for i, image := range g.Attachments {
		if image != nil {
			image.Release()
			g.Attachments[i] = nil
		}
	}
}
