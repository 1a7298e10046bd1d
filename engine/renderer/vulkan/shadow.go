package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/umbra/engine/core"
	"github.com/spaghettifunk/umbra/engine/renderer/metadata"
)

/**
 * @brief Depth target and lighting descriptor set of one shadow casting
 * light.
 */
type ShadowMap struct {
	/** @brief Position in the shadow matrix array. */
	Index uint32
	/** @brief Index of the light casting this shadow. */
	Light uint32

	Image       *VulkanImage
	Framebuffer *VulkanFramebuffer
	// Set binds the map and its view projection for the lighting pass.
	Set *DescriptorSet
}

// ShadowMaps owns one ShadowMap per shadow casting light, in light order.
type ShadowMaps struct {
	Maps    []*ShadowMap
	Sampler vk.Sampler

	context *VulkanContext
}

func NewShadowMaps(context *VulkanContext, lights []metadata.Light) (*ShadowMaps, error) {
	shadows := &ShadowMaps{context: context}
	indices := shadowIndices(lights)
	for light, index := range indices {
		if index < 0 {
			continue
		}
		if uint32(index) >= MaxShadowCasters {
			shadows.Release()
			return nil, core.ResourceCreationErrorf("at most %d lights can cast shadows", MaxShadowCasters)
		}
		image, err := NewImage(context, ImageConfig{
			Width:  ShadowMapSize,
			Height: ShadowMapSize,
			Format: ShadowMapFormat,
			Usage:  vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit | vk.ImageUsageSampledBit),
			Aspect: vk.ImageAspectFlags(vk.ImageAspectDepthBit),
		})
		if err != nil {
			shadows.Release()
			return nil, err
		}
		shadows.Maps = append(shadows.Maps, &ShadowMap{Index: uint32(index), Light: uint32(light), Image: image})
	}
	if len(shadows.Maps) == 0 {
		return shadows, nil
	}

	// Outside the map nothing is in shadow.
	sampler, err := NewSampler(context, SamplerConfig{
		Filter:      metadata.TextureFilterModeLinear,
		AddressMode: vk.SamplerAddressModeClampToBorder,
		BorderColor: vk.BorderColorFloatOpaqueWhite,
	})
	if err != nil {
		shadows.Release()
		return nil, err
	}
	shadows.Sampler = sampler
	core.LogDebug("Created %d shadow maps of %dx%d.", len(shadows.Maps), ShadowMapSize, ShadowMapSize)
	return shadows, nil
}

func (s *ShadowMaps) Count() uint32 {
	return uint32(len(s.Maps))
}

// ForLight returns the shadow map of light, nil when it casts none.
func (s *ShadowMaps) ForLight(light uint32) *ShadowMap {
	for _, m := range s.Maps {
		if m.Light == light {
			return m
		}
	}
	return nil
}

func (s *ShadowMaps) RequestDescriptors(request *PoolRequest, layout *DescriptorSetLayout) {
	if len(s.Maps) > 0 {
		request.Add(layout, s.Count())
	}
}

/**
 * @brief Creates the framebuffers against renderpass and writes every
 * shadow set: the map at shadowMapBinding and the matrices array, addressed
 * by dynamic offset, at shadowMatrixBinding.
 */
func (s *ShadowMaps) Build(renderpass *VulkanRenderpass, pool *DescriptorPool, layout *DescriptorSetLayout, matrices *DynamicRegion) error {
	for _, m := range s.Maps {
		if m.Framebuffer == nil {
			framebuffer, err := FramebufferCreate(s.context, renderpass, ShadowMapSize, ShadowMapSize, m.Image.View)
			if err != nil {
				return err
			}
			m.Framebuffer = framebuffer
		}
		if m.Set != nil {
			continue
		}
		set, err := pool.Allocate(layout)
		if err != nil {
			return err
		}
		if err := set.Write(
			ImageDescriptor(shadowMapBinding, m.Image.View, s.Sampler, vk.ImageLayoutShaderReadOnlyOptimal),
			matrices.Descriptor(shadowMatrixBinding, true),
		); err != nil {
			return err
		}
		m.Set = set
	}
	return nil
}

func (s *ShadowMaps) Release() {
	for _, m := range s.Maps {
		if m.Framebuffer != nil {
			m.Framebuffer.Destroy(s.context)
		}
		if m.Image != nil {
			m.Image.Release()
		}
	}
	s.Maps = nil
	if s.Sampler != nil {
		vk.DestroySampler(s.context.Device.LogicalDevice, s.Sampler, s.context.Allocator)
		s.Sampler = nil
	}
}
