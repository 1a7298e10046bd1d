package vulkan

import vk "github.com/goki/vulkan"

// Recorder is the subset of command recording the frame passes use.
// VulkanCommandBuffer implements it on a real device.
type Recorder interface {
	BeginRenderPass(renderpass *VulkanRenderpass, framebuffer *VulkanFramebuffer, extent vk.Extent2D)
	EndRenderPass()
	// SetViewport sets both the viewport and the scissor to cover extent.
	SetViewport(extent vk.Extent2D)
	BindPipeline(pipeline *VulkanPipeline)
	BindGeometry(geometry *GeometryBuffers)
	BindDescriptorSets(pipeline *VulkanPipeline, firstSet uint32, sets []*DescriptorSet, dynamicOffsets []uint32)
	PushConstants(pipeline *VulkanPipeline, stages vk.ShaderStageFlags, offset uint32, data []byte)
	Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32)
	DrawIndexed(indexCount, instanceCount, firstIndex uint32, vertexOffset int32, firstInstance uint32)
}

var _ Recorder = (*VulkanCommandBuffer)(nil)
