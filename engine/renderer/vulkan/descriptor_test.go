package vulkan

import (
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/stretchr/testify/assert"
)

func TestPoolRequestAccumulatesLayouts(t *testing.T) {
	fragment := vk.ShaderStageFlags(vk.ShaderStageFragmentBit)
	material := &DescriptorSetLayout{}
	for i := uint32(0); i < 5; i++ {
		material.Bindings = append(material.Bindings, LayoutBinding{i, vk.DescriptorTypeCombinedImageSampler, fragment})
	}
	shadow := &DescriptorSetLayout{Bindings: []LayoutBinding{
		{shadowMapBinding, vk.DescriptorTypeCombinedImageSampler, fragment},
		{shadowMatrixBinding, vk.DescriptorTypeUniformBufferDynamic, fragment},
	}}

	request := PoolRequest{}
	request.Add(material, 3)
	request.Add(shadow, 2)
	request.Add(shadow, 0)

	assert.Equal(t, uint32(5), request.MaxSets)
	assert.Equal(t, uint32(3*5+2), request.Sizes[vk.DescriptorTypeCombinedImageSampler])
	assert.Equal(t, uint32(2), request.Sizes[vk.DescriptorTypeUniformBufferDynamic])
	assert.Zero(t, request.Sizes[vk.DescriptorTypeUniformBuffer])
}

func TestDescriptorValidate(t *testing.T) {
	buffer := &VulkanBuffer{Size: 256}

	assert.NoError(t, BufferDescriptor(0, buffer, 0, 64, true).validate())
	assert.Equal(t, vk.DescriptorTypeUniformBufferDynamic, BufferDescriptor(0, buffer, 0, 64, true).Type)
	assert.Equal(t, vk.DescriptorTypeUniformBuffer, BufferDescriptor(0, buffer, 0, 64, false).Type)
	assert.Error(t, BufferDescriptor(0, nil, 0, 64, false).validate())
	assert.Error(t, BufferDescriptor(0, buffer, 0, 0, false).validate())

	assert.Error(t, ImageDescriptor(1, nil, nil, vk.ImageLayoutShaderReadOnlyOptimal).validate())
	assert.Error(t, Descriptor{Binding: 2, Type: vk.DescriptorTypeStorageBuffer}.validate())
}
