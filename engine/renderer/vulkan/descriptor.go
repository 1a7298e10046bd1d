package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/umbra/engine/core"
)

/** @brief One binding of a descriptor set layout. */
type LayoutBinding struct {
	Binding uint32
	Type    vk.DescriptorType
	Stages  vk.ShaderStageFlags
}

type DescriptorSetLayout struct {
	Handle   vk.DescriptorSetLayout
	Bindings []LayoutBinding

	context *VulkanContext
}

func NewDescriptorSetLayout(context *VulkanContext, bindings ...LayoutBinding) (*DescriptorSetLayout, error) {
	vkBindings := make([]vk.DescriptorSetLayoutBinding, len(bindings))
	for i, b := range bindings {
		vkBindings[i] = vk.DescriptorSetLayoutBinding{
			Binding:         b.Binding,
			DescriptorType:  b.Type,
			DescriptorCount: 1,
			StageFlags:      b.Stages,
		}
	}
	createInfo := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(vkBindings)),
		PBindings:    vkBindings,
	}
	var handle vk.DescriptorSetLayout
	if res := vk.CreateDescriptorSetLayout(context.Device.LogicalDevice, &createInfo, context.Allocator, &handle); res != vk.Success {
		return nil, resultError(res, "failed to create descriptor set layout")
	}
	return &DescriptorSetLayout{Handle: handle, Bindings: bindings, context: context}, nil
}

func (l *DescriptorSetLayout) Release() {
	if l.context != nil && l.Handle != nil {
		vk.DestroyDescriptorSetLayout(l.context.Device.LogicalDevice, l.Handle, l.context.Allocator)
		l.Handle = nil
	}
}

// PoolSizes counts descriptors of each type needed for sets instances of this layout.
func (l *DescriptorSetLayout) PoolSizes(sets uint32) map[vk.DescriptorType]uint32 {
	sizes := map[vk.DescriptorType]uint32{}
	for _, b := range l.Bindings {
		sizes[b.Type] += sets
	}
	return sizes
}

/**
 * @brief Accumulates what a descriptor pool must hold before it is created.
 */
type PoolRequest struct {
	MaxSets uint32
	Sizes   map[vk.DescriptorType]uint32
}

// Add reserves room for sets instances of layout.
func (r *PoolRequest) Add(layout *DescriptorSetLayout, sets uint32) {
	if sets == 0 {
		return
	}
	if r.Sizes == nil {
		r.Sizes = map[vk.DescriptorType]uint32{}
	}
	r.MaxSets += sets
	for t, n := range layout.PoolSizes(sets) {
		r.Sizes[t] += n
	}
}

type DescriptorPool struct {
	Handle vk.DescriptorPool

	context *VulkanContext
}

func NewDescriptorPool(context *VulkanContext, request PoolRequest) (*DescriptorPool, error) {
	if request.MaxSets == 0 {
		return nil, core.ResourceCreationErrorf("descriptor pool without sets")
	}
	sizes := make([]vk.DescriptorPoolSize, 0, len(request.Sizes))
	for t, n := range request.Sizes {
		sizes = append(sizes, vk.DescriptorPoolSize{Type: t, DescriptorCount: n})
	}
	createInfo := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		MaxSets:       request.MaxSets,
		PoolSizeCount: uint32(len(sizes)),
		PPoolSizes:    sizes,
	}
	var handle vk.DescriptorPool
	if res := vk.CreateDescriptorPool(context.Device.LogicalDevice, &createInfo, context.Allocator, &handle); res != vk.Success {
		return nil, resultError(res, "failed to create descriptor pool for %d sets", request.MaxSets)
	}
	return &DescriptorPool{Handle: handle, context: context}, nil
}

func (p *DescriptorPool) Allocate(layout *DescriptorSetLayout) (*DescriptorSet, error) {
	allocInfo := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     p.Handle,
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{layout.Handle},
	}
	sets := make([]vk.DescriptorSet, 1)
	if res := vk.AllocateDescriptorSets(p.context.Device.LogicalDevice, &allocInfo, &sets[0]); res != vk.Success {
		return nil, resultError(res, "failed to allocate descriptor set")
	}
	return &DescriptorSet{Handle: sets[0], Layout: layout, context: p.context}, nil
}

// Release destroys the pool and implicitly every set allocated from it.
func (p *DescriptorPool) Release() {
	if p.context != nil && p.Handle != nil {
		vk.DestroyDescriptorPool(p.context.Device.LogicalDevice, p.Handle, p.context.Allocator)
		p.Handle = nil
	}
}

type DescriptorSet struct {
	Handle vk.DescriptorSet
	Layout *DescriptorSetLayout

	context *VulkanContext
}

/**
 * @brief One resource to write into a descriptor set binding: either a
 * buffer range or a sampled image.
 */
type Descriptor struct {
	Binding uint32
	Type    vk.DescriptorType

	Buffer *VulkanBuffer
	Offset vk.DeviceSize
	Range  vk.DeviceSize

	View        vk.ImageView
	Sampler     vk.Sampler
	ImageLayout vk.ImageLayout
}

// BufferDescriptor binds size bytes of buffer at offset. Dynamic descriptors
// add the offset given at bind time.
func BufferDescriptor(binding uint32, buffer *VulkanBuffer, offset, size vk.DeviceSize, dynamic bool) Descriptor {
	t := vk.DescriptorTypeUniformBuffer
	if dynamic {
		t = vk.DescriptorTypeUniformBufferDynamic
	}
	return Descriptor{Binding: binding, Type: t, Buffer: buffer, Offset: offset, Range: size}
}

func ImageDescriptor(binding uint32, view vk.ImageView, sampler vk.Sampler, layout vk.ImageLayout) Descriptor {
	return Descriptor{
		Binding:     binding,
		Type:        vk.DescriptorTypeCombinedImageSampler,
		View:        view,
		Sampler:     sampler,
		ImageLayout: layout,
	}
}

// TextureDescriptor binds texture through its sRGB or linear view.
func TextureDescriptor(binding uint32, texture *VulkanTexture, srgb bool) Descriptor {
	return ImageDescriptor(binding, texture.View(srgb), texture.Sampler, vk.ImageLayoutShaderReadOnlyOptimal)
}

func (d Descriptor) isBuffer() bool {
	return d.Type == vk.DescriptorTypeUniformBuffer || d.Type == vk.DescriptorTypeUniformBufferDynamic
}

func (d Descriptor) validate() error {
	if d.isBuffer() {
		if d.Buffer == nil || d.Range == 0 {
			return core.ResourceCreationErrorf("binding %d: uniform descriptor without a buffer range", d.Binding)
		}
		return nil
	}
	if d.Type != vk.DescriptorTypeCombinedImageSampler {
		return core.ResourceCreationErrorf("binding %d: unsupported descriptor type %d", d.Binding, d.Type)
	}
	if d.View == nil || d.Sampler == nil {
		return core.ResourceCreationErrorf("binding %d: image descriptor without view or sampler", d.Binding)
	}
	return nil
}

// Write points the set's bindings at the given resources.
func (s *DescriptorSet) Write(descriptors ...Descriptor) error {
	writes := make([]vk.WriteDescriptorSet, len(descriptors))
	for i, d := range descriptors {
		if err := d.validate(); err != nil {
			return err
		}
		writes[i] = vk.WriteDescriptorSet{
			SType:           vk.StructureTypeWriteDescriptorSet,
			DstSet:          s.Handle,
			DstBinding:      d.Binding,
			DstArrayElement: 0,
			DescriptorCount: 1,
			DescriptorType:  d.Type,
		}
		if d.isBuffer() {
			writes[i].PBufferInfo = []vk.DescriptorBufferInfo{{
				Buffer: d.Buffer.Handle,
				Offset: d.Offset,
				Range:  d.Range,
			}}
		} else {
			writes[i].PImageInfo = []vk.DescriptorImageInfo{{
				Sampler:     d.Sampler,
				ImageView:   d.View,
				ImageLayout: d.ImageLayout,
			}}
		}
	}
	vk.UpdateDescriptorSets(s.context.Device.LogicalDevice, uint32(len(writes)), writes, 0, nil)
	return nil
}
