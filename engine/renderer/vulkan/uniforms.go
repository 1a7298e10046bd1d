package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/umbra/engine/core"
	"github.com/spaghettifunk/umbra/engine/math"
)

/**
 * @brief An array of uniform elements inside a UniformArena. Elements sit
 * Stride bytes apart, Stride being the element size rounded up to the
 * device's minimum uniform offset alignment, so element i is reached
 * through the dynamic offset Offset(i).
 */
type DynamicRegion struct {
	Name        string
	Base        vk.DeviceSize
	ElementSize vk.DeviceSize
	Stride      vk.DeviceSize
	Count       uint32

	arena *UniformArena
}

// Offset is the dynamic offset of element i relative to the region base.
func (r *DynamicRegion) Offset(i uint32) uint32 {
	return uint32(vk.DeviceSize(i) * r.Stride)
}

func (r *DynamicRegion) Size() vk.DeviceSize {
	return r.Stride * vk.DeviceSize(r.Count)
}

// Write copies data into element i.
func (r *DynamicRegion) Write(i uint32, data []byte) error {
	if i >= r.Count {
		return core.ResourceCreationErrorf("%s: element %d out of %d", r.Name, i, r.Count)
	}
	if vk.DeviceSize(len(data)) > r.ElementSize {
		return core.ResourceCreationErrorf("%s: %d bytes do not fit an element of %d", r.Name, len(data), r.ElementSize)
	}
	if r.arena == nil || r.arena.Buffer == nil {
		return core.ResourceCreationErrorf("%s: uniform arena is not allocated", r.Name)
	}
	return r.arena.Buffer.Write(r.Base+vk.DeviceSize(r.Offset(i)), data)
}

// Descriptor binds one element of the region. With dynamic set the element
// is picked at bind time through Offset.
func (r *DynamicRegion) Descriptor(binding uint32, dynamic bool) Descriptor {
	return BufferDescriptor(binding, r.arena.Buffer, r.Base, r.ElementSize, dynamic)
}

/**
 * @brief One host visible uniform buffer carved into aligned regions. The
 * buffer stays mapped for its whole lifetime.
 */
type UniformArena struct {
	Buffer *VulkanBuffer

	alignment vk.DeviceSize
	regions   []*DynamicRegion
	size      vk.DeviceSize
}

func NewUniformArena(alignment uint64) *UniformArena {
	return &UniformArena{alignment: vk.DeviceSize(alignment)}
}

// AddRegion reserves count elements of elementSize bytes. Regions are laid
// out in the order they are added. A region always holds at least one element.
func (a *UniformArena) AddRegion(name string, elementSize uint64, count uint32) *DynamicRegion {
	if count == 0 {
		count = 1
	}
	stride := vk.DeviceSize(math.AlignUp(elementSize, uint64(a.alignment)))
	region := &DynamicRegion{
		Name:        name,
		Base:        vk.DeviceSize(math.AlignUp(uint64(a.size), uint64(a.alignment))),
		ElementSize: vk.DeviceSize(elementSize),
		Stride:      stride,
		Count:       count,
		arena:       a,
	}
	a.size = region.Base + region.Size()
	a.regions = append(a.regions, region)
	return region
}

func (a *UniformArena) Regions() []*DynamicRegion {
	return a.regions
}

func (a *UniformArena) Size() vk.DeviceSize {
	return a.size
}

// Allocate creates and maps the backing buffer. Regions must all be added before.
func (a *UniformArena) Allocate(context *VulkanContext) error {
	if a.Buffer != nil {
		return core.ResourceCreationErrorf("uniform arena already allocated")
	}
	buffer, err := NewBuffer(context, a.size, vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit), hostVisibleCoherent)
	if err != nil {
		return err
	}
	if err := buffer.Map(); err != nil {
		buffer.Release()
		return err
	}
	a.Buffer = buffer
	core.LogDebug("Uniform arena of %d bytes in %d regions, alignment %d", a.size, len(a.regions), a.alignment)
	return nil
}

func (a *UniformArena) Release() {
	if a.Buffer != nil {
		a.Buffer.Release()
		a.Buffer = nil
	}
}
