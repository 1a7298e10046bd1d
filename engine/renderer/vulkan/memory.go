package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/umbra/engine/core"
)

// FindMemoryType returns the first memory type allowed by typeBits whose
// property flags include every flag in required.
func FindMemoryType(properties *vk.PhysicalDeviceMemoryProperties, typeBits uint32, required vk.MemoryPropertyFlags) (uint32, error) {
	count := properties.MemoryTypeCount
	if max := uint32(len(properties.MemoryTypes)); count > max {
		count = max
	}
	for i := uint32(0); i < count; i++ {
		if typeBits&(1<<i) == 0 {
			continue
		}
		if properties.MemoryTypes[i].PropertyFlags&required == required {
			return i, nil
		}
	}
	return 0, core.ResourceCreationErrorf("unable to find suitable memory type (type bits %#x, flags %#x)", typeBits, uint32(required))
}

// allocateMemory allocates device memory that satisfies requirements.
func (vc *VulkanContext) allocateMemory(requirements vk.MemoryRequirements, flags vk.MemoryPropertyFlags) (vk.DeviceMemory, error) {
	requirements.Deref()
	index, err := FindMemoryType(&vc.Device.Memory, requirements.MemoryTypeBits, flags)
	if err != nil {
		return nil, err
	}
	allocInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  requirements.Size,
		MemoryTypeIndex: index,
	}
	var memory vk.DeviceMemory
	if res := vk.AllocateMemory(vc.Device.LogicalDevice, &allocInfo, vc.Allocator, &memory); res != vk.Success {
		return nil, resultError(res, "failed to allocate %d bytes of device memory", requirements.Size)
	}
	return memory, nil
}
