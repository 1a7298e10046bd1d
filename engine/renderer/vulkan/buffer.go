package vulkan

import (
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/umbra/engine/core"
)

const hostVisibleCoherent = vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit)

type VulkanBuffer struct {
	Handle      vk.Buffer
	Memory      vk.DeviceMemory
	Size        vk.DeviceSize
	Usage       vk.BufferUsageFlags
	MemoryFlags vk.MemoryPropertyFlags

	// mapped is set while the whole buffer stays mapped.
	mapped  unsafe.Pointer
	context *VulkanContext
}

func NewBuffer(context *VulkanContext, size vk.DeviceSize, usage vk.BufferUsageFlags, memoryFlags vk.MemoryPropertyFlags) (*VulkanBuffer, error) {
	if size == 0 {
		return nil, core.ResourceCreationErrorf("cannot create an empty buffer")
	}
	createInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        size,
		Usage:       usage,
		SharingMode: vk.SharingModeExclusive,
	}
	buffer := &VulkanBuffer{
		Size:        size,
		Usage:       usage,
		MemoryFlags: memoryFlags,
		context:     context,
	}
	var handle vk.Buffer
	if res := vk.CreateBuffer(context.Device.LogicalDevice, &createInfo, context.Allocator, &handle); res != vk.Success {
		return nil, resultError(res, "failed to create buffer of %d bytes", size)
	}
	buffer.Handle = handle

	var requirements vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(context.Device.LogicalDevice, handle, &requirements)
	memory, err := context.allocateMemory(requirements, memoryFlags)
	if err != nil {
		buffer.Release()
		return nil, err
	}
	buffer.Memory = memory
	if res := vk.BindBufferMemory(context.Device.LogicalDevice, handle, memory, 0); res != vk.Success {
		buffer.Release()
		return nil, resultError(res, "failed to bind buffer memory")
	}
	return buffer, nil
}

// Map keeps the whole buffer mapped until Release. Only valid on host visible memory.
func (b *VulkanBuffer) Map() error {
	if b.mapped != nil {
		return nil
	}
	if !b.HostVisible() {
		return core.ResourceCreationErrorf("cannot map a buffer without host visible memory")
	}
	var data unsafe.Pointer
	if res := vk.MapMemory(b.context.Device.LogicalDevice, b.Memory, 0, b.Size, 0, &data); res != vk.Success {
		return resultError(res, "failed to map buffer memory")
	}
	b.mapped = data
	return nil
}

func (b *VulkanBuffer) HostVisible() bool {
	return b.MemoryFlags&vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit) != 0
}

// Write copies data into the buffer at offset. Device local buffers are
// filled through UploadBuffer instead.
func (b *VulkanBuffer) Write(offset vk.DeviceSize, data []byte) error {
	if !b.HostVisible() {
		return core.ResourceCreationErrorf("cannot write to a buffer without host visible memory")
	}
	if len(data) == 0 {
		return nil
	}
	if offset+vk.DeviceSize(len(data)) > b.Size {
		return core.ResourceCreationErrorf("write of %d bytes at %d overflows buffer of %d bytes", len(data), offset, b.Size)
	}
	if b.mapped != nil {
		vk.Memcopy(unsafe.Add(b.mapped, int(offset)), data)
		return nil
	}
	var ptr unsafe.Pointer
	if res := vk.MapMemory(b.context.Device.LogicalDevice, b.Memory, offset, vk.DeviceSize(len(data)), 0, &ptr); res != vk.Success {
		return resultError(res, "failed to map buffer memory")
	}
	vk.Memcopy(ptr, data)
	vk.UnmapMemory(b.context.Device.LogicalDevice, b.Memory)
	return nil
}

func (b *VulkanBuffer) Release() {
	device := b.context.Device.LogicalDevice
	if b.mapped != nil {
		vk.UnmapMemory(device, b.Memory)
		b.mapped = nil
	}
	if b.Handle != nil {
		vk.DestroyBuffer(device, b.Handle, b.context.Allocator)
		b.Handle = nil
	}
	if b.Memory != nil {
		vk.FreeMemory(device, b.Memory, b.context.Allocator)
		b.Memory = nil
	}
}

// CopyBuffer records a whole-buffer copy from src to dst.
func CopyBuffer(cb *VulkanCommandBuffer, src, dst *VulkanBuffer, size vk.DeviceSize) {
	region := vk.BufferCopy{SrcOffset: 0, DstOffset: 0, Size: size}
	vk.CmdCopyBuffer(cb.Handle, src.Handle, dst.Handle, 1, []vk.BufferCopy{region})
}

// NewStagingBuffer creates a host visible transfer source holding data.
func NewStagingBuffer(context *VulkanContext, data []byte) (*VulkanBuffer, error) {
	staging, err := NewBuffer(context, vk.DeviceSize(len(data)), vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit), hostVisibleCoherent)
	if err != nil {
		return nil, err
	}
	if err := staging.Write(0, data); err != nil {
		staging.Release()
		return nil, err
	}
	return staging, nil
}

// UploadBuffer creates a device local buffer with usage and fills it with
// data through a staging buffer.
func UploadBuffer(context *VulkanContext, usage vk.BufferUsageFlags, data []byte) (*VulkanBuffer, error) {
	staging, err := NewStagingBuffer(context, data)
	if err != nil {
		return nil, err
	}
	defer staging.Release()

	buffer, err := NewBuffer(context, staging.Size,
		usage|vk.BufferUsageFlags(vk.BufferUsageTransferDstBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
	if err != nil {
		return nil, err
	}
	if err := context.SubmitOnce(func(cb *VulkanCommandBuffer) {
		CopyBuffer(cb, staging, buffer, staging.Size)
	}); err != nil {
		buffer.Release()
		return nil, err
	}
	return buffer, nil
}
