package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/umbra/engine/core"
)

type VulkanImage struct {
	Handle vk.Image
	Memory vk.DeviceMemory
	View   vk.ImageView
	Width  uint32
	Height uint32
	Format vk.Format
	Aspect vk.ImageAspectFlags
	// Layout is the layout the image was last transitioned to outside a render pass.
	Layout vk.ImageLayout

	context *VulkanContext
}

type ImageConfig struct {
	Width       uint32
	Height      uint32
	Format      vk.Format
	Usage       vk.ImageUsageFlags
	Aspect      vk.ImageAspectFlags
	MemoryFlags vk.MemoryPropertyFlags
	Flags       vk.ImageCreateFlags
}

func NewImage(context *VulkanContext, config ImageConfig) (*VulkanImage, error) {
	if config.Width == 0 || config.Height == 0 {
		return nil, core.ResourceCreationErrorf("cannot create a %dx%d image", config.Width, config.Height)
	}
	if config.MemoryFlags == 0 {
		config.MemoryFlags = vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit)
	}
	image := &VulkanImage{
		Width:   config.Width,
		Height:  config.Height,
		Format:  config.Format,
		Aspect:  config.Aspect,
		Layout:  vk.ImageLayoutUndefined,
		context: context,
	}

	imageCreateInfo := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		Flags:     config.Flags,
		ImageType: vk.ImageType2d,
		Format:    config.Format,
		Extent: vk.Extent3D{
			Width:  config.Width,
			Height: config.Height,
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Samples:       vk.SampleCount1Bit,
		Tiling:        vk.ImageTilingOptimal,
		Usage:         config.Usage,
		SharingMode:   vk.SharingModeExclusive,
		InitialLayout: vk.ImageLayoutUndefined,
	}
	device := context.Device.LogicalDevice
	var handle vk.Image
	if res := vk.CreateImage(device, &imageCreateInfo, context.Allocator, &handle); res != vk.Success {
		return nil, resultError(res, "failed to create %dx%d image", config.Width, config.Height)
	}
	image.Handle = handle

	var requirements vk.MemoryRequirements
	vk.GetImageMemoryRequirements(device, handle, &requirements)
	memory, err := context.allocateMemory(requirements, config.MemoryFlags)
	if err != nil {
		image.Release()
		return nil, err
	}
	image.Memory = memory
	if res := vk.BindImageMemory(device, handle, memory, 0); res != vk.Success {
		image.Release()
		return nil, resultError(res, "failed to bind image memory")
	}

	if image.View, err = image.NewView(config.Format); err != nil {
		image.Release()
		return nil, err
	}
	return image, nil
}

// NewView creates another view of the image. Formats other than the image
// format need an image created with the mutable format flag. The caller owns
// the returned view.
func (i *VulkanImage) NewView(format vk.Format) (vk.ImageView, error) {
	viewCreateInfo := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    i.Handle,
		ViewType: vk.ImageViewType2d,
		Format:   format,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     i.Aspect,
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}
	var view vk.ImageView
	if res := vk.CreateImageView(i.context.Device.LogicalDevice, &viewCreateInfo, i.context.Allocator, &view); res != vk.Success {
		return nil, resultError(res, "failed to create image view")
	}
	return view, nil
}

func (i *VulkanImage) Release() {
	device := i.context.Device.LogicalDevice
	if i.View != nil {
		vk.DestroyImageView(device, i.View, i.context.Allocator)
		i.View = nil
	}
	if i.Handle != nil {
		vk.DestroyImage(device, i.Handle, i.context.Allocator)
		i.Handle = nil
	}
	if i.Memory != nil {
		vk.FreeMemory(device, i.Memory, i.context.Allocator)
		i.Memory = nil
	}
}

// layoutTransition describes the access masks and stages of one supported transition.
type layoutTransition struct {
	srcAccess vk.AccessFlags
	dstAccess vk.AccessFlags
	srcStage  vk.PipelineStageFlags
	dstStage  vk.PipelineStageFlags
}

type layoutPair struct {
	from vk.ImageLayout
	to   vk.ImageLayout
}

var layoutTransitions = map[layoutPair]layoutTransition{
	{vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal}: {
		srcAccess: 0,
		dstAccess: vk.AccessFlags(vk.AccessTransferWriteBit),
		srcStage:  vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit),
		dstStage:  vk.PipelineStageFlags(vk.PipelineStageTransferBit),
	},
	{vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutShaderReadOnlyOptimal}: {
		srcAccess: vk.AccessFlags(vk.AccessTransferWriteBit),
		dstAccess: vk.AccessFlags(vk.AccessShaderReadBit),
		srcStage:  vk.PipelineStageFlags(vk.PipelineStageTransferBit),
		dstStage:  vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit),
	},
	{vk.ImageLayoutUndefined, vk.ImageLayoutDepthStencilAttachmentOptimal}: {
		srcAccess: 0,
		dstAccess: vk.AccessFlags(vk.AccessDepthStencilAttachmentReadBit | vk.AccessDepthStencilAttachmentWriteBit),
		srcStage:  vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit),
		dstStage:  vk.PipelineStageFlags(vk.PipelineStageEarlyFragmentTestsBit),
	},
}

func hasStencilComponent(format vk.Format) bool {
	return format == vk.FormatD32SfloatS8Uint || format == vk.FormatD24UnormS8Uint
}

// TransitionLayout records a barrier moving the image from its current layout to newLayout.
func (i *VulkanImage) TransitionLayout(cb *VulkanCommandBuffer, newLayout vk.ImageLayout) error {
	transition, ok := layoutTransitions[layoutPair{i.Layout, newLayout}]
	if !ok {
		return core.ResourceCreationErrorf("unsupported layout transition %d -> %d", i.Layout, newLayout)
	}
	aspect := i.Aspect
	if hasStencilComponent(i.Format) {
		aspect |= vk.ImageAspectFlags(vk.ImageAspectStencilBit)
	}
	barrier := vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		SrcAccessMask:       transition.srcAccess,
		DstAccessMask:       transition.dstAccess,
		OldLayout:           i.Layout,
		NewLayout:           newLayout,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               i.Handle,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     aspect,
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}
	vk.CmdPipelineBarrier(cb.Handle, transition.srcStage, transition.dstStage, 0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{barrier})
	i.Layout = newLayout
	return nil
}

// CopyFromBuffer records a copy of tightly packed pixels into the image.
// The image must be in transfer destination layout.
func (i *VulkanImage) CopyFromBuffer(cb *VulkanCommandBuffer, buffer *VulkanBuffer) {
	region := vk.BufferImageCopy{
		BufferOffset:      0,
		BufferRowLength:   0,
		BufferImageHeight: 0,
		ImageSubresource: vk.ImageSubresourceLayers{
			AspectMask:     i.Aspect,
			MipLevel:       0,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
		ImageOffset: vk.Offset3D{X: 0, Y: 0, Z: 0},
		ImageExtent: vk.Extent3D{Width: i.Width, Height: i.Height, Depth: 1},
	}
	vk.CmdCopyBufferToImage(cb.Handle, buffer.Handle, i.Handle, vk.ImageLayoutTransferDstOptimal, 1, []vk.BufferImageCopy{region})
}

// UploadImage creates a sampled RGBA8 image from pixels and leaves it in
// shader read layout.
func UploadImage(context *VulkanContext, width, height uint32, format vk.Format, flags vk.ImageCreateFlags, pixels []byte) (*VulkanImage, error) {
	if uint64(len(pixels)) != uint64(width)*uint64(height)*4 {
		return nil, core.ResourceCreationErrorf("expected %d bytes of RGBA pixels for %dx%d, got %d", width*height*4, width, height, len(pixels))
	}
	staging, err := NewStagingBuffer(context, pixels)
	if err != nil {
		return nil, err
	}
	defer staging.Release()

	image, err := NewImage(context, ImageConfig{
		Width:  width,
		Height: height,
		Format: format,
		Usage:  vk.ImageUsageFlags(vk.ImageUsageTransferDstBit | vk.ImageUsageSampledBit),
		Aspect: vk.ImageAspectFlags(vk.ImageAspectColorBit),
		Flags:  flags,
	})
	if err != nil {
		return nil, err
	}

	var recordErr error
	err = context.SubmitOnce(func(cb *VulkanCommandBuffer) {
		if recordErr = image.TransitionLayout(cb, vk.ImageLayoutTransferDstOptimal); recordErr != nil {
			return
		}
		image.CopyFromBuffer(cb, staging)
		recordErr = image.TransitionLayout(cb, vk.ImageLayoutShaderReadOnlyOptimal)
	})
	if err == nil {
		err = recordErr
	}
	if err != nil {
		image.Release()
		return nil, err
	}
	return image, nil
}

// NewDepthTarget creates a depth image usable as attachment and sampled, in
// depth attachment layout.
func NewDepthTarget(context *VulkanContext, width, height uint32, format vk.Format) (*VulkanImage, error) {
	image, err := NewImage(context, ImageConfig{
		Width:  width,
		Height: height,
		Format: format,
		Usage:  vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit | vk.ImageUsageSampledBit),
		Aspect: vk.ImageAspectFlags(vk.ImageAspectDepthBit),
	})
	if err != nil {
		return nil, err
	}
	var recordErr error
	err = context.SubmitOnce(func(cb *VulkanCommandBuffer) {
		recordErr = image.TransitionLayout(cb, vk.ImageLayoutDepthStencilAttachmentOptimal)
	})
	if err == nil {
		err = recordErr
	}
	if err != nil {
		image.Release()
		return nil, err
	}
	return image, nil
}

// NewColorTarget creates a color attachment that later passes sample.
func NewColorTarget(context *VulkanContext, width, height uint32, format vk.Format) (*VulkanImage, error) {
	return NewImage(context, ImageConfig{
		Width:  width,
		Height: height,
		Format: format,
		Usage:  vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit | vk.ImageUsageSampledBit),
		Aspect: vk.ImageAspectFlags(vk.ImageAspectColorBit),
	})
}
