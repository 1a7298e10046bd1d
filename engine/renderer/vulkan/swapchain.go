package vulkan

import (
	"fmt"
	gomath "math"

	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/umbra/engine/core"
	"github.com/spaghettifunk/umbra/engine/math"
)

// SwapchainSupport is what a surface offers on a physical device.
type SwapchainSupport struct {
	Capabilities vk.SurfaceCapabilities
	Formats      []vk.SurfaceFormat
	PresentModes []vk.PresentMode
}

type SwapchainState int

const (
	SwapchainUninitialized SwapchainState = iota
	SwapchainCreated
	SwapchainFramebuffersBuilt
	SwapchainCommandBuffersRecorded
	SwapchainPresenting
	SwapchainInvalidated
)

func (s SwapchainState) String() string {
	switch s {
	case SwapchainUninitialized:
		return "uninitialized"
	case SwapchainCreated:
		return "created"
	case SwapchainFramebuffersBuilt:
		return "framebuffers-built"
	case SwapchainCommandBuffersRecorded:
		return "command-buffers-recorded"
	case SwapchainPresenting:
		return "presenting"
	case SwapchainInvalidated:
		return "invalidated"
	}
	return "unknown"
}

var swapchainTransitions = map[SwapchainState][]SwapchainState{
	SwapchainUninitialized:          {SwapchainCreated},
	SwapchainCreated:                {SwapchainFramebuffersBuilt, SwapchainInvalidated},
	SwapchainFramebuffersBuilt:      {SwapchainCommandBuffersRecorded, SwapchainInvalidated},
	SwapchainCommandBuffersRecorded: {SwapchainCommandBuffersRecorded, SwapchainPresenting, SwapchainInvalidated},
	SwapchainPresenting:             {SwapchainCommandBuffersRecorded, SwapchainInvalidated},
	SwapchainInvalidated:            {SwapchainCreated},
}

// CanTransition reports whether a swapchain in state from may move to to.
func (s SwapchainState) CanTransition(to SwapchainState) bool {
	for _, next := range swapchainTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

/**
 * @brief The negotiated parameters of a swapchain.
 */
type SwapchainSettings struct {
	Format      vk.SurfaceFormat
	PresentMode vk.PresentMode
	Extent      vk.Extent2D
	ImageCount  uint32
	Transform   vk.SurfaceTransformFlagBits
}

// Compatible reports whether render passes built for old can be used with s.
func (s SwapchainSettings) Compatible(old SwapchainSettings) bool {
	return s.Format.Format == old.Format.Format
}

/**
 * @brief Picks the swapchain parameters for a width x height drawable.
 * Mailbox is preferred and FIFO, which every device supports, is the
 * fallback. The image count is one more than the minimum, clamped to the
 * maximum when the surface has one.
 */
func ChooseSwapchainSettings(support *SwapchainSupport, width, height uint32) (SwapchainSettings, error) {
	settings := SwapchainSettings{}
	if support == nil || len(support.Formats) == 0 {
		return settings, core.ResourceCreationErrorf("surface reports no formats")
	}
	if len(support.PresentModes) == 0 {
		return settings, core.ResourceCreationErrorf("surface reports no present modes")
	}
	caps := support.Capabilities
	if caps.SupportedUsageFlags != 0 && caps.SupportedUsageFlags&vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit) == 0 {
		return settings, core.ResourceCreationErrorf("surface images cannot be used as color attachments")
	}

	settings.Format = support.Formats[0]
	for _, format := range support.Formats {
		if format.Format == vk.FormatB8g8r8a8Unorm && format.ColorSpace == vk.ColorSpaceSrgbNonlinear {
			settings.Format = format
			break
		}
	}
	if settings.Format.Format == vk.FormatUndefined {
		// The surface has no preference.
		settings.Format = vk.SurfaceFormat{Format: vk.FormatB8g8r8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear}
	}

	settings.PresentMode = vk.PresentModeFifo
	for _, mode := range support.PresentModes {
		if mode == vk.PresentModeMailbox {
			settings.PresentMode = mode
			break
		}
	}

	if caps.CurrentExtent.Width != gomath.MaxUint32 {
		settings.Extent = caps.CurrentExtent
	} else {
		settings.Extent = vk.Extent2D{
			Width:  math.Clamp(width, caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
			Height: math.Clamp(height, caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
		}
	}
	if settings.Extent.Width == 0 || settings.Extent.Height == 0 {
		return settings, core.ResourceCreationErrorf("cannot create a %dx%d swapchain", settings.Extent.Width, settings.Extent.Height)
	}

	// Mailbox triple buffers, FIFO double buffers.
	settings.ImageCount = fifoImageCount
	if settings.PresentMode == vk.PresentModeMailbox {
		settings.ImageCount = mailboxImageCount
	}
	if settings.ImageCount < caps.MinImageCount || (caps.MaxImageCount > 0 && settings.ImageCount > caps.MaxImageCount) {
		return settings, core.ResourceCreationErrorf("surface cannot present %d images in %s mode (min %d, max %d)",
			settings.ImageCount, presentModeName(settings.PresentMode), caps.MinImageCount, caps.MaxImageCount)
	}

	settings.Transform = caps.CurrentTransform
	if settings.Transform == 0 {
		settings.Transform = vk.SurfaceTransformIdentityBit
	}
	return settings, nil
}

func presentModeName(mode vk.PresentMode) string {
	switch mode {
	case vk.PresentModeMailbox:
		return "mailbox"
	case vk.PresentModeFifo:
		return "fifo"
	default:
		return fmt.Sprintf("present mode %d", mode)
	}
}

/**
 * @brief The presentable images and everything sized after them: the shared
 * depth target, the G-buffer, one lighting framebuffer and one command buffer
 * per image.
 */
type VulkanSwapchain struct {
	Handle   vk.Swapchain
	Settings SwapchainSettings
	Images   []vk.Image
	Views    []vk.ImageView

	// Depth is shared by the geometry and lighting passes.
	Depth   *VulkanImage
	GBuffer *GBuffer
	// Framebuffers are the lighting pass targets, one per image.
	Framebuffers   []*VulkanFramebuffer
	CommandBuffers []*VulkanCommandBuffer

	state   SwapchainState
	context *VulkanContext
}

func NewSwapchain(context *VulkanContext, width, height uint32) (*VulkanSwapchain, error) {
	swapchain := &VulkanSwapchain{context: context}
	if err := swapchain.create(width, height); err != nil {
		return nil, err
	}
	return swapchain, nil
}

func (vs *VulkanSwapchain) State() SwapchainState {
	return vs.state
}

func (vs *VulkanSwapchain) advance(to SwapchainState) error {
	if !vs.state.CanTransition(to) {
		return errors.AssertionFailedf("swapchain cannot move from %s to %s", vs.state, to)
	}
	core.LogDebug("Swapchain %s -> %s", vs.state, to)
	vs.state = to
	return nil
}

func (vs *VulkanSwapchain) ImageCount() int {
	return len(vs.Images)
}

func (vs *VulkanSwapchain) Extent() vk.Extent2D {
	return vs.Settings.Extent
}

func (vs *VulkanSwapchain) create(width, height uint32) error {
	if err := vs.advance(SwapchainCreated); err != nil {
		return err
	}
	context := vs.context
	device := context.Device

	support, err := DeviceQuerySwapchainSupport(device.PhysicalDevice, context.Surface)
	if err != nil {
		return err
	}
	settings, err := ChooseSwapchainSettings(support, width, height)
	if err != nil {
		return err
	}

	createInfo := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          context.Surface,
		MinImageCount:    settings.ImageCount,
		ImageFormat:      settings.Format.Format,
		ImageColorSpace:  settings.Format.ColorSpace,
		ImageExtent:      settings.Extent,
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		ImageSharingMode: vk.SharingModeExclusive,
		PreTransform:     settings.Transform,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		PresentMode:      settings.PresentMode,
		Clipped:          vk.True,
		OldSwapchain:     vs.Handle,
	}
	if device.GraphicsQueueIndex != device.PresentQueueIndex {
		createInfo.ImageSharingMode = vk.SharingModeConcurrent
		createInfo.QueueFamilyIndexCount = 2
		createInfo.PQueueFamilyIndices = []uint32{uint32(device.GraphicsQueueIndex), uint32(device.PresentQueueIndex)}
	}

	var handle vk.Swapchain
	if res := vk.CreateSwapchain(device.LogicalDevice, &createInfo, context.Allocator, &handle); res != vk.Success {
		return resultError(res, "failed to create swapchain")
	}
	if vs.Handle != nil {
		vk.DestroySwapchain(device.LogicalDevice, vs.Handle, context.Allocator)
	}
	vs.Handle = handle
	vs.Settings = settings

	var count uint32
	if res := vk.GetSwapchainImages(device.LogicalDevice, vs.Handle, &count, nil); res != vk.Success {
		return resultError(res, "failed to get swapchain images")
	}
	vs.Images = make([]vk.Image, count)
	if res := vk.GetSwapchainImages(device.LogicalDevice, vs.Handle, &count, vs.Images); res != vk.Success {
		return resultError(res, "failed to get swapchain images")
	}

	// Images are owned by the swapchain, only the views are ours.
	vs.Views = make([]vk.ImageView, 0, count)
	for _, image := range vs.Images {
		viewInfo := vk.ImageViewCreateInfo{
			SType:    vk.StructureTypeImageViewCreateInfo,
			Image:    image,
			ViewType: vk.ImageViewType2d,
			Format:   settings.Format.Format,
			SubresourceRange: vk.ImageSubresourceRange{
				AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
				LevelCount: 1,
				LayerCount: 1,
			},
		}
		var view vk.ImageView
		if res := vk.CreateImageView(device.LogicalDevice, &viewInfo, context.Allocator, &view); res != vk.Success {
			return resultError(res, "failed to create swapchain image view")
		}
		vs.Views = append(vs.Views, view)
	}

	if vs.Depth, err = NewDepthTarget(context, settings.Extent.Width, settings.Extent.Height, device.DepthFormat); err != nil {
		return err
	}

	core.LogInfo("Swapchain created: %dx%d, %d images, %s.",
		settings.Extent.Width, settings.Extent.Height, count, presentModeName(settings.PresentMode))
	return nil
}

/**
 * @brief Builds the G-buffer against the geometry pass and one lighting
 * framebuffer per image, each combining the image view with the shared
 * depth view.
 */
func (vs *VulkanSwapchain) BuildFramebuffers(family *PipelineFamily, gbufferLayout *DescriptorSetLayout) error {
	if err := vs.advance(SwapchainFramebuffersBuilt); err != nil {
		return err
	}
	extent := vs.Settings.Extent
	var err error
	if vs.GBuffer, err = NewGBuffer(vs.context, family.GeometryPass, gbufferLayout, vs.Depth); err != nil {
		return err
	}
	vs.Framebuffers = make([]*VulkanFramebuffer, 0, len(vs.Views))
	for _, view := range vs.Views {
		framebuffer, err := FramebufferCreate(vs.context, family.LightingPass, extent.Width, extent.Height, view, vs.Depth.View)
		if err != nil {
			return err
		}
		vs.Framebuffers = append(vs.Framebuffers, framebuffer)
	}
	return nil
}

/**
 * @brief Records every command buffer, allocating them on first use. The
 * buffers are simultaneous-use so a recording survives resubmission.
 */
func (vs *VulkanSwapchain) Record(record func(rec Recorder, image int) error) error {
	if err := vs.advance(SwapchainCommandBuffersRecorded); err != nil {
		return err
	}
	if len(vs.CommandBuffers) == 0 {
		vs.CommandBuffers = make([]*VulkanCommandBuffer, 0, len(vs.Images))
		for range vs.Images {
			cb, err := NewVulkanCommandBuffer(vs.context, vs.context.Device.GraphicsCommandPool, true)
			if err != nil {
				return err
			}
			vs.CommandBuffers = append(vs.CommandBuffers, cb)
		}
	}
	for i := range vs.CommandBuffers {
		if err := vs.recordImage(i, record); err != nil {
			return err
		}
	}
	return nil
}

// RecordImage re-records the command buffer of one acquired image.
func (vs *VulkanSwapchain) RecordImage(image int, record func(rec Recorder, image int) error) error {
	if vs.state != SwapchainPresenting && vs.state != SwapchainCommandBuffersRecorded {
		return errors.AssertionFailedf("cannot record image %d of a %s swapchain", image, vs.state)
	}
	return vs.recordImage(image, record)
}

func (vs *VulkanSwapchain) recordImage(image int, record func(rec Recorder, image int) error) error {
	cb := vs.CommandBuffers[image]
	if err := cb.Reset(); err != nil {
		return err
	}
	if err := cb.Begin(false, false, true); err != nil {
		return err
	}
	if err := record(cb, image); err != nil {
		return err
	}
	return cb.End()
}

/**
 * @brief Acquires the next presentable image, waiting without a timeout.
 * Anything but success is a submission error.
 */
func (vs *VulkanSwapchain) AcquireNextImage(imageAvailable vk.Semaphore) (uint32, error) {
	if err := vs.advance(SwapchainPresenting); err != nil {
		return 0, err
	}
	var index uint32
	res := vk.AcquireNextImage(vs.context.Device.LogicalDevice, vs.Handle, gomath.MaxUint64, imageAvailable, nil, &index)
	if res != vk.Success {
		return 0, core.SubmissionErrorf("failed to acquire swapchain image: %s", ResultString(res))
	}
	return index, nil
}

// Present queues image for presentation once renderFinished is signaled.
func (vs *VulkanSwapchain) Present(renderFinished vk.Semaphore, image uint32) error {
	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{renderFinished},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{vs.Handle},
		PImageIndices:      []uint32{image},
	}
	if res := vk.QueuePresent(vs.context.Device.PresentQueue, &presentInfo); res != vk.Success {
		return core.SubmissionErrorf("failed to present swapchain image: %s", ResultString(res))
	}
	return vs.advance(SwapchainCommandBuffersRecorded)
}

/**
 * @brief Tears down everything sized after the surface. The swapchain handle
 * survives until Recreate so it can be handed over as the old swapchain.
 */
func (vs *VulkanSwapchain) Invalidate() error {
	if err := vs.advance(SwapchainInvalidated); err != nil {
		return err
	}
	vs.context.WaitIdle()
	vs.releaseTargets()
	return nil
}

// Recreate builds a new swapchain for the current drawable size.
func (vs *VulkanSwapchain) Recreate(width, height uint32) error {
	return vs.create(width, height)
}

func (vs *VulkanSwapchain) releaseTargets() {
	context := vs.context
	for _, cb := range vs.CommandBuffers {
		cb.Free(context, context.Device.GraphicsCommandPool)
	}
	vs.CommandBuffers = nil
	for _, framebuffer := range vs.Framebuffers {
		framebuffer.Destroy(context)
	}
	vs.Framebuffers = nil
	if vs.GBuffer != nil {
		vs.GBuffer.Release()
		vs.GBuffer = nil
	}
	if vs.Depth != nil {
		vs.Depth.Release()
		vs.Depth = nil
	}
	for _, view := range vs.Views {
		vk.DestroyImageView(context.Device.LogicalDevice, view, context.Allocator)
	}
	vs.Views = nil
	vs.Images = nil
}

func (vs *VulkanSwapchain) Release() {
	vs.releaseTargets()
	if vs.Handle != nil {
		vk.DestroySwapchain(vs.context.Device.LogicalDevice, vs.Handle, vs.context.Allocator)
		vs.Handle = nil
	}
	vs.state = SwapchainUninitialized
}
