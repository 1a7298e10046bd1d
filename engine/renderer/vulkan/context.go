package vulkan

import (
	"runtime"
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/umbra/engine/core"
)

const validationLayerName = "VK_LAYER_KHRONOS_validation"

// Surface is the window side of the renderer. The platform layer implements it.
type Surface interface {
	// RequiredExtensions lists the instance extensions the window system needs.
	RequiredExtensions() []string
	// InstanceProcAddr returns vkGetInstanceProcAddr as loaded by the window system.
	InstanceProcAddr() unsafe.Pointer
	CreateSurface(instance vk.Instance) (vk.Surface, error)
	// FramebufferSize is the drawable size in pixels.
	FramebufferSize() (uint32, uint32)
}

// VulkanContext owns the instance, the surface and the device. Everything
// else in the package is created from it.
type VulkanContext struct {
	Instance  vk.Instance
	Allocator *vk.AllocationCallbacks
	Surface   vk.Surface

	debugMessenger vk.DebugReportCallback

	Device *VulkanDevice
}

type ContextConfig struct {
	ApplicationName string
	// Validation enables the Khronos validation layer and the debug report callback.
	Validation bool
}

func instanceExtensions(windowExtensions []string, validation bool) []string {
	extensions := []string{}
	seen := map[string]struct{}{}
	add := func(names ...string) {
		for _, name := range names {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			extensions = append(extensions, name)
		}
	}
	// Generic surface extension
	add("VK_KHR_surface")
	add(windowExtensions...)
	if runtime.GOOS == "darwin" {
		add("VK_KHR_portability_enumeration", "VK_KHR_get_physical_device_properties2")
	}
	if validation {
		add(vk.ExtDebugReportExtensionName)
	}
	return extensions
}

// NewContext creates the instance, hooks up validation, creates the surface
// and selects and creates the device.
func NewContext(config ContextConfig, surface Surface) (*VulkanContext, error) {
	procAddr := surface.InstanceProcAddr()
	if procAddr == nil {
		return nil, core.ResourceCreationErrorf("GetInstanceProcAddress is nil")
	}
	vk.SetGetInstanceProcAddr(procAddr)
	if err := vk.Init(); err != nil {
		return nil, core.WrapResourceCreation(err, "failed to initialize vk")
	}

	// TODO: custom allocator.
	context := &VulkanContext{
		Allocator: nil,
		Device: &VulkanDevice{
			GraphicsQueueIndex: -1,
			PresentQueueIndex:  -1,
			TransferQueueIndex: -1,
		},
	}

	if err := context.createInstance(config, surface.RequiredExtensions()); err != nil {
		return nil, err
	}

	if config.Validation {
		core.LogDebug("Creating Vulkan debugger...")
		debugCreateInfo := vk.DebugReportCallbackCreateInfo{
			SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
			Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit | vk.DebugReportPerformanceWarningBit),
			PfnCallback: dbgCallbackFunc,
		}
		var dbg vk.DebugReportCallback
		if err := vk.Error(vk.CreateDebugReportCallback(context.Instance, &debugCreateInfo, nil, &dbg)); err != nil {
			context.Release()
			return nil, core.WrapResourceCreation(err, "vk.CreateDebugReportCallback failed")
		}
		context.debugMessenger = dbg
		core.LogDebug("Vulkan debugger created.")
	}

	core.LogDebug("Creating Vulkan surface...")
	s, err := surface.CreateSurface(context.Instance)
	if err != nil {
		context.Release()
		return nil, err
	}
	context.Surface = s
	core.LogDebug("Vulkan surface created.")

	if err := DeviceCreate(context); err != nil {
		context.Release()
		return nil, err
	}
	return context, nil
}

func (vc *VulkanContext) createInstance(config ContextConfig, windowExtensions []string) error {
	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         uint32(vk.MakeVersion(1, 1, 0)),
		ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
		PApplicationName:   VulkanSafeString(config.ApplicationName),
		PEngineName:        VulkanSafeString("Umbra Engine"),
	}

	createInfo := vk.InstanceCreateInfo{
		SType:            vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: appInfo,
	}
	if runtime.GOOS == "darwin" {
		// VK_INSTANCE_CREATE_ENUMERATE_PORTABILITY_BIT_KHR
		createInfo.Flags |= 1
	}

	extensions := instanceExtensions(windowExtensions, config.Validation)
	core.LogDebug("Required extensions: %v", extensions)
	createInfo.EnabledExtensionCount = uint32(len(extensions))
	createInfo.PpEnabledExtensionNames = VulkanSafeStrings(extensions)

	// Validation layers should only be enabled on non-release builds.
	layers := []string{}
	if config.Validation {
		core.LogInfo("Validation layers enabled. Enumerating...")
		layers = append(layers, validationLayerName)
		var count uint32
		if res := vk.EnumerateInstanceLayerProperties(&count, nil); res != vk.Success {
			return resultError(res, "failed to enumerate instance layers")
		}
		available := make([]vk.LayerProperties, count)
		if res := vk.EnumerateInstanceLayerProperties(&count, available); res != vk.Success {
			return resultError(res, "failed to enumerate instance layers")
		}
		for _, required := range layers {
			found := false
			for j := range available {
				available[j].Deref()
				if required == vk.ToString(available[j].LayerName[:]) {
					found = true
					break
				}
			}
			if !found {
				return core.ResourceCreationErrorf("required validation layer is missing: %s", required)
			}
		}
		core.LogInfo("All required validation layers are present.")
	}
	createInfo.EnabledLayerCount = uint32(len(layers))
	createInfo.PpEnabledLayerNames = VulkanSafeStrings(layers)

	var instance vk.Instance
	if res := vk.CreateInstance(&createInfo, vc.Allocator, &instance); res != vk.Success {
		return core.ResourceCreationErrorf("failed in creating the Vulkan Instance with error `%s`", VulkanResultString(res, true))
	}
	vc.Instance = instance
	if err := vk.InitInstance(vc.Instance); err != nil {
		return core.WrapResourceCreation(err, "failed to load instance functions")
	}
	core.LogInfo("Vulkan Instance created.")
	return nil
}

func (vc *VulkanContext) LogicalDevice() vk.Device {
	return vc.Device.LogicalDevice
}

// WaitIdle blocks until the device has finished all submitted work.
func (vc *VulkanContext) WaitIdle() {
	if vc.Device != nil && vc.Device.LogicalDevice != nil {
		vk.DeviceWaitIdle(vc.Device.LogicalDevice)
	}
}

// MinUniformBufferOffsetAlignment is the alignment dynamic uniform offsets must honour.
func (vc *VulkanContext) MinUniformBufferOffsetAlignment() uint64 {
	return uint64(vc.Device.Properties.Limits.MinUniformBufferOffsetAlignment)
}

// MaxSamplerAnisotropy returns 0 when the device cannot filter anisotropically.
func (vc *VulkanContext) MaxSamplerAnisotropy() float32 {
	if vc.Device.Features.SamplerAnisotropy == vk.False {
		return 0
	}
	return vc.Device.Properties.Limits.MaxSamplerAnisotropy
}

// Release destroys the device, the surface and the instance, in that order.
func (vc *VulkanContext) Release() {
	DeviceDestroy(vc)
	if vc.Surface != nil {
		core.LogDebug("Destroying Vulkan surface...")
		vk.DestroySurface(vc.Instance, vc.Surface, vc.Allocator)
		vc.Surface = nil
	}
	if vc.debugMessenger != nil {
		core.LogDebug("Destroying Vulkan debugger...")
		vk.DestroyDebugReportCallback(vc.Instance, vc.debugMessenger, vc.Allocator)
		vc.debugMessenger = nil
	}
	if vc.Instance != nil {
		core.LogDebug("Destroying Vulkan instance...")
		vk.DestroyInstance(vc.Instance, vc.Allocator)
		vc.Instance = nil
	}
}

func dbgCallbackFunc(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType, object uint64, location uint64, messageCode int32, pLayerPrefix string, pMessage string, pUserData unsafe.Pointer) vk.Bool32 {
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		core.LogError("ERROR: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0:
		core.LogWarn("WARNING: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit) != 0:
		core.LogWarn("PERFORMANCE WARNING: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportDebugBit) != 0:
		core.LogDebug("DEBUG: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	default:
		core.LogInfo("INFORMATION: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	}
	return vk.Bool32(vk.False)
}
