package vulkan

import vk "github.com/goki/vulkan"

/** @brief Width and height of every shadow map. */
const ShadowMapSize uint32 = 4096

/**
 * @brief Max number of lights casting shadows. Each one owns a shadow map.
 */
const MaxShadowCasters uint32 = 8

/** @brief Max number of lights in a scene. */
const MaxLights uint32 = 256

/**
 * @brief Default max number of material instances.
 * Overridden by the renderer configuration.
 */
const VULKAN_MAX_MATERIAL_COUNT uint32 = 1024

// Swapchain images requested per present mode.
const (
	mailboxImageCount uint32 = 3
	fifoImageCount    uint32 = 2
)

// Format of every shadow map.
const ShadowMapFormat = vk.FormatD32Sfloat

// G-buffer attachment formats.
const (
	GBufferPositionFormat = vk.FormatR16g16b16a16Sfloat
	GBufferNormalFormat   = vk.FormatR16g16b16a16Sfloat
	GBufferAlbedoFormat   = vk.FormatR8g8b8a8Unorm
	GBufferMaterialFormat = vk.FormatR8g8b8a8Unorm
)

// Tessellation of the point light volume.
const (
	unitSphereRings    = 16
	unitSphereSegments = 24
)

// Descriptor set indices per pass. Sets after these are owned by the binding strategy.
const (
	geometryMaterialSet uint32 = 0
	geometryCameraSet   uint32 = 1
	geometryObjectSet   uint32 = 2

	shadowObjectSet uint32 = 0
	shadowViewSet   uint32 = 1

	lightingGBufferSet uint32 = 0
	lightingShadowSet  uint32 = 1
	lightingCameraSet  uint32 = 2
	lightingLightSet   uint32 = 3
)

// Binding of each material texture slot is its metadata.TextureSlot value.
const (
	shadowMapBinding     uint32 = 0
	shadowMatrixBinding  uint32 = 1
	uniformBufferBinding uint32 = 0
)

// G-buffer attachments in binding order: position, normal, albedo, material.
const gbufferAttachmentCount = 4
