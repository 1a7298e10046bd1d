package metadata

/** @brief The name of the material used when a mesh has none. */
const DefaultMaterialName string = "default"

/**
 * @brief The texture slots of a material, in shader binding order.
 */
type TextureSlot int

const (
	TextureSlotDiffuse TextureSlot = iota
	TextureSlotNormal
	TextureSlotOcclusion
	TextureSlotMetallic
	TextureSlotRoughness

	TextureSlotCount
)

func (s TextureSlot) String() string {
	switch s {
	case TextureSlotDiffuse:
		return "diffuse"
	case TextureSlotNormal:
		return "normal"
	case TextureSlotOcclusion:
		return "occlusion"
	case TextureSlotMetallic:
		return "metallic"
	case TextureSlotRoughness:
		return "roughness"
	default:
		return "unknown"
	}
}

// Required reports whether a material must provide this slot. Optional
// slots fall back to a built-in texture.
func (s TextureSlot) Required() bool {
	return s == TextureSlotDiffuse
}

// SRGB reports whether the slot holds color data.
func (s TextureSlot) SRGB() bool {
	return s == TextureSlotDiffuse
}

// FallbackTexture is the built-in texture used when an optional slot is empty.
func (s TextureSlot) FallbackTexture() string {
	switch s {
	case TextureSlotNormal:
		return BuiltinFlatNormalTexture
	case TextureSlotMetallic:
		return BuiltinBlackTexture
	default:
		return BuiltinWhiteTexture
	}
}

/**
 * @brief Material configuration, as read from a model's material library.
 * Texture paths are absolute or relative to the working directory.
 */
type MaterialConfig struct {
	/** @brief The name of the material. */
	Name string
	/** @brief Texture file per slot, empty when the slot is unused. */
	Maps [TextureSlotCount]string
}
