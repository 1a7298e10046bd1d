package metadata

const (
	/** @brief A 1x1 opaque white texture. */
	BuiltinWhiteTexture string = "builtin://white"
	/** @brief A 1x1 opaque black texture. */
	BuiltinBlackTexture string = "builtin://black"
	/** @brief A 1x1 tangent space normal pointing straight out of the surface. */
	BuiltinFlatNormalTexture string = "builtin://flat-normal"
)

// BuiltinTexturePixel returns the RGBA8 texel of a built-in texture.
func BuiltinTexturePixel(name string) ([4]uint8, bool) {
	switch name {
	case BuiltinWhiteTexture:
		return [4]uint8{255, 255, 255, 255}, true
	case BuiltinBlackTexture:
		return [4]uint8{0, 0, 0, 255}, true
	case BuiltinFlatNormalTexture:
		return [4]uint8{128, 128, 255, 255}, true
	}
	return [4]uint8{}, false
}

/** @brief Represents supported texture filtering modes. */
type TextureFilter int

const (
	/** @brief Nearest-neighbor filtering. */
	TextureFilterModeNearest TextureFilter = 0x0
	/** @brief Linear (i.e. bilinear) filtering.*/
	TextureFilterModeLinear TextureFilter = 0x1
)
