package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/umbra/engine/containers"
	"github.com/spaghettifunk/umbra/engine/core"
	"github.com/spaghettifunk/umbra/engine/renderer/metadata"
)

/**
 * @brief A sampled RGBA8 texture. The image holds linear (UNORM) texels and
 * is created with a mutable format, so color maps sample it through an sRGB
 * view of the same memory.
 */
type VulkanTexture struct {
	/** @brief The path or built-in name the texture was created from. */
	Name     string
	Image    *VulkanImage
	SRGBView vk.ImageView
	Sampler  vk.Sampler

	context *VulkanContext
}

// View returns the view that decodes texels as sRGB or as linear data.
func (t *VulkanTexture) View(srgb bool) vk.ImageView {
	if srgb {
		return t.SRGBView
	}
	return t.Image.View
}

type SamplerConfig struct {
	Filter      metadata.TextureFilter
	AddressMode vk.SamplerAddressMode
	BorderColor vk.BorderColor
	// Anisotropy of 0 disables anisotropic filtering.
	Anisotropy float32
}

func NewSampler(context *VulkanContext, config SamplerConfig) (vk.Sampler, error) {
	filter := vk.FilterLinear
	mipmapMode := vk.SamplerMipmapModeLinear
	if config.Filter == metadata.TextureFilterModeNearest {
		filter = vk.FilterNearest
		mipmapMode = vk.SamplerMipmapModeNearest
	}
	samplerInfo := vk.SamplerCreateInfo{
		SType:                   vk.StructureTypeSamplerCreateInfo,
		MagFilter:               filter,
		MinFilter:               filter,
		AddressModeU:            config.AddressMode,
		AddressModeV:            config.AddressMode,
		AddressModeW:            config.AddressMode,
		AnisotropyEnable:        vk.False,
		MaxAnisotropy:           1.0,
		BorderColor:             config.BorderColor,
		UnnormalizedCoordinates: vk.False,
		CompareEnable:           vk.False,
		CompareOp:               vk.CompareOpAlways,
		MipmapMode:              mipmapMode,
		MipLodBias:              0.0,
		MinLod:                  0.0,
		MaxLod:                  0.0,
	}
	if config.Anisotropy > 1 {
		samplerInfo.AnisotropyEnable = vk.True
		samplerInfo.MaxAnisotropy = config.Anisotropy
	}
	var sampler vk.Sampler
	if res := vk.CreateSampler(context.Device.LogicalDevice, &samplerInfo, context.Allocator, &sampler); res != vk.Success {
		return nil, resultError(res, "failed to create sampler")
	}
	return sampler, nil
}

// NewTexture uploads decoded RGBA8 pixels and creates a repeating, linearly
// filtered sampler for them.
func NewTexture(context *VulkanContext, name string, data *metadata.ImageResourceData) (*VulkanTexture, error) {
	image, err := UploadImage(context, data.Width, data.Height, vk.FormatR8g8b8a8Unorm,
		vk.ImageCreateFlags(vk.ImageCreateMutableFormatBit), data.Pixels)
	if err != nil {
		return nil, core.WrapResourceCreation(err, "texture '%s'", name)
	}
	srgbView, err := image.NewView(vk.FormatR8g8b8a8Srgb)
	if err != nil {
		image.Release()
		return nil, core.WrapResourceCreation(err, "texture '%s' sRGB view", name)
	}
	sampler, err := NewSampler(context, SamplerConfig{
		Filter:      metadata.TextureFilterModeLinear,
		AddressMode: vk.SamplerAddressModeRepeat,
		BorderColor: vk.BorderColorIntOpaqueBlack,
		Anisotropy:  context.MaxSamplerAnisotropy(),
	})
	if err != nil {
		vk.DestroyImageView(context.Device.LogicalDevice, srgbView, context.Allocator)
		image.Release()
		return nil, err
	}
	return &VulkanTexture{
		Name:     name,
		Image:    image,
		SRGBView: srgbView,
		Sampler:  sampler,
		context:  context,
	}, nil
}

func (t *VulkanTexture) Release() {
	if t.context == nil {
		return
	}
	if t.Sampler != nil {
		vk.DestroySampler(t.context.Device.LogicalDevice, t.Sampler, t.context.Allocator)
		t.Sampler = nil
	}
	if t.SRGBView != nil {
		vk.DestroyImageView(t.context.Device.LogicalDevice, t.SRGBView, t.context.Allocator)
		t.SRGBView = nil
	}
	if t.Image != nil {
		t.Image.Release()
		t.Image = nil
	}
}

// TextureSource decodes the image stored at path.
type TextureSource func(path string) (*metadata.ImageResourceData, error)

// TextureFactory creates the GPU texture for a path or built-in name.
type TextureFactory func(name string) (*VulkanTexture, error)

// DeviceTextureFactory creates textures on the device, resolving built-in
// names to 1x1 textures and everything else through source.
func DeviceTextureFactory(context *VulkanContext, source TextureSource) TextureFactory {
	return func(name string) (*VulkanTexture, error) {
		if pixel, ok := metadata.BuiltinTexturePixel(name); ok {
			data := &metadata.ImageResourceData{
				ChannelCount: 4,
				Width:        1,
				Height:       1,
				Pixels:       pixel[:],
			}
			return NewTexture(context, name, data)
		}
		data, err := source(name)
		if err != nil {
			return nil, err
		}
		return NewTexture(context, name, data)
	}
}

/**
 * @brief Interns textures by path: each path is uploaded once and every
 * material referencing it shares the same texture, whichever color space the
 * material samples it in.
 */
type TextureCache struct {
	cache  *containers.Cache[*VulkanTexture]
	create TextureFactory
}

func NewTextureCache(create TextureFactory) *TextureCache {
	return &TextureCache{
		cache:  containers.NewCache[*VulkanTexture](),
		create: create,
	}
}

// Acquire returns the texture for name, creating it on first use.
func (tc *TextureCache) Acquire(name string) (*VulkanTexture, error) {
	if name == "" {
		return nil, core.ResourceCreationErrorf("texture name is empty")
	}
	return tc.cache.GetOrLoad(name, func(key string) (*VulkanTexture, error) {
		core.LogDebug("Creating texture '%s'", key)
		return tc.create(key)
	})
}

func (tc *TextureCache) Len() int {
	return tc.cache.Len()
}

func (tc *TextureCache) Release() {
	tc.cache.Clear(func(_ string, t *VulkanTexture) {
		t.Release()
	})
}
