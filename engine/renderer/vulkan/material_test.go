package vulkan

import (
	"testing"
	"unsafe"

	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/umbra/engine/core"
	"github.com/spaghettifunk/umbra/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTextures creates GPU-less textures and counts how often each name is created.
func fakeTextures() (*TextureCache, map[string]int) {
	created := map[string]int{}
	cache := NewTextureCache(func(name string) (*VulkanTexture, error) {
		if name == "missing.png" {
			return nil, core.AssetLoadErrorf("open %s: no such file", name)
		}
		created[name]++
		return fakeTexture(name), nil
	})
	return cache, created
}

// fakeTexture gives a GPU-less texture two distinct, never dereferenced views.
func fakeTexture(name string) *VulkanTexture {
	views := make([]byte, 2)
	return &VulkanTexture{
		Name:     name,
		Image:    &VulkanImage{View: vk.ImageView(unsafe.Pointer(&views[0]))},
		SRGBView: vk.ImageView(unsafe.Pointer(&views[1])),
	}
}

func TestTextureCacheReturnsSameInstance(t *testing.T) {
	cache, created := fakeTextures()

	first, err := cache.Acquire("textures/wall.png")
	require.NoError(t, err)
	second, err := cache.Acquire("textures/wall.png")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, created["textures/wall.png"])
	assert.Equal(t, 1, cache.Len())
}

func TestTextureCacheErrors(t *testing.T) {
	cache, _ := fakeTextures()

	_, err := cache.Acquire("")
	assert.True(t, errors.Is(err, core.ErrResourceCreation))

	_, err = cache.Acquire("missing.png")
	assert.True(t, errors.Is(err, core.ErrAssetLoad))
	assert.Zero(t, cache.Len())
}

func wallMaterial(name string) metadata.MaterialConfig {
	config := metadata.MaterialConfig{Name: name}
	config.Maps[metadata.TextureSlotDiffuse] = "textures/wall.png"
	config.Maps[metadata.TextureSlotNormal] = "textures/wall_n.png"
	return config
}

func TestMaterialCacheInternsByName(t *testing.T) {
	textures, created := fakeTextures()
	materials := NewMaterialCache(textures, 8)

	first, err := materials.Acquire(wallMaterial("wall"))
	require.NoError(t, err)
	second, err := materials.Acquire(wallMaterial("wall"))
	require.NoError(t, err)
	assert.Same(t, first, second)

	other, err := materials.Acquire(wallMaterial("wall-copy"))
	require.NoError(t, err)
	assert.NotSame(t, first, other)
	// Both materials share the textures.
	assert.Same(t, first.Textures[metadata.TextureSlotDiffuse], other.Textures[metadata.TextureSlotDiffuse])
	assert.Equal(t, 1, created["textures/wall.png"])
	assert.Equal(t, 2, materials.Len())

	names := []string{}
	for _, m := range materials.Materials() {
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{"wall", "wall-copy"}, names)
}

func TestMaterialCacheFallbackTextures(t *testing.T) {
	textures, _ := fakeTextures()
	materials := NewMaterialCache(textures, 8)

	m, err := materials.Acquire(wallMaterial(""))
	require.NoError(t, err)
	assert.Equal(t, metadata.DefaultMaterialName, m.Name)
	assert.False(t, m.IsFinalized())

	assert.Equal(t, metadata.BuiltinWhiteTexture, m.Textures[metadata.TextureSlotOcclusion].Name)
	assert.Equal(t, metadata.BuiltinBlackTexture, m.Textures[metadata.TextureSlotMetallic].Name)
	assert.Equal(t, metadata.BuiltinWhiteTexture, m.Textures[metadata.TextureSlotRoughness].Name)
}

func TestMaterialCacheErrors(t *testing.T) {
	textures, _ := fakeTextures()
	materials := NewMaterialCache(textures, 1)

	noDiffuse := metadata.MaterialConfig{Name: "bare"}
	_, err := materials.Acquire(noDiffuse)
	assert.True(t, errors.Is(err, core.ErrResourceCreation))

	broken := wallMaterial("broken")
	broken.Maps[metadata.TextureSlotRoughness] = "missing.png"
	_, err = materials.Acquire(broken)
	assert.True(t, errors.Is(err, core.ErrAssetLoad))
	assert.Zero(t, materials.Len())

	_, err = materials.Acquire(wallMaterial("one"))
	require.NoError(t, err)
	_, err = materials.Acquire(wallMaterial("two"))
	assert.True(t, errors.Is(err, core.ErrResourceCreation))
	// Existing materials are still returned at the limit.
	_, err = materials.Acquire(wallMaterial("one"))
	assert.NoError(t, err)
}

func TestMaterialDescriptorsFollowSlotOrder(t *testing.T) {
	m := &Material{Name: "m"}
	for slot := range m.Textures {
		m.Textures[slot] = fakeTexture("t")
	}
	descriptors := m.Descriptors()
	require.Len(t, descriptors, int(metadata.TextureSlotCount))
	for slot, d := range descriptors {
		assert.Equal(t, uint32(slot), d.Binding)
		assert.Equal(t, vk.DescriptorTypeCombinedImageSampler, d.Type)
		assert.Equal(t, vk.ImageLayoutShaderReadOnlyOptimal, d.ImageLayout)
	}
}

func TestSharedTextureSamplesPerSlotColorSpace(t *testing.T) {
	textures, created := fakeTextures()
	materials := NewMaterialCache(textures, 8)

	// One file used as color in one material and as data in another.
	config := metadata.MaterialConfig{Name: "a"}
	config.Maps[metadata.TextureSlotDiffuse] = "textures/shared.png"
	a, err := materials.Acquire(config)
	require.NoError(t, err)

	config = metadata.MaterialConfig{Name: "b"}
	config.Maps[metadata.TextureSlotDiffuse] = "textures/wall.png"
	config.Maps[metadata.TextureSlotRoughness] = "textures/shared.png"
	b, err := materials.Acquire(config)
	require.NoError(t, err)

	shared := a.Textures[metadata.TextureSlotDiffuse]
	assert.Same(t, shared, b.Textures[metadata.TextureSlotRoughness])
	assert.Equal(t, 1, created["textures/shared.png"])

	assert.Equal(t, shared.SRGBView, a.Descriptors()[metadata.TextureSlotDiffuse].View)
	assert.Equal(t, shared.Image.View, b.Descriptors()[metadata.TextureSlotRoughness].View)
	assert.NotEqual(t, shared.SRGBView, shared.Image.View)
}
