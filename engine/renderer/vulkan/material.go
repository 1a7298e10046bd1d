package vulkan

import (
	"github.com/spaghettifunk/umbra/engine/containers"
	"github.com/spaghettifunk/umbra/engine/core"
	"github.com/spaghettifunk/umbra/engine/renderer/metadata"
)

/**
 * @brief A named set of textures, one per slot, and the descriptor set that
 * binds them for the geometry pass.
 */
type Material struct {
	Name     string
	Textures [metadata.TextureSlotCount]*VulkanTexture
	// Set is nil until the material is finalized.
	Set *DescriptorSet
}

// Descriptors lists the material textures in binding order. Color slots
// sample the sRGB view, data slots the linear one.
func (m *Material) Descriptors() []Descriptor {
	descriptors := make([]Descriptor, 0, metadata.TextureSlotCount)
	for slot, texture := range m.Textures {
		s := metadata.TextureSlot(slot)
		descriptors = append(descriptors, TextureDescriptor(uint32(slot), texture, s.SRGB()))
	}
	return descriptors
}

func (m *Material) IsFinalized() bool {
	return m.Set != nil
}

/**
 * @brief Interns materials by name. Materials share textures through the
 * texture cache.
 */
type MaterialCache struct {
	cache    *containers.Cache[*Material]
	textures *TextureCache
	max      uint32
}

func NewMaterialCache(textures *TextureCache, max uint32) *MaterialCache {
	return &MaterialCache{
		cache:    containers.NewCache[*Material](),
		textures: textures,
		max:      max,
	}
}

// Acquire returns the material named config.Name, creating it and its
// textures on first use. Empty optional slots get a built-in texture.
func (mc *MaterialCache) Acquire(config metadata.MaterialConfig) (*Material, error) {
	name := config.Name
	if name == "" {
		name = metadata.DefaultMaterialName
	}
	if _, ok := mc.cache.Get(name); !ok && uint32(mc.cache.Len()) >= mc.max {
		return nil, core.ResourceCreationErrorf("material '%s' exceeds the limit of %d materials", name, mc.max)
	}
	return mc.cache.GetOrLoad(name, func(key string) (*Material, error) {
		material := &Material{Name: key}
		for slot := metadata.TextureSlot(0); slot < metadata.TextureSlotCount; slot++ {
			path := config.Maps[slot]
			if path == "" {
				if slot.Required() {
					return nil, core.ResourceCreationErrorf("material '%s' has no %s texture", key, slot)
				}
				path = slot.FallbackTexture()
			}
			texture, err := mc.textures.Acquire(path)
			if err != nil {
				return nil, core.WrapResourceCreation(err, "material '%s' %s texture", key, slot)
			}
			material.Textures[slot] = texture
		}
		core.LogDebug("Created material '%s'", key)
		return material, nil
	})
}

func (mc *MaterialCache) Len() int {
	return mc.cache.Len()
}

// Materials returns every cached material sorted by name.
func (mc *MaterialCache) Materials() []*Material {
	keys := mc.cache.Keys()
	materials := make([]*Material, 0, len(keys))
	for _, k := range keys {
		if m, ok := mc.cache.Get(k); ok {
			materials = append(materials, m)
		}
	}
	return materials
}

// Finalize allocates and writes a descriptor set for every material that
// does not have one yet.
func (mc *MaterialCache) Finalize(pool *DescriptorPool, layout *DescriptorSetLayout) error {
	for _, m := range mc.Materials() {
		if m.IsFinalized() {
			continue
		}
		set, err := pool.Allocate(layout)
		if err != nil {
			return core.WrapResourceCreation(err, "material '%s'", m.Name)
		}
		if err := set.Write(m.Descriptors()...); err != nil {
			return err
		}
		m.Set = set
	}
	return nil
}

// Release drops the materials. Their sets go away with the pool and their
// textures with the texture cache.
func (mc *MaterialCache) Release() {
	mc.cache.Clear(func(_ string, m *Material) {
		m.Set = nil
	})
}
