package metadata

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pelletier/go-toml/v2"
	"github.com/spaghettifunk/umbra/engine/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBindingMode(t *testing.T) {
	m, err := ParseBindingMode("dynamic_uniforms")
	require.NoError(t, err)
	assert.Equal(t, BindingDynamicUniforms, m)

	m, err = ParseBindingMode("")
	require.NoError(t, err)
	assert.Equal(t, BindingPushConstants, m)

	_, err = ParseBindingMode("bindless")
	assert.Error(t, err)
}

func TestLightTypeFromTOML(t *testing.T) {
	var doc struct {
		Lights []struct {
			Type LightType `toml:"type"`
		} `toml:"lights"`
	}
	err := toml.Unmarshal([]byte("[[lights]]\ntype = \"point\"\n[[lights]]\ntype = \"directional\"\n"), &doc)
	require.NoError(t, err)
	require.Len(t, doc.Lights, 2)
	assert.Equal(t, LightTypePoint, doc.Lights[0].Type)
	assert.Equal(t, LightTypeDirectional, doc.Lights[1].Type)

	err = toml.Unmarshal([]byte("[[lights]]\ntype = \"area\"\n"), &doc)
	assert.Error(t, err)
}

func TestTextureSlots(t *testing.T) {
	assert.Equal(t, 5, int(TextureSlotCount))
	assert.True(t, TextureSlotDiffuse.Required())
	assert.False(t, TextureSlotNormal.Required())
	assert.False(t, TextureSlotRoughness.Required())
	assert.Equal(t, BuiltinFlatNormalTexture, TextureSlotNormal.FallbackTexture())
	assert.Equal(t, BuiltinWhiteTexture, TextureSlotOcclusion.FallbackTexture())

	px, ok := BuiltinTexturePixel(BuiltinFlatNormalTexture)
	require.True(t, ok)
	assert.Equal(t, [4]uint8{128, 128, 255, 255}, px)
	_, ok = BuiltinTexturePixel("textures/wall.png")
	assert.False(t, ok)
}

func TestComputeExtents(t *testing.T) {
	g := GeometryConfig{Vertices: []math.Vertex3D{
		{Position: mgl32.Vec3{1, -2, 3}},
		{Position: mgl32.Vec3{-1, 4, 0}},
	}}
	g.ComputeExtents()
	assert.Equal(t, mgl32.Vec3{-1, -2, 0}, g.MinExtents)
	assert.Equal(t, mgl32.Vec3{1, 4, 3}, g.MaxExtents)
}
