package assets

import (
	"encoding/binary"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/spaghettifunk/umbra/engine/core"
	"github.com/spaghettifunk/umbra/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, w, h))))
}

func TestLoadShaderFromShaderDir(t *testing.T) {
	dir := t.TempDir()
	code := make([]byte, 8)
	binary.LittleEndian.PutUint32(code, 0x07230203)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "geometry.vert.spv"), code, 0o644))

	am := NewAssetManager(t.TempDir(), dir)
	words, err := am.LoadShader("geometry.vert")
	require.NoError(t, err)
	assert.Len(t, words, 2)

	_, err = am.LoadShader("lighting.frag")
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrAssetLoad))
}

func TestLoadImagesSkipsBuiltinsAndDeduplicates(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.png")
	b := filepath.Join(dir, "b.png")
	writePNG(t, a, 4, 4)
	writePNG(t, b, 2, 1)

	am := NewAssetManager(dir, dir)
	images, err := am.LoadImages([]string{a, b, a, metadata.BuiltinWhiteTexture, ""})
	require.NoError(t, err)
	require.Len(t, images, 2)
	assert.Equal(t, uint32(4), images[a].Width)
	assert.Equal(t, uint32(1), images[b].Height)
}

func TestLoadImagesFails(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.png")
	writePNG(t, a, 1, 1)

	am := NewAssetManager(dir, dir)
	_, err := am.LoadImages([]string{a, filepath.Join(dir, "missing.png")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrAssetLoad))
}

func TestModelTextures(t *testing.T) {
	m := &metadata.ModelData{Meshes: []metadata.GeometryConfig{
		{Material: metadata.MaterialConfig{Maps: [metadata.TextureSlotCount]string{"d.png", "n.png"}}},
		{Material: metadata.MaterialConfig{Maps: [metadata.TextureSlotCount]string{"d.png", "", "", "", "r.png"}}},
	}}
	assert.Equal(t, []string{"d.png", "n.png", "d.png", "r.png"}, ModelTextures(m))
}

func TestLoadModelReadsItsMaterialLibrary(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tri.mtl"), []byte("newmtl clay\nmap_Kd clay.png\nnorm clay_n.png\n"), 0o644))
	obj := "mtllib tri.mtl\no tri\nv 0 0 0\nv 1 0 0\nv 0 1 0\nvt 0 0\nvt 1 0\nvt 0 1\nusemtl clay\nf 1/1 2/2 3/3\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tri.obj"), []byte(obj), 0o644))

	am := NewAssetManager(dir, dir)
	model, err := am.LoadModel("tri.obj")
	require.NoError(t, err)
	require.Len(t, model.Meshes, 1)
	material := model.Meshes[0].Material
	assert.Equal(t, "clay", material.Name)
	assert.Equal(t, filepath.Join(dir, "clay.png"), material.Maps[metadata.TextureSlotDiffuse])
	assert.Equal(t, filepath.Join(dir, "clay_n.png"), material.Maps[metadata.TextureSlotNormal])

	library, err := am.LoadMaterialLibrary(filepath.Join(dir, "tri.mtl"))
	require.NoError(t, err)
	assert.Contains(t, library.Materials, "clay")
}
