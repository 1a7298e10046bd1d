package renderer

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/umbra/engine/core"
	"github.com/spaghettifunk/umbra/engine/math"
	"github.com/spaghettifunk/umbra/engine/renderer/metadata"
	"github.com/spaghettifunk/umbra/engine/renderer/vulkan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	calls    []string
	lights   []metadata.Light
	frames   int
	failLoad bool
}

func (b *fakeBackend) LoadModel(path string, transform *math.Transform) (*vulkan.Model, error) {
	b.calls = append(b.calls, "load")
	if b.failLoad {
		return nil, core.AssetLoadErrorf("open %s", path)
	}
	return &vulkan.Model{Name: path, Transform: transform}, nil
}

func (b *fakeBackend) AddLight(light metadata.Light) error {
	b.calls = append(b.calls, "light")
	b.lights = append(b.lights, light)
	return nil
}

func (b *fakeBackend) Finalize() error {
	b.calls = append(b.calls, "finalize")
	return nil
}

func (b *fakeBackend) Render(frame *metadata.FrameData) error {
	b.calls = append(b.calls, "render")
	b.frames++
	return nil
}

func (b *fakeBackend) Resize(width, height uint32) error {
	b.calls = append(b.calls, "resize")
	return nil
}

func (b *fakeBackend) Release() {
	b.calls = append(b.calls, "release")
}

func TestRendererModelIndices(t *testing.T) {
	backend := &fakeBackend{}
	r := newRenderer(backend)

	first, err := r.LoadModel("models/a.obj", nil)
	require.NoError(t, err)
	second, err := r.LoadModel("models/b.obj", math.TransformCreate())
	require.NoError(t, err)
	assert.Equal(t, 0, first)
	assert.Equal(t, 1, second)
	assert.Equal(t, 2, r.ModelCount())

	backend.failLoad = true
	index, err := r.LoadModel("models/c.obj", nil)
	assert.Equal(t, -1, index)
	assert.True(t, errors.Is(err, core.ErrAssetLoad))
	assert.Equal(t, 2, r.ModelCount())
}

func TestRendererDrawFrameChecksTransforms(t *testing.T) {
	backend := &fakeBackend{}
	r := newRenderer(backend)
	_, err := r.LoadModel("models/a.obj", nil)
	require.NoError(t, err)

	require.NoError(t, r.DrawFrame(&metadata.FrameData{}))
	require.NoError(t, r.DrawFrame(&metadata.FrameData{ModelTransforms: []mgl32.Mat4{mgl32.Ident4()}}))
	err = r.DrawFrame(&metadata.FrameData{ModelTransforms: []mgl32.Mat4{mgl32.Ident4(), mgl32.Ident4()}})
	assert.True(t, errors.Is(err, core.ErrSubmission))
	assert.Equal(t, 2, backend.frames)
}

func TestRendererResize(t *testing.T) {
	backend := &fakeBackend{}
	r := newRenderer(backend)

	require.NoError(t, r.OnResize(0, 0))
	require.NoError(t, r.OnResize(800, 600))
	r.Shutdown()
	assert.Equal(t, []string{"resize", "resize", "finalize", "release"}, backend.calls)
}
