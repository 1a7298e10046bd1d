package vulkan

import (
	"testing"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/umbra/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUniformBlockSizes(t *testing.T) {
	assert.Equal(t, uint64(64), matrixSize)
	assert.Equal(t, uint64(80), cameraUniformSize)
	assert.Equal(t, uint32(128), drawConstantsSize)
	// Push constants must fit the 128 bytes every device guarantees.
	assert.Equal(t, uint64(128), lightUniformSize)
}

func TestShaderName(t *testing.T) {
	assert.Equal(t, "lighting_shadowed.dynamic.frag", ShaderName(shaderLightingShadowed, metadata.BindingDynamicUniforms, vk.ShaderStageFragmentBit))
	assert.Equal(t, "geometry.push.vert", ShaderName(shaderGeometry, metadata.BindingPushConstants, vk.ShaderStageVertexBit))
}

func TestPushConstantRanges(t *testing.T) {
	s := newPushConstantStrategy(256)
	assert.True(t, s.RecordsPerFrame())
	assert.Equal(t, metadata.BindingPushConstants, s.Mode())

	for _, pass := range []Pass{PassShadow, PassGeometry, PassLighting} {
		ranges := s.PushConstantRanges(pass)
		require.Len(t, ranges, 1, pass.String())
		assert.Equal(t, uint32(0), ranges[0].Offset)
		assert.LessOrEqual(t, ranges[0].Size, uint32(128))
		assert.Empty(t, s.SetLayouts(pass))
	}
}

func pushedMatrices(t *testing.T, data []byte) (mgl32.Mat4, mgl32.Mat4) {
	require.Len(t, data, int(drawConstantsSize))
	constants := *(*drawConstants)(unsafe.Pointer(&data[0]))
	return constants.World, constants.ViewProjection
}

func TestPushConstantStrategyBindings(t *testing.T) {
	s := newPushConstantStrategy(256)
	s.Reserve(sceneCounts{Models: 2, Shadows: 1, Lights: 1})
	require.NotNil(t, s.ShadowMatrices())

	camera := mgl32.Scale3D(2, 2, 2)
	shadowView := mgl32.Translate3D(0, -3, 0)
	light := metadata.Light{Type: metadata.LightTypePoint, Position: mgl32.Vec3{1, 2, 3}, Radius: 2}
	s.setFrame(&frameUniforms{
		Camera:      cameraUniform{ViewProjection: camera},
		Objects:     []mgl32.Mat4{mgl32.Ident4(), mgl32.Translate3D(5, 0, 0)},
		ShadowViews: []mgl32.Mat4{shadowView},
		Lights:      []lightUniform{newLightUniform(&light, -1, mgl32.Vec3{})},
	})

	rec := &fakeRecorder{}
	pipeline := &VulkanPipeline{}
	s.BeginPass(rec, PassGeometry, pipeline)
	assert.Empty(t, rec.commands)

	s.BindObject(rec, pipeline, 1)
	s.BindShadowObject(rec, pipeline, 0, 1)
	s.BindLight(rec, pipeline, 0)

	pushes := rec.named("push")
	require.Len(t, pushes, 3)

	world, vp := pushedMatrices(t, pushes[0].Data)
	assert.Equal(t, mgl32.Translate3D(5, 0, 0), world)
	assert.Equal(t, camera, vp)

	world, vp = pushedMatrices(t, pushes[1].Data)
	assert.Equal(t, mgl32.Translate3D(5, 0, 0), world)
	assert.Equal(t, shadowView, vp)

	require.Len(t, pushes[2].Data, int(lightUniformSize))
	pushed := *(*lightUniform)(unsafe.Pointer(&pushes[2].Data[0]))
	assert.Equal(t, camera.Mul4(lightVolumeTransform(&light)), pushed.Transform)
	assert.Equal(t, float32(2), pushed.ColorRadius.W())
}

func TestDynamicUniformStrategyBindings(t *testing.T) {
	layouts := &dynamicLayouts{
		camera: &DescriptorSetLayout{},
		object: &DescriptorSetLayout{},
		view:   &DescriptorSetLayout{},
		light:  &DescriptorSetLayout{},
	}
	s := newDynamicUniformStrategy(layouts, 256)
	assert.False(t, s.RecordsPerFrame())
	assert.Equal(t, []*DescriptorSetLayout{layouts.object, layouts.view}, s.SetLayouts(PassShadow))
	assert.Equal(t, []*DescriptorSetLayout{layouts.camera, layouts.object}, s.SetLayouts(PassGeometry))
	assert.Equal(t, []*DescriptorSetLayout{layouts.camera, layouts.light}, s.SetLayouts(PassLighting))
	assert.Empty(t, s.PushConstantRanges(PassLighting))

	s.Reserve(sceneCounts{Models: 3, Shadows: 2, Lights: 4})
	s.cameraSet, s.objectSet, s.viewSet, s.lightSet = &DescriptorSet{}, &DescriptorSet{}, &DescriptorSet{}, &DescriptorSet{}

	request := &PoolRequest{}
	s.RequestDescriptors(request)
	assert.Equal(t, uint32(4), request.MaxSets)

	rec := &fakeRecorder{}
	pipeline := &VulkanPipeline{}
	s.BeginPass(rec, PassShadow, pipeline)
	s.BeginPass(rec, PassGeometry, pipeline)
	s.BeginPass(rec, PassLighting, pipeline)
	s.BindObject(rec, pipeline, 2)
	s.BindShadowObject(rec, pipeline, 1, 2)
	s.BindLight(rec, pipeline, 3)

	sets := rec.named("sets")
	require.Len(t, sets, 5)

	assert.Equal(t, geometryCameraSet, sets[0].FirstSet)
	assert.Equal(t, []*DescriptorSet{s.cameraSet}, sets[0].Sets)
	assert.Empty(t, sets[0].Offsets)
	assert.Equal(t, lightingCameraSet, sets[1].FirstSet)

	assert.Equal(t, geometryObjectSet, sets[2].FirstSet)
	assert.Equal(t, []uint32{512}, sets[2].Offsets)

	assert.Equal(t, shadowObjectSet, sets[3].FirstSet)
	assert.Equal(t, []*DescriptorSet{s.objectSet, s.viewSet}, sets[3].Sets)
	assert.Equal(t, []uint32{512, 256}, sets[3].Offsets)

	assert.Equal(t, lightingLightSet, sets[4].FirstSet)
	assert.Equal(t, []uint32{768}, sets[4].Offsets)
}
