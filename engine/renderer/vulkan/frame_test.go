package vulkan

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/umbra/engine/core"
	"github.com/spaghettifunk/umbra/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFamily() *PipelineFamily {
	family := &PipelineFamily{
		ShadowPass:   &VulkanRenderpass{},
		GeometryPass: &VulkanRenderpass{},
		LightingPass: &VulkanRenderpass{},
		Shadow:       &VulkanPipeline{},
		Geometry:     &VulkanPipeline{},
	}
	for volume := range family.Lighting {
		for shadowed := range family.Lighting[volume] {
			family.Lighting[volume][shadowed] = &VulkanPipeline{}
		}
	}
	return family
}

// testScene draws two models, three meshes in total, lit by a directional
// light, a shadow casting point light and a plain point light.
func testScene(strategy BindingStrategy) *frameScene {
	wall := &Material{Name: "wall", Set: &DescriptorSet{}}
	floor := &Material{Name: "floor", Set: &DescriptorSet{}}
	lights := []metadata.Light{
		{Type: metadata.LightTypeDirectional, Direction: mgl32.Vec3{0, -1, 0}, Intensity: 1},
		{Type: metadata.LightTypePoint, Position: mgl32.Vec3{0, 2, 0}, Radius: 5, Intensity: 1, CastShadows: true},
		{Type: metadata.LightTypePoint, Position: mgl32.Vec3{3, 1, 0}, Radius: 2, Intensity: 1},
	}
	return &frameScene{
		family:   testFamily(),
		strategy: strategy,
		geometry: &GeometryBuffers{},
		models: []*Model{
			{Name: "house", Meshes: []Mesh{
				{Range: MeshRange{FirstIndex: 0, IndexCount: 36}, Material: wall},
				{Range: MeshRange{FirstIndex: 36, IndexCount: 6}, Material: floor},
			}},
			{Name: "crate", Meshes: []Mesh{
				{Range: MeshRange{FirstIndex: 42, IndexCount: 36}, Material: wall},
			}},
		},
		lights: lights,
		shadows: &ShadowMaps{Maps: []*ShadowMap{{
			Index:       0,
			Light:       1,
			Framebuffer: &VulkanFramebuffer{Width: ShadowMapSize, Height: ShadowMapSize},
			Set:         &DescriptorSet{},
		}}},
		gbuffer:     &GBuffer{Framebuffer: &VulkanFramebuffer{Width: 800, Height: 600}, Set: &DescriptorSet{}},
		sphere:      MeshRange{FirstIndex: 78, IndexCount: 2304},
		framebuffer: &VulkanFramebuffer{Width: 800, Height: 600},
		extent:      vk.Extent2D{Width: 800, Height: 600},
	}
}

func pushStrategyFor(scene *frameScene) *pushConstantStrategy {
	s := newPushConstantStrategy(256)
	s.Reserve(sceneCounts{Models: uint32(len(scene.models)), Shadows: scene.shadows.Count(), Lights: uint32(len(scene.lights))})
	bounds := &sceneBounds{}
	objects := make([]mgl32.Mat4, len(scene.models))
	for i := range objects {
		objects[i] = mgl32.Ident4()
	}
	frame := &metadata.FrameData{View: mgl32.Ident4(), Projection: mgl32.Ident4()}
	s.setFrame(buildFrameUniforms(frame, objects, scene.lights, bounds))
	return s
}

func commandNames(rec *fakeRecorder) []string {
	names := make([]string, len(rec.commands))
	for i, c := range rec.commands {
		names[i] = c.Name
	}
	return names
}

func TestRecordFramePushConstants(t *testing.T) {
	scene := testScene(nil)
	scene.strategy = pushStrategyFor(scene)
	rec := &fakeRecorder{}

	require.NoError(t, recordFrame(rec, scene))

	expected := []string{
		// shadow pass
		"begin", "viewport", "pipeline", "geometry",
		"push", "drawIndexed", "drawIndexed",
		"push", "drawIndexed",
		"end",
		// geometry pass
		"begin", "viewport", "pipeline", "geometry",
		"push", "sets", "drawIndexed", "sets", "drawIndexed",
		"push", "sets", "drawIndexed",
		"end",
		// lighting pass
		"begin", "viewport", "geometry", "pipeline", "sets",
		"push", "draw",
		"pipeline", "sets", "push", "drawIndexed",
		"pipeline", "push", "drawIndexed",
		"end",
	}
	assert.Equal(t, expected, commandNames(rec))

	begins := rec.named("begin")
	require.Len(t, begins, 3)
	assert.Same(t, scene.family.ShadowPass, begins[0].Renderpass)
	assert.Same(t, scene.family.GeometryPass, begins[1].Renderpass)
	assert.Same(t, scene.family.LightingPass, begins[2].Renderpass)

	viewports := rec.named("viewport")
	assert.Equal(t, ShadowMapSize, viewports[0].Count)
	assert.Equal(t, uint32(800), viewports[1].Count)
}

func TestRecordFrameLightingVariants(t *testing.T) {
	scene := testScene(nil)
	scene.strategy = pushStrategyFor(scene)
	rec := &fakeRecorder{}
	require.NoError(t, recordFrame(rec, scene))

	pipelines := rec.named("pipeline")
	require.Len(t, pipelines, 5)
	assert.Same(t, scene.family.Shadow, pipelines[0].Pipeline)
	assert.Same(t, scene.family.Geometry, pipelines[1].Pipeline)
	assert.Same(t, scene.family.Lighting[0][0], pipelines[2].Pipeline)
	assert.Same(t, scene.family.Lighting[1][1], pipelines[3].Pipeline)
	assert.Same(t, scene.family.Lighting[1][0], pipelines[4].Pipeline)

	sets := rec.named("sets")
	lightingSets := sets[len(sets)-2:]
	assert.Equal(t, lightingGBufferSet, lightingSets[0].FirstSet)
	assert.Equal(t, []*DescriptorSet{scene.gbuffer.Set}, lightingSets[0].Sets)
	// Only the shadow casting light binds its shadow map.
	assert.Equal(t, lightingShadowSet, lightingSets[1].FirstSet)
	assert.Equal(t, []*DescriptorSet{scene.shadows.Maps[0].Set}, lightingSets[1].Sets)
	assert.Equal(t, []uint32{0}, lightingSets[1].Offsets)

	draws := rec.named("draw")
	require.Len(t, draws, 1)
	assert.Equal(t, uint32(fullscreenQuadVertices), draws[0].Count)

	indexed := rec.named("drawIndexed")
	volumes := indexed[len(indexed)-2:]
	for _, d := range volumes {
		assert.Equal(t, scene.sphere.IndexCount, d.Count)
		assert.Equal(t, scene.sphere.FirstIndex, d.First)
	}
}

func TestRecordFrameGeometryMaterials(t *testing.T) {
	scene := testScene(nil)
	scene.strategy = pushStrategyFor(scene)
	rec := &fakeRecorder{}
	require.NoError(t, recordFrame(rec, scene))

	var materialSets []*DescriptorSet
	for _, c := range rec.named("sets") {
		if c.Pipeline == scene.family.Geometry {
			assert.Equal(t, geometryMaterialSet, c.FirstSet)
			materialSets = append(materialSets, c.Sets[0])
		}
	}
	assert.Equal(t, []*DescriptorSet{
		scene.models[0].Meshes[0].Material.Set,
		scene.models[0].Meshes[1].Material.Set,
		scene.models[1].Meshes[0].Material.Set,
	}, materialSets)

	// Each mesh is drawn once per pass, shadow first.
	indexed := rec.named("drawIndexed")
	require.Len(t, indexed, 8)
	for pass := 0; pass < 2; pass++ {
		assert.Equal(t, uint32(0), indexed[pass*3].First)
		assert.Equal(t, uint32(36), indexed[pass*3+1].First)
		assert.Equal(t, uint32(42), indexed[pass*3+2].First)
	}
}

func TestRecordFrameDynamicUniforms(t *testing.T) {
	layouts := &dynamicLayouts{
		camera: &DescriptorSetLayout{},
		object: &DescriptorSetLayout{},
		view:   &DescriptorSetLayout{},
		light:  &DescriptorSetLayout{},
	}
	strategy := newDynamicUniformStrategy(layouts, 256)
	strategy.Reserve(sceneCounts{Models: 2, Shadows: 1, Lights: 3})
	strategy.cameraSet, strategy.objectSet, strategy.viewSet, strategy.lightSet = &DescriptorSet{}, &DescriptorSet{}, &DescriptorSet{}, &DescriptorSet{}
	scene := testScene(strategy)
	rec := &fakeRecorder{}

	require.NoError(t, recordFrame(rec, scene))
	assert.Empty(t, rec.named("push"))

	var lightOffsets [][]uint32
	for _, c := range rec.named("sets") {
		if c.FirstSet == lightingLightSet && len(c.Sets) == 1 && c.Sets[0] == strategy.lightSet {
			lightOffsets = append(lightOffsets, c.Offsets)
		}
	}
	assert.Equal(t, [][]uint32{{0}, {256}, {512}}, lightOffsets)
}

func TestRecordFrameErrors(t *testing.T) {
	scene := testScene(nil)
	scene.strategy = pushStrategyFor(scene)
	scene.gbuffer = nil
	err := recordFrame(&fakeRecorder{}, scene)
	assert.True(t, errors.Is(err, core.ErrResourceCreation))

	scene = testScene(nil)
	scene.strategy = pushStrategyFor(scene)
	scene.shadows = &ShadowMaps{}
	err = recordFrame(&fakeRecorder{}, scene)
	assert.True(t, errors.Is(err, core.ErrResourceCreation))
}
