package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/umbra/engine/core"
	"github.com/spaghettifunk/umbra/engine/renderer/metadata"
)

// fullscreenQuadVertices is the triangle strip the quad vertex shader
// expands from gl_VertexIndex.
const fullscreenQuadVertices = 4

/**
 * @brief Everything one command buffer draws. The same scene is recorded
 * into every swapchain image, only the lighting framebuffer differs.
 */
type frameScene struct {
	family   *PipelineFamily
	strategy BindingStrategy
	geometry *GeometryBuffers
	models   []*Model
	lights   []metadata.Light
	shadows  *ShadowMaps
	gbuffer  *GBuffer
	// sphere is the point light volume inside geometry.
	sphere MeshRange

	framebuffer *VulkanFramebuffer
	extent      vk.Extent2D
}

/**
 * @brief Records a whole frame: one shadow pass per shadow map, the
 * geometry pass filling the G-buffer, then the lighting pass accumulating
 * every light in list order into the swapchain image.
 */
func recordFrame(rec Recorder, scene *frameScene) error {
	if scene.family == nil || scene.gbuffer == nil || scene.framebuffer == nil {
		return core.ResourceCreationErrorf("frame recorded before its targets were built")
	}
	for _, shadow := range scene.shadows.Maps {
		recordShadowPass(rec, scene, shadow)
	}
	recordGeometryPass(rec, scene)
	return recordLightingPass(rec, scene)
}

func recordShadowPass(rec Recorder, scene *frameScene, shadow *ShadowMap) {
	pipeline := scene.family.Shadow
	rec.BeginRenderPass(scene.family.ShadowPass, shadow.Framebuffer, shadow.Framebuffer.Extent())
	rec.SetViewport(shadow.Framebuffer.Extent())
	rec.BindPipeline(pipeline)
	scene.strategy.BeginPass(rec, PassShadow, pipeline)
	rec.BindGeometry(scene.geometry)
	for i, model := range scene.models {
		scene.strategy.BindShadowObject(rec, pipeline, shadow.Index, uint32(i))
		for _, mesh := range model.Meshes {
			rec.DrawIndexed(mesh.Range.IndexCount, 1, mesh.Range.FirstIndex, 0, 0)
		}
	}
	rec.EndRenderPass()
}

func recordGeometryPass(rec Recorder, scene *frameScene) {
	pipeline := scene.family.Geometry
	rec.BeginRenderPass(scene.family.GeometryPass, scene.gbuffer.Framebuffer, scene.extent)
	rec.SetViewport(scene.extent)
	rec.BindPipeline(pipeline)
	scene.strategy.BeginPass(rec, PassGeometry, pipeline)
	rec.BindGeometry(scene.geometry)
	for i, model := range scene.models {
		scene.strategy.BindObject(rec, pipeline, uint32(i))
		for _, mesh := range model.Meshes {
			rec.BindDescriptorSets(pipeline, geometryMaterialSet, []*DescriptorSet{mesh.Material.Set}, nil)
			rec.DrawIndexed(mesh.Range.IndexCount, 1, mesh.Range.FirstIndex, 0, 0)
		}
	}
	rec.EndRenderPass()
}

func recordLightingPass(rec Recorder, scene *frameScene) error {
	rec.BeginRenderPass(scene.family.LightingPass, scene.framebuffer, scene.extent)
	rec.SetViewport(scene.extent)
	rec.BindGeometry(scene.geometry)

	// Every lighting variant shares one layout, so the G-buffer and the
	// camera stay bound across pipeline switches.
	first := scene.family.Lighting[0][0]
	rec.BindPipeline(first)
	rec.BindDescriptorSets(first, lightingGBufferSet, []*DescriptorSet{scene.gbuffer.Set}, nil)
	scene.strategy.BeginPass(rec, PassLighting, first)
	bound := first

	matrices := scene.strategy.ShadowMatrices()
	for i := range scene.lights {
		light := &scene.lights[i]
		pipeline := scene.family.LightingPipeline(light)
		if pipeline != bound {
			rec.BindPipeline(pipeline)
			bound = pipeline
		}
		if light.CastShadows {
			shadow := scene.shadows.ForLight(uint32(i))
			if shadow == nil {
				return core.ResourceCreationErrorf("light %d casts shadows but has no shadow map", i)
			}
			rec.BindDescriptorSets(pipeline, lightingShadowSet, []*DescriptorSet{shadow.Set}, []uint32{matrices.Offset(shadow.Index)})
		}
		scene.strategy.BindLight(rec, pipeline, uint32(i))
		if light.Type == metadata.LightTypePoint {
			rec.DrawIndexed(scene.sphere.IndexCount, 1, scene.sphere.FirstIndex, 0, 0)
		} else {
			rec.Draw(fullscreenQuadVertices, 1, 0, 0)
		}
	}
	rec.EndRenderPass()
	return nil
}
