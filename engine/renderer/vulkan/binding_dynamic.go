package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/umbra/engine/math"
	"github.com/spaghettifunk/umbra/engine/renderer/metadata"
)

type dynamicLayouts struct {
	// camera is a plain uniform buffer, the others are dynamic.
	camera *DescriptorSetLayout
	object *DescriptorSetLayout
	view   *DescriptorSetLayout
	light  *DescriptorSetLayout
}

func newDynamicLayouts(context *VulkanContext) (*dynamicLayouts, error) {
	layouts := &dynamicLayouts{}
	vertexFragment := vk.ShaderStageFlags(vk.ShaderStageVertexBit | vk.ShaderStageFragmentBit)
	vertex := vk.ShaderStageFlags(vk.ShaderStageVertexBit)
	var err error
	if layouts.camera, err = NewDescriptorSetLayout(context, LayoutBinding{uniformBufferBinding, vk.DescriptorTypeUniformBuffer, vertexFragment}); err != nil {
		return nil, err
	}
	if layouts.object, err = NewDescriptorSetLayout(context, LayoutBinding{uniformBufferBinding, vk.DescriptorTypeUniformBufferDynamic, vertex}); err != nil {
		layouts.release()
		return nil, err
	}
	if layouts.view, err = NewDescriptorSetLayout(context, LayoutBinding{uniformBufferBinding, vk.DescriptorTypeUniformBufferDynamic, vertex}); err != nil {
		layouts.release()
		return nil, err
	}
	if layouts.light, err = NewDescriptorSetLayout(context, LayoutBinding{uniformBufferBinding, vk.DescriptorTypeUniformBufferDynamic, vertexFragment}); err != nil {
		layouts.release()
		return nil, err
	}
	return layouts, nil
}

func (l *dynamicLayouts) release() {
	for _, layout := range []*DescriptorSetLayout{l.camera, l.object, l.view, l.light} {
		if layout != nil {
			layout.Release()
		}
	}
}

type dynamicUniformStrategy struct {
	layouts *dynamicLayouts
	arena   *UniformArena

	camera  *DynamicRegion
	objects *DynamicRegion
	views   *DynamicRegion
	lights  *DynamicRegion

	cameraSet *DescriptorSet
	objectSet *DescriptorSet
	viewSet   *DescriptorSet
	lightSet  *DescriptorSet
}

func newDynamicUniformStrategy(layouts *dynamicLayouts, alignment uint64) *dynamicUniformStrategy {
	return &dynamicUniformStrategy{
		layouts: layouts,
		arena:   NewUniformArena(alignment),
	}
}

func (s *dynamicUniformStrategy) Mode() metadata.BindingMode {
	return metadata.BindingDynamicUniforms
}

func (s *dynamicUniformStrategy) RecordsPerFrame() bool {
	return false
}

func (s *dynamicUniformStrategy) SetLayouts(pass Pass) []*DescriptorSetLayout {
	switch pass {
	case PassShadow:
		return []*DescriptorSetLayout{s.layouts.object, s.layouts.view}
	case PassGeometry:
		return []*DescriptorSetLayout{s.layouts.camera, s.layouts.object}
	case PassLighting:
		return []*DescriptorSetLayout{s.layouts.camera, s.layouts.light}
	}
	return nil
}

func (s *dynamicUniformStrategy) PushConstantRanges(pass Pass) []vk.PushConstantRange {
	return nil
}

func (s *dynamicUniformStrategy) Reserve(counts sceneCounts) {
	if s.camera != nil {
		return
	}
	s.camera = s.arena.AddRegion("camera", cameraUniformSize, 1)
	s.objects = s.arena.AddRegion("objects", matrixSize, counts.Models)
	s.views = s.arena.AddRegion("shadow-matrices", matrixSize, counts.Shadows)
	s.lights = s.arena.AddRegion("lights", lightUniformSize, counts.Lights)
}

func (s *dynamicUniformStrategy) RequestDescriptors(request *PoolRequest) {
	request.Add(s.layouts.camera, 1)
	request.Add(s.layouts.object, 1)
	request.Add(s.layouts.view, 1)
	request.Add(s.layouts.light, 1)
}

func (s *dynamicUniformStrategy) Build(context *VulkanContext, pool *DescriptorPool) error {
	if s.arena.Buffer != nil {
		return nil
	}
	if err := s.arena.Allocate(context); err != nil {
		return err
	}
	sets := []struct {
		out     **DescriptorSet
		layout  *DescriptorSetLayout
		region  *DynamicRegion
		dynamic bool
	}{
		{&s.cameraSet, s.layouts.camera, s.camera, false},
		{&s.objectSet, s.layouts.object, s.objects, true},
		{&s.viewSet, s.layouts.view, s.views, true},
		{&s.lightSet, s.layouts.light, s.lights, true},
	}
	for _, entry := range sets {
		set, err := pool.Allocate(entry.layout)
		if err != nil {
			return err
		}
		if err := set.Write(entry.region.Descriptor(uniformBufferBinding, entry.dynamic)); err != nil {
			return err
		}
		*entry.out = set
	}
	return nil
}

func (s *dynamicUniformStrategy) ShadowMatrices() *DynamicRegion {
	return s.views
}

func (s *dynamicUniformStrategy) Update(uniforms *frameUniforms) error {
	if err := s.camera.Write(0, math.Bytes(&uniforms.Camera)); err != nil {
		return err
	}
	for i := range uniforms.Objects {
		if err := s.objects.Write(uint32(i), math.Bytes(&uniforms.Objects[i])); err != nil {
			return err
		}
	}
	if err := writeShadowMatrices(s.views, uniforms.ShadowViews); err != nil {
		return err
	}
	for i := range uniforms.Lights {
		if err := s.lights.Write(uint32(i), math.Bytes(&uniforms.Lights[i])); err != nil {
			return err
		}
	}
	return nil
}

func (s *dynamicUniformStrategy) BeginPass(rec Recorder, pass Pass, pipeline *VulkanPipeline) {
	switch pass {
	case PassGeometry:
		rec.BindDescriptorSets(pipeline, geometryCameraSet, []*DescriptorSet{s.cameraSet}, nil)
	case PassLighting:
		rec.BindDescriptorSets(pipeline, lightingCameraSet, []*DescriptorSet{s.cameraSet}, nil)
	}
}

func (s *dynamicUniformStrategy) BindObject(rec Recorder, pipeline *VulkanPipeline, model uint32) {
	rec.BindDescriptorSets(pipeline, geometryObjectSet, []*DescriptorSet{s.objectSet}, []uint32{s.objects.Offset(model)})
}

func (s *dynamicUniformStrategy) BindShadowObject(rec Recorder, pipeline *VulkanPipeline, shadow, model uint32) {
	rec.BindDescriptorSets(pipeline, shadowObjectSet,
		[]*DescriptorSet{s.objectSet, s.viewSet},
		[]uint32{s.objects.Offset(model), s.views.Offset(shadow)})
}

func (s *dynamicUniformStrategy) BindLight(rec Recorder, pipeline *VulkanPipeline, light uint32) {
	rec.BindDescriptorSets(pipeline, lightingLightSet, []*DescriptorSet{s.lightSet}, []uint32{s.lights.Offset(light)})
}

func (s *dynamicUniformStrategy) Release() {
	s.arena.Release()
	s.layouts.release()
}
