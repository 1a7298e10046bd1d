package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/umbra/engine/math"
	"github.com/spaghettifunk/umbra/engine/renderer/metadata"
)

type pushConstantStrategy struct {
	arena   *UniformArena
	shadows *DynamicRegion
	frame   *frameUniforms
}

func newPushConstantStrategy(alignment uint64) *pushConstantStrategy {
	return &pushConstantStrategy{
		arena: NewUniformArena(alignment),
		frame: &frameUniforms{},
	}
}

func (s *pushConstantStrategy) Mode() metadata.BindingMode {
	return metadata.BindingPushConstants
}

func (s *pushConstantStrategy) RecordsPerFrame() bool {
	return true
}

func (s *pushConstantStrategy) SetLayouts(pass Pass) []*DescriptorSetLayout {
	return nil
}

func (s *pushConstantStrategy) PushConstantRanges(pass Pass) []vk.PushConstantRange {
	switch pass {
	case PassShadow, PassGeometry:
		return []vk.PushConstantRange{{
			StageFlags: vk.ShaderStageFlags(vk.ShaderStageVertexBit),
			Offset:     0,
			Size:       drawConstantsSize,
		}}
	case PassLighting:
		return []vk.PushConstantRange{{
			StageFlags: vk.ShaderStageFlags(vk.ShaderStageVertexBit | vk.ShaderStageFragmentBit),
			Offset:     0,
			Size:       uint32(lightUniformSize),
		}}
	}
	return nil
}

func (s *pushConstantStrategy) Reserve(counts sceneCounts) {
	if s.shadows == nil {
		s.shadows = s.arena.AddRegion("shadow-matrices", matrixSize, counts.Shadows)
	}
}

func (s *pushConstantStrategy) RequestDescriptors(request *PoolRequest) {}

func (s *pushConstantStrategy) Build(context *VulkanContext, pool *DescriptorPool) error {
	if s.arena.Buffer != nil {
		return nil
	}
	return s.arena.Allocate(context)
}

func (s *pushConstantStrategy) ShadowMatrices() *DynamicRegion {
	return s.shadows
}

func (s *pushConstantStrategy) setFrame(uniforms *frameUniforms) {
	s.frame = uniforms
}

func (s *pushConstantStrategy) Update(uniforms *frameUniforms) error {
	s.setFrame(uniforms)
	return writeShadowMatrices(s.shadows, uniforms.ShadowViews)
}

func (s *pushConstantStrategy) BeginPass(rec Recorder, pass Pass, pipeline *VulkanPipeline) {}

func (s *pushConstantStrategy) BindObject(rec Recorder, pipeline *VulkanPipeline, model uint32) {
	constants := drawConstants{
		World:          s.frame.Objects[model],
		ViewProjection: s.frame.Camera.ViewProjection,
	}
	rec.PushConstants(pipeline, vk.ShaderStageFlags(vk.ShaderStageVertexBit), 0, math.Bytes(&constants))
}

func (s *pushConstantStrategy) BindShadowObject(rec Recorder, pipeline *VulkanPipeline, shadow, model uint32) {
	constants := drawConstants{
		World:          s.frame.Objects[model],
		ViewProjection: s.frame.ShadowViews[shadow],
	}
	rec.PushConstants(pipeline, vk.ShaderStageFlags(vk.ShaderStageVertexBit), 0, math.Bytes(&constants))
}

func (s *pushConstantStrategy) BindLight(rec Recorder, pipeline *VulkanPipeline, light uint32) {
	constants := s.frame.Lights[light]
	constants.Transform = s.frame.Camera.ViewProjection.Mul4(constants.Transform)
	rec.PushConstants(pipeline, vk.ShaderStageFlags(vk.ShaderStageVertexBit|vk.ShaderStageFragmentBit), 0, math.Bytes(&constants))
}

func (s *pushConstantStrategy) Release() {
	s.arena.Release()
}
