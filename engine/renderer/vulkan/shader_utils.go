package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/umbra/engine/core"
	"github.com/spaghettifunk/umbra/engine/renderer/metadata"
)

// ShaderSource loads SPIR-V words by shader name.
type ShaderSource func(name string) ([]uint32, error)

/**
 * @brief Represents a single shader stage.
 */
type VulkanShaderStage struct {
	Name string
	/** @brief The internal shader module Handle. */
	Handle vk.ShaderModule
	/** @brief The pipeline shader stage creation info. */
	ShaderStageCreateInfo vk.PipelineShaderStageCreateInfo
}

func stageExtension(stage vk.ShaderStageFlagBits) string {
	switch stage {
	case vk.ShaderStageVertexBit:
		return "vert"
	case vk.ShaderStageFragmentBit:
		return "frag"
	}
	return "unknown"
}

func modeSuffix(mode metadata.BindingMode) string {
	if mode == metadata.BindingDynamicUniforms {
		return "dynamic"
	}
	return "push"
}

// ShaderName is the compiled file name of a shader variant, without the .spv
// extension, e.g. "lighting_shadowed.dynamic.frag".
func ShaderName(base string, mode metadata.BindingMode, stage vk.ShaderStageFlagBits) string {
	return fmt.Sprintf("%s.%s.%s", base, modeSuffix(mode), stageExtension(stage))
}

// shaderCodeSize is the SPIR-V size in bytes, as vkCreateShaderModule expects.
func shaderCodeSize(code []uint32) uint64 {
	return uint64(len(code)) * 4
}

func NewShaderStage(context *VulkanContext, name string, code []uint32, stage vk.ShaderStageFlagBits) (*VulkanShaderStage, error) {
	if len(code) == 0 {
		return nil, core.ResourceCreationErrorf("shader '%s' has no code", name)
	}
	createInfo := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: shaderCodeSize(code),
		PCode:    code,
	}
	var module vk.ShaderModule
	if res := vk.CreateShaderModule(context.Device.LogicalDevice, &createInfo, context.Allocator, &module); res != vk.Success {
		return nil, resultError(res, "failed to create shader module '%s'", name)
	}
	return &VulkanShaderStage{
		Name:   name,
		Handle: module,
		ShaderStageCreateInfo: vk.PipelineShaderStageCreateInfo{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  stage,
			Module: module,
			PName:  VulkanSafeString("main"),
		},
	}, nil
}

// LoadShaderStage loads the variant of base for mode and stage from source.
func LoadShaderStage(context *VulkanContext, source ShaderSource, base string, mode metadata.BindingMode, stage vk.ShaderStageFlagBits) (*VulkanShaderStage, error) {
	name := ShaderName(base, mode, stage)
	code, err := source(name)
	if err != nil {
		return nil, err
	}
	return NewShaderStage(context, name, code, stage)
}

func (s *VulkanShaderStage) Destroy(context *VulkanContext) {
	if s.Handle != nil {
		vk.DestroyShaderModule(context.Device.LogicalDevice, s.Handle, context.Allocator)
		s.Handle = nil
	}
}
