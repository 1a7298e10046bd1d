package vulkan

import vk "github.com/goki/vulkan"

type recordedCommand struct {
	Name       string
	Renderpass *VulkanRenderpass
	Pipeline   *VulkanPipeline
	FirstSet   uint32
	Sets       []*DescriptorSet
	Offsets    []uint32
	Count      uint32
	First      uint32
	Data       []byte
}

// fakeRecorder captures the command stream instead of recording it.
type fakeRecorder struct {
	commands []recordedCommand
}

func (r *fakeRecorder) BeginRenderPass(renderpass *VulkanRenderpass, framebuffer *VulkanFramebuffer, extent vk.Extent2D) {
	r.commands = append(r.commands, recordedCommand{Name: "begin", Renderpass: renderpass})
}

func (r *fakeRecorder) EndRenderPass() {
	r.commands = append(r.commands, recordedCommand{Name: "end"})
}

func (r *fakeRecorder) SetViewport(extent vk.Extent2D) {
	r.commands = append(r.commands, recordedCommand{Name: "viewport", Count: extent.Width})
}

func (r *fakeRecorder) BindPipeline(pipeline *VulkanPipeline) {
	r.commands = append(r.commands, recordedCommand{Name: "pipeline", Pipeline: pipeline})
}

func (r *fakeRecorder) BindGeometry(geometry *GeometryBuffers) {
	r.commands = append(r.commands, recordedCommand{Name: "geometry"})
}

func (r *fakeRecorder) BindDescriptorSets(pipeline *VulkanPipeline, firstSet uint32, sets []*DescriptorSet, dynamicOffsets []uint32) {
	r.commands = append(r.commands, recordedCommand{
		Name:     "sets",
		Pipeline: pipeline,
		FirstSet: firstSet,
		Sets:     sets,
		Offsets:  dynamicOffsets,
	})
}

func (r *fakeRecorder) PushConstants(pipeline *VulkanPipeline, stages vk.ShaderStageFlags, offset uint32, data []byte) {
	r.commands = append(r.commands, recordedCommand{
		Name:     "push",
		Pipeline: pipeline,
		Data:     append([]byte(nil), data...),
	})
}

func (r *fakeRecorder) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	r.commands = append(r.commands, recordedCommand{Name: "draw", Count: vertexCount, First: firstVertex})
}

func (r *fakeRecorder) DrawIndexed(indexCount, instanceCount, firstIndex uint32, vertexOffset int32, firstInstance uint32) {
	r.commands = append(r.commands, recordedCommand{Name: "drawIndexed", Count: indexCount, First: firstIndex})
}

// named returns the commands called name, in order.
func (r *fakeRecorder) named(name string) []recordedCommand {
	var out []recordedCommand
	for _, c := range r.commands {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

var _ Recorder = (*fakeRecorder)(nil)
