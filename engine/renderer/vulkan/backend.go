package vulkan

import (
	"github.com/go-gl/mathgl/mgl32"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/umbra/engine/assets"
	"github.com/spaghettifunk/umbra/engine/core"
	"github.com/spaghettifunk/umbra/engine/math"
	"github.com/spaghettifunk/umbra/engine/renderer/metadata"
)

type RendererConfig struct {
	ApplicationName string
	BindingMode     metadata.BindingMode
	Validation      bool
	// ShaderDir holds the compiled .spv files.
	ShaderDir string
	// AssetDir is the root relative model paths are resolved against.
	AssetDir     string
	ClearColor   [4]float32
	MaxMaterials uint32
}

// Mesh is one draw: a slice of the shared index buffer and its material.
type Mesh struct {
	Range    MeshRange
	Material *Material
}

type Model struct {
	Name      string
	Meshes    []Mesh
	Transform *math.Transform
}

/**
 * @brief The deferred renderer. Models and lights are added first, Finalize
 * builds every GPU object the frame needs, then Render draws one frame per
 * call. Resize invalidates the swapchain and the next Finalize rebuilds it.
 */
type VulkanRenderer struct {
	FrameNumber uint64

	config  RendererConfig
	surface Surface
	context *VulkanContext
	assets  *assets.AssetManager

	textures  *TextureCache
	materials *MaterialCache
	geometry  *GeometryBuffers
	sphere    MeshRange
	models    []*Model
	lights    []metadata.Light
	// decoded holds the images of the model being loaded, decoded up front.
	decoded map[string]*metadata.ImageResourceData

	layouts   *PassLayouts
	strategy  BindingStrategy
	pool      *DescriptorPool
	shadows   *ShadowMaps
	family    *PipelineFamily
	swapchain *VulkanSwapchain
	// familySettings are the swapchain settings the pipelines were built for.
	familySettings SwapchainSettings

	imageAvailable vk.Semaphore
	renderFinished vk.Semaphore
}

// New creates the device, the caches, the pass layouts, the binding
// strategy and the swapchain.
func New(config RendererConfig, surface Surface) (*VulkanRenderer, error) {
	if config.MaxMaterials == 0 {
		config.MaxMaterials = VULKAN_MAX_MATERIAL_COUNT
	}
	context, err := NewContext(ContextConfig{
		ApplicationName: config.ApplicationName,
		Validation:      config.Validation,
	}, surface)
	if err != nil {
		return nil, err
	}
	vr := &VulkanRenderer{
		config:   config,
		surface:  surface,
		context:  context,
		assets:   assets.NewAssetManager(config.AssetDir, config.ShaderDir),
		geometry: NewGeometryBuffers(),
	}
	vr.textures = NewTextureCache(DeviceTextureFactory(context, vr.decodeTexture))
	vr.materials = NewMaterialCache(vr.textures, config.MaxMaterials)

	if err := vr.initialize(); err != nil {
		vr.Release()
		return nil, err
	}
	core.LogInfo("Vulkan renderer initialized successfully (%s, %s).", context.Device.Name, config.BindingMode)
	return vr, nil
}

func (vr *VulkanRenderer) initialize() error {
	var err error
	if vr.sphere, err = vr.geometry.Append(UnitSphereGeometry()); err != nil {
		return err
	}
	if vr.layouts, err = NewPassLayouts(vr.context); err != nil {
		return err
	}
	if vr.strategy, err = NewBindingStrategy(vr.context, vr.config.BindingMode); err != nil {
		return err
	}
	width, height := vr.surface.FramebufferSize()
	if vr.swapchain, err = NewSwapchain(vr.context, width, height); err != nil {
		return err
	}
	if vr.imageAvailable, err = vr.newSemaphore(); err != nil {
		return err
	}
	if vr.renderFinished, err = vr.newSemaphore(); err != nil {
		return err
	}
	return nil
}

func (vr *VulkanRenderer) newSemaphore() (vk.Semaphore, error) {
	createInfo := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}
	var semaphore vk.Semaphore
	if res := vk.CreateSemaphore(vr.context.Device.LogicalDevice, &createInfo, vr.context.Allocator, &semaphore); res != vk.Success {
		return nil, resultError(res, "failed to create semaphore")
	}
	return semaphore, nil
}

func (vr *VulkanRenderer) decodeTexture(path string) (*metadata.ImageResourceData, error) {
	if data, ok := vr.decoded[path]; ok {
		return data, nil
	}
	return vr.assets.LoadImage(path)
}

func (vr *VulkanRenderer) sceneBuilt() bool {
	return vr.geometry.IsFinalized()
}

/**
 * @brief Imports a model, creates its materials and textures and appends
 * its meshes to the shared geometry buffers. Every texture file is decoded
 * in parallel before the uploads, which happen one by one.
 */
func (vr *VulkanRenderer) LoadModel(path string, transform *math.Transform) (*Model, error) {
	if vr.sceneBuilt() {
		return nil, core.ResourceCreationErrorf("model '%s' loaded after Finalize", path)
	}
	data, err := vr.assets.LoadModel(path)
	if err != nil {
		return nil, err
	}
	if vr.decoded, err = vr.assets.LoadImages(assets.ModelTextures(data)); err != nil {
		return nil, err
	}
	defer func() { vr.decoded = nil }()

	if transform == nil {
		transform = math.TransformCreate()
	}
	model := &Model{Name: data.Name, Transform: transform}
	for i := range data.Meshes {
		config := &data.Meshes[i]
		material, err := vr.materials.Acquire(config.Material)
		if err != nil {
			return nil, err
		}
		r, err := vr.geometry.Append(config)
		if err != nil {
			return nil, err
		}
		model.Meshes = append(model.Meshes, Mesh{Range: r, Material: material})
	}
	vr.models = append(vr.models, model)
	core.LogInfo("Loaded model '%s': %d meshes, %d materials in total.", path, len(model.Meshes), vr.materials.Len())
	return model, nil
}

func (vr *VulkanRenderer) Models() []*Model {
	return vr.models
}

// AddLight adds a light to the scene. Lights are drawn in the order they are added.
func (vr *VulkanRenderer) AddLight(light metadata.Light) error {
	if vr.sceneBuilt() {
		return core.ResourceCreationErrorf("light added after Finalize")
	}
	if uint32(len(vr.lights)) >= MaxLights {
		return core.ResourceCreationErrorf("at most %d lights are supported", MaxLights)
	}
	if light.CastShadows {
		casters := uint32(0)
		for i := range vr.lights {
			if vr.lights[i].CastShadows {
				casters++
			}
		}
		if casters >= MaxShadowCasters {
			return core.ResourceCreationErrorf("at most %d lights can cast shadows", MaxShadowCasters)
		}
	}
	vr.lights = append(vr.lights, light)
	return nil
}

func (vr *VulkanRenderer) Lights() []metadata.Light {
	return vr.lights
}

/**
 * @brief Builds what the frame needs. The first call uploads the geometry,
 * creates the descriptor pool, materials, shadow maps and uniforms. Every
 * call rebuilds the swapchain if it was invalidated, the pipelines if the
 * surface format changed, and then the framebuffers and command buffers.
 */
func (vr *VulkanRenderer) Finalize() error {
	if !vr.sceneBuilt() {
		if err := vr.buildScene(); err != nil {
			return err
		}
	}

	if vr.swapchain.State() == SwapchainInvalidated {
		width, height := vr.surface.FramebufferSize()
		if width == 0 || height == 0 {
			core.LogDebug("Surface is %dx%d, swapchain stays invalidated.", width, height)
			return nil
		}
		if err := vr.swapchain.Recreate(width, height); err != nil {
			return err
		}
	}

	if vr.family == nil || !vr.swapchain.Settings.Compatible(vr.familySettings) {
		if vr.family != nil {
			core.LogInfo("Surface format changed, rebuilding pipelines.")
			vr.family.Destroy(vr.context)
			vr.family = nil
		}
		family, err := NewPipelineFamily(vr.context, PipelineFamilyConfig{
			Layouts:     vr.layouts,
			Strategy:    vr.strategy,
			Shaders:     vr.assets.LoadShader,
			ColorFormat: vr.swapchain.Settings.Format.Format,
			ClearColor:  vr.config.ClearColor,
		})
		if err != nil {
			return err
		}
		vr.family = family
		vr.familySettings = vr.swapchain.Settings
	}
	if err := vr.shadows.Build(vr.family.ShadowPass, vr.pool, vr.layouts.Shadow, vr.strategy.ShadowMatrices()); err != nil {
		return err
	}

	if vr.swapchain.State() != SwapchainCreated {
		return nil
	}
	if err := vr.swapchain.BuildFramebuffers(vr.family, vr.layouts.GBuffer); err != nil {
		return err
	}
	return vr.swapchain.Record(vr.recordImage)
}

func (vr *VulkanRenderer) buildScene() error {
	if err := vr.geometry.Finalize(vr.context); err != nil {
		return err
	}
	shadows, err := NewShadowMaps(vr.context, vr.lights)
	if err != nil {
		return err
	}
	vr.shadows = shadows
	vr.strategy.Reserve(sceneCounts{
		Models:  uint32(len(vr.models)),
		Shadows: shadows.Count(),
		Lights:  uint32(len(vr.lights)),
	})

	request := PoolRequest{}
	request.Add(vr.layouts.Material, uint32(vr.materials.Len()))
	shadows.RequestDescriptors(&request, vr.layouts.Shadow)
	vr.strategy.RequestDescriptors(&request)
	if request.MaxSets > 0 {
		if vr.pool, err = NewDescriptorPool(vr.context, request); err != nil {
			return err
		}
	}
	if err := vr.materials.Finalize(vr.pool, vr.layouts.Material); err != nil {
		return err
	}
	if err := vr.strategy.Build(vr.context, vr.pool); err != nil {
		return err
	}
	// Push constant recordings read the frame data, so there must be one.
	if err := vr.strategy.Update(vr.frameUniforms(&metadata.FrameData{View: mgl32.Ident4(), Projection: mgl32.Ident4()})); err != nil {
		return err
	}
	core.LogInfo("Scene built: %d models, %d lights, %d shadow maps, %d vertices, %d indices.",
		len(vr.models), len(vr.lights), shadows.Count(), vr.geometry.VertexCount(), vr.geometry.IndexCount())
	return nil
}

func (vr *VulkanRenderer) frameUniforms(frame *metadata.FrameData) *frameUniforms {
	objects := make([]mgl32.Mat4, len(vr.models))
	bounds := &sceneBounds{}
	for i, model := range vr.models {
		if i < len(frame.ModelTransforms) {
			objects[i] = frame.ModelTransforms[i]
		} else {
			objects[i] = model.Transform.GetWorld()
		}
		for _, mesh := range model.Meshes {
			bounds.extend(mesh.Range.MinExtents, mesh.Range.MaxExtents, objects[i])
		}
	}
	return buildFrameUniforms(frame, objects, vr.lights, bounds)
}

func (vr *VulkanRenderer) recordImage(rec Recorder, image int) error {
	return recordFrame(rec, &frameScene{
		family:      vr.family,
		strategy:    vr.strategy,
		geometry:    vr.geometry,
		models:      vr.models,
		lights:      vr.lights,
		shadows:     vr.shadows,
		gbuffer:     vr.swapchain.GBuffer,
		sphere:      vr.sphere,
		framebuffer: vr.swapchain.Framebuffers[image],
		extent:      vr.swapchain.Extent(),
	})
}

/**
 * @brief Draws one frame: acquire, submit, present, then wait for the queue
 * to drain. A frame requested while the swapchain is being rebuilt is
 * skipped.
 */
func (vr *VulkanRenderer) Render(frame *metadata.FrameData) error {
	if vr.swapchain.State() != SwapchainCommandBuffersRecorded {
		return nil
	}
	if err := vr.strategy.Update(vr.frameUniforms(frame)); err != nil {
		return err
	}

	image, err := vr.swapchain.AcquireNextImage(vr.imageAvailable)
	if err != nil {
		return err
	}
	if vr.strategy.RecordsPerFrame() {
		if err := vr.swapchain.RecordImage(int(image), vr.recordImage); err != nil {
			return err
		}
	}

	cb := vr.swapchain.CommandBuffers[image]
	submitInfo := vk.SubmitInfo{
		SType:                vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount:   1,
		PWaitSemaphores:      []vk.Semaphore{vr.imageAvailable},
		PWaitDstStageMask:    []vk.PipelineStageFlags{vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{cb.Handle},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{vr.renderFinished},
	}
	if res := vk.QueueSubmit(vr.context.Device.GraphicsQueue, 1, []vk.SubmitInfo{submitInfo}, nil); res != vk.Success {
		return core.SubmissionErrorf("failed to submit frame %d: %s", vr.FrameNumber, ResultString(res))
	}
	cb.UpdateSubmitted()

	if err := vr.swapchain.Present(vr.renderFinished, image); err != nil {
		return err
	}
	if res := vk.QueueWaitIdle(vr.context.Device.PresentQueue); res != vk.Success {
		return core.SubmissionErrorf("failed waiting for frame %d: %s", vr.FrameNumber, ResultString(res))
	}
	if vr.context.Device.PresentQueue != vr.context.Device.GraphicsQueue {
		if res := vk.QueueWaitIdle(vr.context.Device.GraphicsQueue); res != vk.Success {
			return core.SubmissionErrorf("failed waiting for frame %d: %s", vr.FrameNumber, ResultString(res))
		}
	}
	vr.FrameNumber++
	return nil
}

// Resize invalidates the swapchain. The next Finalize rebuilds it at the
// surface's new size.
func (vr *VulkanRenderer) Resize(width, height uint32) error {
	core.LogInfo("Vulkan renderer resized: %dx%d", width, height)
	if vr.swapchain.State() == SwapchainInvalidated {
		return nil
	}
	return vr.swapchain.Invalidate()
}

// Release destroys everything in reverse creation order.
func (vr *VulkanRenderer) Release() {
	if vr.context == nil {
		return
	}
	vr.context.WaitIdle()
	device := vr.context.Device.LogicalDevice
	for _, semaphore := range []vk.Semaphore{vr.imageAvailable, vr.renderFinished} {
		if semaphore != nil {
			vk.DestroySemaphore(device, semaphore, vr.context.Allocator)
		}
	}
	vr.imageAvailable, vr.renderFinished = nil, nil
	if vr.swapchain != nil {
		vr.swapchain.Release()
		vr.swapchain = nil
	}
	if vr.family != nil {
		vr.family.Destroy(vr.context)
		vr.family = nil
	}
	if vr.shadows != nil {
		vr.shadows.Release()
		vr.shadows = nil
	}
	if vr.pool != nil {
		vr.pool.Release()
		vr.pool = nil
	}
	if vr.strategy != nil {
		vr.strategy.Release()
		vr.strategy = nil
	}
	if vr.layouts != nil {
		vr.layouts.Release()
		vr.layouts = nil
	}
	vr.materials.Release()
	vr.textures.Release()
	vr.geometry.Release()
	vr.context.Release()
	vr.context = nil
	core.LogInfo("Vulkan renderer released.")
}
