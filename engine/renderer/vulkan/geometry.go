package vulkan

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl32"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/umbra/engine/core"
	"github.com/spaghettifunk/umbra/engine/math"
	"github.com/spaghettifunk/umbra/engine/renderer/metadata"
)

/**
 * @brief The slice of the shared index buffer that draws one mesh. Indices
 * in the range already point at the mesh's vertices in the shared vertex
 * buffer.
 */
type MeshRange struct {
	/** @brief The Name of the geometry. */
	Name string
	/** @brief The first index of the mesh in the index buffer. */
	FirstIndex uint32
	/** @brief The index count. */
	IndexCount uint32
	/** @brief The first vertex of the mesh in the vertex buffer. */
	FirstVertex uint32
	/** @brief The vertex count. */
	VertexCount uint32

	MinExtents mgl32.Vec3
	MaxExtents mgl32.Vec3
}

/**
 * @brief Every mesh of the scene packed into one vertex buffer and one
 * 32-bit index buffer. Meshes are appended on the CPU and uploaded once on
 * Finalize.
 */
type GeometryBuffers struct {
	VertexBuffer *VulkanBuffer
	IndexBuffer  *VulkanBuffer

	vertices  []math.Vertex3D
	indices   []uint32
	ranges    []MeshRange
	finalized bool
}

func NewGeometryBuffers() *GeometryBuffers {
	return &GeometryBuffers{}
}

// Append copies a mesh into the shared arrays and returns its range.
func (g *GeometryBuffers) Append(config *metadata.GeometryConfig) (MeshRange, error) {
	if g.finalized {
		return MeshRange{}, core.ResourceCreationErrorf("geometry '%s' added after the buffers were uploaded", config.Name)
	}
	if len(config.Vertices) == 0 || len(config.Indices) == 0 {
		return MeshRange{}, core.ResourceCreationErrorf("geometry '%s' has no vertices or indices", config.Name)
	}
	if len(config.Indices)%3 != 0 {
		return MeshRange{}, core.ResourceCreationErrorf("geometry '%s' index count %d is not a triangle list", config.Name, len(config.Indices))
	}
	if uint64(len(g.vertices))+uint64(len(config.Vertices)) > gomath.MaxUint32 {
		return MeshRange{}, core.ResourceCreationErrorf("geometry '%s' overflows 32-bit indices", config.Name)
	}

	base := uint32(len(g.vertices))
	r := MeshRange{
		Name:        config.Name,
		FirstIndex:  uint32(len(g.indices)),
		IndexCount:  uint32(len(config.Indices)),
		FirstVertex: base,
		VertexCount: uint32(len(config.Vertices)),
		MinExtents:  config.MinExtents,
		MaxExtents:  config.MaxExtents,
	}
	for _, index := range config.Indices {
		if index >= r.VertexCount {
			return MeshRange{}, core.ResourceCreationErrorf("geometry '%s' index %d out of range (%d vertices)", config.Name, index, r.VertexCount)
		}
	}
	g.vertices = append(g.vertices, config.Vertices...)
	for _, index := range config.Indices {
		g.indices = append(g.indices, base+index)
	}
	g.ranges = append(g.ranges, r)
	return r, nil
}

func (g *GeometryBuffers) Ranges() []MeshRange {
	return g.ranges
}

func (g *GeometryBuffers) VertexCount() uint32 {
	return uint32(len(g.vertices))
}

func (g *GeometryBuffers) IndexCount() uint32 {
	return uint32(len(g.indices))
}

func (g *GeometryBuffers) IsFinalized() bool {
	return g.finalized
}

// Finalize uploads the packed arrays to device local buffers. Later calls are no-ops.
func (g *GeometryBuffers) Finalize(context *VulkanContext) error {
	if g.finalized {
		return nil
	}
	if len(g.vertices) == 0 {
		return core.ResourceCreationErrorf("no geometry to upload")
	}
	vertexBuffer, err := UploadBuffer(context,
		vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit),
		math.SliceBytes(g.vertices))
	if err != nil {
		return err
	}
	indexBuffer, err := UploadBuffer(context,
		vk.BufferUsageFlags(vk.BufferUsageIndexBufferBit),
		math.SliceBytes(g.indices))
	if err != nil {
		vertexBuffer.Release()
		return err
	}
	g.VertexBuffer = vertexBuffer
	g.IndexBuffer = indexBuffer
	g.finalized = true
	core.LogInfo("Uploaded %d vertices and %d indices in %d meshes.", len(g.vertices), len(g.indices), len(g.ranges))
	return nil
}

func (g *GeometryBuffers) Release() {
	if g.VertexBuffer != nil {
		g.VertexBuffer.Release()
		g.VertexBuffer = nil
	}
	if g.IndexBuffer != nil {
		g.IndexBuffer.Release()
		g.IndexBuffer = nil
	}
	g.finalized = false
}

// UnitSphereGeometry is the light volume drawn for point lights.
func UnitSphereGeometry() *metadata.GeometryConfig {
	vertices, indices := math.GenerateUVSphere(1.0, unitSphereRings, unitSphereSegments)
	config := &metadata.GeometryConfig{
		Vertices: vertices,
		Indices:  indices,
		Name:     metadata.UnitSphereGeometryName,
	}
	config.ComputeExtents()
	return config
}
