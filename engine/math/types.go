package math

import (
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

const K_FLOAT_EPSILON float32 = 1.192092896e-07

/**
 * @brief Represents a single vertex in 3D space. The field order is the
 * vertex input layout of the geometry and shadow pipelines.
 */
type Vertex3D struct {
	/** @brief The position of the vertex */
	Position mgl32.Vec3
	/** @brief The normal of the vertex. */
	Normal mgl32.Vec3
	/** @brief The texture coordinate of the vertex. */
	Texcoord mgl32.Vec2
	/** @brief The tangent of the vertex, w holds the bitangent handedness. */
	Tangent mgl32.Vec4
}

// Vertex3DSize is the stride of one Vertex3D in a vertex buffer.
const Vertex3DSize = uint32(unsafe.Sizeof(Vertex3D{}))

// Vertex3DOffsets are the byte offsets of Position, Normal, Texcoord and Tangent.
var Vertex3DOffsets = [4]uint32{
	uint32(unsafe.Offsetof(Vertex3D{}.Position)),
	uint32(unsafe.Offsetof(Vertex3D{}.Normal)),
	uint32(unsafe.Offsetof(Vertex3D{}.Texcoord)),
	uint32(unsafe.Offsetof(Vertex3D{}.Tangent)),
}
