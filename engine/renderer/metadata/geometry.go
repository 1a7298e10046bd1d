package metadata

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/umbra/engine/math"
)

/** @brief The name of the built-in light volume geometry. */
const UnitSphereGeometryName string = "builtin://unit-sphere"

/**
 * @brief Represents the CPU-side configuration of one indexed triangle list,
 * as produced by the model importer.
 */
type GeometryConfig struct {
	/** @brief An array of Vertices. */
	Vertices []math.Vertex3D
	/** @brief An array of Indices, local to Vertices. */
	Indices []uint32

	MinExtents mgl32.Vec3
	MaxExtents mgl32.Vec3

	/** @brief The Name of the geometry. */
	Name string
	/** @brief The material used by the geometry. */
	Material MaterialConfig
}

// ComputeExtents fills MinExtents and MaxExtents from the vertex positions.
func (g *GeometryConfig) ComputeExtents() {
	if len(g.Vertices) == 0 {
		g.MinExtents, g.MaxExtents = mgl32.Vec3{}, mgl32.Vec3{}
		return
	}
	g.MinExtents = g.Vertices[0].Position
	g.MaxExtents = g.Vertices[0].Position
	for _, v := range g.Vertices[1:] {
		for i := 0; i < 3; i++ {
			if v.Position[i] < g.MinExtents[i] {
				g.MinExtents[i] = v.Position[i]
			}
			if v.Position[i] > g.MaxExtents[i] {
				g.MaxExtents[i] = v.Position[i]
			}
		}
	}
}
