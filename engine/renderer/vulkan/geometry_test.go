package vulkan

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/umbra/engine/core"
	"github.com/spaghettifunk/umbra/engine/math"
	"github.com/spaghettifunk/umbra/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quad(name string, offset float32) *metadata.GeometryConfig {
	config := &metadata.GeometryConfig{
		Name: name,
		Vertices: []math.Vertex3D{
			{Position: mgl32.Vec3{offset, 0, 0}},
			{Position: mgl32.Vec3{offset + 1, 0, 0}},
			{Position: mgl32.Vec3{offset + 1, 1, 0}},
			{Position: mgl32.Vec3{offset, 1, 0}},
		},
		Indices: []uint32{0, 1, 2, 2, 3, 0},
	}
	config.ComputeExtents()
	return config
}

func TestGeometryRangesPartitionIndices(t *testing.T) {
	g := NewGeometryBuffers()

	// First model: two meshes. Second model: three meshes.
	models := [][]*metadata.GeometryConfig{
		{quad("a0", 0), quad("a1", 2)},
		{quad("b0", 4), quad("b1", 6), quad("b2", 8)},
	}
	var perModel [][]MeshRange
	for _, meshes := range models {
		var ranges []MeshRange
		for _, m := range meshes {
			r, err := g.Append(m)
			require.NoError(t, err)
			ranges = append(ranges, r)
		}
		perModel = append(perModel, ranges)
	}

	covered := make([]int, g.IndexCount())
	for m, ranges := range perModel {
		require.Len(t, ranges, len(models[m]))
		appended := uint32(0)
		for i, r := range ranges {
			assert.Equal(t, uint32(len(models[m][i].Indices)), r.IndexCount)
			appended += r.IndexCount
			for j := r.FirstIndex; j < r.FirstIndex+r.IndexCount; j++ {
				covered[j]++
			}
		}
		assert.Equal(t, uint32(len(models[m]))*6, appended)
	}
	for i, n := range covered {
		assert.Equal(t, 1, n, "index %d", i)
	}
	assert.Len(t, g.Ranges(), 5)
	assert.Equal(t, uint32(20), g.VertexCount())
}

func TestGeometryIndicesAreRebased(t *testing.T) {
	g := NewGeometryBuffers()
	_, err := g.Append(quad("first", 0))
	require.NoError(t, err)
	r, err := g.Append(quad("second", 2))
	require.NoError(t, err)

	assert.Equal(t, uint32(4), r.FirstVertex)
	assert.Equal(t, uint32(6), r.FirstIndex)
	assert.Equal(t, []uint32{4, 5, 6, 6, 7, 4}, g.indices[r.FirstIndex:r.FirstIndex+r.IndexCount])
	assert.Equal(t, mgl32.Vec3{2, 0, 0}, r.MinExtents)
	assert.Equal(t, mgl32.Vec3{3, 1, 0}, r.MaxExtents)
}

func TestGeometryAppendRejectsBadMeshes(t *testing.T) {
	g := NewGeometryBuffers()

	_, err := g.Append(&metadata.GeometryConfig{Name: "empty"})
	assert.True(t, errors.Is(err, core.ErrResourceCreation))

	bad := quad("strip", 0)
	bad.Indices = bad.Indices[:4]
	_, err = g.Append(bad)
	assert.Error(t, err)

	outOfRange := quad("oob", 0)
	outOfRange.Indices[2] = 4
	_, err = g.Append(outOfRange)
	assert.Error(t, err)

	assert.Zero(t, g.VertexCount())
	assert.Zero(t, g.IndexCount())
}

func TestGeometryAppendAfterFinalizeFails(t *testing.T) {
	g := NewGeometryBuffers()
	_, err := g.Append(quad("a", 0))
	require.NoError(t, err)
	g.finalized = true

	_, err = g.Append(quad("b", 0))
	assert.True(t, errors.Is(err, core.ErrResourceCreation))
	assert.Len(t, g.Ranges(), 1)
}

func TestUnitSphereGeometry(t *testing.T) {
	sphere := UnitSphereGeometry()
	assert.Equal(t, metadata.UnitSphereGeometryName, sphere.Name)
	assert.NotEmpty(t, sphere.Vertices)
	assert.Zero(t, len(sphere.Indices)%3)
	for _, v := range sphere.Vertices {
		assert.InDelta(t, 1.0, v.Position.Len(), 1e-4)
	}
	assert.InDelta(t, -1.0, sphere.MinExtents.Y(), 1e-4)
	assert.InDelta(t, 1.0, sphere.MaxExtents.Y(), 1e-4)
}
