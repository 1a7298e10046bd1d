package math

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClamp(t *testing.T) {
	assert.Equal(t, uint32(2), Clamp(uint32(1), 2, 8))
	assert.Equal(t, uint32(8), Clamp(uint32(20), 2, 8))
	assert.Equal(t, float32(0.5), Clamp(float32(0.5), 0, 1))
}

func TestAlignUp(t *testing.T) {
	assert.Equal(t, uint64(64), AlignUp(uint64(64), 64))
	assert.Equal(t, uint64(256), AlignUp(uint64(64), 256))
	assert.Equal(t, uint64(128), AlignUp(uint64(80), 64))
	assert.Equal(t, uint64(80), AlignUp(uint64(80), 0))
}

func TestVertexLayout(t *testing.T) {
	assert.Equal(t, uint32(48), Vertex3DSize)
	assert.Equal(t, [4]uint32{0, 12, 24, 32}, Vertex3DOffsets)
}

func TestBytesViews(t *testing.T) {
	m := mgl32.Ident4()
	assert.Len(t, Bytes(&m), 64)

	vs := make([]Vertex3D, 3)
	assert.Len(t, SliceBytes(vs), 3*48)
	assert.Nil(t, SliceBytes([]uint32{}))
}

func TestVulkanClipFlipsYAndHalvesDepth(t *testing.T) {
	p := VulkanClip.Mul4x1(mgl32.Vec4{0, 1, -1, 1})
	assert.InDelta(t, -1, p.Y(), 1e-6)
	assert.InDelta(t, 0, p.Z()/p.W(), 1e-6)

	p = VulkanClip.Mul4x1(mgl32.Vec4{0, 0, 1, 1})
	assert.InDelta(t, 1, p.Z()/p.W(), 1e-6)
}

func TestPerspectiveDepthRange(t *testing.T) {
	proj := Perspective(60, 1, 0.1, 100)
	near := proj.Mul4x1(mgl32.Vec4{0, 0, -0.1, 1})
	far := proj.Mul4x1(mgl32.Vec4{0, 0, -100, 1})
	assert.InDelta(t, 0, near.Z()/near.W(), 1e-4)
	assert.InDelta(t, 1, far.Z()/far.W(), 1e-4)
}

func TestLookAtParallelUp(t *testing.T) {
	view := LookAt(mgl32.Vec3{0, 10, 0}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	for _, v := range view {
		assert.False(t, v != v, "NaN in view matrix")
	}
	origin := view.Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	assert.InDelta(t, -10, origin.Z(), 1e-4)
}

func TestTransformWorld(t *testing.T) {
	parent := TransformFromPosition(mgl32.Vec3{1, 0, 0})
	child := TransformCreate()
	child.SetScale(mgl32.Vec3{2, 2, 2})
	child.Translate(mgl32.Vec3{0, 1, 0})
	child.Parent = parent

	p := child.GetWorld().Mul4x1(mgl32.Vec4{1, 0, 0, 1})
	assert.InDelta(t, 3, p.X(), 1e-5)
	assert.InDelta(t, 1, p.Y(), 1e-5)
	assert.False(t, child.IsDirty)

	var none *Transform
	assert.Equal(t, mgl32.Ident4(), none.GetWorld())
}

func TestTransformFromEuler(t *testing.T) {
	tr := TransformFromEuler(mgl32.Vec3{}, mgl32.Vec3{0, 90, 0}, mgl32.Vec3{1, 1, 1})
	p := tr.GetLocal().Mul4x1(mgl32.Vec4{1, 0, 0, 1})
	assert.InDelta(t, 0, p.X(), 1e-5)
	assert.InDelta(t, -1, p.Z(), 1e-5)
}

func TestGenerateTangents(t *testing.T) {
	vertices := []Vertex3D{
		{Position: mgl32.Vec3{0, 0, 0}, Normal: mgl32.Vec3{0, 0, 1}, Texcoord: mgl32.Vec2{0, 0}},
		{Position: mgl32.Vec3{1, 0, 0}, Normal: mgl32.Vec3{0, 0, 1}, Texcoord: mgl32.Vec2{1, 0}},
		{Position: mgl32.Vec3{0, 1, 0}, Normal: mgl32.Vec3{0, 0, 1}, Texcoord: mgl32.Vec2{0, 1}},
	}
	GeometryGenerateTangents(vertices, []uint32{0, 1, 2})
	for _, v := range vertices {
		assert.InDelta(t, 1, v.Tangent.X(), 1e-5)
		assert.InDelta(t, 0, v.Tangent.Y(), 1e-5)
		assert.Equal(t, float32(1), v.Tangent.W())
	}

	// mirrored V flips handedness
	vertices[2].Texcoord = mgl32.Vec2{0, -1}
	GeometryGenerateTangents(vertices, []uint32{0, 1, 2})
	assert.Equal(t, float32(-1), vertices[0].Tangent.W())
}

func TestGenerateTangentsDegenerateUV(t *testing.T) {
	vertices := []Vertex3D{
		{Position: mgl32.Vec3{0, 0, 0}, Normal: mgl32.Vec3{0, 1, 0}},
		{Position: mgl32.Vec3{1, 0, 0}, Normal: mgl32.Vec3{0, 1, 0}},
		{Position: mgl32.Vec3{0, 0, 1}, Normal: mgl32.Vec3{0, 1, 0}},
	}
	GeometryGenerateTangents(vertices, []uint32{0, 1, 2})
	for _, v := range vertices {
		assert.InDelta(t, 1, v.Tangent.Vec3().Len(), 1e-5)
		assert.InDelta(t, 0, v.Tangent.Vec3().Dot(v.Normal), 1e-5)
	}
}

func TestGenerateNormals(t *testing.T) {
	vertices := []Vertex3D{
		{Position: mgl32.Vec3{0, 0, 0}},
		{Position: mgl32.Vec3{1, 0, 0}},
		{Position: mgl32.Vec3{0, 1, 0}},
	}
	GeometryGenerateNormals(vertices, []uint32{0, 1, 2})
	assert.InDelta(t, 1, vertices[1].Normal.Z(), 1e-6)
}

func TestUVSphere(t *testing.T) {
	vertices, indices := GenerateUVSphere(1, 8, 12)
	require.Len(t, vertices, 9*13)
	require.Len(t, indices, 8*12*6)
	for _, v := range vertices {
		assert.InDelta(t, 1, v.Position.Len(), 1e-5)
	}
	for _, i := range indices {
		assert.Less(t, i, uint32(len(vertices)))
	}

	// triangles on the equator face outwards
	i := (4*12 + 0) * 6
	a, b, c := vertices[indices[i]].Position, vertices[indices[i+1]].Position, vertices[indices[i+2]].Position
	n := b.Sub(a).Cross(c.Sub(a))
	assert.Greater(t, n.Dot(a), float32(0))
}
