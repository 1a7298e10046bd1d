package math

import "github.com/go-gl/mathgl/mgl32"

// GeometryGenerateNormals writes flat face normals for every triangle.
func GeometryGenerateNormals(vertices []Vertex3D, indices []uint32) {
	for i := 0; i+2 < len(indices); i += 3 {
		i0, i1, i2 := indices[i], indices[i+1], indices[i+2]

		edge1 := vertices[i1].Position.Sub(vertices[i0].Position)
		edge2 := vertices[i2].Position.Sub(vertices[i0].Position)
		normal := edge1.Cross(edge2)
		if normal.Len() > K_FLOAT_EPSILON {
			normal = normal.Normalize()
		}

		vertices[i0].Normal = normal
		vertices[i1].Normal = normal
		vertices[i2].Normal = normal
	}
}

// GeometryGenerateTangents accumulates per-triangle tangents onto the shared
// vertices, then orthonormalizes them against the normals. Tangent.W carries
// the handedness of the UV mapping.
func GeometryGenerateTangents(vertices []Vertex3D, indices []uint32) {
	tangents := make([]mgl32.Vec3, len(vertices))
	bitangents := make([]mgl32.Vec3, len(vertices))

	for i := 0; i+2 < len(indices); i += 3 {
		i0, i1, i2 := indices[i], indices[i+1], indices[i+2]

		edge1 := vertices[i1].Position.Sub(vertices[i0].Position)
		edge2 := vertices[i2].Position.Sub(vertices[i0].Position)

		deltaU1 := vertices[i1].Texcoord.X() - vertices[i0].Texcoord.X()
		deltaV1 := vertices[i1].Texcoord.Y() - vertices[i0].Texcoord.Y()
		deltaU2 := vertices[i2].Texcoord.X() - vertices[i0].Texcoord.X()
		deltaV2 := vertices[i2].Texcoord.Y() - vertices[i0].Texcoord.Y()

		dividend := deltaU1*deltaV2 - deltaU2*deltaV1
		if dividend > -K_FLOAT_EPSILON && dividend < K_FLOAT_EPSILON {
			// degenerate UVs
			continue
		}
		fc := 1.0 / dividend

		tangent := edge1.Mul(deltaV2).Sub(edge2.Mul(deltaV1)).Mul(fc)
		bitangent := edge2.Mul(deltaU1).Sub(edge1.Mul(deltaU2)).Mul(fc)

		for _, idx := range [3]uint32{i0, i1, i2} {
			tangents[idx] = tangents[idx].Add(tangent)
			bitangents[idx] = bitangents[idx].Add(bitangent)
		}
	}

	for i := range vertices {
		n := vertices[i].Normal
		t := tangents[i]
		// Gram-Schmidt
		t = t.Sub(n.Mul(n.Dot(t)))
		if t.Len() < K_FLOAT_EPSILON {
			t = fallbackTangent(n)
		} else {
			t = t.Normalize()
		}
		handedness := float32(1.0)
		if n.Cross(t).Dot(bitangents[i]) < 0 {
			handedness = -1.0
		}
		vertices[i].Tangent = t.Vec4(handedness)
	}
}

func fallbackTangent(n mgl32.Vec3) mgl32.Vec3 {
	axis := mgl32.Vec3{1, 0, 0}
	if n.X() > 0.9 || n.X() < -0.9 {
		axis = mgl32.Vec3{0, 1, 0}
	}
	t := axis.Sub(n.Mul(n.Dot(axis)))
	if t.Len() < K_FLOAT_EPSILON {
		return axis
	}
	return t.Normalize()
}

// GenerateUVSphere builds a sphere of the given radius around the origin, with
// counter-clockwise outward facing triangles.
func GenerateUVSphere(radius float32, rings, segments int) ([]Vertex3D, []uint32) {
	if rings < 2 {
		rings = 2
	}
	if segments < 3 {
		segments = 3
	}
	vertices := make([]Vertex3D, 0, (rings+1)*(segments+1))
	for r := 0; r <= rings; r++ {
		v := float32(r) / float32(rings)
		phi := v * mgl32.DegToRad(180)
		for s := 0; s <= segments; s++ {
			u := float32(s) / float32(segments)
			theta := u * mgl32.DegToRad(360)
			n := mgl32.Vec3{
				sin(phi) * cos(theta),
				cos(phi),
				sin(phi) * sin(theta),
			}
			vertices = append(vertices, Vertex3D{
				Position: n.Mul(radius),
				Normal:   n,
				Texcoord: mgl32.Vec2{u, v},
				Tangent:  mgl32.Vec4{-sin(theta), 0, cos(theta), 1},
			})
		}
	}

	indices := make([]uint32, 0, rings*segments*6)
	stride := uint32(segments + 1)
	for r := uint32(0); r < uint32(rings); r++ {
		for s := uint32(0); s < uint32(segments); s++ {
			a := r*stride + s
			b := a + stride
			indices = append(indices, a, a+1, b, b, a+1, b+1)
		}
	}
	return vertices, indices
}
