package metadata

/**
 * @brief The result of importing a model file: one GeometryConfig per
 * submesh, in file order.
 */
type ModelData struct {
	Name   string
	Path   string
	Meshes []GeometryConfig
}

// IndexCount is the number of indices across all meshes.
func (m *ModelData) IndexCount() int {
	n := 0
	for i := range m.Meshes {
		n += len(m.Meshes[i].Indices)
	}
	return n
}
