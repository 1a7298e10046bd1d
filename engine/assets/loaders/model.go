package loaders

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/g3n/engine/loader/obj"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/umbra/engine/core"
	"github.com/spaghettifunk/umbra/engine/math"
	"github.com/spaghettifunk/umbra/engine/renderer/metadata"
)

/**
 * @brief Imports Wavefront OBJ models with their material library. Every
 * (object, material) pair becomes one mesh; faces are triangulated as fans,
 * V is flipped to a top-left origin and tangents are generated.
 */
type ModelLoader struct {
	// MaterialLibrary reads the `mtllib` a model references.
	MaterialLibrary func(path string) (*MaterialLibrary, error)
}

func (ml *ModelLoader) Load(path string, assetType metadata.ResourceType, params interface{}) (*metadata.Resource, error) {
	model, err := ml.loadOBJ(path)
	if err != nil {
		return nil, err
	}
	return &metadata.Resource{
		Name:     model.Name,
		FullPath: path,
		DataSize: uint64(len(model.Meshes)),
		Data:     model,
	}, nil
}

type meshKey struct {
	object   int
	material string
}

type cornerKey struct {
	v, uv, n int
}

type meshBuilder struct {
	config  metadata.GeometryConfig
	corners map[cornerKey]uint32
}

func (ml *ModelLoader) loadOBJ(path string) (*metadata.ModelData, error) {
	objData, err := os.ReadFile(path)
	if err != nil {
		return nil, core.WrapAssetLoad(err, "failed to read model `%s`", path)
	}
	dir := filepath.Dir(path)

	library := &MaterialLibrary{}
	if lib := findMaterialLibrary(objData); lib != "" {
		if ml.MaterialLibrary == nil {
			return nil, core.AssetLoadErrorf("model `%s` references `%s` but no material library loader is set", path, lib)
		}
		if library, err = ml.MaterialLibrary(filepath.Join(dir, filepath.FromSlash(lib))); err != nil {
			return nil, core.WrapAssetLoad(err, "failed to read material library of `%s`", path)
		}
	}

	dec, err := obj.DecodeReader(bytes.NewReader(objData), bytes.NewReader(library.Source))
	if err != nil {
		return nil, core.WrapAssetLoad(err, "failed to decode model `%s`", path)
	}
	for _, w := range dec.Warnings {
		core.LogWarn("%s: %s", path, w)
	}
	materials := library.Materials

	if len(dec.Vertices) == 0 {
		return nil, core.AssetLoadErrorf("model `%s` has no vertex positions", path)
	}
	if len(dec.Uvs) == 0 {
		return nil, core.AssetLoadErrorf("model `%s` has no texture coordinates", path)
	}

	builders := make(map[meshKey]*meshBuilder)
	var order []meshKey
	faceSerial := 0

	for oi := range dec.Objects {
		object := &dec.Objects[oi]
		for fi := range object.Faces {
			face := &object.Faces[fi]
			faceSerial++
			if len(face.Vertices) < 3 {
				continue
			}
			key := meshKey{object: oi, material: face.Material}
			b, ok := builders[key]
			if !ok {
				cfg, err := resolveMaterial(face.Material, materials, dec, dir)
				if err != nil {
					return nil, core.WrapAssetLoad(err, "model `%s`", path)
				}
				name := object.Name
				if face.Material != "" {
					name = object.Name + "/" + face.Material
				}
				b = &meshBuilder{
					config:  metadata.GeometryConfig{Name: name, Material: cfg},
					corners: make(map[cornerKey]uint32),
				}
				builders[key] = b
				order = append(order, key)
			}

			corners := make([]uint32, len(face.Vertices))
			for c := range face.Vertices {
				idx, err := b.addCorner(dec, face, c, faceSerial)
				if err != nil {
					return nil, core.WrapAssetLoad(err, "model `%s` object `%s`", path, object.Name)
				}
				corners[c] = idx
			}
			for c := 2; c < len(corners); c++ {
				b.config.Indices = append(b.config.Indices, corners[0], corners[c-1], corners[c])
			}
		}
	}

	if len(order) == 0 {
		return nil, core.AssetLoadErrorf("model `%s` has no faces", path)
	}

	model := &metadata.ModelData{
		Name:   strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Path:   path,
		Meshes: make([]metadata.GeometryConfig, 0, len(order)),
	}
	for _, key := range order {
		cfg := builders[key].config
		math.GeometryGenerateTangents(cfg.Vertices, cfg.Indices)
		cfg.ComputeExtents()
		model.Meshes = append(model.Meshes, cfg)
	}
	core.LogDebug("imported model `%s`: %d meshes, %d indices", path, len(model.Meshes), model.IndexCount())
	return model, nil
}

func (b *meshBuilder) addCorner(dec *obj.Decoder, face *obj.Face, c int, faceSerial int) (uint32, error) {
	vi := face.Vertices[c]
	if vi < 0 || vi*3+2 >= len(dec.Vertices) {
		return 0, core.AssetLoadErrorf("face references missing position %d", vi)
	}
	uvi := -1
	if c < len(face.Uvs) {
		uvi = face.Uvs[c]
	}
	if uvi < 0 || uvi*2+1 >= len(dec.Uvs) {
		return 0, core.AssetLoadErrorf("face corner has no texture coordinate")
	}
	ni := -1
	if c < len(face.Normals) {
		ni = face.Normals[c]
	}
	hasNormal := ni >= 0 && ni*3+2 < len(dec.Normals)

	key := cornerKey{v: vi, uv: uvi, n: ni}
	if !hasNormal {
		// flat normals are written per face, so corners cannot be shared
		key.n = -(faceSerial + 1)
	}
	if idx, ok := b.corners[key]; ok {
		return idx, nil
	}

	vert := math.Vertex3D{
		Position: mgl32.Vec3{dec.Vertices[vi*3], dec.Vertices[vi*3+1], dec.Vertices[vi*3+2]},
		Texcoord: mgl32.Vec2{dec.Uvs[uvi*2], 1.0 - dec.Uvs[uvi*2+1]},
	}
	if hasNormal {
		vert.Normal = mgl32.Vec3{dec.Normals[ni*3], dec.Normals[ni*3+1], dec.Normals[ni*3+2]}
	} else {
		vert.Normal = flatNormal(dec, face)
	}

	idx := uint32(len(b.config.Vertices))
	b.config.Vertices = append(b.config.Vertices, vert)
	b.corners[key] = idx
	return idx, nil
}

func flatNormal(dec *obj.Decoder, face *obj.Face) mgl32.Vec3 {
	p := func(i int) mgl32.Vec3 {
		vi := face.Vertices[i]
		return mgl32.Vec3{dec.Vertices[vi*3], dec.Vertices[vi*3+1], dec.Vertices[vi*3+2]}
	}
	n := p(1).Sub(p(0)).Cross(p(2).Sub(p(0)))
	if n.Len() < math.K_FLOAT_EPSILON {
		return mgl32.Vec3{0, 1, 0}
	}
	return n.Normalize()
}

// resolveMaterial merges the slots read from the library with the diffuse map
// the OBJ decoder found, then validates the result.
func resolveMaterial(name string, materials map[string]*metadata.MaterialConfig, dec *obj.Decoder, dir string) (metadata.MaterialConfig, error) {
	cfg := metadata.MaterialConfig{Name: name}
	if name == "" {
		cfg.Name = metadata.DefaultMaterialName
	}
	if m, ok := materials[name]; ok {
		cfg.Maps = m.Maps
	}
	if cfg.Maps[metadata.TextureSlotDiffuse] == "" {
		if m, ok := dec.Materials[name]; ok && m.MapKd != "" {
			kd := m.MapKd
			if !filepath.IsAbs(kd) {
				kd = filepath.Join(dir, filepath.FromSlash(kd))
			}
			cfg.Maps[metadata.TextureSlotDiffuse] = kd
		}
	}
	if err := validateMaterial(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func findMaterialLibrary(objData []byte) string {
	scanner := bufio.NewScanner(bytes.NewReader(objData))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "mtllib") {
			return strings.TrimSpace(strings.TrimPrefix(line, "mtllib"))
		}
	}
	return ""
}
