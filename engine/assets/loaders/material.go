package loaders

import (
	"bufio"
	"bytes"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spaghettifunk/umbra/engine/core"
	"github.com/spaghettifunk/umbra/engine/renderer/metadata"
)

// mtlSlots maps material library statements to texture slots.
var mtlSlots = map[string]metadata.TextureSlot{
	"map_kd":   metadata.TextureSlotDiffuse,
	"map_bump": metadata.TextureSlotNormal,
	"bump":     metadata.TextureSlotNormal,
	"norm":     metadata.TextureSlotNormal,
	"map_kn":   metadata.TextureSlotNormal,
	"map_ka":   metadata.TextureSlotOcclusion,
	"map_ao":   metadata.TextureSlotOcclusion,
	"map_pm":   metadata.TextureSlotMetallic,
	"map_pr":   metadata.TextureSlotRoughness,
}

/**
 * @brief A parsed Wavefront material library. Source keeps the raw text for
 * decoders that read the library themselves.
 */
type MaterialLibrary struct {
	Path      string
	Source    []byte
	Materials map[string]*metadata.MaterialConfig
}

/**
 * @brief Reads the texture maps of a Wavefront material library. Texture
 * paths are resolved against the directory of the library.
 */
type MaterialLoader struct{}

func (ml *MaterialLoader) Load(path string, assetType metadata.ResourceType, params interface{}) (*metadata.Resource, error) {
	source, err := readBinaryFile(path)
	if err != nil {
		return nil, err
	}
	materials, err := parseMTL(bytes.NewReader(source), filepath.Dir(path))
	if err != nil {
		return nil, core.WrapAssetLoad(err, "failed to parse material library `%s`", path)
	}
	return &metadata.Resource{
		Name:     filepath.Base(path),
		FullPath: path,
		DataSize: uint64(len(source)),
		Data:     &MaterialLibrary{Path: path, Source: source, Materials: materials},
	}, nil
}

func parseMTL(r io.Reader, baseDir string) (map[string]*metadata.MaterialConfig, error) {
	scanner := bufio.NewScanner(r)
	materials := make(map[string]*metadata.MaterialConfig)
	var current *metadata.MaterialConfig

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		// Skip comments and empty lines
		if strings.HasPrefix(line, "#") || line == "" {
			continue
		}

		fields := strings.Fields(line)
		key := strings.ToLower(fields[0])

		if key == "newmtl" {
			name := strings.TrimSpace(strings.TrimPrefix(line, fields[0]))
			if name == "" {
				name = uuid.NewString()
				core.LogWarn("material library line %d declares a material without a name, using `%s`", lineNo, name)
			}
			current = &metadata.MaterialConfig{Name: name}
			materials[name] = current
			continue
		}

		slot, ok := mtlSlots[key]
		if !ok {
			continue
		}
		if current == nil {
			return nil, core.AssetLoadErrorf("line %d: `%s` outside of a material", lineNo, fields[0])
		}
		if len(fields) < 2 {
			return nil, core.AssetLoadErrorf("line %d: `%s` without a texture file", lineNo, fields[0])
		}
		// options such as `-bm 1.0` precede the file name
		texture := fields[len(fields)-1]
		if !filepath.IsAbs(texture) {
			texture = filepath.Join(baseDir, filepath.FromSlash(texture))
		}
		current.Maps[slot] = texture
	}
	if err := scanner.Err(); err != nil {
		return nil, core.WrapAssetLoad(err, "failed to scan material library")
	}
	return materials, nil
}

// validateMaterial checks that every required slot has a texture.
func validateMaterial(material *metadata.MaterialConfig) error {
	if material.Name == "" {
		return core.AssetLoadErrorf("material name is required")
	}
	for slot := metadata.TextureSlot(0); slot < metadata.TextureSlotCount; slot++ {
		if slot.Required() && material.Maps[slot] == "" {
			return core.AssetLoadErrorf("material `%s` has no %s texture", material.Name, slot)
		}
	}
	return nil
}
