package assets

import (
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/spaghettifunk/umbra/engine/assets/loaders"
	"github.com/spaghettifunk/umbra/engine/core"
	"github.com/spaghettifunk/umbra/engine/renderer/metadata"
	"golang.org/x/sync/errgroup"
)

const builtinPrefix = "builtin://"

/**
 * @brief Resolves asset names to files and dispatches them to the loader
 * registered for their type. Shaders are looked up in the shader directory,
 * everything else relative to the base directory.
 */
type AssetManager struct {
	baseDir   string
	shaderDir string
	loaders   map[metadata.ResourceType]Loader

	mutex sync.RWMutex
}

func NewAssetManager(baseDir, shaderDir string) *AssetManager {
	am := &AssetManager{
		baseDir:   baseDir,
		shaderDir: shaderDir,
		loaders:   make(map[metadata.ResourceType]Loader),
	}
	// Register loaders
	am.registerLoader(metadata.ResourceTypeShader, &loaders.ShaderLoader{})
	am.registerLoader(metadata.ResourceTypeImage, &loaders.ImageLoader{})
	am.registerLoader(metadata.ResourceTypeMaterial, &loaders.MaterialLoader{})
	am.registerLoader(metadata.ResourceTypeModel, &loaders.ModelLoader{MaterialLibrary: am.LoadMaterialLibrary})
	return am
}

// Register loaders for each asset type
func (am *AssetManager) registerLoader(assetType metadata.ResourceType, loader Loader) {
	am.mutex.Lock()
	defer am.mutex.Unlock()
	am.loaders[assetType] = loader
}

func (am *AssetManager) resolve(name string, resourceType metadata.ResourceType) string {
	if filepath.IsAbs(name) {
		return name
	}
	switch resourceType {
	case metadata.ResourceTypeShader:
		if !strings.HasSuffix(name, ".spv") {
			name += ".spv"
		}
		return filepath.Join(am.shaderDir, name)
	default:
		return filepath.Join(am.baseDir, name)
	}
}

// Load an asset using the appropriate loader
func (am *AssetManager) LoadAsset(name string, resourceType metadata.ResourceType, params interface{}) (*metadata.Resource, error) {
	return am.loadFile(am.resolve(name, resourceType), resourceType, params)
}

func (am *AssetManager) loadFile(path string, resourceType metadata.ResourceType, params interface{}) (*metadata.Resource, error) {
	am.mutex.RLock()
	loader, ok := am.loaders[resourceType]
	am.mutex.RUnlock()
	if !ok {
		return nil, core.AssetLoadErrorf("no loader registered for asset type `%s`", resourceType)
	}
	return loader.Load(path, resourceType, params)
}

// LoadShader returns the SPIR-V words of a compiled shader.
func (am *AssetManager) LoadShader(name string) ([]uint32, error) {
	res, err := am.LoadAsset(name, metadata.ResourceTypeShader, nil)
	if err != nil {
		return nil, err
	}
	return res.Data.([]uint32), nil
}

func (am *AssetManager) LoadModel(name string) (*metadata.ModelData, error) {
	res, err := am.LoadAsset(name, metadata.ResourceTypeModel, nil)
	if err != nil {
		return nil, err
	}
	return res.Data.(*metadata.ModelData), nil
}

// LoadMaterialLibrary parses a material library. Model loading resolves the
// path against the model's directory before calling it.
func (am *AssetManager) LoadMaterialLibrary(path string) (*loaders.MaterialLibrary, error) {
	res, err := am.loadFile(path, metadata.ResourceTypeMaterial, nil)
	if err != nil {
		return nil, err
	}
	return res.Data.(*loaders.MaterialLibrary), nil
}

// LoadImage decodes a texture file. Paths coming from a model are already
// resolved, so they are used as they are.
func (am *AssetManager) LoadImage(path string) (*metadata.ImageResourceData, error) {
	res, err := am.loadFile(path, metadata.ResourceTypeImage, &metadata.ImageResourceParams{FlipY: false})
	if err != nil {
		return nil, err
	}
	return res.Data.(*metadata.ImageResourceData), nil
}

// LoadImages decodes every distinct path concurrently. Built-in texture
// names are skipped. The first failure is returned.
func (am *AssetManager) LoadImages(paths []string) (map[string]*metadata.ImageResourceData, error) {
	unique := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		if p == "" || strings.HasPrefix(p, builtinPrefix) {
			continue
		}
		unique[p] = struct{}{}
	}

	var mu sync.Mutex
	images := make(map[string]*metadata.ImageResourceData, len(unique))

	g := new(errgroup.Group)
	g.SetLimit(runtime.NumCPU())
	for p := range unique {
		g.Go(func() error {
			img, err := am.LoadImage(p)
			if err != nil {
				return err
			}
			mu.Lock()
			images[p] = img
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return images, nil
}

// ModelTextures lists the texture files referenced by a model, in mesh and slot order.
func ModelTextures(model *metadata.ModelData) []string {
	var out []string
	for i := range model.Meshes {
		for _, p := range model.Meshes[i].Material.Maps {
			if p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
