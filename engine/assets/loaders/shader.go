package loaders

import (
	"github.com/spaghettifunk/umbra/engine/core"
	"github.com/spaghettifunk/umbra/engine/renderer/metadata"
)

// SPIRVMagic is the first word of every SPIR-V module.
const SPIRVMagic uint32 = 0x07230203

/**
 * @brief Loads compiled SPIR-V shader binaries. The resource data is the
 * bytecode as 32-bit words.
 */
type ShaderLoader struct{}

func (sl *ShaderLoader) Load(path string, assetType metadata.ResourceType, params interface{}) (*metadata.Resource, error) {
	data, err := readBinaryFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, core.AssetLoadErrorf("shader binary `%s` is empty", path)
	}
	if len(data)%4 != 0 {
		return nil, core.AssetLoadErrorf("shader binary `%s` has a size of %d bytes, not a multiple of 4", path, len(data))
	}
	code := bytesToBytecode(data)
	if code[0] != SPIRVMagic {
		return nil, core.AssetLoadErrorf("shader binary `%s` is not SPIR-V (magic %#08x)", path, code[0])
	}
	return &metadata.Resource{
		Name:     path,
		FullPath: path,
		DataSize: uint64(len(data)),
		Data:     code,
	}, nil
}
