package loaders

import (
	"io"
	"os"

	"github.com/spaghettifunk/umbra/engine/core"
)

func readBinaryFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, core.WrapAssetLoad(err, "failed to open `%s`", path)
	}
	defer f.Close()

	buf, err := io.ReadAll(f)
	if err != nil {
		return nil, core.WrapAssetLoad(err, "failed to read `%s`", path)
	}
	return buf, nil
}

// bytesToBytecode packs little endian SPIR-V words.
func bytesToBytecode(b []byte) []uint32 {
	byteCode := make([]uint32, len(b)/4)
	for i := 0; i < len(byteCode); i++ {
		byteIndex := i * 4
		byteCode[i] = 0
		byteCode[i] |= uint32(b[byteIndex])
		byteCode[i] |= uint32(b[byteIndex+1]) << 8
		byteCode[i] |= uint32(b[byteIndex+2]) << 16
		byteCode[i] |= uint32(b[byteIndex+3]) << 24
	}

	return byteCode
}
