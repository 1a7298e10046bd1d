package vulkan

import (
	"testing"

	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/umbra/engine/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDynamicOffsetAddressing(t *testing.T) {
	const instances = 10
	for _, alignment := range []uint64{1, 16, 64, 100, 256} {
		arena := NewUniformArena(alignment)
		region := arena.AddRegion("objects", matrixSize, instances)

		wantStride := (matrixSize + alignment - 1) / alignment * alignment
		assert.Equal(t, vk.DeviceSize(wantStride), region.Stride, "alignment %d", alignment)
		for i := uint32(0); i < instances; i++ {
			assert.Equal(t, uint32(uint64(i)*wantStride), region.Offset(i))
			assert.Zero(t, region.Offset(i)%uint32(alignment))
		}
		assert.Equal(t, vk.DeviceSize(wantStride*instances), region.Size())
	}
}

func TestUniformArenaRegionsAreAligned(t *testing.T) {
	arena := NewUniformArena(256)
	camera := arena.AddRegion("camera", cameraUniformSize, 1)
	objects := arena.AddRegion("objects", matrixSize, 3)
	lights := arena.AddRegion("lights", lightUniformSize, 2)
	empty := arena.AddRegion("shadow-matrices", matrixSize, 0)

	assert.Equal(t, vk.DeviceSize(0), camera.Base)
	assert.Equal(t, vk.DeviceSize(256), objects.Base)
	assert.Equal(t, vk.DeviceSize(256+3*256), lights.Base)
	assert.Equal(t, uint32(1), empty.Count)
	assert.Equal(t, empty.Base+empty.Size(), arena.Size())
	assert.Len(t, arena.Regions(), 4)
	for _, r := range arena.Regions() {
		assert.Zero(t, r.Base%256, r.Name)
	}
}

func TestDynamicRegionWriteChecks(t *testing.T) {
	arena := NewUniformArena(64)
	region := arena.AddRegion("objects", matrixSize, 2)

	err := region.Write(2, make([]byte, matrixSize))
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrResourceCreation))

	err = region.Write(0, make([]byte, matrixSize+1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "do not fit")

	err = region.Write(0, make([]byte, matrixSize))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not allocated")
}
