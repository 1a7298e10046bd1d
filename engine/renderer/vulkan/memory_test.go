package vulkan

import (
	"testing"

	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/umbra/engine/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryProperties(flags ...vk.MemoryPropertyFlagBits) *vk.PhysicalDeviceMemoryProperties {
	props := &vk.PhysicalDeviceMemoryProperties{MemoryTypeCount: uint32(len(flags))}
	for i, f := range flags {
		props.MemoryTypes[i] = vk.MemoryType{PropertyFlags: vk.MemoryPropertyFlags(f)}
	}
	return props
}

func TestFindMemoryTypePicksFirstSuperset(t *testing.T) {
	props := memoryProperties(
		vk.MemoryPropertyDeviceLocalBit,
		vk.MemoryPropertyHostVisibleBit,
		vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit,
		vk.MemoryPropertyDeviceLocalBit|vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit,
	)
	all := uint32(0xF)

	cases := []struct {
		name     string
		typeBits uint32
		required vk.MemoryPropertyFlags
		want     uint32
	}{
		{"device local", all, vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit), 0},
		{"host visible", all, vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit), 1},
		{"host coherent", all, hostVisibleCoherent, 2},
		{"no flags", all, 0, 0},
		{"type bits skip earlier match", 0x8, hostVisibleCoherent, 3},
		{"device local and host visible", all, vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit | vk.MemoryPropertyHostVisibleBit), 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := FindMemoryType(props, tc.typeBits, tc.required)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestFindMemoryTypeFailsWithoutMatch(t *testing.T) {
	props := memoryProperties(vk.MemoryPropertyDeviceLocalBit, vk.MemoryPropertyHostVisibleBit)

	_, err := FindMemoryType(props, 0x3, vk.MemoryPropertyFlags(vk.MemoryPropertyHostCachedBit))
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrResourceCreation))

	// The only matching type is excluded by the type bits.
	_, err = FindMemoryType(props, 0x1, vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit))
	assert.True(t, errors.Is(err, core.ErrResourceCreation))

	// Types beyond the reported count are ignored.
	props.MemoryTypes[2] = vk.MemoryType{PropertyFlags: vk.MemoryPropertyFlags(vk.MemoryPropertyHostCachedBit)}
	_, err = FindMemoryType(props, 0x7, vk.MemoryPropertyFlags(vk.MemoryPropertyHostCachedBit))
	assert.True(t, errors.Is(err, core.ErrResourceCreation))
}

func TestBufferWriteRequiresHostVisibleMemory(t *testing.T) {
	deviceLocal := &VulkanBuffer{
		Size:        64,
		MemoryFlags: vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
	}
	assert.False(t, deviceLocal.HostVisible())

	err := deviceLocal.Write(0, make([]byte, 16))
	assert.True(t, errors.Is(err, core.ErrResourceCreation), "got %v", err)
	err = deviceLocal.Map()
	assert.True(t, errors.Is(err, core.ErrResourceCreation), "got %v", err)

	hostVisible := &VulkanBuffer{Size: 64, MemoryFlags: hostVisibleCoherent}
	assert.True(t, hostVisible.HostVisible())
	// Overflow is rejected before the memory is touched.
	err = hostVisible.Write(60, make([]byte, 16))
	assert.True(t, errors.Is(err, core.ErrResourceCreation), "got %v", err)
}
