package containers

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct{ name string }

func TestCacheFirstLoadWins(t *testing.T) {
	c := NewCache[*item]()
	loads := 0
	load := func(key string) (*item, error) {
		loads++
		return &item{name: key}, nil
	}

	a, err := c.GetOrLoad("textures/brick.png", load)
	require.NoError(t, err)
	b, err := c.GetOrLoad("textures/brick.png", load)
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.Equal(t, 1, loads)
	assert.Equal(t, 1, c.Len())
}

func TestCacheDoesNotKeepFailures(t *testing.T) {
	c := NewCache[*item]()
	_, err := c.GetOrLoad("bad", func(string) (*item, error) { return nil, errors.New("boom") })
	require.Error(t, err)
	_, ok := c.Get("bad")
	assert.False(t, ok)

	v, err := c.GetOrLoad("bad", func(k string) (*item, error) { return &item{name: k}, nil })
	require.NoError(t, err)
	assert.Equal(t, "bad", v.name)
}

func TestCacheClearReleasesNewestFirst(t *testing.T) {
	c := NewCache[int]()
	for i, k := range []string{"a", "b", "c"} {
		i := i
		_, err := c.GetOrLoad(k, func(string) (int, error) { return i, nil })
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"a", "b", "c"}, c.Keys())

	var released []string
	c.Clear(func(key string, _ int) { released = append(released, key) })
	assert.Equal(t, []string{"c", "b", "a"}, released)
	assert.Zero(t, c.Len())
}
