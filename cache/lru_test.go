// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package cache

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLRU(t *testing.T) {
	_, err := NewLRU(0)
	assert.Error(t, err)
}

func TestGetOrLoad(t *testing.T) {
	c, err := NewLRU(2)
	require.NoError(t, err)

	loads := 0
	loader := func(key any) (any, error) {
		loads++
		return key.(uint64) * 10, nil
	}

	for range 3 {
		v, err := c.GetOrLoad(uint64(1), loader)
		require.NoError(t, err)
		assert.Equal(t, uint64(10), v)
	}
	assert.Equal(t, 1, loads)

	_, _ = c.GetOrLoad(uint64(2), loader)
	_, _ = c.GetOrLoad(uint64(3), loader)
	// 1 was evicted
	_, _ = c.GetOrLoad(uint64(1), loader)
	assert.Equal(t, 4, loads)

	boom := errors.New("boom")
	_, err = c.GetOrLoad(uint64(9), func(any) (any, error) { return nil, boom })
	assert.Equal(t, boom, err)
	assert.False(t, c.Contains(uint64(9)))

	changed, hit, miss := c.Stats().Stats()
	assert.True(t, changed)
	assert.Equal(t, int64(2), hit)
	assert.Equal(t, int64(5), miss)
}

func TestStats(t *testing.T) {
	cs := &Stats{}
	cs.Hit()
	cs.Miss()
	_, hit, miss := cs.Stats()
	assert.Equal(t, int64(1), hit)
	assert.Equal(t, int64(1), miss)

	changed, _, _ := cs.Stats()
	assert.False(t, changed)

	cs.Hit()
	cs.Miss()
	assert.Equal(t, int64(3), cs.Hit())

	changed, hit, miss = cs.Stats()
	assert.Equal(t, int64(3), hit)
	assert.Equal(t, int64(2), miss)
	assert.True(t, changed)
}
