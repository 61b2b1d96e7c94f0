package cache

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/bnb-chain/blob-store/types"
)

func TestSidecarCacheEviction(t *testing.T) {
	c, err := NewSidecarCache(2)
	require.NoError(t, err)

	a, b, d := common.HexToHash("0x01"), common.HexToHash("0x02"), common.HexToHash("0x03")
	c.Set(a, &types.Sidecar{})
	c.Set(b, &types.Sidecar{})
	_, ok := c.Get(a) // a becomes most recently used
	require.True(t, ok)
	c.Set(d, &types.Sidecar{})

	require.Equal(t, 2, c.Len())
	_, ok = c.Get(b)
	require.False(t, ok)
	_, ok = c.Get(a)
	require.True(t, ok)

	c.Remove(a)
	_, ok = c.Get(a)
	require.False(t, ok)
}

func TestSidecarCacheSetIfAbsent(t *testing.T) {
	c, err := NewSidecarCache(4)
	require.NoError(t, err)

	tx := common.HexToHash("0x01")
	first := &types.Sidecar{Version: types.SidecarVersion0}
	second := &types.Sidecar{Version: types.SidecarVersion1}

	require.False(t, c.SetIfAbsent(tx, first))
	require.True(t, c.SetIfAbsent(tx, second))
	got, ok := c.Get(tx)
	require.True(t, ok)
	require.Same(t, first, got)
}

func TestSidecarCacheRange(t *testing.T) {
	c, err := NewSidecarCache(8)
	require.NoError(t, err)
	for i := byte(1); i <= 5; i++ {
		c.Set(common.BytesToHash([]byte{i}), &types.Sidecar{Version: i})
	}

	seen := make(map[common.Hash]byte)
	c.Range(func(txHash common.Hash, sc *types.Sidecar) bool {
		seen[txHash] = sc.Version
		return true
	})
	require.Len(t, seen, 5)
	require.Equal(t, byte(3), seen[common.BytesToHash([]byte{3})])

	visited := 0
	c.Range(func(common.Hash, *types.Sidecar) bool {
		visited++
		return visited < 2
	})
	require.Equal(t, 2, visited)
}

func TestHashIndex(t *testing.T) {
	idx, err := NewHashIndex(0)
	require.NoError(t, err)

	vh, tx := common.HexToHash("0x0101"), common.HexToHash("0xaa")
	_, ok := idx.Get(vh)
	require.False(t, ok)

	idx.Set(vh, tx)
	got, ok := idx.Get(vh)
	require.True(t, ok)
	require.Equal(t, tx, got)
	require.Equal(t, 1, idx.Len())

	idx.Remove(vh)
	require.Equal(t, 0, idx.Len())
}
