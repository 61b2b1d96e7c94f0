package cache

import (
	"github.com/ethereum/go-ethereum/common"
	lru "github.com/hashicorp/golang-lru"

	"github.com/bnb-chain/blob-store/types"
)

type Cache interface {
	Get(key common.Hash) (interface{}, bool)
	Set(key common.Hash, value interface{})
	Remove(key common.Hash)
	Len() int
}

const DefaultCacheSize = 100

var _ Cache = (*LocalCache)(nil)

type LocalCache struct {
	*lru.Cache
}

func NewLocalCache(size int) (*LocalCache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &LocalCache{
		cache,
	}, nil
}

func (c *LocalCache) Get(key common.Hash) (interface{}, bool) {
	return c.Cache.Get(key)
}

func (c *LocalCache) Set(key common.Hash, value interface{}) {
	c.Cache.Add(key, value)
}

func (c *LocalCache) Remove(key common.Hash) {
	c.Cache.Remove(key)
}

// SetIfAbsent adds the value unless key is already cached, reporting whether it was present.
func (c *LocalCache) SetIfAbsent(key common.Hash, value interface{}) bool {
	ok, _ := c.Cache.ContainsOrAdd(key, value)
	return ok
}

// SidecarCache is a most-recently-used cache of decoded sidecars keyed by transaction hash.
type SidecarCache struct {
	local *LocalCache
}

func NewSidecarCache(size int) (*SidecarCache, error) {
	local, err := NewLocalCache(size)
	if err != nil {
		return nil, err
	}
	return &SidecarCache{local: local}, nil
}

func (c *SidecarCache) Get(txHash common.Hash) (*types.Sidecar, bool) {
	v, ok := c.local.Get(txHash)
	if !ok {
		return nil, false
	}
	return v.(*types.Sidecar), true
}

func (c *SidecarCache) Set(txHash common.Hash, sc *types.Sidecar) {
	c.local.Set(txHash, sc)
}

// SetIfAbsent caches sc unless an entry for txHash already exists.
func (c *SidecarCache) SetIfAbsent(txHash common.Hash, sc *types.Sidecar) bool {
	return c.local.SetIfAbsent(txHash, sc)
}

func (c *SidecarCache) Remove(txHash common.Hash) {
	c.local.Remove(txHash)
}

func (c *SidecarCache) Len() int {
	return c.local.Len()
}

// Range calls fn for every cached sidecar until fn returns false. The iteration
// works on a snapshot of the keys, entries evicted meanwhile are skipped.
func (c *SidecarCache) Range(fn func(txHash common.Hash, sc *types.Sidecar) bool) {
	for _, key := range c.local.Keys() {
		v, ok := c.local.Peek(key)
		if !ok {
			continue
		}
		if !fn(key.(common.Hash), v.(*types.Sidecar)) {
			return
		}
	}
}

// HashIndex maps blob versioned hashes to the transaction hash owning the blob.
type HashIndex struct {
	local *LocalCache
}

func NewHashIndex(size int) (*HashIndex, error) {
	local, err := NewLocalCache(size)
	if err != nil {
		return nil, err
	}
	return &HashIndex{local: local}, nil
}

func (c *HashIndex) Get(versionedHash common.Hash) (common.Hash, bool) {
	v, ok := c.local.Get(versionedHash)
	if !ok {
		return common.Hash{}, false
	}
	return v.(common.Hash), true
}

func (c *HashIndex) Set(versionedHash, txHash common.Hash) {
	c.local.Set(versionedHash, txHash)
}

func (c *HashIndex) Remove(versionedHash common.Hash) {
	c.local.Remove(versionedHash)
}

func (c *HashIndex) Len() int {
	return c.local.Len()
}
