package blobstore

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/bnb-chain/blob-store/types"
)

// MemoryStore keeps all sidecars in a map guarded by a single lock.
type MemoryStore struct {
	lock  sync.RWMutex
	store map[common.Hash]*types.Sidecar
	size  *SizeTracker
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		store: make(map[common.Hash]*types.Sidecar),
		size:  new(SizeTracker),
	}
}

// insert must be called with the write lock held.
func (s *MemoryStore) insert(tx common.Hash, sc *types.Sidecar) {
	if prev, ok := s.store[tx]; ok {
		s.size.SubSize(prev.Size())
	}
	s.store[tx] = sc
	s.size.AddSize(sc.Size())
}

func (s *MemoryStore) Insert(tx common.Hash, sc *types.Sidecar) error {
	if err := validateSidecar(tx, sc); err != nil {
		return err
	}
	s.lock.Lock()
	defer s.lock.Unlock()

	s.insert(tx, sc)
	s.size.UpdateLen(len(s.store))
	return nil
}

// InsertAll stores the whole batch under one lock, so it is applied atomically.
func (s *MemoryStore) InsertAll(txs []TxSidecar) error {
	if len(txs) == 0 {
		return nil
	}
	if err := validateSidecars(txs); err != nil {
		return err
	}
	s.lock.Lock()
	defer s.lock.Unlock()

	for _, tx := range txs {
		s.insert(tx.TxHash, tx.Sidecar)
	}
	s.size.UpdateLen(len(s.store))
	return nil
}

// remove must be called with the write lock held.
func (s *MemoryStore) remove(tx common.Hash) {
	if sc, ok := s.store[tx]; ok {
		s.size.SubSize(sc.Size())
		delete(s.store, tx)
	}
}

func (s *MemoryStore) Delete(tx common.Hash) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.remove(tx)
	s.size.UpdateLen(len(s.store))
	return nil
}

func (s *MemoryStore) DeleteAll(txs []common.Hash) error {
	if len(txs) == 0 {
		return nil
	}
	s.lock.Lock()
	defer s.lock.Unlock()

	for _, tx := range txs {
		s.remove(tx)
	}
	s.size.UpdateLen(len(s.store))
	return nil
}

// Cleanup is a no-op, the memory store has no deferred state.
func (s *MemoryStore) Cleanup() CleanupStat {
	return CleanupStat{}
}

func (s *MemoryStore) Get(tx common.Hash) (*types.Sidecar, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return s.store[tx], nil
}

func (s *MemoryStore) Contains(tx common.Hash) (bool, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	_, ok := s.store[tx]
	return ok, nil
}

func (s *MemoryStore) GetAll(txs []common.Hash) ([]TxSidecar, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	items := make([]TxSidecar, 0, len(txs))
	for _, tx := range txs {
		if sc, ok := s.store[tx]; ok {
			items = append(items, TxSidecar{TxHash: tx, Sidecar: sc})
		}
	}
	return items, nil
}

func (s *MemoryStore) GetExact(txs []common.Hash) ([]*types.Sidecar, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	items := make([]*types.Sidecar, 0, len(txs))
	for _, tx := range txs {
		sc, ok := s.store[tx]
		if !ok {
			return nil, &MissingSidecarError{TxHash: tx}
		}
		items = append(items, sc)
	}
	return items, nil
}

func (s *MemoryStore) GetByVersionedHashesV1(versionedHashes []common.Hash) ([]*types.BlobAndProofV1, error) {
	result := make([]*types.BlobAndProofV1, len(versionedHashes))
	if len(versionedHashes) == 0 {
		return result, nil
	}
	s.lock.RLock()
	defer s.lock.RUnlock()

	found := 0
	for _, sc := range s.store {
		if sc.Version != types.SidecarVersion0 {
			continue
		}
		for reqIdx, blobIdx := range sc.MatchVersionedHashes(versionedHashes) {
			if result[reqIdx] == nil {
				result[reqIdx] = sc.BlobAndProofV1At(blobIdx)
				if result[reqIdx] != nil {
					found++
				}
			}
		}
		if found == len(result) {
			break
		}
	}
	return result, nil
}

func (s *MemoryStore) GetByVersionedHashesV2(versionedHashes []common.Hash) ([]*types.BlobAndProofV2, error) {
	result := make([]*types.BlobAndProofV2, len(versionedHashes))
	if len(versionedHashes) == 0 {
		return result, nil
	}
	s.lock.RLock()
	defer s.lock.RUnlock()

	found := 0
	for _, sc := range s.store {
		if sc.Version != types.SidecarVersion1 {
			continue
		}
		for reqIdx, blobIdx := range sc.MatchVersionedHashes(versionedHashes) {
			if result[reqIdx] == nil {
				result[reqIdx] = sc.BlobAndProofV2At(blobIdx)
				if result[reqIdx] != nil {
					found++
				}
			}
		}
		if found == len(result) {
			return result, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) DataSizeHint() (uint64, bool) {
	return s.size.DataSize(), true
}

func (s *MemoryStore) BlobsLen() int {
	return s.size.BlobsLen()
}

// SizeTracker exposes the counters shared by the store.
func (s *MemoryStore) SizeTracker() *SizeTracker {
	return s.size
}
