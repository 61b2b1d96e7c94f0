package blobstore

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/bnb-chain/blob-store/types"
)

// NoopStore is a Store that keeps nothing. It is used when blob retention is disabled.
type NoopStore struct{}

func NewNoopStore() *NoopStore {
	return &NoopStore{}
}

func (s *NoopStore) Insert(common.Hash, *types.Sidecar) error { return nil }

func (s *NoopStore) InsertAll([]TxSidecar) error { return nil }

func (s *NoopStore) Delete(common.Hash) error { return nil }

func (s *NoopStore) DeleteAll([]common.Hash) error { return nil }

func (s *NoopStore) Cleanup() CleanupStat { return CleanupStat{} }

func (s *NoopStore) Get(common.Hash) (*types.Sidecar, error) { return nil, nil }

func (s *NoopStore) Contains(common.Hash) (bool, error) { return false, nil }

func (s *NoopStore) GetAll([]common.Hash) ([]TxSidecar, error) { return nil, nil }

func (s *NoopStore) GetExact(txs []common.Hash) ([]*types.Sidecar, error) {
	if len(txs) == 0 {
		return []*types.Sidecar{}, nil
	}
	return nil, &MissingSidecarError{TxHash: txs[0]}
}

func (s *NoopStore) GetByVersionedHashesV1(versionedHashes []common.Hash) ([]*types.BlobAndProofV1, error) {
	return make([]*types.BlobAndProofV1, len(versionedHashes)), nil
}

func (s *NoopStore) GetByVersionedHashesV2(versionedHashes []common.Hash) ([]*types.BlobAndProofV2, error) {
	if len(versionedHashes) == 0 {
		return []*types.BlobAndProofV2{}, nil
	}
	return nil, nil
}

func (s *NoopStore) DataSizeHint() (uint64, bool) { return 0, true }

func (s *NoopStore) BlobsLen() int { return 0 }
