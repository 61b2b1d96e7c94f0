// Package blobstore keeps the blob sidecars of pooled blob transactions until
// they are no longer needed, i.e. until the including block is finalized.
package blobstore

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/bnb-chain/blob-store/types"
)

// Store is a blob sidecar store. Implementations are safe for concurrent use and
// are meant to be shared by pointer.
//
// Sidecars returned by a Store are shared with the store and other callers and
// must not be modified.
type Store interface {
	// Insert stores the sidecar of tx, replacing any previous one.
	Insert(tx common.Hash, sc *types.Sidecar) error
	// InsertAll stores multiple sidecars. Every entry is validated before anything
	// is written; an invalid entry fails the whole batch.
	InsertAll(txs []TxSidecar) error
	// Delete removes the sidecar of tx. Deleting an unknown hash is not an error.
	Delete(tx common.Hash) error
	// DeleteAll removes the sidecars of all txs.
	DeleteAll(txs []common.Hash) error
	// Cleanup is a maintenance pass that reclaims the resources of deleted
	// sidecars for stores that defer deletion. It is meant to be called
	// periodically by the owner of the store.
	Cleanup() CleanupStat
	// Get returns the sidecar of tx, or nil if the store does not have it.
	Get(tx common.Hash) (*types.Sidecar, error)
	// Contains reports whether the sidecar of tx is in the store.
	Contains(tx common.Hash) (bool, error)
	// GetAll returns the sidecars that were found for txs, in no particular order.
	GetAll(txs []common.Hash) ([]TxSidecar, error)
	// GetExact returns the sidecars of txs in request order, failing with a
	// *MissingSidecarError on the first hash that is not found.
	GetExact(txs []common.Hash) ([]*types.Sidecar, error)
	// GetByVersionedHashesV1 returns, positionally, the blob and proof for every
	// versioned hash. Slots of hashes that are not found are nil.
	GetByVersionedHashesV1(versionedHashes []common.Hash) ([]*types.BlobAndProofV1, error)
	// GetByVersionedHashesV2 returns the blobs and cell proofs of all versioned
	// hashes, or nil if any of them is not found.
	GetByVersionedHashesV2(versionedHashes []common.Hash) ([]*types.BlobAndProofV2, error)
	// DataSizeHint returns the data size of all stored sidecars, if tracked.
	DataSizeHint() (uint64, bool)
	// BlobsLen returns the number of stored sidecars.
	BlobsLen() int
}

var (
	_ Store = (*NoopStore)(nil)
	_ Store = (*MemoryStore)(nil)
	_ Store = (*DiskStore)(nil)
)

// TxSidecar pairs a transaction hash with its sidecar.
type TxSidecar struct {
	TxHash  common.Hash
	Sidecar *types.Sidecar
}

// CleanupStat is the outcome of one Cleanup pass.
type CleanupStat struct {
	DeleteSucceed int
	DeleteFailed  int
}

// validateSidecars checks every entry of a batch before any of it is stored.
func validateSidecars(txs []TxSidecar) error {
	for _, tx := range txs {
		if err := validateSidecar(tx.TxHash, tx.Sidecar); err != nil {
			return err
		}
	}
	return nil
}

func validateSidecar(tx common.Hash, sc *types.Sidecar) error {
	if sc == nil {
		return NewOtherError(errNilSidecar, "invalid sidecar for tx %s", tx.Hex())
	}
	if err := sc.ValidateShape(); err != nil {
		return NewOtherError(err, "invalid sidecar for tx %s", tx.Hex())
	}
	return nil
}
