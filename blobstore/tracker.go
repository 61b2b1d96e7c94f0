package blobstore

import (
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/bnb-chain/blob-store/logging"
)

// HistoryDB persists the inclusion history of a CanonTracker.
type HistoryDB interface {
	SaveBlock(number uint64, txs []common.Hash) error
	DeleteBlocksFrom(number uint64) error
	DeleteBlocksUpTo(number uint64) error
	LoadBlocks() (map[uint64][]common.Hash, error)
}

// BlobStoreUpdates is the outcome of one canonical chain notification. The two
// lists are disjoint.
type BlobStoreUpdates struct {
	// Finalized holds blob transactions included in a finalized block, their
	// sidecars can be deleted from the store.
	Finalized []common.Hash
	// Reinsert holds blob transactions that were un-included by a reorg. Whether
	// they go back to the pool is up to the pool, the tracker only signals it.
	Reinsert []common.Hash
}

func (u BlobStoreUpdates) IsEmpty() bool {
	return len(u.Finalized) == 0 && len(u.Reinsert) == 0
}

// Apply deletes the sidecars of finalized transactions from store.
func (u BlobStoreUpdates) Apply(store Store) error {
	if len(u.Finalized) == 0 {
		return nil
	}
	return store.DeleteAll(u.Finalized)
}

// CanonTracker follows the canonical chain and decides when the sidecars of
// included blob transactions can be evicted. It keeps, for every tracked block,
// the blob transactions first included in it, back to the finalization depth.
type CanonTracker struct {
	lock sync.Mutex

	depth    uint64
	head     uint64
	hasHead  bool
	blocks   map[uint64][]common.Hash // block number -> blob txs first included there
	numbers  []uint64                 // tracked block numbers, ascending
	included map[common.Hash]uint64   // blob tx -> inclusion block

	history HistoryDB
}

// NewCanonTracker creates a tracker evicting blobs once their block is depth
// blocks behind the head. history may be nil.
func NewCanonTracker(depth uint64, history HistoryDB) *CanonTracker {
	return &CanonTracker{
		depth:    depth,
		blocks:   make(map[uint64][]common.Hash),
		included: make(map[common.Hash]uint64),
		history:  history,
	}
}

// Restore reloads the tracked history from the history database.
func (t *CanonTracker) Restore() error {
	if t.history == nil {
		return nil
	}
	blocks, err := t.history.LoadBlocks()
	if err != nil {
		return err
	}
	t.lock.Lock()
	defer t.lock.Unlock()

	for number, txs := range blocks {
		t.record(number, txs)
		if !t.hasHead || number > t.head {
			t.head, t.hasHead = number, true
		}
	}
	logging.Logger.Infof("restored canon tracker history, blocks=%d, txs=%d, head=%d", len(t.numbers), len(t.included), t.head)
	return nil
}

// OnChainExtension records block number as the new canonical head carrying the
// blob transactions txs. A number at or below the current head replaces the
// tracked blocks from that height on, as after a reorg to number-1.
func (t *CanonTracker) OnChainExtension(number uint64, txs []common.Hash) BlobStoreUpdates {
	t.lock.Lock()
	defer t.lock.Unlock()

	var updates BlobStoreUpdates
	if t.hasHead && number <= t.head {
		updates.Reinsert = t.revert(number)
	}
	t.head, t.hasHead = number, true

	recorded := t.record(number, txs)
	if t.history != nil && len(recorded) > 0 {
		if err := t.history.SaveBlock(number, recorded); err != nil {
			logging.Logger.Errorf("failed to persist tracked block %d, err=%s", number, err.Error())
		}
	}
	if len(updates.Reinsert) > 0 {
		updates.Reinsert = excludeIncluded(updates.Reinsert, t.included)
	}
	if number >= t.depth {
		updates.Finalized = t.finalize(number - t.depth)
	}
	return updates
}

// OnReorg reverts the chain to newHead. Blob transactions of the discarded
// blocks and the explicitly reverted ones are flagged for reinsertion.
func (t *CanonTracker) OnReorg(newHead uint64, reverted []common.Hash) BlobStoreUpdates {
	t.lock.Lock()
	defer t.lock.Unlock()

	flagged := t.revert(newHead + 1)
	seen := make(map[common.Hash]struct{}, len(flagged)+len(reverted))
	for _, tx := range flagged {
		seen[tx] = struct{}{}
	}
	for _, tx := range reverted {
		if _, ok := seen[tx]; ok {
			continue
		}
		if number, ok := t.included[tx]; ok && number <= newHead {
			// still included by a block that stays canonical
			continue
		}
		seen[tx] = struct{}{}
		flagged = append(flagged, tx)
	}
	if !t.hasHead || newHead < t.head {
		t.head, t.hasHead = newHead, true
	}
	return BlobStoreUpdates{Reinsert: flagged}
}

// OnFinalized finalizes every tracked block at or below number.
func (t *CanonTracker) OnFinalized(number uint64) BlobStoreUpdates {
	t.lock.Lock()
	defer t.lock.Unlock()

	return BlobStoreUpdates{Finalized: t.finalize(number)}
}

// record must be called with the lock held. It returns the transactions that
// were not tracked yet.
func (t *CanonTracker) record(number uint64, txs []common.Hash) []common.Hash {
	recorded := make([]common.Hash, 0, len(txs))
	for _, tx := range txs {
		if _, ok := t.included[tx]; ok {
			continue
		}
		t.included[tx] = number
		recorded = append(recorded, tx)
	}
	if len(recorded) == 0 {
		return nil
	}
	if _, ok := t.blocks[number]; !ok {
		idx := sort.Search(len(t.numbers), func(i int) bool { return t.numbers[i] >= number })
		t.numbers = append(t.numbers, 0)
		copy(t.numbers[idx+1:], t.numbers[idx:])
		t.numbers[idx] = number
	}
	t.blocks[number] = append(t.blocks[number], recorded...)
	return recorded
}

// revert must be called with the lock held. It drops all blocks at or above
// from and returns their transactions in block order.
func (t *CanonTracker) revert(from uint64) []common.Hash {
	idx := sort.Search(len(t.numbers), func(i int) bool { return t.numbers[i] >= from })
	if idx == len(t.numbers) {
		return nil
	}
	var txs []common.Hash
	for _, number := range t.numbers[idx:] {
		for _, tx := range t.blocks[number] {
			delete(t.included, tx)
			txs = append(txs, tx)
		}
		delete(t.blocks, number)
	}
	t.numbers = t.numbers[:idx]
	if t.history != nil {
		if err := t.history.DeleteBlocksFrom(from); err != nil {
			logging.Logger.Errorf("failed to delete reverted blocks from %d, err=%s", from, err.Error())
		}
	}
	return txs
}

// finalize must be called with the lock held. It drops all blocks at or below
// number and returns their transactions in block order.
func (t *CanonTracker) finalize(number uint64) []common.Hash {
	idx := sort.Search(len(t.numbers), func(i int) bool { return t.numbers[i] > number })
	if idx == 0 {
		return nil
	}
	var txs []common.Hash
	for _, n := range t.numbers[:idx] {
		for _, tx := range t.blocks[n] {
			delete(t.included, tx)
			txs = append(txs, tx)
		}
		delete(t.blocks, n)
	}
	t.numbers = append(t.numbers[:0], t.numbers[idx:]...)
	if t.history != nil {
		if err := t.history.DeleteBlocksUpTo(number); err != nil {
			logging.Logger.Errorf("failed to delete finalized blocks up to %d, err=%s", number, err.Error())
		}
	}
	return txs
}

func excludeIncluded(txs []common.Hash, included map[common.Hash]uint64) []common.Hash {
	kept := txs[:0]
	for _, tx := range txs {
		if _, ok := included[tx]; !ok {
			kept = append(kept, tx)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	return kept
}

// Head returns the current canonical head known to the tracker.
func (t *CanonTracker) Head() (uint64, bool) {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.head, t.hasHead
}

// Len returns the number of tracked blocks and blob transactions.
func (t *CanonTracker) Len() (blocks int, txs int) {
	t.lock.Lock()
	defer t.lock.Unlock()

	return len(t.numbers), len(t.included)
}

// InclusionBlock returns the block in which tx was first included, if tracked.
func (t *CanonTracker) InclusionBlock(tx common.Hash) (uint64, bool) {
	t.lock.Lock()
	defer t.lock.Unlock()

	number, ok := t.included[tx]
	return number, ok
}
