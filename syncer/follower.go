package syncer

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"

	"github.com/bnb-chain/blob-store/blobstore"
	"github.com/bnb-chain/blob-store/logging"
	"github.com/bnb-chain/blob-store/metrics"
)

var errNoRPCAddr = errors.New("no eth rpc address configured")

// ChainFollower reads canonical blocks from an execution client, feeds the blob
// transactions they include into a CanonTracker and applies the resulting
// updates to the blob store.
type ChainFollower struct {
	client  ChainReader
	tracker *blobstore.CanonTracker
	store   blobstore.Store

	next   uint64                 // next block number to process
	hashes map[uint64]common.Hash // recently processed canonical block hashes
	retain uint64                 // how many recent block hashes are kept for reorg detection

	reinsert func([]common.Hash)
}

// NewChainFollower creates a follower starting at block next. retain bounds the
// depth of reorgs that can be detected.
func NewChainFollower(client ChainReader, tracker *blobstore.CanonTracker, store blobstore.Store, next, retain uint64) *ChainFollower {
	if retain == 0 {
		retain = 1
	}
	return &ChainFollower{
		client:  client,
		tracker: tracker,
		store:   store,
		next:    next,
		hashes:  make(map[uint64]common.Hash),
		retain:  retain,
	}
}

// OnReinsert registers a callback receiving transactions un-included by a reorg.
func (f *ChainFollower) OnReinsert(fn func([]common.Hash)) {
	f.reinsert = fn
}

// Next returns the number of the next block the follower will process.
func (f *ChainFollower) Next() uint64 {
	return f.next
}

// SyncOnce processes all blocks up to the current chain head and returns how
// many block notifications were handled.
func (f *ChainFollower) SyncOnce(ctx context.Context) (int, error) {
	latest, err := f.client.BlockNumber(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get latest block number")
	}
	processed := 0
	for f.next <= latest {
		block, err := f.client.BlockByNumber(ctx, new(big.Int).SetUint64(f.next))
		if err != nil {
			return processed, errors.Wrapf(err, "failed to get block %d", f.next)
		}
		if parent, ok := f.hashes[f.next-1]; ok && f.next > 0 && block.ParentHash() != parent {
			ancestor, err := f.findAncestor(ctx, f.next-1)
			if err != nil {
				return processed, err
			}
			logging.Logger.Infof("detected reorg at block %d, common ancestor is %d", f.next, ancestor)
			for number := range f.hashes {
				if number > ancestor {
					delete(f.hashes, number)
				}
			}
			f.apply(f.tracker.OnReorg(ancestor, nil))
			f.next = ancestor + 1
			processed++
			continue
		}
		txs := blobTxHashes(block)
		f.apply(f.tracker.OnChainExtension(f.next, txs))
		f.hashes[f.next] = block.Hash()
		if f.next >= f.retain {
			delete(f.hashes, f.next-f.retain)
		}
		metrics.TrackerHeadGauge.Set(float64(f.next))
		logging.Logger.Debugf("processed block %d with %d blob txs", f.next, len(txs))
		f.next++
		processed++
	}
	return processed, nil
}

// findAncestor walks back from number until the canonical block matches the
// hash seen earlier. Blocks older than the retained hashes are taken as common.
func (f *ChainFollower) findAncestor(ctx context.Context, number uint64) (uint64, error) {
	for {
		known, ok := f.hashes[number]
		if !ok {
			return number, nil
		}
		block, err := f.client.BlockByNumber(ctx, new(big.Int).SetUint64(number))
		if err != nil {
			return 0, errors.Wrapf(err, "failed to get block %d", number)
		}
		if block.Hash() == known || number == 0 {
			return number, nil
		}
		number--
	}
}

func (f *ChainFollower) apply(updates blobstore.BlobStoreUpdates) {
	if updates.IsEmpty() {
		return
	}
	if err := updates.Apply(f.store); err != nil {
		logging.Logger.Errorf("failed to delete finalized sidecars, num=%d, err=%s", len(updates.Finalized), err.Error())
	}
	metrics.TrackerFinalizedCounter.Add(float64(len(updates.Finalized)))
	metrics.TrackerReinsertCounter.Add(float64(len(updates.Reinsert)))
	if len(updates.Reinsert) > 0 && f.reinsert != nil {
		f.reinsert(updates.Reinsert)
	}
}

func blobTxHashes(block *ethtypes.Block) []common.Hash {
	var txs []common.Hash
	for _, tx := range block.Transactions() {
		if tx.Type() == ethtypes.BlobTxType {
			txs = append(txs, tx.Hash())
		}
	}
	return txs
}
