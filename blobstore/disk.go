package blobstore

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/bnb-chain/blob-store/cache"
	"github.com/bnb-chain/blob-store/logging"
	"github.com/bnb-chain/blob-store/types"
)

const (
	DefaultMaxCachedEntries    = 100
	DefaultMaxConcurrentWrites = 16

	// maxBlobsPerTx sizes the versioned hash index relative to the sidecar cache.
	maxBlobsPerTx = 6
)

// OpenMode decides what happens to sidecar files left in the directory by a previous run.
type OpenMode int

const (
	// OpenReindex keeps existing files and rebuilds the index from them.
	OpenReindex OpenMode = iota
	// OpenClear removes everything in the directory.
	OpenClear
)

type DiskStoreConfig struct {
	Dir                 string
	MaxCachedEntries    int
	MaxConcurrentWrites int
	OpenMode            OpenMode
}

// DiskStore writes every sidecar to its own file inside a directory and keeps
// recently used sidecars in an in-memory cache.
//
// Deletion is two-phased: Delete drops the entry from the index, the cache and
// the size counters immediately, while the file is only removed by the next
// Cleanup pass.
//
// Versioned hash lookups only see sidecars that were inserted or read by
// transaction hash since the store was opened. After a reopen, a sidecar found
// by reindexing is not resolvable by versioned hash until Get has loaded it.
type DiskStore struct {
	dir string

	lock    sync.RWMutex
	index   map[common.Hash]uint64   // live sidecars and their encoded size
	pending map[common.Hash]struct{} // deleted sidecars whose file is not yet removed

	// fileLock orders renaming finished writes into place against cleanup removals.
	fileLock sync.Mutex

	cache     *cache.SidecarCache
	hashes    *cache.HashIndex
	writes    *semaphore.Weighted
	maxWrites int
	size      *SizeTracker
}

// OpenDiskStore opens (creating if needed) a disk store in cfg.Dir.
func OpenDiskStore(cfg DiskStoreConfig) (*DiskStore, error) {
	if cfg.Dir == "" {
		return nil, errors.New("blob store directory is required")
	}
	if cfg.MaxCachedEntries <= 0 {
		cfg.MaxCachedEntries = DefaultMaxCachedEntries
	}
	if cfg.MaxConcurrentWrites <= 0 {
		cfg.MaxConcurrentWrites = DefaultMaxConcurrentWrites
	}
	dir, err := filepath.Abs(cfg.Dir)
	if err != nil {
		return nil, err
	}
	if cfg.OpenMode == OpenClear {
		if err := os.RemoveAll(dir); err != nil {
			return nil, errors.Wrapf(err, "failed to clear blob store directory %s", dir)
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "failed to create blob store directory %s", dir)
	}
	sidecars, err := cache.NewSidecarCache(cfg.MaxCachedEntries)
	if err != nil {
		return nil, err
	}
	hashes, err := cache.NewHashIndex(cfg.MaxCachedEntries * maxBlobsPerTx)
	if err != nil {
		return nil, err
	}
	s := &DiskStore{
		dir:       dir,
		index:     make(map[common.Hash]uint64),
		pending:   make(map[common.Hash]struct{}),
		cache:     sidecars,
		hashes:    hashes,
		writes:    semaphore.NewWeighted(int64(cfg.MaxConcurrentWrites)),
		maxWrites: cfg.MaxConcurrentWrites,
		size:      new(SizeTracker),
	}
	if err := s.reindex(); err != nil {
		return nil, err
	}
	return s, nil
}

// reindex rebuilds the index and size counters from the files on disk. Leftovers
// of interrupted writes are removed, files with foreign names are ignored.
func (s *DiskStore) reindex() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return errors.Wrapf(err, "failed to read blob store directory %s", s.dir)
	}
	var dataSize uint64
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if types.IsTempFileName(name) {
			if err := os.Remove(filepath.Join(s.dir, name)); err != nil {
				logging.Logger.Warningf("failed to remove unfinished sidecar file %s, err=%s", name, err.Error())
			}
			continue
		}
		tx, err := types.ParseSidecarFileName(name)
		if err != nil {
			logging.Logger.Warningf("skipping unknown file %s in blob store directory", name)
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// the file vanished between listing and stat
			continue
		}
		s.index[tx] = uint64(info.Size())
		dataSize += uint64(info.Size())
	}
	s.size.AddSize(dataSize)
	s.size.UpdateLen(len(s.index))
	if len(s.index) > 0 {
		logging.Logger.Infof("reindexed blob store, dir=%s, sidecars=%d, size=%d", s.dir, len(s.index), dataSize)
	}
	return nil
}

func (s *DiskStore) path(tx common.Hash) string {
	return filepath.Join(s.dir, types.SidecarFileName(tx))
}

// writeTemp writes data to a fresh temporary file and returns its path. The
// number of concurrent writes is bounded by the write semaphore.
func (s *DiskStore) writeTemp(tx common.Hash, data []byte) (string, error) {
	if err := s.writes.Acquire(context.Background(), 1); err != nil {
		return "", err
	}
	defer s.writes.Release(1)

	f, err := os.CreateTemp(s.dir, types.SidecarFileName(tx)+".*"+types.TempFileSuffix)
	if err != nil {
		return "", err
	}
	tmpPath := f.Name()
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return "", err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return "", err
	}
	return tmpPath, nil
}

// commit moves a finished write into place and makes the sidecar visible.
func (s *DiskStore) commit(tx common.Hash, sc *types.Sidecar, tmpPath string, size uint64) error {
	s.fileLock.Lock()
	defer s.fileLock.Unlock()

	if err := os.Rename(tmpPath, s.path(tx)); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	s.lock.Lock()
	if prev, ok := s.index[tx]; ok {
		s.size.SubSize(prev)
	} else {
		s.size.IncLen(1)
	}
	s.index[tx] = size
	delete(s.pending, tx)
	s.size.AddSize(size)
	s.cache.Set(tx, sc)
	s.lock.Unlock()

	s.indexVersionedHashes(tx, sc)
	return nil
}

func (s *DiskStore) indexVersionedHashes(tx common.Hash, sc *types.Sidecar) {
	for _, vh := range sc.BlobHashes() {
		s.hashes.Set(vh, tx)
	}
}

func (s *DiskStore) insert(tx common.Hash, sc *types.Sidecar, data []byte) error {
	tmpPath, err := s.writeTemp(tx, data)
	if err != nil {
		return NewOtherError(err, "failed to write sidecar of tx %s", tx.Hex())
	}
	if err := s.commit(tx, sc, tmpPath, uint64(len(data))); err != nil {
		return NewOtherError(err, "failed to store sidecar of tx %s", tx.Hex())
	}
	return nil
}

func (s *DiskStore) Insert(tx common.Hash, sc *types.Sidecar) error {
	if err := validateSidecar(tx, sc); err != nil {
		return err
	}
	data, err := types.EncodeSidecar(sc)
	if err != nil {
		return NewOtherError(err, "failed to encode sidecar of tx %s", tx.Hex())
	}
	return s.insert(tx, sc, data)
}

// InsertAll validates and encodes the whole batch first; nothing is written if
// any entry is invalid. Files are then written in parallel and every successful
// write is kept, the first failure is returned.
func (s *DiskStore) InsertAll(txs []TxSidecar) error {
	if len(txs) == 0 {
		return nil
	}
	if err := validateSidecars(txs); err != nil {
		return err
	}
	encoded := make([][]byte, len(txs))
	for i, tx := range txs {
		data, err := types.EncodeSidecar(tx.Sidecar)
		if err != nil {
			return NewOtherError(err, "failed to encode sidecar of tx %s", tx.TxHash.Hex())
		}
		encoded[i] = data
	}

	g := new(errgroup.Group)
	g.SetLimit(s.maxWrites)
	for i := range txs {
		i := i
		g.Go(func() error {
			err := s.insert(txs[i].TxHash, txs[i].Sidecar, encoded[i])
			if err != nil {
				logging.Logger.Errorf("failed to insert sidecar, tx=%s, err=%s", txs[i].TxHash.Hex(), err.Error())
			}
			return err
		})
	}
	return g.Wait()
}

// remove must be called with the write lock held.
func (s *DiskStore) remove(tx common.Hash) {
	size, ok := s.index[tx]
	if !ok {
		return
	}
	delete(s.index, tx)
	s.pending[tx] = struct{}{}
	s.cache.Remove(tx)
	s.size.SubSize(size)
	s.size.SubLen(1)
}

// Delete marks the sidecar of tx as deleted. The file is removed by Cleanup.
func (s *DiskStore) Delete(tx common.Hash) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.remove(tx)
	return nil
}

func (s *DiskStore) DeleteAll(txs []common.Hash) error {
	if len(txs) == 0 {
		return nil
	}
	s.lock.Lock()
	defer s.lock.Unlock()

	for _, tx := range txs {
		s.remove(tx)
	}
	return nil
}

// Cleanup removes the files of all sidecars deleted since the previous pass.
// Failed removals are counted and logged but not retried.
func (s *DiskStore) Cleanup() CleanupStat {
	s.lock.Lock()
	pending := s.pending
	s.pending = make(map[common.Hash]struct{})
	s.lock.Unlock()

	var stat CleanupStat
	if len(pending) == 0 {
		return stat
	}
	for tx := range pending {
		s.fileLock.Lock()
		s.lock.RLock()
		_, live := s.index[tx]
		_, requeued := s.pending[tx]
		s.lock.RUnlock()
		if live || requeued {
			// re-inserted since deletion, or deleted again and left for the next pass
			s.fileLock.Unlock()
			continue
		}
		err := os.Remove(s.path(tx))
		s.fileLock.Unlock()

		if err != nil {
			stat.DeleteFailed++
			logging.Logger.Errorf("failed to remove sidecar file, tx=%s, err=%s", tx.Hex(), err.Error())
			continue
		}
		stat.DeleteSucceed++
	}
	logging.Logger.Debugf("blob store cleanup finished, succeed=%d, failed=%d", stat.DeleteSucceed, stat.DeleteFailed)
	return stat
}

// load reads and decodes the sidecar file of tx. A missing file is reported as nil.
func (s *DiskStore) load(tx common.Hash) (*types.Sidecar, error) {
	data, err := os.ReadFile(s.path(tx))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, NewOtherError(err, "failed to read sidecar of tx %s", tx.Hex())
	}
	sc, err := types.DecodeSidecar(data)
	if err != nil {
		return nil, &DecodeError{TxHash: tx, Err: err}
	}
	return sc, nil
}

func (s *DiskStore) Get(tx common.Hash) (*types.Sidecar, error) {
	s.lock.RLock()
	_, ok := s.index[tx]
	var (
		sc     *types.Sidecar
		cached bool
	)
	if ok {
		sc, cached = s.cache.Get(tx)
	}
	s.lock.RUnlock()
	if !ok {
		return nil, nil
	}
	if cached {
		return sc, nil
	}

	sc, err := s.load(tx)
	if err != nil || sc == nil {
		return nil, err
	}
	s.lock.RLock()
	if _, ok := s.index[tx]; ok {
		s.cache.SetIfAbsent(tx, sc)
	}
	s.lock.RUnlock()
	s.indexVersionedHashes(tx, sc)
	return sc, nil
}

func (s *DiskStore) Contains(tx common.Hash) (bool, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	_, ok := s.index[tx]
	return ok, nil
}

// GetAll skips sidecars that are not found. A read or decode failure fails the whole call.
func (s *DiskStore) GetAll(txs []common.Hash) ([]TxSidecar, error) {
	items := make([]TxSidecar, 0, len(txs))
	for _, tx := range txs {
		sc, err := s.Get(tx)
		if err != nil {
			return nil, err
		}
		if sc != nil {
			items = append(items, TxSidecar{TxHash: tx, Sidecar: sc})
		}
	}
	return items, nil
}

func (s *DiskStore) GetExact(txs []common.Hash) ([]*types.Sidecar, error) {
	items := make([]*types.Sidecar, 0, len(txs))
	for _, tx := range txs {
		sc, err := s.Get(tx)
		if err != nil {
			return nil, err
		}
		if sc == nil {
			return nil, &MissingSidecarError{TxHash: tx}
		}
		items = append(items, sc)
	}
	return items, nil
}

// matchVersionedHashes resolves versioned hashes against sidecars of the given
// version, first from the sidecar cache and then through the versioned hash
// index. fill is called for every match and reports whether it could serve the
// slot; it returns the number of resolved slots.
func (s *DiskStore) matchVersionedHashes(versionedHashes []common.Hash, version byte, fill func(reqIdx, blobIdx int, sc *types.Sidecar) bool) (int, error) {
	var (
		filled = make([]bool, len(versionedHashes))
		found  int
	)
	match := func(sc *types.Sidecar) {
		if sc.Version != version {
			return
		}
		for reqIdx, blobIdx := range sc.MatchVersionedHashes(versionedHashes) {
			if !filled[reqIdx] && fill(reqIdx, blobIdx, sc) {
				filled[reqIdx] = true
				found++
			}
		}
	}
	s.cache.Range(func(_ common.Hash, sc *types.Sidecar) bool {
		match(sc)
		return found < len(versionedHashes)
	})
	for i, vh := range versionedHashes {
		if found == len(versionedHashes) {
			break
		}
		if filled[i] {
			continue
		}
		tx, ok := s.hashes.Get(vh)
		if !ok {
			continue
		}
		sc, err := s.Get(tx)
		if err != nil {
			return found, err
		}
		if sc == nil {
			s.hashes.Remove(vh)
			continue
		}
		match(sc)
	}
	return found, nil
}

func (s *DiskStore) GetByVersionedHashesV1(versionedHashes []common.Hash) ([]*types.BlobAndProofV1, error) {
	result := make([]*types.BlobAndProofV1, len(versionedHashes))
	if len(versionedHashes) == 0 {
		return result, nil
	}
	_, err := s.matchVersionedHashes(versionedHashes, types.SidecarVersion0, func(reqIdx, blobIdx int, sc *types.Sidecar) bool {
		result[reqIdx] = sc.BlobAndProofV1At(blobIdx)
		return result[reqIdx] != nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *DiskStore) GetByVersionedHashesV2(versionedHashes []common.Hash) ([]*types.BlobAndProofV2, error) {
	result := make([]*types.BlobAndProofV2, len(versionedHashes))
	if len(versionedHashes) == 0 {
		return result, nil
	}
	found, err := s.matchVersionedHashes(versionedHashes, types.SidecarVersion1, func(reqIdx, blobIdx int, sc *types.Sidecar) bool {
		result[reqIdx] = sc.BlobAndProofV2At(blobIdx)
		return result[reqIdx] != nil
	})
	if err != nil {
		return nil, err
	}
	if found != len(versionedHashes) {
		return nil, nil
	}
	return result, nil
}

func (s *DiskStore) DataSizeHint() (uint64, bool) {
	return s.size.DataSize(), true
}

func (s *DiskStore) BlobsLen() int {
	return s.size.BlobsLen()
}

// SizeTracker exposes the counters shared by the store.
func (s *DiskStore) SizeTracker() *SizeTracker {
	return s.size
}

// Dir returns the directory holding the sidecar files.
func (s *DiskStore) Dir() string {
	return s.dir
}

// PendingDeletes returns the number of deleted sidecars whose files await Cleanup.
func (s *DiskStore) PendingDeletes() int {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return len(s.pending)
}
