package blobstore

import "sync/atomic"

// SizeTracker keeps the data size and the number of sidecars of a store. The two
// counters are updated independently, so readers may briefly observe them out of
// step during concurrent batch operations.
type SizeTracker struct {
	dataSize atomic.Uint64
	numBlobs atomic.Uint64
}

func (t *SizeTracker) AddSize(add uint64) {
	t.dataSize.Add(add)
}

// SubSize decreases the data size, saturating at zero.
func (t *SizeTracker) SubSize(sub uint64) {
	saturatingSub(&t.dataSize, sub)
}

// UpdateLen sets the number of sidecars directly.
func (t *SizeTracker) UpdateLen(n int) {
	t.numBlobs.Store(uint64(n))
}

func (t *SizeTracker) IncLen(add int) {
	t.numBlobs.Add(uint64(add))
}

// SubLen decreases the number of sidecars, saturating at zero.
func (t *SizeTracker) SubLen(sub int) {
	saturatingSub(&t.numBlobs, uint64(sub))
}

func (t *SizeTracker) DataSize() uint64 {
	return t.dataSize.Load()
}

func (t *SizeTracker) BlobsLen() int {
	return int(t.numBlobs.Load())
}

// Equal compares the current counter values of two trackers.
func (t *SizeTracker) Equal(other *SizeTracker) bool {
	return t.DataSize() == other.DataSize() && t.BlobsLen() == other.BlobsLen()
}

func saturatingSub(v *atomic.Uint64, sub uint64) {
	for {
		cur := v.Load()
		next := uint64(0)
		if cur > sub {
			next = cur - sub
		}
		if v.CompareAndSwap(cur, next) {
			return
		}
	}
}
