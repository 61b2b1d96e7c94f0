package syncer

import (
	"github.com/bnb-chain/blob-store/blobstore"
	"github.com/bnb-chain/blob-store/metrics"
)

func (m *Maintainer) monitorStore() {
	m.loop(m.config.MetricsInterval, func() {
		UpdateStoreMetrics(m.store, m.tracker)
	})
}

// UpdateStoreMetrics publishes the current size counters of store and tracker.
func UpdateStoreMetrics(store blobstore.Store, tracker *blobstore.CanonTracker) {
	if size, ok := store.DataSizeHint(); ok {
		metrics.BlobStoreDataSizeGauge.Set(float64(size))
	}
	metrics.BlobStoreBlobsGauge.Set(float64(store.BlobsLen()))
	if tracker == nil {
		return
	}
	blocks, _ := tracker.Len()
	metrics.TrackerBlocksGauge.Set(float64(blocks))
	if head, ok := tracker.Head(); ok {
		metrics.TrackerHeadGauge.Set(float64(head))
	}
}
