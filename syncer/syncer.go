package syncer

import (
	"context"
	"sync"
	"time"

	"github.com/bnb-chain/blob-store/blobstore"
	"github.com/bnb-chain/blob-store/logging"
	"github.com/bnb-chain/blob-store/metrics"
)

const (
	RPCTimeout = 20 * time.Second
)

type MaintainerConfig struct {
	CleanupInterval time.Duration
	PollInterval    time.Duration
	MetricsInterval time.Duration
}

// Maintainer owns the periodic work around a blob store: following the chain,
// running deferred cleanup passes and refreshing metrics. The stores never
// schedule anything themselves.
type Maintainer struct {
	store    blobstore.Store
	tracker  *blobstore.CanonTracker
	follower *ChainFollower
	config   MaintainerConfig

	quit chan struct{}
	wg   sync.WaitGroup
}

// NewMaintainer creates a maintainer. follower may be nil when chain events are
// fed into the tracker by someone else.
func NewMaintainer(store blobstore.Store, tracker *blobstore.CanonTracker, follower *ChainFollower, cfg MaintainerConfig) *Maintainer {
	return &Maintainer{
		store:    store,
		tracker:  tracker,
		follower: follower,
		config:   cfg,
		quit:     make(chan struct{}),
	}
}

func (m *Maintainer) StartLoop() {
	if m.follower != nil && m.config.PollInterval > 0 {
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			m.loop(m.config.PollInterval, func() {
				if err := m.sync(); err != nil {
					logging.Logger.Error(err)
				}
			})
		}()
	}
	if m.config.CleanupInterval > 0 {
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			m.loop(m.config.CleanupInterval, func() { m.RunCleanup() })
		}()
	}
	if m.config.MetricsInterval > 0 {
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			m.monitorStore()
		}()
	}
}

// Stop terminates all loops and waits for them to exit.
func (m *Maintainer) Stop() {
	close(m.quit)
	m.wg.Wait()
}

func (m *Maintainer) loop(interval time.Duration, fn func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			fn()
		case <-m.quit:
			return
		}
	}
}

func (m *Maintainer) sync() error {
	ctx, cancel := context.WithTimeout(context.Background(), RPCTimeout)
	defer cancel()
	_, err := m.follower.SyncOnce(ctx)
	return err
}

// RunCleanup runs one cleanup pass on the store and records its outcome.
func (m *Maintainer) RunCleanup() blobstore.CleanupStat {
	stat := m.store.Cleanup()
	metrics.CleanupSucceedCounter.Add(float64(stat.DeleteSucceed))
	metrics.CleanupFailedCounter.Add(float64(stat.DeleteFailed))
	if stat.DeleteSucceed > 0 || stat.DeleteFailed > 0 {
		logging.Logger.Infof("cleaned up blob store, succeed=%d, failed=%d", stat.DeleteSucceed, stat.DeleteFailed)
	}
	UpdateStoreMetrics(m.store, m.tracker)
	return stat
}
