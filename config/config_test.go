package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseConfigDefaults(t *testing.T) {
	cfg := ParseConfigFromJson(`{
		"store_config": {"store_type": "disk", "dir": "/tmp/blobs"},
		"tracker_config": {"persist_history": false}
	}`)

	require.Equal(t, DefaultMaxCachedEntries, cfg.StoreConfig.GetMaxCachedEntries())
	require.Equal(t, DefaultMaxConcurrentWrites, cfg.StoreConfig.GetMaxConcurrentWrites())
	require.Equal(t, time.Minute, cfg.StoreConfig.GetCleanupInterval())
	require.Equal(t, uint64(DefaultFinalizationDepth), cfg.TrackerConfig.GetFinalizationDepth())
	require.Equal(t, 3*time.Second, cfg.SyncerConfig.GetPollInterval())
	require.Equal(t, DefaultMetricsAddress, cfg.MetricsConfig.GetHttpAddress())
	require.Equal(t, 10*time.Second, cfg.MetricsConfig.GetRefreshInterval())
	require.False(t, cfg.ServiceConfig.Enable)
	require.Equal(t, DefaultServiceAddress, cfg.ServiceConfig.GetHttpAddress())
}

func TestParseConfigOverrides(t *testing.T) {
	cfg := ParseConfigFromJson(`{
		"store_config": {"store_type": "memory", "max_cached_entries": 7, "cleanup_interval_secs": 5},
		"tracker_config": {"finalization_depth": 12},
		"syncer_config": {"eth_rpc_addrs": ["http://localhost:8545"], "poll_interval_millis": 250}
	}`)

	require.Equal(t, 7, cfg.StoreConfig.GetMaxCachedEntries())
	require.Equal(t, 5*time.Second, cfg.StoreConfig.GetCleanupInterval())
	require.Equal(t, uint64(12), cfg.TrackerConfig.GetFinalizationDepth())
	require.Equal(t, 250*time.Millisecond, cfg.SyncerConfig.GetPollInterval())
	require.Equal(t, []string{"http://localhost:8545"}, cfg.SyncerConfig.ETHRPCAddrs)
}

func TestParseConfigInvalid(t *testing.T) {
	require.Panics(t, func() { ParseConfigFromJson(`{"store_config": {"store_type": "cloud"}}`) })
	require.Panics(t, func() { ParseConfigFromJson(`{"store_config": {"store_type": "disk"}}`) })
	require.Panics(t, func() {
		ParseConfigFromJson(`{"store_config": {"store_type": "disk", "dir": "d", "open_mode": "wipe"}}`)
	})
	require.Panics(t, func() {
		ParseConfigFromJson(`{"store_config": {"store_type": "noop"}, "tracker_config": {"persist_history": true}, "db_config": {"dialect": "postgres"}}`)
	})
	require.Panics(t, func() {
		ParseConfigFromJson(`{"store_config": {"store_type": "noop"}, "log_config": {"use_file_logger": true}}`)
	})
	require.Panics(t, func() { ParseConfigFromJson(`not json`) })
}

func TestParseConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"store_config": {"store_type": "noop"},
		"tracker_config": {"persist_history": true},
		"db_config": {"dialect": "sqlite3", "url": "tracker.db", "max_idle_conns": 1, "max_open_conns": 1}
	}`), 0o644))

	cfg := ParseConfigFromFile(path)
	require.Equal(t, StoreTypeNoop, cfg.StoreConfig.StoreType)
	require.Equal(t, DBDialectSqlite3, cfg.DBConfig.Dialect)

	require.Panics(t, func() { ParseConfigFromFile(filepath.Join(t.TempDir(), "missing.json")) })
}

func TestInitDBWithConfig(t *testing.T) {
	cfg := &DBConfig{
		Dialect:      DBDialectSqlite3,
		Url:          filepath.Join(t.TempDir(), "tracker.db"),
		MaxIdleConns: 1,
		MaxOpenConns: 1,
	}
	gormDB := InitDBWithConfig(cfg, true)
	require.True(t, gormDB.Migrator().HasTable("block"))
	require.True(t, gormDB.Migrator().HasTable("blob_tx"))
}
