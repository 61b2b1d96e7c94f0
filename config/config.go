package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

type Config struct {
	LogConfig     LogConfig     `json:"log_config"`
	DBConfig      DBConfig      `json:"db_config"`
	StoreConfig   StoreConfig   `json:"store_config"`
	TrackerConfig TrackerConfig `json:"tracker_config"`
	SyncerConfig  SyncerConfig  `json:"syncer_config"`
	MetricsConfig MetricsConfig `json:"metrics_config"`
	ServiceConfig ServiceConfig `json:"service_config"`
}

// StoreConfig selects and tunes the blob sidecar store.
type StoreConfig struct {
	StoreType           string `json:"store_type"`            // StoreType is one of noop, memory or disk
	Dir                 string `json:"dir"`                   // Dir is where the disk store keeps one file per transaction
	OpenMode            string `json:"open_mode"`             // OpenMode is reindex (keep existing files) or clear
	MaxCachedEntries    int    `json:"max_cached_entries"`    // MaxCachedEntries bounds the in-memory hot cache of the disk store
	MaxConcurrentWrites int    `json:"max_concurrent_writes"` // MaxConcurrentWrites bounds in-flight file writes
	CleanupIntervalSecs int64  `json:"cleanup_interval_secs"`
}

func (cfg *StoreConfig) GetMaxCachedEntries() int {
	if cfg.MaxCachedEntries > 0 {
		return cfg.MaxCachedEntries
	}
	return DefaultMaxCachedEntries
}

func (cfg *StoreConfig) GetMaxConcurrentWrites() int {
	if cfg.MaxConcurrentWrites > 0 {
		return cfg.MaxConcurrentWrites
	}
	return DefaultMaxConcurrentWrites
}

func (cfg *StoreConfig) GetCleanupInterval() time.Duration {
	if cfg.CleanupIntervalSecs > 0 {
		return time.Duration(cfg.CleanupIntervalSecs) * time.Second
	}
	return DefaultCleanupIntervalSecs * time.Second
}

func (cfg *StoreConfig) Validate() {
	switch cfg.StoreType {
	case StoreTypeNoop, StoreTypeMemory:
	case StoreTypeDisk:
		if cfg.Dir == "" {
			panic("dir should not be empty if use disk store")
		}
		if cfg.OpenMode != "" && cfg.OpenMode != StoreOpenModeReindex && cfg.OpenMode != StoreOpenModeClear {
			panic(fmt.Sprintf("unexpected open mode %s, only %s and %s supported", cfg.OpenMode, StoreOpenModeReindex, StoreOpenModeClear))
		}
	default:
		panic(fmt.Sprintf("unexpected store type %s", cfg.StoreType))
	}
	if cfg.MaxCachedEntries < 0 || cfg.MaxConcurrentWrites < 0 {
		panic("max_cached_entries and max_concurrent_writes should not be negative")
	}
}

type TrackerConfig struct {
	FinalizationDepth uint64 `json:"finalization_depth"` // FinalizationDepth is the number of confirmations after which included blobs are evicted
	PersistHistory    bool   `json:"persist_history"`    // PersistHistory stores tracked inclusions in the DB to survive restarts
}

func (cfg *TrackerConfig) GetFinalizationDepth() uint64 {
	if cfg.FinalizationDepth != 0 {
		return cfg.FinalizationDepth
	}
	return DefaultFinalizationDepth
}

type SyncerConfig struct {
	ETHRPCAddrs        []string `json:"eth_rpc_addrs"` // ETHRPCAddrs is a list of execution client RPC addresses
	StartBlock         uint64   `json:"start_block"`   // StartBlock is the first block followed when nothing is tracked yet
	PollIntervalMillis int64    `json:"poll_interval_millis"`
}

func (cfg *SyncerConfig) GetPollInterval() time.Duration {
	if cfg.PollIntervalMillis > 0 {
		return time.Duration(cfg.PollIntervalMillis) * time.Millisecond
	}
	return DefaultPollIntervalMillis * time.Millisecond
}

type MetricsConfig struct {
	Enable         bool   `json:"enable"`
	HttpAddress    string `json:"http_address"`
	RefreshSeconds int64  `json:"refresh_seconds"`
}

func (cfg *MetricsConfig) GetHttpAddress() string {
	if cfg.HttpAddress != "" {
		return cfg.HttpAddress
	}
	return DefaultMetricsAddress
}

func (cfg *MetricsConfig) GetRefreshInterval() time.Duration {
	if cfg.RefreshSeconds > 0 {
		return time.Duration(cfg.RefreshSeconds) * time.Second
	}
	return DefaultMetricsRefreshSeconds * time.Second
}

// ServiceConfig controls the HTTP endpoint serving blob lookups and sidecar inserts.
type ServiceConfig struct {
	Enable      bool   `json:"enable"`
	HttpAddress string `json:"http_address"`
}

func (cfg *ServiceConfig) GetHttpAddress() string {
	if cfg.HttpAddress != "" {
		return cfg.HttpAddress
	}
	return DefaultServiceAddress
}

type DBConfig struct {
	Dialect       string `json:"dialect"`
	KeyType       string `json:"key_type"`
	AWSRegion     string `json:"aws_region"`
	AWSSecretName string `json:"aws_secret_name"`
	Username      string `json:"username"`
	Password      string `json:"password"`
	Url           string `json:"url"`
	MaxIdleConns  int    `json:"max_idle_conns"`
	MaxOpenConns  int    `json:"max_open_conns"`
}

func (cfg *DBConfig) Validate() {
	if cfg.Dialect != DBDialectMysql && cfg.Dialect != DBDialectSqlite3 {
		panic(fmt.Sprintf("only %s and %s supported", DBDialectMysql, DBDialectSqlite3))
	}
	if cfg.Dialect == DBDialectMysql && (cfg.Username == "" || cfg.Url == "") {
		panic("db config is not correct, missing username and/or url")
	}
	if cfg.MaxIdleConns == 0 || cfg.MaxOpenConns == 0 {
		panic("db connections is not correct")
	}
}

type LogConfig struct {
	Level                        string `json:"level"`
	Filename                     string `json:"filename"`
	MaxFileSizeInMB              int    `json:"max_file_size_in_mb"`
	MaxBackupsOfLogFiles         int    `json:"max_backups_of_log_files"`
	MaxAgeToRetainLogFilesInDays int    `json:"max_age_to_retain_log_files_in_days"`
	UseConsoleLogger             bool   `json:"use_console_logger"`
	UseFileLogger                bool   `json:"use_file_logger"`
	Compress                     bool   `json:"compress"`
}

func (cfg *LogConfig) Validate() {
	if cfg.UseFileLogger {
		if cfg.Filename == "" {
			panic("filename should not be empty if use file logger")
		}
		if cfg.MaxFileSizeInMB <= 0 {
			panic("max_file_size_in_mb should be larger than 0 if use file logger")
		}
		if cfg.MaxBackupsOfLogFiles <= 0 {
			panic("max_backups_off_log_files should be larger than 0 if use file logger")
		}
	}
}

func (cfg *Config) Validate() {
	cfg.LogConfig.Validate()
	cfg.StoreConfig.Validate()
	if cfg.TrackerConfig.PersistHistory {
		cfg.DBConfig.Validate()
	}
}

func ParseConfigFromJson(content string) *Config {
	var config Config
	if err := json.Unmarshal([]byte(content), &config); err != nil {
		panic(err)
	}
	config.Validate()
	return &config
}

func ParseConfigFromFile(filePath string) *Config {
	bz, err := os.ReadFile(filePath)
	if err != nil {
		panic(err)
	}
	return ParseConfigFromJson(string(bz))
}
