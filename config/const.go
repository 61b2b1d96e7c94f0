package config

const (
	FlagConfigPath         = "config-path"
	FlagConfigType         = "config-type"
	FlagConfigAwsRegion    = "aws-region"
	FlagConfigAwsSecretKey = "aws-secret-key"
	FlagConfigDbPass       = "db-pass"

	LocalConfig = "local"
	AWSConfig   = "aws"

	ConfigType     = "CONFIG_TYPE"
	ConfigFilePath = "CONFIG_FILE_PATH"
	ConfigDBPass   = "DB_PASSWORD"

	KeyTypeLocalPrivateKey = "local_private_key"
	KeyTypeAWSPrivateKey   = "aws_private_key"

	DBDialectMysql   = "mysql"
	DBDialectSqlite3 = "sqlite3"

	StoreTypeNoop   = "noop"
	StoreTypeMemory = "memory"
	StoreTypeDisk   = "disk"

	StoreOpenModeReindex = "reindex"
	StoreOpenModeClear   = "clear"

	DefaultMaxCachedEntries      = 100
	DefaultMaxConcurrentWrites   = 16
	DefaultFinalizationDepth     = 64
	DefaultCleanupIntervalSecs   = 60
	DefaultPollIntervalMillis    = 3000
	DefaultMetricsRefreshSeconds = 10
	DefaultMetricsAddress        = "0.0.0.0:9090"
	DefaultServiceAddress        = "0.0.0.0:8080"
)
