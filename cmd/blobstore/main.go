package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/bnb-chain/blob-store/blobstore"
	"github.com/bnb-chain/blob-store/config"
	"github.com/bnb-chain/blob-store/db"
	"github.com/bnb-chain/blob-store/logging"
	"github.com/bnb-chain/blob-store/metrics"
	"github.com/bnb-chain/blob-store/service"
	"github.com/bnb-chain/blob-store/syncer"
)

func initFlags() {
	flag.String(config.FlagConfigPath, "", "config file path")
	flag.String(config.FlagConfigType, "", "config type, local or aws")
	flag.String(config.FlagConfigAwsRegion, "", "aws region")
	flag.String(config.FlagConfigAwsSecretKey, "", "aws secret key")
	flag.String(config.FlagConfigDbPass, "", "blob-store db password")

	pflag.CommandLine.AddGoFlagSet(flag.CommandLine)
	pflag.Parse()
	err := viper.BindPFlags(pflag.CommandLine)
	if err != nil {
		panic(err)
	}
}

func printUsage() {
	fmt.Print("usage: ./blobstore --config-type local --config-path configFile\n")
	fmt.Print("usage: ./blobstore --config-type aws --aws-region awsRegin --aws-secret-key awsSecretKey\n")
}

func loadConfig() *config.Config {
	configType := viper.GetString(config.FlagConfigType)
	if configType == "" {
		configType = os.Getenv(config.ConfigType)
	}
	if configType == "" {
		configType = config.LocalConfig
	}
	if configType != config.AWSConfig && configType != config.LocalConfig {
		printUsage()
		return nil
	}
	if configType == config.AWSConfig {
		awsSecretKey := viper.GetString(config.FlagConfigAwsSecretKey)
		awsRegion := viper.GetString(config.FlagConfigAwsRegion)
		if awsSecretKey == "" || awsRegion == "" {
			printUsage()
			return nil
		}
		configContent, err := config.GetSecret(awsSecretKey, awsRegion)
		if err != nil {
			fmt.Printf("get aws config error, err=%s", err.Error())
			return nil
		}
		return config.ParseConfigFromJson(configContent)
	}
	configFilePath := viper.GetString(config.FlagConfigPath)
	if configFilePath == "" {
		configFilePath = os.Getenv(config.ConfigFilePath)
		if configFilePath == "" {
			printUsage()
			return nil
		}
	}
	return config.ParseConfigFromFile(configFilePath)
}

func openStore(cfg *config.StoreConfig) blobstore.Store {
	switch cfg.StoreType {
	case config.StoreTypeNoop:
		return blobstore.NewNoopStore()
	case config.StoreTypeMemory:
		return blobstore.NewMemoryStore()
	default:
		mode := blobstore.OpenReindex
		if cfg.OpenMode == config.StoreOpenModeClear {
			mode = blobstore.OpenClear
		}
		store, err := blobstore.OpenDiskStore(blobstore.DiskStoreConfig{
			Dir:                 cfg.Dir,
			MaxCachedEntries:    cfg.GetMaxCachedEntries(),
			MaxConcurrentWrites: cfg.GetMaxConcurrentWrites(),
			OpenMode:            mode,
		})
		if err != nil {
			panic(fmt.Sprintf("open disk blob store error, err=%s", err.Error()))
		}
		return store
	}
}

func main() {
	initFlags()
	cfg := loadConfig()
	if cfg == nil {
		panic("failed to get configuration")
	}
	if password := viper.GetString(config.FlagConfigDbPass); password != "" {
		cfg.DBConfig.Password = password
	}
	logging.InitLogger(&cfg.LogConfig)

	store := openStore(&cfg.StoreConfig)

	var history blobstore.HistoryDB
	if cfg.TrackerConfig.PersistHistory {
		history = db.NewTrackerSvcDB(config.InitDBWithConfig(&cfg.DBConfig, true))
	}
	depth := cfg.TrackerConfig.GetFinalizationDepth()
	tracker := blobstore.NewCanonTracker(depth, history)
	if err := tracker.Restore(); err != nil {
		panic(fmt.Sprintf("restore canon tracker error, err=%s", err.Error()))
	}

	var follower *syncer.ChainFollower
	if len(cfg.SyncerConfig.ETHRPCAddrs) > 0 {
		client, err := syncer.DialFirst(cfg.SyncerConfig.ETHRPCAddrs)
		if err != nil {
			panic(fmt.Sprintf("dial eth client error, err=%s", err.Error()))
		}
		next := cfg.SyncerConfig.StartBlock
		if head, ok := tracker.Head(); ok && head+1 > next {
			next = head + 1
		}
		if next == 0 {
			latest, err := client.BlockNumber(context.Background())
			if err != nil {
				panic(fmt.Sprintf("get latest block error, err=%s", err.Error()))
			}
			next = latest
		}
		follower = syncer.NewChainFollower(client, tracker, store, next, depth+1)
		follower.OnReinsert(func(txs []common.Hash) {
			held, err := store.GetAll(txs)
			if err != nil {
				logging.Logger.Errorf("failed to look up reinserted sidecars, err=%s", err.Error())
				return
			}
			logging.Logger.Infof("blob txs un-included by reorg, txs=%d, sidecars held=%d", len(txs), len(held))
		})
		logging.Logger.Infof("following chain from block %d via %s", next, client.Endpoint())
	}

	if cfg.MetricsConfig.Enable {
		metrics.NewMetrics(cfg.MetricsConfig.GetHttpAddress()).Start()
	}
	if cfg.ServiceConfig.Enable {
		service.NewServer(cfg.ServiceConfig.GetHttpAddress(), service.NewBlobService(store)).Start()
		logging.Logger.Infof("serving blob service on %s", cfg.ServiceConfig.GetHttpAddress())
	}

	maintainer := syncer.NewMaintainer(store, tracker, follower, syncer.MaintainerConfig{
		CleanupInterval: cfg.StoreConfig.GetCleanupInterval(),
		PollInterval:    cfg.SyncerConfig.GetPollInterval(),
		MetricsInterval: cfg.MetricsConfig.GetRefreshInterval(),
	})
	maintainer.StartLoop()
	logging.Logger.Infof("blob store started, type=%s", cfg.StoreConfig.StoreType)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	maintainer.Stop()
	stat := maintainer.RunCleanup()
	logging.Logger.Infof("blob store stopped, final cleanup succeed=%d, failed=%d", stat.DeleteSucceed, stat.DeleteFailed)
}
