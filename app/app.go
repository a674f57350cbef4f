package app

import (
	"context"
	"os"

	"github.com/spf13/viper"

	"github.com/bnb-chain/keys-hub/cache"
	"github.com/bnb-chain/keys-hub/config"
	syncerdb "github.com/bnb-chain/keys-hub/db"
	"github.com/bnb-chain/keys-hub/external"
	"github.com/bnb-chain/keys-hub/logging"
	"github.com/bnb-chain/keys-hub/metrics"
	"github.com/bnb-chain/keys-hub/syncer"
)

// App holds the components shared by the keys-hub and keys-syncer binaries.
type App struct {
	Config *config.Config
	DB     *syncerdb.RegistrySvcDB
	Syncer *syncer.RegistrySyncer
}

// New connects storage and the execution layer client. It panics on startup failures.
func New(ctx context.Context, cfg *config.Config) *App {
	logging.InitLogger(&cfg.LogConfig)

	cfg.DBConfig.Password = dbPassword(&cfg.DBConfig)
	db := config.InitDBWithConfig(&cfg.DBConfig)
	syncerdb.AutoMigrateDB(db)
	dao := syncerdb.NewRegistrySvcDB(db)

	var headers cache.Cache
	switch cfg.CacheConfig.CacheType {
	case "", config.DefaultCacheType:
		var err error
		headers, err = cache.NewLocalCache("block_headers", cfg.CacheConfig.GetCacheSize())
		if err != nil {
			panic(err)
		}
	default:
		panic("currently only local cache is supported")
	}
	client := external.NewClient(&cfg.SyncerConfig, headers)

	rs := syncer.NewRegistrySyncer(dao, client, &cfg.SyncerConfig)
	if err := rs.CheckChainId(ctx); err != nil {
		panic(err)
	}

	if cfg.MetricsConfig.Enable {
		metrics.NewMetrics(cfg.MetricsConfig.HttpAddress).Start()
	}
	return &App{Config: cfg, DB: dao, Syncer: rs}
}

func dbPassword(cfg *config.DBConfig) string {
	if password := viper.GetString(config.FlagConfigDbPass); password != "" {
		return password
	}
	if password := os.Getenv(config.EnvVarDBUserPass); password != "" {
		return password
	}
	return config.GetDBPass(cfg)
}
