package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"

	"github.com/bnb-chain/keys-hub/util"
)

type Config struct {
	LogConfig     LogConfig     `json:"log_config"`
	DBConfig      DBConfig      `json:"db_config"`
	SyncerConfig  SyncerConfig  `json:"syncer_config"`
	ServerConfig  ServerConfig  `json:"server_config"`
	CacheConfig   CacheConfig   `json:"cache_config"`
	MetricsConfig MetricsConfig `json:"metrics_config"`
}

func (cfg *Config) Validate() {
	cfg.LogConfig.Validate()
	cfg.DBConfig.Validate()
	cfg.SyncerConfig.Validate()
	cfg.CacheConfig.Validate()
}

// ApplyEnv overrides file values with the ones set in the environment.
func (cfg *Config) ApplyEnv() {
	if urls := util.SplitByComma(os.Getenv(EnvVarProvidersUrls)); len(urls) != 0 {
		cfg.SyncerConfig.ProvidersUrls = urls
	}
	if chainId := os.Getenv(EnvVarChainId); chainId != "" {
		id, err := util.StringToUint64(chainId)
		if err != nil {
			panic(fmt.Sprintf("invalid %s %q", EnvVarChainId, chainId))
		}
		cfg.SyncerConfig.ChainId = id
	}
}

type SyncerConfig struct {
	ProvidersUrls       []string `json:"providers_urls"`        // ProvidersUrls is a list of execution layer JSON-RPC endpoints
	ChainId             uint64   `json:"chain_id"`              // ChainId is checked against the connected provider on start
	LocatorAddress      string   `json:"locator_address"`       // LocatorAddress is the LidoLocator contract the module list is discovered from
	SyncIntervalSeconds uint64   `json:"sync_interval_seconds"` // SyncIntervalSeconds is the period of the sync cycle
	ModuleTypeById      bool     `json:"module_type_by_id"`     // ModuleTypeById derives module types from module ids instead of reading getType()
	MaxParallelModules  int      `json:"max_parallel_modules"`
	KeysBatchSize       uint64   `json:"keys_batch_size"` // KeysBatchSize is the number of keys read per getSigningKeys call
	FinalizedBlockTag   string   `json:"finalized_block_tag"`
}

func (cfg *SyncerConfig) Validate() {
	if len(cfg.ProvidersUrls) == 0 {
		panic("providers_urls should not be empty")
	}
	if !common.IsHexAddress(cfg.LocatorAddress) {
		panic(fmt.Sprintf("locator_address %q is not a valid address", cfg.LocatorAddress))
	}
	if cfg.MaxParallelModules < 0 {
		panic("max_parallel_modules should not be negative")
	}
}

func (cfg *SyncerConfig) GetSyncIntervalSeconds() uint64 {
	if cfg.SyncIntervalSeconds != 0 {
		return cfg.SyncIntervalSeconds
	}
	return DefaultSyncIntervalSeconds
}

func (cfg *SyncerConfig) GetMaxParallelModules() int {
	if cfg.MaxParallelModules != 0 {
		return cfg.MaxParallelModules
	}
	return DefaultMaxParallelModules
}

func (cfg *SyncerConfig) GetKeysBatchSize() uint64 {
	if cfg.KeysBatchSize != 0 {
		return cfg.KeysBatchSize
	}
	return DefaultKeysBatchSize
}

func (cfg *SyncerConfig) GetFinalizedBlockTag() string {
	if cfg.FinalizedBlockTag != "" {
		return cfg.FinalizedBlockTag
	}
	return DefaultFinalizedBlockTag
}

type ServerConfig struct {
	Address    string `json:"address"`
	AppVersion string `json:"app_version"`
}

func (cfg *ServerConfig) GetAddress() string {
	if cfg.Address != "" {
		return cfg.Address
	}
	return DefaultServerAddress
}

type CacheConfig struct {
	CacheType string `json:"cache_type"`
	CacheSize uint64 `json:"cache_size"`
}

func (cfg *CacheConfig) Validate() {
	if cfg.CacheType != "" && cfg.CacheType != DefaultCacheType {
		panic("currently only local cache is supported")
	}
}

func (cfg *CacheConfig) GetCacheSize() uint64 {
	if cfg.CacheSize != 0 {
		return cfg.CacheSize
	}
	return DefaultCacheSize
}

type MetricsConfig struct {
	Enable      bool   `json:"enable"`
	HttpAddress string `json:"http_address"`
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
	DebugMode     bool   `json:"debug_mode"`
}

func (cfg *DBConfig) Validate() {
	if cfg.Dialect != DBDialectMysql && cfg.Dialect != DBDialectSqlite3 {
		panic(fmt.Sprintf("only %s and %s supported", DBDialectMysql, DBDialectSqlite3))
	}
	if cfg.Dialect == DBDialectMysql && (cfg.Username == "" || cfg.Url == "") {
		panic("db config is not correct, missing username and/or url")
	}
	if cfg.Dialect == DBDialectSqlite3 && cfg.Url == "" {
		panic("db config is not correct, missing url")
	}
	if cfg.KeyType == KeyTypeAWSKey && (cfg.AWSRegion == "" || cfg.AWSSecretName == "") {
		panic("aws_region and aws_secret_name are required when key_type is aws")
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

func ParseConfigFromJson(content string) *Config {
	var config Config
	if err := json.Unmarshal([]byte(content), &config); err != nil {
		panic(err)
	}
	config.ApplyEnv()
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
