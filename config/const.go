package config

const (
	FlagConfigPath         = "config-path"
	FlagConfigType         = "config-type"
	FlagConfigAwsRegion    = "aws-region"
	FlagConfigAwsSecretKey = "aws-secret-key"
	FlagConfigDbPass       = "db-pass"

	DBDialectMysql   = "mysql"
	DBDialectSqlite3 = "sqlite3"

	LocalConfig = "local"
	AWSConfig   = "aws"

	KeyTypeLocal  = "local"
	KeyTypeAWSKey = "aws"

	EnvVarConfigFilePath = "CONFIG_FILE_PATH"
	EnvVarConfigType     = "CONFIG_TYPE"
	EnvVarDBUserPass     = "DB_PASSWORD"
	EnvVarProvidersUrls  = "PROVIDERS_URLS"
	EnvVarChainId        = "CHAIN_ID"

	DefaultSyncIntervalSeconds = 5
	DefaultMaxParallelModules  = 1
	DefaultKeysBatchSize       = 1100
	DefaultFinalizedBlockTag   = "finalized"
	DefaultServerAddress       = "0.0.0.0:3000"
	DefaultCacheType           = "local"
	DefaultCacheSize           = 1024
)
