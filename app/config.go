package app

import (
	"flag"
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/bnb-chain/keys-hub/config"
)

func InitFlags() {
	flag.String(config.FlagConfigPath, "", "config file path")
	flag.String(config.FlagConfigType, "", "config type, local or aws")
	flag.String(config.FlagConfigAwsRegion, "", "aws region")
	flag.String(config.FlagConfigAwsSecretKey, "", "aws secret key")
	flag.String(config.FlagConfigDbPass, "", "db password")

	pflag.CommandLine.AddGoFlagSet(flag.CommandLine)
	pflag.Parse()
	if err := viper.BindPFlags(pflag.CommandLine); err != nil {
		panic(err)
	}
}

func PrintUsage(bin string) {
	fmt.Printf("usage: ./%s --config-type local --config-path configFile\n", bin)
	fmt.Printf("usage: ./%s --config-type aws --aws-region awsRegion --aws-secret-key awsSecretKey\n", bin)
}

// LoadConfig reads the config from a local file or from AWS Secrets Manager, falling back to env
// variables for unset flags. It returns nil when the flags are incomplete.
func LoadConfig() *config.Config {
	configType := viper.GetString(config.FlagConfigType)
	if configType == "" {
		configType = os.Getenv(config.EnvVarConfigType)
	}
	if configType == "" {
		configType = config.LocalConfig
	}

	switch configType {
	case config.AWSConfig:
		awsSecretKey := viper.GetString(config.FlagConfigAwsSecretKey)
		awsRegion := viper.GetString(config.FlagConfigAwsRegion)
		if awsSecretKey == "" || awsRegion == "" {
			return nil
		}
		configContent, err := config.GetSecret(awsSecretKey, awsRegion)
		if err != nil {
			fmt.Printf("get aws config error, err=%s\n", err.Error())
			return nil
		}
		return config.ParseConfigFromJson(configContent)
	case config.LocalConfig:
		configFilePath := viper.GetString(config.FlagConfigPath)
		if configFilePath == "" {
			configFilePath = os.Getenv(config.EnvVarConfigFilePath)
		}
		if configFilePath == "" {
			return nil
		}
		return config.ParseConfigFromFile(configFilePath)
	default:
		return nil
	}
}
