// Package config resolves runtime settings from, in order of precedence,
// command-line flags, LEDGER_BRIDGE_* environment variables, and an
// optional YAML config file. A .env file in the working directory is
// loaded into the environment first.
package config

import (
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

const envPrefix = "LEDGER_BRIDGE"

type Config struct {
	InFormat       string `mapstructure:"in-format"`
	OutFormat      string `mapstructure:"out-format"`
	CSVLayout      string `mapstructure:"csv-layout"`
	DialectProfile string `mapstructure:"dialect-profile"`
	LogLevel       string `mapstructure:"log-level"`
}

// Build loads the configuration. cfgFile may be empty, in which case
// config.yaml in the working directory is used when present.
func Build(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	_ = gotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("in-format", "csv")
	v.SetDefault("out-format", "camt053")
	v.SetDefault("csv-layout", "simple")
	v.SetDefault("dialect-profile", "")
	v.SetDefault("log-level", "info")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, err
			}
		}
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
