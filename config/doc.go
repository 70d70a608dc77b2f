// Package config provides configuration loading and validation for datakit
// pipelines.
//
// It uses Viper to load configuration from files and environment variables,
// with .env support via godotenv. Projects embed BaseConfig in their own
// config structs and load them with LoadConfig.
//
// # Usage
//
//	type TrainConfig struct {
//	    config.BaseConfig `yaml:",inline" mapstructure:",squash"`
//	    Source datasource.Config `yaml:"source" mapstructure:"source"`
//	}
//	var cfg TrainConfig
//	err := config.LoadConfig("train", &cfg)
package config
