// Package config loads the server configuration from file and environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the server configuration.
type Config struct {
	HTTP struct {
		Addr string `mapstructure:"addr"`
	} `mapstructure:"http"`
	DB struct {
		DSN string `mapstructure:"dsn"`
	} `mapstructure:"db"`
	Engine struct {
		Workers          int    `mapstructure:"workers"`
		RetryDelay       string `mapstructure:"retry_delay"`
		ApprovalTTL      string `mapstructure:"approval_ttl"`
		RecentExecutions int    `mapstructure:"recent_executions"`
	} `mapstructure:"engine"`
	Tracing struct {
		Enable     bool   `mapstructure:"enable"`
		OutputFile string `mapstructure:"output_file"`
	} `mapstructure:"tracing"`
}

// Load reads the configuration, merging file values with AGENTSPACE_*
// environment variables. A missing config file is not an error; defaults and
// the environment then fully describe the setup.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}
	v.SetEnvPrefix("AGENTSPACE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("engine.workers", 5)
	v.SetDefault("engine.retry_delay", "1s")
	v.SetDefault("engine.recent_executions", 10)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &config, nil
}

// EngineConfig converts the serialisable engine section into the typed form.
func (c *Config) EngineConfig() (retryDelay, approvalTTL time.Duration, err error) {
	if c.Engine.RetryDelay != "" {
		if retryDelay, err = time.ParseDuration(c.Engine.RetryDelay); err != nil {
			return 0, 0, fmt.Errorf("engine.retry_delay: %w", err)
		}
	}
	if c.Engine.ApprovalTTL != "" {
		if approvalTTL, err = time.ParseDuration(c.Engine.ApprovalTTL); err != nil {
			return 0, 0, fmt.Errorf("engine.approval_ttl: %w", err)
		}
	}
	return retryDelay, approvalTTL, nil
}
