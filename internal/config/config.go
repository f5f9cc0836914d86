// Package config loads application configuration from file and
// environment and initializes the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Monday    MondayConfig    `yaml:"monday" mapstructure:"monday"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Roles     RolesConfig     `yaml:"roles" mapstructure:"roles"`
	Serve     ServeConfig     `yaml:"serve" mapstructure:"serve"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// MondayConfig holds monday.com API credentials and board IDs.
type MondayConfig struct {
	Token           string  `yaml:"token" mapstructure:"token"`
	BaseURL         string  `yaml:"base_url" mapstructure:"base_url"`
	APIVersion      string  `yaml:"api_version" mapstructure:"api_version"`
	WorkOrdersBoard string  `yaml:"work_orders_board" mapstructure:"work_orders_board"`
	DealsBoard      string  `yaml:"deals_board" mapstructure:"deals_board"`
	RateLimit       float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	PageLimit       int     `yaml:"page_limit" mapstructure:"page_limit"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// StoreConfig configures the snapshot database backend.
type StoreConfig struct {
	Driver string `yaml:"driver" mapstructure:"driver"`
	DSN    string `yaml:"dsn" mapstructure:"dsn"`
}

// RolesConfig points at an optional role configuration file. When Path
// is empty the compiled-in default role set is used.
type RolesConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ServeConfig configures the HTTP API server.
type ServeConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("BOARDPULSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("monday.base_url", "https://api.monday.com/v2")
	v.SetDefault("monday.api_version", "2023-10")
	v.SetDefault("monday.rate_limit", 5)
	v.SetDefault("monday.page_limit", 100)
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_tokens", 2048)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.dsn", "boardpulse.db")
	v.SetDefault("serve.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
