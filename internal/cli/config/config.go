package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Transports accepted by server.transport.
const (
	TransportStdio     = "stdio"
	TransportTCP       = "tcp"
	TransportWebSocket = "ws"
)

// Config represents the mockls configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
	Fixture FixtureConfig `mapstructure:"fixture"`
	Journal JournalConfig `mapstructure:"journal"`
	Launch  LaunchConfig  `mapstructure:"launch"`
}

// ServerConfig selects the transport the language server listens on
type ServerConfig struct {
	Transport   string        `mapstructure:"transport"`
	Addr        string        `mapstructure:"addr"`
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
	WSPath      string        `mapstructure:"ws_path"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// FixtureConfig points at an optional JSON fixture applied at startup
type FixtureConfig struct {
	Path  string `mapstructure:"path"`
	Watch bool   `mapstructure:"watch"`
}

// JournalConfig enables the Redis event journal when RedisAddr is set
type JournalConfig struct {
	RedisAddr string `mapstructure:"redis_addr"`
	Key       string `mapstructure:"key"`
}

// LaunchConfig represents launch descriptor storage
type LaunchConfig struct {
	Store       string `mapstructure:"store"`
	ContentType string `mapstructure:"content_type"`
}

// Load loads the configuration from mockls.yml or mockls.yaml in the current
// directory. MOCKLS_* environment variables override file values.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("server.transport", TransportStdio)
	v.SetDefault("server.addr", "127.0.0.1:7658")
	v.SetDefault("server.idle_timeout", time.Duration(0))
	v.SetDefault("server.ws_path", "/lsp")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
	v.SetDefault("fixture.path", "")
	v.SetDefault("fixture.watch", false)
	v.SetDefault("journal.redis_addr", "")
	v.SetDefault("journal.key", "mockls:events")
	v.SetDefault("launch.store", DefaultStorePath())
	v.SetDefault("launch.content_type", "mockls.test.content-type")

	v.SetConfigName("mockls")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("MOCKLS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// DefaultStorePath is where launch descriptors live unless configured.
func DefaultStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".mockls", "launches.yaml")
	}
	return filepath.Join(dir, "mockls", "launches.yaml")
}

// NewLogger builds a zap logger writing to stderr. Stdout is reserved for
// the stdio transport.
func NewLogger(cfg LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log.level: %w", err)
	}

	var zapConfig zap.Config
	if cfg.Development {
		zapConfig = zap.NewDevelopmentConfig()
		zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zapConfig = zap.NewProductionConfig()
		zapConfig.EncoderConfig.TimeKey = "timestamp"
		zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	zapConfig.Level = zap.NewAtomicLevelAt(level)
	zapConfig.OutputPaths = []string{"stderr"}
	zapConfig.ErrorOutputPaths = []string{"stderr"}

	return zapConfig.Build()
}

// Validate checks cfg after flags have overridden loaded values.
func (c *Config) Validate() error {
	return validateConfig(c)
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	switch cfg.Server.Transport {
	case TransportStdio, TransportTCP, TransportWebSocket:
	default:
		return fmt.Errorf("server.transport must be one of stdio, tcp, ws, got: %s", cfg.Server.Transport)
	}

	if cfg.Server.Transport != TransportStdio && cfg.Server.Addr == "" {
		return fmt.Errorf("server.addr is required for the %s transport", cfg.Server.Transport)
	}

	if !strings.HasPrefix(cfg.Server.WSPath, "/") {
		return fmt.Errorf("server.ws_path must start with '/', got: %s", cfg.Server.WSPath)
	}

	if cfg.Server.IdleTimeout < 0 {
		return fmt.Errorf("server.idle_timeout must not be negative, got: %s", cfg.Server.IdleTimeout)
	}

	if cfg.Fixture.Watch && cfg.Fixture.Path == "" {
		return fmt.Errorf("fixture.watch requires fixture.path")
	}

	if _, err := zapcore.ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}
