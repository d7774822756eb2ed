package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for hydra
type Config struct {
	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`

	Input struct {
		Format         string `mapstructure:"format"`
		ValidateSchema bool   `mapstructure:"validate_schema"`
		MaxSize        int64  `mapstructure:"max_size"`
	} `mapstructure:"input"`

	Discovery struct {
		ContinueOnError  bool   `mapstructure:"continue_on_error"`
		Visualize        bool   `mapstructure:"visualize"`
		OutputDir        string `mapstructure:"output_dir"`
		MinEdgeFrequency int    `mapstructure:"min_edge_frequency"`
	} `mapstructure:"discovery"`

	Storage struct {
		Enabled    bool   `mapstructure:"enabled"`
		SQLitePath string `mapstructure:"sqlite_path"`
	} `mapstructure:"storage"`

	Cache struct {
		Size  int           `mapstructure:"size"`
		TTL   time.Duration `mapstructure:"ttl"`
		Redis struct {
			Enabled  bool   `mapstructure:"enabled"`
			Addr     string `mapstructure:"addr"`
			Password string `mapstructure:"password"`
			DB       int    `mapstructure:"db"`
			PoolSize int    `mapstructure:"pool_size"`
		} `mapstructure:"redis"`
	} `mapstructure:"cache"`

	API struct {
		Host         string        `mapstructure:"host"`
		Port         int           `mapstructure:"port"`
		MaxBodySize  int64         `mapstructure:"max_body_size"`
		ReadTimeout  time.Duration `mapstructure:"read_timeout"`
		WriteTimeout time.Duration `mapstructure:"write_timeout"`
		RateLimit    struct {
			RequestsPerSecond float64 `mapstructure:"requests_per_second"`
			Burst             int     `mapstructure:"burst"`
		} `mapstructure:"rate_limit"`
	} `mapstructure:"api"`
}

func setDefaults() {
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "console")
	viper.SetDefault("input.format", "auto")
	viper.SetDefault("input.validate_schema", true)
	viper.SetDefault("input.max_size", 256*1024*1024) // 256MB
	viper.SetDefault("discovery.continue_on_error", false)
	viper.SetDefault("discovery.visualize", false)
	viper.SetDefault("discovery.output_dir", "./ocdfg")
	viper.SetDefault("discovery.min_edge_frequency", 1)
	viper.SetDefault("storage.enabled", false)
	viper.SetDefault("storage.sqlite_path", "./data/hydra.db")
	viper.SetDefault("cache.size", 128)
	viper.SetDefault("cache.ttl", 10*time.Minute)
	viper.SetDefault("cache.redis.enabled", false)
	viper.SetDefault("cache.redis.addr", "localhost:6379")
	viper.SetDefault("cache.redis.password", "")
	viper.SetDefault("cache.redis.db", 0)
	viper.SetDefault("cache.redis.pool_size", 10)
	viper.SetDefault("api.host", "0.0.0.0")
	viper.SetDefault("api.port", 8090)
	viper.SetDefault("api.max_body_size", 64*1024*1024) // 64MB
	viper.SetDefault("api.read_timeout", 30*time.Second)
	viper.SetDefault("api.write_timeout", 5*time.Minute)
	viper.SetDefault("api.rate_limit.requests_per_second", 5)
	viper.SetDefault("api.rate_limit.burst", 10)
}

func loadFromEnv() {
	viper.SetEnvPrefix("HYDRA")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}

// LoadConfig reads configuration from defaults, an optional YAML file and
// HYDRA_* environment variables, in increasing precedence. An empty path
// searches for hydra.yaml in the working directory and $HOME/.hydra.
func LoadConfig(path string) (*Config, error) {
	setDefaults()
	loadFromEnv()

	if path != "" {
		viper.SetConfigFile(path)
		if err := viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		viper.SetConfigName("hydra")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.hydra")
		if err := viper.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
			// no config file: defaults and env vars only
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

// ConfigFileUsed returns the path of the config file that was read, if any
func ConfigFileUsed() string {
	return viper.ConfigFileUsed()
}

func validateConfig(config *Config) error {
	switch strings.ToLower(config.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %q (must be debug, info, warn or error)", config.Log.Level)
	}
	switch config.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("invalid log format: %q (must be console or json)", config.Log.Format)
	}

	switch config.Input.Format {
	case "auto", "json", "msgpack":
	default:
		return fmt.Errorf("invalid input format: %q (must be auto, json or msgpack)", config.Input.Format)
	}
	if config.Input.MaxSize <= 0 {
		return fmt.Errorf("input max_size must be positive")
	}

	if config.Discovery.MinEdgeFrequency < 1 {
		return fmt.Errorf("discovery min_edge_frequency must be at least 1")
	}
	if config.Discovery.Visualize && config.Discovery.OutputDir == "" {
		return fmt.Errorf("discovery output_dir is required when visualize is enabled")
	}

	if config.Storage.Enabled && config.Storage.SQLitePath == "" {
		return fmt.Errorf("storage sqlite_path is required when storage is enabled")
	}

	if config.Cache.Size < 0 {
		return fmt.Errorf("cache size cannot be negative")
	}
	if config.Cache.Redis.Enabled {
		if config.Cache.Redis.Addr == "" {
			return fmt.Errorf("cache redis addr is required when redis is enabled")
		}
		if config.Cache.Redis.PoolSize <= 0 {
			return fmt.Errorf("cache redis pool_size must be positive")
		}
	}

	if config.API.Port < 1 || config.API.Port > 65535 {
		return fmt.Errorf("invalid API port: %d (must be 1-65535)", config.API.Port)
	}
	if config.API.MaxBodySize <= 0 {
		return fmt.Errorf("api max_body_size must be positive")
	}
	if config.API.RateLimit.RequestsPerSecond <= 0 || config.API.RateLimit.Burst <= 0 {
		return fmt.Errorf("api rate_limit requests_per_second and burst must be positive")
	}

	return nil
}
