package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the top-level squadpulse configuration.
type Config struct {
	DBPath   string   `mapstructure:"db_path"`
	Dataset  string   `mapstructure:"dataset"`
	Log      Log      `mapstructure:"log"`
	History  History  `mapstructure:"history"`
	Engine   Engine   `mapstructure:"engine"`
	Coverage Coverage `mapstructure:"coverage"`
	Cache    Cache    `mapstructure:"cache"`
	Output   Output   `mapstructure:"output"`
}

// Log defines logging preferences.
type Log struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// History bounds the number of sessions fetched per analysis.
type History struct {
	OptimalLimit  int `mapstructure:"optimal_limit"`
	CohesionLimit int `mapstructure:"cohesion_limit"`
	HealthLimit   int `mapstructure:"health_limit"`
}

// Engine defines analysis timeouts and report concurrency.
type Engine struct {
	Timeout time.Duration `mapstructure:"timeout"`
	Workers int           `mapstructure:"workers"`
}

// Coverage defines the availability look-ahead.
type Coverage struct {
	HorizonDays int `mapstructure:"horizon_days"`
}

// Cache configures the optional Redis read-through cache.
type Cache struct {
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	TTL           time.Duration `mapstructure:"ttl"`
}

// Output defines output preferences.
type Output struct {
	Color bool `mapstructure:"color"`
	Width int  `mapstructure:"width"`
}

// expandPath replaces a leading ~ with the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// Load reads configuration from the given path (or the default location)
// and returns a Config with all defaults applied. Environment variables
// prefixed with SQUADPULSE_ override file values.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("db_path", filepath.Join(DefaultConfigDir, DefaultDBName))
	v.SetDefault("dataset", "")
	v.SetDefault("log.level", DefaultLog.Level)
	v.SetDefault("log.json", DefaultLog.JSON)
	v.SetDefault("history.optimal_limit", DefaultHistory.OptimalLimit)
	v.SetDefault("history.cohesion_limit", DefaultHistory.CohesionLimit)
	v.SetDefault("history.health_limit", DefaultHistory.HealthLimit)
	v.SetDefault("engine.timeout", DefaultEngine.Timeout)
	v.SetDefault("engine.workers", DefaultEngine.Workers)
	v.SetDefault("coverage.horizon_days", DefaultCoverage.HorizonDays)
	v.SetDefault("cache.redis_addr", DefaultCache.RedisAddr)
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.ttl", DefaultCache.TTL)
	v.SetDefault("output.color", DefaultOutput.Color)
	v.SetDefault("output.width", DefaultOutput.Width)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(expandPath(cfgFile))
	} else {
		v.AddConfigPath(ConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// Missing file is not an error.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if !os.IsNotExist(err) {
				return nil, err
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.DBPath = expandPath(cfg.DBPath)
	cfg.Dataset = expandPath(cfg.Dataset)

	return &cfg, nil
}

// DBPath returns the default full path to the SQLite database.
func DBPath() string {
	return filepath.Join(expandPath(DefaultConfigDir), DefaultDBName)
}

// ConfigDir returns the expanded configuration directory.
func ConfigDir() string {
	return expandPath(DefaultConfigDir)
}
