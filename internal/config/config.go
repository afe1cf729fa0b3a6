// Package config loads application configuration from config.yaml and
// TECHINDEX_-prefixed environment variables.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/techindex-cli/internal/density"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Data     DataConfig     `yaml:"data" mapstructure:"data"`
	Places   PlacesConfig   `yaml:"places" mapstructure:"places"`
	Density  DensityConfig  `yaml:"density" mapstructure:"density"`
	Facility FacilityConfig `yaml:"facility" mapstructure:"facility"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the sink database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
}

// DataConfig locates the artifact directory.
type DataConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// PlacesConfig holds the place-lookup API settings.
type PlacesConfig struct {
	Key     string  `yaml:"key" mapstructure:"key"`
	BaseURL string  `yaml:"base_url" mapstructure:"base_url"`
	QPS     float64 `yaml:"qps" mapstructure:"qps"`
	Workers int     `yaml:"workers" mapstructure:"workers"`
}

// DensityConfig holds the density-filter knobs. The defaults are the
// reference policy; overriding them is an operator action.
type DensityConfig struct {
	RangeMin     int     `yaml:"range_min" mapstructure:"range_min"`
	RangeMax     int     `yaml:"range_max" mapstructure:"range_max"`
	MinActive    int     `yaml:"min_active" mapstructure:"min_active"`
	SoftMinRatio float64 `yaml:"soft_min_ratio" mapstructure:"soft_min_ratio"`
	MaxOut       int     `yaml:"max_out" mapstructure:"max_out"`
}

// FacilityConfig configures the facility merge stage.
type FacilityConfig struct {
	BrandsFile string `yaml:"brands_file" mapstructure:"brands_file"`
}

// ServerConfig configures the read API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from config.yaml (optional) and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("TECHINDEX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.sqlite_path", "techindex.db")
	v.SetDefault("data.dir", "data")
	v.SetDefault("places.base_url", "https://places.googleapis.com/v1")
	v.SetDefault("places.qps", 5.0)
	v.SetDefault("places.workers", 4)
	v.SetDefault("density.range_min", 2)
	v.SetDefault("density.range_max", 7)
	v.SetDefault("density.min_active", 2)
	v.SetDefault("density.soft_min_ratio", 0.0)
	v.SetDefault("density.max_out", 800)
	v.SetDefault("server.port", 8080)
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

// Knobs converts the density section to filter gate parameters.
func (c DensityConfig) Knobs() density.Knobs {
	return density.Knobs{
		RangeMin:     c.RangeMin,
		RangeMax:     c.RangeMax,
		MinActive:    c.MinActive,
		SoftMinRatio: c.SoftMinRatio,
		MaxOut:       c.MaxOut,
	}
}

// Validate checks that configuration required for the given mode is present.
// Modes: "pipeline" (artifact-writing commands), "places" (external lookups),
// "sink" (store access), "serve" (read API).
func (c *Config) Validate(mode string) error {
	var problems []string

	check := func(cond bool, msg string) {
		if !cond {
			problems = append(problems, msg)
		}
	}

	switch mode {
	case "pipeline":
		check(c.Data.Dir != "", "data.dir is required")
		check(c.Density.MinActive >= 0, "density.min_active must be >= 0")
		check(c.Density.MaxOut > 0, "density.max_out must be > 0")
		check(c.Density.SoftMinRatio >= 0 && c.Density.SoftMinRatio <= 1,
			"density.soft_min_ratio must be between 0 and 1")
	case "places":
		check(c.Places.Key != "", "places.key is required")
		check(c.Places.QPS > 0, "places.qps must be > 0")
		check(c.Places.Workers > 0 && c.Places.Workers <= 32,
			"places.workers must be between 1 and 32")
	case "sink":
		switch c.Store.Driver {
		case "sqlite":
			check(c.Store.SQLitePath != "", "store.sqlite_path is required")
		case "postgres":
			check(c.Store.DatabaseURL != "", "store.database_url is required")
		default:
			problems = append(problems, "store.driver must be sqlite or postgres")
		}
	case "serve":
		check(c.Server.Port > 0, "server.port must be > 0")
		check(c.Data.Dir != "", "data.dir is required")
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger configures the global zap logger.
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
