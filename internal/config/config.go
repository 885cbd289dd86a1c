// Package config loads application configuration from file and environment.
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
	Gias GiasConfig `yaml:"gias" mapstructure:"gias"`
	Log  LogConfig  `yaml:"log" mapstructure:"log"`
}

// GiasConfig configures the GIAS extract downloads.
type GiasConfig struct {
	OutputDir         string  `yaml:"output_dir" mapstructure:"output_dir"`
	SizeAlertPercent  float64 `yaml:"size_alert_percent" mapstructure:"size_alert_percent"`
	BaseURL           string  `yaml:"base_url" mapstructure:"base_url"`
	DateFormat        string  `yaml:"date_format" mapstructure:"date_format"`
	UserAgent         string  `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs       int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	TemplatesFile     string  `yaml:"templates_file" mapstructure:"templates_file"`
	HistoryDB         string  `yaml:"history_db" mapstructure:"history_db"`
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
	v.SetEnvPrefix("GIAS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("gias.output_dir", "data")
	v.SetDefault("gias.size_alert_percent", 20)
	v.SetDefault("gias.base_url", "https://ea-edubase-api-prod.azurewebsites.net/edubase/downloads/public")
	v.SetDefault("gias.date_format", "20060102")
	v.SetDefault("gias.user_agent", "gias-data/1.0")
	v.SetDefault("gias.timeout_secs", 30)
	v.SetDefault("gias.requests_per_second", 5)
	v.SetDefault("gias.history_db", "")
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
