// Package config loads and validates promokeeper configuration via Viper.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/promopipe/promokeeper/internal/policy"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Paths     PathsConfig     `mapstructure:"paths"`
	Retention RetentionConfig `mapstructure:"retention"`
	Serve     ServeConfig     `mapstructure:"serve"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// PathsConfig fixes the directory layout shared with the scraper and
// processor jobs.
type PathsConfig struct {
	OutputRoot  string `mapstructure:"output_root"`
	ArchiveRoot string `mapstructure:"archive_root"`
	LogRoot     string `mapstructure:"log_root"`
	LockFile    string `mapstructure:"lock_file"`
}

// RetentionConfig holds the age thresholds, in days.
type RetentionConfig struct {
	ArchiveAfterDays         int `mapstructure:"archive_after_days"`
	CompressAfterDays        int `mapstructure:"compress_after_days"`
	PurgeCompressedAfterDays int `mapstructure:"purge_compressed_after_days"`
	PurgeLogAfterDays        int `mapstructure:"purge_log_after_days"`
}

// ServeConfig controls the long-running serve mode.
type ServeConfig struct {
	Port        int    `mapstructure:"port"`
	Schedule    string `mapstructure:"schedule"`
	WatchOutput bool   `mapstructure:"watch_output"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PROMOKEEPER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	bindFlatEnv(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("paths.output_root", "output")
	v.SetDefault("paths.archive_root", "archive")
	v.SetDefault("paths.log_root", "logs")
	v.SetDefault("paths.lock_file", "promokeeper.lock")
	v.SetDefault("retention.archive_after_days", 7)
	v.SetDefault("retention.compress_after_days", 30)
	v.SetDefault("retention.purge_compressed_after_days", 90)
	v.SetDefault("retention.purge_log_after_days", 30)
	v.SetDefault("serve.port", 8080)
	v.SetDefault("serve.schedule", "0 4 * * *")
	v.SetDefault("serve.watch_output", true)
	v.SetDefault("logging.development", false)
}

// bindFlatEnv keeps honoring the flat variable names the cron-era scripts
// were configured with, alongside the prefixed forms AutomaticEnv provides.
func bindFlatEnv(v *viper.Viper) {
	_ = v.BindEnv("retention.archive_after_days",
		"PROMOKEEPER_RETENTION_ARCHIVE_AFTER_DAYS", "ARCHIVE_AFTER_DAYS")
	_ = v.BindEnv("retention.compress_after_days",
		"PROMOKEEPER_RETENTION_COMPRESS_AFTER_DAYS", "COMPRESS_AFTER_DAYS")
	_ = v.BindEnv("retention.purge_compressed_after_days",
		"PROMOKEEPER_RETENTION_PURGE_COMPRESSED_AFTER_DAYS", "PURGE_COMPRESSED_AFTER_DAYS")
	_ = v.BindEnv("retention.purge_log_after_days",
		"PROMOKEEPER_RETENTION_PURGE_LOG_AFTER_DAYS", "PURGE_LOG_AFTER_DAYS")
}

// Validate enforces required values and reasonable limits. Threshold errors
// are fatal before any filesystem entry is touched.
func (c Config) Validate() error {
	if c.Paths.OutputRoot == "" {
		return fmt.Errorf("paths.output_root must be set")
	}
	if c.Paths.ArchiveRoot == "" {
		return fmt.Errorf("paths.archive_root must be set")
	}
	if c.Paths.LogRoot == "" {
		return fmt.Errorf("paths.log_root must be set")
	}
	if c.Serve.Port <= 0 {
		return fmt.Errorf("serve.port must be > 0")
	}
	if err := c.Thresholds().Validate(); err != nil {
		return fmt.Errorf("invalid retention config: %w", err)
	}
	return nil
}

// Thresholds converts the retention section into the policy engine's type.
func (c Config) Thresholds() policy.Thresholds {
	return policy.Thresholds{
		ArchiveAfterDays:         c.Retention.ArchiveAfterDays,
		CompressAfterDays:        c.Retention.CompressAfterDays,
		PurgeCompressedAfterDays: c.Retention.PurgeCompressedAfterDays,
		PurgeLogAfterDays:        c.Retention.PurgeLogAfterDays,
	}
}
