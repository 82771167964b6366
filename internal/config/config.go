// Package config provides configuration management for signalgraph using Viper.
// It supports configuration from files, environment variables, and defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Default configuration values.
const (
	defaultAllocatorCapacity  = 8
	defaultAllocatorBaseSize  = 1 << 20 // 1MB
	defaultSchedulerHorizon   = 500 * time.Millisecond
	defaultRectifierTolerance = 2 * time.Millisecond
	defaultRectifierMaxDrift  = 100 * time.Millisecond
	defaultSegmentDuration    = 4 * time.Second
	defaultTimeShiftDepth     = 5 * time.Minute
)

// Config holds all configuration for the application.
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Rectifier RectifierConfig `mapstructure:"rectifier"`
	Packager  PackagerConfig  `mapstructure:"packager"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`  // debug, info, warn, error
	Format     string `mapstructure:"format"` // json, text
	AddSource  bool   `mapstructure:"add_source"`
	TimeFormat string `mapstructure:"time_format"`
}

// PipelineConfig holds dataflow graph runtime configuration: how its
// allocator pools are sized.
type PipelineConfig struct {
	AllocatorCapacity int      `mapstructure:"allocator_capacity"`
	AllocatorBaseSize ByteSize `mapstructure:"allocator_base_size"`
	AllocatorMaxSize  ByteSize `mapstructure:"allocator_max_size"`
}

// RectifierConfig holds sample-accurate sync tuning for the time rectifier.
type RectifierConfig struct {
	// SchedulerHorizon is loaded and defaulted here as a scheduler
	// look-ahead bound; neither scheduler in internal/dataflow/clock
	// reads it.
	SchedulerHorizon Duration `mapstructure:"scheduler_horizon"`
	// Tolerance is the acceptable drift between a stream's reported and
	// expected presentation time before it is corrected.
	Tolerance Duration `mapstructure:"tolerance"`
	// MaxDrift is the drift beyond which a stream is treated as a
	// discontinuity rather than nudged back into alignment.
	MaxDrift Duration `mapstructure:"max_drift"`
}

// PackagerConfig holds adaptive-streaming packaging configuration.
type PackagerConfig struct {
	SegmentDuration      Duration `mapstructure:"segment_duration"`
	TimeShiftBufferDepth Duration `mapstructure:"time_shift_buffer_depth"`
	Live                 bool     `mapstructure:"live"`
	ManifestName         string   `mapstructure:"manifest_name"`
	ManifestDir          string   `mapstructure:"manifest_dir"`
}

// Load reads configuration from file and environment variables.
// Environment variables take precedence over file configuration.
// Environment variables are prefixed with SIGNALGRAPH_ and use underscores
// for nesting. Example: SIGNALGRAPH_PACKAGER_SEGMENT_DURATION=6s.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	SetDefaults(v)

	// Config file settings
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/signalgraph")
		v.AddConfigPath("$HOME/.signalgraph")
	}

	// Environment variable settings
	v.SetEnvPrefix("SIGNALGRAPH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Config file not found is OK - we'll use defaults and env vars
	}

	var cfg Config
	decodeHook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		mapstructure.TextUnmarshallerHookFunc(),
	))
	if err := v.Unmarshal(&cfg, decodeHook); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// SetDefaults configures default values for all configuration options.
// This should be called before reading the config file to ensure defaults are in place.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	v.SetDefault("pipeline.allocator_capacity", defaultAllocatorCapacity)
	v.SetDefault("pipeline.allocator_base_size", int64(defaultAllocatorBaseSize))
	v.SetDefault("pipeline.allocator_max_size", int64(defaultAllocatorBaseSize))

	v.SetDefault("rectifier.scheduler_horizon", defaultSchedulerHorizon)
	v.SetDefault("rectifier.tolerance", defaultRectifierTolerance)
	v.SetDefault("rectifier.max_drift", defaultRectifierMaxDrift)

	v.SetDefault("packager.segment_duration", defaultSegmentDuration)
	v.SetDefault("packager.time_shift_buffer_depth", defaultTimeShiftDepth)
	v.SetDefault("packager.live", true)
	v.SetDefault("packager.manifest_name", "manifest.mpd")
	v.SetDefault("packager.manifest_dir", "")
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	if c.Pipeline.AllocatorCapacity < 1 {
		return fmt.Errorf("pipeline.allocator_capacity must be at least 1")
	}
	if c.Pipeline.AllocatorBaseSize <= 0 {
		return fmt.Errorf("pipeline.allocator_base_size must be positive")
	}

	if c.Rectifier.Tolerance.Duration() < 0 {
		return fmt.Errorf("rectifier.tolerance must not be negative")
	}
	if c.Rectifier.MaxDrift.Duration() < c.Rectifier.Tolerance.Duration() {
		return fmt.Errorf("rectifier.max_drift must be at least rectifier.tolerance")
	}

	if c.Packager.SegmentDuration.Duration() <= 0 {
		return fmt.Errorf("packager.segment_duration must be positive")
	}

	return nil
}
