// Package config provides configuration loading and validation for intervalidx.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"
)

var (
	ErrInvalidPort        = errors.New("invalid server port")
	ErrInvalidIndexName   = errors.New("index name must not be empty")
	ErrInvalidDatasetSize = errors.New("invalid max dataset size")
	ErrInvalidMaxResults  = errors.New("max results must be positive")
	ErrInvalidLogFormat   = errors.New("log format must be text or json")
	ErrInvalidSampleRatio = errors.New("sample ratio must be within [0, 1]")
)

const (
	envPrefix      = "INTERVALIDX"
	configFileName = "intervalidx"
	maxPort        = 65535

	// LogFormatText selects human-readable log lines.
	LogFormatText = "text"
	// LogFormatJSON selects JSON log lines.
	LogFormatJSON = "json"
)

// Config holds all configuration for intervalidx.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Index     IndexConfig     `mapstructure:"index"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	Port            int           `mapstructure:"port"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// IndexConfig holds index configuration.
type IndexConfig struct {
	// Name labels the index in logs, metrics and API responses.
	Name string `mapstructure:"name"`
	// Dataset is a file loaded at startup. Empty starts with an empty index.
	Dataset string `mapstructure:"dataset"`
	// MaxDatasetSize bounds the decompressed dataset size, e.g. "64MB".
	MaxDatasetSize string `mapstructure:"max_dataset_size"`
	// MaxResults caps the number of matches returned by one overlap query.
	MaxResults int `mapstructure:"max_results"`
}

// MaxDatasetBytes parses MaxDatasetSize.
func (c IndexConfig) MaxDatasetBytes() (uint64, error) {
	size, err := humanize.ParseBytes(c.MaxDatasetSize)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %w", ErrInvalidDatasetSize, c.MaxDatasetSize, err)
	}

	return size, nil
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TelemetryConfig holds OpenTelemetry export configuration.
type TelemetryConfig struct {
	Environment  string  `mapstructure:"environment"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	OTLPHeaders  string  `mapstructure:"otlp_headers"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
	OTLPInsecure bool    `mapstructure:"otlp_insecure"`
	Prometheus   bool    `mapstructure:"prometheus"`
}

// LoadConfig reads configuration from configPath, INTERVALIDX_* environment
// variables and built-in defaults, in decreasing precedence. An empty
// configPath looks for intervalidx.yaml in ".", "./config" and
// "/etc/intervalidx"; finding none there is not an error.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath == "" {
		v.SetConfigName(configFileName)
		v.SetConfigType("yaml")

		for _, dir := range searchPaths {
			v.AddConfigPath(dir)
		}
	} else {
		v.SetConfigFile(configPath)
	}

	if err := v.ReadInConfig(); err != nil {
		var missing viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &missing) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := new(Config)
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

var searchPaths = []string{".", "./config", "/etc/intervalidx"}

// defaults are keyed by the dotted viper path, which is also the env name
// after the prefix with dots turned into underscores.
var defaults = map[string]any{
	"server.host":             DefaultServerHost,
	"server.port":             DefaultServerPort,
	"server.read_timeout":     DefaultServerReadTimeout,
	"server.write_timeout":    DefaultServerWriteTimeout,
	"server.idle_timeout":     DefaultServerIdleTimeout,
	"server.shutdown_timeout": DefaultServerShutdownTimeout,

	"index.name":             DefaultIndexName,
	"index.dataset":          "",
	"index.max_dataset_size": DefaultIndexMaxDatasetSize,
	"index.max_results":      DefaultIndexMaxResults,

	"logging.level":  DefaultLoggingLevel,
	"logging.format": DefaultLoggingFormat,

	"telemetry.environment":   "",
	"telemetry.otlp_endpoint": "",
	"telemetry.otlp_headers":  "",
	"telemetry.otlp_insecure": false,
	"telemetry.sample_ratio":  DefaultTelemetrySampleRate,
	"telemetry.prometheus":    DefaultTelemetryPrometheus,
}

// Validate reports every invalid setting, joined.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > maxPort {
		errs = append(errs, fmt.Errorf("%w: %d", ErrInvalidPort, c.Server.Port))
	}

	if strings.TrimSpace(c.Index.Name) == "" {
		errs = append(errs, ErrInvalidIndexName)
	}

	if _, err := c.Index.MaxDatasetBytes(); err != nil {
		errs = append(errs, err)
	}

	if c.Index.MaxResults <= 0 {
		errs = append(errs, fmt.Errorf("%w: %d", ErrInvalidMaxResults, c.Index.MaxResults))
	}

	if c.Logging.Format != LogFormatText && c.Logging.Format != LogFormatJSON {
		errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidLogFormat, c.Logging.Format))
	}

	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		errs = append(errs, fmt.Errorf("%w: %v", ErrInvalidSampleRatio, c.Telemetry.SampleRatio))
	}

	return errors.Join(errs...)
}
