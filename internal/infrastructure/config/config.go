package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is prepended to every environment variable, e.g. HOMEFS_SERVER_PORT.
const EnvPrefix = "homefs"

// Config holds all application configuration.
type Config struct {
	Sandbox   SandboxConfig
	Server    ServerConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
	Archive   ArchiveConfig
	Export    ExportConfig
	Tracing   TracingConfig
}

// SandboxConfig holds the trusted root settings.
type SandboxConfig struct {
	// Root defaults to the user's home directory when empty.
	Root           string `envconfig:"ROOT"`
	StrictSymlinks bool   `envconfig:"STRICT_SYMLINKS" default:"true"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000"`
	Host string `envconfig:"HOST" default:"127.0.0.1"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LEVEL" default:"info"`
	Development bool   `envconfig:"DEVELOPMENT" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RPS" default:"50"`
	Burst             int  `envconfig:"BURST" default:"100"`
	Enabled           bool `envconfig:"ENABLED" default:"true"`
}

// ArchiveConfig holds archive engine settings.
type ArchiveConfig struct {
	// Level is the deflate/gzip level, -2..9; -1 selects the codec default.
	Level int `envconfig:"LEVEL" default:"-1"`
	// MaxExtractBytes caps one extraction; 0 disables the cap.
	MaxExtractBytes int64 `envconfig:"MAX_EXTRACT_BYTES" default:"0"`
}

// ExportConfig holds the external PDF renderer settings.
type ExportConfig struct {
	PDFCommand string        `envconfig:"PDF_COMMAND" default:"wkhtmltopdf"`
	PDFArgs    []string      `envconfig:"PDF_ARGS"`
	Timeout    time.Duration `envconfig:"TIMEOUT" default:"60s"`
}

// TracingConfig toggles span logging.
type TracingConfig struct {
	Enabled bool `envconfig:"ENABLED" default:"false"`
}

// Load loads configuration from HOMEFS_* environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFile loads the environment, then overlays a YAML or TOML file on top.
// Values present in the file win over the environment.
func LoadFile(path string) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := overlayFile(&cfg, path); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns default configuration.
func Default() *Config {
	cfg := &Config{
		Sandbox: SandboxConfig{
			StrictSymlinks: true,
		},
		Server: ServerConfig{
			Port: "8000",
			Host: "127.0.0.1",
		},
		Logging: LogConfig{
			Level: "info",
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 50,
			Burst:             100,
			Enabled:           true,
		},
		Archive: ArchiveConfig{
			Level: -1,
		},
		Export: ExportConfig{
			PDFCommand: "wkhtmltopdf",
			Timeout:    60 * time.Second,
		},
	}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Sandbox.Root == "" {
		c.Sandbox.Root = xdg.Home
	}
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	if c.Sandbox.Root == "" || !filepath.IsAbs(c.Sandbox.Root) {
		return fmt.Errorf("sandbox root must be an absolute path: %q", c.Sandbox.Root)
	}
	if c.Server.Port == "" {
		return fmt.Errorf("server port cannot be empty")
	}
	if c.RateLimit.Enabled && c.RateLimit.RequestsPerSecond <= 0 {
		return fmt.Errorf("rate limit rps must be positive, got %d", c.RateLimit.RequestsPerSecond)
	}
	if c.RateLimit.Enabled && c.RateLimit.Burst <= 0 {
		return fmt.Errorf("rate limit burst must be positive, got %d", c.RateLimit.Burst)
	}
	if c.Archive.Level < -2 || c.Archive.Level > 9 {
		return fmt.Errorf("archive level must be between -2 and 9, got %d", c.Archive.Level)
	}
	if c.Archive.MaxExtractBytes < 0 {
		return fmt.Errorf("archive max extract bytes cannot be negative")
	}
	if c.Export.Timeout <= 0 {
		return fmt.Errorf("export timeout must be positive, got %s", c.Export.Timeout)
	}
	return nil
}
