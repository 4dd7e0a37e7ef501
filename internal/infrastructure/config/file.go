package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
)

// fileConfig mirrors Config with pointer fields so that only keys present in
// the file override the environment. Durations are strings ("30s").
type fileConfig struct {
	Sandbox *struct {
		Root           *string `yaml:"root" toml:"root"`
		StrictSymlinks *bool   `yaml:"strict_symlinks" toml:"strict_symlinks"`
	} `yaml:"sandbox" toml:"sandbox"`

	Server *struct {
		Port *string `yaml:"port" toml:"port"`
		Host *string `yaml:"host" toml:"host"`
	} `yaml:"server" toml:"server"`

	Logging *struct {
		Level       *string `yaml:"level" toml:"level"`
		Development *bool   `yaml:"development" toml:"development"`
	} `yaml:"logging" toml:"logging"`

	RateLimit *struct {
		RPS     *int  `yaml:"rps" toml:"rps"`
		Burst   *int  `yaml:"burst" toml:"burst"`
		Enabled *bool `yaml:"enabled" toml:"enabled"`
	} `yaml:"rate_limit" toml:"rate_limit"`

	Archive *struct {
		Level           *int   `yaml:"level" toml:"level"`
		MaxExtractBytes *int64 `yaml:"max_extract_bytes" toml:"max_extract_bytes"`
	} `yaml:"archive" toml:"archive"`

	Export *struct {
		PDFCommand *string   `yaml:"pdf_command" toml:"pdf_command"`
		PDFArgs    *[]string `yaml:"pdf_args" toml:"pdf_args"`
		Timeout    *string   `yaml:"timeout" toml:"timeout"`
	} `yaml:"export" toml:"export"`

	Tracing *struct {
		Enabled *bool `yaml:"enabled" toml:"enabled"`
	} `yaml:"tracing" toml:"tracing"`
}

func overlayFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	case ".toml":
		err = toml.Unmarshal(data, &fc)
	default:
		return fmt.Errorf("unsupported config file type %q (want .yaml, .yml or .toml)", ext)
	}
	if err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return fc.apply(cfg)
}

func (fc *fileConfig) apply(cfg *Config) error {
	if s := fc.Sandbox; s != nil {
		setIf(&cfg.Sandbox.Root, s.Root)
		setIf(&cfg.Sandbox.StrictSymlinks, s.StrictSymlinks)
	}
	if s := fc.Server; s != nil {
		setIf(&cfg.Server.Port, s.Port)
		setIf(&cfg.Server.Host, s.Host)
	}
	if l := fc.Logging; l != nil {
		setIf(&cfg.Logging.Level, l.Level)
		setIf(&cfg.Logging.Development, l.Development)
	}
	if r := fc.RateLimit; r != nil {
		setIf(&cfg.RateLimit.RequestsPerSecond, r.RPS)
		setIf(&cfg.RateLimit.Burst, r.Burst)
		setIf(&cfg.RateLimit.Enabled, r.Enabled)
	}
	if a := fc.Archive; a != nil {
		setIf(&cfg.Archive.Level, a.Level)
		setIf(&cfg.Archive.MaxExtractBytes, a.MaxExtractBytes)
	}
	if e := fc.Export; e != nil {
		setIf(&cfg.Export.PDFCommand, e.PDFCommand)
		setIf(&cfg.Export.PDFArgs, e.PDFArgs)
		if e.Timeout != nil {
			d, err := time.ParseDuration(*e.Timeout)
			if err != nil {
				return fmt.Errorf("invalid export timeout %q: %w", *e.Timeout, err)
			}
			cfg.Export.Timeout = d
		}
	}
	if t := fc.Tracing; t != nil {
		setIf(&cfg.Tracing.Enabled, t.Enabled)
	}
	return nil
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
