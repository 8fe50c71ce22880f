// Package config holds the settings shared by the command line tool and
// the HTTP service. Values come from defaults, then an optional TOML file,
// then environment variables; command line flags are applied last by the
// caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/tsawler/textstrip/model"
	"github.com/tsawler/textstrip/redact"
)

const (
	// DefaultInput and DefaultOutput are used when no paths are given
	DefaultInput  = "input.pdf"
	DefaultOutput = "output_cleaned.pdf"

	// DefaultMaxFileSize is the default upload limit of the HTTP service (50MB)
	DefaultMaxFileSize = 50 * 1024 * 1024

	DefaultPort    = "8080"
	DefaultTempDir = "./temp"
)

// Config is the complete configuration
type Config struct {
	Input  string `toml:"input"`
	Output string `toml:"output"`
	// Pages is a page specifier such as "1,3-5"; empty means all pages
	Pages      string  `toml:"pages"`
	Workers    int     `toml:"workers"`
	Images     string  `toml:"images"`   // none, remove or pixels
	Graphics   string  `toml:"graphics"` // none or contained
	Fill       string  `toml:"fill"`     // empty for no fill
	MarkMargin float64 `toml:"mark_margin"`
	BestEffort bool    `toml:"best_effort"`

	Save   SaveConfig   `toml:"save"`
	Log    LogConfig    `toml:"log"`
	Server ServerConfig `toml:"server"`
}

type SaveConfig struct {
	Compress    bool `toml:"compress"`
	CleanUnused bool `toml:"clean_unused"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // text or json
}

type ServerConfig struct {
	Port        string `toml:"port"`
	MaxFileSize int64  `toml:"max_file_size"`
	TempDir     string `toml:"temp_dir"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		Input:    DefaultInput,
		Output:   DefaultOutput,
		Workers:  1,
		Images:   "none",
		Graphics: "none",
		Save:     SaveConfig{Compress: true, CleanUnused: true},
		Log:      LogConfig{Level: "info", Format: "text"},
		Server: ServerConfig{
			Port:        DefaultPort,
			MaxFileSize: DefaultMaxFileSize,
			TempDir:     DefaultTempDir,
		},
	}
}

// LoadFile reads a TOML file over the defaults. Unknown keys are an error.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to open config: %w", err)
	}
	defer f.Close()

	dec := toml.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return cfg, fmt.Errorf("config %s: %s", path, strict.String())
		}
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides settings from TEXTSTRIP_* variables and the PORT,
// MAX_FILE_SIZE and TEMP_DIR variables of the service
func (c *Config) ApplyEnv() {
	c.Input = getEnv("TEXTSTRIP_INPUT", c.Input)
	c.Output = getEnv("TEXTSTRIP_OUTPUT", c.Output)
	c.Pages = getEnv("TEXTSTRIP_PAGES", c.Pages)
	c.Workers = int(getEnvInt64("TEXTSTRIP_WORKERS", int64(c.Workers)))
	c.Images = getEnv("TEXTSTRIP_IMAGES", c.Images)
	c.Graphics = getEnv("TEXTSTRIP_GRAPHICS", c.Graphics)
	c.Fill = getEnv("TEXTSTRIP_FILL", c.Fill)
	c.BestEffort = getEnvBool("TEXTSTRIP_BEST_EFFORT", c.BestEffort)
	c.Save.Compress = getEnvBool("TEXTSTRIP_COMPRESS", c.Save.Compress)
	c.Save.CleanUnused = getEnvBool("TEXTSTRIP_CLEAN", c.Save.CleanUnused)
	c.Log.Level = getEnv("TEXTSTRIP_LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("TEXTSTRIP_LOG_FORMAT", c.Log.Format)
	c.Server.Port = getEnv("PORT", c.Server.Port)
	c.Server.MaxFileSize = getEnvInt64("MAX_FILE_SIZE", c.Server.MaxFileSize)
	c.Server.TempDir = getEnv("TEMP_DIR", c.Server.TempDir)
}

// Validate checks every setting that has a restricted syntax
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.MarkMargin < 0 {
		return fmt.Errorf("mark margin must not be negative, got %g", c.MarkMargin)
	}
	if _, err := c.PageList(); err != nil {
		return err
	}
	if _, err := redact.ParseImagePolicy(c.Images); err != nil {
		return err
	}
	if _, err := redact.ParseGraphicsPolicy(c.Graphics); err != nil {
		return err
	}
	if _, err := c.FillColor(); err != nil {
		return err
	}
	if c.Server.MaxFileSize <= 0 {
		return fmt.Errorf("max file size must be positive, got %d", c.Server.MaxFileSize)
	}
	return nil
}

// PageList returns the selected pages, or nil for all pages
func (c *Config) PageList() ([]int, error) {
	if strings.TrimSpace(c.Pages) == "" {
		return nil, nil
	}
	return ParsePageSpecifier(c.Pages)
}

// FillColor returns the mark fill, or nil when none is configured
func (c *Config) FillColor() (*model.Color, error) {
	if c.Fill == "" || c.Fill == "none" {
		return nil, nil
	}
	col, err := model.ParseColor(c.Fill)
	if err != nil {
		return nil, err
	}
	return &col, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
