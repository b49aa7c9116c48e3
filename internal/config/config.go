// Package config provides configuration for the uiforge CLI and server.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds runtime configuration.
type Config struct {
	// Listen is the address the server listens on (e.g., ":7450").
	Listen string
	// DBPath is the SQLite database file holding documents.
	DBPath string
	// Document is the default document name for CLI commands.
	Document string
	// HistoryCapacity bounds each document's undo log.
	HistoryCapacity int
	// AutosaveInterval is how often open documents are persisted.
	AutosaveInterval time.Duration
	// CatalogPath is an optional YAML variant table overlaid on the builtin one.
	CatalogPath string
	// MaxOpenDocs is the maximum number of documents kept open (LRU size).
	MaxOpenDocs int
	// IdleTTL is how long an idle document stays open.
	IdleTTL time.Duration
	// ComponentName names exported components.
	ComponentName string
	// Debug enables debug logging.
	Debug bool
	// Version is reported by the health endpoint.
	Version string
}

// FromEnv creates a Config from environment variables.
func FromEnv() *Config {
	return &Config{
		Listen:           getEnv("UIFORGE_LISTEN", ":7450"),
		DBPath:           getEnv("UIFORGE_DB", "uiforge.db"),
		Document:         getEnv("UIFORGE_DOC", "main"),
		HistoryCapacity:  getEnvInt("UIFORGE_HISTORY", 50),
		AutosaveInterval: getEnvDuration("UIFORGE_AUTOSAVE", 2*time.Second),
		CatalogPath:      getEnv("UIFORGE_CATALOG", ""),
		MaxOpenDocs:      getEnvInt("UIFORGE_MAX_OPEN", 64),
		IdleTTL:          getEnvDuration("UIFORGE_IDLE_TTL", 10*time.Minute),
		ComponentName:    getEnv("UIFORGE_COMPONENT", "GeneratedComponent"),
		Debug:            getEnvBool("UIFORGE_DEBUG", false),
		Version:          getEnv("UIFORGE_VERSION", "0.1.0"),
	}
}

// file mirrors Config in the YAML file; unset keys keep the current value.
type file struct {
	Listen           string `yaml:"listen"`
	DBPath           string `yaml:"db"`
	Document         string `yaml:"document"`
	HistoryCapacity  int    `yaml:"historyCapacity"`
	AutosaveInterval string `yaml:"autosaveInterval"`
	CatalogPath      string `yaml:"catalog"`
	MaxOpenDocs      int    `yaml:"maxOpenDocs"`
	IdleTTL          string `yaml:"idleTTL"`
	ComponentName    string `yaml:"componentName"`
	Debug            *bool  `yaml:"debug"`
}

// LoadFile overlays the settings in a YAML file onto c.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	setString(&c.Listen, f.Listen)
	setString(&c.DBPath, f.DBPath)
	setString(&c.Document, f.Document)
	setString(&c.CatalogPath, f.CatalogPath)
	setString(&c.ComponentName, f.ComponentName)
	if f.HistoryCapacity != 0 {
		c.HistoryCapacity = f.HistoryCapacity
	}
	if f.MaxOpenDocs != 0 {
		c.MaxOpenDocs = f.MaxOpenDocs
	}
	if f.Debug != nil {
		c.Debug = *f.Debug
	}
	if err := setDuration(&c.AutosaveInterval, f.AutosaveInterval); err != nil {
		return fmt.Errorf("autosaveInterval: %w", err)
	}
	if err := setDuration(&c.IdleTTL, f.IdleTTL); err != nil {
		return fmt.Errorf("idleTTL: %w", err)
	}
	return nil
}

// Validate reports settings that cannot work.
func (c *Config) Validate() error {
	var errs []error
	if c.DBPath == "" {
		errs = append(errs, errors.New("db path is required"))
	}
	if c.Document == "" {
		errs = append(errs, errors.New("document name is required"))
	}
	if c.HistoryCapacity < 1 {
		errs = append(errs, fmt.Errorf("history capacity must be positive, got %d", c.HistoryCapacity))
	}
	if c.AutosaveInterval <= 0 {
		errs = append(errs, fmt.Errorf("autosave interval must be positive, got %s", c.AutosaveInterval))
	}
	if c.MaxOpenDocs < 1 {
		errs = append(errs, fmt.Errorf("max open documents must be positive, got %d", c.MaxOpenDocs))
	}
	return errors.Join(errs...)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v string) error {
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return err
	}
	*dst = d
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
