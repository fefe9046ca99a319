package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultListen      = "127.0.0.1:8080"
	defaultRefreshCron = "*/30 * * * *"
	defaultOutputDir   = "./out"
	defaultHorizonDays = 90
	defaultSiteTitle   = "ITsrazy.cz"
	defaultLogLevel    = "info"

	defaultSnapshotWidth  = 800
	defaultSnapshotHeight = 1200
)

// SnapshotConfig controls the optional PNG capture of the listing page
// after each export.
type SnapshotConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
	Width   int  `yaml:"width" json:"width"`
	Height  int  `yaml:"height" json:"height"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the listing page and API.
	Listen string `yaml:"listen" json:"listen"`

	// DataDir holds the series YAML documents. When empty the directory is
	// located by searching upward from the working directory for "data/".
	DataDir string `yaml:"data_dir" json:"data_dir"`

	// Timezone is the IANA zone that defines "today" and the month/day
	// grouping (e.g. "Europe/Prague"). Empty means the host's local zone.
	Timezone string `yaml:"timezone" json:"timezone"`

	// RefreshCron is the cron schedule for periodic exports.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// OutputDir receives events.json, events.ics and preview.png.
	OutputDir string `yaml:"output_dir" json:"output_dir"`

	// HorizonDays bounds how far ahead series recurrence rules are expanded.
	HorizonDays int `yaml:"horizon_days" json:"horizon_days"`

	SiteTitle string `yaml:"site_title" json:"site_title"`
	LogLevel  string `yaml:"log_level" json:"log_level"`

	Snapshot SnapshotConfig `yaml:"snapshot" json:"snapshot"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:      defaultListen,
		RefreshCron: defaultRefreshCron,
		OutputDir:   defaultOutputDir,
		HorizonDays: defaultHorizonDays,
		SiteTitle:   defaultSiteTitle,
		LogLevel:    defaultLogLevel,
		Snapshot: SnapshotConfig{
			Width:  defaultSnapshotWidth,
			Height: defaultSnapshotHeight,
		},
	}
}

// Normalize fills in missing/zero values with defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.RefreshCron == "" {
		c.RefreshCron = defaultRefreshCron
	}
	if c.OutputDir == "" {
		c.OutputDir = defaultOutputDir
	}
	if c.HorizonDays <= 0 {
		c.HorizonDays = defaultHorizonDays
	}
	if c.SiteTitle == "" {
		c.SiteTitle = defaultSiteTitle
	}
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
	if c.Snapshot.Width <= 0 {
		c.Snapshot.Width = defaultSnapshotWidth
	}
	if c.Snapshot.Height <= 0 {
		c.Snapshot.Height = defaultSnapshotHeight
	}
}

// Location resolves Timezone. An empty or unknown zone yields time.Local
// together with the lookup error (nil for the empty case).
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local, err
	}
	return loc, nil
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, a default config is written with 0600
//     perms and returned.
//   - If the file exists, it is unmarshaled and normalized.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the configuration atomically (temp file + rename) with 0600
// permissions, creating the parent directory if needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return WriteFileAtomic(path, data, 0o600)
}

// WriteFileAtomic writes data next to path and renames it into place so
// readers never observe a partially written file.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".itsrazy-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// No-op once the rename succeeded.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}
