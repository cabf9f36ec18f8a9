package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Asset kinds accepted in the head list.
const (
	AssetStylesheet = "stylesheet"
	AssetScript     = "script"
)

// AssetConfig is one external asset linked from the document head.
// Stylesheets become <link rel="stylesheet" href>, scripts <script src>.
type AssetConfig struct {
	Kind string `yaml:"kind" json:"kind"`
	Href string `yaml:"href" json:"href"`
}

// CaptureConfig controls PNG snapshots of the rendered calendar.
type CaptureConfig struct {
	Width          int `yaml:"width" json:"width"`
	Height         int `yaml:"height" json:"height"`
	TimeoutSeconds int `yaml:"timeout_seconds" json:"timeout_seconds"`

	// PreviewPath, if set, is where the preview server keeps a PNG of the
	// current calendar, served at /calendar.png.
	PreviewPath string `yaml:"preview_path,omitempty" json:"preview_path,omitempty"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the preview server.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address of the preview server.
	Listen string `yaml:"listen" json:"listen"`

	// RefreshCron is a cron-style schedule (e.g. "*/5 * * * *") on which
	// the preview server reloads the input file.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// Timezone is the IANA zone used for iCalendar import and export.
	Timezone string `yaml:"timezone" json:"timezone"`

	// LogLevel is one of "debug", "info", "error".
	LogLevel string `yaml:"log_level" json:"log_level"`

	// Head lists the document head assets in emission order.
	Head []AssetConfig `yaml:"head" json:"head"`

	Capture CaptureConfig `yaml:"capture" json:"capture"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// Default assets: Materialize CSS, Materialize JS, Material Icons.
var defaultHead = []AssetConfig{
	{Kind: AssetStylesheet, Href: "https://cdnjs.cloudflare.com/ajax/libs/materialize/1.0.0/css/materialize.min.css"},
	{Kind: AssetScript, Href: "https://cdnjs.cloudflare.com/ajax/libs/materialize/1.0.0/js/materialize.min.js"},
	{Kind: AssetStylesheet, Href: "https://fonts.googleapis.com/icon?family=Material+Icons"},
}

const (
	defaultListen   = "127.0.0.1:8080"
	defaultRefresh  = "*/5 * * * *"
	defaultTimezone = "UTC"
	defaultLogLevel = "info"

	// Capture defaults, shared with the capture package.
	DefaultCaptureWidth   = 1280
	DefaultCaptureHeight  = 1600
	DefaultCaptureTimeout = 30 // seconds
)

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:      defaultListen,
		RefreshCron: defaultRefresh,
		Timezone:    defaultTimezone,
		LogLevel:    defaultLogLevel,
		Head:        append([]AssetConfig(nil), defaultHead...),
		Capture: CaptureConfig{
			Width:          DefaultCaptureWidth,
			Height:         DefaultCaptureHeight,
			TimeoutSeconds: DefaultCaptureTimeout,
		},
	}
}

// Normalize fills in missing/zero values so partially written files
// still behave like the defaults.
//
// The head list is only defaulted when the key is absent (nil); an explicit
// empty list turns the assets off.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.RefreshCron == "" {
		c.RefreshCron = defaultRefresh
	}
	if c.Timezone == "" {
		c.Timezone = defaultTimezone
	}
	switch c.LogLevel {
	case "debug", "info", "error":
	default:
		c.LogLevel = defaultLogLevel
	}
	if c.Head == nil {
		c.Head = append([]AssetConfig(nil), defaultHead...)
	}
	if c.Capture.Width <= 0 {
		c.Capture.Width = DefaultCaptureWidth
	}
	if c.Capture.Height <= 0 {
		c.Capture.Height = DefaultCaptureHeight
	}
	if c.Capture.TimeoutSeconds <= 0 {
		c.Capture.TimeoutSeconds = DefaultCaptureTimeout
	}
}

// Validate reports settings that cannot be defaulted away.
func (c *Config) Validate() error {
	if _, err := cron.ParseStandard(c.RefreshCron); err != nil {
		return fmt.Errorf("config: refresh %q: %w", c.RefreshCron, err)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("config: timezone %q: %w", c.Timezone, err)
	}
	for i, a := range c.Head {
		switch a.Kind {
		case AssetStylesheet, AssetScript:
		default:
			return fmt.Errorf("config: head[%d]: unknown kind %q", i, a.Kind)
		}
		if a.Href == "" {
			return fmt.Errorf("config: head[%d]: href is empty", i)
		}
	}
	return nil
}

// BasicAuthEnabled reports whether both credentials are configured.
func (c *Config) BasicAuthEnabled() bool {
	return c.BasicAuth != nil && c.BasicAuth.Username != "" && c.BasicAuth.Password != ""
}

// CaptureTimeout returns the capture timeout as a duration.
func (c *Config) CaptureTimeout() time.Duration {
	return time.Duration(c.Capture.TimeoutSeconds) * time.Second
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - empty path: return the defaults without touching disk
//   - missing file: write the defaults with 0600 perms and return them
//   - existing file: unmarshal, normalize and validate
func Load(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
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
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes cfg to path atomically (temp file + rename) with 0600 perms,
// creating the parent directory if needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".yearcal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
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
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}
