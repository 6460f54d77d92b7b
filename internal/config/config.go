// Package config loads the chordkit YAML configuration.
//
// The file lives at $XDG_CONFIG_HOME/chordkit/config.yaml unless a path is
// given. A missing file yields Defaults. Unknown keys are rejected so typos
// surface as errors.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/chordkit/internal/diagram"
	"github.com/roach88/chordkit/internal/fretmap"
	"github.com/roach88/chordkit/internal/retry"
)

// Config is the whole configuration file.
type Config struct {
	// Database is the SQLite file path.
	Database string `yaml:"database"`

	API     APIConfig     `yaml:"api"`
	Retry   RetryConfig   `yaml:"retry"`
	Editor  EditorConfig  `yaml:"editor"`
	Margins MarginsConfig `yaml:"margins"`
}

// APIConfig points commands at a chart server instead of the local database.
type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// RetryConfig is the rate-limit backoff used by autofill lookups.
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay"`
}

// Policy converts the config to a retry.Policy.
func (r RetryConfig) Policy() retry.Policy {
	return retry.Policy{MaxAttempts: r.MaxAttempts, BaseDelay: r.BaseDelay}
}

// EditorConfig sets up new diagrams.
type EditorConfig struct {
	DefaultTuning string `yaml:"default_tuning"`
	NumStrings    int    `yaml:"num_strings"`
	NumFrets      int    `yaml:"num_frets"`
	ResizePolicy  string `yaml:"resize_policy"`
}

// MarginsConfig are the fallback fretboard margins.
type MarginsConfig struct {
	Horizontal float64 `yaml:"horizontal"`
	Top        float64 `yaml:"top"`
	Bottom     float64 `yaml:"bottom"`
}

// Margins converts the config to fretmap.Margins.
func (m MarginsConfig) Margins() fretmap.Margins {
	return fretmap.Margins{Horizontal: m.Horizontal, Top: m.Top, Bottom: m.Bottom}
}

// Defaults returns the configuration used when no file exists.
func Defaults() Config {
	return Config{
		Database: "chordkit.db",
		API:      APIConfig{Timeout: 10 * time.Second},
		Retry: RetryConfig{
			MaxAttempts: retry.DefaultPolicy.MaxAttempts,
			BaseDelay:   retry.DefaultPolicy.BaseDelay,
		},
		Editor: EditorConfig{
			DefaultTuning: "EADGBE",
			NumStrings:    diagram.DefaultNumStrings,
			NumFrets:      diagram.DefaultNumFrets,
			ResizePolicy:  diagram.ResizeClip.String(),
		},
		Margins: MarginsConfig{
			Horizontal: fretmap.DefaultMargins.Horizontal,
			Top:        fretmap.DefaultMargins.Top,
			Bottom:     fretmap.DefaultMargins.Bottom,
		},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/chordkit/config.yaml, falling back to
// the OS user config directory.
func DefaultPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		var err error
		if dir, err = os.UserConfigDir(); err != nil {
			return ""
		}
	}
	return filepath.Join(dir, "chordkit", "config.yaml")
}

// Load reads path, or DefaultPath when path is empty. A missing file at the
// default location is not an error; a missing explicit path is.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
		if path == "" {
			return Defaults(), nil
		}
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) && !explicit {
		return Defaults(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over Defaults and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Defaults()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every field and names the first offending key.
func (c Config) Validate() error {
	if c.Database == "" {
		return fieldError("database", "must not be empty")
	}
	if c.API.Timeout < 0 {
		return fieldError("api.timeout", "must not be negative")
	}
	if c.Retry.MaxAttempts < 1 {
		return fieldError("retry.max_attempts", "must be at least 1")
	}
	if c.Retry.BaseDelay < 0 {
		return fieldError("retry.base_delay", "must not be negative")
	}
	if c.Editor.NumStrings < 2 {
		return fieldError("editor.num_strings", "must be at least 2")
	}
	if c.Editor.NumFrets < 1 {
		return fieldError("editor.num_frets", "must be at least 1")
	}
	if _, err := c.Tuning(); err != nil {
		return fieldError("editor.default_tuning", err.Error())
	}
	if _, err := diagram.ParseResizePolicy(c.Editor.ResizePolicy); err != nil {
		return fieldError("editor.resize_policy", err.Error())
	}
	if err := c.Margins.Margins().Validate(); err != nil {
		return fieldError("margins", err.Error())
	}
	return nil
}

// Tuning parses the default tuning and fits it to the configured string
// count.
func (c Config) Tuning() ([]string, error) {
	t, err := diagram.ParseTuning(c.Editor.DefaultTuning)
	if err != nil {
		return nil, err
	}
	return diagram.FitTuning(t, c.Editor.NumStrings), nil
}

// ResizePolicy returns the parsed resize policy.
func (c Config) ResizePolicy() diagram.ResizePolicy {
	p, _ := diagram.ParseResizePolicy(c.Editor.ResizePolicy)
	return p
}

// NewDiagram returns an empty diagram with the configured dimensions and
// tuning.
func (c Config) NewDiagram() (diagram.Diagram, error) {
	d, err := diagram.New(c.Editor.NumStrings, c.Editor.NumFrets)
	if err != nil {
		return diagram.Diagram{}, err
	}
	t, err := c.Tuning()
	if err != nil {
		return diagram.Diagram{}, err
	}
	h := d.Header
	h.Tuning = t
	return d.WithHeader(h), nil
}

func fieldError(key, msg string) error {
	return fmt.Errorf("config %s: %s", key, msg)
}
