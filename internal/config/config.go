// Package config loads the daemon configuration from an optional YAML file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/steelhost/apexscreen/pkg/apex"
)

// Duration is a time.Duration that unmarshals from YAML strings like "250ms".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config selects the target keyboard and tunes the daemon. Explicit
// vendor_id/product_id take precedence over a model name.
type Config struct {
	Model     string `yaml:"model"`
	VendorID  uint16 `yaml:"vendor_id"`
	ProductID uint16 `yaml:"product_id"`
	Width     int    `yaml:"width"`
	Height    int    `yaml:"height"`

	PollInterval Duration `yaml:"poll_interval"`
	LogLevel     string   `yaml:"log_level"`
}

func Default() Config {
	return Config{
		Model:        "apex7",
		PollInterval: Duration(time.Second),
		LogLevel:     "info",
	}
}

// Load reads path on top of the defaults. A missing file is not an error;
// the defaults apply unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// Keyboard resolves the configured keyboard model.
func (c Config) Keyboard() (apex.KeyboardInfo, error) {
	if c.VendorID != 0 || c.ProductID != 0 {
		info := apex.KeyboardInfo{
			VendorID:  c.VendorID,
			ProductID: c.ProductID,
			Width:     c.Width,
			Height:    c.Height,
		}
		if err := info.Validate(); err != nil {
			return apex.KeyboardInfo{}, err
		}
		return info, nil
	}
	info, ok := apex.Lookup(c.Model)
	if !ok {
		return apex.KeyboardInfo{}, fmt.Errorf("unknown keyboard model %q (known models: %s)",
			c.Model, strings.Join(apex.Models(), ", "))
	}
	return info, nil
}

// Level parses LogLevel, defaulting to info.
func (c Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
