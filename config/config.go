package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults
const (
	DefaultBaseURL        = "http://localhost:8000"
	DefaultInterval       = 3000 * time.Millisecond
	DefaultRequestTimeout = 10 * time.Second
	DefaultMaxBodyBytes   = 8 << 20
	DefaultRowKB          = 50
	DefaultScale          = "linear"
)

// Config holds everything the client reads from config.yaml and flags.
type Config struct {
	BaseURL        string   `yaml:"base_url"`        // Backend origin; /api/heatmap is appended
	Interval       Duration `yaml:"interval"`        // Poll cadence, start to start
	RequestTimeout Duration `yaml:"request_timeout"` // Per-request bound
	MaxBodyBytes   int64    `yaml:"max_body_bytes"`
	RowKB          float64  `yaml:"row_kb"`       // kB represented by one y bucket
	LabelScript    string   `yaml:"label_script"` // Optional Lua label formatter
	Scale          string   `yaml:"scale"`        // linear or log
	Simple         bool     `yaml:"simple"`       // Console output instead of the TUI
	Debug          bool     `yaml:"debug"`
}

// Duration is a time.Duration that reads Go duration strings ("3s", "500ms").
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*d = Duration(v)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Default returns a Config with every default applied.
func Default() Config {
	cfg := Config{}
	cfg.applyDefaults()
	return cfg
}

// Dir returns the feeheat configuration directory.
// Respects XDG_CONFIG_HOME on Unix, APPDATA on Windows.
func Dir() string {
	var base string

	if runtime.GOOS == "windows" {
		base = os.Getenv("APPDATA")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	} else {
		base = os.Getenv("XDG_CONFIG_HOME")
		if base == "" {
			home, _ := os.UserHomeDir()
			base = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(base, "feeheat")
}

// File returns the path to config.yaml
func File() string {
	return filepath.Join(Dir(), "config.yaml")
}

// LogFile returns the path used for logs while the TUI owns the terminal
func LogFile() string {
	return filepath.Join(Dir(), "feeheat.log")
}

// Load reads and validates a config file. If the file does not exist and
// optional is true, the defaults are returned.
func Load(path string, optional bool) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := Validate(&cfg); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks values and fills defaults for anything left unset.
func Validate(cfg *Config) error {
	cfg.applyDefaults()

	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return fmt.Errorf("base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("base_url must be http or https, got %q", cfg.BaseURL)
	}
	if u.Host == "" {
		return fmt.Errorf("base_url has no host: %q", cfg.BaseURL)
	}

	if cfg.Interval < 0 {
		return fmt.Errorf("interval must be > 0")
	}
	if cfg.RequestTimeout < 0 {
		return fmt.Errorf("request_timeout must be > 0")
	}
	if cfg.MaxBodyBytes < 0 {
		return fmt.Errorf("max_body_bytes must be > 0")
	}
	if cfg.RowKB < 0 {
		return fmt.Errorf("row_kb must be > 0")
	}

	switch cfg.Scale {
	case "linear", "log":
	default:
		return fmt.Errorf("scale must be linear or log, got %q", cfg.Scale)
	}

	if cfg.LabelScript != "" {
		if _, err := os.Stat(cfg.LabelScript); err != nil {
			return fmt.Errorf("label_script: %w", err)
		}
	}
	return nil
}

func (cfg *Config) applyDefaults() {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Interval == 0 {
		cfg.Interval = Duration(DefaultInterval)
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = Duration(DefaultRequestTimeout)
	}
	if cfg.MaxBodyBytes == 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.RowKB == 0 {
		cfg.RowKB = DefaultRowKB
	}
	if cfg.Scale == "" {
		cfg.Scale = DefaultScale
	}
}
