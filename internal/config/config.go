// Package config handles nbfix configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the environment variable that overrides the config location.
const EnvConfigPath = "NBFIX_CONFIG"

const (
	PolicyRestructure = "restructure"
	PolicyDelete      = "delete"
)

var extensionPattern = regexp.MustCompile(`^\.[A-Za-z0-9_-]+$`)

// Config holds the settings a flag can override.
type Config struct {
	// Policy is how legacy widget metadata is repaired: "restructure" or "delete".
	Policy string `toml:"policy" yaml:"policy" json:"policy"`

	// Extension is the file extension a path must carry to be processed.
	Extension string `toml:"extension" yaml:"extension" json:"extension"`

	// Indent is the number of spaces per nesting level in rewritten files.
	Indent int `toml:"indent" yaml:"indent" json:"indent"`

	// FailFast aborts the batch on the first unreadable or malformed notebook.
	FailFast bool `toml:"fail_fast" yaml:"fail_fast" json:"fail_fast"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Policy:    PolicyRestructure,
		Extension: ".ipynb",
		Indent:    1,
	}
}

// Validate checks that every setting is usable.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Policy, validation.Required, validation.In(PolicyRestructure, PolicyDelete)),
		validation.Field(&c.Extension, validation.Required, validation.Match(extensionPattern)),
		validation.Field(&c.Indent, validation.Min(0), validation.Max(8)),
	)
}

// Load loads the configuration from the resolved default location.
// Returns the default config if that file doesn't exist.
func Load() (*Config, error) {
	path := ResolvePath("")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return LoadFrom(path)
}

// LoadFrom loads the configuration from a specific path. Settings missing
// from the file keep their defaults. Files ending in .yaml or .yml are
// parsed as YAML, everything else as TOML.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	default:
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	cfg.Policy = strings.ToLower(strings.TrimSpace(cfg.Policy))
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// ResolvePath picks the config file location with precedence:
//  1. explicit (the --config flag)
//  2. $NBFIX_CONFIG
//  3. DefaultPath()
func ResolvePath(explicit string) string {
	if p := strings.TrimSpace(explicit); p != "" {
		return p
	}
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p
	}
	return DefaultPath()
}

// DefaultPath returns the default config file path.
// Checks ~/.config/nbfix/config.toml first (XDG style),
// then falls back to OS-specific location.
func DefaultPath() string {
	if home, err := os.UserHomeDir(); err == nil {
		xdgPath := filepath.Join(home, ".config", "nbfix", "config.toml")
		if _, err := os.Stat(xdgPath); err == nil {
			return xdgPath
		}
	}

	if configDir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(configDir, "nbfix", "config.toml")
	}

	return filepath.Join(".", "config.toml")
}
