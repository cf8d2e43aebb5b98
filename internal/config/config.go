// Package config loads the notes server configuration file.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

const (
	// DefaultContentPath is the directory notes are read from when the config doesn't name one.
	DefaultContentPath = "."

	// DefaultBind is the address the server listens on when the config doesn't name one.
	DefaultBind = "127.0.0.1:3000"
)

// ErrConfigParse is returned (wrapped) when a config file exists but can't be decoded.
var ErrConfigParse = errors.New("invalid config file")

// Config is the notes server configuration.
type Config struct {
	// ContentPath is the directory containing the Markdown notes.
	ContentPath string `toml:"content_path" yaml:"content_path"`

	// Bind is the TCP address to listen on.
	Bind string `toml:"bind" yaml:"bind"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		ContentPath: DefaultContentPath,
		Bind:        DefaultBind,
	}
}

// DefaultPath returns the default config file location, $HOME/.config/notes/notes.toml (or the
// platform's equivalent of $HOME/.config).
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.WithMessage(err, "locating config directory")
	}
	return filepath.Join(dir, "notes", "notes.toml"), nil
}

// Load reads the config file at path. Keys missing from the file keep their default values. If the
// file doesn't exist, it is created with the defaults. Files ending in .yaml or .yml are decoded as
// YAML, all others as TOML.
//
// If the file can't be decoded, Load returns the defaults and an error wrapping ErrConfigParse.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, Write(path, cfg)
	}
	if err != nil {
		return cfg, errors.WithMessage(err, "reading config")
	}

	if err := decode(path, data, &cfg); err != nil {
		return Default(), errors.WithMessage(fmt.Errorf("%w: %s", ErrConfigParse, err), path)
	}
	if cfg.ContentPath == "" {
		cfg.ContentPath = DefaultContentPath
	}
	if cfg.Bind == "" {
		cfg.Bind = DefaultBind
	}
	return cfg, nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func decode(path string, data []byte, cfg *Config) error {
	if isYAML(path) {
		return yaml.UnmarshalStrict(data, cfg)
	}
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("unknown keys %v", undecoded)
	}
	return nil
}

// Write writes cfg to path, creating its parent directories as needed.
func Write(path string, cfg Config) error {
	var buf bytes.Buffer
	if isYAML(path) {
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return errors.WithMessage(err, "encoding config")
		}
		buf.Write(data)
	} else if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return errors.WithMessage(err, "encoding config")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.WithMessage(err, "creating config directory")
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return errors.WithMessage(err, "writing config")
	}
	return nil
}
