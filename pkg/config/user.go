package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/goliatone/go-diecut/pkg/logging"
)

const (
	// UserConfigFile is the user config path relative to the XDG config home.
	UserConfigFile = "diecut/config.toml"
	// EnvPrefix marks environment variables that override the user config.
	// A double underscore separates nested keys:
	// DIECUT_ABBREVIATIONS__CORP=https://git.corp/{}.git
	EnvPrefix = "DIECUT_"
)

// UserConfig holds per-user settings.
type UserConfig struct {
	// Abbreviations map a prefix to a URL pattern with "{}" standing for
	// the rest of the source argument.
	Abbreviations map[string]string `koanf:"abbreviations"`
	CacheDir      string            `koanf:"cache_dir"`
}

// UserOption configures LoadUser.
type UserOption func(*userLoader)

// WithUserConfigPath reads the user config from path instead of the XDG
// location.
func WithUserConfigPath(path string) UserOption {
	return func(l *userLoader) {
		l.path = path
	}
}

// WithoutEnv skips the environment layer.
func WithoutEnv() UserOption {
	return func(l *userLoader) {
		l.skipEnv = true
	}
}

type userLoader struct {
	path    string
	skipEnv bool
}

// UserConfigPath returns the XDG location of the user config file.
func UserConfigPath() string {
	return filepath.Join(xdg.ConfigHome, UserConfigFile)
}

// DefaultCacheDir returns the XDG cache directory for fetched templates.
func DefaultCacheDir() string {
	return filepath.Join(xdg.CacheHome, "diecut")
}

// LoadUser layers defaults, the user config file (when present) and DIECUT_
// environment variables.
func LoadUser(options ...UserOption) (UserConfig, error) {
	logger := logging.GetLogger("config")

	l := &userLoader{path: UserConfigPath()}
	for _, opt := range options {
		if opt != nil {
			opt(l)
		}
	}

	k := koanf.New(".")

	defaults := map[string]interface{}{
		"cache_dir":     DefaultCacheDir(),
		"abbreviations": map[string]interface{}{},
	}
	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return UserConfig{}, fmt.Errorf("config: loading defaults: %w", err)
	}

	if _, err := os.Stat(l.path); err == nil {
		if err := k.Load(file.Provider(l.path), toml.Parser()); err != nil {
			return UserConfig{}, fmt.Errorf("config: loading user config from %s: %w", l.path, err)
		}
		logger.Debug().Str("path", l.path).Msg("user config loaded")
	}

	if !l.skipEnv {
		err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
			return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
		}), nil)
		if err != nil {
			return UserConfig{}, fmt.Errorf("config: loading environment: %w", err)
		}
	}

	var cfg UserConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return UserConfig{}, fmt.Errorf("config: decoding user config: %w", err)
	}
	if cfg.Abbreviations == nil {
		cfg.Abbreviations = map[string]string{}
	}
	return cfg, nil
}
