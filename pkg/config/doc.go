// Package config loads the two configuration layers diecut reads: the
// template's own diecut.toml and the user's diecut/config.toml under the XDG
// config directory.
package config
