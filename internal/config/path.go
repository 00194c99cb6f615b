// Package config loads application settings from Viper.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Default locations for files the dashboard owns. Both are expanded by
// PathSetting like any configured value.
const (
	DefaultDatabasePath = "$HOME/.local/share/spice/spice.db"
	DefaultCertDir      = "$HOME/.config/spice/certs"
)

// PathSetting returns the expanded path stored under key, or the expanded
// fallback when the key is unset.
func PathSetting(key, fallback string) string {
	if v := viper.GetString(key); v != "" {
		return ExpandPath(v)
	}
	return ExpandPath(fallback)
}

// ExpandPath resolves a leading ~ to the user's home directory and then
// substitutes $VAR references. A ~ is left alone when the home directory is
// unknown.
func ExpandPath(path string) string {
	switch {
	case path == "~":
		if home, err := os.UserHomeDir(); err == nil {
			path = home
		}
	case strings.HasPrefix(path, "~/"):
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}
	return os.ExpandEnv(path)
}
