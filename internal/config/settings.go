package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"

	"github.com/penwyp/dorkbox/internal/errors"
)

// EnvPrefix namespaces environment overrides: DORKBOX_REGISTRY, DORKBOX_DEBUG, ...
const EnvPrefix = "DORKBOX"

// Setting keys. They double as persistent flag names.
const (
	KeyRegistry = "registry"
	KeyDebug    = "debug"
	KeyLogFile  = "log-file"
	KeyTimeout  = "timeout"
)

// Settings are the resolved process-wide options.
type Settings struct {
	RegistryPath string
	Debug        bool
	LogFile      string
	// Timeout bounds a whole command. Zero waits forever.
	Timeout time.Duration
}

// DefaultRegistryPath is $XDG_CONFIG_HOME/dorkbox/tracked.yml.
func DefaultRegistryPath() string {
	return filepath.Join(xdg.ConfigHome, "dorkbox", "tracked.yml")
}

// NewViper returns a viper instance with defaults and environment binding.
// Flags are bound by the caller with BindPFlags.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyRegistry, DefaultRegistryPath())
	v.SetDefault(KeyDebug, false)
	v.SetDefault(KeyLogFile, "")
	v.SetDefault(KeyTimeout, time.Duration(0))
	return v
}

// Load resolves Settings from v.
func Load(v *viper.Viper) (*Settings, error) {
	s := &Settings{
		RegistryPath: v.GetString(KeyRegistry),
		Debug:        v.GetBool(KeyDebug),
		LogFile:      v.GetString(KeyLogFile),
		Timeout:      v.GetDuration(KeyTimeout),
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks the settings for consistency.
func (s *Settings) Validate() error {
	if strings.TrimSpace(s.RegistryPath) == "" {
		return errors.New(errors.ErrTypeConfig, "registry path cannot be empty").
			WithSuggestion(fmt.Sprintf("Set --%s or %s_REGISTRY", KeyRegistry, EnvPrefix))
	}
	if s.Timeout < 0 {
		return errors.New(errors.ErrTypeConfig, fmt.Sprintf("timeout must not be negative, got %s", s.Timeout))
	}
	return nil
}
