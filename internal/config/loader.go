package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Loader provides settings loading capabilities.
type Loader interface {
	// Load loads settings from file and environment variables.
	// Priority: defaults → settings file → environment variables (env wins)
	Load() (*Settings, error)
}

type loader struct {
	searchDir  string
	configFile string
}

// NewLoader creates a loader that looks for .expconf.yml (or .yaml) in dir.
// A missing file is not an error.
func NewLoader(dir string) Loader {
	return &loader{searchDir: dir}
}

// NewFileLoader creates a loader for an explicit settings file, which must
// exist.
func NewFileLoader(path string) Loader {
	return &loader{configFile: path}
}

// Load loads settings with the following priority (highest to lowest):
// 1. Environment variables (EXPCONF_*)
// 2. Settings file
// 3. Default values
func (l *loader) Load() (*Settings, error) {
	v := viper.New()

	if l.configFile != "" {
		v.SetConfigFile(l.configFile)
	} else {
		v.SetConfigName(".expconf")
		v.SetConfigType("yaml")
		v.AddConfigPath(l.searchDir)
	}

	// Enable environment variable overrides
	v.SetEnvPrefix("EXPCONF")
	v.AutomaticEnv()
	// Replace . with _ in env var names (e.g., EXPCONF_LOG_LEVEL)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	bindEnvVars(v)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Settings file not found is acceptable - we'll use defaults + env vars
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read settings file: %w", err)
		}
	}

	s := &Settings{}
	if err := v.Unmarshal(s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal settings: %w", err)
	}

	return s, nil
}

func bindEnvVars(v *viper.Viper) {
	v.BindEnv("root")
	v.BindEnv("expid")
	v.BindEnv("custom_dir")
	v.BindEnv("custom_patterns")
	v.BindEnv("strict_keys")
	v.BindEnv("mtime_tolerance")
	v.BindEnv("log.level")
	v.BindEnv("log.pretty")
}

// setDefaults configures viper with default values.
func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("root", defaults.Root)
	v.SetDefault("expid", defaults.ExpID)
	v.SetDefault("custom_dir", defaults.CustomDir)
	v.SetDefault("custom_patterns", defaults.CustomPatterns)
	v.SetDefault("strict_keys", defaults.StrictKeys)
	v.SetDefault("mtime_tolerance", defaults.MtimeTolerance)
	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("log.pretty", defaults.Log.Pretty)
}
