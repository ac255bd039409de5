package config

import (
	"fmt"
	"os"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix prefixes every environment override, e.g. PLANNER_BACKEND.
	EnvPrefix = "PLANNER"
	// PathEnv names an extra directory searched for .planner.yaml.
	PathEnv = "PLANNER_CONFIG_PATH"

	DefaultPath    = "~/.planner"
	DefaultBackend = "diskv"
)

// Config is the resolved planner configuration. It satisfies store.Config.
type Config struct {
	Path     string `json:"path" yaml:"path"`
	Store    string `json:"backend" yaml:"backend"`
	Owner    string `json:"owner" yaml:"owner"`
	Timezone string `json:"timezone,omitempty" yaml:"timezone,omitempty"`
}

func (c *Config) BasePath() string { return c.Path }

func (c *Config) Backend() string { return c.Store }

// Location resolves Timezone, falling back to the local zone when unset.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Load reads .planner.yaml from $PLANNER_CONFIG_PATH or the working
// directory, then applies PLANNER_* environment overrides. A missing file is
// not an error.
func Load() (*Config, error) {
	v := viper.New()
	v.SetDefault("path", DefaultPath)
	v.SetDefault("backend", DefaultBackend)
	v.SetDefault("owner", os.Getenv("USER"))
	v.SetDefault("timezone", "")
	v.SetConfigName(".planner") // .yaml is implicit
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if override := os.Getenv(PathEnv); override != "" {
		v.AddConfigPath(override)
	}
	v.AddConfigPath("./")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("config: reading %s: %w", v.ConfigFileUsed(), err)
		}
	}

	path, err := homedir.Expand(v.GetString("path"))
	if err != nil {
		return nil, fmt.Errorf("config: expanding path: %w", err)
	}
	cfg := &Config{
		Path:     path,
		Store:    v.GetString("backend"),
		Owner:    v.GetString("owner"),
		Timezone: v.GetString("timezone"),
	}
	if _, err := cfg.Location(); err != nil {
		return nil, err
	}
	return cfg, nil
}
