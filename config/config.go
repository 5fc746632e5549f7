// Package config loads tool settings from an optional yaml file and the
// environment.
package config

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	// Image is the path of the filesystem image to operate on.
	Image string `yaml:"image" env:"VSFS_IMAGE" env-default:"vsfs.img"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" env:"VSFS_LOG_LEVEL" env-default:"info"`
}

// DefaultPath is looked for in the working directory.
const DefaultPath = "vsfs.yaml"

// Load reads path when it exists, with environment variables taking
// precedence; otherwise it falls back to environment and defaults.
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		return &cfg, nil
	}
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read config from env: %w", err)
	}
	return &cfg, nil
}
