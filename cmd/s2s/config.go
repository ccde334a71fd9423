package main

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Config is ~/.config/s2s/config.yaml. Pointer fields distinguish "not set"
// from zero values.
type Config struct {
	ModelDir string `yaml:"model_dir"`

	// Translation defaults
	MaxLength    *int  `yaml:"max_length"`
	NoSubstitute *bool `yaml:"no_substitute"`

	// Output
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Server
	ServerAddress string `yaml:"server_address"`
	StoreCapacity *int   `yaml:"store_capacity"`
}

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "s2s", "config.yaml")
}

// LoadConfig reads the config file. A missing or unreadable file yields a
// zero Config.
func LoadConfig() Config {
	path := configPath()
	if path == "" {
		return Config{}
	}
	cfg, err := loadConfigFile(path)
	if err != nil {
		return Config{}
	}
	return cfg
}

func loadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Config{}, nil
	}
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyLoggingConfig(c *cli.Command, cfg Config) {
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
}

func applyModelConfig(c *cli.Command, cfg Config, modelDir *string) {
	if cfg.ModelDir != "" && !c.IsSet("model-dir") {
		*modelDir = cfg.ModelDir
	}
}

func applyTranslateConfig(c *cli.Command, cfg Config, modelDir *string, maxLength *int, noSubstitute *bool) {
	applyModelConfig(c, cfg, modelDir)
	if cfg.MaxLength != nil && !c.IsSet("max-length") {
		*maxLength = *cfg.MaxLength
	}
	if cfg.NoSubstitute != nil && !c.IsSet("no-substitute") {
		*noSubstitute = *cfg.NoSubstitute
	}
}

func applyServeConfig(c *cli.Command, cfg Config, modelDir, addr *string, storeCapacity *int) {
	applyModelConfig(c, cfg, modelDir)
	if cfg.ServerAddress != "" && !c.IsSet("addr") {
		*addr = cfg.ServerAddress
	}
	if cfg.StoreCapacity != nil && !c.IsSet("store-capacity") {
		*storeCapacity = *cfg.StoreCapacity
	}
}
