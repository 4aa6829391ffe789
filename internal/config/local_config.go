package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LocalConfig is the subset of config.yaml fields that are read directly
// from the file rather than through the viper singleton. Used when checking
// config before viper is initialized (e.g. deciding whether a quadra dir is
// set up at all).
type LocalConfig struct {
	DBPath     string `yaml:"db-path"`
	ListenAddr string `yaml:"listen-addr"`
	CronSecret string `yaml:"cron-secret"`
}

// LoadLocalConfig reads and parses config.yaml directly from dir. Returns an
// empty LocalConfig (not nil) if the file doesn't exist or can't be parsed.
func LoadLocalConfig(dir string) *LocalConfig {
	data, err := os.ReadFile(filepath.Join(dir, "config.yaml")) // #nosec G304 - path from quadra dir
	if err != nil {
		return &LocalConfig{}
	}
	var cfg LocalConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return &LocalConfig{}
	}
	return &cfg
}
