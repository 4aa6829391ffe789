// Package config resolves quadra's runtime configuration: the database
// location, LLM and catalog credentials, and the HTTP entry point settings.
//
// Precedence: QUADRA_* environment variables override config.yaml, which
// overrides defaults. The viper singleton is initialized once from the
// quadra directory.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Defaults.
const (
	DefaultDirName    = ".quadra"
	DefaultDBFile     = "quadra.db"
	DefaultListenAddr = ":8090"
)

// Init loads config.yaml from dir (or the default quadra dir) into the viper
// singleton. A missing config file is not an error.
func Init(dir string) error {
	if dir == "" {
		dir = DefaultDir()
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(dir)

	viper.SetEnvPrefix("QUADRA")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("db-path", filepath.Join(dir, DefaultDBFile))
	viper.SetDefault("listen-addr", DefaultListenAddr)

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	return nil
}

// DefaultDir returns the default quadra directory (~/.quadra).
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultDirName
	}
	return filepath.Join(home, DefaultDirName)
}

// DBPath returns the configured database path.
func DBPath() string {
	return viper.GetString("db-path")
}

// ListenAddr returns the HTTP listen address for qd serve.
func ListenAddr() string {
	return viper.GetString("listen-addr")
}

// CronSecret returns the optional shared secret guarding the fill endpoint.
// Empty disables authorization.
func CronSecret() string {
	return viper.GetString("cron-secret")
}

// LLMModel returns the configured model override, or empty for the default.
func LLMModel() string {
	return viper.GetString("llm-model")
}

// Credentials bundles every external credential the pipeline consumes.
// Both the cron path and the interactive path resolve credentials here, so
// there is a single provider regardless of how a fill was initiated.
type Credentials struct {
	LLMAPIKey       string
	FilmCatalogKey  string
	MusicCatalogKey string
}

// LoadCredentials resolves credentials from viper (config.yaml + QUADRA_*
// env). ANTHROPIC_API_KEY is honored as a fallback for the LLM key since
// that is what the provider SDK documents.
func LoadCredentials() Credentials {
	creds := Credentials{
		LLMAPIKey:       viper.GetString("llm-api-key"),
		FilmCatalogKey:  viper.GetString("film-catalog-api-key"),
		MusicCatalogKey: viper.GetString("music-catalog-api-key"),
	}
	if creds.LLMAPIKey == "" {
		creds.LLMAPIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	return creds
}
