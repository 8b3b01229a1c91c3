package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	DefaultAPIBaseURL     = "http://localhost:8001"
	DefaultSessionTTL     = 30 * time.Second
	DefaultElapsedRefresh = 30 * time.Second
	envPrefix             = "ROUTINECTL"
	dirName               = ".routinectl"
)

type Config struct {
	APIBaseURL     string        `mapstructure:"api_base_url" yaml:"api_base_url"`
	DataDir        string        `mapstructure:"data_dir" yaml:"data_dir"`
	SessionTTL     time.Duration `mapstructure:"session_ttl" yaml:"session_ttl"`
	ElapsedRefresh time.Duration `mapstructure:"elapsed_refresh" yaml:"elapsed_refresh"`
	LogLevel       string        `mapstructure:"log_level" yaml:"log_level"`
	LogFormat      string        `mapstructure:"log_format" yaml:"log_format"`
	SentryDSN      string        `mapstructure:"sentry_dsn" yaml:"sentry_dsn"`
}

// Overrides are command-line values applied after files and environment.
type Overrides struct {
	APIBaseURL string
	DataDir    string
}

func Default() Config {
	home, _ := os.UserHomeDir()
	return Config{
		APIBaseURL:     DefaultAPIBaseURL,
		DataDir:        filepath.Join(home, dirName),
		SessionTTL:     DefaultSessionTTL,
		ElapsedRefresh: DefaultElapsedRefresh,
		LogLevel:       "warn",
		LogFormat:      "text",
	}
}

// Load merges defaults, the global file, the project file, ROUTINECTL_*
// environment variables and overrides, in that order.
func Load(overrides Overrides) (Config, error) {
	home, _ := os.UserHomeDir()
	cwd, _ := os.Getwd()
	var paths []string
	if home != "" {
		paths = append(paths, filepath.Join(home, dirName, "config.yaml"))
	}
	if cwd != "" {
		paths = append(paths, filepath.Join(cwd, dirName, "config.yaml"))
	}
	return LoadFiles(paths, overrides)
}

func LoadFiles(paths []string, overrides Overrides) (Config, error) {
	cfg := Default()
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v, cfg)
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return Config{}, fmt.Errorf("stat config %s: %w", path, err)
		}
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if overrides.APIBaseURL != "" {
		cfg.APIBaseURL = overrides.APIBaseURL
	}
	if overrides.DataDir != "" {
		cfg.DataDir = overrides.DataDir
	}
	return cfg, cfg.Validate()
}

func setDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("api_base_url", cfg.APIBaseURL)
	v.SetDefault("data_dir", cfg.DataDir)
	v.SetDefault("session_ttl", cfg.SessionTTL)
	v.SetDefault("elapsed_refresh", cfg.ElapsedRefresh)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("log_format", cfg.LogFormat)
	v.SetDefault("sentry_dsn", cfg.SentryDSN)
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.APIBaseURL) == "" {
		return fmt.Errorf("api_base_url is required")
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session_ttl must be positive")
	}
	if c.ElapsedRefresh <= 0 {
		return fmt.Errorf("elapsed_refresh must be positive")
	}
	return nil
}

func (c Config) DBPath() string {
	return filepath.Join(c.DataDir, "routinectl.db")
}

func (c Config) PluginDir() string {
	return c.DataDir
}

// WriteDefault writes the default configuration to path unless it exists.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config already exists: %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	cfg := Default()
	raw, err := yaml.Marshal(map[string]any{
		"api_base_url":    cfg.APIBaseURL,
		"session_ttl":     cfg.SessionTTL.String(),
		"elapsed_refresh": cfg.ElapsedRefresh.String(),
		"log_level":       cfg.LogLevel,
		"log_format":      cfg.LogFormat,
	})
	if err != nil {
		return fmt.Errorf("marshal default config: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func GlobalConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, dirName, "config.yaml")
}
