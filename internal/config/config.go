// Package config loads the agent configuration: a TOML file under the
// agent home directory with LOOPLY_AGENT_* environment overrides.
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
	configName = "agent"
	configType = "toml"

	homeEnv        = "LOOPLY_AGENT_HOME"
	defaultHomeDir = ".looply-agent"
)

// DefaultBootstrapPaths is the fixed resource set cached unconditionally
// at install: application shell, offline fallback, manifest, icons.
var DefaultBootstrapPaths = []string{
	"/",
	"/offline.html",
	"/manifest.json",
	"/icons/icon-192x192.png",
	"/icons/icon-512x512.png",
}

type Config struct {
	ListenAddr        string
	OriginURL         string
	CacheDir          string
	CacheVersion      string
	BootstrapManifest string
	OfflinePath       string
	OpenCommand       string
	FetchTimeout      time.Duration
	ShutdownGrace     time.Duration
}

// Load reads the config file (missing is fine, defaults apply) and the
// environment.
func Load() (Config, error) {
	home, err := homeDir()
	if err != nil {
		return Config{}, err
	}

	v := viper.New()
	v.SetConfigName(configName)
	v.SetConfigType(configType)
	v.AddConfigPath(home)
	v.SetEnvPrefix("LOOPLY_AGENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("listen_addr", "127.0.0.1:8787")
	v.SetDefault("origin_url", "https://looply.app")
	v.SetDefault("cache.dir", filepath.Join(home, "cache"))
	v.SetDefault("cache.version", "looply-static-v1")
	v.SetDefault("cache.bootstrap_manifest", "")
	v.SetDefault("cache.offline_path", "/offline.html")
	v.SetDefault("open_command", "xdg-open")
	v.SetDefault("fetch_timeout", "30s")
	v.SetDefault("shutdown_grace", "10s")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := Config{
		ListenAddr:        v.GetString("listen_addr"),
		OriginURL:         v.GetString("origin_url"),
		CacheDir:          v.GetString("cache.dir"),
		CacheVersion:      v.GetString("cache.version"),
		BootstrapManifest: v.GetString("cache.bootstrap_manifest"),
		OfflinePath:       v.GetString("cache.offline_path"),
		OpenCommand:       v.GetString("open_command"),
		FetchTimeout:      v.GetDuration("fetch_timeout"),
		ShutdownGrace:     v.GetDuration("shutdown_grace"),
	}
	if cfg.OriginURL == "" {
		return Config{}, errors.New("origin url is empty")
	}
	if cfg.CacheVersion == "" {
		return Config{}, errors.New("cache version is empty")
	}
	return cfg, nil
}

// BootstrapPaths returns the install-time precache set: the YAML manifest
// when configured, the built-in default set otherwise.
func (c Config) BootstrapPaths() ([]string, error) {
	if c.BootstrapManifest == "" {
		return DefaultBootstrapPaths, nil
	}

	raw, err := os.ReadFile(c.BootstrapManifest)
	if err != nil {
		return nil, fmt.Errorf("read bootstrap manifest: %w", err)
	}

	var manifest struct {
		Paths []string `yaml:"paths"`
	}
	if err := yaml.Unmarshal(raw, &manifest); err != nil {
		return nil, fmt.Errorf("decode bootstrap manifest: %w", err)
	}
	if len(manifest.Paths) == 0 {
		return nil, fmt.Errorf("bootstrap manifest %q lists no paths", c.BootstrapManifest)
	}
	return manifest.Paths, nil
}

func homeDir() (string, error) {
	if dir := os.Getenv(homeEnv); dir != "" {
		return dir, nil
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(userHome, defaultHomeDir), nil
}
