package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// ConfigEnv points at an explicit config file and takes precedence over
// the search path. An unreadable explicit file is an error; a missing
// file on the search path is not (the CLI must run bare).
const ConfigEnv = "QUOTAGUARD_CONFIG"

// Config holds the quotaguard configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Storage    StorageConfig    `yaml:"storage"`
	Auth       AuthConfig       `yaml:"auth"`
	Credential CredentialConfig `yaml:"credential"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds serve-mode API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds serve-mode HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// StorageConfig holds quota state storage settings.
type StorageConfig struct {
	StateDir string `yaml:"state_dir"` // empty: QUOTAGUARD_STATE_DIR or the OS config dir
}

// CredentialConfig describes where the privileged credential lives.
// The guard never reads the credential itself; admitted requests print
// the export instruction built from these values.
type CredentialConfig struct {
	KeychainService string `yaml:"keychain_service"`
	EnvVar          string `yaml:"env_var"`
}

// Load reads configuration for the given environment name (local, dev,
// prod). Search order: $QUOTAGUARD_CONFIG, ./config/<env>.yaml, then
// <user config dir>/quotaguard/config.yaml. No file at all means
// defaults only.
func Load(env string) (Config, error) {
	var cfg Config

	path, explicit := configPath(env)
	if path != "" {
		data, err := os.ReadFile(filepath.Clean(path))
		switch {
		case err == nil:
			// Substitute env variables of the form ${VAR} before parsing.
			data = expandEnvVars(data)
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		case explicit || !errors.Is(err, os.ErrNotExist):
			return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port <= 0 {
		c.HTTP.Port = 8787
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Credential.KeychainService == "" {
		c.Credential.KeychainService = "openai-api-key"
	}
	if c.Credential.EnvVar == "" {
		c.Credential.EnvVar = "OPENAI_API_KEY"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
		// ok
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	return nil
}

// configPath locates the config file. explicit reports whether the path
// came from $QUOTAGUARD_CONFIG, in which case it must exist.
func configPath(env string) (path string, explicit bool) {
	if p := os.Getenv(ConfigEnv); p != "" {
		return p, true
	}

	if p := filepath.Join("config", env+".yaml"); fileExists(p) {
		return p, false
	}

	if base, err := os.UserConfigDir(); err == nil {
		if p := filepath.Join(base, "quotaguard", "config.yaml"); fileExists(p) {
			return p, false
		}
	}

	return "", false
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
