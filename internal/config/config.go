// Package config provides configuration loading and path management.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/tidwall/jsonc"
)

// Defaults for turn execution. The request ceiling is long because a turn
// may fan out to several slow specialist tools upstream.
const (
	DefaultRequestTimeout = 5 * time.Minute
	DefaultMaxAttempts    = 3
	DefaultInitialBackoff = 500 * time.Millisecond
)

// Config holds the client configuration.
type Config struct {
	// BaseURL is the AgentCore endpoint, e.g. https://agentcore.example.com.
	BaseURL string `json:"baseUrl"`
	// AccessToken is the bearer token attached to every request. Usually
	// supplied via TRIPAGENT_ACCESS_TOKEN rather than a config file.
	AccessToken string `json:"accessToken,omitempty"`
	// UserID identifies the signed-in user for log correlation.
	UserID string `json:"userId,omitempty"`

	// RequestTimeoutSec bounds one turn end to end. Zero means the default.
	RequestTimeoutSec int `json:"requestTimeoutSec,omitempty"`
	// MaxAttempts caps transport retries per turn. Zero means the default.
	MaxAttempts int `json:"maxAttempts,omitempty"`
	// InitialBackoffMs is the first retry delay. Zero means the default.
	InitialBackoffMs int `json:"initialBackoffMs,omitempty"`

	LogLevel string `json:"logLevel,omitempty"`
	Pretty   bool   `json:"pretty,omitempty"`
}

// RequestTimeout returns the configured turn ceiling.
func (c *Config) RequestTimeout() time.Duration {
	if c.RequestTimeoutSec > 0 {
		return time.Duration(c.RequestTimeoutSec) * time.Second
	}
	return DefaultRequestTimeout
}

// RetryMaxAttempts returns the configured retry cap.
func (c *Config) RetryMaxAttempts() int {
	if c.MaxAttempts > 0 {
		return c.MaxAttempts
	}
	return DefaultMaxAttempts
}

// InitialBackoff returns the configured first retry delay.
func (c *Config) InitialBackoff() time.Duration {
	if c.InitialBackoffMs > 0 {
		return time.Duration(c.InitialBackoffMs) * time.Millisecond
	}
	return DefaultInitialBackoff
}

// Load loads configuration from multiple sources (priority order):
// 1. Global config (~/.tripagent/)
// 2. Global config (~/.config/tripagent/ - XDG compatible)
// 3. Project config (working directory)
// 4. TRIPAGENT_CONFIG file
// 5. .env file in the working directory
// 6. Environment variables
func Load(directory string) (*Config, error) {
	config := &Config{}

	loaded := make(map[string]bool)
	loadOnce := func(path string) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return
		}
		if loaded[absPath] {
			return
		}
		if loadConfigFile(path, config) == nil {
			loaded[absPath] = true
		}
	}

	// 1. Home config (~/.tripagent/)
	home := os.Getenv("HOME")
	if home != "" {
		homeDir := filepath.Join(home, ".tripagent")
		loadOnce(filepath.Join(homeDir, "tripagent.json"))
		loadOnce(filepath.Join(homeDir, "tripagent.jsonc"))
	}

	// 2. XDG config (~/.config/tripagent/)
	globalPath := GetPaths().Config
	loadOnce(filepath.Join(globalPath, "tripagent.json"))
	loadOnce(filepath.Join(globalPath, "tripagent.jsonc"))

	// 3. Project config
	if directory != "" {
		loadOnce(filepath.Join(directory, "tripagent.json"))
		loadOnce(filepath.Join(directory, "tripagent.jsonc"))
	}

	// 4. TRIPAGENT_CONFIG file override
	if configPath := os.Getenv("TRIPAGENT_CONFIG"); configPath != "" {
		loadOnce(configPath)
	}

	// 5. .env in the working directory (never overrides real env vars)
	if directory != "" {
		_ = godotenv.Load(filepath.Join(directory, ".env"))
	}

	// 6. Environment variables (highest priority)
	applyEnvOverrides(config)

	return config, nil
}

// loadConfigFile loads a single config file with interpolation support.
func loadConfigFile(path string, config *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err // File doesn't exist, skip
	}

	// Strip JSONC comments using tidwall/jsonc
	data = jsonc.ToJSON(data)

	// Apply {env:VAR} interpolation
	data = interpolate(data)

	var fileConfig Config
	if err := json.Unmarshal(data, &fileConfig); err != nil {
		return err
	}

	mergeConfig(config, &fileConfig)
	return nil
}

// interpolate processes {env:VAR} placeholders.
func interpolate(data []byte) []byte {
	envPattern := regexp.MustCompile(`\{env:([^}]+)\}`)
	str := envPattern.ReplaceAllStringFunc(string(data), func(match string) string {
		varName := envPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
	return []byte(str)
}

// mergeConfig merges source config into target.
func mergeConfig(target, source *Config) {
	if source.BaseURL != "" {
		target.BaseURL = source.BaseURL
	}
	if source.AccessToken != "" {
		target.AccessToken = source.AccessToken
	}
	if source.UserID != "" {
		target.UserID = source.UserID
	}
	if source.RequestTimeoutSec > 0 {
		target.RequestTimeoutSec = source.RequestTimeoutSec
	}
	if source.MaxAttempts > 0 {
		target.MaxAttempts = source.MaxAttempts
	}
	if source.InitialBackoffMs > 0 {
		target.InitialBackoffMs = source.InitialBackoffMs
	}
	if source.LogLevel != "" {
		target.LogLevel = source.LogLevel
	}
	if source.Pretty {
		target.Pretty = true
	}
}

// applyEnvOverrides applies environment variable overrides.
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("TRIPAGENT_BASE_URL"); v != "" {
		config.BaseURL = v
	}
	if v := os.Getenv("TRIPAGENT_ACCESS_TOKEN"); v != "" {
		config.AccessToken = v
	}
	if v := os.Getenv("TRIPAGENT_USER_ID"); v != "" {
		config.UserID = v
	}
	if v := os.Getenv("TRIPAGENT_LOG_LEVEL"); v != "" {
		config.LogLevel = v
	}
	if v := os.Getenv("TRIPAGENT_TIMEOUT_SEC"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			config.RequestTimeoutSec = n
		}
	}
	if v := os.Getenv("TRIPAGENT_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			config.MaxAttempts = n
		}
	}
}

// Save saves the configuration to a file.
func Save(config *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
