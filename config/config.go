package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	PlatformBearerToken string   `yaml:"platform_bearer_token"`
	GeminiAPIKey        string   `yaml:"gemini_api_key"`
	GeminiModel         string   `yaml:"gemini_model"`
	ReferenceAccounts   []string `yaml:"reference_accounts"`
	MonitoredAccounts   []string `yaml:"monitored_accounts"`
	LearningIntervalMin int      `yaml:"learning_interval_mins"`
	RoundCooldownMin    int      `yaml:"round_cooldown_mins"`
	PostThrottleSecs    int      `yaml:"post_throttle_secs"`
	CacheCapacity       int      `yaml:"cache_capacity"`
	CacheTTLHours       int      `yaml:"cache_ttl_hours"`
	LearnFetchLimit     int      `yaml:"learn_fetch_limit"`
	RespondFetchLimit   int      `yaml:"respond_fetch_limit"`
	PostMaxAgeMins      int      `yaml:"post_max_age_mins"`
	ResponseStyle       string   `yaml:"response_style"`
	FetchTimeoutSecs    int      `yaml:"fetch_timeout_secs"`
	DBPath              string   `yaml:"db_path"`
	LogLevel            string   `yaml:"log_level"`
}

// Load reads configuration from a YAML file and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config yaml: %w", err)
	}

	applyDefaults(cfg)
	applyEnvironmentOverrides(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// GetConfigPath returns the config file path from environment or default.
func GetConfigPath() string {
	if path := os.Getenv("XRB_CONFIG"); path != "" {
		return path
	}
	return "./config.yaml"
}

// LearningInterval returns the period between learning cycles.
func (c *Config) LearningInterval() time.Duration {
	return time.Duration(c.LearningIntervalMin) * time.Minute
}

// RoundCooldown returns the pause after each full response round.
func (c *Config) RoundCooldown() time.Duration {
	return time.Duration(c.RoundCooldownMin) * time.Minute
}

// PostThrottle returns the pause between handled posts and accounts.
func (c *Config) PostThrottle() time.Duration {
	return time.Duration(c.PostThrottleSecs) * time.Second
}

// CacheTTL returns how long a responded post stays deduplicated.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLHours) * time.Hour
}

// PostMaxAge returns the oldest a post may be and still get a reply.
func (c *Config) PostMaxAge() time.Duration {
	return time.Duration(c.PostMaxAgeMins) * time.Minute
}

// FetchTimeout returns the HTTP timeout for collaborator calls.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSecs) * time.Second
}

func applyDefaults(cfg *Config) {
	if cfg.GeminiModel == "" {
		cfg.GeminiModel = "gemini-2.0-flash-lite"
	}
	if cfg.LearningIntervalMin == 0 {
		cfg.LearningIntervalMin = 10
	}
	if cfg.RoundCooldownMin == 0 {
		cfg.RoundCooldownMin = 90
	}
	if cfg.PostThrottleSecs == 0 {
		cfg.PostThrottleSecs = 60
	}
	if cfg.CacheCapacity == 0 {
		cfg.CacheCapacity = 1000
	}
	if cfg.CacheTTLHours == 0 {
		cfg.CacheTTLHours = 24
	}
	if cfg.LearnFetchLimit == 0 {
		cfg.LearnFetchLimit = 50
	}
	if cfg.RespondFetchLimit == 0 {
		cfg.RespondFetchLimit = 15
	}
	if cfg.PostMaxAgeMins == 0 {
		cfg.PostMaxAgeMins = 60
	}
	if cfg.ResponseStyle == "" {
		cfg.ResponseStyle = "informal"
	}
	if cfg.FetchTimeoutSecs == 0 {
		cfg.FetchTimeoutSecs = 10
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "./xreply.db"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
}

func applyEnvironmentOverrides(cfg *Config) {
	if dbPath := os.Getenv("XRB_DB"); dbPath != "" {
		cfg.DBPath = dbPath
	}
}

func validate(cfg *Config) error {
	if cfg.PlatformBearerToken == "" {
		return fmt.Errorf("platform_bearer_token is required")
	}
	if cfg.GeminiAPIKey == "" {
		return fmt.Errorf("gemini_api_key is required")
	}
	if len(cfg.ReferenceAccounts) == 0 {
		return fmt.Errorf("reference_accounts must not be empty")
	}
	if len(cfg.MonitoredAccounts) == 0 {
		return fmt.Errorf("monitored_accounts must not be empty")
	}
	if cfg.LearningIntervalMin < 0 || cfg.RoundCooldownMin < 0 || cfg.PostThrottleSecs < 0 {
		return fmt.Errorf("intervals must not be negative")
	}
	if cfg.CacheCapacity < 1 {
		return fmt.Errorf("cache_capacity must be at least 1, got %d", cfg.CacheCapacity)
	}
	if cfg.CacheTTLHours < 1 {
		return fmt.Errorf("cache_ttl_hours must be at least 1, got %d", cfg.CacheTTLHours)
	}
	return nil
}
