package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration
type Config struct {
	Database string       `yaml:"database,omitempty"` // Local cache file (fallback: data.db)
	Remote   RemoteConfig `yaml:"remote,omitempty"`
	Audit    AuditConfig  `yaml:"audit,omitempty"`
	MQTT     MQTTConfig   `yaml:"mqtt,omitempty"`
}

// RemoteConfig tunes the HTTP transport to the spreadsheet row store.
// The endpoint URL itself lives in the local store, not here.
type RemoteConfig struct {
	TimeoutSeconds int     `yaml:"timeout_seconds,omitempty"` // Per-request timeout (fallback: 15)
	ConfirmWrites  bool    `yaml:"confirm_writes,omitempty"`  // Inspect SAVE/DELETE replies instead of fire-and-forget
	RateLimit      float64 `yaml:"rate_limit,omitempty"`      // Requests per second (fallback: 2)
	Burst          int     `yaml:"burst,omitempty"`           // (fallback: 4)
	Timezone       string  `yaml:"timezone,omitempty"`        // IANA zone of the spreadsheet, e.g. "Asia/Kolkata" (fallback: local)
}

// AuditConfig holds the optional AI summary settings
type AuditConfig struct {
	APIKey         string `yaml:"api_key,omitempty"`
	Model          string `yaml:"model,omitempty"`
	BaseURL        string `yaml:"base_url,omitempty"`
	TimeoutSeconds int    `yaml:"timeout_seconds,omitempty"`
}

// MQTTConfig holds the optional record mirror settings
type MQTTConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Broker      string `yaml:"broker"` // e.g., "mqtt.local:1883"
	Username    string `yaml:"username,omitempty"`
	Password    string `yaml:"password,omitempty"`
	TopicPrefix string `yaml:"topic_prefix,omitempty"` // fallback: "dispatchtracker"
}

const (
	defaultDatabase        = "data.db"
	defaultRemoteTimeout   = 15 * time.Second
	defaultRateLimit       = 2.0
	defaultBurst           = 4
	defaultAuditModel      = "gemini-2.0-flash"
	defaultAuditBaseURL    = "https://generativelanguage.googleapis.com/v1beta"
	defaultAuditTimeout    = 30 * time.Second
	defaultMQTTTopicPrefix = "dispatchtracker"
)

// Load reads the config file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// Return empty config if file doesn't exist
			return &Config{}, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return &cfg, nil
}

// Save writes the config to file
func Save(configPath string, cfg *Config) error {
	// Ensure directory exists
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// DefaultConfigPath returns the default config file path (local directory)
func DefaultConfigPath() string {
	return "config.yaml"
}

// GetDatabase returns the local cache path
func (c *Config) GetDatabase() string {
	if c.Database == "" {
		return defaultDatabase
	}
	return c.Database
}

// GetRemoteTimeout returns the per-request timeout for the row store
func (c *Config) GetRemoteTimeout() time.Duration {
	if c.Remote.TimeoutSeconds <= 0 {
		return defaultRemoteTimeout
	}
	return time.Duration(c.Remote.TimeoutSeconds) * time.Second
}

// GetRateLimit returns the outbound request rate and burst
func (c *Config) GetRateLimit() (float64, int) {
	rps, burst := c.Remote.RateLimit, c.Remote.Burst
	if rps <= 0 {
		rps = defaultRateLimit
	}
	if burst <= 0 {
		burst = defaultBurst
	}
	return rps, burst
}

// GetRemoteLocation returns the spreadsheet's timezone, used to read its
// Date cells
func (c *Config) GetRemoteLocation() (*time.Location, error) {
	if c.Remote.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Remote.Timezone)
	if err != nil {
		return nil, fmt.Errorf("remote.timezone: %w", err)
	}
	return loc, nil
}

// GetAuditAPIKey returns the AI summary key; the environment wins over the file
func (c *Config) GetAuditAPIKey() string {
	for _, env := range []string{"GEMINI_API_KEY", "API_KEY"} {
		if v := os.Getenv(env); v != "" {
			return v
		}
	}
	return c.Audit.APIKey
}

// GetAuditModel returns the model name used for summaries
func (c *Config) GetAuditModel() string {
	if c.Audit.Model == "" {
		return defaultAuditModel
	}
	return c.Audit.Model
}

// GetAuditBaseURL returns the generative API base URL
func (c *Config) GetAuditBaseURL() string {
	if c.Audit.BaseURL == "" {
		return defaultAuditBaseURL
	}
	return c.Audit.BaseURL
}

// GetAuditTimeout returns the summary request timeout
func (c *Config) GetAuditTimeout() time.Duration {
	if c.Audit.TimeoutSeconds <= 0 {
		return defaultAuditTimeout
	}
	return time.Duration(c.Audit.TimeoutSeconds) * time.Second
}

// GetTopicPrefix returns the MQTT topic prefix
func (m MQTTConfig) GetTopicPrefix() string {
	if m.TopicPrefix == "" {
		return defaultMQTTTopicPrefix
	}
	return m.TopicPrefix
}
