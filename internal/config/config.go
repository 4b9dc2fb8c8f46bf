package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config models taskdesk.yml.
type Config struct {
	Server struct {
		Addr                   string `yaml:"addr"`
		BasePath               string `yaml:"base_path"`
		JWTSecret              string `yaml:"jwt_secret"`
		AllowLegacyActorHeader bool   `yaml:"allow_legacy_actor_header"`
	} `yaml:"server"`
	Notifications struct {
		From string `yaml:"from"`
	} `yaml:"notifications"`
	Webhooks []WebhookConfig `yaml:"webhooks"`
	Seed     struct {
		AdminUsername string `yaml:"admin_username"`
		AdminEmail    string `yaml:"admin_email"`
	} `yaml:"seed"`
}

// WebhookConfig describes one outbound hook fed by the task ledger.
type WebhookConfig struct {
	URL            string   `yaml:"url"`
	Secret         string   `yaml:"secret"`
	Actions        []string `yaml:"actions"`
	TimeoutSeconds int      `yaml:"timeout_seconds"`
	Enabled        *bool    `yaml:"enabled"`
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("config.server.addr is required")
	}
	if c.Server.BasePath != "" && !strings.HasPrefix(c.Server.BasePath, "/") {
		return fmt.Errorf("config.server.base_path must start with /")
	}
	for i, hook := range c.Webhooks {
		if strings.TrimSpace(hook.URL) == "" {
			return fmt.Errorf("webhook %d has empty url", i)
		}
		if hook.TimeoutSeconds < 0 {
			return fmt.Errorf("webhook %d has negative timeout", i)
		}
	}
	if c.Seed.AdminUsername != "" && c.Seed.AdminEmail == "" {
		return fmt.Errorf("config.seed.admin_email is required when admin_username is set")
	}
	return nil
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "taskdesk.yml")
}

// Default returns the default Config struct.
func Default() *Config {
	var cfg Config
	cfg.Server.Addr = ":8080"
	cfg.Server.BasePath = "/v1"
	cfg.Notifications.From = "noreply@taskdesk.local"
	cfg.Seed.AdminUsername = "admin"
	cfg.Seed.AdminEmail = "admin@taskdesk.local"
	return &cfg
}

// Load reads and validates config from workspace, falling back to defaults
// when the file does not exist.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// FromYAML parses and validates config from raw YAML bytes. Missing fields
// keep their defaults.
func FromYAML(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}
