package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type Config struct {
	LogDir             string          `yaml:"log_dir"`
	Delay              int             `yaml:"delay" env:"CSGOLP_DELAY"` // seconds between polls
	Timezone           string          `yaml:"timezone" env:"CSGOLP_TIMEZONE"`
	SteamIDTranslation *IdentityPolicy `yaml:"steam_id_translation"`
	OTel               OTelConfig      `yaml:"otel"`
	RCON               RCONConfig      `yaml:"rcon"`
	Discord            DiscordConfig   `yaml:"discord"`
}

type OTelConfig struct {
	Enabled         bool          `yaml:"enabled" env:"CSGOLP_OTEL_ENABLED"`
	Endpoint        string        `yaml:"endpoint"`
	ServiceName     string        `yaml:"service_name"`
	MetricsInterval time.Duration `yaml:"metrics_interval"`
}

type RCONConfig struct {
	Enabled        bool          `yaml:"enabled"`
	Host           string        `yaml:"host" env:"RCON_HOST"`
	Port           string        `yaml:"port" env:"RCON_PORT"`
	Password       string        `yaml:"-" env:"RCON_PASSWORD"` // from env only
	Timeout        time.Duration `yaml:"timeout"`
	Commands       []string      `yaml:"commands"`
	HealthInterval time.Duration `yaml:"health_interval"`
}

type DiscordConfig struct {
	Enabled   bool   `yaml:"enabled"`
	BotToken  string `yaml:"-" env:"DISCORD_BOT_TOKEN"`  // from env only
	ChannelID string `yaml:"-" env:"DISCORD_CHANNEL_ID"` // from env only
}

// configTemplate is written when no config file exists. Everything is
// commented out so it decodes to defaultConfig.
const configTemplate = `# csgolp configuration

# The directory containing your CS:GO server logs, e.g. <server install dir>/csgo/logs
# The DIR command line argument takes precedence.
#log_dir: ''

# Seconds to wait between checks for new log lines
#delay: 2

# Zone the server writes its log timestamps in (IANA name, or "Local")
#timezone: UTC

# Steam ID translation (set active: true). Specify a hash algorithm (MD5, SHA1,
# SHA256 or BLAKE3), a list of mappings, or both; a mapping always wins over the hash.
#steam_id_translation:
#  active: false
#  hash: SHA1
#  mappings:
#    - steam_id: 'STEAM_1:1:00000001'
#      name: 'Alice'
#    - steam_id: 'STEAM_1:0:00000002'
#      name: 'Bob'

# OpenTelemetry export of metrics and match records (OTLP/gRPC).
#otel:
#  enabled: false
#  endpoint: localhost:4317
#  service_name: csgolp
#  metrics_interval: 15s

# Turn on server logging over RCON. The password is read from RCON_PASSWORD.
#rcon:
#  enabled: false
#  host: localhost
#  port: '27015'
#  timeout: 5s
#  commands: ['log on', 'mp_logdetail 3']
#  health_interval: 60s

# Announce match results on Discord and relay channel chat to the server.
# Credentials are read from DISCORD_BOT_TOKEN and DISCORD_CHANNEL_ID.
#discord:
#  enabled: false
`

func defaultConfig() Config {
	return Config{
		Delay:    2,
		Timezone: "UTC",
		OTel: OTelConfig{
			ServiceName:     "csgolp",
			MetricsInterval: 15 * time.Second,
		},
		RCON: RCONConfig{
			Host:           "localhost",
			Port:           "27015",
			Timeout:        5 * time.Second,
			Commands:       []string{"log on", "mp_logdetail 3"},
			HealthInterval: 60 * time.Second,
		},
	}
}

// defaultConfigPath returns CONFIG_PATH, or config.yaml in the per-user config directory.
func defaultConfigPath() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(dir, "csgolp", "config.yaml")
}

// loadConfig reads the YAML file at path over the defaults and then applies
// environment overrides. A missing file is replaced by the commented
// template; created reports whether that happened.
func loadConfig(path string) (cfg Config, created bool, err error) {
	cfg = defaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := writeConfigTemplate(path); err != nil {
			return cfg, false, &ConfigError{Path: path, Err: err}
		}
		created = true
	case err != nil:
		return cfg, false, &ConfigError{Path: path, Err: err}
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, false, &ConfigError{Path: path, Err: err}
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, created, &ConfigError{Err: fmt.Errorf("parse env: %w", err)}
	}
	if err := cfg.validate(); err != nil {
		return cfg, created, &ConfigError{Path: path, Err: err}
	}
	return cfg, created, nil
}

func writeConfigTemplate(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(configTemplate), 0o644); err != nil {
		return fmt.Errorf("write config template: %w", err)
	}
	return nil
}

func (c *Config) validate() error {
	if c.Delay <= 0 {
		return fmt.Errorf("delay must be a positive number of seconds, got %d", c.Delay)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.OTel.Enabled && c.OTel.MetricsInterval <= 0 {
		return fmt.Errorf("otel.metrics_interval must be positive")
	}
	if c.RCON.Enabled {
		if c.RCON.Password == "" {
			return fmt.Errorf("RCON_PASSWORD env is required when rcon is enabled")
		}
		if c.RCON.HealthInterval <= 0 {
			return fmt.Errorf("rcon.health_interval must be positive")
		}
	}
	if c.Discord.BotToken != "" && c.Discord.ChannelID == "" {
		return fmt.Errorf("DISCORD_CHANNEL_ID is required when DISCORD_BOT_TOKEN is set")
	}
	if c.Discord.BotToken == "" {
		c.Discord.Enabled = false
	}
	return nil
}

// PollDelay is the pause between two reads of the log directory.
func (c *Config) PollDelay() time.Duration {
	return time.Duration(c.Delay) * time.Second
}

// Location is the zone log timestamps are interpreted in.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
