package config

import (
	"time"
)

type Config struct {
	Server    ServerConfig
	Backend   BackendConfig
	Telegram  TelegramConfig
	Connector ConnectorConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// BackendConfig points at the assistant backend that terminates the
// connector stream.
type BackendConfig struct {
	URL            string        `mapstructure:"url"`
	SessionTimeout time.Duration `mapstructure:"session_timeout"`
}

type TelegramConfig struct {
	Token string `mapstructure:"token"`
	// Allowlist is a comma-separated list of permitted user ids or
	// usernames. Empty means the bot is open to everyone.
	Allowlist   string        `mapstructure:"allowlist"`
	PollTimeout time.Duration `mapstructure:"poll_timeout"`
}

type ConnectorConfig struct {
	ID           string        `mapstructure:"id"`
	ReplyTimeout time.Duration `mapstructure:"reply_timeout"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func Load(configFile string) (*Config, error) {
	return LoadConfig(configFile)
}
