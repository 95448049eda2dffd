package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"courier/internal/constants"
)

func LoadConfig(configFile string) (*Config, error) {
	viper.Reset()

	viper.SetConfigType("yaml")
	viper.SetConfigFile(configFile)

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	bindEnvVariables()
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := ValidateStatic(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func bindEnvVariables() {
	viper.BindEnv("backend.url", "BACKEND_URL")
	viper.BindEnv("backend.session_timeout", "BACKEND_SESSION_TIMEOUT")

	viper.BindEnv("telegram.token", "TELEGRAM_TOKEN")
	viper.BindEnv("telegram.allowlist", "TELEGRAM_ALLOWLIST")
	viper.BindEnv("telegram.poll_timeout", "TELEGRAM_POLL_TIMEOUT")

	viper.BindEnv("connector.id", "CONNECTOR_ID")
	viper.BindEnv("connector.reply_timeout", "CONNECTOR_REPLY_TIMEOUT")

	viper.BindEnv("server.port", "SERVER_PORT")

	viper.BindEnv("logging.level", "LOGGING_LEVEL")
	viper.BindEnv("logging.format", "LOGGING_FORMAT")
}

func setDefaults() {
	viper.SetDefault("connector.id", constants.DefaultConnectorID)
	viper.SetDefault("connector.reply_timeout", constants.DefaultReplyTimeout)
	viper.SetDefault("backend.session_timeout", constants.SessionHTTPTimeout)
	viper.SetDefault("telegram.poll_timeout", 30*time.Second)
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("logging.level", "info")
}

func applyDefaults(cfg *Config) {
	cfg.Backend.URL = strings.TrimRight(cfg.Backend.URL, "/")

	if cfg.Connector.ID == "" {
		cfg.Connector.ID = constants.DefaultConnectorID
	}

	if cfg.Connector.ReplyTimeout <= 0 {
		cfg.Connector.ReplyTimeout = constants.DefaultReplyTimeout
	}

	if cfg.Backend.SessionTimeout <= 0 {
		cfg.Backend.SessionTimeout = constants.SessionHTTPTimeout
	}
}

// AllowedUsers splits the configured allowlist into a trimmed set of user
// ids and usernames. An empty result means the connector is open to all.
func (c *TelegramConfig) AllowedUsers() map[string]struct{} {
	allowed := make(map[string]struct{})
	for _, entry := range strings.Split(c.Allowlist, ",") {
		entry = strings.TrimSpace(entry)
		if entry != "" {
			allowed[entry] = struct{}{}
		}
	}
	return allowed
}
