package config

import (
	"fmt"
	"strings"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

func ValidateStatic(cfg *Config) error {
	var errors []error

	if err := validateServer(cfg.Server); err != nil {
		errors = append(errors, err)
	}

	if err := validateBackend(cfg.Backend); err != nil {
		errors = append(errors, err)
	}

	if err := validateTelegram(cfg.Telegram); err != nil {
		errors = append(errors, err)
	}

	if err := validateConnector(cfg.Connector); err != nil {
		errors = append(errors, err)
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed: %v", errors)
	}

	return nil
}

func validateServer(cfg ServerConfig) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return &ValidationError{
			Field:   "server.port",
			Message: fmt.Sprintf("port must be between 1 and 65535, got %d", cfg.Port),
		}
	}

	return nil
}

func validateBackend(cfg BackendConfig) error {
	if cfg.URL == "" {
		return &ValidationError{
			Field:   "backend.url",
			Message: "backend URL is required",
		}
	}

	if !strings.HasPrefix(cfg.URL, "http://") && !strings.HasPrefix(cfg.URL, "https://") {
		return &ValidationError{
			Field:   "backend.url",
			Message: fmt.Sprintf("backend URL must start with http:// or https://, got %s", cfg.URL),
		}
	}

	if cfg.SessionTimeout <= 0 {
		return &ValidationError{
			Field:   "backend.session_timeout",
			Message: "session timeout must be positive",
		}
	}

	return nil
}

func validateTelegram(cfg TelegramConfig) error {
	if cfg.Token == "" {
		return &ValidationError{
			Field:   "telegram.token",
			Message: "Telegram bot token is required",
		}
	}

	return nil
}

func validateConnector(cfg ConnectorConfig) error {
	if cfg.ID == "" {
		return &ValidationError{
			Field:   "connector.id",
			Message: "connector id is required",
		}
	}

	if cfg.ReplyTimeout <= 0 {
		return &ValidationError{
			Field:   "connector.reply_timeout",
			Message: "reply timeout must be positive",
		}
	}

	return nil
}
