// Package config defines and loads the application configuration.
package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"      validate:"required"`
	LLM         LLMConfig         `mapstructure:"llm"         validate:"required"`
	Batch       BatchConfig       `mapstructure:"batch"       validate:"required"`
	Persistence PersistenceConfig `mapstructure:"persistence"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// LLMConfig contains the Gemini integration settings.
type LLMConfig struct {
	GeminiAPIKey string `mapstructure:"gemini_api_key" validate:"required"`

	// EditModel is the image-capable model used for edits.
	EditModel string `mapstructure:"edit_model" validate:"required"`

	// TagModel is the text model used for tagging and prompt
	// enhancement.
	TagModel string `mapstructure:"tag_model" validate:"required"`
}

// BatchConfig contains the batch scheduler's timing settings.
type BatchConfig struct {
	// ThrottleMillis is the delay between consecutive edit calls within
	// a batch.
	ThrottleMillis int `mapstructure:"throttle_millis" validate:"gte=0"`

	// CooldownMillis is the suspension entered after a rate-limit
	// response.
	CooldownMillis int `mapstructure:"cooldown_millis" validate:"gt=0"`
}

// PersistenceConfig contains the optional key-value persistence
// settings. An empty DatabaseURL runs the server on the in-memory
// store.
type PersistenceConfig struct {
	DatabaseURL string `mapstructure:"database_url" validate:"omitempty,url"`

	// CounterTimezone is the IANA zone used for the daily counter's
	// calendar date; empty means UTC.
	CounterTimezone string `mapstructure:"counter_timezone"`
}
