// internal/common/config/config.go
package config

import "strings"

// WorkspacePlaceholder is the value shipped in sample env files; it counts as unset.
const WorkspacePlaceholder = "<workspace-id>"

// Config is the main application configuration struct.
type Config struct {
	App          AppConfig          `mapstructure:"app"`
	Server       ServerConfig       `mapstructure:"server"`
	Conversation ConversationConfig `mapstructure:"conversation"`
	NLU          NLUConfig          `mapstructure:"nlu"`
	Cache        CacheConfig        `mapstructure:"cache"`
	Logging      LoggingConfig      `mapstructure:"logging"`
	Tracing      TracingConfig      `mapstructure:"tracing"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Port            int      `mapstructure:"port"`
	StaticDir       string   `mapstructure:"static_dir"`
	GinMode         string   `mapstructure:"gin_mode"`
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	ShutdownTimeout int      `mapstructure:"shutdown_timeout"` // milliseconds
}

// --- External Services ---

// ConversationConfig holds settings for the dialog engine.
type ConversationConfig struct {
	URL         string `mapstructure:"url"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	WorkspaceID string `mapstructure:"workspace_id"`
	VersionDate string `mapstructure:"version_date"`
	Timeout     int    `mapstructure:"timeout"` // milliseconds
}

// IsConfigured reports whether a real workspace id has been supplied.
func (c ConversationConfig) IsConfigured() bool {
	id := strings.TrimSpace(c.WorkspaceID)
	return id != "" && id != WorkspacePlaceholder
}

// NLUConfig holds settings for the text analyzer.
type NLUConfig struct {
	URL         string `mapstructure:"url"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	VersionDate string `mapstructure:"version_date"`
	Timeout     int    `mapstructure:"timeout"` // milliseconds
}

// CacheConfig controls the optional Redis cache in front of the analyzer.
type CacheConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	TTL      int    `mapstructure:"ttl"` // seconds
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}
