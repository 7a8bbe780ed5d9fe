// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configs/config.yaml, merges configs/config.<APP_ENVIRONMENT>.yaml
// and applies environment overrides.
func Load() (*Config, error) {
	LoadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // env-specific file is optional

	return build(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	LoadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return build(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

func build(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override it.
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "conversation-relay")
	v.SetDefault("app.version", "dev")
	v.SetDefault("app.environment", "development")

	v.SetDefault("server.port", 3000)
	v.SetDefault("server.static_dir", "./public")
	v.SetDefault("server.gin_mode", "release")
	v.SetDefault("server.allowed_origins", []string{})
	v.SetDefault("server.shutdown_timeout", 15000)

	v.SetDefault("conversation.url", "https://gateway.watsonplatform.net/conversation/api")
	v.SetDefault("conversation.username", "")
	v.SetDefault("conversation.password", "")
	v.SetDefault("conversation.workspace_id", "")
	v.SetDefault("conversation.version_date", "2017-02-03")
	v.SetDefault("conversation.timeout", 30000)

	v.SetDefault("nlu.url", "https://gateway.watsonplatform.net/natural-language-understanding/api")
	v.SetDefault("nlu.username", "")
	v.SetDefault("nlu.password", "")
	v.SetDefault("nlu.version_date", "2017-02-27")
	v.SetDefault("nlu.timeout", 10000)

	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.address", "")
	v.SetDefault("cache.password", "")
	v.SetDefault("cache.db", 0)
	v.SetDefault("cache.ttl", 3600)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.sample_ratio", 1.0)
}

// LoadEnvFile loads .env from the working directory, its parents, or the
// project root. It returns the path it loaded, or "" when none was found.
func LoadEnvFile() string {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env", // tests in test/e2e
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return path
			}
		}
	}

	return ""
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal {
				v.Set(key, expanded)
			}
		}
	}
}

// overrideEmptyConfig fills values from the legacy variable names older
// deployments still set.
func overrideEmptyConfig(cfg *Config) {
	if cfg.Conversation.WorkspaceID == "" {
		if val := os.Getenv("WORKSPACE_ID"); val != "" {
			cfg.Conversation.WorkspaceID = val
		}
	}
	if cfg.Conversation.Username == "" {
		if val := os.Getenv("CONVERSATION_USERNAME"); val != "" {
			cfg.Conversation.Username = val
		}
	}
	if cfg.Conversation.Password == "" {
		if val := os.Getenv("CONVERSATION_PASSWORD"); val != "" {
			cfg.Conversation.Password = val
		}
	}

	if cfg.NLU.Username == "" {
		if val := os.Getenv("NATURAL_LANGUAGE_UNDERSTANDING_USERNAME"); val != "" {
			cfg.NLU.Username = val
		}
	}
	if cfg.NLU.Password == "" {
		if val := os.Getenv("NATURAL_LANGUAGE_UNDERSTANDING_PASSWORD"); val != "" {
			cfg.NLU.Password = val
		}
	}

	if val := os.Getenv("PORT"); val != "" {
		var port int
		if _, err := fmt.Sscanf(val, "%d", &port); err == nil {
			cfg.Server.Port = port
		}
	}
}

// applyDefaults covers zero values that slipped through an explicit empty
// entry in a config file.
func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 3000
	}
	if cfg.Server.StaticDir == "" {
		cfg.Server.StaticDir = "./public"
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 15000
	}

	if cfg.Conversation.Timeout == 0 {
		cfg.Conversation.Timeout = 30000
	}
	if cfg.NLU.Timeout == 0 {
		cfg.NLU.Timeout = 10000
	}
	cfg.Conversation.URL = strings.TrimRight(cfg.Conversation.URL, "/")
	cfg.NLU.URL = strings.TrimRight(cfg.NLU.URL, "/")

	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = 3600
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	if cfg.Tracing.SampleRatio <= 0 || cfg.Tracing.SampleRatio > 1 {
		cfg.Tracing.SampleRatio = 1
	}
}

// validateConfig rejects values the service cannot start with. A missing
// workspace id is allowed: the message endpoint answers with setup instructions.
func validateConfig(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", cfg.Server.Port)
	}

	if cfg.Conversation.URL == "" {
		return fmt.Errorf("conversation.url is required")
	}
	if cfg.NLU.URL == "" {
		return fmt.Errorf("nlu.url is required")
	}
	if cfg.Conversation.Timeout < 0 {
		return fmt.Errorf("conversation.timeout must be positive")
	}
	if cfg.NLU.Timeout < 0 {
		return fmt.Errorf("nlu.timeout must be positive")
	}

	if cfg.Cache.Enabled && cfg.Cache.Address == "" {
		return fmt.Errorf("cache.address is required when cache.enabled is true")
	}
	if cfg.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must be positive")
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
