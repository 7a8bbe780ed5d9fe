// internal/handlers/message-relay/config.go
package messagerelay

import "conversation-relay/internal/common/config"

type Config struct {
	WorkspaceID string
}

func LoadConfig(cfg *config.Config) *Config {
	return &Config{
		WorkspaceID: cfg.Conversation.WorkspaceID,
	}
}

// Configured reports whether a real workspace id is set.
func (c *Config) Configured() bool {
	if c == nil {
		return false
	}
	return config.ConversationConfig{WorkspaceID: c.WorkspaceID}.IsConfigured()
}
