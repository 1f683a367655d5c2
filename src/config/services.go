package config

import (
	"strconv"
	"time"

	"gorm.io/gorm"
)

// AIConfig selects and configures the answer provider.
type AIConfig struct {
	Provider     string
	OpenAIKey    string
	ClaudeKey    string
	Model        string
	SystemPrompt string
	Temperature  float64
}

// LoadAIConfig loads AI configuration. Without a key for the chosen provider
// the offline responder is used.
func LoadAIConfig() AIConfig {
	cfg := AIConfig{
		OpenAIKey:    GetSetting("openai_api_key", "OPENAI_API_KEY", ""),
		ClaudeKey:    GetSetting("claude_api_key", "CLAUDE_API_KEY", ""),
		Provider:     GetSetting("ai_provider", "AI_PROVIDER", ""),
		Model:        GetSetting("ai_model", "AI_MODEL", ""),
		SystemPrompt: GetSetting("ai_system_prompt", "AI_SYSTEM_PROMPT", ""),
	}
	if t, err := strconv.ParseFloat(GetSetting("ai_temperature", "AI_TEMPERATURE", ""), 64); err == nil {
		cfg.Temperature = t
	}
	switch cfg.Provider {
	case "":
		switch {
		case cfg.ClaudeKey != "":
			cfg.Provider = "anthropic"
		case cfg.OpenAIKey != "":
			cfg.Provider = "openai"
		default:
			cfg.Provider = "canned"
		}
	case "anthropic", "claude":
		if cfg.ClaudeKey == "" {
			cfg.Provider = "canned"
		}
	case "openai", "gpt":
		if cfg.OpenAIKey == "" {
			cfg.Provider = "canned"
		}
	}
	return cfg
}

// APIConfig holds everything the HTTP server needs.
type APIConfig struct {
	Base
	AI AIConfig

	Port           string
	TLSCert        string
	TLSKey         string
	AllowedOrigins []string
	JWTSecret      string
	AdminTokenHash string

	RateLimit  int
	RateWindow time.Duration
	CacheSize  int

	RulesPath   string
	DatasetPath string
}

// LoadAPIConfig loads server configuration. db may be nil.
func LoadAPIConfig(base Base, db *gorm.DB) APIConfig {
	base = base.withSettings(db)
	return APIConfig{
		Base:           base,
		AI:             LoadAIConfig(),
		Port:           GetSetting("api_port", "PORT", "8080"),
		TLSCert:        GetSetting("tls_cert", "TLS_CERT", ""),
		TLSKey:         GetSetting("tls_key", "TLS_KEY", ""),
		AllowedOrigins: splitList(GetSetting("cors_origins", "CORS_ORIGINS", "http://localhost:5173,http://localhost:3000")),
		JWTSecret:      GetSetting("jwt_secret", "JWT_SECRET", ""),
		AdminTokenHash: GetSetting("admin_token_hash", "ADMIN_TOKEN_HASH", ""),
		RateLimit:      getIntSetting("rate_limit", "RATE_LIMIT", 30),
		RateWindow:     getDurationSetting("rate_window", "RATE_WINDOW", time.Minute),
		CacheSize:      getIntSetting("answer_cache_size", "ANSWER_CACHE_SIZE", 256),
		RulesPath:      GetSetting("rules_path", "MMR_RULES", ""),
		DatasetPath:    GetSetting("dataset_path", "MMR_DATASET", ""),
	}
}

// BotConfig holds the Discord bot configuration.
type BotConfig struct {
	Token   string
	GuildID string
	Enabled bool
}

// LoadBotConfig loads bot configuration. The bot only runs with both a token
// and a guild.
func LoadBotConfig(base Base, db *gorm.DB) BotConfig {
	base = base.withSettings(db)
	return BotConfig{
		Token:   base.DiscordToken,
		GuildID: base.GuildID,
		Enabled: getBoolSetting("enable_discord", "ENABLE_DISCORD", true) && base.DiscordToken != "" && base.GuildID != "",
	}
}

// ChatConfig configures the terminal chat client.
type ChatConfig struct {
	Endpoint string
	StoreDir string
	Timeout  time.Duration
}

// LoadChatConfig loads chat client configuration from the environment.
func LoadChatConfig() ChatConfig {
	return ChatConfig{
		Endpoint: GetSetting("", "MMR_ENDPOINT", "http://localhost:8080/api/mmr/query"),
		StoreDir: GetSetting("", "MMR_CHAT_DIR", defaultChatDir()),
		Timeout:  getDurationSetting("", "MMR_CHAT_TIMEOUT", 30*time.Second),
	}
}
