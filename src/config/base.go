package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/stake-plus/mmr-scorecard/src/data"
)

// LoadEnv reads .env style files into the environment. Variables already set
// win, and missing files are skipped.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// Base contains common configuration fields
type Base struct {
	LogLevel  string
	LogFormat string

	DBDriver string
	DSN      string
	RedisURL string

	DiscordToken string
	GuildID      string
}

// HasDB reports whether a database is configured.
func (b Base) HasDB() bool { return strings.TrimSpace(b.DSN) != "" }

// LoadBase loads the settings needed before a database is available, so it
// reads only the environment.
func LoadBase() Base {
	driver := envOr("DB_DRIVER", data.DriverMySQL)
	dsn := os.Getenv("DB_DSN")
	if dsn == "" && driver == data.DriverMySQL {
		dsn = os.Getenv("MYSQL_DSN")
	}
	return Base{
		LogLevel:     envOr("LOG_LEVEL", "info"),
		LogFormat:    envOr("LOG_FORMAT", "json"),
		DBDriver:     driver,
		DSN:          dsn,
		RedisURL:     os.Getenv("REDIS_URL"),
		DiscordToken: os.Getenv("DISCORD_TOKEN"),
		GuildID:      os.Getenv("GUILD_ID"),
	}
}

// withSettings loads the settings table when a database is present, then lets
// it override the discord credentials.
func (b Base) withSettings(db *gorm.DB) Base {
	if db != nil {
		// Env fallbacks still work when the table cannot be read.
		_ = data.LoadSettings(db)
	}
	b.DiscordToken = GetSetting("discord_token", "DISCORD_TOKEN", b.DiscordToken)
	b.GuildID = GetSetting("guild_id", "GUILD_ID", b.GuildID)
	return b
}

// GetSetting retrieves a setting with env fallback
func GetSetting(name, envKey, defaultValue string) string {
	val := data.GetSetting(name)
	if val == "" && envKey != "" {
		val = os.Getenv(envKey)
	}
	if val == "" {
		val = defaultValue
	}
	return val
}

func getBoolSetting(settingKey, envKey string, defaultValue bool) bool {
	if v := GetSetting(settingKey, envKey, ""); v != "" {
		return parseBoolDefault(v, defaultValue)
	}
	return defaultValue
}

func getIntSetting(settingKey, envKey string, defaultValue int) int {
	if v := GetSetting(settingKey, envKey, ""); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return defaultValue
}

func getDurationSetting(settingKey, envKey string, defaultValue time.Duration) time.Duration {
	if v := GetSetting(settingKey, envKey, ""); v != "" {
		if d, err := time.ParseDuration(strings.TrimSpace(v)); err == nil {
			return d
		}
	}
	return defaultValue
}

func parseBoolDefault(value string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
