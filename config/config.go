package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type DiscordConfig struct {
	BotToken      string
	GuildID       string
	CommandPrefix string
	HelpForumID   string
}

// IsConfigured returns true if all required Discord configuration is present
func (c DiscordConfig) IsConfigured() bool {
	return c.BotToken != "" && c.GuildID != ""
	// Note: CommandPrefix and HelpForumID are optional
}

type RetentionConfig struct {
	MessageDays  int
	AuditLogDays int
	MemberDays   int
}

type BackfillConfig struct {
	HistoryDays    int
	PageSize       int
	MemberPageSize int
	PageDelay      time.Duration
	Cooldown       time.Duration
	MaxRetries     int
}

type LifecycleConfig struct {
	InactivityDays int
	SweepDelay     time.Duration
}

type AppConfig struct {
	// Core configuration (always required)
	DatabaseURL        string
	DatabaseSchema     string
	Port               string // Optional with default "8080"
	CORSAllowedOrigins string // Optional with default "*"
	Environment        string
	ServerLogsURL      string
	AlertWebhookURL    string
	MessageCacheSize   int

	DiscordConfig   DiscordConfig
	RetentionConfig RetentionConfig
	BackfillConfig  BackfillConfig
	LifecycleConfig LifecycleConfig
}

func LoadConfig() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Println("⚠️ Could not load .env file, continuing with system env vars")
	}

	// Core required configuration
	databaseURL, err := getEnvRequired("DB_URL")
	if err != nil {
		return nil, err
	}

	databaseSchema, err := getEnvRequired("DB_SCHEMA")
	if err != nil {
		return nil, err
	}

	config := &AppConfig{
		// Core configuration
		DatabaseURL:        databaseURL,
		DatabaseSchema:     databaseSchema,
		Port:               getEnvWithDefault("PORT", "8080"),
		CORSAllowedOrigins: getEnvWithDefault("CORS_ALLOWED_ORIGINS", "*"),
		Environment:        getEnvWithDefault("ENVIRONMENT", "dev"),
		ServerLogsURL:      getEnvWithDefault("SERVER_LOGS_URL", ""),
		AlertWebhookURL:    os.Getenv("ALERT_WEBHOOK_URL"),
		MessageCacheSize:   getEnvIntWithDefault("MESSAGE_CACHE_SIZE", 5000),

		DiscordConfig: DiscordConfig{
			BotToken:      os.Getenv("DISCORD_BOT_TOKEN"),
			GuildID:       os.Getenv("DISCORD_GUILD_ID"),
			CommandPrefix: getEnvWithDefault("COMMAND_PREFIX", "sentdebot."),
			HelpForumID:   os.Getenv("HELP_FORUM_CHANNEL_ID"),
		},

		// A horizon of zero or less disables that retention category.
		RetentionConfig: RetentionConfig{
			MessageDays:  getEnvIntWithDefault("RETENTION_MESSAGE_DAYS", 365),
			AuditLogDays: getEnvIntWithDefault("RETENTION_AUDIT_LOG_DAYS", 365),
			MemberDays:   getEnvIntWithDefault("RETENTION_MEMBER_DAYS", 365),
		},

		BackfillConfig: BackfillConfig{
			HistoryDays:    getEnvIntWithDefault("BACKFILL_HISTORY_DAYS", 14),
			PageSize:       getEnvIntWithDefault("BACKFILL_PAGE_SIZE", 100),
			MemberPageSize: getEnvIntWithDefault("BACKFILL_MEMBER_PAGE_SIZE", 1000),
			PageDelay:      getEnvDurationWithDefault("BACKFILL_PAGE_DELAY", time.Second),
			Cooldown:       getEnvDurationWithDefault("BACKFILL_COOLDOWN", 60*time.Second),
			MaxRetries:     getEnvIntWithDefault("BACKFILL_MAX_RETRIES", 10),
		},

		LifecycleConfig: LifecycleConfig{
			InactivityDays: getEnvIntWithDefault("HELP_INACTIVITY_DAYS", 7),
			SweepDelay:     getEnvDurationWithDefault("HELP_SWEEP_DELAY", 2*time.Second),
		},
	}

	if config.DiscordConfig.IsConfigured() {
		log.Printf("✅ Discord gateway configured")
	} else {
		return nil, fmt.Errorf("discord gateway is not fully configured (DISCORD_BOT_TOKEN, DISCORD_GUILD_ID)")
	}

	if config.DiscordConfig.HelpForumID == "" {
		log.Printf("⚠️ HELP_FORUM_CHANNEL_ID not set - help request tracking will be disabled")
	}

	return config, nil
}

func getEnvRequired(key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("%s is not set", key)
	}
	return value, nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("⚠️ Invalid integer for %s (%q), using default %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvDurationWithDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("⚠️ Invalid duration for %s (%q), using default %s", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
