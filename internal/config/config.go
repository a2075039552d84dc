package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone  = "UTC"
	configPathEnv    = "PACK_CURATOR_CONFIG"
	databaseDSNEnv   = "DATABASE_DSN"
	geminiAPIKeyEnv  = "GEMINI_API_KEY"
	geminiModelEnv   = "GEMINI_MODEL"
	telegramTokenEnv = "TELEGRAM_BOT_TOKEN"
	channelIDEnv     = "TELEGRAM_CHANNEL_ID"
)

// Config holds high-level settings required across the application.
type Config struct {
	Telegram  TelegramConfig  `yaml:"telegram"`
	Gemini    GeminiConfig    `yaml:"gemini"`
	Storage   StorageConfig   `yaml:"storage"`
	Database  DatabaseConfig  `yaml:"database"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Logging   LoggingConfig   `yaml:"logging"`
	Catalogs  []CatalogConfig `yaml:"catalogs"`
}

// TelegramConfig wires all data required to run the bot and post to the channel.
type TelegramConfig struct {
	BotToken  string `yaml:"botToken"`
	ChannelID string `yaml:"channelId"`
}

// GeminiConfig defines how to contact the Gemini-compatible styling API.
type GeminiConfig struct {
	Endpoint     string `yaml:"endpoint"`
	Model        string `yaml:"model"`
	APIKey       string `yaml:"apiKey"`
	SystemPrompt string `yaml:"systemPrompt"`
}

// StorageConfig groups the file-backed persistence locations.
type StorageConfig struct {
	QueueFile string `yaml:"queueFile"`
	DedupLog  string `yaml:"dedupLog"`
	ImagesDir string `yaml:"imagesDir"`
}

// DatabaseConfig describes the optional Postgres dedup backend.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// SchedulerConfig defines when the queue poller runs.
type SchedulerConfig struct {
	PollSeconds  int            `yaml:"pollSeconds"`
	DelaySeconds int            `yaml:"delaySeconds"`
	Timezone     string         `yaml:"timezone"`
	location     *time.Location `yaml:"-"`
}

// PollInterval returns the poller tick period.
func (s SchedulerConfig) PollInterval() time.Duration {
	return time.Duration(s.PollSeconds) * time.Second
}

// InitialDelay returns the pause before the first poller tick.
func (s SchedulerConfig) InitialDelay() time.Duration {
	return time.Duration(s.DelaySeconds) * time.Second
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// CatalogConfig describes a single pack catalog with its search strategy.
type CatalogConfig struct {
	Name     string            `yaml:"name"`
	Strategy string            `yaml:"strategy"`
	Limit    int               `yaml:"limit"`
	Options  map[string]string `yaml:"options"`
}

// Load reads YAML configuration (if present) and applies environment
// overrides. A .env file in the working directory is honored first.
func Load() Config {
	_ = godotenv.Load()

	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	if len(cfg.Catalogs) == 0 {
		cfg.Catalogs = defaultConfig().Catalogs
	}

	return cfg
}

// Validate refuses startup when required external identifiers are absent.
func (c Config) Validate() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram bot token is not configured (set %s)", telegramTokenEnv)
	}
	if c.Telegram.ChannelID == "" {
		return fmt.Errorf("telegram channel id is not configured (set %s)", channelIDEnv)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Telegram.BotToken = v
	}

	if v := os.Getenv(channelIDEnv); v != "" {
		c.Telegram.ChannelID = v
	}

	if v := os.Getenv(geminiAPIKeyEnv); v != "" {
		c.Gemini.APIKey = v
	}

	if v := os.Getenv(geminiModelEnv); v != "" {
		c.Gemini.Model = v
	}

	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Telegram.BotToken != "" {
		base.Telegram.BotToken = override.Telegram.BotToken
	}
	if override.Telegram.ChannelID != "" {
		base.Telegram.ChannelID = override.Telegram.ChannelID
	}

	if override.Gemini.Endpoint != "" {
		base.Gemini.Endpoint = override.Gemini.Endpoint
	}
	if override.Gemini.Model != "" {
		base.Gemini.Model = override.Gemini.Model
	}
	if override.Gemini.APIKey != "" {
		base.Gemini.APIKey = override.Gemini.APIKey
	}
	if override.Gemini.SystemPrompt != "" {
		base.Gemini.SystemPrompt = override.Gemini.SystemPrompt
	}

	if override.Storage.QueueFile != "" {
		base.Storage.QueueFile = override.Storage.QueueFile
	}
	if override.Storage.DedupLog != "" {
		base.Storage.DedupLog = override.Storage.DedupLog
	}
	if override.Storage.ImagesDir != "" {
		base.Storage.ImagesDir = override.Storage.ImagesDir
	}

	if override.Database.DSN != "" {
		base.Database = override.Database
	}

	if override.Scheduler.PollSeconds > 0 {
		base.Scheduler.PollSeconds = override.Scheduler.PollSeconds
	}
	if override.Scheduler.DelaySeconds > 0 {
		base.Scheduler.DelaySeconds = override.Scheduler.DelaySeconds
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	if len(override.Catalogs) > 0 {
		base.Catalogs = override.Catalogs
	}

	return base
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Telegram: TelegramConfig{BotToken: "", ChannelID: ""},
		Gemini: GeminiConfig{
			Endpoint:     "https://generativelanguage.googleapis.com/v1beta/models",
			Model:        "gemini-2.0-flash",
			APIKey:       "",
			SystemPrompt: "",
		},
		Storage: StorageConfig{
			QueueFile: "queue.json",
			DedupLog:  "posted_packs.txt",
			ImagesDir: "images",
		},
		Scheduler: SchedulerConfig{
			PollSeconds:  60,
			DelaySeconds: 10,
			Timezone:     defaultTimezone,
			location:     tz,
		},
		Logging: LoggingConfig{Level: "info"},
		Catalogs: []CatalogConfig{
			{
				Name:     "modrinth",
				Strategy: "modrinth",
				Limit:    10,
			},
		},
	}
}
