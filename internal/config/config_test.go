package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidateRequiresTelegramIdentity(t *testing.T) {
	cfg := defaultConfig()
	if err := cfg.Validate(); err == nil {
		t.Fatal("defaults have no bot token, Validate must fail")
	}

	cfg.Telegram.BotToken = "token"
	if err := cfg.Validate(); err == nil {
		t.Fatal("channel id is still missing, Validate must fail")
	}

	cfg.Telegram.ChannelID = "@channel"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("fully configured, got %v", err)
	}
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	t.Setenv(telegramTokenEnv, "env-token")
	t.Setenv(channelIDEnv, "@env-channel")
	t.Setenv(geminiAPIKeyEnv, "env-key")
	t.Setenv(configPathEnv, "")

	cfg := Load()
	if cfg.Telegram.BotToken != "env-token" {
		t.Fatalf("bot token override lost: %s", cfg.Telegram.BotToken)
	}
	if cfg.Telegram.ChannelID != "@env-channel" {
		t.Fatalf("channel override lost: %s", cfg.Telegram.ChannelID)
	}
	if cfg.Gemini.APIKey != "env-key" {
		t.Fatalf("gemini key override lost: %s", cfg.Gemini.APIKey)
	}
}

func TestLoadMergesYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
telegram:
  botToken: yaml-token
  channelId: "@yaml-channel"
storage:
  queueFile: /var/lib/curator/queue.json
scheduler:
  pollSeconds: 30
  timezone: Europe/Moscow
catalogs:
  - name: modrinth
    strategy: modrinth
    limit: 5
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(configPathEnv, path)
	t.Setenv(telegramTokenEnv, "")
	t.Setenv(channelIDEnv, "")

	cfg := Load()
	if cfg.Telegram.BotToken != "yaml-token" {
		t.Fatalf("yaml token lost: %s", cfg.Telegram.BotToken)
	}
	if cfg.Storage.QueueFile != "/var/lib/curator/queue.json" {
		t.Fatalf("yaml queue file lost: %s", cfg.Storage.QueueFile)
	}
	// Unset fields keep their defaults.
	if cfg.Storage.DedupLog != "posted_packs.txt" {
		t.Fatalf("default dedup log lost: %s", cfg.Storage.DedupLog)
	}
	if cfg.Scheduler.PollSeconds != 30 {
		t.Fatalf("yaml poll interval lost: %d", cfg.Scheduler.PollSeconds)
	}
	if cfg.Scheduler.Location().String() != "Europe/Moscow" {
		t.Fatalf("timezone not bound: %s", cfg.Scheduler.Location())
	}
	if len(cfg.Catalogs) != 1 || cfg.Catalogs[0].Limit != 5 {
		t.Fatalf("yaml catalogs lost: %+v", cfg.Catalogs)
	}
}

func TestUnknownTimezoneFallsBack(t *testing.T) {
	cfg := defaultConfig()
	cfg.Scheduler.Timezone = "Not/AZone"
	cfg.Scheduler.location = nil
	cfg.bindTimezone()

	if cfg.Scheduler.Location().String() != "UTC" {
		t.Fatalf("expected UTC fallback, got %s", cfg.Scheduler.Location())
	}
}
