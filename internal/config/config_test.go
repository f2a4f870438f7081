package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigCarriesBrandsAndSchedule(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()

	catalog, err := cfg.Catalog()
	if err != nil {
		t.Fatalf("Catalog: %v", err)
	}
	if got := len(catalog.Projects()); got != 3 {
		t.Fatalf("expected 3 projects, got %d", got)
	}
	if project, platform := catalog.ParseTarget("пикси тг"); project != "pixie" || platform != "telegram" {
		t.Fatalf("unexpected target %q/%q", project, platform)
	}

	for _, id := range []string{"competitors", "trends", "generate", "publish", "report"} {
		if cfg.Scheduler.Jobs[id] == "" {
			t.Fatalf("missing default schedule for %s", id)
		}
	}
	if len(cfg.FeedsIn(GroupTrends)) != 2 || len(cfg.FeedsIn(GroupCompetitors)) != 1 {
		t.Fatalf("unexpected default feeds: %+v", cfg.Feeds)
	}
}

func TestLoadFileMergesYAML(t *testing.T) {
	for _, env := range []string{logLevelEnv, dbDriverEnv, dbDSNEnv, timezoneEnv} {
		t.Setenv(env, "")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	raw := `
logging:
  level: debug
database:
  driver: postgres
  dsn: postgres://smm@localhost/smm
scheduler:
  timezone: Europe/Moscow
  jobs:
    publish: "0 12 * * *"
llm:
  providers:
    - name: groq
      kind: openai
      endpoint: http://localhost/v1/chat/completions
      model: test-model
      timeout: 5s
`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg := LoadFile(path)

	if cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected level %s", cfg.Logging.Level)
	}
	if cfg.Database.Driver != "postgres" || cfg.Database.DSN != "postgres://smm@localhost/smm" {
		t.Fatalf("unexpected database %+v", cfg.Database)
	}
	if cfg.Scheduler.Jobs["publish"] != "0 12 * * *" {
		t.Fatalf("publish schedule not overridden: %s", cfg.Scheduler.Jobs["publish"])
	}
	if cfg.Scheduler.Jobs["report"] != "0 9 * * 1" {
		t.Fatalf("report schedule lost during merge: %s", cfg.Scheduler.Jobs["report"])
	}
	if cfg.Scheduler.Location().String() != "Europe/Moscow" {
		t.Fatalf("unexpected location %s", cfg.Scheduler.Location())
	}
	if len(cfg.LLM.Providers) != 1 || cfg.LLM.Providers[0].Timeout != 5*time.Second {
		t.Fatalf("unexpected providers %+v", cfg.LLM.Providers)
	}
	if len(cfg.Projects) != 3 {
		t.Fatalf("default projects should survive a file without projects")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(botTokenEnv, "token")
	t.Setenv(adminChatIDEnv, "42")
	t.Setenv(channelIDEnv, "@smm_channel")
	t.Setenv(groqAPIKeyEnv, "gsk")
	t.Setenv(groqModelEnv, "llama-test")
	t.Setenv(geminiAPIKeyEnv, "gem")
	t.Setenv(anthropicKeyEnv, "")
	t.Setenv(timezoneEnv, "Not/AZone")
	t.Setenv(httpAddrEnv, ":9999")

	cfg := LoadFile("")

	if cfg.Telegram.BotToken != "token" || cfg.Telegram.AdminChatID != 42 || cfg.Telegram.ChannelID != "@smm_channel" {
		t.Fatalf("telegram overrides not applied: %+v", cfg.Telegram)
	}
	if cfg.HTTP.Addr != ":9999" {
		t.Fatalf("http override not applied: %s", cfg.HTTP.Addr)
	}

	byName := map[string]ProviderConfig{}
	for _, p := range cfg.LLM.Providers {
		byName[p.Name] = p
	}
	if byName["groq"].APIKey != "gsk" || byName["groq"].Model != "llama-test" {
		t.Fatalf("groq overrides not applied: %+v", byName["groq"])
	}
	if byName["gemini"].APIKey != "gem" {
		t.Fatalf("gemini override not applied: %+v", byName["gemini"])
	}
	if byName["anthropic"].APIKey != "" {
		t.Fatalf("anthropic key should stay empty")
	}

	if cfg.Scheduler.Location().String() != defaultTimezone {
		t.Fatalf("invalid timezone should fall back, got %s", cfg.Scheduler.Location())
	}
}
