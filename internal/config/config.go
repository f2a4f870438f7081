package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"SMMAgent/internal/domain"
)

const (
	defaultTimezone = "Asia/Tashkent"
	configPathEnv   = "SMM_AGENT_CONFIG"
	botTokenEnv     = "BOT_TOKEN"
	adminChatIDEnv  = "ADMIN_CHAT_ID"
	channelIDEnv    = "CHANNEL_ID"
	groqAPIKeyEnv   = "GROQ_API_KEY"
	groqModelEnv    = "GROQ_MODEL"
	geminiAPIKeyEnv = "GEMINI_API_KEY"
	anthropicKeyEnv = "ANTHROPIC_API_KEY"
	dbDriverEnv     = "DATABASE_DRIVER"
	dbDSNEnv        = "DATABASE_DSN"
	timezoneEnv     = "TIMEZONE"
	logLevelEnv     = "LOG_LEVEL"
	httpAddrEnv     = "HTTP_ADDR"
)

// Feed groups understood by the monitors.
const (
	GroupTrends      = "trends"
	GroupCompetitors = "competitors"
)

// Provider kinds understood by the LLM chain.
const (
	KindOpenAI    = "openai"
	KindAnthropic = "anthropic"
	KindGemini    = "gemini"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging         LoggingConfig     `yaml:"logging"`
	Database        DatabaseConfig    `yaml:"database"`
	Scheduler       SchedulerConfig   `yaml:"scheduler"`
	Telegram        TelegramConfig    `yaml:"telegram"`
	LLM             LLMConfig         `yaml:"llm"`
	Illustrator     IllustratorConfig `yaml:"illustrator"`
	HTTP            HTTPConfig        `yaml:"http"`
	Feeds           []FeedConfig      `yaml:"feeds"`
	Projects        []ProjectConfig   `yaml:"projects"`
	ProjectAliases  map[string]string `yaml:"projectAliases"`
	PlatformAliases map[string]string `yaml:"platformAliases"`
}

// LoggingConfig selects the slog level and output format (text or json).
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DatabaseConfig describes which SQL driver to open and how.
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// SchedulerConfig defines when each job should run.
type SchedulerConfig struct {
	Timezone string            `yaml:"timezone"`
	Jobs     map[string]string `yaml:"jobs"`
	location *time.Location    `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, err := time.LoadLocation(defaultTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// TelegramConfig wires all data required to talk to the bot API.
type TelegramConfig struct {
	BotToken    string `yaml:"botToken"`
	AdminChatID int64  `yaml:"adminChatId"`
	ChannelID   string `yaml:"channelId"`
}

// LLMConfig lists providers in the order they are tried.
type LLMConfig struct {
	Providers []ProviderConfig `yaml:"providers"`
}

// ProviderConfig describes one model endpoint.
type ProviderConfig struct {
	Name        string        `yaml:"name"`
	Kind        string        `yaml:"kind"`
	Endpoint    string        `yaml:"endpoint"`
	Model       string        `yaml:"model"`
	APIKey      string        `yaml:"apiKey"`
	Temperature float64       `yaml:"temperature"`
	MaxTokens   int           `yaml:"maxTokens"`
	Timeout     time.Duration `yaml:"timeout"`
}

// IllustratorConfig points at the image generation endpoint.
type IllustratorConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
	Width    int    `yaml:"width"`
	Height   int    `yaml:"height"`
}

// HTTPConfig controls the ops server; empty Addr disables it.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// FeedConfig describes a feed site with its scanner strategy.
type FeedConfig struct {
	Name      string            `yaml:"name"`
	Group     string            `yaml:"group"`
	Scanner   string            `yaml:"scanner"`
	Endpoints []EndpointConfig  `yaml:"endpoints"`
	Options   map[string]string `yaml:"options"`
}

// EndpointConfig holds a concrete feed URL.
type EndpointConfig struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// ProjectConfig is the YAML form of a brand project.
type ProjectConfig struct {
	ID        string   `yaml:"id"`
	Name      string   `yaml:"name"`
	Voice     string   `yaml:"voice"`
	Language  string   `yaml:"language"`
	Audience  string   `yaml:"audience"`
	Goal      string   `yaml:"goal"`
	Topics    string   `yaml:"topics"`
	Forbidden string   `yaml:"forbidden"`
	Style     string   `yaml:"style"`
	Platforms []string `yaml:"platforms"`
}

// Catalog builds the immutable project catalog from the configuration.
func (c Config) Catalog() (*domain.Catalog, error) {
	projects := make([]domain.Project, 0, len(c.Projects))
	for _, p := range c.Projects {
		projects = append(projects, domain.Project{
			ID:        p.ID,
			Name:      p.Name,
			Voice:     p.Voice,
			Language:  p.Language,
			Audience:  p.Audience,
			Goal:      p.Goal,
			Topics:    p.Topics,
			Forbidden: p.Forbidden,
			Style:     p.Style,
			Platforms: p.Platforms,
		})
	}
	return domain.NewCatalog(projects, c.ProjectAliases, c.PlatformAliases)
}

// FeedsIn returns the feeds configured for a group.
func (c Config) FeedsIn(group string) []FeedConfig {
	var out []FeedConfig
	for _, f := range c.Feeds {
		if f.Group == group {
			out = append(out, f)
		}
	}
	return out
}

// Load reads .env and YAML configuration (if present) and applies environment overrides.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: cannot read .env: %v", err)
	}
	return LoadFile(os.Getenv(configPathEnv))
}

// LoadFile is Load without the .env step, reading YAML from path when non-empty.
func LoadFile(path string) Config {
	cfg := defaultConfig()

	if path != "" {
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

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(dbDriverEnv); v != "" {
		c.Database.Driver = v
	}
	if v := os.Getenv(dbDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(timezoneEnv); v != "" {
		c.Scheduler.Timezone = v
	}

	if v := os.Getenv(botTokenEnv); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv(adminChatIDEnv); v != "" {
		if id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			c.Telegram.AdminChatID = id
		} else {
			log.Printf("config: invalid %s %q: %v", adminChatIDEnv, v, err)
		}
	}
	if v := os.Getenv(channelIDEnv); v != "" {
		c.Telegram.ChannelID = v
	}

	if v := os.Getenv(httpAddrEnv); v != "" {
		c.HTTP.Addr = v
	}

	c.overrideProvider("groq", func(p *ProviderConfig) {
		if v := os.Getenv(groqAPIKeyEnv); v != "" {
			p.APIKey = v
		}
		if v := os.Getenv(groqModelEnv); v != "" {
			p.Model = v
		}
	})
	c.overrideProvider("anthropic", func(p *ProviderConfig) {
		if v := os.Getenv(anthropicKeyEnv); v != "" {
			p.APIKey = v
		}
	})
	c.overrideProvider("gemini", func(p *ProviderConfig) {
		if v := os.Getenv(geminiAPIKeyEnv); v != "" {
			p.APIKey = v
		}
	})
}

func (c *Config) overrideProvider(name string, apply func(*ProviderConfig)) {
	for i := range c.LLM.Providers {
		if c.LLM.Providers[i].Name == name {
			apply(&c.LLM.Providers[i])
		}
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
		if loc, err = time.LoadLocation(defaultTimezone); err != nil {
			loc = time.UTC
		}
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	if override.Database.Driver != "" {
		base.Database.Driver = override.Database.Driver
	}
	if override.Database.DSN != "" {
		base.Database.DSN = override.Database.DSN
	}

	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}
	for id, spec := range override.Scheduler.Jobs {
		base.Scheduler.Jobs[id] = spec
	}

	if override.Telegram.BotToken != "" {
		base.Telegram.BotToken = override.Telegram.BotToken
	}
	if override.Telegram.AdminChatID != 0 {
		base.Telegram.AdminChatID = override.Telegram.AdminChatID
	}
	if override.Telegram.ChannelID != "" {
		base.Telegram.ChannelID = override.Telegram.ChannelID
	}

	if len(override.LLM.Providers) > 0 {
		base.LLM.Providers = override.LLM.Providers
	}

	if override.Illustrator.Endpoint != "" {
		base.Illustrator = override.Illustrator
	}

	if override.HTTP.Addr != "" {
		base.HTTP.Addr = override.HTTP.Addr
	}

	if len(override.Feeds) > 0 {
		base.Feeds = override.Feeds
	}

	if len(override.Projects) > 0 {
		base.Projects = override.Projects
		base.ProjectAliases = override.ProjectAliases
	} else if len(override.ProjectAliases) > 0 {
		base.ProjectAliases = override.ProjectAliases
	}
	if len(override.PlatformAliases) > 0 {
		base.PlatformAliases = override.PlatformAliases
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Logging:  LoggingConfig{Level: "info", Format: "text"},
		Database: DatabaseConfig{Driver: "sqlite3", DSN: "file:smm_agent.db?_busy_timeout=5000"},
		Scheduler: SchedulerConfig{
			Timezone: defaultTimezone,
			Jobs: map[string]string{
				"competitors": "0 6 * * *",
				"trends":      "0 7 * * *",
				"generate":    "0 8 * * *",
				"publish":     "0 10,14,18 * * *",
				"report":      "0 9 * * 1",
			},
		},
		LLM: LLMConfig{
			Providers: []ProviderConfig{
				{
					Name:        "groq",
					Kind:        KindOpenAI,
					Endpoint:    "https://api.groq.com/openai/v1/chat/completions",
					Model:       "llama-3.3-70b-versatile",
					Temperature: 0.3,
					MaxTokens:   2048,
					Timeout:     60 * time.Second,
				},
				{
					Name:      "gemini",
					Kind:      KindGemini,
					Model:     "gemini-2.0-flash",
					MaxTokens: 2048,
					Timeout:   30 * time.Second,
				},
				{
					Name:      "anthropic",
					Kind:      KindAnthropic,
					Endpoint:  "https://api.anthropic.com/v1/messages",
					Model:     "claude-3-5-haiku-latest",
					MaxTokens: 2048,
					Timeout:   60 * time.Second,
				},
			},
		},
		Illustrator: IllustratorConfig{
			Enabled:  true,
			Endpoint: "https://image.pollinations.ai/prompt/",
			Width:    1080,
			Height:   1080,
		},
		HTTP: HTTPConfig{Addr: ":8080"},
		Feeds: []FeedConfig{
			{
				Name:    "google-trends",
				Group:   GroupTrends,
				Scanner: "rss-headlines",
				Endpoints: []EndpointConfig{
					{Name: "UZ", URL: "https://trends.google.com/trends/trendingsearches/daily/rss?geo=UZ"},
					{Name: "RU", URL: "https://trends.google.com/trends/trendingsearches/daily/rss?geo=RU"},
				},
			},
			{
				Name:      "vc.ru",
				Group:     GroupTrends,
				Scanner:   "rss-headlines",
				Endpoints: []EndpointConfig{{Name: "main", URL: "https://vc.ru/rss"}},
			},
			{
				Name:    "telegram-channels",
				Group:   GroupCompetitors,
				Scanner: "rss-channel",
				Endpoints: []EndpointConfig{
					{Name: "leaderteamuz", URL: "https://rsshub.app/telegram/channel/leaderteamuz"},
					{Name: "pixie_uz", URL: "https://rsshub.app/telegram/channel/pixie_uz"},
					{Name: "telecom_uz", URL: "https://rsshub.app/telegram/channel/telecom_uz"},
				},
			},
		},
		Projects: []ProjectConfig{
			{
				ID:        "personal_brand",
				Name:      "Личный Бренд",
				Voice:     "вдохновляющий, честный, практичный",
				Language:  "русский / узбекский",
				Audience:  "предприниматели МСБ, начинающие маркетологи",
				Goal:      "стать trusted экспертом, получать входящие запросы",
				Topics:    "маркетинг, кейсы, ошибки, личная эффективность, бизнес-мышление",
				Forbidden: "агрессивные продажи, клише, хайп без пользы",
				Style:     "Пиши от первого лица, через личный опыт и конкретный вывод в конце.",
				Platforms: []string{"telegram", "instagram"},
			},
			{
				ID:        "leader_team",
				Name:      "Лидер Тим",
				Voice:     "деловой, экспертный, партнёрский",
				Language:  "русский",
				Audience:  "IT-директора, CTO, закупщики, интеграторы",
				Goal:      "стать первым выбором при покупке телеком оборудования B2B",
				Topics:    "решения для бизнеса, кейсы внедрения, ROI, телеком тренды",
				Forbidden: "развлекательный контент, личные темы, обещания без цифр",
				Style:     "Начинай с бизнес-задачи клиента, подкрепляй цифрами, заканчивай предложением обсудить проект.",
				Platforms: []string{"telegram", "linkedin"},
			},
			{
				ID:        "pixie",
				Name:      "Пикси",
				Voice:     "технологичный, инновационный, инженерный",
				Language:  "русский",
				Audience:  "дистрибьюторы, системные интеграторы, телеком-операторы",
				Goal:      "расширить дилерскую сеть, показать технологическое превосходство",
				Topics:    "технологии, производственные стандарты, индустриальные тренды, партнёрство",
				Forbidden: "негативное сравнение с конкурентами, непроверенные заявления",
				Style:     "Объясняй технологию через характеристики и стандарты, приглашай партнёров к сотрудничеству.",
				Platforms: []string{"telegram", "facebook"},
			},
		},
		ProjectAliases: map[string]string{
			"личный":       "personal_brand",
			"личный бренд": "personal_brand",
			"personal":     "personal_brand",
			"лидер":        "leader_team",
			"лидер тим":    "leader_team",
			"leader":       "leader_team",
			"пикси":        "pixie",
		},
		PlatformAliases: map[string]string{
			"тг":        "telegram",
			"телеграм":  "telegram",
			"telegram":  "telegram",
			"инста":     "instagram",
			"инстаграм": "instagram",
			"instagram": "instagram",
			"фб":        "facebook",
			"фейсбук":   "facebook",
			"facebook":  "facebook",
			"линкедин":  "linkedin",
			"linkedin":  "linkedin",
		},
	}
}
