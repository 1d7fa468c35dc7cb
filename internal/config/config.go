package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone = "UTC"

	configPathEnv       = "CONTENT_PIPELINE_CONFIG"
	envFileEnv          = "ENV_FILE"
	profileEnv          = "CONTENT_PIPELINE_PROFILE"
	logLevelEnv         = "LOG_LEVEL"
	oracleProviderEnv   = "ORACLE_PROVIDER"
	oracleModelEnv      = "ORACLE_MODEL"
	anthropicAPIKeyEnv  = "ANTHROPIC_API_KEY"
	openAIAPIKeyEnv     = "OPENAI_API_KEY"
	unsplashKeyEnv      = "UNSPLASH_ACCESS_KEY"
	pexelsKeyEnv        = "PEXELS_API_KEY"
	pixabayKeyEnv       = "PIXABAY_API_KEY"
	notionTokenEnv      = "NOTION_API_TOKEN"
	notionDatabaseEnv   = "NOTION_DATABASE_ID"
	githubTokenEnv      = "GH_TOKEN"
	databaseDSNEnv      = "DATABASE_DSN"
	redisAddressEnv     = "REDIS_ADDRESS"
	redisPasswordEnv    = "REDIS_PASSWORD"
	telegramTokenEnv    = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv   = "TELEGRAM_CHAT_ID"
	pushgatewayURLEnv   = "PUSHGATEWAY_URL"
	fallbackDirEnv      = "FALLBACK_DIR"
	imageConcurrencyEnv = "IMAGE_CONCURRENCY"
)

// Profile names.
const (
	ProfileProduction = "production"
	ProfileTesting    = "testing"
)

// Oracle providers.
const (
	OracleAnthropic = "anthropic"
	OracleOpenAI    = "openai"
)

// Cache backends.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Scanner strategies.
const (
	ScannerHTML    = "html"
	ScannerFeed    = "feed"
	ScannerBrowser = "browser"
)

// Config holds high-level settings required across the application.
type Config struct {
	Profile       string             `yaml:"profile"`
	Logging       LoggingConfig      `yaml:"logging"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Oracle        OracleConfig       `yaml:"oracle"`
	Generation    GenerationConfig   `yaml:"generation"`
	Gate          GateConfig         `yaml:"gate"`
	Images        ImagesConfig       `yaml:"images"`
	Storage       StorageConfig      `yaml:"storage"`
	Notifications NotificationConfig `yaml:"notifications"`
	Metrics       MetricsConfig      `yaml:"metrics"`
	Crawler       CrawlerConfig      `yaml:"crawler"`
	Sites         []SiteConfig       `yaml:"sites"`
}

// LoggingConfig selects the slog level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// SchedulerConfig defines when the pipeline should run.
type SchedulerConfig struct {
	CronExpression string         `yaml:"cronExpression"`
	Timezone       string         `yaml:"timezone"`
	location       *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// OracleConfig selects and configures the text-completion backend.
type OracleConfig struct {
	Provider    string          `yaml:"provider"`
	CallTimeout time.Duration   `yaml:"callTimeout"`
	Anthropic   AnthropicConfig `yaml:"anthropic"`
	OpenAI      ChatGPTConfig   `yaml:"openai"`
}

// AnthropicConfig configures the Messages API client.
type AnthropicConfig struct {
	APIKey  string `yaml:"apiKey"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"baseUrl"`
}

// ChatGPTConfig defines how to contact an OpenAI-compatible chat completions API.
type ChatGPTConfig struct {
	Endpoint     string `yaml:"endpoint"`
	Model        string `yaml:"model"`
	APIKey       string `yaml:"apiKey"`
	SystemPrompt string `yaml:"systemPrompt"`
}

// GenerationConfig tunes filtering and batch generation.
// An empty distribution uses the profile's.
type GenerationConfig struct {
	Distribution     map[string]int `yaml:"distribution"`
	Retries          int            `yaml:"retries"`
	BaseDelay        time.Duration  `yaml:"baseDelay"`
	FilterTokens     int            `yaml:"filterTokens"`
	GenerationTokens int            `yaml:"generationTokens"`
}

// GateConfig overrides quality gate profile values when non-zero.
type GateConfig struct {
	OriginalApprovalScore int `yaml:"originalApprovalScore"`
	MaxCandidates         int `yaml:"maxCandidates"`
}

// ImagesConfig groups provider credentials and aggregator tuning.
type ImagesConfig struct {
	Unsplash        ImageProviderConfig `yaml:"unsplash"`
	Pexels          ImageProviderConfig `yaml:"pexels"`
	Pixabay         ImageProviderConfig `yaml:"pixabay"`
	Cache           CacheConfig         `yaml:"cache"`
	Redis           RedisConfig         `yaml:"redis"`
	Concurrency     int                 `yaml:"concurrency"`
	ProviderTimeout time.Duration       `yaml:"providerTimeout"`
}

// ImageProviderConfig holds one provider's credential and endpoint.
// A provider without an API key is unavailable.
type ImageProviderConfig struct {
	APIKey  string        `yaml:"apiKey"`
	BaseURL string        `yaml:"baseUrl"`
	Timeout time.Duration `yaml:"timeout"`
}

// CacheConfig selects where provider results are cached.
type CacheConfig struct {
	Backend string        `yaml:"backend"`
	TTL     time.Duration `yaml:"ttl"`
}

// RedisConfig describes the shared cache server.
type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// StorageConfig lists the sinks. A sink without credentials is not configured.
type StorageConfig struct {
	Notion      NotionConfig   `yaml:"notion"`
	Gist        GistConfig     `yaml:"gist"`
	Postgres    DatabaseConfig `yaml:"postgres"`
	FallbackDir string         `yaml:"fallbackDir"`
	SinkTimeout time.Duration  `yaml:"sinkTimeout"`
	BatchSize   int            `yaml:"batchSize"`
	BatchPause  time.Duration  `yaml:"batchPause"`
}

// NotionConfig configures the pages API record store.
type NotionConfig struct {
	Token      string `yaml:"token"`
	DatabaseID string `yaml:"databaseId"`
	BaseURL    string `yaml:"baseUrl"`
	Version    string `yaml:"version"`
}

// Enabled reports whether both credentials are present.
func (n NotionConfig) Enabled() bool {
	return n.Token != "" && n.DatabaseID != ""
}

// GistConfig configures the GitHub gist document store.
type GistConfig struct {
	Token   string `yaml:"token"`
	BaseURL string `yaml:"baseUrl"`
}

// DatabaseConfig describes Postgres connection details.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
	BaseURL  string `yaml:"baseUrl"`
}

// Enabled reports whether both token and chat are set.
func (t TelegramConfig) Enabled() bool {
	return t.BotToken != "" && t.ChatID != ""
}

// MetricsConfig points at an optional Pushgateway.
type MetricsConfig struct {
	PushgatewayURL string `yaml:"pushgatewayUrl"`
	Job            string `yaml:"job"`
}

// CrawlerConfig tunes site fetching.
type CrawlerConfig struct {
	Timeout     time.Duration `yaml:"timeout"`
	MaxArticles int           `yaml:"maxArticles"`
	UserAgent   string        `yaml:"userAgent"`
}

// SiteConfig describes a single site with its scanner strategy.
type SiteConfig struct {
	Name            string            `yaml:"name"`
	Scanner         string            `yaml:"scanner"`
	URL             string            `yaml:"url"`
	ArticleSelector string            `yaml:"articleSelector"`
	TitleSelector   string            `yaml:"titleSelector"`
	ContentSelector string            `yaml:"contentSelector"`
	Aggregator      bool              `yaml:"aggregator"`
	MaxArticles     int               `yaml:"maxArticles"`
	Options         map[string]string `yaml:"options"`
}

// Load reads env files, the YAML configuration (if any) and environment
// overrides, in that order of increasing precedence. An empty path falls
// back to CONTENT_PIPELINE_CONFIG.
func Load(path string) (Config, error) {
	loadEnvFiles()

	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	if len(cfg.Sites) == 0 {
		cfg.Sites = defaultSites()
	}

	return cfg, nil
}

func loadEnvFiles() {
	if file := os.Getenv(envFileEnv); file != "" {
		if err := godotenv.Load(file); err != nil {
			log.Printf("config: cannot load %s: %v", file, err)
		}
		return
	}
	// .env.local wins because godotenv never overwrites a variable already set.
	for _, file := range []string{".env.local", ".env"} {
		if _, err := os.Stat(file); err == nil {
			_ = godotenv.Load(file)
		}
	}
}

func (c *Config) applyEnvOverrides() {
	setString(&c.Profile, profileEnv)
	setString(&c.Logging.Level, logLevelEnv)

	setString(&c.Oracle.Provider, oracleProviderEnv)
	setString(&c.Oracle.Anthropic.APIKey, anthropicAPIKeyEnv)
	setString(&c.Oracle.OpenAI.APIKey, openAIAPIKeyEnv)
	if v := os.Getenv(oracleModelEnv); v != "" {
		if c.Oracle.Provider == OracleOpenAI {
			c.Oracle.OpenAI.Model = v
		} else {
			c.Oracle.Anthropic.Model = v
		}
	}

	setString(&c.Images.Unsplash.APIKey, unsplashKeyEnv)
	setString(&c.Images.Pexels.APIKey, pexelsKeyEnv)
	setString(&c.Images.Pixabay.APIKey, pixabayKeyEnv)
	if v := os.Getenv(redisAddressEnv); v != "" {
		c.Images.Redis.Address = v
		c.Images.Cache.Backend = CacheRedis
	}
	setString(&c.Images.Redis.Password, redisPasswordEnv)
	if v := os.Getenv(imageConcurrencyEnv); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Images.Concurrency = n
		} else {
			log.Printf("config: ignoring %s=%q", imageConcurrencyEnv, v)
		}
	}

	setString(&c.Storage.Notion.Token, notionTokenEnv)
	setString(&c.Storage.Notion.DatabaseID, notionDatabaseEnv)
	setString(&c.Storage.Gist.Token, githubTokenEnv)
	setString(&c.Storage.Postgres.DSN, databaseDSNEnv)
	setString(&c.Storage.FallbackDir, fallbackDirEnv)

	setString(&c.Notifications.Telegram.BotToken, telegramTokenEnv)
	setString(&c.Notifications.Telegram.ChatID, telegramChatIDEnv)

	setString(&c.Metrics.PushgatewayURL, pushgatewayURLEnv)
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
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

// Validate reports misconfiguration that prevents a pipeline run.
func (c Config) Validate() error {
	var errs []error

	switch strings.ToLower(c.Profile) {
	case "", ProfileProduction, ProfileTesting:
	default:
		errs = append(errs, fmt.Errorf("unknown profile %q", c.Profile))
	}

	switch c.Oracle.Provider {
	case OracleAnthropic:
		if c.Oracle.Anthropic.APIKey == "" {
			errs = append(errs, fmt.Errorf("%s is required for the anthropic oracle", anthropicAPIKeyEnv))
		}
	case OracleOpenAI:
		if c.Oracle.OpenAI.APIKey == "" {
			errs = append(errs, fmt.Errorf("%s is required for the openai oracle", openAIAPIKeyEnv))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown oracle provider %q", c.Oracle.Provider))
	}

	switch c.Images.Cache.Backend {
	case "", CacheMemory:
	case CacheRedis:
		if c.Images.Redis.Address == "" {
			errs = append(errs, errors.New("redis cache needs images.redis.address"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown cache backend %q", c.Images.Cache.Backend))
	}

	for name := range c.Generation.Distribution {
		switch strings.ToLower(name) {
		case "informational", "opinion", "humor", "narrative":
		default:
			errs = append(errs, fmt.Errorf("unknown distribution category %q", name))
		}
	}

	if c.Storage.FallbackDir == "" {
		errs = append(errs, errors.New("storage.fallbackDir must not be empty"))
	}

	for _, site := range c.Sites {
		switch site.Scanner {
		case ScannerHTML, ScannerFeed, ScannerBrowser:
		default:
			errs = append(errs, fmt.Errorf("site %s: unknown scanner %q", site.Name, site.Scanner))
		}
		if site.URL == "" {
			errs = append(errs, fmt.Errorf("site %s: url is required", site.Name))
		}
	}

	return errors.Join(errs...)
}

// IsTesting reports whether the testing profile is selected.
func (c Config) IsTesting() bool {
	return strings.EqualFold(c.Profile, ProfileTesting)
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Profile:   ProfileProduction,
		Logging:   LoggingConfig{Level: "info"},
		Scheduler: SchedulerConfig{CronExpression: "0 6 * * *", Timezone: defaultTimezone, location: tz},
		Oracle: OracleConfig{
			Provider:    OracleAnthropic,
			CallTimeout: 5 * time.Minute,
			Anthropic: AnthropicConfig{
				Model: "claude-sonnet-4-20250514",
			},
			OpenAI: ChatGPTConfig{
				Endpoint:     "https://api.openai.com/v1/chat/completions",
				Model:        "gpt-4o-mini",
				SystemPrompt: "You are an editor who writes LinkedIn posts about technology news.",
			},
		},
		Generation: GenerationConfig{
			Retries:          3,
			BaseDelay:        2 * time.Second,
			FilterTokens:     4000,
			GenerationTokens: 8000,
		},
		Images: ImagesConfig{
			Unsplash:        ImageProviderConfig{BaseURL: "https://api.unsplash.com", Timeout: 10 * time.Second},
			Pexels:          ImageProviderConfig{BaseURL: "https://api.pexels.com/v1", Timeout: 10 * time.Second},
			Pixabay:         ImageProviderConfig{BaseURL: "https://pixabay.com/api", Timeout: 10 * time.Second},
			Cache:           CacheConfig{Backend: CacheMemory, TTL: time.Hour},
			Concurrency:     4,
			ProviderTimeout: 15 * time.Second,
		},
		Storage: StorageConfig{
			Notion:      NotionConfig{BaseURL: "https://api.notion.com/v1", Version: "2022-06-28"},
			FallbackDir: "fallback",
			SinkTimeout: 5 * time.Minute,
			BatchSize:   5,
			BatchPause:  500 * time.Millisecond,
		},
		Notifications: NotificationConfig{
			Telegram: TelegramConfig{BaseURL: "https://api.telegram.org"},
		},
		Metrics: MetricsConfig{Job: "scrapping_link"},
		Crawler: CrawlerConfig{
			Timeout:     30 * time.Second,
			MaxArticles: 10,
			UserAgent:   "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36",
		},
		Sites: defaultSites(),
	}
}
