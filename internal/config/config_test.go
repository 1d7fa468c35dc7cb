package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadLayersFileAndEnv(t *testing.T) {
	if os.Getenv(notionDatabaseEnv) != "" {
		t.Skipf("%s is set in the environment", notionDatabaseEnv)
	}

	path := writeFile(t, "pipeline.yaml", `
profile: testing
logging:
  level: debug
scheduler:
  cronExpression: "30 7 * * 1-5"
  timezone: Europe/Madrid
images:
  cache:
    ttl: 30m
  pexels:
    apiKey: from-file
  concurrency: 2
generation:
  distribution:
    humor: 5
sites:
  - name: Example feed
    scanner: feed
    url: https://example.com/feed.xml
`)
	envFile := writeFile(t, ".env", "NOTION_DATABASE_ID=db-from-dotenv\n")
	t.Cleanup(func() { _ = os.Unsetenv(notionDatabaseEnv) })

	t.Setenv(envFileEnv, envFile)
	t.Setenv(pexelsKeyEnv, "from-env")
	t.Setenv(anthropicAPIKeyEnv, "sk-test")
	t.Setenv(imageConcurrencyEnv, "6")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if !cfg.IsTesting() || cfg.Logging.Level != "debug" {
		t.Fatalf("file values not applied: profile %q, level %q", cfg.Profile, cfg.Logging.Level)
	}
	if cfg.Images.Cache.TTL != 30*time.Minute || cfg.Images.Cache.Backend != CacheMemory {
		t.Fatalf("unexpected cache config %+v", cfg.Images.Cache)
	}
	if cfg.Images.Pexels.APIKey != "from-env" {
		t.Fatalf("env should override file, got %q", cfg.Images.Pexels.APIKey)
	}
	if cfg.Images.Pexels.BaseURL == "" {
		t.Fatalf("defaults lost for untouched provider fields")
	}
	if cfg.Images.Concurrency != 6 {
		t.Fatalf("expected concurrency 6, got %d", cfg.Images.Concurrency)
	}
	if cfg.Storage.Notion.DatabaseID != "db-from-dotenv" {
		t.Fatalf("env file not loaded, got %q", cfg.Storage.Notion.DatabaseID)
	}
	if len(cfg.Sites) != 1 || cfg.Sites[0].Scanner != ScannerFeed {
		t.Fatalf("expected the file's single site, got %+v", cfg.Sites)
	}
	if cfg.Generation.Distribution["humor"] != 5 {
		t.Fatalf("unexpected distribution %v", cfg.Generation.Distribution)
	}
	if cfg.Scheduler.Location().String() != "Europe/Madrid" {
		t.Fatalf("unexpected location %s", cfg.Scheduler.Location())
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate error: %v", err)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv(envFileEnv, writeFile(t, ".env", ""))

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(cfg.Sites) != 17 {
		t.Fatalf("expected 17 default sites, got %d", len(cfg.Sites))
	}
	if cfg.Oracle.Provider != OracleAnthropic || cfg.Storage.BatchSize != 5 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestOracleModelFollowsProvider(t *testing.T) {
	t.Setenv(envFileEnv, writeFile(t, ".env", ""))
	t.Setenv(oracleProviderEnv, OracleOpenAI)
	t.Setenv(oracleModelEnv, "gpt-test")

	cfg, err := Load(writeFile(t, "empty.yaml", "{}\n"))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Oracle.OpenAI.Model != "gpt-test" || cfg.Oracle.Anthropic.Model == "gpt-test" {
		t.Fatalf("model applied to the wrong provider: %+v", cfg.Oracle)
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv(envFileEnv, writeFile(t, ".env", ""))

	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected an error for a missing config file")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	cfg.Profile = "staging"
	cfg.Oracle.Anthropic.APIKey = ""
	cfg.Images.Cache.Backend = CacheRedis
	cfg.Generation.Distribution = map[string]int{"rant": 3}
	cfg.Sites = append(cfg.Sites, SiteConfig{Name: "broken", Scanner: "ftp"})

	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected validation errors")
	}
	for _, want := range []string{"staging", anthropicAPIKeyEnv, "redis", "rant", "ftp", "url is required"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("validation error misses %q: %v", want, err)
		}
	}

	ok := defaultConfig()
	ok.Oracle.Anthropic.APIKey = "sk"
	if err := ok.Validate(); err != nil {
		t.Fatalf("default config with a key should validate: %v", err)
	}
}
