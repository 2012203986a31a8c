package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone = "UTC"

	configPathEnv       = "NEWSWEAVE_CONFIG"
	databaseDSNEnv      = "DATABASE_DSN"
	redisAddrEnv        = "REDIS_ADDR"
	redisPasswordEnv    = "REDIS_PASSWORD"
	summarizerKeyEnv    = "SUMMARIZER_API_KEY"
	summarizerModelEnv  = "SUMMARIZER_MODEL"
	apiListenAddrEnv    = "API_ADDR"
	defaultIngestEvery  = time.Hour
	defaultDigestEvery  = 24 * time.Hour
	defaultCacheTTL     = 24 * time.Hour
	defaultDigestWindow = 25
	defaultMaxRetries   = 5
)

// Config holds high-level settings required across the application.
type Config struct {
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
	API        APIConfig        `yaml:"api"`
	Summarizer SummarizerConfig `yaml:"summarizer"`
	Ingest     IngestConfig     `yaml:"ingest"`
	Digest     DigestConfig     `yaml:"digest"`
	Logging    LoggingConfig    `yaml:"logging"`
	Sites      []SiteConfig     `yaml:"sites"`
}

// DatabaseConfig describes the store connection. A postgres:// DSN selects
// the Postgres driver; anything else is treated as a SQLite path.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// RedisConfig describes the optional seen-cache. An empty Addr disables it.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	TTL      string `yaml:"ttl"`
}

// CacheTTL resolves the configured TTL string, defaulting to 24h.
func (r RedisConfig) CacheTTL() time.Duration {
	if d, err := time.ParseDuration(r.TTL); err == nil && d > 0 {
		return d
	}
	return defaultCacheTTL
}

// SchedulerConfig defines how often ingestion and digest runs execute and
// in which timezone digest day buckets are computed.
type SchedulerConfig struct {
	IngestInterval string         `yaml:"ingestInterval"`
	DigestInterval string         `yaml:"digestInterval"`
	Timezone       string         `yaml:"timezone"`
	location       *time.Location `yaml:"-"`
}

// IngestEvery resolves the ingestion interval, defaulting to 1h.
func (s SchedulerConfig) IngestEvery() time.Duration {
	if d, err := time.ParseDuration(s.IngestInterval); err == nil && d > 0 {
		return d
	}
	return defaultIngestEvery
}

// DigestEvery resolves the digest interval, defaulting to 24h.
func (s SchedulerConfig) DigestEvery() time.Duration {
	if d, err := time.ParseDuration(s.DigestInterval); err == nil && d > 0 {
		return d
	}
	return defaultDigestEvery
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// APIConfig describes the query-service listener.
type APIConfig struct {
	Addr string `yaml:"addr"`
}

// SummarizerConfig defines how to contact the summarization collaborator
// (OpenAI-compatible chat completion endpoint).
type SummarizerConfig struct {
	Endpoint     string `yaml:"endpoint"`
	Model        string `yaml:"model"`
	APIKey       string `yaml:"apiKey"`
	SystemPrompt string `yaml:"systemPrompt"`
}

// IngestConfig tunes the coordinator.
type IngestConfig struct {
	MaxRetries     int            `yaml:"maxRetries"`
	RequestDelayMs int            `yaml:"requestDelayMs"`
	Filters        []FilterConfig `yaml:"filters"`
}

// Retries resolves the bounded insert-retry count.
func (i IngestConfig) Retries() int {
	if i.MaxRetries > 0 {
		return i.MaxRetries
	}
	return defaultMaxRetries
}

// RequestDelay is the optional pause between section fetches of one site.
func (i IngestConfig) RequestDelay() time.Duration {
	return time.Duration(i.RequestDelayMs) * time.Millisecond
}

// FilterConfig drops matching records before insert (e.g. a source's
// default-image stubs).
type FilterConfig struct {
	Source       string `yaml:"source"`
	ImagePattern string `yaml:"imagePattern"`
}

// DigestConfig tunes the aggregator.
type DigestConfig struct {
	Window int `yaml:"window"`
}

// WindowSize resolves the article window per digest, defaulting to 25.
func (d DigestConfig) WindowSize() int {
	if d.Window > 0 {
		return d.Window
	}
	return defaultDigestWindow
}

// LoggingConfig carries the minimum level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// SiteConfig describes a single publisher with its collector strategy.
type SiteConfig struct {
	Name      string          `yaml:"name"`
	Collector string          `yaml:"collector"`
	Sections  []SectionConfig `yaml:"sections"`
	Selectors SelectorConfig  `yaml:"selectors"`
}

// SectionConfig maps one publisher URL path to a canonical category.
type SectionConfig struct {
	Name     string `yaml:"name"`
	URL      string `yaml:"url"`
	Category string `yaml:"category"`
}

// SelectorConfig holds the CSS selectors a selector collector applies to
// each section page.
type SelectorConfig struct {
	Article string `yaml:"article"`
	Title   string `yaml:"title"`
	Summary string `yaml:"summary"`
	Link    string `yaml:"link"`
	Image   string `yaml:"image"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
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

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(redisAddrEnv); v != "" {
		c.Redis.Addr = v
	}

	if v := os.Getenv(redisPasswordEnv); v != "" {
		c.Redis.Password = v
	}

	if v := os.Getenv(summarizerKeyEnv); v != "" {
		c.Summarizer.APIKey = v
	}

	if v := os.Getenv(summarizerModelEnv); v != "" {
		c.Summarizer.Model = v
	}

	if v := os.Getenv(apiListenAddrEnv); v != "" {
		c.API.Addr = v
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
	if override.Database.DSN != "" {
		base.Database = override.Database
	}

	if override.Redis.Addr != "" {
		base.Redis = override.Redis
	}

	if override.Scheduler.IngestInterval != "" {
		base.Scheduler.IngestInterval = override.Scheduler.IngestInterval
	}
	if override.Scheduler.DigestInterval != "" {
		base.Scheduler.DigestInterval = override.Scheduler.DigestInterval
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}

	if override.API.Addr != "" {
		base.API = override.API
	}

	if override.Summarizer.Endpoint != "" {
		base.Summarizer.Endpoint = override.Summarizer.Endpoint
	}
	if override.Summarizer.Model != "" {
		base.Summarizer.Model = override.Summarizer.Model
	}
	if override.Summarizer.APIKey != "" {
		base.Summarizer.APIKey = override.Summarizer.APIKey
	}
	if override.Summarizer.SystemPrompt != "" {
		base.Summarizer.SystemPrompt = override.Summarizer.SystemPrompt
	}

	if override.Ingest.MaxRetries > 0 {
		base.Ingest.MaxRetries = override.Ingest.MaxRetries
	}
	if override.Ingest.RequestDelayMs > 0 {
		base.Ingest.RequestDelayMs = override.Ingest.RequestDelayMs
	}
	if len(override.Ingest.Filters) > 0 {
		base.Ingest.Filters = override.Ingest.Filters
	}

	if override.Digest.Window > 0 {
		base.Digest.Window = override.Digest.Window
	}

	if override.Logging.Level != "" {
		base.Logging = override.Logging
	}

	if len(override.Sites) > 0 {
		base.Sites = override.Sites
	}

	return base
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Database:  DatabaseConfig{DSN: "newsweave.db"},
		Redis:     RedisConfig{Addr: "", DB: 0},
		Scheduler: SchedulerConfig{Timezone: defaultTimezone, location: tz},
		API:       APIConfig{Addr: ":5000"},
		Summarizer: SummarizerConfig{
			Endpoint:     "https://api.openai.com/v1/chat/completions",
			Model:        "gpt-4o-mini",
			APIKey:       "",
			SystemPrompt: "You analyze batches of news articles.",
		},
		Ingest: IngestConfig{
			MaxRetries: defaultMaxRetries,
			Filters: []FilterConfig{
				{Source: "The Print", ImagePattern: "(?i)default"},
			},
		},
		Digest:  DigestConfig{Window: defaultDigestWindow},
		Logging: LoggingConfig{Level: "info"},
	}
}
