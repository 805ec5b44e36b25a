package config

import (
	"errors"
	"strings"
	"time"

	"github.com/avion00/medicare-backend/internal/summarize"
	"github.com/avion00/medicare-backend/pkg/config"
	"github.com/avion00/medicare-backend/pkg/database"
	"github.com/avion00/medicare-backend/pkg/email"
	"github.com/avion00/medicare-backend/pkg/llm"
)

// Config stores environment configuration for Lookout.
type Config struct {
	Port          string
	DatabaseURL   string
	RunMigrations bool
	JWTSecret     string
	JWTExpiration time.Duration
	PublicBaseURL string

	LLM               llm.Config
	GenerationTimeout time.Duration
	SummaryMaxTokens  int

	CrawlDefaultMaxPages int
	CrawlFetchTimeout    time.Duration
	CrawlConcurrency     int
	CrawlUserAgent       string
	CrawlAllowPrivate    bool

	KnowledgeCacheTTL        time.Duration
	KnowledgeCacheMaxEntries int

	SMTP email.Config
}

// LoadConfig loads the Lookout configuration from environment variables.
func LoadConfig() Config {
	port := config.GetEnv("PORT", "18020")
	return Config{
		Port:          port,
		DatabaseURL:   databaseURL(),
		RunMigrations: config.GetEnvBool("RUN_MIGRATIONS", true),
		JWTSecret:     config.GetEnv("JWT_SECRET", ""),
		JWTExpiration: config.GetEnvSeconds("JWT_EXPIRATION_SECONDS", 180000*time.Second),
		PublicBaseURL: strings.TrimRight(config.GetEnv("PUBLIC_BASE_URL", "http://localhost:"+port), "/"),

		LLM:               llm.LoadConfig(),
		GenerationTimeout: config.GetEnvSeconds("LLM_TIMEOUT_SECONDS", 30*time.Second),
		SummaryMaxTokens:  config.GetEnvInt("SUMMARY_MAX_TOKENS", summarize.DefaultMaxTokens),

		CrawlDefaultMaxPages: config.GetEnvInt("CRAWL_DEFAULT_MAX_PAGES", 5),
		CrawlFetchTimeout:    config.GetEnvSeconds("CRAWL_FETCH_TIMEOUT_SECONDS", 10*time.Second),
		CrawlConcurrency:     config.GetEnvInt("CRAWL_CONCURRENCY", 1),
		CrawlUserAgent:       config.GetEnv("CRAWL_USER_AGENT", "LookoutCrawler/1.0"),
		CrawlAllowPrivate:    config.GetEnvBool("CRAWL_ALLOW_PRIVATE", false),

		KnowledgeCacheTTL:        config.GetEnvSeconds("KNOWLEDGE_CACHE_TTL_SECONDS", 300*time.Second),
		KnowledgeCacheMaxEntries: config.GetEnvInt("KNOWLEDGE_CACHE_MAX_ENTRIES", 1000),

		SMTP: email.LoadConfig(),
	}
}

// Validate reports settings the service cannot start without.
func (c Config) Validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL or DB_HOST/DB_NAME is required"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.CrawlDefaultMaxPages <= 0 {
		errs = append(errs, errors.New("CRAWL_DEFAULT_MAX_PAGES must be positive"))
	}
	return errors.Join(errs...)
}

// databaseURL prefers DATABASE_URL and otherwise composes one from the
// discrete DB_* settings.
func databaseURL() string {
	if u := config.GetEnv("DATABASE_URL", ""); u != "" {
		return u
	}
	host := config.GetEnv("DB_HOST", "")
	name := config.GetEnv("DB_NAME", "")
	if host == "" || name == "" {
		return ""
	}
	return database.BuildURL(host,
		config.GetEnv("DB_PORT", "5432"),
		name,
		config.GetEnv("DB_USER", ""),
		config.GetEnv("DB_PASSWORD", ""),
		config.GetEnv("DB_SSLMODE", "disable"),
	)
}
