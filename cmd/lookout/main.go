package main

import (
	"context"
	"time"

	"github.com/avion00/medicare-backend/internal/account"
	"github.com/avion00/medicare-backend/internal/chat"
	lookoutconfig "github.com/avion00/medicare-backend/internal/config"
	"github.com/avion00/medicare-backend/internal/crawl"
	"github.com/avion00/medicare-backend/internal/knowledge"
	"github.com/avion00/medicare-backend/internal/summarize"
	"github.com/avion00/medicare-backend/pkg/auth"
	"github.com/avion00/medicare-backend/pkg/config"
	"github.com/avion00/medicare-backend/pkg/database"
	schemasql "github.com/avion00/medicare-backend/pkg/database/sql"
	"github.com/avion00/medicare-backend/pkg/email"
	"github.com/avion00/medicare-backend/pkg/llm"
	"github.com/avion00/medicare-backend/pkg/logging"
	"github.com/avion00/medicare-backend/pkg/monitoring"
	"github.com/avion00/medicare-backend/pkg/server"
	"github.com/avion00/medicare-backend/pkg/version"
)

const serviceName = "lookout"

func main() {
	logger := logging.NewLoggerWithService(serviceName)
	config.LoadEnv(logger)
	// LOG_LEVEL may come from .env.
	logger.SetLevel(config.GetLogLevel())

	buildInfo := version.GetInfo()
	logger.WithField("build", buildInfo.String()).Info("Starting Lookout (website crawl and chat API)")

	cfg := lookoutconfig.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("Invalid configuration")
	}

	dbConfig := database.DefaultConfig()
	dbConfig.URL = cfg.DatabaseURL
	db := database.MustConnect(dbConfig, logger)
	defer func() { _ = db.Close() }()

	if cfg.RunMigrations {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := database.ApplySchema(ctx, db, schemasql.Content, "schema", logger)
		cancel()
		if err != nil {
			logger.WithError(err).Fatal("Failed to apply database schema")
		}
	}

	healthChecker := monitoring.NewHealthChecker(serviceName, buildInfo.Version)
	metricsCollector := monitoring.NewMetricsCollector(serviceName, buildInfo.Version, buildInfo.GitCommit)
	healthChecker.AddCheck("database", monitoring.DatabaseHealthCheck(db))
	healthChecker.AddCheck("config", monitoring.ConfigurationHealthCheck(map[string]string{
		"DATABASE_URL": cfg.DatabaseURL,
		"JWT_SECRET":   cfg.JWTSecret,
		"LLM_PROVIDER": cfg.LLM.Provider,
	}))

	provider, err := llm.NewProvider(cfg.LLM)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create LLM provider")
	}
	if cfg.LLM.APIKey == "" && cfg.LLM.Provider != "ollama" {
		logger.Warn("LLM_API_KEY not set - summaries will fall back to truncation and chat generation will fail")
	}

	summarizer := summarize.New(provider,
		summarize.WithLogger(logger),
		summarize.WithMaxTokens(cfg.SummaryMaxTokens),
		summarize.WithTimeout(cfg.GenerationTimeout),
	)
	crawler, err := crawl.NewCrawler(summarizer,
		crawl.WithLogger(logger),
		crawl.WithUserAgent(cfg.CrawlUserAgent),
		crawl.WithFetchTimeout(cfg.CrawlFetchTimeout),
		crawl.WithConcurrency(cfg.CrawlConcurrency),
		crawl.WithAllowPrivate(cfg.CrawlAllowPrivate),
	)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create crawler")
	}

	entries := knowledge.NewCachedStore(knowledge.NewStore(db), cfg.KnowledgeCacheTTL, cfg.KnowledgeCacheMaxEntries)
	training := knowledge.NewTrainingStore(db)
	knowledgeHandler := knowledge.NewHandler(entries, training, crawler, logger)
	knowledgeHandler.DefaultMaxPages = cfg.CrawlDefaultMaxPages
	knowledgeHandler.PublicBaseURL = cfg.PublicBaseURL

	resolver := chat.NewResolver(entries, training, chat.NewHistoryStore(db), provider,
		chat.WithLogger(logger),
		chat.WithGenerationTimeout(cfg.GenerationTimeout),
	)
	chatHandler := chat.NewChatHandler(resolver, logger)

	accountOpts := []account.ServiceOption{
		account.WithLogger(logger),
		account.WithTokenTTL(cfg.JWTExpiration),
		account.WithPublicBaseURL(cfg.PublicBaseURL),
	}
	if cfg.SMTP.Configured() {
		accountOpts = append(accountOpts, account.WithMailer(email.NewSender(cfg.SMTP)))
	} else {
		logger.Warn("SMTP not configured - password reset links will be logged instead of emailed")
	}
	accounts := account.NewService(account.NewStore(db), []byte(cfg.JWTSecret), accountOpts...)
	accountHandler := account.NewHandler(accounts, logger)

	router := server.SetupServiceRouter(logger, serviceName, healthChecker, metricsCollector)
	account.RegisterPublicRoutes(router, accountHandler)

	protected := router.Group("/")
	protected.Use(auth.JWTAuthMiddleware([]byte(cfg.JWTSecret)))
	account.RegisterRoutes(protected, accountHandler)
	knowledge.RegisterRoutes(protected, knowledgeHandler)
	chat.RegisterRoutes(protected, chatHandler)

	serverConfig := server.DefaultConfig(serviceName, cfg.Port)
	serverConfig.Port = cfg.Port
	if err := server.Start(serverConfig, router, logger); err != nil {
		logger.WithError(err).Fatal("Server startup failed")
	}
}
