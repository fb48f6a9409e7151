// ABOUTME: Constructs the full dependency graph from configuration:
// ABOUTME: database, cache, crypto, backend clients, services, and handlers
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"mail-digest/config"
	"mail-digest/crypto"
	"mail-digest/driver"
	"mail-digest/handler"
	"mail-digest/metrics"
	"mail-digest/repository"
	"mail-digest/service"
)

// Dependencies holds all application dependencies.
type Dependencies struct {
	DBPool         *pgxpool.Pool
	Registry       *prometheus.Registry
	Processor      service.ProcessorService
	SummaryRepo    repository.SummaryRepository
	ProcessHandler *handler.ProcessHandler
	SummaryHandler *handler.SummaryHandler
	HealthHandler  *handler.HealthHandler
	Logger         *slog.Logger
}

// BuildDependencies constructs all application dependencies from the loaded
// configuration. Returns a cleanup function that should be deferred.
func BuildDependencies(ctx context.Context, cfg *config.Config, log *slog.Logger) (*Dependencies, func(), error) {
	dbPool, err := driver.NewPool(ctx, cfg.Database.DSN, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := driver.EnsureSchema(ctx, dbPool); err != nil {
		dbPool.Close()
		return nil, nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	cryptoSvc, err := crypto.NewService(cfg.Storage.EncryptionKey)
	if err != nil {
		dbPool.Close()
		return nil, nil, fmt.Errorf("failed to initialize encryption: %w", err)
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	summaryRepo := repository.NewSummaryRepository(dbPool, cryptoSvc, log)

	var redisClient *redis.Client
	if cfg.Cache.Enabled {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.Cache.Addr})
		summaryRepo = repository.NewCachedSummaryRepository(summaryRepo, redisClient, cfg.Cache.TTL.Std(), log)
		log.Info("summary cache enabled", "addr", cfg.Cache.Addr, "ttl", cfg.Cache.TTL.Std())
	}

	llmRepo := buildLLMRepository(cfg.Summarizer, log)

	summarizer, err := service.NewSummarizer(cfg.Summarizer, llmRepo, m, log)
	if err != nil {
		dbPool.Close()
		return nil, nil, err
	}

	mailboxRepo := repository.NewMailboxRepository(cfg.IMAP, log)
	cleaner := service.NewCleanerService(log)

	processor := service.NewProcessorService(
		mailboxRepo,
		cleaner,
		summarizer,
		summaryRepo,
		cfg.Fetch,
		cfg.Pipeline.Workers,
		m,
		log,
	)

	cleanup := func() {
		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				log.Error("failed to close redis client", "error", err)
			}
		}
		dbPool.Close()
	}

	return &Dependencies{
		DBPool:         dbPool,
		Registry:       registry,
		Processor:      processor,
		SummaryRepo:    summaryRepo,
		ProcessHandler: handler.NewProcessHandler(processor, log),
		SummaryHandler: handler.NewSummaryHandler(summaryRepo, log),
		HealthHandler:  handler.NewHealthHandler(dbPool, log),
		Logger:         log,
	}, cleanup, nil
}

func buildLLMRepository(cfg config.SummarizerConfig, log *slog.Logger) repository.LLMRepository {
	if cfg.Engine == config.EngineRemote {
		client := driver.NewRemoteChatClient(
			cfg.Remote.BaseURL,
			cfg.Remote.APIKey,
			cfg.Remote.Model,
			cfg.RequestTimeout.Std(),
			log,
		)
		return repository.NewRemoteLLMRepository(client, cfg.Remote.Provider, log)
	}

	client := driver.NewLocalModelClient(
		cfg.Local.BaseURL,
		cfg.Local.Model,
		cfg.RequestTimeout.Std(),
		log,
	)
	return repository.NewLocalLLMRepository(client, log)
}
