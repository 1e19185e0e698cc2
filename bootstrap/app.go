// Package bootstrap wires the service together and runs it.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"hubsearch/auth"
	"hubsearch/config"
	"hubsearch/consumer"
	"hubsearch/content"
	"hubsearch/driver"
	"hubsearch/gateway"
	"hubsearch/indexer"
	"hubsearch/logger"
	"hubsearch/observability"
	"hubsearch/server"
)

// App holds the long-lived components of the service.
type App struct {
	httpServer    *server.Server
	poolClose     func()
	redisConsumer *consumer.Consumer
	otelShutdown  observability.ShutdownFunc
}

// Run initializes all components and starts the service.
// It blocks until ctx is cancelled, then performs graceful shutdown.
func Run(ctx context.Context) error {
	// ── OpenTelemetry ──
	otelCfg := observability.ConfigFromEnv()
	otelShutdown, err := observability.InitProvider(ctx, otelCfg)
	if err != nil {
		fmt.Printf("Failed to initialize OpenTelemetry: %v\n", err)
		otelCfg.Enabled = false
		otelShutdown = func(context.Context) error { return nil }
	}

	// ── Logger ──
	logger.InitWithOTel(otelCfg.Enabled)
	logger.Logger.Info("Starting hubsearch",
		"service", otelCfg.ServiceName,
		"otel_enabled", otelCfg.Enabled,
	)

	// ── Load config ──
	appCfg, err := config.Load()
	if err != nil {
		logger.Logger.Error("Failed to load config", "err", err)
		return err
	}

	// ── Drivers (infrastructure layer) ──
	pool, err := initDatabasePool(ctx, appCfg)
	if err != nil {
		logger.Logger.Error("Failed to initialize database", "err", err)
		return err
	}

	msClient, err := initMeilisearchClient(appCfg)
	if err != nil {
		logger.Logger.Error("Failed to initialize Meilisearch", "err", err)
		pool.Close()
		return err
	}

	dbDriver := driver.NewDatabaseDriver(pool)
	if err := dbDriver.Migrate(ctx); err != nil {
		logger.Logger.Error("Failed to migrate queue tables", "err", err)
		pool.Close()
		return err
	}
	searchDriver := driver.NewMeilisearchDriver(msClient, appCfg.Engine.Index)

	// ── Gateways (anti-corruption layer) ──
	queueRepo := gateway.NewQueueRepositoryGateway(dbDriver)
	searchEngine := gateway.NewSearchEngineGateway(searchDriver)

	if err := searchEngine.EnsureIndex(ctx); err != nil {
		logger.Logger.Error("Failed to ensure search index", "err", err)
		pool.Close()
		return err
	}

	// ── Content registry ──
	registry := indexer.NewRegistry()
	articles := content.NewArticleSource(pool, appCfg.Indexer.BaseURL)
	registry.Register(content.SubjectArticle, indexer.Searchable{
		Source: articles,
		Mapper: articles,
		Paths:  articles,
		Perms:  articles,
		Extra:  articles,
	})

	// ── Queue processor ──
	batch := indexer.NewBatchIndexer(registry, searchEngine, logger.Logger, appCfg.Indexer.BlockSize)
	processor := indexer.NewProcessor(queueRepo, batch, logger.Logger)
	go processor.Run(ctx, appCfg.Indexer.Interval, appCfg.Indexer.RetryDelay)

	// ── Redis Streams Consumer ──
	var redisConsumer *consumer.Consumer
	consumerCfg := consumer.ConfigFromEnv()
	if consumerCfg.Enabled {
		eventHandler := consumer.NewIndexEventHandler(queueRepo, searchEngine, logger.Logger)
		redisConsumer, err = consumer.NewConsumer(consumerCfg, eventHandler, logger.Logger)
		if err != nil {
			logger.Logger.Error("Failed to create Redis Streams consumer", "err", err)
		} else {
			go func() {
				if err := redisConsumer.Start(ctx); err != nil && ctx.Err() == nil {
					logger.Logger.Error("Redis Streams consumer stopped", "err", err)
				}
			}()
			logger.Logger.Info("Redis Streams consumer started",
				"stream", consumerCfg.StreamKey,
				"group", consumerCfg.GroupName,
			)
		}
	} else {
		logger.Logger.Info("Redis Streams consumer disabled")
	}

	// ── HTTP server ──
	verifier := auth.NewVerifier(appCfg.Auth.Secret)
	app := &App{
		httpServer:    server.New(appCfg, searchEngine, verifier, logger.Logger),
		poolClose:     pool.Close,
		redisConsumer: redisConsumer,
		otelShutdown:  otelShutdown,
	}

	go func() {
		if err := app.httpServer.Start(); err != nil && err != http.ErrServerClosed {
			logger.Logger.Error("http", "err", err)
		}
	}()

	// ── Wait for shutdown signal ──
	<-ctx.Done()
	app.shutdown()
	return nil
}

// shutdown performs graceful shutdown of all components.
func (a *App) shutdown() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Logger.Error("http shutdown error", "err", err)
	}
	if a.redisConsumer != nil {
		if err := a.redisConsumer.Close(); err != nil {
			logger.Logger.Error("consumer close error", "err", err)
		}
	}
	if a.poolClose != nil {
		a.poolClose()
	}

	otelCtx, otelCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer otelCancel()
	if err := a.otelShutdown(otelCtx); err != nil {
		fmt.Printf("Failed to shutdown OpenTelemetry: %v\n", err)
	}
}
