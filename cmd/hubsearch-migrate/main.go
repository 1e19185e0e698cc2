// Command hubsearch-migrate runs a full or partial index migration from the
// CMS database into the search engine.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/meilisearch/meilisearch-go"
	"github.com/spf13/cobra"

	"hubsearch/config"
	"hubsearch/content"
	"hubsearch/driver"
	"hubsearch/gateway"
	"hubsearch/indexer"
	"hubsearch/logger"
)

var (
	flagURL        string
	flagComponents string
	flagAll        bool
	flagRebuild    bool
	flagBlockSize  int
)

var rootCmd = &cobra.Command{
	Use:   "hubsearch-migrate",
	Short: "Migrate CMS content into the search index",
	Long: `Reads enabled content components from the CMS database and indexes
their records block by block. Without --components every enabled component
is migrated; components already marked as indexed are skipped unless
--rebuild is given. Database and engine settings come from the environment.`,
	RunE: runMigrate,
}

func init() {
	rootCmd.Flags().StringVar(&flagURL, "url", "", "site base URL used to build document paths (required)")
	rootCmd.Flags().StringVar(&flagComponents, "components", "", "comma-separated component names to migrate (default: all enabled)")
	rootCmd.Flags().BoolVar(&flagAll, "all", false, "include disabled components")
	rootCmd.Flags().BoolVar(&flagRebuild, "rebuild", false, "reindex components even if already indexed")
	rootCmd.Flags().IntVar(&flagBlockSize, "block-size", indexer.DefaultBlockSize, "rows per indexing block")
	_ = rootCmd.MarkFlagRequired("url")
}

// parseComponentNames splits a comma-separated component list, dropping empty
// entries.
func parseComponentNames(s string) []string {
	var names []string
	for _, name := range strings.Split(s, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Init()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	names := parseComponentNames(flagComponents)

	pool, err := pgxpool.New(ctx, cfg.Database.DatabaseURL())
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	msClient := meilisearch.New(cfg.Engine.Host,
		meilisearch.WithAPIKey(cfg.Engine.APIKey),
		meilisearch.WithCustomClient(&http.Client{Timeout: cfg.Engine.Timeout}),
	)
	if _, err := msClient.Health(); err != nil {
		return fmt.Errorf("search engine unavailable: %w", err)
	}

	dbDriver := driver.NewDatabaseDriver(pool)
	if err := dbDriver.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate queue tables: %w", err)
	}

	queueRepo := gateway.NewQueueRepositoryGateway(dbDriver)
	searchEngine := gateway.NewSearchEngineGateway(driver.NewMeilisearchDriver(msClient, cfg.Engine.Index))
	if err := searchEngine.EnsureIndex(ctx); err != nil {
		return fmt.Errorf("ensure index: %w", err)
	}

	registry := indexer.NewRegistry()
	articles := content.NewArticleSource(pool, flagURL)
	registry.Register(content.SubjectArticle, indexer.Searchable{
		Source: articles,
		Mapper: articles,
		Paths:  articles,
		Perms:  articles,
		Extra:  articles,
	})

	batch := indexer.NewBatchIndexer(registry, searchEngine, logger.Logger, flagBlockSize)
	migrator := indexer.NewMigrator(queueRepo, batch, cmd.OutOrStdout())

	return migrator.Run(ctx, names, flagAll, flagRebuild)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
