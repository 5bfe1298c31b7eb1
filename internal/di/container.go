// Package di wires the advisor's services together.
package di

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/advisor/internal/clientdata"
	anthropicclient "github.com/aristath/advisor/internal/clients/anthropic"
	speechclient "github.com/aristath/advisor/internal/clients/speech"
	"github.com/aristath/advisor/internal/clients/yahoo"
	"github.com/aristath/advisor/internal/config"
	"github.com/aristath/advisor/internal/database"
	"github.com/aristath/advisor/internal/domain"
	"github.com/aristath/advisor/internal/intent"
	"github.com/aristath/advisor/internal/portfolio"
	"github.com/aristath/advisor/internal/quotes"
	"github.com/aristath/advisor/internal/router"
	"github.com/aristath/advisor/internal/scheduler"
	"github.com/aristath/advisor/internal/server"
)

// Container holds every wired service. Fields are populated once during
// Initialize and read-only afterwards.
type Container struct {
	Config *config.Config
	Log    zerolog.Logger

	CacheDB   *database.DB
	CacheRepo *clientdata.Repository

	YahooClient    *yahoo.Client
	LanguageClient domain.LanguageClient
	SpeechClient   domain.SpeechClient

	QuoteCache   *quotes.Cache
	QuoteService *quotes.Service
	Aggregator   *portfolio.Aggregator
	Classifier   *intent.Classifier
	Router       *router.Router

	Scheduler *scheduler.Scheduler
	Handlers  *server.Handlers
}

// Initialize builds the full service graph. Optional collaborators (language
// model, speech service) are only wired when their credentials are present.
func Initialize(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	c := &Container{Config: cfg, Log: log}

	cacheDB, err := database.New(database.Config{
		Path: cfg.DataDir + "/cache.db",
		Name: "cache",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cache database: %w", err)
	}
	c.CacheDB = cacheDB

	c.CacheRepo = clientdata.NewRepository(cacheDB.Conn())
	if err := c.CacheRepo.EnsureSchema(); err != nil {
		cacheDB.Close()
		return nil, fmt.Errorf("failed to ensure cache schema: %w", err)
	}
	log.Debug().Str("database", cacheDB.Name()).Str("path", cacheDB.Path()).Msg("Cache database ready")

	c.YahooClient = yahoo.NewClient(c.CacheRepo, log)

	if cfg.AnthropicAPIKey != "" {
		c.LanguageClient = anthropicclient.NewClient(cfg.AnthropicAPIKey, cfg.AnthropicModel, log)
	} else {
		log.Warn().Msg("No Anthropic API key configured, narratives degrade to fallbacks")
	}

	if cfg.SpeechServiceURL != "" {
		c.SpeechClient = speechclient.NewClient(cfg.SpeechServiceURL, cfg.SpeechAPIKey, log)
	}

	c.QuoteCache = quotes.NewCache(c.YahooClient, cfg.QuoteCacheTTL, log)
	c.QuoteService = quotes.NewService(c.QuoteCache, c.YahooClient, c.YahooClient, quotes.ServiceConfig{
		AllocationPct:         cfg.AsiaTechAllocationPct,
		PreviousAllocationPct: cfg.AsiaTechPreviousPct,
		SurpriseThresholdPct:  cfg.SurpriseThresholdPct,
	}, log)

	c.Aggregator = portfolio.NewAggregator(c.QuoteService, portfolio.Config{
		BenchmarkSymbol: cfg.BenchmarkSymbol,
		RiskFreeRate:    cfg.RiskFreeRate,
		BriefRegion:     cfg.BriefRegion,
		BriefSector:     cfg.BriefSector,
	}, log)

	c.Classifier = intent.NewClassifier(c.LanguageClient, log)
	c.Router = router.NewRouter(c.QuoteService, c.Aggregator, c.LanguageClient, log)

	c.Scheduler = scheduler.New(log)

	c.Handlers = server.NewHandlers(
		c.Classifier,
		c.Router,
		c.QuoteService,
		c.Aggregator,
		c.LanguageClient,
		c.SpeechClient,
		log,
	)

	return c, nil
}

// StartJobs registers and starts the background jobs.
func (c *Container) StartJobs(ctx context.Context) error {
	tracked := make([]string, 0, len(quotes.AsiaTechTickers)+1)
	tracked = append(tracked, quotes.AsiaTechTickers...)
	tracked = append(tracked, c.Config.BenchmarkSymbol)

	refresh := scheduler.NewRefreshJob(ctx, c.QuoteCache, tracked, c.Config.RefreshInterval, c.Log)
	if err := c.Scheduler.AddJob("@hourly", refresh); err != nil {
		return fmt.Errorf("failed to register refresh job: %w", err)
	}

	cleanup := NewCacheCleanupJob(c.CacheRepo, c.Log)
	if err := c.Scheduler.AddJob("@every 6h", cleanup); err != nil {
		return fmt.Errorf("failed to register cleanup job: %w", err)
	}

	c.Scheduler.Start()

	// Warm the tracked series right away instead of waiting for the first
	// hourly tick.
	go func() {
		if err := c.Scheduler.RunNow(refresh); err != nil {
			c.Log.Warn().Err(err).Msg("Initial series warm-up failed")
		}
	}()

	return nil
}

// Close releases the container's resources in reverse dependency order.
func (c *Container) Close() {
	if c.Scheduler != nil {
		c.Scheduler.Stop()
	}
	if c.CacheDB != nil {
		if err := c.CacheDB.Close(); err != nil {
			c.Log.Error().Err(err).Msg("Failed to close cache database")
		}
	}
}

// CacheCleanupJob drops expired rows from the on-disk cache.
type CacheCleanupJob struct {
	repo *clientdata.Repository
	log  zerolog.Logger
}

// NewCacheCleanupJob creates the cleanup job.
func NewCacheCleanupJob(repo *clientdata.Repository, log zerolog.Logger) *CacheCleanupJob {
	return &CacheCleanupJob{repo: repo, log: log.With().Str("job", "cache_cleanup").Logger()}
}

// Name implements scheduler.Job.
func (j *CacheCleanupJob) Name() string { return "cache_cleanup" }

// Run implements scheduler.Job.
func (j *CacheCleanupJob) Run() error {
	start := time.Now()
	deleted, err := j.repo.DeleteAllExpired()
	if err != nil {
		return err
	}

	total := int64(0)
	for _, n := range deleted {
		total += n
	}
	j.log.Info().Int64("deleted", total).Dur("duration", time.Since(start)).Msg("Cache cleanup complete")
	return nil
}
