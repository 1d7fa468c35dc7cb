package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sromero1905/scrapping-link/internal/assembly"
	"github.com/sromero1905/scrapping-link/internal/config"
	"github.com/sromero1905/scrapping-link/internal/domain"
	"github.com/sromero1905/scrapping-link/internal/imagesearch"
	"github.com/sromero1905/scrapping-link/internal/infrastructure/gist"
	"github.com/sromero1905/scrapping-link/internal/infrastructure/images"
	"github.com/sromero1905/scrapping-link/internal/infrastructure/llm"
	"github.com/sromero1905/scrapping-link/internal/infrastructure/localfs"
	"github.com/sromero1905/scrapping-link/internal/infrastructure/notion"
	"github.com/sromero1905/scrapping-link/internal/infrastructure/parser"
	"github.com/sromero1905/scrapping-link/internal/infrastructure/scheduler"
	"github.com/sromero1905/scrapping-link/internal/infrastructure/storage"
	"github.com/sromero1905/scrapping-link/internal/infrastructure/telegram"
	"github.com/sromero1905/scrapping-link/internal/logging"
	"github.com/sromero1905/scrapping-link/internal/metrics"
	"github.com/sromero1905/scrapping-link/internal/persistence"
	"github.com/sromero1905/scrapping-link/internal/ports"
	"github.com/sromero1905/scrapping-link/internal/qualitygate"
	"github.com/sromero1905/scrapping-link/internal/runreport"
	"github.com/sromero1905/scrapping-link/internal/scanner"
	"github.com/sromero1905/scrapping-link/internal/usecase"
)

const shutdownTimeout = 30 * time.Second

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	crawler  ports.Crawler
	finder   ports.ImageFinder
	pipeline *usecase.Pipeline
	closers  []io.Closer
}

// New builds the application. Optional backends (Redis, Postgres) are
// connected here, so New fails fast when they are configured but unreachable.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}
	a := &Application{cfg: cfg, logger: baseLogger}
	m := metrics.New()

	oracle, err := newOracle(cfg.Oracle)
	if err != nil {
		return nil, err
	}

	a.crawler = newCrawler(cfg, baseLogger)
	a.closers = append(a.closers, a.crawler)

	cache, err := a.newCache(ctx, cfg.Images)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.finder = imagesearch.New(
		imagesearch.NewRegistry(
			images.NewUnsplash(cfg.Images.Unsplash),
			images.NewPexels(cfg.Images.Pexels),
			images.NewPixabay(cfg.Images.Pixabay),
		),
		imagesearch.Options{
			Cache:           cache,
			CacheTTL:        cfg.Images.Cache.TTL,
			ProviderTimeout: cfg.Images.ProviderTimeout,
			Metrics:         m,
			Logger:          logging.Component(baseLogger, "images"),
		},
	)

	profile, err := gateProfile(cfg)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	gate := qualitygate.New(oracle, a.finder, qualitygate.Options{
		Profile:     profile,
		CallTimeout: cfg.Oracle.CallTimeout,
		Metrics:     m,
		Logger:      logging.Component(baseLogger, "gate"),
	})

	curator := assembly.New(oracle, assembly.Options{
		Retries:          cfg.Generation.Retries,
		BaseDelay:        cfg.Generation.BaseDelay,
		FilterTokens:     cfg.Generation.FilterTokens,
		GenerationTokens: cfg.Generation.GenerationTokens,
		CallTimeout:      cfg.Oracle.CallTimeout,
		Logger:           logging.Component(baseLogger, "assembly"),
	})

	sinks, err := a.newSinks(ctx, cfg.Storage)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	coordinator := persistence.NewCoordinator(sinks, localfs.NewWriter(cfg.Storage.FallbackDir), persistence.Options{
		SinkTimeout: cfg.Storage.SinkTimeout,
		Metrics:     m,
		Logger:      logging.Component(baseLogger, "persistence"),
	})

	var notifier ports.Notifier
	if cfg.Notifications.Telegram.Enabled() {
		notifier = telegram.NewNotifier(cfg.Notifications.Telegram)
	}

	a.pipeline = usecase.NewPipeline(usecase.PipelineDeps{
		Crawler:          a.crawler,
		Curator:          curator,
		Gate:             gate,
		Persister:        coordinator,
		Notifier:         notifier,
		Distribution:     distribution(cfg),
		ImageConcurrency: cfg.Images.Concurrency,
		Metrics:          m,
		PushgatewayURL:   cfg.Metrics.PushgatewayURL,
		MetricsJob:       cfg.Metrics.Job,
		Logger:           logging.Component(baseLogger, "pipeline"),
	})
	return a, nil
}

func newOracle(cfg config.OracleConfig) (ports.Oracle, error) {
	switch cfg.Provider {
	case config.OracleAnthropic, "":
		return llm.NewAnthropicOracle(cfg.Anthropic, cfg.CallTimeout), nil
	case config.OracleOpenAI:
		return llm.NewChatCompletionOracle(cfg.OpenAI, cfg.CallTimeout), nil
	default:
		return nil, fmt.Errorf("unknown oracle provider %q", cfg.Provider)
	}
}

func newCrawler(cfg config.Config, logger *slog.Logger) *parser.StrategySource {
	client := &http.Client{Timeout: cfg.Crawler.Timeout}
	httpFetcher := parser.NewHTTPFetcher(client, cfg.Crawler.UserAgent)

	registry := scanner.NewRegistry(
		parser.NewSiteScanner(config.ScannerHTML, httpFetcher, logging.Component(logger, "scanner.html")),
		parser.NewFeedScanner(httpFetcher, logging.Component(logger, "scanner.feed")),
		parser.NewSiteScanner(config.ScannerBrowser,
			parser.NewBrowserFetcher(cfg.Crawler.Timeout, cfg.Crawler.UserAgent),
			logging.Component(logger, "scanner.browser")),
	)
	return parser.NewStrategySource(registry, cfg.Sites, cfg.Crawler.MaxArticles, logging.Component(logger, "crawler"))
}

func (a *Application) newCache(ctx context.Context, cfg config.ImagesConfig) (imagesearch.Cache, error) {
	if cfg.Cache.Backend != config.CacheRedis {
		return imagesearch.NewMemoryCache(), nil
	}
	client, err := imagesearch.DialRedis(ctx, cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, fmt.Errorf("image cache: %w", err)
	}
	a.closers = append(a.closers, client)
	return imagesearch.NewRedisCache(client, logging.Component(a.logger, "cache")), nil
}

// newSinks builds every sink that has credentials. Notion and Postgres are
// record stores, Gist is a document store.
func (a *Application) newSinks(ctx context.Context, cfg config.StorageConfig) ([]persistence.Sink, error) {
	var sinks []persistence.Sink

	if cfg.Notion.Enabled() {
		sinks = append(sinks, persistence.NewRecordSink(notion.NewStore(cfg.Notion), cfg.BatchSize, cfg.BatchPause))
	}

	if cfg.Postgres.DSN != "" {
		db, err := a.openPostgres(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, persistence.NewRecordSink(storage.NewPostgresStore(db), cfg.BatchSize, cfg.BatchPause))
	}

	if cfg.Gist.Token != "" {
		store, err := gist.NewStore(cfg.Gist)
		if err != nil {
			return nil, fmt.Errorf("gist sink: %w", err)
		}
		sinks = append(sinks, persistence.NewDocumentSink(store))
	}

	if len(sinks) == 0 {
		a.logger.Warn("no remote sink configured, posts go to the emergency directory", "dir", cfg.FallbackDir)
	}
	return sinks, nil
}

func (a *Application) openPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := storage.Open(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres sink: %w", err)
	}
	a.closers = append(a.closers, db)

	version, err := storage.Migrate(db)
	if err != nil {
		return nil, fmt.Errorf("postgres sink: %w", err)
	}
	a.logger.Info("postgres schema ready", "version", version)
	return db, nil
}

func gateProfile(cfg config.Config) (qualitygate.Profile, error) {
	profile, err := qualitygate.ProfileByName(cfg.Profile)
	if err != nil {
		return qualitygate.Profile{}, err
	}
	if cfg.Gate.OriginalApprovalScore > 0 {
		profile.OriginalApprovalScore = cfg.Gate.OriginalApprovalScore
	}
	if cfg.Gate.MaxCandidates > 0 {
		profile.MaxCandidates = cfg.Gate.MaxCandidates
	}
	return profile, nil
}

// distribution starts from the profile's counts and applies per-category overrides.
func distribution(cfg config.Config) assembly.Distribution {
	base := assembly.ProductionDistribution
	if cfg.IsTesting() {
		base = assembly.TestingDistribution
	}
	dist := make(assembly.Distribution, len(base))
	for c, n := range base {
		dist[c] = n
	}
	for label, n := range cfg.Generation.Distribution {
		if c, ok := domain.ParseCategory(label); ok {
			dist[c] = n
		}
	}
	return dist
}

// Run performs a single pipeline execution.
func (a *Application) Run(ctx context.Context) (usecase.Report, error) {
	return a.pipeline.Run(ctx)
}

// Schedule runs the pipeline on the configured cron expression until ctx is done.
func (a *Application) Schedule(ctx context.Context, onReport func(usecase.Report)) error {
	driver := scheduler.NewCronScheduler(
		a.cfg.Scheduler.CronExpression,
		a.cfg.Scheduler.Location(),
		logging.Component(a.logger, "scheduler"),
	)
	s := usecase.NewScheduler(driver, a.pipeline, logging.Component(a.logger, "scheduler"), onReport)
	if err := s.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.Stop(stopCtx)
}

// Images queries the aggregator directly.
func (a *Application) Images(ctx context.Context, query string, category domain.Category, maxResults int) []domain.ImageCandidate {
	return a.finder.FindCandidates(ctx, query, category, maxResults)
}

// Scrape runs the crawler only. Per-site failures are returned alongside the items.
func (a *Application) Scrape(ctx context.Context) ([]domain.RawItem, []runreport.Entry, error) {
	collector := runreport.NewCollector()
	items, err := a.crawler.ScrapeAll(runreport.WithCollector(ctx, collector))
	return items, collector.Entries(), err
}

// Close releases the browser, cache and database connections.
func (a *Application) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
