package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/sromero1905/scrapping-link/internal/assembly"
	"github.com/sromero1905/scrapping-link/internal/domain"
	"github.com/sromero1905/scrapping-link/internal/metrics"
	"github.com/sromero1905/scrapping-link/internal/ports"
	"github.com/sromero1905/scrapping-link/internal/qualitygate"
	"github.com/sromero1905/scrapping-link/internal/runreport"
)

const defaultImageConcurrency = 4

// Curator filters raw items and generates the post batch.
type Curator interface {
	FilterRelevant(ctx context.Context, raw []domain.RawItem) []domain.CuratedItem
	Generate(ctx context.Context, curated []domain.CuratedItem, dist assembly.Distribution) ([]domain.GeneratedPost, error)
}

// ImageGate decides the final image of one post.
type ImageGate interface {
	Decide(ctx context.Context, post domain.GeneratedPost, original *domain.ImageCandidate) qualitygate.Result
}

// Persister writes the batch to every sink.
type Persister interface {
	Persist(ctx context.Context, posts []domain.GeneratedPost, summary domain.Summary) (domain.PersistenceOutcome, error)
}

var (
	_ Curator   = (*assembly.Assembler)(nil)
	_ ImageGate = (*qualitygate.Gate)(nil)
)

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Crawler      ports.Crawler
	Curator      Curator
	Gate         ImageGate
	Persister    Persister
	Notifier     ports.Notifier
	Distribution assembly.Distribution
	// ImageConcurrency bounds how many posts go through the gate at once.
	ImageConcurrency int
	Metrics          *metrics.Metrics
	PushgatewayURL   string
	MetricsJob       string
	Logger           *slog.Logger
}

// Pipeline implements the scrape, curate, illustrate and persist workflow.
type Pipeline struct {
	crawler     ports.Crawler
	curator     Curator
	gate        ImageGate
	persister   Persister
	notifier    ports.Notifier
	dist        assembly.Distribution
	concurrency int
	metrics     *metrics.Metrics
	pushURL     string
	metricsJob  string
	now         func() time.Time
	logger      *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	if deps.ImageConcurrency <= 0 {
		deps.ImageConcurrency = defaultImageConcurrency
	}
	if len(deps.Distribution) == 0 {
		deps.Distribution = assembly.ProductionDistribution
	}
	return &Pipeline{
		crawler:     deps.Crawler,
		curator:     deps.Curator,
		gate:        deps.Gate,
		persister:   deps.Persister,
		notifier:    deps.Notifier,
		dist:        deps.Distribution,
		concurrency: deps.ImageConcurrency,
		metrics:     deps.Metrics,
		pushURL:     deps.PushgatewayURL,
		metricsJob:  deps.MetricsJob,
		now:         time.Now,
		logger:      deps.Logger,
	}
}

// Run executes one full pass. The returned error is non-nil only when
// generation or persistence is exhausted; everything else lands in the
// report's error list.
func (p *Pipeline) Run(ctx context.Context) (Report, error) {
	if p.crawler == nil || p.curator == nil || p.persister == nil {
		return Report{}, fmt.Errorf("pipeline is not fully configured")
	}

	collector := runreport.NewCollector()
	ctx = runreport.WithCollector(ctx, collector)

	report := Report{RunID: uuid.NewString(), StartedAt: p.now()}
	p.info("run started", "run_id", report.RunID, "distribution", p.dist.String())

	raw, err := p.crawler.ScrapeAll(ctx)
	if err != nil {
		runreport.Record(ctx, runreport.PhaseScraping, err)
	}
	report.Scraped = len(raw)
	p.info("scraping finished", "items", len(raw))

	curated := p.curator.FilterRelevant(ctx, raw)
	report.Curated = len(curated)

	posts, err := p.curator.Generate(ctx, curated, p.dist)
	if err != nil {
		return p.finish(ctx, report, collector, fmt.Errorf("generate posts: %w", err))
	}
	report.Generated = len(posts)

	p.attachImages(ctx, posts, curated)
	report.WithImage, report.ImageSources = imageStats(posts)
	p.info("image phase finished",
		"with_image", report.WithImage,
		"without_image", len(posts)-report.WithImage,
		"sources", report.ImageSources)

	summary := assembly.Summarize(curated, posts, report.StartedAt)

	outcome, err := p.persister.Persist(ctx, posts, summary)
	report.Persistence = outcome
	if err != nil {
		return p.finish(ctx, report, collector, fmt.Errorf("persist: %w", err))
	}

	return p.finish(ctx, report, collector, nil)
}

// attachImages runs the gate for every post on a bounded pool. Each worker
// only writes its own post's slot.
func (p *Pipeline) attachImages(ctx context.Context, posts []domain.GeneratedPost, curated []domain.CuratedItem) {
	if p.gate == nil {
		return
	}

	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for i := range posts {
		i := i
		g.Go(func() error {
			original := assembly.OriginalImageFor(posts[i], curated)
			result := p.gate.Decide(ctx, posts[i], original)
			posts[i].FinalImage = result.Final
			p.debug("gate decided", "post", posts[i].Ordinal, "outcome", result.Outcome())
			return nil
		})
	}
	_ = g.Wait()
}

func imageStats(posts []domain.GeneratedPost) (int, map[string]int) {
	sources := map[string]int{}
	with := 0
	for _, post := range posts {
		if !post.HasImage() {
			continue
		}
		with++
		sources[post.FinalImage.Provider]++
	}
	return with, sources
}

func (p *Pipeline) finish(ctx context.Context, report Report, collector *runreport.Collector, failure error) (Report, error) {
	report.Failure = failure
	report.Duration = p.now().Sub(report.StartedAt)

	p.metrics.RunFinished(report.Generated, collector.Len(), report.Duration)
	if p.pushURL != "" {
		if err := p.metrics.Push(ctx, p.pushURL, p.metricsJob); err != nil {
			runreport.Record(ctx, runreport.PhaseNotification, err)
		}
	}
	if p.notifier != nil {
		report.Errors = collector.Entries()
		if err := p.notifier.PublishReport(ctx, report.Message()); err != nil {
			runreport.Record(ctx, runreport.PhaseNotification, fmt.Errorf("publish report: %w", err))
		}
	}
	report.Errors = collector.Entries()

	if failure != nil {
		p.logError("run failed", "run_id", report.RunID, "error", failure, "errors", len(report.Errors))
	} else {
		p.info("run finished", "run_id", report.RunID, "duration", report.Duration, "errors", len(report.Errors))
	}
	return report, failure
}

func (p *Pipeline) debug(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}

func (p *Pipeline) info(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}

func (p *Pipeline) logError(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Error(msg, args...)
	}
}
