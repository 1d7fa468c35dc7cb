package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/sromero1905/scrapping-link/internal/assembly"
	"github.com/sromero1905/scrapping-link/internal/domain"
	"github.com/sromero1905/scrapping-link/internal/persistence"
	"github.com/sromero1905/scrapping-link/internal/qualitygate"
	"github.com/sromero1905/scrapping-link/internal/runreport"
)

type fakeCrawler struct {
	items []domain.RawItem
	err   error
}

func (f *fakeCrawler) ScrapeAll(ctx context.Context) ([]domain.RawItem, error) {
	runreport.Record(ctx, runreport.PhaseScraping, errors.New("wired: 503"))
	return f.items, f.err
}

func (f *fakeCrawler) Close() error { return nil }

type fakeCurator struct {
	posts   []domain.GeneratedPost
	genErr  error
	gotDist assembly.Distribution
}

func (f *fakeCurator) FilterRelevant(_ context.Context, raw []domain.RawItem) []domain.CuratedItem {
	out := make([]domain.CuratedItem, len(raw))
	for i, item := range raw {
		out[i] = domain.CuratedItem{Item: item, OriginalIndex: i}
	}
	return out
}

func (f *fakeCurator) Generate(_ context.Context, _ []domain.CuratedItem, dist assembly.Distribution) ([]domain.GeneratedPost, error) {
	f.gotDist = dist
	if f.genErr != nil {
		return nil, f.genErr
	}
	out := make([]domain.GeneratedPost, len(f.posts))
	copy(out, f.posts)
	return out, nil
}

type fakeGate struct {
	mu        sync.Mutex
	originals map[int]*domain.ImageCandidate
}

func (f *fakeGate) Decide(_ context.Context, post domain.GeneratedPost, original *domain.ImageCandidate) qualitygate.Result {
	f.mu.Lock()
	f.originals[post.Ordinal] = original
	f.mu.Unlock()

	switch {
	case original != nil:
		return qualitygate.Result{Final: original}
	case post.Ordinal == 2:
		return qualitygate.Result{Final: &domain.ImageCandidate{URL: "https://images.example/2.jpg", Provider: "pexels"}}
	default:
		return qualitygate.Result{}
	}
}

type fakePersister struct {
	outcome domain.PersistenceOutcome
	err     error
	called  bool
	posts   []domain.GeneratedPost
}

func (f *fakePersister) Persist(_ context.Context, posts []domain.GeneratedPost, _ domain.Summary) (domain.PersistenceOutcome, error) {
	f.called = true
	f.posts = posts
	return f.outcome, f.err
}

type fakeNotifier struct {
	messages []string
	err      error
}

func (f *fakeNotifier) PublishReport(_ context.Context, report string) error {
	f.messages = append(f.messages, report)
	return f.err
}

func sampleRaw() []domain.RawItem {
	return []domain.RawItem{
		{
			SourceID:      "TechCrunch",
			Title:         "OpenAI ships a model",
			URL:           "https://techcrunch.com/a",
			OriginalImage: &domain.ImageCandidate{URL: "https://techcrunch.com/a.jpg", Provider: domain.ProviderOriginal},
		},
		{SourceID: "The Verge", Title: "Cloud outage", URL: "https://theverge.com/b"},
	}
}

func samplePosts() []domain.GeneratedPost {
	return []domain.GeneratedPost{
		{Ordinal: 1, Category: domain.CategoryInformational, SourceRef: "https://techcrunch.com/a", Body: "Big model day."},
		{Ordinal: 2, Category: domain.CategoryOpinion, SourceRef: "https://theverge.com/b", Body: "Clouds fail."},
		{Ordinal: 3, Category: domain.CategoryHumor, SourceRef: "https://theverge.com/b", Body: "Have you tried turning it off."},
	}
}

func TestPipelineRun(t *testing.T) {
	t.Parallel()

	curator := &fakeCurator{posts: samplePosts()}
	gate := &fakeGate{originals: map[int]*domain.ImageCandidate{}}
	persister := &fakePersister{outcome: domain.PersistenceOutcome{Results: []domain.StorageResult{
		{SinkID: "notion", Succeeded: true, Written: 3, Locator: "https://notion.so/db", SummaryLocator: "https://notion.so/db"},
		{SinkID: "gist", Succeeded: true, Locator: "https://gist.github.com/p", SummaryLocator: "https://gist.github.com/s"},
	}}}
	notifier := &fakeNotifier{}

	p := NewPipeline(PipelineDeps{
		Crawler:          &fakeCrawler{items: sampleRaw()},
		Curator:          curator,
		Gate:             gate,
		Persister:        persister,
		Notifier:         notifier,
		Distribution:     assembly.TestingDistribution,
		ImageConcurrency: 2,
	})
	start := time.Date(2025, time.November, 8, 6, 0, 0, 0, time.UTC)
	clock := []time.Time{start, start.Add(90 * time.Second)}
	p.now = func() time.Time {
		now := clock[0]
		if len(clock) > 1 {
			clock = clock[1:]
		}
		return now
	}

	report, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}

	if report.RunID == "" || report.Duration != 90*time.Second {
		t.Fatalf("unexpected run identity: %q %v", report.RunID, report.Duration)
	}
	if report.Scraped != 2 || report.Curated != 2 || report.Generated != 3 || report.WithImage != 2 {
		t.Fatalf("unexpected counts: %+v", report)
	}
	if diff := cmp.Diff(map[string]int{domain.ProviderOriginal: 1, "pexels": 1}, report.ImageSources); diff != "" {
		t.Fatalf("unexpected image sources (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(assembly.TestingDistribution, curator.gotDist); diff != "" {
		t.Fatalf("unexpected distribution (-want +got):\n%s", diff)
	}
	if gate.originals[1] == nil || gate.originals[2] != nil {
		t.Fatalf("only the post traced to TechCrunch should receive the original image, got %v", gate.originals)
	}
	if !persister.called || persister.posts[1].FinalImage == nil || persister.posts[2].FinalImage != nil {
		t.Fatalf("expected gate results to reach persistence")
	}
	if report.DocumentsCreated() != 3 {
		t.Fatalf("expected 3 documents, got %d", report.DocumentsCreated())
	}

	if len(report.Errors) != 1 || report.Errors[0].Phase != runreport.PhaseScraping {
		t.Fatalf("expected the crawler error in the report, got %+v", report.Errors)
	}
	if len(notifier.messages) != 1 || !strings.Contains(notifier.messages[0], "GENERATED_POSTS=3") {
		t.Fatalf("expected one notification with the summary lines, got %q", notifier.messages)
	}
}

func TestPipelineGenerationExhausted(t *testing.T) {
	t.Parallel()

	persister := &fakePersister{}
	notifier := &fakeNotifier{}
	p := NewPipeline(PipelineDeps{
		Crawler:   &fakeCrawler{items: sampleRaw()},
		Curator:   &fakeCurator{genErr: fmt.Errorf("3 attempts: %w", assembly.ErrGenerationExhausted)},
		Persister: persister,
		Notifier:  notifier,
	})

	report, err := p.Run(context.Background())
	if !errors.Is(err, assembly.ErrGenerationExhausted) {
		t.Fatalf("expected generation exhaustion, got %v", err)
	}
	if persister.called {
		t.Fatalf("persistence must not run after a generation failure")
	}
	if report.Succeeded() || len(notifier.messages) != 1 || !strings.Contains(notifier.messages[0], "FAILED") {
		t.Fatalf("expected a failure report to be published, got %q", notifier.messages)
	}
}

func TestPipelinePersistenceExhausted(t *testing.T) {
	t.Parallel()

	p := NewPipeline(PipelineDeps{
		Crawler:   &fakeCrawler{items: sampleRaw()},
		Curator:   &fakeCurator{posts: samplePosts()},
		Persister: &fakePersister{err: persistence.ErrPersistenceExhausted},
	})

	report, err := p.Run(context.Background())
	if !errors.Is(err, persistence.ErrPersistenceExhausted) {
		t.Fatalf("expected persistence exhaustion, got %v", err)
	}
	if report.Generated != 3 || report.WithImage != 0 {
		t.Fatalf("expected posts without a gate to stay imageless, got %+v", report)
	}
}

func TestPipelineNotifierFailureIsRecorded(t *testing.T) {
	t.Parallel()

	p := NewPipeline(PipelineDeps{
		Crawler:   &fakeCrawler{},
		Curator:   &fakeCurator{posts: samplePosts()[:1]},
		Persister: &fakePersister{outcome: domain.PersistenceOutcome{Results: []domain.StorageResult{{SinkID: "gist", Succeeded: true}}}},
		Notifier:  &fakeNotifier{err: errors.New("telegram down")},
	})

	report, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("a notifier failure must not fail the run: %v", err)
	}
	if got := report.ErrorsByPhase()[runreport.PhaseNotification]; got != 1 {
		t.Fatalf("expected one notification error, got %d", got)
	}
}

func TestPipelineRequiresCollaborators(t *testing.T) {
	t.Parallel()

	if _, err := NewPipeline(PipelineDeps{}).Run(context.Background()); err == nil {
		t.Fatalf("expected a configuration error")
	}
}

func TestReportRender(t *testing.T) {
	t.Parallel()

	report := Report{
		RunID:     "run-1",
		StartedAt: time.Date(2025, time.November, 8, 6, 0, 0, 0, time.UTC),
		Duration:  2500 * time.Millisecond,
		Scraped:   12,
		Generated: 10,
		Persistence: domain.PersistenceOutcome{
			Results:               []domain.StorageResult{{SinkID: "notion", ErrorDetail: "401"}},
			UsedEmergencyFallback: true,
			Emergency:             &domain.EmergencyFiles{PostsPath: "fallback/posts.md", SummaryPath: "fallback/summary.md"},
		},
		Errors: []runreport.Entry{{Phase: runreport.PhaseStorage, Message: "notion: 401"}},
	}

	var buf bytes.Buffer
	if err := report.Render(&buf); err != nil {
		t.Fatalf("Render error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"SCRAPED_ARTICLES=12\n",
		"GENERATED_POSTS=10\n",
		"CREATED_DOCUMENTS=2\n",
		"TOTAL_ERRORS=1\n",
		"EXECUTION_TIME=2.5s\n",
		"notion: 401",
		"fallback/posts.md",
		"OK (emergency fallback)",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("rendered report misses %q:\n%s", want, out)
		}
	}
}

type immediateDriver struct {
	stopped bool
}

func (d *immediateDriver) Start(_ context.Context, job func(time.Time)) error {
	job(time.Now())
	return nil
}

func (d *immediateDriver) Stop(context.Context) error {
	d.stopped = true
	return nil
}

func TestSchedulerRunsPipeline(t *testing.T) {
	t.Parallel()

	p := NewPipeline(PipelineDeps{
		Crawler:   &fakeCrawler{items: sampleRaw()},
		Curator:   &fakeCurator{posts: samplePosts()},
		Persister: &fakePersister{outcome: domain.PersistenceOutcome{Results: []domain.StorageResult{{SinkID: "gist", Succeeded: true}}}},
	})

	var seen []Report
	driver := &immediateDriver{}
	s := NewScheduler(driver, p, nil, func(r Report) { seen = append(seen, r) })

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	last, ok := s.LastReport()
	if !ok || last.Generated != 3 || len(seen) != 1 {
		t.Fatalf("expected one scheduled report, got %+v (%d callbacks)", last, len(seen))
	}
	if err := s.Stop(context.Background()); err != nil || !driver.stopped {
		t.Fatalf("expected the driver to stop, err=%v", err)
	}
}
