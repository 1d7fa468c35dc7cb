package persistence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sromero1905/scrapping-link/internal/document"
	"github.com/sromero1905/scrapping-link/internal/domain"
	"github.com/sromero1905/scrapping-link/internal/ports"
)

const (
	defaultBatchSize  = 5
	defaultBatchPause = 500 * time.Millisecond
)

// Sink writes a whole batch to one destination and reports the outcome.
type Sink interface {
	ID() string
	Write(ctx context.Context, posts []domain.GeneratedPost, summary domain.Summary) domain.StorageResult
}

// RecordSink writes one record per post, then a summary record.
type RecordSink struct {
	store     ports.RecordStore
	batchSize int
	limiter   *rate.Limiter
}

// NewRecordSink paces batches of batchSize records pause apart.
func NewRecordSink(store ports.RecordStore, batchSize int, pause time.Duration) *RecordSink {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	if pause <= 0 {
		pause = defaultBatchPause
	}
	return &RecordSink{
		store:     store,
		batchSize: batchSize,
		limiter:   rate.NewLimiter(rate.Every(pause), 1),
	}
}

// ID names the sink after its record store.
func (s *RecordSink) ID() string { return s.store.Name() }

// Write succeeds when the summary record is stored and at least one post
// record is stored, or when there are no posts at all.
func (s *RecordSink) Write(ctx context.Context, posts []domain.GeneratedPost, summary domain.Summary) domain.StorageResult {
	result := domain.StorageResult{SinkID: s.ID()}

	for start := 0; start < len(posts); start += s.batchSize {
		if err := s.limiter.Wait(ctx); err != nil {
			result.ErrorDetail = fmt.Sprintf("batch pacing: %v", err)
			return result
		}
		end := min(start+s.batchSize, len(posts))
		s.writeBatch(ctx, posts[start:end], summary.Date, &result)
	}

	locator, err := s.store.SaveSummary(ctx, summary, len(posts))
	if err != nil {
		result.ErrorDetail = fmt.Sprintf("summary record: %v", err)
		return result
	}
	result.SummaryLocator = locator
	result.Locator = locator

	if len(posts) > 0 && result.Written == 0 {
		result.ErrorDetail = fmt.Sprintf("no record written out of %d", len(posts))
		return result
	}
	result.Succeeded = true
	return result
}

// writeBatch issues every record of the batch at once and merges the
// outcomes after all of them complete.
func (s *RecordSink) writeBatch(ctx context.Context, batch []domain.GeneratedPost, date time.Time, result *domain.StorageResult) {
	errs := make([]error, len(batch))
	var g errgroup.Group
	for i, post := range batch {
		i, post := i, post
		g.Go(func() error {
			errs[i] = s.store.SaveRecord(ctx, post, date)
			return nil
		})
	}
	_ = g.Wait()

	for i, err := range errs {
		if err != nil {
			result.RecordFailures = append(result.RecordFailures, domain.RecordFailure{Ordinal: batch[i].Ordinal, Error: err.Error()})
			continue
		}
		result.Written++
	}
}

// DocumentSink writes the posts document and the summary document.
type DocumentSink struct {
	store ports.DocumentStore
}

// NewDocumentSink wraps a document store as a sink.
func NewDocumentSink(store ports.DocumentStore) *DocumentSink {
	return &DocumentSink{store: store}
}

// ID names the sink after its document store.
func (s *DocumentSink) ID() string { return s.store.Name() }

// Write succeeds only when both documents are created.
func (s *DocumentSink) Write(ctx context.Context, posts []domain.GeneratedPost, summary domain.Summary) domain.StorageResult {
	result := domain.StorageResult{SinkID: s.ID()}
	var errs []error

	date := summary.Date
	if date.IsZero() {
		date = time.Now()
	}

	postsLocator, err := s.store.CreateDocument(ctx, document.Title(date), document.FormatPosts(posts, date))
	if err != nil {
		errs = append(errs, fmt.Errorf("posts document: %w", err))
	} else {
		result.Locator = postsLocator
		result.Written++
	}

	summaryLocator, err := s.store.CreateDocument(ctx, summary.Title, summary.Content)
	if err != nil {
		errs = append(errs, fmt.Errorf("summary document: %w", err))
	} else {
		result.SummaryLocator = summaryLocator
		result.Written++
	}

	if len(errs) > 0 {
		result.ErrorDetail = errorDetail(errs)
		return result
	}
	result.Succeeded = true
	return result
}

func errorDetail(errs []error) string {
	parts := make([]string, len(errs))
	for i, err := range errs {
		parts[i] = err.Error()
	}
	return strings.Join(parts, "; ")
}

var (
	_ Sink = (*RecordSink)(nil)
	_ Sink = (*DocumentSink)(nil)
)
