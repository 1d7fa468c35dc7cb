package ports

import (
	"context"
	"time"

	"github.com/sromero1905/scrapping-link/internal/domain"
)

// Crawler captures raw items from every configured site.
// A failing site must not abort the others.
type Crawler interface {
	ScrapeAll(ctx context.Context) ([]domain.RawItem, error)
	Close() error
}

// Oracle is an opaque text-completion service.
type Oracle interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// ImageFinder supplies ranked image candidates for a post.
type ImageFinder interface {
	FindCandidates(ctx context.Context, query string, category domain.Category, maxResults int) []domain.ImageCandidate
}

// RecordStore persists each post as a separate structured record.
type RecordStore interface {
	Name() string
	SaveRecord(ctx context.Context, post domain.GeneratedPost, date time.Time) error
	SaveSummary(ctx context.Context, summary domain.Summary, postCount int) (string, error)
}

// DocumentStore persists whole documents and returns their locator.
type DocumentStore interface {
	Name() string
	CreateDocument(ctx context.Context, title, content string) (string, error)
}

// EmergencyWriter serialises posts and summary to the local filesystem.
type EmergencyWriter interface {
	WriteFiles(ctx context.Context, posts []domain.GeneratedPost, summary domain.Summary) (domain.EmergencyFiles, error)
}

// Notifier streams the run report to an outbound channel such as Telegram.
type Notifier interface {
	PublishReport(ctx context.Context, report string) error
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
