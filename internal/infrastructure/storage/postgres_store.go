package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/sromero1905/scrapping-link/internal/domain"
	"github.com/sromero1905/scrapping-link/internal/ports"
)

const (
	postsTable     = "posts"
	summariesTable = "summaries"
	dateLayout     = "2006-01-02"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PostgresStore persists posts and summaries into Postgres.
type PostgresStore struct {
	db *sql.DB
}

var _ ports.RecordStore = (*PostgresStore)(nil)

// NewPostgresStore wires a sql.DB implementation.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Open connects and pings the database.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

func (r *PostgresStore) Name() string { return "postgres" }

// SaveRecord upserts the post for its run date and ordinal.
func (r *PostgresStore) SaveRecord(ctx context.Context, post domain.GeneratedPost, date time.Time) error {
	if r.db == nil {
		return fmt.Errorf("postgres store has no database")
	}

	var imageURL, imageProvider any
	if post.HasImage() {
		imageURL, imageProvider = post.FinalImage.URL, post.FinalImage.Provider
	}
	tags := post.Tags
	if tags == nil {
		tags = []string{}
	}

	query, args, err := psql.Insert(postsTable).
		Columns("run_date", "ordinal", "category", "source_ref", "body", "tags", "word_count", "image_url", "image_provider").
		Values(date.Format(dateLayout), post.Ordinal, string(post.Category), post.SourceRef, post.Body, pq.StringArray(tags), post.WordCount, imageURL, imageProvider).
		Suffix(`ON CONFLICT (run_date, ordinal) DO UPDATE
              SET category = EXCLUDED.category,
                  source_ref = EXCLUDED.source_ref,
                  body = EXCLUDED.body,
                  tags = EXCLUDED.tags,
                  word_count = EXCLUDED.word_count,
                  image_url = EXCLUDED.image_url,
                  image_provider = EXCLUDED.image_provider,
                  updated_at = NOW()`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build post upsert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert post #%d: %w", post.Ordinal, err)
	}
	return nil
}

// SaveSummary upserts the day's summary and returns a locator for the row.
func (r *PostgresStore) SaveSummary(ctx context.Context, summary domain.Summary, postCount int) (string, error) {
	if r.db == nil {
		return "", fmt.Errorf("postgres store has no database")
	}

	day := summary.Date.Format(dateLayout)
	query, args, err := psql.Insert(summariesTable).
		Columns("run_date", "title", "content", "post_count").
		Values(day, summary.Title, summary.Content, postCount).
		Suffix(`ON CONFLICT (run_date) DO UPDATE
              SET title = EXCLUDED.title,
                  content = EXCLUDED.content,
                  post_count = EXCLUDED.post_count,
                  updated_at = NOW()`).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("build summary upsert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return "", fmt.Errorf("upsert summary: %w", err)
	}
	return fmt.Sprintf("postgres:%s/%s", summariesTable, day), nil
}
