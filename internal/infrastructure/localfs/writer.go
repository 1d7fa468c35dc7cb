// Package localfs writes the emergency copy of a batch to local files.
package localfs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sromero1905/scrapping-link/internal/document"
	"github.com/sromero1905/scrapping-link/internal/domain"
	"github.com/sromero1905/scrapping-link/internal/ports"
)

// Writer implements ports.EmergencyWriter under a single directory.
type Writer struct {
	dir string
	now func() time.Time
}

var _ ports.EmergencyWriter = (*Writer)(nil)

// NewWriter builds a writer rooted at dir.
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir, now: time.Now}
}

// WriteFiles creates dir if missing and writes posts-<date>.md and summary-<date>.md.
func (w *Writer) WriteFiles(ctx context.Context, posts []domain.GeneratedPost, summary domain.Summary) (domain.EmergencyFiles, error) {
	if err := ctx.Err(); err != nil {
		return domain.EmergencyFiles{}, err
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return domain.EmergencyFiles{}, fmt.Errorf("create %s: %w", w.dir, err)
	}

	date := summary.Date
	if date.IsZero() {
		date = w.now()
	}
	stamp := date.Format("2006-01-02")

	files := domain.EmergencyFiles{
		PostsPath:   filepath.Join(w.dir, "posts-"+stamp+".md"),
		SummaryPath: filepath.Join(w.dir, "summary-"+stamp+".md"),
	}
	if err := os.WriteFile(files.PostsPath, []byte(document.FormatPosts(posts, date)), 0o644); err != nil {
		return domain.EmergencyFiles{}, fmt.Errorf("write posts file: %w", err)
	}
	if err := os.WriteFile(files.SummaryPath, []byte(summary.Content), 0o644); err != nil {
		return domain.EmergencyFiles{}, fmt.Errorf("write summary file: %w", err)
	}
	return files, nil
}
