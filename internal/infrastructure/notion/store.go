// Package notion stores posts as pages of a Notion database.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sromero1905/scrapping-link/internal/config"
	"github.com/sromero1905/scrapping-link/internal/domain"
	"github.com/sromero1905/scrapping-link/internal/ports"
)

const (
	defaultBaseURL    = "https://api.notion.com/v1"
	defaultVersion    = "2022-06-28"
	summaryPostNumber = 999
	maxTextRunes      = 2000
	maxTitleRunes     = 100
)

// Store implements ports.RecordStore over the Notion pages API.
type Store struct {
	token      string
	databaseID string
	baseURL    string
	version    string
	client     *http.Client
}

var _ ports.RecordStore = (*Store)(nil)

// NewStore builds a store from configuration.
func NewStore(cfg config.NotionConfig) *Store {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	version := cfg.Version
	if version == "" {
		version = defaultVersion
	}
	return &Store{
		token:      cfg.Token,
		databaseID: cfg.DatabaseID,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		version:    version,
		client:     &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *Store) Name() string { return "notion" }

// Locator is the public URL of the database.
func (s *Store) Locator() string {
	return "https://notion.so/" + strings.ReplaceAll(s.databaseID, "-", "")
}

// SaveRecord creates one page for post.
func (s *Store) SaveRecord(ctx context.Context, post domain.GeneratedPost, date time.Time) error {
	title := fmt.Sprintf("Post #%d - %s - %s", post.Ordinal, post.Category, date.Format("2006-01-02"))
	source := post.SourceRef
	if source == "" {
		source = "Generated Content"
	}

	props := map[string]any{
		"Title":       titleProp(truncate(title, maxTitleRunes)),
		"Post Number": map[string]any{"number": post.Ordinal},
		"Content":     richText(truncate(post.Body, maxTextRunes)),
		"Type":        map[string]any{"select": map[string]string{"name": string(post.Category)}},
		"Date":        dateProp(date),
		"Has Image":   map[string]any{"checkbox": post.HasImage()},
		"Source":      richText(source),
	}
	if len(post.Tags) > 0 {
		props["Hashtags"] = richText(post.TagLine())
	}
	if post.HasImage() {
		props["Image URL"] = map[string]any{"url": post.FinalImage.URL}
	}

	if err := s.createPage(ctx, props); err != nil {
		return fmt.Errorf("create page for post #%d: %w", post.Ordinal, err)
	}
	return nil
}

// SaveSummary creates the summary page and returns the database locator.
func (s *Store) SaveSummary(ctx context.Context, summary domain.Summary, _ int) (string, error) {
	props := map[string]any{
		"Title":       titleProp(truncate(summary.Title, maxTitleRunes)),
		"Post Number": map[string]any{"number": summaryPostNumber},
		"Content":     richText(truncate(summary.Content, maxTextRunes)),
		"Type":        map[string]any{"select": map[string]string{"name": "summary"}},
		"Date":        dateProp(summary.Date),
		"Has Image":   map[string]any{"checkbox": false},
		"Source":      richText("Tech Summary"),
	}
	if err := s.createPage(ctx, props); err != nil {
		return "", fmt.Errorf("create summary page: %w", err)
	}
	return s.Locator(), nil
}

func (s *Store) createPage(ctx context.Context, props map[string]any) error {
	if s.token == "" || s.databaseID == "" {
		return fmt.Errorf("notion store misconfigured")
	}

	body, err := json.Marshal(map[string]any{
		"parent":     map[string]string{"database_id": s.databaseID},
		"properties": props,
	})
	if err != nil {
		return fmt.Errorf("marshal page: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/pages", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Notion-Version", s.version)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("notion error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}
	return nil
}

func titleProp(text string) map[string]any {
	return map[string]any{"title": []map[string]any{{"text": map[string]string{"content": text}}}}
}

func richText(text string) map[string]any {
	return map[string]any{"rich_text": []map[string]any{{"text": map[string]string{"content": text}}}}
}

func dateProp(date time.Time) map[string]any {
	if date.IsZero() {
		date = time.Now()
	}
	return map[string]any{"date": map[string]string{"start": date.Format("2006-01-02")}}
}

func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit-3]) + "..."
}
