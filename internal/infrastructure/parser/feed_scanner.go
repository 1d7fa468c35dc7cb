package parser

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/sromero1905/scrapping-link/internal/domain"
	"github.com/sromero1905/scrapping-link/internal/scanner"
)

// FeedScanner reads RSS and Atom feeds.
type FeedScanner struct {
	fetcher Fetcher
	now     func() time.Time
	logger  *slog.Logger
}

func NewFeedScanner(fetcher Fetcher, logger *slog.Logger) *FeedScanner {
	return &FeedScanner{fetcher: fetcher, now: time.Now, logger: logger}
}

func (s *FeedScanner) Name() string { return "feed" }

func (s *FeedScanner) Close() error {
	if c, ok := s.fetcher.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (s *FeedScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.RawItem, error) {
	body, err := s.fetcher.Fetch(ctx, req.URL)
	if err != nil {
		return nil, fmt.Errorf("feed: %w", err)
	}
	feed, err := gofeed.NewParser().ParseString(body)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", req.URL, err)
	}
	base, _ := url.Parse(req.URL)

	limit := req.MaxArticles
	if limit <= 0 {
		limit = defaultMaxArticles
	}

	seen := map[string]struct{}{}
	items := make([]domain.RawItem, 0, min(limit, len(feed.Items)))
	for _, entry := range feed.Items {
		if len(items) >= limit {
			break
		}
		title := collapse(entry.Title)
		entryURL := strings.TrimSpace(entry.Link)
		if entryURL == "" {
			entryURL = strings.TrimSpace(entry.GUID)
		}
		if base != nil {
			if resolved, ok := resolveURL(base, entryURL); ok {
				entryURL = resolved
			}
		}
		if title == "" || entryURL == "" {
			continue
		}
		if _, dup := seen[entryURL]; dup {
			continue
		}
		seen[entryURL] = struct{}{}

		html := entry.Content
		if strings.TrimSpace(html) == "" {
			html = entry.Description
		}
		text, inline := stripHTML(html)

		item := domain.RawItem{
			SourceID:      req.SiteName,
			Title:         capRunes(title, maxTitleRunes),
			Body:          capRunes(text, maxContentRunes),
			URL:           entryURL,
			CapturedAt:    s.now(),
			OriginalImage: feedImage(entry, inline, base),
		}
		if entry.PublishedParsed != nil {
			published := *entry.PublishedParsed
			item.PublishedAt = &published
		}
		items = append(items, item)
	}

	if s.logger != nil {
		s.logger.Debug("feed parsed", "site", req.SiteName, "entries", len(feed.Items), "kept", len(items))
	}
	return items, nil
}

// stripHTML returns the text of an HTML fragment and the src of its first image.
func stripHTML(fragment string) (string, string) {
	if strings.TrimSpace(fragment) == "" {
		return "", ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return collapse(fragment), ""
	}
	src, _ := doc.Find("img").First().Attr("src")
	return collapse(doc.Text()), strings.TrimSpace(src)
}

func feedImage(entry *gofeed.Item, inline string, base *url.URL) *domain.ImageCandidate {
	var src, alt string
	switch {
	case entry.Image != nil && entry.Image.URL != "":
		src, alt = entry.Image.URL, entry.Image.Title
	default:
		for _, enc := range entry.Enclosures {
			if enc != nil && strings.HasPrefix(enc.Type, "image/") && enc.URL != "" {
				src = enc.URL
				break
			}
		}
	}
	if src == "" {
		src = inline
	}
	if src == "" {
		return nil
	}
	if base != nil {
		resolved, ok := resolveURL(base, src)
		if !ok {
			return nil
		}
		src = resolved
	}
	return &domain.ImageCandidate{URL: src, AltText: alt, Provider: domain.ProviderOriginal}
}
