package parser

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/sromero1905/scrapping-link/internal/domain"
	"github.com/sromero1905/scrapping-link/internal/scanner"
)

const (
	defaultMaxArticles = 10
	maxTitleRunes      = 200
	maxContentRunes    = 2000
)

// SiteScanner reads a listing page, follows article links and extracts
// title, body and lead image from each article.
type SiteScanner struct {
	name    string
	fetcher Fetcher
	now     func() time.Time
	logger  *slog.Logger
}

// NewSiteScanner registers under name ("html" or "browser" depending on fetcher).
func NewSiteScanner(name string, fetcher Fetcher, logger *slog.Logger) *SiteScanner {
	return &SiteScanner{name: name, fetcher: fetcher, now: time.Now, logger: logger}
}

// Name identifies the strategy inside the registry.
func (s *SiteScanner) Name() string { return s.name }

// Close releases the fetcher when it holds a browser.
func (s *SiteScanner) Close() error {
	if c, ok := s.fetcher.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Scan returns up to req.MaxArticles items. A failing article is skipped; only
// a failing listing page fails the scan.
func (s *SiteScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.RawItem, error) {
	base, err := url.Parse(req.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid site url %s: %w", req.URL, err)
	}

	listing, err := s.fetcher.Fetch(ctx, req.URL)
	if err != nil {
		return nil, fmt.Errorf("listing: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(listing))
	if err != nil {
		return nil, fmt.Errorf("parse listing: %w", err)
	}

	limit := req.MaxArticles
	if limit <= 0 {
		limit = defaultMaxArticles
	}
	links := extractLinks(doc, base, req.ArticleSelector, limit)
	s.debug("listing parsed", "site", req.SiteName, "links", len(links))

	items := make([]domain.RawItem, 0, len(links))
	for _, l := range links {
		if err := ctx.Err(); err != nil {
			return items, err
		}

		if req.Aggregator {
			items = append(items, domain.RawItem{
				SourceID:   req.SiteName,
				Title:      capRunes(l.text, maxTitleRunes),
				URL:        l.url,
				CapturedAt: s.now(),
			})
			continue
		}

		item, err := s.article(ctx, l, req)
		if err != nil {
			s.debug("skip article", "site", req.SiteName, "url", l.url, "error", err)
			continue
		}
		items = append(items, item)
	}

	return items, nil
}

func (s *SiteScanner) article(ctx context.Context, l link, req scanner.Request) (domain.RawItem, error) {
	html, err := s.fetcher.Fetch(ctx, l.url)
	if err != nil {
		return domain.RawItem{}, err
	}
	pageURL, _ := url.Parse(l.url)

	page, err := extractArticle(html, pageURL, req.TitleSelector, req.ContentSelector)
	if err != nil {
		return domain.RawItem{}, err
	}
	if page.title == "" {
		page.title = l.text
	}
	if page.title == "" {
		return domain.RawItem{}, fmt.Errorf("article without title")
	}

	return domain.RawItem{
		SourceID:      req.SiteName,
		Title:         capRunes(page.title, maxTitleRunes),
		Body:          capRunes(page.content, maxContentRunes),
		URL:           l.url,
		CapturedAt:    s.now(),
		PublishedAt:   page.published,
		OriginalImage: page.image,
	}, nil
}

type link struct {
	url  string
	text string
}

// extractLinks resolves selector matches against base, keeping http(s) links
// once each and in document order.
func extractLinks(doc *goquery.Document, base *url.URL, selector string, limit int) []link {
	if selector == "" {
		selector = "article a, h2 a, h3 a"
	}

	seen := map[string]struct{}{}
	var links []link
	doc.Find(selector).EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, ok := a.Attr("href")
		if !ok {
			return true
		}
		resolved, ok := resolveURL(base, href)
		if !ok || resolved == base.String() {
			return true
		}
		if _, dup := seen[resolved]; dup {
			return true
		}
		seen[resolved] = struct{}{}

		links = append(links, link{url: resolved, text: collapse(a.Text())})
		return len(links) < limit
	})
	return links
}

func resolveURL(base *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "mailto:") {
		return "", false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	abs := base.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return "", false
	}
	abs.Fragment = ""
	return abs.String(), true
}

type articlePage struct {
	title     string
	content   string
	published *time.Time
	image     *domain.ImageCandidate
}

// extractArticle applies the site selectors first and falls back to
// readability for whatever they miss.
func extractArticle(html string, pageURL *url.URL, titleSelector, contentSelector string) (articlePage, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return articlePage{}, fmt.Errorf("parse article: %w", err)
	}

	var page articlePage
	if titleSelector != "" {
		page.title = collapse(doc.Find(titleSelector).First().Text())
	}
	if contentSelector != "" {
		var parts []string
		doc.Find(contentSelector).Each(func(_ int, sel *goquery.Selection) {
			if text := collapse(sel.Text()); text != "" {
				parts = append(parts, text)
			}
		})
		page.content = strings.Join(parts, " ")
	}
	page.image = leadImage(doc, pageURL)

	if raw, ok := doc.Find(`meta[property="article:published_time"]`).Attr("content"); ok {
		if t, err := time.Parse(time.RFC3339, strings.TrimSpace(raw)); err == nil {
			page.published = &t
		}
	}

	if page.title == "" || page.content == "" || page.image == nil {
		fallbackTitle, fallbackText, fallbackImage := readabilityFallback(html, pageURL)
		if page.title == "" {
			page.title = fallbackTitle
		}
		if page.content == "" {
			page.content = fallbackText
		}
		if page.image == nil && fallbackImage != "" {
			if resolved, ok := resolveURL(pageURL, fallbackImage); ok {
				page.image = &domain.ImageCandidate{URL: resolved, Provider: domain.ProviderOriginal}
			}
		}
	}
	return page, nil
}

func leadImage(doc *goquery.Document, pageURL *url.URL) *domain.ImageCandidate {
	var src string
	for _, sel := range []string{`meta[property="og:image"]`, `meta[property="og:image:url"]`, `meta[name="twitter:image"]`} {
		if v, ok := doc.Find(sel).First().Attr("content"); ok && strings.TrimSpace(v) != "" {
			src = v
			break
		}
	}
	if src == "" || pageURL == nil {
		return nil
	}
	resolved, ok := resolveURL(pageURL, src)
	if !ok {
		return nil
	}

	img := &domain.ImageCandidate{URL: resolved, Provider: domain.ProviderOriginal}
	img.AltText, _ = doc.Find(`meta[property="og:image:alt"]`).First().Attr("content")
	img.Width = atoiAttr(doc, `meta[property="og:image:width"]`)
	img.Height = atoiAttr(doc, `meta[property="og:image:height"]`)
	return img
}

func readabilityFallback(html string, pageURL *url.URL) (title, text, image string) {
	article, err := readability.FromReader(strings.NewReader(html), pageURL)
	if err != nil {
		return "", "", ""
	}
	return collapse(article.Title), collapse(article.TextContent), strings.TrimSpace(article.Image)
}

func atoiAttr(doc *goquery.Document, selector string) int {
	raw, ok := doc.Find(selector).First().Attr("content")
	if !ok {
		return 0
	}
	n, _ := strconv.Atoi(strings.TrimSpace(raw))
	return n
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func capRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

func (s *SiteScanner) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
