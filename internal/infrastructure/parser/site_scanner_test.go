package parser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sromero1905/scrapping-link/internal/domain"
	"github.com/sromero1905/scrapping-link/internal/scanner"
)

const listingHTML = `
<html><body>
  <article><a href="/posts/one#comments"> One </a></article>
  <article><a href="/posts/one">One again</a></article>
  <article><a href="/posts/broken">Broken</a></article>
  <article><a href="mailto:press@example.com">Press</a></article>
</body></html>`

const articleHTML = `
<html>
<head>
  <meta property="og:image" content="/img/lead.jpg">
  <meta property="og:image:alt" content="Lead image">
  <meta property="og:image:width" content="1200">
  <meta property="og:image:height" content="630">
  <meta property="article:published_time" content="2025-11-08T10:00:00Z">
</head>
<body>
  <h1 class="title">  OpenAI ships   a model </h1>
  <div class="body"><p>First paragraph.</p><p>Second paragraph.</p></div>
</body>
</html>`

func newSiteServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(listingHTML))
	})
	mux.HandleFunc("/posts/one", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(articleHTML))
	})
	mux.HandleFunc("/posts/broken", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestSiteScannerScan(t *testing.T) {
	t.Parallel()

	srv := newSiteServer(t)
	captured := time.Date(2025, time.November, 8, 12, 0, 0, 0, time.UTC)

	sc := NewSiteScanner("html", NewHTTPFetcher(srv.Client(), ""), nil)
	sc.now = func() time.Time { return captured }

	items, err := sc.Scan(context.Background(), scanner.Request{
		SiteName:        "TechCrunch",
		URL:             srv.URL + "/",
		ArticleSelector: "article a",
		TitleSelector:   "h1.title",
		ContentSelector: "div.body p",
	})
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected the broken article to be skipped, got %d items", len(items))
	}

	item := items[0]
	if item.URL != srv.URL+"/posts/one" {
		t.Fatalf("unexpected url %s", item.URL)
	}
	if item.Title != "OpenAI ships a model" {
		t.Fatalf("unexpected title %q", item.Title)
	}
	if item.Body != "First paragraph. Second paragraph." {
		t.Fatalf("unexpected body %q", item.Body)
	}
	if item.SourceID != "TechCrunch" || !item.CapturedAt.Equal(captured) {
		t.Fatalf("unexpected source or capture time: %+v", item)
	}
	if item.PublishedAt == nil || item.PublishedAt.Day() != 8 {
		t.Fatalf("expected published time from meta, got %v", item.PublishedAt)
	}

	img := item.OriginalImage
	if img == nil {
		t.Fatalf("expected the og:image to be captured")
	}
	if img.URL != srv.URL+"/img/lead.jpg" || img.Provider != domain.ProviderOriginal {
		t.Fatalf("unexpected image %+v", img)
	}
	if img.Width != 1200 || img.Height != 630 || img.AltText != "Lead image" {
		t.Fatalf("unexpected image metadata %+v", img)
	}
}

func TestSiteScannerAggregator(t *testing.T) {
	t.Parallel()

	srv := newSiteServer(t)
	sc := NewSiteScanner("html", NewHTTPFetcher(srv.Client(), ""), nil)

	items, err := sc.Scan(context.Background(), scanner.Request{
		SiteName:        "Hacker News",
		URL:             srv.URL + "/",
		ArticleSelector: "article a",
		Aggregator:      true,
	})
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 unique http links, got %d", len(items))
	}
	if items[0].Title != "One" || items[1].Title != "Broken" {
		t.Fatalf("unexpected titles %q, %q", items[0].Title, items[1].Title)
	}
	if items[0].Body != "" {
		t.Fatalf("aggregator items carry no body, got %q", items[0].Body)
	}
}

func TestSiteScannerLimit(t *testing.T) {
	t.Parallel()

	srv := newSiteServer(t)
	sc := NewSiteScanner("html", NewHTTPFetcher(srv.Client(), ""), nil)

	items, err := sc.Scan(context.Background(), scanner.Request{
		SiteName:        "Hacker News",
		URL:             srv.URL + "/",
		ArticleSelector: "article a",
		Aggregator:      true,
		MaxArticles:     1,
	})
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected the limit to cap results, got %d", len(items))
	}
}

func TestSiteScannerListingFailure(t *testing.T) {
	t.Parallel()

	srv := newSiteServer(t)
	sc := NewSiteScanner("html", NewHTTPFetcher(srv.Client(), ""), nil)

	if _, err := sc.Scan(context.Background(), scanner.Request{SiteName: "Gone", URL: srv.URL + "/missing"}); err == nil {
		t.Fatalf("expected an error for a missing listing page")
	}
}

func TestCapRunes(t *testing.T) {
	t.Parallel()

	if got := capRunes("héllo", 2); got != "hé" {
		t.Fatalf("unexpected cut %q", got)
	}
	if got := capRunes("ok", 10); got != "ok" {
		t.Fatalf("unexpected cut %q", got)
	}
}
