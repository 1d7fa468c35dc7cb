package parser

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/sromero1905/scrapping-link/internal/config"
	"github.com/sromero1905/scrapping-link/internal/domain"
	"github.com/sromero1905/scrapping-link/internal/runreport"
	"github.com/sromero1905/scrapping-link/internal/scanner"
)

type fakeScanner struct {
	name    string
	results map[string][]domain.RawItem
	errs    map[string]error
	reqs    []scanner.Request
}

func (f *fakeScanner) Name() string { return f.name }

func (f *fakeScanner) Scan(_ context.Context, req scanner.Request) ([]domain.RawItem, error) {
	f.reqs = append(f.reqs, req)
	return f.results[req.SiteName], f.errs[req.SiteName]
}

func TestStrategySourceScrapeAll(t *testing.T) {
	t.Parallel()

	html := &fakeScanner{
		name: "html",
		results: map[string][]domain.RawItem{
			"TechCrunch": {{Title: "A", URL: "https://a.example/1"}, {Title: "B", URL: "https://a.example/2"}},
			"The Verge":  {{Title: "A again", URL: "https://a.example/1"}, {Title: "C", URL: "https://v.example/3"}},
		},
		errs: map[string]error{"Wired": errors.New("503")},
	}
	reg := scanner.NewRegistry(html)
	sites := []config.SiteConfig{
		{Name: "TechCrunch", Scanner: "html", URL: "https://techcrunch.com"},
		{Name: "Wired", Scanner: "html", URL: "https://wired.com", MaxArticles: 3},
		{Name: "Unknown", Scanner: "ftp"},
		{Name: "The Verge", Scanner: "html", URL: "https://theverge.com"},
	}

	collector := runreport.NewCollector()
	ctx := runreport.WithCollector(context.Background(), collector)

	src := NewStrategySource(reg, sites, 7, nil)
	items, err := src.ScrapeAll(ctx)
	if err != nil {
		t.Fatalf("ScrapeAll error: %v", err)
	}

	var got []string
	for _, item := range items {
		got = append(got, item.SourceID+"|"+item.Title)
	}
	want := []string{"TechCrunch|A", "TechCrunch|B", "The Verge|C"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected items (-want +got):\n%s", diff)
	}

	if collector.Len() != 2 {
		t.Fatalf("expected the failing and unknown sites to be recorded, got %d", collector.Len())
	}
	for _, e := range collector.Entries() {
		if e.Phase != runreport.PhaseScraping {
			t.Fatalf("unexpected phase %s", e.Phase)
		}
	}

	if html.reqs[0].MaxArticles != 7 || html.reqs[1].MaxArticles != 3 {
		t.Fatalf("expected site limits to override the default, got %d and %d", html.reqs[0].MaxArticles, html.reqs[1].MaxArticles)
	}
}

func TestStrategySourceWithoutRegistry(t *testing.T) {
	t.Parallel()

	if _, err := NewStrategySource(nil, nil, 0, nil).ScrapeAll(context.Background()); err == nil {
		t.Fatalf("expected an error without a registry")
	}
}
