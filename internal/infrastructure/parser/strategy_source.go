package parser

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sromero1905/scrapping-link/internal/config"
	"github.com/sromero1905/scrapping-link/internal/domain"
	"github.com/sromero1905/scrapping-link/internal/ports"
	"github.com/sromero1905/scrapping-link/internal/runreport"
	"github.com/sromero1905/scrapping-link/internal/scanner"
)

// StrategySource implements Crawler via registered scanner strategies.
type StrategySource struct {
	registry    *scanner.Registry
	sites       []config.SiteConfig
	maxArticles int
	now         func() time.Time
	logger      *slog.Logger
}

var _ ports.Crawler = (*StrategySource)(nil)

// NewStrategySource wires scanner registry with config-defined sites.
func NewStrategySource(reg *scanner.Registry, sites []config.SiteConfig, maxArticles int, log *slog.Logger) *StrategySource {
	return &StrategySource{
		registry:    reg,
		sites:       sites,
		maxArticles: maxArticles,
		now:         time.Now,
		logger:      log,
	}
}

// ScrapeAll runs every site in order. A site that fails is recorded and
// skipped; items are deduplicated by URL across sites.
func (s *StrategySource) ScrapeAll(ctx context.Context) ([]domain.RawItem, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("scanner registry is not configured")
	}

	day := s.now()
	s.debug("scrape all", "sites", len(s.sites), "day", day.Format("2006-01-02"))

	seen := map[string]struct{}{}
	var aggregated []domain.RawItem
	for _, site := range s.sites {
		if err := ctx.Err(); err != nil {
			return aggregated, err
		}

		strategy, err := s.registry.Resolve(site.Scanner)
		if err != nil {
			runreport.Record(ctx, runreport.PhaseScraping, fmt.Errorf("site %s: %w", site.Name, err))
			continue
		}

		limit := site.MaxArticles
		if limit <= 0 {
			limit = s.maxArticles
		}
		req := scanner.Request{
			Day:             day,
			SiteName:        site.Name,
			URL:             site.URL,
			ArticleSelector: site.ArticleSelector,
			TitleSelector:   site.TitleSelector,
			ContentSelector: site.ContentSelector,
			Aggregator:      site.Aggregator,
			MaxArticles:     limit,
			Options:         site.Options,
		}

		results, err := strategy.Scan(ctx, req)
		if err != nil {
			s.warn("site failed", "site", site.Name, "scanner", site.Scanner, "error", err)
			runreport.Record(ctx, runreport.PhaseScraping, fmt.Errorf("scan site %s: %w", site.Name, err))
			// partial results from a cancelled scan are still kept
		}

		kept := 0
		for _, item := range results {
			if item.SourceID == "" {
				item.SourceID = site.Name
			}
			if _, dup := seen[item.URL]; dup {
				continue
			}
			seen[item.URL] = struct{}{}
			aggregated = append(aggregated, item)
			kept++
		}
		s.debug("site produced items", "site", site.Name, "count", kept)
	}

	s.debug("strategy source done", "total_items", len(aggregated))
	return aggregated, nil
}

// Close releases scanners holding resources such as a headless browser.
func (s *StrategySource) Close() error {
	if s.registry == nil {
		return nil
	}
	return s.registry.Close()
}

func (s *StrategySource) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func (s *StrategySource) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
