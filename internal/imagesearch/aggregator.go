// Package imagesearch fans image searches out to every configured provider and
// ranks the merged candidates by estimated quality.
package imagesearch

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sromero1905/scrapping-link/internal/domain"
	"github.com/sromero1905/scrapping-link/internal/metrics"
	"github.com/sromero1905/scrapping-link/internal/ports"
	"github.com/sromero1905/scrapping-link/internal/runreport"
)

const (
	defaultProviderTimeout = 10 * time.Second
	// DefaultMaxResults is how many candidates callers usually ask for.
	DefaultMaxResults = 3
)

// Options tunes an Aggregator; zero values pick defaults.
type Options struct {
	Cache           Cache
	CacheTTL        time.Duration
	ProviderTimeout time.Duration
	Metrics         *metrics.Metrics
	Logger          *slog.Logger
}

// Aggregator queries all providers concurrently and merges their results.
type Aggregator struct {
	registry *Registry
	cache    Cache
	ttl      time.Duration
	timeout  time.Duration
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

var _ ports.ImageFinder = (*Aggregator)(nil)

// New builds an aggregator over the registry.
func New(registry *Registry, opts Options) *Aggregator {
	if registry == nil {
		registry = NewRegistry()
	}
	if opts.Cache == nil {
		opts.Cache = NewMemoryCache()
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultCacheTTL
	}
	if opts.ProviderTimeout <= 0 {
		opts.ProviderTimeout = defaultProviderTimeout
	}
	return &Aggregator{
		registry: registry,
		cache:    opts.Cache,
		ttl:      opts.CacheTTL,
		timeout:  opts.ProviderTimeout,
		metrics:  opts.Metrics,
		logger:   opts.Logger,
	}
}

// FindCandidates returns at most maxResults candidates for the query, best first.
// Provider failures never escape; they only shrink the result.
func (a *Aggregator) FindCandidates(ctx context.Context, query string, category domain.Category, maxResults int) []domain.ImageCandidate {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	keywords := Keywords(query, category)
	providers := a.registry.Providers()
	slots := make([][]domain.ImageCandidate, len(providers))

	var g errgroup.Group
	for i, p := range providers {
		if !p.Configured() {
			a.debug("provider skipped, no credential", "provider", p.Name())
			continue
		}
		i, p := i, p
		g.Go(func() error {
			slots[i] = a.searchProvider(ctx, p, keywords, maxResults)
			return nil
		})
	}
	_ = g.Wait()

	var merged []domain.ImageCandidate
	for _, slot := range slots {
		merged = append(merged, slot...)
	}
	ranked := a.rank(merged)
	if len(ranked) > maxResults {
		ranked = ranked[:maxResults]
	}

	a.debug("image search done", "keywords", keywords, "candidates", len(ranked))
	return ranked
}

func (a *Aggregator) searchProvider(ctx context.Context, p Provider, keywords []string, limit int) (out []domain.ImageCandidate) {
	name := p.Name()
	key := CacheKey(name, keywords)

	if cached, ok := a.cache.Get(ctx, key); ok {
		a.metrics.CacheLookup(true)
		return cached
	}
	a.metrics.CacheLookup(false)

	defer func() {
		if r := recover(); r != nil {
			a.fail(ctx, name, fmt.Errorf("panic: %v", r))
			out = nil
		}
	}()

	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	raw, err := p.Search(callCtx, keywords, limit)
	if err != nil {
		a.fail(ctx, name, err)
		return nil
	}
	candidates, err := p.Normalize(raw)
	if err != nil {
		a.fail(ctx, name, fmt.Errorf("normalize: %w", err))
		return nil
	}
	a.metrics.ProviderRequest(name, nil)

	for i := range candidates {
		candidates[i].Provider = name
	}
	a.cache.Set(ctx, key, candidates, a.ttl)
	return candidates
}

func (a *Aggregator) fail(ctx context.Context, provider string, err error) {
	a.metrics.ProviderRequest(provider, err)
	runreport.Record(ctx, runreport.PhaseImages, fmt.Errorf("image provider %s: %w", provider, err))
	if a.logger != nil {
		a.logger.Warn("image provider failed", "provider", provider, "error", err)
	}
}

// rank sorts by quality, then provider priority, and drops repeated URLs.
func (a *Aggregator) rank(candidates []domain.ImageCandidate) []domain.ImageCandidate {
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].QualityScore != candidates[j].QualityScore {
			return candidates[i].QualityScore > candidates[j].QualityScore
		}
		return a.registry.Priority(candidates[i].Provider) > a.registry.Priority(candidates[j].Provider)
	})

	seen := make(map[string]struct{}, len(candidates))
	out := make([]domain.ImageCandidate, 0, len(candidates))
	for _, c := range candidates {
		if c.URL == "" {
			continue
		}
		if _, dup := seen[c.URL]; dup {
			continue
		}
		seen[c.URL] = struct{}{}
		out = append(out, c)
	}
	return out
}

func (a *Aggregator) debug(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Debug(msg, args...)
	}
}
