// Package assembly turns raw scraped items into curated items and then into a
// batch of generated posts.
package assembly

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sromero1905/scrapping-link/internal/domain"
	"github.com/sromero1905/scrapping-link/internal/ports"
	"github.com/sromero1905/scrapping-link/internal/runreport"
	"github.com/sromero1905/scrapping-link/internal/textparse"
)

// DefaultRelevance annotates items kept by the pass-through fallback.
const DefaultRelevance = "News of the day"

const (
	defaultFilterTokens     = 4000
	defaultGenerationTokens = 8000
	defaultCallTimeout      = 5 * time.Minute
	defaultRetries          = 3
	defaultBaseDelay        = 2 * time.Second
)

// Options configures an Assembler; zero values pick defaults.
type Options struct {
	Styles           []string
	Retries          int
	BaseDelay        time.Duration
	FilterTokens     int
	GenerationTokens int
	CallTimeout      time.Duration
	Logger           *slog.Logger
}

// Assembler runs the filter and generation steps against an oracle.
type Assembler struct {
	oracle           ports.Oracle
	styles           []string
	retries          int
	baseDelay        time.Duration
	filterTokens     int
	generationTokens int
	callTimeout      time.Duration
	logger           *slog.Logger
}

// New builds an assembler.
func New(oracle ports.Oracle, opts Options) *Assembler {
	if len(opts.Styles) == 0 {
		opts.Styles = DefaultStyles
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	} else if opts.Retries == 0 {
		opts.Retries = defaultRetries
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = defaultBaseDelay
	}
	if opts.FilterTokens <= 0 {
		opts.FilterTokens = defaultFilterTokens
	}
	if opts.GenerationTokens <= 0 {
		opts.GenerationTokens = defaultGenerationTokens
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = defaultCallTimeout
	}
	return &Assembler{
		oracle:           oracle,
		styles:           opts.Styles,
		retries:          opts.Retries,
		baseDelay:        opts.BaseDelay,
		filterTokens:     opts.FilterTokens,
		generationTokens: opts.GenerationTokens,
		callTimeout:      opts.CallTimeout,
		logger:           opts.Logger,
	}
}

type filterReply struct {
	SelectedNews []struct {
		OriginalIndex   int      `json:"original_index"`
		Title           string   `json:"title"`
		Source          string   `json:"source"`
		URL             string   `json:"url"`
		RelevanceReason string   `json:"relevance_reason"`
		KeyPoints       []string `json:"key_points"`
	} `json:"selected_news"`
	FilteringSummary string `json:"filtering_summary"`
}

// FilterRelevant keeps the items the oracle considers relevant. Any failure
// degrades to passing every item through.
func (a *Assembler) FilterRelevant(ctx context.Context, raw []domain.RawItem) []domain.CuratedItem {
	if len(raw) == 0 {
		return nil
	}

	curated, err := a.filter(ctx, raw)
	if err != nil {
		runreport.Record(ctx, runreport.PhaseFiltering, fmt.Errorf("filter fell back to pass-through: %w", err))
		a.warn("filtering failed, keeping every item", "items", len(raw), "error", err)
		return passThrough(raw)
	}

	a.info("filtering done", "input", len(raw), "selected", len(curated))
	return curated
}

func (a *Assembler) filter(ctx context.Context, raw []domain.RawItem) ([]domain.CuratedItem, error) {
	text, err := a.complete(ctx, filterPrompt(raw), a.filterTokens)
	if err != nil {
		return nil, err
	}

	var reply filterReply
	if err := textparse.DecodeJSON(text, &reply); err != nil {
		return nil, err
	}

	seen := make(map[int]struct{}, len(reply.SelectedNews))
	curated := make([]domain.CuratedItem, 0, len(reply.SelectedNews))
	for _, sel := range reply.SelectedNews {
		idx := sel.OriginalIndex - 1
		if idx < 0 || idx >= len(raw) {
			idx = indexByURL(raw, sel.URL)
		}
		if idx < 0 {
			continue
		}
		if _, dup := seen[idx]; dup {
			continue
		}
		seen[idx] = struct{}{}

		keyPoints := sel.KeyPoints
		if len(keyPoints) == 0 {
			keyPoints = []string{raw[idx].Title}
		}
		reason := strings.TrimSpace(sel.RelevanceReason)
		if reason == "" {
			reason = DefaultRelevance
		}
		curated = append(curated, domain.CuratedItem{
			Item:            raw[idx],
			OriginalIndex:   idx + 1,
			RelevanceReason: reason,
			KeyPoints:       keyPoints,
		})
	}

	if len(curated) == 0 {
		return nil, errors.New("oracle selected no known item")
	}
	if reply.FilteringSummary != "" {
		a.debug("filtering summary", "summary", reply.FilteringSummary)
	}
	return curated, nil
}

func passThrough(raw []domain.RawItem) []domain.CuratedItem {
	out := make([]domain.CuratedItem, len(raw))
	for i, item := range raw {
		out[i] = domain.CuratedItem{
			Item:            item,
			OriginalIndex:   i + 1,
			RelevanceReason: DefaultRelevance,
			KeyPoints:       []string{item.Title},
		}
	}
	return out
}

func indexByURL(raw []domain.RawItem, u string) int {
	if u == "" {
		return -1
	}
	want := normalizeRef(u)
	for i, item := range raw {
		if normalizeRef(item.URL) == want {
			return i
		}
	}
	return -1
}

func (a *Assembler) complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if a.oracle == nil {
		return "", errors.New("oracle is not configured")
	}
	callCtx, cancel := context.WithTimeout(ctx, a.callTimeout)
	defer cancel()
	return a.oracle.Complete(callCtx, prompt, maxTokens)
}

func (a *Assembler) debug(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Debug(msg, args...)
	}
}

func (a *Assembler) info(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Info(msg, args...)
	}
}

func (a *Assembler) warn(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Warn(msg, args...)
	}
}
