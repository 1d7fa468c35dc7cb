package assembly

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sromero1905/scrapping-link/internal/domain"
	"github.com/sromero1905/scrapping-link/internal/retry"
	"github.com/sromero1905/scrapping-link/internal/runreport"
	"github.com/sromero1905/scrapping-link/internal/textparse"
)

// ErrGenerationExhausted aborts the run: the batch could not be generated.
var ErrGenerationExhausted = errors.New("post generation exhausted its retries")

// Generate asks the oracle for the whole batch and parses it into posts.
// A failed call or a reply without traceable posts is retried with
// exponential backoff; running out of retries returns ErrGenerationExhausted.
func (a *Assembler) Generate(ctx context.Context, curated []domain.CuratedItem, dist Distribution) ([]domain.GeneratedPost, error) {
	if len(curated) == 0 {
		return nil, fmt.Errorf("%w: no curated items", ErrGenerationExhausted)
	}
	if dist.Total() == 0 {
		return nil, fmt.Errorf("%w: empty distribution", ErrGenerationExhausted)
	}

	prompt := generationPrompt(curated, dist, a.styles)

	var posts []domain.GeneratedPost
	cfg := retry.Config{
		MaxAttempts:  a.retries + 1,
		InitialDelay: a.baseDelay,
		OnRetry: func(attempt int, err error, wait time.Duration) {
			a.warn("generation attempt failed, retrying", "attempt", attempt, "wait", wait, "error", err)
		},
	}

	err := retry.Do(ctx, cfg, func(attempt int) error {
		text, err := a.complete(ctx, prompt, a.generationTokens)
		if err != nil {
			err = fmt.Errorf("attempt %d: %w", attempt, err)
			runreport.Record(ctx, runreport.PhaseGeneration, err)
			return err
		}

		parsed, err := a.toPosts(text, curated)
		if err != nil {
			err = fmt.Errorf("attempt %d: %w", attempt, err)
			runreport.Record(ctx, runreport.PhaseGeneration, err)
			return err
		}

		posts = parsed
		a.info("generation done", "attempt", attempt, "posts", len(posts), "requested", dist.Total())
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGenerationExhausted, err)
	}
	return posts, nil
}

func (a *Assembler) toPosts(text string, curated []domain.CuratedItem) ([]domain.GeneratedPost, error) {
	blocks, err := textparse.ParsePostBlocks(text)
	if err != nil {
		return nil, err
	}

	used := make(map[int]struct{}, len(blocks))
	next := 1
	posts := make([]domain.GeneratedPost, 0, len(blocks))
	for _, block := range blocks {
		ref, ok := TraceSource(block.SourceRef, curated)
		if !ok {
			a.debug("dropping post with untraceable source", "ordinal", block.Ordinal, "source", block.SourceRef)
			continue
		}

		category, known := domain.ParseCategory(block.Label)
		if !known {
			a.debug("unknown post type, using informational", "ordinal", block.Ordinal, "label", block.Label)
		}

		ordinal := block.Ordinal
		if _, dup := used[ordinal]; dup || ordinal <= 0 {
			for {
				if _, taken := used[next]; !taken {
					break
				}
				next++
			}
			ordinal = next
		}
		used[ordinal] = struct{}{}

		posts = append(posts, domain.GeneratedPost{
			Ordinal:   ordinal,
			Category:  category,
			SourceRef: ref,
			Body:      block.Body,
			Tags:      block.Tags,
			WordCount: domain.CountWords(block.Body),
		})
	}

	if len(posts) == 0 {
		return nil, fmt.Errorf("%w: no post traces back to a curated item", textparse.ErrUnparseable)
	}
	return posts, nil
}

// TraceSource resolves a post source reference to the URL of a curated item.
// It matches on URL, then on source name, then on title.
func TraceSource(ref string, curated []domain.CuratedItem) (string, bool) {
	norm := normalizeRef(ref)
	if norm == "" {
		return "", false
	}

	for _, c := range curated {
		if normalizeRef(c.Item.URL) == norm {
			return c.Item.URL, true
		}
	}
	// Containment prefers the longest matching URL.
	best, bestLen := "", 0
	for _, c := range curated {
		u := normalizeRef(c.Item.URL)
		if u == "" || len(u) <= bestLen {
			continue
		}
		if strings.Contains(norm, u) || (len(norm) >= 8 && strings.Contains(u, norm)) {
			best, bestLen = c.Item.URL, len(u)
		}
	}
	if best != "" {
		return best, true
	}
	for _, c := range curated {
		if strings.EqualFold(strings.TrimSpace(c.Item.SourceID), strings.TrimSpace(ref)) {
			return c.Item.URL, true
		}
	}
	for _, c := range curated {
		if strings.EqualFold(strings.TrimSpace(c.Item.Title), strings.TrimSpace(ref)) {
			return c.Item.URL, true
		}
	}
	return "", false
}

// OriginalImageFor returns the image captured with the post's source item.
func OriginalImageFor(post domain.GeneratedPost, curated []domain.CuratedItem) *domain.ImageCandidate {
	want := normalizeRef(post.SourceRef)
	if want == "" {
		return nil
	}
	for _, c := range curated {
		if normalizeRef(c.Item.URL) == want && c.Item.OriginalImage != nil {
			img := *c.Item.OriginalImage
			return &img
		}
	}
	return nil
}

func normalizeRef(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Trim(s, "<>()[]\"' ")
	for _, prefix := range []string{"https://", "http://"} {
		s = strings.TrimPrefix(s, prefix)
	}
	s = strings.TrimPrefix(s, "www.")
	return strings.TrimRight(s, "/")
}
