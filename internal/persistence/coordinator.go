// Package persistence fans a finished batch out to every configured sink and
// falls back to local files when none of them accepts it.
package persistence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sromero1905/scrapping-link/internal/domain"
	"github.com/sromero1905/scrapping-link/internal/metrics"
	"github.com/sromero1905/scrapping-link/internal/ports"
	"github.com/sromero1905/scrapping-link/internal/runreport"
)

// ErrPersistenceExhausted aborts the run: no sink and no emergency file held the batch.
var ErrPersistenceExhausted = errors.New("persistence exhausted")

const defaultSinkTimeout = 5 * time.Minute

// Options configures a Coordinator; zero values pick defaults.
type Options struct {
	SinkTimeout time.Duration
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
}

// Coordinator writes to all sinks concurrently.
type Coordinator struct {
	sinks       []Sink
	emergency   ports.EmergencyWriter
	sinkTimeout time.Duration
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

// NewCoordinator builds a coordinator over sinks with emergency as the last resort.
func NewCoordinator(sinks []Sink, emergency ports.EmergencyWriter, opts Options) *Coordinator {
	if opts.SinkTimeout <= 0 {
		opts.SinkTimeout = defaultSinkTimeout
	}
	return &Coordinator{
		sinks:       sinks,
		emergency:   emergency,
		sinkTimeout: opts.SinkTimeout,
		metrics:     opts.Metrics,
		logger:      opts.Logger,
	}
}

// Persist writes posts and summary to every sink and waits for all of them.
// When no sink succeeds the emergency writer is used; its failure returns
// ErrPersistenceExhausted.
func (c *Coordinator) Persist(ctx context.Context, posts []domain.GeneratedPost, summary domain.Summary) (domain.PersistenceOutcome, error) {
	results := make([]domain.StorageResult, len(c.sinks))

	var g errgroup.Group
	for i, sink := range c.sinks {
		i, sink := i, sink
		g.Go(func() error {
			results[i] = c.write(ctx, sink, posts, summary)
			return nil
		})
	}
	_ = g.Wait()

	outcome := domain.PersistenceOutcome{Results: results}
	for _, r := range results {
		c.metrics.SinkWrite(r.SinkID, r.Succeeded)
		for _, f := range r.RecordFailures {
			runreport.Record(ctx, runreport.PhaseStorage, fmt.Errorf("%s: post #%d: %s", r.SinkID, f.Ordinal, f.Error))
		}
		if !r.Succeeded {
			runreport.Record(ctx, runreport.PhaseStorage, fmt.Errorf("%s: %s", r.SinkID, r.ErrorDetail))
			c.warn("sink failed", "sink", r.SinkID, "error", r.ErrorDetail)
			continue
		}
		c.info("sink done", "sink", r.SinkID, "written", r.Written, "locator", r.Locator)
	}

	if outcome.Succeeded() > 0 {
		return outcome, nil
	}

	c.warn("no sink accepted the batch, writing emergency files", "sinks", len(c.sinks))
	if c.emergency == nil {
		return outcome, fmt.Errorf("%w: no emergency writer configured", ErrPersistenceExhausted)
	}
	files, err := c.emergency.WriteFiles(ctx, posts, summary)
	if err != nil {
		runreport.Record(ctx, runreport.PhaseStorage, fmt.Errorf("emergency writer: %w", err))
		return outcome, fmt.Errorf("%w: emergency writer: %w", ErrPersistenceExhausted, err)
	}

	outcome.UsedEmergencyFallback = true
	outcome.Emergency = &files
	c.info("emergency files written", "posts", files.PostsPath, "summary", files.SummaryPath)
	return outcome, nil
}

func (c *Coordinator) write(ctx context.Context, sink Sink, posts []domain.GeneratedPost, summary domain.Summary) (result domain.StorageResult) {
	defer func() {
		if r := recover(); r != nil {
			result = domain.StorageResult{SinkID: sink.ID(), ErrorDetail: fmt.Sprintf("panic: %v", r)}
		}
	}()

	sinkCtx, cancel := context.WithTimeout(ctx, c.sinkTimeout)
	defer cancel()

	start := time.Now()
	result = sink.Write(sinkCtx, posts, summary)
	if result.SinkID == "" {
		result.SinkID = sink.ID()
	}
	c.debug("sink finished", "sink", result.SinkID, "elapsed", time.Since(start), "ok", result.Succeeded)
	return result
}

func (c *Coordinator) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}

func (c *Coordinator) info(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Info(msg, args...)
	}
}

func (c *Coordinator) warn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}
