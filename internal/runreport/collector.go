// Package runreport records the non-fatal errors of a pipeline run by phase.
package runreport

import (
	"context"
	"sync"
	"time"
)

// Phase names a pipeline stage in the final report.
type Phase string

const (
	PhaseScraping     Phase = "scraping"
	PhaseFiltering    Phase = "filtering"
	PhaseGeneration   Phase = "generation"
	PhaseImages       Phase = "images"
	PhaseStorage      Phase = "storage"
	PhaseNotification Phase = "notification"
)

// Entry is one recorded error.
type Entry struct {
	Phase   Phase
	Message string
	At      time.Time
}

// Collector accumulates entries; safe for concurrent use.
type Collector struct {
	mu      sync.Mutex
	entries []Entry
	now     func() time.Time
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{now: time.Now}
}

// Add records err under phase. Nil errors are ignored.
func (c *Collector) Add(phase Phase, err error) {
	if c == nil || err == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, Entry{Phase: phase, Message: err.Error(), At: c.now()})
}

// Entries returns a snapshot in recording order.
func (c *Collector) Entries() []Entry {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Len reports how many errors were recorded.
func (c *Collector) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

type collectorKey struct{}

// WithCollector attaches c to ctx.
func WithCollector(ctx context.Context, c *Collector) context.Context {
	return context.WithValue(ctx, collectorKey{}, c)
}

// FromContext returns the collector attached to ctx, or nil.
func FromContext(ctx context.Context) *Collector {
	c, _ := ctx.Value(collectorKey{}).(*Collector)
	return c
}

// Record adds err to the collector carried by ctx, if any.
func Record(ctx context.Context, phase Phase, err error) {
	FromContext(ctx).Add(phase, err)
}
