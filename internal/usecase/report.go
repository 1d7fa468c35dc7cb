package usecase

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/sromero1905/scrapping-link/internal/domain"
	"github.com/sromero1905/scrapping-link/internal/runreport"
)

// Report summarises one pipeline run.
type Report struct {
	RunID     string
	StartedAt time.Time
	Duration  time.Duration

	Scraped   int
	Curated   int
	Generated int
	WithImage int
	// ImageSources counts attached images per provider.
	ImageSources map[string]int

	Persistence domain.PersistenceOutcome
	Errors      []runreport.Entry
	// Failure is the unrecoverable error that aborted the run, if any.
	Failure error
}

// Succeeded reports whether the run completed without an unrecoverable failure.
func (r Report) Succeeded() bool { return r.Failure == nil }

// DocumentsCreated counts the locators handed back by sinks and the emergency writer.
func (r Report) DocumentsCreated() int {
	n := 0
	for _, res := range r.Persistence.Results {
		if !res.Succeeded {
			continue
		}
		if res.Locator != "" {
			n++
		}
		if res.SummaryLocator != "" && res.SummaryLocator != res.Locator {
			n++
		}
	}
	if e := r.Persistence.Emergency; e != nil {
		if e.PostsPath != "" {
			n++
		}
		if e.SummaryPath != "" {
			n++
		}
	}
	return n
}

// ErrorsByPhase groups recorded errors.
func (r Report) ErrorsByPhase() map[runreport.Phase]int {
	out := map[runreport.Phase]int{}
	for _, e := range r.Errors {
		out[e.Phase]++
	}
	return out
}

// Render writes the human tables followed by the KEY=value lines.
func (r Report) Render(w io.Writer) error {
	counts := table.NewWriter()
	counts.SetStyle(table.StyleLight)
	counts.SetTitle("Run " + r.RunID)
	counts.AppendHeader(table.Row{"Metric", "Value"})
	counts.AppendRows([]table.Row{
		{"Started", r.StartedAt.Format(time.RFC3339)},
		{"Duration", r.Duration.Round(time.Millisecond)},
		{"Scraped", r.Scraped},
		{"Curated", r.Curated},
		{"Generated", r.Generated},
		{"With image", r.WithImage},
		{"Documents", r.DocumentsCreated()},
		{"Status", r.status()},
	})
	if _, err := fmt.Fprintln(w, counts.Render()); err != nil {
		return err
	}

	if len(r.Persistence.Results) > 0 || r.Persistence.Emergency != nil {
		sinks := table.NewWriter()
		sinks.SetStyle(table.StyleLight)
		sinks.AppendHeader(table.Row{"Sink", "OK", "Written", "Locator", "Error"})
		sinks.SetColumnConfigs([]table.ColumnConfig{{Number: 5, WidthMax: 60}})
		for _, res := range r.Persistence.Results {
			sinks.AppendRow(table.Row{res.SinkID, res.Succeeded, res.Written, res.Locator, res.ErrorDetail})
		}
		if e := r.Persistence.Emergency; e != nil {
			sinks.AppendRow(table.Row{"emergency", true, r.Generated, e.PostsPath, ""})
		}
		if _, err := fmt.Fprintln(w, sinks.Render()); err != nil {
			return err
		}
	}

	if len(r.Errors) > 0 {
		errs := table.NewWriter()
		errs.SetStyle(table.StyleLight)
		errs.AppendHeader(table.Row{"Phase", "Error"})
		errs.SetColumnConfigs([]table.ColumnConfig{{Number: 2, WidthMax: 100}})
		for _, e := range r.Errors {
			errs.AppendRow(table.Row{e.Phase, e.Message})
		}
		if _, err := fmt.Fprintln(w, errs.Render()); err != nil {
			return err
		}
	}

	_, err := io.WriteString(w, r.KeyValues())
	return err
}

// KeyValues renders the machine-readable summary lines.
func (r Report) KeyValues() string {
	var b strings.Builder
	fmt.Fprintf(&b, "SCRAPED_ARTICLES=%d\n", r.Scraped)
	fmt.Fprintf(&b, "GENERATED_POSTS=%d\n", r.Generated)
	fmt.Fprintf(&b, "CREATED_DOCUMENTS=%d\n", r.DocumentsCreated())
	fmt.Fprintf(&b, "TOTAL_ERRORS=%d\n", len(r.Errors))
	fmt.Fprintf(&b, "EXECUTION_TIME=%.1fs\n", r.Duration.Seconds())
	return b.String()
}

// Message is the short plain-text form sent to notifiers.
func (r Report) Message() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Content pipeline %s: %s\n", r.RunID, r.status())
	fmt.Fprintf(&b, "Scraped %d, curated %d, generated %d (%d with image)\n", r.Scraped, r.Curated, r.Generated, r.WithImage)
	for _, res := range r.Persistence.Results {
		state := "ok"
		if !res.Succeeded {
			state = "failed"
		}
		fmt.Fprintf(&b, "- %s: %s", res.SinkID, state)
		if res.Locator != "" {
			fmt.Fprintf(&b, " %s", res.Locator)
		}
		b.WriteString("\n")
	}
	if e := r.Persistence.Emergency; e != nil {
		fmt.Fprintf(&b, "- emergency: %s\n", e.PostsPath)
	}

	byPhase := r.ErrorsByPhase()
	phases := make([]string, 0, len(byPhase))
	for p := range byPhase {
		phases = append(phases, string(p))
	}
	sort.Strings(phases)
	for _, p := range phases {
		fmt.Fprintf(&b, "Errors in %s: %d\n", p, byPhase[runreport.Phase(p)])
	}
	if r.Failure != nil {
		fmt.Fprintf(&b, "Failure: %v\n", r.Failure)
	}
	b.WriteString(r.KeyValues())
	return b.String()
}

func (r Report) status() string {
	switch {
	case r.Failure != nil:
		return "FAILED"
	case r.Persistence.UsedEmergencyFallback:
		return "OK (emergency fallback)"
	case len(r.Errors) > 0:
		return "OK with errors"
	default:
		return "OK"
	}
}
