// Package qualitygate decides whether a post gets an image and which one.
package qualitygate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sromero1905/scrapping-link/internal/domain"
	"github.com/sromero1905/scrapping-link/internal/metrics"
	"github.com/sromero1905/scrapping-link/internal/ports"
	"github.com/sromero1905/scrapping-link/internal/runreport"
	"github.com/sromero1905/scrapping-link/internal/textparse"
)

// State is a node of the gate state machine.
type State string

const (
	StateNotEvaluated     State = "not_evaluated"
	StateNoImageNeeded    State = "no_image_needed"
	StateReusingOriginal  State = "reusing_original"
	StateSearchedExternal State = "searched_external"
	StateResolved         State = "resolved"
)

// Stage names the oracle question asked in a decision.
const (
	StageNecessity = "necessity"
	StageOriginal  = "original"
	StageSelection = "selection"
)

const (
	defaultCallTimeout = 60 * time.Second
	necessityTokens    = 50
	verdictTokens      = 200
)

// Result is the outcome of one Decide call.
type Result struct {
	Final     *domain.ImageCandidate
	Path      []State
	Decisions []domain.ImageDecision
}

// Ran reports whether the named stage asked the oracle.
func (r Result) Ran(stage string) bool {
	for _, d := range r.Decisions {
		if d.Stage == stage {
			return true
		}
	}
	return false
}

// Outcome labels the terminal path for metrics and logs.
func (r Result) Outcome() string {
	switch {
	case r.Final == nil && len(r.Path) > 1 && r.Path[1] == StateNoImageNeeded:
		return "not_needed"
	case r.Final == nil:
		return "no_image"
	case r.Final.Provider == domain.ProviderOriginal:
		return "original"
	default:
		return "external"
	}
}

// Options configures a Gate.
type Options struct {
	Profile     Profile
	CallTimeout time.Duration
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
}

// Gate runs the necessity, original-reuse and external-selection stages.
type Gate struct {
	oracle      ports.Oracle
	finder      ports.ImageFinder
	profile     Profile
	callTimeout time.Duration
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

// New builds a gate. A zero profile selects ProductionProfile.
func New(oracle ports.Oracle, finder ports.ImageFinder, opts Options) *Gate {
	if opts.Profile.Name == "" {
		opts.Profile = ProductionProfile
	}
	if opts.Profile.MaxCandidates <= 0 {
		opts.Profile.MaxCandidates = 3
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = defaultCallTimeout
	}
	return &Gate{
		oracle:      oracle,
		finder:      finder,
		profile:     opts.Profile,
		callTimeout: opts.CallTimeout,
		metrics:     opts.Metrics,
		logger:      opts.Logger,
	}
}

type evaluation struct {
	post     domain.GeneratedPost
	original *domain.ImageCandidate
	result   Result
}

// Decide walks the state machine for post. original is the image captured with
// the source article, or nil.
func (g *Gate) Decide(ctx context.Context, post domain.GeneratedPost, original *domain.ImageCandidate) Result {
	if original != nil && original.URL == "" {
		original = nil
	}
	ev := &evaluation{post: post, original: original}

	state := StateNotEvaluated
	ev.result.Path = append(ev.result.Path, state)
	for state != StateResolved {
		state = g.step(ctx, ev, state)
		ev.result.Path = append(ev.result.Path, state)
	}

	g.metrics.GateOutcome(ev.result.Outcome())
	g.debug("image decision", "post", post.Ordinal, "outcome", ev.result.Outcome(), "path", ev.result.Path)
	return ev.result
}

func (g *Gate) step(ctx context.Context, ev *evaluation, state State) State {
	switch state {
	case StateNotEvaluated:
		if !g.needsImage(ctx, ev) {
			return StateNoImageNeeded
		}
		if ev.original != nil {
			return StateReusingOriginal
		}
		return StateSearchedExternal
	case StateReusingOriginal:
		if g.reuseOriginal(ctx, ev) {
			return StateResolved
		}
		return StateSearchedExternal
	case StateSearchedExternal:
		g.searchExternal(ctx, ev)
		return StateResolved
	default:
		return StateResolved
	}
}

// needsImage fails closed: any error means no image.
func (g *Gate) needsImage(ctx context.Context, ev *evaluation) bool {
	decision := domain.ImageDecision{Stage: StageNecessity}
	defer func() { ev.result.Decisions = append(ev.result.Decisions, decision) }()

	reply, err := g.ask(ctx, necessityPrompt(ev.post), necessityTokens)
	if err != nil {
		g.record(ctx, ev, StageNecessity, err)
		decision.Rationale = "oracle error, treated as no image"
		return false
	}

	need, err := textparse.ParseYesNo(reply)
	if err != nil {
		decision.Rationale = "unparseable answer, treated as no image"
		return false
	}
	decision.Approved = need
	decision.Rationale = reply
	return need
}

func (g *Gate) reuseOriginal(ctx context.Context, ev *evaluation) bool {
	decision := domain.ImageDecision{Stage: StageOriginal}
	defer func() { ev.result.Decisions = append(ev.result.Decisions, decision) }()

	reply, err := g.ask(ctx, originalImagePrompt(ev.post, *ev.original), verdictTokens)
	if err != nil {
		g.record(ctx, ev, StageOriginal, err)
		decision.Rationale = "oracle error, treated as rejection"
		return false
	}

	score, err := textparse.ParseScore(reply)
	if err != nil {
		decision.Rationale = "no score in answer, treated as rejection"
		return false
	}
	decision.Score = &score
	decision.Rationale = reply

	if score < g.profile.OriginalApprovalScore {
		return false
	}

	chosen := *ev.original
	chosen.Provider = domain.ProviderOriginal
	chosen.QualityScore = score
	decision.Approved = true
	decision.Chosen = &chosen
	ev.result.Final = &chosen
	return true
}

func (g *Gate) searchExternal(ctx context.Context, ev *evaluation) {
	if g.finder == nil {
		return
	}

	candidates := g.finder.FindCandidates(ctx, ev.post.Body, ev.post.Category, g.profile.MaxCandidates)
	if len(candidates) == 0 {
		return
	}

	decision := domain.ImageDecision{Stage: StageSelection}
	defer func() { ev.result.Decisions = append(ev.result.Decisions, decision) }()

	reply, err := g.ask(ctx, selectionPrompt(ev.post, candidates), verdictTokens)
	if err != nil {
		g.record(ctx, ev, StageSelection, err)
		decision.Rationale = "oracle error, treated as rejection"
		return
	}

	choice, err := textparse.ParseOptionChoice(reply, len(candidates))
	if err != nil {
		if errors.Is(err, textparse.ErrRejected) {
			decision.Rationale = reply
		} else {
			decision.Rationale = "unparseable verdict, treated as rejection"
		}
		return
	}

	chosen := candidates[choice-1]
	decision.Approved = true
	decision.Chosen = &chosen
	decision.Rationale = reply
	ev.result.Final = &chosen
}

func (g *Gate) ask(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if g.oracle == nil {
		return "", fmt.Errorf("oracle is not configured")
	}
	callCtx, cancel := context.WithTimeout(ctx, g.callTimeout)
	defer cancel()
	return g.oracle.Complete(callCtx, prompt, maxTokens)
}

func (g *Gate) record(ctx context.Context, ev *evaluation, stage string, err error) {
	runreport.Record(ctx, runreport.PhaseImages, fmt.Errorf("post %d %s stage: %w", ev.post.Ordinal, stage, err))
	if g.logger != nil {
		g.logger.Warn("quality gate oracle failed", "post", ev.post.Ordinal, "stage", stage, "error", err)
	}
}

func (g *Gate) debug(msg string, args ...any) {
	if g.logger != nil {
		g.logger.Debug(msg, args...)
	}
}
