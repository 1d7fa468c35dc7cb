package qualitygate

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/sromero1905/scrapping-link/internal/domain"
	"github.com/sromero1905/scrapping-link/internal/runreport"
)

type scriptedOracle struct {
	mu        sync.Mutex
	necessity func() (string, error)
	original  func() (string, error)
	selection func() (string, error)
	asked     []string
}

func (o *scriptedOracle) Complete(_ context.Context, prompt string, _ int) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch {
	case strings.Contains(prompt, "OPTIONS:"):
		o.asked = append(o.asked, StageSelection)
		return call(o.selection)
	case strings.Contains(prompt, "IMAGE URL:"):
		o.asked = append(o.asked, StageOriginal)
		return call(o.original)
	default:
		o.asked = append(o.asked, StageNecessity)
		return call(o.necessity)
	}
}

func call(fn func() (string, error)) (string, error) {
	if fn == nil {
		return "", errors.New("unexpected oracle call")
	}
	return fn()
}

func reply(text string) func() (string, error) {
	return func() (string, error) { return text, nil }
}

type countingFinder struct {
	candidates []domain.ImageCandidate
	calls      int
}

func (f *countingFinder) FindCandidates(_ context.Context, _ string, _ domain.Category, max int) []domain.ImageCandidate {
	f.calls++
	if len(f.candidates) > max {
		return f.candidates[:max]
	}
	return f.candidates
}

var samplePost = domain.GeneratedPost{
	Ordinal:  4,
	Category: domain.CategoryInformational,
	Body:     "Cloud spending doubled this year as AI workloads moved to production.",
}

var sampleOriginal = &domain.ImageCandidate{URL: "https://site/lead.jpg", AltText: "datacenter"}

func threeCandidates() []domain.ImageCandidate {
	return []domain.ImageCandidate{
		{URL: "https://img/1", Provider: "unsplash", QualityScore: 7},
		{URL: "https://img/2", Provider: "pexels", QualityScore: 6},
		{URL: "https://img/3", Provider: "pixabay", QualityScore: 5},
	}
}

func TestNoImageNeededSkipsEverything(t *testing.T) {
	t.Parallel()

	oracle := &scriptedOracle{necessity: reply("NO, the claim stands on its own.")}
	finder := &countingFinder{candidates: threeCandidates()}

	res := New(oracle, finder, Options{}).Decide(context.Background(), samplePost, sampleOriginal)

	if res.Final != nil {
		t.Fatalf("expected no image, got %+v", res.Final)
	}
	if finder.calls != 0 {
		t.Fatalf("aggregator was called %d times", finder.calls)
	}
	want := []State{StateNotEvaluated, StateNoImageNeeded, StateResolved}
	if diff := cmp.Diff(want, res.Path); diff != "" {
		t.Fatalf("unexpected path (-want +got):\n%s", diff)
	}
	if res.Outcome() != "not_needed" {
		t.Fatalf("unexpected outcome %s", res.Outcome())
	}
}

func TestOriginalImageApproved(t *testing.T) {
	t.Parallel()

	oracle := &scriptedOracle{
		necessity: reply("YES"),
		original:  reply("Score: 9/10 - on topic and crisp."),
	}
	finder := &countingFinder{candidates: threeCandidates()}

	res := New(oracle, finder, Options{Profile: ProductionProfile}).Decide(context.Background(), samplePost, sampleOriginal)

	if res.Final == nil || res.Final.URL != sampleOriginal.URL {
		t.Fatalf("expected original image, got %+v", res.Final)
	}
	if res.Final.Provider != domain.ProviderOriginal || res.Final.QualityScore != 9 {
		t.Fatalf("unexpected original stamp: %+v", res.Final)
	}
	if finder.calls != 0 {
		t.Fatalf("aggregator must not run after approval")
	}
	if res.Ran(StageSelection) {
		t.Fatalf("selection stage ran after approval")
	}
}

func TestOriginalBelowThresholdFallsThrough(t *testing.T) {
	t.Parallel()

	oracle := &scriptedOracle{
		necessity: reply("YES"),
		original:  reply("Score: 7/10"),
		selection: reply("APPROVE_OPTION_1"),
	}
	finder := &countingFinder{candidates: threeCandidates()}

	res := New(oracle, finder, Options{Profile: ProductionProfile}).Decide(context.Background(), samplePost, sampleOriginal)

	if res.Final == nil || res.Final.URL != "https://img/1" {
		t.Fatalf("expected external candidate 1, got %+v", res.Final)
	}
	want := []State{StateNotEvaluated, StateReusingOriginal, StateSearchedExternal, StateResolved}
	if diff := cmp.Diff(want, res.Path); diff != "" {
		t.Fatalf("unexpected path (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{StageNecessity, StageOriginal, StageSelection}, oracle.asked); diff != "" {
		t.Fatalf("unexpected stage order (-want +got):\n%s", diff)
	}
}

func TestTestingProfileAcceptsLowerScore(t *testing.T) {
	t.Parallel()

	oracle := &scriptedOracle{
		necessity: reply("YES"),
		original:  reply("Score: 7/10"),
	}
	finder := &countingFinder{candidates: threeCandidates()}

	res := New(oracle, finder, Options{Profile: TestingProfile}).Decide(context.Background(), samplePost, sampleOriginal)
	if res.Outcome() != "original" {
		t.Fatalf("expected original image under testing profile, got %s", res.Outcome())
	}
}

func TestExternalCandidateApproved(t *testing.T) {
	t.Parallel()

	oracle := &scriptedOracle{
		necessity: reply("Yes, a visual helps."),
		selection: reply("APPROVE_OPTION_2 - the most relevant."),
	}
	finder := &countingFinder{candidates: threeCandidates()}

	res := New(oracle, finder, Options{}).Decide(context.Background(), samplePost, nil)

	if res.Final == nil || res.Final.URL != "https://img/2" {
		t.Fatalf("expected candidate 2, got %+v", res.Final)
	}
	if res.Ran(StageOriginal) {
		t.Fatalf("original stage ran without an original image")
	}
	if finder.calls != 1 {
		t.Fatalf("expected one aggregator call, got %d", finder.calls)
	}
}

func TestSelectionRejectionsYieldNoImage(t *testing.T) {
	t.Parallel()

	for name, verdict := range map[string]string{
		"reject all":   "REJECT_ALL",
		"unparseable":  "I like the second one",
		"out of range": "APPROVE_OPTION_7",
	} {
		oracle := &scriptedOracle{necessity: reply("YES"), selection: reply(verdict)}
		finder := &countingFinder{candidates: threeCandidates()}

		res := New(oracle, finder, Options{}).Decide(context.Background(), samplePost, nil)
		if res.Final != nil {
			t.Fatalf("%s: expected no image, got %+v", name, res.Final)
		}
	}
}

func TestNoCandidatesSkipsSelection(t *testing.T) {
	t.Parallel()

	oracle := &scriptedOracle{necessity: reply("YES")}
	finder := &countingFinder{}

	res := New(oracle, finder, Options{}).Decide(context.Background(), samplePost, nil)
	if res.Final != nil || res.Ran(StageSelection) {
		t.Fatalf("expected no selection without candidates: %+v", res)
	}
}

func TestNecessityErrorFailsClosed(t *testing.T) {
	t.Parallel()

	collector := runreport.NewCollector()
	ctx := runreport.WithCollector(context.Background(), collector)

	oracle := &scriptedOracle{necessity: func() (string, error) { return "", errors.New("timeout") }}
	finder := &countingFinder{candidates: threeCandidates()}

	res := New(oracle, finder, Options{}).Decide(ctx, samplePost, sampleOriginal)

	if res.Final != nil || finder.calls != 0 {
		t.Fatalf("expected fail-closed decision, got %+v (finder calls %d)", res.Final, finder.calls)
	}
	if collector.Len() != 1 {
		t.Fatalf("expected the oracle error to be recorded, got %d entries", collector.Len())
	}
}

func TestOriginalErrorFallsThroughToSearch(t *testing.T) {
	t.Parallel()

	oracle := &scriptedOracle{
		necessity: reply("YES"),
		original:  func() (string, error) { return "", errors.New("502") },
		selection: reply("APPROVE_OPTION_3"),
	}
	finder := &countingFinder{candidates: threeCandidates()}

	res := New(oracle, finder, Options{}).Decide(context.Background(), samplePost, sampleOriginal)
	if res.Final == nil || res.Final.URL != "https://img/3" {
		t.Fatalf("expected candidate 3 after stage B error, got %+v", res.Final)
	}
}

func TestProfileByName(t *testing.T) {
	t.Parallel()

	p, err := ProfileByName("Testing")
	if err != nil || p.OriginalApprovalScore != 6 {
		t.Fatalf("unexpected testing profile %+v, err %v", p, err)
	}
	p, err = ProfileByName("")
	if err != nil || p.OriginalApprovalScore != 8 {
		t.Fatalf("unexpected default profile %+v, err %v", p, err)
	}
	if _, err := ProfileByName("lenient"); err == nil {
		t.Fatalf("expected unknown profile error")
	}
}
