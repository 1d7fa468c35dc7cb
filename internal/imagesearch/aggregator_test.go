package imagesearch

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/sromero1905/scrapping-link/internal/domain"
	"github.com/sromero1905/scrapping-link/internal/runreport"
)

type fakeProvider struct {
	name       string
	configured bool
	candidates []domain.ImageCandidate
	err        error
	panics     bool
	calls      atomic.Int32
}

func (f *fakeProvider) Name() string     { return f.name }
func (f *fakeProvider) Configured() bool { return f.configured }

func (f *fakeProvider) Search(_ context.Context, _ []string, _ int) ([]byte, error) {
	f.calls.Add(1)
	if f.panics {
		panic("provider exploded")
	}
	if f.err != nil {
		return nil, f.err
	}
	return json.Marshal(f.candidates)
}

func (f *fakeProvider) Normalize(raw []byte) ([]domain.ImageCandidate, error) {
	var out []domain.ImageCandidate
	err := json.Unmarshal(raw, &out)
	return out, err
}

func img(url string, score int) domain.ImageCandidate {
	return domain.ImageCandidate{URL: url, QualityScore: score}
}

func TestFindCandidatesRanksByScoreThenPriority(t *testing.T) {
	t.Parallel()

	unsplash := &fakeProvider{name: "unsplash", configured: true, candidates: []domain.ImageCandidate{img("u1", 5), img("u2", 3)}}
	pexels := &fakeProvider{name: "pexels", configured: true, candidates: []domain.ImageCandidate{img("p1", 7), img("p2", 5)}}
	pixabay := &fakeProvider{name: "pixabay", configured: true, candidates: []domain.ImageCandidate{img("x1", 5)}}

	agg := New(NewRegistry(unsplash, pexels, pixabay), Options{})
	got := agg.FindCandidates(context.Background(), "cloud startup news", domain.CategoryInformational, 4)

	var urls []string
	for _, c := range got {
		urls = append(urls, c.URL)
	}
	want := []string{"p1", "u1", "p2", "x1"}
	if diff := cmp.Diff(want, urls); diff != "" {
		t.Fatalf("unexpected ranking (-want +got):\n%s", diff)
	}
	if got[1].Provider != "unsplash" {
		t.Fatalf("expected provider to be stamped, got %q", got[1].Provider)
	}
}

func TestFindCandidatesSkipsUnconfiguredProvider(t *testing.T) {
	t.Parallel()

	missing := &fakeProvider{name: "unsplash", configured: false, candidates: []domain.ImageCandidate{img("u1", 9)}}
	agg := New(NewRegistry(missing), Options{})

	got := agg.FindCandidates(context.Background(), "ai", domain.CategoryOpinion, 3)
	if len(got) != 0 {
		t.Fatalf("expected no candidates, got %d", len(got))
	}
	if missing.calls.Load() != 0 {
		t.Fatalf("unconfigured provider was called")
	}
}

func TestFindCandidatesAllProvidersFail(t *testing.T) {
	t.Parallel()

	collector := runreport.NewCollector()
	ctx := runreport.WithCollector(context.Background(), collector)

	agg := New(NewRegistry(
		&fakeProvider{name: "unsplash", configured: true, err: errors.New("rate limited")},
		&fakeProvider{name: "pexels", configured: true, panics: true},
		&fakeProvider{name: "pixabay", configured: true},
	), Options{})

	got := agg.FindCandidates(ctx, "crypto", domain.CategoryHumor, 3)
	if len(got) != 0 {
		t.Fatalf("expected empty result, got %v", got)
	}
	if collector.Len() != 2 {
		t.Fatalf("expected 2 recorded provider errors, got %d", collector.Len())
	}
}

func TestFindCandidatesUsesCache(t *testing.T) {
	t.Parallel()

	p := &fakeProvider{name: "pexels", configured: true, candidates: []domain.ImageCandidate{img("p1", 4), img("p2", 2)}}
	agg := New(NewRegistry(p), Options{})

	first := agg.FindCandidates(context.Background(), "machine learning data", domain.CategoryNarrative, 3)
	second := agg.FindCandidates(context.Background(), "machine learning data", domain.CategoryNarrative, 3)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("repeated search differs (-first +second):\n%s", diff)
	}
	if p.calls.Load() != 1 {
		t.Fatalf("expected a single provider call, got %d", p.calls.Load())
	}
}

func TestFindCandidatesDoesNotCacheFailures(t *testing.T) {
	t.Parallel()

	p := &fakeProvider{name: "unsplash", configured: true, err: errors.New("boom")}
	agg := New(NewRegistry(p), Options{})

	agg.FindCandidates(context.Background(), "web", domain.CategoryOpinion, 3)
	agg.FindCandidates(context.Background(), "web", domain.CategoryOpinion, 3)

	if p.calls.Load() != 2 {
		t.Fatalf("expected failures to be retried, got %d calls", p.calls.Load())
	}
}

func TestKeywords(t *testing.T) {
	t.Parallel()

	got := Keywords("A startup ships a cloud platform", domain.CategoryInformational)
	want := []string{"technology", "business", "innovation", "startup"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected keywords (-want +got):\n%s", diff)
	}

	got = Keywords("nothing relevant here", domain.Category("unknown"))
	want = []string{"technology", "business", "innovation"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected fallback keywords (-want +got):\n%s", diff)
	}

	got = Keywords("Machine learning on the web", domain.CategoryHumor)
	want = []string{"funny", "creative", "humor", "machine-learning"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected hyphenated keywords (-want +got):\n%s", diff)
	}
}

func TestEstimateQuality(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name                      string
		width, height, popularity int
		want                      int
	}{
		{"large landscape popular", 1920, 1080, 5000, 7},
		{"mid landscape", 1280, 800, 500, 5},
		{"small square", 600, 600, 0, 1},
		{"tiny portrait", 300, 600, 50, 0},
		{"panorama", 2400, 1000, 150, 5},
		{"zero height", 1000, 0, 0, 0},
	}

	for _, tc := range cases {
		if got := EstimateQuality(tc.width, tc.height, tc.popularity); got != tc.want {
			t.Fatalf("%s: EstimateQuality = %d, want %d", tc.name, got, tc.want)
		}
	}
}

func TestCacheKeySortsKeywords(t *testing.T) {
	t.Parallel()

	if CacheKey("pexels", []string{"b", "a"}) != CacheKey("pexels", []string{"a", "b"}) {
		t.Fatalf("cache key depends on keyword order")
	}
	if CacheKey("pexels", []string{"a"}) == CacheKey("pixabay", []string{"a"}) {
		t.Fatalf("cache key ignores provider")
	}
}
