package vocab

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFindKeepsVocabularyOrder(t *testing.T) {
	t.Parallel()

	m := New("startup", "cloud", "platform")
	got := m.Find("A new PLATFORM for the Cloud from a Startup")

	want := []string{"startup", "cloud", "platform"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected terms (-want +got):\n%s", diff)
	}
}

func TestFindNoMatch(t *testing.T) {
	t.Parallel()

	m := New("blockchain")
	if got := m.Find("weather report"); len(got) != 0 {
		t.Fatalf("expected no matches, got %v", got)
	}
	if m.Contains("weather report") {
		t.Fatalf("Contains reported a match")
	}
}

func TestCountOncePerText(t *testing.T) {
	t.Parallel()

	m := New("cloud", "funding")
	counts := m.Count([]string{
		"cloud cloud cloud",
		"cloud funding round",
		"nothing here",
	})

	if counts["cloud"] != 2 {
		t.Fatalf("expected cloud=2, got %d", counts["cloud"])
	}
	if counts["funding"] != 1 {
		t.Fatalf("expected funding=1, got %d", counts["funding"])
	}
}
