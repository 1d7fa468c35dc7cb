package domain

import "testing"

func TestParseCategory(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		want  Category
		known bool
	}{
		"INFORMATIVO":      {CategoryInformational, true},
		" opinion ":        {CategoryOpinion, true},
		"MEME":             {CategoryHumor, true},
		"**STORYTELLING**": {CategoryNarrative, true},
		"narrative":        {CategoryNarrative, true},
		"poem":             {CategoryInformational, false},
	}

	for label, tc := range cases {
		got, known := ParseCategory(label)
		if got != tc.want || known != tc.known {
			t.Fatalf("ParseCategory(%q) = %s,%v; want %s,%v", label, got, known, tc.want, tc.known)
		}
	}
}

func TestCountWords(t *testing.T) {
	t.Parallel()

	if n := CountWords("  one two\nthree\tfour "); n != 4 {
		t.Fatalf("expected 4 words, got %d", n)
	}
}
