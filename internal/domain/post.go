package domain

import (
	"strings"
)

// Category is the closed set of post tones.
type Category string

const (
	CategoryInformational Category = "informational"
	CategoryOpinion       Category = "opinion"
	CategoryHumor         Category = "humor"
	CategoryNarrative     Category = "narrative"
)

// Categories lists every category in distribution order.
var Categories = []Category{
	CategoryInformational,
	CategoryOpinion,
	CategoryHumor,
	CategoryNarrative,
}

var categoryAliases = map[string]Category{
	"informational": CategoryInformational,
	"informative":   CategoryInformational,
	"informativo":   CategoryInformational,
	"opinion":       CategoryOpinion,
	"opinión":       CategoryOpinion,
	"humor":         CategoryHumor,
	"meme":          CategoryHumor,
	"narrative":     CategoryNarrative,
	"narrativo":     CategoryNarrative,
	"storytelling":  CategoryNarrative,
}

// ParseCategory maps a free-form label to a category.
// Unknown labels yield CategoryInformational and false.
func ParseCategory(label string) (Category, bool) {
	key := strings.ToLower(strings.Trim(strings.TrimSpace(label), "*[]"))
	if c, ok := categoryAliases[key]; ok {
		return c, true
	}
	return CategoryInformational, false
}

// GeneratedPost is one social post produced by the oracle.
type GeneratedPost struct {
	Ordinal    int
	Category   Category
	SourceRef  string
	Body       string
	Tags       []string
	WordCount  int
	FinalImage *ImageCandidate
}

// TagLine renders tags the way they appear under a post body.
func (p GeneratedPost) TagLine() string {
	return strings.Join(p.Tags, " ")
}

// HasImage reports whether the quality gate attached an image.
func (p GeneratedPost) HasImage() bool {
	return p.FinalImage != nil && p.FinalImage.URL != ""
}

// CountWords splits on whitespace.
func CountWords(body string) int {
	return len(strings.Fields(body))
}
