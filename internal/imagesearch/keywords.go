package imagesearch

import (
	"strings"

	"github.com/sromero1905/scrapping-link/internal/domain"
	"github.com/sromero1905/scrapping-link/internal/vocab"
)

const (
	maxKeywords        = 4
	maxContentKeywords = 2
)

var categoryKeywords = map[domain.Category][]string{
	domain.CategoryInformational: {"technology", "business", "innovation"},
	domain.CategoryOpinion:       {"concept", "abstract", "thinking"},
	domain.CategoryHumor:         {"funny", "creative", "humor"},
	domain.CategoryNarrative:     {"people", "success", "growth"},
}

var techVocabulary = vocab.New(
	"ai", "artificial intelligence", "machine learning", "startup",
	"technology", "innovation", "digital", "software", "app", "platform",
	"data", "cloud", "blockchain", "crypto", "mobile", "web", "internet",
	"computer", "coding",
)

// Keywords derives the search terms for a post: the category set first, then
// vocabulary terms found in query, capped at four.
func Keywords(query string, category domain.Category) []string {
	base, ok := categoryKeywords[category]
	if !ok {
		base = categoryKeywords[domain.CategoryInformational]
	}

	out := make([]string, 0, maxKeywords+maxContentKeywords)
	out = append(out, base...)

	added := 0
	for _, term := range techVocabulary.Find(query) {
		if added == maxContentKeywords {
			break
		}
		kw := strings.ReplaceAll(term, " ", "-")
		if containsString(out, kw) {
			continue
		}
		out = append(out, kw)
		added++
	}

	if len(out) > maxKeywords {
		out = out[:maxKeywords]
	}
	return out
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
