package assembly

import (
	"fmt"
	"strings"

	"github.com/sromero1905/scrapping-link/internal/domain"
)

const excerptLength = 300

var categoryLabels = map[domain.Category]string{
	domain.CategoryInformational: "INFORMATIONAL",
	domain.CategoryOpinion:       "OPINION",
	domain.CategoryHumor:         "HUMOR",
	domain.CategoryNarrative:     "NARRATIVE",
}

func filterPrompt(items []domain.RawItem) string {
	var b strings.Builder
	b.WriteString(`You curate technology and AI news. Select only the items that truly matter today:
- news that shapes the future of technology or AI
- major product or company announcements
- stories the tech community will discuss

Skip minor news, clickbait and content too technical for a general audience.

TODAY'S NEWS:
`)
	for i, item := range items {
		fmt.Fprintf(&b, "\n[%d] %s (%s)\nURL: %s\n%s\n", i+1, item.Title, item.SourceID, item.URL, excerpt(item.Body, excerptLength))
	}
	b.WriteString(`
Reply with JSON only:
{
  "selected_news": [
    {"original_index": 1, "title": "...", "source": "...", "url": "...",
     "relevance_reason": "why it matters", "key_points": ["point 1", "point 2"]}
  ],
  "filtering_summary": "how many items were selected and why"
}`)
	return b.String()
}

func generationPrompt(items []domain.CuratedItem, dist Distribution, styles []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You write LinkedIn posts about today's most relevant tech and AI news. Write %d unique posts.\n\nSELECTED NEWS:\n", dist.Total())
	for _, item := range items {
		fmt.Fprintf(&b, "- %s: %s\n  Relevance: %s\n  Key points: %s\n  URL: %s\n",
			item.Item.SourceID, item.Item.Title, item.RelevanceReason, strings.Join(item.KeyPoints, ", "), item.Item.URL)
	}

	b.WriteString("\nDISTRIBUTION:\n")
	for _, c := range domain.Categories {
		if dist[c] > 0 {
			fmt.Fprintf(&b, "- %d %s posts\n", dist[c], categoryLabels[c])
		}
	}

	if len(styles) > 0 {
		b.WriteString("\nSTYLE PLAN (one line per post):\n")
		for i, c := range dist.Plan() {
			fmt.Fprintf(&b, "POST #%d: %s, %s style\n", i+1, categoryLabels[c], styles[i%len(styles)])
		}
	}

	b.WriteString(`
RULES:
- every post is based on at least one of the selected news items
- a very relevant item may get several posts with different angles
- vary structure: short posts, lists, questions, longer narratives
- each post should feel written by a person

FORMAT (repeat for every post):
---
POST #[number] | [TYPE] | Source: [URL of the news item]
[post text]
[hashtags]
---`)
	return b.String()
}

func excerpt(text string, limit int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}
