package assembly

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sromero1905/scrapping-link/internal/domain"
	"github.com/sromero1905/scrapping-link/internal/vocab"
)

const maxTrends = 3

// Bucket groups curated items by topic in the summary document.
type Bucket struct {
	Name    string
	matcher *vocab.Matcher
}

// Buckets are tried in order; the first match wins and the last one catches the rest.
var Buckets = []Bucket{
	{Name: "AI", matcher: vocab.New("ai", "artificial intelligence", "machine learning", "llm", "openai", "anthropic", "deepmind")},
	{Name: "Product", matcher: vocab.New("product", "launch", "feature", "update")},
	{Name: "Business", matcher: vocab.New("funding", "investment", "acquisition", "ipo", "market", "revenue")},
	{Name: "Community"},
}

var trendVocabulary = vocab.New(
	"ai", "artificial intelligence", "machine learning", "llm", "automation",
	"cloud", "api", "open source", "startup", "funding", "acquisition", "ipo",
)

// Trend is a recurring topic of the day.
type Trend struct {
	Title       string
	Description string
}

var genericTrends = []Trend{
	{Title: "CONTINUOUS INNOVATION", Description: "The tech ecosystem keeps a fast pace of launches and updates"},
	{Title: "AI COMPETITION", Description: "Tech companies keep investing heavily in artificial intelligence"},
	{Title: "TECHNOLOGY FOR EVERYONE", Description: "New tools make technology accessible to non-technical users"},
}

// BucketFor returns the first bucket whose vocabulary matches the item.
func BucketFor(item domain.CuratedItem) string {
	text := topicText(item)
	for _, b := range Buckets {
		if b.matcher == nil || b.matcher.Contains(text) {
			return b.Name
		}
	}
	return Buckets[len(Buckets)-1].Name
}

// Trends counts trend keywords across curated items and keeps at most three
// that appear in two or more items, padded with generic trends.
func Trends(curated []domain.CuratedItem) []Trend {
	texts := make([]string, len(curated))
	for i, item := range curated {
		texts[i] = topicText(item)
	}
	counts := trendVocabulary.Count(texts)

	terms := trendVocabulary.Terms()
	sort.SliceStable(terms, func(i, j int) bool { return counts[terms[i]] > counts[terms[j]] })

	trends := make([]Trend, 0, maxTrends)
	for _, term := range terms[:maxTrends] {
		if counts[term] >= 2 {
			trends = append(trends, Trend{
				Title:       strings.ToUpper(term),
				Description: fmt.Sprintf("%d stories mention %s, a sign of strong activity in this area", counts[term], term),
			})
		}
	}
	if len(trends) < maxTrends {
		trends = append(trends, genericTrends...)
	}
	return trends[:maxTrends]
}

// Summarize builds the tech overview document for the day.
func Summarize(curated []domain.CuratedItem, posts []domain.GeneratedPost, date time.Time) domain.Summary {
	title := "Tech & AI summary " + date.Format("2006-01-02")

	grouped := make(map[string][]domain.CuratedItem, len(Buckets))
	for _, item := range curated {
		name := BucketFor(item)
		grouped[name] = append(grouped[name], item)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "Curated stories: %d. Generated posts: %d.\n\n", len(curated), len(posts))

	if len(posts) > 0 {
		counts := make(map[domain.Category]int, len(domain.Categories))
		for _, p := range posts {
			counts[p.Category]++
		}
		b.WriteString("## Posts by type\n\n")
		for _, c := range domain.Categories {
			if counts[c] > 0 {
				fmt.Fprintf(&b, "- %s: %d\n", c, counts[c])
			}
		}
		b.WriteString("\n")
	}

	for _, bucket := range Buckets {
		items := grouped[bucket.Name]
		if len(items) == 0 {
			continue
		}
		fmt.Fprintf(&b, "## %s\n\n", bucket.Name)
		for _, item := range items {
			fmt.Fprintf(&b, "### %s\n", item.Item.Title)
			fmt.Fprintf(&b, "**Source:** %s\n", item.Item.SourceID)
			fmt.Fprintf(&b, "**Relevance:** %s\n", item.RelevanceReason)
			fmt.Fprintf(&b, "**Key points:** %s\n", strings.Join(item.KeyPoints, ", "))
			fmt.Fprintf(&b, "**URL:** %s\n\n", item.Item.URL)
		}
	}

	b.WriteString("## Key trends of the day\n\n")
	for i, t := range Trends(curated) {
		fmt.Fprintf(&b, "%d. **%s**\n   %s\n\n", i+1, t.Title, t.Description)
	}

	return domain.Summary{Title: title, Content: b.String(), Date: date}
}

func topicText(item domain.CuratedItem) string {
	return item.Item.Title + " " + strings.Join(item.KeyPoints, " ")
}
