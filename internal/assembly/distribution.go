package assembly

import (
	"fmt"
	"strings"

	"github.com/sromero1905/scrapping-link/internal/domain"
)

// Distribution is the number of posts requested per category.
type Distribution map[domain.Category]int

var (
	// ProductionDistribution is the full 100-post daily batch.
	ProductionDistribution = Distribution{
		domain.CategoryInformational: 40,
		domain.CategoryOpinion:       25,
		domain.CategoryHumor:         20,
		domain.CategoryNarrative:     15,
	}
	// TestingDistribution keeps test runs short and cheap.
	TestingDistribution = Distribution{
		domain.CategoryInformational: 4,
		domain.CategoryOpinion:       3,
		domain.CategoryHumor:         2,
		domain.CategoryNarrative:     1,
	}
)

// DefaultStyles is the tonal rotation applied across a batch.
var DefaultStyles = []string{
	"informational", "conversational", "analytical", "narrative", "humorous",
	"visionary", "critical", "explanatory", "provocative", "optimistic",
}

// Total sums the requested posts.
func (d Distribution) Total() int {
	total := 0
	for _, n := range d {
		if n > 0 {
			total += n
		}
	}
	return total
}

// Plan expands the distribution into one category per ordinal, in category order.
func (d Distribution) Plan() []domain.Category {
	plan := make([]domain.Category, 0, d.Total())
	for _, c := range domain.Categories {
		for i := 0; i < d[c]; i++ {
			plan = append(plan, c)
		}
	}
	return plan
}

// String renders "informational=40 opinion=25 ...".
func (d Distribution) String() string {
	parts := make([]string, 0, len(domain.Categories))
	for _, c := range domain.Categories {
		parts = append(parts, fmt.Sprintf("%s=%d", c, d[c]))
	}
	return strings.Join(parts, " ")
}
