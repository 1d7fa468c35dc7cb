package qualitygate

import (
	"fmt"
	"strings"

	"github.com/sromero1905/scrapping-link/internal/domain"
)

func necessityPrompt(post domain.GeneratedPost) string {
	return fmt.Sprintf(`You review LinkedIn posts before publication.

POST TYPE: %s
POST:
%s

Would an image make this post clearly stronger? A confident text-only statement
is better alone than diluted by a mediocre picture.

Answer with a single word: YES or NO.`, post.Category, post.Body)
}

func originalImagePrompt(post domain.GeneratedPost, image domain.ImageCandidate) string {
	return fmt.Sprintf(`You judge whether an article's own image fits a LinkedIn post.

POST TYPE: %s
POST:
%s

IMAGE URL: %s
IMAGE DESCRIPTION: %s

Rate how well the image fits the post and how professional it looks.
Reply exactly in the form "Score: N/10" followed by one short sentence.`,
		post.Category, post.Body, image.URL, describe(image))
}

func selectionPrompt(post domain.GeneratedPost, candidates []domain.ImageCandidate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You pick an image for a LinkedIn post, or reject them all.\n\nPOST TYPE: %s\nPOST:\n%s\n\nOPTIONS:\n", post.Category, post.Body)
	for i, c := range candidates {
		fmt.Fprintf(&b, "OPTION %d: %s (provider %s, %dx%d, quality %d/10)\n", i+1, describe(c), c.Provider, c.Width, c.Height, c.QualityScore)
	}
	b.WriteString("\nOnly approve an image that is clearly relevant and professional.\n")
	b.WriteString("Reply with APPROVE_OPTION_N (N is the option number) or REJECT_ALL.")
	return b.String()
}

func describe(c domain.ImageCandidate) string {
	if strings.TrimSpace(c.AltText) == "" {
		return "no description"
	}
	return c.AltText
}
