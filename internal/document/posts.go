// Package document renders a batch of posts as a markdown document and reads
// it back.
package document

import (
	"bufio"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sromero1905/scrapping-link/internal/domain"
)

// ErrNoPosts is returned when a document holds no post block.
var ErrNoPosts = errors.New("document holds no posts")

const (
	separator    = "---"
	sourcePrefix = "**Source:** "
	imagePrefix  = "**Image:** "
	creditPrefix = "**Image source:** "
	tagsPrefix   = "**Tags:** "
)

var (
	titleCaser = cases.Title(language.English)
	headerExpr = regexp.MustCompile(`^## POST #(\d+) \| (\S+)\s*$`)
)

// Title names the posts document for date.
func Title(date time.Time) string {
	return "LinkedIn posts " + date.Format("2006-01-02")
}

// FormatPosts renders posts with an index header and a statistics footer.
func FormatPosts(posts []domain.GeneratedPost, date time.Time) string {
	counts := make(map[domain.Category]int, len(domain.Categories))
	words, withImage := 0, 0
	for _, p := range posts {
		counts[p.Category]++
		words += p.WordCount
		if p.HasImage() {
			withImage++
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", Title(date))
	fmt.Fprintf(&b, "Total posts: %d\n\n", len(posts))
	b.WriteString("## Index\n\n")
	for _, c := range domain.Categories {
		fmt.Fprintf(&b, "- %s: %d\n", titleCaser.String(string(c)), counts[c])
	}
	b.WriteString("\n" + separator + "\n\n")

	for _, p := range posts {
		fmt.Fprintf(&b, "## POST #%d | %s\n", p.Ordinal, strings.ToUpper(string(p.Category)))
		b.WriteString(sourcePrefix + p.SourceRef + "\n")
		if p.HasImage() {
			b.WriteString(imagePrefix + p.FinalImage.URL + "\n")
			if p.FinalImage.Provider != "" {
				b.WriteString(creditPrefix + p.FinalImage.Provider + "\n")
			}
		}
		b.WriteString("\n" + p.Body + "\n")
		if len(p.Tags) > 0 {
			b.WriteString("\n" + tagsPrefix + p.TagLine() + "\n")
		}
		b.WriteString("\n" + separator + "\n\n")
	}

	average := 0
	if len(posts) > 0 {
		average = words / len(posts)
	}
	b.WriteString("## Statistics\n\n")
	fmt.Fprintf(&b, "- Total posts: %d\n", len(posts))
	fmt.Fprintf(&b, "- Total words: %d\n", words)
	fmt.Fprintf(&b, "- Average words per post: %d\n", average)
	fmt.Fprintf(&b, "- Posts with image: %d\n", withImage)
	return b.String()
}

// ParsePosts reads back the post blocks of a document written by FormatPosts.
func ParsePosts(doc string) ([]domain.GeneratedPost, error) {
	var (
		posts   []domain.GeneratedPost
		current *domain.GeneratedPost
		body    []string
		inBody  bool
	)

	flush := func() {
		if current == nil {
			return
		}
		current.Body = strings.TrimSpace(strings.Join(body, "\n"))
		current.WordCount = domain.CountWords(current.Body)
		posts = append(posts, *current)
		current, body, inBody = nil, nil, false
	}

	scanner := bufio.NewScanner(strings.NewReader(doc))
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := scanner.Text()

		if m := headerExpr.FindStringSubmatch(line); m != nil {
			flush()
			ordinal, err := strconv.Atoi(m[1])
			if err != nil {
				return nil, fmt.Errorf("post header %q: %w", line, err)
			}
			category, _ := domain.ParseCategory(m[2])
			current = &domain.GeneratedPost{Ordinal: ordinal, Category: category}
			continue
		}
		if current == nil {
			continue
		}

		switch {
		case strings.TrimSpace(line) == separator:
			flush()
		case !inBody && strings.HasPrefix(line, sourcePrefix):
			current.SourceRef = strings.TrimPrefix(line, sourcePrefix)
		case !inBody && strings.HasPrefix(line, imagePrefix):
			current.FinalImage = &domain.ImageCandidate{URL: strings.TrimPrefix(line, imagePrefix)}
		case !inBody && strings.HasPrefix(line, creditPrefix):
			if current.FinalImage != nil {
				current.FinalImage.Provider = strings.TrimPrefix(line, creditPrefix)
			}
		case strings.HasPrefix(line, tagsPrefix):
			current.Tags = strings.Fields(strings.TrimPrefix(line, tagsPrefix))
		case !inBody && strings.TrimSpace(line) == "":
			inBody = true
		default:
			inBody = true
			body = append(body, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	flush()

	if len(posts) == 0 {
		return nil, ErrNoPosts
	}
	return posts, nil
}
