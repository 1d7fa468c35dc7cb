package textparse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// PostBlock is one delimited post found in a generation reply.
type PostBlock struct {
	Ordinal   int
	Label     string
	SourceRef string
	Body      string
	Tags      []string
}

var (
	postHeaderExpr = regexp.MustCompile(`(?mi)^[ \t]*(?:-{3,}[ \t]*)?(?:#{1,3}[ \t]*)?\**[ \t]*POST[ \t]*#?[ \t]*(\d+)[ \t]*\|[ \t]*([^|\n]+?)[ \t]*\|[ \t]*\**(?:Source|Fuente)\**[ \t]*:[ \t]*(.+?)[ \t]*$`)
	hashtagExpr    = regexp.MustCompile(`^#[\p{L}\p{N}_]+$`)
)

// ParsePostBlocks splits a generation reply into post blocks.
// A block starts at a "POST #n | LABEL | Source: ref" header and runs until the
// next header or a "---" separator line. A trailing line carrying #word tokens
// becomes the tag list.
func ParsePostBlocks(text string) ([]PostBlock, error) {
	headers := postHeaderExpr.FindAllStringSubmatchIndex(text, -1)
	if len(headers) == 0 {
		return nil, fmt.Errorf("%w: no post headers", ErrUnparseable)
	}

	blocks := make([]PostBlock, 0, len(headers))
	for i, h := range headers {
		end := len(text)
		if i+1 < len(headers) {
			end = headers[i+1][0]
		}

		ordinal, err := strconv.Atoi(text[h[2]:h[3]])
		if err != nil {
			continue
		}

		body, tags := splitBody(text[h[1]:end])
		if body == "" {
			continue
		}

		blocks = append(blocks, PostBlock{
			Ordinal:   ordinal,
			Label:     strings.TrimSpace(strings.Trim(text[h[4]:h[5]], "*")),
			SourceRef: strings.TrimSpace(strings.Trim(text[h[6]:h[7]], "*")),
			Body:      body,
			Tags:      tags,
		})
	}

	if len(blocks) == 0 {
		return nil, fmt.Errorf("%w: post headers without bodies", ErrUnparseable)
	}
	return blocks, nil
}

func splitBody(raw string) (string, []string) {
	lines := strings.Split(raw, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "---" {
			break
		}
		kept = append(kept, strings.TrimRight(line, " \t\r"))
	}

	last := len(kept) - 1
	for last >= 0 && strings.TrimSpace(kept[last]) == "" {
		last--
	}
	if last < 0 {
		return "", nil
	}

	if tags := hashtagLine(kept[last]); tags != nil {
		return strings.TrimSpace(strings.Join(kept[:last], "\n")), tags
	}
	return strings.TrimSpace(strings.Join(kept[:last+1], "\n")), nil
}

// hashtagLine returns the tags of a line made only of hashtags, or nil.
func hashtagLine(line string) []string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	for _, field := range fields {
		if !hashtagExpr.MatchString(field) {
			return nil
		}
	}
	return fields
}
