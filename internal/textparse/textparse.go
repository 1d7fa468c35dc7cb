// Package textparse turns free-form oracle replies into structured values.
// Every function is pure and reports ErrUnparseable when the text does not
// carry the expected shape.
package textparse

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var (
	// ErrUnparseable marks a reply that does not contain the expected structure.
	ErrUnparseable = errors.New("unparseable oracle reply")
	// ErrRejected marks an explicit rejection in a choice reply.
	ErrRejected = errors.New("oracle rejected every option")
)

var (
	fenceExpr  = regexp.MustCompile("(?s)```[a-zA-Z0-9_-]*\\s*\n?(.*?)```")
	scoreExpr  = regexp.MustCompile(`(\d{1,2}(?:\.\d+)?)\s*/\s*10\b`)
	optionExpr = regexp.MustCompile(`(?i)(?:APPROVE|APROBAR)[_\s-]*(?:OPTION|OPCI[OÓ]N)[_\s-]*#?\s*(\d+)`)
	rejectExpr = regexp.MustCompile(`(?i)(?:REJECT|RECHAZAR)[_\s-]*(?:ALL|TODAS?)`)
)

// StripFences returns the content of the first fenced block, or the trimmed
// text when no fence is present.
func StripFences(text string) string {
	if m := fenceExpr.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(text)
}

// ExtractJSONObject returns the outermost {...} span of text after fence stripping.
func ExtractJSONObject(text string) (string, error) {
	body := StripFences(text)
	start := strings.Index(body, "{")
	end := strings.LastIndex(body, "}")
	if start < 0 || end <= start {
		return "", fmt.Errorf("%w: no json object", ErrUnparseable)
	}
	return body[start : end+1], nil
}

// DecodeJSON extracts a JSON object from text and decodes it into v.
func DecodeJSON(text string, v any) error {
	raw, err := ExtractJSONObject(text)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("%w: %v", ErrUnparseable, err)
	}
	return nil
}

// ParseYesNo reads the first yes/no token of a reply.
func ParseYesNo(text string) (bool, error) {
	words := strings.FieldsFunc(strings.ToUpper(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, w := range words {
		switch w {
		case "YES", "SÍ", "SI":
			return true, nil
		case "NO":
			return false, nil
		}
	}
	return false, fmt.Errorf("%w: no yes/no answer", ErrUnparseable)
}

// ParseScore extracts an "N/10" score in the range [0,10]. Fractional scores
// are rounded down.
func ParseScore(text string) (int, error) {
	m := scoreExpr.FindStringSubmatch(text)
	if m == nil {
		return 0, fmt.Errorf("%w: no N/10 score", ErrUnparseable)
	}
	score, err := strconv.ParseFloat(m[1], 64)
	if err != nil || score < 0 || score > 10 {
		return 0, fmt.Errorf("%w: score %q out of range", ErrUnparseable, m[1])
	}
	return int(math.Floor(score)), nil
}

// ParseOptionChoice reads an "APPROVE_OPTION_N" verdict against n options and
// returns the 1-based choice. An explicit rejection yields ErrRejected.
func ParseOptionChoice(text string, n int) (int, error) {
	if rejectExpr.MatchString(text) {
		return 0, ErrRejected
	}
	m := optionExpr.FindStringSubmatch(text)
	if m == nil {
		return 0, fmt.Errorf("%w: no option verdict", ErrUnparseable)
	}
	choice, err := strconv.Atoi(m[1])
	if err != nil || choice < 1 || choice > n {
		return 0, fmt.Errorf("%w: option %s outside 1..%d", ErrUnparseable, m[1], n)
	}
	return choice, nil
}
