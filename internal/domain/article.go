package domain

import "time"

// RawItem is a news item captured by the crawler.
type RawItem struct {
	SourceID      string
	Title         string
	Body          string
	URL           string
	CapturedAt    time.Time
	PublishedAt   *time.Time
	OriginalImage *ImageCandidate
}

// CuratedItem is a raw item the filter step kept as relevant.
type CuratedItem struct {
	Item            RawItem
	OriginalIndex   int
	RelevanceReason string
	KeyPoints       []string
}

// Summary is the tech overview document persisted next to the posts.
type Summary struct {
	Title   string
	Content string
	Date    time.Time
}
