package domain

// ProviderOriginal marks an image captured alongside the source article.
const ProviderOriginal = "original"

// ImageCandidate is an image offered by a provider or by the source article.
type ImageCandidate struct {
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
	AltText      string `json:"altText,omitempty"`
	Width        int    `json:"width,omitempty"`
	Height       int    `json:"height,omitempty"`
	Provider     string `json:"provider"`
	QualityScore int    `json:"qualityScore"`
	DownloadURL  string `json:"downloadUrl,omitempty"`
	Credit       string `json:"credit,omitempty"`
}

// ImageDecision is the verdict of a single quality gate stage.
type ImageDecision struct {
	Stage     string
	Approved  bool
	Score     *int
	Chosen    *ImageCandidate
	Rationale string
}
