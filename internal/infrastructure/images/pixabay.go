package images

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/sromero1905/scrapping-link/internal/config"
	"github.com/sromero1905/scrapping-link/internal/domain"
	"github.com/sromero1905/scrapping-link/internal/imagesearch"
)

const (
	pixabayBaseURL = "https://pixabay.com/api/"
	// Pixabay rejects per_page below 3.
	pixabayMinPerPage = 3
)

// Pixabay searches pixabay.com.
type Pixabay struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

var _ imagesearch.Provider = (*Pixabay)(nil)

// NewPixabay builds the provider from configuration.
func NewPixabay(cfg config.ImageProviderConfig) *Pixabay {
	return &Pixabay{
		apiKey:  cfg.APIKey,
		baseURL: firstNonEmpty(cfg.BaseURL, pixabayBaseURL),
		client:  newHTTPClient(cfg.Timeout),
	}
}

func (p *Pixabay) Name() string     { return "pixabay" }
func (p *Pixabay) Configured() bool { return p.apiKey != "" }

// Search runs a horizontal, safe-search photo query.
func (p *Pixabay) Search(ctx context.Context, keywords []string, limit int) ([]byte, error) {
	if limit < pixabayMinPerPage {
		limit = pixabayMinPerPage
	}

	q := url.Values{}
	q.Set("key", p.apiKey)
	q.Set("q", strings.Join(keywords, " "))
	q.Set("per_page", strconv.Itoa(limit))
	q.Set("image_type", "photo")
	q.Set("orientation", "horizontal")
	q.Set("min_width", "800")
	q.Set("min_height", "600")
	q.Set("safesearch", "true")

	return getJSON(ctx, p.client, p.baseURL+"?"+q.Encode(), nil)
}

type pixabayResponse struct {
	Hits []struct {
		WebformatURL    string `json:"webformatURL"`
		PreviewURL      string `json:"previewURL"`
		LargeImageURL   string `json:"largeImageURL"`
		Tags            string `json:"tags"`
		WebformatWidth  int    `json:"webformatWidth"`
		WebformatHeight int    `json:"webformatHeight"`
		Downloads       int    `json:"downloads"`
		User            string `json:"user"`
	} `json:"hits"`
}

// Normalize maps Pixabay hits to candidates; downloads drive popularity.
func (p *Pixabay) Normalize(raw []byte) ([]domain.ImageCandidate, error) {
	var resp pixabayResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode pixabay response: %w", err)
	}

	out := make([]domain.ImageCandidate, 0, len(resp.Hits))
	for _, hit := range resp.Hits {
		out = append(out, domain.ImageCandidate{
			URL:          hit.WebformatURL,
			ThumbnailURL: hit.PreviewURL,
			AltText:      firstNonEmpty(hit.Tags, "Pixabay image"),
			Width:        hit.WebformatWidth,
			Height:       hit.WebformatHeight,
			Provider:     p.Name(),
			QualityScore: imagesearch.EstimateQuality(hit.WebformatWidth, hit.WebformatHeight, hit.Downloads),
			DownloadURL:  hit.LargeImageURL,
			Credit:       hit.User,
		})
	}
	return out, nil
}
