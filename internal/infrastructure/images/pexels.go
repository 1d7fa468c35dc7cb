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

const pexelsBaseURL = "https://api.pexels.com/v1"

// Pexels searches api.pexels.com.
type Pexels struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

var _ imagesearch.Provider = (*Pexels)(nil)

// NewPexels builds the provider from configuration.
func NewPexels(cfg config.ImageProviderConfig) *Pexels {
	return &Pexels{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimSuffix(firstNonEmpty(cfg.BaseURL, pexelsBaseURL), "/"),
		client:  newHTTPClient(cfg.Timeout),
	}
}

func (p *Pexels) Name() string     { return "pexels" }
func (p *Pexels) Configured() bool { return p.apiKey != "" }

// Search runs a landscape photo search.
func (p *Pexels) Search(ctx context.Context, keywords []string, limit int) ([]byte, error) {
	q := url.Values{}
	q.Set("query", strings.Join(keywords, " "))
	q.Set("per_page", strconv.Itoa(limit))
	q.Set("orientation", "landscape")

	return getJSON(ctx, p.client, p.baseURL+"/search?"+q.Encode(), map[string]string{
		"Authorization": p.apiKey,
	})
}

type pexelsResponse struct {
	Photos []struct {
		Src struct {
			Large    string `json:"large"`
			Medium   string `json:"medium"`
			Original string `json:"original"`
		} `json:"src"`
		Alt          string `json:"alt"`
		Photographer string `json:"photographer"`
		Width        int    `json:"width"`
		Height       int    `json:"height"`
	} `json:"photos"`
}

// Normalize maps Pexels photos to candidates. Pexels exposes no popularity signal.
func (p *Pexels) Normalize(raw []byte) ([]domain.ImageCandidate, error) {
	var resp pexelsResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode pexels response: %w", err)
	}

	out := make([]domain.ImageCandidate, 0, len(resp.Photos))
	for _, photo := range resp.Photos {
		out = append(out, domain.ImageCandidate{
			URL:          photo.Src.Large,
			ThumbnailURL: photo.Src.Medium,
			AltText:      firstNonEmpty(photo.Alt, "Pexels image"),
			Width:        photo.Width,
			Height:       photo.Height,
			Provider:     p.Name(),
			QualityScore: imagesearch.EstimateQuality(photo.Width, photo.Height, 0),
			DownloadURL:  photo.Src.Original,
			Credit:       photo.Photographer,
		})
	}
	return out, nil
}
