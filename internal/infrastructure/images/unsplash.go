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

const unsplashBaseURL = "https://api.unsplash.com"

// Unsplash searches api.unsplash.com.
type Unsplash struct {
	accessKey string
	baseURL   string
	client    *http.Client
}

var _ imagesearch.Provider = (*Unsplash)(nil)

// NewUnsplash builds the provider from configuration.
func NewUnsplash(cfg config.ImageProviderConfig) *Unsplash {
	return &Unsplash{
		accessKey: cfg.APIKey,
		baseURL:   strings.TrimSuffix(firstNonEmpty(cfg.BaseURL, unsplashBaseURL), "/"),
		client:    newHTTPClient(cfg.Timeout),
	}
}

func (u *Unsplash) Name() string     { return "unsplash" }
func (u *Unsplash) Configured() bool { return u.accessKey != "" }

// Search runs a landscape photo search.
func (u *Unsplash) Search(ctx context.Context, keywords []string, limit int) ([]byte, error) {
	q := url.Values{}
	q.Set("query", strings.Join(keywords, " "))
	q.Set("per_page", strconv.Itoa(limit))
	q.Set("orientation", "landscape")

	return getJSON(ctx, u.client, u.baseURL+"/search/photos?"+q.Encode(), map[string]string{
		"Authorization":  "Client-ID " + u.accessKey,
		"Accept-Version": "v1",
	})
}

type unsplashResponse struct {
	Results []struct {
		URLs struct {
			Regular string `json:"regular"`
			Thumb   string `json:"thumb"`
		} `json:"urls"`
		AltDescription string `json:"alt_description"`
		Description    string `json:"description"`
		Width          int    `json:"width"`
		Height         int    `json:"height"`
		Likes          int    `json:"likes"`
		Links          struct {
			Download string `json:"download"`
		} `json:"links"`
		User struct {
			Name string `json:"name"`
		} `json:"user"`
	} `json:"results"`
}

// Normalize maps Unsplash photos to candidates; likes drive popularity.
func (u *Unsplash) Normalize(raw []byte) ([]domain.ImageCandidate, error) {
	var resp unsplashResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode unsplash response: %w", err)
	}

	out := make([]domain.ImageCandidate, 0, len(resp.Results))
	for _, photo := range resp.Results {
		out = append(out, domain.ImageCandidate{
			URL:          photo.URLs.Regular,
			ThumbnailURL: photo.URLs.Thumb,
			AltText:      firstNonEmpty(photo.AltDescription, photo.Description, "Unsplash image"),
			Width:        photo.Width,
			Height:       photo.Height,
			Provider:     u.Name(),
			QualityScore: imagesearch.EstimateQuality(photo.Width, photo.Height, photo.Likes),
			DownloadURL:  photo.Links.Download,
			Credit:       photo.User.Name,
		})
	}
	return out, nil
}
