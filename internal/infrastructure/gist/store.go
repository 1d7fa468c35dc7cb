// Package gist stores documents as private GitHub gists.
package gist

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/google/go-github/v68/github"

	"github.com/sromero1905/scrapping-link/internal/config"
	"github.com/sromero1905/scrapping-link/internal/ports"
)

var unsafeFilename = regexp.MustCompile(`[^a-zA-Z0-9\-_ ]`)

// Store implements ports.DocumentStore.
type Store struct {
	client *github.Client
	public bool
}

var _ ports.DocumentStore = (*Store)(nil)

// NewStore authenticates with cfg.Token; cfg.BaseURL points at GitHub Enterprise or a test server.
func NewStore(cfg config.GistConfig) (*Store, error) {
	client := github.NewClient(&http.Client{Timeout: 30 * time.Second}).WithAuthToken(cfg.Token)
	if cfg.BaseURL != "" {
		base, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("parse gist base url: %w", err)
		}
		client.BaseURL = base
	}
	return &Store{client: client}, nil
}

func (s *Store) Name() string { return "gist" }

// CreateDocument uploads content as a single-file gist and returns its html URL.
func (s *Store) CreateDocument(ctx context.Context, title, content string) (string, error) {
	filename := Filename(title)
	gist, _, err := s.client.Gists.Create(ctx, &github.Gist{
		Description: github.Ptr("LinkedIn Content - " + title),
		Public:      github.Ptr(s.public),
		Files: map[github.GistFilename]github.GistFile{
			github.GistFilename(filename): {Content: github.Ptr(content)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("create gist %s: %w", filename, err)
	}
	if gist.GetHTMLURL() == "" {
		return "", fmt.Errorf("create gist %s: response without html_url", filename)
	}
	return gist.GetHTMLURL(), nil
}

// Filename strips title down to a safe markdown file name.
func Filename(title string) string {
	name := strings.TrimSpace(unsafeFilename.ReplaceAllString(title, ""))
	name = strings.Join(strings.Fields(name), "-")
	if name == "" {
		name = "document"
	}
	return name + ".md"
}
