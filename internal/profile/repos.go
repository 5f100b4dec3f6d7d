package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const defaultGitHubBaseURL = "https://api.github.com"

// Repo is one public repository of the subject.
type Repo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

// GitHubListerConfig configures the repository lister.
type GitHubListerConfig struct {
	// Owner is the GitHub account whose repositories are listed.
	Owner string

	// BaseURL overrides the GitHub API base, for tests.
	BaseURL string

	// Timeout bounds each listing call. Defaults to 15s.
	Timeout time.Duration
}

// GitHubLister fetches the subject's public repositories via the GitHub REST
// API. Unauthenticated; the per-IP rate limit is ample for this use.
type GitHubLister struct {
	owner   string
	baseURL string
	client  *http.Client
}

// NewGitHubLister constructs a GitHubLister.
func NewGitHubLister(cfg GitHubListerConfig) (*GitHubLister, error) {
	if cfg.Owner == "" {
		return nil, fmt.Errorf("profile: github owner must not be empty")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultGitHubBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &GitHubLister{
		owner:   cfg.Owner,
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

// List returns the owner's public repositories, most recently updated first.
func (g *GitHubLister) List(ctx context.Context) ([]Repo, error) {
	url := fmt.Sprintf("%s/users/%s/repos?per_page=100&sort=updated", g.baseURL, g.owner)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("profile: creating repo request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("profile: listing repos: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("profile: listing repos: status %d", resp.StatusCode)
	}

	var payload []struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		HTMLURL     string `json:"html_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("profile: decoding repo response: %w", err)
	}

	repos := make([]Repo, 0, len(payload))
	for _, r := range payload {
		repos = append(repos, Repo{Name: r.Name, Description: r.Description, URL: r.HTMLURL})
	}
	return repos, nil
}
