package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const (
	defaultYouTubeBaseURL   = "https://www.googleapis.com/youtube/v3"
	defaultInstagramBaseURL = "https://graph.instagram.com"
)

// Video is one published channel upload.
type Video struct {
	Title     string `json:"title"`
	URL       string `json:"url"`
	Published string `json:"published"`
}

// Media is one social post.
type Media struct {
	Caption   string `json:"caption"`
	URL       string `json:"url"`
	Timestamp string `json:"timestamp"`
}

// YouTubeListerConfig configures the uploads lister.
type YouTubeListerConfig struct {
	APIKey    string
	ChannelID string

	// BaseURL overrides the API base, for tests.
	BaseURL string

	// Timeout bounds each listing call. Defaults to 15s.
	Timeout time.Duration
}

// YouTubeLister fetches the subject's recent uploads via the YouTube Data
// API.
type YouTubeLister struct {
	apiKey    string
	channelID string
	baseURL   string
	client    *http.Client
}

// NewYouTubeLister constructs a YouTubeLister.
func NewYouTubeLister(cfg YouTubeListerConfig) (*YouTubeLister, error) {
	if cfg.APIKey == "" || cfg.ChannelID == "" {
		return nil, fmt.Errorf("profile: youtube api key and channel id must not be empty")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultYouTubeBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &YouTubeLister{
		apiKey:    cfg.APIKey,
		channelID: cfg.ChannelID,
		baseURL:   baseURL,
		client:    &http.Client{Timeout: timeout},
	}, nil
}

// ListUploads returns the channel's most recent uploads, newest first.
func (y *YouTubeLister) ListUploads(ctx context.Context) ([]Video, error) {
	q := url.Values{}
	q.Set("part", "snippet")
	q.Set("channelId", y.channelID)
	q.Set("order", "date")
	q.Set("type", "video")
	q.Set("maxResults", "25")
	q.Set("key", y.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, y.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("profile: creating uploads request: %w", err)
	}

	resp, err := y.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("profile: listing uploads: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("profile: listing uploads: status %d", resp.StatusCode)
	}

	var payload struct {
		Items []struct {
			ID struct {
				VideoID string `json:"videoId"`
			} `json:"id"`
			Snippet struct {
				Title       string `json:"title"`
				PublishedAt string `json:"publishedAt"`
			} `json:"snippet"`
		} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("profile: decoding uploads response: %w", err)
	}

	videos := make([]Video, 0, len(payload.Items))
	for _, item := range payload.Items {
		videos = append(videos, Video{
			Title:     item.Snippet.Title,
			URL:       "https://www.youtube.com/watch?v=" + item.ID.VideoID,
			Published: item.Snippet.PublishedAt,
		})
	}
	return videos, nil
}

// InstagramListerConfig configures the media lister.
type InstagramListerConfig struct {
	AccessToken string

	// BaseURL overrides the API base, for tests.
	BaseURL string

	// Timeout bounds each listing call. Defaults to 15s.
	Timeout time.Duration
}

// InstagramLister fetches the subject's recent posts via the Instagram Graph
// API.
type InstagramLister struct {
	accessToken string
	baseURL     string
	client      *http.Client
}

// NewInstagramLister constructs an InstagramLister.
func NewInstagramLister(cfg InstagramListerConfig) (*InstagramLister, error) {
	if cfg.AccessToken == "" {
		return nil, fmt.Errorf("profile: instagram access token must not be empty")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultInstagramBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &InstagramLister{
		accessToken: cfg.AccessToken,
		baseURL:     baseURL,
		client:      &http.Client{Timeout: timeout},
	}, nil
}

// ListMedia returns the account's recent posts, newest first.
func (i *InstagramLister) ListMedia(ctx context.Context) ([]Media, error) {
	q := url.Values{}
	q.Set("fields", "caption,permalink,timestamp")
	q.Set("access_token", i.accessToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, i.baseURL+"/me/media?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("profile: creating media request: %w", err)
	}

	resp, err := i.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("profile: listing media: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("profile: listing media: status %d", resp.StatusCode)
	}

	var payload struct {
		Data []struct {
			Caption   string `json:"caption"`
			Permalink string `json:"permalink"`
			Timestamp string `json:"timestamp"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("profile: decoding media response: %w", err)
	}

	posts := make([]Media, 0, len(payload.Data))
	for _, m := range payload.Data {
		posts = append(posts, Media{Caption: m.Caption, URL: m.Permalink, Timestamp: m.Timestamp})
	}
	return posts, nil
}
