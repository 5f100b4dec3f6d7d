package profile

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestYouTubeListerListUploads(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("channelId"); got != "UC123" {
			t.Errorf("channelId = %q, want UC123", got)
		}
		if got := r.URL.Query().Get("key"); got != "secret" {
			t.Errorf("key = %q, want secret", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items": [
			{"id": {"videoId": "abc"}, "snippet": {"title": "Talk", "publishedAt": "2026-01-01T00:00:00Z"}}
		]}`))
	}))
	defer srv.Close()

	lister, err := NewYouTubeLister(YouTubeListerConfig{APIKey: "secret", ChannelID: "UC123", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewYouTubeLister() error = %v", err)
	}

	videos, err := lister.ListUploads(context.Background())
	if err != nil {
		t.Fatalf("ListUploads() error = %v", err)
	}
	want := Video{Title: "Talk", URL: "https://www.youtube.com/watch?v=abc", Published: "2026-01-01T00:00:00Z"}
	if len(videos) != 1 || videos[0] != want {
		t.Errorf("ListUploads() = %+v, want [%+v]", videos, want)
	}
}

func TestInstagramListerListMedia(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("access_token"); got != "tok" {
			t.Errorf("access_token = %q, want tok", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data": [
			{"caption": "hike", "permalink": "https://instagram.com/p/1", "timestamp": "2026-02-01T00:00:00Z"}
		]}`))
	}))
	defer srv.Close()

	lister, err := NewInstagramLister(InstagramListerConfig{AccessToken: "tok", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewInstagramLister() error = %v", err)
	}

	posts, err := lister.ListMedia(context.Background())
	if err != nil {
		t.Fatalf("ListMedia() error = %v", err)
	}
	want := Media{Caption: "hike", URL: "https://instagram.com/p/1", Timestamp: "2026-02-01T00:00:00Z"}
	if len(posts) != 1 || posts[0] != want {
		t.Errorf("ListMedia() = %+v, want [%+v]", posts, want)
	}
}

func TestSocialListersStatusErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer srv.Close()

	yt, _ := NewYouTubeLister(YouTubeListerConfig{APIKey: "k", ChannelID: "c", BaseURL: srv.URL})
	if _, err := yt.ListUploads(context.Background()); err == nil {
		t.Error("ListUploads() error = nil, want status failure")
	}

	ig, _ := NewInstagramLister(InstagramListerConfig{AccessToken: "t", BaseURL: srv.URL})
	if _, err := ig.ListMedia(context.Background()); err == nil {
		t.Error("ListMedia() error = nil, want status failure")
	}
}
