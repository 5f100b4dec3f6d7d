package profile

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGitHubListerList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/avasant/repos" {
			t.Errorf("path = %q, want /users/avasant/repos", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"name": "folio", "description": "profile assistant", "html_url": "https://github.com/avasant/folio"},
			{"name": "dotfiles", "description": null, "html_url": "https://github.com/avasant/dotfiles"}
		]`))
	}))
	defer srv.Close()

	lister, err := NewGitHubLister(GitHubListerConfig{Owner: "avasant", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewGitHubLister() error = %v", err)
	}

	repos, err := lister.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(repos) != 2 {
		t.Fatalf("List() returned %d repos, want 2", len(repos))
	}
	want := Repo{Name: "folio", Description: "profile assistant", URL: "https://github.com/avasant/folio"}
	if repos[0] != want {
		t.Errorf("repos[0] = %+v, want %+v", repos[0], want)
	}
	if repos[1].Description != "" {
		t.Errorf("null description should decode as empty, got %q", repos[1].Description)
	}
}

func TestGitHubListerStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusForbidden)
	}))
	defer srv.Close()

	lister, err := NewGitHubLister(GitHubListerConfig{Owner: "avasant", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewGitHubLister() error = %v", err)
	}
	if _, err := lister.List(context.Background()); err == nil {
		t.Error("List() error = nil, want status failure")
	}
}

func TestNewGitHubListerRequiresOwner(t *testing.T) {
	if _, err := NewGitHubLister(GitHubListerConfig{}); err == nil {
		t.Error("NewGitHubLister() error = nil, want owner validation failure")
	}
}
