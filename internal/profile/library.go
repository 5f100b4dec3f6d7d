// Package profile holds the subject's static documents and the external
// profile fetchers (GitHub repositories, YouTube uploads, Instagram posts).
// Documents are loaded once at startup and read-only thereafter, safe for
// concurrent pipeline instances.
package profile

import (
	"fmt"
	"os"
)

// LibraryConfig names the document files to load. Resume and bio are
// required; old resume and transcript may be left empty.
type LibraryConfig struct {
	ResumePath     string
	BioPath        string
	OldResumePath  string
	TranscriptPath string
}

// Library is the loaded document set. Immutable after LoadLibrary returns.
type Library struct {
	resume     string
	bio        string
	oldResume  string
	transcript string
}

// LoadLibrary reads every configured document into memory. A missing required
// document or an unreadable configured path is a startup failure.
func LoadLibrary(cfg LibraryConfig) (*Library, error) {
	resume, err := readRequired(cfg.ResumePath, "resume")
	if err != nil {
		return nil, err
	}
	bio, err := readRequired(cfg.BioPath, "bio")
	if err != nil {
		return nil, err
	}
	oldResume, err := readOptional(cfg.OldResumePath, "old resume")
	if err != nil {
		return nil, err
	}
	transcript, err := readOptional(cfg.TranscriptPath, "transcript")
	if err != nil {
		return nil, err
	}

	return &Library{
		resume:     resume,
		bio:        bio,
		oldResume:  oldResume,
		transcript: transcript,
	}, nil
}

// NewLibrary builds a Library from in-memory documents. Used by tests and by
// callers that source documents outside the filesystem.
func NewLibrary(resume, bio, oldResume, transcript string) *Library {
	return &Library{resume: resume, bio: bio, oldResume: oldResume, transcript: transcript}
}

// Resume returns the current resume text.
func (l *Library) Resume() string { return l.resume }

// Bio returns the narrative bio text.
func (l *Library) Bio() string { return l.bio }

// OldResume returns the older resume text, empty when not configured.
func (l *Library) OldResume() string { return l.oldResume }

// Transcript returns the academic transcript text, empty when not configured.
func (l *Library) Transcript() string { return l.transcript }

func readRequired(path, name string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("profile: %s document path is required", name)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("profile: reading %s: %w", name, err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("profile: %s document %s is empty", name, path)
	}
	return string(data), nil
}

func readOptional(path, name string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("profile: reading %s: %w", name, err)
	}
	return string(data), nil
}
