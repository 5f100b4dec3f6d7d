package profile

import (
	"os"
	"path/filepath"
	"testing"
)

func writeDoc(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestLoadLibrary(t *testing.T) {
	dir := t.TempDir()
	cfg := LibraryConfig{
		ResumePath:     writeDoc(t, dir, "resume.md", "# Resume"),
		BioPath:        writeDoc(t, dir, "bio.md", "# Bio"),
		OldResumePath:  writeDoc(t, dir, "old.md", "# Old"),
		TranscriptPath: writeDoc(t, dir, "transcript.md", "# Transcript"),
	}

	lib, err := LoadLibrary(cfg)
	if err != nil {
		t.Fatalf("LoadLibrary() error = %v", err)
	}
	if lib.Resume() != "# Resume" || lib.Bio() != "# Bio" ||
		lib.OldResume() != "# Old" || lib.Transcript() != "# Transcript" {
		t.Error("loaded documents do not match source files")
	}
}

func TestLoadLibraryOptionalDocumentsMayBeOmitted(t *testing.T) {
	dir := t.TempDir()
	cfg := LibraryConfig{
		ResumePath: writeDoc(t, dir, "resume.md", "# Resume"),
		BioPath:    writeDoc(t, dir, "bio.md", "# Bio"),
	}

	lib, err := LoadLibrary(cfg)
	if err != nil {
		t.Fatalf("LoadLibrary() error = %v", err)
	}
	if lib.OldResume() != "" || lib.Transcript() != "" {
		t.Error("omitted optional documents should load as empty")
	}
}

func TestLoadLibraryFailures(t *testing.T) {
	dir := t.TempDir()
	resume := writeDoc(t, dir, "resume.md", "# Resume")
	bio := writeDoc(t, dir, "bio.md", "# Bio")

	cases := []struct {
		name string
		cfg  LibraryConfig
	}{
		{"missing resume path", LibraryConfig{BioPath: bio}},
		{"missing bio path", LibraryConfig{ResumePath: resume}},
		{"unreadable resume", LibraryConfig{ResumePath: filepath.Join(dir, "absent.md"), BioPath: bio}},
		{"unreadable optional", LibraryConfig{ResumePath: resume, BioPath: bio, TranscriptPath: filepath.Join(dir, "absent.md")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := LoadLibrary(tc.cfg); err == nil {
				t.Error("LoadLibrary() error = nil, want failure")
			}
		})
	}
}
