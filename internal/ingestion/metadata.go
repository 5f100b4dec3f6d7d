package ingestion

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// sidecarSuffix is appended to a document path to locate its metadata sidecar
// (e.g. "projects/folio.md" → "projects/folio.md.meta.yaml").
const sidecarSuffix = ".meta.yaml"

// Metadata describes one corpus document for retrieval filtering. Sidecar
// files take precedence over inferred values — inference is the best-effort
// fallback when the corpus author didn't write explicit metadata.
type Metadata struct {
	// Category classifies the document kind (project, post, talk, note).
	Category string `yaml:"category"`
	// Project is the project or engagement the document describes.
	Project string `yaml:"project"`
	// Tags are free-form labels used for retrieval payload filtering.
	Tags []string `yaml:"tags"`
}

// LoadMetadata resolves metadata for path: the YAML sidecar when one exists,
// otherwise values inferred from the path. A malformed sidecar is an error —
// silently ignoring it would ingest the document with the wrong labels.
func LoadMetadata(path string) (Metadata, error) {
	sidecar := path + sidecarSuffix
	raw, err := os.ReadFile(sidecar)
	if os.IsNotExist(err) {
		return InferMetadata(path), nil
	}
	if err != nil {
		return Metadata{}, fmt.Errorf("reading sidecar %s: %w", sidecar, err)
	}

	m := InferMetadata(path)
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return Metadata{}, fmt.Errorf("parsing sidecar %s: %w", sidecar, err)
	}
	if m.Category == "" {
		m.Category = InferMetadata(path).Category
	}
	return m, nil
}

// isSidecar reports whether path is a metadata sidecar rather than a corpus
// document, so the directory walk doesn't ingest the metadata itself.
func isSidecar(path string) bool {
	return strings.HasSuffix(path, sidecarSuffix)
}

// categoryDirs maps directory names found in a corpus layout to the canonical
// category label.
var categoryDirs = map[string]string{
	"projects":  "project",
	"project":   "project",
	"posts":     "post",
	"blog":      "post",
	"writing":   "post",
	"talks":     "talk",
	"speaking":  "talk",
	"notes":     "note",
	"interview": "note",
}

// InferMetadata inspects the document path and returns best-effort metadata.
// The category comes from the nearest ancestor directory with a known name;
// the project defaults to the file's base name without extension.
//
// Supported layouts:
//
//	corpus/projects/{project}.md
//	corpus/projects/{project}/writeup.md
//	corpus/posts/{slug}.md
//	corpus/talks/{slug}.md
func InferMetadata(path string) Metadata {
	m := Metadata{
		Category: "note",
		Project:  strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
	}

	segments := strings.Split(filepath.ToSlash(filepath.Dir(path)), "/")
	for i := len(segments) - 1; i >= 0; i-- {
		seg := strings.ToLower(segments[i])
		if cat, ok := categoryDirs[seg]; ok {
			m.Category = cat
			// corpus/projects/{project}/writeup.md — the directory between the
			// category and the file names the project.
			if cat == "project" && i < len(segments)-1 {
				m.Project = segments[i+1]
			}
			break
		}
	}

	return m
}
