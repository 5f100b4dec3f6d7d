package agents

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	"github.com/avasant/folio-go/internal/logging"
	"github.com/avasant/folio-go/internal/profile"
	"github.com/avasant/folio-go/internal/rag"
)

// NoEvidenceFound is what the retrieve tool reports when reranking leaves no
// passages. The model must treat it as an explicit empty result, never as an
// invitation to fabricate.
const NoEvidenceFound = "No evidence found."

// DocumentLibrary exposes the static profile documents. *profile.Library
// satisfies it. An empty string means the document was not provided.
type DocumentLibrary interface {
	Resume() string
	Bio() string
	OldResume() string
	Transcript() string
}

// RepoLister fetches the subject's public repositories.
type RepoLister interface {
	List(ctx context.Context) ([]profile.Repo, error)
}

// Toolbox is the read-only tool set handed to the evidence agent. Tool
// failures are absorbed into model-visible error strings; the model can route
// around a single failed source.
type Toolbox struct {
	library  DocumentLibrary
	repos    RepoLister
	searcher rag.Searcher
}

// NewToolbox assembles the evidence toolbox. repos may be nil when no
// repository source is configured; the tool then reports unavailability.
func NewToolbox(library DocumentLibrary, repos RepoLister, searcher rag.Searcher) *Toolbox {
	return &Toolbox{library: library, repos: repos, searcher: searcher}
}

// Tools returns the eino tool set in a stable order.
func (t *Toolbox) Tools() []tool.BaseTool {
	return []tool.BaseTool{
		&staticDocTool{
			name:    "read_resume",
			desc:    "Read the subject's current resume in full. Best source for roles, skills, and dates.",
			support: SupportResume,
			read:    t.library.Resume,
		},
		&staticDocTool{
			name:    "read_profile_bio",
			desc:    "Read the subject's narrative bio. Best source for background, interests, and personality.",
			support: SupportAboutSubject,
			read:    t.library.Bio,
		},
		&staticDocTool{
			name:    "read_old_resume",
			desc:    "Read an older resume. Useful for early-career roles no longer on the current resume.",
			support: SupportOldResume,
			read:    t.library.OldResume,
		},
		&staticDocTool{
			name:    "read_transcript",
			desc:    "Read the subject's academic transcript. Best source for coursework and grades.",
			support: SupportAboutSubject,
			read:    t.library.Transcript,
		},
		&repoListTool{repos: t.repos},
		&retrieveTool{searcher: t.searcher},
	}
}

// toolPayload is the uniform JSON result shape every toolbox tool returns, so
// the model can copy the support tag into its claims.
type toolPayload struct {
	Support Support  `json:"support"`
	Content string   `json:"content,omitempty"`
	Items   []string `json:"items,omitempty"`
}

func (p toolPayload) encode() string {
	b, err := json.Marshal(p)
	if err != nil {
		return fmt.Sprintf("tool error: encoding result: %v", err)
	}
	return string(b)
}

// staticDocTool reads one preloaded profile document.
type staticDocTool struct {
	name    string
	desc    string
	support Support
	read    func() string
}

func (t *staticDocTool) Info(ctx context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name:        t.name,
		Desc:        t.desc,
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{}),
	}, nil
}

func (t *staticDocTool) InvokableRun(ctx context.Context, argumentsInJSON string, opts ...tool.Option) (string, error) {
	content := t.read()
	if content == "" {
		return fmt.Sprintf("tool error: the %s document is not available", t.name), nil
	}
	return toolPayload{Support: t.support, Content: content}.encode(), nil
}

// repoListTool lists the subject's public repositories.
type repoListTool struct {
	repos RepoLister
}

func (t *repoListTool) Info(ctx context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name:        "list_github_repos",
		Desc:        "List the subject's public GitHub repositories with name, description, and URL.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{}),
	}, nil
}

func (t *repoListTool) InvokableRun(ctx context.Context, argumentsInJSON string, opts ...tool.Option) (string, error) {
	if t.repos == nil {
		return "tool error: no repository source is configured", nil
	}

	repos, err := t.repos.List(ctx)
	if err != nil {
		logging.FromContext(ctx).Warn("repository listing failed", "error", err)
		return fmt.Sprintf("tool error: listing repositories: %v", err), nil
	}

	items := make([]string, 0, len(repos))
	for _, r := range repos {
		items = append(items, fmt.Sprintf("%s — %s (%s)", r.Name, r.Description, r.URL))
	}
	return toolPayload{Support: SupportExternalProfile, Items: items}.encode(), nil
}

// retrieveArgs is the input shape of the retrieve tool.
type retrieveArgs struct {
	SearchQuery string `json:"search_query"`
}

// retrieveTool delegates to the two-stage retrieval pipeline.
type retrieveTool struct {
	searcher rag.Searcher
}

func (t *retrieveTool) Info(ctx context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: "retrieve",
		Desc: "Search the private project-document corpus. Returns relevant passages, most relevant first. Use narrow, specific queries.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"search_query": {
				Type:     schema.String,
				Desc:     "A narrow search query describing the specific fact or project detail to find.",
				Required: true,
			},
		}),
	}, nil
}

func (t *retrieveTool) InvokableRun(ctx context.Context, argumentsInJSON string, opts ...tool.Option) (string, error) {
	var args retrieveArgs
	if err := json.Unmarshal([]byte(argumentsInJSON), &args); err != nil {
		return fmt.Sprintf("tool error: invalid arguments: %v", err), nil
	}
	if args.SearchQuery == "" {
		return "tool error: search_query must not be empty", nil
	}
	if t.searcher == nil {
		return "tool error: the document corpus is not configured", nil
	}

	docs, err := t.searcher.Search(ctx, args.SearchQuery, 0)
	if err != nil {
		logging.FromContext(ctx).Warn("retrieval failed", "query", args.SearchQuery, "error", err)
		return fmt.Sprintf("tool error: retrieval: %v", err), nil
	}
	if len(docs) == 0 {
		return NoEvidenceFound, nil
	}
	return toolPayload{Support: SupportRetrieved, Items: docs}.encode(), nil
}
