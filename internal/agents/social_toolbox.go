package agents

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	"github.com/avasant/folio-go/internal/logging"
	"github.com/avasant/folio-go/internal/profile"
)

// VideoLister fetches the subject's published channel uploads.
type VideoLister interface {
	ListUploads(ctx context.Context) ([]profile.Video, error)
}

// MediaLister fetches the subject's recent social posts.
type MediaLister interface {
	ListMedia(ctx context.Context) ([]profile.Media, error)
}

// SocialToolbox is the public-persona agent's tool set. Either lister may be
// nil; the corresponding tool then reports unavailability instead of failing
// the run.
type SocialToolbox struct {
	videos VideoLister
	media  MediaLister
}

// NewSocialToolbox assembles the public-persona toolbox.
func NewSocialToolbox(videos VideoLister, media MediaLister) *SocialToolbox {
	return &SocialToolbox{videos: videos, media: media}
}

// Tools returns the eino tool set in a stable order.
func (t *SocialToolbox) Tools() []tool.BaseTool {
	return []tool.BaseTool{
		&videoListTool{videos: t.videos},
		&mediaListTool{media: t.media},
	}
}

type videoListTool struct {
	videos VideoLister
}

func (t *videoListTool) Info(ctx context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name:        "list_channel_uploads",
		Desc:        "List the subject's published YouTube uploads with title, URL, and publish date.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{}),
	}, nil
}

func (t *videoListTool) InvokableRun(ctx context.Context, argumentsInJSON string, opts ...tool.Option) (string, error) {
	if t.videos == nil {
		return "tool error: no video source is configured", nil
	}

	videos, err := t.videos.ListUploads(ctx)
	if err != nil {
		logging.FromContext(ctx).Warn("video listing failed", "error", err)
		return fmt.Sprintf("tool error: listing uploads: %v", err), nil
	}

	items := make([]string, 0, len(videos))
	for _, v := range videos {
		items = append(items, fmt.Sprintf("%s (%s) — %s", v.Title, v.Published, v.URL))
	}
	return toolPayload{Support: SupportExternalProfile, Items: items}.encode(), nil
}

type mediaListTool struct {
	media MediaLister
}

func (t *mediaListTool) Info(ctx context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name:        "list_social_posts",
		Desc:        "List the subject's recent Instagram posts with caption, URL, and timestamp.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{}),
	}, nil
}

func (t *mediaListTool) InvokableRun(ctx context.Context, argumentsInJSON string, opts ...tool.Option) (string, error) {
	if t.media == nil {
		return "tool error: no social-post source is configured", nil
	}

	posts, err := t.media.ListMedia(ctx)
	if err != nil {
		logging.FromContext(ctx).Warn("social-post listing failed", "error", err)
		return fmt.Sprintf("tool error: listing posts: %v", err), nil
	}

	items := make([]string, 0, len(posts))
	for _, p := range posts {
		items = append(items, fmt.Sprintf("%s (%s) — %s", p.Caption, p.Timestamp, p.URL))
	}
	return toolPayload{Support: SupportExternalProfile, Items: items}.encode(), nil
}
