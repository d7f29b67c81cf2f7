package youtube

import (
	"context"
	"log/slog"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/vixel/vixel/internal/metrics"
	"golang.org/x/sync/errgroup"
	yt "google.golang.org/api/youtube/v3"
)

// Shares of the related list drawn from each source. They round up, so the
// combined candidates can exceed max before deduplication trims them.
const (
	categoryShare = 0.40
	keywordShare  = 0.35
	channelShare  = 0.25
)

var nonWordPattern = regexp.MustCompile(`[^\w\s]`)

type relatedSource struct {
	name  string
	count int
	// configure adds the source-specific filters; nil means the source is skipped.
	configure func(*yt.SearchListCall) *yt.SearchListCall
}

// Related recommends videos for the watch page. Candidates come from the
// current video's category, its title keywords and its channel, in that
// order of preference. Any hard failure falls back to popular videos.
func (c *Client) Related(ctx context.Context, v Viewer, current Video, max int) (Page, error) {
	max = clampMax(max, DefaultRelatedSize)

	page, err := c.related(ctx, v, current, max)
	if err != nil {
		slog.Warn("youtube: related videos failed, falling back to popular", "video_id", current.ID, "error", err)
		return c.popularExcluding(ctx, v, current.ID, max)
	}
	return page, nil
}

func (c *Client) related(ctx context.Context, v Viewer, current Video, max int) (Page, error) {
	categoryID := current.CategoryID
	if categoryID == "" {
		var err error
		categoryID, err = c.lookupCategory(ctx, current.ID)
		if err != nil {
			return Page{}, err
		}
	}

	sources := c.relatedSources(current, categoryID, max)
	buckets := make([][]string, len(sources))

	var g errgroup.Group
	for i, src := range sources {
		if src.configure == nil {
			continue
		}
		g.Go(func() error {
			ids, err := c.searchSource(ctx, src, current.ID)
			if err != nil {
				slog.Warn("youtube: related source failed", "source", src.name, "video_id", current.ID, "error", err)
				return nil
			}
			metrics.RelatedSourceVideos.WithLabelValues(src.name).Add(float64(len(ids)))
			buckets[i] = ids
			return nil
		})
	}
	_ = g.Wait()

	var candidates []string
	for _, ids := range buckets {
		candidates = append(candidates, ids...)
	}
	ids := dedupe(candidates)
	if len(ids) > max {
		ids = ids[:max]
	}

	if len(ids) == 0 {
		return c.popularExcluding(ctx, v, current.ID, max)
	}

	videos, err := c.videosByID(ctx, "videos.related", ids)
	if err != nil {
		return Page{}, err
	}
	videos = c.enrich(ctx, videos)

	return Page{
		Items:          videos,
		TotalResults:   int64(len(videos)),
		ResultsPerPage: int64(len(videos)),
	}, nil
}

func (c *Client) relatedSources(current Video, categoryID string, max int) []relatedSource {
	sources := []relatedSource{
		{name: "category", count: shareOf(max, categoryShare)},
		{name: "keyword", count: shareOf(max, keywordShare)},
		{name: "channel", count: shareOf(max, channelShare)},
	}

	if categoryID != "" {
		after := c.publishedAfter(90 * 24 * time.Hour)
		sources[0].configure = func(req *yt.SearchListCall) *yt.SearchListCall {
			return req.VideoCategoryId(categoryID).Order("relevance").PublishedAfter(after)
		}
	}

	if keywords := titleKeywords(current.Title); keywords != "" {
		after := c.publishedAfter(180 * 24 * time.Hour)
		sources[1].configure = func(req *yt.SearchListCall) *yt.SearchListCall {
			return req.Q(keywords).Order("relevance").PublishedAfter(after)
		}
	}

	if current.ChannelID != "" {
		sources[2].configure = func(req *yt.SearchListCall) *yt.SearchListCall {
			return req.ChannelId(current.ChannelID).Order("date")
		}
	}

	return sources
}

func (c *Client) searchSource(ctx context.Context, src relatedSource, excludeID string) ([]string, error) {
	req := src.configure(c.svc.Search.List([]string{"snippet"}).
		Type("video").
		VideoDuration("medium").
		MaxResults(int64(src.count)))

	resp, err := call(ctx, c, "search."+src.name, func(ctx context.Context) (*yt.SearchListResponse, error) {
		return req.Context(ctx).Do()
	})
	if err != nil {
		return nil, err
	}
	return searchVideoIDs(resp.Items, excludeID), nil
}

func (c *Client) lookupCategory(ctx context.Context, id string) (string, error) {
	req := c.svc.Videos.List([]string{"snippet"}).Id(id)
	resp, err := call(ctx, c, "videos.category_lookup", func(ctx context.Context) (*yt.VideoListResponse, error) {
		return req.Context(ctx).Do()
	})
	if err != nil {
		return "", err
	}
	if len(resp.Items) == 0 || resp.Items[0].Snippet == nil {
		return "", nil
	}
	return resp.Items[0].Snippet.CategoryId, nil
}

func (c *Client) popularExcluding(ctx context.Context, v Viewer, id string, max int) (Page, error) {
	page, err := c.Popular(ctx, v, max)
	if err != nil {
		return Page{}, err
	}
	page.Items = withoutVideo(page.Items, id)
	metrics.RelatedSourceVideos.WithLabelValues("popular").Add(float64(len(page.Items)))
	return page, nil
}

// titleKeywords picks the first two words longer than three characters
// once punctuation is stripped.
func titleKeywords(title string) string {
	cleaned := nonWordPattern.ReplaceAllString(title, "")
	var words []string
	for _, word := range strings.Split(cleaned, " ") {
		if len(word) > 3 {
			words = append(words, word)
		}
		if len(words) == 2 {
			break
		}
	}
	return strings.Join(words, " ")
}

func shareOf(max int, share float64) int {
	return int(math.Ceil(float64(max) * share))
}
