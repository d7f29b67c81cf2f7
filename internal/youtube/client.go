package youtube

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/vixel/vixel/internal/metrics"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"
)

const (
	DefaultGridSize    = 24
	DefaultRelatedSize = 12
	maxResultsLimit    = 50
	defaultRegion      = "US"
)

var videoParts = []string{"snippet", "contentDetails", "statistics"}

type Config struct {
	APIKey  string
	Timeout time.Duration
	// Options are appended to every service the client builds, after the
	// credentials. Tests use them to point the client at a fake backend.
	Options []option.ClientOption
}

type Client struct {
	svc     *yt.Service
	options []option.ClientOption
	breaker *gobreaker.CircuitBreaker[any]
	timeout time.Duration
	now     func() time.Time
}

type Channel struct {
	ID                string
	Title             string
	Avatar            string
	SubscriberCount   uint64
	HiddenSubscribers bool
	hasStatistics     bool
}

func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("youtube: API key is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	opts := append([]option.ClientOption{option.WithAPIKey(cfg.APIKey)}, cfg.Options...)
	svc, err := yt.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}

	return &Client{
		svc:     svc,
		options: cfg.Options,
		breaker: newBreaker("youtube-api"),
		timeout: timeout,
		now:     time.Now,
	}, nil
}

// BreakerState reports the circuit breaker state for health checks.
func (c *Client) BreakerState() string {
	return stateName(c.breaker.State())
}

// call runs one API request under the client timeout and circuit breaker and
// returns failures already classified as *APIError.
func call[T any](ctx context.Context, c *Client, op string, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	result, err := c.breaker.Execute(func() (any, error) {
		return fn(ctx)
	})
	metrics.YouTubeRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())

	if err != nil {
		outcome := "error"
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			outcome = "rejected"
		}
		metrics.YouTubeRequests.WithLabelValues(op, outcome).Inc()
		var zero T
		return zero, classify(err)
	}

	metrics.YouTubeRequests.WithLabelValues(op, "success").Inc()
	return result.(T), nil
}

func (c *Client) userService(ctx context.Context, v Viewer) (*yt.Service, error) {
	if !v.SignedIn() {
		return nil, classify(ErrSignInRequired)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: v.AccessToken, TokenType: "Bearer"})
	opts := append([]option.ClientOption{option.WithTokenSource(ts)}, c.options...)
	svc, err := yt.NewService(ctx, opts...)
	if err != nil {
		return nil, classify(fmt.Errorf("create user youtube service: %w", err))
	}
	return svc, nil
}

func (c *Client) publishedAfter(window time.Duration) string {
	return c.now().Add(-window).UTC().Format(time.RFC3339)
}

func clampMax(n, fallback int) int {
	if n <= 0 {
		return fallback
	}
	if n > maxResultsLimit {
		return maxResultsLimit
	}
	return n
}

func regionOrDefault(region string) string {
	if region == "" {
		return defaultRegion
	}
	return region
}

func pageFrom(videos []Video, info *yt.PageInfo, next string) Page {
	p := Page{Items: videos, NextPageToken: next}
	if info != nil {
		p.TotalResults = info.TotalResults
		p.ResultsPerPage = info.ResultsPerPage
	}
	return p
}

// Popular lists the region's most popular videos, without Shorts.
func (c *Client) Popular(ctx context.Context, v Viewer, max int) (Page, error) {
	return c.chart(ctx, v, "", max)
}

func (c *Client) chart(ctx context.Context, v Viewer, categoryID string, max int) (Page, error) {
	max = clampMax(max, DefaultGridSize)

	req := c.svc.Videos.List(videoParts).
		Chart("mostPopular").
		RegionCode(regionOrDefault(v.Region)).
		MaxResults(int64(max))
	op := "videos.popular"
	if categoryID != "" {
		req = req.VideoCategoryId(categoryID)
		op = "videos.category"
	}
	if v.Language != "" {
		req = req.Hl(v.Language)
	}

	resp, err := call(ctx, c, op, func(ctx context.Context) (*yt.VideoListResponse, error) {
		return req.Context(ctx).Do()
	})
	if err != nil {
		return Page{}, err
	}

	videos := filterShorts(fromAPIVideos(resp.Items))
	return pageFrom(c.enrich(ctx, videos), resp.PageInfo, resp.NextPageToken), nil
}

// Search finds recent medium-length videos matching query. Signed-in viewers
// get relevance ordering, everyone else the most viewed first.
func (c *Client) Search(ctx context.Context, v Viewer, query string, max int) (Page, error) {
	max = clampMax(max, DefaultGridSize)
	query = strings.TrimSpace(query)
	if query == "" {
		query = "trending"
	}

	order := "viewCount"
	if v.SignedIn() {
		order = "relevance"
	}

	req := c.svc.Search.List([]string{"snippet"}).
		Type("video").
		Q(query).
		MaxResults(int64(max)).
		Order(order).
		VideoDuration("medium").
		PublishedAfter(c.publishedAfter(30 * 24 * time.Hour))
	if v.Language != "" {
		req = req.RelevanceLanguage(v.Language)
	}

	resp, err := call(ctx, c, "search.list", func(ctx context.Context) (*yt.SearchListResponse, error) {
		return req.Context(ctx).Do()
	})
	if err != nil {
		return Page{}, err
	}

	ids := searchVideoIDs(resp.Items, "")
	if len(ids) == 0 {
		return Page{}, notFound("No videos found",
			"No videos found for \""+query+"\". Try different keywords!")
	}

	videos, err := c.videosByID(ctx, "videos.details", ids)
	if err != nil {
		return Page{}, err
	}

	videos = filterShorts(videos)
	return pageFrom(c.enrich(ctx, videos), resp.PageInfo, resp.NextPageToken), nil
}

// ByCategory lists popular videos of one category. Regions without a chart
// for the category fall back to a keyword search.
func (c *Client) ByCategory(ctx context.Context, v Viewer, categoryID string, max int) (Page, error) {
	if categoryID == "" || categoryID == CategoryAll {
		return c.Popular(ctx, v, max)
	}

	page, err := c.chart(ctx, v, categoryID, max)
	if err == nil && len(page.Items) > 0 {
		return page, nil
	}
	if err != nil {
		slog.Warn("youtube: category chart failed, trying search", "category", categoryID, "error", err)
	}

	return c.Search(ctx, v, CategoryKeywords(categoryID), max)
}

func (c *Client) VideoByID(ctx context.Context, v Viewer, id string) (Video, error) {
	videos, err := c.videosByID(ctx, "videos.get", []string{id})
	if err != nil {
		return Video{}, err
	}
	if len(videos) == 0 {
		return Video{}, notFound("Video not found",
			"Video not found! It might have been removed or made private.")
	}
	return c.enrich(ctx, videos[:1])[0], nil
}

func (c *Client) videosByID(ctx context.Context, op string, ids []string) ([]Video, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	req := c.svc.Videos.List(videoParts).Id(ids...)
	resp, err := call(ctx, c, op, func(ctx context.Context) (*yt.VideoListResponse, error) {
		return req.Context(ctx).Do()
	})
	if err != nil {
		return nil, err
	}
	return fromAPIVideos(resp.Items), nil
}

func (c *Client) ChannelDetails(ctx context.Context, ids []string) ([]Channel, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	req := c.svc.Channels.List([]string{"snippet", "statistics"}).Id(ids...).MaxResults(maxResultsLimit)
	resp, err := call(ctx, c, "channels.list", func(ctx context.Context) (*yt.ChannelListResponse, error) {
		return req.Context(ctx).Do()
	})
	if err != nil {
		return nil, err
	}

	channels := make([]Channel, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item == nil {
			continue
		}
		ch := Channel{ID: item.Id}
		if item.Snippet != nil {
			ch.Title = item.Snippet.Title
			if item.Snippet.Thumbnails != nil {
				ch.Avatar = thumbnailURL(item.Snippet.Thumbnails.Default)
			}
		}
		if item.Statistics != nil {
			ch.hasStatistics = true
			ch.SubscriberCount = item.Statistics.SubscriberCount
			ch.HiddenSubscribers = item.Statistics.HiddenSubscriberCount
		}
		channels = append(channels, ch)
	}
	return channels, nil
}

// enrich adds channel avatars and subscriber counts. Enrichment is cosmetic,
// so a failed channel lookup leaves the videos as they are.
func (c *Client) enrich(ctx context.Context, videos []Video) []Video {
	if len(videos) == 0 {
		return videos
	}

	var ids []string
	seen := make(map[string]bool)
	for _, video := range videos {
		if video.ChannelID != "" && !seen[video.ChannelID] {
			seen[video.ChannelID] = true
			ids = append(ids, video.ChannelID)
		}
	}

	channels, err := c.ChannelDetails(ctx, ids)
	if err != nil {
		slog.Warn("youtube: channel enrichment failed", "channels", len(ids), "error", err)
		return videos
	}

	byID := make(map[string]Channel, len(channels))
	for _, ch := range channels {
		byID[ch.ID] = ch
	}
	for i := range videos {
		ch, ok := byID[videos[i].ChannelID]
		if !ok {
			continue
		}
		videos[i].ChannelAvatar = ch.Avatar
		if ch.hasStatistics && !ch.HiddenSubscribers {
			videos[i].ChannelSubscribers = FormatCount(ch.SubscriberCount)
		}
	}
	return videos
}
