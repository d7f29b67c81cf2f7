package youtube

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"
	yt "google.golang.org/api/youtube/v3"
)

// Personalized feeds draw from at most this many subscribed channels.
const personalChannels = 5

func (c *Client) LikedVideos(ctx context.Context, v Viewer, max int) ([]Video, error) {
	max = clampMax(max, maxResultsLimit)
	svc, err := c.userService(ctx, v)
	if err != nil {
		return nil, err
	}

	req := svc.Videos.List(videoParts).MyRating("like").MaxResults(int64(max))
	resp, err := call(ctx, c, "videos.liked", func(ctx context.Context) (*yt.VideoListResponse, error) {
		return req.Context(ctx).Do()
	})
	if err != nil {
		return nil, err
	}
	return c.enrich(ctx, fromAPIVideos(resp.Items)), nil
}

func (c *Client) Subscriptions(ctx context.Context, v Viewer, max int) ([]Subscription, error) {
	max = clampMax(max, maxResultsLimit)
	svc, err := c.userService(ctx, v)
	if err != nil {
		return nil, err
	}

	req := svc.Subscriptions.List([]string{"snippet"}).Mine(true).MaxResults(int64(max))
	resp, err := call(ctx, c, "subscriptions.list", func(ctx context.Context) (*yt.SubscriptionListResponse, error) {
		return req.Context(ctx).Do()
	})
	if err != nil {
		return nil, err
	}

	subs := make([]Subscription, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item == nil || item.Snippet == nil || item.Snippet.ResourceId == nil {
			continue
		}
		sub := Subscription{
			ChannelID: item.Snippet.ResourceId.ChannelId,
			Title:     item.Snippet.Title,
		}
		if item.Snippet.Thumbnails != nil {
			sub.Thumbnail = thumbnailURL(item.Snippet.Thumbnails.Default)
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

// Personalized builds a feed from the latest uploads of the viewer's
// subscriptions. Signed-out viewers, and any failure along the way, get the
// popular chart instead.
func (c *Client) Personalized(ctx context.Context, v Viewer, max int) (Page, error) {
	max = clampMax(max, DefaultGridSize)
	if !v.SignedIn() {
		return c.Popular(ctx, v, max)
	}

	subs, err := c.Subscriptions(ctx, v, maxResultsLimit)
	if err != nil || len(subs) == 0 {
		if err != nil {
			slog.Warn("youtube: personalized feed failed, falling back to popular", "error", err)
		}
		return c.Popular(ctx, v, max)
	}
	if len(subs) > personalChannels {
		subs = subs[:personalChannels]
	}

	perChannel := (max + len(subs) - 1) / len(subs)
	buckets := make([][]string, len(subs))

	var g errgroup.Group
	for i, sub := range subs {
		g.Go(func() error {
			src := relatedSource{
				name:  "subscription",
				count: perChannel,
				configure: func(req *yt.SearchListCall) *yt.SearchListCall {
					return req.ChannelId(sub.ChannelID).Order("date")
				},
			}
			ids, err := c.searchSource(ctx, src, "")
			if err != nil {
				slog.Warn("youtube: subscription uploads failed", "channel_id", sub.ChannelID, "error", err)
				return nil
			}
			buckets[i] = ids
			return nil
		})
	}
	_ = g.Wait()

	var ids []string
	for _, b := range buckets {
		ids = append(ids, b...)
	}
	ids = dedupe(ids)
	if len(ids) > max {
		ids = ids[:max]
	}
	if len(ids) == 0 {
		return c.Popular(ctx, v, max)
	}

	videos, err := c.videosByID(ctx, "videos.personal", ids)
	if err != nil {
		slog.Warn("youtube: personalized details failed, falling back to popular", "error", err)
		return c.Popular(ctx, v, max)
	}
	videos = c.enrich(ctx, filterShorts(videos))

	return Page{
		Items:          videos,
		TotalResults:   int64(len(videos)),
		ResultsPerPage: int64(len(videos)),
	}, nil
}
