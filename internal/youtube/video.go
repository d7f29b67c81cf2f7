package youtube

import (
	"time"

	yt "google.golang.org/api/youtube/v3"
)

type Thumbnails struct {
	Default string `json:"default,omitempty"`
	Medium  string `json:"medium,omitempty"`
	High    string `json:"high,omitempty"`
}

type Video struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	ChannelID    string        `json:"channelId"`
	ChannelTitle string        `json:"channelTitle"`
	CategoryID   string        `json:"categoryId,omitempty"`
	PublishedAt  time.Time     `json:"publishedAt"`
	Tags         []string      `json:"tags,omitempty"`
	Thumbnails   Thumbnails    `json:"thumbnails"`
	Duration     time.Duration `json:"-"`
	ViewCount    uint64        `json:"viewCount"`
	LikeCount    uint64        `json:"likeCount"`
	CommentCount uint64        `json:"commentCount"`

	FormattedDuration  string `json:"formattedDuration"`
	FormattedViewCount string `json:"formattedViewCount"`
	ChannelAvatar      string `json:"channelAvatar,omitempty"`
	ChannelSubscribers string `json:"channelSubscribers,omitempty"`

	hasDuration bool
}

// Page is one batch of videos plus the paging data YouTube reported for it.
type Page struct {
	Items          []Video `json:"items"`
	TotalResults   int64   `json:"totalResults"`
	ResultsPerPage int64   `json:"resultsPerPage"`
	NextPageToken  string  `json:"nextPageToken,omitempty"`
}

type Subscription struct {
	ChannelID string `json:"channelId"`
	Title     string `json:"title"`
	Thumbnail string `json:"thumbnail,omitempty"`
}

// Viewer carries the per-request inputs that shape API calls.
type Viewer struct {
	Region      string
	Language    string
	AccessToken string
}

func (v Viewer) SignedIn() bool {
	return v.AccessToken != ""
}

func fromAPIVideo(item *yt.Video) Video {
	v := Video{ID: item.Id}

	if s := item.Snippet; s != nil {
		v.Title = s.Title
		v.Description = s.Description
		v.ChannelID = s.ChannelId
		v.ChannelTitle = s.ChannelTitle
		v.CategoryID = s.CategoryId
		v.Tags = s.Tags
		v.PublishedAt, _ = time.Parse(time.RFC3339, s.PublishedAt)
		v.Thumbnails = fromAPIThumbnails(s.Thumbnails)
	}

	v.FormattedDuration = "0:00"
	if cd := item.ContentDetails; cd != nil && cd.Duration != "" {
		if d, ok := ParseDuration(cd.Duration); ok {
			v.Duration = d
			v.hasDuration = true
			v.FormattedDuration = FormatDuration(d)
		}
	}

	v.FormattedViewCount = "0"
	if st := item.Statistics; st != nil {
		v.ViewCount = st.ViewCount
		v.LikeCount = st.LikeCount
		v.CommentCount = st.CommentCount
		v.FormattedViewCount = FormatCount(st.ViewCount)
	}

	return v
}

func fromAPIThumbnails(t *yt.ThumbnailDetails) Thumbnails {
	if t == nil {
		return Thumbnails{}
	}
	return Thumbnails{
		Default: thumbnailURL(t.Default),
		Medium:  thumbnailURL(t.Medium),
		High:    thumbnailURL(t.High),
	}
}

func thumbnailURL(t *yt.Thumbnail) string {
	if t == nil {
		return ""
	}
	return t.Url
}

func fromAPIVideos(items []*yt.Video) []Video {
	videos := make([]Video, 0, len(items))
	for _, item := range items {
		if item == nil || item.Id == "" {
			continue
		}
		videos = append(videos, fromAPIVideo(item))
	}
	return videos
}

func searchVideoIDs(items []*yt.SearchResult, excludeID string) []string {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		if item == nil || item.Id == nil || item.Id.VideoId == "" {
			continue
		}
		if item.Id.VideoId == excludeID {
			continue
		}
		ids = append(ids, item.Id.VideoId)
	}
	return ids
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	unique := ids[:0:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	return unique
}

func withoutVideo(videos []Video, id string) []Video {
	kept := make([]Video, 0, len(videos))
	for _, v := range videos {
		if v.ID != id {
			kept = append(kept, v)
		}
	}
	return kept
}
