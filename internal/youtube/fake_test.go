package youtube

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"google.golang.org/api/option"
)

var testNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

type fakeVideo struct {
	ID         string
	Title      string
	ChannelID  string
	CategoryID string
	Duration   string
	Views      uint64
}

type recordedCall struct {
	Endpoint string
	Query    url.Values
}

// fakeYouTube serves the subset of the Data API the client uses from an
// in-memory catalog. Tests override search results and inject failures,
// either per endpoint ("videos") or per videos.list mode ("videos:id",
// "videos:chart").
type fakeYouTube struct {
	mu       sync.Mutex
	calls    []recordedCall
	catalog  []fakeVideo
	failures map[string]int
	search   func(q url.Values) []string
	subs     []string
}

func newFakeYouTube(videos ...fakeVideo) *fakeYouTube {
	return &fakeYouTube{catalog: videos, failures: map[string]int{}}
}

func (f *fakeYouTube) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	endpoint := strings.TrimPrefix(r.URL.Path, "/youtube/v3/")
	q := r.URL.Query()

	f.mu.Lock()
	f.calls = append(f.calls, recordedCall{Endpoint: endpoint, Query: q})
	status, failing := f.failures[endpoint]
	if !failing && endpoint == "videos" {
		mode := "videos:chart"
		if q.Get("id") != "" {
			mode = "videos:id"
		}
		status, failing = f.failures[mode]
	}
	f.mu.Unlock()

	if failing {
		writeAPIError(w, status)
		return
	}

	switch endpoint {
	case "videos":
		f.serveVideos(w, q)
	case "search":
		f.serveSearch(w, q)
	case "channels":
		f.serveChannels(w, q)
	case "subscriptions":
		f.serveSubscriptions(w)
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeYouTube) callsTo(endpoint string) []recordedCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []recordedCall
	for _, c := range f.calls {
		if c.Endpoint == endpoint {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeYouTube) serveVideos(w http.ResponseWriter, q url.Values) {
	var items []map[string]any
	if ids := splitValues(q["id"]); len(ids) > 0 {
		for _, id := range ids {
			if v, ok := f.find(id); ok {
				items = append(items, videoJSON(v))
			}
		}
	} else {
		category := q.Get("videoCategoryId")
		for _, v := range f.catalog {
			if category != "" && v.CategoryID != category {
				continue
			}
			items = append(items, videoJSON(v))
		}
	}
	writeJSON(w, map[string]any{
		"items":    items,
		"pageInfo": map[string]any{"totalResults": len(items), "resultsPerPage": len(items)},
	})
}

func (f *fakeYouTube) serveSearch(w http.ResponseWriter, q url.Values) {
	var ids []string
	if f.search != nil {
		ids = f.search(q)
	} else {
		for _, v := range f.catalog {
			ids = append(ids, v.ID)
		}
	}
	items := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		items = append(items, map[string]any{
			"id":      map[string]any{"kind": "youtube#video", "videoId": id},
			"snippet": map[string]any{"title": "result " + id},
		})
	}
	writeJSON(w, map[string]any{
		"items":         items,
		"nextPageToken": "NEXT",
		"pageInfo":      map[string]any{"totalResults": 1000, "resultsPerPage": len(items)},
	})
}

func (f *fakeYouTube) serveChannels(w http.ResponseWriter, q url.Values) {
	var items []map[string]any
	for _, id := range splitValues(q["id"]) {
		items = append(items, map[string]any{
			"id": id,
			"snippet": map[string]any{
				"title":      "Channel " + id,
				"thumbnails": map[string]any{"default": map[string]any{"url": "https://yt3.ggpht.com/" + id}},
			},
			"statistics": map[string]any{"subscriberCount": "2500000", "hiddenSubscriberCount": false},
		})
	}
	writeJSON(w, map[string]any{"items": items})
}

func (f *fakeYouTube) serveSubscriptions(w http.ResponseWriter) {
	var items []map[string]any
	for _, id := range f.subs {
		items = append(items, map[string]any{
			"snippet": map[string]any{
				"title":      "Channel " + id,
				"resourceId": map[string]any{"kind": "youtube#channel", "channelId": id},
				"thumbnails": map[string]any{"default": map[string]any{"url": "https://yt3.ggpht.com/" + id}},
			},
		})
	}
	writeJSON(w, map[string]any{"items": items})
}

func (f *fakeYouTube) find(id string) (fakeVideo, bool) {
	for _, v := range f.catalog {
		if v.ID == id {
			return v, true
		}
	}
	return fakeVideo{}, false
}

func videoJSON(v fakeVideo) map[string]any {
	return map[string]any{
		"id": v.ID,
		"snippet": map[string]any{
			"title":        v.Title,
			"description":  "About " + v.Title,
			"channelId":    v.ChannelID,
			"channelTitle": "Channel " + v.ChannelID,
			"categoryId":   v.CategoryID,
			"publishedAt":  "2026-04-20T10:00:00Z",
			"thumbnails": map[string]any{
				"medium": map[string]any{"url": "https://i.ytimg.com/vi/" + v.ID + "/mqdefault.jpg"},
			},
		},
		"contentDetails": map[string]any{"duration": v.Duration},
		"statistics":     map[string]any{"viewCount": strconv.FormatUint(v.Views, 10), "likeCount": "42"},
	}
}

func writeJSON(w http.ResponseWriter, body any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

func writeAPIError(w http.ResponseWriter, status int) {
	reason, message := "backendError", "backend failure"
	switch status {
	case http.StatusForbidden:
		reason, message = "quotaExceeded", "The request cannot be completed because you have exceeded your quota."
	case http.StatusNotFound:
		reason, message = "notFound", "Not found"
	case http.StatusUnauthorized:
		reason, message = "authError", "Invalid Credentials"
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"code":    status,
			"message": message,
			"errors":  []map[string]any{{"reason": reason, "message": message}},
		},
	})
}

func splitValues(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func newTestClient(t *testing.T, fake *fakeYouTube) *Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	c, err := New(context.Background(), Config{
		APIKey: "test-key",
		Options: []option.ClientOption{
			option.WithEndpoint(srv.URL + "/"),
			option.WithHTTPClient(srv.Client()),
		},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	c.now = func() time.Time { return testNow }
	return c
}

func standardCatalog() []fakeVideo {
	return []fakeVideo{
		{ID: "vid00000001", Title: "Epic Guitar Solo Compilation", ChannelID: "chanA", CategoryID: "10", Duration: "PT5M30S", Views: 1_500_000},
		{ID: "vid00000002", Title: "Short clip", ChannelID: "chanA", CategoryID: "10", Duration: "PT45S", Views: 900},
		{ID: "vid00000003", Title: "Speedrun World Record", ChannelID: "chanB", CategoryID: "20", Duration: "PT1H2M3S", Views: 12_300},
		{ID: "vid00000004", Title: "Morning Routine Vlog", ChannelID: "chanC", CategoryID: "22", Duration: "PT12M", Views: 7},
	}
}
