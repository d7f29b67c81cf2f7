package youtube

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"
)

func TestNew_RequiresAPIKey(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatal("expected error for empty API key")
	}
}

func TestPopular_FiltersShortsAndEnrichesChannels(t *testing.T) {
	fake := newFakeYouTube(standardCatalog()...)
	c := newTestClient(t, fake)

	page, err := c.Popular(context.Background(), Viewer{Region: "GB", Language: "en"}, 10)
	if err != nil {
		t.Fatalf("Popular: %v", err)
	}

	if len(page.Items) != 3 {
		t.Fatalf("expected 3 videos after dropping the short, got %d", len(page.Items))
	}
	for _, v := range page.Items {
		if v.ID == "vid00000002" {
			t.Error("expected short video to be filtered out")
		}
		if v.ChannelAvatar != "https://yt3.ggpht.com/"+v.ChannelID {
			t.Errorf("expected channel avatar for %s, got %q", v.ID, v.ChannelAvatar)
		}
		if v.ChannelSubscribers != "2.5M" {
			t.Errorf("expected subscribers 2.5M, got %q", v.ChannelSubscribers)
		}
	}

	first := page.Items[0]
	if first.FormattedDuration != "5:30" {
		t.Errorf("expected formatted duration 5:30, got %q", first.FormattedDuration)
	}
	if first.FormattedViewCount != "1.5M" {
		t.Errorf("expected formatted views 1.5M, got %q", first.FormattedViewCount)
	}

	calls := fake.callsTo("videos")
	if len(calls) != 1 {
		t.Fatalf("expected 1 videos call, got %d", len(calls))
	}
	q := calls[0].Query
	if q.Get("chart") != "mostPopular" {
		t.Errorf("expected chart=mostPopular, got %q", q.Get("chart"))
	}
	if q.Get("regionCode") != "GB" {
		t.Errorf("expected regionCode GB, got %q", q.Get("regionCode"))
	}
	if q.Get("hl") != "en" {
		t.Errorf("expected hl en, got %q", q.Get("hl"))
	}
	if q.Get("maxResults") != "10" {
		t.Errorf("expected maxResults 10, got %q", q.Get("maxResults"))
	}
}

func TestPopular_DefaultsRegionAndSize(t *testing.T) {
	fake := newFakeYouTube(standardCatalog()...)
	c := newTestClient(t, fake)

	if _, err := c.Popular(context.Background(), Viewer{}, 0); err != nil {
		t.Fatalf("Popular: %v", err)
	}

	q := fake.callsTo("videos")[0].Query
	if q.Get("regionCode") != "US" {
		t.Errorf("expected default region US, got %q", q.Get("regionCode"))
	}
	if q.Get("maxResults") != "24" {
		t.Errorf("expected default size 24, got %q", q.Get("maxResults"))
	}
	if q.Get("hl") != "" {
		t.Errorf("expected no hl parameter, got %q", q.Get("hl"))
	}
}

func TestPopular_QuotaErrorIsClassified(t *testing.T) {
	fake := newFakeYouTube(standardCatalog()...)
	fake.failures["videos"] = http.StatusForbidden
	c := newTestClient(t, fake)

	_, err := c.Popular(context.Background(), Viewer{}, 10)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Kind != KindQuota {
		t.Errorf("expected quota kind, got %q", apiErr.Kind)
	}
	if apiErr.CanRetry {
		t.Error("expected quota errors not to be retryable")
	}
}

func TestPopular_EnrichmentFailureKeepsVideos(t *testing.T) {
	fake := newFakeYouTube(standardCatalog()...)
	fake.failures["channels"] = http.StatusInternalServerError
	c := newTestClient(t, fake)

	page, err := c.Popular(context.Background(), Viewer{}, 10)
	if err != nil {
		t.Fatalf("Popular: %v", err)
	}
	if len(page.Items) != 3 {
		t.Fatalf("expected 3 videos, got %d", len(page.Items))
	}
	if page.Items[0].ChannelAvatar != "" {
		t.Errorf("expected no avatar when enrichment fails, got %q", page.Items[0].ChannelAvatar)
	}
}

func TestSearch_SignedOutOrdersByViewCount(t *testing.T) {
	fake := newFakeYouTube(standardCatalog()...)
	c := newTestClient(t, fake)

	page, err := c.Search(context.Background(), Viewer{Language: "de"}, "  guitar  ", 12)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(page.Items) != 3 {
		t.Errorf("expected 3 videos after dropping the short, got %d", len(page.Items))
	}
	if page.NextPageToken != "NEXT" {
		t.Errorf("expected next page token to carry through, got %q", page.NextPageToken)
	}

	q := fake.callsTo("search")[0].Query
	checks := map[string]string{
		"q":                 "guitar",
		"order":             "viewCount",
		"type":              "video",
		"videoDuration":     "medium",
		"relevanceLanguage": "de",
		"publishedAfter":    "2026-04-01T12:00:00Z",
	}
	for key, want := range checks {
		if got := q.Get(key); got != want {
			t.Errorf("expected %s=%q, got %q", key, want, got)
		}
	}
}

func TestSearch_SignedInOrdersByRelevance(t *testing.T) {
	fake := newFakeYouTube(standardCatalog()...)
	c := newTestClient(t, fake)

	if _, err := c.Search(context.Background(), Viewer{AccessToken: "token"}, "speedrun", 12); err != nil {
		t.Fatalf("Search: %v", err)
	}

	if got := fake.callsTo("search")[0].Query.Get("order"); got != "relevance" {
		t.Errorf("expected relevance order, got %q", got)
	}
}

func TestSearch_EmptyQueryUsesTrending(t *testing.T) {
	fake := newFakeYouTube(standardCatalog()...)
	c := newTestClient(t, fake)

	if _, err := c.Search(context.Background(), Viewer{}, "   ", 12); err != nil {
		t.Fatalf("Search: %v", err)
	}

	if got := fake.callsTo("search")[0].Query.Get("q"); got != "trending" {
		t.Errorf("expected q=trending, got %q", got)
	}
}

func TestSearch_NoResultsIsNotFound(t *testing.T) {
	fake := newFakeYouTube(standardCatalog()...)
	fake.search = func(url.Values) []string { return nil }
	c := newTestClient(t, fake)

	_, err := c.Search(context.Background(), Viewer{}, "zzzz", 12)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Kind != KindNotFound {
		t.Errorf("expected not_found kind, got %q", apiErr.Kind)
	}
	want := `No videos found for "zzzz". Try different keywords!`
	if apiErr.UserMessage != want {
		t.Errorf("expected user message %q, got %q", want, apiErr.UserMessage)
	}
	if len(fake.callsTo("videos")) != 0 {
		t.Error("expected no details lookup for empty search")
	}
}

func TestSearch_NoResultsKeepsQueryVerbatim(t *testing.T) {
	fake := newFakeYouTube(standardCatalog()...)
	fake.search = func(url.Values) []string { return nil }
	c := newTestClient(t, fake)

	_, err := c.Search(context.Background(), Viewer{}, `say "hi" \ café`, 12)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	want := `No videos found for "say "hi" \ café". Try different keywords!`
	if apiErr.UserMessage != want {
		t.Errorf("expected user message %q, got %q", want, apiErr.UserMessage)
	}
}

func TestByCategory_AllUsesPopularChart(t *testing.T) {
	fake := newFakeYouTube(standardCatalog()...)
	c := newTestClient(t, fake)

	if _, err := c.ByCategory(context.Background(), Viewer{}, CategoryAll, 10); err != nil {
		t.Fatalf("ByCategory: %v", err)
	}

	q := fake.callsTo("videos")[0].Query
	if q.Get("videoCategoryId") != "" {
		t.Errorf("expected no category filter, got %q", q.Get("videoCategoryId"))
	}
}

func TestByCategory_UsesCategoryChart(t *testing.T) {
	fake := newFakeYouTube(standardCatalog()...)
	c := newTestClient(t, fake)

	page, err := c.ByCategory(context.Background(), Viewer{}, "20", 10)
	if err != nil {
		t.Fatalf("ByCategory: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].ID != "vid00000003" {
		t.Errorf("expected only the gaming video, got %+v", page.Items)
	}
	if len(fake.callsTo("search")) != 0 {
		t.Error("expected no search fallback when the chart has results")
	}
}

func TestByCategory_EmptyChartFallsBackToKeywordSearch(t *testing.T) {
	fake := newFakeYouTube(standardCatalog()...)
	c := newTestClient(t, fake)

	page, err := c.ByCategory(context.Background(), Viewer{}, "28", 10)
	if err != nil {
		t.Fatalf("ByCategory: %v", err)
	}
	if len(page.Items) == 0 {
		t.Fatal("expected search fallback results")
	}

	searches := fake.callsTo("search")
	if len(searches) != 1 {
		t.Fatalf("expected 1 search call, got %d", len(searches))
	}
	if got := searches[0].Query.Get("q"); got != CategoryKeywords("28") {
		t.Errorf("expected q=%q, got %q", CategoryKeywords("28"), got)
	}
}

func TestVideoByID_Found(t *testing.T) {
	fake := newFakeYouTube(standardCatalog()...)
	c := newTestClient(t, fake)

	v, err := c.VideoByID(context.Background(), Viewer{}, "vid00000003")
	if err != nil {
		t.Fatalf("VideoByID: %v", err)
	}
	if v.Title != "Speedrun World Record" {
		t.Errorf("expected title Speedrun World Record, got %q", v.Title)
	}
	if v.FormattedDuration != "1:02:03" {
		t.Errorf("expected duration 1:02:03, got %q", v.FormattedDuration)
	}
	if v.CategoryID != "20" {
		t.Errorf("expected category 20, got %q", v.CategoryID)
	}
}

func TestVideoByID_Missing(t *testing.T) {
	fake := newFakeYouTube(standardCatalog()...)
	c := newTestClient(t, fake)

	_, err := c.VideoByID(context.Background(), Viewer{}, "doesnotexist")

	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Kind != KindNotFound {
		t.Fatalf("expected not_found error, got %v", err)
	}
}

func TestBreakerState_StartsClosed(t *testing.T) {
	c := newTestClient(t, newFakeYouTube())
	if got := c.BreakerState(); got != "closed" {
		t.Errorf("expected closed, got %q", got)
	}
}

func TestBreaker_OpensAfterRepeatedFailures(t *testing.T) {
	fake := newFakeYouTube(standardCatalog()...)
	fake.failures["videos"] = http.StatusServiceUnavailable
	c := newTestClient(t, fake)

	for range 10 {
		_, _ = c.Popular(context.Background(), Viewer{}, 5)
	}
	if got := c.BreakerState(); got != "open" {
		t.Fatalf("expected open breaker, got %q", got)
	}

	before := len(fake.callsTo("videos"))
	_, err := c.Popular(context.Background(), Viewer{}, 5)

	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Kind != KindNetwork {
		t.Fatalf("expected network error from open breaker, got %v", err)
	}
	if after := len(fake.callsTo("videos")); after != before {
		t.Errorf("expected open breaker to skip the backend, got %d new calls", after-before)
	}
}

func TestBreaker_IgnoresNotFound(t *testing.T) {
	fake := newFakeYouTube(standardCatalog()...)
	fake.failures["videos"] = http.StatusNotFound
	c := newTestClient(t, fake)

	for range 12 {
		_, _ = c.VideoByID(context.Background(), Viewer{}, "vid00000001")
	}
	if got := c.BreakerState(); got != "closed" {
		t.Errorf("expected breaker to stay closed on 404s, got %q", got)
	}
}
