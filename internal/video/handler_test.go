package video

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vixel/vixel/internal/auth"
	"github.com/vixel/vixel/internal/httputil"
	"github.com/vixel/vixel/internal/region"
	"github.com/vixel/vixel/internal/settings"
	"github.com/vixel/vixel/internal/youtube"
	"golang.org/x/oauth2"
)

const (
	testBaseURL     = "https://vixel.test"
	testSettingsKey = "test-settings-key-0123456789abcdef"
	testNonce       = "test-nonce"
)

// fakeSource is an in-memory VideoSource that records the calls it gets.
type fakeSource struct {
	mu sync.Mutex

	videos     map[string]youtube.Video
	feed       youtube.Page
	related    youtube.Page
	liked      []youtube.Video
	subs       []youtube.Subscription
	err        error
	relatedErr error

	calls   []string
	viewers []youtube.Viewer
	query   string
	catID   string
	max     int
}

func newFakeSource(videos ...youtube.Video) *fakeSource {
	f := &fakeSource{videos: map[string]youtube.Video{}}
	for _, v := range videos {
		f.videos[v.ID] = v
	}
	f.feed = youtube.Page{Items: videos, TotalResults: int64(len(videos)), ResultsPerPage: int64(len(videos))}
	return f
}

func (f *fakeSource) record(call string, v youtube.Viewer, max int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	f.viewers = append(f.viewers, v)
	f.max = max
}

func (f *fakeSource) lastViewer() youtube.Viewer {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.viewers) == 0 {
		return youtube.Viewer{}
	}
	return f.viewers[len(f.viewers)-1]
}

func (f *fakeSource) called(call string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c == call {
			return true
		}
	}
	return false
}

func (f *fakeSource) Popular(_ context.Context, v youtube.Viewer, max int) (youtube.Page, error) {
	f.record("popular", v, max)
	if f.err != nil {
		return youtube.Page{}, f.err
	}
	return f.feed, nil
}

func (f *fakeSource) Search(_ context.Context, v youtube.Viewer, query string, max int) (youtube.Page, error) {
	f.record("search", v, max)
	f.query = query
	if f.err != nil {
		return youtube.Page{}, f.err
	}
	return f.feed, nil
}

func (f *fakeSource) ByCategory(_ context.Context, v youtube.Viewer, categoryID string, max int) (youtube.Page, error) {
	f.record("category", v, max)
	f.catID = categoryID
	if f.err != nil {
		return youtube.Page{}, f.err
	}
	return f.feed, nil
}

func (f *fakeSource) VideoByID(_ context.Context, v youtube.Viewer, id string) (youtube.Video, error) {
	f.record("video", v, 1)
	if f.err != nil {
		return youtube.Video{}, f.err
	}
	video, ok := f.videos[id]
	if !ok {
		return youtube.Video{}, &youtube.APIError{
			Kind:        youtube.KindNotFound,
			Message:     "Video not found",
			UserMessage: "Video not found! It might have been removed or made private.",
		}
	}
	return video, nil
}

func (f *fakeSource) Related(_ context.Context, v youtube.Viewer, current youtube.Video, max int) (youtube.Page, error) {
	f.record("related", v, max)
	if f.relatedErr != nil {
		return youtube.Page{}, f.relatedErr
	}
	return f.related, nil
}

func (f *fakeSource) LikedVideos(_ context.Context, v youtube.Viewer, max int) ([]youtube.Video, error) {
	f.record("liked", v, max)
	if f.err != nil {
		return nil, f.err
	}
	return f.liked, nil
}

func (f *fakeSource) Subscriptions(_ context.Context, v youtube.Viewer, max int) ([]youtube.Subscription, error) {
	f.record("subscriptions", v, max)
	if f.err != nil {
		return nil, f.err
	}
	return f.subs, nil
}

func (f *fakeSource) Personalized(_ context.Context, v youtube.Viewer, max int) (youtube.Page, error) {
	f.record("personalized", v, max)
	if f.err != nil {
		return youtube.Page{}, f.err
	}
	return f.feed, nil
}

func sampleVideo(id, title string) youtube.Video {
	return youtube.Video{
		ID:                 id,
		Title:              title,
		Description:        "About " + title,
		ChannelID:          "chan-" + id,
		ChannelTitle:       "Channel " + id,
		PublishedAt:        time.Now().Add(-48 * time.Hour),
		Thumbnails:         youtube.Thumbnails{High: "https://i.ytimg.com/vi/" + id + "/hqdefault.jpg"},
		ViewCount:          1_500_000,
		LikeCount:          4500,
		FormattedDuration:  "5:30",
		FormattedViewCount: "1.5M",
		ChannelAvatar:      "https://yt3.ggpht.com/" + id,
		ChannelSubscribers: "2.5M",
	}
}

func testCatalog() []youtube.Video {
	return []youtube.Video{
		sampleVideo("vid00000001", "Epic Guitar Solo"),
		sampleVideo("vid00000002", "Speedrun World Record"),
		sampleVideo("vid00000003", "Pasta Night"),
	}
}

func newTestSettingsStore() *settings.Store {
	return settings.NewStore([]byte(testSettingsKey), false)
}

func newTestHandlerWithDetector(src VideoSource, detector *region.Detector) *Handler {
	resolver := region.NewResolver(detector, region.NewCache(false))
	return NewHandler(src, resolver, newTestSettingsStore(), testBaseURL)
}

func newTestHandler(src VideoSource) *Handler {
	return newTestHandlerWithDetector(src, region.NewDetector(region.Config{}))
}

func newPageRequest(method, target string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	return req.WithContext(httputil.ContextWithNonce(req.Context(), testNonce))
}

func withUser(req *http.Request) *http.Request {
	user := &auth.User{
		ID:      "user-1",
		Name:    "Ada",
		Email:   "ada@example.com",
		Picture: "https://lh3.googleusercontent.com/ada",
		Token:   &oauth2.Token{AccessToken: "access-token", Expiry: time.Now().Add(time.Hour)},
	}
	return req.WithContext(auth.ContextWithUser(req.Context(), user))
}

// withSettings attaches a settings cookie carrying s.
func withSettings(t *testing.T, req *http.Request, s settings.Settings) *http.Request {
	t.Helper()
	rec := httptest.NewRecorder()
	if err := newTestSettingsStore().Save(rec, s); err != nil {
		t.Fatalf("save settings: %v", err)
	}
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func cookieNamed(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestVisit_ViewerFromSettingsAndUser(t *testing.T) {
	h := newTestHandler(newFakeSource())
	s := settings.Defaults()
	s.Region = "JP"
	s.Language = "ja"

	req := withUser(withSettings(t, newPageRequest(http.MethodGet, "/"), s))
	v := h.visit(httptest.NewRecorder(), req)

	if v.viewer.Region != "JP" || v.region.Source != region.SourceManual {
		t.Errorf("expected manual region JP, got %+v", v.region)
	}
	if v.viewer.Language != "ja" {
		t.Errorf("expected language ja, got %q", v.viewer.Language)
	}
	if v.viewer.AccessToken != "access-token" {
		t.Errorf("expected access token from session user, got %q", v.viewer.AccessToken)
	}
}

func TestVisit_DetectsAndCachesRegion(t *testing.T) {
	h := newTestHandler(newFakeSource())
	req := newPageRequest(http.MethodGet, "/")
	req.Header.Set("Accept-Language", "en-GB,en;q=0.8")
	rec := httptest.NewRecorder()

	v := h.visit(rec, req)

	if v.region.Code != "GB" || v.region.Source != region.SourceLanguage {
		t.Errorf("expected GB from language, got %+v", v.region)
	}
	if v.viewer.AccessToken != "" {
		t.Errorf("expected no access token when signed out, got %q", v.viewer.AccessToken)
	}
	if cookieNamed(rec.Result().Cookies(), region.CookieName) == nil {
		t.Error("expected detected region to be cached in a cookie")
	}
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		kind youtube.ErrorKind
		want int
	}{
		{youtube.KindQuota, http.StatusTooManyRequests},
		{youtube.KindNotFound, http.StatusNotFound},
		{youtube.KindUnauthorized, http.StatusUnauthorized},
		{youtube.KindNetwork, http.StatusServiceUnavailable},
		{youtube.KindUnknown, http.StatusBadGateway},
	}
	for _, tt := range tests {
		if got := errorStatus(&youtube.APIError{Kind: tt.kind}); got != tt.want {
			t.Errorf("errorStatus(%s) = %d, want %d", tt.kind, got, tt.want)
		}
	}
}

func TestAsAPIError_WrapsUnclassified(t *testing.T) {
	e := asAPIError(errors.New("boom"))
	if e.Kind != youtube.KindUnknown || !e.CanRetry {
		t.Errorf("expected retryable unknown error, got %+v", e)
	}
	if e.UserMessage == "" {
		t.Error("expected a user message")
	}
}

func TestIsMobile(t *testing.T) {
	tests := []struct {
		ua   string
		want bool
	}{
		{"Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1", true},
		{"Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36", true},
		{"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36", false},
		{"", false},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("User-Agent", tt.ua)
		if got := isMobile(req); got != tt.want {
			t.Errorf("isMobile(%q) = %v, want %v", tt.ua, got, tt.want)
		}
	}
}

func TestNotFound(t *testing.T) {
	h := newTestHandler(newFakeSource())

	rec := httptest.NewRecorder()
	h.NotFound(rec, newPageRequest(http.MethodGet, "/nope"))
	if rec.Code != http.StatusNotFound || !strings.Contains(rec.Body.String(), "Page not found") {
		t.Errorf("expected error page, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.NotFound(rec, newPageRequest(http.MethodGet, "/api/nope"))
	if rec.Code != http.StatusNotFound || rec.Header().Get("Content-Type") != "application/json" {
		t.Errorf("expected JSON 404, got %d %s", rec.Code, rec.Header().Get("Content-Type"))
	}
}

func TestVisitor_OEmbedAndNotFoundSkipDetection(t *testing.T) {
	var lookups atomic.Int32
	geo := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lookups.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"country_code":"CA","country":"CA"}`))
	}))
	defer geo.Close()

	detector := region.NewDetector(region.Config{Remote: true, IPAPIURL: geo.URL, CountryIsURL: geo.URL, NominatimURL: geo.URL})
	h := newTestHandlerWithDetector(newFakeSource(testCatalog()...), detector)

	requests := map[string]func(http.ResponseWriter, *http.Request){
		"/api/oembed?url=" + url.QueryEscape(testBaseURL+"/watch?v=vid00000001"): h.OEmbed,
		"/favicon.ico": h.NotFound,
		"/api/nope":    h.NotFound,
	}
	for target, handle := range requests {
		req := newPageRequest(http.MethodGet, target)
		req.RemoteAddr = "8.8.8.8:4000"
		rec := httptest.NewRecorder()
		handle(rec, req)

		if c := cookieNamed(rec.Result().Cookies(), region.CookieName); c != nil {
			t.Errorf("%s: expected no region cookie, got %q", target, c.Value)
		}
	}
	if n := lookups.Load(); n != 0 {
		t.Errorf("expected no remote region lookups, got %d", n)
	}
}

func TestVisit_PagesStillDetect(t *testing.T) {
	var lookups atomic.Int32
	geo := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lookups.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"country_code":"CA"}`))
	}))
	defer geo.Close()

	detector := region.NewDetector(region.Config{Remote: true, IPAPIURL: geo.URL, CountryIsURL: geo.URL, NominatimURL: geo.URL})
	h := newTestHandlerWithDetector(newFakeSource(testCatalog()...), detector)
	req := newPageRequest(http.MethodGet, "/")
	req.RemoteAddr = "8.8.8.8:4000"
	rec := httptest.NewRecorder()

	v := h.visit(rec, req)

	if v.region.Code != "CA" || v.region.Source != region.SourceIP {
		t.Errorf("expected CA from ip, got %+v", v.region)
	}
	if lookups.Load() == 0 {
		t.Error("expected a remote lookup")
	}
	if cookieNamed(rec.Result().Cookies(), region.CookieName) == nil {
		t.Error("expected the detected region to be cached")
	}
}
