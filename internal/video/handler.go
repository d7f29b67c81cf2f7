package video

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/mssola/useragent"
	"github.com/vixel/vixel/internal/auth"
	"github.com/vixel/vixel/internal/httputil"
	"github.com/vixel/vixel/internal/region"
	"github.com/vixel/vixel/internal/settings"
	"github.com/vixel/vixel/internal/youtube"
)

// VideoSource is the slice of the YouTube client the pages and API use.
type VideoSource interface {
	Popular(ctx context.Context, v youtube.Viewer, max int) (youtube.Page, error)
	Search(ctx context.Context, v youtube.Viewer, query string, max int) (youtube.Page, error)
	ByCategory(ctx context.Context, v youtube.Viewer, categoryID string, max int) (youtube.Page, error)
	VideoByID(ctx context.Context, v youtube.Viewer, id string) (youtube.Video, error)
	Related(ctx context.Context, v youtube.Viewer, current youtube.Video, max int) (youtube.Page, error)
	LikedVideos(ctx context.Context, v youtube.Viewer, max int) ([]youtube.Video, error)
	Subscriptions(ctx context.Context, v youtube.Viewer, max int) ([]youtube.Subscription, error)
	Personalized(ctx context.Context, v youtube.Viewer, max int) (youtube.Page, error)
}

const (
	// watchRelatedSize is how many related videos the watch page sidebar shows.
	watchRelatedSize = 24
	// descriptionPreview is the number of characters shown before "show more".
	descriptionPreview = 500
)

type Handler struct {
	videos        VideoSource
	regions       *region.Resolver
	settings      *settings.Store
	baseURL       string
	signInEnabled bool
}

func NewHandler(videos VideoSource, regions *region.Resolver, store *settings.Store, baseURL string) *Handler {
	return &Handler{
		videos:   videos,
		regions:  regions,
		settings: store,
		baseURL:  baseURL,
	}
}

// SetSignInEnabled shows the Google sign-in link when OAuth is configured.
func (h *Handler) SetSignInEnabled(enabled bool) {
	h.signInEnabled = enabled
}

// visit is what every handler derives from the incoming request.
type visit struct {
	settings settings.Settings
	region   region.Result
	user     *auth.User
	viewer   youtube.Viewer
}

// visit resolves the region, running detection and refreshing the region
// cookie when needed. Use it where a regional YouTube call or the page
// header depends on the region.
func (h *Handler) visit(w http.ResponseWriter, r *http.Request) visit {
	s := h.settings.Load(r)
	return h.newVisit(r, s, h.regions.Resolve(w, r, s.Region))
}

// visitor is visit without detection: the region comes from the settings
// or the cookie as it stands.
func (h *Handler) visitor(r *http.Request) visit {
	s := h.settings.Load(r)
	return h.newVisit(r, s, h.regions.Peek(r, s.Region))
}

func (h *Handler) newVisit(r *http.Request, s settings.Settings, res region.Result) visit {
	user := auth.UserFromContext(r.Context())
	return visit{
		settings: s,
		region:   res,
		user:     user,
		viewer: youtube.Viewer{
			Region:      res.Code,
			Language:    s.Language,
			AccessToken: user.AccessToken(),
		},
	}
}

func isMobile(r *http.Request) bool {
	if r.UserAgent() == "" {
		return false
	}
	return useragent.New(r.UserAgent()).Mobile()
}

// asAPIError returns err as a classified YouTube error, treating anything
// unclassified as an unknown, retryable failure.
func asAPIError(err error) *youtube.APIError {
	var apiErr *youtube.APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return &youtube.APIError{
		Kind:        youtube.KindUnknown,
		Message:     err.Error(),
		UserMessage: "Something went wrong! Please try again in a few minutes.",
		CanRetry:    true,
	}
}

func errorStatus(e *youtube.APIError) int {
	switch e.Kind {
	case youtube.KindQuota:
		return http.StatusTooManyRequests
	case youtube.KindNotFound:
		return http.StatusNotFound
	case youtube.KindUnauthorized:
		return http.StatusUnauthorized
	case youtube.KindNetwork:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

func writeVideoError(w http.ResponseWriter, err error) {
	e := asAPIError(err)
	httputil.WriteKindError(w, errorStatus(e), e.UserMessage, string(e.Kind), e.CanRetry)
}

// NotFound answers unknown paths: JSON under /api/, the error page elsewhere.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		httputil.WriteError(w, http.StatusNotFound, "not found")
		return
	}
	v := h.visitor(r)
	h.renderError(w, r, v, http.StatusNotFound, "Page not found", "There's nothing here. Head back to the videos.", false)
}
