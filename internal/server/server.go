package server

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vixel/vixel/internal/auth"
	"github.com/vixel/vixel/internal/docs"
	"github.com/vixel/vixel/internal/httputil"
	"github.com/vixel/vixel/internal/ratelimit"
	"github.com/vixel/vixel/internal/region"
	"github.com/vixel/vixel/internal/settings"
	"github.com/vixel/vixel/internal/video"
)

// BreakerReporter exposes the state of the YouTube circuit breaker.
type BreakerReporter interface {
	BreakerState() string
}

type Config struct {
	Videos   video.VideoSource
	Breaker  BreakerReporter
	Regions  *region.Resolver
	Settings *settings.Store
	// Auth is nil when Google sign-in is not configured.
	Auth    *auth.Handler
	BaseURL string
	// FrameAncestors lists extra origins allowed to frame the pages.
	FrameAncestors string

	DocsEnabled    bool
	MetricsEnabled bool

	// APIRate and APIBurst size the per-client token bucket on /api.
	APIRate  float64
	APIBurst int
}

type Server struct {
	router         chi.Router
	videoHandler   *video.Handler
	authHandler    *auth.Handler
	breaker        BreakerReporter
	apiLimiter     *ratelimit.Limiter
	docsEnabled    bool
	metricsEnabled bool
}

func New(cfg Config) *Server {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	rate, burst := cfg.APIRate, cfg.APIBurst
	if rate <= 0 {
		rate = 5
	}
	if burst <= 0 {
		burst = 20
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(slogMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders(SecurityConfig{BaseURL: baseURL, AllowedFrameAncestors: cfg.FrameAncestors}))
	if cfg.Auth != nil {
		r.Use(cfg.Auth.Middleware)
	}

	videoHandler := video.NewHandler(cfg.Videos, cfg.Regions, cfg.Settings, baseURL)
	videoHandler.SetSignInEnabled(cfg.Auth != nil)

	s := &Server{
		router:         r,
		videoHandler:   videoHandler,
		authHandler:    cfg.Auth,
		breaker:        cfg.Breaker,
		apiLimiter:     ratelimit.NewLimiter(rate, burst),
		docsEnabled:    cfg.DocsEnabled,
		metricsEnabled: cfg.MetricsEnabled,
	}
	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close stops background work owned by the server.
func (s *Server) Close() {
	s.apiLimiter.Stop()
}

func (s *Server) routes() {
	s.router.Get("/api/health", s.handleHealth)
	if s.metricsEnabled {
		s.router.Handle("/metrics", promhttp.Handler())
	}
	if s.docsEnabled {
		s.router.Get("/api/docs", docs.HandleDocs)
		s.router.Get("/api/docs/openapi.yaml", docs.HandleSpec)
	}

	vh := s.videoHandler
	s.router.Get("/", vh.Home)
	s.router.Get("/watch", vh.Watch)
	s.router.Get("/settings", vh.SettingsPage)
	s.router.Post("/settings", vh.SaveSettings)
	s.router.Get("/settings/export", vh.ExportSettings)
	s.router.Post("/settings/import", vh.ImportSettings)
	s.router.Post("/settings/reset", vh.ResetSettings)

	if s.authHandler != nil {
		s.router.Route("/auth", func(r chi.Router) {
			r.Get("/login", s.authHandler.Login)
			r.Get("/callback", s.authHandler.Callback)
			r.Post("/logout", s.authHandler.Logout)
		})
	}

	s.router.Route("/api", func(r chi.Router) {
		r.Use(s.apiLimiter.Middleware)

		r.Get("/videos/popular", vh.PopularVideos)
		r.Get("/videos/search", vh.SearchVideos)
		r.Get("/videos/category/{id}", vh.CategoryVideos)
		r.Get("/videos/{id}", vh.GetVideo)
		r.Get("/videos/{id}/related", vh.RelatedVideos)

		r.Get("/categories", vh.ListCategories)
		r.Get("/regions", vh.ListRegions)
		r.Get("/languages", vh.ListLanguages)
		r.Get("/limits", vh.Limits)

		r.Get("/region", vh.GetRegion)
		r.Put("/region", vh.SetRegion)
		r.Delete("/region", vh.ClearRegion)
		r.Post("/region/locate", vh.LocateRegion)

		r.Get("/settings", vh.GetSettings)
		r.Put("/settings", vh.UpdateSettings)
		r.Delete("/settings", vh.ResetSettingsAPI)

		r.Get("/me", vh.Me)
		r.Get("/me/liked", vh.LikedVideos)
		r.Get("/me/subscriptions", vh.Subscriptions)

		r.Get("/oembed", vh.OEmbed)
	})

	s.router.NotFound(vh.NotFound)
}

type healthResponse struct {
	Status  string `json:"status"`
	YouTube string `json:"youtube,omitempty"`
}

// handleHealth reports degraded while the YouTube breaker is open.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok"}
	if s.breaker != nil {
		resp.YouTube = s.breaker.BreakerState()
	}
	if resp.YouTube == "open" {
		resp.Status = "degraded"
		httputil.WriteJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}
