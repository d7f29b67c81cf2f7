package video

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/vixel/vixel/internal/httputil"
	"github.com/vixel/vixel/internal/languages"
	"github.com/vixel/vixel/internal/region"
	"github.com/vixel/vixel/internal/settings"
	"github.com/vixel/vixel/internal/validate"
	"github.com/vixel/vixel/internal/youtube"
)

// maxParam reads ?maxResults=, falling back to def when absent. It writes a
// 400 and reports false when the value is out of range.
func maxParam(w http.ResponseWriter, r *http.Request, def int) (int, bool) {
	raw := r.URL.Query().Get("maxResults")
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "maxResults must be a number")
		return 0, false
	}
	if msg := validate.MaxResultsParam(n); msg != "" {
		httputil.WriteError(w, http.StatusBadRequest, msg)
		return 0, false
	}
	return n, true
}

func (h *Handler) PopularVideos(w http.ResponseWriter, r *http.Request) {
	max, ok := maxParam(w, r, youtube.DefaultGridSize)
	if !ok {
		return
	}
	v := h.visit(w, r)
	page, err := h.videos.Popular(r.Context(), v.viewer, max)
	if err != nil {
		writeVideoError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, page)
}

func (h *Handler) SearchVideos(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if msg := validate.SearchQuery(query); msg != "" {
		httputil.WriteError(w, http.StatusBadRequest, msg)
		return
	}
	max, ok := maxParam(w, r, youtube.DefaultGridSize)
	if !ok {
		return
	}
	v := h.visit(w, r)
	page, err := h.videos.Search(r.Context(), v.viewer, query, max)
	if err != nil {
		writeVideoError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, page)
}

func (h *Handler) CategoryVideos(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !youtube.ValidCategoryID(id) {
		httputil.WriteError(w, http.StatusNotFound, "unknown category")
		return
	}
	max, ok := maxParam(w, r, youtube.DefaultGridSize)
	if !ok {
		return
	}
	v := h.visit(w, r)
	page, err := h.videos.ByCategory(r.Context(), v.viewer, id, max)
	if err != nil {
		writeVideoError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, page)
}

func (h *Handler) GetVideo(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if msg := validate.VideoID(id); msg != "" {
		httputil.WriteError(w, http.StatusBadRequest, msg)
		return
	}
	v := h.visitor(r)
	video, err := h.videos.VideoByID(r.Context(), v.viewer, id)
	if err != nil {
		writeVideoError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, video)
}

func (h *Handler) RelatedVideos(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if msg := validate.VideoID(id); msg != "" {
		httputil.WriteError(w, http.StatusBadRequest, msg)
		return
	}
	max, ok := maxParam(w, r, youtube.DefaultRelatedSize)
	if !ok {
		return
	}
	v := h.visit(w, r)
	current, err := h.videos.VideoByID(r.Context(), v.viewer, id)
	if err != nil {
		writeVideoError(w, err)
		return
	}
	page, err := h.videos.Related(r.Context(), v.viewer, current, max)
	if err != nil {
		writeVideoError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, page)
}

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, youtube.Categories())
}

func (h *Handler) ListRegions(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, region.PopularRegions())
}

func (h *Handler) ListLanguages(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, languages.All())
}

func (h *Handler) Limits(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, validate.FieldLimits())
}

type regionResponse struct {
	Code    string          `json:"code"`
	Source  string          `json:"source"`
	Name    string          `json:"name"`
	Details *region.Details `json:"details,omitempty"`
}

// GetRegion reports the region used for this visitor and how it was found.
// ?details=true adds the ipapi.co record for the client address.
func (h *Handler) GetRegion(w http.ResponseWriter, r *http.Request) {
	v := h.visit(w, r)
	resp := regionResponse{Code: v.region.Code, Source: v.region.Source, Name: regionName(v.region.Code)}
	if wantDetails, _ := strconv.ParseBool(r.URL.Query().Get("details")); wantDetails {
		resp.Details = h.regions.Detector().Details(r.Context(), httputil.ClientIP(r))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

type setRegionRequest struct {
	Code string `json:"code"`
}

// SetRegion stores a region picked by the visitor in the region cache.
func (h *Handler) SetRegion(w http.ResponseWriter, r *http.Request) {
	var req setRegionRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1024)).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	code, ok := h.regions.Cache().SetManual(w, req.Code)
	if !ok {
		httputil.WriteError(w, http.StatusBadRequest, "code must be a two letter country code")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, regionResponse{Code: code, Source: region.SourceManual, Name: regionName(code)})
}

// ClearRegion forgets the cached region so the next request detects again.
func (h *Handler) ClearRegion(w http.ResponseWriter, r *http.Request) {
	h.regions.Cache().Clear(w)
	w.WriteHeader(http.StatusNoContent)
}

type locateRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// LocateRegion resolves browser coordinates to a region and caches it.
func (h *Handler) LocateRegion(w http.ResponseWriter, r *http.Request) {
	var req locateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1024)).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Latitude == nil || req.Longitude == nil {
		httputil.WriteError(w, http.StatusBadRequest, "latitude and longitude are required")
		return
	}

	result, ok := h.regions.Detector().Locate(r.Context(), *req.Latitude, *req.Longitude)
	if !ok {
		httputil.WriteError(w, http.StatusUnprocessableEntity, "could not determine a region for these coordinates")
		return
	}
	h.regions.Cache().Write(w, result.Code)
	httputil.WriteJSON(w, http.StatusOK, regionResponse{Code: result.Code, Source: result.Source, Name: regionName(result.Code)})
}

func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.settings.Load(r))
}

// UpdateSettings applies a partial JSON object of setting name to value.
// Nothing is saved unless every key is known and valid.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var changes map[string]any
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, validate.MaxSettingsImportLength)).Decode(&changes); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s := h.settings.Load(r)
	for key, value := range changes {
		if err := s.Update(key, settingValue(value)); err != nil {
			httputil.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if err := h.settings.Save(w, s); err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "could not save settings")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, s)
}

// ResetSettingsAPI restores the defaults and clears the region cache.
func (h *Handler) ResetSettingsAPI(w http.ResponseWriter, r *http.Request) {
	h.settings.Clear(w)
	h.regions.Cache().Clear(w)
	httputil.WriteJSON(w, http.StatusOK, settings.Defaults())
}

func settingValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(val)
	}
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	v := h.visitor(r)
	if v.user == nil {
		writeSignInRequired(w)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, v.user)
}

func (h *Handler) LikedVideos(w http.ResponseWriter, r *http.Request) {
	max, ok := maxParam(w, r, youtube.DefaultGridSize)
	if !ok {
		return
	}
	v := h.visitor(r)
	if v.user == nil {
		writeSignInRequired(w)
		return
	}
	videos, err := h.videos.LikedVideos(r.Context(), v.viewer, max)
	if err != nil {
		writeVideoError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, videos)
}

func (h *Handler) Subscriptions(w http.ResponseWriter, r *http.Request) {
	max, ok := maxParam(w, r, validate.MaxResults)
	if !ok {
		return
	}
	v := h.visitor(r)
	if v.user == nil {
		writeSignInRequired(w)
		return
	}
	subs, err := h.videos.Subscriptions(r.Context(), v.viewer, max)
	if err != nil {
		writeVideoError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, subs)
}

func writeSignInRequired(w http.ResponseWriter) {
	httputil.WriteKindError(w, http.StatusUnauthorized, "Please sign in to see this.", string(youtube.KindUnauthorized), false)
}
