package video

import (
	"html"
	"net/http"
	"net/url"
	"strings"

	"github.com/vixel/vixel/internal/httputil"
	"github.com/vixel/vixel/internal/validate"
)

type oEmbedResponse struct {
	Type            string `json:"type"`
	Version         string `json:"version"`
	Title           string `json:"title"`
	AuthorName      string `json:"author_name"`
	AuthorURL       string `json:"author_url"`
	ProviderName    string `json:"provider_name"`
	ProviderURL     string `json:"provider_url"`
	ThumbnailURL    string `json:"thumbnail_url,omitempty"`
	ThumbnailWidth  int    `json:"thumbnail_width,omitempty"`
	ThumbnailHeight int    `json:"thumbnail_height,omitempty"`
	HTML            string `json:"html"`
	Width           int    `json:"width"`
	Height          int    `json:"height"`
}

// OEmbed describes a Vixel watch URL (?url=<base>/watch?v=<id>) for link
// unfurling. The embed itself is YouTube's privacy-enhanced player.
func (h *Handler) OEmbed(w http.ResponseWriter, r *http.Request) {
	id, ok := h.watchURLVideoID(r.URL.Query().Get("url"))
	if !ok {
		httputil.WriteError(w, http.StatusNotFound, "not a watch URL")
		return
	}

	v := h.visitor(r)
	video, err := h.videos.VideoByID(r.Context(), v.viewer, id)
	if err != nil {
		writeVideoError(w, err)
		return
	}

	embedURL := "https://www.youtube-nocookie.com/embed/" + url.PathEscape(video.ID)
	iframeHTML := `<iframe src="` + embedURL + `" width="640" height="360" title="` + html.EscapeString(video.Title) + `" frameborder="0" allow="autoplay; encrypted-media; picture-in-picture" allowfullscreen></iframe>`

	resp := oEmbedResponse{
		Type:         "video",
		Version:      "1.0",
		Title:        video.Title,
		AuthorName:   video.ChannelTitle,
		AuthorURL:    "https://www.youtube.com/channel/" + url.PathEscape(video.ChannelID),
		ProviderName: "Vixel",
		ProviderURL:  h.baseURL,
		HTML:         iframeHTML,
		Width:        640,
		Height:       360,
	}
	if thumb := video.Thumbnails.High; thumb != "" {
		resp.ThumbnailURL, resp.ThumbnailWidth, resp.ThumbnailHeight = thumb, 480, 360
	} else if thumb := video.Thumbnails.Medium; thumb != "" {
		resp.ThumbnailURL, resp.ThumbnailWidth, resp.ThumbnailHeight = thumb, 320, 180
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// watchURLVideoID extracts the video id from a watch URL on this site.
func (h *Handler) watchURLVideoID(raw string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Path != "/watch" {
		return "", false
	}
	if base, err := url.Parse(h.baseURL); err == nil && base.Host != "" && u.Host != base.Host {
		return "", false
	}
	id := u.Query().Get("v")
	if validate.VideoID(id) != "" {
		return "", false
	}
	return id, true
}
