package video

import (
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"unicode"

	"github.com/vixel/vixel/internal/settings"
	"github.com/vixel/vixel/internal/validate"
	"github.com/vixel/vixel/internal/youtube"
)

// playerConfig is handed to playerJS as a JSON object.
type playerConfig struct {
	VideoID   string  `json:"videoId"`
	NextID    string  `json:"nextId"`
	NextTitle string  `json:"nextTitle"`
	Autoplay  bool    `json:"autoplay"`
	Speed     float64 `json:"speed"`
	Quality   string  `json:"quality"`
	Subtitles bool    `json:"subtitles"`
}

type watchPageData struct {
	chrome
	Video            youtube.Video
	Related          []youtube.Video
	Published        string
	LikeCount        string
	Description      string
	FullDescription  string
	DescriptionShort bool
	Speeds           []float64
	Shortcuts        []shortcut
	Player           playerConfig
}

type errorPageData struct {
	chrome
	Heading  string
	Message  string
	CanRetry bool
	RetryURL string
}

var watchPageTemplate = template.Must(template.New("watch").Funcs(pageFuncs).Parse(`<!DOCTYPE html>
<html lang="en">
<head>` + layoutHeadHTML + `
    <style nonce="{{.Nonce}}">` + playerCSS + videoCardCSS + `
        .watch-layout {
            display: grid;
            grid-template-columns: minmax(0, 1fr) 380px;
            gap: 1.5rem;
            max-width: 1600px;
            margin: 0 auto;
        }
        .mobile .watch-layout { grid-template-columns: minmax(0, 1fr); }
        @media (max-width: 1000px) { .watch-layout { grid-template-columns: minmax(0, 1fr); } }
        .video-title { font-size: 1.4rem; font-weight: 900; margin: 1rem 0 0.5rem; }
        .video-stats { color: var(--text-secondary); font-weight: 700; margin-bottom: 1rem; }
        .channel-row { display: flex; align-items: center; gap: 0.75rem; margin-bottom: 1rem; }
        .channel-row img { width: 48px; height: 48px; border-radius: 50%; border: 3px solid var(--border); }
        .channel-name { font-weight: 800; }
        .channel-subs { font-size: 0.85rem; color: var(--text-secondary); }
        .description {
            padding: 1rem;
            background: var(--bg-card);
            border: 3px solid var(--border);
            box-shadow: var(--shadow);
            white-space: pre-wrap;
            word-wrap: break-word;
        }
        .description details summary { cursor: pointer; font-weight: 800; margin-top: 0.5rem; }
        .description:has(details[open]) .preview { display: none; }
        .related h2 { font-size: 1.1rem; font-weight: 900; text-transform: uppercase; margin-bottom: 0.75rem; }
        .related .video-card { margin-bottom: 1rem; }
    </style>
</head>
<body{{if .Mobile}} class="mobile"{{end}}>` + siteHeaderHTML + `
    <main class="watch-layout">
        <section>
            <div class="vx-player" id="player-container">
                <div id="yt-player"></div>` + playerControlsHTML + `
            </div>
            <h1 class="video-title">{{.Video.Title}}</h1>
            <div class="video-stats">{{.Video.FormattedViewCount}} views{{if .Published}} &middot; {{.Published}}{{end}}{{if .LikeCount}} &middot; {{.LikeCount}} likes{{end}}</div>
            <div class="channel-row">
                {{if .Video.ChannelAvatar}}<img src="{{.Video.ChannelAvatar}}" alt="">{{end}}
                <div>
                    <div class="channel-name">{{.Video.ChannelTitle}}</div>
                    {{if .Video.ChannelSubscribers}}<div class="channel-subs">{{.Video.ChannelSubscribers}} subscribers</div>{{end}}
                </div>
            </div>
            {{if .FullDescription}}
            <div class="description">
                {{if .DescriptionShort}}<span class="preview">{{.Description}}</span><details><summary>Show more</summary>{{.FullDescription}}</details>{{else}}{{.FullDescription}}{{end}}
            </div>
            {{end}}
        </section>
        <aside class="related">
            <h2>Up next</h2>
            {{range .Related}}` + videoCardHTML + `{{else}}<p>No related videos right now.</p>{{end}}
        </aside>
    </main>
    <script nonce="{{.Nonce}}">` + regionHintsJS + `
        var playerConfig = {{.Player}};
` + playerJS + `
    </script>
    <script nonce="{{.Nonce}}" src="https://www.youtube.com/iframe_api"></script>
</body>
</html>
`))

var errorPageTemplate = template.Must(template.New("error").Parse(`<!DOCTYPE html>
<html lang="en">
<head>` + layoutHeadHTML + `
    <style nonce="{{.Nonce}}">
        .error-box {
            max-width: 560px;
            margin: 3rem auto;
            padding: 2rem;
            text-align: center;
            background: var(--bg-card);
            border: 4px solid var(--border);
            box-shadow: var(--shadow-large);
        }
        .error-box h1 { font-size: 1.5rem; font-weight: 900; text-transform: uppercase; margin-bottom: 0.75rem; }
        .error-box p { margin-bottom: 1rem; }
        .error-actions { display: flex; gap: 0.75rem; justify-content: center; }
    </style>
</head>
<body{{if .Mobile}} class="mobile"{{end}}>` + siteHeaderHTML + `
    <main>
        <div class="error-box" role="alert">
            <h1>{{.Heading}}</h1>
            <p>{{.Message}}</p>
            <div class="error-actions">
                {{if .CanRetry}}<a class="btn" href="{{.RetryURL}}">Try again</a>{{end}}
                <a class="btn btn-secondary" href="/">Back to videos</a>
            </div>
        </div>
    </main>
</body>
</html>
`))

// Watch renders /watch?v=<id> with the player, video details and the
// related sidebar.
func (h *Handler) Watch(w http.ResponseWriter, r *http.Request) {
	v := h.visit(w, r)
	id := strings.TrimSpace(r.URL.Query().Get("v"))

	if id == "" {
		h.renderError(w, r, v, http.StatusBadRequest, "No video selected", "Pick a video from the grid to start watching.", false)
		return
	}
	if validate.VideoID(id) != "" {
		h.renderError(w, r, v, http.StatusNotFound, "Video not found", "Video not found! It might have been removed or made private.", false)
		return
	}

	video, err := h.videos.VideoByID(r.Context(), v.viewer, id)
	if err != nil {
		e := asAPIError(err)
		slog.Warn("video: watch lookup failed", "video_id", id, "kind", e.Kind, "error", e.Message)
		heading := "Something went wrong"
		if e.Kind == youtube.KindNotFound {
			heading = "Video not found"
		}
		h.renderError(w, r, v, errorStatus(e), heading, e.UserMessage, e.CanRetry)
		return
	}

	related, err := h.videos.Related(r.Context(), v.viewer, video, watchRelatedSize)
	if err != nil {
		slog.Warn("video: related lookup failed", "video_id", id, "error", err)
	}

	data := watchPageData{
		chrome:          h.chrome(r, v, video.Title+" - Vixel"),
		Video:           video,
		Related:         related.Items,
		Published:       youtube.TimeAgo(video.PublishedAt),
		FullDescription: video.Description,
		Speeds:          settings.Speeds,
		Shortcuts:       playerShortcuts,
		Player: playerConfig{
			VideoID:   video.ID,
			Autoplay:  v.settings.Autoplay,
			Speed:     v.settings.DefaultSpeed,
			Quality:   playbackQuality(v.settings),
			Subtitles: v.settings.Subtitles,
		},
	}
	if video.LikeCount > 0 {
		data.LikeCount = youtube.FormatCount(video.LikeCount)
	}
	data.Description, data.DescriptionShort = truncateDescription(video.Description)
	if len(related.Items) > 0 {
		data.Player.NextID = related.Items[0].ID
		data.Player.NextTitle = related.Items[0].Title
	}

	render(w, http.StatusOK, watchPageTemplate, data)
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, v visit, status int, heading, message string, canRetry bool) {
	render(w, status, errorPageTemplate, errorPageData{
		chrome:   h.chrome(r, v, heading+" - Vixel"),
		Heading:  heading,
		Message:  message,
		CanRetry: canRetry,
		RetryURL: r.URL.RequestURI(),
	})
}

// truncateDescription cuts s to descriptionPreview characters and reports
// whether anything was cut.
func truncateDescription(s string) (string, bool) {
	runes := []rune(s)
	if len(runes) <= descriptionPreview {
		return s, false
	}
	return strings.TrimRightFunc(string(runes[:descriptionPreview]), unicode.IsSpace) + "...", true
}

// playbackQuality lowers the requested quality when the visitor limits
// data usage.
func playbackQuality(s settings.Settings) string {
	if s.DataUsage == "limited" && (s.DefaultQuality == "auto" || s.DefaultQuality == "high") {
		return "low"
	}
	return s.DefaultQuality
}
