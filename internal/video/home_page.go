package video

import (
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/vixel/vixel/internal/validate"
	"github.com/vixel/vixel/internal/youtube"
)

// pageError is the user-facing part of a failed lookup.
type pageError struct {
	Message  string
	CanRetry bool
	RetryURL string
}

type homePageData struct {
	chrome
	Heading         string
	Videos          []youtube.Video
	Personal        bool
	Error           *pageError
	SignInCancelled bool
}

// videoCardCSS styles the thumbnail cards used by the grid and sidebar.
const videoCardCSS = `
        .video-grid {
            display: grid;
            grid-template-columns: repeat(auto-fill, minmax(280px, 1fr));
            gap: 1.5rem;
        }
        .video-card {
            display: block;
            text-decoration: none;
            background: var(--bg-card);
            border: 3px solid var(--border);
            box-shadow: var(--shadow);
            transition: transform 0.15s, box-shadow 0.15s;
        }
        .video-card:hover { transform: translate(2px, 2px); box-shadow: var(--shadow-hover); }
        .thumb { position: relative; aspect-ratio: 16 / 9; background: #000; }
        .thumb img { width: 100%; height: 100%; object-fit: cover; display: block; }
        .duration {
            position: absolute;
            right: 6px;
            bottom: 6px;
            padding: 1px 6px;
            font-size: 0.75rem;
            font-weight: 700;
            background: rgba(0, 0, 0, 0.85);
            color: #fff;
        }
        .card-body { display: flex; gap: 0.6rem; padding: 0.75rem; }
        .card-avatar { width: 36px; height: 36px; border-radius: 50%; flex-shrink: 0; }
        .card-title {
            font-weight: 800;
            line-height: 1.3;
            display: -webkit-box;
            -webkit-line-clamp: 2;
            -webkit-box-orient: vertical;
            overflow: hidden;
        }
        .card-meta { font-size: 0.8rem; color: var(--text-secondary); }
`

// videoCardHTML renders one youtube.Video as a link to its watch page.
const videoCardHTML = `
            <a class="video-card" href="/watch?v={{.ID}}">
                <div class="thumb">
                    <img src="{{or .Thumbnails.High .Thumbnails.Medium .Thumbnails.Default}}" alt="" loading="lazy">
                    {{if .FormattedDuration}}<span class="duration">{{.FormattedDuration}}</span>{{end}}
                </div>
                <div class="card-body">
                    {{if .ChannelAvatar}}<img class="card-avatar" src="{{.ChannelAvatar}}" alt="" loading="lazy">{{end}}
                    <div>
                        <div class="card-title">{{.Title}}</div>
                        <div class="card-meta">{{.ChannelTitle}}</div>
                        <div class="card-meta">{{.FormattedViewCount}} views{{with timeAgo .PublishedAt}} &middot; {{.}}{{end}}</div>
                    </div>
                </div>
            </a>
`

var homePageTemplate = template.Must(template.New("home").Funcs(pageFuncs).Parse(`<!DOCTYPE html>
<html lang="en">
<head>` + layoutHeadHTML + `
    <style nonce="{{.Nonce}}">` + videoCardCSS + `
        h1 { font-size: 1.6rem; font-weight: 900; text-transform: uppercase; margin-bottom: 1rem; }
        .error-box {
            max-width: 560px;
            margin: 3rem auto;
            padding: 2rem;
            text-align: center;
            background: var(--bg-card);
            border: 4px solid var(--border);
            box-shadow: var(--shadow-large);
        }
        .error-box p { margin-bottom: 1rem; font-weight: 700; }
    </style>
</head>
<body{{if .Mobile}} class="mobile"{{end}}>` + siteHeaderHTML + categoryBarHTML + `
    <main>
        {{if .SignInCancelled}}<div class="notice" role="status">Sign-in was cancelled.</div>{{end}}
        {{if .Error}}
        <div class="error-box" role="alert">
            <p>{{.Error.Message}}</p>
            {{if .Error.CanRetry}}<a class="btn" href="{{.Error.RetryURL}}">Try again</a>{{end}}
        </div>
        {{else}}
        <h1>{{.Heading}}</h1>
        <div class="video-grid">
            {{range .Videos}}` + videoCardHTML + `{{end}}
        </div>
        {{end}}
    </main>
    <script nonce="{{.Nonce}}">` + regionHintsJS + `</script>
</body>
</html>
`))

// Home renders the video grid: search results for ?q=, the personal feed
// for ?feed=personal, otherwise the chart for ?category=.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	v := h.visit(w, r)
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	category := r.URL.Query().Get("category")
	if !youtube.IsCategory(category) {
		category = youtube.CategoryAll
	}
	personal := r.URL.Query().Get("feed") == "personal" && v.user != nil

	data := homePageData{
		chrome:          h.chrome(r, v, "Vixel"),
		Personal:        personal,
		SignInCancelled: r.URL.Query().Get("signin") == "cancelled",
	}
	data.Query = query
	data.Category = category

	if msg := validate.SearchQuery(query); msg != "" {
		data.Error = &pageError{Message: msg}
		render(w, http.StatusBadRequest, homePageTemplate, data)
		return
	}

	var page youtube.Page
	var err error
	switch {
	case query != "":
		data.Title = query + " - Vixel"
		data.Heading = fmt.Sprintf("Results for %q", query)
		page, err = h.videos.Search(r.Context(), v.viewer, query, youtube.DefaultGridSize)
	case personal:
		data.Heading = "Your feed"
		page, err = h.videos.Personalized(r.Context(), v.viewer, youtube.DefaultGridSize)
	default:
		data.Heading = headingFor(category, data.RegionName)
		page, err = h.videos.ByCategory(r.Context(), v.viewer, category, youtube.DefaultGridSize)
	}

	status := http.StatusOK
	if err != nil {
		e := asAPIError(err)
		slog.Warn("video: home feed failed", "kind", e.Kind, "region", v.viewer.Region, "error", e.Message)
		data.Error = &pageError{Message: e.UserMessage, CanRetry: e.CanRetry, RetryURL: r.URL.RequestURI()}
		if e.Kind != youtube.KindNotFound {
			status = errorStatus(e)
		}
	}
	data.Videos = page.Items

	render(w, status, homePageTemplate, data)
}

func headingFor(category, regionName string) string {
	if category == youtube.CategoryAll {
		return "Trending in " + regionName
	}
	for _, c := range youtube.Categories() {
		if c.ID == category {
			return c.Name + " in " + regionName
		}
	}
	return "Trending"
}
