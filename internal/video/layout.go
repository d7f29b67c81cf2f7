package video

import (
	"html/template"
	"log/slog"
	"net/http"

	"github.com/vixel/vixel/internal/auth"
	"github.com/vixel/vixel/internal/httputil"
	"github.com/vixel/vixel/internal/region"
	"github.com/vixel/vixel/internal/theme"
	"github.com/vixel/vixel/internal/youtube"
)

// chrome is the data every page layout needs: theme, header and hints.
type chrome struct {
	Nonce         string
	Title         string
	ThemeCSS      template.CSS
	ThemeColor    string
	Query         string
	Mobile        bool
	Categories    []youtube.Category
	Category      string
	User          *auth.User
	SignInEnabled bool
	Region        region.Result
	RegionName    string
}

func (h *Handler) chrome(r *http.Request, v visit, title string) chrome {
	return chrome{
		Nonce: httputil.NonceFromContext(r.Context()),
		Title: title,
		ThemeCSS: theme.CSS(theme.Options{
			Theme:         v.settings.Theme,
			HighContrast:  v.settings.HighContrast,
			ReducedMotion: v.settings.ReducedMotion,
			FontSize:      v.settings.FontSize,
		}),
		ThemeColor:    theme.Get(v.settings.Theme).ThemeColor,
		Mobile:        isMobile(r),
		Categories:    youtube.Categories(),
		Category:      youtube.CategoryAll,
		User:          v.user,
		SignInEnabled: h.signInEnabled,
		Region:        v.region,
		RegionName:    regionName(v.region.Code),
	}
}

func regionName(code string) string {
	if name := region.Name(code); name != "" {
		return name
	}
	return code
}

var pageFuncs = template.FuncMap{
	"timeAgo": youtube.TimeAgo,
}

func render(w http.ResponseWriter, status int, tmpl *template.Template, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.Execute(w, data); err != nil {
		slog.Error("video: failed to render page", "template", tmpl.Name(), "error", err)
	}
}

// layoutHeadHTML goes inside <head>. Page styles follow it in their own
// <style> element.
const layoutHeadHTML = `
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <meta name="theme-color" content="{{.ThemeColor}}">
    <title>{{.Title}}</title>
    <style nonce="{{.Nonce}}">{{.ThemeCSS}}</style>
    <style nonce="{{.Nonce}}">
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body {
            font-family: "Space Grotesk", -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
            font-size: var(--font-size);
            background: var(--page-gradient);
            color: var(--text-primary);
            min-height: 100vh;
            line-height: 1.5;
        }
        a { color: inherit; }
        .site-header {
            display: flex;
            align-items: center;
            gap: 1rem;
            padding: 0.75rem 1.5rem;
            background: var(--bg-primary);
            border-bottom: 4px solid var(--border);
            position: sticky;
            top: 0;
            z-index: 50;
        }
        .logo {
            font-size: 1.75rem;
            font-weight: 900;
            letter-spacing: -0.05em;
            text-decoration: none;
            text-transform: uppercase;
        }
        .search-form { flex: 1; display: flex; max-width: 640px; }
        .search-form input {
            flex: 1;
            padding: 0.6rem 0.9rem;
            font: inherit;
            border: 3px solid var(--border);
            background: var(--bg-card);
            color: var(--text-primary);
        }
        .btn {
            display: inline-block;
            padding: 0.55rem 1rem;
            font: inherit;
            font-weight: 700;
            text-decoration: none;
            text-transform: uppercase;
            border: 3px solid var(--border);
            background: var(--button-bg);
            color: var(--button-text);
            box-shadow: var(--shadow);
            cursor: pointer;
        }
        .btn:hover { background: var(--button-hover-bg); box-shadow: var(--shadow-hover); }
        .btn-secondary { background: var(--button-secondary-bg); color: var(--text-primary); }
        .header-actions { display: flex; align-items: center; gap: 0.5rem; margin-left: auto; }
        .region-badge {
            font-size: 0.8rem;
            font-weight: 700;
            padding: 0.25rem 0.5rem;
            border: 2px solid var(--border);
            background: var(--bg-card);
        }
        .avatar { width: 32px; height: 32px; border-radius: 50%; border: 2px solid var(--border); }
        .inline-form { display: inline; }
        .category-bar {
            display: flex;
            gap: 0.5rem;
            overflow-x: auto;
            padding: 0.75rem 1.5rem;
            background: var(--bg-secondary);
            border-bottom: 3px solid var(--border);
        }
        .category {
            flex-shrink: 0;
            padding: 0.3rem 0.8rem;
            font-weight: 800;
            font-size: 0.85rem;
            text-decoration: none;
            border: 3px solid var(--border);
            background: var(--bg-card);
        }
        .category.active { color: #fff; }
        {{range .Categories}}.category.active.cat-{{.ID}} { background: {{.Color}}; }
        {{end}}
        main { padding: 1.5rem; }
        .notice {
            padding: 0.75rem 1rem;
            margin-bottom: 1rem;
            border: 3px solid var(--border);
            background: var(--bg-card);
            box-shadow: var(--shadow);
        }
        .mobile .site-header { flex-wrap: wrap; padding: 0.5rem 0.75rem; }
        .mobile .search-form { order: 3; flex-basis: 100%; max-width: none; }
        .mobile main { padding: 0.75rem; }
    </style>
`

// siteHeaderHTML is the top bar with search, region, settings and account.
const siteHeaderHTML = `
    <header class="site-header">
        <a class="logo" href="/">Vixel</a>
        <form class="search-form" action="/" method="get" role="search">
            <input type="search" name="q" value="{{.Query}}" placeholder="Search videos" maxlength="200" aria-label="Search videos">
            <button class="btn" type="submit">Search</button>
        </form>
        <div class="header-actions">
            <span class="region-badge" title="Region detected from {{.Region.Source}}">{{.Region.Code}}</span>
            <a class="btn btn-secondary" href="/settings">Settings</a>
            {{if .User}}
            <a href="/?feed=personal" title="Your feed">{{if .User.Picture}}<img class="avatar" src="{{.User.Picture}}" alt="{{.User.Name}}">{{else}}{{.User.Name}}{{end}}</a>
            <form class="inline-form" action="/auth/logout" method="post"><button class="btn btn-secondary" type="submit">Sign out</button></form>
            {{else if .SignInEnabled}}
            <a class="btn" href="/auth/login">Sign in</a>
            {{end}}
        </div>
    </header>
`

// categoryBarHTML lists the fixed video categories.
const categoryBarHTML = `
    <nav class="category-bar" aria-label="Categories">
        {{$active := .Category}}
        {{range .Categories}}
        <a class="category cat-{{.ID}}{{if eq .ID $active}} active{{end}}" href="/?category={{.ID}}">{{.Name}}</a>
        {{end}}
    </nav>
`

// regionHintsJS records the browser time zone for region detection and asks
// for coordinates when the region came from a step that ranks below
// geolocation. A newly set time zone triggers one reload so it is used.
const regionHintsJS = `
        (function() {
            var regionSource = {{.Region.Source}};
            var weak = ['timezone', 'language', 'saved', 'default'].indexOf(regionSource) !== -1;
            var tzAdded = false;
            try {
                var tz = Intl.DateTimeFormat().resolvedOptions().timeZone;
                if (tz && document.cookie.indexOf('vixel_tz=' + encodeURIComponent(tz)) === -1) {
                    document.cookie = 'vixel_tz=' + encodeURIComponent(tz) + '; path=/; max-age=31536000; samesite=lax';
                    tzAdded = true;
                }
            } catch (e) {}
            function reloadOnce() {
                if (!tzAdded || sessionStorage.getItem('vixel_tz_reloaded')) return;
                sessionStorage.setItem('vixel_tz_reloaded', '1');
                window.location.reload();
            }
            if (!weak) return;
            if (!navigator.geolocation || sessionStorage.getItem('vixel_geo_asked')) {
                reloadOnce();
                return;
            }
            sessionStorage.setItem('vixel_geo_asked', '1');
            navigator.geolocation.getCurrentPosition(function(pos) {
                fetch('/api/region/locate', {
                    method: 'POST',
                    headers: { 'Content-Type': 'application/json' },
                    body: JSON.stringify({ latitude: pos.coords.latitude, longitude: pos.coords.longitude })
                }).then(function(resp) {
                    if (resp.ok) window.location.reload();
                    else reloadOnce();
                }).catch(reloadOnce);
            }, reloadOnce, { timeout: 10000, maximumAge: 600000 });
        })();
`
