package video

import (
	"errors"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/vixel/vixel/internal/languages"
	"github.com/vixel/vixel/internal/region"
	"github.com/vixel/vixel/internal/settings"
	"github.com/vixel/vixel/internal/theme"
	"github.com/vixel/vixel/internal/validate"
)

const maxSettingsFormBytes = 64 * 1024

// selectFields are posted as plain values, toggleFields as checkboxes that
// are absent when off.
var (
	selectFields = []string{"theme", "region", "language", "defaultQuality", "defaultSpeed", "dataUsage", "fontSize"}
	toggleFields = []toggle{
		{Key: "autoplay", Label: "Autoplay next video", Group: "Playback"},
		{Key: "subtitles", Label: "Show subtitles", Group: "Playback"},
		{Key: "saveWatchHistory", Label: "Save watch history", Group: "Privacy"},
		{Key: "personalizedAds", Label: "Personalized ads", Group: "Privacy"},
		{Key: "newVideosFromSubscriptions", Label: "New videos from subscriptions", Group: "Notifications"},
		{Key: "trendingInYourArea", Label: "Trending in your area", Group: "Notifications"},
		{Key: "systemNotifications", Label: "System notifications", Group: "Notifications"},
		{Key: "reducedMotion", Label: "Reduce motion", Group: "Accessibility"},
		{Key: "highContrast", Label: "High contrast", Group: "Accessibility"},
	}
)

type toggle struct {
	Key   string
	Label string
	Group string
	On    bool
}

type settingsPageData struct {
	chrome
	Settings   settings.Settings
	Themes     []string
	Regions    []region.Region
	Languages  []languages.Language
	Qualities  []string
	DataUsages []string
	FontSizes  []string
	Speeds     []float64
	Toggles    []toggle
	MaxImport  int
	Error      string
	Notice     string
}

var settingsPageTemplate = template.Must(template.New("settings").Parse(`<!DOCTYPE html>
<html lang="en">
<head>` + layoutHeadHTML + `
    <style nonce="{{.Nonce}}">
        .settings { max-width: 760px; margin: 0 auto; }
        .settings h1 { font-size: 1.8rem; font-weight: 900; text-transform: uppercase; margin-bottom: 1rem; }
        .panel {
            padding: 1.25rem;
            margin-bottom: 1.5rem;
            background: var(--bg-card);
            border: 4px solid var(--border);
            box-shadow: var(--shadow-large);
        }
        .panel h2 { font-size: 1.1rem; font-weight: 900; text-transform: uppercase; margin-bottom: 0.75rem; }
        .field { display: flex; justify-content: space-between; align-items: center; gap: 1rem; padding: 0.4rem 0; }
        .field label { font-weight: 700; }
        select, textarea, input[type=file] {
            font: inherit;
            padding: 0.4rem;
            border: 3px solid var(--border);
            background: var(--bg-secondary);
            color: var(--text-primary);
        }
        textarea { width: 100%; min-height: 8rem; font-family: monospace; }
        .actions { display: flex; flex-wrap: wrap; gap: 0.75rem; }
        .backup { margin-top: 1.5rem; }
        .error { border-color: #ef4444; color: #ef4444; font-weight: 700; }
    </style>
</head>
<body{{if .Mobile}} class="mobile"{{end}}>` + siteHeaderHTML + `
    <main class="settings">
        <h1>Settings</h1>
        {{if .Error}}<div class="notice error" role="alert">{{.Error}}</div>{{end}}
        {{if .Notice}}<div class="notice" role="status">{{.Notice}}</div>{{end}}
        <form method="post" action="/settings">
            <section class="panel">
                <h2>Appearance</h2>
                <div class="field">
                    <label for="theme">Theme</label>
                    <select id="theme" name="theme">
                        {{range .Themes}}<option value="{{.}}"{{if eq . $.Settings.Theme}} selected{{end}}>{{.}}</option>{{end}}
                    </select>
                </div>
                <div class="field">
                    <label for="fontSize">Font size</label>
                    <select id="fontSize" name="fontSize">
                        {{range .FontSizes}}<option value="{{.}}"{{if eq . $.Settings.FontSize}} selected{{end}}>{{.}}</option>{{end}}
                    </select>
                </div>
            </section>
            <section class="panel">
                <h2>Region and language</h2>
                <div class="field">
                    <label for="region">Region</label>
                    <select id="region" name="region">
                        <option value=""{{if not .Settings.Region}} selected{{end}}>Auto-detect ({{.RegionName}})</option>
                        {{range .Regions}}<option value="{{.Code}}"{{if eq .Code $.Settings.Region}} selected{{end}}>{{.Flag}} {{.Name}}</option>{{end}}
                    </select>
                </div>
                <div class="field">
                    <label for="language">Language</label>
                    <select id="language" name="language">
                        {{range .Languages}}<option value="{{.Code}}"{{if eq .Code $.Settings.Language}} selected{{end}}>{{.Name}}</option>{{end}}
                    </select>
                </div>
            </section>
            <section class="panel">
                <h2>Playback</h2>
                <div class="field">
                    <label for="defaultQuality">Default quality</label>
                    <select id="defaultQuality" name="defaultQuality">
                        {{range .Qualities}}<option value="{{.}}"{{if eq . $.Settings.DefaultQuality}} selected{{end}}>{{.}}</option>{{end}}
                    </select>
                </div>
                <div class="field">
                    <label for="defaultSpeed">Default speed</label>
                    <select id="defaultSpeed" name="defaultSpeed">
                        {{range .Speeds}}<option value="{{.}}"{{if eq . $.Settings.DefaultSpeed}} selected{{end}}>{{.}}x</option>{{end}}
                    </select>
                </div>
                <div class="field">
                    <label for="dataUsage">Data usage</label>
                    <select id="dataUsage" name="dataUsage">
                        {{range .DataUsages}}<option value="{{.}}"{{if eq . $.Settings.DataUsage}} selected{{end}}>{{.}}</option>{{end}}
                    </select>
                </div>
            </section>
            <section class="panel">
                <h2>Preferences</h2>
                {{range .Toggles}}
                <div class="field">
                    <label for="{{.Key}}">{{.Group}}: {{.Label}}</label>
                    <input type="checkbox" id="{{.Key}}" name="{{.Key}}" value="true"{{if .On}} checked{{end}}>
                </div>
                {{end}}
            </section>
            <div class="actions">
                <button class="btn" type="submit">Save settings</button>
            </div>
        </form>
        <section class="panel backup">
            <h2>Backup</h2>
            <div class="actions">
                <a class="btn btn-secondary" href="/settings/export">Export settings</a>
                <form class="inline-form" method="post" action="/settings/reset">
                    <button class="btn btn-secondary" type="submit">Reset to defaults</button>
                </form>
            </div>
            <form method="post" action="/settings/import" enctype="multipart/form-data">
                <div class="field">
                    <label for="import-file">Import file</label>
                    <input type="file" id="import-file" name="file" accept="application/json,.json">
                </div>
                <textarea name="settings" maxlength="{{.MaxImport}}" placeholder="Or paste exported settings JSON"></textarea>
                <div class="actions"><button class="btn" type="submit">Import settings</button></div>
            </form>
        </section>
    </main>
    <script nonce="{{.Nonce}}">` + regionHintsJS + `</script>
</body>
</html>
`))

var settingsNotices = map[string]string{
	"saved":    "Settings saved.",
	"reset":    "Settings reset to defaults.",
	"imported": "Settings imported.",
}

// SettingsPage renders /settings with the visitor's current values.
func (h *Handler) SettingsPage(w http.ResponseWriter, r *http.Request) {
	v := h.visit(w, r)
	data := h.settingsPageData(r, v, v.settings)
	data.Notice = settingsNotices[r.URL.Query().Get("done")]
	render(w, http.StatusOK, settingsPageTemplate, data)
}

// SaveSettings applies a posted settings form. Invalid values leave the
// stored settings untouched and re-render the form with the error.
func (h *Handler) SaveSettings(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSettingsFormBytes)
	if err := r.ParseForm(); err != nil {
		h.settingsFormError(w, r, "Could not read the settings form.")
		return
	}

	s := h.settings.Load(r)
	for _, key := range selectFields {
		if _, ok := r.PostForm[key]; !ok {
			continue
		}
		if err := s.Update(key, r.PostForm.Get(key)); err != nil {
			h.settingsFormError(w, r, err.Error())
			return
		}
	}
	for _, t := range toggleFields {
		if err := s.Update(t.Key, strconv.FormatBool(r.PostForm.Get(t.Key) == "true")); err != nil {
			h.settingsFormError(w, r, err.Error())
			return
		}
	}

	if err := h.settings.Save(w, s); err != nil {
		slog.Error("video: failed to save settings", "error", err)
		h.settingsFormError(w, r, "Could not save settings.")
		return
	}
	http.Redirect(w, r, "/settings?done=saved", http.StatusSeeOther)
}

// ExportSettings downloads the visitor's settings as JSON.
func (h *Handler) ExportSettings(w http.ResponseWriter, r *http.Request) {
	data, err := h.settings.Load(r).Export()
	if err != nil {
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="vixel-settings.json"`)
	_, _ = w.Write(data)
}

// ImportSettings replaces the visitor's settings with an uploaded or pasted
// export. The document is overlaid on the defaults and must validate.
func (h *Handler) ImportSettings(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSettingsFormBytes)
	raw, err := importPayload(r)
	if err != nil {
		h.settingsFormError(w, r, err.Error())
		return
	}

	s, err := settings.Import([]byte(raw))
	if err != nil {
		h.settingsFormError(w, r, "Invalid settings file: "+err.Error())
		return
	}
	if err := h.settings.Save(w, s); err != nil {
		slog.Error("video: failed to save imported settings", "error", err)
		h.settingsFormError(w, r, "Could not save settings.")
		return
	}
	http.Redirect(w, r, "/settings?done=imported", http.StatusSeeOther)
}

// ResetSettings restores the defaults and forgets the detected region.
func (h *Handler) ResetSettings(w http.ResponseWriter, r *http.Request) {
	h.settings.Clear(w)
	h.regions.Cache().Clear(w)
	http.Redirect(w, r, "/settings?done=reset", http.StatusSeeOther)
}

func importPayload(r *http.Request) (string, error) {
	var raw string
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxSettingsFormBytes); err != nil {
			return "", errors.New("could not read the uploaded settings")
		}
		if f, _, err := r.FormFile("file"); err == nil {
			defer f.Close()
			b, err := io.ReadAll(io.LimitReader(f, validate.MaxSettingsImportLength+1))
			if err != nil {
				return "", errors.New("could not read the uploaded settings")
			}
			raw = string(b)
		}
	} else if err := r.ParseForm(); err != nil {
		return "", errors.New("could not read the settings form")
	}

	if strings.TrimSpace(raw) == "" {
		raw = r.FormValue("settings")
	}
	if strings.TrimSpace(raw) == "" {
		return "", errors.New("choose a settings file or paste exported settings")
	}
	if msg := validate.SettingsImport(raw); msg != "" {
		return "", errors.New(msg)
	}
	return raw, nil
}

func (h *Handler) settingsFormError(w http.ResponseWriter, r *http.Request, message string) {
	v := h.visit(w, r)
	data := h.settingsPageData(r, v, v.settings)
	data.Error = message
	render(w, http.StatusBadRequest, settingsPageTemplate, data)
}

func (h *Handler) settingsPageData(r *http.Request, v visit, s settings.Settings) settingsPageData {
	regions := region.PopularRegions()
	if s.Region != "" && !containsRegion(regions, s.Region) {
		regions = append(regions, region.Region{Code: s.Region, Name: regionName(s.Region)})
	}

	toggles := make([]toggle, len(toggleFields))
	on := map[string]bool{
		"autoplay":                   s.Autoplay,
		"subtitles":                  s.Subtitles,
		"saveWatchHistory":           s.SaveWatchHistory,
		"personalizedAds":            s.PersonalizedAds,
		"newVideosFromSubscriptions": s.NewVideosFromSubscriptions,
		"trendingInYourArea":         s.TrendingInYourArea,
		"systemNotifications":        s.SystemNotifications,
		"reducedMotion":              s.ReducedMotion,
		"highContrast":               s.HighContrast,
	}
	for i, t := range toggleFields {
		t.On = on[t.Key]
		toggles[i] = t
	}

	return settingsPageData{
		chrome:     h.chrome(r, v, "Settings - Vixel"),
		Settings:   s,
		Themes:     theme.Names(),
		Regions:    regions,
		Languages:  languages.All(),
		Qualities:  settings.Qualities,
		DataUsages: settings.DataUsages,
		FontSizes:  settings.FontSizes,
		Speeds:     settings.Speeds,
		Toggles:    toggles,
		MaxImport:  validate.MaxSettingsImportLength,
	}
}

func containsRegion(regions []region.Region, code string) bool {
	for _, r := range regions {
		if r.Code == code {
			return true
		}
	}
	return false
}
