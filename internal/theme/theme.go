package theme

import (
	"fmt"
	"html/template"
	"strings"
)

const (
	Brutal = "brutal"
	Dark   = "dark"
	Light  = "light"
)

// Palette holds the colours a theme assigns to the page's CSS variables.
type Palette struct {
	Name            string
	ThemeColor      string
	PageGradient    string
	PrimaryBg       string
	SecondaryBg     string
	CardBg          string
	PrimaryText     string
	SecondaryText   string
	Border          string
	ButtonBg        string
	ButtonHoverBg   string
	ButtonText      string
	SecondaryButton string
	Shadow          string
}

var palettes = map[string]Palette{
	Brutal: {
		Name:            Brutal,
		ThemeColor:      "#FFFF00",
		PageGradient:    "linear-gradient(to bottom right, #fbcfe8, #fef08a, #bfdbfe)",
		PrimaryBg:       "#fde047",
		SecondaryBg:     "#ffffff",
		CardBg:          "#ffffff",
		PrimaryText:     "#000000",
		SecondaryText:   "#374151",
		Border:          "#000000",
		ButtonBg:        "#ef4444",
		ButtonHoverBg:   "#dc2626",
		ButtonText:      "#ffffff",
		SecondaryButton: "#ffffff",
		Shadow:          "#000000",
	},
	Dark: {
		Name:            Dark,
		ThemeColor:      "#1a1a1a",
		PageGradient:    "linear-gradient(to bottom right, #111827, #1f2937, #111827)",
		PrimaryBg:       "#111827",
		SecondaryBg:     "#1f2937",
		CardBg:          "#1f2937",
		PrimaryText:     "#ffffff",
		SecondaryText:   "#d1d5db",
		Border:          "#4b5563",
		ButtonBg:        "#2563eb",
		ButtonHoverBg:   "#1d4ed8",
		ButtonText:      "#ffffff",
		SecondaryButton: "#374151",
		Shadow:          "#374151",
	},
	Light: {
		Name:            Light,
		ThemeColor:      "#ffffff",
		PageGradient:    "linear-gradient(to bottom right, #f9fafb, #ffffff, #f3f4f6)",
		PrimaryBg:       "#ffffff",
		SecondaryBg:     "#f9fafb",
		CardBg:          "#ffffff",
		PrimaryText:     "#111827",
		SecondaryText:   "#4b5563",
		Border:          "#e5e7eb",
		ButtonBg:        "#3b82f6",
		ButtonHoverBg:   "#2563eb",
		ButtonText:      "#ffffff",
		SecondaryButton: "#f3f4f6",
		Shadow:          "#e5e7eb",
	},
}

var fontSizes = map[string]string{
	"small":  "14px",
	"medium": "16px",
	"large":  "18px",
}

func IsValid(name string) bool {
	_, ok := palettes[name]
	return ok
}

func Names() []string {
	return []string{Brutal, Dark, Light}
}

// Get returns the named palette, or brutal for unknown names.
func Get(name string) Palette {
	if p, ok := palettes[name]; ok {
		return p
	}
	return palettes[Brutal]
}

type Options struct {
	Theme         string
	HighContrast  bool
	ReducedMotion bool
	FontSize      string
}

// CSS renders the :root custom properties for a theme and the visitor's
// accessibility preferences.
func CSS(opts Options) template.CSS {
	p := Get(opts.Theme)
	if opts.HighContrast {
		p = highContrast(p)
	}
	size, ok := fontSizes[opts.FontSize]
	if !ok {
		size = fontSizes["medium"]
	}

	vars := [][2]string{
		{"--page-gradient", p.PageGradient},
		{"--bg-primary", p.PrimaryBg},
		{"--bg-secondary", p.SecondaryBg},
		{"--bg-card", p.CardBg},
		{"--text-primary", p.PrimaryText},
		{"--text-secondary", p.SecondaryText},
		{"--border", p.Border},
		{"--button-bg", p.ButtonBg},
		{"--button-hover-bg", p.ButtonHoverBg},
		{"--button-text", p.ButtonText},
		{"--button-secondary-bg", p.SecondaryButton},
		{"--shadow", "4px 4px 0 0 " + p.Shadow},
		{"--shadow-large", "8px 8px 0 0 " + p.Shadow},
		{"--shadow-hover", "2px 2px 0 0 " + p.Shadow},
		{"--font-size", size},
	}

	var b strings.Builder
	b.WriteString(":root{")
	for _, v := range vars {
		fmt.Fprintf(&b, "%s:%s;", v[0], v[1])
	}
	b.WriteString("}")
	if opts.ReducedMotion {
		b.WriteString("*,*::before,*::after{animation:none!important;transition:none!important;scroll-behavior:auto!important}")
	}
	return template.CSS(b.String())
}

func highContrast(p Palette) Palette {
	if p.Name == Dark {
		p.PrimaryText, p.SecondaryText, p.Border = "#ffffff", "#ffffff", "#ffffff"
		p.PrimaryBg, p.SecondaryBg, p.CardBg = "#000000", "#000000", "#000000"
		return p
	}
	p.PrimaryText, p.SecondaryText, p.Border = "#000000", "#000000", "#000000"
	return p
}
