package region

import (
	"strings"
)

const DefaultCode = "US"

// Detection sources, reported alongside the resolved code.
const (
	SourceManual      = "manual"
	SourceCache       = "cache"
	SourceIP          = "ip"
	SourceGeolocation = "geolocation"
	SourceTimezone    = "timezone"
	SourceLanguage    = "language"
	SourceSaved       = "saved"
	SourceDefault     = "default"
)

type Result struct {
	Code   string `json:"code"`
	Source string `json:"source"`
}

type Region struct {
	Code string `json:"code"`
	Name string `json:"name"`
	Flag string `json:"flag"`
}

var popularRegions = []Region{
	{Code: "US", Name: "United States", Flag: "🇺🇸"},
	{Code: "GB", Name: "United Kingdom", Flag: "🇬🇧"},
	{Code: "CA", Name: "Canada", Flag: "🇨🇦"},
	{Code: "AU", Name: "Australia", Flag: "🇦🇺"},
	{Code: "DE", Name: "Germany", Flag: "🇩🇪"},
	{Code: "FR", Name: "France", Flag: "🇫🇷"},
	{Code: "JP", Name: "Japan", Flag: "🇯🇵"},
	{Code: "KR", Name: "South Korea", Flag: "🇰🇷"},
	{Code: "IN", Name: "India", Flag: "🇮🇳"},
	{Code: "BR", Name: "Brazil", Flag: "🇧🇷"},
}

func PopularRegions() []Region {
	out := make([]Region, len(popularRegions))
	copy(out, popularRegions)
	return out
}

// Normalize upper-cases a two letter country code and returns "" for
// anything that is not one.
func Normalize(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 2 {
		return ""
	}
	for _, c := range code {
		if c < 'A' || c > 'Z' {
			return ""
		}
	}
	return code
}

// Name returns the display name for popular regions and the code otherwise.
func Name(code string) string {
	for _, r := range popularRegions {
		if r.Code == code {
			return r.Name
		}
	}
	return code
}
