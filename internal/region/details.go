package region

import (
	"context"
	"log/slog"
	"net/url"
)

// Details is the descriptive record ipapi.co keeps for an address.
type Details struct {
	Country     string `json:"country"`
	CountryCode string `json:"countryCode"`
	Region      string `json:"region"`
	RegionCode  string `json:"regionCode"`
	City        string `json:"city"`
	TimeZone    string `json:"timezone"`
	Currency    string `json:"currency"`
	Languages   string `json:"languages"`
}

// Details looks up ip at ipapi.co and returns nil when remote lookups are
// disabled or the lookup fails.
func (d *Detector) Details(ctx context.Context, ip string) *Details {
	if !d.remote || !isPublicIP(ip) {
		return nil
	}

	var raw struct {
		CountryName string `json:"country_name"`
		CountryCode string `json:"country_code"`
		Region      string `json:"region"`
		RegionCode  string `json:"region_code"`
		City        string `json:"city"`
		Timezone    string `json:"timezone"`
		Currency    string `json:"currency"`
		Languages   string `json:"languages"`
		Error       bool   `json:"error"`
	}
	if err := d.getJSON(ctx, d.ipapiURL+"/"+url.PathEscape(ip)+"/json/", &raw); err != nil {
		slog.Warn("region: details lookup failed", "error", err)
		return nil
	}
	if raw.Error {
		return nil
	}

	return &Details{
		Country:     raw.CountryName,
		CountryCode: Normalize(raw.CountryCode),
		Region:      raw.Region,
		RegionCode:  raw.RegionCode,
		City:        raw.City,
		TimeZone:    raw.Timezone,
		Currency:    raw.Currency,
		Languages:   raw.Languages,
	}
}
