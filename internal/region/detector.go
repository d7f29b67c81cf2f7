package region

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/vixel/vixel/internal/metrics"
)

const (
	defaultIPAPIURL     = "https://ipapi.co"
	defaultCountryIsURL = "https://api.country.is"
	defaultNominatimURL = "https://nominatim.openstreetmap.org"
	defaultUserAgent    = "Vixel/1.0 (https://vixel.app)"
)

// CountryLookup resolves an IP address from a local database.
type CountryLookup interface {
	Country(ip string) string
}

// Hints is everything a request can tell about where the visitor is.
type Hints struct {
	IP             string
	Latitude       float64
	Longitude      float64
	HasCoordinates bool
	TimeZone       string
	AcceptLanguage string
	// Saved is a previously detected code whose cache entry has gone stale.
	Saved string
}

type Config struct {
	GeoIP CountryLookup
	// Remote enables the ipapi.co, country.is and Nominatim lookups.
	Remote        bool
	DefaultRegion string
	HTTPClient    *http.Client
	UserAgent     string

	IPAPIURL     string
	CountryIsURL string
	NominatimURL string
}

type Detector struct {
	geo           CountryLookup
	remote        bool
	defaultRegion string
	http          *http.Client
	userAgent     string
	ipapiURL      string
	countryIsURL  string
	nominatimURL  string
}

func NewDetector(cfg Config) *Detector {
	d := &Detector{
		geo:           cfg.GeoIP,
		remote:        cfg.Remote,
		defaultRegion: Normalize(cfg.DefaultRegion),
		http:          cfg.HTTPClient,
		userAgent:     cfg.UserAgent,
		ipapiURL:      cfg.IPAPIURL,
		countryIsURL:  cfg.CountryIsURL,
		nominatimURL:  cfg.NominatimURL,
	}
	if d.defaultRegion == "" {
		d.defaultRegion = DefaultCode
	}
	if d.http == nil {
		d.http = &http.Client{Timeout: 5 * time.Second}
	}
	if d.userAgent == "" {
		d.userAgent = defaultUserAgent
	}
	if d.ipapiURL == "" {
		d.ipapiURL = defaultIPAPIURL
	}
	if d.countryIsURL == "" {
		d.countryIsURL = defaultCountryIsURL
	}
	if d.nominatimURL == "" {
		d.nominatimURL = defaultNominatimURL
	}
	return d
}

// Detect walks the cascade IP, coordinates, timezone, language, saved value,
// default and returns the first code found.
func (d *Detector) Detect(ctx context.Context, h Hints) Result {
	result := d.detect(ctx, h)
	metrics.RegionDetections.WithLabelValues(result.Source).Inc()
	return result
}

func (d *Detector) detect(ctx context.Context, h Hints) Result {
	if code := d.fromIP(ctx, h.IP); code != "" {
		return Result{Code: code, Source: SourceIP}
	}
	if h.HasCoordinates {
		if code := d.fromCoordinates(ctx, h.Latitude, h.Longitude); code != "" {
			return Result{Code: code, Source: SourceGeolocation}
		}
	}
	if code := FromTimeZone(h.TimeZone); code != "" {
		return Result{Code: code, Source: SourceTimezone}
	}
	if code := FromLanguage(h.AcceptLanguage); code != "" {
		return Result{Code: code, Source: SourceLanguage}
	}
	if code := Normalize(h.Saved); code != "" {
		return Result{Code: code, Source: SourceSaved}
	}
	return Result{Code: d.defaultRegion, Source: SourceDefault}
}

// Locate resolves browser coordinates alone.
func (d *Detector) Locate(ctx context.Context, lat, lon float64) (Result, bool) {
	code := d.fromCoordinates(ctx, lat, lon)
	if code == "" {
		return Result{}, false
	}
	metrics.RegionDetections.WithLabelValues(SourceGeolocation).Inc()
	return Result{Code: code, Source: SourceGeolocation}, true
}

func (d *Detector) fromIP(ctx context.Context, ip string) string {
	if ip == "" {
		return ""
	}
	if d.geo != nil {
		if code := Normalize(d.geo.Country(ip)); code != "" {
			return code
		}
	}
	if !d.remote || !isPublicIP(ip) {
		return ""
	}

	var ipapi struct {
		CountryCode string `json:"country_code"`
		Error       bool   `json:"error"`
	}
	err := d.getJSON(ctx, d.ipapiURL+"/"+url.PathEscape(ip)+"/json/", &ipapi)
	if err == nil && !ipapi.Error {
		if code := Normalize(ipapi.CountryCode); code != "" {
			return code
		}
	}
	if err != nil {
		slog.Warn("region: ipapi lookup failed", "error", err)
	}

	var countryIs struct {
		Country string `json:"country"`
	}
	if err := d.getJSON(ctx, d.countryIsURL+"/"+url.PathEscape(ip), &countryIs); err != nil {
		slog.Warn("region: country.is lookup failed", "error", err)
		return ""
	}
	return Normalize(countryIs.Country)
}

func (d *Detector) fromCoordinates(ctx context.Context, lat, lon float64) string {
	if !d.remote || !validCoordinates(lat, lon) {
		return ""
	}

	q := url.Values{}
	q.Set("format", "json")
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("addressdetails", "1")

	var reverse struct {
		Address struct {
			Country     string `json:"country"`
			CountryCode string `json:"country_code"`
		} `json:"address"`
	}
	if err := d.getJSON(ctx, d.nominatimURL+"/reverse?"+q.Encode(), &reverse); err != nil {
		slog.Warn("region: reverse geocoding failed", "error", err)
		return ""
	}
	return Normalize(reverse.Address.CountryCode)
}

func (d *Detector) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.http.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned status %d", req.URL.Host, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func isPublicIP(s string) bool {
	ip := net.ParseIP(s)
	if ip == nil {
		return false
	}
	return !(ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() ||
		ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast())
}

func validCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
