package region

import (
	"net/http"
	"net/url"

	"github.com/vixel/vixel/internal/httputil"
)

// TimeZoneCookie carries the browser's IANA zone, set by page script.
const TimeZoneCookie = "vixel_tz"

type Resolver struct {
	detector *Detector
	cache    *Cache
}

func NewResolver(detector *Detector, cache *Cache) *Resolver {
	return &Resolver{detector: detector, cache: cache}
}

func (rs *Resolver) Detector() *Detector { return rs.detector }

func (rs *Resolver) Cache() *Cache { return rs.cache }

// Resolve picks the region for a request: the visitor's manual choice, then
// a fresh cached detection, then a new detection. Weak detections made
// before the browser reported its time zone are remembered but not marked
// fresh, so the next request can still reach the timezone step.
func (rs *Resolver) Resolve(w http.ResponseWriter, r *http.Request, manual string) Result {
	if code := Normalize(manual); code != "" {
		return Result{Code: code, Source: SourceManual}
	}

	cached, fresh := rs.cache.Read(r)
	if fresh {
		return Result{Code: cached, Source: SourceCache}
	}

	hints := HintsFromRequest(r)
	hints.Saved = cached
	result := rs.detector.Detect(r.Context(), hints)
	if hints.TimeZone == "" && weakSource(result.Source) {
		rs.cache.Remember(w, result.Code)
	} else {
		rs.cache.Write(w, result.Code)
	}
	return result
}

// weakSource reports whether s ranks below the timezone step.
func weakSource(s string) bool {
	return s == SourceLanguage || s == SourceSaved || s == SourceDefault
}

// Peek reports the region Resolve would start from without running
// detection or writing the cache cookie.
func (rs *Resolver) Peek(r *http.Request, manual string) Result {
	if code := Normalize(manual); code != "" {
		return Result{Code: code, Source: SourceManual}
	}
	cached, fresh := rs.cache.Read(r)
	switch {
	case fresh:
		return Result{Code: cached, Source: SourceCache}
	case cached != "":
		return Result{Code: cached, Source: SourceSaved}
	}
	return Result{Code: rs.detector.defaultRegion, Source: SourceDefault}
}

func HintsFromRequest(r *http.Request) Hints {
	h := Hints{
		IP:             httputil.ClientIP(r),
		AcceptLanguage: r.Header.Get("Accept-Language"),
	}
	if c, err := r.Cookie(TimeZoneCookie); err == nil {
		if tz, err := url.QueryUnescape(c.Value); err == nil {
			h.TimeZone = tz
		}
	}
	return h
}
