package region

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	CookieName = "vixel_region"
	// Freshness of a detected region. The cookie itself outlives it so a
	// stale value can still serve as the saved fallback.
	CacheDuration = 24 * time.Hour
	cookieMaxAge  = 30 * 24 * time.Hour
)

// Cache keeps the last resolved region as "CODE.unixSeconds" in a cookie.
type Cache struct {
	secure bool
	now    func() time.Time
}

func NewCache(secure bool) *Cache {
	return &Cache{secure: secure, now: time.Now}
}

// Read returns the cached code and whether it is still fresh.
func (c *Cache) Read(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return "", false
	}
	raw, stamp, ok := strings.Cut(cookie.Value, ".")
	code := Normalize(raw)
	if code == "" {
		return "", false
	}
	if !ok {
		return code, false
	}
	unix, err := strconv.ParseInt(stamp, 10, 64)
	if err != nil {
		return code, false
	}
	age := c.now().Sub(time.Unix(unix, 0))
	return code, age >= 0 && age < CacheDuration
}

func (c *Cache) Write(w http.ResponseWriter, code string) {
	code = Normalize(code)
	if code == "" {
		return
	}
	c.set(w, code+"."+strconv.FormatInt(c.now().Unix(), 10))
}

// Remember stores code without a timestamp. It is never fresh, so it only
// serves as the saved fallback and detection still runs on the next request.
func (c *Cache) Remember(w http.ResponseWriter, code string) {
	code = Normalize(code)
	if code == "" {
		return
	}
	c.set(w, code)
}

func (c *Cache) set(w http.ResponseWriter, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(cookieMaxAge / time.Second),
	})
}

// SetManual stores a region the visitor picked. It reports false for codes
// that are not two letters.
func (c *Cache) SetManual(w http.ResponseWriter, code string) (string, bool) {
	code = Normalize(code)
	if code == "" {
		return "", false
	}
	c.Write(w, code)
	return code, true
}

func (c *Cache) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}
