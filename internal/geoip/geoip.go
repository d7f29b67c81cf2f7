package geoip

import (
	"log/slog"
	"net"
	"strings"

	"github.com/oschwald/maxminddb-golang"
)

// Location is what a local MaxMind lookup knows about an address.
type Location struct {
	Country  string
	City     string
	TimeZone string
}

type Resolver struct {
	db *maxminddb.Reader
}

type geoResult struct {
	Country struct {
		ISOCode string `maxminddb:"iso_code"`
	} `maxminddb:"country"`
	City struct {
		Names map[string]string `maxminddb:"names"`
	} `maxminddb:"city"`
	Location struct {
		TimeZone string `maxminddb:"time_zone"`
	} `maxminddb:"location"`
}

// New opens a GeoLite2/GeoIP2 country or city database. A missing path or
// unreadable file yields a resolver that finds nothing.
func New(dbPath string) (*Resolver, error) {
	if dbPath == "" {
		return &Resolver{}, nil
	}
	db, err := maxminddb.Open(dbPath)
	if err != nil {
		slog.Warn("geoip: failed to open database, local lookups disabled", "path", dbPath, "error", err)
		return &Resolver{}, nil
	}
	slog.Info("geoip: loaded database", "path", dbPath, "type", db.Metadata.DatabaseType)
	return &Resolver{db: db}, nil
}

func (r *Resolver) Enabled() bool {
	return r != nil && r.db != nil
}

func (r *Resolver) Lookup(ipStr string) Location {
	if !r.Enabled() || ipStr == "" {
		return Location{}
	}
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return Location{}
	}
	var result geoResult
	if err := r.db.Lookup(ip, &result); err != nil {
		slog.Debug("geoip: lookup failed", "ip", ipStr, "error", err)
		return Location{}
	}
	return Location{
		Country:  strings.ToUpper(result.Country.ISOCode),
		City:     result.City.Names["en"],
		TimeZone: result.Location.TimeZone,
	}
}

// Country returns the ISO 3166-1 alpha-2 code for ip, or "" when unknown.
func (r *Resolver) Country(ipStr string) string {
	return r.Lookup(ipStr).Country
}

func (r *Resolver) Close() error {
	if r.Enabled() {
		return r.db.Close()
	}
	return nil
}
