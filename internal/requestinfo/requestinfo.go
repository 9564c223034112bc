//
//  internal/requestinfo/requestinfo.go
//
//  Lightweight types and helpers that collect per-request metadata
//  (user-agent fingerprint, IP + geolocation, and timestamp).  These
//  structs are inert.  They hold no handles or large buffers, so they are
//  safe to log.  The contact handlers attach a subset to the submission
//  log line; nothing here is sent to the remote endpoint.
//
//  Dependencies
//  • internal/ua                       (uasurfer wrapper)
//  • github.com/oschwald/geoip2-golang (MaxMind lookup)
//

package requestinfo

import (
	"context"
	"net"
	"strings"
	"time"

	"github.com/oschwald/geoip2-golang"

	"github.com/yanizio/contactform/internal/ua"
)

//
//  -----------------------------
//  Struct definitions
//  -----------------------------
//

// Geo holds IP-based geolocation hints.  These are best-effort and may be
// empty if no database is configured or the DB has no match.
type Geo struct {
	IP         net.IP
	CountryISO string // "US", "CA", "FR", ...
	City       string // "Chicago", "Paris", ...
}

// RequestInfo is attached to the request context by Enrich.
type RequestInfo struct {
	UA          ua.Info
	PrimaryLang string // first tag from Accept-Language ("en", "es", ...)
	Geo         Geo
	Timestamp   time.Time
}

//
//  -----------------------------
//  Geo lookup
//  -----------------------------
//

// GeoLookup is the subset of *geoip2.Reader that Enrich needs.
type GeoLookup interface {
	City(ip net.IP) (*geoip2.City, error)
}

// OpenGeo opens a GeoLite2-City database.  The reader is safe for
// concurrent lookups and should be closed on shutdown.
func OpenGeo(dbPath string) (*geoip2.Reader, error) {
	return geoip2.Open(dbPath)
}

// lookupGeo returns best-effort Geo data.  geo may be nil.
func lookupGeo(geo GeoLookup, ip net.IP) Geo {
	if geo == nil || ip == nil {
		return Geo{IP: ip}
	}
	rec, err := geo.City(ip)
	if err != nil || rec == nil {
		return Geo{IP: ip}
	}
	return Geo{
		IP:         ip,
		CountryISO: rec.Country.IsoCode,
		City:       rec.City.Names["en"],
	}
}

//
//  -----------------------------
//  Public helper: FromContext
//  -----------------------------
//

type ctxKey struct{}

// FromContext returns the pointer previously stored by Enrich.
// It returns nil if the middleware has not run.
func FromContext(ctx context.Context) *RequestInfo {
	v, _ := ctx.Value(ctxKey{}).(*RequestInfo)
	return v
}

// primaryLang extracts the first language subtag before any ";q=" rule.
func primaryLang(al string) string {
	if al == "" {
		return ""
	}
	tag, _, _ := strings.Cut(al, ",")
	tag, _, _ = strings.Cut(strings.TrimSpace(tag), ";")
	return strings.ToLower(strings.TrimSpace(tag))
}
