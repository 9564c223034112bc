package requestinfo

import (
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/oschwald/geoip2-golang"
)

type fakeGeo struct {
	lookups int
}

func (f *fakeGeo) City(ip net.IP) (*geoip2.City, error) {
	f.lookups++
	if ip.Equal(net.ParseIP("203.0.113.9")) {
		rec := &geoip2.City{}
		rec.Country.IsoCode = "FR"
		rec.City.Names = map[string]string{"en": "Paris"}
		return rec, nil
	}
	return nil, errors.New("no record")
}

func serve(t *testing.T, geo GeoLookup, r *http.Request) *RequestInfo {
	t.Helper()
	var got *RequestInfo
	h := Enrich(geo)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = FromContext(r.Context())
	}))
	h.ServeHTTP(httptest.NewRecorder(), r)
	if got == nil {
		t.Fatal("RequestInfo not attached")
	}
	return got
}

func TestEnrichAttachesInfo(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/contact", nil)
	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	r.Header.Set("Accept-Language", "fr-FR;q=0.9, en;q=0.8")
	r.Header.Set("User-Agent", "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)")

	fg := &fakeGeo{}
	info := serve(t, fg, r)

	if !info.Geo.IP.Equal(net.ParseIP("203.0.113.9")) {
		t.Errorf("ip = %v", info.Geo.IP)
	}
	if info.Geo.CountryISO != "FR" || info.Geo.City != "Paris" {
		t.Errorf("geo = %+v", info.Geo)
	}
	if info.PrimaryLang != "fr-fr" {
		t.Errorf("lang = %q", info.PrimaryLang)
	}
	if !info.UA.IsBot {
		t.Error("bot not detected")
	}
	if info.Timestamp.IsZero() {
		t.Error("timestamp not set")
	}
	if fg.lookups != 1 {
		t.Errorf("lookups = %d", fg.lookups)
	}
}

func TestEnrichWithoutGeo(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.0.2.7:5555"
	info := serve(t, nil, r)
	if !info.Geo.IP.Equal(net.ParseIP("192.0.2.7")) || info.Geo.CountryISO != "" {
		t.Fatalf("geo = %+v", info.Geo)
	}
}

func TestGeoMissIsBestEffort(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Real-Ip", "198.51.100.1")
	info := serve(t, &fakeGeo{}, r)
	if info.Geo.CountryISO != "" || !info.Geo.IP.Equal(net.ParseIP("198.51.100.1")) {
		t.Fatalf("geo = %+v", info.Geo)
	}
}

func TestFromContextWithoutMiddleware(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if FromContext(r.Context()) != nil {
		t.Fatal("FromContext returned a value without Enrich")
	}
}

func TestPrimaryLang(t *testing.T) {
	cases := map[string]string{
		"":               "",
		"en-US,en;q=0.9": "en-us",
		" de ; q=1":      "de",
		"ES":             "es",
	}
	for in, want := range cases {
		if got := primaryLang(in); got != want {
			t.Errorf("primaryLang(%q) = %q, want %q", in, got, want)
		}
	}
}
