// internal/server/timeouts.go
//
// HTTP server helper with robust timeouts.
//
// Production hardening recommends:
//
//   • ReadHeaderTimeout – abort slow-loris headers (5 s)
//   • ReadTimeout       – cap request body upload (10 s)
//   • IdleTimeout       – close keep-alives on idle clients (60 s)
//
// WriteTimeout is left to the caller.  A submission holds its response
// open for as long as the relay call takes, so a fixed cap here would
// silently override the relay's own (possibly unbounded) timeout.
//

package server

import (
	"net/http"
	"time"
)

const (
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 10 * time.Second
	idleTimeout       = 60 * time.Second

	// writeSlack is added to a bounded relay timeout so the page render
	// after a slow relay still fits.
	writeSlack = 15 * time.Second
)

// New constructs an *http.Server with sensible defaults.  relayTimeout is
// the configured endpoint timeout; zero leaves WriteTimeout unbounded.
func New(addr string, handler http.Handler, relayTimeout time.Duration) *http.Server {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		IdleTimeout:       idleTimeout,
	}
	if relayTimeout > 0 {
		srv.WriteTimeout = relayTimeout + writeSlack
	}
	return srv
}
