// internal/middleware/accesslog.go
//
// Access-log middleware.
//
// One structured line per request, levelled by status class: 5xx at
// ERROR, 4xx at WARN, everything else at INFO.  The chi request id (set
// by middleware.RequestID upstream) ties the line to the submission log
// written by the contact handlers.
//
// Notes
// -----
// • Oxford commas, two spaces after periods.

package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// AccessLog returns middleware that logs each request to log.  A nil log
// uses the global sugared logger at call time.
func AccessLog(log *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			l := log
			if l == nil {
				l = zap.S()
			}
			logFn := l.Infow
			switch {
			case status >= 500:
				logFn = l.Errorw
			case status >= 400:
				logFn = l.Warnw
			}

			logFn("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"request_id", chimw.GetReqID(r.Context()),
			)
		})
	}
}
