// cmd/web/main.go
//
// Contact form service – HTTP entry point.
//
// Boot sequence
// -------------
//
//  1. Load env vars (host-wide file → .env fallback).
//
//  2. Load configuration (YAML + env overrides, Vault secrets resolved).
//
//  3. Start daily rotating logger (tees to console when running in a TTY).
//
//  4. Load the form definition.  A missing element id is fatal.
//
//  5. Build shared services: CSRF tokens, session flags, relay client,
//     optional GeoIP reader.
//
//  6. Init every registered component and mount it on a chi router
//     wrapped with request id, real IP, recovery, access log, security
//     headers, optional HTTPS redirect, and request info.
//
//  7. Expose /metrics and /healthz, then serve until SIGINT/SIGTERM and
//     shut down gracefully.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/yanizio/contactform/internal/component"
	"github.com/yanizio/contactform/internal/config"
	"github.com/yanizio/contactform/internal/form"
	"github.com/yanizio/contactform/internal/logger"
	"github.com/yanizio/contactform/internal/middleware"
	"github.com/yanizio/contactform/internal/relay"
	"github.com/yanizio/contactform/internal/requestinfo"
	"github.com/yanizio/contactform/internal/server"
	"github.com/yanizio/contactform/internal/session"

	_ "github.com/yanizio/contactform/components/contact" // contact form
)

const (
	serverEnvPath   = "/usr/local/etc/contactform/global.env"
	shutdownTimeout = 10 * time.Second
)

// loadEnv prefers the host-wide env file; on dev it falls back to .env.
func loadEnv() {
	if _, err := os.Stat(serverEnvPath); err == nil {
		_ = godotenv.Load(serverEnvPath)
		return
	}
	_ = godotenv.Load()
}

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func init() { loadEnv() }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Boot logger until the file logger is online.
	boot, _ := zap.NewDevelopment()
	zap.ReplaceGlobals(boot)

	//
	// ── 1.  Configuration ───────────────────────────────────────────────
	//
	cfg, err := config.Load(ctx)
	if err != nil {
		zap.S().Fatalw("load config", "err", err)
	}

	log, err := logger.New(cfg.Paths.Root, cfg.Log.Level, runningInTTY())
	if err != nil {
		zap.S().Fatalw("start logger", "err", err)
	}
	defer func() { _ = log.Sync() }()

	//
	// ── 2.  Form definition ─────────────────────────────────────────────
	//
	def := form.Default()
	if cfg.Form.Definition != "" {
		if def, err = form.Load(cfg.Form.Definition); err != nil {
			log.Fatalw("load form definition", "file", cfg.Form.Definition, "err", err)
		}
	}
	log.Infow("form definition ready", "form_id", def.ID, "action", def.Action)

	//
	// ── 3.  Shared services ─────────────────────────────────────────────
	//
	tokens, err := form.NewTokens([]byte(cfg.Security.CSRFKey), form.DefaultMaxAge)
	if err != nil {
		log.Fatalw("csrf tokens", "err", err)
	}
	flags, err := session.New([]byte(cfg.Security.SessionKey))
	if err != nil {
		log.Fatalw("session flags", "err", err)
	}
	sender := relay.New(cfg.Endpoint.URL,
		relay.WithStrictStatus(cfg.Endpoint.StrictStatus),
		relay.WithTimeout(cfg.Endpoint.Timeout),
		relay.WithLogger(log),
	)

	var geo requestinfo.GeoLookup
	if cfg.GeoIP.DBPath != "" {
		reader, err := requestinfo.OpenGeo(cfg.GeoIP.DBPath)
		if err != nil {
			log.Fatalw("open geoip db", "file", cfg.GeoIP.DBPath, "err", err)
		}
		defer reader.Close()
		geo = reader
	}

	//
	// ── 4.  Router ──────────────────────────────────────────────────────
	//
	r := chi.NewRouter()
	r.Use(
		chimw.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.AccessLog(log),
		middleware.Security,
		middleware.ForceHTTPS(cfg.HTTP.ForceHTTPS),
		requestinfo.Enrich(geo),
	)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})

	deps := component.Deps{
		Form:   def,
		Tokens: tokens,
		Flags:  flags,
		Sender: sender,
		Logger: log,
	}
	for _, c := range component.All() {
		if err := c.Init(deps); err != nil {
			log.Fatalw("component init", "component", c.Name(), "err", err)
		}
		r.Mount("/", c.Routes())
		log.Infow("component mounted", "component", c.Name())
	}

	//
	// ── 5.  Serve ───────────────────────────────────────────────────────
	//
	srv := server.New(cfg.HTTP.ListenAddr, r, cfg.Endpoint.Timeout)

	errCh := make(chan error, 1)
	go func() {
		log.Infow("listening", "addr", cfg.HTTP.ListenAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server stopped", "err", err)
		}
	case <-ctx.Done():
		log.Infow("shutting down")
		shCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shCtx); err != nil {
			log.Errorw("graceful shutdown failed", "err", err)
		}
	}
}
