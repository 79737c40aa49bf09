package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"asis-server/internal/infrastructure/config"
	obs "asis-server/internal/infrastructure/observability"
	"asis-server/internal/usecase"
)

// AdminPrefix is reserved for the server's own endpoints. Every other path
// is looked up as a document.
const AdminPrefix = "/_asis/"

type Deps struct {
	Cfg     config.Config
	Logger  *zerolog.Logger
	Metrics *obs.Metrics
	Svc     *usecase.DocumentService
	Monitor *MonitorHub
	Delay   *ResponseDelay
}

// NewRouterWithDeps returns the handler serving documents and admin routes.
// With Cfg.H2C set, HTTP/2 cleartext connections are accepted as well.
func NewRouterWithDeps(d *Deps) http.Handler {
	if d.Monitor == nil {
		d.Monitor = NewMonitorHub()
	}
	if d.Delay == nil {
		d.Delay = NewResponseDelay(d.Cfg)
	}
	d.Monitor.SetGauge(d.Metrics.MonitorClients)

	mux := http.NewServeMux()
	mux.Handle(AdminPrefix, withCORS(d.Cfg, buildAdminMux(d)))
	mux.HandleFunc("/", d.handleDocument)

	var h http.Handler = mux
	if d.Cfg.H2C {
		h = h2c.NewHandler(h, &http2.Server{})
	}
	return h
}

// buildAdminMux constructs the mux with the admin routes, without wrappers.
func buildAdminMux(d *Deps) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc(AdminPrefix+"healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc(AdminPrefix+"readyz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	mux.Handle(AdminPrefix+"metrics", promhttp.HandlerFor(d.Metrics.Registry(), promhttp.HandlerOpts{}))

	mux.HandleFunc(AdminPrefix+"version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"name":    "asis-server",
			"version": obs.Version,
			"commit":  obs.Commit,
			"date":    obs.Date,
			"time":    time.Now().UTC(),
		})
	})

	mux.HandleFunc(AdminPrefix+"settings", d.handleSettings)
	mux.HandleFunc(AdminPrefix+"served", d.handleServed)
	mux.HandleFunc(AdminPrefix+"served.har", d.handleServedHAR)
	mux.HandleFunc(AdminPrefix+"monitor/ws", d.Monitor.HandleWS)

	mux.HandleFunc(AdminPrefix, func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "unknown admin endpoint", map[string]any{"path": r.URL.Path})
	})
	return mux
}

func withCORS(cfg config.Config, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", cfg.CORSAllowOrigin)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.ServeHTTP(w, r)
	})
}
