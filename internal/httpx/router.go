package httpx

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/afuentes/mktpulse/internal/kpi"
	"github.com/afuentes/mktpulse/internal/models"
	"github.com/afuentes/mktpulse/internal/pipeline"
)

func NewRouter(log *slog.Logger, p *pipeline.Pipeline) http.Handler {
	mux := chi.NewRouter()
	mux.Use(RequestID)
	mux.Use(Logger(log))

	mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) })
	mux.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ready")) })
	mux.Method(http.MethodGet, "/metrics", promhttp.Handler())

	refresh := func(w http.ResponseWriter, r *http.Request) (*pipeline.Snapshot, bool) {
		channels := kpi.ParseChannelFilter(r.URL.Query().Get("channel"))
		snap, err := p.Refresh(r.Context(), channels)
		if err != nil {
			var dup *models.DuplicateDateError
			if errors.As(err, &dup) {
				http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			} else {
				http.Error(w, err.Error(), http.StatusBadGateway)
			}
			return nil, false
		}
		return snap, true
	}

	mux.Get("/api/dashboard", func(w http.ResponseWriter, r *http.Request) {
		snap, ok := refresh(w, r)
		if !ok {
			return
		}
		writeJSON(w, snap)
	})

	mux.Get("/api/kpis", func(w http.ResponseWriter, r *http.Request) {
		snap, ok := refresh(w, r)
		if !ok {
			return
		}
		writeJSON(w, snap.KPIs)
	})

	mux.Get("/api/facts", func(w http.ResponseWriter, r *http.Request) {
		snap, ok := refresh(w, r)
		if !ok {
			return
		}
		writeJSON(w, kpi.QueryFacts(snap.Facts, r.URL.Query()))
	})

	mux.Get("/api/campaigns", func(w http.ResponseWriter, r *http.Request) {
		snap, ok := refresh(w, r)
		if !ok {
			return
		}
		writeJSON(w, snap.Campaigns)
	})

	mux.Get("/api/insights", func(w http.ResponseWriter, r *http.Request) {
		snap, ok := refresh(w, r)
		if !ok {
			return
		}
		writeJSON(w, snap.Insights)
	})

	mux.Get("/", func(w http.ResponseWriter, r *http.Request) {
		snap, ok := refresh(w, r)
		if !ok {
			return
		}
		renderDashboard(w, snap, r.URL.Query().Get("channel"))
	})

	return mux
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", " ")
	enc.Encode(v)
}
