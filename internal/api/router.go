package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/LeventeLantos/sms-automation/internal/observability"
)

// Router wires the API routes. metrics may be nil.
func Router(h *Handler, metrics http.Handler) http.Handler {
	r := mux.NewRouter()
	r.Use(Recovery, Metrics)

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/health", h.Health).Methods(http.MethodGet)

	v1.HandleFunc("/automation/status", h.Status).Methods(http.MethodGet)
	v1.HandleFunc("/automation/start", h.Start).Methods(http.MethodPost)
	v1.HandleFunc("/automation/stop", h.Stop).Methods(http.MethodPost)

	v1.HandleFunc("/logs", h.Logs).Methods(http.MethodGet)
	v1.HandleFunc("/logs/{id}/receipt", h.Receipt).Methods(http.MethodGet)
	v1.HandleFunc("/activity", h.Activity).Methods(http.MethodGet)
	v1.HandleFunc("/phone/format", h.FormatPhone).Methods(http.MethodGet)

	if metrics != nil {
		r.Handle("/metrics", metrics).Methods(http.MethodGet)
	}

	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("sms-automation"))
	}).Methods(http.MethodGet)

	return r
}

func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				slog.Error("handler panic recovered", "path", r.URL.Path, "panic", rec)
				writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Metrics counts requests per route template and status.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		observability.APIRequests.WithLabelValues(routeLabel(r), strconv.Itoa(sw.status)).Inc()
	})
}

func routeLabel(r *http.Request) string {
	route := mux.CurrentRoute(r)
	if route == nil {
		return r.URL.Path
	}
	tpl, err := route.GetPathTemplate()
	if err != nil {
		return r.URL.Path
	}
	return tpl
}
