package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/LeventeLantos/sms-automation/internal/automation"
	"github.com/LeventeLantos/sms-automation/internal/cache"
	"github.com/LeventeLantos/sms-automation/internal/display"
	"github.com/LeventeLantos/sms-automation/internal/model"
	"github.com/LeventeLantos/sms-automation/internal/phone"
)

type Handler struct {
	ctrl     *automation.Controller
	receipts cache.ReceiptCache
	renderer display.Renderer
}

// NewHandler serves ctrl. receipts may be nil when no cache is configured.
func NewHandler(ctrl *automation.Controller, receipts cache.ReceiptCache, renderer display.Renderer) *Handler {
	return &Handler{ctrl: ctrl, receipts: receipts, renderer: renderer}
}

type startRequest struct {
	PhoneNumber string `json:"phoneNumber"`
	Message     string `json:"message"`
	Interval    int    `json:"interval"`
	Unit        string `json:"unit"`
}

type statusResponse struct {
	Running   bool                 `json:"running"`
	SentCount int                  `json:"sentCount"`
	Mode      string               `json:"mode"`
	Badge     string               `json:"badge"`
	Config    *model.Configuration `json:"config,omitempty"`
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toStatus(h.ctrl.Snapshot()))
}

func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "INVALID_JSON", "request body is empty")
			return
		}
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "invalid JSON format")
		return
	}

	unit, err := model.ParseIntervalUnit(req.Unit)
	if err != nil {
		writeStartError(w, fmt.Errorf("%w: %v", automation.ErrInvalidInterval, err))
		return
	}

	cfg := model.Configuration{
		Recipient: req.PhoneNumber,
		Body:      req.Message,
		Interval:  model.Interval{Magnitude: req.Interval, Unit: unit},
	}
	if err := h.ctrl.Start(cfg); err != nil {
		writeStartError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toStatus(h.ctrl.Snapshot()))
}

func (h *Handler) Stop(w http.ResponseWriter, r *http.Request) {
	stopped := h.ctrl.Stop()
	writeJSON(w, http.StatusOK, map[string]any{
		"running":   h.ctrl.IsRunning(),
		"stopped":   stopped,
		"sentCount": h.ctrl.SentCount(),
	})
}

func (h *Handler) Logs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"items": h.ctrl.Logs()})
}

func (h *Handler) Receipt(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if h.receipts == nil {
		writeError(w, http.StatusNotFound, "RECEIPT_NOT_FOUND", "receipt cache is not configured")
		return
	}

	rc, err := h.receipts.Lookup(r.Context(), id)
	if errors.Is(err, cache.ErrNotFound) {
		writeError(w, http.StatusNotFound, "RECEIPT_NOT_FOUND", "no receipt for entry "+id)
		return
	}
	if err != nil {
		slog.Error("lookup receipt", "entry_id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to look up receipt")
		return
	}
	writeJSON(w, http.StatusOK, rc)
}

func (h *Handler) Activity(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := h.renderer.Render(w, h.ctrl.Snapshot()); err != nil {
		slog.Error("render activity", "err", err)
	}
}

// FormatPhone formats a partially typed number the way the input field shows it.
func (h *Handler) FormatPhone(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("number")
	writeJSON(w, http.StatusOK, map[string]any{
		"display": phone.Format(raw),
		"digits":  phone.Digits(raw),
		"valid":   phone.Valid(raw),
	})
}

func toStatus(s model.Snapshot) statusResponse {
	return statusResponse{
		Running:   s.Running,
		SentCount: s.SentCount,
		Mode:      s.Mode,
		Badge:     display.ModeBadge(s.Mode),
		Config:    s.Config,
	}
}
