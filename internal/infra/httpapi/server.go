// Package httpapi exposes health, metrics and the latest due list over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"clan_rank_notifier/internal/app"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

const (
	checkTimeout    = 5 * time.Minute
	shutdownTimeout = 10 * time.Second
)

type dueMember struct {
	Name        string `json:"name"`
	DaysElapsed int    `json:"days_elapsed"`
	TargetRank  string `json:"target_rank"`
	CurrentRank string `json:"current_rank"`
}

type reportResponse struct {
	Date            string      `json:"date"`
	Trigger         string      `json:"trigger"`
	CheckedAt       time.Time   `json:"checked_at"`
	Muted           bool        `json:"muted"`
	RulesConfigured int         `json:"rules_configured"`
	Pending         int         `json:"pending"`
	Delivered       int         `json:"delivered"`
	Due             []dueMember `json:"due"`
}

func toResponse(r *app.CheckReport) reportResponse {
	out := reportResponse{
		Date:            r.Date.Format("2006-01-02"),
		Trigger:         string(r.Trigger),
		CheckedAt:       r.CheckedAt,
		Muted:           r.Muted,
		RulesConfigured: r.RulesConfigured,
		Pending:         r.Pending,
		Delivered:       r.Delivered,
		Due:             make([]dueMember, 0, len(r.Due)),
	}
	for _, d := range r.Due {
		out.Due = append(out.Due, dueMember{
			Name:        d.Name,
			DaysElapsed: d.DaysElapsed,
			TargetRank:  d.TargetRank,
			CurrentRank: d.CurrentRank,
		})
	}
	return out
}

// Handler holds the HTTP handler state.
type Handler struct {
	promotions app.PromotionService
	logger     *logrus.Entry
}

func NewHandler(promotions app.PromotionService, logger *logrus.Entry) *Handler {
	return &Handler{promotions: promotions, logger: logger}
}

// Router builds the chi router with all routes mounted.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(h.requestLog)
	r.Use(chimw.Recoverer)

	r.Get("/healthz", h.Health)
	r.Handle("/metrics", promhttp.Handler())
	r.Route("/api", func(r chi.Router) {
		r.Get("/due", h.Due)
		r.Post("/check", h.Check)
	})
	return r
}

func (h *Handler) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.logger.WithFields(logrus.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"duration":   time.Since(start).String(),
			"request_id": chimw.GetReqID(r.Context()),
		}).Debug("HTTP request served")
	})
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Due returns the report of the most recent roster check.
func (h *Handler) Due(w http.ResponseWriter, _ *http.Request) {
	report := h.promotions.LastReport()
	if report == nil {
		writeError(w, http.StatusNotFound, "no roster check has run yet")
		return
	}
	writeJSON(w, http.StatusOK, toResponse(report))
}

// Check runs a roster check now and returns its report.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
	defer cancel()

	report, err := h.promotions.CheckRoster(ctx, app.TriggerHTTP)
	if err != nil {
		h.logger.WithError(err).Error("Roster check over HTTP failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toResponse(report))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"message": message,
			"code":    status,
		},
	})
}

// Serve runs an HTTP server on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, handler http.Handler, logger *logrus.Entry) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: checkTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("addr", addr).Info("HTTP API listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down HTTP API")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
