package handlers

import (
	"context"
	"log/slog"
	nethttp "net/http"
	"strconv"

	"github.com/preston-bernstein/homefeed-service/internal/app/home"
	"github.com/preston-bernstein/homefeed-service/internal/feed"
	"github.com/preston-bernstein/homefeed-service/internal/logging"
	"github.com/preston-bernstein/homefeed-service/internal/recommend"
)

// HomeService is what the handlers need from the home page service.
type HomeService interface {
	Load(ctx context.Context) home.Page
	Recommendations(ctx context.Context) recommend.Result
	Feed(ctx context.Context) feed.Result
}

// ReadinessChecker reports whether a dependency can serve traffic.
type ReadinessChecker interface {
	Ping(ctx context.Context) error
}

// Handler wires HTTP routes to the home service.
type Handler struct {
	svc    HomeService
	ready  ReadinessChecker
	logger *slog.Logger
}

// NewHandler constructs a Handler. A nil readiness checker always reports ready.
func NewHandler(svc HomeService, ready ReadinessChecker, logger *slog.Logger) *Handler {
	return &Handler{
		svc:    svc,
		ready:  ready,
		logger: logger,
	}
}

// Health reports the service health.
func (h *Handler) Health(w nethttp.ResponseWriter, r *nethttp.Request) {
	if !requireMethod(w, r, nethttp.MethodGet, h.logger) {
		return
	}
	if err := r.Context().Err(); err != nil {
		writeError(w, r, nethttp.StatusServiceUnavailable, "shutting down", h.logger)
		return
	}
	writeJSON(w, nethttp.StatusOK, map[string]string{"status": "ok"}, h.logger)
}

// Ready reports readiness for traffic (e.g., for Kubernetes probes).
func (h *Handler) Ready(w nethttp.ResponseWriter, r *nethttp.Request) {
	if !requireMethod(w, r, nethttp.MethodGet, h.logger) {
		return
	}
	if h.ready != nil {
		if err := h.ready.Ping(r.Context()); err != nil {
			logging.Warn(loggerFromContext(r, h.logger), "readiness check failed", "err", err)
			writeError(w, r, nethttp.StatusServiceUnavailable, "cache unavailable", h.logger)
			return
		}
	}
	writeJSON(w, nethttp.StatusOK, map[string]string{"status": "ready"}, h.logger)
}

// Home returns recommendations and the activity feed in one payload.
func (h *Handler) Home(w nethttp.ResponseWriter, r *nethttp.Request) {
	if !requireMethod(w, r, nethttp.MethodGet, h.logger) {
		return
	}
	page := h.svc.Load(r.Context())
	setRetryAfter(w, page.Recommendations)

	logging.Info(loggerFromContext(r, h.logger), "served home",
		slog.String("recommendations", string(page.Recommendations.Status)),
		slog.Int("games", len(page.Recommendations.Games)),
		slog.String("feed", string(page.Feed.State)),
		slog.Int(logging.FieldCount, len(page.Feed.Items)),
	)
	writeJSON(w, nethttp.StatusOK, page, h.logger)
}

// Recommendations returns the selected games. Cooldown and no_results are
// reported in the body with a 200.
func (h *Handler) Recommendations(w nethttp.ResponseWriter, r *nethttp.Request) {
	if !requireMethod(w, r, nethttp.MethodGet, h.logger) {
		return
	}
	res := h.svc.Recommendations(r.Context())
	setRetryAfter(w, res)

	logging.Info(loggerFromContext(r, h.logger), "served recommendations",
		slog.String("status", string(res.Status)),
		slog.Bool("cached", res.Cached),
		slog.Int(logging.FieldCount, len(res.Games)),
	)
	writeJSON(w, nethttp.StatusOK, res, h.logger)
}

// Feed returns the merged activity feed.
func (h *Handler) Feed(w nethttp.ResponseWriter, r *nethttp.Request) {
	if !requireMethod(w, r, nethttp.MethodGet, h.logger) {
		return
	}
	res := h.svc.Feed(r.Context())

	logging.Info(loggerFromContext(r, h.logger), "served feed",
		slog.String("state", string(res.State)),
		slog.Int(logging.FieldCount, len(res.Items)),
	)
	writeJSON(w, nethttp.StatusOK, res, h.logger)
}

func setRetryAfter(w nethttp.ResponseWriter, res recommend.Result) {
	if res.Status == recommend.StatusCooldown && res.RetryAfterSeconds > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(res.RetryAfterSeconds))
	}
}

func requireMethod(w nethttp.ResponseWriter, r *nethttp.Request, method string, logger *slog.Logger) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	writeError(w, r, nethttp.StatusMethodNotAllowed, "method not allowed", logger)
	return false
}
