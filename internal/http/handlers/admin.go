package handlers

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/preston-bernstein/homefeed-service/internal/http/requestutil"
	"github.com/preston-bernstein/homefeed-service/internal/logging"
)

// Resetter drops cached recommendation state.
type Resetter interface {
	Reset(ctx context.Context, clearCooldown bool)
}

// AdminHandler exposes admin-only endpoints.
type AdminHandler struct {
	svc    Resetter
	token  string
	logger *slog.Logger
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(svc Resetter, token string, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		svc:    svc,
		token:  token,
		logger: logger,
	}
}

// ResetHome invalidates the cached recommendations so the next request
// refetches. ?cooldown=true also lifts an active rate-limit cooldown.
// Guarded by ADMIN_TOKEN; returns 401 if missing/invalid.
func (h *AdminHandler) ResetHome(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost, h.logger) {
		return
	}
	if !h.authorize(r) {
		logging.Warn(h.logger, "admin unauthorized",
			slog.String(logging.FieldPath, r.URL.Path),
			slog.String("client_ip", requestutil.ClientIP(r)),
		)
		writeError(w, r, http.StatusUnauthorized, "unauthorized", h.logger)
		return
	}
	if h.svc == nil {
		writeError(w, r, http.StatusServiceUnavailable, "home service not configured", h.logger)
		return
	}

	logger := loggerFromContext(r, h.logger)
	clearCooldown := false
	if raw := strings.TrimSpace(r.URL.Query().Get("cooldown")); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			logging.Warn(logger, "admin reset invalid cooldown flag", slog.String("cooldown", raw))
			writeError(w, r, http.StatusBadRequest, "invalid cooldown flag", logger)
			return
		}
		clearCooldown = parsed
	}

	h.svc.Reset(r.Context(), clearCooldown)

	writeJSON(w, http.StatusOK, map[string]any{
		"status":          "ok",
		"clearedCooldown": clearCooldown,
	}, logger)
	logging.Info(logger, "admin home reset", slog.Bool("clear_cooldown", clearCooldown))
}

func (h *AdminHandler) authorize(r *http.Request) bool {
	if h.token == "" {
		return false
	}
	got := requestutil.BearerToken(r)
	return subtle.ConstantTimeCompare([]byte(got), []byte(h.token)) == 1
}
