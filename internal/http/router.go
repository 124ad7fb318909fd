package http

import (
	nethttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/preston-bernstein/homefeed-service/internal/http/handlers"
)

// RouterConfig toggles the optional parts of the route table.
type RouterConfig struct {
	// HomeRateLimit caps /home requests per client IP per minute. Zero disables it.
	HomeRateLimit int
}

// NewRouter registers HTTP routes. The admin routes are mounted only when
// admin is non-nil.
func NewRouter(handler *handlers.Handler, admin *handlers.AdminHandler, cfg RouterConfig) nethttp.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.NotFound(handlers.NotFound)
	r.MethodNotAllowed(handlers.MethodNotAllowed)

	r.Get("/health", handler.Health)
	r.Get("/ready", handler.Ready)

	r.Route("/home", func(r chi.Router) {
		if cfg.HomeRateLimit > 0 {
			r.Use(httprate.LimitByIP(cfg.HomeRateLimit, time.Minute))
		}
		r.Get("/", handler.Home)
		r.Get("/recommendations", handler.Recommendations)
		r.Get("/feed", handler.Feed)
	})

	if admin != nil {
		r.Post("/admin/home/reset", admin.ResetHome)
	}
	return r
}
