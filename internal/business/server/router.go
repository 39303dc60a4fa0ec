package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/openkcm/access-gate/internal/config"
	"github.com/openkcm/access-gate/internal/gate"
)

// newRouter binds the gate components to their routes. Every protected route
// is classified as a page or an API route here.
func newRouter(cfg *config.Config, auth *Auth, m *meters) http.Handler {
	h := &handlers{auth: auth, meters: m}

	r := chi.NewRouter()
	if cfg.HTTP.TrustProxyHeaders {
		r.Use(middleware.RealIP)
	}
	r.Use(middleware.Recoverer)

	r.With(m.traced("login")).Post("/login", h.login)
	r.With(m.traced("logout")).Post("/logout", h.logout)
	r.With(m.traced("me"), auth.Gate.Require(gate.KindAPI)).Get("/api/me", h.me)
	r.Get("/health", health)

	for _, page := range cfg.Gate.ProtectedPages {
		r.With(m.traced("page"), auth.Gate.Require(gate.KindPage)).Get(page.Path, servePage(cfg.Static.Dir, page))
	}

	r.Handle("/*", staticHandler(cfg.Static.Dir, cfg.Gate.ProtectedPages))

	return r
}
