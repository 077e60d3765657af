package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimid "github.com/go-chi/chi/v5/middleware"

	"github.com/invmap/engine/internal/api/handlers"
	mw "github.com/invmap/engine/internal/api/middleware"
)

type Dependencies struct {
	HMACSecret       []byte
	AuthHandler      *handlers.AuthHandler
	InventoryHandler *handlers.InventoryHandler
	IconsHandler     *handlers.IconsHandler
	HealthHandler    *handlers.HealthHandler
	// IconDir is served at /icons/ when icons live on the local filesystem.
	IconDir string
	// RateLimit is requests per second per client IP; zero disables it.
	RateLimit float64
	RateBurst int
}

func NewRouter(dep Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(mw.Recovery)
	r.Use(mw.Logging)
	r.Use(mw.CORS)
	if dep.RateLimit > 0 {
		r.Use(mw.RateLimit(dep.RateLimit, dep.RateBurst))
	}
	r.Use(chimid.Compress(5))

	hh := dep.HealthHandler
	if hh == nil {
		hh = handlers.NewHealthHandler(nil)
	}
	r.Get("/healthz", hh.Liveness)
	r.Get("/readyz", hh.Readiness)

	if dep.IconDir != "" {
		r.With(mw.StaticContent).Handle("/icons/*", http.StripPrefix("/icons/", http.FileServer(http.Dir(dep.IconDir))))
	}

	r.Route("/api/v1", func(api chi.Router) {
		api.Route("/auth", func(ar chi.Router) {
			ar.Post("/register", dep.AuthHandler.Register)
			ar.Post("/login", dep.AuthHandler.Login)
			ar.Post("/logout", dep.AuthHandler.Logout)
		})

		api.Group(func(protected chi.Router) {
			protected.Use(mw.Auth(dep.HMACSecret))

			protected.Route("/inventory", func(ir chi.Router) {
				ir.Get("/", dep.InventoryHandler.Get)
				ir.Get("/export", dep.InventoryHandler.Export)
				ir.Post("/nodes", dep.InventoryHandler.Create)
				ir.Patch("/nodes/{id}", dep.InventoryHandler.Update)
				ir.Delete("/nodes/{id}", dep.InventoryHandler.Delete)
				ir.Put("/nodes/{id}/position", dep.InventoryHandler.Move)
			})

			if dep.IconsHandler != nil {
				protected.Post("/icons", dep.IconsHandler.Upload)
			}
		})
	})

	return r
}
