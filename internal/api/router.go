package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/starford/edupath/internal/catalog"
	"github.com/starford/edupath/internal/catalogservice"
)

// NewRouter creates a chi router with all catalog routes, relative to /api.
// events, if non-nil, is mounted at GET /events.
func NewRouter(svc *catalogservice.Service, logger *slog.Logger, events http.Handler) chi.Router {
	h := NewHandler(svc, logger)

	r := chi.NewRouter()

	// Read-only catalog views.
	r.Get("/colleges-degrees", h.ListDegrees)
	for _, p := range catalog.Programs {
		r.Get(p.Route(), h.ListCourses(p))
	}

	// Generic collection access.
	r.Post("/create-collection", h.CreateCollection)
	r.Get("/list-collections", h.ListCollections)
	r.Post("/add-data/{collection_name}", h.AddData)
	r.Get("/get-data/{collection_name}", h.GetData)

	r.Put("/update-course", h.UpdateCourse)

	if events != nil {
		r.Get("/events", events.ServeHTTP)
	}

	return r
}

// NewServerHandler wraps the API router with the shared middleware stack,
// the /health check and, when staticDir is set, the single-page front end.
func NewServerHandler(svc *catalogservice.Service, logger *slog.Logger, events http.Handler, staticDir string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(CORS())
	r.Use(NoCache)

	r.Get("/health", Health)
	r.Mount("/api", NewRouter(svc, logger, events))

	if staticDir != "" {
		r.NotFound(SPA(staticDir).ServeHTTP)
	}
	return r
}
