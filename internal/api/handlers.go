package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/edupath/internal/catalog"
	"github.com/starford/edupath/internal/catalogservice"
	"github.com/starford/edupath/internal/models"
)

// Handler holds API route handlers.
type Handler struct {
	svc    *catalogservice.Service
	logger *slog.Logger
}

// NewHandler creates a new Handler.
func NewHandler(svc *catalogservice.Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// ListDegrees handles GET /api/colleges-degrees.
//
//	@Summary		List every degree plan
//	@Tags			catalog
//	@Produce		json
//	@Success		200	{array}		object
//	@Failure		500	{object}	errResponse
//	@Router			/colleges-degrees [get]
func (h *Handler) ListDegrees(w http.ResponseWriter, r *http.Request) {
	docs, err := h.svc.ListDegrees(r.Context())
	if err != nil {
		h.logger.Error("list degrees failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("Failed to retrieve data"))
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

// ListCourses returns the handler for one program's course route,
// e.g. GET /api/bachelor-accountancy-courses.
func (h *Handler) ListCourses(p catalog.Program) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		docs, err := h.svc.ListCourses(r.Context(), p)
		if err != nil {
			h.logger.Error("list courses failed",
				slog.String("collection", p.Collection()),
				slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("Failed to retrieve data"))
			return
		}
		writeJSON(w, http.StatusOK, docs)
	}
}

// CreateCollection handles POST /api/create-collection.
//
//	@Summary		Create a collection
//	@Tags			collections
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateCollectionRequest	true	"Collection to create"
//	@Success		201		{object}	CreateCollectionResponse
//	@Success		200		{object}	CreateCollectionResponse	"Already exists"
//	@Failure		400		{object}	errResponse
//	@Router			/create-collection [post]
func (h *Handler) CreateCollection(w http.ResponseWriter, r *http.Request) {
	var req CreateCollectionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	name := strings.TrimSpace(req.CollectionName)
	if name == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("collection_name is required"))
		return
	}
	res, err := h.svc.CreateCollection(r.Context(), name)
	if err != nil {
		h.logger.Error("create collection failed",
			slog.String("collection", name),
			slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, errorBody("Failed to create collection"))
		return
	}
	status := http.StatusCreated
	if res.AlreadyExists {
		status = http.StatusOK
	}
	writeJSON(w, status, res)
}

// ListCollections handles GET /api/list-collections.
//
//	@Summary		List collection names
//	@Tags			collections
//	@Produce		json
//	@Success		200	{object}	ListCollectionsResponse
//	@Failure		400	{object}	errResponse
//	@Router			/list-collections [get]
func (h *Handler) ListCollections(w http.ResponseWriter, r *http.Request) {
	names, err := h.svc.ListCollections(r.Context())
	if err != nil {
		h.logger.Error("list collections failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, errorBody("Failed to list collections"))
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, ListCollectionsResponse{Collections: names})
}

// AddData handles POST /api/add-data/{collection_name}.
//
//	@Summary		Insert one document as-is
//	@Tags			collections
//	@Accept			json
//	@Produce		json
//	@Param			collection_name	path		string	true	"Target collection"
//	@Param			body			body		object	true	"Document"
//	@Success		201				{object}	AddDataResponse
//	@Failure		400				{object}	errResponse
//	@Router			/add-data/{collection_name} [post]
func (h *Handler) AddData(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection_name")
	var doc models.Document
	if err := decodeJSON(w, r, &doc); err != nil || doc == nil {
		writeJSON(w, http.StatusBadRequest, errorBody("request body must be a JSON object"))
		return
	}
	id, err := h.svc.AddData(r.Context(), collection, doc)
	if err != nil {
		h.logger.Error("add data failed",
			slog.String("collection", collection),
			slog.String("error", err.Error()))
		msg := "Failed to add data"
		if errors.Is(err, catalogservice.ErrEmptyDocument) {
			msg = err.Error()
		}
		writeJSON(w, http.StatusBadRequest, errorBody(msg))
		return
	}
	writeJSON(w, http.StatusCreated, AddDataResponse{Status: "Data added", InsertedID: id})
}

// GetData handles GET /api/get-data/{collection_name}.
//
//	@Summary		Dump a collection
//	@Tags			collections
//	@Produce		json
//	@Param			collection_name	path		string	true	"Collection"
//	@Success		200				{array}		object
//	@Failure		500				{object}	errResponse
//	@Router			/get-data/{collection_name} [get]
func (h *Handler) GetData(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection_name")
	docs, err := h.svc.GetData(r.Context(), collection)
	if err != nil {
		h.logger.Error("get data failed",
			slog.String("collection", collection),
			slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("Failed to retrieve data"))
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

// UpdateCourse handles PUT /api/update-course.
//
// Every failure, including an unknown course and an update that changed
// nothing, is reported as 500 "Update failed"; an unreadable body is 500
// "Internal Server Error".
//
//	@Summary		Overwrite one field of a course
//	@Tags			catalog
//	@Accept			json
//	@Produce		json
//	@Param			body	body		UpdateCourseRequest	true	"Field update"
//	@Success		200		{object}	MessageResponse
//	@Failure		500		{object}	errResponse
//	@Router			/update-course [put]
func (h *Handler) UpdateCourse(w http.ResponseWriter, r *http.Request) {
	var req UpdateCourseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.Error("update course: unreadable request", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("Internal Server Error"))
		return
	}
	log := h.logger.With(
		slog.String("collection", req.Collection),
		slog.String("course_title", req.CourseTitle),
		slog.String("field", req.Field))

	res, err := h.svc.UpdateCourse(r.Context(), req)
	switch {
	case err != nil:
		log.Warn("update failed", slog.String("error", err.Error()))
	case !res.Updated:
		log.Warn("update not needed, value unchanged")
	default:
		log.Info("update successful")
		writeJSON(w, http.StatusOK, MessageResponse{Message: "Update successful"})
		return
	}
	writeJSON(w, http.StatusInternalServerError, errorBody("Update failed"))
}

// Health handles GET /health.
//
//	@Summary		Liveness check
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	HealthResponse
//	@Router			/health [get]
func Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "healthy"})
}
