package api

import (
	"github.com/starford/edupath/internal/catalogservice"
	"github.com/starford/edupath/internal/docstore"
)

// CreateCollectionRequest is the request body for creating a collection.
type CreateCollectionRequest struct {
	CollectionName string `json:"collection_name" example:"bachelor_accountancy_courses" validate:"required"`
}

// CreateCollectionResponse reports whether the collection was created.
type CreateCollectionResponse = docstore.CreateResult

// ListCollectionsResponse wraps collection names.
type ListCollectionsResponse struct {
	Collections []string `json:"collections" validate:"required"`
}

// AddDataResponse is returned after a document was inserted.
type AddDataResponse struct {
	Status     string `json:"status" example:"Data added" validate:"required"`
	InsertedID string `json:"inserted_id" example:"66c4a3f2e1b2c3d4e5f60718" validate:"required"`
}

// UpdateCourseRequest is the request body for updating one course field.
type UpdateCourseRequest = catalogservice.UpdateCourseRequest

// MessageResponse carries a human-readable confirmation.
type MessageResponse struct {
	Message string `json:"message" example:"Update successful" validate:"required"`
}

// HealthResponse is the liveness payload.
type HealthResponse struct {
	Status string `json:"status" example:"healthy" validate:"required"`
}
