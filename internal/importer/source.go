package importer

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/edupath/internal/apperr"
	"github.com/starford/edupath/internal/models"
)

// Source names one file to import.
type Source struct {
	Collection string `yaml:"collection_name" json:"collection_name"`
	Path       string `yaml:"json_file_path" json:"json_file_path"`
	Bulk       bool   `yaml:"bulk_insert" json:"bulk_insert"`
	BatchSize  int    `yaml:"batch_size" json:"batch_size,omitempty"`
}

// Validate validates the source entry.
func (s *Source) Validate() error {
	return validation.ValidateStruct(s,
		validation.Field(&s.Collection, validation.Required),
		validation.Field(&s.Path, validation.Required),
		validation.Field(&s.BatchSize, validation.Min(0)),
	)
}

// LoadDocuments reads a JSON array of documents from path.
func LoadDocuments(path string) ([]models.Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, apperr.E(apperr.KindMalformedSource, "load source", "", err)
	}
	var docs []models.Document
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, apperr.E(apperr.KindMalformedSource, "load source", "", fmt.Errorf("%s: %w", path, err))
	}
	if len(docs) == 0 {
		return nil, apperr.E(apperr.KindMalformedSource, "load source", "", fmt.Errorf("%s: no documents", path))
	}
	for i, d := range docs {
		if d == nil {
			return nil, apperr.E(apperr.KindMalformedSource, "load source", "", fmt.Errorf("%s: element %d is not an object", path, i))
		}
	}
	return docs, nil
}

var errMissingKey = errors.New("document lacks its natural key")
