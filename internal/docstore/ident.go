package docstore

import (
	"github.com/google/uuid"

	"github.com/starford/edupath/internal/checksum"
	"github.com/starford/edupath/internal/models"
)

// PrepareInsert returns a private copy of doc carrying an _id, assigning a
// fresh UUID when the caller supplied none. Embedded backends use it.
func PrepareInsert(doc models.Document) (models.Document, string) {
	cp := doc.Clone()
	if cp == nil {
		cp = models.Document{}
	}
	id := cp.ID()
	if id == "" {
		id = uuid.NewString()
	}
	cp[models.IDField] = id
	return cp, id
}

// SameContent reports whether two documents encode to the same JSON.
// Embedded backends use it to report a replace that changed nothing.
func SameContent(a, b models.Document) bool {
	sa, errA := checksum.Document(a)
	sb, errB := checksum.Document(b)
	return errA == nil && errB == nil && sa == sb
}
