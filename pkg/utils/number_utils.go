package utils

import (
	"fmt"

	"github.com/google/uuid"
)

// GenerateDocumentNumber builds a document number such as "INV-9F3A10CB" or
// "RET-0B77D2E4": the prefix, a hyphen, and the first 8 hex characters of a
// random UUID, uppercased. Collisions are vanishingly rare but the database
// still enforces uniqueness; callers retry with a fresh number on conflict.
func GenerateDocumentNumber(prefix string) string {
	u := uuid.New()
	return fmt.Sprintf("%s-%X", prefix, u[:4])
}
