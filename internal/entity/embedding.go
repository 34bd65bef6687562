package entity

import (
	"time"

	"github.com/google/uuid"
)

// EmbeddingRecord pairs a projection embedding with the persisted
// invoice it was computed from. Created once per accepted record,
// never mutated.
type EmbeddingRecord struct {
	ID        uuid.UUID  `json:"id"`
	InvoiceID *uuid.UUID `json:"invoice_id,omitempty"`
	FileName  string     `json:"file_name,omitempty"`
	Vector    []float32  `json:"vector"`
	CreatedAt time.Time  `json:"created_at"`
}
