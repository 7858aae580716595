package entity

import (
	"context"
	"time"

	"corseg/internal/core/apperror"
	"corseg/internal/core/id"
)

// Document is the base type for workflow records (movimientos, pagos,
// liquidaciones, reclamos). Workflow state itself lives on the concrete
// type; the base carries the shared identity and numbering fields.
type Document struct {
	BaseDocument

	// Number is assigned once by the sequence generator at confirmation.
	// Empty until then.
	Number string `db:"number" json:"number"`

	// Fecha is the business date of the document.
	Fecha time.Time `db:"fecha" json:"fecha"`

	// CompanyID is the owning company (multi-tenancy).
	CompanyID id.ID `db:"company_id" json:"companyId"`

	// Comentario is an optional operator comment.
	Comentario string `db:"comentario" json:"comentario,omitempty"`
}

// NewDocument creates a new Document for the given company.
func NewDocument(companyID id.ID) Document {
	return Document{
		BaseDocument: NewBaseDocument(),
		Fecha:        time.Now().UTC(),
		CompanyID:    companyID,
	}
}

// Validate implements Validatable.
func (d *Document) Validate(ctx context.Context) error {
	if id.IsNil(d.CompanyID) {
		return apperror.NewValidation("company is required").
			WithDetail("field", "companyId")
	}
	if d.Fecha.IsZero() {
		return apperror.NewValidation("fecha is required").
			WithDetail("field", "fecha")
	}
	return nil
}

// AssignNumber sets the sequence-generated number exactly once.
// Returns true when the number was assigned, false when the document
// already carried one (the assignment step is idempotent).
func (d *Document) AssignNumber(number string) bool {
	if d.Number != "" {
		return false
	}
	d.Number = number
	return true
}

// RecName returns the human-readable reference used in error messages.
func (d *Document) RecName() string {
	if d.Number != "" {
		return d.Number
	}
	return d.ID.String()
}
