package catalogs

import (
	"context"

	"corseg/internal/core/apperror"
	"corseg/internal/core/entity"
)

// FormaPago is a payment method (cash, card, direct debit).
type FormaPago struct {
	entity.Catalog
}

// NewFormaPago creates an active payment method.
func NewFormaPago(code, name string) FormaPago {
	return FormaPago{Catalog: entity.NewCatalog(code, name)}
}

// FrecuenciaPago is the installment frequency of a policy.
type FrecuenciaPago struct {
	entity.Catalog

	// Meses between installments (1 monthly, 3 quarterly, 12 annual).
	Meses int `db:"meses" json:"meses"`
}

// NewFrecuenciaPago creates an active frequency.
func NewFrecuenciaPago(code, name string, meses int) FrecuenciaPago {
	return FrecuenciaPago{
		Catalog: entity.NewCatalog(code, name),
		Meses:   meses,
	}
}

// Validate implements entity.Validatable.
func (f *FrecuenciaPago) Validate(ctx context.Context) error {
	if err := f.Catalog.Validate(ctx); err != nil {
		return err
	}
	if f.Meses <= 0 {
		return apperror.NewValidation("meses must be positive").
			WithDetail("field", "meses")
	}
	return nil
}
