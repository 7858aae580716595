package catalog_repo

import (
	"corseg/internal/domain/catalogs"
	"corseg/internal/infrastructure/storage/postgres"
)

const (
	formaPagoTable      = "cat_formas_pago"
	frecuenciaPagoTable = "cat_frecuencias_pago"
)

// FormaPagoRepo persists payment methods.
type FormaPagoRepo struct {
	*BaseCatalogRepo[*catalogs.FormaPago]
}

// NewFormaPagoRepo creates a new payment method repository.
func NewFormaPagoRepo() *FormaPagoRepo {
	return &FormaPagoRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[*catalogs.FormaPago](
			formaPagoTable,
			postgres.ExtractDBColumns[catalogs.FormaPago](),
			func() *catalogs.FormaPago { return &catalogs.FormaPago{} },
		),
	}
}

// FrecuenciaPagoRepo persists installment frequencies.
type FrecuenciaPagoRepo struct {
	*BaseCatalogRepo[*catalogs.FrecuenciaPago]
}

// NewFrecuenciaPagoRepo creates a new frequency repository.
func NewFrecuenciaPagoRepo() *FrecuenciaPagoRepo {
	return &FrecuenciaPagoRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[*catalogs.FrecuenciaPago](
			frecuenciaPagoTable,
			postgres.ExtractDBColumns[catalogs.FrecuenciaPago](),
			func() *catalogs.FrecuenciaPago { return &catalogs.FrecuenciaPago{} },
		),
	}
}
