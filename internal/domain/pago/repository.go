package pago

import (
	"context"

	"corseg/internal/core/id"
	"corseg/internal/core/types"
	"corseg/internal/domain"
	"corseg/internal/domain/catalogs"
)

// Repository persists payments. It also serves the movement workflow's
// PagoDirectory contract (renewal deletability and compaction shift).
type Repository interface {
	Create(ctx context.Context, p *Pago) error
	GetByID(ctx context.Context, pagoID id.ID) (*Pago, error)
	Update(ctx context.Context, p *Pago) error
	Delete(ctx context.Context, pagoID id.ID) error
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Pago], error)

	// CountByPolizaRenovacion counts non-canceled, non-substituted
	// payments pinned to the given policy renewal.
	CountByPolizaRenovacion(ctx context.Context, polizaID id.ID, renovacion int) (int, error)

	// ShiftRenovacion decrements the renewal index of every payment of
	// the policy whose index is strictly greater than above.
	ShiftRenovacion(ctx context.Context, polizaID id.ID, above int) error
}

// ProductoDirectory resolves the product that owns the default commission
// schedules.
type ProductoDirectory interface {
	GetProducto(ctx context.Context, productoID id.ID) (*catalogs.Producto, error)
}

// AjusteSums exposes the adjustment totals linked to a payment, one per
// side. The net commission to settle is the booked commission plus this
// sum.
type AjusteSums interface {
	SumCiaByPago(ctx context.Context, pagoID id.ID) (types.Money, error)
	SumVendedorByPago(ctx context.Context, pagoID id.ID) (types.Money, error)
}
