package liquidacion

import (
	"context"

	"corseg/internal/core/id"
	"corseg/internal/core/types"
	"corseg/internal/domain"
	"corseg/internal/domain/pago"
)

// Repository persists settlements.
type Repository interface {
	Create(ctx context.Context, l *Liquidacion) error
	GetByID(ctx context.Context, liqID id.ID) (*Liquidacion, error)
	Update(ctx context.Context, l *Liquidacion) error
	Delete(ctx context.Context, liqID id.ID) error
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Liquidacion], error)
}

// AjusteRepository persists adjustments and their compensation records.
type AjusteRepository interface {
	Create(ctx context.Context, a *Ajuste) error
	GetByID(ctx context.Context, ajusteID id.ID) (*Ajuste, error)
	Update(ctx context.Context, a *Ajuste) error

	// ListByPago returns the payment's adjustments for one side.
	ListByPago(ctx context.Context, pagoID id.ID, lado Lado) ([]*Ajuste, error)

	// ListPendientesByPoliza returns the policy's pending insurer
	// adjustments ordered by number ascending (the compensation queue).
	ListPendientesByPoliza(ctx context.Context, polizaID id.ID) ([]*Ajuste, error)

	// SumByPago totals the signed amounts of the payment's adjustments
	// for one side, excluding borrador and cancelado. Backs the net
	// commission figure.
	SumByPago(ctx context.Context, pagoID id.ID, lado Lado) (types.Money, error)

	SaveCompensacion(ctx context.Context, c *Compensacion) error
}

// PagoDirectory is the slice of the payment store the settlement workflow
// needs: loading grouped payments and advancing their state.
type PagoDirectory interface {
	GetPago(ctx context.Context, pagoID id.ID) (*pago.Pago, error)
	UpdatePago(ctx context.Context, p *pago.Pago) error
}
