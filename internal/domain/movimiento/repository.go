package movimiento

import (
	"context"

	"corseg/internal/core/id"
	"corseg/internal/domain"
)

// Repository persists movements.
type Repository interface {
	Create(ctx context.Context, m *Movimiento) error
	GetByID(ctx context.Context, movimientoID id.ID) (*Movimiento, error)
	Update(ctx context.Context, m *Movimiento) error
	Delete(ctx context.Context, movimientoID id.ID) error
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Movimiento], error)

	// ListByPoliza returns the policy's movements ordered by creation.
	ListByPoliza(ctx context.Context, polizaID id.ID) ([]*Movimiento, error)

	// ShiftRenovacion decrements the renewal index of every movement of
	// the policy whose index is strictly greater than above. Used by the
	// renewal-deletion compaction.
	ShiftRenovacion(ctx context.Context, polizaID id.ID, above int) error
}

// PagoDirectory is the slice of the payment store the movement workflow
// needs: deletability checks and the compaction shift.
type PagoDirectory interface {
	// CountByPolizaRenovacion counts non-canceled payments pinned to the
	// given policy renewal.
	CountByPolizaRenovacion(ctx context.Context, polizaID id.ID, renovacion int) (int, error)

	// ShiftRenovacion decrements the renewal index of every payment of
	// the policy whose index is strictly greater than above.
	ShiftRenovacion(ctx context.Context, polizaID id.ID, above int) error
}
