package document_repo

import (
	"context"
	"fmt"

	"corseg/internal/core/id"
	"corseg/internal/domain/pago"
	"corseg/internal/infrastructure/storage/postgres"
)

const pagoTable = "doc_pagos"

// PagoRepo persists payment documents. The payment row has no child
// tables; adjustments live in their own repository.
type PagoRepo struct {
	*BaseDocumentRepo[*pago.Pago]
}

var _ pago.Repository = (*PagoRepo)(nil)

// NewPagoRepo creates a new payment repository.
func NewPagoRepo() *PagoRepo {
	return &PagoRepo{
		BaseDocumentRepo: NewBaseDocumentRepo[*pago.Pago](
			pagoTable,
			postgres.ExtractDBColumns[pago.Pago](),
			func() *pago.Pago { return &pago.Pago{} },
		),
	}
}

// CountByPolizaRenovacion counts non-canceled, non-substituted payments
// pinned to the given policy renewal.
func (r *PagoRepo) CountByPolizaRenovacion(ctx context.Context, polizaID id.ID, renovacion int) (int, error) {
	querier := r.getTxManager(ctx).GetQuerier(ctx)

	var count int
	err := querier.QueryRow(ctx,
		"SELECT COUNT(*) FROM "+pagoTable+
			" WHERE poliza_id = $1 AND renovacion = $2 AND deletion_mark = false AND estado NOT IN ($3, $4)",
		polizaID, renovacion, pago.EstadoCancelado, pago.EstadoSustituido,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count pagos by renovacion: %w", err)
	}
	return count, nil
}

// ShiftRenovacion decrements the renewal index of every payment of the
// policy whose index is strictly greater than above.
func (r *PagoRepo) ShiftRenovacion(ctx context.Context, polizaID id.ID, above int) error {
	querier := r.getTxManager(ctx).GetQuerier(ctx)
	_, err := querier.Exec(ctx,
		"UPDATE "+pagoTable+" SET renovacion = renovacion - 1 WHERE poliza_id = $1 AND renovacion > $2",
		polizaID, above)
	if err != nil {
		return fmt.Errorf("shift renovacion: %w", err)
	}
	return nil
}

// GetPago implements the directory contract the settlement workflow
// depends on.
func (r *PagoRepo) GetPago(ctx context.Context, pagoID id.ID) (*pago.Pago, error) {
	return r.GetByID(ctx, pagoID)
}

// UpdatePago implements the directory contract the settlement workflow
// depends on.
func (r *PagoRepo) UpdatePago(ctx context.Context, p *pago.Pago) error {
	return r.Update(ctx, p)
}
