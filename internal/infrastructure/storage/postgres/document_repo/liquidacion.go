package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"corseg/internal/core/id"
	"corseg/internal/core/types"
	"corseg/internal/domain/liquidacion"
	"corseg/internal/infrastructure/storage/postgres"
)

const (
	liquidacionTable      = "doc_liquidaciones"
	liquidacionPagosTable = "doc_liquidacion_pagos"
	ajusteTable           = "doc_ajustes"
	compensacionTable     = "doc_compensaciones"
)

// LiquidacionRepo persists settlement batches with their payment links.
type LiquidacionRepo struct {
	*BaseDocumentRepo[*liquidacion.Liquidacion]
}

var _ liquidacion.Repository = (*LiquidacionRepo)(nil)

// NewLiquidacionRepo creates a new settlement repository.
func NewLiquidacionRepo() *LiquidacionRepo {
	return &LiquidacionRepo{
		BaseDocumentRepo: NewBaseDocumentRepo[*liquidacion.Liquidacion](
			liquidacionTable,
			postgres.ExtractDBColumns[liquidacion.Liquidacion](),
			func() *liquidacion.Liquidacion { return &liquidacion.Liquidacion{} },
		),
	}
}

// Create inserts the settlement with its payment links.
func (r *LiquidacionRepo) Create(ctx context.Context, l *liquidacion.Liquidacion) error {
	if err := r.BaseDocumentRepo.Create(ctx, l); err != nil {
		return err
	}
	return saveIDList(ctx, r.getTxManager(ctx), liquidacionPagosTable, "liquidacion_id", l.ID, "pago_id", l.PagoIDs)
}

// Update replaces the settlement row and its payment links.
func (r *LiquidacionRepo) Update(ctx context.Context, l *liquidacion.Liquidacion) error {
	if err := r.BaseDocumentRepo.Update(ctx, l); err != nil {
		return err
	}
	return saveIDList(ctx, r.getTxManager(ctx), liquidacionPagosTable, "liquidacion_id", l.ID, "pago_id", l.PagoIDs)
}

// GetByID loads the settlement with its payment links.
func (r *LiquidacionRepo) GetByID(ctx context.Context, liqID id.ID) (*liquidacion.Liquidacion, error) {
	l, err := r.BaseDocumentRepo.GetByID(ctx, liqID)
	if err != nil {
		return nil, err
	}
	l.PagoIDs, err = loadIDList(ctx, r.getTxManager(ctx), liquidacionPagosTable, "liquidacion_id", l.ID, "pago_id")
	if err != nil {
		return nil, err
	}
	return l, nil
}

// AjusteRepo persists adjustments and their compensation records.
type AjusteRepo struct {
	*BaseDocumentRepo[*liquidacion.Ajuste]
}

var _ liquidacion.AjusteRepository = (*AjusteRepo)(nil)

// NewAjusteRepo creates a new adjustment repository.
func NewAjusteRepo() *AjusteRepo {
	return &AjusteRepo{
		BaseDocumentRepo: NewBaseDocumentRepo[*liquidacion.Ajuste](
			ajusteTable,
			postgres.ExtractDBColumns[liquidacion.Ajuste](),
			func() *liquidacion.Ajuste { return &liquidacion.Ajuste{} },
		),
	}
}

// ListByPago returns the payment's adjustments for one side.
func (r *AjusteRepo) ListByPago(ctx context.Context, pagoID id.ID, lado liquidacion.Lado) ([]*liquidacion.Ajuste, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"pago_id": pagoID}).
		Where(squirrel.Eq{"lado": lado}).
		Where(squirrel.Eq{"deletion_mark": false}).
		OrderBy("number ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*liquidacion.Ajuste
	querier := r.getTxManager(ctx).GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &items, sql, args...); err != nil {
		return nil, fmt.Errorf("list ajustes by pago: %w", err)
	}
	return items, nil
}

// ListPendientesByPoliza returns the policy's pending insurer adjustments
// ordered by number ascending (the compensation queue).
func (r *AjusteRepo) ListPendientesByPoliza(ctx context.Context, polizaID id.ID) ([]*liquidacion.Ajuste, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"poliza_id": polizaID}).
		Where(squirrel.Eq{"lado": liquidacion.LadoCia}).
		Where(squirrel.Eq{"estado": liquidacion.EstadoPendiente}).
		Where(squirrel.Eq{"deletion_mark": false}).
		OrderBy("number ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*liquidacion.Ajuste
	querier := r.getTxManager(ctx).GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &items, sql, args...); err != nil {
		return nil, fmt.Errorf("list pendientes by poliza: %w", err)
	}
	return items, nil
}

// SumByPago totals the signed amounts of the payment's adjustments for
// one side, excluding borrador and cancelado.
func (r *AjusteRepo) SumByPago(ctx context.Context, pagoID id.ID, lado liquidacion.Lado) (types.Money, error) {
	querier := r.getTxManager(ctx).GetQuerier(ctx)

	var sum types.Money
	err := querier.QueryRow(ctx,
		"SELECT COALESCE(SUM(monto), 0) FROM "+ajusteTable+
			" WHERE pago_id = $1 AND lado = $2 AND deletion_mark = false AND estado NOT IN ($3, $4)",
		pagoID, lado, liquidacion.EstadoBorrador, liquidacion.EstadoCancelado,
	).Scan(&sum)
	if err != nil {
		return types.Zero(), fmt.Errorf("sum ajustes by pago: %w", err)
	}
	return sum, nil
}

// SaveCompensacion records one netting between two opposite adjustments.
func (r *AjusteRepo) SaveCompensacion(ctx context.Context, c *liquidacion.Compensacion) error {
	q := r.Builder().
		Insert(compensacionTable).
		Columns("id", "ajuste_id", "contra_ajuste_id", "monto", "fecha").
		Values(c.ID, c.AjusteID, c.ContraAjusteID, c.Monto, c.Fecha)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.getTxManager(ctx).GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert compensacion: %w", err)
	}
	return nil
}

// ListCompensaciones returns the nettings an adjustment took part in, on
// either side of the pairing.
func (r *AjusteRepo) ListCompensaciones(ctx context.Context, ajusteID id.ID) ([]*liquidacion.Compensacion, error) {
	q := r.Builder().
		Select("id", "ajuste_id", "contra_ajuste_id", "monto", "fecha").
		From(compensacionTable).
		Where(squirrel.Or{
			squirrel.Eq{"ajuste_id": ajusteID},
			squirrel.Eq{"contra_ajuste_id": ajusteID},
		}).
		OrderBy("fecha ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*liquidacion.Compensacion
	querier := r.getTxManager(ctx).GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &items, sql, args...); err != nil {
		return nil, fmt.Errorf("list compensaciones: %w", err)
	}
	return items, nil
}

// SumCiaByPago implements the adjustment totals contract of the payment
// workflow for the insurer side.
func (r *AjusteRepo) SumCiaByPago(ctx context.Context, pagoID id.ID) (types.Money, error) {
	return r.SumByPago(ctx, pagoID, liquidacion.LadoCia)
}

// SumVendedorByPago implements the adjustment totals contract of the
// payment workflow for the agent side.
func (r *AjusteRepo) SumVendedorByPago(ctx context.Context, pagoID id.ID) (types.Money, error) {
	return r.SumByPago(ctx, pagoID, liquidacion.LadoVendedor)
}
