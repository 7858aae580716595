package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"corseg/internal/core/id"
	"corseg/internal/domain/movimiento"
	"corseg/internal/domain/poliza"
	"corseg/internal/infrastructure/storage/postgres"
)

const (
	movimientoTable          = "doc_movimientos"
	movInclusionesTable      = "doc_movimiento_inclusiones"
	movExclusionesTable      = "doc_movimiento_exclusiones"
	movModificacionesTable   = "doc_movimiento_modificaciones"
	movVehiculosTable        = "doc_modificacion_vehiculos"
	movExtInclusionesTable   = "doc_modificacion_ext_inclusiones"
	movExtExclusionesTable   = "doc_modificacion_ext_exclusiones"
	movLineasCiaTable        = "doc_movimiento_comision_cia"
	movLineasVendedorTable   = "doc_movimiento_comision_vendedor"
)

// modVehiculoRow links a vehicle upsert payload to its modification.
type modVehiculoRow struct {
	ModificacionID id.ID `db:"modificacion_id"`
	poliza.Vehiculo
}

var (
	modificacionCols = postgres.ExtractDBColumns[movimiento.Modificacion]()
	modVehiculoCols  = postgres.ExtractDBColumns[modVehiculoRow]()
)

// MovimientoRepo persists movement documents with their certificate
// in/exclusion lists, modification sub-records and commission tiers.
type MovimientoRepo struct {
	*BaseDocumentRepo[*movimiento.Movimiento]
}

var _ movimiento.Repository = (*MovimientoRepo)(nil)

// NewMovimientoRepo creates a new movement repository.
func NewMovimientoRepo() *MovimientoRepo {
	return &MovimientoRepo{
		BaseDocumentRepo: NewBaseDocumentRepo[*movimiento.Movimiento](
			movimientoTable,
			postgres.ExtractDBColumns[movimiento.Movimiento](),
			func() *movimiento.Movimiento { return &movimiento.Movimiento{} },
		),
	}
}

// Create inserts the movement with all its children.
func (r *MovimientoRepo) Create(ctx context.Context, m *movimiento.Movimiento) error {
	if err := r.BaseDocumentRepo.Create(ctx, m); err != nil {
		return err
	}
	return r.saveChildren(ctx, m)
}

// Update replaces the movement row and all its children.
func (r *MovimientoRepo) Update(ctx context.Context, m *movimiento.Movimiento) error {
	if err := r.BaseDocumentRepo.Update(ctx, m); err != nil {
		return err
	}
	return r.saveChildren(ctx, m)
}

// GetByID loads the movement with all its children.
func (r *MovimientoRepo) GetByID(ctx context.Context, movimientoID id.ID) (*movimiento.Movimiento, error) {
	m, err := r.BaseDocumentRepo.GetByID(ctx, movimientoID)
	if err != nil {
		return nil, err
	}
	if err := r.loadChildren(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// ListByPoliza returns the policy's movements ordered by creation.
func (r *MovimientoRepo) ListByPoliza(ctx context.Context, polizaID id.ID) ([]*movimiento.Movimiento, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"poliza_id": polizaID}).
		Where(squirrel.Eq{"deletion_mark": false}).
		OrderBy("created_at ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*movimiento.Movimiento
	querier := r.getTxManager(ctx).GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &items, sql, args...); err != nil {
		return nil, fmt.Errorf("list movimientos by poliza: %w", err)
	}

	for _, m := range items {
		if err := r.loadChildren(ctx, m); err != nil {
			return nil, err
		}
	}
	return items, nil
}

// ShiftRenovacion decrements the renewal index of every movement of the
// policy whose index is strictly greater than above.
func (r *MovimientoRepo) ShiftRenovacion(ctx context.Context, polizaID id.ID, above int) error {
	querier := r.getTxManager(ctx).GetQuerier(ctx)
	_, err := querier.Exec(ctx,
		"UPDATE "+movimientoTable+" SET renovacion = renovacion - 1 WHERE poliza_id = $1 AND renovacion > $2",
		polizaID, above)
	if err != nil {
		return fmt.Errorf("shift renovacion: %w", err)
	}
	return nil
}

func (r *MovimientoRepo) saveChildren(ctx context.Context, m *movimiento.Movimiento) error {
	txm := r.getTxManager(ctx)

	if err := saveIDList(ctx, txm, movInclusionesTable, "movimiento_id", m.ID, "certificado_id", m.Inclusiones); err != nil {
		return err
	}
	if err := saveIDList(ctx, txm, movExclusionesTable, "movimiento_id", m.ID, "certificado_id", m.Exclusiones); err != nil {
		return err
	}
	if err := r.saveModificaciones(ctx, m); err != nil {
		return err
	}
	if err := saveLineas(ctx, txm, movLineasCiaTable, "movimiento_id", m.ID, m.ComisionCia); err != nil {
		return err
	}
	return saveLineas(ctx, txm, movLineasVendedorTable, "movimiento_id", m.ID, m.ComisionVendedor)
}

func (r *MovimientoRepo) saveModificaciones(ctx context.Context, m *movimiento.Movimiento) error {
	txm := r.getTxManager(ctx)
	querier := txm.GetQuerier(ctx)

	// Cascade wipes the vehicle and extension rows of replaced mods.
	deleteSQL := "DELETE FROM " + movModificacionesTable + " WHERE movimiento_id = $1"
	if _, err := querier.Exec(ctx, deleteSQL, m.ID); err != nil {
		return fmt.Errorf("delete modificaciones: %w", err)
	}

	for i := range m.Modificaciones {
		mod := &m.Modificaciones[i]
		if err := upsertRow(ctx, txm, movModificacionesTable, modificacionCols, mod); err != nil {
			return err
		}
		if mod.Vehiculo != nil {
			row := modVehiculoRow{ModificacionID: mod.ID, Vehiculo: *mod.Vehiculo}
			if err := upsertRow(ctx, txm, movVehiculosTable, modVehiculoCols, &row); err != nil {
				return err
			}
		}
		if err := saveIDList(ctx, txm, movExtInclusionesTable, "modificacion_id", mod.ID, "extension_id", mod.ExtensionInclusiones); err != nil {
			return err
		}
		if err := saveIDList(ctx, txm, movExtExclusionesTable, "modificacion_id", mod.ID, "extension_id", mod.ExtensionExclusiones); err != nil {
			return err
		}
	}
	return nil
}

func (r *MovimientoRepo) loadChildren(ctx context.Context, m *movimiento.Movimiento) error {
	txm := r.getTxManager(ctx)
	var err error

	if m.Inclusiones, err = loadIDList(ctx, txm, movInclusionesTable, "movimiento_id", m.ID, "certificado_id"); err != nil {
		return err
	}
	if m.Exclusiones, err = loadIDList(ctx, txm, movExclusionesTable, "movimiento_id", m.ID, "certificado_id"); err != nil {
		return err
	}
	if err = r.loadModificaciones(ctx, m); err != nil {
		return err
	}
	if m.ComisionCia, err = loadLineas(ctx, txm, movLineasCiaTable, "movimiento_id", m.ID); err != nil {
		return err
	}
	if m.ComisionVendedor, err = loadLineas(ctx, txm, movLineasVendedorTable, "movimiento_id", m.ID); err != nil {
		return err
	}
	return nil
}

func (r *MovimientoRepo) loadModificaciones(ctx context.Context, m *movimiento.Movimiento) error {
	txm := r.getTxManager(ctx)
	querier := txm.GetQuerier(ctx)

	q := r.Builder().
		Select(modificacionCols...).
		From(movModificacionesTable).
		Where(squirrel.Eq{"movimiento_id": m.ID})
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Select(ctx, querier, &m.Modificaciones, sql, args...); err != nil {
		return fmt.Errorf("load modificaciones: %w", err)
	}

	for i := range m.Modificaciones {
		mod := &m.Modificaciones[i]

		q = r.Builder().
			Select(modVehiculoCols...).
			From(movVehiculosTable).
			Where(squirrel.Eq{"modificacion_id": mod.ID})
		sql, args, err = q.ToSql()
		if err != nil {
			return fmt.Errorf("build query: %w", err)
		}
		var row modVehiculoRow
		if err := pgxscan.Get(ctx, querier, &row, sql, args...); err != nil {
			if !pgxscan.NotFound(err) {
				return fmt.Errorf("load modificacion vehiculo: %w", err)
			}
		} else {
			v := row.Vehiculo
			mod.Vehiculo = &v
		}

		if mod.ExtensionInclusiones, err = loadIDList(ctx, txm, movExtInclusionesTable, "modificacion_id", mod.ID, "extension_id"); err != nil {
			return err
		}
		if mod.ExtensionExclusiones, err = loadIDList(ctx, txm, movExtExclusionesTable, "modificacion_id", mod.ID, "extension_id"); err != nil {
			return err
		}
	}
	return nil
}

// saveIDList replaces the id link rows of one owner (delete + insert).
func saveIDList(ctx context.Context, txm *postgres.TxManager, table, ownerCol string, ownerID id.ID, valueCol string, ids []id.ID) error {
	querier := txm.GetQuerier(ctx)

	deleteSQL := fmt.Sprintf("DELETE FROM %s WHERE %s = $1", table, ownerCol)
	if _, err := querier.Exec(ctx, deleteSQL, ownerID); err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}

	if len(ids) == 0 {
		return nil
	}

	q := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Insert(table).
		Columns(ownerCol, valueCol, "ord")
	for i, v := range ids {
		q = q.Values(ownerID, v, i)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert into %s: %w", table, err)
	}
	return nil
}

// loadIDList reads the id link rows of one owner in insertion order.
func loadIDList(ctx context.Context, txm *postgres.TxManager, table, ownerCol string, ownerID id.ID, valueCol string) ([]id.ID, error) {
	q := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Select(valueCol).
		From(table).
		Where(squirrel.Eq{ownerCol: ownerID}).
		OrderBy("ord ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var ids []id.ID
	if err := pgxscan.Select(ctx, txm.GetQuerier(ctx), &ids, sql, args...); err != nil {
		return nil, fmt.Errorf("load from %s: %w", table, err)
	}
	return ids, nil
}
