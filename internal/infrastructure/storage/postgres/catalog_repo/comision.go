package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"corseg/internal/core/id"
	"corseg/internal/domain/comision"
	"corseg/internal/infrastructure/storage/postgres"
)

const (
	tipoComisionTable   = "cat_tipos_comision"
	comisionTable       = "cat_comisiones"
	comisionLineasTable = "cat_comision_lineas"
)

// lineaCols are the tier columns shared by every schedule child table.
var lineaCols = []string{
	"id", "renovacion", "tipo_comision_id", "kind", "monto",
	"re_renovacion", "re_cuota", "active",
}

// TipoComisionRepo persists commission rates.
type TipoComisionRepo struct {
	*BaseCatalogRepo[*comision.TipoComision]
}

// NewTipoComisionRepo creates a new rate repository.
func NewTipoComisionRepo() *TipoComisionRepo {
	return &TipoComisionRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[*comision.TipoComision](
			tipoComisionTable,
			postgres.ExtractDBColumns[comision.TipoComision](),
			func() *comision.TipoComision { return &comision.TipoComision{} },
		),
	}
}

// ComisionRepo persists named commission schedules with their tiers.
type ComisionRepo struct {
	*BaseCatalogRepo[*comision.Comision]
}

// NewComisionRepo creates a new schedule repository.
func NewComisionRepo() *ComisionRepo {
	return &ComisionRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[*comision.Comision](
			comisionTable,
			postgres.ExtractDBColumns[comision.Comision](),
			func() *comision.Comision { return &comision.Comision{} },
		),
	}
}

// Create inserts the schedule and its tiers.
func (r *ComisionRepo) Create(ctx context.Context, c *comision.Comision) error {
	if err := r.BaseCatalogRepo.Create(ctx, c); err != nil {
		return err
	}
	return saveLineas(ctx, r.getTxManager(ctx), comisionLineasTable, "comision_id", c.ID, c.Lineas)
}

// Update replaces the schedule row and its tiers.
func (r *ComisionRepo) Update(ctx context.Context, c *comision.Comision) error {
	if err := r.BaseCatalogRepo.Update(ctx, c); err != nil {
		return err
	}
	return saveLineas(ctx, r.getTxManager(ctx), comisionLineasTable, "comision_id", c.ID, c.Lineas)
}

// GetByID loads the schedule with its tiers.
func (r *ComisionRepo) GetByID(ctx context.Context, comisionID id.ID) (*comision.Comision, error) {
	c, err := r.BaseCatalogRepo.GetByID(ctx, comisionID)
	if err != nil {
		return nil, err
	}
	c.Lineas, err = loadLineas(ctx, r.getTxManager(ctx), comisionLineasTable, "comision_id", comisionID)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// loadLineas reads the tiers of one owner row, ordered by renewal index.
func loadLineas(ctx context.Context, txm *postgres.TxManager, table, ownerCol string, ownerID id.ID) ([]comision.Linea, error) {
	q := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Select(lineaCols...).
		From(table).
		Where(squirrel.Eq{ownerCol: ownerID}).
		OrderBy("renovacion ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lineas []comision.Linea
	if err := pgxscan.Select(ctx, txm.GetQuerier(ctx), &lineas, sql, args...); err != nil {
		return nil, fmt.Errorf("load lineas from %s: %w", table, err)
	}
	return lineas, nil
}

// saveLineas replaces the tiers of one owner row (delete existing + insert).
func saveLineas(ctx context.Context, txm *postgres.TxManager, table, ownerCol string, ownerID id.ID, lineas []comision.Linea) error {
	querier := txm.GetQuerier(ctx)

	deleteSQL := fmt.Sprintf("DELETE FROM %s WHERE %s = $1", table, ownerCol)
	if _, err := querier.Exec(ctx, deleteSQL, ownerID); err != nil {
		return fmt.Errorf("delete lineas from %s: %w", table, err)
	}

	if len(lineas) == 0 {
		return nil
	}

	q := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Insert(table).
		Columns(append([]string{ownerCol}, lineaCols...)...)

	for _, l := range lineas {
		q = q.Values(
			ownerID, l.ID, l.Renovacion, l.TipoComisionID, l.Kind, l.Monto,
			l.ReRenovacion, l.ReCuota, l.Active,
		)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert lineas: %w", err)
	}

	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert lineas into %s: %w", table, err)
	}
	return nil
}
