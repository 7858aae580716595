package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"corseg/internal/core/id"
	"corseg/internal/core/types"
	"corseg/internal/domain/catalogs"
	"corseg/internal/domain/comision"
	"corseg/internal/infrastructure/storage/postgres"
)

const (
	productoTable             = "cat_productos"
	productoLineasCiaTable    = "cat_producto_comision_cia"
	productoLineasVendTable   = "cat_producto_comision_vendedor"
	productoVendOverrideTable = "cat_producto_comision_overrides"
)

// ProductoRepo persists products with their commission schedules: the
// default company and agent schedules plus the per-seller overrides.
type ProductoRepo struct {
	*BaseCatalogRepo[*catalogs.Producto]
}

// NewProductoRepo creates a new product repository.
func NewProductoRepo() *ProductoRepo {
	return &ProductoRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[*catalogs.Producto](
			productoTable,
			postgres.ExtractDBColumns[catalogs.Producto](),
			func() *catalogs.Producto { return &catalogs.Producto{} },
		),
	}
}

// Create inserts the product and all its schedules.
func (r *ProductoRepo) Create(ctx context.Context, p *catalogs.Producto) error {
	if err := r.BaseCatalogRepo.Create(ctx, p); err != nil {
		return err
	}
	return r.saveSchedules(ctx, p)
}

// Update replaces the product row and all its schedules.
func (r *ProductoRepo) Update(ctx context.Context, p *catalogs.Producto) error {
	if err := r.BaseCatalogRepo.Update(ctx, p); err != nil {
		return err
	}
	return r.saveSchedules(ctx, p)
}

// GetByID loads the product with all its schedules.
func (r *ProductoRepo) GetByID(ctx context.Context, productoID id.ID) (*catalogs.Producto, error) {
	p, err := r.BaseCatalogRepo.GetByID(ctx, productoID)
	if err != nil {
		return nil, err
	}
	if err := r.loadSchedules(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// GetProducto implements the directory contract the payment suggestion
// engine depends on.
func (r *ProductoRepo) GetProducto(ctx context.Context, productoID id.ID) (*catalogs.Producto, error) {
	return r.GetByID(ctx, productoID)
}

func (r *ProductoRepo) saveSchedules(ctx context.Context, p *catalogs.Producto) error {
	txm := r.getTxManager(ctx)
	if err := saveLineas(ctx, txm, productoLineasCiaTable, "producto_id", p.ID, p.ComisionCia); err != nil {
		return err
	}
	if err := saveLineas(ctx, txm, productoLineasVendTable, "producto_id", p.ID, p.ComisionVendedor); err != nil {
		return err
	}
	return r.saveOverrides(ctx, p)
}

func (r *ProductoRepo) loadSchedules(ctx context.Context, p *catalogs.Producto) error {
	txm := r.getTxManager(ctx)
	var err error
	if p.ComisionCia, err = loadLineas(ctx, txm, productoLineasCiaTable, "producto_id", p.ID); err != nil {
		return err
	}
	if p.ComisionVendedor, err = loadLineas(ctx, txm, productoLineasVendTable, "producto_id", p.ID); err != nil {
		return err
	}
	return r.loadOverrides(ctx, p)
}

// overrideRow is the flattened per-seller tier row.
type overrideRow struct {
	OverrideID     id.ID         `db:"override_id"`
	VendedorID     id.ID         `db:"vendedor_id"`
	LineaID        id.ID         `db:"linea_id"`
	Renovacion     int           `db:"renovacion"`
	TipoComisionID id.ID         `db:"tipo_comision_id"`
	Kind           comision.Kind `db:"kind"`
	Monto          types.Money   `db:"monto"`
	ReRenovacion   bool          `db:"re_renovacion"`
	ReCuota        bool          `db:"re_cuota"`
	Active         bool          `db:"active"`
}

func rowToLinea(row overrideRow) comision.Linea {
	return comision.Linea{
		ID:             row.LineaID,
		Renovacion:     row.Renovacion,
		TipoComisionID: row.TipoComisionID,
		Kind:           row.Kind,
		Monto:          row.Monto,
		ReRenovacion:   row.ReRenovacion,
		ReCuota:        row.ReCuota,
		Active:         row.Active,
	}
}

func (r *ProductoRepo) saveOverrides(ctx context.Context, p *catalogs.Producto) error {
	querier := r.getTxManager(ctx).GetQuerier(ctx)

	deleteSQL := "DELETE FROM " + productoVendOverrideTable + " WHERE producto_id = $1"
	if _, err := querier.Exec(ctx, deleteSQL, p.ID); err != nil {
		return fmt.Errorf("delete overrides: %w", err)
	}

	if len(p.ComisionesVendedor) == 0 {
		return nil
	}

	q := r.Builder().
		Insert(productoVendOverrideTable).
		Columns(
			"producto_id", "override_id", "vendedor_id",
			"linea_id", "renovacion", "tipo_comision_id", "kind", "monto",
			"re_renovacion", "re_cuota", "active",
		)

	for _, ov := range p.ComisionesVendedor {
		for _, l := range ov.Lineas {
			q = q.Values(
				p.ID, ov.ID, ov.VendedorID,
				l.ID, l.Renovacion, l.TipoComisionID, l.Kind, l.Monto,
				l.ReRenovacion, l.ReCuota, l.Active,
			)
		}
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert overrides: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert overrides: %w", err)
	}
	return nil
}

func (r *ProductoRepo) loadOverrides(ctx context.Context, p *catalogs.Producto) error {
	q := r.Builder().
		Select(
			"override_id", "vendedor_id",
			"linea_id", "renovacion", "tipo_comision_id", "kind", "monto",
			"re_renovacion", "re_cuota", "active",
		).
		From(productoVendOverrideTable).
		Where(squirrel.Eq{"producto_id": p.ID}).
		OrderBy("vendedor_id", "renovacion ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	var rows []overrideRow
	querier := r.getTxManager(ctx).GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &rows, sql, args...); err != nil {
		return fmt.Errorf("load overrides: %w", err)
	}

	p.ComisionesVendedor = groupOverrides(rows)
	return nil
}

// groupOverrides reassembles flattened rows into per-seller schedules,
// preserving the vendedor_id ordering of the query.
func groupOverrides(rows []overrideRow) []catalogs.ComisionVendedorProducto {
	var out []catalogs.ComisionVendedorProducto
	index := make(map[id.ID]int)

	for _, row := range rows {
		i, ok := index[row.VendedorID]
		if !ok {
			i = len(out)
			index[row.VendedorID] = i
			out = append(out, catalogs.ComisionVendedorProducto{
				ID:         row.OverrideID,
				VendedorID: row.VendedorID,
			})
		}
		out[i].Lineas = append(out[i].Lineas, rowToLinea(row))
	}
	return out
}
