package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"corseg/internal/core/id"
	"corseg/internal/domain/catalogs"
	"corseg/internal/infrastructure/storage/postgres"
)

const (
	vehiculoMarcaTable  = "cat_vehiculo_marcas"
	vehiculoModeloTable = "cat_vehiculo_modelos"
	vehiculoTipoTable   = "cat_vehiculo_tipos"
)

// VehiculoMarcaRepo persists vehicle makes.
type VehiculoMarcaRepo struct {
	*BaseCatalogRepo[*catalogs.VehiculoMarca]
}

// NewVehiculoMarcaRepo creates a new make repository.
func NewVehiculoMarcaRepo() *VehiculoMarcaRepo {
	return &VehiculoMarcaRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[*catalogs.VehiculoMarca](
			vehiculoMarcaTable,
			postgres.ExtractDBColumns[catalogs.VehiculoMarca](),
			func() *catalogs.VehiculoMarca { return &catalogs.VehiculoMarca{} },
		),
	}
}

// VehiculoModeloRepo persists vehicle models.
type VehiculoModeloRepo struct {
	*BaseCatalogRepo[*catalogs.VehiculoModelo]
}

// NewVehiculoModeloRepo creates a new model repository.
func NewVehiculoModeloRepo() *VehiculoModeloRepo {
	return &VehiculoModeloRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[*catalogs.VehiculoModelo](
			vehiculoModeloTable,
			postgres.ExtractDBColumns[catalogs.VehiculoModelo](),
			func() *catalogs.VehiculoModelo { return &catalogs.VehiculoModelo{} },
		),
	}
}

// ListByMarca retrieves the models of one make.
func (r *VehiculoModeloRepo) ListByMarca(ctx context.Context, marcaID id.ID) ([]*catalogs.VehiculoModelo, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"marca_id": marcaID}).
		Where(squirrel.Eq{"deletion_mark": false}).
		OrderBy("name ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*catalogs.VehiculoModelo
	querier := r.getTxManager(ctx).GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &items, sql, args...); err != nil {
		return nil, fmt.Errorf("list modelos by marca: %w", err)
	}
	return items, nil
}

// VehiculoTipoRepo persists vehicle body types.
type VehiculoTipoRepo struct {
	*BaseCatalogRepo[*catalogs.VehiculoTipo]
}

// NewVehiculoTipoRepo creates a new type repository.
func NewVehiculoTipoRepo() *VehiculoTipoRepo {
	return &VehiculoTipoRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[*catalogs.VehiculoTipo](
			vehiculoTipoTable,
			postgres.ExtractDBColumns[catalogs.VehiculoTipo](),
			func() *catalogs.VehiculoTipo { return &catalogs.VehiculoTipo{} },
		),
	}
}
