package catalog_repo

import (
	"context"

	"corseg/internal/core/id"
	"corseg/internal/domain/catalogs"
	"corseg/internal/infrastructure/storage/postgres"
)

const grupoTable = "cat_grupos"

// GrupoRepo persists policy groups.
type GrupoRepo struct {
	*BaseCatalogRepo[*catalogs.Grupo]
}

// NewGrupoRepo creates a new group repository.
func NewGrupoRepo() *GrupoRepo {
	return &GrupoRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[*catalogs.Grupo](
			grupoTable,
			postgres.ExtractDBColumns[catalogs.Grupo](),
			func() *catalogs.Grupo { return &catalogs.Grupo{} },
		),
	}
}

// NameResolver builds the path-name resolver over this repository.
func (r *GrupoRepo) NameResolver() *catalogs.GrupoNameResolver {
	return catalogs.NewGrupoNameResolver(func(ctx context.Context, grupoID id.ID) (catalogs.Grupo, error) {
		g, err := r.GetByID(ctx, grupoID)
		if err != nil {
			return catalogs.Grupo{}, err
		}
		return *g, nil
	})
}
