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
	ciaTable      = "cat_cias"
	vendedorTable = "cat_vendedores"
	ramoTable     = "cat_ramos"
)

// CiaRepo persists insurers.
type CiaRepo struct {
	*BaseCatalogRepo[*catalogs.Cia]
}

// NewCiaRepo creates a new insurer repository.
func NewCiaRepo() *CiaRepo {
	return &CiaRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[*catalogs.Cia](
			ciaTable,
			postgres.ExtractDBColumns[catalogs.Cia](),
			func() *catalogs.Cia { return &catalogs.Cia{} },
		),
	}
}

// FindByParty retrieves the insurer linked to the given party.
func (r *CiaRepo) FindByParty(ctx context.Context, partyID id.ID) (*catalogs.Cia, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"party_id": partyID}).
		Where(squirrel.Eq{"deletion_mark": false}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var c catalogs.Cia
	querier := r.getTxManager(ctx).GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &c, sql, args...); err != nil {
		return nil, fmt.Errorf("find cia by party: %w", err)
	}
	return &c, nil
}

// VendedorRepo persists sales agents.
type VendedorRepo struct {
	*BaseCatalogRepo[*catalogs.Vendedor]
}

// NewVendedorRepo creates a new seller repository.
func NewVendedorRepo() *VendedorRepo {
	return &VendedorRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[*catalogs.Vendedor](
			vendedorTable,
			postgres.ExtractDBColumns[catalogs.Vendedor](),
			func() *catalogs.Vendedor { return &catalogs.Vendedor{} },
		),
	}
}

// RamoRepo persists insurance branches.
type RamoRepo struct {
	*BaseCatalogRepo[*catalogs.Ramo]
}

// NewRamoRepo creates a new branch repository.
func NewRamoRepo() *RamoRepo {
	return &RamoRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[*catalogs.Ramo](
			ramoTable,
			postgres.ExtractDBColumns[catalogs.Ramo](),
			func() *catalogs.Ramo { return &catalogs.Ramo{} },
		),
	}
}
