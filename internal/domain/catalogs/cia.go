// Package catalogs holds the master data referenced by policies and
// payments: insurers, products, sellers, branches, payment forms, policy
// groups and vehicle reference data.
package catalogs

import (
	"context"

	"corseg/internal/core/apperror"
	"corseg/internal/core/entity"
	"corseg/internal/core/id"
)

// Cia is an insurance company (insurer).
type Cia struct {
	entity.Catalog

	// PartyID references the counterparty in the external party registry.
	PartyID id.ID `db:"party_id" json:"partyId"`
}

// NewCia creates an active insurer.
func NewCia(code, name string, partyID id.ID) Cia {
	return Cia{
		Catalog: entity.NewCatalog(code, name),
		PartyID: partyID,
	}
}

// Validate implements entity.Validatable.
func (c *Cia) Validate(ctx context.Context) error {
	if err := c.Catalog.Validate(ctx); err != nil {
		return err
	}
	if id.IsNil(c.PartyID) {
		return apperror.NewValidation("party is required").
			WithDetail("field", "partyId")
	}
	return nil
}

// Vendedor is a sales agent.
type Vendedor struct {
	entity.Catalog

	PartyID id.ID `db:"party_id" json:"partyId"`
}

// NewVendedor creates an active seller.
func NewVendedor(code, name string, partyID id.ID) Vendedor {
	return Vendedor{
		Catalog: entity.NewCatalog(code, name),
		PartyID: partyID,
	}
}

// Validate implements entity.Validatable.
func (v *Vendedor) Validate(ctx context.Context) error {
	if err := v.Catalog.Validate(ctx); err != nil {
		return err
	}
	if id.IsNil(v.PartyID) {
		return apperror.NewValidation("party is required").
			WithDetail("field", "partyId")
	}
	return nil
}

// Ramo is an insurance branch (line of business).
type Ramo struct {
	entity.Catalog
}

// NewRamo creates an active branch.
func NewRamo(code, name string) Ramo {
	return Ramo{Catalog: entity.NewCatalog(code, name)}
}
