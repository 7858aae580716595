package catalogs

import (
	"context"

	"corseg/internal/core/apperror"
	"corseg/internal/core/entity"
	"corseg/internal/core/id"
	"corseg/internal/domain/comision"
)

// Producto is an insurer product. It owns the default commission schedules
// (company side and agent side) plus per-seller overrides.
type Producto struct {
	entity.Catalog

	CiaID  id.ID `db:"cia_id" json:"ciaId"`
	RamoID id.ID `db:"ramo_id" json:"ramoId"`

	// Es colectiva: the policy covers many certificates.
	EsColectiva bool `db:"es_colectiva" json:"esColectiva"`

	// ComisionCia is the default company-side schedule.
	ComisionCia []comision.Linea `db:"-" json:"comisionCia"`

	// ComisionVendedor is the default agent-side schedule, used when no
	// per-seller override exists.
	ComisionVendedor []comision.Linea `db:"-" json:"comisionVendedor"`

	// ComisionesVendedor are per-seller agent-side overrides.
	ComisionesVendedor []ComisionVendedorProducto `db:"-" json:"comisionesVendedor"`
}

// ComisionVendedorProducto is one per-seller schedule override row.
type ComisionVendedorProducto struct {
	ID         id.ID            `db:"id" json:"id"`
	VendedorID id.ID            `db:"vendedor_id" json:"vendedorId"`
	Lineas     []comision.Linea `db:"-" json:"lineas"`
}

// NewProducto creates an active product for the given insurer and branch.
func NewProducto(code, name string, ciaID, ramoID id.ID) Producto {
	return Producto{
		Catalog: entity.NewCatalog(code, name),
		CiaID:   ciaID,
		RamoID:  ramoID,
	}
}

// Validate implements entity.Validatable.
func (p *Producto) Validate(ctx context.Context) error {
	if err := p.Catalog.Validate(ctx); err != nil {
		return err
	}
	if id.IsNil(p.CiaID) {
		return apperror.NewValidation("cia is required").
			WithDetail("field", "ciaId")
	}
	if id.IsNil(p.RamoID) {
		return apperror.NewValidation("ramo is required").
			WithDetail("field", "ramoId")
	}
	if err := comision.ValidateLineas(p.ComisionCia); err != nil {
		return err
	}
	if err := comision.ValidateLineas(p.ComisionVendedor); err != nil {
		return err
	}
	for _, cv := range p.ComisionesVendedor {
		if err := comision.ValidateLineas(cv.Lineas); err != nil {
			return err
		}
	}
	return nil
}

// VendedorLineas returns the agent-side schedule for the given seller:
// the per-seller override when present, the product default otherwise.
func (p *Producto) VendedorLineas(vendedorID id.ID) []comision.Linea {
	for _, cv := range p.ComisionesVendedor {
		if cv.VendedorID == vendedorID {
			return cv.Lineas
		}
	}
	return p.ComisionVendedor
}
