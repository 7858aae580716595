package catalogs

import (
	"context"

	"corseg/internal/core/apperror"
	"corseg/internal/core/entity"
	"corseg/internal/core/id"
)

// VehiculoMarca is a vehicle make.
type VehiculoMarca struct {
	entity.Catalog
}

// NewVehiculoMarca creates an active make.
func NewVehiculoMarca(code, name string) VehiculoMarca {
	return VehiculoMarca{Catalog: entity.NewCatalog(code, name)}
}

// VehiculoModelo is a vehicle model, owned by a make.
type VehiculoModelo struct {
	entity.Catalog

	MarcaID id.ID `db:"marca_id" json:"marcaId"`
}

// NewVehiculoModelo creates an active model under the given make.
func NewVehiculoModelo(code, name string, marcaID id.ID) VehiculoModelo {
	return VehiculoModelo{
		Catalog: entity.NewCatalog(code, name),
		MarcaID: marcaID,
	}
}

// Validate implements entity.Validatable.
func (m *VehiculoModelo) Validate(ctx context.Context) error {
	if err := m.Catalog.Validate(ctx); err != nil {
		return err
	}
	if id.IsNil(m.MarcaID) {
		return apperror.NewValidation("marca is required").
			WithDetail("field", "marcaId")
	}
	return nil
}

// VehiculoTipo is a vehicle body type (sedan, pickup, motorcycle).
type VehiculoTipo struct {
	entity.Catalog
}

// NewVehiculoTipo creates an active type.
func NewVehiculoTipo(code, name string) VehiculoTipo {
	return VehiculoTipo{Catalog: entity.NewCatalog(code, name)}
}
