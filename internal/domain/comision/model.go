// Package comision implements commission schedules: renewal-indexed tiers
// with recurrence rules, and the resolver that turns (schedule, renewal,
// base amount) into a money figure.
package comision

import (
	"context"

	"corseg/internal/core/apperror"
	"corseg/internal/core/entity"
	"corseg/internal/core/id"
	"corseg/internal/core/types"
)

// Kind of a commission rate.
type Kind string

const (
	KindFijo       Kind = "fijo"       // fixed amount per payment
	KindPorcentaje Kind = "porcentaje" // percentage of the base amount
)

// TipoComision is the reference rate used by schedule tiers.
// Immutable reference data; tiers snapshot kind and amount on assignment.
type TipoComision struct {
	entity.Catalog

	Kind  Kind        `db:"kind" json:"kind"`
	Monto types.Money `db:"monto" json:"monto"`
}

// NewTipoComision creates an active rate.
func NewTipoComision(code, name string, kind Kind, monto types.Money) TipoComision {
	return TipoComision{
		Catalog: entity.NewCatalog(code, name),
		Kind:    kind,
		Monto:   monto,
	}
}

// Validate implements entity.Validatable.
func (t *TipoComision) Validate(ctx context.Context) error {
	if err := t.Catalog.Validate(ctx); err != nil {
		return err
	}
	if t.Kind != KindFijo && t.Kind != KindPorcentaje {
		return apperror.NewValidation("kind must be fijo or porcentaje").
			WithDetail("field", "kind").
			WithDetail("value", string(t.Kind))
	}
	if t.Monto.IsNegative() {
		return apperror.NewValidation("monto must not be negative").
			WithDetail("field", "monto")
	}
	return nil
}

// Linea is one tier of a schedule. It snapshots the rate's kind and amount
// so later edits to the TipoComision catalog never change history.
type Linea struct {
	ID id.ID `db:"id" json:"id"`

	// Renovacion is the renewal index this tier is keyed to. The first
	// tier of a valid schedule is always renewal 0.
	Renovacion int `db:"renovacion" json:"renovacion"`

	// TipoComisionID references the catalog rate this tier was built from.
	TipoComisionID id.ID `db:"tipo_comision_id" json:"tipoComisionId"`

	Kind  Kind        `db:"kind" json:"kind"`
	Monto types.Money `db:"monto" json:"monto"`

	// ReRenovacion: the tier keeps applying to later renewals that have no
	// tier of their own (recurring commission).
	ReRenovacion bool `db:"re_renovacion" json:"reRenovacion"`

	// ReCuota: the tier applies to every installment of the renewal.
	// When false, only the first payment of a renewal earns commission.
	ReCuota bool `db:"re_cuota" json:"reCuota"`

	Active bool `db:"active" json:"active"`
}

// Comision is a named schedule owning an ordered list of tiers.
type Comision struct {
	entity.Catalog

	// Lineas ordered by Renovacion ascending.
	Lineas []Linea `db:"-" json:"lineas"`
}

// NewComision creates an active schedule.
func NewComision(code, name string) Comision {
	return Comision{Catalog: entity.NewCatalog(code, name)}
}

// Validate implements entity.Validatable.
func (c *Comision) Validate(ctx context.Context) error {
	if err := c.Catalog.Validate(ctx); err != nil {
		return err
	}
	return ValidateLineas(c.Lineas)
}

// ValidateLineas checks tier ordering: the first tier must be keyed to
// renewal 0 and indices must strictly increase. Also applied when a
// schedule is materialized onto a policy.
func ValidateLineas(lineas []Linea) error {
	if len(lineas) == 0 {
		return nil
	}
	if lineas[0].Renovacion != 0 {
		return apperror.NewBusinessRule(apperror.CodeCommissionSchedule,
			"first commission tier must be keyed to renewal 0").
			WithDetail("renovacion", lineas[0].Renovacion)
	}
	for i := 1; i < len(lineas); i++ {
		if lineas[i].Renovacion <= lineas[i-1].Renovacion {
			return apperror.NewBusinessRule(apperror.CodeCommissionSchedule,
				"commission tiers must have strictly increasing renewal indices").
				WithDetail("renovacion", lineas[i].Renovacion)
		}
	}
	return nil
}

// CloneLineas copies tiers with fresh ids, for materialization onto a
// policy or a movement.
func CloneLineas(lineas []Linea) []Linea {
	if len(lineas) == 0 {
		return nil
	}
	out := make([]Linea, len(lineas))
	copy(out, lineas)
	for i := range out {
		out[i].ID = id.New()
	}
	return out
}
