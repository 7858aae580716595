package comision

import (
	"corseg/internal/core/types"
)

// Resolve finds the tier that applies to the given renewal index.
//
// Tiers are scanned in stored order (Renovacion ascending, inactive tiers
// skipped). An exact match always applies. A renewal between two tiers, or
// past the last tier, falls through to the nearest lower tier only when
// that tier is marked ReRenovacion. A renewal below the first tier has no
// applicable tier.
func Resolve(lineas []Linea, renovacion int) (Linea, bool) {
	var chosen *Linea
	for i := range lineas {
		l := &lineas[i]
		if !l.Active {
			continue
		}
		if l.Renovacion > renovacion {
			break
		}
		chosen = l
	}
	if chosen == nil {
		return Linea{}, false
	}
	if chosen.Renovacion == renovacion {
		return *chosen, true
	}
	if chosen.ReRenovacion {
		return *chosen, true
	}
	return Linea{}, false
}

// Compute turns a resolved tier and a base amount into a money figure,
// quantized to the company currency precision.
//
// When the tier is not ReCuota and a payment already exists for the same
// policy+renewal, only that first installment earned commission: the
// result is zero. A zero or negative base yields zero regardless of
// kind, so a fixed agent tier earns nothing when the company commission
// came out zero. Absence of an applicable tier is handled by the caller
// (zero, never an error).
func Compute(linea Linea, base types.Money, precision int32, hasPriorPayment bool) types.Money {
	if !linea.ReCuota && hasPriorPayment {
		return types.Zero()
	}
	if base.IsZero() || base.IsNegative() {
		return types.Zero()
	}

	switch linea.Kind {
	case KindFijo:
		return types.Quantize(linea.Monto, precision)
	case KindPorcentaje:
		return types.Quantize(types.Percentage(base, linea.Monto), precision)
	default:
		return types.Zero()
	}
}

// ResolveAndCompute is the full lookup: zero when no tier applies.
func ResolveAndCompute(lineas []Linea, renovacion int, base types.Money, precision int32, hasPriorPayment bool) types.Money {
	linea, ok := Resolve(lineas, renovacion)
	if !ok {
		return types.Zero()
	}
	return Compute(linea, base, precision, hasPriorPayment)
}
