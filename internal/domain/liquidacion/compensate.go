package liquidacion

import (
	"time"

	"corseg/internal/core/id"
	"corseg/internal/core/types"
)

// Compensar runs the greedy FIFO netting pass over one policy's pending
// insurer adjustments, which the caller supplies ordered by number
// ascending (lowest sequence number first is the documented tie-break).
//
// Each round anchors on the first outstanding adjustment and scans
// forward for the first opposite-signed candidate. Equal magnitudes
// compensate both sides with one Compensacion for the full amount.
// Otherwise the smaller side is fully compensated with a Compensacion for
// its pending amount, the larger side keeps the reduced balance, and the
// scan restarts from the top because that balance must be re-evaluated
// against the remaining queue. The pass terminates when no opposite-sign
// pair remains; it never leaves two opposite-signed outstanding balances
// for the same policy.
//
// Adjustments are mutated in place (MontoPendiente and Estado); the
// returned Compensacion records are in creation order.
func Compensar(ajustes []*Ajuste) []Compensacion {
	var out []Compensacion

	for {
		pendientes := outstanding(ajustes)
		if len(pendientes) < 2 {
			return out
		}

		first := pendientes[0]
		positivo := first.MontoPendiente.IsPositive()

		var match *Ajuste
		for _, a := range pendientes[1:] {
			if a.MontoPendiente.IsPositive() != positivo {
				match = a
				break
			}
		}
		if match == nil {
			// All outstanding balances share first's sign.
			return out
		}

		suma := first.MontoPendiente.Add(match.MontoPendiente)
		switch {
		case suma.IsZero():
			monto := first.MontoPendiente.Abs()
			settle(first)
			settle(match)
			out = append(out, newCompensacion(first.ID, match.ID, monto))
		case first.MontoPendiente.Abs().LessThan(match.MontoPendiente.Abs()):
			monto := first.MontoPendiente.Abs()
			match.MontoPendiente = suma
			settle(first)
			out = append(out, newCompensacion(first.ID, match.ID, monto))
		default:
			monto := match.MontoPendiente.Abs()
			first.MontoPendiente = suma
			settle(match)
			out = append(out, newCompensacion(match.ID, first.ID, monto))
		}
	}
}

// outstanding filters pending adjustments with a non-zero balance,
// preserving the caller's number ordering.
func outstanding(ajustes []*Ajuste) []*Ajuste {
	var out []*Ajuste
	for _, a := range ajustes {
		if a.Estado == EstadoPendiente && !a.MontoPendiente.IsZero() {
			out = append(out, a)
		}
	}
	return out
}

func settle(a *Ajuste) {
	a.MontoPendiente = types.Zero()
	a.Estado = EstadoCompensado
}

func newCompensacion(ajusteID, contraID id.ID, monto types.Money) Compensacion {
	return Compensacion{
		ID:             id.New(),
		AjusteID:       ajusteID,
		ContraAjusteID: contraID,
		Monto:          monto,
		Fecha:          time.Now().UTC(),
	}
}
