// Package liquidacion implements commission settlements (insurer and
// agent variants) and the adjustment/compensation engine that nets out
// signed commission corrections per policy.
package liquidacion

import (
	"context"
	"time"

	"corseg/internal/core/apperror"
	"corseg/internal/core/entity"
	"corseg/internal/core/id"
	"corseg/internal/core/statemachine"
	"corseg/internal/core/types"
)

// Settlement workflow states.
const (
	EstadoBorrador   statemachine.State = "borrador"
	EstadoProcesado  statemachine.State = "procesado"
	EstadoConfirmado statemachine.State = "confirmado"
	EstadoCancelado  statemachine.State = "cancelado"
)

// Adjustment-only states (insurer variant).
const (
	EstadoPendiente  statemachine.State = "pendiente"
	EstadoCompensado statemachine.State = "compensado"
	EstadoFinalizado statemachine.State = "finalizado"
)

// Workflow actions.
const (
	AccionBorrador  statemachine.Action = "borrador"
	AccionProcesar  statemachine.Action = "procesar"
	AccionConfirmar statemachine.Action = "confirmar"
	AccionCancelar  statemachine.Action = "cancelar"
	AccionPender    statemachine.Action = "pender"
	AccionCompensar statemachine.Action = "compensar"
	AccionFinalizar statemachine.Action = "finalizar"
)

// LiqMachine is the settlement transition table, shared by both variants.
var LiqMachine = statemachine.New("liquidacion", []statemachine.Transition{
	{Action: AccionProcesar, From: []statemachine.State{EstadoBorrador}, To: EstadoProcesado},
	{Action: AccionConfirmar, From: []statemachine.State{EstadoProcesado}, To: EstadoConfirmado},
	{Action: AccionCancelar, From: []statemachine.State{EstadoProcesado}, To: EstadoCancelado},
	{Action: AccionBorrador, From: []statemachine.State{EstadoCancelado}, To: EstadoBorrador},
})

// AjusteCiaMachine is the insurer adjustment transition table. The
// pender/compensar transitions are fired by the settlement confirmation,
// never by the operator.
var AjusteCiaMachine = statemachine.New("ajuste_cia", []statemachine.Transition{
	{Action: AccionProcesar, From: []statemachine.State{EstadoBorrador}, To: EstadoProcesado},
	{Action: AccionPender, From: []statemachine.State{EstadoProcesado}, To: EstadoPendiente},
	{Action: AccionCompensar, From: []statemachine.State{EstadoPendiente}, To: EstadoCompensado},
	{Action: AccionFinalizar, From: []statemachine.State{EstadoPendiente}, To: EstadoFinalizado},
	{Action: AccionCancelar, From: []statemachine.State{EstadoBorrador, EstadoProcesado}, To: EstadoCancelado},
	{Action: AccionBorrador, From: []statemachine.State{EstadoCancelado}, To: EstadoBorrador},
})

// AjusteVendedorMachine is the simpler agent adjustment table.
var AjusteVendedorMachine = statemachine.New("ajuste_vendedor", []statemachine.Transition{
	{Action: AccionProcesar, From: []statemachine.State{EstadoBorrador}, To: EstadoProcesado},
	{Action: AccionConfirmar, From: []statemachine.State{EstadoProcesado}, To: EstadoConfirmado},
	{Action: AccionCancelar, From: []statemachine.State{EstadoBorrador, EstadoProcesado}, To: EstadoCancelado},
	{Action: AccionBorrador, From: []statemachine.State{EstadoCancelado}, To: EstadoBorrador},
})

// Liquidacion is a settlement batch: a set of confirmed payments grouped
// behind one workflow, per insurer or per agent.
type Liquidacion struct {
	entity.Document

	Estado statemachine.State `db:"estado" json:"estado"`

	// CiaID is set on insurer settlements, VendedorID on agent ones.
	CiaID      *id.ID `db:"cia_id" json:"ciaId,omitempty"`
	VendedorID *id.ID `db:"vendedor_id" json:"vendedorId,omitempty"`

	// PagoIDs are the grouped payments. Referenced, not owned.
	PagoIDs []id.ID `db:"-" json:"pagoIds"`

	// MontoDeclarado is the amount the insurer declares it paid. The
	// insurer settlement confirms only when it matches the net total.
	MontoDeclarado types.Money `db:"monto_declarado" json:"montoDeclarado"`

	// TotalCache snapshots the net total at confirmation; Total is
	// otherwise a live aggregate.
	TotalCache types.Money `db:"total_cache" json:"totalCache"`
}

// NewCia creates a draft insurer settlement.
func NewCia(companyID, ciaID id.ID) *Liquidacion {
	l := &Liquidacion{
		Document: entity.NewDocument(companyID),
		Estado:   EstadoBorrador,
	}
	l.CiaID = &ciaID
	return l
}

// NewVendedor creates a draft agent settlement.
func NewVendedor(companyID, vendedorID id.ID) *Liquidacion {
	l := &Liquidacion{
		Document: entity.NewDocument(companyID),
		Estado:   EstadoBorrador,
	}
	l.VendedorID = &vendedorID
	return l
}

// EsCia reports whether this is the insurer variant.
func (l *Liquidacion) EsCia() bool {
	return l.CiaID != nil
}

// Validate implements entity.Validatable.
func (l *Liquidacion) Validate(ctx context.Context) error {
	if err := l.Document.Validate(ctx); err != nil {
		return err
	}
	if (l.CiaID == nil) == (l.VendedorID == nil) {
		return apperror.NewValidation("a settlement belongs to exactly one of cia or vendedor").
			WithDetail("liquidacion", l.RecName())
	}
	return nil
}

// Ajuste is a manual commission correction tied to one payment. The
// insurer variant participates in compensation netting; the agent variant
// uses the simpler confirm workflow.
type Ajuste struct {
	entity.Document

	PagoID   id.ID `db:"pago_id" json:"pagoId"`
	PolizaID id.ID `db:"poliza_id" json:"polizaId"`

	Estado statemachine.State `db:"estado" json:"estado"`

	// Lado distinguishes the insurer and agent variants.
	Lado Lado `db:"lado" json:"lado"`

	// Monto is the signed correction amount.
	Monto types.Money `db:"monto" json:"monto"`

	// MontoPendiente is the signed balance still outstanding in the
	// compensation queue (insurer variant only). Starts equal to Monto
	// when the adjustment goes pending.
	MontoPendiente types.Money `db:"monto_pendiente" json:"montoPendiente"`
}

// Lado is the settlement side an adjustment corrects.
type Lado string

const (
	LadoCia      Lado = "cia"
	LadoVendedor Lado = "vendedor"
)

// NewAjuste creates a draft adjustment for the given payment.
func NewAjuste(companyID, pagoID, polizaID id.ID, lado Lado, monto types.Money) *Ajuste {
	return &Ajuste{
		Document: entity.NewDocument(companyID),
		PagoID:   pagoID,
		PolizaID: polizaID,
		Lado:     lado,
		Estado:   EstadoBorrador,
		Monto:    monto,
	}
}

// Validate implements entity.Validatable.
func (a *Ajuste) Validate(ctx context.Context) error {
	if err := a.Document.Validate(ctx); err != nil {
		return err
	}
	if id.IsNil(a.PagoID) {
		return apperror.NewValidation("pago is required").
			WithDetail("field", "pagoId")
	}
	if a.Lado != LadoCia && a.Lado != LadoVendedor {
		return apperror.NewValidation("lado must be cia or vendedor").
			WithDetail("field", "lado")
	}
	if a.Monto.IsZero() {
		return apperror.NewValidation("monto must not be zero").
			WithDetail("field", "monto").
			WithDetail("ajuste", a.RecName())
	}
	return nil
}

// Compensacion links two opposite-signed adjustments that offset each
// other, with the netted magnitude.
type Compensacion struct {
	ID id.ID `db:"id" json:"id"`

	// AjusteID is the adjustment that was fully compensated;
	// ContraAjusteID the one it netted against.
	AjusteID       id.ID `db:"ajuste_id" json:"ajusteId"`
	ContraAjusteID id.ID `db:"contra_ajuste_id" json:"contraAjusteId"`

	// Monto is the positive netted magnitude.
	Monto types.Money `db:"monto" json:"monto"`

	Fecha time.Time `db:"fecha" json:"fecha"`
}
