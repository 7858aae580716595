// Package pago implements premium payments: commission suggestion from
// the applicable schedules, validation of booked commissions, payment
// substitution and the settlement-facing state machine.
package pago

import (
	"context"

	"corseg/internal/core/apperror"
	"corseg/internal/core/entity"
	"corseg/internal/core/id"
	"corseg/internal/core/statemachine"
	"corseg/internal/core/types"
)

// Workflow states.
const (
	EstadoBorrador    statemachine.State = "borrador"
	EstadoProcesado   statemachine.State = "procesado"
	EstadoConfirmado  statemachine.State = "confirmado"
	EstadoCancelado   statemachine.State = "cancelado"
	EstadoSustituido  statemachine.State = "sustituido"
	EstadoLiqCia      statemachine.State = "liq_cia"
	EstadoLiqVendedor statemachine.State = "liq_vendedor"
)

// Workflow actions. The liquidar and sustituir actions are fired by the
// settlement and substitution flows, not by the operator directly.
const (
	AccionBorrador         statemachine.Action = "borrador"
	AccionProcesar         statemachine.Action = "procesar"
	AccionConfirmar        statemachine.Action = "confirmar"
	AccionCancelar         statemachine.Action = "cancelar"
	AccionSustituir        statemachine.Action = "sustituir"
	AccionLiquidarCia      statemachine.Action = "liquidar_cia"
	AccionLiquidarVendedor statemachine.Action = "liquidar_vendedor"
)

// Machine is the payment transition table.
var Machine = statemachine.New("pago", []statemachine.Transition{
	{Action: AccionProcesar, From: []statemachine.State{EstadoBorrador}, To: EstadoProcesado},
	{Action: AccionConfirmar, From: []statemachine.State{EstadoProcesado}, To: EstadoConfirmado},
	{Action: AccionCancelar, From: []statemachine.State{EstadoProcesado}, To: EstadoCancelado},
	{Action: AccionBorrador, From: []statemachine.State{EstadoCancelado}, To: EstadoBorrador},
	{Action: AccionSustituir, From: []statemachine.State{EstadoConfirmado}, To: EstadoSustituido},
	{Action: AccionLiquidarCia, From: []statemachine.State{EstadoConfirmado}, To: EstadoLiqCia},
	{Action: AccionLiquidarVendedor, From: []statemachine.State{EstadoLiqCia}, To: EstadoLiqVendedor},
})

// Pago is one premium payment applied to a policy renewal.
type Pago struct {
	entity.Document

	PolizaID   id.ID `db:"poliza_id" json:"polizaId"`
	VendedorID id.ID `db:"vendedor_id" json:"vendedorId"`

	Estado statemachine.State `db:"estado" json:"estado"`

	// Renovacion is frozen from the policy's current renewal at creation.
	Renovacion int `db:"renovacion" json:"renovacion"`

	Monto types.Money `db:"monto" json:"monto"`

	// Booked commissions, prefilled from the suggestion and editable by
	// the operator.
	ComisionCia      types.Money `db:"comision_cia" json:"comisionCia"`
	ComisionVendedor types.Money `db:"comision_vendedor" json:"comisionVendedor"`

	// Last computed suggestions, kept for audit.
	SugeridaCia      types.Money `db:"sugerida_cia" json:"sugeridaCia"`
	SugeridaVendedor types.Money `db:"sugerida_vendedor" json:"sugeridaVendedor"`

	// SustituyeID references the payment this one corrects; the old
	// payment gains SustituidoPorID when this one confirms.
	SustituyeID     *id.ID `db:"sustituye_id" json:"sustituyeId,omitempty"`
	SustituidoPorID *id.ID `db:"sustituido_por_id" json:"sustituidoPorId,omitempty"`

	// Settlement references, set when the batches confirm.
	LiqCiaID      *id.ID `db:"liq_cia_id" json:"liqCiaId,omitempty"`
	LiqVendedorID *id.ID `db:"liq_vendedor_id" json:"liqVendedorId,omitempty"`
}

// New creates a draft payment pinned to the policy's current renewal.
func New(companyID, polizaID, vendedorID id.ID, renovacion int) *Pago {
	return &Pago{
		Document:   entity.NewDocument(companyID),
		PolizaID:   polizaID,
		VendedorID: vendedorID,
		Renovacion: renovacion,
		Estado:     EstadoBorrador,
	}
}

// Validate implements entity.Validatable: the numeric business rules
// checked before every save.
func (p *Pago) Validate(ctx context.Context) error {
	if err := p.Document.Validate(ctx); err != nil {
		return err
	}
	if id.IsNil(p.PolizaID) {
		return apperror.NewValidation("poliza is required").
			WithDetail("field", "polizaId")
	}
	if !p.Monto.IsPositive() {
		return apperror.NewValidation("monto must be positive").
			WithDetail("field", "monto").
			WithDetail("pago", p.RecName())
	}
	if p.ComisionCia.IsNegative() {
		return apperror.NewValidation("comision cia must not be negative").
			WithDetail("field", "comisionCia").
			WithDetail("pago", p.RecName())
	}
	if p.ComisionVendedor.IsNegative() {
		return apperror.NewValidation("comision vendedor must not be negative").
			WithDetail("field", "comisionVendedor").
			WithDetail("pago", p.RecName())
	}
	if p.ComisionCia.GreaterThan(p.Monto) {
		return apperror.NewValidation("comision cia cannot exceed the payment amount").
			WithDetail("field", "comisionCia").
			WithDetail("pago", p.RecName())
	}
	if p.ComisionVendedor.GreaterThan(p.ComisionCia) {
		return apperror.NewValidation("comision vendedor cannot exceed comision cia").
			WithDetail("field", "comisionVendedor").
			WithDetail("pago", p.RecName())
	}
	return nil
}
