// Package poliza holds the policy aggregate: the policy itself, its
// renewal snapshots, certificates with their extensions, and the insured
// vehicle record.
package poliza

import (
	"context"
	"time"

	"corseg/internal/core/apperror"
	"corseg/internal/core/entity"
	"corseg/internal/core/id"
	"corseg/internal/core/statemachine"
	"corseg/internal/core/types"
	"corseg/internal/domain/comision"
)

// Policy lifecycle states.
const (
	EstadoNew       statemachine.State = "new"
	EstadoVigente   statemachine.State = "vigente"
	EstadoCancelada statemachine.State = "cancelada"
)

// Certificate / extension states.
const (
	CertNew      statemachine.State = "new"
	CertIncluido statemachine.State = "incluido"
	CertExcluido statemachine.State = "excluido"
)

// Certificate / extension actions.
const (
	AccionIncluir statemachine.Action = "incluir"
	AccionExcluir statemachine.Action = "excluir"
)

// CertMachine is the three-state machine shared by certificates and
// extensions.
var CertMachine = statemachine.New("certificado", []statemachine.Transition{
	{Action: AccionIncluir, From: []statemachine.State{CertNew, CertExcluido}, To: CertIncluido},
	{Action: AccionExcluir, From: []statemachine.State{CertIncluido}, To: CertExcluido},
})

// Poliza is an insurance contract tracked through renewal cycles.
type Poliza struct {
	entity.BaseDocument

	CompanyID id.ID `db:"company_id" json:"companyId"`

	// Numero is the policy number issued by the insurer (user-entered,
	// not sequence-generated).
	Numero string `db:"numero" json:"numero"`

	Estado statemachine.State `db:"estado" json:"estado"`

	CiaID            id.ID  `db:"cia_id" json:"ciaId"`
	ProductoID       id.ID  `db:"producto_id" json:"productoId"`
	ContratanteID    id.ID  `db:"contratante_id" json:"contratanteId"`
	VendedorID       id.ID  `db:"vendedor_id" json:"vendedorId"`
	GrupoID          *id.ID `db:"grupo_id" json:"grupoId,omitempty"`
	FormaPagoID      *id.ID `db:"forma_pago_id" json:"formaPagoId,omitempty"`
	FrecuenciaPagoID *id.ID `db:"frecuencia_pago_id" json:"frecuenciaPagoId,omitempty"`

	// RenovacionActual is the index of the current renewal cycle.
	// -1 until the initiation movement confirms renewal 0.
	RenovacionActual int `db:"renovacion_actual" json:"renovacionActual"`

	Comentario string `db:"comentario" json:"comentario,omitempty"`

	// ComisionCia / ComisionVendedor are the schedules materialized onto
	// the policy by the last confirmed movement that carried tiers. When
	// present they override the product's schedules.
	ComisionCia      []comision.Linea `db:"-" json:"comisionCia,omitempty"`
	ComisionVendedor []comision.Linea `db:"-" json:"comisionVendedor,omitempty"`

	Renovaciones []Renovacion  `db:"-" json:"renovaciones,omitempty"`
	Certificados []Certificado `db:"-" json:"certificados,omitempty"`

	// TotalPagado is maintained by the payment workflow.
	TotalPagado types.Money `db:"total_pagado" json:"totalPagado"`
}

// New creates a draft policy for the given company.
func New(companyID id.ID) Poliza {
	return Poliza{
		BaseDocument:     entity.NewBaseDocument(),
		CompanyID:        companyID,
		Estado:           EstadoNew,
		RenovacionActual: -1,
	}
}

// Validate implements entity.Validatable.
func (p *Poliza) Validate(ctx context.Context) error {
	if id.IsNil(p.CompanyID) {
		return apperror.NewValidation("company is required").
			WithDetail("field", "companyId")
	}
	if id.IsNil(p.CiaID) {
		return apperror.NewValidation("cia is required").
			WithDetail("field", "ciaId")
	}
	if id.IsNil(p.ProductoID) {
		return apperror.NewValidation("producto is required").
			WithDetail("field", "productoId")
	}
	if id.IsNil(p.ContratanteID) {
		return apperror.NewValidation("contratante is required").
			WithDetail("field", "contratanteId")
	}
	if err := comision.ValidateLineas(p.ComisionCia); err != nil {
		return err
	}
	return comision.ValidateLineas(p.ComisionVendedor)
}

// RecName returns the human-readable reference for error messages.
func (p *Poliza) RecName() string {
	if p.Numero != "" {
		return p.Numero
	}
	return p.ID.String()
}

// RenovacionByIndex returns the renewal snapshot with the given index.
func (p *Poliza) RenovacionByIndex(idx int) (*Renovacion, bool) {
	for i := range p.Renovaciones {
		if p.Renovaciones[i].Renovacion == idx {
			return &p.Renovaciones[i], true
		}
	}
	return nil, false
}

// Total is the sum of all renewal totals.
func (p *Poliza) Total() types.Money {
	total := types.Zero()
	for i := range p.Renovaciones {
		total = total.Add(p.Renovaciones[i].Prima)
	}
	return total
}

// Saldo is the outstanding balance: renewal totals minus amount paid.
func (p *Poliza) Saldo() types.Money {
	return p.Total().Sub(p.TotalPagado)
}

// SetComisiones replaces the materialized schedules, validating ordering.
func (p *Poliza) SetComisiones(cia, vendedor []comision.Linea) error {
	if err := comision.ValidateLineas(cia); err != nil {
		return err
	}
	if err := comision.ValidateLineas(vendedor); err != nil {
		return err
	}
	p.ComisionCia = cia
	p.ComisionVendedor = vendedor
	return nil
}

// Renovacion is one numbered cycle of a policy's life, with its own
// premium and coverage snapshot. Immutable once its movement confirms,
// except through later in-place endorsements.
type Renovacion struct {
	ID       id.ID `db:"id" json:"id"`
	PolizaID id.ID `db:"poliza_id" json:"polizaId"`

	// Renovacion is the cycle index, 0 for initiation.
	Renovacion int `db:"renovacion" json:"renovacion"`

	FechaEmision   *time.Time `db:"fecha_emision" json:"fechaEmision,omitempty"`
	InicioVigencia *time.Time `db:"inicio_vigencia" json:"inicioVigencia,omitempty"`
	FinVigencia    *time.Time `db:"fin_vigencia" json:"finVigencia,omitempty"`

	SumaAsegurada types.Money `db:"suma_asegurada" json:"sumaAsegurada"`
	Prima         types.Money `db:"prima" json:"prima"`

	// TotalPagos is maintained by the payment workflow for this cycle.
	TotalPagos types.Money `db:"total_pagos" json:"totalPagos"`
}

// Saldo is the outstanding balance of this renewal cycle only.
func (r *Renovacion) Saldo() types.Money {
	return r.Prima.Sub(r.TotalPagos)
}

// Certificado is an individual covered item or person under a (often
// collective) policy.
type Certificado struct {
	ID       id.ID `db:"id" json:"id"`
	PolizaID id.ID `db:"poliza_id" json:"polizaId"`

	Numero      string `db:"numero" json:"numero"`
	Descripcion string `db:"descripcion" json:"descripcion,omitempty"`

	// AseguradoID references the insured party.
	AseguradoID id.ID `db:"asegurado_id" json:"aseguradoId"`

	Estado statemachine.State `db:"estado" json:"estado"`

	SumaAsegurada types.Money `db:"suma_asegurada" json:"sumaAsegurada"`
	Prima         types.Money `db:"prima" json:"prima"`

	Extensiones []Extension `db:"-" json:"extensiones,omitempty"`
	Vehiculo    *Vehiculo   `db:"-" json:"vehiculo,omitempty"`
}

// NewCertificado creates a certificate in state new for the given policy.
func NewCertificado(polizaID, aseguradoID id.ID) Certificado {
	return Certificado{
		ID:          id.New(),
		PolizaID:    polizaID,
		AseguradoID: aseguradoID,
		Estado:      CertNew,
	}
}

// RecName returns the human-readable reference for error messages.
func (c *Certificado) RecName() string {
	if c.Numero != "" {
		return c.Numero
	}
	return c.ID.String()
}

// Extension is an additional covered party under a certificate, with its
// own inclusion state machine.
type Extension struct {
	ID            id.ID `db:"id" json:"id"`
	CertificadoID id.ID `db:"certificado_id" json:"certificadoId"`

	AseguradoID id.ID `db:"asegurado_id" json:"aseguradoId"`

	Estado statemachine.State `db:"estado" json:"estado"`
}

// NewExtension creates an extension in state new.
func NewExtension(certificadoID, aseguradoID id.ID) Extension {
	return Extension{
		ID:            id.New(),
		CertificadoID: certificadoID,
		AseguradoID:   aseguradoID,
		Estado:        CertNew,
	}
}

// Vehiculo is the insured vehicle linked to a certificate.
type Vehiculo struct {
	ID            id.ID `db:"id" json:"id"`
	CertificadoID id.ID `db:"certificado_id" json:"certificadoId"`

	MarcaID  *id.ID `db:"marca_id" json:"marcaId,omitempty"`
	ModeloID *id.ID `db:"modelo_id" json:"modeloId,omitempty"`
	TipoID   *id.ID `db:"tipo_id" json:"tipoId,omitempty"`

	Anio        int    `db:"anio" json:"anio,omitempty"`
	Placa       string `db:"placa" json:"placa,omitempty"`
	Motor       string `db:"motor" json:"motor,omitempty"`
	Chasis      string `db:"chasis" json:"chasis,omitempty"`
	Color       string `db:"color" json:"color,omitempty"`
	Transmision string `db:"transmision" json:"transmision,omitempty"`
	Uso         string `db:"uso" json:"uso,omitempty"`
}
