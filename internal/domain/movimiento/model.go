// Package movimiento implements the policy movement workflow: the
// document that advances a policy through initiation, renewals, in-place
// endorsements, cancellation and renewal deletion.
package movimiento

import (
	"context"
	"time"

	"corseg/internal/core/apperror"
	"corseg/internal/core/entity"
	"corseg/internal/core/id"
	"corseg/internal/core/statemachine"
	"corseg/internal/core/types"
	"corseg/internal/domain/comision"
	"corseg/internal/domain/poliza"
)

// Tipo of movement.
type Tipo string

const (
	TipoGeneral            Tipo = "general"
	TipoEndoso             Tipo = "endoso"
	TipoEliminarRenovacion Tipo = "eliminar_renovacion"
)

// Endoso classifies an endorsement movement.
type Endoso string

const (
	EndosoIniciacion  Endoso = "iniciacion"
	EndosoRenovacion  Endoso = "renovacion"
	EndosoOtros       Endoso = "otros"
	EndosoCancelacion Endoso = "cancelacion"
	EndosoAnulacion   Endoso = "anulacion"
)

// Workflow states.
const (
	EstadoBorrador   statemachine.State = "borrador"
	EstadoProcesado  statemachine.State = "procesado"
	EstadoConfirmado statemachine.State = "confirmado"
	EstadoCancelado  statemachine.State = "cancelado"
)

// Workflow actions.
const (
	AccionBorrador  statemachine.Action = "borrador"
	AccionProcesar  statemachine.Action = "procesar"
	AccionConfirmar statemachine.Action = "confirmar"
	AccionCancelar  statemachine.Action = "cancelar"
)

// Machine is the movement transition table.
var Machine = statemachine.New("movimiento", []statemachine.Transition{
	{Action: AccionProcesar, From: []statemachine.State{EstadoBorrador}, To: EstadoProcesado},
	{Action: AccionConfirmar, From: []statemachine.State{EstadoProcesado}, To: EstadoConfirmado},
	{Action: AccionCancelar, From: []statemachine.State{EstadoProcesado}, To: EstadoCancelado},
	{Action: AccionBorrador, From: []statemachine.State{EstadoCancelado}, To: EstadoBorrador},
})

// Movimiento is one policy movement document.
type Movimiento struct {
	entity.Document

	PolizaID id.ID `db:"poliza_id" json:"polizaId"`

	Estado statemachine.State `db:"estado" json:"estado"`

	Tipo       Tipo       `db:"tipo" json:"tipo"`
	TipoEndoso Endoso `db:"tipo_endoso" json:"tipoEndoso,omitempty"`

	// Renovacion is the renewal index this movement belongs to. Set at
	// confirmation for endorsements; for eliminar_renovacion it is the
	// index of the renewal to delete, set by the operator.
	Renovacion int `db:"renovacion" json:"renovacion"`

	Descripcion string `db:"descripcion" json:"descripcion,omitempty"`

	// --- Renewal snapshot overrides (applied on confirmation) ---

	Prima          *types.Money `db:"prima" json:"prima,omitempty"`
	SumaAsegurada  *types.Money `db:"suma_asegurada" json:"sumaAsegurada,omitempty"`
	FechaEmision   *time.Time   `db:"fecha_emision" json:"fechaEmision,omitempty"`
	InicioVigencia *time.Time   `db:"inicio_vigencia" json:"inicioVigencia,omitempty"`
	FinVigencia    *time.Time   `db:"fin_vigencia" json:"finVigencia,omitempty"`

	// --- Policy header overrides ---

	VendedorID       *id.ID `db:"vendedor_id" json:"vendedorId,omitempty"`
	FormaPagoID      *id.ID `db:"forma_pago_id" json:"formaPagoId,omitempty"`
	FrecuenciaPagoID *id.ID `db:"frecuencia_pago_id" json:"frecuenciaPagoId,omitempty"`
	GrupoID          *id.ID `db:"grupo_id" json:"grupoId,omitempty"`

	// --- Certificate movements ---

	// Inclusiones are certificates to include: freshly created ones (state
	// new) or re-inclusions of previously excluded certificates.
	Inclusiones []id.ID `db:"-" json:"inclusiones,omitempty"`

	// Exclusiones are certificates to exclude (must be incluido).
	Exclusiones []id.ID `db:"-" json:"exclusiones,omitempty"`

	// Modificaciones are in-place certificate changes.
	Modificaciones []Modificacion `db:"-" json:"modificaciones,omitempty"`

	// --- Commission tiers destined for the policy ---

	ComisionCia      []comision.Linea `db:"-" json:"comisionCia,omitempty"`
	ComisionVendedor []comision.Linea `db:"-" json:"comisionVendedor,omitempty"`
}

// Modificacion is a certificate modification sub-record: field overrides,
// a vehicle upsert and extension in/exclusions.
type Modificacion struct {
	ID            id.ID `db:"id" json:"id"`
	MovimientoID  id.ID `db:"movimiento_id" json:"movimientoId"`
	CertificadoID id.ID `db:"certificado_id" json:"certificadoId"`

	Descripcion   *string      `db:"descripcion" json:"descripcion,omitempty"`
	SumaAsegurada *types.Money `db:"suma_asegurada" json:"sumaAsegurada,omitempty"`
	Prima         *types.Money `db:"prima" json:"prima,omitempty"`

	// Vehiculo, when set, is upserted onto the certificate.
	Vehiculo *poliza.Vehiculo `db:"-" json:"vehiculo,omitempty"`

	ExtensionInclusiones []id.ID `db:"-" json:"extensionInclusiones,omitempty"`
	ExtensionExclusiones []id.ID `db:"-" json:"extensionExclusiones,omitempty"`
}

// New creates a draft movement for the given company and policy.
func New(companyID, polizaID id.ID, tipo Tipo) *Movimiento {
	return &Movimiento{
		Document: entity.NewDocument(companyID),
		PolizaID: polizaID,
		Tipo:     tipo,
		Estado:   EstadoBorrador,
	}
}

// Validate implements entity.Validatable.
func (m *Movimiento) Validate(ctx context.Context) error {
	if err := m.Document.Validate(ctx); err != nil {
		return err
	}
	if id.IsNil(m.PolizaID) {
		return apperror.NewValidation("poliza is required").
			WithDetail("field", "polizaId")
	}
	switch m.Tipo {
	case TipoGeneral, TipoEliminarRenovacion:
	case TipoEndoso:
		switch m.TipoEndoso {
		case EndosoIniciacion, EndosoRenovacion, EndosoOtros, EndosoCancelacion, EndosoAnulacion:
		default:
			return apperror.NewValidation("tipo_endoso is required for endoso movements").
				WithDetail("field", "tipoEndoso").
				WithDetail("value", string(m.TipoEndoso))
		}
	default:
		return apperror.NewValidation("invalid movement type").
			WithDetail("field", "tipo").
			WithDetail("value", string(m.Tipo))
	}
	if err := comision.ValidateLineas(m.ComisionCia); err != nil {
		return err
	}
	return comision.ValidateLineas(m.ComisionVendedor)
}

// EsIniciacion reports whether this movement initiates the policy.
func (m *Movimiento) EsIniciacion() bool {
	return m.Tipo == TipoEndoso && m.TipoEndoso == EndosoIniciacion
}

// EsRenovacion reports whether this movement opens a new renewal cycle.
func (m *Movimiento) EsRenovacion() bool {
	return m.Tipo == TipoEndoso && m.TipoEndoso == EndosoRenovacion
}

// EsEnSitio reports whether this movement applies in place to the current
// renewal (premium deltas add rather than replace).
func (m *Movimiento) EsEnSitio() bool {
	return !m.EsIniciacion() && !m.EsRenovacion()
}
