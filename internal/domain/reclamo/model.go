// Package reclamo implements insurance claims: a document workflow over a
// policy certificate, with a comment thread and file attachments.
package reclamo

import (
	"context"
	"time"

	"corseg/internal/core/apperror"
	"corseg/internal/core/entity"
	"corseg/internal/core/id"
	"corseg/internal/core/statemachine"
	"corseg/internal/core/types"
)

// Claim workflow states.
const (
	EstadoBorrador      statemachine.State = "borrador"
	EstadoIncompleto    statemachine.State = "incompleto"
	EstadoRecibido      statemachine.State = "recibido"
	EstadoAprobado      statemachine.State = "aprobado"
	EstadoRechazado     statemachine.State = "rechazado"
	EstadoReconsiderado statemachine.State = "reconsiderado"
	EstadoFiniquito     statemachine.State = "finiquito"
	EstadoCancelado     statemachine.State = "cancelado"
)

// Workflow actions.
const (
	AccionBorrador     statemachine.Action = "borrador"
	AccionIncompleto   statemachine.Action = "incompleto"
	AccionRecibir      statemachine.Action = "recibir"
	AccionAprobar      statemachine.Action = "aprobar"
	AccionRechazar     statemachine.Action = "rechazar"
	AccionReconsiderar statemachine.Action = "reconsiderar"
	AccionFiniquitar   statemachine.Action = "finiquitar"
	AccionCancelar     statemachine.Action = "cancelar"
)

// Machine is the claim transition table. A rejected claim can be
// reconsidered and decided again; an approved claim closes only through
// finiquito (final release).
var Machine = statemachine.New("reclamo", []statemachine.Transition{
	{Action: AccionIncompleto, From: []statemachine.State{EstadoBorrador}, To: EstadoIncompleto},
	{Action: AccionRecibir, From: []statemachine.State{EstadoBorrador, EstadoIncompleto}, To: EstadoRecibido},
	{Action: AccionAprobar, From: []statemachine.State{EstadoRecibido, EstadoReconsiderado}, To: EstadoAprobado},
	{Action: AccionRechazar, From: []statemachine.State{EstadoRecibido, EstadoReconsiderado}, To: EstadoRechazado},
	{Action: AccionReconsiderar, From: []statemachine.State{EstadoRechazado}, To: EstadoReconsiderado},
	{Action: AccionFiniquitar, From: []statemachine.State{EstadoAprobado}, To: EstadoFiniquito},
	{Action: AccionCancelar, From: []statemachine.State{EstadoIncompleto, EstadoRecibido}, To: EstadoCancelado},
	{Action: AccionBorrador, From: []statemachine.State{EstadoCancelado}, To: EstadoBorrador},
})

// Reclamo is a claim against one certificate of a policy. The renewal
// index is frozen at creation from the policy's current renewal.
type Reclamo struct {
	entity.Document

	PolizaID      id.ID  `db:"poliza_id" json:"polizaId"`
	CertificadoID id.ID  `db:"certificado_id" json:"certificadoId"`
	ExtensionID   *id.ID `db:"extension_id" json:"extensionId,omitempty"`

	Estado     statemachine.State `db:"estado" json:"estado"`
	Renovacion int                `db:"renovacion" json:"renovacion"`

	Descripcion string `db:"descripcion" json:"descripcion"`

	MontoReclamado types.Money  `db:"monto_reclamado" json:"montoReclamado"`
	Deducible      types.Money  `db:"deducible" json:"deducible"`
	MontoAprobado  *types.Money `db:"monto_aprobado" json:"montoAprobado,omitempty"`

	FechaOcurrencia *time.Time `db:"fecha_ocurrencia" json:"fechaOcurrencia,omitempty"`
	FechaRecibido   *time.Time `db:"fecha_recibido" json:"fechaRecibido,omitempty"`
	FechaResolucion *time.Time `db:"fecha_resolucion" json:"fechaResolucion,omitempty"`
	FechaFiniquito  *time.Time `db:"fecha_finiquito" json:"fechaFiniquito,omitempty"`

	Comentarios []Comentario `db:"-" json:"comentarios,omitempty"`
	Documentos  []Documento  `db:"-" json:"documentos,omitempty"`
}

// New creates a draft claim.
func New(companyID, polizaID, certificadoID id.ID) *Reclamo {
	return &Reclamo{
		Document:      entity.NewDocument(companyID),
		PolizaID:      polizaID,
		CertificadoID: certificadoID,
		Estado:        EstadoBorrador,
	}
}

// RecName returns a human-readable record name.
func (r *Reclamo) RecName() string {
	if r.Number != "" {
		return "Reclamo " + r.Number
	}
	return "Reclamo " + r.ID.String()
}

// Validate implements entity.Validatable.
func (r *Reclamo) Validate(ctx context.Context) error {
	if err := r.Document.Validate(ctx); err != nil {
		return err
	}
	if id.IsNil(r.PolizaID) {
		return apperror.NewValidation("poliza is required").
			WithDetail("field", "polizaId")
	}
	if id.IsNil(r.CertificadoID) {
		return apperror.NewValidation("certificado is required").
			WithDetail("field", "certificadoId")
	}
	if r.MontoReclamado.IsNegative() {
		return apperror.NewValidation("monto reclamado must not be negative").
			WithDetail("field", "montoReclamado")
	}
	if r.Deducible.IsNegative() {
		return apperror.NewValidation("deducible must not be negative").
			WithDetail("field", "deducible")
	}
	return nil
}

// Comentario is one entry of the claim's comment thread.
type Comentario struct {
	ID        id.ID     `db:"id" json:"id"`
	ReclamoID id.ID     `db:"reclamo_id" json:"reclamoId"`
	UserID    string    `db:"user_id" json:"userId"`
	Texto     string    `db:"texto" json:"texto"`
	Fecha     time.Time `db:"fecha" json:"fecha"`
}

// Documento is attachment metadata. The payload lives in the attachment
// store, compressed at rest.
type Documento struct {
	ID          id.ID     `db:"id" json:"id"`
	ReclamoID   id.ID     `db:"reclamo_id" json:"reclamoId"`
	Nombre      string    `db:"nombre" json:"nombre"`
	ContentType string    `db:"content_type" json:"contentType"`
	Size        int64     `db:"size" json:"size"`
	Fecha       time.Time `db:"fecha" json:"fecha"`
}
