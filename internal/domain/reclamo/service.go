package reclamo

import (
	"context"
	"fmt"
	"time"

	"corseg/internal/core/apperror"
	"corseg/internal/core/company"
	appctx "corseg/internal/core/context"
	"corseg/internal/core/id"
	"corseg/internal/core/numerator"
	"corseg/internal/core/statemachine"
	"corseg/internal/domain"
	"corseg/internal/domain/poliza"
	"corseg/pkg/logger"
)

// Service drives the claim workflow.
type Service struct {
	repo    Repository
	polizas poliza.Repository
	store   DocumentoStore
	numbers numerator.Generator

	numberCfg func(ctx context.Context) numerator.Config
}

// ServiceConfig configures the claim service.
type ServiceConfig struct {
	Repo    Repository
	Polizas poliza.Repository
	Store   DocumentoStore
	Numbers numerator.Generator

	// NumberCfg resolves the claim sequence configuration per request.
	// Defaults to the REC prefix.
	NumberCfg func(ctx context.Context) numerator.Config
}

// NewService creates a claim service.
func NewService(cfg ServiceConfig) *Service {
	numberCfg := cfg.NumberCfg
	if numberCfg == nil {
		numberCfg = func(context.Context) numerator.Config {
			return numerator.DefaultConfig("REC")
		}
	}
	return &Service{
		repo:      cfg.Repo,
		polizas:   cfg.Polizas,
		store:     cfg.Store,
		numbers:   cfg.Numbers,
		numberCfg: numberCfg,
	}
}

// Create validates and persists a draft claim. The claim must target an
// included certificate of an initiated policy; the renewal index is
// frozen from the policy's current renewal.
func (s *Service) Create(ctx context.Context, r *Reclamo) error {
	if r.Estado == "" {
		r.Estado = EstadoBorrador
	}
	if err := r.Validate(ctx); err != nil {
		return err
	}

	p, err := s.polizas.GetByID(ctx, r.PolizaID)
	if err != nil {
		return err
	}
	if p.RenovacionActual < 0 {
		return apperror.NewBusinessRule(apperror.CodePolicyMustInitiate,
			"claims require an initiated policy").
			WithDetail("poliza", p.RecName())
	}
	if err := s.checkCertificado(ctx, r); err != nil {
		return err
	}
	r.Renovacion = p.RenovacionActual

	return s.inTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, r); err != nil {
			return fmt.Errorf("create reclamo: %w", err)
		}
		logger.Info(ctx, "reclamo creado",
			"reclamo", r.RecName(), "poliza", p.RecName())
		return nil
	})
}

// checkCertificado verifies the claimed certificate belongs to the policy
// and is included, and the extension (when given) is included too.
func (s *Service) checkCertificado(ctx context.Context, r *Reclamo) error {
	c, err := s.polizas.GetCertificado(ctx, r.CertificadoID)
	if err != nil {
		return err
	}
	if c.PolizaID != r.PolizaID {
		return apperror.NewBusinessRule(apperror.CodeCertificatePolicy,
			"certificate does not belong to the claimed policy").
			WithDetail("certificado", c.RecName())
	}
	if c.Estado != poliza.CertIncluido {
		return apperror.NewBusinessRule(apperror.CodeCertificateState,
			"claims require an included certificate").
			WithDetail("certificado", c.RecName()).
			WithDetail("estado", string(c.Estado))
	}
	if r.ExtensionID == nil {
		return nil
	}
	for i := range c.Extensiones {
		e := &c.Extensiones[i]
		if e.ID != *r.ExtensionID {
			continue
		}
		if e.Estado != poliza.CertIncluido {
			return apperror.NewBusinessRule(apperror.CodeExtensionState,
				"claims require an included extension").
				WithDetail("extension", e.ID.String()).
				WithDetail("estado", string(e.Estado))
		}
		return nil
	}
	return apperror.NewNotFound("extension", r.ExtensionID.String())
}

// GetByID loads a claim.
func (s *Service) GetByID(ctx context.Context, reclamoID id.ID) (*Reclamo, error) {
	r, err := s.repo.GetByID(ctx, reclamoID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("reclamo", reclamoID.String())
		}
		return nil, err
	}
	return r, nil
}

// List retrieves claims with filtering.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Reclamo], error) {
	return s.repo.List(ctx, filter)
}

// Update persists claim edits, allowed while the claim is still being
// prepared (borrador or incompleto).
func (s *Service) Update(ctx context.Context, r *Reclamo) error {
	if r.Estado != EstadoBorrador && r.Estado != EstadoIncompleto {
		return apperror.NewInvalidTransition("reclamo", "update", string(r.Estado))
	}
	if err := r.Validate(ctx); err != nil {
		return err
	}
	return s.inTx(ctx, func(ctx context.Context) error {
		r.Touch()
		return s.repo.Update(ctx, r)
	})
}

// Delete removes a claim, allowed only in borrador or cancelado.
func (s *Service) Delete(ctx context.Context, reclamoID id.ID) error {
	return s.inTx(ctx, func(ctx context.Context) error {
		r, err := s.GetByID(ctx, reclamoID)
		if err != nil {
			return err
		}
		if r.Estado != EstadoBorrador && r.Estado != EstadoCancelado {
			return apperror.NewInvalidTransition("reclamo", "delete", string(r.Estado))
		}
		return s.repo.Delete(ctx, reclamoID)
	})
}

// Recibir marks the claim received and stamps the reception date.
func (s *Service) Recibir(ctx context.Context, reclamoID id.ID) error {
	return s.fire(ctx, reclamoID, AccionRecibir, func(r *Reclamo) error {
		now := time.Now().UTC()
		r.FechaRecibido = &now
		return nil
	})
}

// MarcarIncompleto flags a draft claim as missing documentation.
func (s *Service) MarcarIncompleto(ctx context.Context, reclamoID id.ID) error {
	return s.fire(ctx, reclamoID, AccionIncompleto, nil)
}

// Aprobar approves a received or reconsidered claim. The approved amount
// must be set beforehand.
func (s *Service) Aprobar(ctx context.Context, reclamoID id.ID) error {
	return s.fire(ctx, reclamoID, AccionAprobar, func(r *Reclamo) error {
		if r.MontoAprobado == nil {
			return apperror.NewValidation("monto aprobado is required to approve").
				WithDetail("reclamo", r.RecName())
		}
		now := time.Now().UTC()
		r.FechaResolucion = &now
		return nil
	})
}

// Rechazar rejects a received or reconsidered claim.
func (s *Service) Rechazar(ctx context.Context, reclamoID id.ID) error {
	return s.fire(ctx, reclamoID, AccionRechazar, func(r *Reclamo) error {
		now := time.Now().UTC()
		r.FechaResolucion = &now
		return nil
	})
}

// Reconsiderar reopens a rejected claim for a new decision.
func (s *Service) Reconsiderar(ctx context.Context, reclamoID id.ID) error {
	return s.fire(ctx, reclamoID, AccionReconsiderar, func(r *Reclamo) error {
		r.FechaResolucion = nil
		return nil
	})
}

// Finiquitar closes an approved claim with its final release.
func (s *Service) Finiquitar(ctx context.Context, reclamoID id.ID) error {
	return s.fire(ctx, reclamoID, AccionFiniquitar, func(r *Reclamo) error {
		now := time.Now().UTC()
		r.FechaFiniquito = &now
		return nil
	})
}

// Cancelar cancels an incomplete or received claim.
func (s *Service) Cancelar(ctx context.Context, reclamoID id.ID) error {
	return s.fire(ctx, reclamoID, AccionCancelar, nil)
}

// Reabrir moves a canceled claim back to borrador.
func (s *Service) Reabrir(ctx context.Context, reclamoID id.ID) error {
	return s.fire(ctx, reclamoID, AccionBorrador, nil)
}

// fire runs one workflow action inside a transaction. The claim receives
// its sequence number on the first transition out of borrador; the number
// survives every later transition.
func (s *Service) fire(ctx context.Context, reclamoID id.ID, action statemachine.Action, hook func(r *Reclamo) error) error {
	return s.inTx(ctx, func(ctx context.Context) error {
		r, err := s.GetByID(ctx, reclamoID)
		if err != nil {
			return err
		}
		next, err := Machine.Fire(r.Estado, action)
		if err != nil {
			return err
		}
		if hook != nil {
			if err := hook(r); err != nil {
				return err
			}
		}
		if r.Number == "" && next != EstadoBorrador {
			num, err := s.numbers.GetNextNumber(ctx, s.numberCfg(ctx), nil, r.Fecha)
			if err != nil {
				return fmt.Errorf("assign reclamo number: %w", err)
			}
			r.AssignNumber(num)
		}
		r.Estado = next
		r.Touch()
		return s.repo.Update(ctx, r)
	})
}

// AgregarComentario appends an entry to the claim's comment thread,
// attributed to the acting user.
func (s *Service) AgregarComentario(ctx context.Context, reclamoID id.ID, texto string) (*Comentario, error) {
	if texto == "" {
		return nil, apperror.NewValidation("comentario must not be empty").
			WithDetail("field", "texto")
	}
	r, err := s.GetByID(ctx, reclamoID)
	if err != nil {
		return nil, err
	}
	c := &Comentario{
		ID:        id.New(),
		ReclamoID: r.ID,
		UserID:    appctx.GetUserID(ctx),
		Texto:     texto,
		Fecha:     time.Now().UTC(),
	}
	if err := s.inTx(ctx, func(ctx context.Context) error {
		return s.repo.AddComentario(ctx, c)
	}); err != nil {
		return nil, err
	}
	return c, nil
}

// AdjuntarDocumento stores an attachment payload and records its
// metadata on the claim.
func (s *Service) AdjuntarDocumento(ctx context.Context, reclamoID id.ID, nombre, contentType string, data []byte) (*Documento, error) {
	if nombre == "" {
		return nil, apperror.NewValidation("documento requires a name").
			WithDetail("field", "nombre")
	}
	if len(data) == 0 {
		return nil, apperror.NewValidation("documento payload must not be empty").
			WithDetail("documento", nombre)
	}
	r, err := s.GetByID(ctx, reclamoID)
	if err != nil {
		return nil, err
	}
	d := &Documento{
		ID:          id.New(),
		ReclamoID:   r.ID,
		Nombre:      nombre,
		ContentType: contentType,
		Size:        int64(len(data)),
		Fecha:       time.Now().UTC(),
	}
	if err := s.inTx(ctx, func(ctx context.Context) error {
		if err := s.store.Put(ctx, d.ID, data); err != nil {
			return fmt.Errorf("store documento: %w", err)
		}
		return s.repo.AddDocumento(ctx, d)
	}); err != nil {
		return nil, err
	}
	logger.Info(ctx, "documento adjuntado",
		"reclamo", r.RecName(), "documento", d.Nombre, "size", d.Size)
	return d, nil
}

// ObtenerDocumento loads an attachment payload.
func (s *Service) ObtenerDocumento(ctx context.Context, documentoID id.ID) ([]byte, error) {
	return s.store.Get(ctx, documentoID)
}

func (s *Service) inTx(ctx context.Context, fn func(ctx context.Context) error) error {
	txm, err := company.GetTxManager(ctx)
	if err != nil {
		return apperror.NewInternal(err).WithDetail("missing", "tx_manager")
	}
	return txm.RunInTransaction(ctx, fn)
}
