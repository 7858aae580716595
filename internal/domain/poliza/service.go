package poliza

import (
	"context"
	"fmt"

	"corseg/internal/core/apperror"
	"corseg/internal/core/company"
	"corseg/internal/core/id"
	"corseg/internal/domain"
	"corseg/pkg/logger"
)

// Service provides policy CRUD. Lifecycle transitions (new → vigente →
// cancelada) are driven exclusively by movement confirmation; this service
// never changes Estado directly.
type Service struct {
	repo Repository
}

// NewService creates a policy service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create validates and persists a new policy in state new.
func (s *Service) Create(ctx context.Context, p *Poliza) error {
	if p.Estado == "" {
		p.Estado = EstadoNew
	}
	if err := p.Validate(ctx); err != nil {
		return err
	}

	txm, err := company.GetTxManager(ctx)
	if err != nil {
		return apperror.NewInternal(err).WithDetail("missing", "tx_manager")
	}
	return txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, p); err != nil {
			return fmt.Errorf("create poliza: %w", err)
		}
		logger.Info(ctx, "poliza created", "poliza", p.RecName())
		return nil
	})
}

// GetByID loads the full policy aggregate.
func (s *Service) GetByID(ctx context.Context, polizaID id.ID) (*Poliza, error) {
	p, err := s.repo.GetByID(ctx, polizaID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("poliza", polizaID.String())
		}
		return nil, err
	}
	return p, nil
}

// Update validates and persists policy header changes.
func (s *Service) Update(ctx context.Context, p *Poliza) error {
	if err := p.Validate(ctx); err != nil {
		return err
	}

	txm, err := company.GetTxManager(ctx)
	if err != nil {
		return apperror.NewInternal(err).WithDetail("missing", "tx_manager")
	}
	return txm.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Update(ctx, p)
	})
}

// Delete removes a policy. Only policies still in state new can be
// deleted; anything initiated carries history.
func (s *Service) Delete(ctx context.Context, polizaID id.ID) error {
	p, err := s.GetByID(ctx, polizaID)
	if err != nil {
		return err
	}
	if p.Estado != EstadoNew {
		return apperror.NewBusinessRule(apperror.CodeBusinessRule,
			"only policies not yet initiated can be deleted").
			WithDetail("poliza", p.RecName()).
			WithDetail("estado", string(p.Estado))
	}

	txm, err := company.GetTxManager(ctx)
	if err != nil {
		return apperror.NewInternal(err).WithDetail("missing", "tx_manager")
	}
	return txm.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Delete(ctx, polizaID)
	})
}

// List retrieves policies with filtering.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Poliza], error) {
	return s.repo.List(ctx, filter)
}

// IncluirCertificado transitions a certificate to incluido, enforcing the
// state machine and same-policy rule for re-inclusions.
func IncluirCertificado(c *Certificado, polizaID id.ID) error {
	if c.Estado == CertExcluido && c.PolizaID != polizaID {
		return apperror.NewBusinessRule(apperror.CodeCertificatePolicy,
			"certificate was excluded from a different policy").
			WithDetail("certificado", c.RecName())
	}
	next, err := CertMachine.Fire(c.Estado, AccionIncluir)
	if err != nil {
		return apperror.NewBusinessRule(apperror.CodeCertificateState,
			"certificate cannot be included").
			WithDetail("certificado", c.RecName()).
			WithDetail("estado", string(c.Estado)).
			WithCause(err)
	}
	// New certificates carry their new extensions in.
	if c.Estado == CertNew {
		for i := range c.Extensiones {
			if c.Extensiones[i].Estado == CertNew {
				c.Extensiones[i].Estado = CertIncluido
			}
		}
	}
	c.Estado = next
	c.PolizaID = polizaID
	return nil
}

// ExcluirCertificado transitions a certificate to excluido.
func ExcluirCertificado(c *Certificado) error {
	next, err := CertMachine.Fire(c.Estado, AccionExcluir)
	if err != nil {
		return apperror.NewBusinessRule(apperror.CodeCertificateState,
			"certificate cannot be excluded").
			WithDetail("certificado", c.RecName()).
			WithDetail("estado", string(c.Estado)).
			WithCause(err)
	}
	c.Estado = next
	return nil
}

// IncluirExtension transitions an extension to incluido.
func IncluirExtension(e *Extension) error {
	next, err := CertMachine.Fire(e.Estado, AccionIncluir)
	if err != nil {
		return apperror.NewBusinessRule(apperror.CodeExtensionState,
			"extension cannot be included").
			WithDetail("extension", e.ID.String()).
			WithDetail("estado", string(e.Estado)).
			WithCause(err)
	}
	e.Estado = next
	return nil
}

// ExcluirExtension transitions an extension to excluido.
func ExcluirExtension(e *Extension) error {
	next, err := CertMachine.Fire(e.Estado, AccionExcluir)
	if err != nil {
		return apperror.NewBusinessRule(apperror.CodeExtensionState,
			"extension cannot be excluded").
			WithDetail("extension", e.ID.String()).
			WithDetail("estado", string(e.Estado)).
			WithCause(err)
	}
	e.Estado = next
	return nil
}
