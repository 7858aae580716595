package movimiento

import (
	"context"
	"fmt"

	"corseg/internal/core/apperror"
	"corseg/internal/core/company"
	"corseg/internal/core/id"
	"corseg/internal/core/numerator"
	"corseg/internal/core/statemachine"
	"corseg/internal/domain"
	"corseg/internal/domain/comision"
	"corseg/internal/domain/poliza"
	"corseg/pkg/logger"
)

// Service drives the movement workflow. Every transition runs inside one
// transaction: a guard failure anywhere rolls back every side effect.
type Service struct {
	repo    Repository
	polizas poliza.Repository
	pagos   PagoDirectory
	numbers numerator.Generator

	// numberCfg resolves the sequence configuration for the company in
	// context (per-company configuration lookup with defaults).
	numberCfg func(ctx context.Context) numerator.Config
}

// ServiceConfig configures the movement service.
type ServiceConfig struct {
	Repo      Repository
	Polizas   poliza.Repository
	Pagos     PagoDirectory
	Numbers   numerator.Generator
	NumberCfg func(ctx context.Context) numerator.Config
}

// NewService creates a movement service.
func NewService(cfg ServiceConfig) *Service {
	numberCfg := cfg.NumberCfg
	if numberCfg == nil {
		numberCfg = func(context.Context) numerator.Config {
			return numerator.DefaultConfig("MOV")
		}
	}
	return &Service{
		repo:      cfg.Repo,
		polizas:   cfg.Polizas,
		pagos:     cfg.Pagos,
		numbers:   cfg.Numbers,
		numberCfg: numberCfg,
	}
}

// Create validates and persists a new draft movement.
func (s *Service) Create(ctx context.Context, m *Movimiento) error {
	if m.Estado == "" {
		m.Estado = EstadoBorrador
	}
	if err := m.Validate(ctx); err != nil {
		return err
	}
	return s.inTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, m); err != nil {
			return fmt.Errorf("create movimiento: %w", err)
		}
		return nil
	})
}

// GetByID loads a movement.
func (s *Service) GetByID(ctx context.Context, movimientoID id.ID) (*Movimiento, error) {
	m, err := s.repo.GetByID(ctx, movimientoID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("movimiento", movimientoID.String())
		}
		return nil, err
	}
	return m, nil
}

// Update persists changes to a draft movement.
func (s *Service) Update(ctx context.Context, m *Movimiento) error {
	if m.Estado != EstadoBorrador {
		return apperror.NewBusinessRule(apperror.CodeBusinessRule,
			"only draft movements can be edited").
			WithDetail("movimiento", m.RecName()).
			WithDetail("estado", string(m.Estado))
	}
	if err := m.Validate(ctx); err != nil {
		return err
	}
	return s.inTx(ctx, func(ctx context.Context) error {
		return s.repo.Update(ctx, m)
	})
}

// Delete removes a movement, permitted only in borrador or cancelado.
func (s *Service) Delete(ctx context.Context, movimientoID id.ID) error {
	m, err := s.GetByID(ctx, movimientoID)
	if err != nil {
		return err
	}
	if m.Estado != EstadoBorrador && m.Estado != EstadoCancelado {
		return apperror.NewBusinessRule(apperror.CodeBusinessRule,
			"only draft or canceled movements can be deleted").
			WithDetail("movimiento", m.RecName()).
			WithDetail("estado", string(m.Estado))
	}
	return s.inTx(ctx, func(ctx context.Context) error {
		return s.repo.Delete(ctx, movimientoID)
	})
}

// List retrieves movements with filtering.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Movimiento], error) {
	return s.repo.List(ctx, filter)
}

// Procesar advances borrador → procesado, validating the movement against
// the policy's lifecycle.
func (s *Service) Procesar(ctx context.Context, movimientoID id.ID) error {
	return s.inTx(ctx, func(ctx context.Context) error {
		m, err := s.GetByID(ctx, movimientoID)
		if err != nil {
			return err
		}
		next, err := Machine.Fire(m.Estado, AccionProcesar)
		if err != nil {
			return err
		}

		p, err := s.polizas.GetByID(ctx, m.PolizaID)
		if err != nil {
			return err
		}

		if p.Estado == poliza.EstadoNew && !m.EsIniciacion() {
			return apperror.NewBusinessRule(apperror.CodePolicyMustInitiate,
				"the policy's first movement must be an initiation endorsement").
				WithDetail("poliza", p.RecName()).
				WithDetail("movimiento", m.RecName())
		}
		if p.Estado != poliza.EstadoNew && m.EsIniciacion() {
			return apperror.NewBusinessRule(apperror.CodePolicyAlreadyInitiated,
				"the policy is already initiated").
				WithDetail("poliza", p.RecName()).
				WithDetail("movimiento", m.RecName())
		}

		// Initiation with no certificates gets a default one built from
		// the contracting party.
		if m.EsIniciacion() && len(m.Inclusiones) == 0 {
			cert := poliza.NewCertificado(p.ID, p.ContratanteID)
			if err := s.polizas.SaveCertificado(ctx, &cert); err != nil {
				return fmt.Errorf("create default certificado: %w", err)
			}
			m.Inclusiones = append(m.Inclusiones, cert.ID)
			logger.Info(ctx, "default certificado created",
				"poliza", p.RecName(), "certificado", cert.ID.String())
		}

		if m.Tipo == TipoEliminarRenovacion {
			if err := s.checkRenovacionDeletable(ctx, m, p); err != nil {
				return err
			}
		}

		m.Estado = next
		m.Touch()
		return s.repo.Update(ctx, m)
	})
}

// Confirmar advances procesado → confirmado and applies the movement's
// full effect on the policy aggregate.
func (s *Service) Confirmar(ctx context.Context, movimientoID id.ID) error {
	return s.inTx(ctx, func(ctx context.Context) error {
		m, err := s.GetByID(ctx, movimientoID)
		if err != nil {
			return err
		}
		next, err := Machine.Fire(m.Estado, AccionConfirmar)
		if err != nil {
			return err
		}

		p, err := s.polizas.GetByID(ctx, m.PolizaID)
		if err != nil {
			return err
		}

		if m.Tipo == TipoEliminarRenovacion {
			if err := s.eliminarRenovacion(ctx, m, p); err != nil {
				return err
			}
		} else {
			if err := s.confirmarEndoso(ctx, m, p); err != nil {
				return err
			}
		}

		if m.Number == "" {
			num, err := s.numbers.GetNextNumber(ctx, s.numberCfg(ctx), nil, m.Fecha)
			if err != nil {
				return fmt.Errorf("assign movimiento number: %w", err)
			}
			m.AssignNumber(num)
		}

		m.Estado = next
		m.Touch()
		if err := s.repo.Update(ctx, m); err != nil {
			return err
		}
		p.Touch()
		if err := s.polizas.Update(ctx, p); err != nil {
			return err
		}
		logger.Info(ctx, "movimiento confirmado",
			"movimiento", m.RecName(), "poliza", p.RecName(),
			"renovacion", m.Renovacion)
		return nil
	})
}

// Cancelar advances procesado → cancelado.
func (s *Service) Cancelar(ctx context.Context, movimientoID id.ID) error {
	return s.fireSimple(ctx, movimientoID, AccionCancelar)
}

// Reabrir moves a canceled movement back to borrador.
func (s *Service) Reabrir(ctx context.Context, movimientoID id.ID) error {
	return s.fireSimple(ctx, movimientoID, AccionBorrador)
}

func (s *Service) fireSimple(ctx context.Context, movimientoID id.ID, action statemachine.Action) error {
	return s.inTx(ctx, func(ctx context.Context) error {
		m, err := s.GetByID(ctx, movimientoID)
		if err != nil {
			return err
		}
		next, err := Machine.Fire(m.Estado, action)
		if err != nil {
			return err
		}
		m.Estado = next
		m.Touch()
		return s.repo.Update(ctx, m)
	})
}

// confirmarEndoso applies an endorsement movement: renewal arithmetic,
// snapshot writes, certificate movements and tier materialization.
func (s *Service) confirmarEndoso(ctx context.Context, m *Movimiento, p *poliza.Poliza) error {
	renovacionNo := p.RenovacionActual
	switch {
	case m.EsIniciacion():
		renovacionNo = 0
	case m.EsRenovacion():
		renovacionNo = p.RenovacionActual + 1
	}
	m.Renovacion = renovacionNo

	// Create-or-fetch the renewal snapshot and apply overrides.
	renov, ok := p.RenovacionByIndex(renovacionNo)
	if !ok {
		p.Renovaciones = append(p.Renovaciones, poliza.Renovacion{
			ID:         id.New(),
			PolizaID:   p.ID,
			Renovacion: renovacionNo,
		})
		renov = &p.Renovaciones[len(p.Renovaciones)-1]
	}
	ApplyToRenovacion(m, renov)
	if err := s.polizas.SaveRenovacion(ctx, renov); err != nil {
		return fmt.Errorf("save renovacion: %w", err)
	}

	ApplyToPoliza(m, p)
	p.RenovacionActual = renovacionNo
	if m.Tipo == TipoEndoso && m.TipoEndoso == EndosoCancelacion {
		p.Estado = poliza.EstadoCancelada
	} else {
		p.Estado = poliza.EstadoVigente
	}

	for _, certID := range m.Inclusiones {
		cert, err := s.getCertificado(ctx, p, certID)
		if err != nil {
			return err
		}
		if err := poliza.IncluirCertificado(cert, p.ID); err != nil {
			return err
		}
		if err := s.polizas.SaveCertificado(ctx, cert); err != nil {
			return err
		}
	}

	for _, certID := range m.Exclusiones {
		cert, err := s.getCertificado(ctx, p, certID)
		if err != nil {
			return err
		}
		if err := poliza.ExcluirCertificado(cert); err != nil {
			return err
		}
		if err := s.polizas.SaveCertificado(ctx, cert); err != nil {
			return err
		}
	}

	for i := range m.Modificaciones {
		if err := s.aplicarModificacion(ctx, p, &m.Modificaciones[i]); err != nil {
			return err
		}
	}

	// A movement carrying tiers replaces the policy's materialized copies.
	if len(m.ComisionCia) > 0 || len(m.ComisionVendedor) > 0 {
		if err := p.SetComisiones(
			comision.CloneLineas(m.ComisionCia),
			comision.CloneLineas(m.ComisionVendedor),
		); err != nil {
			return err
		}
	}

	return nil
}

func (s *Service) aplicarModificacion(ctx context.Context, p *poliza.Poliza, mod *Modificacion) error {
	cert, err := s.getCertificado(ctx, p, mod.CertificadoID)
	if err != nil {
		return err
	}
	if cert.Estado != poliza.CertIncluido {
		return apperror.NewBusinessRule(apperror.CodeCertificateState,
			"only included certificates can be modified").
			WithDetail("certificado", cert.RecName()).
			WithDetail("estado", string(cert.Estado))
	}

	ApplyModificacion(mod, cert)

	for _, extID := range mod.ExtensionInclusiones {
		ext, err := findExtension(cert, extID)
		if err != nil {
			return err
		}
		if err := poliza.IncluirExtension(ext); err != nil {
			return err
		}
	}
	for _, extID := range mod.ExtensionExclusiones {
		ext, err := findExtension(cert, extID)
		if err != nil {
			return err
		}
		if err := poliza.ExcluirExtension(ext); err != nil {
			return err
		}
	}

	return s.polizas.SaveCertificado(ctx, cert)
}

// checkRenovacionDeletable validates the compaction preconditions: the
// target renewal exists, is not the initiation cycle, has no payments and
// at most one confirmed movement (its own confirming one).
func (s *Service) checkRenovacionDeletable(ctx context.Context, m *Movimiento, p *poliza.Poliza) error {
	target := m.Renovacion
	if target < 1 {
		return apperror.NewBusinessRule(apperror.CodeRenewalNotDeletable,
			"the initiation renewal cannot be deleted").
			WithDetail("poliza", p.RecName()).
			WithDetail("renovacion", target)
	}
	if _, ok := p.RenovacionByIndex(target); !ok {
		return apperror.NewNotFound("renovacion", target).
			WithDetail("poliza", p.RecName())
	}

	pagos, err := s.pagos.CountByPolizaRenovacion(ctx, p.ID, target)
	if err != nil {
		return err
	}
	if pagos > 0 {
		return apperror.NewBusinessRule(apperror.CodeRenewalNotDeletable,
			"the renewal has payments and cannot be deleted").
			WithDetail("poliza", p.RecName()).
			WithDetail("renovacion", target).
			WithDetail("pagos", pagos)
	}

	movs, err := s.repo.ListByPoliza(ctx, p.ID)
	if err != nil {
		return err
	}
	confirmados := 0
	for _, other := range movs {
		if other.Estado == EstadoConfirmado && other.Renovacion == target {
			confirmados++
		}
	}
	if confirmados > 1 {
		return apperror.NewBusinessRule(apperror.CodeRenewalNotDeletable,
			"the renewal has confirmed movements beyond its own and cannot be deleted").
			WithDetail("poliza", p.RecName()).
			WithDetail("renovacion", target).
			WithDetail("movimientos", confirmados)
	}
	return nil
}

// eliminarRenovacion removes one renewal index from the middle of the
// policy's history: the renewal's confirming movement is re-flagged as a
// plain in-place endorsement one index down, every later renewal, payment
// and movement shifts down by one, and the emptied renewal is deleted.
func (s *Service) eliminarRenovacion(ctx context.Context, m *Movimiento, p *poliza.Poliza) error {
	// Preconditions re-checked inside the confirming transaction;
	// payments may have landed since processing.
	if err := s.checkRenovacionDeletable(ctx, m, p); err != nil {
		return err
	}
	target := m.Renovacion

	renov, _ := p.RenovacionByIndex(target)
	deletedRenovID := renov.ID

	movs, err := s.repo.ListByPoliza(ctx, p.ID)
	if err != nil {
		return err
	}
	for _, other := range movs {
		if other.ID == m.ID || other.Estado != EstadoConfirmado || other.Renovacion != target {
			continue
		}
		if other.EsIniciacion() || other.EsRenovacion() {
			other.Tipo = TipoEndoso
			other.TipoEndoso = EndosoOtros
			other.Renovacion = target - 1
			other.Descripcion = fmt.Sprintf("%s [renovacion %d eliminada]",
				other.Descripcion, target)
			other.Touch()
			if err := s.repo.Update(ctx, other); err != nil {
				return err
			}
		}
	}

	if err := s.repo.ShiftRenovacion(ctx, p.ID, target); err != nil {
		return err
	}
	if err := s.pagos.ShiftRenovacion(ctx, p.ID, target); err != nil {
		return err
	}

	remaining := p.Renovaciones[:0]
	for i := range p.Renovaciones {
		r := p.Renovaciones[i]
		if r.Renovacion == target {
			continue
		}
		if r.Renovacion > target {
			r.Renovacion--
			if err := s.polizas.SaveRenovacion(ctx, &r); err != nil {
				return err
			}
		}
		remaining = append(remaining, r)
	}
	p.Renovaciones = remaining

	if err := s.polizas.DeleteRenovacion(ctx, deletedRenovID); err != nil {
		return err
	}

	if p.RenovacionActual >= target {
		p.RenovacionActual--
	}

	// The deletion movement itself records the index it now sits on.
	m.Renovacion = target - 1
	return nil
}

func (s *Service) getCertificado(ctx context.Context, p *poliza.Poliza, certID id.ID) (*poliza.Certificado, error) {
	for i := range p.Certificados {
		if p.Certificados[i].ID == certID {
			return &p.Certificados[i], nil
		}
	}
	cert, err := s.polizas.GetCertificado(ctx, certID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("certificado", certID.String())
		}
		return nil, err
	}
	return cert, nil
}

func findExtension(cert *poliza.Certificado, extID id.ID) (*poliza.Extension, error) {
	for i := range cert.Extensiones {
		if cert.Extensiones[i].ID == extID {
			return &cert.Extensiones[i], nil
		}
	}
	return nil, apperror.NewNotFound("extension", extID.String()).
		WithDetail("certificado", cert.RecName())
}

func (s *Service) inTx(ctx context.Context, fn func(ctx context.Context) error) error {
	txm, err := company.GetTxManager(ctx)
	if err != nil {
		return apperror.NewInternal(err).WithDetail("missing", "tx_manager")
	}
	return txm.RunInTransaction(ctx, fn)
}
