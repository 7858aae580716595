package pago

import (
	"context"
	"fmt"

	"corseg/internal/core/apperror"
	"corseg/internal/core/company"
	"corseg/internal/core/id"
	"corseg/internal/core/numerator"
	"corseg/internal/core/statemachine"
	"corseg/internal/core/types"
	"corseg/internal/domain"
	"corseg/internal/domain/comision"
	"corseg/internal/domain/poliza"
	"corseg/pkg/logger"
)

// Service drives the payment workflow and the commission suggestion.
type Service struct {
	repo      Repository
	polizas   poliza.Repository
	productos ProductoDirectory
	ajustes   AjusteSums
	numbers   numerator.Generator
	numberCfg func(ctx context.Context) numerator.Config
}

// ServiceConfig configures the payment service.
type ServiceConfig struct {
	Repo      Repository
	Polizas   poliza.Repository
	Productos ProductoDirectory
	Ajustes   AjusteSums
	Numbers   numerator.Generator
	NumberCfg func(ctx context.Context) numerator.Config
}

// NewService creates a payment service.
func NewService(cfg ServiceConfig) *Service {
	numberCfg := cfg.NumberCfg
	if numberCfg == nil {
		numberCfg = func(context.Context) numerator.Config {
			return numerator.DefaultConfig("PAG")
		}
	}
	return &Service{
		repo:      cfg.Repo,
		polizas:   cfg.Polizas,
		productos: cfg.Productos,
		ajustes:   cfg.Ajustes,
		numbers:   cfg.Numbers,
		numberCfg: numberCfg,
	}
}

// Create builds a draft payment pinned to the policy's current renewal,
// runs the commission suggestion and persists it.
func (s *Service) Create(ctx context.Context, pg *Pago) error {
	p, err := s.polizas.GetByID(ctx, pg.PolizaID)
	if err != nil {
		return err
	}
	if p.RenovacionActual < 0 {
		return apperror.NewBusinessRule(apperror.CodePolicyMustInitiate,
			"the policy has no confirmed renewal to pay against").
			WithDetail("poliza", p.RecName())
	}

	// Renewal index frozen at creation.
	pg.Renovacion = p.RenovacionActual
	if id.IsNil(pg.VendedorID) {
		pg.VendedorID = p.VendedorID
	}
	if pg.Estado == "" {
		pg.Estado = EstadoBorrador
	}

	if err := s.SugerirComisiones(ctx, pg, p); err != nil {
		return err
	}
	if err := pg.Validate(ctx); err != nil {
		return err
	}

	return s.inTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, pg); err != nil {
			return fmt.Errorf("create pago: %w", err)
		}
		return nil
	})
}

// GetByID loads a payment.
func (s *Service) GetByID(ctx context.Context, pagoID id.ID) (*Pago, error) {
	pg, err := s.repo.GetByID(ctx, pagoID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("pago", pagoID.String())
		}
		return nil, err
	}
	return pg, nil
}

// Update persists a draft payment. The suggestion re-runs only when the
// amount, policy or seller changed; a manual edit of the booked
// commissions survives any other update.
func (s *Service) Update(ctx context.Context, pg *Pago) error {
	prev, err := s.GetByID(ctx, pg.ID)
	if err != nil {
		return err
	}
	if prev.Estado != EstadoBorrador {
		return apperror.NewBusinessRule(apperror.CodeBusinessRule,
			"only draft payments can be edited").
			WithDetail("pago", prev.RecName()).
			WithDetail("estado", string(prev.Estado))
	}

	// State moves through workflow actions only; the renewal index stays
	// frozen from creation unless the payment moves to another policy.
	pg.Estado = prev.Estado
	pg.Renovacion = prev.Renovacion

	if !prev.Monto.Equal(pg.Monto) || prev.PolizaID != pg.PolizaID || prev.VendedorID != pg.VendedorID {
		p, err := s.polizas.GetByID(ctx, pg.PolizaID)
		if err != nil {
			return err
		}
		if prev.PolizaID != pg.PolizaID {
			pg.Renovacion = p.RenovacionActual
		}
		if err := s.SugerirComisiones(ctx, pg, p); err != nil {
			return err
		}
	} else {
		pg.SugeridaCia = prev.SugeridaCia
		pg.SugeridaVendedor = prev.SugeridaVendedor
	}

	if err := pg.Validate(ctx); err != nil {
		return err
	}
	return s.inTx(ctx, func(ctx context.Context) error {
		return s.repo.Update(ctx, pg)
	})
}

// List retrieves payments with filtering.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Pago], error) {
	return s.repo.List(ctx, filter)
}

// SugerirComisiones computes the suggested commissions and writes both
// the suggestion fields and the editable booked fields.
//
// Schedule precedence, company side: policy materialized tiers, then the
// product default. Agent side: policy materialized tiers, then the
// product's per-seller table, then the product's default agent schedule.
// The agent commission uses the computed company commission as its base.
func (s *Service) SugerirComisiones(ctx context.Context, pg *Pago, p *poliza.Poliza) error {
	producto, err := s.productos.GetProducto(ctx, p.ProductoID)
	if err != nil {
		return err
	}

	ciaLineas := p.ComisionCia
	if len(ciaLineas) == 0 {
		ciaLineas = producto.ComisionCia
	}
	vendLineas := p.ComisionVendedor
	if len(vendLineas) == 0 {
		vendLineas = producto.VendedorLineas(pg.VendedorID)
	}

	prior, err := s.repo.CountByPolizaRenovacion(ctx, pg.PolizaID, pg.Renovacion)
	if err != nil {
		return err
	}
	hasPrior := prior > 0

	digits := company.Digits(ctx)
	comCia := comision.ResolveAndCompute(ciaLineas, pg.Renovacion, pg.Monto, digits, hasPrior)
	comVend := comision.ResolveAndCompute(vendLineas, pg.Renovacion, comCia, digits, hasPrior)

	pg.SugeridaCia = comCia
	pg.SugeridaVendedor = comVend
	pg.ComisionCia = comCia
	pg.ComisionVendedor = comVend
	return nil
}

// NetoComisionCia is the company-side commission to settle: the booked
// commission plus the payment's linked adjustments.
func (s *Service) NetoComisionCia(ctx context.Context, pg *Pago) (types.Money, error) {
	sum, err := s.ajustes.SumCiaByPago(ctx, pg.ID)
	if err != nil {
		return types.Zero(), err
	}
	return pg.ComisionCia.Add(sum), nil
}

// NetoComisionVendedor is the agent-side counterpart.
func (s *Service) NetoComisionVendedor(ctx context.Context, pg *Pago) (types.Money, error) {
	sum, err := s.ajustes.SumVendedorByPago(ctx, pg.ID)
	if err != nil {
		return types.Zero(), err
	}
	return pg.ComisionVendedor.Add(sum), nil
}

// Procesar advances borrador → procesado.
func (s *Service) Procesar(ctx context.Context, pagoID id.ID) error {
	return s.inTx(ctx, func(ctx context.Context) error {
		pg, err := s.GetByID(ctx, pagoID)
		if err != nil {
			return err
		}
		next, err := Machine.Fire(pg.Estado, AccionProcesar)
		if err != nil {
			return err
		}
		if err := pg.Validate(ctx); err != nil {
			return err
		}
		pg.Estado = next
		pg.Touch()
		return s.repo.Update(ctx, pg)
	})
}

// Confirmar advances procesado → confirmado, handles substitution and
// maintains the policy's paid totals.
func (s *Service) Confirmar(ctx context.Context, pagoID id.ID) error {
	return s.inTx(ctx, func(ctx context.Context) error {
		pg, err := s.GetByID(ctx, pagoID)
		if err != nil {
			return err
		}
		next, err := Machine.Fire(pg.Estado, AccionConfirmar)
		if err != nil {
			return err
		}
		if err := pg.Validate(ctx); err != nil {
			return err
		}

		p, err := s.polizas.GetByID(ctx, pg.PolizaID)
		if err != nil {
			return err
		}

		if pg.SustituyeID != nil {
			if err := s.sustituir(ctx, pg, p); err != nil {
				return err
			}
		}

		if pg.Number == "" {
			num, err := s.numbers.GetNextNumber(ctx, s.numberCfg(ctx), nil, pg.Fecha)
			if err != nil {
				return fmt.Errorf("assign pago number: %w", err)
			}
			pg.AssignNumber(num)
		}

		p.TotalPagado = p.TotalPagado.Add(pg.Monto)
		if renov, ok := p.RenovacionByIndex(pg.Renovacion); ok {
			renov.TotalPagos = renov.TotalPagos.Add(pg.Monto)
			if err := s.polizas.SaveRenovacion(ctx, renov); err != nil {
				return err
			}
		}

		pg.Estado = next
		pg.Touch()
		if err := s.repo.Update(ctx, pg); err != nil {
			return err
		}
		p.Touch()
		if err := s.polizas.Update(ctx, p); err != nil {
			return err
		}
		logger.Info(ctx, "pago confirmado",
			"pago", pg.RecName(), "poliza", p.RecName(),
			"monto", pg.Monto.String())
		return nil
	})
}

// sustituir supersedes the referenced payment: it must be confirmado and
// becomes sustituido with a back-reference, its amount leaving the
// policy's paid totals.
func (s *Service) sustituir(ctx context.Context, pg *Pago, p *poliza.Poliza) error {
	old, err := s.GetByID(ctx, *pg.SustituyeID)
	if err != nil {
		return err
	}
	next, err := Machine.Fire(old.Estado, AccionSustituir)
	if err != nil {
		return apperror.NewBusinessRule(apperror.CodePaymentState,
			"only confirmed payments can be substituted").
			WithDetail("pago", old.RecName()).
			WithDetail("estado", string(old.Estado)).
			WithCause(err)
	}
	old.Estado = next
	old.SustituidoPorID = &pg.ID
	old.Touch()
	if err := s.repo.Update(ctx, old); err != nil {
		return err
	}

	p.TotalPagado = p.TotalPagado.Sub(old.Monto)
	if renov, ok := p.RenovacionByIndex(old.Renovacion); ok {
		renov.TotalPagos = renov.TotalPagos.Sub(old.Monto)
		if err := s.polizas.SaveRenovacion(ctx, renov); err != nil {
			return err
		}
	}
	return nil
}

// Cancelar advances procesado → cancelado.
func (s *Service) Cancelar(ctx context.Context, pagoID id.ID) error {
	return s.fireSimple(ctx, pagoID, AccionCancelar)
}

// Reabrir moves a canceled payment back to borrador.
func (s *Service) Reabrir(ctx context.Context, pagoID id.ID) error {
	return s.fireSimple(ctx, pagoID, AccionBorrador)
}

func (s *Service) fireSimple(ctx context.Context, pagoID id.ID, action statemachine.Action) error {
	return s.inTx(ctx, func(ctx context.Context) error {
		pg, err := s.GetByID(ctx, pagoID)
		if err != nil {
			return err
		}
		next, err := Machine.Fire(pg.Estado, action)
		if err != nil {
			return err
		}
		pg.Estado = next
		pg.Touch()
		return s.repo.Update(ctx, pg)
	})
}

// Delete removes a payment, permitted only in borrador or cancelado.
func (s *Service) Delete(ctx context.Context, pagoID id.ID) error {
	pg, err := s.GetByID(ctx, pagoID)
	if err != nil {
		return err
	}
	if pg.Estado != EstadoBorrador && pg.Estado != EstadoCancelado {
		return apperror.NewBusinessRule(apperror.CodeBusinessRule,
			"only draft or canceled payments can be deleted").
			WithDetail("pago", pg.RecName()).
			WithDetail("estado", string(pg.Estado))
	}
	return s.inTx(ctx, func(ctx context.Context) error {
		return s.repo.Delete(ctx, pagoID)
	})
}

func (s *Service) inTx(ctx context.Context, fn func(ctx context.Context) error) error {
	txm, err := company.GetTxManager(ctx)
	if err != nil {
		return apperror.NewInternal(err).WithDetail("missing", "tx_manager")
	}
	return txm.RunInTransaction(ctx, fn)
}
