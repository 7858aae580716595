package liquidacion

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
	"corseg/internal/domain/pago"
	"corseg/pkg/logger"
)

// Service drives settlements and adjustments. Settlement confirmation is
// the single entry point of the compensation pass: it locks the grouped
// payments, advances their state, and nets the pending adjustments per
// policy, all inside one transaction.
type Service struct {
	repo    Repository
	ajustes AjusteRepository
	pagos   PagoDirectory
	numbers numerator.Generator

	liqCiaCfg      func(ctx context.Context) numerator.Config
	liqVendedorCfg func(ctx context.Context) numerator.Config
	ajusteCfg      func(ctx context.Context) numerator.Config
}

// ServiceConfig configures the settlement service.
type ServiceConfig struct {
	Repo    Repository
	Ajustes AjusteRepository
	Pagos   PagoDirectory
	Numbers numerator.Generator

	LiqCiaCfg      func(ctx context.Context) numerator.Config
	LiqVendedorCfg func(ctx context.Context) numerator.Config
	AjusteCfg      func(ctx context.Context) numerator.Config
}

// NewService creates a settlement service.
func NewService(cfg ServiceConfig) *Service {
	defaulted := func(f func(ctx context.Context) numerator.Config, prefix string) func(ctx context.Context) numerator.Config {
		if f != nil {
			return f
		}
		return func(context.Context) numerator.Config {
			return numerator.DefaultConfig(prefix)
		}
	}
	return &Service{
		repo:           cfg.Repo,
		ajustes:        cfg.Ajustes,
		pagos:          cfg.Pagos,
		numbers:        cfg.Numbers,
		liqCiaCfg:      defaulted(cfg.LiqCiaCfg, "LIQC"),
		liqVendedorCfg: defaulted(cfg.LiqVendedorCfg, "LIQV"),
		ajusteCfg:      defaulted(cfg.AjusteCfg, "AJC"),
	}
}

// --- Settlements ---

// Create validates and persists a draft settlement.
func (s *Service) Create(ctx context.Context, l *Liquidacion) error {
	if l.Estado == "" {
		l.Estado = EstadoBorrador
	}
	if err := l.Validate(ctx); err != nil {
		return err
	}
	return s.inTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, l); err != nil {
			return fmt.Errorf("create liquidacion: %w", err)
		}
		return nil
	})
}

// GetByID loads a settlement.
func (s *Service) GetByID(ctx context.Context, liqID id.ID) (*Liquidacion, error) {
	l, err := s.repo.GetByID(ctx, liqID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("liquidacion", liqID.String())
		}
		return nil, err
	}
	return l, nil
}

// List retrieves settlements with filtering.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Liquidacion], error) {
	return s.repo.List(ctx, filter)
}

// Total is the live aggregate: the sum of the grouped payments' net
// commissions for the settlement's side.
func (s *Service) Total(ctx context.Context, l *Liquidacion) (types.Money, error) {
	total := types.Zero()
	for _, pagoID := range l.PagoIDs {
		pg, err := s.pagos.GetPago(ctx, pagoID)
		if err != nil {
			return types.Zero(), err
		}
		neto, err := s.netoPago(ctx, pg, l.EsCia())
		if err != nil {
			return types.Zero(), err
		}
		total = total.Add(neto)
	}
	return total, nil
}

func (s *Service) netoPago(ctx context.Context, pg *pago.Pago, cia bool) (types.Money, error) {
	lado := LadoVendedor
	base := pg.ComisionVendedor
	if cia {
		lado = LadoCia
		base = pg.ComisionCia
	}
	sum, err := s.ajustes.SumByPago(ctx, pg.ID, lado)
	if err != nil {
		return types.Zero(), err
	}
	return base.Add(sum), nil
}

// Procesar advances borrador → procesado.
func (s *Service) Procesar(ctx context.Context, liqID id.ID) error {
	return s.fireSimple(ctx, liqID, AccionProcesar)
}

// Cancelar advances procesado → cancelado.
func (s *Service) Cancelar(ctx context.Context, liqID id.ID) error {
	return s.fireSimple(ctx, liqID, AccionCancelar)
}

// Reabrir moves a canceled settlement back to borrador.
func (s *Service) Reabrir(ctx context.Context, liqID id.ID) error {
	return s.fireSimple(ctx, liqID, AccionBorrador)
}

// Confirmar advances procesado → confirmado with the variant's full side
// effects. Any precondition violation on a payment or adjustment aborts
// the whole batch.
func (s *Service) Confirmar(ctx context.Context, liqID id.ID) error {
	return s.inTx(ctx, func(ctx context.Context) error {
		l, err := s.GetByID(ctx, liqID)
		if err != nil {
			return err
		}
		next, err := LiqMachine.Fire(l.Estado, AccionConfirmar)
		if err != nil {
			return err
		}

		total, err := s.Total(ctx, l)
		if err != nil {
			return err
		}

		if l.EsCia() {
			if err := s.confirmarCia(ctx, l, total); err != nil {
				return err
			}
		} else {
			if err := s.confirmarVendedor(ctx, l); err != nil {
				return err
			}
		}

		if l.Number == "" {
			cfg := s.liqVendedorCfg(ctx)
			if l.EsCia() {
				cfg = s.liqCiaCfg(ctx)
			}
			num, err := s.numbers.GetNextNumber(ctx, cfg, nil, l.Fecha)
			if err != nil {
				return fmt.Errorf("assign liquidacion number: %w", err)
			}
			l.AssignNumber(num)
		}

		l.TotalCache = total
		l.Estado = next
		l.Touch()
		if err := s.repo.Update(ctx, l); err != nil {
			return err
		}
		logger.Info(ctx, "liquidacion confirmada",
			"liquidacion", l.RecName(), "total", total.String(),
			"pagos", len(l.PagoIDs))
		return nil
	})
}

// confirmarCia runs the insurer-side confirmation: the declared amount
// must match the net total exactly, every grouped payment advances to
// liq_cia, processed adjustments go pending, and the compensation pass
// nets them per policy.
func (s *Service) confirmarCia(ctx context.Context, l *Liquidacion, total types.Money) error {
	diff := l.MontoDeclarado.Sub(total)
	if !diff.IsZero() {
		return apperror.NewBusinessRule(apperror.CodeSettlementDiff,
			"declared amount does not match the net commission total").
			WithDetail("liquidacion", l.RecName()).
			WithDetail("declarado", l.MontoDeclarado.String()).
			WithDetail("total", total.String()).
			WithDetail("diff", diff.String())
	}

	polizaIDs := make(map[id.ID]bool)

	for _, pagoID := range l.PagoIDs {
		pg, err := s.pagos.GetPago(ctx, pagoID)
		if err != nil {
			return err
		}
		nextPago, err := pago.Machine.Fire(pg.Estado, pago.AccionLiquidarCia)
		if err != nil {
			return apperror.NewBusinessRule(apperror.CodePaymentState,
				"payment is not confirmed and cannot be settled").
				WithDetail("pago", pg.RecName()).
				WithDetail("estado", string(pg.Estado)).
				WithCause(err)
		}
		pg.Estado = nextPago
		pg.LiqCiaID = &l.ID
		pg.Touch()
		if err := s.pagos.UpdatePago(ctx, pg); err != nil {
			return err
		}
		polizaIDs[pg.PolizaID] = true

		if err := s.penderAjustes(ctx, pg); err != nil {
			return err
		}
	}

	for polizaID := range polizaIDs {
		if err := s.compensarPoliza(ctx, polizaID); err != nil {
			return err
		}
	}
	return nil
}

// penderAjustes pushes the payment's processed insurer adjustments to
// pendiente. A draft adjustment is a precondition violation that aborts
// the settlement.
func (s *Service) penderAjustes(ctx context.Context, pg *pago.Pago) error {
	ajustes, err := s.ajustes.ListByPago(ctx, pg.ID, LadoCia)
	if err != nil {
		return err
	}
	for _, a := range ajustes {
		switch a.Estado {
		case EstadoBorrador:
			return apperror.NewBusinessRule(apperror.CodeAdjustmentState,
				"adjustment is still a draft and blocks the settlement").
				WithDetail("ajuste", a.RecName()).
				WithDetail("pago", pg.RecName())
		case EstadoProcesado:
			next, err := AjusteCiaMachine.Fire(a.Estado, AccionPender)
			if err != nil {
				return err
			}
			a.Estado = next
			a.MontoPendiente = a.Monto
			a.Touch()
			if err := s.ajustes.Update(ctx, a); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Service) compensarPoliza(ctx context.Context, polizaID id.ID) error {
	pendientes, err := s.ajustes.ListPendientesByPoliza(ctx, polizaID)
	if err != nil {
		return err
	}
	comps := Compensar(pendientes)
	if len(comps) == 0 {
		return nil
	}
	for _, a := range pendientes {
		a.Touch()
		if err := s.ajustes.Update(ctx, a); err != nil {
			return err
		}
	}
	for i := range comps {
		if err := s.ajustes.SaveCompensacion(ctx, &comps[i]); err != nil {
			return err
		}
	}
	logger.Info(ctx, "ajustes compensados",
		"poliza", polizaID.String(), "compensaciones", len(comps))
	return nil
}

// confirmarVendedor advances every grouped payment liq_cia → liq_vendedor.
func (s *Service) confirmarVendedor(ctx context.Context, l *Liquidacion) error {
	for _, pagoID := range l.PagoIDs {
		pg, err := s.pagos.GetPago(ctx, pagoID)
		if err != nil {
			return err
		}
		next, err := pago.Machine.Fire(pg.Estado, pago.AccionLiquidarVendedor)
		if err != nil {
			return apperror.NewBusinessRule(apperror.CodePaymentState,
				"payment is not settled with the insurer yet").
				WithDetail("pago", pg.RecName()).
				WithDetail("estado", string(pg.Estado)).
				WithCause(err)
		}
		pg.Estado = next
		pg.LiqVendedorID = &l.ID
		pg.Touch()
		if err := s.pagos.UpdatePago(ctx, pg); err != nil {
			return err
		}
	}
	return nil
}

// --- Adjustments ---

// CreateAjuste validates and persists a draft adjustment.
func (s *Service) CreateAjuste(ctx context.Context, a *Ajuste) error {
	if a.Estado == "" {
		a.Estado = EstadoBorrador
	}
	if err := a.Validate(ctx); err != nil {
		return err
	}
	// The adjustment pins its policy from the payment for the
	// per-policy compensation queue.
	pg, err := s.pagos.GetPago(ctx, a.PagoID)
	if err != nil {
		return err
	}
	a.PolizaID = pg.PolizaID
	return s.inTx(ctx, func(ctx context.Context) error {
		if err := s.ajustes.Create(ctx, a); err != nil {
			return fmt.Errorf("create ajuste: %w", err)
		}
		return nil
	})
}

// GetAjuste loads an adjustment.
func (s *Service) GetAjuste(ctx context.Context, ajusteID id.ID) (*Ajuste, error) {
	a, err := s.ajustes.GetByID(ctx, ajusteID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("ajuste", ajusteID.String())
		}
		return nil, err
	}
	return a, nil
}

// ProcesarAjuste advances borrador → procesado and assigns the sequence
// number that orders the compensation queue.
func (s *Service) ProcesarAjuste(ctx context.Context, ajusteID id.ID) error {
	return s.inTx(ctx, func(ctx context.Context) error {
		a, err := s.GetAjuste(ctx, ajusteID)
		if err != nil {
			return err
		}
		next, err := s.ajusteMachine(a).Fire(a.Estado, AccionProcesar)
		if err != nil {
			return err
		}
		if a.Number == "" {
			num, err := s.numbers.GetNextNumber(ctx, s.ajusteCfg(ctx), nil, a.Fecha)
			if err != nil {
				return fmt.Errorf("assign ajuste number: %w", err)
			}
			a.AssignNumber(num)
		}
		a.Estado = next
		a.Touch()
		return s.ajustes.Update(ctx, a)
	})
}

// ConfirmarAjusteVendedor advances an agent adjustment to confirmado.
func (s *Service) ConfirmarAjusteVendedor(ctx context.Context, ajusteID id.ID) error {
	return s.fireAjuste(ctx, ajusteID, AccionConfirmar)
}

// FinalizarAjuste closes a pending insurer adjustment without
// compensation (the balance is settled out of band).
func (s *Service) FinalizarAjuste(ctx context.Context, ajusteID id.ID) error {
	return s.fireAjuste(ctx, ajusteID, AccionFinalizar)
}

// CancelarAjuste cancels a draft or processed adjustment.
func (s *Service) CancelarAjuste(ctx context.Context, ajusteID id.ID) error {
	return s.fireAjuste(ctx, ajusteID, AccionCancelar)
}

// ReabrirAjuste moves a canceled adjustment back to borrador.
func (s *Service) ReabrirAjuste(ctx context.Context, ajusteID id.ID) error {
	return s.fireAjuste(ctx, ajusteID, AccionBorrador)
}

func (s *Service) ajusteMachine(a *Ajuste) *statemachine.Machine {
	if a.Lado == LadoVendedor {
		return AjusteVendedorMachine
	}
	return AjusteCiaMachine
}

func (s *Service) fireAjuste(ctx context.Context, ajusteID id.ID, action statemachine.Action) error {
	return s.inTx(ctx, func(ctx context.Context) error {
		a, err := s.GetAjuste(ctx, ajusteID)
		if err != nil {
			return err
		}
		next, err := s.ajusteMachine(a).Fire(a.Estado, action)
		if err != nil {
			return err
		}
		a.Estado = next
		a.Touch()
		return s.ajustes.Update(ctx, a)
	})
}

func (s *Service) fireSimple(ctx context.Context, liqID id.ID, action statemachine.Action) error {
	return s.inTx(ctx, func(ctx context.Context) error {
		l, err := s.GetByID(ctx, liqID)
		if err != nil {
			return err
		}
		next, err := LiqMachine.Fire(l.Estado, action)
		if err != nil {
			return err
		}
		l.Estado = next
		l.Touch()
		return s.repo.Update(ctx, l)
	})
}

func (s *Service) inTx(ctx context.Context, fn func(ctx context.Context) error) error {
	txm, err := company.GetTxManager(ctx)
	if err != nil {
		return apperror.NewInternal(err).WithDetail("missing", "tx_manager")
	}
	return txm.RunInTransaction(ctx, fn)
}
