package liquidacion

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"corseg/internal/core/apperror"
	"corseg/internal/core/company"
	"corseg/internal/core/id"
	"corseg/internal/core/numerator"
	"corseg/internal/core/types"
	"corseg/internal/domain"
	"corseg/internal/domain/pago"
)

// --- pure compensation pass ---

func pendiente(number, monto string, polizaID id.ID) *Ajuste {
	a := NewAjuste(id.New(), id.New(), polizaID, LadoCia, types.MustMoney(monto))
	a.AssignNumber(number)
	a.Estado = EstadoPendiente
	a.MontoPendiente = a.Monto
	return a
}

func TestCompensarNetting(t *testing.T) {
	polizaID := id.New()
	ajustes := []*Ajuste{
		pendiente("AJC-00001", "100", polizaID),
		pendiente("AJC-00002", "-60", polizaID),
		pendiente("AJC-00003", "-40", polizaID),
	}

	comps := Compensar(ajustes)

	// The +100 nets -60 first (leaving +40 pending), then -40: all three
	// fully compensated with exactly two compensation records.
	require.Len(t, comps, 2)
	for _, a := range ajustes {
		assert.Equal(t, EstadoCompensado, a.Estado, a.Number)
		assert.True(t, a.MontoPendiente.IsZero(), a.Number)
	}
	assert.Equal(t, "60", comps[0].Monto.String())
	assert.Equal(t, "40", comps[1].Monto.String())
}

func TestCompensarIgualMagnitud(t *testing.T) {
	polizaID := id.New()
	ajustes := []*Ajuste{
		pendiente("AJC-00001", "25", polizaID),
		pendiente("AJC-00002", "-25", polizaID),
	}

	comps := Compensar(ajustes)

	require.Len(t, comps, 1)
	assert.Equal(t, "25", comps[0].Monto.String())
	assert.Equal(t, EstadoCompensado, ajustes[0].Estado)
	assert.Equal(t, EstadoCompensado, ajustes[1].Estado)
}

func TestCompensarSinPareja(t *testing.T) {
	polizaID := id.New()
	ajustes := []*Ajuste{
		pendiente("AJC-00001", "10", polizaID),
		pendiente("AJC-00002", "20", polizaID),
	}

	comps := Compensar(ajustes)

	assert.Empty(t, comps)
	assert.Equal(t, EstadoPendiente, ajustes[0].Estado)
	assert.Equal(t, EstadoPendiente, ajustes[1].Estado)
}

func TestCompensarReinicioTrasParcial(t *testing.T) {
	polizaID := id.New()
	ajustes := []*Ajuste{
		pendiente("AJC-00001", "-30", polizaID),
		pendiente("AJC-00002", "100", polizaID),
		pendiente("AJC-00003", "-70", polizaID),
	}

	comps := Compensar(ajustes)

	// -30 nets first against +100 (smaller side settles, +70 remains),
	// the restart then matches +70 against -70.
	require.Len(t, comps, 2)
	assert.Equal(t, "30", comps[0].Monto.String())
	assert.Equal(t, "70", comps[1].Monto.String())
	for _, a := range ajustes {
		assert.Equal(t, EstadoCompensado, a.Estado, a.Number)
	}

	// Never two opposite-signed outstanding balances left behind.
	pos, neg := false, false
	for _, a := range ajustes {
		if a.MontoPendiente.IsPositive() {
			pos = true
		}
		if a.MontoPendiente.IsNegative() {
			neg = true
		}
	}
	assert.False(t, pos && neg)
}

func TestCompensarResiduoQuedaPendiente(t *testing.T) {
	polizaID := id.New()
	ajustes := []*Ajuste{
		pendiente("AJC-00001", "100", polizaID),
		pendiente("AJC-00002", "-60", polizaID),
	}

	comps := Compensar(ajustes)

	require.Len(t, comps, 1)
	assert.Equal(t, EstadoCompensado, ajustes[1].Estado)
	assert.Equal(t, EstadoPendiente, ajustes[0].Estado)
	assert.Equal(t, "40", ajustes[0].MontoPendiente.String())
}

// --- service fakes ---

type nopTxManager struct{}

func (nopTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeLiqRepo struct {
	liqs map[id.ID]*Liquidacion
}

func (f *fakeLiqRepo) Create(_ context.Context, l *Liquidacion) error {
	f.liqs[l.ID] = l
	return nil
}

func (f *fakeLiqRepo) GetByID(_ context.Context, liqID id.ID) (*Liquidacion, error) {
	l, ok := f.liqs[liqID]
	if !ok {
		return nil, apperror.NewNotFound("liquidacion", liqID.String())
	}
	return l, nil
}

func (f *fakeLiqRepo) Update(_ context.Context, l *Liquidacion) error {
	f.liqs[l.ID] = l
	return nil
}

func (f *fakeLiqRepo) Delete(_ context.Context, liqID id.ID) error {
	delete(f.liqs, liqID)
	return nil
}

func (f *fakeLiqRepo) List(_ context.Context, _ domain.ListFilter) (domain.ListResult[*Liquidacion], error) {
	return domain.ListResult[*Liquidacion]{}, nil
}

type fakeAjusteRepo struct {
	ajustes        map[id.ID]*Ajuste
	compensaciones []*Compensacion
}

func newFakeAjusteRepo() *fakeAjusteRepo {
	return &fakeAjusteRepo{ajustes: make(map[id.ID]*Ajuste)}
}

func (f *fakeAjusteRepo) Create(_ context.Context, a *Ajuste) error {
	f.ajustes[a.ID] = a
	return nil
}

func (f *fakeAjusteRepo) GetByID(_ context.Context, ajusteID id.ID) (*Ajuste, error) {
	a, ok := f.ajustes[ajusteID]
	if !ok {
		return nil, apperror.NewNotFound("ajuste", ajusteID.String())
	}
	return a, nil
}

func (f *fakeAjusteRepo) Update(_ context.Context, a *Ajuste) error {
	f.ajustes[a.ID] = a
	return nil
}

func (f *fakeAjusteRepo) ListByPago(_ context.Context, pagoID id.ID, lado Lado) ([]*Ajuste, error) {
	var out []*Ajuste
	for _, a := range f.ajustes {
		if a.PagoID == pagoID && a.Lado == lado {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (f *fakeAjusteRepo) ListPendientesByPoliza(_ context.Context, polizaID id.ID) ([]*Ajuste, error) {
	var out []*Ajuste
	for _, a := range f.ajustes {
		if a.PolizaID == polizaID && a.Lado == LadoCia && a.Estado == EstadoPendiente {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (f *fakeAjusteRepo) SumByPago(_ context.Context, pagoID id.ID, lado Lado) (types.Money, error) {
	sum := types.Zero()
	for _, a := range f.ajustes {
		if a.PagoID != pagoID || a.Lado != lado {
			continue
		}
		switch a.Estado {
		case EstadoBorrador, EstadoCancelado:
		default:
			sum = sum.Add(a.Monto)
		}
	}
	return sum, nil
}

func (f *fakeAjusteRepo) SaveCompensacion(_ context.Context, c *Compensacion) error {
	f.compensaciones = append(f.compensaciones, c)
	return nil
}

type fakePagoDir struct {
	pagos map[id.ID]*pago.Pago
}

func (f *fakePagoDir) GetPago(_ context.Context, pagoID id.ID) (*pago.Pago, error) {
	p, ok := f.pagos[pagoID]
	if !ok {
		return nil, apperror.NewNotFound("pago", pagoID.String())
	}
	return p, nil
}

func (f *fakePagoDir) UpdatePago(_ context.Context, p *pago.Pago) error {
	f.pagos[p.ID] = p
	return nil
}

// --- setup ---

type fixture struct {
	ctx      context.Context
	svc      *Service
	liqs     *fakeLiqRepo
	ajustes  *fakeAjusteRepo
	pagos    *fakePagoDir
	polizaID id.ID
	company  id.ID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	companyID := id.New()
	ctx := company.WithCompany(context.Background(), &company.Company{
		ID: companyID, Name: "Agencia", Currency: "USD", CurrencyDigits: 2,
	})
	ctx = company.WithTxManager(ctx, nopTxManager{})

	liqs := &fakeLiqRepo{liqs: make(map[id.ID]*Liquidacion)}
	ajustes := newFakeAjusteRepo()
	pagos := &fakePagoDir{pagos: make(map[id.ID]*pago.Pago)}

	svc := NewService(ServiceConfig{
		Repo:    liqs,
		Ajustes: ajustes,
		Pagos:   pagos,
		Numbers: &numerator.MockGenerator{},
	})

	return &fixture{
		ctx: ctx, svc: svc,
		liqs: liqs, ajustes: ajustes, pagos: pagos,
		polizaID: id.New(), company: companyID,
	}
}

func (f *fixture) confirmedPago(t *testing.T, monto, comisionCia string) *pago.Pago {
	t.Helper()
	pg := pago.New(f.company, f.polizaID, id.New(), 0)
	pg.Monto = types.MustMoney(monto)
	pg.ComisionCia = types.MustMoney(comisionCia)
	pg.Estado = pago.EstadoConfirmado
	f.pagos.pagos[pg.ID] = pg
	return pg
}

func (f *fixture) processedAjuste(t *testing.T, pg *pago.Pago, monto string) *Ajuste {
	t.Helper()
	a := NewAjuste(f.company, pg.ID, f.polizaID, LadoCia, types.MustMoney(monto))
	require.NoError(t, f.svc.CreateAjuste(f.ctx, a))
	require.NoError(t, f.svc.ProcesarAjuste(f.ctx, a.ID))
	return a
}

// --- settlement tests ---

func TestConfirmarLiquidacionCia(t *testing.T) {
	f := newFixture(t)

	pg := f.confirmedPago(t, "100", "35")
	l := NewCia(f.company, id.New())
	l.PagoIDs = []id.ID{pg.ID}
	l.MontoDeclarado = types.MustMoney("35")
	require.NoError(t, f.svc.Create(f.ctx, l))
	require.NoError(t, f.svc.Procesar(f.ctx, l.ID))
	require.NoError(t, f.svc.Confirmar(f.ctx, l.ID))

	assert.Equal(t, EstadoConfirmado, l.Estado)
	assert.NotEmpty(t, l.Number)
	assert.Equal(t, "35", l.TotalCache.String())

	assert.Equal(t, pago.EstadoLiqCia, pg.Estado)
	require.NotNil(t, pg.LiqCiaID)
	assert.Equal(t, l.ID, *pg.LiqCiaID)
}

func TestConfirmarLiquidacionCiaDiff(t *testing.T) {
	f := newFixture(t)

	pg := f.confirmedPago(t, "100", "35")
	l := NewCia(f.company, id.New())
	l.PagoIDs = []id.ID{pg.ID}
	l.MontoDeclarado = types.MustMoney("30") // off by 5
	require.NoError(t, f.svc.Create(f.ctx, l))
	require.NoError(t, f.svc.Procesar(f.ctx, l.ID))

	err := f.svc.Confirmar(f.ctx, l.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeSettlementDiff))

	// Nothing was settled: the payment keeps its state and reference.
	assert.Equal(t, pago.EstadoConfirmado, pg.Estado)
	assert.Nil(t, pg.LiqCiaID)
	assert.Equal(t, EstadoProcesado, l.Estado)
	assert.Empty(t, l.Number)
}

func TestConfirmarLiquidacionCompensaAjustes(t *testing.T) {
	f := newFixture(t)

	pg := f.confirmedPago(t, "1000", "350")
	a1 := f.processedAjuste(t, pg, "100")
	a2 := f.processedAjuste(t, pg, "-60")
	a3 := f.processedAjuste(t, pg, "-40")

	// Net: 350 + 100 - 60 - 40 = 350.
	l := NewCia(f.company, id.New())
	l.PagoIDs = []id.ID{pg.ID}
	l.MontoDeclarado = types.MustMoney("350")
	require.NoError(t, f.svc.Create(f.ctx, l))
	require.NoError(t, f.svc.Procesar(f.ctx, l.ID))
	require.NoError(t, f.svc.Confirmar(f.ctx, l.ID))

	require.Len(t, f.ajustes.compensaciones, 2)
	for _, a := range []*Ajuste{a1, a2, a3} {
		assert.Equal(t, EstadoCompensado, a.Estado, a.Number)
		assert.True(t, a.MontoPendiente.IsZero(), a.Number)
	}
}

func TestAjusteBorradorBloqueaLiquidacion(t *testing.T) {
	f := newFixture(t)

	pg := f.confirmedPago(t, "100", "35")
	borrador := NewAjuste(f.company, pg.ID, f.polizaID, LadoCia, types.MustMoney("10"))
	require.NoError(t, f.svc.CreateAjuste(f.ctx, borrador))

	l := NewCia(f.company, id.New())
	l.PagoIDs = []id.ID{pg.ID}
	l.MontoDeclarado = types.MustMoney("35")
	require.NoError(t, f.svc.Create(f.ctx, l))
	require.NoError(t, f.svc.Procesar(f.ctx, l.ID))

	err := f.svc.Confirmar(f.ctx, l.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeAdjustmentState))
	assert.Equal(t, EstadoProcesado, l.Estado)
}

func TestConfirmarLiquidacionVendedor(t *testing.T) {
	f := newFixture(t)

	pg := f.confirmedPago(t, "100", "35")
	pg.ComisionVendedor = types.MustMoney("1.75")
	pg.Estado = pago.EstadoLiqCia // insurer settled first

	l := NewVendedor(f.company, pg.VendedorID)
	l.PagoIDs = []id.ID{pg.ID}
	require.NoError(t, f.svc.Create(f.ctx, l))
	require.NoError(t, f.svc.Procesar(f.ctx, l.ID))
	require.NoError(t, f.svc.Confirmar(f.ctx, l.ID))

	assert.Equal(t, pago.EstadoLiqVendedor, pg.Estado)
	require.NotNil(t, pg.LiqVendedorID)
	assert.Equal(t, "1.75", l.TotalCache.String())
}

func TestLiquidacionVendedorExigeLiqCia(t *testing.T) {
	f := newFixture(t)

	pg := f.confirmedPago(t, "100", "35") // still confirmado, not liq_cia

	l := NewVendedor(f.company, pg.VendedorID)
	l.PagoIDs = []id.ID{pg.ID}
	require.NoError(t, f.svc.Create(f.ctx, l))
	require.NoError(t, f.svc.Procesar(f.ctx, l.ID))

	err := f.svc.Confirmar(f.ctx, l.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodePaymentState))
}

func TestFinalizarAjuste(t *testing.T) {
	f := newFixture(t)

	pg := f.confirmedPago(t, "100", "35")
	a := f.processedAjuste(t, pg, "10")
	a.Estado = EstadoPendiente
	a.MontoPendiente = a.Monto

	require.NoError(t, f.svc.FinalizarAjuste(f.ctx, a.ID))
	assert.Equal(t, EstadoFinalizado, a.Estado)

	// Finalizing twice is an invalid transition.
	err := f.svc.FinalizarAjuste(f.ctx, a.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidTransition))
}

func TestAjusteNumeracion(t *testing.T) {
	f := newFixture(t)

	pg := f.confirmedPago(t, "100", "35")
	a1 := f.processedAjuste(t, pg, "10")
	a2 := f.processedAjuste(t, pg, "-10")

	assert.NotEmpty(t, a1.Number)
	assert.NotEmpty(t, a2.Number)
	assert.Less(t, a1.Number, a2.Number)
}

func TestLiquidacionValida(t *testing.T) {
	f := newFixture(t)

	l := &Liquidacion{Document: NewCia(f.company, id.New()).Document}
	// Neither side set.
	err := l.Validate(f.ctx)
	require.Error(t, err)
}
