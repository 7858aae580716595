package movimiento

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"corseg/internal/core/apperror"
	"corseg/internal/core/company"
	"corseg/internal/core/id"
	"corseg/internal/core/numerator"
	"corseg/internal/core/types"
	"corseg/internal/domain"
	"corseg/internal/domain/comision"
	"corseg/internal/domain/poliza"
)

// --- fakes ---

type nopTxManager struct{}

func (nopTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakePolizaRepo struct {
	polizas       map[id.ID]*poliza.Poliza
	certificados  map[id.ID]*poliza.Certificado
	deletedRenovs []id.ID
}

func newFakePolizaRepo() *fakePolizaRepo {
	return &fakePolizaRepo{
		polizas:      make(map[id.ID]*poliza.Poliza),
		certificados: make(map[id.ID]*poliza.Certificado),
	}
}

func (f *fakePolizaRepo) Create(_ context.Context, p *poliza.Poliza) error {
	f.polizas[p.ID] = p
	return nil
}

func (f *fakePolizaRepo) GetByID(_ context.Context, polizaID id.ID) (*poliza.Poliza, error) {
	p, ok := f.polizas[polizaID]
	if !ok {
		return nil, apperror.NewNotFound("poliza", polizaID.String())
	}
	return p, nil
}

func (f *fakePolizaRepo) Update(_ context.Context, p *poliza.Poliza) error {
	f.polizas[p.ID] = p
	return nil
}

func (f *fakePolizaRepo) Delete(_ context.Context, polizaID id.ID) error {
	delete(f.polizas, polizaID)
	return nil
}

func (f *fakePolizaRepo) List(_ context.Context, _ domain.ListFilter) (domain.ListResult[*poliza.Poliza], error) {
	return domain.ListResult[*poliza.Poliza]{}, nil
}

func (f *fakePolizaRepo) GetCertificado(_ context.Context, certID id.ID) (*poliza.Certificado, error) {
	c, ok := f.certificados[certID]
	if !ok {
		return nil, apperror.NewNotFound("certificado", certID.String())
	}
	return c, nil
}

func (f *fakePolizaRepo) SaveCertificado(_ context.Context, c *poliza.Certificado) error {
	f.certificados[c.ID] = c
	return nil
}

func (f *fakePolizaRepo) SaveRenovacion(_ context.Context, _ *poliza.Renovacion) error {
	return nil
}

func (f *fakePolizaRepo) DeleteRenovacion(_ context.Context, renovID id.ID) error {
	f.deletedRenovs = append(f.deletedRenovs, renovID)
	return nil
}

type fakeMovRepo struct {
	movs  map[id.ID]*Movimiento
	order []id.ID
}

func newFakeMovRepo() *fakeMovRepo {
	return &fakeMovRepo{movs: make(map[id.ID]*Movimiento)}
}

func (f *fakeMovRepo) Create(_ context.Context, m *Movimiento) error {
	f.movs[m.ID] = m
	f.order = append(f.order, m.ID)
	return nil
}

func (f *fakeMovRepo) GetByID(_ context.Context, movID id.ID) (*Movimiento, error) {
	m, ok := f.movs[movID]
	if !ok {
		return nil, apperror.NewNotFound("movimiento", movID.String())
	}
	return m, nil
}

func (f *fakeMovRepo) Update(_ context.Context, m *Movimiento) error {
	f.movs[m.ID] = m
	return nil
}

func (f *fakeMovRepo) Delete(_ context.Context, movID id.ID) error {
	delete(f.movs, movID)
	return nil
}

func (f *fakeMovRepo) List(_ context.Context, _ domain.ListFilter) (domain.ListResult[*Movimiento], error) {
	return domain.ListResult[*Movimiento]{}, nil
}

func (f *fakeMovRepo) ListByPoliza(_ context.Context, polizaID id.ID) ([]*Movimiento, error) {
	var out []*Movimiento
	for _, movID := range f.order {
		m, ok := f.movs[movID]
		if ok && m.PolizaID == polizaID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMovRepo) ShiftRenovacion(_ context.Context, polizaID id.ID, above int) error {
	for _, m := range f.movs {
		if m.PolizaID == polizaID && m.Renovacion > above {
			m.Renovacion--
		}
	}
	return nil
}

type fakePagos struct {
	counts  map[int]int // renovacion -> payment count
	shifted []int
}

func (f *fakePagos) CountByPolizaRenovacion(_ context.Context, _ id.ID, renovacion int) (int, error) {
	return f.counts[renovacion], nil
}

func (f *fakePagos) ShiftRenovacion(_ context.Context, _ id.ID, above int) error {
	f.shifted = append(f.shifted, above)
	return nil
}

// --- setup ---

type fixture struct {
	ctx     context.Context
	svc     *Service
	polizas *fakePolizaRepo
	movs    *fakeMovRepo
	pagos   *fakePagos
	gen     *numerator.MockGenerator
	poliza  *poliza.Poliza
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	companyID := id.New()
	ctx := company.WithCompany(context.Background(), &company.Company{
		ID: companyID, Name: "Agencia", Currency: "USD", CurrencyDigits: 2,
	})
	ctx = company.WithTxManager(ctx, nopTxManager{})

	polizas := newFakePolizaRepo()
	movs := newFakeMovRepo()
	pagos := &fakePagos{counts: map[int]int{}}
	gen := &numerator.MockGenerator{}

	p := poliza.New(companyID)
	p.Numero = "POL-001"
	p.CiaID = id.New()
	p.ProductoID = id.New()
	p.ContratanteID = id.New()
	p.VendedorID = id.New()
	polizas.polizas[p.ID] = &p

	svc := NewService(ServiceConfig{
		Repo:    movs,
		Polizas: polizas,
		Pagos:   pagos,
		Numbers: gen,
	})

	return &fixture{
		ctx: ctx, svc: svc,
		polizas: polizas, movs: movs, pagos: pagos, gen: gen,
		poliza: &p,
	}
}

func (f *fixture) newEndoso(t *testing.T, tipoEndoso Endoso) *Movimiento {
	t.Helper()
	m := New(f.poliza.CompanyID, f.poliza.ID, TipoEndoso)
	m.TipoEndoso = tipoEndoso
	require.NoError(t, f.svc.Create(f.ctx, m))
	return m
}

func (f *fixture) confirmar(t *testing.T, m *Movimiento) {
	t.Helper()
	require.NoError(t, f.svc.Procesar(f.ctx, m.ID))
	require.NoError(t, f.svc.Confirmar(f.ctx, m.ID))
}

func moneyPtr(s string) *types.Money {
	m := types.MustMoney(s)
	return &m
}

// --- tests ---

func TestProcesarExigeIniciacion(t *testing.T) {
	f := newFixture(t)

	m := New(f.poliza.CompanyID, f.poliza.ID, TipoGeneral)
	require.NoError(t, f.svc.Create(f.ctx, m))

	err := f.svc.Procesar(f.ctx, m.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodePolicyMustInitiate))
	assert.Equal(t, EstadoBorrador, m.Estado)
}

func TestProcesarRechazaSegundaIniciacion(t *testing.T) {
	f := newFixture(t)
	f.confirmar(t, f.newEndoso(t, EndosoIniciacion))

	segundo := f.newEndoso(t, EndosoIniciacion)
	err := f.svc.Procesar(f.ctx, segundo.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodePolicyAlreadyInitiated))
}

func TestProcesarIniciacionCreaCertificadoPorDefecto(t *testing.T) {
	f := newFixture(t)

	m := f.newEndoso(t, EndosoIniciacion)
	require.NoError(t, f.svc.Procesar(f.ctx, m.ID))

	require.Len(t, m.Inclusiones, 1)
	cert := f.polizas.certificados[m.Inclusiones[0]]
	require.NotNil(t, cert)
	assert.Equal(t, f.poliza.ContratanteID, cert.AseguradoID)
	assert.Equal(t, poliza.CertNew, cert.Estado)
}

func TestConfirmarIniciacion(t *testing.T) {
	f := newFixture(t)

	m := f.newEndoso(t, EndosoIniciacion)
	m.Prima = moneyPtr("1200")
	f.confirmar(t, m)

	assert.Equal(t, EstadoConfirmado, m.Estado)
	assert.Equal(t, 0, m.Renovacion)
	assert.NotEmpty(t, m.Number)

	p := f.poliza
	assert.Equal(t, poliza.EstadoVigente, p.Estado)
	assert.Equal(t, 0, p.RenovacionActual)

	renov, ok := p.RenovacionByIndex(0)
	require.True(t, ok)
	assert.Equal(t, "1200", renov.Prima.String())

	// The default certificate came along and is now included.
	require.Len(t, m.Inclusiones, 1)
	cert := f.polizas.certificados[m.Inclusiones[0]]
	assert.Equal(t, poliza.CertIncluido, cert.Estado)
}

func TestConfirmarRenovacionIncrementa(t *testing.T) {
	f := newFixture(t)

	ini := f.newEndoso(t, EndosoIniciacion)
	ini.Prima = moneyPtr("1200")
	f.confirmar(t, ini)

	ren := f.newEndoso(t, EndosoRenovacion)
	ren.Prima = moneyPtr("1300")
	f.confirmar(t, ren)

	p := f.poliza
	assert.Equal(t, 1, p.RenovacionActual)
	assert.Equal(t, 1, ren.Renovacion)

	renov, ok := p.RenovacionByIndex(1)
	require.True(t, ok)
	assert.Equal(t, "1300", renov.Prima.String())

	// Renewal 0 untouched.
	renov0, _ := p.RenovacionByIndex(0)
	assert.Equal(t, "1200", renov0.Prima.String())
}

func TestConfirmarEndosoEnSitioSumaPrima(t *testing.T) {
	f := newFixture(t)

	ini := f.newEndoso(t, EndosoIniciacion)
	ini.Prima = moneyPtr("1200")
	f.confirmar(t, ini)

	otros := f.newEndoso(t, EndosoOtros)
	otros.Prima = moneyPtr("150")
	f.confirmar(t, otros)

	p := f.poliza
	// In-place endorsement leaves the renewal index unchanged and ADDS
	// the premium delta.
	assert.Equal(t, 0, p.RenovacionActual)
	renov, _ := p.RenovacionByIndex(0)
	assert.Equal(t, "1350", renov.Prima.String())

	// Negative deltas subtract.
	rebaja := f.newEndoso(t, EndosoOtros)
	rebaja.Prima = moneyPtr("-50")
	f.confirmar(t, rebaja)
	renov, _ = p.RenovacionByIndex(0)
	assert.Equal(t, "1300", renov.Prima.String())
}

func TestConfirmarCancelacion(t *testing.T) {
	f := newFixture(t)
	f.confirmar(t, f.newEndoso(t, EndosoIniciacion))

	canc := f.newEndoso(t, EndosoCancelacion)
	f.confirmar(t, canc)

	assert.Equal(t, poliza.EstadoCancelada, f.poliza.Estado)
}

func TestConfirmarCopiaComisiones(t *testing.T) {
	f := newFixture(t)

	m := f.newEndoso(t, EndosoIniciacion)
	m.ComisionCia = []comision.Linea{{
		ID: id.New(), Renovacion: 0,
		Kind: comision.KindPorcentaje, Monto: types.MustMoney("35"),
		ReCuota: true, Active: true,
	}}
	m.ComisionVendedor = []comision.Linea{{
		ID: id.New(), Renovacion: 0,
		Kind: comision.KindPorcentaje, Monto: types.MustMoney("5"),
		ReCuota: true, Active: true,
	}}
	f.confirmar(t, m)

	p := f.poliza
	require.Len(t, p.ComisionCia, 1)
	require.Len(t, p.ComisionVendedor, 1)
	assert.Equal(t, "35", p.ComisionCia[0].Monto.String())
	// Materialized tiers are copies, not the movement's own rows.
	assert.NotEqual(t, m.ComisionCia[0].ID, p.ComisionCia[0].ID)
}

func TestNumeracionIdempotente(t *testing.T) {
	f := newFixture(t)

	llamadas := 0
	f.gen.GetNextNumberFunc = func(_ context.Context, cfg numerator.Config, _ *numerator.Options, _ time.Time) (string, error) {
		llamadas++
		return cfg.Prefix + "-SHOULD-NOT-BE-USED", nil
	}

	m := f.newEndoso(t, EndosoIniciacion)
	m.AssignNumber("MOV-2026-00099")
	f.confirmar(t, m)

	// The pre-assigned number survives confirmation untouched and the
	// generator is never consulted.
	assert.Equal(t, "MOV-2026-00099", m.Number)
	assert.Zero(t, llamadas)
	assert.False(t, m.AssignNumber("MOV-2026-00100"))
	assert.Equal(t, "MOV-2026-00099", m.Number)
}

func TestEliminarRenovacion(t *testing.T) {
	f := newFixture(t)

	ini := f.newEndoso(t, EndosoIniciacion)
	ini.Prima = moneyPtr("1000")
	f.confirmar(t, ini)

	ren1 := f.newEndoso(t, EndosoRenovacion)
	ren1.Prima = moneyPtr("1100")
	f.confirmar(t, ren1)

	ren2 := f.newEndoso(t, EndosoRenovacion)
	ren2.Prima = moneyPtr("1200")
	f.confirmar(t, ren2)

	require.Equal(t, 2, f.poliza.RenovacionActual)

	del := New(f.poliza.CompanyID, f.poliza.ID, TipoEliminarRenovacion)
	del.Renovacion = 1
	require.NoError(t, f.svc.Create(f.ctx, del))
	f.confirmar(t, del)

	p := f.poliza
	assert.Equal(t, 1, p.RenovacionActual)
	require.Len(t, p.Renovaciones, 2)

	// Old renewal 2 shifted down to 1 and kept its premium.
	renov1, ok := p.RenovacionByIndex(1)
	require.True(t, ok)
	assert.Equal(t, "1200", renov1.Prima.String())

	// The deleted renewal's confirming movement was re-flagged as an
	// in-place endorsement one index down.
	assert.Equal(t, TipoEndoso, ren1.Tipo)
	assert.Equal(t, EndosoOtros, ren1.TipoEndoso)
	assert.Equal(t, 0, ren1.Renovacion)
	assert.Contains(t, ren1.Descripcion, "eliminada")

	// Old renewal 2's movement shifted down with its renewal.
	assert.Equal(t, 1, ren2.Renovacion)
	assert.Equal(t, EndosoRenovacion, ren2.TipoEndoso)

	// Payment shift was cascaded and the snapshot removed.
	assert.Equal(t, []int{1}, f.pagos.shifted)
	assert.Len(t, f.polizas.deletedRenovs, 1)
}

func TestEliminarRenovacionConPagos(t *testing.T) {
	f := newFixture(t)
	f.confirmar(t, f.newEndoso(t, EndosoIniciacion))
	f.confirmar(t, f.newEndoso(t, EndosoRenovacion))

	f.pagos.counts[1] = 2

	del := New(f.poliza.CompanyID, f.poliza.ID, TipoEliminarRenovacion)
	del.Renovacion = 1
	require.NoError(t, f.svc.Create(f.ctx, del))

	err := f.svc.Procesar(f.ctx, del.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeRenewalNotDeletable))
}

func TestEliminarRenovacionCero(t *testing.T) {
	f := newFixture(t)
	f.confirmar(t, f.newEndoso(t, EndosoIniciacion))

	del := New(f.poliza.CompanyID, f.poliza.ID, TipoEliminarRenovacion)
	del.Renovacion = 0
	require.NoError(t, f.svc.Create(f.ctx, del))

	err := f.svc.Procesar(f.ctx, del.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeRenewalNotDeletable))
}

func TestDeleteSoloBorradorOCancelado(t *testing.T) {
	f := newFixture(t)

	m := f.newEndoso(t, EndosoIniciacion)
	require.NoError(t, f.svc.Procesar(f.ctx, m.ID))

	err := f.svc.Delete(f.ctx, m.ID)
	require.Error(t, err)

	require.NoError(t, f.svc.Cancelar(f.ctx, m.ID))
	assert.NoError(t, f.svc.Delete(f.ctx, m.ID))
}

func TestCancelarYReabrir(t *testing.T) {
	f := newFixture(t)

	m := f.newEndoso(t, EndosoIniciacion)
	require.NoError(t, f.svc.Procesar(f.ctx, m.ID))
	require.NoError(t, f.svc.Cancelar(f.ctx, m.ID))
	assert.Equal(t, EstadoCancelado, m.Estado)

	require.NoError(t, f.svc.Reabrir(f.ctx, m.ID))
	assert.Equal(t, EstadoBorrador, m.Estado)

	// Canceling a draft directly is not a valid transition.
	err := f.svc.Cancelar(f.ctx, m.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidTransition))
}
