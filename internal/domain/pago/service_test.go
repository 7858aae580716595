package pago

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"corseg/internal/core/apperror"
	"corseg/internal/core/company"
	"corseg/internal/core/id"
	"corseg/internal/core/numerator"
	"corseg/internal/core/types"
	"corseg/internal/domain"
	"corseg/internal/domain/catalogs"
	"corseg/internal/domain/comision"
	"corseg/internal/domain/poliza"
)

// --- fakes ---

type nopTxManager struct{}

func (nopTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakePolizaRepo struct {
	polizas map[id.ID]*poliza.Poliza
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
	return nil, apperror.NewNotFound("certificado", certID.String())
}

func (f *fakePolizaRepo) SaveCertificado(_ context.Context, _ *poliza.Certificado) error { return nil }
func (f *fakePolizaRepo) SaveRenovacion(_ context.Context, _ *poliza.Renovacion) error   { return nil }
func (f *fakePolizaRepo) DeleteRenovacion(_ context.Context, _ id.ID) error              { return nil }

type fakePagoRepo struct {
	pagos map[id.ID]*Pago
}

func newFakePagoRepo() *fakePagoRepo {
	return &fakePagoRepo{pagos: make(map[id.ID]*Pago)}
}

func (f *fakePagoRepo) Create(_ context.Context, p *Pago) error {
	f.pagos[p.ID] = p
	return nil
}

func (f *fakePagoRepo) GetByID(_ context.Context, pagoID id.ID) (*Pago, error) {
	p, ok := f.pagos[pagoID]
	if !ok {
		return nil, apperror.NewNotFound("pago", pagoID.String())
	}
	return p, nil
}

func (f *fakePagoRepo) Update(_ context.Context, p *Pago) error {
	f.pagos[p.ID] = p
	return nil
}

func (f *fakePagoRepo) Delete(_ context.Context, pagoID id.ID) error {
	delete(f.pagos, pagoID)
	return nil
}

func (f *fakePagoRepo) List(_ context.Context, _ domain.ListFilter) (domain.ListResult[*Pago], error) {
	return domain.ListResult[*Pago]{}, nil
}

func (f *fakePagoRepo) CountByPolizaRenovacion(_ context.Context, polizaID id.ID, renovacion int) (int, error) {
	n := 0
	for _, p := range f.pagos {
		if p.PolizaID != polizaID || p.Renovacion != renovacion {
			continue
		}
		switch p.Estado {
		case EstadoCancelado, EstadoSustituido:
		default:
			n++
		}
	}
	return n, nil
}

func (f *fakePagoRepo) ShiftRenovacion(_ context.Context, polizaID id.ID, above int) error {
	for _, p := range f.pagos {
		if p.PolizaID == polizaID && p.Renovacion > above {
			p.Renovacion--
		}
	}
	return nil
}

type fakeProductos struct {
	productos map[id.ID]*catalogs.Producto
}

func (f *fakeProductos) GetProducto(_ context.Context, productoID id.ID) (*catalogs.Producto, error) {
	p, ok := f.productos[productoID]
	if !ok {
		return nil, apperror.NewNotFound("producto", productoID.String())
	}
	return p, nil
}

type fakeAjustes struct {
	cia      map[id.ID]types.Money
	vendedor map[id.ID]types.Money
}

func (f *fakeAjustes) SumCiaByPago(_ context.Context, pagoID id.ID) (types.Money, error) {
	if m, ok := f.cia[pagoID]; ok {
		return m, nil
	}
	return types.Zero(), nil
}

func (f *fakeAjustes) SumVendedorByPago(_ context.Context, pagoID id.ID) (types.Money, error) {
	if m, ok := f.vendedor[pagoID]; ok {
		return m, nil
	}
	return types.Zero(), nil
}

// --- setup ---

func pctLinea(renovacion int, pct string, reRenovacion, reCuota bool) comision.Linea {
	return comision.Linea{
		ID:           id.New(),
		Renovacion:   renovacion,
		Kind:         comision.KindPorcentaje,
		Monto:        types.MustMoney(pct),
		ReRenovacion: reRenovacion,
		ReCuota:      reCuota,
		Active:       true,
	}
}

type fixture struct {
	ctx      context.Context
	svc      *Service
	pagos    *fakePagoRepo
	ajustes  *fakeAjustes
	poliza   *poliza.Poliza
	producto *catalogs.Producto
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	companyID := id.New()
	ctx := company.WithCompany(context.Background(), &company.Company{
		ID: companyID, Name: "Agencia", Currency: "USD", CurrencyDigits: 2,
	})
	ctx = company.WithTxManager(ctx, nopTxManager{})

	producto := catalogs.NewProducto("AUTO", "Auto individual", id.New(), id.New())
	producto.ComisionCia = []comision.Linea{pctLinea(0, "35", true, true)}
	producto.ComisionVendedor = []comision.Linea{pctLinea(0, "5", true, true)}

	p := poliza.New(companyID)
	p.Numero = "POL-001"
	p.CiaID = producto.CiaID
	p.ProductoID = producto.ID
	p.ContratanteID = id.New()
	p.VendedorID = id.New()
	p.Estado = poliza.EstadoVigente
	p.RenovacionActual = 0
	p.Renovaciones = []poliza.Renovacion{{
		ID: id.New(), PolizaID: p.ID, Renovacion: 0,
		Prima: types.MustMoney("1200"),
	}}

	pagos := newFakePagoRepo()
	ajustes := &fakeAjustes{cia: map[id.ID]types.Money{}, vendedor: map[id.ID]types.Money{}}

	svc := NewService(ServiceConfig{
		Repo:    pagos,
		Polizas: &fakePolizaRepo{polizas: map[id.ID]*poliza.Poliza{p.ID: &p}},
		Productos: &fakeProductos{
			productos: map[id.ID]*catalogs.Producto{producto.ID: &producto},
		},
		Ajustes: ajustes,
		Numbers: &numerator.MockGenerator{},
	})

	return &fixture{
		ctx: ctx, svc: svc, pagos: pagos, ajustes: ajustes,
		poliza: &p, producto: &producto,
	}
}

func (f *fixture) newPago(t *testing.T, monto string) *Pago {
	t.Helper()
	pg := New(f.poliza.CompanyID, f.poliza.ID, f.poliza.VendedorID, 0)
	pg.Monto = types.MustMoney(monto)
	require.NoError(t, f.svc.Create(f.ctx, pg))
	return pg
}

func (f *fixture) confirmar(t *testing.T, pg *Pago) {
	t.Helper()
	require.NoError(t, f.svc.Procesar(f.ctx, pg.ID))
	require.NoError(t, f.svc.Confirmar(f.ctx, pg.ID))
}

// --- tests ---

func TestSugerenciaDesdeProducto(t *testing.T) {
	f := newFixture(t)

	pg := f.newPago(t, "10")

	// Company: 35% of 10 = 3.50. Agent: 5% of the company commission,
	// 0.175 quantized half away from zero to 0.18.
	assert.Equal(t, "3.50", pg.ComisionCia.StringFixed(2))
	assert.Equal(t, "0.18", pg.ComisionVendedor.StringFixed(2))
	assert.Equal(t, "3.50", pg.SugeridaCia.StringFixed(2))
	assert.Equal(t, "0.18", pg.SugeridaVendedor.StringFixed(2))
}

func TestSugerenciaPrefierePoliza(t *testing.T) {
	f := newFixture(t)
	f.poliza.ComisionCia = []comision.Linea{pctLinea(0, "20", true, true)}

	pg := f.newPago(t, "100")
	assert.Equal(t, "20.00", pg.ComisionCia.StringFixed(2))
}

func TestSugerenciaTablaPorVendedor(t *testing.T) {
	f := newFixture(t)

	otro := id.New()
	f.producto.ComisionesVendedor = []catalogs.ComisionVendedorProducto{{
		ID:         id.New(),
		VendedorID: otro,
		Lineas:     []comision.Linea{pctLinea(0, "10", true, true)},
	}}

	pg := New(f.poliza.CompanyID, f.poliza.ID, otro, 0)
	pg.Monto = types.MustMoney("100")
	require.NoError(t, f.svc.Create(f.ctx, pg))

	// Company 35% of 100 = 35.00; per-seller override 10% of 35.00 = 3.50.
	assert.Equal(t, "35.00", pg.ComisionCia.StringFixed(2))
	assert.Equal(t, "3.50", pg.ComisionVendedor.StringFixed(2))

	// A seller without an override falls back to the product default (5%).
	def := f.newPago(t, "100")
	assert.Equal(t, "1.75", def.ComisionVendedor.StringFixed(2))
}

func TestSupresionSegundaCuota(t *testing.T) {
	f := newFixture(t)
	f.producto.ComisionCia = []comision.Linea{pctLinea(0, "35", true, false)}
	f.producto.ComisionVendedor = []comision.Linea{pctLinea(0, "5", true, false)}

	primero := f.newPago(t, "100")
	assert.Equal(t, "35.00", primero.ComisionCia.StringFixed(2))

	segundo := f.newPago(t, "100")
	assert.True(t, segundo.ComisionCia.IsZero())
	assert.True(t, segundo.ComisionVendedor.IsZero())
}

func TestValidacionNumerica(t *testing.T) {
	f := newFixture(t)

	pg := f.newPago(t, "100")

	pg.Monto = types.Zero()
	err := pg.Validate(f.ctx)
	require.Error(t, err)

	pg.Monto = types.MustMoney("100")
	pg.ComisionCia = types.MustMoney("150")
	err = pg.Validate(f.ctx)
	require.Error(t, err)

	pg.ComisionCia = types.MustMoney("30")
	pg.ComisionVendedor = types.MustMoney("40")
	err = pg.Validate(f.ctx)
	require.Error(t, err)

	pg.ComisionVendedor = types.MustMoney("-1")
	err = pg.Validate(f.ctx)
	require.Error(t, err)

	pg.ComisionVendedor = types.MustMoney("5")
	assert.NoError(t, pg.Validate(f.ctx))
}

func TestConfirmarActualizaTotales(t *testing.T) {
	f := newFixture(t)

	pg := f.newPago(t, "400")
	f.confirmar(t, pg)

	assert.Equal(t, EstadoConfirmado, pg.Estado)
	assert.NotEmpty(t, pg.Number)
	assert.Equal(t, "400", f.poliza.TotalPagado.String())
	assert.Equal(t, "800", f.poliza.Saldo().String())
}

func TestSustitucion(t *testing.T) {
	f := newFixture(t)

	original := f.newPago(t, "400")
	f.confirmar(t, original)

	corregido := f.newPago(t, "450")
	corregido.SustituyeID = &original.ID
	f.confirmar(t, corregido)

	assert.Equal(t, EstadoSustituido, original.Estado)
	require.NotNil(t, original.SustituidoPorID)
	assert.Equal(t, corregido.ID, *original.SustituidoPorID)

	// The substituted amount left the totals; only the new one counts.
	assert.Equal(t, "450", f.poliza.TotalPagado.String())
}

func TestSustitucionExigeConfirmado(t *testing.T) {
	f := newFixture(t)

	original := f.newPago(t, "400")
	require.NoError(t, f.svc.Procesar(f.ctx, original.ID))

	corregido := f.newPago(t, "450")
	corregido.SustituyeID = &original.ID
	require.NoError(t, f.svc.Procesar(f.ctx, corregido.ID))

	err := f.svc.Confirmar(f.ctx, corregido.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodePaymentState))
	assert.Equal(t, EstadoProcesado, corregido.Estado)
}

func TestComisionNeta(t *testing.T) {
	f := newFixture(t)

	pg := f.newPago(t, "100")
	f.confirmar(t, pg)

	f.ajustes.cia[pg.ID] = types.MustMoney("-5")
	f.ajustes.vendedor[pg.ID] = types.MustMoney("0.25")

	neta, err := f.svc.NetoComisionCia(f.ctx, pg)
	require.NoError(t, err)
	assert.Equal(t, "30.00", neta.StringFixed(2))

	netaV, err := f.svc.NetoComisionVendedor(f.ctx, pg)
	require.NoError(t, err)
	assert.Equal(t, "2.00", netaV.StringFixed(2))
}

func TestRenovacionCongelada(t *testing.T) {
	f := newFixture(t)

	pg := f.newPago(t, "100")
	assert.Equal(t, 0, pg.Renovacion)

	// The policy renews, the payment keeps its frozen index.
	f.poliza.RenovacionActual = 1
	f.poliza.Renovaciones = append(f.poliza.Renovaciones, poliza.Renovacion{
		ID: id.New(), PolizaID: f.poliza.ID, Renovacion: 1,
		Prima: types.MustMoney("1300"),
	})
	assert.Equal(t, 0, pg.Renovacion)

	nuevo := New(f.poliza.CompanyID, f.poliza.ID, f.poliza.VendedorID, 0)
	nuevo.Monto = types.MustMoney("100")
	require.NoError(t, f.svc.Create(f.ctx, nuevo))
	assert.Equal(t, 1, nuevo.Renovacion)
}

func TestActualizarConservaComisionManual(t *testing.T) {
	f := newFixture(t)

	pg := f.newPago(t, "100")
	require.Equal(t, "35.00", pg.SugeridaCia.StringFixed(2))
	require.Equal(t, "1.75", pg.SugeridaVendedor.StringFixed(2))

	// The operator books a different commission than the suggestion.
	edited := *pg
	edited.ComisionCia = types.MustMoney("30")
	edited.ComisionVendedor = types.MustMoney("1")
	require.NoError(t, f.svc.Update(f.ctx, &edited))

	stored, err := f.svc.GetByID(f.ctx, pg.ID)
	require.NoError(t, err)
	assert.Equal(t, "30.00", stored.ComisionCia.StringFixed(2))
	assert.Equal(t, "1.00", stored.ComisionVendedor.StringFixed(2))

	// The original suggestion stays on record.
	assert.Equal(t, "35.00", stored.SugeridaCia.StringFixed(2))
	assert.Equal(t, "1.75", stored.SugeridaVendedor.StringFixed(2))
}

func TestActualizarResugiereAlCambiarMonto(t *testing.T) {
	f := newFixture(t)

	pg := f.newPago(t, "100")

	// A new amount invalidates the booked figures along with the
	// suggestion.
	edited := *pg
	edited.Monto = types.MustMoney("200")
	edited.ComisionCia = types.MustMoney("30")
	require.NoError(t, f.svc.Update(f.ctx, &edited))

	stored, err := f.svc.GetByID(f.ctx, pg.ID)
	require.NoError(t, err)
	assert.Equal(t, "70.00", stored.ComisionCia.StringFixed(2))
	assert.Equal(t, "70.00", stored.SugeridaCia.StringFixed(2))
}
