package reclamo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"corseg/internal/core/apperror"
	"corseg/internal/core/company"
	appctx "corseg/internal/core/context"
	"corseg/internal/core/id"
	"corseg/internal/core/numerator"
	"corseg/internal/core/types"
	"corseg/internal/domain"
	"corseg/internal/domain/poliza"
)

type nopTxManager struct{}

func (nopTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakePolizaRepo struct {
	polizas      map[id.ID]*poliza.Poliza
	certificados map[id.ID]*poliza.Certificado
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

func (f *fakePolizaRepo) DeleteRenovacion(_ context.Context, _ id.ID) error {
	return nil
}

type fakeReclamoRepo struct {
	reclamos    map[id.ID]*Reclamo
	comentarios []*Comentario
	documentos  []*Documento
}

func (f *fakeReclamoRepo) Create(_ context.Context, r *Reclamo) error {
	f.reclamos[r.ID] = r
	return nil
}

func (f *fakeReclamoRepo) GetByID(_ context.Context, reclamoID id.ID) (*Reclamo, error) {
	r, ok := f.reclamos[reclamoID]
	if !ok {
		return nil, apperror.NewNotFound("reclamo", reclamoID.String())
	}
	return r, nil
}

func (f *fakeReclamoRepo) Update(_ context.Context, r *Reclamo) error {
	f.reclamos[r.ID] = r
	return nil
}

func (f *fakeReclamoRepo) Delete(_ context.Context, reclamoID id.ID) error {
	delete(f.reclamos, reclamoID)
	return nil
}

func (f *fakeReclamoRepo) List(_ context.Context, _ domain.ListFilter) (domain.ListResult[*Reclamo], error) {
	return domain.ListResult[*Reclamo]{}, nil
}

func (f *fakeReclamoRepo) ListByPoliza(_ context.Context, polizaID id.ID) ([]*Reclamo, error) {
	var out []*Reclamo
	for _, r := range f.reclamos {
		if r.PolizaID == polizaID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeReclamoRepo) AddComentario(_ context.Context, c *Comentario) error {
	f.comentarios = append(f.comentarios, c)
	return nil
}

func (f *fakeReclamoRepo) AddDocumento(_ context.Context, d *Documento) error {
	f.documentos = append(f.documentos, d)
	return nil
}

type fakeStore struct {
	blobs map[id.ID][]byte
}

func (f *fakeStore) Put(_ context.Context, documentoID id.ID, data []byte) error {
	f.blobs[documentoID] = data
	return nil
}

func (f *fakeStore) Get(_ context.Context, documentoID id.ID) ([]byte, error) {
	b, ok := f.blobs[documentoID]
	if !ok {
		return nil, apperror.NewNotFound("documento", documentoID.String())
	}
	return b, nil
}

func (f *fakeStore) Delete(_ context.Context, documentoID id.ID) error {
	delete(f.blobs, documentoID)
	return nil
}

type fixture struct {
	ctx     context.Context
	svc     *Service
	polizas *fakePolizaRepo
	repo    *fakeReclamoRepo
	store   *fakeStore
	poliza  *poliza.Poliza
	cert    *poliza.Certificado
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	companyID := id.New()
	ctx := company.WithCompany(context.Background(), &company.Company{
		ID: companyID, Name: "Agencia", Currency: "USD", CurrencyDigits: 2,
	})
	ctx = company.WithTxManager(ctx, nopTxManager{})
	ctx = appctx.WithUser(ctx, &appctx.UserContext{UserID: "u-1"})

	polizas := &fakePolizaRepo{
		polizas:      make(map[id.ID]*poliza.Poliza),
		certificados: make(map[id.ID]*poliza.Certificado),
	}
	repo := &fakeReclamoRepo{reclamos: make(map[id.ID]*Reclamo)}
	store := &fakeStore{blobs: make(map[id.ID][]byte)}

	pv := poliza.New(companyID)
	p := &pv
	p.Estado = poliza.EstadoVigente
	p.RenovacionActual = 2
	polizas.polizas[p.ID] = p

	cv := poliza.NewCertificado(p.ID, id.New())
	cert := &cv
	cert.Estado = poliza.CertIncluido
	polizas.certificados[cert.ID] = cert

	svc := NewService(ServiceConfig{
		Repo:    repo,
		Polizas: polizas,
		Store:   store,
		Numbers: &numerator.MockGenerator{},
	})

	return &fixture{
		ctx: ctx, svc: svc,
		polizas: polizas, repo: repo, store: store,
		poliza: p, cert: cert,
	}
}

func (f *fixture) nuevoReclamo(t *testing.T) *Reclamo {
	t.Helper()
	r := New(f.poliza.CompanyID, f.poliza.ID, f.cert.ID)
	r.MontoReclamado = types.MustMoney("5000")
	r.Deducible = types.MustMoney("250")
	require.NoError(t, f.svc.Create(f.ctx, r))
	return r
}

func TestCrearCongelaRenovacion(t *testing.T) {
	f := newFixture(t)

	r := f.nuevoReclamo(t)

	assert.Equal(t, 2, r.Renovacion)
	assert.Equal(t, EstadoBorrador, r.Estado)
	assert.Empty(t, r.Number)
}

func TestCrearExigePolizaIniciada(t *testing.T) {
	f := newFixture(t)
	f.poliza.RenovacionActual = -1
	f.poliza.Estado = poliza.EstadoNew

	r := New(f.poliza.CompanyID, f.poliza.ID, f.cert.ID)
	err := f.svc.Create(f.ctx, r)

	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodePolicyMustInitiate))
}

func TestCrearExigeCertificadoIncluido(t *testing.T) {
	f := newFixture(t)
	f.cert.Estado = poliza.CertExcluido

	r := New(f.poliza.CompanyID, f.poliza.ID, f.cert.ID)
	err := f.svc.Create(f.ctx, r)

	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeCertificateState))
}

func TestCrearCertificadoDeOtraPoliza(t *testing.T) {
	f := newFixture(t)

	av := poliza.NewCertificado(id.New(), id.New())
	ajeno := &av
	ajeno.Estado = poliza.CertIncluido
	f.polizas.certificados[ajeno.ID] = ajeno

	r := New(f.poliza.CompanyID, f.poliza.ID, ajeno.ID)
	err := f.svc.Create(f.ctx, r)

	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeCertificatePolicy))
}

func TestCrearExtensionExcluida(t *testing.T) {
	f := newFixture(t)

	ext := poliza.NewExtension(f.cert.ID, id.New())
	ext.Estado = poliza.CertExcluido
	f.cert.Extensiones = append(f.cert.Extensiones, ext)

	r := New(f.poliza.CompanyID, f.poliza.ID, f.cert.ID)
	r.ExtensionID = &ext.ID
	err := f.svc.Create(f.ctx, r)

	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeExtensionState))
}

func TestRecibirAsignaNumero(t *testing.T) {
	f := newFixture(t)
	r := f.nuevoReclamo(t)

	require.NoError(t, f.svc.Recibir(f.ctx, r.ID))

	assert.Equal(t, EstadoRecibido, r.Estado)
	assert.Equal(t, "REC-00001", r.Number)
	require.NotNil(t, r.FechaRecibido)
}

func TestNumeracionIdempotente(t *testing.T) {
	f := newFixture(t)
	r := f.nuevoReclamo(t)

	require.NoError(t, f.svc.MarcarIncompleto(f.ctx, r.ID))
	numero := r.Number
	require.NotEmpty(t, numero)

	require.NoError(t, f.svc.Recibir(f.ctx, r.ID))
	assert.Equal(t, numero, r.Number)
}

func TestAprobarExigeMonto(t *testing.T) {
	f := newFixture(t)
	r := f.nuevoReclamo(t)
	require.NoError(t, f.svc.Recibir(f.ctx, r.ID))

	err := f.svc.Aprobar(f.ctx, r.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
	assert.Equal(t, EstadoRecibido, r.Estado)

	monto := types.MustMoney("4750")
	r.MontoAprobado = &monto
	require.NoError(t, f.svc.Aprobar(f.ctx, r.ID))
	assert.Equal(t, EstadoAprobado, r.Estado)
	require.NotNil(t, r.FechaResolucion)
}

func TestRechazoYReconsideracion(t *testing.T) {
	f := newFixture(t)
	r := f.nuevoReclamo(t)
	require.NoError(t, f.svc.Recibir(f.ctx, r.ID))

	require.NoError(t, f.svc.Rechazar(f.ctx, r.ID))
	assert.Equal(t, EstadoRechazado, r.Estado)
	require.NotNil(t, r.FechaResolucion)

	require.NoError(t, f.svc.Reconsiderar(f.ctx, r.ID))
	assert.Equal(t, EstadoReconsiderado, r.Estado)
	assert.Nil(t, r.FechaResolucion)

	monto := types.MustMoney("3000")
	r.MontoAprobado = &monto
	require.NoError(t, f.svc.Aprobar(f.ctx, r.ID))
	assert.Equal(t, EstadoAprobado, r.Estado)
}

func TestFiniquito(t *testing.T) {
	f := newFixture(t)
	r := f.nuevoReclamo(t)
	require.NoError(t, f.svc.Recibir(f.ctx, r.ID))

	monto := types.MustMoney("4750")
	r.MontoAprobado = &monto
	require.NoError(t, f.svc.Aprobar(f.ctx, r.ID))
	require.NoError(t, f.svc.Finiquitar(f.ctx, r.ID))

	assert.Equal(t, EstadoFiniquito, r.Estado)
	require.NotNil(t, r.FechaFiniquito)

	// A closed claim accepts no further actions.
	err := f.svc.Cancelar(f.ctx, r.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidTransition))
}

func TestCancelarYReabrir(t *testing.T) {
	f := newFixture(t)
	r := f.nuevoReclamo(t)
	require.NoError(t, f.svc.Recibir(f.ctx, r.ID))

	require.NoError(t, f.svc.Cancelar(f.ctx, r.ID))
	assert.Equal(t, EstadoCancelado, r.Estado)

	require.NoError(t, f.svc.Reabrir(f.ctx, r.ID))
	assert.Equal(t, EstadoBorrador, r.Estado)
	// The number assigned on reception is kept.
	assert.NotEmpty(t, r.Number)
}

func TestComentario(t *testing.T) {
	f := newFixture(t)
	r := f.nuevoReclamo(t)

	c, err := f.svc.AgregarComentario(f.ctx, r.ID, "falta el informe del taller")
	require.NoError(t, err)
	assert.Equal(t, "u-1", c.UserID)
	assert.Equal(t, r.ID, c.ReclamoID)
	require.Len(t, f.repo.comentarios, 1)

	_, err = f.svc.AgregarComentario(f.ctx, r.ID, "")
	require.Error(t, err)
}

func TestDocumentoAdjunto(t *testing.T) {
	f := newFixture(t)
	r := f.nuevoReclamo(t)

	payload := []byte("informe pericial")
	d, err := f.svc.AdjuntarDocumento(f.ctx, r.ID, "informe.pdf", "application/pdf", payload)
	require.NoError(t, err)
	assert.Equal(t, int64(len(payload)), d.Size)

	got, err := f.svc.ObtenerDocumento(f.ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
	require.Len(t, f.repo.documentos, 1)
}
