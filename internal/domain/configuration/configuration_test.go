package configuration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"corseg/internal/core/apperror"
	"corseg/internal/core/company"
	"corseg/internal/core/id"
	"corseg/internal/core/numerator"
)

type fakeRepo struct {
	entries map[string]*Entry
}

func ekey(companyID id.ID, key Key) string {
	return companyID.String() + "/" + string(key)
}

func (f *fakeRepo) Get(_ context.Context, companyID id.ID, key Key) (*Entry, error) {
	e, ok := f.entries[ekey(companyID, key)]
	if !ok {
		return nil, apperror.NewNotFound("configuration", string(key))
	}
	return e, nil
}

func (f *fakeRepo) Set(_ context.Context, e *Entry) error {
	f.entries[ekey(e.CompanyID, e.Key)] = e
	return nil
}

func (f *fakeRepo) Delete(_ context.Context, companyID id.ID, key Key) error {
	delete(f.entries, ekey(companyID, key))
	return nil
}

func testCtx(companyID id.ID) context.Context {
	return company.WithCompany(context.Background(), &company.Company{
		ID: companyID, Name: "Agencia", Currency: "USD", CurrencyDigits: 2,
	})
}

func TestNumeratorDefault(t *testing.T) {
	svc := NewService(&fakeRepo{entries: map[string]*Entry{}})
	ctx := testCtx(id.New())

	cfg := svc.Numerator(ctx, KeyNumeradorPago)
	assert.Equal(t, "PAG", cfg.Prefix)
}

func TestNumeratorOverride(t *testing.T) {
	repo := &fakeRepo{entries: map[string]*Entry{}}
	svc := NewService(repo)
	companyID := id.New()
	ctx := testCtx(companyID)

	custom := numerator.DefaultConfig("PAGO")
	custom.PadWidth = 8
	require.NoError(t, svc.Set(ctx, KeyNumeradorPago, custom))

	cfg := svc.Numerator(ctx, KeyNumeradorPago)
	assert.Equal(t, "PAGO", cfg.Prefix)
	assert.Equal(t, 8, cfg.PadWidth)

	// Other companies keep the default.
	otherCtx := testCtx(id.New())
	assert.Equal(t, "PAG", svc.Numerator(otherCtx, KeyNumeradorPago).Prefix)

	require.NoError(t, svc.Reset(ctx, KeyNumeradorPago))
	assert.Equal(t, "PAG", svc.Numerator(ctx, KeyNumeradorPago).Prefix)
}

func TestSetExigePrefijo(t *testing.T) {
	svc := NewService(&fakeRepo{entries: map[string]*Entry{}})
	ctx := testCtx(id.New())

	err := svc.Set(ctx, KeyNumeradorPago, numerator.Config{})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}
