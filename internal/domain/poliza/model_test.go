package poliza

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"corseg/internal/core/apperror"
	"corseg/internal/core/id"
	"corseg/internal/core/types"
	"corseg/internal/domain/comision"
)

func TestPolizaSaldo(t *testing.T) {
	p := New(id.New())
	p.Renovaciones = []Renovacion{
		{Renovacion: 0, Prima: types.MustMoney("1200")},
		{Renovacion: 1, Prima: types.MustMoney("1300")},
	}
	p.TotalPagado = types.MustMoney("1500")

	assert.Equal(t, "2500", p.Total().String())
	assert.Equal(t, "1000", p.Saldo().String())
}

func TestRenovacionSaldo(t *testing.T) {
	r := Renovacion{Prima: types.MustMoney("1200"), TotalPagos: types.MustMoney("400")}
	assert.Equal(t, "800", r.Saldo().String())
}

func TestIncluirCertificadoNuevo(t *testing.T) {
	polizaID := id.New()
	c := NewCertificado(polizaID, id.New())
	c.Extensiones = []Extension{NewExtension(c.ID, id.New())}

	require.NoError(t, IncluirCertificado(&c, polizaID))
	assert.Equal(t, CertIncluido, c.Estado)
	assert.Equal(t, CertIncluido, c.Extensiones[0].Estado)
}

func TestIncluirCertificadoYaIncluido(t *testing.T) {
	polizaID := id.New()
	c := NewCertificado(polizaID, id.New())
	c.Estado = CertIncluido

	err := IncluirCertificado(&c, polizaID)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeCertificateState))
}

func TestIncluirCertificadoDeOtraPoliza(t *testing.T) {
	c := NewCertificado(id.New(), id.New())
	c.Estado = CertExcluido

	err := IncluirCertificado(&c, id.New())
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeCertificatePolicy))
}

func TestReinclusionMismaPoliza(t *testing.T) {
	polizaID := id.New()
	c := NewCertificado(polizaID, id.New())
	c.Estado = CertExcluido

	require.NoError(t, IncluirCertificado(&c, polizaID))
	assert.Equal(t, CertIncluido, c.Estado)
}

func TestExcluirCertificado(t *testing.T) {
	c := NewCertificado(id.New(), id.New())
	c.Estado = CertIncluido
	require.NoError(t, ExcluirCertificado(&c))
	assert.Equal(t, CertExcluido, c.Estado)

	// Excluding a certificate never included is rejected.
	c2 := NewCertificado(id.New(), id.New())
	err := ExcluirCertificado(&c2)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeCertificateState))
}

func TestExtensionTransitions(t *testing.T) {
	e := NewExtension(id.New(), id.New())
	require.NoError(t, IncluirExtension(&e))
	assert.Equal(t, CertIncluido, e.Estado)

	require.NoError(t, ExcluirExtension(&e))
	assert.Equal(t, CertExcluido, e.Estado)

	// Excluded extensions can come back.
	require.NoError(t, IncluirExtension(&e))
	assert.Equal(t, CertIncluido, e.Estado)
}

func TestSetComisionesValidatesOrdering(t *testing.T) {
	p := New(id.New())

	require.NoError(t, p.SetComisiones(nil, nil))

	bad := []comision.Linea{{Renovacion: 1, Kind: comision.KindPorcentaje, Monto: types.MustMoney("35"), Active: true}}
	err := p.SetComisiones(bad, nil)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeCommissionSchedule))

	good := []comision.Linea{{Renovacion: 0, Kind: comision.KindPorcentaje, Monto: types.MustMoney("35"), Active: true}}
	require.NoError(t, p.SetComisiones(good, good))
	assert.Len(t, p.ComisionCia, 1)
}
