package movimiento

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"corseg/internal/core/id"
)

func TestMovimientoValidate(t *testing.T) {
	companyID := id.New()
	polizaID := id.New()

	tests := []struct {
		name       string
		tipo       Tipo
		tipoEndoso Endoso
		wantErr    bool
	}{
		{"general", TipoGeneral, "", false},
		{"eliminar renovacion", TipoEliminarRenovacion, "", false},
		{"endoso iniciacion", TipoEndoso, EndosoIniciacion, false},
		{"endoso renovacion", TipoEndoso, EndosoRenovacion, false},
		{"endoso cancelacion", TipoEndoso, EndosoCancelacion, false},
		{"endoso without subtype", TipoEndoso, "", true},
		{"endoso with unknown subtype", TipoEndoso, "ampliacion", true},
		{"unknown tipo", "traspaso", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(companyID, polizaID, tt.tipo)
			m.TipoEndoso = tt.tipoEndoso
			err := m.Validate(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestMovimientoValidateRequiresPoliza(t *testing.T) {
	m := New(id.New(), id.Nil(), TipoGeneral)
	err := m.Validate(context.Background())
	require.Error(t, err)
}

func TestMovimientoKindPredicates(t *testing.T) {
	ini := New(id.New(), id.New(), TipoEndoso)
	ini.TipoEndoso = EndosoIniciacion
	assert.True(t, ini.EsIniciacion())
	assert.False(t, ini.EsRenovacion())
	assert.False(t, ini.EsEnSitio())

	ren := New(id.New(), id.New(), TipoEndoso)
	ren.TipoEndoso = EndosoRenovacion
	assert.True(t, ren.EsRenovacion())
	assert.False(t, ren.EsEnSitio())

	otros := New(id.New(), id.New(), TipoEndoso)
	otros.TipoEndoso = EndosoOtros
	assert.True(t, otros.EsEnSitio())

	general := New(id.New(), id.New(), TipoGeneral)
	assert.True(t, general.EsEnSitio())
}
