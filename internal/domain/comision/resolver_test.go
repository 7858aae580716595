package comision

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"corseg/internal/core/apperror"
	"corseg/internal/core/types"
)

func pctLinea(renovacion int, pct string, reRenovacion, reCuota bool) Linea {
	return Linea{
		Renovacion:   renovacion,
		Kind:         KindPorcentaje,
		Monto:        types.MustMoney(pct),
		ReRenovacion: reRenovacion,
		ReCuota:      reCuota,
		Active:       true,
	}
}

func fijoLinea(renovacion int, monto string, reRenovacion, reCuota bool) Linea {
	return Linea{
		Renovacion:   renovacion,
		Kind:         KindFijo,
		Monto:        types.MustMoney(monto),
		ReRenovacion: reRenovacion,
		ReCuota:      reCuota,
		Active:       true,
	}
}

func TestResolveExactMatch(t *testing.T) {
	lineas := []Linea{
		pctLinea(0, "35", false, true),
		pctLinea(1, "20", false, true),
		pctLinea(3, "10", true, true),
	}

	for _, tc := range []struct {
		renovacion int
		wantPct    string
	}{
		{0, "35"},
		{1, "20"},
		{3, "10"},
	} {
		linea, ok := Resolve(lineas, tc.renovacion)
		require.True(t, ok, "renovacion %d", tc.renovacion)
		assert.True(t, types.MustMoney(tc.wantPct).Equal(linea.Monto))
	}
}

func TestResolveFallThrough(t *testing.T) {
	lineas := []Linea{
		pctLinea(0, "35", false, true),
		pctLinea(1, "20", true, true),
		pctLinea(5, "10", false, true),
	}

	// Renewal 2..4 fall between tiers 1 and 5: tier 1 is recurring.
	linea, ok := Resolve(lineas, 3)
	require.True(t, ok)
	assert.Equal(t, 1, linea.Renovacion)

	// Renewal 6 is past the last tier, which is not recurring.
	_, ok = Resolve(lineas, 6)
	assert.False(t, ok)

	// Gap above a non-recurring tier yields nothing.
	lineas2 := []Linea{
		pctLinea(0, "35", false, true),
		pctLinea(5, "10", false, true),
	}
	_, ok = Resolve(lineas2, 2)
	assert.False(t, ok)
}

func TestResolveMonotonicity(t *testing.T) {
	// With every tier recurring, resolution at any target returns the tier
	// with the largest renewal index <= target.
	lineas := []Linea{
		pctLinea(0, "35", true, true),
		pctLinea(2, "20", true, true),
		pctLinea(4, "10", true, true),
	}
	want := map[int]int{0: 0, 1: 0, 2: 2, 3: 2, 4: 4, 5: 4, 9: 4}
	for target, tier := range want {
		linea, ok := Resolve(lineas, target)
		require.True(t, ok, "target %d", target)
		assert.Equal(t, tier, linea.Renovacion, "target %d", target)
	}
}

func TestResolveBelowFirstTier(t *testing.T) {
	lineas := []Linea{
		pctLinea(2, "20", true, true),
	}
	_, ok := Resolve(lineas, 1)
	assert.False(t, ok)
}

func TestResolveSkipsInactive(t *testing.T) {
	inactive := pctLinea(1, "50", false, true)
	inactive.Active = false
	lineas := []Linea{
		pctLinea(0, "35", true, true),
		inactive,
	}
	linea, ok := Resolve(lineas, 1)
	require.True(t, ok)
	assert.Equal(t, 0, linea.Renovacion)
}

func TestResolveEmptySchedule(t *testing.T) {
	_, ok := Resolve(nil, 0)
	assert.False(t, ok)
}

func TestComputeRounding(t *testing.T) {
	linea := pctLinea(0, "35", false, true)

	got := Compute(linea, types.MustMoney("100"), 2, false)
	assert.Equal(t, "35.00", got.StringFixed(2))

	got = Compute(linea, types.MustMoney("10"), 2, false)
	assert.Equal(t, "3.50", got.StringFixed(2))

	// Agent commission of 5% on an already-quantized company commission
	// of 3.50: 0.175 rounds half away from zero to 0.18.
	agente := pctLinea(0, "5", false, true)
	got = Compute(agente, types.MustMoney("3.50"), 2, false)
	assert.Equal(t, "0.18", got.StringFixed(2))
}

func TestComputeFijo(t *testing.T) {
	linea := fijoLinea(0, "12.345", false, true)
	got := Compute(linea, types.MustMoney("1000"), 2, false)
	assert.Equal(t, "12.35", got.StringFixed(2))

	// A fixed tier still earns nothing without a base: a fixed agent
	// tier over a zero company commission yields zero.
	got = Compute(linea, types.Zero(), 2, false)
	assert.True(t, got.IsZero())
	got = Compute(linea, types.MustMoney("-1"), 2, false)
	assert.True(t, got.IsZero())
}

func TestComputeInstallmentSuppression(t *testing.T) {
	linea := pctLinea(0, "35", false, false)

	first := Compute(linea, types.MustMoney("100"), 2, false)
	assert.Equal(t, "35.00", first.StringFixed(2))

	second := Compute(linea, types.MustMoney("100"), 2, true)
	assert.True(t, second.IsZero())

	// ReCuota tiers earn on every installment.
	recurring := pctLinea(0, "35", false, true)
	again := Compute(recurring, types.MustMoney("100"), 2, true)
	assert.Equal(t, "35.00", again.StringFixed(2))
}

func TestComputeZeroBase(t *testing.T) {
	linea := pctLinea(0, "35", false, true)
	assert.True(t, Compute(linea, types.Zero(), 2, false).IsZero())
	assert.True(t, Compute(linea, types.MustMoney("-5"), 2, false).IsZero())
}

func TestResolveAndComputeNoSchedule(t *testing.T) {
	// Absence of a schedule is a configuration state, not a defect.
	got := ResolveAndCompute(nil, 0, types.MustMoney("100"), 2, false)
	assert.True(t, got.IsZero())
}

func TestValidateLineas(t *testing.T) {
	err := ValidateLineas([]Linea{pctLinea(1, "35", false, true)})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeCommissionSchedule))

	err = ValidateLineas([]Linea{
		pctLinea(0, "35", false, true),
		pctLinea(2, "20", false, true),
		pctLinea(2, "10", false, true),
	})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeCommissionSchedule))

	err = ValidateLineas([]Linea{
		pctLinea(0, "35", false, true),
		pctLinea(1, "20", false, true),
	})
	assert.NoError(t, err)

	assert.NoError(t, ValidateLineas(nil))
}

func TestCloneLineas(t *testing.T) {
	src := []Linea{pctLinea(0, "35", false, true)}
	dst := CloneLineas(src)
	require.Len(t, dst, 1)
	assert.NotEqual(t, src[0].ID, dst[0].ID)
	assert.Equal(t, src[0].Renovacion, dst[0].Renovacion)
	assert.True(t, src[0].Monto.Equal(dst[0].Monto))
}
