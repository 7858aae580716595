package statemachine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"corseg/internal/core/apperror"
)

func testMachine() *Machine {
	return New("documento", []Transition{
		{Action: "procesar", From: []State{"borrador"}, To: "procesado"},
		{Action: "confirmar", From: []State{"procesado"}, To: "confirmado"},
		{Action: "cancelar", From: []State{"procesado"}, To: "cancelado"},
		{Action: "borrador", From: []State{"cancelado"}, To: "borrador"},
	})
}

func TestFire(t *testing.T) {
	m := testMachine()

	next, err := m.Fire("borrador", "procesar")
	require.NoError(t, err)
	assert.Equal(t, State("procesado"), next)

	next, err = m.Fire(next, "confirmar")
	require.NoError(t, err)
	assert.Equal(t, State("confirmado"), next)
}

func TestFireRejectsWrongSource(t *testing.T) {
	m := testMachine()

	_, err := m.Fire("borrador", "confirmar")
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidTransition))

	// confirmado is terminal: nothing fires from it
	for _, a := range []Action{"procesar", "confirmar", "cancelar", "borrador"} {
		_, err := m.Fire("confirmado", a)
		assert.Error(t, err, "action %s", a)
	}
}

func TestReopenCycle(t *testing.T) {
	m := testMachine()

	s := State("procesado")
	s, err := m.Fire(s, "cancelar")
	require.NoError(t, err)
	s, err = m.Fire(s, "borrador")
	require.NoError(t, err)
	assert.Equal(t, State("borrador"), s)
}

func TestActions(t *testing.T) {
	m := testMachine()

	assert.Equal(t, []Action{"procesar"}, m.Actions("borrador"))
	assert.ElementsMatch(t, []Action{"confirmar", "cancelar"}, m.Actions("procesado"))
	assert.Empty(t, m.Actions("confirmado"))
}
