package catalogs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"corseg/internal/core/apperror"
	"corseg/internal/core/id"
)

func grupoStore(grupos ...Grupo) func(ctx context.Context, grupoID id.ID) (Grupo, error) {
	byID := make(map[id.ID]Grupo, len(grupos))
	for _, g := range grupos {
		byID[g.ID] = g
	}
	return func(_ context.Context, grupoID id.ID) (Grupo, error) {
		g, ok := byID[grupoID]
		if !ok {
			return Grupo{}, apperror.NewNotFound("grupo", grupoID.String())
		}
		return g, nil
	}
}

func TestGrupoDisplayName(t *testing.T) {
	root := NewGrupo("CORP", "Corporativo", nil)
	rootID := root.ID.String()
	flota := NewGrupo("FLOTA", "Flotas", &rootID)
	flotaID := flota.ID.String()
	leaf := NewGrupo("FLOTA-N", "Norte", &flotaID)

	resolver := NewGrupoNameResolver(grupoStore(root, flota, leaf))

	name, err := resolver.DisplayName(context.Background(), leaf)
	require.NoError(t, err)
	assert.Equal(t, "Corporativo/Flotas/Norte", name)

	name, err = resolver.DisplayName(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, "Corporativo", name)
}

func TestGrupoDisplayNameCycle(t *testing.T) {
	a := NewGrupo("A", "A", nil)
	b := NewGrupo("B", "B", nil)
	aID := a.ID.String()
	bID := b.ID.String()
	a.SetParent(bID)
	b.SetParent(aID)

	resolver := NewGrupoNameResolver(grupoStore(a, b))

	_, err := resolver.DisplayName(context.Background(), a)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle")
}

func TestGrupoDisplayNameMissingParent(t *testing.T) {
	orphanParent := id.New().String()
	g := NewGrupo("X", "X", &orphanParent)

	resolver := NewGrupoNameResolver(grupoStore(g))

	_, err := resolver.DisplayName(context.Background(), g)
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}
