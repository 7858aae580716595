package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"corseg/internal/core/entity"
	"corseg/internal/core/id"
)

type mockCatalog struct {
	entity.Catalog
	PartyID string `db:"party_id" json:"partyId"`
	Ignored string `db:"-" json:"-"`
}

func TestExtractDBColumns(t *testing.T) {
	cols := ExtractDBColumns[mockCatalog]()

	expected := []string{
		"id", "deletion_mark", "version",
		"code", "name", "active", "parent_id", "is_folder",
		"party_id",
	}
	for _, col := range expected {
		assert.Contains(t, cols, col)
	}
	assert.NotContains(t, cols, "-")
}

func TestStructToMap(t *testing.T) {
	cat := mockCatalog{
		Catalog: entity.Catalog{
			BaseCatalog: entity.BaseCatalog{
				BaseEntity: entity.BaseEntity{
					ID:           id.New(),
					DeletionMark: true,
					Version:      5,
				},
			},
			Code:   "CIA-001",
			Name:   "Aseguradora General",
			Active: true,
		},
		PartyID: "p-1",
		Ignored: "never stored",
	}

	m := StructToMap(cat)

	assert.Equal(t, cat.ID, m["id"])
	assert.Equal(t, true, m["deletion_mark"])
	assert.Equal(t, 5, m["version"])
	assert.Equal(t, "CIA-001", m["code"])
	assert.Equal(t, "Aseguradora General", m["name"])
	assert.Equal(t, "p-1", m["party_id"])
	_, ignored := m["-"]
	assert.False(t, ignored)
}
