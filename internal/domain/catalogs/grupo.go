package catalogs

import (
	"context"
	"strings"

	"corseg/internal/core/apperror"
	"corseg/internal/core/entity"
	"corseg/internal/core/id"
)

// Grupo is a hierarchical policy group. Its display name is the full
// parent path joined with '/'.
type Grupo struct {
	entity.Catalog
}

// NewGrupo creates an active group under an optional parent.
func NewGrupo(code, name string, parentID *string) Grupo {
	g := Grupo{Catalog: entity.NewCatalog(code, name)}
	if parentID != nil {
		g.SetParent(*parentID)
	}
	return g
}

// maxGrupoDepth bounds the path walk. A well-formed hierarchy is a few
// levels deep; hitting the bound means a malformed parent chain.
const maxGrupoDepth = 32

// GrupoNameResolver computes full path names for groups.
// Lookup is by id string as stored in ParentID.
type GrupoNameResolver struct {
	lookup func(ctx context.Context, grupoID id.ID) (Grupo, error)
}

// NewGrupoNameResolver creates a resolver over the given lookup function
// (typically repo.GetByID).
func NewGrupoNameResolver(lookup func(ctx context.Context, grupoID id.ID) (Grupo, error)) *GrupoNameResolver {
	return &GrupoNameResolver{lookup: lookup}
}

// DisplayName walks the parent chain and returns "root/.../parent/name".
// The walk keeps a visited set: a parent cycle or a chain deeper than the
// bound is reported as a validation error instead of recursing forever.
func (r *GrupoNameResolver) DisplayName(ctx context.Context, g Grupo) (string, error) {
	parts := []string{g.Name}
	visited := map[id.ID]bool{g.ID: true}

	current := g
	for depth := 0; !current.IsRoot(); depth++ {
		if depth >= maxGrupoDepth {
			return "", apperror.NewValidation("group hierarchy exceeds maximum depth").
				WithDetail("grupo", g.Code).
				WithDetail("maxDepth", maxGrupoDepth)
		}

		parentID, err := id.Parse(*current.ParentID)
		if err != nil {
			return "", apperror.NewValidation("group has malformed parent reference").
				WithDetail("grupo", current.Code).
				WithCause(err)
		}
		if visited[parentID] {
			return "", apperror.NewValidation("group hierarchy contains a cycle").
				WithDetail("grupo", g.Code)
		}
		visited[parentID] = true

		parent, err := r.lookup(ctx, parentID)
		if err != nil {
			return "", err
		}
		parts = append(parts, parent.Name)
		current = parent
	}

	// parts were collected leaf-first.
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, "/"), nil
}
