package reclamo

import (
	"context"

	"corseg/internal/core/id"
	"corseg/internal/domain"
)

// Repository persists claims with their comment thread and attachment
// metadata.
type Repository interface {
	Create(ctx context.Context, r *Reclamo) error
	GetByID(ctx context.Context, reclamoID id.ID) (*Reclamo, error)
	Update(ctx context.Context, r *Reclamo) error
	Delete(ctx context.Context, reclamoID id.ID) error
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Reclamo], error)
	ListByPoliza(ctx context.Context, polizaID id.ID) ([]*Reclamo, error)

	AddComentario(ctx context.Context, c *Comentario) error
	AddDocumento(ctx context.Context, d *Documento) error
}

// DocumentoStore holds attachment payloads keyed by document id. The
// postgres implementation compresses payloads at rest.
type DocumentoStore interface {
	Put(ctx context.Context, documentoID id.ID, data []byte) error
	Get(ctx context.Context, documentoID id.ID) ([]byte, error)
	Delete(ctx context.Context, documentoID id.ID) error
}
