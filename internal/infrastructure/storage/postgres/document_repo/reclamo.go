package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"corseg/internal/core/id"
	"corseg/internal/domain/reclamo"
	"corseg/internal/infrastructure/storage/postgres"
)

const (
	reclamoTable            = "doc_reclamos"
	reclamoComentariosTable = "doc_reclamo_comentarios"
	reclamoDocumentosTable  = "doc_reclamo_documentos"
)

var (
	comentarioCols = postgres.ExtractDBColumns[reclamo.Comentario]()
	documentoCols  = postgres.ExtractDBColumns[reclamo.Documento]()
)

// ReclamoRepo persists claim documents with their comment trail and
// attachment metadata. Attachment payloads live in the attachment store.
type ReclamoRepo struct {
	*BaseDocumentRepo[*reclamo.Reclamo]
}

var _ reclamo.Repository = (*ReclamoRepo)(nil)

// NewReclamoRepo creates a new claim repository.
func NewReclamoRepo() *ReclamoRepo {
	return &ReclamoRepo{
		BaseDocumentRepo: NewBaseDocumentRepo[*reclamo.Reclamo](
			reclamoTable,
			postgres.ExtractDBColumns[reclamo.Reclamo](),
			func() *reclamo.Reclamo { return &reclamo.Reclamo{} },
		),
	}
}

// GetByID loads the claim with its comments and attachment metadata.
func (r *ReclamoRepo) GetByID(ctx context.Context, reclamoID id.ID) (*reclamo.Reclamo, error) {
	rec, err := r.BaseDocumentRepo.GetByID(ctx, reclamoID)
	if err != nil {
		return nil, err
	}
	if err := r.loadChildren(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// ListByPoliza returns the policy's claims ordered by creation.
func (r *ReclamoRepo) ListByPoliza(ctx context.Context, polizaID id.ID) ([]*reclamo.Reclamo, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"poliza_id": polizaID}).
		Where(squirrel.Eq{"deletion_mark": false}).
		OrderBy("created_at ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*reclamo.Reclamo
	querier := r.getTxManager(ctx).GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &items, sql, args...); err != nil {
		return nil, fmt.Errorf("list reclamos by poliza: %w", err)
	}
	return items, nil
}

// AddComentario appends one comment to the claim's trail.
func (r *ReclamoRepo) AddComentario(ctx context.Context, c *reclamo.Comentario) error {
	q := r.Builder().
		Insert(reclamoComentariosTable).
		Columns(comentarioCols...).
		Values(c.ID, c.ReclamoID, c.UserID, c.Texto, c.Fecha)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.getTxManager(ctx).GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert comentario: %w", err)
	}
	return nil
}

// AddDocumento records one attachment's metadata.
func (r *ReclamoRepo) AddDocumento(ctx context.Context, d *reclamo.Documento) error {
	q := r.Builder().
		Insert(reclamoDocumentosTable).
		Columns(documentoCols...).
		Values(d.ID, d.ReclamoID, d.Nombre, d.ContentType, d.Size, d.Fecha)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.getTxManager(ctx).GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert documento: %w", err)
	}
	return nil
}

func (r *ReclamoRepo) loadChildren(ctx context.Context, rec *reclamo.Reclamo) error {
	querier := r.getTxManager(ctx).GetQuerier(ctx)

	q := r.Builder().
		Select(comentarioCols...).
		From(reclamoComentariosTable).
		Where(squirrel.Eq{"reclamo_id": rec.ID}).
		OrderBy("fecha ASC")
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Select(ctx, querier, &rec.Comentarios, sql, args...); err != nil {
		return fmt.Errorf("load comentarios: %w", err)
	}

	q = r.Builder().
		Select(documentoCols...).
		From(reclamoDocumentosTable).
		Where(squirrel.Eq{"reclamo_id": rec.ID}).
		OrderBy("fecha ASC")
	sql, args, err = q.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Select(ctx, querier, &rec.Documentos, sql, args...); err != nil {
		return fmt.Errorf("load documentos: %w", err)
	}
	return nil
}
