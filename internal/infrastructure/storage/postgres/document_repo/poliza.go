package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"corseg/internal/core/apperror"
	"corseg/internal/core/id"
	"corseg/internal/domain/poliza"
	"corseg/internal/infrastructure/storage/postgres"
)

const (
	polizaTable             = "doc_polizas"
	polizaRenovacionesTable = "doc_poliza_renovaciones"
	polizaCertificadosTable = "doc_poliza_certificados"
	polizaExtensionesTable  = "doc_certificado_extensiones"
	polizaVehiculosTable    = "doc_certificado_vehiculos"
	polizaLineasCiaTable    = "doc_poliza_comision_cia"
	polizaLineasVendTable   = "doc_poliza_comision_vendedor"
)

var (
	renovacionCols  = postgres.ExtractDBColumns[poliza.Renovacion]()
	certificadoCols = postgres.ExtractDBColumns[poliza.Certificado]()
	extensionCols   = postgres.ExtractDBColumns[poliza.Extension]()
	vehiculoCols    = postgres.ExtractDBColumns[poliza.Vehiculo]()
)

// PolizaRepo persists the policy aggregate: the policy row, its renewal
// snapshots, certificates with extensions and vehicle records, and the
// materialized commission schedules.
type PolizaRepo struct {
	*BaseDocumentRepo[*poliza.Poliza]
}

var _ poliza.Repository = (*PolizaRepo)(nil)

// NewPolizaRepo creates a new policy repository.
func NewPolizaRepo() *PolizaRepo {
	return &PolizaRepo{
		BaseDocumentRepo: NewBaseDocumentRepo[*poliza.Poliza](
			polizaTable,
			postgres.ExtractDBColumns[poliza.Poliza](),
			func() *poliza.Poliza { return &poliza.Poliza{} },
		),
	}
}

// Create inserts the policy with all its children.
func (r *PolizaRepo) Create(ctx context.Context, p *poliza.Poliza) error {
	if err := r.BaseDocumentRepo.Create(ctx, p); err != nil {
		return err
	}
	return r.saveChildren(ctx, p)
}

// Update replaces the policy row and all its children.
func (r *PolizaRepo) Update(ctx context.Context, p *poliza.Poliza) error {
	if err := r.BaseDocumentRepo.Update(ctx, p); err != nil {
		return err
	}
	return r.saveChildren(ctx, p)
}

// GetByID loads the full policy aggregate.
func (r *PolizaRepo) GetByID(ctx context.Context, polizaID id.ID) (*poliza.Poliza, error) {
	p, err := r.BaseDocumentRepo.GetByID(ctx, polizaID)
	if err != nil {
		return nil, err
	}
	if err := r.loadChildren(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PolizaRepo) saveChildren(ctx context.Context, p *poliza.Poliza) error {
	txm := r.getTxManager(ctx)

	for i := range p.Renovaciones {
		if err := upsertRow(ctx, txm, polizaRenovacionesTable, renovacionCols, &p.Renovaciones[i]); err != nil {
			return err
		}
	}
	for i := range p.Certificados {
		if err := r.saveCertificado(ctx, &p.Certificados[i]); err != nil {
			return err
		}
	}

	if err := saveLineas(ctx, txm, polizaLineasCiaTable, "poliza_id", p.ID, p.ComisionCia); err != nil {
		return err
	}
	return saveLineas(ctx, txm, polizaLineasVendTable, "poliza_id", p.ID, p.ComisionVendedor)
}

func (r *PolizaRepo) loadChildren(ctx context.Context, p *poliza.Poliza) error {
	txm := r.getTxManager(ctx)
	querier := txm.GetQuerier(ctx)

	q := r.Builder().
		Select(renovacionCols...).
		From(polizaRenovacionesTable).
		Where(squirrel.Eq{"poliza_id": p.ID}).
		OrderBy("renovacion ASC")
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Select(ctx, querier, &p.Renovaciones, sql, args...); err != nil {
		return fmt.Errorf("load renovaciones: %w", err)
	}

	q = r.Builder().
		Select(certificadoCols...).
		From(polizaCertificadosTable).
		Where(squirrel.Eq{"poliza_id": p.ID}).
		OrderBy("numero ASC")
	sql, args, err = q.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Select(ctx, querier, &p.Certificados, sql, args...); err != nil {
		return fmt.Errorf("load certificados: %w", err)
	}

	for i := range p.Certificados {
		if err := r.loadCertificadoChildren(ctx, &p.Certificados[i]); err != nil {
			return err
		}
	}

	if p.ComisionCia, err = loadLineas(ctx, txm, polizaLineasCiaTable, "poliza_id", p.ID); err != nil {
		return err
	}
	if p.ComisionVendedor, err = loadLineas(ctx, txm, polizaLineasVendTable, "poliza_id", p.ID); err != nil {
		return err
	}
	return nil
}

// GetCertificado loads one certificate with its extensions and vehicle.
func (r *PolizaRepo) GetCertificado(ctx context.Context, certificadoID id.ID) (*poliza.Certificado, error) {
	q := r.Builder().
		Select(certificadoCols...).
		From(polizaCertificadosTable).
		Where(squirrel.Eq{"id": certificadoID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var c poliza.Certificado
	querier := r.getTxManager(ctx).GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &c, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(polizaCertificadosTable, certificadoID.String())
		}
		return nil, fmt.Errorf("get certificado: %w", err)
	}

	if err := r.loadCertificadoChildren(ctx, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// SaveCertificado upserts the certificate with its extensions and vehicle.
func (r *PolizaRepo) SaveCertificado(ctx context.Context, c *poliza.Certificado) error {
	return r.saveCertificado(ctx, c)
}

func (r *PolizaRepo) saveCertificado(ctx context.Context, c *poliza.Certificado) error {
	txm := r.getTxManager(ctx)

	if err := upsertRow(ctx, txm, polizaCertificadosTable, certificadoCols, c); err != nil {
		return err
	}

	// Extensions are replaced as a set; vehicle is one optional row.
	querier := txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx,
		"DELETE FROM "+polizaExtensionesTable+" WHERE certificado_id = $1", c.ID); err != nil {
		return fmt.Errorf("delete extensiones: %w", err)
	}
	for i := range c.Extensiones {
		if err := upsertRow(ctx, txm, polizaExtensionesTable, extensionCols, &c.Extensiones[i]); err != nil {
			return err
		}
	}

	if c.Vehiculo != nil {
		return upsertRow(ctx, txm, polizaVehiculosTable, vehiculoCols, c.Vehiculo)
	}
	return nil
}

func (r *PolizaRepo) loadCertificadoChildren(ctx context.Context, c *poliza.Certificado) error {
	querier := r.getTxManager(ctx).GetQuerier(ctx)

	q := r.Builder().
		Select(extensionCols...).
		From(polizaExtensionesTable).
		Where(squirrel.Eq{"certificado_id": c.ID})
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Select(ctx, querier, &c.Extensiones, sql, args...); err != nil {
		return fmt.Errorf("load extensiones: %w", err)
	}

	q = r.Builder().
		Select(vehiculoCols...).
		From(polizaVehiculosTable).
		Where(squirrel.Eq{"certificado_id": c.ID})
	sql, args, err = q.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	var v poliza.Vehiculo
	if err := pgxscan.Get(ctx, querier, &v, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			c.Vehiculo = nil
			return nil
		}
		return fmt.Errorf("load vehiculo: %w", err)
	}
	c.Vehiculo = &v
	return nil
}

// SaveRenovacion upserts one renewal snapshot.
func (r *PolizaRepo) SaveRenovacion(ctx context.Context, ren *poliza.Renovacion) error {
	return upsertRow(ctx, r.getTxManager(ctx), polizaRenovacionesTable, renovacionCols, ren)
}

// DeleteRenovacion removes one renewal snapshot.
func (r *PolizaRepo) DeleteRenovacion(ctx context.Context, renovacionID id.ID) error {
	querier := r.getTxManager(ctx).GetQuerier(ctx)
	result, err := querier.Exec(ctx,
		"DELETE FROM "+polizaRenovacionesTable+" WHERE id = $1", renovacionID)
	if err != nil {
		return fmt.Errorf("delete renovacion: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(polizaRenovacionesTable, renovacionID.String())
	}
	return nil
}
