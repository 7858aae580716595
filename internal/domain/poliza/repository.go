package poliza

import (
	"context"

	"corseg/internal/core/id"
	"corseg/internal/domain"
)

// Repository persists the policy aggregate.
//
// GetByID loads the full aggregate: renewals, certificates with their
// extensions and vehicle, and the materialized commission tiers.
type Repository interface {
	Create(ctx context.Context, p *Poliza) error
	GetByID(ctx context.Context, polizaID id.ID) (*Poliza, error)
	Update(ctx context.Context, p *Poliza) error
	Delete(ctx context.Context, polizaID id.ID) error
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Poliza], error)

	// Certificates are reachable outside the aggregate (inclusion of a
	// previously excluded certificate references it by id).
	GetCertificado(ctx context.Context, certificadoID id.ID) (*Certificado, error)
	SaveCertificado(ctx context.Context, c *Certificado) error

	SaveRenovacion(ctx context.Context, r *Renovacion) error
	DeleteRenovacion(ctx context.Context, renovacionID id.ID) error
}
