// Package configuration resolves per-company settings, currently the
// numbering sequences of the workflow documents. Missing entries fall
// back to the built-in defaults so a fresh company works without setup.
package configuration

import (
	"context"

	"corseg/internal/core/apperror"
	"corseg/internal/core/company"
	"corseg/internal/core/id"
	"corseg/internal/core/numerator"
)

// Key identifies one configurable setting.
type Key string

// Numbering sequence keys.
const (
	KeyNumeradorMovimiento  Key = "numerador.movimiento"
	KeyNumeradorPago        Key = "numerador.pago"
	KeyNumeradorLiqCia      Key = "numerador.liq_cia"
	KeyNumeradorLiqVendedor Key = "numerador.liq_vendedor"
	KeyNumeradorAjuste      Key = "numerador.ajuste"
	KeyNumeradorReclamo     Key = "numerador.reclamo"
)

// defaults are the sequence configurations used when a company has no
// stored override.
var defaults = map[Key]numerator.Config{
	KeyNumeradorMovimiento:  numerator.DefaultConfig("MOV"),
	KeyNumeradorPago:        numerator.DefaultConfig("PAG"),
	KeyNumeradorLiqCia:      numerator.DefaultConfig("LIQC"),
	KeyNumeradorLiqVendedor: numerator.DefaultConfig("LIQV"),
	KeyNumeradorAjuste:      numerator.DefaultConfig("AJC"),
	KeyNumeradorReclamo:     numerator.DefaultConfig("REC"),
}

// Entry is one stored override.
type Entry struct {
	CompanyID id.ID            `db:"company_id" json:"companyId"`
	Key       Key              `db:"config_key" json:"key"`
	Config    numerator.Config `db:"config" json:"config"`
}

// Repository persists per-company overrides.
type Repository interface {
	Get(ctx context.Context, companyID id.ID, key Key) (*Entry, error)
	Set(ctx context.Context, e *Entry) error
	Delete(ctx context.Context, companyID id.ID, key Key) error
}

// Service resolves settings for the active company.
type Service struct {
	repo Repository
}

// NewService creates a configuration service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Numerator resolves the sequence configuration for the given key: the
// active company's override when stored, the built-in default otherwise.
func (s *Service) Numerator(ctx context.Context, key Key) numerator.Config {
	def, ok := defaults[key]
	if !ok {
		def = numerator.DefaultConfig("DOC")
	}
	c := company.Get(ctx)
	if c == nil || s.repo == nil {
		return def
	}
	e, err := s.repo.Get(ctx, c.ID, key)
	if err != nil || e == nil {
		return def
	}
	return e.Config
}

// NumeratorFunc adapts Numerator to the per-request resolver the
// document services take.
func (s *Service) NumeratorFunc(key Key) func(ctx context.Context) numerator.Config {
	return func(ctx context.Context) numerator.Config {
		return s.Numerator(ctx, key)
	}
}

// Set stores an override for the active company.
func (s *Service) Set(ctx context.Context, key Key, cfg numerator.Config) error {
	c := company.Get(ctx)
	if c == nil {
		return apperror.NewInternal(company.ErrNoCompanyInContext).WithDetail("missing", "company")
	}
	if cfg.Prefix == "" {
		return apperror.NewValidation("sequence prefix is required").
			WithDetail("key", string(key))
	}
	return s.repo.Set(ctx, &Entry{CompanyID: c.ID, Key: key, Config: cfg})
}

// Reset removes the active company's override, restoring the default.
func (s *Service) Reset(ctx context.Context, key Key) error {
	c := company.Get(ctx)
	if c == nil {
		return apperror.NewInternal(company.ErrNoCompanyInContext).WithDetail("missing", "company")
	}
	return s.repo.Delete(ctx, c.ID, key)
}
