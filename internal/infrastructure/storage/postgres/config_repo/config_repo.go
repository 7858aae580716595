// Package config_repo provides the PostgreSQL implementation of the
// per-company configuration store.
package config_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"corseg/internal/core/apperror"
	"corseg/internal/core/id"
	"corseg/internal/domain/configuration"
	"corseg/internal/infrastructure/storage/postgres"
)

const configTable = "company_config"

// ConfigRepo stores configuration entries keyed by (company_id, config_key).
type ConfigRepo struct{}

var _ configuration.Repository = (*ConfigRepo)(nil)

// NewConfigRepo creates a new configuration repository.
func NewConfigRepo() *ConfigRepo {
	return &ConfigRepo{}
}

// Get retrieves one entry. Returns NotFound when the company has no
// override for the key.
func (r *ConfigRepo) Get(ctx context.Context, companyID id.ID, key configuration.Key) (*configuration.Entry, error) {
	querier := postgres.MustGetTxManager(ctx).GetQuerier(ctx)

	e := &configuration.Entry{CompanyID: companyID, Key: key}
	err := querier.QueryRow(ctx,
		"SELECT prefix, include_year, pad_width, reset_period FROM "+configTable+
			" WHERE company_id = $1 AND config_key = $2",
		companyID, key,
	).Scan(&e.Config.Prefix, &e.Config.IncludeYear, &e.Config.PadWidth, &e.Config.ResetPeriod)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound(configTable, string(key))
		}
		return nil, fmt.Errorf("get config: %w", err)
	}
	return e, nil
}

// Set upserts one entry.
func (r *ConfigRepo) Set(ctx context.Context, e *configuration.Entry) error {
	querier := postgres.MustGetTxManager(ctx).GetQuerier(ctx)

	_, err := querier.Exec(ctx,
		"INSERT INTO "+configTable+" (company_id, config_key, prefix, include_year, pad_width, reset_period)"+
			" VALUES ($1, $2, $3, $4, $5, $6)"+
			" ON CONFLICT (company_id, config_key) DO UPDATE SET"+
			" prefix = EXCLUDED.prefix, include_year = EXCLUDED.include_year,"+
			" pad_width = EXCLUDED.pad_width, reset_period = EXCLUDED.reset_period",
		e.CompanyID, e.Key, e.Config.Prefix, e.Config.IncludeYear, e.Config.PadWidth, e.Config.ResetPeriod)
	if err != nil {
		return fmt.Errorf("set config: %w", err)
	}
	return nil
}

// Delete removes one entry, restoring the built-in default.
func (r *ConfigRepo) Delete(ctx context.Context, companyID id.ID, key configuration.Key) error {
	querier := postgres.MustGetTxManager(ctx).GetQuerier(ctx)

	_, err := querier.Exec(ctx,
		"DELETE FROM "+configTable+" WHERE company_id = $1 AND config_key = $2",
		companyID, key)
	if err != nil {
		return fmt.Errorf("delete config: %w", err)
	}
	return nil
}
