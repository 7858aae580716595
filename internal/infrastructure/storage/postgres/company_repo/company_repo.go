// Package company_repo provides PostgreSQL persistence for company records.
package company_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"corseg/internal/core/apperror"
	"corseg/internal/core/company"
)

// CompanyRepo reads company records from the shared pool. It does not go
// through the transaction manager: company resolution happens before any
// request transaction is opened.
type CompanyRepo struct {
	pool *pgxpool.Pool
}

// NewCompanyRepo creates a new company repository.
func NewCompanyRepo(pool *pgxpool.Pool) *CompanyRepo {
	return &CompanyRepo{pool: pool}
}

// GetCompany retrieves a company by ID.
func (r *CompanyRepo) GetCompany(ctx context.Context, companyID string) (*company.Company, error) {
	query := `SELECT id, name, currency, currency_digits FROM companies WHERE id = $1`

	var c company.Company
	err := r.pool.QueryRow(ctx, query, companyID).Scan(
		&c.ID, &c.Name, &c.Currency, &c.CurrencyDigits,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NewNotFound("company", companyID)
	}
	if err != nil {
		return nil, fmt.Errorf("query company: %w", err)
	}

	return &c, nil
}

// List returns all companies.
func (r *CompanyRepo) List(ctx context.Context) ([]*company.Company, error) {
	query := `SELECT id, name, currency, currency_digits FROM companies ORDER BY name ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query companies: %w", err)
	}
	defer rows.Close()

	var companies []*company.Company
	for rows.Next() {
		var c company.Company
		if err := rows.Scan(&c.ID, &c.Name, &c.Currency, &c.CurrencyDigits); err != nil {
			return nil, fmt.Errorf("scan company: %w", err)
		}
		companies = append(companies, &c)
	}

	return companies, rows.Err()
}
