// Package company provides the explicit tenant context for all operations.
//
// Every monetary computation in the core quantizes to the active company's
// currency precision, so the Company value must be present in context for
// any commission or settlement operation.
package company

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"

	"corseg/internal/core/id"
	"corseg/internal/core/tx"
)

// Company is the active tenant for the current request.
type Company struct {
	ID   id.ID
	Name string

	// Currency is the ISO code of the company currency.
	Currency string

	// CurrencyDigits is the decimal precision used to quantize every
	// monetary amount computed for this company. Default 2.
	CurrencyDigits int32
}

// Context keys for company-related values.
type ctxKey int

const (
	companyKey ctxKey = iota
	poolKey
	txManagerKey
)

// Errors for context operations.
var (
	ErrNoCompanyInContext = errors.New("company not found in context")
	ErrNoPoolInContext    = errors.New("database pool not found in context")
	ErrNoTxManager        = errors.New("transaction manager not found in context")
)

// WithCompany stores the active company in context.
func WithCompany(ctx context.Context, c *Company) context.Context {
	return context.WithValue(ctx, companyKey, c)
}

// Get retrieves the active company from context.
func Get(ctx context.Context) *Company {
	c, _ := ctx.Value(companyKey).(*Company)
	return c
}

// MustGet retrieves the active company or panics.
// Use where a missing company is a programming error (missing middleware).
func MustGet(ctx context.Context) *Company {
	c := Get(ctx)
	if c == nil {
		panic("company not in context: " + ErrNoCompanyInContext.Error())
	}
	return c
}

// Digits returns the currency precision from context, defaulting to 2 when
// no company is set. Commission computation degrades gracefully rather than
// failing when the context is incomplete.
func Digits(ctx context.Context) int32 {
	if c := Get(ctx); c != nil && c.CurrencyDigits > 0 {
		return c.CurrencyDigits
	}
	return 2
}

// --- Pool ---

// WithPool stores database pool in context.
func WithPool(ctx context.Context, pool *pgxpool.Pool) context.Context {
	return context.WithValue(ctx, poolKey, pool)
}

// GetPool retrieves database pool from context.
func GetPool(ctx context.Context) (*pgxpool.Pool, error) {
	pool, ok := ctx.Value(poolKey).(*pgxpool.Pool)
	if !ok || pool == nil {
		return nil, ErrNoPoolInContext
	}
	return pool, nil
}

// MustGetPool retrieves database pool or panics.
func MustGetPool(ctx context.Context) *pgxpool.Pool {
	pool, err := GetPool(ctx)
	if err != nil {
		panic("database pool not in context: " + err.Error())
	}
	return pool
}

// --- TxManager ---

// WithTxManager stores TxManager in context.
func WithTxManager(ctx context.Context, txm tx.Manager) context.Context {
	return context.WithValue(ctx, txManagerKey, txm)
}

// GetTxManager retrieves TxManager from context.
func GetTxManager(ctx context.Context) (tx.Manager, error) {
	txm, ok := ctx.Value(txManagerKey).(tx.Manager)
	if !ok || txm == nil {
		return nil, ErrNoTxManager
	}
	return txm, nil
}

// MustGetTxManager retrieves TxManager or panics.
func MustGetTxManager(ctx context.Context) tx.Manager {
	txm, err := GetTxManager(ctx)
	if err != nil {
		panic("TxManager not in context: " + err.Error())
	}
	return txm
}
