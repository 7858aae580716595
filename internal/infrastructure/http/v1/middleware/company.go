package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"corseg/internal/core/apperror"
	"corseg/internal/core/company"
	appctx "corseg/internal/core/context"
	"corseg/internal/core/tx"
)

// HeaderCompanyID lets clients select the working company explicitly.
// When absent the company from the token claims is used.
const HeaderCompanyID = "X-Company-ID"

// CompanyDirectory resolves company records for request scoping.
type CompanyDirectory interface {
	GetCompany(ctx context.Context, companyID string) (*company.Company, error)
}

// CompanyContext injects the database pool, transaction manager and the
// resolved working company into the request context. Requests without a
// resolvable company are rejected: every document operation is scoped to
// exactly one company.
func CompanyContext(pool *pgxpool.Pool, txm tx.Manager, dir CompanyDirectory) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		ctx = company.WithPool(ctx, pool)
		ctx = company.WithTxManager(ctx, txm)

		companyID := c.GetHeader(HeaderCompanyID)
		if companyID == "" {
			if user := appctx.GetUser(ctx); user != nil {
				companyID = user.CompanyID
			}
		}
		if companyID == "" {
			_ = c.Error(apperror.NewValidation("no company selected"))
			c.Abort()
			return
		}

		comp, err := dir.GetCompany(ctx, companyID)
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}

		ctx = company.WithCompany(ctx, comp)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// DBContext injects only the pool and transaction manager. Used for
// routes that run before a company is selected, such as auth.
func DBContext(pool *pgxpool.Pool, txm tx.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		ctx = company.WithPool(ctx, pool)
		ctx = company.WithTxManager(ctx, txm)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
