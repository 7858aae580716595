package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"corseg/internal/infrastructure/storage/postgres/company_repo"
)

// CompanyHandler lists the companies a session can work against.
type CompanyHandler struct {
	*BaseHandler
	repo *company_repo.CompanyRepo
}

// NewCompanyHandler creates a company handler.
func NewCompanyHandler(base *BaseHandler, repo *company_repo.CompanyRepo) *CompanyHandler {
	return &CompanyHandler{
		BaseHandler: base,
		repo:        repo,
	}
}

// List handles GET /companies
func (h *CompanyHandler) List(c *gin.Context) {
	companies, err := h.repo.List(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": companies})
}

// RegisterRoutes registers company routes.
func (h *CompanyHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
}
