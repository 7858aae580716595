package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"corseg/internal/core/apperror"
	"corseg/internal/core/id"
	"corseg/internal/domain"
	"corseg/internal/infrastructure/http/v1/dto"
)

// DocumentService is the CRUD surface shared by all document services.
type DocumentService[T any] interface {
	Create(ctx context.Context, doc T) error
	GetByID(ctx context.Context, docID id.ID) (T, error)
	Update(ctx context.Context, doc T) error
	Delete(ctx context.Context, docID id.ID) error
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[T], error)
}

// DocumentHandler provides generic HTTP handlers for document entities.
// Workflow transitions (procesar, confirmar, ...) are mounted per document
// through Action.
type DocumentHandler[T any] struct {
	*BaseHandler
	service    DocumentService[T]
	entityName string

	// newEntity builds a fresh document scoped to the request context
	// (company, defaults). The JSON body binds over it.
	newEntity func(ctx context.Context) T

	// beforeSave re-applies server-controlled fields after binding so the
	// body cannot override them.
	beforeSave func(ctx context.Context, doc T)
}

// DocumentHandlerConfig configures the document handler.
type DocumentHandlerConfig[T any] struct {
	Service    DocumentService[T]
	EntityName string
	NewEntity  func(ctx context.Context) T
	BeforeSave func(ctx context.Context, doc T)
}

// NewDocumentHandler creates a new document handler.
func NewDocumentHandler[T any](
	base *BaseHandler,
	cfg DocumentHandlerConfig[T],
) *DocumentHandler[T] {
	return &DocumentHandler[T]{
		BaseHandler: base,
		service:     cfg.Service,
		entityName:  cfg.EntityName,
		newEntity:   cfg.NewEntity,
		beforeSave:  cfg.BeforeSave,
	}
}

// List handles GET /{entity}
func (h *DocumentHandler[T]) List(c *gin.Context) {
	ctx := c.Request.Context()

	filter, ok := parseListFilter(h.BaseHandler, c, "fecha DESC")
	if !ok {
		return
	}

	result, err := h.service.List(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ListResponse{
		Items:      result.Items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// Get handles GET /{entity}/:id
func (h *DocumentHandler[T]) Get(c *gin.Context) {
	ctx := c.Request.Context()

	docID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	doc, err := h.service.GetByID(ctx, docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, doc)
}

// Create handles POST /{entity}
func (h *DocumentHandler[T]) Create(c *gin.Context) {
	ctx := c.Request.Context()

	doc := h.newEntity(ctx)
	if !h.BindJSON(c, doc) {
		return
	}
	if h.beforeSave != nil {
		h.beforeSave(ctx, doc)
	}

	if err := h.service.Create(ctx, doc); err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, doc)
}

// Update handles PUT /{entity}/:id
func (h *DocumentHandler[T]) Update(c *gin.Context) {
	ctx := c.Request.Context()

	docID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	doc, err := h.service.GetByID(ctx, docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	if !h.BindJSON(c, doc) {
		return
	}
	if h.beforeSave != nil {
		h.beforeSave(ctx, doc)
	}

	if err := h.service.Update(ctx, doc); err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, doc)
}

// Delete handles DELETE /{entity}/:id
func (h *DocumentHandler[T]) Delete(c *gin.Context) {
	ctx := c.Request.Context()

	docID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	if err := h.service.Delete(ctx, docID); err != nil {
		h.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Action wraps a workflow transition as POST /{entity}/:id/{action}.
// On success the refreshed document is returned.
func (h *DocumentHandler[T]) Action(fn func(ctx context.Context, docID id.ID) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		docID, err := id.Parse(c.Param("id"))
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid id format"))
			return
		}

		if err := fn(ctx, docID); err != nil {
			h.Error(c, err)
			return
		}

		doc, err := h.service.GetByID(ctx, docID)
		if err != nil {
			h.Error(c, err)
			return
		}

		c.JSON(http.StatusOK, doc)
	}
}

// RegisterCRUD registers the standard document routes. Reads pass the
// read guard, mutations the write guard.
func (h *DocumentHandler[T]) RegisterCRUD(rg *gin.RouterGroup, read, write gin.HandlerFunc) {
	rg.GET("", read, h.List)
	rg.POST("", write, h.Create)
	rg.GET("/:id", read, h.Get)
	rg.PUT("/:id", write, h.Update)
	rg.DELETE("/:id", write, h.Delete)
}
