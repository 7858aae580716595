package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"corseg/internal/core/apperror"
	"corseg/internal/core/entity"
	"corseg/internal/core/id"
	"corseg/internal/domain"
	domainFilter "corseg/internal/domain/filter"
	"corseg/internal/infrastructure/http/v1/dto"
)

// CatalogEntity is the constraint for entities served by CatalogHandler.
type CatalogEntity interface {
	entity.Validatable
	GetID() id.ID
	SetID(id.ID)
	SetVersion(int)
}

// CatalogHandler provides generic HTTP handlers for catalog entities.
// Entities bind directly from JSON: create binds into a fresh entity,
// update binds over the stored one so omitted fields keep their values.
type CatalogHandler[T CatalogEntity] struct {
	*BaseHandler
	service    *domain.CatalogService[T]
	entityName string
	newEntity  func() T
}

// CatalogHandlerConfig configures the catalog handler.
type CatalogHandlerConfig[T CatalogEntity] struct {
	Service    *domain.CatalogService[T]
	EntityName string
	NewEntity  func() T
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler[T CatalogEntity](
	base *BaseHandler,
	cfg CatalogHandlerConfig[T],
) *CatalogHandler[T] {
	return &CatalogHandler[T]{
		BaseHandler: base,
		service:     cfg.Service,
		entityName:  cfg.EntityName,
		newEntity:   cfg.NewEntity,
	}
}

// parseListFilter extracts common list parameters from query string.
func parseListFilter(h *BaseHandler, c *gin.Context, defaultOrder string) (domain.ListFilter, bool) {
	f := domain.DefaultListFilter()
	f.Search = c.Query("search")
	f.Limit = h.ParseIntQuery(c, "limit", 50)
	f.Offset = h.ParseIntQuery(c, "offset", 0)
	f.OrderBy = c.DefaultQuery("orderBy", defaultOrder)
	f.IncludeDeleted = c.Query("includeDeleted") == "true"
	f.OnlyActive = c.Query("onlyActive") == "true"

	if parentID := c.Query("parentId"); parentID != "" {
		f.ParentID = &parentID
	}

	if isFolder := c.Query("isFolder"); isFolder != "" {
		val := isFolder == "true"
		f.IsFolder = &val
	}

	if filterJSON := c.Query("filter"); filterJSON != "" {
		var advFilters []domainFilter.Item
		if err := json.Unmarshal([]byte(filterJSON), &advFilters); err != nil {
			h.Error(c, apperror.NewValidation("invalid filter format (json expected)"))
			return f, false
		}
		f.AdvancedFilters = advFilters
	}

	return f, true
}

// List handles GET /{entity} - list with filtering and pagination.
func (h *CatalogHandler[T]) List(c *gin.Context) {
	ctx := c.Request.Context()

	filter, ok := parseListFilter(h.BaseHandler, c, "name")
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

// Get handles GET /{entity}/:id - get single entity.
func (h *CatalogHandler[T]) Get(c *gin.Context) {
	ctx := c.Request.Context()

	entityID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	ent, err := h.service.GetByID(ctx, entityID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, ent)
}

// Create handles POST /{entity} - create new entity.
func (h *CatalogHandler[T]) Create(c *gin.Context) {
	ctx := c.Request.Context()

	ent := h.newEntity()
	if !h.BindJSON(c, ent) {
		return
	}

	if id.IsNil(ent.GetID()) {
		ent.SetID(id.New())
	}
	ent.SetVersion(1)

	if err := h.service.Create(ctx, ent); err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, ent)
}

// Update handles PUT /{entity}/:id - update existing entity.
// The JSON body is applied over the stored entity, so the client sends
// only the fields it changes plus the version it read.
func (h *CatalogHandler[T]) Update(c *gin.Context) {
	ctx := c.Request.Context()

	entityID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	existing, err := h.service.GetByID(ctx, entityID)
	if err != nil {
		h.Error(c, err)
		return
	}

	if !h.BindJSON(c, existing) {
		return
	}
	// The path wins over whatever id the body carries.
	existing.SetID(entityID)

	if err := h.service.Update(ctx, existing); err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, existing)
}

// Delete handles DELETE /{entity}/:id - soft delete entity.
func (h *CatalogHandler[T]) Delete(c *gin.Context) {
	ctx := c.Request.Context()

	entityID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	if err := h.service.Delete(ctx, entityID); err != nil {
		h.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// SetDeletionMark handles POST /{entity}/:id/deletion-mark
func (h *CatalogHandler[T]) SetDeletionMark(c *gin.Context) {
	ctx := c.Request.Context()

	entityID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.SetDeletionMarkRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.SetDeletionMark(ctx, entityID, req.Marked); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "deletion mark updated")
}
