package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"corseg/internal/core/apperror"
	"corseg/internal/core/company"
	"corseg/internal/core/entity"
	"corseg/internal/core/id"
	"corseg/internal/domain/liquidacion"
	"corseg/internal/infrastructure/http/v1/dto"
)

// CompensacionLister lists the compensation records an adjustment took
// part in, either side of the link.
type CompensacionLister interface {
	ListCompensaciones(ctx context.Context, ajusteID id.ID) ([]*liquidacion.Compensacion, error)
}

// LiquidacionHandler handles settlement and adjustment endpoints. The
// settlement workflow has no free-form update: drafts are rebuilt by
// re-creating, everything after borrador moves through transitions.
type LiquidacionHandler struct {
	*BaseHandler
	service        *liquidacion.Service
	ajustes        liquidacion.AjusteRepository
	compensaciones CompensacionLister
}

// NewLiquidacionHandler creates a settlement handler.
func NewLiquidacionHandler(
	base *BaseHandler,
	service *liquidacion.Service,
	ajustes liquidacion.AjusteRepository,
	compensaciones CompensacionLister,
) *LiquidacionHandler {
	return &LiquidacionHandler{
		BaseHandler:    base,
		service:        service,
		ajustes:        ajustes,
		compensaciones: compensaciones,
	}
}

// List handles GET /liquidaciones
func (h *LiquidacionHandler) List(c *gin.Context) {
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

// Get handles GET /liquidaciones/:id
func (h *LiquidacionHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	liqID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	l, err := h.service.GetByID(ctx, liqID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, l)
}

// Create handles POST /liquidaciones
func (h *LiquidacionHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	comp := company.Get(ctx)
	if comp == nil {
		h.Error(c, apperror.NewValidation("no company selected"))
		return
	}

	l := &liquidacion.Liquidacion{
		Document: entity.NewDocument(comp.ID),
		Estado:   liquidacion.EstadoBorrador,
	}
	if !h.BindJSON(c, l) {
		return
	}
	l.CompanyID = comp.ID
	l.Estado = liquidacion.EstadoBorrador

	if err := h.service.Create(ctx, l); err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, l)
}

// Total handles GET /liquidaciones/:id/total - the live net total.
func (h *LiquidacionHandler) Total(c *gin.Context) {
	ctx := c.Request.Context()

	liqID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	l, err := h.service.GetByID(ctx, liqID)
	if err != nil {
		h.Error(c, err)
		return
	}

	total, err := h.service.Total(ctx, l)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.MontoResponse{Monto: total.String()})
}

// action wraps a settlement transition and returns the refreshed record.
func (h *LiquidacionHandler) action(fn func(ctx context.Context, liqID id.ID) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		liqID, err := id.Parse(c.Param("id"))
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid id format"))
			return
		}

		if err := fn(ctx, liqID); err != nil {
			h.Error(c, err)
			return
		}

		l, err := h.service.GetByID(ctx, liqID)
		if err != nil {
			h.Error(c, err)
			return
		}

		c.JSON(http.StatusOK, l)
	}
}

// --- Adjustments ---

// CreateAjuste handles POST /ajustes
func (h *LiquidacionHandler) CreateAjuste(c *gin.Context) {
	ctx := c.Request.Context()

	comp := company.Get(ctx)
	if comp == nil {
		h.Error(c, apperror.NewValidation("no company selected"))
		return
	}

	a := &liquidacion.Ajuste{
		Document: entity.NewDocument(comp.ID),
		Estado:   liquidacion.EstadoBorrador,
	}
	if !h.BindJSON(c, a) {
		return
	}
	a.CompanyID = comp.ID
	a.Estado = liquidacion.EstadoBorrador

	if err := h.service.CreateAjuste(ctx, a); err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, a)
}

// GetAjuste handles GET /ajustes/:id
func (h *LiquidacionHandler) GetAjuste(c *gin.Context) {
	ctx := c.Request.Context()

	ajusteID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	a, err := h.service.GetAjuste(ctx, ajusteID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, a)
}

// ListAjustes handles GET /ajustes?pagoId=&lado=
func (h *LiquidacionHandler) ListAjustes(c *gin.Context) {
	ctx := c.Request.Context()

	pagoID, err := id.Parse(c.Query("pagoId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("pagoId query parameter is required"))
		return
	}

	lado := liquidacion.Lado(c.DefaultQuery("lado", string(liquidacion.LadoCia)))
	if lado != liquidacion.LadoCia && lado != liquidacion.LadoVendedor {
		h.Error(c, apperror.NewValidation("lado must be cia or vendedor"))
		return
	}

	items, err := h.ajustes.ListByPago(ctx, pagoID, lado)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

// ListCompensaciones handles GET /ajustes/:id/compensaciones
func (h *LiquidacionHandler) ListCompensaciones(c *gin.Context) {
	ctx := c.Request.Context()

	ajusteID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	items, err := h.compensaciones.ListCompensaciones(ctx, ajusteID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

// ajusteAction wraps an adjustment transition.
func (h *LiquidacionHandler) ajusteAction(fn func(ctx context.Context, ajusteID id.ID) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		ajusteID, err := id.Parse(c.Param("id"))
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid id format"))
			return
		}

		if err := fn(ctx, ajusteID); err != nil {
			h.Error(c, err)
			return
		}

		a, err := h.service.GetAjuste(ctx, ajusteID)
		if err != nil {
			h.Error(c, err)
			return
		}

		c.JSON(http.StatusOK, a)
	}
}

// RegisterRoutes registers settlement and adjustment routes.
func (h *LiquidacionHandler) RegisterRoutes(liq, ajustes *gin.RouterGroup, read, write gin.HandlerFunc) {
	liq.GET("", read, h.List)
	liq.POST("", write, h.Create)
	liq.GET("/:id", read, h.Get)
	liq.GET("/:id/total", read, h.Total)
	liq.POST("/:id/procesar", write, h.action(h.service.Procesar))
	liq.POST("/:id/confirmar", write, h.action(h.service.Confirmar))
	liq.POST("/:id/cancelar", write, h.action(h.service.Cancelar))
	liq.POST("/:id/reabrir", write, h.action(h.service.Reabrir))

	ajustes.GET("", read, h.ListAjustes)
	ajustes.POST("", write, h.CreateAjuste)
	ajustes.GET("/:id", read, h.GetAjuste)
	ajustes.GET("/:id/compensaciones", read, h.ListCompensaciones)
	ajustes.POST("/:id/procesar", write, h.ajusteAction(h.service.ProcesarAjuste))
	ajustes.POST("/:id/confirmar", write, h.ajusteAction(h.service.ConfirmarAjusteVendedor))
	ajustes.POST("/:id/finalizar", write, h.ajusteAction(h.service.FinalizarAjuste))
	ajustes.POST("/:id/cancelar", write, h.ajusteAction(h.service.CancelarAjuste))
	ajustes.POST("/:id/reabrir", write, h.ajusteAction(h.service.ReabrirAjuste))
}
