package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"corseg/internal/core/apperror"
	"corseg/internal/core/id"
	"corseg/internal/domain/pago"
	"corseg/internal/infrastructure/http/v1/dto"
)

// PagoHandler handles payment endpoints.
type PagoHandler struct {
	*DocumentHandler[*pago.Pago]
	service *pago.Service
}

// NewPagoHandler creates a payment handler.
func NewPagoHandler(base *BaseHandler, service *pago.Service, doc *DocumentHandler[*pago.Pago]) *PagoHandler {
	return &PagoHandler{
		DocumentHandler: doc,
		service:         service,
	}
}

// Neto handles GET /pagos/:id/neto - the commission amounts to settle,
// adjustments included.
func (h *PagoHandler) Neto(c *gin.Context) {
	ctx := c.Request.Context()

	pagoID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	pg, err := h.service.GetByID(ctx, pagoID)
	if err != nil {
		h.Error(c, err)
		return
	}

	netoCia, err := h.service.NetoComisionCia(ctx, pg)
	if err != nil {
		h.Error(c, err)
		return
	}
	netoVendedor, err := h.service.NetoComisionVendedor(ctx, pg)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NetoResponse{
		ComisionCia:      netoCia.String(),
		ComisionVendedor: netoVendedor.String(),
	})
}

// RegisterRoutes registers payment routes.
func (h *PagoHandler) RegisterRoutes(rg *gin.RouterGroup, read, write gin.HandlerFunc) {
	h.RegisterCRUD(rg, read, write)
	rg.GET("/:id/neto", read, h.Neto)
	rg.POST("/:id/procesar", write, h.Action(h.service.Procesar))
	rg.POST("/:id/confirmar", write, h.Action(h.service.Confirmar))
	rg.POST("/:id/cancelar", write, h.Action(h.service.Cancelar))
	rg.POST("/:id/reabrir", write, h.Action(h.service.Reabrir))
}
