package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"corseg/internal/core/apperror"
	"corseg/internal/core/numerator"
	"corseg/internal/domain/configuration"
	"corseg/internal/infrastructure/http/v1/dto"
)

// configKeys maps URL segments to configuration keys.
var configKeys = map[string]configuration.Key{
	"movimiento":   configuration.KeyNumeradorMovimiento,
	"pago":         configuration.KeyNumeradorPago,
	"liq-cia":      configuration.KeyNumeradorLiqCia,
	"liq-vendedor": configuration.KeyNumeradorLiqVendedor,
	"ajuste":       configuration.KeyNumeradorAjuste,
	"reclamo":      configuration.KeyNumeradorReclamo,
}

// ConfigurationHandler handles per-company configuration endpoints.
type ConfigurationHandler struct {
	*BaseHandler
	service *configuration.Service
}

// NewConfigurationHandler creates a configuration handler.
func NewConfigurationHandler(base *BaseHandler, service *configuration.Service) *ConfigurationHandler {
	return &ConfigurationHandler{
		BaseHandler: base,
		service:     service,
	}
}

func (h *ConfigurationHandler) key(c *gin.Context) (configuration.Key, bool) {
	key, ok := configKeys[c.Param("key")]
	if !ok {
		h.Error(c, apperror.NewValidation("unknown numerator key").
			WithDetail("key", c.Param("key")))
		return "", false
	}
	return key, true
}

// GetNumerator handles GET /configuration/numeradores/:key
func (h *ConfigurationHandler) GetNumerator(c *gin.Context) {
	key, ok := h.key(c)
	if !ok {
		return
	}

	cfg := h.service.Numerator(c.Request.Context(), key)
	c.JSON(http.StatusOK, dto.NumeratorConfigResponse{
		Key:         string(key),
		Prefix:      cfg.Prefix,
		IncludeYear: cfg.IncludeYear,
		PadWidth:    cfg.PadWidth,
		ResetPeriod: cfg.ResetPeriod,
	})
}

// SetNumerator handles PUT /configuration/numeradores/:key
func (h *ConfigurationHandler) SetNumerator(c *gin.Context) {
	key, ok := h.key(c)
	if !ok {
		return
	}

	var req dto.NumeratorConfigRequest
	if !h.BindJSON(c, &req) {
		return
	}

	cfg := numerator.Config{
		Prefix:      req.Prefix,
		IncludeYear: req.IncludeYear,
		PadWidth:    req.PadWidth,
		ResetPeriod: req.ResetPeriod,
	}
	if err := h.service.Set(c.Request.Context(), key, cfg); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "numerator updated")
}

// ResetNumerator handles DELETE /configuration/numeradores/:key
func (h *ConfigurationHandler) ResetNumerator(c *gin.Context) {
	key, ok := h.key(c)
	if !ok {
		return
	}

	if err := h.service.Reset(c.Request.Context(), key); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "numerator reset to default")
}

// RegisterRoutes registers configuration routes.
func (h *ConfigurationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/numeradores/:key", h.GetNumerator)
	rg.PUT("/numeradores/:key", h.SetNumerator)
	rg.DELETE("/numeradores/:key", h.ResetNumerator)
}
