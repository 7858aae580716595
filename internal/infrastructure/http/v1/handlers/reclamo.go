package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"corseg/internal/core/apperror"
	"corseg/internal/core/id"
	"corseg/internal/domain/reclamo"
	"corseg/internal/infrastructure/http/v1/dto"
)

// maxDocumentoSize caps attachment uploads at 20 MiB.
const maxDocumentoSize = 20 << 20

// ReclamoHandler handles claim endpoints.
type ReclamoHandler struct {
	*DocumentHandler[*reclamo.Reclamo]
	service *reclamo.Service
}

// NewReclamoHandler creates a claim handler.
func NewReclamoHandler(base *BaseHandler, service *reclamo.Service, doc *DocumentHandler[*reclamo.Reclamo]) *ReclamoHandler {
	return &ReclamoHandler{
		DocumentHandler: doc,
		service:         service,
	}
}

// AgregarComentario handles POST /reclamos/:id/comentarios
func (h *ReclamoHandler) AgregarComentario(c *gin.Context) {
	ctx := c.Request.Context()

	reclamoID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.ComentarioRequest
	if !h.BindJSON(c, &req) {
		return
	}

	comentario, err := h.service.AgregarComentario(ctx, reclamoID, req.Texto)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, comentario)
}

// AdjuntarDocumento handles POST /reclamos/:id/documentos (multipart upload).
func (h *ReclamoHandler) AdjuntarDocumento(c *gin.Context) {
	ctx := c.Request.Context()

	reclamoID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.Error(c, apperror.NewValidation("multipart field 'file' is required"))
		return
	}
	if fileHeader.Size > maxDocumentoSize {
		h.Error(c, apperror.NewValidation("file too large").
			WithDetail("max_bytes", maxDocumentoSize))
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		h.Error(c, apperror.NewInternal(err))
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxDocumentoSize+1))
	if err != nil {
		h.Error(c, apperror.NewInternal(err))
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	doc, err := h.service.AdjuntarDocumento(ctx, reclamoID, fileHeader.Filename, contentType, data)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, doc)
}

// DescargarDocumento handles GET /reclamos/:id/documentos/:docId
func (h *ReclamoHandler) DescargarDocumento(c *gin.Context) {
	ctx := c.Request.Context()

	reclamoID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}
	docID, err := id.Parse(c.Param("docId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid document id format"))
		return
	}

	r, err := h.service.GetByID(ctx, reclamoID)
	if err != nil {
		h.Error(c, err)
		return
	}

	var meta *reclamo.Documento
	for i := range r.Documentos {
		if r.Documentos[i].ID == docID {
			meta = &r.Documentos[i]
			break
		}
	}
	if meta == nil {
		h.Error(c, apperror.NewNotFound("documento", docID.String()))
		return
	}

	data, err := h.service.ObtenerDocumento(ctx, docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+meta.Nombre+`"`)
	c.Data(http.StatusOK, meta.ContentType, data)
}

// RegisterRoutes registers claim routes.
func (h *ReclamoHandler) RegisterRoutes(rg *gin.RouterGroup, read, write gin.HandlerFunc) {
	h.RegisterCRUD(rg, read, write)
	rg.POST("/:id/recibir", write, h.Action(h.service.Recibir))
	rg.POST("/:id/marcar-incompleto", write, h.Action(h.service.MarcarIncompleto))
	rg.POST("/:id/aprobar", write, h.Action(h.service.Aprobar))
	rg.POST("/:id/rechazar", write, h.Action(h.service.Rechazar))
	rg.POST("/:id/reconsiderar", write, h.Action(h.service.Reconsiderar))
	rg.POST("/:id/finiquitar", write, h.Action(h.service.Finiquitar))
	rg.POST("/:id/cancelar", write, h.Action(h.service.Cancelar))
	rg.POST("/:id/reabrir", write, h.Action(h.service.Reabrir))
	rg.POST("/:id/comentarios", write, h.AgregarComentario)
	rg.POST("/:id/documentos", write, h.AdjuntarDocumento)
	rg.GET("/:id/documentos/:docId", read, h.DescargarDocumento)
}
