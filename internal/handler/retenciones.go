package handler

import (
	"net/http"
	"path/filepath"

	"novaadm/internal/dto"
	"novaadm/internal/middleware"
	"novaadm/internal/service"

	"github.com/gin-gonic/gin"
)

type RetencionesHandler struct{ svc service.RetencionService }

func NewRetencionesHandler(svc service.RetencionService) *RetencionesHandler {
	return &RetencionesHandler{svc: svc}
}

// Crear godoc
// @Summary Emite un comprobante de retencion
// @Description IVA aplica 75% al contribuyente especial y 100% al ordinario sobre el IVA facturado. ISLR usa la tabla por tipo de servicio. El PDF se genera en segundo plano.
// @Tags retenciones
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param tipo path string true "iva | islr | municipal"
// @Param body body dto.CrearRetencionRequest true "Venta a retener"
// @Success 201 {object} dto.RetencionResponse
// @Failure 400 {object} apierror.APIError
// @Failure 404 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/retenciones/{tipo} [post]
func (h *RetencionesHandler) Crear(c *gin.Context) {
	var req dto.CrearRetencionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Crear(c.Request.Context(), middleware.EmpresaID(c), c.Param("tipo"), req)
	if err != nil {
		fallar(c, err)
		return
	}
	ok(c, http.StatusCreated, resp)
}

// Listar godoc
// @Summary Lista comprobantes de un tipo
// @Tags retenciones
// @Produce json
// @Security BearerAuth
// @Param tipo   path  string true  "iva | islr | municipal"
// @Param estado query string false "pendiente | emitida | anulada"
// @Param desde  query string false "YYYY-MM-DD"
// @Param hasta  query string false "YYYY-MM-DD"
// @Success 200 {object} dto.RetencionListResponse
// @Router /v1/retenciones/{tipo} [get]
func (h *RetencionesHandler) Listar(c *gin.Context) {
	var filter dto.RetencionFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.Listar(c.Request.Context(), middleware.EmpresaID(c), c.Param("tipo"), filter)
	if err != nil {
		fallar(c, err)
		return
	}
	ok(c, http.StatusOK, resp)
}

func (h *RetencionesHandler) Obtener(c *gin.Context) {
	id, valid := paramUUID(c, "id")
	if !valid {
		return
	}
	resp, err := h.svc.Obtener(c.Request.Context(), middleware.EmpresaID(c), c.Param("tipo"), id)
	if err != nil {
		fallar(c, err)
		return
	}
	ok(c, http.StatusOK, resp)
}

// Anular godoc
// @Summary Anula un comprobante
// @Description El numero de comprobante no se reutiliza.
// @Tags retenciones
// @Produce json
// @Security BearerAuth
// @Param tipo path string true "iva | islr | municipal"
// @Param id   path string true "ID del comprobante"
// @Success 200 {object} dto.RetencionResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/retenciones/{tipo}/{id} [delete]
func (h *RetencionesHandler) Anular(c *gin.Context) {
	id, valid := paramUUID(c, "id")
	if !valid {
		return
	}
	resp, err := h.svc.Anular(c.Request.Context(), middleware.EmpresaID(c), c.Param("tipo"), id)
	if err != nil {
		fallar(c, err)
		return
	}
	ok(c, http.StatusOK, resp)
}

// DescargarPDF godoc
// @Summary Descarga el PDF del comprobante
// @Tags retenciones
// @Produce application/pdf
// @Security BearerAuth
// @Param tipo path string true "iva | islr | municipal"
// @Param id   path string true "ID del comprobante"
// @Success 200 {file} binary
// @Failure 404 {object} apierror.APIError
// @Router /v1/retenciones/{tipo}/{id}/pdf [get]
func (h *RetencionesHandler) DescargarPDF(c *gin.Context) {
	id, valid := paramUUID(c, "id")
	if !valid {
		return
	}
	path, err := h.svc.ObtenerPDFPath(c.Request.Context(), middleware.EmpresaID(c), c.Param("tipo"), id)
	if err != nil {
		fallar(c, err)
		return
	}
	c.FileAttachment(path, filepath.Base(path))
}
