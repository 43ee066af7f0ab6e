package handler

import (
	"net/http"

	"novaadm/internal/dto"
	"novaadm/internal/middleware"
	"novaadm/internal/service"

	"github.com/gin-gonic/gin"
)

type CobranzasHandler struct{ svc service.CobranzaService }

func NewCobranzasHandler(svc service.CobranzaService) *CobranzasHandler {
	return &CobranzasHandler{svc: svc}
}

// RegistrarPago godoc
// @Summary Registra un pago contra una factura
// @Description Rechaza pagos que excedan el saldo pendiente (409 SOBREPAGO).
// @Tags cobranzas
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.RegistrarPagoRequest true "Pago"
// @Success 201 {object} dto.PagoResponse
// @Failure 404 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/cobranzas/pagos [post]
func (h *CobranzasHandler) RegistrarPago(c *gin.Context) {
	var req dto.RegistrarPagoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.RegistrarPago(c.Request.Context(), middleware.EmpresaID(c), req)
	if err != nil {
		fallar(c, err)
		return
	}
	ok(c, http.StatusCreated, resp)
}

// Listar godoc
// @Summary Cuentas por cobrar con saldo
// @Tags cobranzas
// @Produce json
// @Security BearerAuth
// @Param vencidas   query bool   false "Solo vencidas"
// @Param cliente_id query string false "UUID del cliente"
// @Success 200 {array} fiscal.CuentaPorCobrar
// @Router /v1/cobranzas [get]
func (h *CobranzasHandler) Listar(c *gin.Context) {
	var filter dto.CobranzaFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.Listar(c.Request.Context(), middleware.EmpresaID(c), filter)
	if err != nil {
		fallar(c, err)
		return
	}
	ok(c, http.StatusOK, resp)
}

func (h *CobranzasHandler) Obtener(c *gin.Context) {
	id, valid := paramUUID(c, "venta_id")
	if !valid {
		return
	}
	resp, err := h.svc.Obtener(c.Request.Context(), middleware.EmpresaID(c), id)
	if err != nil {
		fallar(c, err)
		return
	}
	ok(c, http.StatusOK, resp)
}
