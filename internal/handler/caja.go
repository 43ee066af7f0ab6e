package handler

import (
	"net/http"
	"strconv"

	"novaadm/internal/apierror"
	"novaadm/internal/dto"
	"novaadm/internal/middleware"
	"novaadm/internal/service"

	"github.com/gin-gonic/gin"
)

type CajaHandler struct{ svc service.CajaService }

func NewCajaHandler(svc service.CajaService) *CajaHandler { return &CajaHandler{svc: svc} }

// Abrir godoc
// @Summary Abre la sesion de caja de la empresa
// @Description Congela la tasa BCV vigente. Solo puede haber una sesion abierta por empresa.
// @Tags caja
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.AbrirCajaRequest true "Montos de apertura por moneda"
// @Success 201 {object} dto.ReporteCajaResponse
// @Failure 409 {object} apierror.APIError
// @Failure 503 {object} apierror.APIError
// @Router /v1/caja/abrir [post]
func (h *CajaHandler) Abrir(c *gin.Context) {
	var req dto.AbrirCajaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Abrir(c.Request.Context(), middleware.EmpresaID(c), middleware.UsuarioID(c), req)
	if err != nil {
		fallar(c, err)
		return
	}
	ok(c, http.StatusCreated, resp)
}

// RegistrarMovimiento godoc
// @Summary Registra un movimiento en la sesion abierta
// @Description La moneda se toma del metodo de pago; el monto se redondea a 2 decimales.
// @Tags caja
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.MovimientoRequest true "Movimiento"
// @Success 201 {object} dto.MovimientoResponse
// @Failure 400 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/caja/movimiento [post]
func (h *CajaHandler) RegistrarMovimiento(c *gin.Context) {
	var req dto.MovimientoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.RegistrarMovimiento(c.Request.Context(), middleware.EmpresaID(c), req)
	if err != nil {
		fallar(c, err)
		return
	}
	ok(c, http.StatusCreated, resp)
}

// Cerrar godoc
// @Summary Arqueo ciego y cierre de la sesion
// @Description Compara lo declarado con lo esperado por moneda y clasifica el desvio.
// @Tags caja
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CerrarCajaRequest true "Montos declarados"
// @Success 200 {object} dto.ReporteCajaResponse
// @Failure 404 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/caja/cerrar [post]
func (h *CajaHandler) Cerrar(c *gin.Context) {
	var req dto.CerrarCajaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Cerrar(c.Request.Context(), middleware.EmpresaID(c), req)
	if err != nil {
		fallar(c, err)
		return
	}
	ok(c, http.StatusOK, resp)
}

// ObtenerReporte godoc
// @Summary Obtiene el reporte de una sesion de caja
// @Tags caja
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de sesion"
// @Success 200 {object} dto.ReporteCajaResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/caja/{id}/reporte [get]
func (h *CajaHandler) ObtenerReporte(c *gin.Context) {
	id, valid := paramUUID(c, "id")
	if !valid {
		return
	}
	resp, err := h.svc.ObtenerReporte(c.Request.Context(), middleware.EmpresaID(c), id)
	if err != nil {
		fallar(c, err)
		return
	}
	ok(c, http.StatusOK, resp)
}

// GetActiva returns the currently open cash session of the company.
func (h *CajaHandler) GetActiva(c *gin.Context) {
	resp, err := h.svc.GetActiva(c.Request.Context(), middleware.EmpresaID(c))
	if err != nil {
		fallar(c, err)
		return
	}
	if resp == nil {
		fallar(c, apierror.ErrSesionNoEncontrada.Con("sin sesion activa"))
		return
	}
	ok(c, http.StatusOK, resp)
}

// Historial returns the most recent sessions, newest first.
func (h *CajaHandler) Historial(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	resp, err := h.svc.Historial(c.Request.Context(), middleware.EmpresaID(c), limit)
	if err != nil {
		fallar(c, err)
		return
	}
	ok(c, http.StatusOK, resp)
}

// ── Metodos de pago ──────────────────────────────────────────────────────────

func (h *CajaHandler) CrearMetodoPago(c *gin.Context) {
	var req dto.CrearMetodoPagoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CrearMetodoPago(c.Request.Context(), middleware.EmpresaID(c), req)
	if err != nil {
		fallar(c, err)
		return
	}
	ok(c, http.StatusCreated, resp)
}

func (h *CajaHandler) ListarMetodosPago(c *gin.Context) {
	resp, err := h.svc.ListarMetodosPago(c.Request.Context(), middleware.EmpresaID(c))
	if err != nil {
		fallar(c, err)
		return
	}
	ok(c, http.StatusOK, resp)
}
