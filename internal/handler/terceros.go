package handler

import (
	"net/http"

	"novaadm/internal/dto"
	"novaadm/internal/middleware"
	"novaadm/internal/service"

	"github.com/gin-gonic/gin"
)

// TercerosHandler serves clients, vendors and purchases.
type TercerosHandler struct{ svc service.TerceroService }

func NewTercerosHandler(svc service.TerceroService) *TercerosHandler {
	return &TercerosHandler{svc: svc}
}

// CrearCliente godoc
// @Summary Registra un cliente
// @Tags clientes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CrearClienteRequest true "Cliente"
// @Success 201 {object} dto.ClienteResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/clientes [post]
func (h *TercerosHandler) CrearCliente(c *gin.Context) {
	var req dto.CrearClienteRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CrearCliente(c.Request.Context(), middleware.EmpresaID(c), req)
	if err != nil {
		fallar(c, err)
		return
	}
	ok(c, http.StatusCreated, resp)
}

func (h *TercerosHandler) ListarClientes(c *gin.Context) {
	resp, err := h.svc.ListarClientes(c.Request.Context(), middleware.EmpresaID(c))
	if err != nil {
		fallar(c, err)
		return
	}
	ok(c, http.StatusOK, resp)
}

// CrearProveedor godoc
// @Summary Registra un proveedor
// @Tags proveedores
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CrearProveedorRequest true "Proveedor"
// @Success 201 {object} dto.ProveedorResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/proveedores [post]
func (h *TercerosHandler) CrearProveedor(c *gin.Context) {
	var req dto.CrearProveedorRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CrearProveedor(c.Request.Context(), middleware.EmpresaID(c), req)
	if err != nil {
		fallar(c, err)
		return
	}
	ok(c, http.StatusCreated, resp)
}

func (h *TercerosHandler) ListarProveedores(c *gin.Context) {
	resp, err := h.svc.ListarProveedores(c.Request.Context(), middleware.EmpresaID(c))
	if err != nil {
		fallar(c, err)
		return
	}
	ok(c, http.StatusOK, resp)
}

func (h *TercerosHandler) DesactivarProveedor(c *gin.Context) {
	id, valid := paramUUID(c, "id")
	if !valid {
		return
	}
	if err := h.svc.DesactivarProveedor(c.Request.Context(), middleware.EmpresaID(c), id); err != nil {
		fallar(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RegistrarCompra godoc
// @Summary Registra una factura de compra
// @Description Convierte el total a BS con la tasa vigente.
// @Tags compras
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.RegistrarCompraRequest true "Compra"
// @Success 201 {object} dto.CompraResponse
// @Failure 404 {object} apierror.APIError
// @Failure 503 {object} apierror.APIError
// @Router /v1/compras [post]
func (h *TercerosHandler) RegistrarCompra(c *gin.Context) {
	var req dto.RegistrarCompraRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.RegistrarCompra(c.Request.Context(), middleware.EmpresaID(c), req)
	if err != nil {
		fallar(c, err)
		return
	}
	ok(c, http.StatusCreated, resp)
}
