package handler

import (
	"io"
	"net/http"

	"novaadm/internal/apierror"
	"novaadm/internal/dto"
	"novaadm/internal/middleware"
	"novaadm/internal/service"

	"github.com/gin-gonic/gin"
)

// FirmaHeader carries the gateway's HMAC-SHA256 of the raw webhook body.
const FirmaHeader = "X-Signature"

const maxWebhookBody = 64 << 10

type PasarelasHandler struct{ svc service.PasarelaService }

func NewPasarelasHandler(svc service.PasarelaService) *PasarelasHandler {
	return &PasarelasHandler{svc: svc}
}

// Iniciar godoc
// @Summary Inicia un cobro en una pasarela externa
// @Tags pasarelas
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param pasarela path string true "pagomovil | tarjeta"
// @Param body body dto.IniciarPagoRequest true "Pago"
// @Success 201 {object} dto.IniciarPagoResponse
// @Failure 409 {object} apierror.APIError
// @Failure 503 {object} apierror.APIError
// @Router /v1/pasarelas/{pasarela}/pagos [post]
func (h *PasarelasHandler) Iniciar(c *gin.Context) {
	var req dto.IniciarPagoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Iniciar(c.Request.Context(), middleware.EmpresaID(c), c.Param("pasarela"), req)
	if err != nil {
		fallar(c, err)
		return
	}
	ok(c, http.StatusCreated, resp)
}

// Webhook godoc
// @Summary Notificacion de la pasarela
// @Description Autenticado por firma HMAC del cuerpo, no por JWT. Eventos repetidos se aceptan sin efecto.
// @Tags pasarelas
// @Accept json
// @Produce json
// @Param pasarela path string true "pagomovil | tarjeta"
// @Success 200
// @Failure 401 {object} apierror.APIError
// @Router /webhooks/{pasarela} [post]
func (h *PasarelasHandler) Webhook(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		fallar(c, apierror.Validar("cuerpo ilegible"))
		return
	}
	if err := h.svc.ProcesarWebhook(c.Request.Context(), c.Param("pasarela"), raw, c.GetHeader(FirmaHeader)); err != nil {
		fallar(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"recibido": true})
}
