package handler

import (
	"net/http"
	"time"

	"novaadm/internal/apierror"
	"novaadm/internal/dto"
	"novaadm/internal/infra"
	"novaadm/internal/moneda"
	"novaadm/internal/service"

	"github.com/gin-gonic/gin"
)

type TasaHandler struct {
	svc  service.TasaService
	zona *time.Location
}

func NewTasaHandler(svc service.TasaService, zona *time.Location) *TasaHandler {
	if zona == nil {
		zona = time.UTC
	}
	return &TasaHandler{svc: svc, zona: zona}
}

// Actual godoc
// @Summary Tasa de cambio vigente
// @Description Recorre BCV, DolarAPI y ExchangeAPI; si todas fallan devuelve la ultima tasa guardada (DB_CACHE) o la constante de respaldo.
// @Tags tasa
// @Produce json
// @Security BearerAuth
// @Param moneda query string false "USD"
// @Success 200 {object} model.TasaCambio
// @Failure 503 {object} apierror.APIError
// @Router /v1/tasa/actual [get]
func (h *TasaHandler) Actual(c *gin.Context) {
	var q dto.TasaQuery
	if !bindQuery(c, &q) {
		return
	}
	t := h.svc.TasaActual(c.Request.Context(), moneda.Moneda(q.Moneda))
	if t == nil {
		fallar(c, apierror.ErrSinTasa)
		return
	}
	ok(c, http.StatusOK, t)
}

// Historial godoc
// @Summary Historial de tasas guardadas
// @Tags tasa
// @Produce json
// @Security BearerAuth
// @Param moneda query string false "USD"
// @Param desde  query string false "YYYY-MM-DD (default: hace 30 dias)"
// @Param hasta  query string false "YYYY-MM-DD (default: hoy)"
// @Success 200 {array} model.TasaCambio
// @Failure 400 {object} apierror.APIError
// @Router /v1/tasa/historial [get]
func (h *TasaHandler) Historial(c *gin.Context) {
	var q dto.TasaQuery
	if !bindQuery(c, &q) {
		return
	}
	hoy := infra.InicioDelDia(time.Now(), h.zona)
	desde, hasta := hoy.AddDate(0, 0, -30), hoy
	if q.Desde != "" {
		desde, _ = time.ParseInLocation(time.DateOnly, q.Desde, h.zona)
	}
	if q.Hasta != "" {
		hasta, _ = time.ParseInLocation(time.DateOnly, q.Hasta, h.zona)
	}

	tasas, err := h.svc.Historial(c.Request.Context(), moneda.Moneda(q.Moneda), desde, hasta)
	if err != nil {
		fallar(c, err)
		return
	}
	ok(c, http.StatusOK, tasas)
}
