package handler

import (
	"net/http"

	"novaadm/internal/dto"
	"novaadm/internal/middleware"
	"novaadm/internal/service"

	"github.com/gin-gonic/gin"
)

type ReportesHandler struct{ svc service.ReporteService }

func NewReportesHandler(svc service.ReporteService) *ReportesHandler {
	return &ReportesHandler{svc: svc}
}

// Fiscal godoc
// @Summary Reporte fiscal del periodo
// @Description Totales de ventas, compras y retenciones por dia, moneda y tipo. Ambas fechas inclusive.
// @Tags reportes
// @Produce json
// @Security BearerAuth
// @Param desde query string true "YYYY-MM-DD"
// @Param hasta query string true "YYYY-MM-DD"
// @Success 200 {object} fiscal.ReporteFiscal
// @Failure 400 {object} apierror.APIError
// @Router /v1/reportes/fiscal [get]
func (h *ReportesHandler) Fiscal(c *gin.Context) {
	var q dto.ReporteFiscalQuery
	if !bindQuery(c, &q) {
		return
	}
	resp, err := h.svc.Fiscal(c.Request.Context(), middleware.EmpresaID(c), q.Desde, q.Hasta)
	if err != nil {
		fallar(c, err)
		return
	}
	ok(c, http.StatusOK, resp)
}
