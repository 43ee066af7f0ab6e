package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

// CrearRetencionRequest is the body of POST /v1/retenciones/:tipo.
type CrearRetencionRequest struct {
	VentaID string `json:"venta_id" validate:"required,uuid"`
	// TipoServicio selects the ISLR rate; ignored for IVA and MUNICIPAL.
	TipoServicio string  `json:"tipo_servicio" validate:"omitempty,max=40"`
	EmailDestino *string `json:"email_destino" validate:"omitempty,email"`
}

// RetencionFilter is bound from query string of GET /v1/retenciones/:tipo.
type RetencionFilter struct {
	Estado string `form:"estado" validate:"omitempty,oneof=pendiente emitida anulada"`
	Desde  string `form:"desde"  validate:"omitempty,datetime=2006-01-02"`
	Hasta  string `form:"hasta"  validate:"omitempty,datetime=2006-01-02"`
	Page   int    `form:"page,default=1"   validate:"min=1"`
	Limit  int    `form:"limit,default=50" validate:"min=1,max=200"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type RetencionResponse struct {
	ID                string          `json:"id"`
	VentaID           string          `json:"venta_id"`
	Tipo              string          `json:"tipo"`
	NumeroComprobante string          `json:"numero_comprobante"`
	BaseImponible     decimal.Decimal `json:"base_imponible"`
	MontoBase         decimal.Decimal `json:"monto_base"`
	Porcentaje        decimal.Decimal `json:"porcentaje"`
	MontoRetenido     decimal.Decimal `json:"monto_retenido"`
	TipoServicio      *string         `json:"tipo_servicio"`
	Estado            string          `json:"estado"`
	PDFDisponible     bool            `json:"pdf_disponible"`
	FechaEmision      string          `json:"fecha_emision"`
}

type RetencionListResponse struct {
	Data  []RetencionResponse `json:"data"`
	Total int64               `json:"total"`
	Page  int                 `json:"page"`
	Limit int                 `json:"limit"`
}
