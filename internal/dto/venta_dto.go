package dto

import "github.com/shopspring/decimal"

// ─── Filter / List ──────────────────────────────────────────────────────────

// VentaFilter is bound from query string of GET /v1/ventas.
type VentaFilter struct {
	Desde      string `form:"desde"       validate:"omitempty,datetime=2006-01-02"`
	Hasta      string `form:"hasta"       validate:"omitempty,datetime=2006-01-02"`
	ClienteID  string `form:"cliente_id"  validate:"omitempty,uuid"`
	EstadoPago string `form:"estado_pago" validate:"omitempty,oneof=pendiente parcial pagada"`
	Page       int    `form:"page,default=1"   validate:"min=1"`
	Limit      int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type VentaListResponse struct {
	Data  []VentaResponse `json:"data"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

type RegistrarVentaRequest struct {
	NumeroFactura string          `json:"numero_factura" validate:"required,min=1,max=40"`
	ClienteID     string          `json:"cliente_id"     validate:"required,uuid"`
	SubtotalUSD   decimal.Decimal `json:"subtotal_usd"   validate:"required,gt=0"`
	// AlicuotaIVA overrides the configured rate (percentage); nil uses the default.
	AlicuotaIVA  *decimal.Decimal `json:"alicuota_iva"  validate:"omitempty"`
	TipoServicio *string          `json:"tipo_servicio" validate:"omitempty,max=40"`
	FechaEmision *string          `json:"fecha_emision" validate:"omitempty,datetime=2006-01-02"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type VentaResponse struct {
	ID            string          `json:"id"`
	NumeroFactura string          `json:"numero_factura"`
	ClienteID     string          `json:"cliente_id"`
	ClienteRIF    string          `json:"cliente_rif,omitempty"`
	SubtotalUSD   decimal.Decimal `json:"subtotal_usd"`
	AlicuotaIVA   decimal.Decimal `json:"alicuota_iva"`
	IVAUSD        decimal.Decimal `json:"iva_usd"`
	TotalUSD      decimal.Decimal `json:"total_usd"`
	TotalBS       decimal.Decimal `json:"total_bs"`
	TasaBCV       decimal.Decimal `json:"tasa_bcv"`
	EstadoPago    string          `json:"estado_pago"`
	TipoServicio  *string         `json:"tipo_servicio"`
	FechaEmision  string          `json:"fecha_emision"`
}
