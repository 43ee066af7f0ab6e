package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type RegistrarPagoRequest struct {
	VentaID      string          `json:"venta_id"       validate:"required,uuid"`
	Monto        decimal.Decimal `json:"monto"          validate:"required,gt=0"` // in the method's currency
	MetodoPagoID string          `json:"metodo_pago_id" validate:"required,uuid"`
	Referencia   *string         `json:"referencia"     validate:"omitempty,max=80"`
}

// CobranzaFilter is bound from query string of GET /v1/cobranzas.
type CobranzaFilter struct {
	SoloVencidas bool   `form:"vencidas"`
	ClienteID    string `form:"cliente_id" validate:"omitempty,uuid"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type PagoResponse struct {
	ID            string          `json:"id"`
	VentaID       string          `json:"venta_id"`
	Monto         decimal.Decimal `json:"monto"` // USD
	Moneda        string          `json:"moneda"`
	MontoOriginal decimal.Decimal `json:"monto_original"`
	PagadoUSD     decimal.Decimal `json:"pagado_usd"`
	SaldoUSD      decimal.Decimal `json:"saldo_usd"`
	EstadoPago    string          `json:"estado_pago"`
	FechaPago     string          `json:"fecha_pago"`
}
