package dto

import "github.com/shopspring/decimal"

type IniciarPagoRequest struct {
	VentaID      string          `json:"venta_id"       validate:"required,uuid"`
	MetodoPagoID string          `json:"metodo_pago_id" validate:"required,uuid"`
	Monto        decimal.Decimal `json:"monto"          validate:"required,gt=0"` // in the method's currency
}

type IniciarPagoResponse struct {
	ID         string          `json:"id"`
	Pasarela   string          `json:"pasarela"`
	Referencia string          `json:"referencia"`
	PagoID     string          `json:"pago_id"`
	URL        string          `json:"url"`
	Monto      decimal.Decimal `json:"monto"`
	Moneda     string          `json:"moneda"`
	MontoUSD   decimal.Decimal `json:"monto_usd"`
	Estado     string          `json:"estado"`
}
