package dto

import (
	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type AbrirCajaRequest struct {
	MontoInicialUSD decimal.Decimal `json:"monto_inicial_usd" validate:"min=0"`
	MontoInicialBS  decimal.Decimal `json:"monto_inicial_bs"  validate:"min=0"`
}

type MovimientoRequest struct {
	SesionCajaID string          `json:"sesion_caja_id" validate:"required,uuid"`
	Tipo         string          `json:"tipo"           validate:"required,oneof=ingreso egreso venta devolucion gasto"`
	MetodoPagoID string          `json:"metodo_pago_id" validate:"required,uuid"`
	Monto        decimal.Decimal `json:"monto"          validate:"required,gt=0"`
	Descripcion  string          `json:"descripcion"    validate:"required,min=3"`
	ReferenciaID *string         `json:"referencia_id"  validate:"omitempty,uuid"`
}

type CerrarCajaRequest struct {
	SesionCajaID      string          `json:"sesion_caja_id"      validate:"required,uuid"`
	MontoDeclaradoUSD decimal.Decimal `json:"monto_declarado_usd" validate:"min=0"`
	MontoDeclaradoBS  decimal.Decimal `json:"monto_declarado_bs"  validate:"min=0"`
	Observaciones     *string         `json:"observaciones"`
}

type CrearMetodoPagoRequest struct {
	Nombre string `json:"nombre" validate:"required,min=2,max=60"`
	Moneda string `json:"moneda" validate:"required,oneof=USD BS"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

// MontosPorMoneda carries one value per currency.
type MontosPorMoneda struct {
	USD decimal.Decimal `json:"usd"`
	BS  decimal.Decimal `json:"bs"`
}

type MovimientoResponse struct {
	ID           string          `json:"id"`
	Tipo         string          `json:"tipo"`
	MetodoPagoID string          `json:"metodo_pago_id"`
	Moneda       string          `json:"moneda"`
	Monto        decimal.Decimal `json:"monto"`
	Descripcion  string          `json:"descripcion"`
	CreatedAt    string          `json:"created_at"`
}

type ReporteCajaResponse struct {
	SesionCajaID        string               `json:"sesion_caja_id"`
	UsuarioID           string               `json:"usuario_id"`
	TasaBCV             decimal.Decimal      `json:"tasa_bcv"`
	MontoInicial        MontosPorMoneda      `json:"monto_inicial"`
	Ingresos            MontosPorMoneda      `json:"ingresos"`
	Egresos             MontosPorMoneda      `json:"egresos"`
	MontoEsperado       MontosPorMoneda      `json:"monto_esperado"`
	MontoDeclarado      *MontosPorMoneda     `json:"monto_declarado"`
	Desvio              *MontosPorMoneda     `json:"desvio"`
	ClasificacionDesvio *string              `json:"clasificacion_desvio"` // normal | advertencia | critico
	Estado              string               `json:"estado"`
	Observaciones       *string              `json:"observaciones"`
	OpenedAt            string               `json:"opened_at"`
	ClosedAt            *string              `json:"closed_at"`
	Movimientos         []MovimientoResponse `json:"movimientos,omitempty"`
}

type MetodoPagoResponse struct {
	ID     string `json:"id"`
	Nombre string `json:"nombre"`
	Moneda string `json:"moneda"`
	Activo bool   `json:"activo"`
}
