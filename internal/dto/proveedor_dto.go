package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CrearProveedorRequest struct {
	RIF         string  `json:"rif"          validate:"required,rif"`
	RazonSocial string  `json:"razon_social" validate:"required,min=2,max=200"`
	Telefono    *string `json:"telefono"     validate:"omitempty,max=40"`
	Email       *string `json:"email"        validate:"omitempty,email"`
	Direccion   *string `json:"direccion"`
}

type CrearClienteRequest struct {
	RIF                   string  `json:"rif"                    validate:"required,rif"`
	RazonSocial           string  `json:"razon_social"           validate:"required,min=2,max=200"`
	Email                 *string `json:"email"                  validate:"omitempty,email"`
	Telefono              *string `json:"telefono"               validate:"omitempty,max=40"`
	ContribuyenteEspecial bool    `json:"contribuyente_especial"`
}

type RegistrarCompraRequest struct {
	ProveedorID   string          `json:"proveedor_id"   validate:"required,uuid"`
	NumeroFactura string          `json:"numero_factura" validate:"required,min=1,max=40"`
	SubtotalUSD   decimal.Decimal `json:"subtotal_usd"   validate:"required,gt=0"`
	IVAUSD        decimal.Decimal `json:"iva_usd"        validate:"min=0"`
	Fecha         *string         `json:"fecha"          validate:"omitempty,datetime=2006-01-02"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ProveedorResponse struct {
	ID          string  `json:"id"`
	RIF         string  `json:"rif"`
	RazonSocial string  `json:"razon_social"`
	Telefono    *string `json:"telefono"`
	Email       *string `json:"email"`
	Direccion   *string `json:"direccion"`
	Activo      bool    `json:"activo"`
}

type ClienteResponse struct {
	ID                    string  `json:"id"`
	RIF                   string  `json:"rif"`
	RazonSocial           string  `json:"razon_social"`
	Email                 *string `json:"email"`
	Telefono              *string `json:"telefono"`
	ContribuyenteEspecial bool    `json:"contribuyente_especial"`
}

type CompraResponse struct {
	ID            string          `json:"id"`
	ProveedorID   string          `json:"proveedor_id"`
	ProveedorRIF  string          `json:"proveedor_rif"`
	NumeroFactura string          `json:"numero_factura"`
	SubtotalUSD   decimal.Decimal `json:"subtotal_usd"`
	IVAUSD        decimal.Decimal `json:"iva_usd"`
	TotalUSD      decimal.Decimal `json:"total_usd"`
	TotalBS       decimal.Decimal `json:"total_bs"`
	TasaBCV       decimal.Decimal `json:"tasa_bcv"`
	Fecha         string          `json:"fecha"`
}
