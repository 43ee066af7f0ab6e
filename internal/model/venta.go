package model

import (
	"time"

	"novaadm/internal/moneda"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Estados de pago de una venta.
const (
	PagoPendiente = "pendiente"
	PagoParcial   = "parcial"
	PagoPagada    = "pagada"
)

// Venta is an issued sale invoice. TotalBS and TasaBCV are frozen at issue time.
type Venta struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EmpresaID     uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_venta_factura"`
	NumeroFactura string          `gorm:"not null;uniqueIndex:idx_venta_factura"`
	ClienteID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	UsuarioID     uuid.UUID       `gorm:"type:uuid;not null"`
	SubtotalUSD   decimal.Decimal `gorm:"column:subtotal_usd;type:numeric(18,2);not null"`
	AlicuotaIVA   decimal.Decimal `gorm:"column:alicuota_iva;type:numeric(5,2);not null"`
	IVAUSD        decimal.Decimal `gorm:"column:iva_usd;type:numeric(18,2);not null"`
	TotalUSD      decimal.Decimal `gorm:"column:total_usd;type:numeric(18,2);not null"`
	TotalBS       decimal.Decimal `gorm:"column:total_bs;type:numeric(18,2);not null"`
	TasaBCV       decimal.Decimal `gorm:"column:tasa_bcv;type:numeric(18,6);not null"`
	EstadoPago    string          `gorm:"type:varchar(20);not null;default:'pendiente'"`
	TipoServicio  *string         `gorm:"type:varchar(40)"`
	FechaEmision  time.Time       `gorm:"not null;index"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Cliente *Cliente    `gorm:"foreignKey:ClienteID"`
	Pagos   []PagoVenta `gorm:"foreignKey:VentaID"`
}

func (Venta) TableName() string { return "ventas" }

// PagoVenta is a payment applied to a sale. Monto is in USD; a BS payment keeps
// its original amount and is converted at the sale's frozen rate.
type PagoVenta struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	VentaID       uuid.UUID       `gorm:"type:uuid;index;not null"`
	MetodoPagoID  uuid.UUID       `gorm:"type:uuid;not null"`
	Monto         decimal.Decimal `gorm:"type:numeric(18,2);not null"`
	Moneda        moneda.Moneda   `gorm:"type:varchar(3);not null;default:'USD'"`
	MontoOriginal decimal.Decimal `gorm:"column:monto_original;type:numeric(18,2);not null"`
	Referencia    *string
	FechaPago     time.Time `gorm:"not null"`
	CreatedAt     time.Time
}

func (PagoVenta) TableName() string { return "pagos_venta" }
