package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Proveedor is a vendor identified by its RIF within a company.
type Proveedor struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EmpresaID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_proveedor_rif"`
	RIF         string    `gorm:"column:rif;not null;uniqueIndex:idx_proveedor_rif"`
	RazonSocial string    `gorm:"not null"`
	Telefono    *string
	Email       *string
	Direccion   *string
	Activo      bool `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (Proveedor) TableName() string { return "proveedores" }

// Compra is a purchase invoice received from a vendor. ProveedorRIF is copied
// at write time so period reports group without a join.
type Compra struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EmpresaID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProveedorID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProveedorRIF  string          `gorm:"column:proveedor_rif;not null"`
	NumeroFactura string          `gorm:"not null"`
	SubtotalUSD   decimal.Decimal `gorm:"column:subtotal_usd;type:numeric(18,2);not null"`
	IVAUSD        decimal.Decimal `gorm:"column:iva_usd;type:numeric(18,2);not null"`
	TotalUSD      decimal.Decimal `gorm:"column:total_usd;type:numeric(18,2);not null"`
	TotalBS       decimal.Decimal `gorm:"column:total_bs;type:numeric(18,2);not null"`
	TasaBCV       decimal.Decimal `gorm:"column:tasa_bcv;type:numeric(18,6);not null"`
	Fecha         time.Time       `gorm:"not null;index"`
	CreatedAt     time.Time
}

func (Compra) TableName() string { return "compras" }
