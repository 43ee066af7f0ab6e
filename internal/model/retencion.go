package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Tipos de retencion.
const (
	RetencionIVA       = "IVA"
	RetencionISLR      = "ISLR"
	RetencionMunicipal = "MUNICIPAL"
)

// Estados de retencion.
const (
	RetencionPendiente = "pendiente"
	RetencionEmitida   = "emitida"
	RetencionAnulada   = "anulada"
)

// Retencion stores an IVA, ISLR or municipal withholding applied to a sale.
// At most one per (venta, tipo); NumeroComprobante is "RET-<TIPO>-NNNNNN".
// Invariant: MontoRetenido = round2(MontoBase × Porcentaje / 100).
type Retencion struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EmpresaID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	VentaID           uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_retencion_venta_tipo"`
	Tipo              string          `gorm:"type:varchar(10);not null;uniqueIndex:idx_retencion_venta_tipo"`
	Secuencia         int64           `gorm:"not null"`
	NumeroComprobante string          `gorm:"type:varchar(20);not null"`
	BaseImponible     decimal.Decimal `gorm:"type:numeric(18,2);not null"`
	MontoBase         decimal.Decimal `gorm:"type:numeric(18,2);not null"`
	Porcentaje        decimal.Decimal `gorm:"type:numeric(5,2);not null"`
	MontoRetenido     decimal.Decimal `gorm:"type:numeric(18,2);not null"`
	TipoServicio      *string         `gorm:"type:varchar(40)"`
	Estado            string          `gorm:"type:varchar(20);not null;default:'pendiente'"`
	// PDFPath is the rendered file inside PDF_STORAGE_PATH
	PDFPath      *string `gorm:"column:pdf_path"`
	EmailDestino *string
	// Retry fields, used by the retry cron to re-render receipts that failed
	RetryCount   int        `gorm:"not null;default:0"`
	NextRetryAt  *time.Time `gorm:"column:next_retry_at"`
	LastError    *string
	FechaEmision time.Time `gorm:"not null;index"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Venta *Venta `gorm:"foreignKey:VentaID"`
}

func (Retencion) TableName() string { return "retenciones" }

// ContadorRetencion holds the last receipt sequence per (empresa, tipo).
// Incremented atomically with an upsert inside the creating transaction.
type ContadorRetencion struct {
	EmpresaID uuid.UUID `gorm:"type:uuid;primaryKey"`
	Tipo      string    `gorm:"type:varchar(10);primaryKey"`
	Ultimo    int64     `gorm:"not null;default:0"`
}

func (ContadorRetencion) TableName() string { return "contadores_retencion" }
