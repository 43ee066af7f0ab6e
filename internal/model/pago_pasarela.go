package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Estados de un pago iniciado en una pasarela.
const (
	PasarelaPendiente = "pendiente"
	PasarelaAprobado  = "aprobado"
	PasarelaRechazado = "rechazado"
	PasarelaExpirado  = "expirado"
	// PasarelaFallido: the gateway never created the payment.
	PasarelaFallido = "fallido"
	// PasarelaExcedente: approved by the gateway but the sale was already
	// covered; the money is not applied and needs a manual refund.
	PasarelaExcedente = "excedente"
)

// PagoPasarela tracks a payment started on an external gateway until its
// webhook reports a final state. Referencia is our id, sent to the gateway.
// Monto is in Moneda; MontoUSD is the same amount at the sale's frozen rate.
type PagoPasarela struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EmpresaID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	VentaID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	MetodoPagoID  uuid.UUID       `gorm:"type:uuid;not null"`
	Pasarela      string          `gorm:"type:varchar(20);not null"`
	Referencia    string          `gorm:"type:varchar(40);uniqueIndex;not null"`
	PagoExternoID string          `gorm:"type:varchar(80);index"`
	URL           string          `gorm:"column:url"`
	Monto         decimal.Decimal `gorm:"type:numeric(18,2);not null"`
	MontoUSD      decimal.Decimal `gorm:"column:monto_usd;type:numeric(18,2);not null"`
	Moneda        string          `gorm:"type:varchar(3);not null"`
	Estado        string          `gorm:"type:varchar(20);not null;default:'pendiente'"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (PagoPasarela) TableName() string { return "pagos_pasarela" }
