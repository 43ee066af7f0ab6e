package model

import (
	"time"

	"novaadm/internal/moneda"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	SesionAbierta = "abierta"
	SesionCerrada = "cerrada"
)

// Tipos de movimiento. Ingreso and venta add to the expected balance, the rest subtract.
const (
	MovIngreso    = "ingreso"
	MovEgreso     = "egreso"
	MovVenta      = "venta"
	MovDevolucion = "devolucion"
	MovGasto      = "gasto"
)

// SesionCaja represents the lifecycle of a cash register session.
// Estado: "abierta" | "cerrada". At most one abierta per empresa (partial unique index).
type SesionCaja struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EmpresaID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	UsuarioID       uuid.UUID       `gorm:"type:uuid;not null"`
	MontoInicialUSD decimal.Decimal `gorm:"column:monto_inicial_usd;type:numeric(18,2);not null"`
	MontoInicialBS  decimal.Decimal `gorm:"column:monto_inicial_bs;type:numeric(18,2);not null"`
	// TasaBCV is frozen when the session opens.
	TasaBCV decimal.Decimal `gorm:"column:tasa_bcv;type:numeric(18,6);not null"`
	// MontoEsperado equals MontoInicial until close, when it is recomputed from the movements.
	MontoEsperadoUSD  decimal.Decimal  `gorm:"column:monto_esperado_usd;type:numeric(18,2);not null"`
	MontoEsperadoBS   decimal.Decimal  `gorm:"column:monto_esperado_bs;type:numeric(18,2);not null"`
	MontoDeclaradoUSD *decimal.Decimal `gorm:"column:monto_declarado_usd;type:numeric(18,2)"`
	MontoDeclaradoBS  *decimal.Decimal `gorm:"column:monto_declarado_bs;type:numeric(18,2)"`
	DesvioUSD         *decimal.Decimal `gorm:"column:desvio_usd;type:numeric(18,2)"`
	DesvioBS          *decimal.Decimal `gorm:"column:desvio_bs;type:numeric(18,2)"`
	Estado            string           `gorm:"type:varchar(20);not null;default:'abierta'"`
	// ClasificacionDesvio: "normal" | "advertencia" | "critico"
	ClasificacionDesvio *string `gorm:"type:varchar(20)"`
	Observaciones       *string
	OpenedAt            time.Time
	ClosedAt            *time.Time

	Movimientos []MovimientoCaja `gorm:"foreignKey:SesionCajaID"`
}

func (SesionCaja) TableName() string { return "sesiones_caja" }

// MovimientoCaja is an immutable event in the cash register ledger.
// Monto is always positive; Tipo decides the sign. Moneda is copied from the
// payment method when the movement is written.
type MovimientoCaja struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SesionCajaID uuid.UUID       `gorm:"type:uuid;index;not null"`
	Tipo         string          `gorm:"type:varchar(20);not null"`
	MetodoPagoID uuid.UUID       `gorm:"type:uuid;not null"`
	Moneda       moneda.Moneda   `gorm:"type:varchar(3);not null"`
	Monto        decimal.Decimal `gorm:"type:numeric(18,2);not null"`
	Descripcion  string          `gorm:"not null"`
	// ReferenciaID links to the originating Venta or manual operation
	ReferenciaID *uuid.UUID `gorm:"type:uuid"`
	CreatedAt    time.Time
}

func (MovimientoCaja) TableName() string { return "movimientos_caja" }

// EsIngreso reports whether the movement adds to the expected balance.
func (m MovimientoCaja) EsIngreso() bool {
	return m.Tipo == MovIngreso || m.Tipo == MovVenta
}
