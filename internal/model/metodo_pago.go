package model

import (
	"time"

	"novaadm/internal/moneda"

	"github.com/google/uuid"
)

// MetodoPago is a payment channel (efectivo USD, pago movil, zelle...).
// Its Moneda decides which balance a cash movement affects.
type MetodoPago struct {
	ID        uuid.UUID     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EmpresaID uuid.UUID     `gorm:"type:uuid;not null;index"`
	Nombre    string        `gorm:"not null"`
	Moneda    moneda.Moneda `gorm:"type:varchar(3);not null"`
	Activo    bool          `gorm:"not null;default:true"`
	CreatedAt time.Time
}

func (MetodoPago) TableName() string { return "metodos_pago" }
