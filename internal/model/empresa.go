package model

import (
	"time"

	"github.com/google/uuid"
)

// Empresa is the tenant every ledger record is scoped to.
type Empresa struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	RIF         string    `gorm:"column:rif;uniqueIndex;not null"`
	RazonSocial string    `gorm:"not null"`
	// AgenteRetencion marks companies designated by SENIAT to withhold IVA.
	AgenteRetencion bool `gorm:"not null;default:true"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (Empresa) TableName() string { return "empresas" }
