package model

import (
	"time"

	"github.com/google/uuid"
)

// Cliente is a customer. ContribuyenteEspecial selects the reduced IVA
// withholding rate.
type Cliente struct {
	ID                    uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EmpresaID             uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_cliente_rif"`
	RIF                   string    `gorm:"column:rif;not null;uniqueIndex:idx_cliente_rif"`
	RazonSocial           string    `gorm:"not null"`
	Email                 *string
	Telefono              *string
	ContribuyenteEspecial bool `gorm:"not null;default:false"`
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

func (Cliente) TableName() string { return "clientes" }
