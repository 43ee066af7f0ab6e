package model

import (
	"time"

	"novaadm/internal/moneda"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Fuentes de tasa, in lookup order. DB_CACHE and HARDCODED_FALLBACK are never persisted.
const (
	FuenteBCV         = "BCV"
	FuenteDolarAPI    = "DOLAR_API"
	FuenteExchangeAPI = "EXCHANGE_API"
	FuenteDBCache     = "DB_CACHE"
	FuenteFallback    = "HARDCODED_FALLBACK"
)

// TasaCambio is a BS-per-unit rate observation. Unique per (moneda, fecha),
// where Fecha is the local calendar day in Caracas.
type TasaCambio struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Moneda      moneda.Moneda   `gorm:"type:varchar(3);not null;uniqueIndex:idx_tasa_dia" json:"moneda"`
	Tasa        decimal.Decimal `gorm:"type:numeric(18,6);not null" json:"tasa"`
	Fuente      string          `gorm:"type:varchar(20);not null" json:"fuente"`
	Fecha       time.Time       `gorm:"type:date;not null;uniqueIndex:idx_tasa_dia" json:"fecha"`
	ObservadaEn time.Time       `gorm:"not null" json:"observada_en"`
}

func (TasaCambio) TableName() string { return "tasas_cambio" }
