package repository

import (
	"context"
	"time"

	"novaadm/internal/model"
	"novaadm/internal/moneda"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TasaRepository interface {
	FindPorFecha(ctx context.Context, m moneda.Moneda, fecha time.Time) (*model.TasaCambio, error)
	Ultima(ctx context.Context, m moneda.Moneda) (*model.TasaCambio, error)
	// CreateSiNoExiste inserts t unless a row for (moneda, fecha) exists.
	// Reports whether the row was written.
	CreateSiNoExiste(ctx context.Context, t *model.TasaCambio) (bool, error)
	Historial(ctx context.Context, m moneda.Moneda, desde, hasta time.Time) ([]model.TasaCambio, error)
}

type tasaRepo struct{ db *gorm.DB }

func NewTasaRepository(db *gorm.DB) TasaRepository { return &tasaRepo{db: db} }

func (r *tasaRepo) FindPorFecha(ctx context.Context, m moneda.Moneda, fecha time.Time) (*model.TasaCambio, error) {
	var t model.TasaCambio
	err := r.db.WithContext(ctx).
		Where("moneda = ? AND fecha = ?", m, fecha.Format("2006-01-02")).
		First(&t).Error
	return &t, err
}

func (r *tasaRepo) Ultima(ctx context.Context, m moneda.Moneda) (*model.TasaCambio, error) {
	var t model.TasaCambio
	err := r.db.WithContext(ctx).
		Where("moneda = ?", m).
		Order("fecha DESC, observada_en DESC").
		First(&t).Error
	return &t, err
}

func (r *tasaRepo) CreateSiNoExiste(ctx context.Context, t *model.TasaCambio) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "moneda"}, {Name: "fecha"}},
			DoNothing: true,
		}).
		Create(t)
	return res.RowsAffected > 0, res.Error
}

func (r *tasaRepo) Historial(ctx context.Context, m moneda.Moneda, desde, hasta time.Time) ([]model.TasaCambio, error) {
	var tasas []model.TasaCambio
	err := r.db.WithContext(ctx).
		Where("moneda = ? AND fecha BETWEEN ? AND ?", m, desde.Format("2006-01-02"), hasta.Format("2006-01-02")).
		Order("fecha DESC").
		Find(&tasas).Error
	return tasas, err
}
