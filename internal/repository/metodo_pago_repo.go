package repository

import (
	"context"

	"novaadm/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MetodoPagoRepository interface {
	Create(ctx context.Context, m *model.MetodoPago) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.MetodoPago, error)
	List(ctx context.Context, empresaID uuid.UUID) ([]model.MetodoPago, error)
}

type metodoPagoRepo struct{ db *gorm.DB }

func NewMetodoPagoRepository(db *gorm.DB) MetodoPagoRepository { return &metodoPagoRepo{db: db} }

func (r *metodoPagoRepo) Create(ctx context.Context, m *model.MetodoPago) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *metodoPagoRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.MetodoPago, error) {
	var m model.MetodoPago
	err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error
	return &m, err
}

func (r *metodoPagoRepo) List(ctx context.Context, empresaID uuid.UUID) ([]model.MetodoPago, error) {
	var metodos []model.MetodoPago
	err := r.db.WithContext(ctx).
		Where("empresa_id = ? AND activo = true", empresaID).
		Order("nombre ASC").
		Find(&metodos).Error
	return metodos, err
}
