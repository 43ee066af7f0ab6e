package repository

import (
	"context"
	"time"

	"novaadm/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CompraRepository interface {
	Create(ctx context.Context, c *model.Compra) error
	ListPeriodo(ctx context.Context, empresaID uuid.UUID, desde, hasta time.Time) ([]model.Compra, error)
}

type compraRepo struct{ db *gorm.DB }

func NewCompraRepository(db *gorm.DB) CompraRepository { return &compraRepo{db: db} }

func (r *compraRepo) Create(ctx context.Context, c *model.Compra) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *compraRepo) ListPeriodo(ctx context.Context, empresaID uuid.UUID, desde, hasta time.Time) ([]model.Compra, error) {
	var compras []model.Compra
	err := r.db.WithContext(ctx).
		Where("empresa_id = ? AND fecha >= ? AND fecha < ?", empresaID, desde, hasta.AddDate(0, 0, 1)).
		Find(&compras).Error
	return compras, err
}
