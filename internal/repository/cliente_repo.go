package repository

import (
	"context"

	"novaadm/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ClienteRepository interface {
	Create(ctx context.Context, c *model.Cliente) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Cliente, error)
	FindByRIF(ctx context.Context, empresaID uuid.UUID, rif string) (*model.Cliente, error)
	List(ctx context.Context, empresaID uuid.UUID) ([]model.Cliente, error)
}

type clienteRepo struct{ db *gorm.DB }

func NewClienteRepository(db *gorm.DB) ClienteRepository { return &clienteRepo{db: db} }

func (r *clienteRepo) Create(ctx context.Context, c *model.Cliente) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *clienteRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Cliente, error) {
	var c model.Cliente
	err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error
	return &c, err
}

func (r *clienteRepo) FindByRIF(ctx context.Context, empresaID uuid.UUID, rif string) (*model.Cliente, error) {
	var c model.Cliente
	err := r.db.WithContext(ctx).Where("empresa_id = ? AND rif = ?", empresaID, rif).First(&c).Error
	return &c, err
}

func (r *clienteRepo) List(ctx context.Context, empresaID uuid.UUID) ([]model.Cliente, error) {
	var clientes []model.Cliente
	err := r.db.WithContext(ctx).
		Where("empresa_id = ?", empresaID).
		Order("razon_social ASC").
		Find(&clientes).Error
	return clientes, err
}
