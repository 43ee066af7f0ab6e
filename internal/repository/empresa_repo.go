package repository

import (
	"context"

	"novaadm/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EmpresaRepository interface {
	Create(ctx context.Context, e *model.Empresa) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Empresa, error)
	FindByRIF(ctx context.Context, rif string) (*model.Empresa, error)
}

type empresaRepo struct{ db *gorm.DB }

func NewEmpresaRepository(db *gorm.DB) EmpresaRepository { return &empresaRepo{db: db} }

func (r *empresaRepo) Create(ctx context.Context, e *model.Empresa) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *empresaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Empresa, error) {
	var e model.Empresa
	err := r.db.WithContext(ctx).First(&e, "id = ?", id).Error
	return &e, err
}

func (r *empresaRepo) FindByRIF(ctx context.Context, rif string) (*model.Empresa, error) {
	var e model.Empresa
	err := r.db.WithContext(ctx).Where("rif = ?", rif).First(&e).Error
	return &e, err
}
