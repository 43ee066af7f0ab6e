package repository

import (
	"context"
	"time"

	"novaadm/internal/dto"
	"novaadm/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RetencionRepository interface {
	// ExisteParaVenta reports whether a withholding of tipo exists for the sale,
	// anuladas included.
	ExisteParaVenta(ctx context.Context, tx *gorm.DB, ventaID uuid.UUID, tipo string) (bool, error)
	// SiguienteSecuencia atomically increments the (empresa, tipo) counter and
	// returns the new value. Must run inside the creating transaction.
	SiguienteSecuencia(ctx context.Context, tx *gorm.DB, empresaID uuid.UUID, tipo string) (int64, error)
	Create(ctx context.Context, tx *gorm.DB, r *model.Retencion) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Retencion, error)
	List(ctx context.Context, empresaID uuid.UUID, tipo string, filter dto.RetencionFilter) ([]model.Retencion, int64, error)
	ListPeriodo(ctx context.Context, empresaID uuid.UUID, desde, hasta time.Time) ([]model.Retencion, error)
	Update(ctx context.Context, r *model.Retencion) error
	// ListPendingRetries returns receipts whose next_retry_at has passed.
	ListPendingRetries(ctx context.Context, limit int) ([]model.Retencion, error)
	DB() *gorm.DB
}

type retencionRepo struct{ db *gorm.DB }

func NewRetencionRepository(db *gorm.DB) RetencionRepository { return &retencionRepo{db: db} }

func (r *retencionRepo) DB() *gorm.DB { return r.db }

func (r *retencionRepo) ExisteParaVenta(ctx context.Context, tx *gorm.DB, ventaID uuid.UUID, tipo string) (bool, error) {
	var n int64
	err := conn(r.db, tx).WithContext(ctx).
		Model(&model.Retencion{}).
		Where("venta_id = ? AND tipo = ?", ventaID, tipo).
		Count(&n).Error
	return n > 0, err
}

func (r *retencionRepo) SiguienteSecuencia(ctx context.Context, tx *gorm.DB, empresaID uuid.UUID, tipo string) (int64, error) {
	var ultimo int64
	err := conn(r.db, tx).WithContext(ctx).Raw(`
		INSERT INTO contadores_retencion (empresa_id, tipo, ultimo)
		VALUES (?, ?, 1)
		ON CONFLICT (empresa_id, tipo)
		DO UPDATE SET ultimo = contadores_retencion.ultimo + 1
		RETURNING ultimo`, empresaID, tipo).
		Scan(&ultimo).Error
	return ultimo, err
}

func (r *retencionRepo) Create(ctx context.Context, tx *gorm.DB, ret *model.Retencion) error {
	return conn(r.db, tx).WithContext(ctx).Omit("Venta").Create(ret).Error
}

func (r *retencionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Retencion, error) {
	var ret model.Retencion
	err := r.db.WithContext(ctx).Preload("Venta.Cliente").First(&ret, "id = ?", id).Error
	return &ret, err
}

func (r *retencionRepo) List(ctx context.Context, empresaID uuid.UUID, tipo string, filter dto.RetencionFilter) ([]model.Retencion, int64, error) {
	var rets []model.Retencion
	var total int64
	offset := (filter.Page - 1) * filter.Limit

	q := r.db.WithContext(ctx).Model(&model.Retencion{}).
		Where("empresa_id = ? AND tipo = ?", empresaID, tipo)
	if filter.Estado != "" {
		q = q.Where("estado = ?", filter.Estado)
	}
	if filter.Desde != "" {
		q = q.Where("fecha_emision >= ?", filter.Desde)
	}
	if filter.Hasta != "" {
		q = q.Where("fecha_emision < (?::date + 1)", filter.Hasta)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("secuencia DESC").Offset(offset).Limit(filter.Limit).Find(&rets).Error
	return rets, total, err
}

func (r *retencionRepo) ListPeriodo(ctx context.Context, empresaID uuid.UUID, desde, hasta time.Time) ([]model.Retencion, error) {
	var rets []model.Retencion
	err := r.db.WithContext(ctx).
		Where("empresa_id = ? AND fecha_emision >= ? AND fecha_emision < ?", empresaID, desde, hasta.AddDate(0, 0, 1)).
		Find(&rets).Error
	return rets, err
}

func (r *retencionRepo) Update(ctx context.Context, ret *model.Retencion) error {
	return r.db.WithContext(ctx).Omit("Venta").Save(ret).Error
}

func (r *retencionRepo) ListPendingRetries(ctx context.Context, limit int) ([]model.Retencion, error) {
	var rets []model.Retencion
	err := r.db.WithContext(ctx).
		Where("next_retry_at IS NOT NULL AND next_retry_at <= ?", time.Now()).
		Order("next_retry_at ASC").
		Limit(limit).
		Find(&rets).Error
	return rets, err
}
