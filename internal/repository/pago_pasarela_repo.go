package repository

import (
	"context"
	"time"

	"novaadm/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PagoPasarelaRepository interface {
	Create(ctx context.Context, tx *gorm.DB, p *model.PagoPasarela) error
	FindByReferencia(ctx context.Context, pasarela, referencia string) (*model.PagoPasarela, error)
	// SumPendienteUSD totals pending gateway payments on a sale created at or
	// after desde. Older pending payments no longer reserve balance.
	SumPendienteUSD(ctx context.Context, tx *gorm.DB, ventaID uuid.UUID, desde time.Time) (decimal.Decimal, error)
	// UpdateExterno stores the gateway's payment id and checkout URL.
	UpdateExterno(ctx context.Context, p *model.PagoPasarela) error
	// UpdateEstado moves a pago out of pendiente. Returns false when it was
	// already final, so repeated webhooks are no-ops.
	UpdateEstado(ctx context.Context, tx *gorm.DB, p *model.PagoPasarela, estado string) (bool, error)
	// Transicionar moves a pago from desde to hacia; false when it was not in desde.
	Transicionar(ctx context.Context, tx *gorm.DB, p *model.PagoPasarela, desde, hacia string) (bool, error)
}

type pagoPasarelaRepo struct{ db *gorm.DB }

func NewPagoPasarelaRepository(db *gorm.DB) PagoPasarelaRepository {
	return &pagoPasarelaRepo{db: db}
}

func (r *pagoPasarelaRepo) Create(ctx context.Context, tx *gorm.DB, p *model.PagoPasarela) error {
	return conn(r.db, tx).WithContext(ctx).Create(p).Error
}

func (r *pagoPasarelaRepo) FindByReferencia(ctx context.Context, pasarela, referencia string) (*model.PagoPasarela, error) {
	var p model.PagoPasarela
	err := r.db.WithContext(ctx).Where("pasarela = ? AND referencia = ?", pasarela, referencia).First(&p).Error
	return &p, err
}

func (r *pagoPasarelaRepo) SumPendienteUSD(ctx context.Context, tx *gorm.DB, ventaID uuid.UUID, desde time.Time) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := conn(r.db, tx).WithContext(ctx).
		Model(&model.PagoPasarela{}).
		Select("COALESCE(SUM(monto_usd), 0)").
		Where("venta_id = ? AND estado = ? AND created_at >= ?", ventaID, model.PasarelaPendiente, desde).
		Scan(&sum).Error
	return sum, err
}

func (r *pagoPasarelaRepo) UpdateExterno(ctx context.Context, p *model.PagoPasarela) error {
	return r.db.WithContext(ctx).
		Model(&model.PagoPasarela{}).
		Where("id = ?", p.ID).
		Updates(map[string]interface{}{"pago_externo_id": p.PagoExternoID, "url": p.URL}).Error
}

func (r *pagoPasarelaRepo) UpdateEstado(ctx context.Context, tx *gorm.DB, p *model.PagoPasarela, estado string) (bool, error) {
	return r.Transicionar(ctx, tx, p, model.PasarelaPendiente, estado)
}

func (r *pagoPasarelaRepo) Transicionar(ctx context.Context, tx *gorm.DB, p *model.PagoPasarela, desde, hacia string) (bool, error) {
	res := conn(r.db, tx).WithContext(ctx).
		Model(&model.PagoPasarela{}).
		Where("id = ? AND estado = ?", p.ID, desde).
		Update("estado", hacia)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	p.Estado = hacia
	return true, nil
}
