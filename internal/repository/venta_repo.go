package repository

import (
	"context"
	"time"

	"novaadm/internal/dto"
	"novaadm/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type VentaRepository interface {
	Create(ctx context.Context, tx *gorm.DB, v *model.Venta) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Venta, error)
	// LockForUpdate reads the sale with FOR UPDATE; payments against one sale
	// serialize on this lock.
	LockForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Venta, error)
	List(ctx context.Context, empresaID uuid.UUID, filter dto.VentaFilter) ([]model.Venta, int64, error)
	ListPeriodo(ctx context.Context, empresaID uuid.UUID, desde, hasta time.Time) ([]model.Venta, error)
	// ListConSaldo returns sales not yet pagada, oldest first. clienteID is optional.
	ListConSaldo(ctx context.Context, empresaID uuid.UUID, clienteID *uuid.UUID) ([]model.Venta, error)
	UpdateEstadoPago(ctx context.Context, tx *gorm.DB, id uuid.UUID, estado string) error

	CreatePago(ctx context.Context, tx *gorm.DB, p *model.PagoVenta) error
	SumPagos(ctx context.Context, tx *gorm.DB, ventaID uuid.UUID) (decimal.Decimal, error)
	SumPagosPorVenta(ctx context.Context, ventaIDs []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error)
	DB() *gorm.DB // exposes the DB for transaction creation in service layer
}

type ventaRepo struct{ db *gorm.DB }

func NewVentaRepository(db *gorm.DB) VentaRepository { return &ventaRepo{db: db} }

func (r *ventaRepo) DB() *gorm.DB { return r.db }

func (r *ventaRepo) Create(ctx context.Context, tx *gorm.DB, v *model.Venta) error {
	return conn(r.db, tx).WithContext(ctx).Omit(clause.Associations).Create(v).Error
}

func (r *ventaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Venta, error) {
	var v model.Venta
	err := r.db.WithContext(ctx).Preload("Cliente").Preload("Pagos").First(&v, "id = ?", id).Error
	return &v, err
}

func (r *ventaRepo) LockForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Venta, error) {
	var v model.Venta
	err := conn(r.db, tx).WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&v, "id = ?", id).Error
	return &v, err
}

func (r *ventaRepo) List(ctx context.Context, empresaID uuid.UUID, filter dto.VentaFilter) ([]model.Venta, int64, error) {
	var ventas []model.Venta
	var total int64
	offset := (filter.Page - 1) * filter.Limit

	q := r.db.WithContext(ctx).Model(&model.Venta{}).Where("empresa_id = ?", empresaID)

	if filter.Desde != "" {
		q = q.Where("fecha_emision >= ?", filter.Desde)
	}
	if filter.Hasta != "" {
		q = q.Where("fecha_emision < (?::date + 1)", filter.Hasta)
	}
	if filter.ClienteID != "" {
		q = q.Where("cliente_id = ?", filter.ClienteID)
	}
	if filter.EstadoPago != "" {
		q = q.Where("estado_pago = ?", filter.EstadoPago)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Preload("Cliente").
		Order("fecha_emision DESC, numero_factura DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&ventas).Error

	return ventas, total, err
}

func (r *ventaRepo) ListPeriodo(ctx context.Context, empresaID uuid.UUID, desde, hasta time.Time) ([]model.Venta, error) {
	var ventas []model.Venta
	err := r.db.WithContext(ctx).
		Preload("Cliente").
		Where("empresa_id = ? AND fecha_emision >= ? AND fecha_emision < ?", empresaID, desde, hasta.AddDate(0, 0, 1)).
		Find(&ventas).Error
	return ventas, err
}

func (r *ventaRepo) ListConSaldo(ctx context.Context, empresaID uuid.UUID, clienteID *uuid.UUID) ([]model.Venta, error) {
	var ventas []model.Venta
	q := r.db.WithContext(ctx).
		Where("empresa_id = ? AND estado_pago <> ?", empresaID, model.PagoPagada)
	if clienteID != nil {
		q = q.Where("cliente_id = ?", *clienteID)
	}
	err := q.Order("fecha_emision ASC").Find(&ventas).Error
	return ventas, err
}

func (r *ventaRepo) UpdateEstadoPago(ctx context.Context, tx *gorm.DB, id uuid.UUID, estado string) error {
	return conn(r.db, tx).WithContext(ctx).
		Model(&model.Venta{}).
		Where("id = ?", id).
		Update("estado_pago", estado).Error
}

func (r *ventaRepo) CreatePago(ctx context.Context, tx *gorm.DB, p *model.PagoVenta) error {
	return conn(r.db, tx).WithContext(ctx).Create(p).Error
}

func (r *ventaRepo) SumPagos(ctx context.Context, tx *gorm.DB, ventaID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := conn(r.db, tx).WithContext(ctx).
		Model(&model.PagoVenta{}).
		Select("COALESCE(SUM(monto), 0)").
		Where("venta_id = ?", ventaID).
		Scan(&sum).Error
	return sum, err
}

func (r *ventaRepo) SumPagosPorVenta(ctx context.Context, ventaIDs []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	out := make(map[uuid.UUID]decimal.Decimal, len(ventaIDs))
	if len(ventaIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		VentaID uuid.UUID
		Total   decimal.Decimal
	}
	err := r.db.WithContext(ctx).
		Model(&model.PagoVenta{}).
		Select("venta_id, SUM(monto) AS total").
		Where("venta_id IN ?", ventaIDs).
		Group("venta_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.VentaID] = row.Total
	}
	return out, nil
}
