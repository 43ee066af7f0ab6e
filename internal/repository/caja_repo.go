package repository

import (
	"context"
	"time"

	"novaadm/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CajaRepository interface {
	CreateSesion(ctx context.Context, tx *gorm.DB, s *model.SesionCaja) error
	FindSesionAbierta(ctx context.Context, empresaID uuid.UUID) (*model.SesionCaja, error)
	FindSesionByID(ctx context.Context, id uuid.UUID) (*model.SesionCaja, error)
	// LockSesion reads the session with FOR UPDATE so movements and the close
	// of one session are serialized.
	LockSesion(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.SesionCaja, error)
	// CerrarSesion persists the close only if the session is still abierta.
	// Returns gorm.ErrRecordNotFound when another close won.
	CerrarSesion(ctx context.Context, tx *gorm.DB, s *model.SesionCaja) error
	CreateMovimiento(ctx context.Context, tx *gorm.DB, m *model.MovimientoCaja) error
	ListMovimientos(ctx context.Context, tx *gorm.DB, sesionCajaID uuid.UUID) ([]model.MovimientoCaja, error)
	ListSesiones(ctx context.Context, empresaID uuid.UUID, limit int) ([]model.SesionCaja, error)
	DB() *gorm.DB
}

type cajaRepo struct{ db *gorm.DB }

func NewCajaRepository(db *gorm.DB) CajaRepository { return &cajaRepo{db: db} }

func (r *cajaRepo) DB() *gorm.DB { return r.db }

func (r *cajaRepo) CreateSesion(ctx context.Context, tx *gorm.DB, s *model.SesionCaja) error {
	return conn(r.db, tx).WithContext(ctx).Create(s).Error
}

func (r *cajaRepo) FindSesionAbierta(ctx context.Context, empresaID uuid.UUID) (*model.SesionCaja, error) {
	var s model.SesionCaja
	err := r.db.WithContext(ctx).
		Where("empresa_id = ? AND estado = ?", empresaID, model.SesionAbierta).
		First(&s).Error
	return &s, err
}

func (r *cajaRepo) FindSesionByID(ctx context.Context, id uuid.UUID) (*model.SesionCaja, error) {
	var s model.SesionCaja
	err := r.db.WithContext(ctx).
		Preload("Movimientos", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		First(&s, "id = ?", id).Error
	return &s, err
}

func (r *cajaRepo) LockSesion(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.SesionCaja, error) {
	var s model.SesionCaja
	err := conn(r.db, tx).WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&s, "id = ?", id).Error
	return &s, err
}

func (r *cajaRepo) CerrarSesion(ctx context.Context, tx *gorm.DB, s *model.SesionCaja) error {
	closedAt := time.Now()
	if s.ClosedAt != nil {
		closedAt = *s.ClosedAt
	}
	res := conn(r.db, tx).WithContext(ctx).
		Model(&model.SesionCaja{}).
		Where("id = ? AND estado = ?", s.ID, model.SesionAbierta).
		Updates(map[string]interface{}{
			"monto_esperado_usd":   s.MontoEsperadoUSD,
			"monto_esperado_bs":    s.MontoEsperadoBS,
			"monto_declarado_usd":  s.MontoDeclaradoUSD,
			"monto_declarado_bs":   s.MontoDeclaradoBS,
			"desvio_usd":           s.DesvioUSD,
			"desvio_bs":            s.DesvioBS,
			"clasificacion_desvio": s.ClasificacionDesvio,
			"observaciones":        s.Observaciones,
			"estado":               model.SesionCerrada,
			"closed_at":            closedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *cajaRepo) CreateMovimiento(ctx context.Context, tx *gorm.DB, m *model.MovimientoCaja) error {
	return conn(r.db, tx).WithContext(ctx).Create(m).Error
}

func (r *cajaRepo) ListMovimientos(ctx context.Context, tx *gorm.DB, sesionCajaID uuid.UUID) ([]model.MovimientoCaja, error) {
	var movs []model.MovimientoCaja
	err := conn(r.db, tx).WithContext(ctx).
		Where("sesion_caja_id = ?", sesionCajaID).
		Order("created_at ASC").
		Find(&movs).Error
	return movs, err
}

func (r *cajaRepo) ListSesiones(ctx context.Context, empresaID uuid.UUID, limit int) ([]model.SesionCaja, error) {
	var sesiones []model.SesionCaja
	err := r.db.WithContext(ctx).
		Where("empresa_id = ?", empresaID).
		Order("opened_at DESC").
		Limit(limit).
		Find(&sesiones).Error
	return sesiones, err
}
