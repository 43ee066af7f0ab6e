package service

import (
	"context"
	"errors"
	"time"

	"novaadm/internal/apierror"
	"novaadm/internal/dto"
	"novaadm/internal/fiscal"
	"novaadm/internal/model"
	"novaadm/internal/repository"
	"novaadm/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type RetencionService interface {
	Crear(ctx context.Context, empresaID uuid.UUID, tipo string, req dto.CrearRetencionRequest) (*dto.RetencionResponse, error)
	Listar(ctx context.Context, empresaID uuid.UUID, tipo string, filter dto.RetencionFilter) (*dto.RetencionListResponse, error)
	Obtener(ctx context.Context, empresaID uuid.UUID, tipo string, id uuid.UUID) (*dto.RetencionResponse, error)
	Anular(ctx context.Context, empresaID uuid.UUID, tipo string, id uuid.UUID) (*dto.RetencionResponse, error)
	ObtenerPDFPath(ctx context.Context, empresaID uuid.UUID, tipo string, id uuid.UUID) (string, error)
}

type retencionService struct {
	repo       repository.RetencionRepository
	ventas     repository.VentaRepository
	dispatcher *worker.Dispatcher
}

func NewRetencionService(repo repository.RetencionRepository, ventas repository.VentaRepository, dispatcher *worker.Dispatcher) RetencionService {
	return &retencionService{repo: repo, ventas: ventas, dispatcher: dispatcher}
}

// ── Crear ─────────────────────────────────────────────────────────────────────
// The receipt number comes from the (empresa, tipo) counter, incremented in
// the same transaction as the insert. The unique (venta_id, tipo) index
// settles two concurrent creations for one sale.

func (s *retencionService) Crear(ctx context.Context, empresaID uuid.UUID, tipo string, req dto.CrearRetencionRequest) (*dto.RetencionResponse, error) {
	tipo, ok := fiscal.TipoValido(tipo)
	if !ok {
		return nil, apierror.Validar("tipo de retención inválido")
	}
	ventaID, err := uuid.Parse(req.VentaID)
	if err != nil {
		return nil, apierror.Validar("venta_id inválido")
	}

	venta, err := s.ventas.FindByID(ctx, ventaID)
	if err != nil || venta.EmpresaID != empresaID {
		return nil, apierror.ErrVentaNoEncontrada
	}
	existe, err := s.repo.ExisteParaVenta(ctx, nil, ventaID, tipo)
	if err != nil {
		return nil, err
	}
	if existe {
		return nil, apierror.ErrRetencionDuplicada
	}

	especial := venta.Cliente != nil && venta.Cliente.ContribuyenteEspecial
	calc := fiscal.Calcular(tipo, venta, especial, req.TipoServicio)

	var ret model.Retencion
	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		seq, err := s.repo.SiguienteSecuencia(ctx, tx, empresaID, tipo)
		if err != nil {
			return err
		}
		ret = model.Retencion{
			EmpresaID:         empresaID,
			VentaID:           ventaID,
			Tipo:              tipo,
			Secuencia:         seq,
			NumeroComprobante: fiscal.NumeroComprobante(tipo, seq),
			BaseImponible:     calc.BaseImponible,
			MontoBase:         calc.MontoBase,
			Porcentaje:        calc.Porcentaje,
			MontoRetenido:     calc.MontoRetenido,
			TipoServicio:      calc.TipoServicio,
			Estado:            model.RetencionPendiente,
			EmailDestino:      req.EmailDestino,
			FechaEmision:      time.Now(),
		}
		return s.repo.Create(ctx, tx, &ret)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apierror.ErrRetencionDuplicada
		}
		return nil, err
	}

	s.encolarComprobante(ctx, &ret)
	return retencionToResponse(&ret), nil
}

// ── Consultas ─────────────────────────────────────────────────────────────────

func (s *retencionService) Listar(ctx context.Context, empresaID uuid.UUID, tipo string, filter dto.RetencionFilter) (*dto.RetencionListResponse, error) {
	tipo, ok := fiscal.TipoValido(tipo)
	if !ok {
		return nil, apierror.Validar("tipo de retención inválido")
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	rets, total, err := s.repo.List(ctx, empresaID, tipo, filter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.RetencionResponse, 0, len(rets))
	for i := range rets {
		data = append(data, *retencionToResponse(&rets[i]))
	}
	return &dto.RetencionListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func (s *retencionService) Obtener(ctx context.Context, empresaID uuid.UUID, tipo string, id uuid.UUID) (*dto.RetencionResponse, error) {
	ret, err := s.buscar(ctx, empresaID, tipo, id)
	if err != nil {
		return nil, err
	}
	return retencionToResponse(ret), nil
}

// ── Anular ────────────────────────────────────────────────────────────────────
// VOID keeps the receipt number; the PDF is re-rendered with the ANULADA mark.

func (s *retencionService) Anular(ctx context.Context, empresaID uuid.UUID, tipo string, id uuid.UUID) (*dto.RetencionResponse, error) {
	ret, err := s.buscar(ctx, empresaID, tipo, id)
	if err != nil {
		return nil, err
	}
	if ret.Estado == model.RetencionAnulada {
		return nil, apierror.ErrRetencionAnulada
	}
	ret.Estado = model.RetencionAnulada
	ret.NextRetryAt = nil
	if err := s.repo.Update(ctx, ret); err != nil {
		return nil, err
	}
	s.encolarComprobante(ctx, ret)
	return retencionToResponse(ret), nil
}

func (s *retencionService) ObtenerPDFPath(ctx context.Context, empresaID uuid.UUID, tipo string, id uuid.UUID) (string, error) {
	ret, err := s.buscar(ctx, empresaID, tipo, id)
	if err != nil {
		return "", err
	}
	if ret.PDFPath == nil || *ret.PDFPath == "" {
		return "", apierror.ErrRetencionNoEncontrada.Con("PDF no disponible, el comprobante está en estado '" + ret.Estado + "'")
	}
	return *ret.PDFPath, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func (s *retencionService) buscar(ctx context.Context, empresaID uuid.UUID, tipo string, id uuid.UUID) (*model.Retencion, error) {
	tipo, ok := fiscal.TipoValido(tipo)
	if !ok {
		return nil, apierror.Validar("tipo de retención inválido")
	}
	ret, err := s.repo.FindByID(ctx, id)
	if err != nil || ret.EmpresaID != empresaID || ret.Tipo != tipo {
		return nil, apierror.ErrRetencionNoEncontrada
	}
	return ret, nil
}

// encolarComprobante is best-effort. When the queue is unreachable the
// retencion gets a next_retry_at so the retry cron picks it up.
func (s *retencionService) encolarComprobante(ctx context.Context, ret *model.Retencion) {
	if s.dispatcher == nil {
		return
	}
	err := s.dispatcher.EnqueueComprobante(ctx, worker.ComprobanteJobPayload{RetencionID: ret.ID.String()})
	if err == nil {
		return
	}
	log.Warn().Err(err).Str("retencion_id", ret.ID.String()).Msg("retencion: failed to enqueue receipt")
	next := time.Now().Add(time.Minute)
	ret.NextRetryAt = &next
	if err := s.repo.Update(ctx, ret); err != nil {
		log.Error().Err(err).Str("retencion_id", ret.ID.String()).Msg("retencion: failed to schedule retry")
	}
}

func retencionToResponse(r *model.Retencion) *dto.RetencionResponse {
	return &dto.RetencionResponse{
		ID:                r.ID.String(),
		VentaID:           r.VentaID.String(),
		Tipo:              r.Tipo,
		NumeroComprobante: r.NumeroComprobante,
		BaseImponible:     r.BaseImponible,
		MontoBase:         r.MontoBase,
		Porcentaje:        r.Porcentaje,
		MontoRetenido:     r.MontoRetenido,
		TipoServicio:      r.TipoServicio,
		Estado:            r.Estado,
		PDFDisponible:     r.PDFPath != nil && *r.PDFPath != "",
		FechaEmision:      r.FechaEmision.Format("2006-01-02"),
	}
}
