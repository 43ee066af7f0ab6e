package service

import (
	"context"
	"errors"
	"time"

	"novaadm/internal/apierror"
	"novaadm/internal/config"
	"novaadm/internal/dto"
	"novaadm/internal/infra"
	"novaadm/internal/model"
	"novaadm/internal/moneda"
	"novaadm/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type VentaService interface {
	Registrar(ctx context.Context, empresaID, usuarioID uuid.UUID, req dto.RegistrarVentaRequest) (*dto.VentaResponse, error)
	Listar(ctx context.Context, empresaID uuid.UUID, filter dto.VentaFilter) (*dto.VentaListResponse, error)
	Obtener(ctx context.Context, empresaID, id uuid.UUID) (*dto.VentaResponse, error)
}

type ventaService struct {
	repo        repository.VentaRepository
	clientes    repository.ClienteRepository
	tasas       TasaService
	alicuotaIVA decimal.Decimal
	zona        *time.Location
}

func NewVentaService(
	repo repository.VentaRepository,
	clientes repository.ClienteRepository,
	tasas TasaService,
	cfg *config.Config,
) VentaService {
	return &ventaService{
		repo:        repo,
		clientes:    clientes,
		tasas:       tasas,
		alicuotaIVA: decimal.NewFromFloat(cfg.AlicuotaIVA),
		zona:        infra.Ubicacion(cfg.ZonaHoraria),
	}
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// ── Registrar ─────────────────────────────────────────────────────────────────
//   1. Client must exist in the caller's empresa
//   2. iva = round2(subtotal × alicuota / 100), total = subtotal + iva
//   3. total_bs is converted with the current rate and frozen on the invoice
//   4. numero_factura is unique per empresa (index → 409)

func (s *ventaService) Registrar(ctx context.Context, empresaID, usuarioID uuid.UUID, req dto.RegistrarVentaRequest) (*dto.VentaResponse, error) {
	clienteID, err := uuid.Parse(req.ClienteID)
	if err != nil {
		return nil, apierror.Validar("cliente_id inválido")
	}
	if !req.SubtotalUSD.IsPositive() {
		return nil, apierror.Validar("el subtotal debe ser mayor a cero")
	}
	alicuota := s.alicuotaIVA
	if req.AlicuotaIVA != nil {
		alicuota = *req.AlicuotaIVA
	}
	if alicuota.IsNegative() || alicuota.GreaterThan(decimal.NewFromInt(100)) {
		return nil, apierror.Validar("alicuota_iva fuera de rango")
	}
	fecha := time.Now().In(s.zona)
	if req.FechaEmision != nil && *req.FechaEmision != "" {
		f, err := time.ParseInLocation("2006-01-02", *req.FechaEmision, s.zona)
		if err != nil {
			return nil, apierror.Validar("fecha_emision inválida")
		}
		fecha = f
	}

	cliente, err := s.clientes.FindByID(ctx, clienteID)
	if err != nil || cliente.EmpresaID != empresaID {
		return nil, apierror.ErrClienteNoEncontrado
	}

	tasa := s.tasas.TasaActual(ctx, moneda.USD)
	if tasa == nil {
		return nil, apierror.ErrSinTasa
	}

	subtotal := moneda.Redondear(req.SubtotalUSD)
	iva := moneda.Porcentaje(subtotal, alicuota)
	total := subtotal.Add(iva)
	totalBS, err := moneda.Convertir(moneda.Nuevo(total, moneda.USD), tasa.Tasa)
	if err != nil {
		return nil, err
	}

	venta := &model.Venta{
		EmpresaID:     empresaID,
		NumeroFactura: req.NumeroFactura,
		ClienteID:     clienteID,
		UsuarioID:     usuarioID,
		SubtotalUSD:   subtotal,
		AlicuotaIVA:   alicuota,
		IVAUSD:        iva,
		TotalUSD:      total,
		TotalBS:       totalBS.Valor,
		TasaBCV:       tasa.Tasa,
		EstadoPago:    model.PagoPendiente,
		TipoServicio:  req.TipoServicio,
		FechaEmision:  fecha,
	}
	if err := s.repo.Create(ctx, nil, venta); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apierror.ErrFacturaDuplicada
		}
		return nil, err
	}
	venta.Cliente = cliente
	return ventaToResponse(venta), nil
}

// ── Consultas ─────────────────────────────────────────────────────────────────

func (s *ventaService) Listar(ctx context.Context, empresaID uuid.UUID, filter dto.VentaFilter) (*dto.VentaListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	ventas, total, err := s.repo.List(ctx, empresaID, filter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.VentaResponse, 0, len(ventas))
	for i := range ventas {
		data = append(data, *ventaToResponse(&ventas[i]))
	}
	return &dto.VentaListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func (s *ventaService) Obtener(ctx context.Context, empresaID, id uuid.UUID) (*dto.VentaResponse, error) {
	v, err := s.repo.FindByID(ctx, id)
	if err != nil || v.EmpresaID != empresaID {
		return nil, apierror.ErrVentaNoEncontrada
	}
	return ventaToResponse(v), nil
}

func ventaToResponse(v *model.Venta) *dto.VentaResponse {
	r := &dto.VentaResponse{
		ID:            v.ID.String(),
		NumeroFactura: v.NumeroFactura,
		ClienteID:     v.ClienteID.String(),
		SubtotalUSD:   v.SubtotalUSD,
		AlicuotaIVA:   v.AlicuotaIVA,
		IVAUSD:        v.IVAUSD,
		TotalUSD:      v.TotalUSD,
		TotalBS:       v.TotalBS,
		TasaBCV:       v.TasaBCV,
		EstadoPago:    v.EstadoPago,
		TipoServicio:  v.TipoServicio,
		FechaEmision:  v.FechaEmision.Format("2006-01-02"),
	}
	if v.Cliente != nil {
		r.ClienteRIF = v.Cliente.RIF
	}
	return r
}
