package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"novaadm/internal/apierror"
	"novaadm/internal/dto"
	"novaadm/internal/model"
	"novaadm/internal/moneda"
	"novaadm/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TerceroService manages the counterparties of the ledger: clients, vendors
// and the purchase invoices received from vendors.
type TerceroService interface {
	CrearCliente(ctx context.Context, empresaID uuid.UUID, req dto.CrearClienteRequest) (*dto.ClienteResponse, error)
	ListarClientes(ctx context.Context, empresaID uuid.UUID) ([]dto.ClienteResponse, error)
	CrearProveedor(ctx context.Context, empresaID uuid.UUID, req dto.CrearProveedorRequest) (*dto.ProveedorResponse, error)
	ListarProveedores(ctx context.Context, empresaID uuid.UUID) ([]dto.ProveedorResponse, error)
	DesactivarProveedor(ctx context.Context, empresaID, id uuid.UUID) error
	RegistrarCompra(ctx context.Context, empresaID uuid.UUID, req dto.RegistrarCompraRequest) (*dto.CompraResponse, error)
}

type terceroService struct {
	clientes    repository.ClienteRepository
	proveedores repository.ProveedorRepository
	compras     repository.CompraRepository
	tasas       TasaService
	zona        *time.Location
}

func NewTerceroService(
	clientes repository.ClienteRepository,
	proveedores repository.ProveedorRepository,
	compras repository.CompraRepository,
	tasas TasaService,
	zona *time.Location,
) TerceroService {
	if zona == nil {
		zona = time.UTC
	}
	return &terceroService{clientes: clientes, proveedores: proveedores, compras: compras, tasas: tasas, zona: zona}
}

// NormalizarRIF uppercases and strips spaces and dashes: "j-12345678-9" → "J123456789".
func NormalizarRIF(rif string) string {
	r := strings.ToUpper(strings.TrimSpace(rif))
	return strings.NewReplacer("-", "", " ", "", ".", "").Replace(r)
}

// ── Clientes ──────────────────────────────────────────────────────────────────

func (s *terceroService) CrearCliente(ctx context.Context, empresaID uuid.UUID, req dto.CrearClienteRequest) (*dto.ClienteResponse, error) {
	rif := NormalizarRIF(req.RIF)
	if _, err := s.clientes.FindByRIF(ctx, empresaID, rif); err == nil {
		return nil, apierror.ErrRIFDuplicado
	}
	c := &model.Cliente{
		EmpresaID:             empresaID,
		RIF:                   rif,
		RazonSocial:           strings.TrimSpace(req.RazonSocial),
		Email:                 req.Email,
		Telefono:              req.Telefono,
		ContribuyenteEspecial: req.ContribuyenteEspecial,
	}
	if err := s.clientes.Create(ctx, c); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apierror.ErrRIFDuplicado
		}
		return nil, err
	}
	return clienteToResponse(c), nil
}

func (s *terceroService) ListarClientes(ctx context.Context, empresaID uuid.UUID) ([]dto.ClienteResponse, error) {
	clientes, err := s.clientes.List(ctx, empresaID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ClienteResponse, 0, len(clientes))
	for i := range clientes {
		out = append(out, *clienteToResponse(&clientes[i]))
	}
	return out, nil
}

// ── Proveedores ───────────────────────────────────────────────────────────────

func (s *terceroService) CrearProveedor(ctx context.Context, empresaID uuid.UUID, req dto.CrearProveedorRequest) (*dto.ProveedorResponse, error) {
	rif := NormalizarRIF(req.RIF)
	if _, err := s.proveedores.FindByRIF(ctx, empresaID, rif); err == nil {
		return nil, apierror.ErrRIFDuplicado
	}
	p := &model.Proveedor{
		EmpresaID:   empresaID,
		RIF:         rif,
		RazonSocial: strings.TrimSpace(req.RazonSocial),
		Telefono:    req.Telefono,
		Email:       req.Email,
		Direccion:   req.Direccion,
		Activo:      true,
	}
	if err := s.proveedores.Create(ctx, p); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apierror.ErrRIFDuplicado
		}
		return nil, err
	}
	return proveedorToResponse(p), nil
}

func (s *terceroService) ListarProveedores(ctx context.Context, empresaID uuid.UUID) ([]dto.ProveedorResponse, error) {
	proveedores, err := s.proveedores.List(ctx, empresaID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ProveedorResponse, 0, len(proveedores))
	for i := range proveedores {
		out = append(out, *proveedorToResponse(&proveedores[i]))
	}
	return out, nil
}

// DesactivarProveedor hides the vendor from listings. Its purchases keep the RIF.
func (s *terceroService) DesactivarProveedor(ctx context.Context, empresaID, id uuid.UUID) error {
	p, err := s.proveedores.FindByID(ctx, id)
	if err != nil || p.EmpresaID != empresaID {
		return apierror.ErrProveedorNoEncontrado
	}
	return s.proveedores.SoftDelete(ctx, id)
}

// ── Compras ───────────────────────────────────────────────────────────────────
// The vendor RIF is copied onto the purchase; total_bs is frozen at the
// current rate like sales.

func (s *terceroService) RegistrarCompra(ctx context.Context, empresaID uuid.UUID, req dto.RegistrarCompraRequest) (*dto.CompraResponse, error) {
	proveedorID, err := uuid.Parse(req.ProveedorID)
	if err != nil {
		return nil, apierror.Validar("proveedor_id inválido")
	}
	if !req.SubtotalUSD.IsPositive() || req.IVAUSD.IsNegative() {
		return nil, apierror.Validar("montos de la compra inválidos")
	}
	fecha := time.Now().In(s.zona)
	if req.Fecha != nil && *req.Fecha != "" {
		f, err := time.ParseInLocation("2006-01-02", *req.Fecha, s.zona)
		if err != nil {
			return nil, apierror.Validar("fecha inválida")
		}
		fecha = f
	}

	prov, err := s.proveedores.FindByID(ctx, proveedorID)
	if err != nil || prov.EmpresaID != empresaID {
		return nil, apierror.ErrProveedorNoEncontrado
	}
	tasa := s.tasas.TasaActual(ctx, moneda.USD)
	if tasa == nil {
		return nil, apierror.ErrSinTasa
	}

	subtotal := moneda.Redondear(req.SubtotalUSD)
	iva := moneda.Redondear(req.IVAUSD)
	total := subtotal.Add(iva)
	totalBS, err := moneda.Convertir(moneda.Nuevo(total, moneda.USD), tasa.Tasa)
	if err != nil {
		return nil, err
	}

	c := &model.Compra{
		EmpresaID:     empresaID,
		ProveedorID:   prov.ID,
		ProveedorRIF:  prov.RIF,
		NumeroFactura: req.NumeroFactura,
		SubtotalUSD:   subtotal,
		IVAUSD:        iva,
		TotalUSD:      total,
		TotalBS:       totalBS.Valor,
		TasaBCV:       tasa.Tasa,
		Fecha:         fecha,
	}
	if err := s.compras.Create(ctx, c); err != nil {
		return nil, err
	}
	return compraToResponse(c), nil
}

// ── Mappers ───────────────────────────────────────────────────────────────────

func clienteToResponse(c *model.Cliente) *dto.ClienteResponse {
	return &dto.ClienteResponse{
		ID:                    c.ID.String(),
		RIF:                   c.RIF,
		RazonSocial:           c.RazonSocial,
		Email:                 c.Email,
		Telefono:              c.Telefono,
		ContribuyenteEspecial: c.ContribuyenteEspecial,
	}
}

func proveedorToResponse(p *model.Proveedor) *dto.ProveedorResponse {
	return &dto.ProveedorResponse{
		ID:          p.ID.String(),
		RIF:         p.RIF,
		RazonSocial: p.RazonSocial,
		Telefono:    p.Telefono,
		Email:       p.Email,
		Direccion:   p.Direccion,
		Activo:      p.Activo,
	}
}

func compraToResponse(c *model.Compra) *dto.CompraResponse {
	return &dto.CompraResponse{
		ID:            c.ID.String(),
		ProveedorID:   c.ProveedorID.String(),
		ProveedorRIF:  c.ProveedorRIF,
		NumeroFactura: c.NumeroFactura,
		SubtotalUSD:   c.SubtotalUSD,
		IVAUSD:        c.IVAUSD,
		TotalUSD:      c.TotalUSD,
		TotalBS:       c.TotalBS,
		TasaBCV:       c.TasaBCV,
		Fecha:         c.Fecha.Format("2006-01-02"),
	}
}
