package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"novaadm/internal/apierror"
	"novaadm/internal/dto"
	"novaadm/internal/fiscal"
	"novaadm/internal/model"
	"novaadm/internal/moneda"
	"novaadm/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CobranzaService interface {
	RegistrarPago(ctx context.Context, empresaID uuid.UUID, req dto.RegistrarPagoRequest) (*dto.PagoResponse, error)
	Listar(ctx context.Context, empresaID uuid.UUID, filter dto.CobranzaFilter) ([]fiscal.CuentaPorCobrar, error)
	Obtener(ctx context.Context, empresaID, ventaID uuid.UUID) (*fiscal.CuentaPorCobrar, error)
}

type cobranzaService struct {
	ventas    repository.VentaRepository
	metodos   repository.MetodoPagoRepository
	plazoDias int
	now       func() time.Time
}

func NewCobranzaService(ventas repository.VentaRepository, metodos repository.MetodoPagoRepository, plazoDias int) CobranzaService {
	return &cobranzaService{ventas: ventas, metodos: metodos, plazoDias: plazoDias, now: time.Now}
}

// ── RegistrarPago ─────────────────────────────────────────────────────────────

func (s *cobranzaService) RegistrarPago(ctx context.Context, empresaID uuid.UUID, req dto.RegistrarPagoRequest) (*dto.PagoResponse, error) {
	ventaID, err := uuid.Parse(req.VentaID)
	if err != nil {
		return nil, apierror.Validar("venta_id inválido")
	}
	metodoID, err := uuid.Parse(req.MetodoPagoID)
	if err != nil {
		return nil, apierror.Validar("metodo_pago_id inválido")
	}
	if !req.Monto.IsPositive() {
		return nil, apierror.Validar("el monto debe ser mayor a cero")
	}
	metodo, err := s.metodos.FindByID(ctx, metodoID)
	if err != nil || metodo.EmpresaID != empresaID || !metodo.Activo {
		return nil, apierror.ErrMetodoPago
	}

	var res *pagoAplicado
	err = runTx(ctx, s.ventas.DB(), func(tx *gorm.DB) error {
		var err error
		res, err = aplicarPago(ctx, tx, s.ventas, empresaID, ventaID, moneda.Nuevo(req.Monto, metodo.Moneda), metodoID, req.Referencia)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res.toResponse(), nil
}

type pagoAplicado struct {
	pago   *model.PagoVenta
	pagado decimal.Decimal
	total  decimal.Decimal
	estado string
}

func (p *pagoAplicado) toResponse() *dto.PagoResponse {
	saldo := p.total.Sub(p.pagado)
	if saldo.IsNegative() {
		saldo = decimal.Zero
	}
	return &dto.PagoResponse{
		ID:            p.pago.ID.String(),
		VentaID:       p.pago.VentaID.String(),
		Monto:         p.pago.Monto,
		Moneda:        string(p.pago.Moneda),
		MontoOriginal: p.pago.MontoOriginal,
		PagadoUSD:     p.pagado,
		SaldoUSD:      saldo,
		EstadoPago:    p.estado,
		FechaPago:     p.pago.FechaPago.Format(time.RFC3339),
	}
}

// aplicarPago registers a payment against a sale inside tx. The sale row is
// locked first, so the paid-sum check and the insert are serialized per sale.
// A BS payment is converted to USD at the sale's frozen rate before any sum.
func aplicarPago(
	ctx context.Context,
	tx *gorm.DB,
	ventas repository.VentaRepository,
	empresaID, ventaID uuid.UUID,
	monto moneda.Monto,
	metodoID uuid.UUID,
	referencia *string,
) (*pagoAplicado, error) {
	venta, err := ventas.LockForUpdate(ctx, tx, ventaID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.ErrVentaNoEncontrada
		}
		return nil, err
	}
	if venta.EmpresaID != empresaID {
		return nil, apierror.ErrVentaNoEncontrada
	}

	usd, err := moneda.AUSD(monto, venta.TasaBCV)
	if err != nil {
		return nil, err
	}
	if !usd.Valor.IsPositive() {
		return nil, apierror.Validar("el monto convertido a USD debe ser mayor a cero")
	}

	pagado, err := ventas.SumPagos(ctx, tx, ventaID)
	if err != nil {
		return nil, err
	}
	nuevo := pagado.Add(usd.Valor)
	if nuevo.GreaterThan(venta.TotalUSD) {
		return nil, apierror.ErrSobrepago.Con(fmt.Sprintf(
			"el pago excede el saldo pendiente de la factura (saldo %s USD)",
			venta.TotalUSD.Sub(pagado).StringFixed(2)))
	}

	pago := &model.PagoVenta{
		VentaID:       ventaID,
		MetodoPagoID:  metodoID,
		Monto:         usd.Valor,
		Moneda:        monto.Moneda,
		MontoOriginal: moneda.Redondear(monto.Valor),
		Referencia:    referencia,
		FechaPago:     time.Now(),
	}
	if err := ventas.CreatePago(ctx, tx, pago); err != nil {
		return nil, err
	}

	estado := fiscal.EstadoPago(nuevo, venta.TotalUSD)
	if estado != venta.EstadoPago {
		if err := ventas.UpdateEstadoPago(ctx, tx, ventaID, estado); err != nil {
			return nil, err
		}
	}
	return &pagoAplicado{pago: pago, pagado: nuevo, total: venta.TotalUSD, estado: estado}, nil
}

// ── Consultas ─────────────────────────────────────────────────────────────────

func (s *cobranzaService) Listar(ctx context.Context, empresaID uuid.UUID, filter dto.CobranzaFilter) ([]fiscal.CuentaPorCobrar, error) {
	var clienteID *uuid.UUID
	if filter.ClienteID != "" {
		id, err := uuid.Parse(filter.ClienteID)
		if err != nil {
			return nil, apierror.Validar("cliente_id inválido")
		}
		clienteID = &id
	}

	ventas, err := s.ventas.ListConSaldo(ctx, empresaID, clienteID)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, len(ventas))
	for i := range ventas {
		ids[i] = ventas[i].ID
	}
	pagados, err := s.ventas.SumPagosPorVenta(ctx, ids)
	if err != nil {
		return nil, err
	}

	now := s.now()
	cuentas := make([]fiscal.CuentaPorCobrar, 0, len(ventas))
	for i := range ventas {
		cuentas = append(cuentas, fiscal.DerivarCuentaPorCobrar(&ventas[i], pagados[ventas[i].ID], s.plazoDias, now))
	}
	if filter.SoloVencidas {
		return fiscal.SoloVencidas(cuentas), nil
	}
	return cuentas, nil
}

func (s *cobranzaService) Obtener(ctx context.Context, empresaID, ventaID uuid.UUID) (*fiscal.CuentaPorCobrar, error) {
	v, err := s.ventas.FindByID(ctx, ventaID)
	if err != nil || v.EmpresaID != empresaID {
		return nil, apierror.ErrVentaNoEncontrada
	}
	pagado := decimal.Zero
	for _, p := range v.Pagos {
		pagado = pagado.Add(p.Monto)
	}
	c := fiscal.DerivarCuentaPorCobrar(v, pagado, s.plazoDias, s.now())
	return &c, nil
}
