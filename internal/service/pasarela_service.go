package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"novaadm/internal/apierror"
	"novaadm/internal/dto"
	"novaadm/internal/infra"
	"novaadm/internal/model"
	"novaadm/internal/moneda"
	"novaadm/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/xid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Eventos de webhook reconocidos.
const (
	EventoAprobado  = "payment.approved"
	EventoRechazado = "payment.rejected"
	EventoExpirado  = "payment.expired"
)

// PasarelaService starts hosted payments on external gateways and settles
// them when the gateway's webhook arrives.
type PasarelaService interface {
	Iniciar(ctx context.Context, empresaID uuid.UUID, pasarela string, req dto.IniciarPagoRequest) (*dto.IniciarPagoResponse, error)
	// ProcesarWebhook verifies firma over raw and applies the event. Events
	// for payments already in a final state are accepted and ignored.
	ProcesarWebhook(ctx context.Context, pasarela string, raw []byte, firma string) error
}

type pasarelaService struct {
	pasarelas   map[string]infra.Pasarela
	breakers    map[string]*infra.CircuitBreaker
	pagos       repository.PagoPasarelaRepository
	ventas      repository.VentaRepository
	metodos     repository.MetodoPagoRepository
	callbackURL string
	now         func() time.Time
}

func NewPasarelaService(
	pasarelas []infra.Pasarela,
	pagos repository.PagoPasarelaRepository,
	ventas repository.VentaRepository,
	metodos repository.MetodoPagoRepository,
	domain string,
) PasarelaService {
	s := &pasarelaService{
		pasarelas:   make(map[string]infra.Pasarela, len(pasarelas)),
		breakers:    make(map[string]*infra.CircuitBreaker, len(pasarelas)),
		pagos:       pagos,
		ventas:      ventas,
		metodos:     metodos,
		callbackURL: strings.TrimRight(domain, "/") + "/webhooks/",
		now:         time.Now,
	}
	for _, p := range pasarelas {
		s.pasarelas[p.Nombre()] = p
		s.breakers[p.Nombre()] = infra.NewCircuitBreaker("pasarela:"+p.Nombre(), infra.DefaultCBConfig())
	}
	return s
}

// VigenciaPagoPendiente is how long a started checkout reserves part of the
// sale's balance while its webhook has not arrived.
const VigenciaPagoPendiente = 30 * time.Minute

// ── Iniciar ───────────────────────────────────────────────────────────────────
//   1. Lock the sale; settled payments plus live pending checkouts plus this
//      one must not exceed total_usd
//   2. Persist the PagoPasarela as pendiente before calling the gateway, so a
//      concurrent checkout sees the reservation
//   3. Call the gateway through its breaker; on failure the row is marked fallido

func (s *pasarelaService) Iniciar(ctx context.Context, empresaID uuid.UUID, nombre string, req dto.IniciarPagoRequest) (*dto.IniciarPagoResponse, error) {
	gw, ok := s.pasarelas[nombre]
	if !ok {
		return nil, apierror.NoEncontrar(fmt.Sprintf("pasarela %q no soportada", nombre))
	}
	ventaID, err := uuid.Parse(req.VentaID)
	if err != nil {
		return nil, apierror.Validar("venta_id inválido")
	}
	metodoID, err := uuid.Parse(req.MetodoPagoID)
	if err != nil {
		return nil, apierror.Validar("metodo_pago_id inválido")
	}
	monto := moneda.Redondear(req.Monto)
	if !monto.IsPositive() {
		return nil, apierror.Validar("el monto debe ser mayor a cero")
	}

	metodo, err := s.metodos.FindByID(ctx, metodoID)
	if err != nil || metodo.EmpresaID != empresaID || !metodo.Activo {
		return nil, apierror.ErrMetodoPago
	}

	p := &model.PagoPasarela{
		EmpresaID:    empresaID,
		VentaID:      ventaID,
		MetodoPagoID: metodoID,
		Pasarela:     nombre,
		Referencia:   xid.New().String(),
		Monto:        monto,
		Moneda:       string(metodo.Moneda),
		Estado:       model.PasarelaPendiente,
	}
	err = runTx(ctx, s.ventas.DB(), func(tx *gorm.DB) error {
		venta, err := s.ventas.LockForUpdate(ctx, tx, ventaID)
		if err != nil || venta.EmpresaID != empresaID {
			if err == nil || errors.Is(err, gorm.ErrRecordNotFound) {
				return apierror.ErrVentaNoEncontrada
			}
			return err
		}
		usd, err := moneda.AUSD(moneda.Nuevo(monto, metodo.Moneda), venta.TasaBCV)
		if err != nil {
			return err
		}
		if !usd.Valor.IsPositive() {
			return apierror.Validar("el monto convertido a USD debe ser mayor a cero")
		}
		pagado, err := s.ventas.SumPagos(ctx, tx, ventaID)
		if err != nil {
			return err
		}
		reservado, err := s.pagos.SumPendienteUSD(ctx, tx, ventaID, s.now().Add(-VigenciaPagoPendiente))
		if err != nil {
			return err
		}
		comprometido := pagado.Add(reservado)
		if comprometido.Add(usd.Valor).GreaterThan(venta.TotalUSD) {
			saldo := venta.TotalUSD.Sub(comprometido)
			if saldo.IsNegative() {
				saldo = decimal.Zero
			}
			return apierror.ErrSobrepago.Con(fmt.Sprintf(
				"el pago excede el saldo disponible de la factura (saldo %s USD, %s USD en pagos pendientes)",
				saldo.StringFixed(2), reservado.StringFixed(2)))
		}
		p.MontoUSD = usd.Valor
		return s.pagos.Create(ctx, tx, p)
	})
	if err != nil {
		return nil, err
	}

	var resp *infra.CrearPagoResponse
	err = s.breakers[nombre].Execute(ctx, func(ctx context.Context) error {
		var err error
		resp, err = gw.CrearPago(ctx, infra.CrearPagoRequest{
			Monto:       monto,
			Moneda:      p.Moneda,
			Referencia:  p.Referencia,
			CallbackURL: s.callbackURL + nombre,
		})
		return err
	})
	if err != nil {
		log.Warn().Err(err).Str("pasarela", nombre).Str("venta_id", ventaID.String()).Msg("pasarela: crear pago falló")
		if _, uerr := s.pagos.Transicionar(context.WithoutCancel(ctx), nil, p, model.PasarelaPendiente, model.PasarelaFallido); uerr != nil {
			log.Error().Err(uerr).Str("referencia", p.Referencia).Msg("pasarela: no se pudo liberar la reserva")
		}
		return nil, apierror.ErrPasarela.Envuelve(err)
	}

	p.PagoExternoID, p.URL = resp.PagoID, resp.URL
	if err := s.pagos.UpdateExterno(ctx, p); err != nil {
		return nil, err
	}
	return &dto.IniciarPagoResponse{
		ID:         p.ID.String(),
		Pasarela:   p.Pasarela,
		Referencia: p.Referencia,
		PagoID:     p.PagoExternoID,
		URL:        p.URL,
		Monto:      p.Monto,
		Moneda:     p.Moneda,
		MontoUSD:   p.MontoUSD,
		Estado:     p.Estado,
	}, nil
}

// ── Webhook ───────────────────────────────────────────────────────────────────

func (s *pasarelaService) ProcesarWebhook(ctx context.Context, nombre string, raw []byte, firma string) error {
	gw, ok := s.pasarelas[nombre]
	if !ok {
		return apierror.NoEncontrar(fmt.Sprintf("pasarela %q no soportada", nombre))
	}
	if !gw.VerificarFirma(raw, firma) {
		return apierror.ErrFirmaInvalida
	}

	var ev infra.EventoPasarela
	if err := json.Unmarshal(raw, &ev); err != nil {
		return apierror.Validar("cuerpo del webhook inválido")
	}
	p, err := s.pagos.FindByReferencia(ctx, nombre, ev.Referencia)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierror.NoEncontrar("pago de pasarela no encontrado")
		}
		return err
	}

	switch ev.Evento {
	case EventoAprobado:
		if !ev.Monto.Equal(p.Monto) {
			log.Warn().
				Str("pasarela", nombre).
				Str("referencia", p.Referencia).
				Str("monto_webhook", ev.Monto.String()).
				Str("monto_pago", p.Monto.String()).
				Msg("pasarela: monto del webhook no coincide")
			return apierror.Validar("el monto del webhook no coincide con el pago iniciado")
		}
		return runTx(ctx, s.ventas.DB(), func(tx *gorm.DB) error {
			changed, err := s.pagos.UpdateEstado(ctx, tx, p, model.PasarelaAprobado)
			if err != nil || !changed {
				return err
			}
			ref := p.Referencia
			_, err = aplicarPago(ctx, tx, s.ventas, p.EmpresaID, p.VentaID,
				moneda.Nuevo(p.Monto, moneda.Moneda(p.Moneda)), p.MetodoPagoID, &ref)
			if !errors.Is(err, apierror.ErrSobrepago) {
				return err
			}
			// The gateway already collected the money: record it as surplus
			// instead of failing a webhook that would be retried forever.
			log.Error().
				Str("pasarela", nombre).
				Str("referencia", p.Referencia).
				Str("venta_id", p.VentaID.String()).
				Str("monto_usd", p.MontoUSD.String()).
				Msg("pasarela: pago aprobado excede el saldo, marcado excedente")
			_, err = s.pagos.Transicionar(ctx, tx, p, model.PasarelaAprobado, model.PasarelaExcedente)
			return err
		})
	case EventoRechazado:
		_, err := s.pagos.UpdateEstado(ctx, nil, p, model.PasarelaRechazado)
		return err
	case EventoExpirado:
		_, err := s.pagos.UpdateEstado(ctx, nil, p, model.PasarelaExpirado)
		return err
	default:
		log.Warn().Str("pasarela", nombre).Str("evento", ev.Evento).Msg("pasarela: evento ignorado")
		return nil
	}
}
