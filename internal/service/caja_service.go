package service

import (
	"context"
	"errors"
	"time"

	"novaadm/internal/apierror"
	"novaadm/internal/dto"
	"novaadm/internal/model"
	"novaadm/internal/moneda"
	"novaadm/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CajaService interface {
	Abrir(ctx context.Context, empresaID, usuarioID uuid.UUID, req dto.AbrirCajaRequest) (*dto.ReporteCajaResponse, error)
	RegistrarMovimiento(ctx context.Context, empresaID uuid.UUID, req dto.MovimientoRequest) (*dto.MovimientoResponse, error)
	Cerrar(ctx context.Context, empresaID uuid.UUID, req dto.CerrarCajaRequest) (*dto.ReporteCajaResponse, error)
	ObtenerReporte(ctx context.Context, empresaID, sesionID uuid.UUID) (*dto.ReporteCajaResponse, error)
	GetActiva(ctx context.Context, empresaID uuid.UUID) (*dto.ReporteCajaResponse, error)
	Historial(ctx context.Context, empresaID uuid.UUID, limit int) ([]dto.ReporteCajaResponse, error)

	CrearMetodoPago(ctx context.Context, empresaID uuid.UUID, req dto.CrearMetodoPagoRequest) (*dto.MetodoPagoResponse, error)
	ListarMetodosPago(ctx context.Context, empresaID uuid.UUID) ([]dto.MetodoPagoResponse, error)
}

type cajaService struct {
	repo    repository.CajaRepository
	metodos repository.MetodoPagoRepository
	tasas   TasaService
}

func NewCajaService(repo repository.CajaRepository, metodos repository.MetodoPagoRepository, tasas TasaService) CajaService {
	return &cajaService{repo: repo, metodos: metodos, tasas: tasas}
}

// ── Abrir ─────────────────────────────────────────────────────────────────────
// One abierta per empresa. The pre-check gives a clean 409; the partial unique
// index decides the race between two concurrent opens.

func (s *cajaService) Abrir(ctx context.Context, empresaID, usuarioID uuid.UUID, req dto.AbrirCajaRequest) (*dto.ReporteCajaResponse, error) {
	if req.MontoInicialUSD.IsNegative() || req.MontoInicialBS.IsNegative() {
		return nil, apierror.Validar("los montos iniciales no pueden ser negativos")
	}
	if _, err := s.repo.FindSesionAbierta(ctx, empresaID); err == nil {
		return nil, apierror.ErrSesionYaAbierta
	}

	tasa := s.tasas.TasaActual(ctx, moneda.USD)
	if tasa == nil {
		return nil, apierror.ErrSinTasa
	}

	inicialUSD := moneda.Redondear(req.MontoInicialUSD)
	inicialBS := moneda.Redondear(req.MontoInicialBS)
	sesion := &model.SesionCaja{
		EmpresaID:        empresaID,
		UsuarioID:        usuarioID,
		MontoInicialUSD:  inicialUSD,
		MontoInicialBS:   inicialBS,
		TasaBCV:          tasa.Tasa,
		MontoEsperadoUSD: inicialUSD,
		MontoEsperadoBS:  inicialBS,
		Estado:           model.SesionAbierta,
		OpenedAt:         time.Now(),
	}
	if err := s.repo.CreateSesion(ctx, nil, sesion); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apierror.ErrSesionYaAbierta
		}
		return nil, err
	}
	return buildReporte(sesion, nil)
}

// ── RegistrarMovimiento ───────────────────────────────────────────────────────
// Movements are immutable. Moneda is copied from the payment method; the
// session row is locked so a concurrent close sees every movement or rejects it.

func (s *cajaService) RegistrarMovimiento(ctx context.Context, empresaID uuid.UUID, req dto.MovimientoRequest) (*dto.MovimientoResponse, error) {
	sesionID, err := uuid.Parse(req.SesionCajaID)
	if err != nil {
		return nil, apierror.Validar("sesion_caja_id inválido")
	}
	metodoID, err := uuid.Parse(req.MetodoPagoID)
	if err != nil {
		return nil, apierror.Validar("metodo_pago_id inválido")
	}
	if !req.Monto.IsPositive() {
		return nil, apierror.Validar("el monto debe ser mayor a cero")
	}
	if !tipoMovimientoValido(req.Tipo) {
		return nil, apierror.Validar("tipo de movimiento inválido")
	}

	metodo, err := s.metodos.FindByID(ctx, metodoID)
	if err != nil || metodo.EmpresaID != empresaID || !metodo.Activo || !metodo.Moneda.Valida() {
		return nil, apierror.ErrMetodoPago
	}

	var refID *uuid.UUID
	if req.ReferenciaID != nil {
		id, err := uuid.Parse(*req.ReferenciaID)
		if err != nil {
			return nil, apierror.Validar("referencia_id inválido")
		}
		refID = &id
	}
	mov := &model.MovimientoCaja{
		SesionCajaID: sesionID,
		Tipo:         req.Tipo,
		MetodoPagoID: metodoID,
		Moneda:       metodo.Moneda,
		Monto:        moneda.Redondear(req.Monto),
		Descripcion:  req.Descripcion,
		ReferenciaID: refID,
		CreatedAt:    time.Now(),
	}

	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if _, err := s.sesionAbierta(ctx, tx, empresaID, sesionID); err != nil {
			return err
		}
		return s.repo.CreateMovimiento(ctx, tx, mov)
	})
	if err != nil {
		return nil, err
	}
	return movimientoToResponse(mov), nil
}

// ── Cerrar ────────────────────────────────────────────────────────────────────
// expected[c] = opening[c] + Σ ingresos[c] − Σ egresos[c]; desvio = declared − expected.
// The conditional update rejects a second close that raced past the lock.

func (s *cajaService) Cerrar(ctx context.Context, empresaID uuid.UUID, req dto.CerrarCajaRequest) (*dto.ReporteCajaResponse, error) {
	sesionID, err := uuid.Parse(req.SesionCajaID)
	if err != nil {
		return nil, apierror.Validar("sesion_caja_id inválido")
	}
	if req.MontoDeclaradoUSD.IsNegative() || req.MontoDeclaradoBS.IsNegative() {
		return nil, apierror.Validar("los montos declarados no pueden ser negativos")
	}

	var (
		sesion *model.SesionCaja
		movs   []model.MovimientoCaja
	)
	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		var err error
		sesion, err = s.sesionAbierta(ctx, tx, empresaID, sesionID)
		if err != nil {
			return err
		}
		movs, err = s.repo.ListMovimientos(ctx, tx, sesionID)
		if err != nil {
			return err
		}

		saldo, err := saldoEsperado(sesion, movs)
		if err != nil {
			return err
		}
		declaradoUSD := moneda.Redondear(req.MontoDeclaradoUSD)
		declaradoBS := moneda.Redondear(req.MontoDeclaradoBS)
		desvioUSD := declaradoUSD.Sub(saldo.esperadoUSD.Valor)
		desvioBS := declaradoBS.Sub(saldo.esperadoBS.Valor)
		clasificacion := peorClasificacion(
			clasificarDesvio(desvioUSD, saldo.esperadoUSD.Valor),
			clasificarDesvio(desvioBS, saldo.esperadoBS.Valor),
		)
		closedAt := time.Now()

		sesion.MontoEsperadoUSD = saldo.esperadoUSD.Valor
		sesion.MontoEsperadoBS = saldo.esperadoBS.Valor
		sesion.MontoDeclaradoUSD = &declaradoUSD
		sesion.MontoDeclaradoBS = &declaradoBS
		sesion.DesvioUSD = &desvioUSD
		sesion.DesvioBS = &desvioBS
		sesion.ClasificacionDesvio = &clasificacion
		sesion.Observaciones = req.Observaciones
		sesion.ClosedAt = &closedAt

		if err := s.repo.CerrarSesion(ctx, tx, sesion); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apierror.ErrSesionCerrada
			}
			return err
		}
		sesion.Estado = model.SesionCerrada
		return nil
	})
	if err != nil {
		return nil, err
	}
	return buildReporte(sesion, movs)
}

// ── Consultas ─────────────────────────────────────────────────────────────────

func (s *cajaService) ObtenerReporte(ctx context.Context, empresaID, sesionID uuid.UUID) (*dto.ReporteCajaResponse, error) {
	sesion, err := s.repo.FindSesionByID(ctx, sesionID)
	if err != nil || sesion.EmpresaID != empresaID {
		return nil, apierror.ErrSesionNoEncontrada
	}
	return buildReporte(sesion, sesion.Movimientos)
}

func (s *cajaService) GetActiva(ctx context.Context, empresaID uuid.UUID) (*dto.ReporteCajaResponse, error) {
	sesion, err := s.repo.FindSesionAbierta(ctx, empresaID)
	if err != nil {
		return nil, apierror.ErrSesionNoEncontrada.Con("no hay sesion de caja abierta")
	}
	return s.ObtenerReporte(ctx, empresaID, sesion.ID)
}

func (s *cajaService) Historial(ctx context.Context, empresaID uuid.UUID, limit int) ([]dto.ReporteCajaResponse, error) {
	if limit < 1 || limit > 200 {
		limit = 50
	}
	sesiones, err := s.repo.ListSesiones(ctx, empresaID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ReporteCajaResponse, 0, len(sesiones))
	for i := range sesiones {
		r, err := buildReporte(&sesiones[i], nil)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, nil
}

// ── Métodos de pago ───────────────────────────────────────────────────────────

func (s *cajaService) CrearMetodoPago(ctx context.Context, empresaID uuid.UUID, req dto.CrearMetodoPagoRequest) (*dto.MetodoPagoResponse, error) {
	m := moneda.Moneda(req.Moneda)
	if !m.Valida() {
		return nil, apierror.Validar("moneda debe ser USD o BS")
	}
	metodo := &model.MetodoPago{EmpresaID: empresaID, Nombre: req.Nombre, Moneda: m, Activo: true}
	if err := s.metodos.Create(ctx, metodo); err != nil {
		return nil, err
	}
	return metodoPagoToResponse(metodo), nil
}

func (s *cajaService) ListarMetodosPago(ctx context.Context, empresaID uuid.UUID) ([]dto.MetodoPagoResponse, error) {
	metodos, err := s.metodos.List(ctx, empresaID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.MetodoPagoResponse, 0, len(metodos))
	for i := range metodos {
		out = append(out, *metodoPagoToResponse(&metodos[i]))
	}
	return out, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// sesionAbierta locks the session and checks it belongs to empresaID and is open.
func (s *cajaService) sesionAbierta(ctx context.Context, tx *gorm.DB, empresaID, sesionID uuid.UUID) (*model.SesionCaja, error) {
	sesion, err := s.repo.LockSesion(ctx, tx, sesionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.ErrSesionNoEncontrada
		}
		return nil, err
	}
	if sesion.EmpresaID != empresaID {
		return nil, apierror.ErrSesionNoEncontrada
	}
	if sesion.Estado != model.SesionAbierta {
		return nil, apierror.ErrSesionCerrada
	}
	return sesion, nil
}

func tipoMovimientoValido(tipo string) bool {
	switch tipo {
	case model.MovIngreso, model.MovEgreso, model.MovVenta, model.MovDevolucion, model.MovGasto:
		return true
	}
	return false
}

type saldoCaja struct {
	ingresosUSD, ingresosBS moneda.Monto
	egresosUSD, egresosBS   moneda.Monto
	esperadoUSD, esperadoBS moneda.Monto
}

// saldoEsperado folds the movements over the opening balance, per currency.
func saldoEsperado(sesion *model.SesionCaja, movs []model.MovimientoCaja) (saldoCaja, error) {
	s := saldoCaja{
		ingresosUSD: moneda.Cero(moneda.USD),
		ingresosBS:  moneda.Cero(moneda.BS),
		egresosUSD:  moneda.Cero(moneda.USD),
		egresosBS:   moneda.Cero(moneda.BS),
	}
	for _, m := range movs {
		monto := moneda.Nuevo(m.Monto, m.Moneda)
		acum := &s.egresosUSD
		switch {
		case m.EsIngreso() && m.Moneda == moneda.BS:
			acum = &s.ingresosBS
		case m.EsIngreso():
			acum = &s.ingresosUSD
		case m.Moneda == moneda.BS:
			acum = &s.egresosBS
		}
		sum, err := moneda.Sumar(*acum, monto)
		if err != nil {
			return s, err
		}
		*acum = sum
	}

	var err error
	if s.esperadoUSD, err = moneda.Sumar(moneda.Nuevo(sesion.MontoInicialUSD, moneda.USD), s.ingresosUSD); err != nil {
		return s, err
	}
	if s.esperadoUSD, err = moneda.Restar(s.esperadoUSD, s.egresosUSD); err != nil {
		return s, err
	}
	if s.esperadoBS, err = moneda.Sumar(moneda.Nuevo(sesion.MontoInicialBS, moneda.BS), s.ingresosBS); err != nil {
		return s, err
	}
	s.esperadoBS, err = moneda.Restar(s.esperadoBS, s.egresosBS)
	return s, err
}

var ordenClasificacion = map[string]int{"normal": 0, "advertencia": 1, "critico": 2}

// clasificarDesvio returns "normal" | "advertencia" | "critico"
// normal: |desvio| <= 1%, advertencia: <= 5%, critico: > 5% of the expected amount.
func clasificarDesvio(desvio, esperado decimal.Decimal) string {
	if desvio.IsZero() {
		return "normal"
	}
	if esperado.IsZero() {
		return "critico"
	}
	pct := desvio.Div(esperado).Mul(decimal.NewFromInt(100)).Abs()
	switch {
	case pct.LessThanOrEqual(decimal.NewFromInt(1)):
		return "normal"
	case pct.LessThanOrEqual(decimal.NewFromInt(5)):
		return "advertencia"
	default:
		return "critico"
	}
}

func peorClasificacion(a, b string) string {
	if ordenClasificacion[b] > ordenClasificacion[a] {
		return b
	}
	return a
}

func montos(usd, bs decimal.Decimal) dto.MontosPorMoneda {
	return dto.MontosPorMoneda{USD: usd, BS: bs}
}

// buildReporte renders a session. For open sessions the expected balance is
// computed from movs; closed sessions report what was stored at close.
func buildReporte(sesion *model.SesionCaja, movs []model.MovimientoCaja) (*dto.ReporteCajaResponse, error) {
	saldo, err := saldoEsperado(sesion, movs)
	if err != nil {
		return nil, err
	}
	esperado := montos(saldo.esperadoUSD.Valor, saldo.esperadoBS.Valor)
	if sesion.Estado == model.SesionCerrada {
		esperado = montos(sesion.MontoEsperadoUSD, sesion.MontoEsperadoBS)
	}

	r := &dto.ReporteCajaResponse{
		SesionCajaID:        sesion.ID.String(),
		UsuarioID:           sesion.UsuarioID.String(),
		TasaBCV:             sesion.TasaBCV,
		MontoInicial:        montos(sesion.MontoInicialUSD, sesion.MontoInicialBS),
		Ingresos:            montos(saldo.ingresosUSD.Valor, saldo.ingresosBS.Valor),
		Egresos:             montos(saldo.egresosUSD.Valor, saldo.egresosBS.Valor),
		MontoEsperado:       esperado,
		ClasificacionDesvio: sesion.ClasificacionDesvio,
		Estado:              sesion.Estado,
		Observaciones:       sesion.Observaciones,
		OpenedAt:            sesion.OpenedAt.Format(time.RFC3339),
	}
	if sesion.MontoDeclaradoUSD != nil && sesion.MontoDeclaradoBS != nil {
		d := montos(*sesion.MontoDeclaradoUSD, *sesion.MontoDeclaradoBS)
		r.MontoDeclarado = &d
	}
	if sesion.DesvioUSD != nil && sesion.DesvioBS != nil {
		d := montos(*sesion.DesvioUSD, *sesion.DesvioBS)
		r.Desvio = &d
	}
	if sesion.ClosedAt != nil {
		t := sesion.ClosedAt.Format(time.RFC3339)
		r.ClosedAt = &t
	}
	for i := range movs {
		r.Movimientos = append(r.Movimientos, *movimientoToResponse(&movs[i]))
	}
	return r, nil
}

func movimientoToResponse(m *model.MovimientoCaja) *dto.MovimientoResponse {
	return &dto.MovimientoResponse{
		ID:           m.ID.String(),
		Tipo:         m.Tipo,
		MetodoPagoID: m.MetodoPagoID.String(),
		Moneda:       string(m.Moneda),
		Monto:        m.Monto,
		Descripcion:  m.Descripcion,
		CreatedAt:    m.CreatedAt.Format(time.RFC3339),
	}
}

func metodoPagoToResponse(m *model.MetodoPago) *dto.MetodoPagoResponse {
	return &dto.MetodoPagoResponse{
		ID:     m.ID.String(),
		Nombre: m.Nombre,
		Moneda: string(m.Moneda),
		Activo: m.Activo,
	}
}
