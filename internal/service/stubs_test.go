package service_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"novaadm/internal/dto"
	"novaadm/internal/model"
	"novaadm/internal/moneda"
	"novaadm/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// In-memory repositories shared by the service tests. They return the same
// gorm sentinels the real repositories surface (ErrRecordNotFound,
// ErrDuplicatedKey) so the services' error mapping is exercised.

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// ── TasaService ──────────────────────────────────────────────────────────────

type stubTasas struct{ tasa *model.TasaCambio }

func tasaFija(v string) *stubTasas {
	return &stubTasas{tasa: &model.TasaCambio{Moneda: moneda.USD, Tasa: d(v), Fuente: model.FuenteBCV, Fecha: time.Now()}}
}

func (s *stubTasas) TasaActual(context.Context, moneda.Moneda) *model.TasaCambio {
	if s.tasa == nil {
		return nil
	}
	t := *s.tasa
	return &t
}

func (s *stubTasas) Historial(context.Context, moneda.Moneda, time.Time, time.Time) ([]model.TasaCambio, error) {
	return nil, nil
}

// ── CajaRepository ───────────────────────────────────────────────────────────

type memCajaRepo struct {
	mu          sync.Mutex
	sesiones    map[uuid.UUID]*model.SesionCaja
	movimientos []model.MovimientoCaja
}

func newMemCajaRepo() *memCajaRepo {
	return &memCajaRepo{sesiones: make(map[uuid.UUID]*model.SesionCaja)}
}

func (r *memCajaRepo) CreateSesion(_ context.Context, _ *gorm.DB, s *model.SesionCaja) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.sesiones {
		if o.EmpresaID == s.EmpresaID && o.Estado == model.SesionAbierta {
			return gorm.ErrDuplicatedKey
		}
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	cp := *s
	r.sesiones[s.ID] = &cp
	return nil
}

func (r *memCajaRepo) FindSesionAbierta(_ context.Context, empresaID uuid.UUID) (*model.SesionCaja, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sesiones {
		if s.EmpresaID == empresaID && s.Estado == model.SesionAbierta {
			cp := *s
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memCajaRepo) FindSesionByID(_ context.Context, id uuid.UUID) (*model.SesionCaja, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sesiones[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *s
	cp.Movimientos = r.movs(id)
	return &cp, nil
}

func (r *memCajaRepo) LockSesion(ctx context.Context, _ *gorm.DB, id uuid.UUID) (*model.SesionCaja, error) {
	return r.FindSesionByID(ctx, id)
}

func (r *memCajaRepo) CerrarSesion(_ context.Context, _ *gorm.DB, s *model.SesionCaja) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.sesiones[s.ID]
	if !ok || cur.Estado != model.SesionAbierta {
		return gorm.ErrRecordNotFound
	}
	cp := *s
	cp.Estado = model.SesionCerrada
	cp.Movimientos = nil
	r.sesiones[s.ID] = &cp
	return nil
}

func (r *memCajaRepo) CreateMovimiento(_ context.Context, _ *gorm.DB, m *model.MovimientoCaja) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	r.movimientos = append(r.movimientos, *m)
	return nil
}

func (r *memCajaRepo) ListMovimientos(_ context.Context, _ *gorm.DB, id uuid.UUID) ([]model.MovimientoCaja, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.movs(id), nil
}

func (r *memCajaRepo) movs(id uuid.UUID) []model.MovimientoCaja {
	var out []model.MovimientoCaja
	for _, m := range r.movimientos {
		if m.SesionCajaID == id {
			out = append(out, m)
		}
	}
	return out
}

func (r *memCajaRepo) ListSesiones(_ context.Context, empresaID uuid.UUID, limit int) ([]model.SesionCaja, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.SesionCaja
	for _, s := range r.sesiones {
		if s.EmpresaID == empresaID {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OpenedAt.After(out[j].OpenedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memCajaRepo) DB() *gorm.DB { return nil }

var _ repository.CajaRepository = (*memCajaRepo)(nil)

// ── MetodoPagoRepository ─────────────────────────────────────────────────────

type memMetodoRepo struct {
	metodos map[uuid.UUID]*model.MetodoPago
}

func newMemMetodoRepo() *memMetodoRepo {
	return &memMetodoRepo{metodos: make(map[uuid.UUID]*model.MetodoPago)}
}

// add registers an active payment method and returns its id.
func (r *memMetodoRepo) add(empresaID uuid.UUID, nombre string, m moneda.Moneda) uuid.UUID {
	mp := &model.MetodoPago{ID: uuid.New(), EmpresaID: empresaID, Nombre: nombre, Moneda: m, Activo: true}
	r.metodos[mp.ID] = mp
	return mp.ID
}

func (r *memMetodoRepo) Create(_ context.Context, m *model.MetodoPago) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	r.metodos[m.ID] = m
	return nil
}

func (r *memMetodoRepo) FindByID(_ context.Context, id uuid.UUID) (*model.MetodoPago, error) {
	m, ok := r.metodos[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return m, nil
}

func (r *memMetodoRepo) List(_ context.Context, empresaID uuid.UUID) ([]model.MetodoPago, error) {
	var out []model.MetodoPago
	for _, m := range r.metodos {
		if m.EmpresaID == empresaID {
			out = append(out, *m)
		}
	}
	return out, nil
}

var _ repository.MetodoPagoRepository = (*memMetodoRepo)(nil)

// ── ClienteRepository ────────────────────────────────────────────────────────

type memClienteRepo struct{ clientes map[uuid.UUID]*model.Cliente }

func newMemClienteRepo() *memClienteRepo {
	return &memClienteRepo{clientes: make(map[uuid.UUID]*model.Cliente)}
}

func (r *memClienteRepo) Create(_ context.Context, c *model.Cliente) error {
	for _, o := range r.clientes {
		if o.EmpresaID == c.EmpresaID && o.RIF == c.RIF {
			return gorm.ErrDuplicatedKey
		}
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	r.clientes[c.ID] = c
	return nil
}

func (r *memClienteRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Cliente, error) {
	c, ok := r.clientes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (r *memClienteRepo) FindByRIF(_ context.Context, empresaID uuid.UUID, rif string) (*model.Cliente, error) {
	for _, c := range r.clientes {
		if c.EmpresaID == empresaID && c.RIF == rif {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memClienteRepo) List(_ context.Context, empresaID uuid.UUID) ([]model.Cliente, error) {
	var out []model.Cliente
	for _, c := range r.clientes {
		if c.EmpresaID == empresaID {
			out = append(out, *c)
		}
	}
	return out, nil
}

var _ repository.ClienteRepository = (*memClienteRepo)(nil)

// ── VentaRepository ──────────────────────────────────────────────────────────

type memVentaRepo struct {
	mu       sync.Mutex
	ventas   map[uuid.UUID]*model.Venta
	clientes *memClienteRepo
	pagos    []model.PagoVenta
}

func newMemVentaRepo(clientes *memClienteRepo) *memVentaRepo {
	return &memVentaRepo{ventas: make(map[uuid.UUID]*model.Venta), clientes: clientes}
}

func (r *memVentaRepo) Create(_ context.Context, _ *gorm.DB, v *model.Venta) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.ventas {
		if o.EmpresaID == v.EmpresaID && o.NumeroFactura == v.NumeroFactura {
			return gorm.ErrDuplicatedKey
		}
	}
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	cp := *v
	cp.Cliente = nil
	r.ventas[v.ID] = &cp
	return nil
}

func (r *memVentaRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Venta, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.ventas[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *v
	if r.clientes != nil {
		cp.Cliente = r.clientes.clientes[v.ClienteID]
	}
	cp.Pagos = nil
	for _, p := range r.pagos {
		if p.VentaID == id {
			cp.Pagos = append(cp.Pagos, p)
		}
	}
	return &cp, nil
}

func (r *memVentaRepo) LockForUpdate(ctx context.Context, _ *gorm.DB, id uuid.UUID) (*model.Venta, error) {
	return r.FindByID(ctx, id)
}

func (r *memVentaRepo) List(_ context.Context, empresaID uuid.UUID, _ dto.VentaFilter) ([]model.Venta, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Venta
	for _, v := range r.ventas {
		if v.EmpresaID == empresaID {
			out = append(out, *v)
		}
	}
	return out, int64(len(out)), nil
}

func (r *memVentaRepo) ListPeriodo(_ context.Context, empresaID uuid.UUID, desde, hasta time.Time) ([]model.Venta, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fin := hasta.AddDate(0, 0, 1)
	var out []model.Venta
	for _, v := range r.ventas {
		if v.EmpresaID == empresaID && !v.FechaEmision.Before(desde) && v.FechaEmision.Before(fin) {
			cp := *v
			if r.clientes != nil {
				cp.Cliente = r.clientes.clientes[v.ClienteID]
			}
			out = append(out, cp)
		}
	}
	return out, nil
}

func (r *memVentaRepo) ListConSaldo(_ context.Context, empresaID uuid.UUID, clienteID *uuid.UUID) ([]model.Venta, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Venta
	for _, v := range r.ventas {
		if v.EmpresaID != empresaID || v.EstadoPago == model.PagoPagada {
			continue
		}
		if clienteID != nil && v.ClienteID != *clienteID {
			continue
		}
		out = append(out, *v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FechaEmision.Before(out[j].FechaEmision) })
	return out, nil
}

func (r *memVentaRepo) UpdateEstadoPago(_ context.Context, _ *gorm.DB, id uuid.UUID, estado string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.ventas[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	v.EstadoPago = estado
	return nil
}

func (r *memVentaRepo) CreatePago(_ context.Context, _ *gorm.DB, p *model.PagoVenta) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.pagos = append(r.pagos, *p)
	return nil
}

func (r *memVentaRepo) SumPagos(_ context.Context, _ *gorm.DB, ventaID uuid.UUID) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sum := decimal.Zero
	for _, p := range r.pagos {
		if p.VentaID == ventaID {
			sum = sum.Add(p.Monto)
		}
	}
	return sum, nil
}

func (r *memVentaRepo) SumPagosPorVenta(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	out := make(map[uuid.UUID]decimal.Decimal, len(ids))
	for _, id := range ids {
		s, _ := r.SumPagos(ctx, nil, id)
		out[id] = s
	}
	return out, nil
}

func (r *memVentaRepo) DB() *gorm.DB { return nil }

// put stores a sale directly, bypassing the service.
func (r *memVentaRepo) put(v *model.Venta) *model.Venta {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	if v.EstadoPago == "" {
		v.EstadoPago = model.PagoPendiente
	}
	r.ventas[v.ID] = v
	return v
}

var _ repository.VentaRepository = (*memVentaRepo)(nil)

// ── RetencionRepository ──────────────────────────────────────────────────────

type memRetencionRepo struct {
	mu          sync.Mutex
	retenciones map[uuid.UUID]*model.Retencion
	contadores  map[string]int64
	ventas      *memVentaRepo
}

func newMemRetencionRepo(ventas *memVentaRepo) *memRetencionRepo {
	return &memRetencionRepo{
		retenciones: make(map[uuid.UUID]*model.Retencion),
		contadores:  make(map[string]int64),
		ventas:      ventas,
	}
}

func (r *memRetencionRepo) ExisteParaVenta(_ context.Context, _ *gorm.DB, ventaID uuid.UUID, tipo string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ret := range r.retenciones {
		if ret.VentaID == ventaID && ret.Tipo == tipo {
			return true, nil
		}
	}
	return false, nil
}

func (r *memRetencionRepo) SiguienteSecuencia(_ context.Context, _ *gorm.DB, empresaID uuid.UUID, tipo string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := empresaID.String() + "|" + tipo
	r.contadores[k]++
	return r.contadores[k], nil
}

func (r *memRetencionRepo) Create(_ context.Context, _ *gorm.DB, ret *model.Retencion) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.retenciones {
		if o.VentaID == ret.VentaID && o.Tipo == ret.Tipo {
			return gorm.ErrDuplicatedKey
		}
	}
	if ret.ID == uuid.Nil {
		ret.ID = uuid.New()
	}
	cp := *ret
	r.retenciones[ret.ID] = &cp
	return nil
}

func (r *memRetencionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Retencion, error) {
	r.mu.Lock()
	ret, ok := r.retenciones[id]
	r.mu.Unlock()
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *ret
	if r.ventas != nil {
		if v, err := r.ventas.FindByID(ctx, ret.VentaID); err == nil {
			cp.Venta = v
		}
	}
	return &cp, nil
}

func (r *memRetencionRepo) List(_ context.Context, empresaID uuid.UUID, tipo string, _ dto.RetencionFilter) ([]model.Retencion, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Retencion
	for _, ret := range r.retenciones {
		if ret.EmpresaID == empresaID && ret.Tipo == tipo {
			out = append(out, *ret)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Secuencia < out[j].Secuencia })
	return out, int64(len(out)), nil
}

func (r *memRetencionRepo) ListPeriodo(_ context.Context, empresaID uuid.UUID, desde, hasta time.Time) ([]model.Retencion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fin := hasta.AddDate(0, 0, 1)
	var out []model.Retencion
	for _, ret := range r.retenciones {
		if ret.EmpresaID == empresaID && !ret.FechaEmision.Before(desde) && ret.FechaEmision.Before(fin) {
			out = append(out, *ret)
		}
	}
	return out, nil
}

func (r *memRetencionRepo) Update(_ context.Context, ret *model.Retencion) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.retenciones[ret.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *ret
	cp.Venta = nil
	r.retenciones[ret.ID] = &cp
	return nil
}

func (r *memRetencionRepo) ListPendingRetries(_ context.Context, limit int) ([]model.Retencion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	var out []model.Retencion
	for _, ret := range r.retenciones {
		if ret.NextRetryAt != nil && !ret.NextRetryAt.After(now) && len(out) < limit {
			out = append(out, *ret)
		}
	}
	return out, nil
}

func (r *memRetencionRepo) DB() *gorm.DB { return nil }

var _ repository.RetencionRepository = (*memRetencionRepo)(nil)

// ── ProveedorRepository / CompraRepository ───────────────────────────────────

type memProveedorRepo struct {
	proveedores map[uuid.UUID]*model.Proveedor
}

func newMemProveedorRepo() *memProveedorRepo {
	return &memProveedorRepo{proveedores: make(map[uuid.UUID]*model.Proveedor)}
}

func (r *memProveedorRepo) Create(_ context.Context, p *model.Proveedor) error {
	for _, o := range r.proveedores {
		if o.EmpresaID == p.EmpresaID && o.RIF == p.RIF {
			return gorm.ErrDuplicatedKey
		}
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.proveedores[p.ID] = p
	return nil
}

func (r *memProveedorRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Proveedor, error) {
	p, ok := r.proveedores[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (r *memProveedorRepo) FindByRIF(_ context.Context, empresaID uuid.UUID, rif string) (*model.Proveedor, error) {
	for _, p := range r.proveedores {
		if p.EmpresaID == empresaID && p.RIF == rif {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memProveedorRepo) List(_ context.Context, empresaID uuid.UUID) ([]model.Proveedor, error) {
	var out []model.Proveedor
	for _, p := range r.proveedores {
		if p.EmpresaID == empresaID && p.Activo {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *memProveedorRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	p, ok := r.proveedores[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.Activo = false
	return nil
}

var _ repository.ProveedorRepository = (*memProveedorRepo)(nil)

type memCompraRepo struct{ compras []model.Compra }

func (r *memCompraRepo) Create(_ context.Context, c *model.Compra) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	r.compras = append(r.compras, *c)
	return nil
}

func (r *memCompraRepo) ListPeriodo(_ context.Context, empresaID uuid.UUID, desde, hasta time.Time) ([]model.Compra, error) {
	fin := hasta.AddDate(0, 0, 1)
	var out []model.Compra
	for _, c := range r.compras {
		if c.EmpresaID == empresaID && !c.Fecha.Before(desde) && c.Fecha.Before(fin) {
			out = append(out, c)
		}
	}
	return out, nil
}

var _ repository.CompraRepository = (*memCompraRepo)(nil)

// ── PagoPasarelaRepository ───────────────────────────────────────────────────

type memPagoPasarelaRepo struct {
	pagos map[string]*model.PagoPasarela
}

func newMemPagoPasarelaRepo() *memPagoPasarelaRepo {
	return &memPagoPasarelaRepo{pagos: make(map[string]*model.PagoPasarela)}
}

func (r *memPagoPasarelaRepo) Create(_ context.Context, _ *gorm.DB, p *model.PagoPasarela) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	cp := *p
	r.pagos[p.Pasarela+"|"+p.Referencia] = &cp
	return nil
}

func (r *memPagoPasarelaRepo) FindByReferencia(_ context.Context, pasarela, referencia string) (*model.PagoPasarela, error) {
	p, ok := r.pagos[pasarela+"|"+referencia]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *memPagoPasarelaRepo) SumPendienteUSD(_ context.Context, _ *gorm.DB, ventaID uuid.UUID, desde time.Time) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, p := range r.pagos {
		if p.VentaID == ventaID && p.Estado == model.PasarelaPendiente && !p.CreatedAt.Before(desde) {
			sum = sum.Add(p.MontoUSD)
		}
	}
	return sum, nil
}

func (r *memPagoPasarelaRepo) UpdateExterno(_ context.Context, p *model.PagoPasarela) error {
	cur, ok := r.pagos[p.Pasarela+"|"+p.Referencia]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	cur.PagoExternoID, cur.URL = p.PagoExternoID, p.URL
	return nil
}

func (r *memPagoPasarelaRepo) UpdateEstado(ctx context.Context, tx *gorm.DB, p *model.PagoPasarela, estado string) (bool, error) {
	return r.Transicionar(ctx, tx, p, model.PasarelaPendiente, estado)
}

func (r *memPagoPasarelaRepo) Transicionar(_ context.Context, _ *gorm.DB, p *model.PagoPasarela, desde, hacia string) (bool, error) {
	cur, ok := r.pagos[p.Pasarela+"|"+p.Referencia]
	if !ok || cur.Estado != desde {
		return false, nil
	}
	cur.Estado = hacia
	p.Estado = hacia
	return true, nil
}

var _ repository.PagoPasarelaRepository = (*memPagoPasarelaRepo)(nil)

// ── UsuarioRepository ────────────────────────────────────────────────────────

type memUsuarioRepo struct{ usuarios map[uuid.UUID]*model.Usuario }

func (r *memUsuarioRepo) Create(_ context.Context, u *model.Usuario) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	r.usuarios[u.ID] = u
	return nil
}

func (r *memUsuarioRepo) FindByUsername(_ context.Context, username string) (*model.Usuario, error) {
	for _, u := range r.usuarios {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memUsuarioRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Usuario, error) {
	u, ok := r.usuarios[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

var _ repository.UsuarioRepository = (*memUsuarioRepo)(nil)
