package service_test

import (
	"context"
	"testing"
	"time"

	"novaadm/internal/apierror"
	"novaadm/internal/dto"
	"novaadm/internal/model"
	"novaadm/internal/moneda"
	"novaadm/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cobranzaFixture struct {
	svc       service.CobranzaService
	ventas    *memVentaRepo
	empresaID uuid.UUID
	metodo    uuid.UUID
	metodoBS  uuid.UUID
}

func newCobranzaFixture() *cobranzaFixture {
	ventas := newMemVentaRepo(newMemClienteRepo())
	metodos := newMemMetodoRepo()
	empresaID := uuid.New()
	return &cobranzaFixture{
		svc:       service.NewCobranzaService(ventas, metodos, 30),
		ventas:    ventas,
		empresaID: empresaID,
		metodo:    metodos.add(empresaID, "Zelle", moneda.USD),
		metodoBS:  metodos.add(empresaID, "Pago móvil", moneda.BS),
	}
}

func (f *cobranzaFixture) venta(total string, emitida time.Time) *model.Venta {
	return f.ventas.put(&model.Venta{
		EmpresaID:     f.empresaID,
		NumeroFactura: uuid.NewString()[:8],
		ClienteID:     uuid.New(),
		TotalUSD:      d(total),
		FechaEmision:  emitida,
	})
}

func (f *cobranzaFixture) pagarCon(metodo, ventaID uuid.UUID, monto string) (*dto.PagoResponse, error) {
	return f.svc.RegistrarPago(context.Background(), f.empresaID, dto.RegistrarPagoRequest{
		VentaID:      ventaID.String(),
		Monto:        d(monto),
		MetodoPagoID: metodo.String(),
	})
}

func (f *cobranzaFixture) pagar(ventaID uuid.UUID, monto string) (*dto.PagoResponse, error) {
	return f.pagarCon(f.metodo, ventaID, monto)
}

func TestRegistrarPago_ParcialSobrepagoPagada(t *testing.T) {
	f := newCobranzaFixture()
	v := f.venta("100", time.Now())

	resp, err := f.pagar(v.ID, "30")
	require.NoError(t, err)
	assert.Equal(t, model.PagoParcial, resp.EstadoPago)
	assert.Equal(t, "70", resp.SaldoUSD.String())

	_, err = f.pagar(v.ID, "80")
	assert.ErrorIs(t, err, apierror.ErrSobrepago)
	assert.Equal(t, 409, apierror.HTTPStatus(err))
	assert.Len(t, f.ventas.pagos, 1, "un pago rechazado no se persiste")

	resp, err = f.pagar(v.ID, "70")
	require.NoError(t, err)
	assert.Equal(t, model.PagoPagada, resp.EstadoPago)
	assert.True(t, resp.SaldoUSD.IsZero())
	assert.Equal(t, model.PagoPagada, f.ventas.ventas[v.ID].EstadoPago)
}

func TestRegistrarPago_EnBolivaresSeConvierteALaTasaDeLaVenta(t *testing.T) {
	f := newCobranzaFixture()
	v := f.venta("100", time.Now())
	f.ventas.ventas[v.ID].TasaBCV = d("36.5")

	resp, err := f.pagarCon(f.metodoBS, v.ID, "1825")
	require.NoError(t, err)
	assert.Equal(t, "50", resp.Monto.String())
	assert.Equal(t, "BS", resp.Moneda)
	assert.Equal(t, "1825", resp.MontoOriginal.String())
	assert.Equal(t, "50", resp.SaldoUSD.String())
	assert.Equal(t, model.PagoParcial, resp.EstadoPago)

	// 1825 BS is not 1825 USD: the sale is not overpaid yet
	resp, err = f.pagarCon(f.metodoBS, v.ID, "1825")
	require.NoError(t, err)
	assert.Equal(t, model.PagoPagada, resp.EstadoPago)

	_, err = f.pagarCon(f.metodoBS, v.ID, "1")
	assert.ErrorIs(t, err, apierror.ErrSobrepago)
	require.Len(t, f.ventas.pagos, 2)
	assert.Equal(t, moneda.BS, f.ventas.pagos[0].Moneda)
	assert.Equal(t, "50", f.ventas.pagos[0].Monto.String())
}

func TestRegistrarPago_BolivaresSinTasa(t *testing.T) {
	f := newCobranzaFixture()
	v := f.venta("100", time.Now())

	_, err := f.pagarCon(f.metodoBS, v.ID, "10")
	assert.Equal(t, 400, apierror.HTTPStatus(err))
	assert.Empty(t, f.ventas.pagos)
}

func TestRegistrarPago_VentaInexistente(t *testing.T) {
	f := newCobranzaFixture()
	_, err := f.pagar(uuid.New(), "1")
	assert.ErrorIs(t, err, apierror.ErrVentaNoEncontrada)
}

func TestRegistrarPago_VentaDeOtraEmpresa(t *testing.T) {
	f := newCobranzaFixture()
	v := f.ventas.put(&model.Venta{EmpresaID: uuid.New(), TotalUSD: d("10"), FechaEmision: time.Now()})

	_, err := f.pagar(v.ID, "1")
	assert.ErrorIs(t, err, apierror.ErrVentaNoEncontrada)
}

func TestRegistrarPago_MontoNoPositivo(t *testing.T) {
	f := newCobranzaFixture()
	v := f.venta("10", time.Now())
	_, err := f.pagar(v.ID, "0")
	assert.Equal(t, 400, apierror.HTTPStatus(err))
}

func TestListarCobranzas_Vencidas(t *testing.T) {
	f := newCobranzaFixture()
	vieja := f.venta("50", time.Now().AddDate(0, 0, -45))
	f.venta("20", time.Now())
	pagada := f.venta("10", time.Now().AddDate(0, 0, -60))
	_, err := f.pagar(pagada.ID, "10")
	require.NoError(t, err)

	todas, err := f.svc.Listar(context.Background(), f.empresaID, dto.CobranzaFilter{})
	require.NoError(t, err)
	assert.Len(t, todas, 2)

	vencidas, err := f.svc.Listar(context.Background(), f.empresaID, dto.CobranzaFilter{SoloVencidas: true})
	require.NoError(t, err)
	require.Len(t, vencidas, 1)
	assert.Equal(t, vieja.ID, vencidas[0].VentaID)
	assert.GreaterOrEqual(t, vencidas[0].DiasVencida, 14)
}

func TestObtenerCobranza(t *testing.T) {
	f := newCobranzaFixture()
	v := f.venta("100", time.Now())
	_, err := f.pagar(v.ID, "25.50")
	require.NoError(t, err)

	c, err := f.svc.Obtener(context.Background(), f.empresaID, v.ID)
	require.NoError(t, err)
	assert.Equal(t, "25.5", c.PagadoUSD.String())
	assert.Equal(t, "74.5", c.SaldoUSD.String())
	assert.Equal(t, model.PagoParcial, c.EstadoPago)
	assert.False(t, c.Vencida)
}
