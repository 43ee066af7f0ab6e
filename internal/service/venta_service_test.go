package service_test

import (
	"context"
	"testing"

	"novaadm/internal/apierror"
	"novaadm/internal/config"
	"novaadm/internal/dto"
	"novaadm/internal/model"
	"novaadm/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		AlicuotaIVA:        16,
		ZonaHoraria:        "America/Caracas",
		PlazoCobranzaDias:  30,
		TasaTimeoutSeg:     1,
		JWTSecret:          "test-secret",
		JWTExpirationHours: 8,
		JWTRefreshHours:    24,
	}
}

type ventaFixture struct {
	svc       service.VentaService
	ventas    *memVentaRepo
	clientes  *memClienteRepo
	empresaID uuid.UUID
	cliente   *model.Cliente
}

func newVentaFixture(tasas service.TasaService) *ventaFixture {
	clientes := newMemClienteRepo()
	ventas := newMemVentaRepo(clientes)
	empresaID := uuid.New()
	c := &model.Cliente{EmpresaID: empresaID, RIF: "J123456789", RazonSocial: "Inversiones Ávila C.A."}
	_ = clientes.Create(context.Background(), c)
	return &ventaFixture{
		svc:       service.NewVentaService(ventas, clientes, tasas, testConfig()),
		ventas:    ventas,
		clientes:  clientes,
		empresaID: empresaID,
		cliente:   c,
	}
}

func (f *ventaFixture) registrar(numero, subtotal string) (*dto.VentaResponse, error) {
	return f.svc.Registrar(context.Background(), f.empresaID, uuid.New(), dto.RegistrarVentaRequest{
		NumeroFactura: numero,
		ClienteID:     f.cliente.ID.String(),
		SubtotalUSD:   d(subtotal),
	})
}

func TestRegistrarVenta(t *testing.T) {
	f := newVentaFixture(tasaFija("36.50"))

	resp, err := f.registrar("00000001", "100")
	require.NoError(t, err)
	assert.Equal(t, "16", resp.IVAUSD.String())
	assert.Equal(t, "116", resp.TotalUSD.String())
	assert.Equal(t, "4234.00", resp.TotalBS.StringFixed(2))
	assert.Equal(t, "36.5", resp.TasaBCV.String())
	assert.Equal(t, model.PagoPendiente, resp.EstadoPago)
	assert.Equal(t, "J123456789", resp.ClienteRIF)
}

func TestRegistrarVenta_AlicuotaReducida(t *testing.T) {
	f := newVentaFixture(tasaFija("40"))
	alicuota := d("8")

	resp, err := f.svc.Registrar(context.Background(), f.empresaID, uuid.New(), dto.RegistrarVentaRequest{
		NumeroFactura: "A-1",
		ClienteID:     f.cliente.ID.String(),
		SubtotalUSD:   d("33.33"),
		AlicuotaIVA:   &alicuota,
	})
	require.NoError(t, err)
	assert.Equal(t, "2.67", resp.IVAUSD.StringFixed(2))
	assert.Equal(t, "36.00", resp.TotalUSD.StringFixed(2))
}

func TestRegistrarVenta_FacturaDuplicada(t *testing.T) {
	f := newVentaFixture(tasaFija("36.50"))
	_, err := f.registrar("00000001", "10")
	require.NoError(t, err)

	_, err = f.registrar("00000001", "20")
	assert.ErrorIs(t, err, apierror.ErrFacturaDuplicada)
	assert.Equal(t, 409, apierror.HTTPStatus(err))
}

func TestRegistrarVenta_ClienteDesconocido(t *testing.T) {
	f := newVentaFixture(tasaFija("36.50"))
	_, err := f.svc.Registrar(context.Background(), f.empresaID, uuid.New(), dto.RegistrarVentaRequest{
		NumeroFactura: "1",
		ClienteID:     uuid.NewString(),
		SubtotalUSD:   d("10"),
	})
	assert.ErrorIs(t, err, apierror.ErrClienteNoEncontrado)
	assert.Equal(t, 404, apierror.HTTPStatus(err))
}

func TestRegistrarVenta_SinTasa(t *testing.T) {
	f := newVentaFixture(&stubTasas{})
	_, err := f.registrar("1", "10")
	assert.ErrorIs(t, err, apierror.ErrSinTasa)
	assert.Empty(t, f.ventas.ventas)
}

func TestObtenerVenta_OtraEmpresa(t *testing.T) {
	f := newVentaFixture(tasaFija("36.50"))
	resp, err := f.registrar("1", "10")
	require.NoError(t, err)
	id := uuid.MustParse(resp.ID)

	_, err = f.svc.Obtener(context.Background(), uuid.New(), id)
	assert.ErrorIs(t, err, apierror.ErrVentaNoEncontrada)

	got, err := f.svc.Obtener(context.Background(), f.empresaID, id)
	require.NoError(t, err)
	assert.Equal(t, resp.NumeroFactura, got.NumeroFactura)
}
