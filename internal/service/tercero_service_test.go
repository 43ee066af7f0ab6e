package service_test

import (
	"context"
	"testing"

	"novaadm/internal/apierror"
	"novaadm/internal/dto"
	"novaadm/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type terceroFixture struct {
	svc         service.TerceroService
	compras     *memCompraRepo
	proveedores *memProveedorRepo
	empresaID   uuid.UUID
}

func newTerceroFixture() *terceroFixture {
	compras := &memCompraRepo{}
	proveedores := newMemProveedorRepo()
	return &terceroFixture{
		svc:         service.NewTerceroService(newMemClienteRepo(), proveedores, compras, tasaFija("36.50"), nil),
		compras:     compras,
		proveedores: proveedores,
		empresaID:   uuid.New(),
	}
}

func TestNormalizarRIF(t *testing.T) {
	assert.Equal(t, "J123456789", service.NormalizarRIF(" j-12345678-9 "))
	assert.Equal(t, "V123456789", service.NormalizarRIF("V12345678-9"))
}

func TestCrearCliente_RIFDuplicado(t *testing.T) {
	f := newTerceroFixture()
	req := dto.CrearClienteRequest{RIF: "J-12345678-9", RazonSocial: "Distribuidora Lara", ContribuyenteEspecial: true}

	c, err := f.svc.CrearCliente(context.Background(), f.empresaID, req)
	require.NoError(t, err)
	assert.Equal(t, "J123456789", c.RIF)
	assert.True(t, c.ContribuyenteEspecial)

	req.RIF = "j123456789"
	_, err = f.svc.CrearCliente(context.Background(), f.empresaID, req)
	assert.ErrorIs(t, err, apierror.ErrRIFDuplicado)

	// same RIF under another company is fine
	_, err = f.svc.CrearCliente(context.Background(), uuid.New(), req)
	assert.NoError(t, err)
}

func TestProveedor_CrearListarDesactivar(t *testing.T) {
	f := newTerceroFixture()
	p, err := f.svc.CrearProveedor(context.Background(), f.empresaID, dto.CrearProveedorRequest{RIF: "G-20000001-0", RazonSocial: "Hidrocapital"})
	require.NoError(t, err)

	_, err = f.svc.CrearProveedor(context.Background(), f.empresaID, dto.CrearProveedorRequest{RIF: "G200000010", RazonSocial: "Otra"})
	assert.ErrorIs(t, err, apierror.ErrRIFDuplicado)

	list, err := f.svc.ListarProveedores(context.Background(), f.empresaID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	err = f.svc.DesactivarProveedor(context.Background(), uuid.New(), uuid.MustParse(p.ID))
	assert.ErrorIs(t, err, apierror.ErrProveedorNoEncontrado)

	require.NoError(t, f.svc.DesactivarProveedor(context.Background(), f.empresaID, uuid.MustParse(p.ID)))
	list, err = f.svc.ListarProveedores(context.Background(), f.empresaID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRegistrarCompra(t *testing.T) {
	f := newTerceroFixture()
	p, err := f.svc.CrearProveedor(context.Background(), f.empresaID, dto.CrearProveedorRequest{RIF: "J-30000000-1", RazonSocial: "Papelera Caracas"})
	require.NoError(t, err)
	fecha := "2026-03-15"

	c, err := f.svc.RegistrarCompra(context.Background(), f.empresaID, dto.RegistrarCompraRequest{
		ProveedorID:   p.ID,
		NumeroFactura: "F-889",
		SubtotalUSD:   d("50"),
		IVAUSD:        d("8"),
		Fecha:         &fecha,
	})
	require.NoError(t, err)
	assert.Equal(t, "J300000001", c.ProveedorRIF)
	assert.Equal(t, "58", c.TotalUSD.String())
	assert.Equal(t, "2117.00", c.TotalBS.StringFixed(2))
	assert.Equal(t, fecha, c.Fecha)
	assert.Len(t, f.compras.compras, 1)
}

func TestRegistrarCompra_ProveedorAjeno(t *testing.T) {
	f := newTerceroFixture()
	p, err := f.svc.CrearProveedor(context.Background(), uuid.New(), dto.CrearProveedorRequest{RIF: "J-30000000-1", RazonSocial: "Ajeno"})
	require.NoError(t, err)

	_, err = f.svc.RegistrarCompra(context.Background(), f.empresaID, dto.RegistrarCompraRequest{
		ProveedorID: p.ID, NumeroFactura: "1", SubtotalUSD: d("1"), IVAUSD: d("0.16"),
	})
	assert.ErrorIs(t, err, apierror.ErrProveedorNoEncontrado)
}
