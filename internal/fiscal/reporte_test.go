package fiscal

import (
	"encoding/json"
	"testing"
	"time"

	"novaadm/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type periodoFixture struct {
	empresa     uuid.UUID
	desde       time.Time
	hasta       time.Time
	ventas      []model.Venta
	compras     []model.Compra
	retenciones []model.Retencion
}

func nuevoPeriodo() periodoFixture {
	empresa := uuid.New()
	otra := uuid.New()
	desde := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	hasta := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	dia := func(d int) time.Time { return time.Date(2026, 3, d, 15, 0, 0, 0, time.UTC) }

	clienteA := &model.Cliente{RIF: "J-30000001-0"}
	clienteB := &model.Cliente{RIF: "J-10000001-0"}

	return periodoFixture{
		empresa: empresa,
		desde:   desde,
		hasta:   hasta,
		ventas: []model.Venta{
			{EmpresaID: empresa, Cliente: clienteA, SubtotalUSD: dec("100"), IVAUSD: dec("16"), TotalUSD: dec("116"), TotalBS: dec("4234.00"), FechaEmision: dia(2)},
			{EmpresaID: empresa, Cliente: clienteB, SubtotalUSD: dec("50"), IVAUSD: dec("8"), TotalUSD: dec("58"), TotalBS: dec("2117.00"), FechaEmision: dia(31)},
			{EmpresaID: empresa, Cliente: clienteA, SubtotalUSD: dec("10"), IVAUSD: dec("1.6"), TotalUSD: dec("11.6"), TotalBS: dec("423.40"), FechaEmision: dia(15)},
			{EmpresaID: empresa, Cliente: clienteA, SubtotalUSD: dec("999"), IVAUSD: dec("0"), TotalUSD: dec("999"), TotalBS: dec("1"), FechaEmision: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)},
			{EmpresaID: otra, Cliente: clienteA, SubtotalUSD: dec("999"), IVAUSD: dec("0"), TotalUSD: dec("999"), TotalBS: dec("1"), FechaEmision: dia(3)},
		},
		compras: []model.Compra{
			{EmpresaID: empresa, ProveedorRIF: "J-2", SubtotalUSD: dec("20"), IVAUSD: dec("3.2"), TotalUSD: dec("23.2"), TotalBS: dec("846.80"), Fecha: dia(5)},
			{EmpresaID: empresa, ProveedorRIF: "J-1", SubtotalUSD: dec("40"), IVAUSD: dec("6.4"), TotalUSD: dec("46.4"), TotalBS: dec("1693.60"), Fecha: dia(6)},
			{EmpresaID: empresa, ProveedorRIF: "J-2", SubtotalUSD: dec("5"), IVAUSD: dec("0.8"), TotalUSD: dec("5.8"), TotalBS: dec("211.70"), Fecha: dia(7)},
		},
		retenciones: []model.Retencion{
			{EmpresaID: empresa, Tipo: model.RetencionMunicipal, MontoBase: dec("116"), MontoRetenido: dec("1.16"), Estado: model.RetencionEmitida, FechaEmision: dia(3)},
			{EmpresaID: empresa, Tipo: model.RetencionIVA, MontoBase: dec("16"), MontoRetenido: dec("12"), Estado: model.RetencionEmitida, FechaEmision: dia(3)},
			{EmpresaID: empresa, Tipo: model.RetencionIVA, MontoBase: dec("8"), MontoRetenido: dec("8"), Estado: model.RetencionAnulada, FechaEmision: dia(4)},
		},
	}
}

func TestAgregarPeriodo_Totales(t *testing.T) {
	f := nuevoPeriodo()
	r := AgregarPeriodo(f.empresa, f.desde, f.hasta, f.ventas, f.compras, f.retenciones)

	assert.Equal(t, 3, r.Ventas.Cantidad)
	assert.Equal(t, "185.60", r.Ventas.TotalUSD.StringFixed(2))
	assert.Equal(t, "25.60", r.Ventas.IVAUSD.StringFixed(2))

	require.Len(t, r.Ventas.PorCliente, 2)
	assert.Equal(t, "J-10000001-0", r.Ventas.PorCliente[0].RIF)
	assert.Equal(t, "J-30000001-0", r.Ventas.PorCliente[1].RIF)
	assert.Equal(t, 2, r.Ventas.PorCliente[1].Cantidad)

	require.Len(t, r.Compras.PorProveedor, 2)
	assert.Equal(t, "J-1", r.Compras.PorProveedor[0].RIF)
	assert.Equal(t, "29.00", r.Compras.PorProveedor[1].TotalUSD.StringFixed(2))
	assert.Equal(t, "75.40", r.Compras.TotalUSD.StringFixed(2))

	require.Len(t, r.Retenciones.PorTipo, 2)
	assert.Equal(t, model.RetencionIVA, r.Retenciones.PorTipo[0].Tipo)
	assert.Equal(t, model.RetencionMunicipal, r.Retenciones.PorTipo[1].Tipo)
	assert.Equal(t, "13.16", r.Retenciones.TotalRetenido.StringFixed(2))
}

func TestAgregarPeriodo_Determinista(t *testing.T) {
	f := nuevoPeriodo()
	a, err := json.Marshal(AgregarPeriodo(f.empresa, f.desde, f.hasta, f.ventas, f.compras, f.retenciones))
	require.NoError(t, err)
	again, err := json.Marshal(AgregarPeriodo(f.empresa, f.desde, f.hasta, f.ventas, f.compras, f.retenciones))
	require.NoError(t, err)
	assert.Equal(t, string(a), string(again))

	// Input order must not change the output.
	for i, j := 0, len(f.ventas)-1; i < j; i, j = i+1, j-1 {
		f.ventas[i], f.ventas[j] = f.ventas[j], f.ventas[i]
	}
	for i, j := 0, len(f.compras)-1; i < j; i, j = i+1, j-1 {
		f.compras[i], f.compras[j] = f.compras[j], f.compras[i]
	}
	b, err := json.Marshal(AgregarPeriodo(f.empresa, f.desde, f.hasta, f.ventas, f.compras, f.retenciones))
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestAgregarPeriodo_Vacio(t *testing.T) {
	desde := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	r := AgregarPeriodo(uuid.New(), desde, desde, nil, nil, nil)
	assert.Equal(t, 0, r.Ventas.Cantidad)
	assert.NotNil(t, r.Ventas.PorCliente)
	assert.NotNil(t, r.Retenciones.PorTipo)
	assert.Equal(t, "2026-01-01", r.Hasta)
}
