package fiscal

import (
	"sort"
	"time"

	"novaadm/internal/model"
	"novaadm/internal/moneda"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const fechaISO = "2006-01-02"

// Totales accumulates the money columns shared by sales and purchases.
type Totales struct {
	Cantidad    int             `json:"cantidad"`
	SubtotalUSD decimal.Decimal `json:"subtotal_usd"`
	IVAUSD      decimal.Decimal `json:"iva_usd"`
	TotalUSD    decimal.Decimal `json:"total_usd"`
	TotalBS     decimal.Decimal `json:"total_bs"`
}

func (t *Totales) sumar(subtotal, iva, total, totalBS decimal.Decimal) {
	t.Cantidad++
	t.SubtotalUSD = t.SubtotalUSD.Add(subtotal)
	t.IVAUSD = t.IVAUSD.Add(iva)
	t.TotalUSD = t.TotalUSD.Add(total)
	t.TotalBS = t.TotalBS.Add(totalBS)
}

func (t *Totales) redondear() {
	t.SubtotalUSD = moneda.Redondear(t.SubtotalUSD)
	t.IVAUSD = moneda.Redondear(t.IVAUSD)
	t.TotalUSD = moneda.Redondear(t.TotalUSD)
	t.TotalBS = moneda.Redondear(t.TotalBS)
}

// GrupoRIF is a per-counterparty subtotal.
type GrupoRIF struct {
	RIF string `json:"rif"`
	Totales
}

// GrupoRetencion is a per-kind withholding subtotal.
type GrupoRetencion struct {
	Tipo          string          `json:"tipo"`
	Cantidad      int             `json:"cantidad"`
	MontoBase     decimal.Decimal `json:"monto_base"`
	MontoRetenido decimal.Decimal `json:"monto_retenido"`
}

type ResumenVentas struct {
	Totales
	PorCliente []GrupoRIF `json:"por_cliente"`
}

type ResumenCompras struct {
	Totales
	PorProveedor []GrupoRIF `json:"por_proveedor"`
}

type ResumenRetenciones struct {
	Cantidad      int              `json:"cantidad"`
	TotalRetenido decimal.Decimal  `json:"total_retenido"`
	PorTipo       []GrupoRetencion `json:"por_tipo"`
}

// ReporteFiscal is the aggregation of one company over a closed period.
type ReporteFiscal struct {
	EmpresaID   uuid.UUID          `json:"empresa_id"`
	Desde       string             `json:"desde"`
	Hasta       string             `json:"hasta"`
	Ventas      ResumenVentas      `json:"ventas"`
	Compras     ResumenCompras     `json:"compras"`
	Retenciones ResumenRetenciones `json:"retenciones"`
}

var ordenRetenciones = []string{model.RetencionIVA, model.RetencionISLR, model.RetencionMunicipal}

// AgregarPeriodo aggregates the records of [desde, hasta]. Records outside the
// period or belonging to another company are ignored, as are voided
// withholdings. Groups are sorted by key so equal inputs marshal identically.
func AgregarPeriodo(
	empresaID uuid.UUID,
	desde, hasta time.Time,
	ventas []model.Venta,
	compras []model.Compra,
	retenciones []model.Retencion,
) ReporteFiscal {
	fin := finDelDia(hasta)
	dentro := func(t time.Time) bool { return !t.Before(desde) && !t.After(fin) }

	r := ReporteFiscal{
		EmpresaID: empresaID,
		Desde:     desde.Format(fechaISO),
		Hasta:     hasta.Format(fechaISO),
	}

	clientes := map[string]*GrupoRIF{}
	for i := range ventas {
		v := &ventas[i]
		if v.EmpresaID != empresaID || !dentro(v.FechaEmision) {
			continue
		}
		r.Ventas.sumar(v.SubtotalUSD, v.IVAUSD, v.TotalUSD, v.TotalBS)
		rif := v.ClienteID.String()
		if v.Cliente != nil && v.Cliente.RIF != "" {
			rif = v.Cliente.RIF
		}
		grupo(clientes, rif).sumar(v.SubtotalUSD, v.IVAUSD, v.TotalUSD, v.TotalBS)
	}
	r.Ventas.redondear()
	r.Ventas.PorCliente = ordenar(clientes)

	proveedores := map[string]*GrupoRIF{}
	for i := range compras {
		c := &compras[i]
		if c.EmpresaID != empresaID || !dentro(c.Fecha) {
			continue
		}
		r.Compras.sumar(c.SubtotalUSD, c.IVAUSD, c.TotalUSD, c.TotalBS)
		grupo(proveedores, c.ProveedorRIF).sumar(c.SubtotalUSD, c.IVAUSD, c.TotalUSD, c.TotalBS)
	}
	r.Compras.redondear()
	r.Compras.PorProveedor = ordenar(proveedores)

	porTipo := map[string]*GrupoRetencion{}
	for i := range retenciones {
		ret := &retenciones[i]
		if ret.EmpresaID != empresaID || ret.Estado == model.RetencionAnulada || !dentro(ret.FechaEmision) {
			continue
		}
		g, ok := porTipo[ret.Tipo]
		if !ok {
			g = &GrupoRetencion{Tipo: ret.Tipo}
			porTipo[ret.Tipo] = g
		}
		g.Cantidad++
		g.MontoBase = g.MontoBase.Add(ret.MontoBase)
		g.MontoRetenido = g.MontoRetenido.Add(ret.MontoRetenido)
		r.Retenciones.Cantidad++
		r.Retenciones.TotalRetenido = r.Retenciones.TotalRetenido.Add(ret.MontoRetenido)
	}
	r.Retenciones.TotalRetenido = moneda.Redondear(r.Retenciones.TotalRetenido)
	r.Retenciones.PorTipo = make([]GrupoRetencion, 0, len(porTipo))
	for _, tipo := range ordenRetenciones {
		if g, ok := porTipo[tipo]; ok {
			g.MontoBase = moneda.Redondear(g.MontoBase)
			g.MontoRetenido = moneda.Redondear(g.MontoRetenido)
			r.Retenciones.PorTipo = append(r.Retenciones.PorTipo, *g)
		}
	}
	return r
}

func grupo(m map[string]*GrupoRIF, rif string) *GrupoRIF {
	g, ok := m[rif]
	if !ok {
		g = &GrupoRIF{RIF: rif}
		m[rif] = g
	}
	return g
}

func ordenar(m map[string]*GrupoRIF) []GrupoRIF {
	out := make([]GrupoRIF, 0, len(m))
	for _, g := range m {
		g.redondear()
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RIF < out[j].RIF })
	return out
}

func finDelDia(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}
