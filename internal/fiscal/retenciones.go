// Package fiscal holds the pure withholding, receivables and reporting rules.
// Nothing here performs I/O; services load records and persist the results.
package fiscal

import (
	"fmt"
	"strings"

	"novaadm/internal/model"
	"novaadm/internal/moneda"

	"github.com/shopspring/decimal"
)

// ── Policy tables ─────────────────────────────────────────────────────────────

var (
	ivaContribuyenteEspecial  = decimal.NewFromInt(75)
	ivaContribuyenteOrdinario = decimal.NewFromInt(100)
	municipalPorcentaje       = decimal.NewFromInt(1)
	islrPorDefecto            = decimal.NewFromInt(2)
)

// islrPorServicio maps a service category to its ISLR withholding percentage.
var islrPorServicio = map[string]decimal.Decimal{
	"honorarios_profesionales": decimal.NewFromInt(3),
	"consultoria":              decimal.NewFromInt(3),
	"arrendamiento":            decimal.NewFromInt(3),
	"publicidad":               decimal.NewFromInt(3),
	"servicios_tecnicos":       decimal.NewFromInt(2),
	"servicios":                decimal.NewFromInt(2),
}

// Calculo is the outcome of applying a withholding policy to a sale.
type Calculo struct {
	Tipo          string
	BaseImponible decimal.Decimal
	MontoBase     decimal.Decimal
	Porcentaje    decimal.Decimal
	MontoRetenido decimal.Decimal
	TipoServicio  *string
}

// TipoValido normalizes a withholding kind from a URL segment or payload.
func TipoValido(tipo string) (string, bool) {
	switch t := strings.ToUpper(strings.TrimSpace(tipo)); t {
	case model.RetencionIVA, model.RetencionISLR, model.RetencionMunicipal:
		return t, true
	}
	return "", false
}

// CalcularIVA withholds 75% of the invoice tax for special taxpayers and 100%
// otherwise. The taxable base is kept for the receipt.
func CalcularIVA(v *model.Venta, contribuyenteEspecial bool) Calculo {
	pct := ivaContribuyenteOrdinario
	if contribuyenteEspecial {
		pct = ivaContribuyenteEspecial
	}
	return Calculo{
		Tipo:          model.RetencionIVA,
		BaseImponible: v.SubtotalUSD,
		MontoBase:     v.IVAUSD,
		Porcentaje:    pct,
		MontoRetenido: moneda.Porcentaje(v.IVAUSD, pct),
	}
}

// PorcentajeISLR returns the rate for a service category, 2% when unknown.
func PorcentajeISLR(tipoServicio string) decimal.Decimal {
	if pct, ok := islrPorServicio[strings.ToLower(strings.TrimSpace(tipoServicio))]; ok {
		return pct
	}
	return islrPorDefecto
}

func CalcularISLR(v *model.Venta, tipoServicio string) Calculo {
	pct := PorcentajeISLR(tipoServicio)
	c := Calculo{
		Tipo:          model.RetencionISLR,
		BaseImponible: v.TotalUSD,
		MontoBase:     v.TotalUSD,
		Porcentaje:    pct,
		MontoRetenido: moneda.Porcentaje(v.TotalUSD, pct),
	}
	if tipoServicio != "" {
		ts := tipoServicio
		c.TipoServicio = &ts
	}
	return c
}

func CalcularMunicipal(v *model.Venta) Calculo {
	return Calculo{
		Tipo:          model.RetencionMunicipal,
		BaseImponible: v.TotalUSD,
		MontoBase:     v.TotalUSD,
		Porcentaje:    municipalPorcentaje,
		MontoRetenido: moneda.Porcentaje(v.TotalUSD, municipalPorcentaje),
	}
}

// Calcular dispatches on tipo. The caller must have validated it with TipoValido.
func Calcular(tipo string, v *model.Venta, contribuyenteEspecial bool, tipoServicio string) Calculo {
	switch tipo {
	case model.RetencionIVA:
		return CalcularIVA(v, contribuyenteEspecial)
	case model.RetencionISLR:
		return CalcularISLR(v, tipoServicio)
	default:
		return CalcularMunicipal(v)
	}
}

// NumeroComprobante formats a receipt number, e.g. RET-IVA-000042.
func NumeroComprobante(tipo string, secuencia int64) string {
	return fmt.Sprintf("RET-%s-%06d", tipo, secuencia)
}
