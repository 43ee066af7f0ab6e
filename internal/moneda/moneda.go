// Package moneda implements the dual-currency amount type used by every ledger
// computation. Amounts in different currencies never mix except through Convertir.
package moneda

import (
	"fmt"

	"novaadm/internal/apierror"

	"github.com/shopspring/decimal"
)

// Moneda is the ISO-like currency tag: "USD" | "BS".
type Moneda string

const (
	USD Moneda = "USD"
	BS  Moneda = "BS"
)

// Decimales is the precision of every stored monetary amount.
const Decimales int32 = 2

var cien = decimal.NewFromInt(100)

func (m Moneda) Valida() bool { return m == USD || m == BS }

// Monto is a decimal quantity tagged with its currency.
type Monto struct {
	Valor  decimal.Decimal `json:"valor"`
	Moneda Moneda          `json:"moneda"`
}

func Nuevo(valor decimal.Decimal, m Moneda) Monto { return Monto{Valor: valor, Moneda: m} }

func Cero(m Moneda) Monto { return Monto{Valor: decimal.Zero, Moneda: m} }

func (a Monto) String() string { return fmt.Sprintf("%s %s", a.Valor.StringFixed(Decimales), a.Moneda) }

// Sumar returns a+b; both must carry the same currency.
func Sumar(a, b Monto) (Monto, error) {
	if a.Moneda != b.Moneda {
		return Monto{}, apierror.ErrMonedaDistinta.Con(fmt.Sprintf("no se puede sumar %s con %s", a.Moneda, b.Moneda))
	}
	return Monto{Valor: a.Valor.Add(b.Valor), Moneda: a.Moneda}, nil
}

// Restar returns a-b; both must carry the same currency.
func Restar(a, b Monto) (Monto, error) {
	if a.Moneda != b.Moneda {
		return Monto{}, apierror.ErrMonedaDistinta.Con(fmt.Sprintf("no se puede restar %s de %s", b.Moneda, a.Moneda))
	}
	return Monto{Valor: a.Valor.Sub(b.Valor), Moneda: a.Moneda}, nil
}

// Convertir maps a USD amount to BS at tasa (BS per one USD), rounded to two decimals.
func Convertir(usd Monto, tasa decimal.Decimal) (Monto, error) {
	if usd.Moneda != USD {
		return Monto{}, apierror.ErrMonedaDistinta.Con("solo se convierten montos en USD")
	}
	if !tasa.IsPositive() {
		return Monto{}, apierror.Validar("la tasa de cambio debe ser mayor que cero")
	}
	return Monto{Valor: Redondear(usd.Valor.Mul(tasa)), Moneda: BS}, nil
}

// AUSD maps a BS amount back to USD at tasa, rounded to two decimals. A USD
// amount is returned unchanged.
func AUSD(m Monto, tasa decimal.Decimal) (Monto, error) {
	switch m.Moneda {
	case USD:
		return Monto{Valor: Redondear(m.Valor), Moneda: USD}, nil
	case BS:
		if !tasa.IsPositive() {
			return Monto{}, apierror.Validar("la tasa de cambio debe ser mayor que cero")
		}
		return Monto{Valor: Redondear(m.Valor.Div(tasa)), Moneda: USD}, nil
	default:
		return Monto{}, apierror.ErrMonedaDistinta.Con(fmt.Sprintf("moneda %q no soportada", m.Moneda))
	}
}

// ABs is Convertir on a bare USD value.
func ABs(usd, tasa decimal.Decimal) decimal.Decimal {
	return Redondear(usd.Mul(tasa))
}

// Redondear rounds half away from zero to two decimals.
func Redondear(v decimal.Decimal) decimal.Decimal {
	return v.Round(Decimales)
}

// Porcentaje is valor × pct / 100 rounded to two decimals. All tax and
// withholding math goes through here.
func Porcentaje(valor, pct decimal.Decimal) decimal.Decimal {
	return Redondear(valor.Mul(pct).Div(cien))
}
