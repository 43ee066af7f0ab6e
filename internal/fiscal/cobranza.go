package fiscal

import (
	"time"

	"novaadm/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PlazoCobranzaPorDefecto is the credit term used when none is configured.
const PlazoCobranzaPorDefecto = 30

// EstadoPago derives a sale's payment status from the amount paid so far.
func EstadoPago(pagado, total decimal.Decimal) string {
	switch {
	case pagado.GreaterThanOrEqual(total):
		return model.PagoPagada
	case pagado.IsPositive():
		return model.PagoParcial
	default:
		return model.PagoPendiente
	}
}

// CuentaPorCobrar is a read-only receivable view over a sale.
type CuentaPorCobrar struct {
	VentaID          uuid.UUID       `json:"venta_id"`
	NumeroFactura    string          `json:"numero_factura"`
	ClienteID        uuid.UUID       `json:"cliente_id"`
	FechaEmision     time.Time       `json:"fecha_emision"`
	FechaVencimiento time.Time       `json:"fecha_vencimiento"`
	TotalUSD         decimal.Decimal `json:"total_usd"`
	PagadoUSD        decimal.Decimal `json:"pagado_usd"`
	SaldoUSD         decimal.Decimal `json:"saldo_usd"`
	EstadoPago       string          `json:"estado_pago"`
	Vencida          bool            `json:"vencida"`
	DiasVencida      int             `json:"dias_vencida"`
}

// DerivarCuentaPorCobrar builds the receivable for v given what has been paid.
// Overdue is computed against now and never stored.
func DerivarCuentaPorCobrar(v *model.Venta, pagado decimal.Decimal, plazoDias int, now time.Time) CuentaPorCobrar {
	if plazoDias <= 0 {
		plazoDias = PlazoCobranzaPorDefecto
	}
	estado := EstadoPago(pagado, v.TotalUSD)
	vence := v.FechaEmision.AddDate(0, 0, plazoDias)

	saldo := decimal.Zero
	if estado != model.PagoPagada {
		saldo = v.TotalUSD.Sub(pagado)
	}

	c := CuentaPorCobrar{
		VentaID:          v.ID,
		NumeroFactura:    v.NumeroFactura,
		ClienteID:        v.ClienteID,
		FechaEmision:     v.FechaEmision,
		FechaVencimiento: vence,
		TotalUSD:         v.TotalUSD,
		PagadoUSD:        pagado,
		SaldoUSD:         saldo,
		EstadoPago:       estado,
	}
	if vence.Before(now) && estado != model.PagoPagada {
		c.Vencida = true
		c.DiasVencida = int(now.Sub(vence).Hours() / 24)
	}
	return c
}

// SoloVencidas filters the receivables that are past due.
func SoloVencidas(cuentas []CuentaPorCobrar) []CuentaPorCobrar {
	out := make([]CuentaPorCobrar, 0, len(cuentas))
	for _, c := range cuentas {
		if c.Vencida {
			out = append(out, c)
		}
	}
	return out
}
