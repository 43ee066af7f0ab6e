package moneda

import (
	"errors"
	"testing"

	"novaadm/internal/apierror"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestSumar_MismaMoneda(t *testing.T) {
	got, err := Sumar(Nuevo(d("10.50"), USD), Nuevo(d("4.25"), USD))
	require.NoError(t, err)
	assert.True(t, got.Valor.Equal(d("14.75")))
	assert.Equal(t, USD, got.Moneda)
}

func TestSumar_MonedaDistinta(t *testing.T) {
	_, err := Sumar(Nuevo(d("1"), USD), Nuevo(d("1"), BS))
	require.Error(t, err)
	assert.True(t, errors.Is(err, apierror.ErrMonedaDistinta))
}

func TestRestar_MonedaDistinta(t *testing.T) {
	_, err := Restar(Nuevo(d("1"), BS), Nuevo(d("1"), USD))
	assert.ErrorIs(t, err, apierror.ErrMonedaDistinta)
}

func TestConvertir(t *testing.T) {
	bs, err := Convertir(Nuevo(d("10"), USD), d("36.5512"))
	require.NoError(t, err)
	assert.Equal(t, BS, bs.Moneda)
	assert.Equal(t, "365.51", bs.Valor.StringFixed(2))
}

func TestConvertir_RedondeoMitadHaciaArriba(t *testing.T) {
	bs, err := Convertir(Nuevo(d("1"), USD), d("2.005"))
	require.NoError(t, err)
	assert.Equal(t, "2.01", bs.Valor.StringFixed(2))
}

func TestConvertir_Invalida(t *testing.T) {
	_, err := Convertir(Nuevo(d("1"), USD), decimal.Zero)
	assert.Error(t, err)

	_, err = Convertir(Nuevo(d("1"), BS), d("36"))
	assert.ErrorIs(t, err, apierror.ErrMonedaDistinta)
}

func TestPorcentaje(t *testing.T) {
	cases := []struct {
		valor, pct, want string
	}{
		{"100", "16", "16.00"},
		{"16", "75", "12.00"},
		{"33.33", "16", "5.33"},
		{"10.05", "50", "5.03"},
		{"0", "16", "0.00"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Porcentaje(d(c.valor), d(c.pct)).StringFixed(2), "%s%% de %s", c.pct, c.valor)
	}
}

func TestPorcentaje_TotalConsistente(t *testing.T) {
	for _, sub := range []string{"0.01", "1.99", "47.13", "1234.56", "99999.99"} {
		subtotal := d(sub)
		iva := Porcentaje(subtotal, d("16"))
		total := Redondear(subtotal.Mul(d("1.16")))
		assert.True(t, subtotal.Add(iva).Sub(total).Abs().LessThanOrEqual(d("0.01")), sub)
		assert.LessOrEqual(t, -iva.Exponent(), int32(2))
	}
}

func TestAUSD(t *testing.T) {
	usd, err := AUSD(Nuevo(d("3650"), BS), d("36.5"))
	require.NoError(t, err)
	assert.Equal(t, USD, usd.Moneda)
	assert.Equal(t, "100.00", usd.Valor.StringFixed(2))

	usd, err = AUSD(Nuevo(d("100"), BS), d("36.5"))
	require.NoError(t, err)
	assert.Equal(t, "2.74", usd.Valor.StringFixed(2))

	same, err := AUSD(Nuevo(d("12.345"), USD), decimal.Zero)
	require.NoError(t, err)
	assert.Equal(t, "12.35", same.Valor.StringFixed(2))
}

func TestAUSD_Invalida(t *testing.T) {
	_, err := AUSD(Nuevo(d("10"), BS), decimal.Zero)
	assert.Equal(t, 400, apierror.HTTPStatus(err))

	_, err = AUSD(Nuevo(d("10"), Moneda("EUR")), d("36.5"))
	assert.ErrorIs(t, err, apierror.ErrMonedaDistinta)
}
