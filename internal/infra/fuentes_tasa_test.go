package infra

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNumeroVE(t *testing.T) {
	cases := map[string]string{
		"36,50120000":  "36.5012",
		" 1.234,5678 ": "1234.5678",
		"40":           "40",
	}
	for in, want := range cases {
		got, err := ParseNumeroVE(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got.String(), in)
	}

	for _, in := range []string{"", "   ", "abc", "0,00", "-3,5"} {
		_, err := ParseNumeroVE(in)
		assert.ErrorIs(t, err, errTasaInvalida, in)
	}
}

func servir(t *testing.T, status int, contentType, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "novaadm/1.0", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestBCVScraper_Obtener(t *testing.T) {
	html := `<html><body>
		<div id="euro"><strong> 39,10000000 </strong></div>
		<div id="dolar"><div class="col"><strong> 36,50120000 </strong></div></div>
	</body></html>`
	srv := servir(t, http.StatusOK, "text/html", html)

	v, err := NewBCVScraper(srv.URL).Obtener(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "36.5012", v.String())
}

func TestBCVScraper_SinBloqueDolar(t *testing.T) {
	srv := servir(t, http.StatusOK, "text/html", `<html><body><p>mantenimiento</p></body></html>`)

	_, err := NewBCVScraper(srv.URL).Obtener(context.Background())
	assert.Error(t, err)
}

func TestBCVScraper_StatusError(t *testing.T) {
	srv := servir(t, http.StatusBadGateway, "text/plain", "down")

	_, err := NewBCVScraper(srv.URL).Obtener(context.Background())
	assert.ErrorContains(t, err, "502")
}

func TestFuenteJSON_Obtener(t *testing.T) {
	t.Run("campo plano", func(t *testing.T) {
		srv := servir(t, http.StatusOK, "application/json",
			`{"fuente":"oficial","promedio":36.62,"fechaActualizacion":"2026-03-10T00:00:00Z"}`)
		v, err := NewFuenteJSON("DOLAR_API", srv.URL, "promedio").Obtener(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "36.62", v.String())
	})

	t.Run("campo anidado", func(t *testing.T) {
		srv := servir(t, http.StatusOK, "application/json",
			`{"result":"success","base_code":"USD","rates":{"EUR":0.92,"VES":36.4821}}`)
		v, err := NewFuenteJSON("EXCHANGE_API", srv.URL, "rates.VES").Obtener(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "36.4821", v.String())
	})

	t.Run("campo como texto", func(t *testing.T) {
		srv := servir(t, http.StatusOK, "application/json", `{"promedio":"36.70"}`)
		v, err := NewFuenteJSON("DOLAR_API", srv.URL, "promedio").Obtener(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "36.7", v.String())
	})
}

func TestFuenteJSON_Errores(t *testing.T) {
	cases := []struct {
		nombre string
		body   string
	}{
		{"campo ausente", `{"rates":{"EUR":0.92}}`},
		{"json invalido", `{"promedio":`},
		{"valor cero", `{"promedio":0}`},
		{"tipo objeto", `{"promedio":{"valor":36}}`},
	}
	for _, c := range cases {
		t.Run(c.nombre, func(t *testing.T) {
			srv := servir(t, http.StatusOK, "application/json", c.body)
			_, err := NewFuenteJSON("DOLAR_API", srv.URL, "promedio").Obtener(context.Background())
			assert.Error(t, err)
		})
	}
}

func TestFuenteJSON_RespetaContexto(t *testing.T) {
	bloqueo := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-bloqueo
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(bloqueo) })

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewFuenteJSON("DOLAR_API", srv.URL, "promedio").Obtener(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestInicioDelDia(t *testing.T) {
	loc := Ubicacion("America/Caracas")
	// 02:30 UTC on the 11th is still the 10th in Caracas
	t0 := time.Date(2026, 3, 11, 2, 30, 0, 0, time.UTC)

	got := InicioDelDia(t0, loc)
	assert.Equal(t, "2026-03-10", got.Format("2006-01-02"))
	assert.Equal(t, 0, got.Hour())
}

func TestUbicacion_Fallback(t *testing.T) {
	loc := Ubicacion("Nowhere/Invalid")
	_, off := time.Date(2026, 1, 1, 0, 0, 0, 0, loc).Zone()
	assert.Equal(t, -4*60*60, off)
}
