package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"novaadm/internal/apierror"
	"novaadm/internal/dto"
	"novaadm/internal/middleware"
	"novaadm/internal/model"
	"novaadm/internal/moneda"
	"novaadm/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func init() { gin.SetMode(gin.TestMode) }

var empresaTest = uuid.MustParse("9b1f3c3e-6a57-4b8e-9e0a-2f6a0d1c7b11")

// conClaims stands in for JWTAuth.
func conClaims(c *gin.Context) {
	c.Set(middleware.ClaimsKey, &middleware.JWTClaims{
		UserID:    uuid.NewString(),
		EmpresaID: empresaTest.String(),
		Username:  "tester",
		Rol:       service.RolAdministrador,
	})
	c.Next()
}

func hacer(r http.Handler, method, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		_ = json.NewEncoder(&buf).Encode(b)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success bool              `json:"success"`
	Code    string            `json:"code"`
	Fields  map[string]string `json:"fields"`
	Data    json.RawMessage   `json:"data"`
}

func leer(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var e envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &e), w.Body.String())
	return e
}

// ── Stubs ────────────────────────────────────────────────────────────────────

type stubTerceros struct {
	service.TerceroService
	creado *dto.CrearClienteRequest
	err    error
}

func (s *stubTerceros) CrearCliente(_ context.Context, empresaID uuid.UUID, req dto.CrearClienteRequest) (*dto.ClienteResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.creado = &req
	return &dto.ClienteResponse{ID: uuid.NewString(), RIF: req.RIF, RazonSocial: req.RazonSocial}, nil
}

type stubCaja struct {
	service.CajaService
	empresa uuid.UUID
	err     error
}

func (s *stubCaja) Cerrar(_ context.Context, empresaID uuid.UUID, _ dto.CerrarCajaRequest) (*dto.ReporteCajaResponse, error) {
	s.empresa = empresaID
	return nil, s.err
}

func (s *stubCaja) GetActiva(context.Context, uuid.UUID) (*dto.ReporteCajaResponse, error) {
	return nil, nil
}

type stubTasa struct{ tasa *model.TasaCambio }

func (s stubTasa) TasaActual(context.Context, moneda.Moneda) *model.TasaCambio { return s.tasa }
func (s stubTasa) Historial(context.Context, moneda.Moneda, time.Time, time.Time) ([]model.TasaCambio, error) {
	return nil, apierror.Validar("desde no puede ser posterior a hasta")
}

type stubPasarelas struct {
	service.PasarelaService
	raw   []byte
	firma string
	err   error
}

func (s *stubPasarelas) ProcesarWebhook(_ context.Context, _ string, raw []byte, firma string) error {
	s.raw, s.firma = raw, firma
	return s.err
}

// ── Tests ────────────────────────────────────────────────────────────────────

func TestCrearCliente_ValidaRIF(t *testing.T) {
	svc := &stubTerceros{}
	h := NewTercerosHandler(svc)
	r := gin.New()
	r.POST("/clientes", conClaims, h.CrearCliente)

	w := hacer(r, http.MethodPost, "/clientes", map[string]string{"rif": "X-123", "razon_social": "Acme"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	e := leer(t, w)
	assert.False(t, e.Success)
	assert.Equal(t, "VALIDACION", e.Code)
	assert.Equal(t, "rif", e.Fields["rif"])
	assert.Nil(t, svc.creado)

	for _, rif := range []string{"J-12345678-9", "j123456789", "V-87654321-0"} {
		w = hacer(r, http.MethodPost, "/clientes", map[string]string{"rif": rif, "razon_social": "Acme"})
		assert.Equal(t, http.StatusCreated, w.Code, rif)
		assert.True(t, leer(t, w).Success)
	}
}

func TestCrearCliente_JSONInvalido(t *testing.T) {
	r := gin.New()
	r.POST("/clientes", conClaims, NewTercerosHandler(&stubTerceros{}).CrearCliente)

	w := hacer(r, http.MethodPost, "/clientes", `{"rif":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCrearCliente_Conflicto(t *testing.T) {
	r := gin.New()
	r.POST("/clientes", conClaims, NewTercerosHandler(&stubTerceros{err: apierror.ErrRIFDuplicado}).CrearCliente)

	w := hacer(r, http.MethodPost, "/clientes", map[string]string{"rif": "J-12345678-9", "razon_social": "Acme"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "RIF_DUPLICADO", leer(t, w).Code)
}

func TestCerrarCaja_PropagaEmpresaYError(t *testing.T) {
	svc := &stubCaja{err: apierror.ErrSesionCerrada}
	r := gin.New()
	r.POST("/caja/cerrar", conClaims, NewCajaHandler(svc).Cerrar)

	w := hacer(r, http.MethodPost, "/caja/cerrar", map[string]interface{}{
		"sesion_caja_id":      uuid.NewString(),
		"monto_declarado_usd": "125",
		"monto_declarado_bs":  "0",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "SESION_CERRADA", leer(t, w).Code)
	assert.Equal(t, empresaTest, svc.empresa)
}

func TestCerrarCaja_MontoNegativo(t *testing.T) {
	r := gin.New()
	r.POST("/caja/cerrar", conClaims, NewCajaHandler(&stubCaja{}).Cerrar)

	w := hacer(r, http.MethodPost, "/caja/cerrar", map[string]interface{}{
		"sesion_caja_id":      uuid.NewString(),
		"monto_declarado_usd": "-1",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, leer(t, w).Fields, "monto_declarado_usd")
}

func TestGetActiva_SinSesion(t *testing.T) {
	r := gin.New()
	r.GET("/caja/activa", conClaims, NewCajaHandler(&stubCaja{}).GetActiva)

	w := hacer(r, http.MethodGet, "/caja/activa", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestObtenerReporte_IDInvalido(t *testing.T) {
	r := gin.New()
	r.GET("/caja/:id/reporte", conClaims, NewCajaHandler(&stubCaja{}).ObtenerReporte)

	w := hacer(r, http.MethodGet, "/caja/no-uuid/reporte", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTasaActual(t *testing.T) {
	tasa := &model.TasaCambio{Moneda: moneda.USD, Tasa: decimal.RequireFromString("36.5"), Fuente: model.FuenteDBCache}
	r := gin.New()
	r.GET("/tasa/actual", conClaims, NewTasaHandler(stubTasa{tasa: tasa}, time.UTC).Actual)
	r.GET("/tasa/historial", conClaims, NewTasaHandler(stubTasa{tasa: tasa}, time.UTC).Historial)

	w := hacer(r, http.MethodGet, "/tasa/actual", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(leer(t, w).Data), `"fuente":"DB_CACHE"`)

	w = hacer(r, http.MethodGet, "/tasa/actual?moneda=EUR", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = hacer(r, http.MethodGet, "/tasa/historial?desde=2026-03-10&hasta=2026-03-01", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = hacer(r, http.MethodGet, "/tasa/historial?desde=10-03-2026", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTasaActual_SinTasa(t *testing.T) {
	r := gin.New()
	r.GET("/tasa/actual", conClaims, NewTasaHandler(stubTasa{}, time.UTC).Actual)

	w := hacer(r, http.MethodGet, "/tasa/actual", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "SIN_TASA", leer(t, w).Code)
}

func TestWebhook_PasaCuerpoCrudoYFirma(t *testing.T) {
	svc := &stubPasarelas{}
	r := gin.New()
	r.POST("/webhooks/:pasarela", NewPasarelasHandler(svc).Webhook)

	body := `{"event":"payment.approved","reference":"abc"}`
	w := hacer(r, http.MethodPost, "/webhooks/pagomovil", body, FirmaHeader, "sha256=deadbeef")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, body, string(svc.raw))
	assert.Equal(t, "sha256=deadbeef", svc.firma)

	svc.err = apierror.ErrFirmaInvalida
	w = hacer(r, http.MethodPost, "/webhooks/pagomovil", body)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "FIRMA_INVALIDA", leer(t, w).Code)
}

func TestFallar_NoExponeErroresInternos(t *testing.T) {
	r := gin.New()
	r.GET("/x", func(c *gin.Context) { fallar(c, assert.AnError) })

	w := hacer(r, http.MethodGet, "/x", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), assert.AnError.Error())
}

func TestFallar_DuplicadoSinMapearEsConflicto(t *testing.T) {
	r := gin.New()
	r.GET("/x", func(c *gin.Context) { fallar(c, fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey)) })

	w := hacer(r, http.MethodGet, "/x", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"CONFLICTO"`)
}
