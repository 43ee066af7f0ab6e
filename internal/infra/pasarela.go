package infra

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Nombres de pasarela, also used as the :pasarela route segment.
const (
	PasarelaPagoMovil = "pagomovil" // QR / transferencia bancaria
	PasarelaTarjeta   = "tarjeta"   // tarjeta / billetera digital
)

// CrearPagoRequest is sent to a gateway to start a hosted payment.
type CrearPagoRequest struct {
	Monto       decimal.Decimal `json:"amount"`
	Moneda      string          `json:"currency"`
	Referencia  string          `json:"reference"`
	CallbackURL string          `json:"callback_url"`
}

// CrearPagoResponse is the gateway's answer: its payment id and the URL the
// payer must open.
type CrearPagoResponse struct {
	PagoID string `json:"payment_id"`
	URL    string `json:"payment_url"`
}

// EventoPasarela is the webhook body shared by both gateways.
// Evento: "payment.approved" | "payment.rejected" | "payment.expired"
type EventoPasarela struct {
	Evento     string          `json:"event"`
	PagoID     string          `json:"payment_id"`
	Referencia string          `json:"reference"`
	Monto      decimal.Decimal `json:"amount"`
}

// Pasarela is a payment gateway. VerificarFirma checks a webhook signature
// over the raw request body.
type Pasarela interface {
	Nombre() string
	CrearPago(ctx context.Context, req CrearPagoRequest) (*CrearPagoResponse, error)
	VerificarFirma(raw []byte, firma string) bool
}

// PasarelaHTTP talks to a gateway's REST API with a bearer key and verifies
// webhooks with HMAC-SHA256 over the body, hex encoded.
type PasarelaHTTP struct {
	nombre     string
	baseURL    string
	apiKey     string
	secreto    []byte
	httpClient *http.Client
}

func NewPasarelaHTTP(nombre, baseURL, apiKey, secreto string) *PasarelaHTTP {
	return &PasarelaHTTP{
		nombre:     nombre,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		secreto:    []byte(secreto),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

func (p *PasarelaHTTP) Nombre() string { return p.nombre }

// CrearPago POSTs to {baseURL}/payments and returns the hosted payment.
func (p *PasarelaHTTP) CrearPago(ctx context.Context, in CrearPagoRequest) (*CrearPagoResponse, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("%s: marshal payload: %w", p.nombre, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/payments", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%s: create request: %w", p.nombre, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: gateway unreachable: %w", p.nombre, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("%s: gateway returned %d", p.nombre, resp.StatusCode)
	}

	var result CrearPagoResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%s: decode response: %w", p.nombre, err)
	}
	if result.PagoID == "" || result.URL == "" {
		return nil, fmt.Errorf("%s: incomplete response", p.nombre)
	}
	return &result, nil
}

func (p *PasarelaHTTP) VerificarFirma(raw []byte, firma string) bool {
	if len(p.secreto) == 0 || firma == "" {
		return false
	}
	got, err := hex.DecodeString(strings.TrimPrefix(firma, "sha256="))
	if err != nil {
		return false
	}
	return hmac.Equal(got, Firmar(p.secreto, raw))
}

// Firmar computes the HMAC-SHA256 of raw with secreto.
func Firmar(secreto, raw []byte) []byte {
	mac := hmac.New(sha256.New, secreto)
	mac.Write(raw)
	return mac.Sum(nil)
}
