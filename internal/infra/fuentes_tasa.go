package infra

// fuentes_tasa.go: external USD→BS rate sources.
// BCV publishes the official rate only as HTML, scraped with goquery.
// The JSON APIs expose the rate at a configurable gjson path.

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

var errTasaInvalida = errors.New("tasa invalida")

// FuenteTasa is one external source of the USD→BS rate.
type FuenteTasa interface {
	Nombre() string
	Obtener(ctx context.Context) (decimal.Decimal, error)
}

// ── BCV ───────────────────────────────────────────────────────────────────────

// BCVScraper reads the official rate from the #dolar block of bcv.org.ve.
type BCVScraper struct {
	url    string
	client *http.Client
}

func NewBCVScraper(url string) *BCVScraper {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	// bcv.org.ve serves an incomplete certificate chain
	tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	return &BCVScraper{url: url, client: &http.Client{Transport: tr}}
}

func (s *BCVScraper) Nombre() string { return "BCV" }

func (s *BCVScraper) Obtener(ctx context.Context) (decimal.Decimal, error) {
	body, err := get(ctx, s.client, s.url)
	if err != nil {
		return decimal.Zero, err
	}
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return decimal.Zero, fmt.Errorf("bcv: parse html: %w", err)
	}

	sel := doc.Find("#dolar")
	if sel.Length() == 0 {
		return decimal.Zero, errors.New("bcv: missing #dolar")
	}
	txt := strings.TrimSpace(sel.Find("strong").First().Text())
	if txt == "" {
		txt = strings.TrimSpace(sel.Find(".centrado").First().Text())
	}
	return ParseNumeroVE(txt)
}

// ParseNumeroVE parses a number written with "." thousands and "," decimals,
// e.g. "1.234,56780000".
func ParseNumeroVE(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, errTasaInvalida
	}
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", errTasaInvalida, s)
	}
	if !v.IsPositive() {
		return decimal.Zero, errTasaInvalida
	}
	return v, nil
}

// ── JSON APIs ─────────────────────────────────────────────────────────────────

// FuenteJSON reads a numeric rate at a gjson path, e.g. "promedio" or "rates.VES".
type FuenteJSON struct {
	nombre string
	url    string
	campo  string
	client *http.Client
}

func NewFuenteJSON(nombre, url, campo string) *FuenteJSON {
	return &FuenteJSON{nombre: nombre, url: url, campo: campo, client: &http.Client{}}
}

func (f *FuenteJSON) Nombre() string { return f.nombre }

func (f *FuenteJSON) Obtener(ctx context.Context) (decimal.Decimal, error) {
	body, err := get(ctx, f.client, f.url)
	if err != nil {
		return decimal.Zero, err
	}
	defer body.Close()

	raw, err := io.ReadAll(io.LimitReader(body, 1<<20))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: read body: %w", f.nombre, err)
	}
	if !gjson.ValidBytes(raw) {
		return decimal.Zero, fmt.Errorf("%s: invalid json", f.nombre)
	}
	res := gjson.GetBytes(raw, f.campo)
	if !res.Exists() || (res.Type != gjson.Number && res.Type != gjson.String) {
		return decimal.Zero, fmt.Errorf("%s: campo %q ausente", f.nombre, f.campo)
	}
	v, err := decimal.NewFromString(strings.TrimSpace(res.String()))
	if err != nil || !v.IsPositive() {
		return decimal.Zero, fmt.Errorf("%s: %w", f.nombre, errTasaInvalida)
	}
	return v, nil
}

func get(ctx context.Context, client *http.Client, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("unable to create GET request: %w", err)
	}
	req.Header.Set("User-Agent", "novaadm/1.0")
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("unable to execute GET request: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, fmt.Errorf("invalid status code received: %d", resp.StatusCode)
	}
	return resp.Body, nil
}

// ── Zona horaria ──────────────────────────────────────────────────────────────

// Ubicacion loads the named zone, falling back to fixed VET (UTC-4) when the
// host has no tzdata.
func Ubicacion(nombre string) *time.Location {
	if nombre == "" {
		nombre = "America/Caracas"
	}
	loc, err := time.LoadLocation(nombre)
	if err != nil {
		return time.FixedZone("VET", -4*60*60)
	}
	return loc
}

// InicioDelDia truncates t to local midnight in loc.
func InicioDelDia(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
