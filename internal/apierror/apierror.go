// Package apierror provides the error taxonomy and the response envelopes for the API.
// All errors returned to clients go through this package to ensure consistency
// and to prevent leaking internal details (stack traces, DB errors, etc.).
package apierror

import (
	"errors"
	"net/http"
)

// Tipo classifies an error into the status class the client receives.
type Tipo int

const (
	Interno Tipo = iota
	Validacion
	NoAutorizado
	NoEncontrado
	Conflicto
	DependenciaExterna
)

// Error is a domain error with a stable machine-readable code.
type Error struct {
	Tipo    Tipo
	Codigo  string
	Detalle string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Detalle + ": " + e.Err.Error()
	}
	return e.Detalle
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Codigo so that wrapped copies of a sentinel still compare equal.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Codigo == t.Codigo
}

// Con returns a copy of e carrying a more specific detail message.
func (e *Error) Con(detalle string) *Error {
	return &Error{Tipo: e.Tipo, Codigo: e.Codigo, Detalle: detalle, Err: e.Err}
}

// Envuelve returns a copy of e wrapping cause.
func (e *Error) Envuelve(cause error) *Error {
	return &Error{Tipo: e.Tipo, Codigo: e.Codigo, Detalle: e.Detalle, Err: cause}
}

func nuevo(t Tipo, codigo, detalle string) *Error {
	return &Error{Tipo: t, Codigo: codigo, Detalle: detalle}
}

func Validar(detalle string) *Error     { return nuevo(Validacion, "VALIDACION", detalle) }
func NoEncontrar(detalle string) *Error { return nuevo(NoEncontrado, "NO_ENCONTRADO", detalle) }
func Conflictuar(detalle string) *Error { return nuevo(Conflicto, "CONFLICTO", detalle) }

// ── Sentinels ─────────────────────────────────────────────────────────────────

var (
	ErrNoAutorizado          = nuevo(NoAutorizado, "NO_AUTORIZADO", "credenciales invalidas o sesion expirada")
	ErrSesionYaAbierta       = nuevo(Conflicto, "SESION_YA_ABIERTA", "ya existe una sesion de caja abierta para la empresa")
	ErrSesionNoEncontrada    = nuevo(NoEncontrado, "SESION_NO_ENCONTRADA", "sesion de caja no encontrada")
	ErrSesionCerrada         = nuevo(Conflicto, "SESION_CERRADA", "la sesion de caja ya esta cerrada")
	ErrSinTasa               = nuevo(DependenciaExterna, "SIN_TASA", "no hay tasa de cambio disponible")
	ErrMetodoPago            = nuevo(Validacion, "METODO_PAGO_INVALIDO", "metodo de pago inexistente o inactivo")
	ErrVentaNoEncontrada     = nuevo(NoEncontrado, "VENTA_NO_ENCONTRADA", "venta no encontrada")
	ErrFacturaDuplicada      = nuevo(Conflicto, "FACTURA_DUPLICADA", "el numero de factura ya existe para la empresa")
	ErrClienteNoEncontrado   = nuevo(NoEncontrado, "CLIENTE_NO_ENCONTRADO", "cliente no encontrado")
	ErrProveedorNoEncontrado = nuevo(NoEncontrado, "PROVEEDOR_NO_ENCONTRADO", "proveedor no encontrado")
	ErrRIFDuplicado          = nuevo(Conflicto, "RIF_DUPLICADO", "el RIF ya esta registrado para la empresa")
	ErrRetencionDuplicada    = nuevo(Conflicto, "RETENCION_DUPLICADA", "ya existe una retencion de este tipo para la venta")
	ErrRetencionNoEncontrada = nuevo(NoEncontrado, "RETENCION_NO_ENCONTRADA", "retencion no encontrada")
	ErrRetencionAnulada      = nuevo(Conflicto, "RETENCION_ANULADA", "la retencion ya esta anulada")
	ErrSobrepago             = nuevo(Conflicto, "SOBREPAGO", "el pago excede el saldo pendiente de la factura")
	ErrPasarela              = nuevo(DependenciaExterna, "PASARELA_NO_DISPONIBLE", "la pasarela de pago no esta disponible, reintente")
	ErrFirmaInvalida         = nuevo(NoAutorizado, "FIRMA_INVALIDA", "firma del webhook invalida")
	ErrMonedaDistinta        = nuevo(Validacion, "MONEDA_DISTINTA", "operacion entre montos de distinta moneda")
)

// HTTPStatus maps any error to the status code the client should receive.
// Errors outside the taxonomy are internal.
func HTTPStatus(err error) int {
	var e *Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError
	}
	switch e.Tipo {
	case Validacion:
		return http.StatusBadRequest
	case NoAutorizado:
		return http.StatusUnauthorized
	case NoEncontrado:
		return http.StatusNotFound
	case Conflicto:
		return http.StatusConflict
	case DependenciaExterna:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ── Envelopes ─────────────────────────────────────────────────────────────────

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Detail  string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Code: "INTERNO", Detail: msg}
}

// From builds the envelope for err. Internal errors get a generic message.
func From(err error) *APIError {
	var e *Error
	if errors.As(err, &e) && e.Tipo != Interno {
		return &APIError{Code: e.Codigo, Detail: e.Detalle}
	}
	return New("Error interno del servidor")
}

// ValidationError wraps multiple field errors.
type ValidationError struct {
	Success bool              `json:"success"`
	Code    string            `json:"code"`
	Detail  string            `json:"detail"`
	Fields  map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Code: "VALIDACION", Detail: "Error de validacion", Fields: fields}
}

// Ok is the success envelope.
type Ok struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
}

func Data(v interface{}) Ok { return Ok{Success: true, Data: v} }
