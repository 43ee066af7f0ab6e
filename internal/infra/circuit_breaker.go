package infra

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// ── Circuit Breaker ───────────────────────────────────────────────────────────
// One breaker per rate source and per payment gateway. While open, calls fail
// with ErrCircuitOpen without touching the upstream.

type CBState int

const (
	CBClosed CBState = iota
	CBOpen
	CBHalfOpen // a single trial call is let through
)

func (s CBState) String() string {
	switch s {
	case CBClosed:
		return "closed"
	case CBOpen:
		return "open"
	case CBHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreakerConfig: zero fields take the gateway defaults.
type CircuitBreakerConfig struct {
	FailureThreshold int           // consecutive failures that open the breaker
	SuccessThreshold int           // consecutive trial successes that close it
	OpenTimeout      time.Duration // time spent open before the first trial call
}

// DefaultCBConfig is used for payment gateways.
func DefaultCBConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{FailureThreshold: 5, SuccessThreshold: 2, OpenTimeout: time.Minute}
}

// TasaCBConfig trips sooner and stays open longer: the rate lookup falls back
// to the next source anyway.
func TasaCBConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{FailureThreshold: 3, SuccessThreshold: 1, OpenTimeout: 5 * time.Minute}
}

type CircuitBreaker struct {
	nombre string
	cfg    CircuitBreakerConfig

	mu        sync.Mutex
	estado    CBState
	fallos    int
	exitos    int
	abiertoEn time.Time
	sondeando bool
}

// NewCircuitBreaker starts closed. nombre labels the log lines.
func NewCircuitBreaker(nombre string, cfg CircuitBreakerConfig) *CircuitBreaker {
	def := DefaultCBConfig()
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = def.SuccessThreshold
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = def.OpenTimeout
	}
	return &CircuitBreaker{nombre: nombre, cfg: cfg}
}

func (cb *CircuitBreaker) Nombre() string { return cb.nombre }

func (cb *CircuitBreaker) State() CBState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.avanzar()
	return cb.estado
}

// avanzar moves open to half-open once OpenTimeout has elapsed. Caller holds mu.
func (cb *CircuitBreaker) avanzar() {
	if cb.estado == CBOpen && time.Since(cb.abiertoEn) >= cb.cfg.OpenTimeout {
		cb.estado = CBHalfOpen
		cb.exitos = 0
		cb.sondeando = false
	}
}

// permitir reports whether a call may proceed and whether it is the trial call.
func (cb *CircuitBreaker) permitir() (ok, sonda bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.avanzar()
	switch cb.estado {
	case CBOpen:
		return false, false
	case CBHalfOpen:
		if cb.sondeando {
			return false, false
		}
		cb.sondeando = true
		return true, true
	default:
		return true, false
	}
}

// Execute runs fn unless the breaker is open. An error caused by ctx itself
// (the caller gave up) is returned but not counted against the upstream.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ok, sonda := cb.permitir()
	if !ok {
		return ErrCircuitOpen
	}

	err := fn(ctx)

	cb.mu.Lock()
	defer cb.mu.Unlock()
	if sonda {
		cb.sondeando = false
	}
	switch {
	case err == nil:
		cb.registrarExito()
	case ctx.Err() != nil && errors.Is(err, ctx.Err()):
		// caller cancellation says nothing about the upstream
	default:
		cb.registrarFallo()
	}
	return err
}

func (cb *CircuitBreaker) registrarFallo() {
	cb.fallos++
	switch cb.estado {
	case CBClosed:
		if cb.fallos >= cb.cfg.FailureThreshold {
			cb.abrir()
			log.Warn().Str("breaker", cb.nombre).Int("fallos", cb.fallos).Msg("circuit breaker opened")
		}
	case CBHalfOpen:
		cb.abrir()
		log.Warn().Str("breaker", cb.nombre).Msg("circuit breaker trial call failed, reopened")
	}
}

func (cb *CircuitBreaker) registrarExito() {
	switch cb.estado {
	case CBClosed:
		cb.fallos = 0
	case CBHalfOpen:
		cb.exitos++
		if cb.exitos >= cb.cfg.SuccessThreshold {
			cb.estado = CBClosed
			cb.fallos, cb.exitos = 0, 0
			log.Info().Str("breaker", cb.nombre).Msg("circuit breaker closed")
		}
	}
}

func (cb *CircuitBreaker) abrir() {
	cb.estado = CBOpen
	cb.abiertoEn = time.Now()
	cb.fallos, cb.exitos = 0, 0
}
