package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"novaadm/internal/apierror"
	"novaadm/internal/config"
	"novaadm/internal/infra"
	"novaadm/internal/model"
	"novaadm/internal/moneda"
	"novaadm/internal/repository"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

// TasaService resolves the current BS-per-unit rate.
type TasaService interface {
	// TasaActual never fails. It returns nil only when every source, the
	// stored history and the configured constant are all unavailable.
	TasaActual(ctx context.Context, m moneda.Moneda) *model.TasaCambio
	Historial(ctx context.Context, m moneda.Moneda, desde, hasta time.Time) ([]model.TasaCambio, error)
}

type fuenteProtegida struct {
	fuente infra.FuenteTasa
	cb     *infra.CircuitBreaker
}

type tasaService struct {
	repo     repository.TasaRepository
	rdb      *redis.Client
	fuentes  []fuenteProtegida
	timeout  time.Duration
	cacheTTL time.Duration
	respaldo decimal.Decimal
	zona     *time.Location
	grupo    singleflight.Group
	now      func() time.Time
}

// NewTasaService wires the sources in lookup order. rdb may be nil.
func NewTasaService(repo repository.TasaRepository, rdb *redis.Client, fuentes []infra.FuenteTasa, cfg *config.Config) TasaService {
	s := &tasaService{
		repo:     repo,
		rdb:      rdb,
		timeout:  time.Duration(cfg.TasaTimeoutSeg) * time.Second,
		cacheTTL: time.Duration(cfg.TasaCacheMinutos) * time.Minute,
		respaldo: decimal.NewFromFloat(cfg.TasaRespaldo),
		zona:     infra.Ubicacion(cfg.ZonaHoraria),
		now:      time.Now,
	}
	if s.timeout <= 0 {
		s.timeout = 5 * time.Second
	}
	for _, f := range fuentes {
		s.fuentes = append(s.fuentes, fuenteProtegida{
			fuente: f,
			cb:     infra.NewCircuitBreaker("tasa:"+f.Nombre(), infra.TasaCBConfig()),
		})
	}
	return s
}

// FuentesTasa builds the configured external sources, skipping blank URLs.
func FuentesTasa(cfg *config.Config) []infra.FuenteTasa {
	var out []infra.FuenteTasa
	if cfg.BCVURL != "" {
		out = append(out, infra.NewBCVScraper(cfg.BCVURL))
	}
	if cfg.DolarAPIURL != "" {
		out = append(out, infra.NewFuenteJSON(model.FuenteDolarAPI, cfg.DolarAPIURL, cfg.DolarAPICampo))
	}
	if cfg.ExchangeAPIURL != "" {
		out = append(out, infra.NewFuenteJSON(model.FuenteExchangeAPI, cfg.ExchangeAPIURL, cfg.ExchangeAPICampo))
	}
	return out
}

// ── TasaActual ────────────────────────────────────────────────────────────────
// cache → sources in order → latest stored row (DB_CACHE) → constant
// (HARDCODED_FALLBACK). Concurrent misses for the same currency share one lookup.

func (s *tasaService) TasaActual(ctx context.Context, m moneda.Moneda) *model.TasaCambio {
	if t := s.leerCache(ctx, m); t != nil {
		return t
	}
	// The shared lookup outlives whichever caller started it.
	shared := context.WithoutCancel(ctx)
	v, _, _ := s.grupo.Do(string(m), func() (interface{}, error) {
		return s.resolver(shared, m), nil
	})
	t, _ := v.(*model.TasaCambio)
	if t == nil {
		return nil
	}
	out := *t
	return &out
}

func (s *tasaService) resolver(ctx context.Context, m moneda.Moneda) *model.TasaCambio {
	now := s.now()
	hoy := infra.InicioDelDia(now, s.zona)

	for _, f := range s.fuentes {
		valor, err := s.consultar(ctx, f)
		if err != nil {
			log.Warn().Err(err).Str("fuente", f.fuente.Nombre()).Msg("tasa: source failed")
			continue
		}
		t := &model.TasaCambio{
			Moneda:      m,
			Tasa:        valor,
			Fuente:      f.fuente.Nombre(),
			Fecha:       hoy,
			ObservadaEn: now,
		}
		if _, err := s.repo.CreateSiNoExiste(ctx, t); err != nil {
			log.Error().Err(err).Msg("tasa: persist failed")
		}
		s.escribirCache(ctx, t)
		return t
	}

	if ultima, err := s.repo.Ultima(ctx, m); err == nil && ultima.Tasa.IsPositive() {
		t := *ultima
		t.Fuente = model.FuenteDBCache
		log.Warn().Str("tasa", t.Tasa.String()).Time("fecha", t.Fecha).Msg("tasa: all sources failed, using stored rate")
		return &t
	}

	if !s.respaldo.IsPositive() {
		log.Error().Msg("tasa: no rate available and no fallback configured")
		return nil
	}
	log.Warn().Str("tasa", s.respaldo.String()).Msg("tasa: using hardcoded fallback")
	return &model.TasaCambio{
		Moneda:      m,
		Tasa:        s.respaldo,
		Fuente:      model.FuenteFallback,
		Fecha:       hoy,
		ObservadaEn: now,
	}
}

// consultar runs one source under its breaker and the per-source timeout.
func (s *tasaService) consultar(ctx context.Context, f fuenteProtegida) (decimal.Decimal, error) {
	var valor decimal.Decimal
	err := f.cb.Execute(ctx, func(ctx context.Context) error {
		cctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		v, err := f.fuente.Obtener(cctx)
		if err != nil {
			return err
		}
		if !v.IsPositive() {
			return errors.New("tasa no positiva")
		}
		valor = v
		return nil
	})
	return valor, err
}

// ── Cache ─────────────────────────────────────────────────────────────────────

func cacheKey(m moneda.Moneda) string { return fmt.Sprintf("tasa:%s", m) }

func (s *tasaService) leerCache(ctx context.Context, m moneda.Moneda) *model.TasaCambio {
	if s.rdb == nil || s.cacheTTL <= 0 {
		return nil
	}
	raw, err := s.rdb.Get(ctx, cacheKey(m)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Debug().Err(err).Msg("tasa: cache read failed")
		}
		return nil
	}
	var t model.TasaCambio
	if err := json.Unmarshal(raw, &t); err != nil || !t.Tasa.IsPositive() {
		return nil
	}
	return &t
}

func (s *tasaService) escribirCache(ctx context.Context, t *model.TasaCambio) {
	if s.rdb == nil || s.cacheTTL <= 0 {
		return
	}
	raw, err := json.Marshal(t)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, cacheKey(t.Moneda), raw, s.cacheTTL).Err(); err != nil {
		log.Debug().Err(err).Msg("tasa: cache write failed")
	}
}

// ── Historial ─────────────────────────────────────────────────────────────────

func (s *tasaService) Historial(ctx context.Context, m moneda.Moneda, desde, hasta time.Time) ([]model.TasaCambio, error) {
	if hasta.Before(desde) {
		return nil, apierror.Validar("desde no puede ser posterior a hasta")
	}
	return s.repo.Historial(ctx, m, desde, hasta)
}
