package worker

// retry_cron.go
// Periodically re-enqueues withholding receipts whose render failed and
// whose next_retry_at has passed. Gives up after MaxComprobanteRetries and
// parks the job in the DLQ.

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"novaadm/internal/repository"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	retryTickInterval     = 30 * time.Second
	retryBatchSize        = 10
	MaxComprobanteRetries = 5
)

// RetryCronConfig holds all dependencies for the retry goroutine.
type RetryCronConfig struct {
	Retenciones repository.RetencionRepository
	Dispatcher  *Dispatcher
	RDB         *redis.Client
}

// StartRetryCron ticks every 30s until ctx is cancelled.
func StartRetryCron(ctx context.Context, cfg RetryCronConfig) {
	go func() {
		ticker := time.NewTicker(retryTickInterval)
		defer ticker.Stop()

		log.Info().Msg("retry_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("retry_cron: shutting down")
				return
			case <-ticker.C:
				processRetries(ctx, cfg)
			}
		}
	}()
}

func processRetries(ctx context.Context, cfg RetryCronConfig) {
	pendientes, err := cfg.Retenciones.ListPendingRetries(ctx, retryBatchSize)
	if err != nil {
		log.Error().Err(err).Msg("retry_cron: failed to query pending retries")
		return
	}
	if len(pendientes) == 0 {
		return
	}

	log.Info().Int("count", len(pendientes)).Msg("retry_cron: re-enqueueing pending receipts")

	for i := range pendientes {
		ret := &pendientes[i]

		if ret.RetryCount >= MaxComprobanteRetries {
			ret.NextRetryAt = nil
			_ = cfg.Retenciones.Update(ctx, ret)

			reason := "unknown"
			if ret.LastError != nil {
				reason = *ret.LastError
			}
			payload, _ := json.Marshal(ComprobanteJobPayload{RetencionID: ret.ID.String()})
			EnviarADLQ(ctx, cfg.RDB, EntradaDLQ{
				Cola:     QueueComprobantes,
				Tipo:     JobComprobante,
				Payload:  payload,
				Motivo:   fmt.Sprintf("max retries (%d) exceeded: %s", MaxComprobanteRetries, reason),
				Intentos: ret.RetryCount,
			})
			continue
		}

		// Push next_retry_at forward so the next tick does not enqueue it twice
		// while the worker is still busy with it.
		next := time.Now().Add(computeRetryBackoff(ret.RetryCount + 1))
		ret.NextRetryAt = &next
		if err := cfg.Retenciones.Update(ctx, ret); err != nil {
			log.Error().Err(err).Str("retencion_id", ret.ID.String()).Msg("retry_cron: update failed")
			continue
		}
		if err := cfg.Dispatcher.EnqueueComprobante(ctx, ComprobanteJobPayload{RetencionID: ret.ID.String()}); err != nil {
			log.Error().Err(err).Str("retencion_id", ret.ID.String()).Msg("retry_cron: enqueue failed")
		}
	}
}

// computeRetryBackoff returns 1m, 2m, 4m... capped at 1h.
func computeRetryBackoff(retryCount int) time.Duration {
	if retryCount < 1 {
		retryCount = 1
	}
	d := time.Minute << uint(retryCount-1)
	if d > time.Hour || d <= 0 {
		return time.Hour
	}
	return d
}
