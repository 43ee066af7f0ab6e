package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Jobs that cannot be processed are parked in dlq:<cola> with the reason,
// so an operator can inspect them and re-enqueue by hand.
const dlqPrefix = "dlq:"

func dlqKey(cola string) string { return dlqPrefix + cola }

// EntradaDLQ is one parked job.
type EntradaDLQ struct {
	Cola      string          `json:"cola"`
	Tipo      string          `json:"tipo"`
	Payload   json.RawMessage `json:"payload"`
	Motivo    string          `json:"motivo"`
	Intentos  int             `json:"intentos"`
	FallidoEn time.Time       `json:"fallido_en"`
}

// EnviarADLQ parks e. Failures are only logged: the job is already lost to
// the live queue and there is nowhere else to put it.
func EnviarADLQ(ctx context.Context, rdb *redis.Client, e EntradaDLQ) {
	if rdb == nil {
		log.Error().Str("cola", e.Cola).Str("motivo", e.Motivo).Msg("dlq: no redis, job dropped")
		return
	}
	if e.FallidoEn.IsZero() {
		e.FallidoEn = time.Now().UTC()
	}
	data, err := json.Marshal(e)
	if err != nil {
		log.Error().Err(err).Str("cola", e.Cola).Msg("dlq: marshal failed")
		return
	}
	if err := rdb.LPush(ctx, dlqKey(e.Cola), data).Err(); err != nil {
		log.Error().Err(err).Str("key", dlqKey(e.Cola)).Msg("dlq: push failed")
		return
	}
	log.Warn().
		Str("cola", e.Cola).
		Str("tipo", e.Tipo).
		Str("motivo", e.Motivo).
		Int("intentos", e.Intentos).
		Msg("dlq: job parked")
}

// PendientesDLQ reports how many jobs are parked per queue.
func PendientesDLQ(ctx context.Context, rdb *redis.Client) (map[string]int64, error) {
	colas := []string{QueueComprobantes, QueueEmail}
	pipe := rdb.Pipeline()
	cmds := make([]*redis.IntCmd, len(colas))
	for i, c := range colas {
		cmds[i] = pipe.LLen(ctx, dlqKey(c))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(colas))
	for i, c := range colas {
		out[c] = cmds[i].Val()
	}
	return out, nil
}
