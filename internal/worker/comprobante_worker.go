package worker

// comprobante_worker.go
// Renders withholding receipts (PDF) for jobs in QueueComprobantes.
// A pendiente retencion becomes emitida once its PDF exists. Render failures
// schedule a retry picked up by the retry cron.

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"novaadm/internal/infra"
	"novaadm/internal/model"
	"novaadm/internal/moneda"
	"novaadm/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ComprobanteJobPayload is the job envelope sent to QueueComprobantes.
type ComprobanteJobPayload struct {
	RetencionID string `json:"retencion_id"`
}

// RenderFunc writes the receipt PDF and returns its path.
type RenderFunc func(c infra.ComprobanteRetencion, storagePath string) (string, error)

type ComprobanteWorker struct {
	retenciones    repository.RetencionRepository
	empresas       repository.EmpresaRepository
	dispatcher     *Dispatcher
	pdfStoragePath string
	render         RenderFunc
}

func NewComprobanteWorker(
	retenciones repository.RetencionRepository,
	empresas repository.EmpresaRepository,
	dispatcher *Dispatcher,
	pdfStoragePath string,
) *ComprobanteWorker {
	return &ComprobanteWorker{
		retenciones:    retenciones,
		empresas:       empresas,
		dispatcher:     dispatcher,
		pdfStoragePath: pdfStoragePath,
		render:         infra.GenerarRetencionPDF,
	}
}

// Process handles a single comprobante job:
//  1. Load the retencion with its venta and cliente
//  2. Render the PDF with backoff (3 attempts)
//  3. On success mark it emitida and enqueue the email, if any
//  4. On failure record the error and schedule next_retry_at
func (w *ComprobanteWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload ComprobanteJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("comprobante_worker: invalid payload: %w", err)
	}
	id, err := uuid.Parse(payload.RetencionID)
	if err != nil {
		return fmt.Errorf("comprobante_worker: invalid retencion_id %q", payload.RetencionID)
	}

	ret, err := w.retenciones.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("comprobante_worker: retencion %s: %w", id, err)
	}
	comp := infra.ComprobanteRetencion{Retencion: ret, Venta: ret.Venta}
	if ret.Venta != nil {
		comp.Cliente = ret.Venta.Cliente
	}
	if empresa, err := w.empresas.FindByID(ctx, ret.EmpresaID); err == nil {
		comp.Empresa = empresa
	}

	var pdfPath string
	renderErr := withRetry(ctx, 3, func(attempt int) error {
		p, err := w.render(comp, w.pdfStoragePath)
		if err != nil {
			log.Warn().Err(err).Int("attempt", attempt+1).Str("retencion_id", id.String()).
				Msg("comprobante_worker: render failed, retrying")
			return err
		}
		pdfPath = p
		return nil
	})

	if renderErr != nil {
		ret.RetryCount++
		msg := renderErr.Error()
		ret.LastError = &msg
		next := time.Now().Add(computeRetryBackoff(ret.RetryCount))
		ret.NextRetryAt = &next
		log.Error().Err(renderErr).Str("retencion_id", id.String()).Int("retry_count", ret.RetryCount).
			Msg("comprobante_worker: render failed after all attempts")
		return w.retenciones.Update(ctx, ret)
	}

	ret.PDFPath = &pdfPath
	if ret.Estado == model.RetencionPendiente {
		ret.Estado = model.RetencionEmitida
	}
	ret.NextRetryAt = nil
	ret.LastError = nil
	if err := w.retenciones.Update(ctx, ret); err != nil {
		return fmt.Errorf("comprobante_worker: update retencion: %w", err)
	}
	log.Info().Str("pdf", pdfPath).Str("numero", ret.NumeroComprobante).Msg("comprobante_worker: PDF generated")

	if ret.EmailDestino != nil && *ret.EmailDestino != "" && w.dispatcher != nil {
		job := EmailJobPayload{
			ToEmail: *ret.EmailDestino,
			Subject: fmt.Sprintf("Comprobante de retención %s", ret.NumeroComprobante),
			Body: fmt.Sprintf("Adjunto el comprobante de retención %s.\nMonto retenido: %s",
				ret.Tipo, moneda.Nuevo(ret.MontoRetenido, moneda.USD)),
			PDFPath: pdfPath,
		}
		if err := w.dispatcher.EnqueueEmail(ctx, job); err != nil {
			log.Warn().Err(err).Str("email", *ret.EmailDestino).Msg("comprobante_worker: failed to enqueue email")
		}
	}
	return nil
}

// withRetry calls fn up to maxAttempts times with exponential backoff.
// Backoff schedule: attempt 1 = immediate, 2 = 1s, 3 = 2s.
func withRetry(ctx context.Context, maxAttempts int, fn func(attempt int) error) error {
	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		if i > 0 {
			wait := time.Duration(1<<uint(i-1)) * time.Second
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		if err := fn(i); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}
