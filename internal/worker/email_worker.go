package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"novaadm/internal/infra"

	"github.com/rs/zerolog/log"
)

// EmailJobPayload is the job envelope sent to QueueEmail.
type EmailJobPayload struct {
	ToEmail string `json:"to_email"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	PDFPath string `json:"pdf_path"`
}

// Mailer is satisfied by *infra.Mailer.
type Mailer interface {
	Habilitado() bool
	Enviar(msg infra.Mensaje) error
}

// EmailWorker mails withholding receipts to the address recorded on them.
type EmailWorker struct {
	mailer Mailer
}

func NewEmailWorker(mailer Mailer) *EmailWorker {
	return &EmailWorker{mailer: mailer}
}

func (w *EmailWorker) Process(_ context.Context, raw json.RawMessage) error {
	var payload EmailJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("email_worker: invalid payload: %w", err)
	}
	if payload.ToEmail == "" {
		log.Warn().Msg("email_worker: empty to_email, skipping")
		return nil
	}
	if !w.mailer.Habilitado() {
		return errors.New("email_worker: SMTP not configured")
	}

	msg := infra.Mensaje{Para: payload.ToEmail, Asunto: payload.Subject, Texto: payload.Body, Adjunto: payload.PDFPath}
	if err := w.mailer.Enviar(msg); err != nil {
		return fmt.Errorf("email_worker: send to %s: %w", payload.ToEmail, err)
	}
	log.Info().Str("to", payload.ToEmail).Msg("email_worker: comprobante sent")
	return nil
}
