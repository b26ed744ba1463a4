// Package notifier mails travelers when their booking request reached the
// agency.
package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/DRBagency/travel-agency-next-sub000/pkg/events"
	"github.com/DRBagency/travel-agency-next-sub000/pkg/logger"
	"github.com/DRBagency/travel-agency-next-sub000/services/notify/internal/mailer"
)

type Notifier struct {
	mailer   mailer.Service
	printer  *message.Printer
	currency string
}

// New formats amounts for locale (a BCP 47 tag) in the ISO 4217 currency
// code. Unknown values fall back to Spanish and EUR.
func New(m mailer.Service, locale, currencyCode string) *Notifier {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.Spanish
	}
	unit, err := currency.ParseISO(currencyCode)
	if err != nil {
		unit = currency.EUR
	}
	return &Notifier{mailer: m, printer: message.NewPrinter(tag), currency: unit.String()}
}

// FormatAmount renders whole currency units with the locale's digit grouping.
func (n *Notifier) FormatAmount(amount int64) string {
	return n.printer.Sprintf("%d %s", amount, n.currency)
}

// HandleRequestSent decodes a booking.request.sent payload and mails the
// primary contact.
func (n *Notifier) HandleRequestSent(ctx context.Context, data []byte) error {
	var ev events.RequestSentEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return fmt.Errorf("decode request sent event: %w", err)
	}
	if strings.TrimSpace(ev.ContactEmail) == "" {
		return fmt.Errorf("request sent event %s has no contact email", ev.SessionID)
	}

	ctx = logger.WithSession(ctx, ev.SessionID, ev.TenantID)
	id, err := n.mailer.Send(ctx, n.requestReceived(ev))
	if err != nil {
		return fmt.Errorf("send request received email: %w", err)
	}
	logger.InfoContext(ctx, "Booking request email sent", "message_id", id, "to", ev.ContactEmail)
	return nil
}

func (n *Notifier) requestReceived(ev events.RequestSentEvent) mailer.Message {
	total := n.FormatAmount(ev.Total)
	subject := fmt.Sprintf("Solicitud de reserva recibida: %s", ev.DestinationName)
	text := fmt.Sprintf(
		"Hola %s,\n\nHemos recibido tu solicitud de reserva para %s con salida el %s.\nViajeros: %d\nImporte estimado: %s\n\nLa agencia se pondrá en contacto contigo para confirmarla.",
		ev.ContactName, ev.DestinationName, ev.DepartureDate, ev.Travelers, total,
	)
	body := fmt.Sprintf(`
		<h2>Solicitud de reserva recibida</h2>
		<p>Hola %s,</p>
		<p>Hemos recibido tu solicitud de reserva para <strong>%s</strong> con salida el %s.</p>
		<p>Viajeros: %d<br>Importe estimado: <strong>%s</strong></p>
		<p>La agencia se pondrá en contacto contigo para confirmarla.</p>
	`, html.EscapeString(ev.ContactName), html.EscapeString(ev.DestinationName), ev.DepartureDate, ev.Travelers, total)

	return mailer.Message{
		ToEmail: ev.ContactEmail,
		ToName:  ev.ContactName,
		Subject: subject,
		Text:    text,
		HTML:    body,
	}
}

// HandleSubmissionFailed records failed submissions for the agency.
func (n *Notifier) HandleSubmissionFailed(ctx context.Context, data []byte) error {
	var ev events.SubmissionFailedEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return fmt.Errorf("decode submission failed event: %w", err)
	}
	ctx = logger.WithSession(ctx, ev.SessionID, ev.TenantID)
	logger.WarnContext(ctx, "Booking submission failed",
		"endpoint", ev.Endpoint,
		"status_code", ev.StatusCode,
		"attempt", ev.Attempt,
		"error", ev.Error,
	)
	return nil
}
