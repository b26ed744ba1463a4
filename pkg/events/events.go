package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/DRBagency/travel-agency-next-sub000/pkg/logger"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

type Subscriber interface {
	Subscribe(subject string, handler func(msg *Message)) error
	QueueSubscribe(subject, queue string, handler func(msg *Message)) error
	Close() error
}

type EventBus interface {
	Publisher
	Subscriber
}

type Message struct {
	Subject   string
	Data      []byte
	Timestamp time.Time
	ID        string
}

type NATSEventBus struct {
	conn *nats.Conn
}

func NewNATSEventBus(url string) (*NATSEventBus, error) {
	conn, err := nats.Connect(url, nats.Name("travel-booking"), nats.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSEventBus{conn: conn}, nil
}

func (n *NATSEventBus) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	msg := nats.NewMsg(subject)
	msg.Data = payload
	msg.Header.Set(nats.MsgIdHdr, uuid.NewString())

	logger.DebugContext(ctx, "Publishing event", "subject", subject, "event_id", msg.Header.Get(nats.MsgIdHdr), "bytes", len(payload))

	return n.conn.PublishMsg(msg)
}

func (n *NATSEventBus) Subscribe(subject string, handler func(msg *Message)) error {
	_, err := n.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(toMessage(msg))
	})
	return err
}

func (n *NATSEventBus) QueueSubscribe(subject, queue string, handler func(msg *Message)) error {
	_, err := n.conn.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
		handler(toMessage(msg))
	})
	return err
}

func (n *NATSEventBus) Close() error {
	return n.conn.Drain()
}

func toMessage(msg *nats.Msg) *Message {
	id := msg.Header.Get(nats.MsgIdHdr)
	if id == "" {
		id = fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return &Message{
		Subject:   msg.Subject,
		Data:      msg.Data,
		Timestamp: time.Now(),
		ID:        id,
	}
}

// NopBus drops every event. It backs local runs with NATS disabled.
type NopBus struct{}

func (NopBus) Publish(ctx context.Context, subject string, _ interface{}) error {
	logger.DebugContext(ctx, "Event bus disabled, dropping event", "subject", subject)
	return nil
}

func (NopBus) Subscribe(string, func(*Message)) error { return nil }
func (NopBus) QueueSubscribe(string, string, func(*Message)) error { return nil }
func (NopBus) Close() error { return nil }

// Event subjects
const (
	SessionStarted   = "booking.session.started"
	SessionClosed    = "booking.session.closed"
	RequestSent      = "booking.request.sent"
	CheckoutStarted  = "booking.checkout.started"
	SubmissionFailed = "booking.submission.failed"
)

// Event payloads
type SessionStartedEvent struct {
	SessionID     string    `json:"session_id"`
	TenantID      string    `json:"tenant_id"`
	DestinationID string    `json:"destination_id"`
	StartedAt     time.Time `json:"started_at"`
}

type SessionClosedEvent struct {
	SessionID string    `json:"session_id"`
	TenantID  string    `json:"tenant_id"`
	Step      int       `json:"step"`
	ClosedAt  time.Time `json:"closed_at"`
}

type RequestSentEvent struct {
	SessionID       string    `json:"session_id"`
	TenantID        string    `json:"tenant_id"`
	DestinationID   string    `json:"destination_id"`
	DestinationName string    `json:"destination_name"`
	ContactName     string    `json:"contact_name"`
	ContactEmail    string    `json:"contact_email"`
	DepartureDate   string    `json:"departure_date"`
	Travelers       int       `json:"travelers"`
	Total           int64     `json:"total"`
	SentAt          time.Time `json:"sent_at"`
}

type CheckoutStartedEvent struct {
	SessionID     string    `json:"session_id"`
	TenantID      string    `json:"tenant_id"`
	DestinationID string    `json:"destination_id"`
	BookingModel  string    `json:"booking_model"`
	Total         int64     `json:"total"`
	Deposit       int64     `json:"deposit"`
	StartedAt     time.Time `json:"started_at"`
}

type SubmissionFailedEvent struct {
	SessionID  string    `json:"session_id"`
	TenantID   string    `json:"tenant_id"`
	Endpoint   string    `json:"endpoint"`
	StatusCode int       `json:"status_code,omitempty"`
	Error      string    `json:"error"`
	Attempt    int       `json:"attempt"`
	FailedAt   time.Time `json:"failed_at"`
}
