package mailer

import "context"

type Message struct {
	ToEmail string
	ToName  string
	Subject string
	Text    string
	HTML    string
}

// Service delivers one message and returns the provider message id.
type Service interface {
	Send(ctx context.Context, msg Message) (string, error)
}
