package mailer

import (
	"context"

	"github.com/google/uuid"

	"github.com/DRBagency/travel-agency-next-sub000/pkg/logger"
)

// DevMailer logs messages instead of sending them.
type DevMailer struct{}

func NewDevMailer() *DevMailer {
	return &DevMailer{}
}

func (d *DevMailer) Send(ctx context.Context, msg Message) (string, error) {
	id := "dev-" + uuid.NewString()
	logger.InfoContext(ctx, "[DEV MAIL] "+msg.Subject,
		"message_id", id,
		"to", msg.ToEmail,
		"name", msg.ToName,
		"text", msg.Text,
	)
	return id, nil
}
