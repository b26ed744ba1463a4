package mailer

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDevMailer(t *testing.T) {
	id, err := NewDevMailer().Send(context.Background(), Message{ToEmail: "ana@example.com", Subject: "Hola"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, "dev-"))
}

func TestMailerSend_NotConfigured(t *testing.T) {
	_, err := NewMailerSend("", "Reservas", "").Send(context.Background(), Message{ToEmail: "ana@example.com"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}
