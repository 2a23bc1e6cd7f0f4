package email

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"

	"heather-backend/config"
	"heather-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testService() (*EmailService, *[]string, *[]byte) {
	svc := NewEmailService(&config.Config{
		SMTPHost:      "smtp.test",
		SMTPPort:      "587",
		SMTPUsername:  "user",
		SMTPPassword:  "pass",
		SMTPFromEmail: "noreply@heather.test",
		FrontendURL:   "https://app.heather.test",
	})
	var to []string
	var msg []byte
	svc.send = func(addr string, a smtp.Auth, from string, rcpt []string, m []byte) error {
		to = rcpt
		msg = m
		return nil
	}
	return svc, &to, &msg
}

func TestNotifyNewConversation(t *testing.T) {
	svc, to, msg := testService()
	require.True(t, svc.IsConfigured())

	err := svc.NotifyNewConversation(context.Background(),
		&domain.ProfileRow{Name: "Dr. Grey", Email: "grey@example.com"},
		&domain.ProfileRow{Name: "Jane <script>"},
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"grey@example.com"}, *to)
	body := string(*msg)
	assert.Contains(t, body, "To: grey@example.com")
	assert.Contains(t, body, "https://app.heather.test/messages")
	assert.Contains(t, body, "Jane &lt;script&gt;")
	assert.False(t, strings.Contains(body, "<script>"))
}

func TestNotifyNewConversationErrors(t *testing.T) {
	svc, _, _ := testService()
	assert.Error(t, svc.NotifyNewConversation(context.Background(), &domain.ProfileRow{}, nil))

	svc.send = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("535 auth failed") }
	err := svc.NotifyNewConversation(context.Background(), &domain.ProfileRow{Email: "d@example.com"}, nil)
	assert.ErrorContains(t, err, "535 auth failed")
}

func TestIsConfigured(t *testing.T) {
	assert.False(t, NewEmailService(&config.Config{SMTPHost: "h"}).IsConfigured())
}
