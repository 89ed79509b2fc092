package handlers_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"

	"github.com/xraph/lanes/handlers"
)

func testEmail() *handlers.Email {
	return handlers.NewEmail(handlers.SMTPConfig{
		Host: "localhost",
		Port: 19999, // unlikely to be listening
		From: "lanes@example.com",
	})
}

func TestEmailMessage(t *testing.T) {
	msg, err := testEmail().Message(handlers.EmailPayload{
		To:      []string{"alice@example.com"},
		Cc:      []string{"bob@example.com"},
		Subject: "Hello\r\nBcc: evil@example.com",
		Text:    "hi",
		HTML:    "<p>hi</p>",
	})
	require.NoError(t, err)

	rcpts, err := msg.GetRecipients()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"alice@example.com", "bob@example.com"}, rcpts)
	assert.Equal(t, []string{"HelloBcc: evil@example.com"}, msg.GetGenHeader(mail.HeaderSubject))
}

func TestEmailMessageValidation(t *testing.T) {
	tests := []struct {
		name string
		p    handlers.EmailPayload
	}{
		{"no recipients", handlers.EmailPayload{Text: "x"}},
		{"no body", handlers.EmailPayload{To: []string{"a@example.com"}}},
		{"bad address", handlers.EmailPayload{To: []string{"not an address"}, Text: "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := testEmail().Message(tt.p)
			assert.Error(t, err)
		})
	}
}

func TestEmailSendUnreachableHost(t *testing.T) {
	err := testEmail().Send(context.Background(), handlers.EmailPayload{
		To:   []string{"alice@example.com"},
		Text: "hi",
	})
	assert.Error(t, err)
}

func TestEmailDefinition(t *testing.T) {
	assert.Equal(t, handlers.EmailType, testEmail().Definition().Name)
}
