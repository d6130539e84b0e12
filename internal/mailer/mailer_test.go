package mailer

import (
	"context"
	"errors"
	"net/smtp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSMTPMailer_SendInvitation(t *testing.T) {
	m := NewSMTPMailer("smtp.example.com", "587", "bot", "pw", "board@example.com")

	var gotAddr string
	var gotTo []string
	var gotMsg []byte
	m.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, msg
		assert.Equal(t, "board@example.com", from)
		return nil
	}

	_, err := m.SendInvitation(context.Background(), InvitationMessage{
		To:          "alice@example.com",
		ProjectName: "Roadmap",
		InviterName: "Bob",
		Role:        "admin",
		AcceptURL:   "http://localhost/invitations/abc",
		ExpiresAt:   time.Now().Add(time.Hour),
	})
	require.NoError(t, err)

	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, []string{"alice@example.com"}, gotTo)
	assert.Contains(t, string(gotMsg), "Subject: Bob invited you to Roadmap")
	assert.Contains(t, string(gotMsg), "http://localhost/invitations/abc")
}

func TestSMTPMailer_WrapsSendError(t *testing.T) {
	m := NewSMTPMailer("smtp.example.com", "587", "", "", "board@example.com")
	m.send = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("connection refused")
	}

	_, err := m.SendVerification(context.Background(), VerificationMessage{To: "a@example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestSMTPMailer_RejectsHeaderInjection(t *testing.T) {
	m := NewSMTPMailer("smtp.example.com", "587", "", "", "board@example.com")
	m.send = func(string, smtp.Auth, string, []string, []byte) error {
		t.Fatal("send must not be called")
		return nil
	}

	_, err := m.SendVerification(context.Background(), VerificationMessage{To: "a@example.com\r\nBcc: x@example.com"})
	require.Error(t, err)
}

func TestLogMailer_ReturnsPreview(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	m := NewLogMailer(zap.New(core))

	delivery, err := m.SendInvitation(context.Background(), InvitationMessage{
		To:        "alice@example.com",
		AcceptURL: "http://localhost/invitations/abc",
	})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost/invitations/abc", delivery.PreviewURL)
	assert.Equal(t, 1, logs.FilterMessage("invitation email (not sent)").Len())
}
