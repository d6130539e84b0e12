package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yukikurage/kanban-board-api/internal/config"
)

// Delivery describes an accepted message. PreviewURL is set by mailers that
// do not actually send anything.
type Delivery struct {
	PreviewURL string
}

type InvitationMessage struct {
	To          string
	ProjectName string
	InviterName string
	Role        string
	AcceptURL   string
	ExpiresAt   time.Time
}

type VerificationMessage struct {
	To        string
	Name      string
	VerifyURL string
}

// Mailer delivers the outbound notifications of the board.
type Mailer interface {
	SendInvitation(ctx context.Context, msg InvitationMessage) (Delivery, error)
	SendVerification(ctx context.Context, msg VerificationMessage) (Delivery, error)
}

// New returns an SMTP mailer when SMTP_HOST is configured, otherwise a mailer
// that only logs.
func New(cfg *config.Config, logger *zap.Logger) Mailer {
	if cfg.SMTPEnabled() {
		return NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.MailFrom)
	}
	return NewLogMailer(logger)
}

func invitationBody(msg InvitationMessage) (string, string) {
	subject := fmt.Sprintf("%s invited you to %s", msg.InviterName, msg.ProjectName)
	body := fmt.Sprintf(
		"%s invited you to join the project %q as %s.\r\n\r\n"+
			"Accept the invitation: %s\r\n\r\n"+
			"This invitation expires on %s.\r\n",
		msg.InviterName, msg.ProjectName, msg.Role, msg.AcceptURL,
		msg.ExpiresAt.UTC().Format("2006-01-02 15:04 MST"),
	)
	return subject, body
}

func verificationBody(msg VerificationMessage) (string, string) {
	subject := "Verify your email address"
	body := fmt.Sprintf(
		"Hi %s,\r\n\r\nConfirm your email address: %s\r\n",
		msg.Name, msg.VerifyURL,
	)
	return subject, body
}

// SMTPMailer sends plain-text mail through an SMTP relay.
type SMTPMailer struct {
	host     string
	port     string
	user     string
	password string
	from     string
	send     func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPMailer(host, port, user, password, from string) *SMTPMailer {
	return &SMTPMailer{
		host:     host,
		port:     port,
		user:     user,
		password: password,
		from:     from,
		send:     smtp.SendMail,
	}
}

func (m *SMTPMailer) SendInvitation(ctx context.Context, msg InvitationMessage) (Delivery, error) {
	subject, body := invitationBody(msg)
	return Delivery{}, m.deliver(ctx, msg.To, subject, body)
}

func (m *SMTPMailer) SendVerification(ctx context.Context, msg VerificationMessage) (Delivery, error) {
	subject, body := verificationBody(msg)
	return Delivery{}, m.deliver(ctx, msg.To, subject, body)
}

func (m *SMTPMailer) deliver(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.ContainsAny(to, "\r\n") {
		return fmt.Errorf("invalid recipient %q", to)
	}

	raw := []byte(fmt.Sprintf(
		"From: %s\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/plain; charset=\"utf-8\"\r\n"+
			"\r\n%s\r\n",
		m.from, to, subject, body,
	))

	var auth smtp.Auth
	if m.user != "" {
		auth = smtp.PlainAuth("", m.user, m.password, m.host)
	}
	if err := m.send(m.host+":"+m.port, auth, m.from, []string{to}, raw); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}
	return nil
}

// LogMailer logs messages instead of sending them and hands the link back
// as a preview.
type LogMailer struct {
	logger *zap.Logger
}

func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) SendInvitation(_ context.Context, msg InvitationMessage) (Delivery, error) {
	subject, _ := invitationBody(msg)
	m.logger.Info("invitation email (not sent)",
		zap.String("to", msg.To),
		zap.String("subject", subject),
		zap.String("url", msg.AcceptURL),
	)
	return Delivery{PreviewURL: msg.AcceptURL}, nil
}

func (m *LogMailer) SendVerification(_ context.Context, msg VerificationMessage) (Delivery, error) {
	subject, _ := verificationBody(msg)
	m.logger.Info("verification email (not sent)",
		zap.String("to", msg.To),
		zap.String("subject", subject),
		zap.String("url", msg.VerifyURL),
	)
	return Delivery{PreviewURL: msg.VerifyURL}, nil
}
